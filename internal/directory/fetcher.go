package directory

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const tracerName = "github.com/palantir/compute-module-people-directory/internal/directory"

// PageFetcher reads one bounded page of profiles. It never follows pagination links.
type PageFetcher struct {
	source   Source
	query    ProfileQuery
	observer Observer
}

// NewPageFetcher returns a fetcher for q. Zero-valued query fields fall back to
// DefaultQuery.
func NewPageFetcher(source Source, q ProfileQuery, observer Observer) *PageFetcher {
	def := DefaultQuery()
	if q.Filter == "" {
		q.Filter = def.Filter
	}
	if len(q.Select) == 0 {
		q.Select = def.Select
	}
	if q.OrderBy == "" {
		q.OrderBy = def.OrderBy
	}
	if q.Top <= 0 {
		q.Top = def.Top
	}
	if q.Top > MaxPageSize {
		q.Top = MaxPageSize
	}
	if observer == nil {
		observer = NopObserver{}
	}
	return &PageFetcher{source: source, query: q, observer: observer}
}

// Query returns the effective query.
func (f *PageFetcher) Query() ProfileQuery {
	return f.query
}

// FetchProfiles returns at most Top profiles in upstream order, or a
// *DirectoryFetchError.
func (f *PageFetcher) FetchProfiles(ctx context.Context) ([]ProfileRecord, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "directory.FetchProfiles")
	defer span.End()
	span.SetAttributes(
		attribute.String("directory.filter", f.query.Filter),
		attribute.Int("directory.top", f.query.Top),
	)

	page, err := f.source.ListProfiles(ctx, f.query)
	if err != nil {
		fetchErr := &DirectoryFetchError{Cause: err}
		span.RecordError(fetchErr)
		span.SetStatus(codes.Error, "list profiles failed")
		f.observer.PageFailed(fetchErr)
		return nil, fetchErr
	}

	records := page.Records
	if len(records) > f.query.Top {
		records = records[:f.query.Top]
	}
	out := make([]ProfileRecord, len(records))
	copy(out, records)

	span.SetAttributes(attribute.Int("directory.records", len(out)))
	f.observer.PageFetched(len(out), page.Count)
	return out, nil
}
