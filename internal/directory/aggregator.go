package directory

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/palantir/compute-module-people-directory/internal/fanout"
)

// DefaultLookupTimeout bounds a single presence lookup.
const DefaultLookupTimeout = 10 * time.Second

type AggregatorOptions struct {
	// LookupTimeout is applied to each presence lookup. Zero uses DefaultLookupTimeout;
	// negative disables the timeout.
	LookupTimeout time.Duration

	// MaxConcurrency bounds in-flight lookups. Set to <=0 to issue every lookup at once.
	MaxConcurrency int

	// RateLimitRPS paces lookups across the whole run. Set to <=0 to disable.
	RateLimitRPS float64
}

// Aggregator fans out presence lookups for a page of profiles and merges the
// results.
type Aggregator struct {
	source   Source
	opts     AggregatorOptions
	observer Observer
}

func NewAggregator(source Source, opts AggregatorOptions, observer Observer) *Aggregator {
	if opts.LookupTimeout == 0 {
		opts.LookupTimeout = DefaultLookupTimeout
	}
	if observer == nil {
		observer = NopObserver{}
	}
	return &Aggregator{source: source, opts: opts, observer: observer}
}

type lookupOutcome struct {
	entry    EnrichedEntry
	included bool
}

// Aggregate returns one entry per profile whose lookup succeeded with known
// presence, in input order. Lookup failures and unknown presence drop the profile
// silently. The only error is the caller's context ending before fan-in.
func (a *Aggregator) Aggregate(ctx context.Context, profiles []ProfileRecord) ([]EnrichedEntry, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "directory.Aggregate")
	defer span.End()
	span.SetAttributes(attribute.Int("directory.profiles", len(profiles)))

	results, err := fanout.Run(ctx, profiles, a.lookup, fanout.Options{
		MaxConcurrency: a.opts.MaxConcurrency,
		Timeout:        a.opts.LookupTimeout,
		RateLimitRPS:   a.opts.RateLimitRPS,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "aggregation abandoned")
		return nil, err
	}

	entries := make([]EnrichedEntry, 0, len(results))
	for _, r := range results {
		if r.Err != nil {
			a.observer.LookupFailed(asLookupError(r.Input.ID, r.Err))
			continue
		}
		if r.Output.included {
			entries = append(entries, r.Output.entry)
		}
	}
	span.SetAttributes(attribute.Int("directory.entries", len(entries)))
	return entries, nil
}

func (a *Aggregator) lookup(ctx context.Context, p ProfileRecord) (lookupOutcome, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "directory.GetPresence")
	defer span.End()
	span.SetAttributes(attribute.String("directory.profile_id", p.ID))

	snap, err := a.source.GetPresence(ctx, p.ID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "presence lookup failed")
		return lookupOutcome{}, &PresenceLookupError{ProfileID: p.ID, Cause: err}
	}
	span.SetAttributes(attribute.String("directory.availability", string(snap.Availability)))

	if !Included(snap) {
		a.observer.LookupExcluded(p.ID, snap.Availability)
		return lookupOutcome{}, nil
	}
	a.observer.LookupSucceeded(p, snap)
	return lookupOutcome{entry: Reconcile(p, snap), included: true}, nil
}

func asLookupError(profileID string, err error) *PresenceLookupError {
	var le *PresenceLookupError
	if errors.As(err, &le) {
		return le
	}
	return &PresenceLookupError{ProfileID: profileID, Cause: err}
}
