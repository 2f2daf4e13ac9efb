package directory

import (
	"context"
	"time"
)

// Service composes PageFetcher and Aggregator into the single entry point used by
// the presentation layer.
type Service struct {
	fetcher    *PageFetcher
	aggregator *Aggregator
	observer   Observer
}

type Options struct {
	Query      ProfileQuery
	Aggregator AggregatorOptions
	Observer   Observer
}

func NewService(source Source, opts Options) *Service {
	obs := opts.Observer
	if obs == nil {
		obs = NopObserver{}
	}
	return &Service{
		fetcher:    NewPageFetcher(source, opts.Query, obs),
		aggregator: NewAggregator(source, opts.Aggregator, obs),
		observer:   obs,
	}
}

// FetchDirectory fetches one page of profiles and merges live presence into it.
//
// A failed page query returns *DirectoryFetchError and no presence lookups are
// attempted. Presence failures only shorten the result. Each call is independent;
// concurrent calls share nothing but the Source.
func (s *Service) FetchDirectory(ctx context.Context) ([]EnrichedEntry, error) {
	start := time.Now()

	profiles, err := s.fetcher.FetchProfiles(ctx)
	if err != nil {
		return nil, err
	}

	entries, err := s.aggregator.Aggregate(ctx, profiles)
	if err != nil {
		return nil, err
	}

	s.observer.RunCompleted(len(profiles), len(entries), time.Since(start))
	return entries, nil
}
