package directory_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/palantir/compute-module-people-directory/internal/directory"
)

// Outcome kinds drawn by the generator.
const (
	kindAvailable = iota
	kindUnknown
	kindError
	kindOutOfOffice
)

// sourceFor builds a fake source where profile i resolves according to kinds[i].
func sourceFor(kinds []int) (*fakeSource, []directory.ProfileRecord) {
	src := &fakeSource{
		presence: make(map[string]directory.PresenceSnapshot, len(kinds)),
		errs:     make(map[string]error),
	}
	profiles := make([]directory.ProfileRecord, len(kinds))
	for i, k := range kinds {
		id := fmt.Sprintf("u-%03d", i)
		profiles[i] = profile(id, "Person "+id, "Dept")
		switch k {
		case kindAvailable:
			src.presence[id] = available()
		case kindUnknown:
			src.presence[id] = directory.PresenceSnapshot{
				Availability: directory.PresenceUnknown,
				OutOfOffice:  directory.OutOfOfficeSettings{IsOutOfOffice: i%2 == 0},
			}
		case kindError:
			src.errs[id] = errors.New("lookup failed")
		case kindOutOfOffice:
			src.presence[id] = directory.PresenceSnapshot{
				Availability: directory.Busy,
				Activity:     "InAMeeting",
				OutOfOffice:  directory.OutOfOfficeSettings{IsOutOfOffice: true, Message: "away " + id},
			}
		}
	}
	return src, profiles
}

// expected is the sequential reference for Aggregate.
func expected(kinds []int, profiles []directory.ProfileRecord, src *fakeSource) []directory.EnrichedEntry {
	var out []directory.EnrichedEntry
	for i, k := range kinds {
		if k == kindError || k == kindUnknown {
			continue
		}
		out = append(out, directory.Reconcile(profiles[i], src.presence[profiles[i].ID]))
	}
	return out
}

func TestAggregate_PropertyBased(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	kindsGen := gen.SliceOf(gen.IntRange(kindAvailable, kindOutOfOffice))

	properties.Property("output is never longer than input", prop.ForAll(
		func(kinds []int) bool {
			src, profiles := sourceFor(kinds)
			got, err := directory.NewAggregator(src, directory.AggregatorOptions{}, nil).Aggregate(context.Background(), profiles)
			return err == nil && len(got) <= len(profiles)
		},
		kindsGen,
	))

	properties.Property("no entry carries unknown availability", prop.ForAll(
		func(kinds []int) bool {
			src, profiles := sourceFor(kinds)
			got, err := directory.NewAggregator(src, directory.AggregatorOptions{}, nil).Aggregate(context.Background(), profiles)
			if err != nil {
				return false
			}
			for _, e := range got {
				if e.Availability == directory.PresenceUnknown {
					return false
				}
			}
			return true
		},
		kindsGen,
	))

	properties.Property("out-of-office entries are overridden", prop.ForAll(
		func(kinds []int) bool {
			src, profiles := sourceFor(kinds)
			got, err := directory.NewAggregator(src, directory.AggregatorOptions{}, nil).Aggregate(context.Background(), profiles)
			if err != nil {
				return false
			}
			for _, e := range got {
				if e.Activity == "InAMeeting" {
					return false
				}
				if e.Availability == directory.OutOfOffice && e.Activity != directory.OutOfOfficeToken {
					return false
				}
			}
			return true
		},
		kindsGen,
	))

	properties.Property("matches sequential reference in input order", prop.ForAll(
		func(kinds []int, maxConc int) bool {
			src, profiles := sourceFor(kinds)
			got, err := directory.NewAggregator(src, directory.AggregatorOptions{MaxConcurrency: maxConc}, nil).
				Aggregate(context.Background(), profiles)
			if err != nil {
				return false
			}
			want := expected(kinds, profiles, src)
			if len(got) != len(want) {
				return false
			}
			for i := range want {
				if got[i] != want[i] {
					return false
				}
			}
			return true
		},
		kindsGen,
		gen.IntRange(0, 8),
	))

	properties.TestingRun(t)
}
