package directory_test

import (
	"context"
	"sync"
	"time"

	"github.com/palantir/compute-module-people-directory/internal/directory"
)

type fakeSource struct {
	page     directory.ProfilePage
	listErr  error
	presence map[string]directory.PresenceSnapshot
	errs     map[string]error
	delays   map[string]time.Duration

	mu            sync.Mutex
	queries       []directory.ProfileQuery
	presenceCalls []string
}

func (f *fakeSource) ListProfiles(_ context.Context, q directory.ProfileQuery) (directory.ProfilePage, error) {
	f.mu.Lock()
	f.queries = append(f.queries, q)
	f.mu.Unlock()
	if f.listErr != nil {
		return directory.ProfilePage{}, f.listErr
	}
	return f.page, nil
}

func (f *fakeSource) GetPresence(ctx context.Context, id string) (directory.PresenceSnapshot, error) {
	f.mu.Lock()
	f.presenceCalls = append(f.presenceCalls, id)
	f.mu.Unlock()

	if d := f.delays[id]; d > 0 {
		select {
		case <-time.After(d):
		case <-ctx.Done():
			return directory.PresenceSnapshot{}, ctx.Err()
		}
	}
	if err := f.errs[id]; err != nil {
		return directory.PresenceSnapshot{}, err
	}
	return f.presence[id], nil
}

func (f *fakeSource) calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.presenceCalls...)
}

// recordingObserver captures events for assertions.
type recordingObserver struct {
	directory.NopObserver

	mu       sync.Mutex
	failed   []string
	excluded []string
	fetched  []int
	pageErrs []error
	runs     int
}

func (r *recordingObserver) PageFetched(records, _ int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fetched = append(r.fetched, records)
}

func (r *recordingObserver) PageFailed(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pageErrs = append(r.pageErrs, err)
}

func (r *recordingObserver) LookupFailed(err *directory.PresenceLookupError) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failed = append(r.failed, err.ProfileID)
}

func (r *recordingObserver) LookupExcluded(id string, _ directory.Availability) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.excluded = append(r.excluded, id)
}

func (r *recordingObserver) RunCompleted(int, int, time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs++
}

func profile(id, name, dept string) directory.ProfileRecord {
	return directory.ProfileRecord{
		ID:             id,
		DisplayName:    name,
		JobTitle:       "Engineer",
		Department:     dept,
		OfficeLocation: "Denver",
	}
}

func available() directory.PresenceSnapshot {
	return directory.PresenceSnapshot{Availability: directory.Available, Activity: "Available"}
}
