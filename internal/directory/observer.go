package directory

import (
	"errors"
	"time"

	"github.com/palantir/compute-module-people-directory/internal/logging"
	"github.com/palantir/compute-module-people-directory/internal/redact"
)

// Observer receives informational and error events from a run. Implementations
// must be safe for concurrent use: lookup events arrive from parallel goroutines.
type Observer interface {
	PageFetched(records, count int)
	PageFailed(err error)
	LookupFailed(err *PresenceLookupError)
	LookupExcluded(profileID string, availability Availability)
	LookupSucceeded(profile ProfileRecord, snapshot PresenceSnapshot)
	RunCompleted(profiles, entries int, elapsed time.Duration)
}

// NopObserver ignores every event.
type NopObserver struct{}

func (NopObserver) PageFetched(int, int)                            {}
func (NopObserver) PageFailed(error)                                {}
func (NopObserver) LookupFailed(*PresenceLookupError)               {}
func (NopObserver) LookupExcluded(string, Availability)             {}
func (NopObserver) LookupSucceeded(ProfileRecord, PresenceSnapshot) {}
func (NopObserver) RunCompleted(int, int, time.Duration)            {}

// Observers forwards every event to each member in order.
type Observers []Observer

func (o Observers) PageFetched(records, count int) {
	for _, obs := range o {
		obs.PageFetched(records, count)
	}
}

func (o Observers) PageFailed(err error) {
	for _, obs := range o {
		obs.PageFailed(err)
	}
}

func (o Observers) LookupFailed(err *PresenceLookupError) {
	for _, obs := range o {
		obs.LookupFailed(err)
	}
}

func (o Observers) LookupExcluded(profileID string, availability Availability) {
	for _, obs := range o {
		obs.LookupExcluded(profileID, availability)
	}
}

func (o Observers) LookupSucceeded(profile ProfileRecord, snapshot PresenceSnapshot) {
	for _, obs := range o {
		obs.LookupSucceeded(profile, snapshot)
	}
}

func (o Observers) RunCompleted(profiles, entries int, elapsed time.Duration) {
	for _, obs := range o {
		obs.RunCompleted(profiles, entries, elapsed)
	}
}

// LogObserver writes run events to a Logger.
type LogObserver struct {
	Logger logging.Logger
}

func (l LogObserver) PageFetched(records, count int) {
	l.Logger.Info("fetched directory page", logging.Int("records", records), logging.Int("count", count))
}

func (l LogObserver) PageFailed(err error) {
	l.Logger.Error("directory page fetch failed", redactedErr(err), logging.Bool("throttled", throttled(err)))
}

func (l LogObserver) LookupFailed(err *PresenceLookupError) {
	l.Logger.Error("presence lookup failed", redactedErr(err.Cause),
		logging.String("profile", err.ProfileID),
		logging.Bool("throttled", throttled(err.Cause)),
	)
}

func (l LogObserver) LookupExcluded(profileID string, availability Availability) {
	l.Logger.Debug("presence unknown; excluding profile",
		logging.String("profile", profileID),
		logging.String("availability", string(availability)),
	)
}

func (l LogObserver) LookupSucceeded(profile ProfileRecord, snapshot PresenceSnapshot) {
	l.Logger.Info("fetched presence",
		logging.String("profile", profile.ID),
		logging.String("displayName", profile.DisplayName),
		logging.Bool("outOfOffice", snapshot.OutOfOffice.IsOutOfOffice),
	)
}

func (l LogObserver) RunCompleted(profiles, entries int, elapsed time.Duration) {
	l.Logger.Info("directory run complete",
		logging.Int("profiles", profiles),
		logging.Int("entries", entries),
		logging.Int("dropped", profiles-entries),
		logging.Duration("duration", elapsed.Round(time.Millisecond)),
	)
}

// throttledError is implemented by upstream errors that can tell a rate
// rejection apart from other failures.
type throttledError interface {
	Throttled() bool
}

func throttled(err error) bool {
	var t throttledError
	return errors.As(err, &t) && t.Throttled()
}

type redactedError struct{ msg string }

func (e redactedError) Error() string { return e.msg }

func redactedErr(err error) error {
	if err == nil {
		return nil
	}
	return redactedError{msg: redact.Secrets(err.Error())}
}
