package directory

import "fmt"

// DirectoryFetchError reports that the profile page query failed. It is fatal to
// the run: no partial page is returned and no presence lookups are issued.
type DirectoryFetchError struct {
	Cause error
}

func (e *DirectoryFetchError) Error() string {
	if e == nil || e.Cause == nil {
		return "directory fetch failed"
	}
	return "directory fetch failed: " + e.Cause.Error()
}

func (e *DirectoryFetchError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// PresenceLookupError reports that presence for one profile could not be read.
// Aggregator absorbs it; the profile is dropped from the result.
type PresenceLookupError struct {
	ProfileID string
	Cause     error
}

func (e *PresenceLookupError) Error() string {
	if e == nil {
		return "presence lookup failed"
	}
	if e.Cause == nil {
		return fmt.Sprintf("presence lookup failed for %q", e.ProfileID)
	}
	return fmt.Sprintf("presence lookup failed for %q: %s", e.ProfileID, e.Cause.Error())
}

func (e *PresenceLookupError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}
