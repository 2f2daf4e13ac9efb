package directory

// Included reports whether a resolved snapshot produces an entry. The check uses
// the raw availability, before any out-of-office override.
func Included(s PresenceSnapshot) bool {
	return s.Availability != PresenceUnknown
}

// Reconcile merges a profile with its presence snapshot. An active out-of-office
// setting overrides availability, activity and status message.
func Reconcile(p ProfileRecord, s PresenceSnapshot) EnrichedEntry {
	e := EnrichedEntry{
		DisplayName:    p.DisplayName,
		JobTitle:       p.JobTitle,
		Department:     p.Department,
		OfficeLocation: p.OfficeLocation,
		Availability:   s.Availability,
		Activity:       s.Activity,
		StatusMessage:  s.StatusMessage,
	}
	if s.OutOfOffice.IsOutOfOffice {
		e.Availability = OutOfOffice
		e.Activity = OutOfOfficeToken
		e.StatusMessage = s.OutOfOffice.Message
	}
	return e
}
