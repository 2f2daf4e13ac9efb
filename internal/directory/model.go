package directory

// Availability is the presence status token reported by the upstream source.
type Availability string

const (
	Available       Availability = "Available"
	AvailableIdle   Availability = "AvailableIdle"
	Away            Availability = "Away"
	BeRightBack     Availability = "BeRightBack"
	Busy            Availability = "Busy"
	BusyIdle        Availability = "BusyIdle"
	DoNotDisturb    Availability = "DoNotDisturb"
	Offline         Availability = "Offline"
	PresenceUnknown Availability = "PresenceUnknown"

	// OutOfOffice replaces availability and activity for people with an active
	// out-of-office setting.
	OutOfOffice Availability = "Out of Office"
)

// OutOfOfficeToken is the activity written for out-of-office entries.
const OutOfOfficeToken = string(OutOfOffice)

// ProfileRecord is one person from the organizational directory.
// Fields absent upstream are empty strings.
type ProfileRecord struct {
	ID             string
	DisplayName    string
	JobTitle       string
	Department     string
	OfficeLocation string
}

// PresenceSnapshot is the live status of one person at lookup time.
type PresenceSnapshot struct {
	Availability  Availability
	Activity      string
	StatusMessage string
	OutOfOffice   OutOfOfficeSettings
}

type OutOfOfficeSettings struct {
	IsOutOfOffice bool
	Message       string
}

// EnrichedEntry is the merged result handed to the presentation layer.
type EnrichedEntry struct {
	DisplayName    string       `json:"displayName"`
	JobTitle       string       `json:"jobTitle"`
	Department     string       `json:"department"`
	OfficeLocation string       `json:"officeLocation"`
	Availability   Availability `json:"availability"`
	Activity       string       `json:"activity"`
	StatusMessage  string       `json:"statusMessage"`
}
