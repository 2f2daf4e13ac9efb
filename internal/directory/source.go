package directory

import "context"

//go:generate mockgen -destination=mock_source_test.go -package=directory -self_package=github.com/palantir/compute-module-people-directory/internal/directory github.com/palantir/compute-module-people-directory/internal/directory Source

// Source is the upstream directory and presence data source. Implementations must
// be safe for concurrent use; Aggregator shares one Source across all lookups.
type Source interface {
	ListProfiles(ctx context.Context, q ProfileQuery) (ProfilePage, error)
	GetPresence(ctx context.Context, profileID string) (PresenceSnapshot, error)
}

// ProfileQuery is a server-side filtered, projected, ordered, bounded query.
type ProfileQuery struct {
	Filter  string
	Select  []string
	OrderBy string
	Top     int
	Count   bool
}

// ProfilePage is one page of profiles in upstream order.
type ProfilePage struct {
	Records []ProfileRecord

	// Count is the total number of matching records when the source reports it, or -1.
	Count int
}

const (
	DefaultFilter   = "department ne null and surname ne null"
	DefaultOrderBy  = "displayName"
	DefaultPageSize = 50

	// MaxPageSize is the largest page the upstream accepts.
	MaxPageSize = 999
)

// DefaultSelect lists the profile fields read from the directory.
var DefaultSelect = []string{"id", "displayName", "jobTitle", "department", "officeLocation"}

// DefaultQuery returns the query used when PageFetcher is built without overrides.
func DefaultQuery() ProfileQuery {
	return ProfileQuery{
		Filter:  DefaultFilter,
		Select:  append([]string(nil), DefaultSelect...),
		OrderBy: DefaultOrderBy,
		Top:     DefaultPageSize,
		Count:   true,
	}
}
