package graph

import (
	"context"

	"github.com/palantir/compute-module-people-directory/internal/directory"
)

// Source adapts Client to directory.Source.
type Source struct {
	Client *Client
}

var _ directory.Source = Source{}

func (s Source) ListProfiles(ctx context.Context, q directory.ProfileQuery) (directory.ProfilePage, error) {
	page, err := s.Client.ListUsers(ctx, UsersQuery{
		Filter:  q.Filter,
		Select:  q.Select,
		OrderBy: q.OrderBy,
		Top:     q.Top,
		Count:   q.Count,
	})
	if err != nil {
		return directory.ProfilePage{}, err
	}
	records := make([]directory.ProfileRecord, 0, len(page.Users))
	for _, u := range page.Users {
		records = append(records, directory.ProfileRecord{
			ID:             u.ID,
			DisplayName:    u.DisplayName,
			JobTitle:       u.JobTitle,
			Department:     u.Department,
			OfficeLocation: u.OfficeLocation,
		})
	}
	return directory.ProfilePage{Records: records, Count: page.Count}, nil
}

func (s Source) GetPresence(ctx context.Context, profileID string) (directory.PresenceSnapshot, error) {
	p, err := s.Client.GetPresence(ctx, profileID)
	if err != nil {
		return directory.PresenceSnapshot{}, err
	}
	snap := directory.PresenceSnapshot{
		Availability:  directory.Availability(p.Availability),
		Activity:      p.Activity,
		StatusMessage: p.StatusText(),
	}
	if p.OutOfOfficeSettings != nil {
		snap.OutOfOffice = directory.OutOfOfficeSettings{
			IsOutOfOffice: p.OutOfOfficeSettings.IsOutOfOffice,
			Message:       p.OutOfOfficeSettings.Message,
		}
	}
	return snap, nil
}
