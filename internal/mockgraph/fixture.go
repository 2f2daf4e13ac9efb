package mockgraph

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Fixture is the YAML seed for a mock server.
//
//	users:
//	  - id: u-1
//	    displayName: Alice Able
//	    surname: Able
//	    department: Platform
//	    presence:
//	      availability: Available
//	      activity: Available
//	  - id: u-2
//	    displayName: Bob Baker
//	    surname: Baker
//	    department: Sales
//	    presenceStatus: 503
//	    presenceDelay: 2s
type Fixture struct {
	ListStatus int           `yaml:"listStatus"`
	Users      []FixtureUser `yaml:"users"`
}

type FixtureUser struct {
	User           `yaml:",inline"`
	Presence       Presence `yaml:"presence"`
	PresenceStatus int      `yaml:"presenceStatus"`
	PresenceDelay  string   `yaml:"presenceDelay"`
}

// ParseFixture decodes and validates a YAML fixture.
func ParseFixture(b []byte) (*Fixture, error) {
	var f Fixture
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("parse fixture YAML: %w", err)
	}
	seen := make(map[string]struct{}, len(f.Users))
	for i, u := range f.Users {
		id := strings.TrimSpace(u.ID)
		if id == "" {
			return nil, fmt.Errorf("fixture user %d: id is required", i)
		}
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("fixture user %q: duplicate id", id)
		}
		seen[id] = struct{}{}
		if u.PresenceDelay != "" {
			if _, err := time.ParseDuration(u.PresenceDelay); err != nil {
				return nil, fmt.Errorf("fixture user %q: presenceDelay: %w", id, err)
			}
		}
	}
	return &f, nil
}

// LoadFixture reads a YAML fixture file.
func LoadFixture(path string) (*Fixture, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}
	return ParseFixture(b)
}

// Apply seeds s with the fixture's users, presence and injected failures.
func (f *Fixture) Apply(s *Server) {
	if f.ListStatus != 0 {
		s.FailList(f.ListStatus)
	}
	for _, u := range f.Users {
		s.AddUser(u.User, u.Presence)
		if u.PresenceStatus != 0 {
			s.FailPresence(u.ID, u.PresenceStatus)
		}
		if d, err := time.ParseDuration(u.PresenceDelay); err == nil && d > 0 {
			s.DelayPresence(u.ID, d)
		}
	}
}
