package version

import (
	"regexp"
	"testing"
)

func TestCurrentIsSemver(t *testing.T) {
	semver := regexp.MustCompile(`^[0-9]+\.[0-9]+\.[0-9]+$`)
	if !semver.MatchString(Current) {
		t.Fatalf("Current=%q must match <major>.<minor>.<patch>", Current)
	}
}

func TestUserAgent(t *testing.T) {
	if got, want := UserAgent(), "peopledir/"+Current; got != want {
		t.Fatalf("UserAgent: want %q, got %q", want, got)
	}
}
