package redact_test

import (
	"strings"
	"testing"

	"github.com/palantir/compute-module-people-directory/internal/redact"
)

func TestSecrets(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		mustNot string
	}{
		{name: "empty", in: "", want: ""},
		{name: "bearer", in: "GET failed: Authorization: Bearer eyJhbGciOi.abc.def", want: "GET failed: Authorization: Bearer <redacted>", mustNot: "eyJ"},
		{name: "access_token query", in: "url=https://x/y?access_token=s3cr3t&top=5", want: "url=https://x/y?<redacted_kv>&top=5", mustNot: "s3cr3t"},
		{name: "client secret kv", in: "client_secret: hunter2", want: "<redacted_kv>", mustNot: "hunter2"},
		{name: "plain", in: "  nothing to see  ", want: "nothing to see"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := redact.Secrets(tt.in)
			if got != tt.want {
				t.Fatalf("Secrets(%q)=%q want %q", tt.in, got, tt.want)
			}
			if tt.mustNot != "" && strings.Contains(got, tt.mustNot) {
				t.Fatalf("Secrets(%q) leaked %q", tt.in, tt.mustNot)
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	if got := redact.Truncate(nil, 10); got != "" {
		t.Fatalf("expected empty, got %q", got)
	}
	if got := redact.Truncate([]byte("line1\nline2"), 0); got != "line1 line2" {
		t.Fatalf("unexpected: %q", got)
	}
	if got := redact.Truncate([]byte("abcdefghij"), 4); got != "abcd..." {
		t.Fatalf("unexpected: %q", got)
	}
}
