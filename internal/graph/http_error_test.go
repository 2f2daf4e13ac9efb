package graph

import (
	"net/http"
	"strings"
	"testing"
)

func TestNewHTTPError(t *testing.T) {
	resp := &http.Response{StatusCode: http.StatusForbidden, Status: "403 Forbidden"}

	t.Run("odata_envelope", func(t *testing.T) {
		body := []byte(`{"error":{"code":"Authorization_RequestDenied","message":"Insufficient privileges","innerError":{"request-id":"req-1"}}}`)
		err := newHTTPError("listUsers", resp, body).(*HTTPError)
		if err.Code != "Authorization_RequestDenied" || err.RequestID != "req-1" || err.Snippet != "" {
			t.Fatalf("unexpected error: %#v", err)
		}
		if !strings.Contains(err.Error(), "op=listUsers status=403 Forbidden code=Authorization_RequestDenied") {
			t.Fatalf("unexpected message: %s", err.Error())
		}
	})

	t.Run("plain_body_is_redacted", func(t *testing.T) {
		body := []byte("upstream proxy said: Authorization: Bearer abc.def\naccess_token=xyz")
		err := newHTTPError("getPresence", resp, body).(*HTTPError)
		if strings.Contains(err.Snippet, "abc.def") || strings.Contains(err.Snippet, "xyz") {
			t.Fatalf("expected snippet to be redacted, got %q", err.Snippet)
		}
		if strings.Contains(err.Snippet, "\n") {
			t.Fatalf("expected single-line snippet, got %q", err.Snippet)
		}
	})

	t.Run("long_body_is_truncated", func(t *testing.T) {
		body := []byte(strings.Repeat("x", snippetMax+10))
		err := newHTTPError("getPresence", resp, body).(*HTTPError)
		if !strings.HasSuffix(err.Snippet, "...") || len(err.Snippet) != snippetMax+3 {
			t.Fatalf("unexpected snippet length %d", len(err.Snippet))
		}
	})
}
