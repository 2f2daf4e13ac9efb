package graph

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/palantir/compute-module-people-directory/internal/redact"
)

// errorEnvelope is the OData error shape returned by Graph.
type errorEnvelope struct {
	Error struct {
		Code       string `json:"code"`
		Message    string `json:"message"`
		InnerError struct {
			RequestID string `json:"request-id"`
		} `json:"innerError"`
	} `json:"error"`
}

// snippetMax bounds the body hint kept for non-OData responses.
const snippetMax = 256

// HTTPError is a sanitized summary of a non-2xx Graph response.
//
// Raw bodies are never kept: they can carry PII or tokens.
type HTTPError struct {
	Op         string
	StatusCode int
	Status     string
	Code       string
	Message    string
	RequestID  string

	// Snippet is a redacted, truncated hint for responses without an error envelope.
	Snippet string
}

func (e *HTTPError) Error() string {
	if e == nil {
		return "graph http error"
	}
	parts := []string{
		fmt.Sprintf("graph api error: op=%s status=%s", strings.TrimSpace(e.Op), strings.TrimSpace(e.Status)),
	}
	if e.Code != "" {
		parts = append(parts, "code="+e.Code)
	}
	if e.Message != "" {
		parts = append(parts, "message="+redact.Secrets(e.Message))
	}
	if e.RequestID != "" {
		parts = append(parts, "request-id="+e.RequestID)
	}
	if e.Snippet != "" {
		parts = append(parts, "body="+e.Snippet)
	}
	return strings.Join(parts, " ")
}

// Throttled reports whether Graph rejected the request for rate reasons.
func (e *HTTPError) Throttled() bool {
	return e != nil && (e.StatusCode == http.StatusTooManyRequests || e.StatusCode == http.StatusServiceUnavailable)
}

func newHTTPError(op string, resp *http.Response, body []byte) error {
	h := &HTTPError{Op: op}
	if resp != nil {
		h.StatusCode = resp.StatusCode
		h.Status = resp.Status
	}

	var env errorEnvelope
	if len(body) > 0 && json.Unmarshal(body, &env) == nil {
		h.Code = strings.TrimSpace(env.Error.Code)
		h.Message = strings.TrimSpace(env.Error.Message)
		h.RequestID = strings.TrimSpace(env.Error.InnerError.RequestID)
		if h.Code != "" || h.Message != "" {
			return h
		}
	}

	h.Snippet = redact.Truncate(body, snippetMax)
	return h
}
