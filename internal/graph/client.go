package graph

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/palantir/compute-module-people-directory/internal/version"
)

// Client is a minimal HTTP client for the directory and presence endpoints of the
// Microsoft Graph API.
type Client struct {
	v1Base   *url.URL
	betaBase *url.URL
	tokens   TokenSource
	http     *http.Client
}

// User is one entry of the /users collection, restricted to the selected fields.
// Graph returns null for unset attributes; those decode as "".
type User struct {
	ID             string `json:"id"`
	DisplayName    string `json:"displayName"`
	JobTitle       string `json:"jobTitle"`
	Department     string `json:"department"`
	OfficeLocation string `json:"officeLocation"`
}

// UsersPage is a single page of the /users collection.
type UsersPage struct {
	Users []User

	// Count is @odata.count, or -1 when the response omits it.
	Count int

	// NextLink is reported for completeness; callers never follow it.
	NextLink string
}

type usersResponse struct {
	Count    *int   `json:"@odata.count"`
	NextLink string `json:"@odata.nextLink"`
	Value    []User `json:"value"`
}

// Presence is the /users/{id}/presence resource.
type Presence struct {
	ID                  string               `json:"id"`
	Availability        string               `json:"availability"`
	Activity            string               `json:"activity"`
	StatusMessage       *StatusMessage       `json:"statusMessage"`
	OutOfOfficeSettings *OutOfOfficeSettings `json:"outOfOfficeSettings"`
}

type StatusMessage struct {
	Message *ItemBody `json:"message"`
}

type ItemBody struct {
	Content     string `json:"content"`
	ContentType string `json:"contentType"`
}

type OutOfOfficeSettings struct {
	Message       string `json:"message"`
	IsOutOfOffice bool   `json:"isOutOfOffice"`
}

// StatusText returns the status message content, or "" when none is set.
func (p Presence) StatusText() string {
	if p.StatusMessage == nil || p.StatusMessage.Message == nil {
		return ""
	}
	return p.StatusMessage.Message.Content
}

// UsersQuery holds the OData options of a /users request. Empty fields are omitted.
type UsersQuery struct {
	Filter  string
	Select  []string
	OrderBy string
	Top     int
	Count   bool
}

// NewClient constructs a client for the Graph v1.0 and beta base URLs, for example
// "https://graph.microsoft.com/v1.0" and "https://graph.microsoft.com/beta".
//
// defaultCAPath is optional and, when provided, is used as the trust store for TLS.
func NewClient(v1URL, betaURL string, tokens TokenSource, defaultCAPath string) (*Client, error) {
	v1, err := parseBaseURL(v1URL, "graph v1.0")
	if err != nil {
		return nil, err
	}
	beta, err := parseBaseURL(betaURL, "graph beta")
	if err != nil {
		return nil, err
	}
	hc, err := newHTTPClient(defaultCAPath)
	if err != nil {
		return nil, err
	}
	if tokens == nil {
		tokens = StaticToken("")
	}
	return &Client{v1Base: v1, betaBase: beta, tokens: tokens, http: hc}, nil
}

func parseBaseURL(raw string, name string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("%s base URL is required", name)
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse %s base URL: %w", name, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%s base URL must include a host (got %q)", name, raw)
	}
	// Trailing slash so ResolveReference keeps the version segment.
	u.Path = strings.TrimRight(u.Path, "/") + "/"
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}

func newHTTPClient(defaultCAPath string) (*http.Client, error) {
	tr := http.DefaultTransport.(*http.Transport).Clone()
	if p := strings.TrimSpace(defaultCAPath); p != "" {
		b, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("read DEFAULT_CA_PATH file: %w", err)
		}
		pool := x509.NewCertPool()
		if ok := pool.AppendCertsFromPEM(b); !ok {
			return nil, fmt.Errorf("parse DEFAULT_CA_PATH PEM: no certs found")
		}
		tr.TLSClientConfig = &tls.Config{RootCAs: pool, MinVersion: tls.VersionTLS12}
	}
	return &http.Client{Transport: tr, Timeout: 60 * time.Second}, nil
}

// ListUsers reads one page of /users. It sends ConsistencyLevel: eventual, which
// Graph requires for "ne null" filters combined with $count.
func (c *Client) ListUsers(ctx context.Context, q UsersQuery) (UsersPage, error) {
	v := url.Values{}
	if q.Filter != "" {
		v.Set("$filter", q.Filter)
	}
	if len(q.Select) > 0 {
		v.Set("$select", strings.Join(q.Select, ","))
	}
	if q.OrderBy != "" {
		v.Set("$orderby", q.OrderBy)
	}
	if q.Top > 0 {
		v.Set("$top", strconv.Itoa(q.Top))
	}
	if q.Count {
		v.Set("$count", "true")
	}

	u := c.v1Base.ResolveReference(&url.URL{Path: "users"})
	u.RawQuery = v.Encode()

	b, err := c.get(ctx, "listUsers", u, map[string]string{"ConsistencyLevel": "eventual"})
	if err != nil {
		return UsersPage{}, err
	}

	var out usersResponse
	if err := json.Unmarshal(b, &out); err != nil {
		return UsersPage{}, fmt.Errorf("parse list users response: %w", err)
	}
	page := UsersPage{Users: out.Value, Count: -1, NextLink: out.NextLink}
	if out.Count != nil {
		page.Count = *out.Count
	}
	return page, nil
}

// GetPresence reads the presence of one user from the beta endpoint, which is the
// one that carries outOfOfficeSettings.
func (c *Client) GetPresence(ctx context.Context, userID string) (Presence, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return Presence{}, fmt.Errorf("user id is required")
	}
	u := c.betaBase.ResolveReference(&url.URL{
		Path:    "users/" + userID + "/presence",
		RawPath: "users/" + url.PathEscape(userID) + "/presence",
	})

	b, err := c.get(ctx, "getPresence", u, nil)
	if err != nil {
		return Presence{}, err
	}
	var out Presence
	if err := json.Unmarshal(b, &out); err != nil {
		return Presence{}, fmt.Errorf("parse presence response: %w", err)
	}
	return out, nil
}

func (c *Client) get(ctx context.Context, op string, u *url.URL, headers map[string]string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	tok, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: read token: %w", op, err)
	}
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode/100 != 2 {
		return nil, newHTTPError(op, resp, b)
	}
	return b, nil
}
