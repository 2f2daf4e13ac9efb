package mockgraph

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Call records a request made to the mock service.
type Call struct {
	Method           string
	Path             string
	Query            url.Values
	ConsistencyLevel string
}

// User is a directory user. Empty fields are served as JSON null.
type User struct {
	ID             string `yaml:"id"`
	DisplayName    string `yaml:"displayName"`
	GivenName      string `yaml:"givenName"`
	Surname        string `yaml:"surname"`
	JobTitle       string `yaml:"jobTitle"`
	Department     string `yaml:"department"`
	OfficeLocation string `yaml:"officeLocation"`
}

// Presence is the presence served for one user.
type Presence struct {
	Availability       string `yaml:"availability"`
	Activity           string `yaml:"activity"`
	StatusMessage      string `yaml:"statusMessage"`
	OutOfOffice        bool   `yaml:"outOfOffice"`
	OutOfOfficeMessage string `yaml:"outOfOfficeMessage"`
}

// defaultTop is the page size Graph applies when $top is absent.
const defaultTop = 100

// Server implements the subset of Microsoft Graph read by the directory client:
// GET /v1.0/users and GET /beta/users/{id}/presence.
type Server struct {
	mu    sync.Mutex
	calls []Call

	expectedAuthorization string

	users    []User
	presence map[string]Presence

	listStatus     int
	presenceStatus map[string]int
	presenceDelay  map[string]time.Duration
}

// New constructs an empty mock server.
func New() *Server {
	return &Server{
		presence:       make(map[string]Presence),
		presenceStatus: make(map[string]int),
		presenceDelay:  make(map[string]time.Duration),
	}
}

// AddUser registers a user and its presence. Users are listed in insertion order
// unless $orderby asks otherwise.
func (s *Server) AddUser(u User, p Presence) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = append(s.users, u)
	s.presence[u.ID] = p
}

// FailList makes GET /users respond with status. Zero restores normal behavior.
func (s *Server) FailList(status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listStatus = status
}

// FailPresence makes the presence lookup for userID respond with status.
func (s *Server) FailPresence(userID string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.presenceStatus[userID] = status
}

// DelayPresence holds the presence response for userID for d, or until the
// client goes away.
func (s *Server) DelayPresence(userID string, d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.presenceDelay[userID] = d
}

// RequireBearerToken enforces that requests include an Authorization header matching the token.
// If token is empty, authorization is not enforced.
func (s *Server) RequireBearerToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	token = strings.TrimSpace(token)
	if token == "" {
		s.expectedAuthorization = ""
		return
	}
	s.expectedAuthorization = "Bearer " + token
}

// Handler returns an http.Handler that serves the mock API.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1.0/users", s.handleUsers)
	mux.HandleFunc("/beta/users/", s.handlePresence)
	return mux
}

// Calls returns a snapshot of calls made to the server.
func (s *Server) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Call, len(s.calls))
	copy(out, s.calls)
	return out
}

// PresenceCalls returns the user ids whose presence was requested, in arrival order.
func (s *Server) PresenceCalls() []string {
	var out []string
	for _, c := range s.Calls() {
		if id, ok := presenceUserID(c.Path); ok {
			out = append(out, id)
		}
	}
	return out
}

func (s *Server) recordCall(r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, Call{
		Method:           r.Method,
		Path:             r.URL.Path,
		Query:            r.URL.Query(),
		ConsistencyLevel: r.Header.Get("ConsistencyLevel"),
	})
}

func (s *Server) authorize(w http.ResponseWriter, r *http.Request) bool {
	s.mu.Lock()
	expected := s.expectedAuthorization
	s.mu.Unlock()

	if expected == "" {
		return true
	}
	if r.Header.Get("Authorization") != expected {
		writeError(w, http.StatusUnauthorized, "InvalidAuthenticationToken", "Access token is empty or invalid.")
		return false
	}
	return true
}

func (s *Server) handleUsers(w http.ResponseWriter, r *http.Request) {
	s.recordCall(r)
	if !s.authorize(w, r) {
		return
	}
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Request_BadRequest", "method not allowed")
		return
	}

	s.mu.Lock()
	status := s.listStatus
	users := append([]User(nil), s.users...)
	s.mu.Unlock()
	if status != 0 {
		writeError(w, status, "serviceNotAvailable", "injected failure")
		return
	}

	q := r.URL.Query()
	count := strings.EqualFold(q.Get("$count"), "true")
	filter := strings.TrimSpace(q.Get("$filter"))
	if (count || strings.Contains(filter, " ne ")) && !strings.EqualFold(r.Header.Get("ConsistencyLevel"), "eventual") {
		writeError(w, http.StatusBadRequest, "Request_UnsupportedQuery",
			"Operator 'ne' is not supported because the required parameters might be missing. Try adding $count with a value of true and set the ConsistencyLevel header to eventual.")
		return
	}

	matched, err := applyFilter(users, filter)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Request_UnsupportedQuery", err.Error())
		return
	}
	if err := applyOrderBy(matched, q.Get("$orderby")); err != nil {
		writeError(w, http.StatusBadRequest, "Request_UnsupportedQuery", err.Error())
		return
	}

	top := defaultTop
	if raw := strings.TrimSpace(q.Get("$top")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 999 {
			writeError(w, http.StatusBadRequest, "Request_BadRequest", fmt.Sprintf("invalid $top %q", raw))
			return
		}
		top = n
	}

	fields := selectFields(q.Get("$select"))
	page := matched
	if len(page) > top {
		page = page[:top]
	}
	values := make([]map[string]any, 0, len(page))
	for _, u := range page {
		values = append(values, project(u, fields))
	}

	body := map[string]any{
		"@odata.context": "https://graph.microsoft.com/v1.0/$metadata#users",
		"value":          values,
	}
	if count {
		body["@odata.count"] = len(matched)
	}
	if len(matched) > top {
		body["@odata.nextLink"] = "https://graph.microsoft.com/v1.0/users?$skiptoken=" + strconv.Itoa(top)
	}
	writeJSON(w, http.StatusOK, body)
}

func (s *Server) handlePresence(w http.ResponseWriter, r *http.Request) {
	s.recordCall(r)
	if !s.authorize(w, r) {
		return
	}
	id, ok := presenceUserID(r.URL.Path)
	if !ok {
		writeError(w, http.StatusNotFound, "Request_ResourceNotFound", "resource not found")
		return
	}
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Request_BadRequest", "method not allowed")
		return
	}

	s.mu.Lock()
	p, known := s.presence[id]
	status := s.presenceStatus[id]
	delay := s.presenceDelay[id]
	s.mu.Unlock()

	if delay > 0 {
		t := time.NewTimer(delay)
		select {
		case <-t.C:
		case <-r.Context().Done():
			t.Stop()
			return
		}
	}
	if status != 0 {
		writeError(w, status, "InternalServerError", "injected failure")
		return
	}
	if !known {
		writeError(w, http.StatusNotFound, "Request_ResourceNotFound", fmt.Sprintf("Resource '%s' does not exist.", id))
		return
	}

	body := map[string]any{
		"id":           id,
		"availability": p.Availability,
		"activity":     p.Activity,
		"outOfOfficeSettings": map[string]any{
			"message":       p.OutOfOfficeMessage,
			"isOutOfOffice": p.OutOfOffice,
		},
	}
	if p.StatusMessage != "" {
		body["statusMessage"] = map[string]any{
			"message": map[string]any{"content": p.StatusMessage, "contentType": "text"},
		}
	} else {
		body["statusMessage"] = nil
	}
	writeJSON(w, http.StatusOK, body)
}

// presenceUserID extracts {id} from /beta/users/{id}/presence.
func presenceUserID(p string) (string, bool) {
	rest, ok := strings.CutPrefix(p, "/beta/users/")
	if !ok {
		return "", false
	}
	id, ok := strings.CutSuffix(rest, "/presence")
	if !ok || id == "" || strings.Contains(id, "/") {
		return "", false
	}
	return id, true
}

func field(u User, name string) (string, bool) {
	switch name {
	case "id":
		return u.ID, true
	case "displayName":
		return u.DisplayName, true
	case "givenName":
		return u.GivenName, true
	case "surname":
		return u.Surname, true
	case "jobTitle":
		return u.JobTitle, true
	case "department":
		return u.Department, true
	case "officeLocation":
		return u.OfficeLocation, true
	}
	return "", false
}

// applyFilter supports conjunctions of "<field> ne null" and "<field> eq null".
func applyFilter(users []User, filter string) ([]User, error) {
	if filter == "" {
		return users, nil
	}
	type clause struct {
		field string
		ne    bool
	}
	var clauses []clause
	for _, raw := range strings.Split(filter, " and ") {
		parts := strings.Fields(raw)
		if len(parts) != 3 || parts[2] != "null" || (parts[1] != "ne" && parts[1] != "eq") {
			return nil, fmt.Errorf("unsupported filter clause %q", strings.TrimSpace(raw))
		}
		if _, ok := field(User{}, parts[0]); !ok {
			return nil, fmt.Errorf("unknown property %q", parts[0])
		}
		clauses = append(clauses, clause{field: parts[0], ne: parts[1] == "ne"})
	}

	out := make([]User, 0, len(users))
	for _, u := range users {
		keep := true
		for _, c := range clauses {
			v, _ := field(u, c.field)
			if (v != "") != c.ne {
				keep = false
				break
			}
		}
		if keep {
			out = append(out, u)
		}
	}
	return out, nil
}

func applyOrderBy(users []User, orderBy string) error {
	parts := strings.Fields(orderBy)
	if len(parts) == 0 {
		return nil
	}
	name := parts[0]
	if _, ok := field(User{}, name); !ok {
		return fmt.Errorf("unknown property %q", name)
	}
	desc := len(parts) > 1 && strings.EqualFold(parts[1], "desc")
	sort.SliceStable(users, func(i, j int) bool {
		a, _ := field(users[i], name)
		b, _ := field(users[j], name)
		if desc {
			return strings.ToLower(a) > strings.ToLower(b)
		}
		return strings.ToLower(a) < strings.ToLower(b)
	})
	return nil
}

func selectFields(raw string) []string {
	var out []string
	for _, f := range strings.Split(raw, ",") {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

func project(u User, fields []string) map[string]any {
	if len(fields) == 0 {
		fields = []string{"id", "displayName", "givenName", "surname", "jobTitle", "department", "officeLocation"}
	}
	out := map[string]any{"id": u.ID}
	for _, f := range fields {
		v, ok := field(u, f)
		if !ok {
			continue
		}
		if v == "" {
			out[f] = nil
			continue
		}
		out[f] = v
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]any{
			"code":    code,
			"message": message,
			"innerError": map[string]any{
				"request-id": fmt.Sprintf("mock-%d", time.Now().UnixNano()),
			},
		},
	})
}
