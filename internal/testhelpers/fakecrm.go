package testhelpers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"amocrm-leads/internal/common/amocrm"
)

// FakeCRM is an in-process stand-in for the amoCRM v4 API. It serves the
// fixtures it holds and records every request it receives. The server is
// closed when the test completes.
type FakeCRM struct {
	Token string

	mu       sync.Mutex
	server   *httptest.Server
	leads    []amocrm.Lead
	users    map[int64]amocrm.User
	statuses map[string]amocrm.PipelineStatus
	contacts map[int64]string
	failures map[string]int
	delay    time.Duration
	requests []*http.Request
}

func NewFakeCRM(t testing.TB) *FakeCRM {
	t.Helper()

	f := &FakeCRM{
		Token:    "test-token",
		users:    map[int64]amocrm.User{},
		statuses: map[string]amocrm.PipelineStatus{},
		contacts: map[int64]string{},
		failures: map[string]int{},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v4/leads", f.listLeads)
	mux.HandleFunc("GET /api/v4/users/{id}", f.getUser)
	mux.HandleFunc("GET /api/v4/leads/pipelines/{pipelineID}/statuses/{statusID}", f.getStatus)
	mux.HandleFunc("GET /api/v4/contacts/{id}", f.getContact)
	mux.HandleFunc("GET /api/v4/account", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, amocrm.Account{ID: 1, Name: "Test account", Subdomain: "test"})
	})

	f.server = httptest.NewServer(f.intercept(mux))
	t.Cleanup(f.server.Close)

	return f
}

func (f *FakeCRM) URL() string {
	return f.server.URL
}

func (f *FakeCRM) AddLead(lead amocrm.Lead) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.leads = append(f.leads, lead)
}

func (f *FakeCRM) AddUser(user amocrm.User) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[user.ID] = user
}

func (f *FakeCRM) AddStatus(status amocrm.PipelineStatus) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses[statusKey(status.PipelineID, status.ID)] = status
}

// AddContactJSON registers the raw body served for GET /api/v4/contacts/{id}.
func (f *FakeCRM) AddContactJSON(id int64, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.contacts[id] = body
}

// AddContact registers a contact with the given custom field values.
func (f *FakeCRM) AddContact(id int64, name string, fields map[string]string) {
	custom := make([]map[string]interface{}, 0, len(fields))
	for code, value := range fields {
		custom = append(custom, map[string]interface{}{
			"field_code": code,
			"values":     []map[string]interface{}{{"value": value}},
		})
	}
	body, _ := json.Marshal(map[string]interface{}{
		"id":                   id,
		"name":                 name,
		"custom_fields_values": custom,
	})
	f.AddContactJSON(id, string(body))
}

// Fail makes every request whose path equals path answer with status.
func (f *FakeCRM) Fail(path string, status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[path] = status
}

// SetDelay delays every response, for cancellation and timeout tests.
func (f *FakeCRM) SetDelay(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.delay = d
}

// Requests returns a copy of every request received so far.
func (f *FakeCRM) Requests() []*http.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*http.Request, len(f.requests))
	copy(out, f.requests)
	return out
}

// RequestCount counts requests whose path starts with prefix.
func (f *FakeCRM) RequestCount(prefix string) int {
	n := 0
	for _, r := range f.Requests() {
		if strings.HasPrefix(r.URL.Path, prefix) {
			n++
		}
	}
	return n
}

func (f *FakeCRM) intercept(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.requests = append(f.requests, r.Clone(r.Context()))
		status, failing := f.failures[r.URL.Path]
		delay := f.delay
		f.mu.Unlock()

		if delay > 0 {
			select {
			case <-time.After(delay):
			case <-r.Context().Done():
				return
			}
		}

		if r.Header.Get("Authorization") != "Bearer "+f.Token {
			http.Error(w, `{"title":"Unauthorized","status":401}`, http.StatusUnauthorized)
			return
		}
		if failing {
			http.Error(w, fmt.Sprintf(`{"title":"Injected failure","status":%d}`, status), status)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (f *FakeCRM) listLeads(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	leads := make([]amocrm.Lead, 0, len(f.leads))
	query := r.URL.Query().Get("query")
	for _, lead := range f.leads {
		if query == "" || strings.Contains(strings.ToLower(lead.Name), strings.ToLower(query)) {
			leads = append(leads, lead)
		}
	}
	f.mu.Unlock()

	if len(leads) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	var page amocrm.LeadsPage
	page.Page = 1
	page.Links.Self.Href = f.server.URL + r.URL.RequestURI()
	page.Embedded.Leads = leads
	writeJSON(w, page)
}

func (f *FakeCRM) getUser(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(r.PathValue("id"), 10, 64)

	f.mu.Lock()
	user, ok := f.users[id]
	f.mu.Unlock()

	if !ok {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, user)
}

func (f *FakeCRM) getStatus(w http.ResponseWriter, r *http.Request) {
	pipelineID, _ := strconv.ParseInt(r.PathValue("pipelineID"), 10, 64)
	statusID, _ := strconv.ParseInt(r.PathValue("statusID"), 10, 64)

	f.mu.Lock()
	status, ok := f.statuses[statusKey(pipelineID, statusID)]
	f.mu.Unlock()

	if !ok {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, status)
}

func (f *FakeCRM) getContact(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(r.PathValue("id"), 10, 64)

	f.mu.Lock()
	body, ok := f.contacts[id]
	f.mu.Unlock()

	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/hal+json")
	_, _ = w.Write([]byte(body))
}

func statusKey(pipelineID, statusID int64) string {
	return fmt.Sprintf("%d/%d", pipelineID, statusID)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/hal+json")
	_ = json.NewEncoder(w).Encode(v)
}
