// package testing contains shared testing utilities
package testing

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
)

// FakeGenerator is an in-memory stand-in for the short-video generator's REST surface.
//
// Accounts and tasks are kept as plain JSON objects. Every request is recorded in Calls.
type FakeGenerator struct {
	Server *httptest.Server

	mu       sync.Mutex
	accounts []map[string]any
	tasks    map[string]map[string]any
	requests []map[string]any
	calls    []string
	failures map[string]failure
	seq      int
}

type failure struct {
	status int
	body   map[string]any
}

// NewFakeGenerator starts a fake generator that is closed when the test ends.
func NewFakeGenerator(t *testing.T) *FakeGenerator {
	t.Helper()
	f := &FakeGenerator{
		tasks:    map[string]map[string]any{},
		failures: map[string]failure{},
	}

	r := chi.NewRouter()
	r.Use(f.record)
	r.Get("/api/v1/platform-accounts", f.listAccounts)
	r.Post("/api/v1/platform-accounts", f.createAccount)
	r.Get("/api/v1/platform-accounts/{id}", f.getAccount)
	r.Put("/api/v1/platform-accounts/{id}", f.updateAccount)
	r.Delete("/api/v1/platform-accounts/{id}", f.deleteAccount)
	r.Post("/api/v1/tasks", f.createTask)
	r.Get("/api/v1/tasks/{id}", f.getTask)
	r.NotFound(f.echo)
	r.MethodNotAllowed(f.echo)

	f.Server = httptest.NewServer(r)
	t.Cleanup(f.Server.Close)
	return f
}

// BaseURL satisfies the generator client's base URL function.
func (f *FakeGenerator) BaseURL() (string, error) { return f.Server.URL, nil }

// AddAccount stores an account and returns its id, assigning one when missing.
func (f *FakeGenerator) AddAccount(acc map[string]any) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if id, _ := acc["id"].(string); id == "" {
		acc["id"] = f.nextID("acc")
	}
	f.accounts = append(f.accounts, acc)
	return acc["id"].(string)
}

// Account returns a stored account or nil.
func (f *FakeGenerator) Account(id string) map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.accounts {
		if a["id"] == id {
			return a
		}
	}
	return nil
}

// Accounts returns the number of stored accounts.
func (f *FakeGenerator) Accounts() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.accounts)
}

// LinkedTo counts accounts linked to an integration.
func (f *FakeGenerator) LinkedTo(integrationID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, a := range f.accounts {
		if linkOf(a) == integrationID {
			n++
		}
	}
	return n
}

// AddTask stores a task as returned by GET /api/v1/tasks/{id}.
func (f *FakeGenerator) AddTask(task map[string]any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tasks[task["id"].(string)] = task
}

// TaskRequests returns the decoded bodies of every task creation.
func (f *FakeGenerator) TaskRequests() []map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]map[string]any(nil), f.requests...)
}

// Calls returns "METHOD /path" for every request received.
func (f *FakeGenerator) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// CallCount counts requests with the given method whose path starts with prefix.
func (f *FakeGenerator) CallCount(method, prefix string) int {
	n := 0
	for _, c := range f.Calls() {
		m, p, _ := strings.Cut(c, " ")
		if m == method && strings.HasPrefix(p, prefix) {
			n++
		}
	}
	return n
}

// FailOn makes requests to method and exact path answer with status and body.
func (f *FakeGenerator) FailOn(method, path string, status int, body map[string]any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[method+" "+path] = failure{status: status, body: body}
}

func (f *FakeGenerator) nextID(prefix string) string {
	f.seq++
	return fmt.Sprintf("%s-%d", prefix, f.seq)
}

func (f *FakeGenerator) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + r.URL.Path
		f.mu.Lock()
		f.calls = append(f.calls, key)
		fail, failing := f.failures[key]
		f.mu.Unlock()

		if failing {
			writeJSON(w, fail.status, fail.body)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (f *FakeGenerator) listAccounts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))

	f.mu.Lock()
	items := []map[string]any{}
	for _, a := range f.accounts {
		if v := q.Get("integration_id"); v != "" && linkOf(a) != v {
			continue
		}
		if v := q.Get("platform"); v != "" && a["platform"] != v {
			continue
		}
		if v := q.Get("status"); v != "" && a["status"] != v {
			continue
		}
		if v := q.Get("account_id"); v != "" && a["account_id"] != v {
			continue
		}
		items = append(items, a)
		if limit > 0 && len(items) == limit {
			break
		}
	}
	total := len(items)
	f.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{"items": items, "total": total})
}

func (f *FakeGenerator) createAccount(w http.ResponseWriter, r *http.Request) {
	body, err := decode(r.Body)
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"detail": err.Error()})
		return
	}
	mergeLink(body)

	f.mu.Lock()
	body["id"] = f.nextID("acc")
	f.accounts = append(f.accounts, body)
	f.mu.Unlock()

	writeJSON(w, http.StatusCreated, body)
}

func (f *FakeGenerator) getAccount(w http.ResponseWriter, r *http.Request) {
	if acc := f.Account(chi.URLParam(r, "id")); acc != nil {
		writeJSON(w, http.StatusOK, acc)
		return
	}
	writeJSON(w, http.StatusNotFound, map[string]any{"detail": "Platform account not found"})
}

func (f *FakeGenerator) updateAccount(w http.ResponseWriter, r *http.Request) {
	body, err := decode(r.Body)
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"detail": err.Error()})
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.accounts {
		if a["id"] != chi.URLParam(r, "id") {
			continue
		}
		for k, v := range body {
			if k == "config" {
				cfg, _ := a["config"].(map[string]any)
				if cfg == nil {
					cfg = map[string]any{}
				}
				if m, ok := v.(map[string]any); ok {
					for ck, cv := range m {
						cfg[ck] = cv
					}
				}
				a["config"] = cfg
				continue
			}
			a[k] = v
		}
		mergeLink(a)
		writeJSON(w, http.StatusOK, a)
		return
	}
	writeJSON(w, http.StatusNotFound, map[string]any{"detail": "Platform account not found"})
}

func (f *FakeGenerator) deleteAccount(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, a := range f.accounts {
		if a["id"] == id {
			f.accounts = append(f.accounts[:i], f.accounts[i+1:]...)
			writeJSON(w, http.StatusOK, map[string]any{"ok": true})
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]any{"detail": "Platform account not found"})
}

func (f *FakeGenerator) createTask(w http.ResponseWriter, r *http.Request) {
	body, err := decode(r.Body)
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"detail": err.Error()})
		return
	}

	f.mu.Lock()
	id := f.nextID("task")
	f.requests = append(f.requests, body)
	f.tasks[id] = map[string]any{"id": id, "status": "pending"}
	f.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{"task_id": id, "status": "pending", "created_at": "2026-01-01T00:00:00Z"})
}

func (f *FakeGenerator) getTask(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	task, ok := f.tasks[chi.URLParam(r, "id")]
	f.mu.Unlock()
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{"detail": "Task not found"})
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// echo answers any other route with its method, path, query and body.
func (f *FakeGenerator) echo(w http.ResponseWriter, r *http.Request) {
	body, _ := decode(r.Body)
	writeJSON(w, http.StatusOK, map[string]any{
		"method": r.Method,
		"path":   r.URL.Path,
		"query":  r.URL.RawQuery,
		"body":   body,
	})
}

// mergeLink copies a top-level postiz link into config.postiz, as the generator does.
func mergeLink(acc map[string]any) {
	link, ok := acc["postiz"].(map[string]any)
	if !ok {
		return
	}
	cfg, _ := acc["config"].(map[string]any)
	if cfg == nil {
		cfg = map[string]any{}
	}
	cfg["postiz"] = link
	acc["config"] = cfg
}

func linkOf(acc map[string]any) string {
	if cfg, ok := acc["config"].(map[string]any); ok {
		if l, ok := cfg["postiz"].(map[string]any); ok {
			if id, _ := l["integration_id"].(string); id != "" {
				return id
			}
		}
	}
	if l, ok := acc["postiz"].(map[string]any); ok {
		id, _ := l["integration_id"].(string)
		return id
	}
	return ""
}

func decode(r io.Reader) (map[string]any, error) {
	body := map[string]any{}
	data, err := io.ReadAll(r)
	if err != nil || len(data) == 0 {
		return body, err
	}
	err = json.Unmarshal(data, &body)
	return body, err
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}
