package testutil

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
)

// BackendCall is one request received by a fake HR backend.
type BackendCall struct {
	Method        string
	Path          string
	Query         url.Values
	Authorization string
	Body          string
}

// Backend is a fake HR REST backend. Unregistered routes answer 404 "not found".
type Backend struct {
	*httptest.Server

	mu     sync.Mutex
	routes map[string]http.HandlerFunc
	calls  []BackendCall
}

// NewBackend starts a fake backend that is closed on test cleanup.
func NewBackend(t TestingTB) *Backend {
	t.Helper()
	b := &Backend{routes: make(map[string]http.HandlerFunc)}
	b.Server = httptest.NewServer(http.HandlerFunc(b.serve))
	t.Cleanup(b.Close)
	return b
}

// Handle registers h for method and path (query string ignored).
func (b *Backend) Handle(method, path string, h http.HandlerFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.routes[method+" "+path] = h
}

// JSON registers a canned JSON response.
func (b *Backend) JSON(method, path string, status int, body any) {
	data, err := json.Marshal(body)
	if err != nil {
		panic(err)
	}
	b.Handle(method, path, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write(data)
	})
}

// Text registers a canned plain-text response.
func (b *Backend) Text(method, path string, status int, body string) {
	b.Handle(method, path, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	})
}

// Calls returns a copy of the requests received so far.
func (b *Backend) Calls() []BackendCall {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]BackendCall, len(b.calls))
	copy(out, b.calls)
	return out
}

// CallCount returns the number of requests received so far.
func (b *Backend) CallCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.calls)
}

func (b *Backend) serve(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	b.mu.Lock()
	b.calls = append(b.calls, BackendCall{
		Method:        r.Method,
		Path:          r.URL.Path,
		Query:         r.URL.Query(),
		Authorization: r.Header.Get("Authorization"),
		Body:          string(body),
	})
	h, ok := b.routes[r.Method+" "+r.URL.Path]
	b.mu.Unlock()

	if !ok {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, "not found")
		return
	}
	h(w, r)
}
