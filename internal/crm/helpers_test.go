package crm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

// fakeAuth stores a fixed session and counts how often it was asked to.
type fakeAuth struct {
	store *SessionStore
	sess  Session
	err   error
	calls atomic.Int32
}

func (f *fakeAuth) Authenticate(context.Context) (Session, error) {
	f.calls.Add(1)
	if f.err != nil {
		return Session{}, f.err
	}
	if f.store != nil {
		f.store.Store(f.sess)
	}
	return f.sess, nil
}

type recordedRequest struct {
	Method string
	Path   string
	Query  string
	Auth   string
	Body   map[string]any
}

// fakeCRM is an httptest server that records requests and answers with a
// handler chosen by the test.
type fakeCRM struct {
	*httptest.Server
	mu       sync.Mutex
	requests []recordedRequest
	handler  http.HandlerFunc
}

func newFakeCRM(t *testing.T, handler http.HandlerFunc) *fakeCRM {
	t.Helper()
	f := &fakeCRM{handler: handler}
	f.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := recordedRequest{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.RawQuery,
			Auth:   r.Header.Get("Authorization"),
		}
		if data, _ := io.ReadAll(r.Body); len(data) > 0 {
			_ = json.Unmarshal(data, &rec.Body)
		}
		f.mu.Lock()
		f.requests = append(f.requests, rec)
		f.mu.Unlock()
		f.handler(w, r)
	}))
	t.Cleanup(f.Close)
	return f
}

func (f *fakeCRM) Requests() []recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]recordedRequest(nil), f.requests...)
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

// newTestClient returns a client whose store already holds a session for srv.
func newTestClient(t *testing.T, srv *fakeCRM) (*Client, *SessionStore) {
	t.Helper()
	store := NewSessionStore()
	store.Store(Session{InstanceURL: srv.URL, AccessToken: "token-1"})
	client := NewClient(store, srv.Client(), ClientConfig{})
	require.True(t, client.HasSession())
	return client, store
}
