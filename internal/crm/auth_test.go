package crm

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTokenServer(t *testing.T, handler func(w http.ResponseWriter, form url.Values)) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		require.NoError(t, r.ParseForm())
		handler(w, r.PostForm)
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func testCredential(endpoint string) ServiceCredential {
	return ServiceCredential{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		Username:     "integration@example.com",
		Password:     "s3cret",
		AuthEndpoint: endpoint,
	}
}

func TestAuthenticate_PasswordGrantStoresSession(t *testing.T) {
	srv, hits := newTokenServer(t, func(w http.ResponseWriter, form url.Values) {
		assert.Equal(t, "password", form.Get("grant_type"))
		assert.Equal(t, "client-id", form.Get("client_id"))
		assert.Equal(t, "client-secret", form.Get("client_secret"))
		assert.Equal(t, "integration@example.com", form.Get("username"))
		assert.Equal(t, "s3cret", form.Get("password"))
		writeJSON(w, http.StatusOK, `{"access_token":"tok-123","instance_url":"https://eu1.crm.example.com/","token_type":"Bearer"}`)
	})

	store := NewSessionStore()
	auth := NewAuthenticator(testCredential(srv.URL), store, srv.Client(), zap.NewNop())

	sess, err := auth.Authenticate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-123", sess.AccessToken)
	assert.Equal(t, "https://eu1.crm.example.com", sess.InstanceURL)
	assert.EqualValues(t, 1, hits.Load())

	stored, ok := store.Load()
	require.True(t, ok)
	assert.Equal(t, sess, stored)
}

func TestAuthenticate_RejectedCredentials(t *testing.T) {
	srv, _ := newTokenServer(t, func(w http.ResponseWriter, _ url.Values) {
		writeJSON(w, http.StatusBadRequest, `{"error":"invalid_grant","error_description":"authentication failure"}`)
	})

	store := NewSessionStore()
	auth := NewAuthenticator(testCredential(srv.URL), store, srv.Client(), nil)

	_, err := auth.Authenticate(context.Background())
	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)

	_, ok := store.Load()
	assert.False(t, ok, "a failed login must not install a session")
}

func TestAuthenticate_MissingInstanceURL(t *testing.T) {
	srv, _ := newTokenServer(t, func(w http.ResponseWriter, _ url.Values) {
		writeJSON(w, http.StatusOK, `{"access_token":"tok-123","token_type":"Bearer"}`)
	})

	auth := NewAuthenticator(testCredential(srv.URL), NewSessionStore(), srv.Client(), nil)

	_, err := auth.Authenticate(context.Background())
	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Contains(t, err.Error(), "instance_url")
}

func TestAuthenticate_NoEndpoint(t *testing.T) {
	auth := NewAuthenticator(testCredential(""), NewSessionStore(), nil, nil)

	_, err := auth.Authenticate(context.Background())
	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
}

func TestAuthenticate_CancelledContext(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		<-block
		writeJSON(w, http.StatusOK, `{"access_token":"t","instance_url":"https://x.example.com"}`)
	}))
	defer srv.Close()
	defer close(block)

	auth := NewAuthenticator(testCredential(srv.URL), NewSessionStore(), srv.Client(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := auth.Authenticate(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAuthenticate_ConcurrentCallersShareOneLogin(t *testing.T) {
	const callers = 20
	arrived := make(chan struct{}, callers)
	release := make(chan struct{})
	srv, hits := newTokenServer(t, func(w http.ResponseWriter, _ url.Values) {
		arrived <- struct{}{}
		<-release
		writeJSON(w, http.StatusOK, `{"access_token":"tok-shared","instance_url":"https://eu1.crm.example.com"}`)
	})

	store := NewSessionStore()
	auth := NewAuthenticator(testCredential(srv.URL), store, srv.Client(), nil)

	var started, done sync.WaitGroup
	tokens := make([]string, callers)
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		started.Add(1)
		done.Add(1)
		go func(i int) {
			defer done.Done()
			started.Done()
			sess, err := auth.Authenticate(context.Background())
			tokens[i], errs[i] = sess.AccessToken, err
		}(i)
	}

	started.Wait()
	<-arrived
	// let the remaining callers join the in-flight login before it completes
	time.Sleep(50 * time.Millisecond)
	close(release)
	done.Wait()

	assert.EqualValues(t, 1, hits.Load())
	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, "tok-shared", tokens[i])
	}
	sess, ok := store.Load()
	require.True(t, ok)
	assert.Equal(t, "tok-shared", sess.AccessToken)
}
