package crm

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_NoSession(t *testing.T) {
	client := NewClient(NewSessionStore(), nil, ClientConfig{})

	_, err := client.Do(context.Background(), http.MethodGet, "/limits", nil, nil, nil)
	assert.ErrorIs(t, err, ErrNoSession)
	assert.False(t, client.HasSession())
}

func TestClient_APIVersionAndDecode(t *testing.T) {
	srv := newFakeCRM(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		writeJSON(w, http.StatusCreated, `{"id":"x1","success":true}`)
	})
	store := NewSessionStore()
	store.Store(Session{InstanceURL: srv.URL + "/", AccessToken: "tok"})
	client := NewClient(store, srv.Client(), ClientConfig{APIVersion: "/v59.0/", RateLimit: 100, RateBurst: 1})

	var out createResponse
	code, err := client.Do(context.Background(), http.MethodPost, "/sobjects/Thing__c", nil, map[string]string{"a": "b"}, &out)
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, code)
	assert.Equal(t, "x1", out.ID)

	reqs := srv.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "/services/data/v59.0/sobjects/Thing__c", reqs[0].Path)
	assert.Equal(t, "b", reqs[0].Body["a"])
}

func TestClient_NonSuccessIsAPIError(t *testing.T) {
	srv := newFakeCRM(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusBadRequest, `{"message":"bad","errorCode":"INVALID","fields":["vin"]}`)
	})
	client, _ := newTestClient(t, srv)

	code, err := client.Do(context.Background(), http.MethodPatch, "/sobjects/Vehicle__c/1", nil, struct{}{}, nil)
	assert.Equal(t, http.StatusBadRequest, code)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	fe, ok := apiErr.FieldError()
	require.True(t, ok)
	assert.Equal(t, "INVALID", fe.Code)
	assert.Contains(t, apiErr.Error(), `PATCH "/sobjects/Vehicle__c/1"`)
}

func TestAPIError_FieldError(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		ok     bool
	}{
		{"object", http.StatusBadRequest, `{"message":"m","errorCode":"C"}`, true},
		{"array", http.StatusBadRequest, `[{"message":"m","errorCode":"C","fields":["f"]}]`, true},
		{"empty array", http.StatusBadRequest, `[]`, false},
		{"not json", http.StatusBadRequest, `oops`, false},
		{"no message", http.StatusBadRequest, `{"errorCode":"C"}`, false},
		{"unauthorized", http.StatusUnauthorized, `{"message":"m","errorCode":"C"}`, false},
		{"server error", http.StatusInternalServerError, `{"message":"m","errorCode":"C"}`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := (&APIError{StatusCode: tt.status, Body: []byte(tt.body)}).FieldError()
			assert.Equal(t, tt.ok, ok)
		})
	}
}
