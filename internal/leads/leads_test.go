package leads

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotifyQueued(t *testing.T) {
	var got event
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer token123", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	n := New(&Config{WebhookURL: server.URL, APIToken: "token123"})
	err := n.NotifyQueued(context.Background(), 1, 42, "c0ffee")
	require.NoError(t, err)

	assert.Equal(t, "waitlist_queued", got.Event)
	assert.Equal(t, 1, got.TenantId)
	assert.Equal(t, 42, got.LeadId)
	assert.Equal(t, "c0ffee", got.EntryUUID)
}

func TestNotifyConverted(t *testing.T) {
	var got event
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	n := New(&Config{WebhookURL: server.URL})
	err := n.NotifyConverted(context.Background(), 1, 42, 7)
	require.NoError(t, err)

	assert.Equal(t, "waitlist_converted", got.Event)
	assert.Equal(t, 7, got.StudentId)
}

func TestNotifyDisabled(t *testing.T) {
	n := New(&Config{})
	assert.NoError(t, n.NotifyQueued(context.Background(), 1, 42, "c0ffee"))
	assert.NoError(t, n.NotifyConverted(context.Background(), 1, 42, 7))
}

func TestNotifyBadStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	n := New(&Config{WebhookURL: server.URL})
	assert.Error(t, n.NotifyQueued(context.Background(), 1, 42, "c0ffee"))
}
