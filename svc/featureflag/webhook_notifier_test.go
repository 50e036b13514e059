package featureflag_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/flagkit/pkg/webhook"
	"github.com/dmitrymomot/flagkit/svc/featureflag"
)

func TestWebhookNotifier(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("posts a slack compatible message", func(t *testing.T) {
		t.Parallel()
		var msg featureflag.WebhookMessage
		var token string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token = r.Header.Get("Authorization")
			_ = json.NewDecoder(r.Body).Decode(&msg)
			w.WriteHeader(http.StatusOK)
		}))
		defer srv.Close()

		n := featureflag.NewWebhookNotifier(srv.URL, featureflag.WithSender(
			webhook.NewSender(webhook.WithHeaders(map[string]string{"Authorization": "Bearer t"})),
		))
		require.NoError(t, n.Notify(ctx, storedFlag("BETA"), featureflag.ChangeEnabled))
		assert.Equal(t, "Feature Flag[Code=`BETA`] has been enabled", msg.Text)
		assert.Equal(t, "BETA", msg.Code)
		assert.Equal(t, featureflag.ChangeEnabled, msg.Change)
		assert.Equal(t, "Bearer t", token)
	})

	t.Run("excluded changes make no request", func(t *testing.T) {
		t.Parallel()
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusOK)
		}))
		defer srv.Close()

		n := featureflag.NewWebhookNotifier(srv.URL,
			featureflag.WithExcludedChanges(featureflag.ChangeUpdated, featureflag.ChangeDeleted))
		require.NoError(t, n.Notify(ctx, storedFlag("A"), featureflag.ChangeUpdated))
		require.NoError(t, n.Notify(ctx, storedFlag("A"), featureflag.ChangeDeleted))
		assert.Zero(t, calls.Load())

		require.NoError(t, n.Notify(ctx, storedFlag("A"), featureflag.ChangeCreated))
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("non-2xx is an error", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		}))
		defer srv.Close()

		n := featureflag.NewWebhookNotifier(srv.URL)
		require.ErrorIs(t, n.Notify(ctx, storedFlag("A"), featureflag.ChangeCreated), webhook.ErrPermanentFailure)
	})
}

func TestParseChangeKind(t *testing.T) {
	t.Parallel()
	k, err := featureflag.ParseChangeKind(" Deleted ")
	require.NoError(t, err)
	assert.Equal(t, featureflag.ChangeDeleted, k)

	_, err = featureflag.ParseChangeKind("renamed")
	require.Error(t, err)
}
