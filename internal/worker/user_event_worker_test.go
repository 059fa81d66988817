package worker_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"gopherauth/internal/cache"
	"gopherauth/internal/event"
	"gopherauth/internal/schema"
	"gopherauth/internal/testkit"
	"gopherauth/internal/worker"
)

func newWorker(t *testing.T) (*worker.UserEventWorker, *cache.ProfileCache) {
	t.Helper()
	client, _ := testkit.Redis(t)
	profiles := cache.NewProfileCache(client, time.Minute)
	return worker.NewUserEventWorker(nil, profiles, "auth.user.events", testkit.Logger()), profiles
}

func TestHandleRegisteredWarmsCache(t *testing.T) {
	w, profiles := newWorker(t)
	ctx := context.Background()

	evt := event.NewUserEvent(event.TypeUserRegistered, schema.UserResponse{
		ID:        4,
		Username:  "alice",
		Email:     "a@example.com",
		CreatedAt: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
	})
	body, err := json.Marshal(evt)
	require.NoError(t, err)

	require.NoError(t, w.HandleMessage(ctx, body))

	got, ok, err := profiles.Get(ctx, 4)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "alice", got.Username)
}

func TestHandleDeletedEvictsCache(t *testing.T) {
	w, profiles := newWorker(t)
	ctx := context.Background()
	profile := schema.UserResponse{ID: 4, Username: "alice", Email: "a@example.com", CreatedAt: time.Now().UTC()}
	require.NoError(t, profiles.Set(ctx, profile))

	body, err := json.Marshal(event.NewUserEvent(event.TypeUserDeleted, profile))
	require.NoError(t, err)
	require.NoError(t, w.HandleMessage(ctx, body))

	_, ok, err := profiles.Get(ctx, 4)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestHandleRejectsHostilePayloads(t *testing.T) {
	w, profiles := newWorker(t)
	ctx := context.Background()

	err := w.HandleMessage(ctx, []byte(`{"type":"user.registered","user":{"id":"x","hashed_password":"h"}}`))
	var vErr *schema.ValidationError
	require.True(t, errors.As(err, &vErr))

	err = w.HandleMessage(ctx, []byte(`{"type":"user.renamed","user":{"id":1,"username":"a","email":"a@example.com","created_at":"2024-01-01T00:00:00Z"}}`))
	require.True(t, errors.Is(err, worker.ErrUnknownEvent))

	require.Error(t, w.HandleMessage(ctx, []byte(`{`)))

	_, ok, err := profiles.Get(ctx, 1)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestHandleStripsCredentialKeys(t *testing.T) {
	w, profiles := newWorker(t)
	ctx := context.Background()

	body := []byte(`{"type":"user.registered","user":{"id":9,"username":"mallory","email":"m@example.com","hashed_password":"h","created_at":"2024-01-01T00:00:00Z"}}`)
	require.NoError(t, w.HandleMessage(ctx, body))

	got, ok, err := profiles.Get(ctx, 9)
	require.NoError(t, err)
	require.True(t, ok)
	payload, err := json.Marshal(got)
	require.NoError(t, err)
	require.NotContains(t, string(payload), "hashed_password")
}

func TestCloseWithoutStart(t *testing.T) {
	w, _ := newWorker(t)
	w.Close()
}
