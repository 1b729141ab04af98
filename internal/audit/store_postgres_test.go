//go:build integration

package audit

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vouch/pkg/testutil/containers"
)

func TestPostgresStore(t *testing.T) {
	ctx := context.Background()
	pc := containers.NewPostgresContainer(t)

	store := NewPostgresStore(pc.DB)
	require.NoError(t, store.Migrate(ctx))

	t.Run("append and list round trip", func(t *testing.T) {
		event := Event{
			ID:        uuid.New(),
			Timestamp: time.Now().UTC().Truncate(time.Microsecond),
			Actor:     "admin",
			Action:    ActionCredentialIssued,
			Subject:   "EAPPLICANT",
			Detail:    map[string]any{"credential": "ECRED"},
		}
		require.NoError(t, store.Append(ctx, event))

		events, err := store.ListBySubject(ctx, "EAPPLICANT")
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, event.ID, events[0].ID)
		assert.Equal(t, ActionCredentialIssued, events[0].Action)
		assert.Equal(t, "ECRED", events[0].Detail["credential"])
		assert.True(t, event.Timestamp.Equal(events[0].Timestamp))
	})

	t.Run("list orders by time", func(t *testing.T) {
		base := time.Now().UTC()
		require.NoError(t, store.Append(ctx, Event{
			ID: uuid.New(), Timestamp: base.Add(time.Second),
			Action: ActionKeysRotated, Subject: "EORDER",
		}))
		require.NoError(t, store.Append(ctx, Event{
			ID: uuid.New(), Timestamp: base,
			Action: ActionClaimStarted, Subject: "EORDER",
		}))

		events, err := store.ListBySubject(ctx, "EORDER")
		require.NoError(t, err)
		require.Len(t, events, 2)
		assert.Equal(t, ActionClaimStarted, events[0].Action)
		assert.Equal(t, ActionKeysRotated, events[1].Action)
	})

	t.Run("append stamps missing id and timestamp", func(t *testing.T) {
		require.NoError(t, store.Append(ctx, Event{Action: ActionClaimStep, Subject: "ESTAMP"}))

		events, err := store.ListBySubject(ctx, "ESTAMP")
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.NotEqual(t, uuid.Nil, events[0].ID)
		assert.False(t, events[0].Timestamp.IsZero())
	})

	t.Run("migrate is idempotent", func(t *testing.T) {
		require.NoError(t, store.Migrate(ctx))
	})
}
