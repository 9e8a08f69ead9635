package notify

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryBroker(t *testing.T) {
	ctx := context.Background()
	b := NewMemoryBroker()

	orgID := uuid.New()
	orgCh, cancelOrg, err := b.Subscribe(ctx, TodoTopic(orgID))
	require.NoError(t, err)
	allCh, cancelAll, err := b.Subscribe(ctx, TodosTopic)
	require.NoError(t, err)
	otherCh, cancelOther, err := b.Subscribe(ctx, TodoTopic(uuid.New()))
	require.NoError(t, err)
	defer cancelOther()

	t.Run("publish reaches matching topics only", func(t *testing.T) {
		require.NoError(t, PublishTodoChange(ctx, b, orgID))

		assertReceived(t, orgCh)
		assertReceived(t, allCh)
		assertEmpty(t, otherCh)
	})

	t.Run("notifications coalesce", func(t *testing.T) {
		for i := 0; i < 5; i++ {
			require.NoError(t, b.Publish(ctx, TodoTopic(orgID)))
		}
		assertReceived(t, orgCh)
		assertEmpty(t, orgCh)
	})

	t.Run("cancel releases and closes", func(t *testing.T) {
		cancelOrg()
		cancelOrg()
		assert.Equal(t, 0, b.Subscribers(TodoTopic(orgID)))
		_, open := <-orgCh
		assert.False(t, open)
	})

	t.Run("close ends remaining subscriptions", func(t *testing.T) {
		require.NoError(t, b.Close())
		_, open := <-allCh
		assert.False(t, open)
		cancelAll()
	})
}

func assertReceived(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("expected notification")
	}
}

func assertEmpty(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
		t.Fatal("unexpected notification")
	default:
	}
}
