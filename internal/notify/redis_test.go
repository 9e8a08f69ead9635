package notify

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisBroker(t *testing.T, mr *miniredis.Miniredis) *RedisBroker {
	t.Helper()
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	b, err := NewRedisBroker(context.Background(), client)
	require.NoError(t, err)
	return b
}

func TestRedisBroker_FansOutAcrossInstances(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	a := newRedisBroker(t, mr)
	b := newRedisBroker(t, mr)

	orgID := uuid.New()
	otherID := uuid.New()

	remoteCh, cancelRemote, err := b.Subscribe(ctx, TodoTopic(orgID))
	require.NoError(t, err)
	defer cancelRemote()
	localCh, cancelLocal, err := a.Subscribe(ctx, TodoTopic(orgID))
	require.NoError(t, err)
	defer cancelLocal()
	otherCh, cancelOther, err := b.Subscribe(ctx, TodoTopic(otherID))
	require.NoError(t, err)
	defer cancelOther()

	require.NoError(t, a.Publish(ctx, TodoTopic(orgID)))

	assertReceived(t, remoteCh)
	assertReceived(t, localCh)
	assertEmpty(t, otherCh)

	require.NoError(t, a.Close())
	require.NoError(t, b.Close())

	_, open := <-remoteCh
	assert.False(t, open)
}

func TestRedisBroker_SubscribeAfterClose(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	b := newRedisBroker(t, mr)
	require.NoError(t, b.Close())

	ch, cancel, err := b.Subscribe(ctx, TodosTopic)
	require.NoError(t, err)
	defer cancel()
	_, open := <-ch
	assert.False(t, open)
}

func TestRedisBroker_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	mr.Close()

	_, err := NewRedisBroker(context.Background(), client)
	assert.Error(t, err)
}
