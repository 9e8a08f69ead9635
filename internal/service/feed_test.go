package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/dangerclosesec/orgtodo/internal/model"
	"github.com/dangerclosesec/orgtodo/internal/notify"
	"github.com/dangerclosesec/orgtodo/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nextSnapshot(t *testing.T, snapshots <-chan []*model.Todo) []*model.Todo {
	t.Helper()
	select {
	case s := <-snapshots:
		return s
	case <-time.After(5 * time.Second):
		t.Fatal("no snapshot received")
		return nil
	}
}

func TestTodoFeedObserve(t *testing.T) {
	f := newFixture(t, "group")
	org := f.createOrg(t, admin, "Live")
	other := f.createOrg(t, admin, "Elsewhere")
	f.createTodo(t, admin, org, "first")

	ctx, cancel := context.WithCancel(context.Background())
	snapshots := make(chan []*model.Todo, 16)
	done := make(chan error, 1)

	filter := repository.Eq("organizationID", org.ID.String())
	go func() {
		done <- f.feed.Observe(ctx, staff, filter, func(todos []*model.Todo) error {
			snapshots <- todos
			return nil
		})
	}()

	initial := nextSnapshot(t, snapshots)
	require.Len(t, initial, 1)
	assert.Equal(t, "first", initial[0].Content)

	require.Eventually(t, func() bool {
		return f.broker.Subscribers(notify.TodoTopic(org.ID)) == 1
	}, time.Second, 10*time.Millisecond)

	second := f.createTodo(t, admin, org, "second")
	snapshot := nextSnapshot(t, snapshots)
	require.Len(t, snapshot, 2, "each event carries the full list")

	_, err := f.todoSv.Toggle(context.Background(), admin, second.ID)
	require.NoError(t, err)
	snapshot = nextSnapshot(t, snapshots)
	require.Len(t, snapshot, 2)
	assert.True(t, snapshot[1].IsDone)

	// Changes elsewhere do not wake this subscriber.
	f.createTodo(t, admin, other, "unrelated")
	select {
	case s := <-snapshots:
		t.Fatalf("unexpected snapshot of %d todos", len(s))
	case <-time.After(100 * time.Millisecond):
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("observe did not stop")
	}
	assert.Zero(t, f.broker.Subscribers(notify.TodoTopic(org.ID)))
}
