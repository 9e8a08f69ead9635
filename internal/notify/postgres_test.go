package notify

import (
	"context"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestPostgresBroker_FansOutAcrossInstances(t *testing.T) {
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("DATABASE_URL not set")
	}

	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	a, err := NewPostgresBroker(ctx, url, logger)
	require.NoError(t, err)
	defer a.Close()
	b, err := NewPostgresBroker(ctx, url, logger)
	require.NoError(t, err)
	defer b.Close()

	orgID := uuid.New()
	ch, cancel, err := b.Subscribe(ctx, TodoTopic(orgID))
	require.NoError(t, err)
	defer cancel()

	// LISTEN starts in the background; publish until the listener is up.
	require.Eventually(t, func() bool {
		if err := a.Publish(ctx, TodoTopic(orgID)); err != nil {
			return false
		}
		select {
		case <-ch:
			return true
		case <-time.After(50 * time.Millisecond):
			return false
		}
	}, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, b.Close())
	_, open := <-ch
	require.False(t, open)
}
