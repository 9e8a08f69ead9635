package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresChannel is the LISTEN/NOTIFY channel; the payload is the topic.
const PostgresChannel = "orgtodo_events"

// PostgresBroker relays notifications between instances sharing a database.
type PostgresBroker struct {
	pool   *pgxpool.Pool
	local  *MemoryBroker
	logger *slog.Logger
	cancel context.CancelFunc
	done   chan struct{}
}

var _ Broker = (*PostgresBroker)(nil)

// NewPostgresBroker connects to url and starts listening.
func NewPostgresBroker(ctx context.Context, url string, logger *slog.Logger) (*PostgresBroker, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	listenCtx, cancel := context.WithCancel(context.Background())
	b := &PostgresBroker{
		pool:   pool,
		local:  NewMemoryBroker(),
		logger: logger,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go b.listen(listenCtx)
	return b, nil
}

func (b *PostgresBroker) Publish(ctx context.Context, topic string) error {
	if _, err := b.pool.Exec(ctx, "SELECT pg_notify($1, $2)", PostgresChannel, topic); err != nil {
		return fmt.Errorf("publishing notification: %w", err)
	}
	return nil
}

func (b *PostgresBroker) Subscribe(ctx context.Context, topic string) (<-chan struct{}, func(), error) {
	return b.local.Subscribe(ctx, topic)
}

// listen holds one pooled connection in LISTEN mode and reconnects on failure.
func (b *PostgresBroker) listen(ctx context.Context) {
	defer close(b.done)

	backoff := time.Second
	for {
		err := b.listenOnce(ctx)
		if ctx.Err() != nil {
			return
		}
		b.logger.Warn("notification listener stopped, reconnecting", "error", err, "backoff", backoff)

		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return
		}
		if backoff < 30*time.Second {
			backoff *= 2
		}
	}
}

func (b *PostgresBroker) listenOnce(ctx context.Context) error {
	conn, err := b.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquiring listener connection: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "LISTEN "+PostgresChannel); err != nil {
		return fmt.Errorf("listening: %w", err)
	}

	for {
		n, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
		b.local.dispatch(n.Payload)
	}
}

func (b *PostgresBroker) Close() error {
	b.cancel()
	<-b.done
	b.pool.Close()
	return b.local.Close()
}
