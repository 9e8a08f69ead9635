package service

import (
	"context"
	"log/slog"

	"github.com/dangerclosesec/orgtodo/internal/metrics"
	"github.com/dangerclosesec/orgtodo/internal/model"
	"github.com/dangerclosesec/orgtodo/internal/notify"
	"github.com/dangerclosesec/orgtodo/internal/repository"
	"github.com/google/uuid"
)

// TodoFeed streams full snapshots of a todo list. Each change notification
// causes the list to be read again, so a subscriber always receives the
// complete current result rather than deltas.
type TodoFeed struct {
	todos  *TodoService
	broker notify.Broker
	logger *slog.Logger
}

func NewTodoFeed(todos *TodoService, broker notify.Broker, logger *slog.Logger) *TodoFeed {
	if logger == nil {
		logger = slog.Default()
	}
	return &TodoFeed{todos: todos, broker: broker, logger: logger}
}

// feedTopic narrows the subscription to one organization when the filter
// pins organizationID.
func feedTopic(filter *repository.Filter) string {
	if v, ok := filter.EqValue("organizationID"); ok {
		if id, err := uuid.Parse(v); err == nil {
			return notify.TodoTopic(id)
		}
	}
	return notify.TodosTopic
}

// Observe sends the current snapshot, then a fresh one after every change,
// until ctx is done, the broker closes or emit fails.
func (f *TodoFeed) Observe(ctx context.Context, principal *model.Principal, filter *repository.Filter, emit func([]*model.Todo) error) error {
	// Subscribe before the first read so no change between the two is lost.
	changes, cancel, err := f.broker.Subscribe(ctx, feedTopic(filter))
	if err != nil {
		return err
	}
	defer cancel()

	metrics.Default().SubscriptionOpened()
	defer metrics.Default().SubscriptionClosed()

	for {
		todos, err := f.todos.List(ctx, principal, filter)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		if err := emit(todos); err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-changes:
			if !ok {
				// Broker shut down.
				return nil
			}
		}
	}
}
