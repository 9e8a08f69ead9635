// Package notify fans out change notifications to live subscribers. A
// notification carries no payload: subscribers re-read whatever they watch.
package notify

import (
	"context"

	"github.com/google/uuid"
)

// Broker delivers notifications published on a topic to every subscriber of
// that topic, possibly across server instances.
type Broker interface {
	Publish(ctx context.Context, topic string) error
	// Subscribe returns a channel that receives a value after each publish.
	// Pending notifications coalesce, so a slow reader sees at least one
	// wake-up per burst. The returned cancel func releases the subscription.
	Subscribe(ctx context.Context, topic string) (<-chan struct{}, func(), error)
	Close() error
}

// TodosTopic is notified on every todo change.
const TodosTopic = "todos"

// TodoTopic is notified on changes to todos of one organization.
func TodoTopic(orgID uuid.UUID) string {
	return TodosTopic + ":" + orgID.String()
}

// PublishTodoChange notifies both the organization topic and the global one.
func PublishTodoChange(ctx context.Context, b Broker, orgID uuid.UUID) error {
	if err := b.Publish(ctx, TodoTopic(orgID)); err != nil {
		return err
	}
	return b.Publish(ctx, TodosTopic)
}
