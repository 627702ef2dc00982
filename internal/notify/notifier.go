package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/noah-isme/aigov-api/internal/events"
)

type cartPayload struct {
	ProductID string `json:"productId"`
	Name      string `json:"name"`
}

// FeedNotifier turns cart events into entries on the owner's feed.
// Quantity changes are not surfaced.
type FeedNotifier struct {
	Feed *Feed
}

// Notify implements events.Notifier.
func (n FeedNotifier) Notify(_ context.Context, event events.Event) error {
	if n.Feed == nil {
		return nil
	}
	var payload cartPayload
	if len(event.Payload) > 0 {
		if err := json.Unmarshal(event.Payload, &payload); err != nil {
			return fmt.Errorf("decode %s payload: %w", event.Topic, err)
		}
	}
	label := payload.Name
	if label == "" {
		label = "Product " + payload.ProductID
	}

	var (
		title, message string
		kind           Kind
	)
	switch event.Topic {
	case events.TopicCartItemAdded:
		title, message, kind = "Added to cart", label+" was added to your cart.", KindSuccess
	case events.TopicCartItemRemoved:
		title, message, kind = "Removed from cart", label+" was removed from your cart.", KindInfo
	case events.TopicCartCleared:
		title, message, kind = "Cart cleared", "All items were removed from your cart.", KindInfo
	default:
		return nil
	}
	_, err := n.Feed.Push(event.AggregateID, title, message, kind)
	return err
}
