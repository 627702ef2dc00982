package events

// Topic constants for domain events emitted by the cart.
const (
	TopicCartItemAdded       = "cart.item_added"
	TopicCartItemRemoved     = "cart.item_removed"
	TopicCartQuantityChanged = "cart.quantity_changed"
	TopicCartCleared         = "cart.cleared"
)

// DefaultTopics returns every topic the cart emits.
func DefaultTopics() []string {
	return []string{
		TopicCartItemAdded,
		TopicCartItemRemoved,
		TopicCartQuantityChanged,
		TopicCartCleared,
	}
}
