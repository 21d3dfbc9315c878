package events

// Topic constants for domain events emitted by the billing core.
const (
	TopicPurchaseSettled = "purchase.settled"
	TopicTillShortfall   = "till.shortfall"
)

// DefaultTopics returns the canonical list of topics that support notifications.
func DefaultTopics() []string {
	return []string{
		TopicPurchaseSettled,
		TopicTillShortfall,
	}
}
