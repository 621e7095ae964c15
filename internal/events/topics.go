package events

// Topic constants for domain events emitted by the platform.
const (
	TopicBookingCreated  = "booking.created"
	TopicBookingAccepted = "booking.accepted"
	TopicBookingRejected = "booking.rejected"
	TopicFormPublished   = "form.published"
)

// DefaultTopics returns the canonical list of topics that support notifications.
func DefaultTopics() []string {
	return []string{
		TopicBookingCreated,
		TopicBookingAccepted,
		TopicBookingRejected,
		TopicFormPublished,
	}
}
