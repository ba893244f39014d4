package engine

// Event types published to the UI event stream.
const (
	EventPoolUpdated        = "pool.updated"
	EventClaimAccepted      = "claim.accepted"
	EventClaimUpdated       = "claim.updated"
	EventSubmissionAccepted = "submission.accepted"
	EventCooldownStarted    = "cooldown.started"
	EventCooldownEnded      = "cooldown.ended"
)

// Event is a state-change notification for connected UI clients.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// Publisher delivers events to the UI. Implementations must never block
// the engine on a slow consumer.
type Publisher interface {
	Publish(Event)
}

// NopPublisher discards events.
type NopPublisher struct{}

// Publish implements Publisher.
func (NopPublisher) Publish(Event) {}
