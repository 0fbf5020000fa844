package audit

import "time"

// EventCategory classifies audit events by their primary purpose.
type EventCategory string

const (
	// CategorySecurity covers session teardown and other privacy-relevant actions.
	CategorySecurity EventCategory = "security"

	// CategoryOperations covers admin cache actions and routine activity.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out. It never carries raw
// financial entity names.
type Event struct {
	Category  EventCategory     `json:"category"`
	Timestamp time.Time         `json:"timestamp"`
	Action    string            `json:"action"`
	UserID    string            `json:"user_id,omitempty"`
	SessionID string            `json:"session_id,omitempty"`
	Subject   string            `json:"subject,omitempty"`
	Reason    string            `json:"reason,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
	ActorID   string            `json:"actor_id,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

type AuditEvent string

const (
	EventSessionEnded             AuditEvent = "session_ended"
	EventMarketContextRefreshed   AuditEvent = "market_context_refreshed"
	EventMarketContextInvalidated AuditEvent = "market_context_invalidated"
	EventQuestionAnswered         AuditEvent = "question_answered"
)

var eventCategories = map[AuditEvent]EventCategory{
	EventSessionEnded:             CategorySecurity,
	EventMarketContextInvalidated: CategoryOperations,
	EventMarketContextRefreshed:   CategoryOperations,
	EventQuestionAnswered:         CategoryOperations,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}

// NewEvent builds an event for action with its category filled in.
func NewEvent(action AuditEvent) Event {
	return Event{Action: string(action), Category: action.Category()}
}
