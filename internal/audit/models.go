// Package audit captures workflow transition events for the notification
// and audit collaborators. Events are transport-agnostic; the publisher
// fans them out to the append-only store and, when configured, to Kafka.
package audit

import (
	"time"

	"govseal/pkg/domain"
)

// EventCategory classifies events for retention and routing.
type EventCategory string

const (
	// CategoryWorkflow covers state transitions; these form the legally
	// relevant trail of who moved an assessment and when.
	CategoryWorkflow EventCategory = "workflow"

	// CategoryResponse covers response and evidence edits.
	CategoryResponse EventCategory = "response"

	// CategoryOperations covers routine events with short retention.
	CategoryOperations EventCategory = "operations"
)

// Event is one recorded action against an assessment.
type Event struct {
	Category     EventCategory       `json:"category"`
	Timestamp    time.Time           `json:"timestamp"`
	AssessmentID domain.AssessmentID `json:"assessment_id"`
	Action       string              `json:"action"`
	Actor        string              `json:"actor"`
	Role         domain.Role         `json:"role"`
	FromStatus   string              `json:"from_status,omitempty"`
	ToStatus     string              `json:"to_status,omitempty"`
	Reason       string              `json:"reason,omitempty"`
	RequestID    string              `json:"request_id,omitempty"`
}
