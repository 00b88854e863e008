package events

import "time"

const (
	GuardrailAuditKind string = "jobvisit.events.guardrail.blocked"
	defaultTopic       string = "jobvisit.audit.guardrail"
)

// AuditEvent records completion-gated fields stripped from a draft write.
type AuditEvent struct {
	JobID         string    `json:"job_id"`
	ActorID       string    `json:"actor_id"`
	BlockedFields []string  `json:"blocked_fields"`
	Source        string    `json:"source"`
	Timestamp     time.Time `json:"timestamp"`
}
