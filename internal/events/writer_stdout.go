package events

import (
	"context"

	"go.uber.org/zap"
)

// event writer used in dev
type StdoutWriter struct{}

func (s *StdoutWriter) Write(ctx context.Context, topic string, kind string, e AuditEvent) error {
	zap.S().Named("stdout_writer").Infow("audit event",
		"topic", topic,
		"kind", kind,
		"job_id", e.JobID,
		"actor_id", e.ActorID,
		"blocked_fields", e.BlockedFields,
		"source", e.Source,
		"timestamp", e.Timestamp,
	)
	return nil
}

func (s *StdoutWriter) Close(_ context.Context) error {
	return nil
}
