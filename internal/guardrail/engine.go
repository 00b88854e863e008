package guardrail

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/fieldservice/jobvisit/internal/events"
	"github.com/fieldservice/jobvisit/pkg/clock"
	"github.com/fieldservice/jobvisit/pkg/metrics"
)

// Record is the current state of a job as a field map.
type Record map[string]any

// Patch is a set of field writes. A key mapped to nil is an explicit
// request to clear the field.
type Patch map[string]any

func (p Patch) Keys() []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

type Mode string

const (
	// ModeDraft is used for routine edits while a visit is in progress.
	ModeDraft Mode = "draft"
	// ModeFinal is used by the checkout transaction.
	ModeFinal Mode = "final"
)

type Result struct {
	CleanPatch    Patch
	BlockedFields []string
	ShouldLog     bool
}

// AuditSink receives guardrail audit events. Implementations must not
// block the caller.
type AuditSink interface {
	Log(ctx context.Context, event events.AuditEvent)
}

// AuditContext identifies who attempted a write, used for audit entries.
type AuditContext struct {
	JobID   string
	ActorID string
	Source  string
}

type Engine struct {
	classifier *Classifier
	sink       AuditSink
	clock      clock.Clock
}

type EngineOption func(e *Engine)

func WithAuditSink(sink AuditSink) EngineOption {
	return func(e *Engine) {
		e.sink = sink
	}
}

func WithClock(c clock.Clock) EngineOption {
	return func(e *Engine) {
		e.clock = c
	}
}

func NewEngine(classifier *Classifier, opts ...EngineOption) *Engine {
	e := &Engine{
		classifier: classifier,
		clock:      clock.Real(),
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

func (e *Engine) Classifier() *Classifier {
	return e.classifier
}

// Apply filters patch against existing for the given mode. It never
// fails: the caller always proceeds with CleanPatch.
//
// In draft mode completion-gated fields are removed and reported in
// BlockedFields. In final mode they pass, except that an empty value never
// replaces a non-empty one; only an explicit nil clears. Address fields
// are filled only when empty, in both modes. Every other field passes
// unchanged.
func (e *Engine) Apply(existing Record, patch Patch, mode Mode) Result {
	res := Result{CleanPatch: Patch{}}

	for _, field := range patch.Keys() {
		incoming := patch[field]

		if e.classifier.IsAddress(field) {
			if v, ok := FillIfEmpty(existing[field], incoming); ok {
				res.CleanPatch[field] = v
			}
			continue
		}

		if e.classifier.Classify(field) != CompletionGated {
			res.CleanPatch[field] = incoming
			continue
		}

		if mode != ModeFinal {
			res.BlockedFields = append(res.BlockedFields, field)
			continue
		}

		if incoming == nil {
			res.CleanPatch[field] = nil
			continue
		}
		if IsEmpty(incoming) {
			// preserved silently
			continue
		}
		res.CleanPatch[field] = incoming
	}

	sort.SliceStable(res.BlockedFields, func(i, j int) bool {
		return e.classifier.gatedRank(res.BlockedFields[i]) < e.classifier.gatedRank(res.BlockedFields[j])
	})
	res.ShouldLog = len(res.BlockedFields) > 0
	return res
}

// ApplyAndAudit is Apply followed by an audit entry when fields were
// blocked. The audit entry is advisory and never affects the result.
func (e *Engine) ApplyAndAudit(ctx context.Context, audit AuditContext, existing Record, patch Patch, mode Mode) Result {
	res := e.Apply(existing, patch, mode)
	if !res.ShouldLog {
		return res
	}

	for _, f := range res.BlockedFields {
		metrics.IncreaseGuardrailBlockedMetric(f, audit.Source)
	}

	zap.S().Named("guardrail").Debugw("blocked completion fields in draft write",
		"job_id", audit.JobID, "actor_id", audit.ActorID, "source", audit.Source, "fields", res.BlockedFields)

	if e.sink != nil {
		e.sink.Log(ctx, events.AuditEvent{
			JobID:         audit.JobID,
			ActorID:       audit.ActorID,
			BlockedFields: append([]string(nil), res.BlockedFields...),
			Source:        audit.Source,
			Timestamp:     e.clock.Now(),
		})
	}
	return res
}
