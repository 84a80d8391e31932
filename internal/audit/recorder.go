// Package audit wraps the store's append-only event log (spec §4.7) with
// the id/clock plumbing every writer needs, so callers never build a
// domain.AuditEvent by hand.
package audit

import (
	"context"

	"github.com/contractreg/contractreg/internal/clock"
	"github.com/contractreg/contractreg/internal/domain"
	"github.com/contractreg/contractreg/internal/idgen"
	"github.com/contractreg/contractreg/internal/store"
)

// Recorder appends and queries audit events. It never opens its own
// transaction: Record must be called with the same store.Tx as the
// mutation it documents, so a partial failure can never commit state
// without a matching history entry.
type Recorder struct {
	ids   idgen.Generator
	clock clock.Clock
}

func NewRecorder(ids idgen.Generator, c clock.Clock) *Recorder {
	return &Recorder{ids: ids, clock: c}
}

// Record appends one audit event inside tx.
func (r *Recorder) Record(ctx context.Context, tx store.Tx, entityType, entityID, action, actorID string, payload map[string]interface{}) error {
	event := &domain.AuditEvent{
		ID:         r.ids.NewID(),
		EntityType: entityType,
		EntityID:   entityID,
		Action:     action,
		ActorID:    actorID,
		Payload:    domain.NewPayload(payload),
		OccurredAt: r.clock.Now(),
	}
	return tx.AppendAudit(ctx, event)
}

// Query lists audit events matching filter, oldest first, paginated via
// the store's (occurred_at, id) keyset cursor.
func (r *Recorder) Query(ctx context.Context, tx store.Tx, filter store.AuditFilter, page store.Page) ([]*domain.AuditEvent, store.PageResult, error) {
	return tx.QueryAudit(ctx, filter, page)
}
