package audit_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/contractreg/contractreg/internal/audit"
	"github.com/contractreg/contractreg/internal/clock"
	"github.com/contractreg/contractreg/internal/domain"
	"github.com/contractreg/contractreg/internal/idgen"
	"github.com/contractreg/contractreg/internal/store"
	"github.com/contractreg/contractreg/internal/store/memory"
)

func TestRecord_AppendsWellFormedEvent(t *testing.T) {
	ids := idgen.NewSequence("evt")
	clk := clock.NewFake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	rec := audit.NewRecorder(ids, clk)

	s := memory.New()
	ctx := context.Background()
	tx, err := s.Begin(ctx)
	require.NoError(t, err)
	defer tx.Rollback(ctx)

	err = rec.Record(ctx, tx, "asset", "asset-1", "asset.created", "actor-1", map[string]interface{}{"fqn": "warehouse.orders"})
	require.NoError(t, err)

	events, _, err := tx.QueryAudit(ctx, store.AuditFilter{EntityID: "asset-1"}, store.Page{})
	require.NoError(t, err)
	require.Len(t, events, 1)

	e := events[0]
	require.Equal(t, "evt-1", e.ID)
	require.Equal(t, "asset", e.EntityType)
	require.Equal(t, "asset-1", e.EntityID)
	require.Equal(t, "asset.created", e.Action)
	require.Equal(t, "actor-1", e.ActorID)
	require.Equal(t, clk.Now(), e.OccurredAt)
	require.Equal(t, "warehouse.orders", e.Payload.Fields["fqn"].GetStringValue())
}

func TestQuery_FiltersByEntityTypeAndActor(t *testing.T) {
	ids := idgen.NewSequence("evt")
	clk := clock.NewFake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	rec := audit.NewRecorder(ids, clk)

	s := memory.New()
	ctx := context.Background()
	tx, err := s.Begin(ctx)
	require.NoError(t, err)
	defer tx.Rollback(ctx)

	require.NoError(t, rec.Record(ctx, tx, "asset", "asset-1", "asset.created", "actor-1", nil))
	require.NoError(t, rec.Record(ctx, tx, "contract", "contract-1", "contract.published", "actor-2", nil))
	require.NoError(t, rec.Record(ctx, tx, "asset", "asset-2", "asset.created", "actor-2", nil))

	events, _, err := rec.Query(ctx, tx, store.AuditFilter{EntityTypes: []string{"asset"}}, store.Page{})
	require.NoError(t, err)
	require.Len(t, events, 2)

	events, _, err = rec.Query(ctx, tx, store.AuditFilter{ActorID: "actor-2"}, store.Page{})
	require.NoError(t, err)
	require.Len(t, events, 2)

	require.Nil(t, domain.NewPayload(nil))
}
