package proposal_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/contractreg/contractreg/internal/audit"
	"github.com/contractreg/contractreg/internal/clock"
	"github.com/contractreg/contractreg/internal/domain"
	"github.com/contractreg/contractreg/internal/idgen"
	"github.com/contractreg/contractreg/internal/notify"
	"github.com/contractreg/contractreg/internal/proposal"
	"github.com/contractreg/contractreg/internal/publish"
	"github.com/contractreg/contractreg/internal/store"
	"github.com/contractreg/contractreg/internal/store/memory"
)

type harness struct {
	s           store.Store
	lifecycle   *proposal.Lifecycle
	coordinator *publish.Coordinator
}

func newHarness() *harness {
	ids := idgen.NewSequence("id")
	clk := clock.NewFake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	rec := audit.NewRecorder(ids, clk)
	return &harness{
		s:           memory.New(),
		lifecycle:   proposal.NewLifecycle(ids, clk, rec),
		coordinator: publish.NewCoordinator(ids, clk, rec, notify.NoopNotifier{}),
	}
}

// openProposal seeds an asset with two active consumer registrations and a
// pending major-change proposal, returning its ID.
func (h *harness) openProposal(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	tx, err := h.s.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.CreateTeam(ctx, &domain.Team{ID: "producer", Name: "Producer", Slug: "producer"}))
	require.NoError(t, tx.CreateAsset(ctx, &domain.Asset{ID: "asset-1", FQN: "warehouse.orders", OwnerTeamID: "producer", ResourceType: domain.ResourceTable}))
	require.NoError(t, tx.CreateRegistration(ctx, &domain.Registration{ID: "reg-1", AssetID: "asset-1", ConsumerTeamID: "consumer-a", Status: domain.RegistrationActive}))
	require.NoError(t, tx.CreateRegistration(ctx, &domain.Registration{ID: "reg-2", AssetID: "asset-1", ConsumerTeamID: "consumer-b", Status: domain.RegistrationActive}))
	_, err = h.coordinator.Publish(ctx, tx, publish.Input{
		AssetID:         "asset-1",
		ProposedSchema:  map[string]interface{}{"type": "object", "properties": map[string]interface{}{"id": map[string]interface{}{"type": "string"}}},
		ProposedVersion: "1.0.0",
		ActorID:         "producer",
	})
	require.NoError(t, err)
	require.NoError(t, tx.Commit(ctx))

	tx2, err := h.s.Begin(ctx)
	require.NoError(t, err)
	result, err := h.coordinator.Publish(ctx, tx2, publish.Input{
		AssetID:         "asset-1",
		ProposedSchema:  map[string]interface{}{"type": "object", "properties": map[string]interface{}{"id": map[string]interface{}{"type": "integer"}}},
		ProposedVersion: "2.0.0",
		ActorID:         "producer",
	})
	require.NoError(t, err)
	require.NoError(t, tx2.Commit(ctx))
	require.NotNil(t, result.Proposal)
	return result.Proposal.ID
}

func TestAcknowledge_UnanimousApprovalResolvesApproved(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	proposalID := h.openProposal(t)

	tx, err := h.s.Begin(ctx)
	require.NoError(t, err)
	p, err := h.lifecycle.Acknowledge(ctx, tx, proposalID, "consumer-a", domain.AckApproved, "", nil)
	require.NoError(t, err)
	require.Equal(t, domain.ProposalPending, p.Status)
	require.NoError(t, tx.Commit(ctx))

	tx2, err := h.s.Begin(ctx)
	require.NoError(t, err)
	defer tx2.Rollback(ctx)
	p2, err := h.lifecycle.Acknowledge(ctx, tx2, proposalID, "consumer-b", domain.AckMigrating, "migrating by EOQ", nil)
	require.NoError(t, err)
	require.NoError(t, tx2.Commit(ctx))

	require.Equal(t, domain.ProposalApproved, p2.Status)
}

func TestAcknowledge_AnyBlockedRejectsImmediately(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	proposalID := h.openProposal(t)

	tx, err := h.s.Begin(ctx)
	require.NoError(t, err)
	defer tx.Rollback(ctx)

	p, err := h.lifecycle.Acknowledge(ctx, tx, proposalID, "consumer-a", domain.AckBlocked, "not ready", nil)
	require.NoError(t, err)
	require.NoError(t, tx.Commit(ctx))
	require.Equal(t, domain.ProposalRejected, p.Status)
}

func TestAcknowledge_TeamNotInSnapshotIsForbidden(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	proposalID := h.openProposal(t)

	tx, err := h.s.Begin(ctx)
	require.NoError(t, err)
	defer tx.Rollback(ctx)

	_, err = h.lifecycle.Acknowledge(ctx, tx, proposalID, "consumer-c", domain.AckApproved, "", nil)
	require.Error(t, err)
}

func TestWithdraw_ByProposingActorSucceeds(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	proposalID := h.openProposal(t)

	tx, err := h.s.Begin(ctx)
	require.NoError(t, err)
	defer tx.Rollback(ctx)

	p, err := h.lifecycle.Withdraw(ctx, tx, proposalID, "producer", false)
	require.NoError(t, err)
	require.NoError(t, tx.Commit(ctx))
	require.Equal(t, domain.ProposalWithdrawn, p.Status)
}

func TestWithdraw_ByNonOwnerNonAdminForbidden(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	proposalID := h.openProposal(t)

	tx, err := h.s.Begin(ctx)
	require.NoError(t, err)
	defer tx.Rollback(ctx)

	_, err = h.lifecycle.Withdraw(ctx, tx, proposalID, "consumer-a", false)
	require.Error(t, err)
}

func TestForce_ApprovesRegardlessOfOutstandingAcks(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	proposalID := h.openProposal(t)

	tx, err := h.s.Begin(ctx)
	require.NoError(t, err)
	defer tx.Rollback(ctx)

	p, err := h.lifecycle.Force(ctx, tx, proposalID, "admin-actor")
	require.NoError(t, err)
	require.NoError(t, tx.Commit(ctx))
	require.Equal(t, domain.ProposalApproved, p.Status)
}

func TestPublish_ApprovedProposalInsertsContractAndMarksPublished(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	proposalID := h.openProposal(t)

	tx, err := h.s.Begin(ctx)
	require.NoError(t, err)
	_, err = h.lifecycle.Force(ctx, tx, proposalID, "admin-actor")
	require.NoError(t, err)
	require.NoError(t, tx.Commit(ctx))

	tx2, err := h.s.Begin(ctx)
	require.NoError(t, err)
	defer tx2.Rollback(ctx)

	p, newContract, err := h.lifecycle.Publish(ctx, tx2, h.coordinator, proposalID, "producer")
	require.NoError(t, err)
	require.NoError(t, tx2.Commit(ctx))

	require.Equal(t, domain.ProposalPublished, p.Status)
	require.Equal(t, "2.0.0", newContract.Version)
}

func TestPublish_StaleBaseContractRejectsAsRejected(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	proposalID := h.openProposal(t)

	tx, err := h.s.Begin(ctx)
	require.NoError(t, err)
	_, err = h.lifecycle.Force(ctx, tx, proposalID, "admin-actor")
	require.NoError(t, err)
	require.NoError(t, tx.Commit(ctx))

	// Publish an unrelated non-major change directly — now that the
	// proposal is approved rather than pending, this is allowed, and it
	// moves the asset's current contract out from under the approved
	// proposal's base.
	tx2, err := h.s.Begin(ctx)
	require.NoError(t, err)
	_, err = h.coordinator.Publish(ctx, tx2, publish.Input{
		AssetID:         "asset-1",
		ProposedSchema:  map[string]interface{}{"type": "object", "properties": map[string]interface{}{"id": map[string]interface{}{"type": "string"}}},
		ProposedVersion: "1.0.1",
		ActorID:         "producer",
	})
	require.NoError(t, err)
	require.NoError(t, tx2.Commit(ctx))

	tx3, err := h.s.Begin(ctx)
	require.NoError(t, err)
	defer tx3.Rollback(ctx)

	_, _, err = h.lifecycle.Publish(ctx, tx3, h.coordinator, proposalID, "producer")
	require.Error(t, err)

	p, err := tx3.GetProposal(ctx, proposalID)
	require.NoError(t, err)
	require.Equal(t, domain.ProposalRejected, p.Status)
}
