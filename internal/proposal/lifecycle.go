// Package proposal implements the proposal lifecycle (spec §4.6): the
// acknowledge / resolution-trigger / withdraw / force / publish operations
// that move a Proposal from pending to a terminal state.
package proposal

import (
	"context"
	"time"

	"github.com/contractreg/contractreg/internal/audit"
	"github.com/contractreg/contractreg/internal/clock"
	"github.com/contractreg/contractreg/internal/coreerrors"
	"github.com/contractreg/contractreg/internal/domain"
	"github.com/contractreg/contractreg/internal/idgen"
	"github.com/contractreg/contractreg/internal/publish"
	"github.com/contractreg/contractreg/internal/store"
)

// Lifecycle runs proposal state transitions inside a caller-supplied
// transaction, the same ownership split as publish.Coordinator.
type Lifecycle struct {
	ids   idgen.Generator
	clock clock.Clock
	audit *audit.Recorder
}

func NewLifecycle(ids idgen.Generator, c clock.Clock, rec *audit.Recorder) *Lifecycle {
	return &Lifecycle{ids: ids, clock: c, audit: rec}
}

// Acknowledge records a consumer team's response to a pending proposal,
// then runs the resolution trigger.
func (l *Lifecycle) Acknowledge(ctx context.Context, tx store.Tx, proposalID, consumerTeamID string, response domain.AckResponse, notes string, migrationDeadline *time.Time) (*domain.Proposal, error) {
	p, err := tx.GetProposal(ctx, proposalID)
	if err != nil {
		return nil, err
	}
	if !p.Pending() {
		return nil, coreerrors.NewConflict("proposal %q is not pending", proposalID)
	}
	if !p.InSnapshot(consumerTeamID) {
		return nil, coreerrors.NewForbidden("team %q was not a registered consumer when this proposal opened", consumerTeamID)
	}

	ack := &domain.Acknowledgment{
		ID:                l.ids.NewID(),
		ProposalID:        proposalID,
		ConsumerTeamID:    consumerTeamID,
		Response:          response,
		Notes:             notes,
		MigrationDeadline: migrationDeadline,
		RespondedAt:       l.clock.Now(),
	}
	if err := tx.UpsertAcknowledgment(ctx, ack); err != nil {
		return nil, err
	}
	if err := l.audit.Record(ctx, tx, "proposal", proposalID, domain.ActionProposalAcknowledged, consumerTeamID, map[string]interface{}{
		"response": string(response),
	}); err != nil {
		return nil, err
	}

	return l.resolve(ctx, tx, p)
}

// resolve implements spec §4.6's resolution trigger. It always reloads
// acknowledgments fresh so it reflects the upsert that just happened.
func (l *Lifecycle) resolve(ctx context.Context, tx store.Tx, p *domain.Proposal) (*domain.Proposal, error) {
	acks, err := tx.ListAcknowledgments(ctx, p.ID)
	if err != nil {
		return nil, err
	}

	byTeam := map[string]domain.AckResponse{}
	for _, a := range acks {
		byTeam[a.ConsumerTeamID] = a.Response
	}

	for _, resp := range byTeam {
		if resp == domain.AckBlocked {
			return l.transitionRejected(ctx, tx, p, nil)
		}
	}

	allApproved := true
	for _, teamID := range p.AckSnapshotTeamIDs {
		resp, ok := byTeam[teamID]
		if !ok || !resp.Resolved() {
			allApproved = false
			break
		}
	}
	if allApproved {
		return l.transitionApproved(ctx, tx, p, domain.ActionProposalApproved, nil)
	}

	return p, nil
}

func (l *Lifecycle) transitionRejected(ctx context.Context, tx store.Tx, p *domain.Proposal, payload map[string]interface{}) (*domain.Proposal, error) {
	now := l.clock.Now()
	p.Status = domain.ProposalRejected
	p.ResolvedAt = &now
	if err := tx.UpdateProposal(ctx, p); err != nil {
		return nil, err
	}
	if err := l.audit.Record(ctx, tx, "proposal", p.ID, domain.ActionProposalRejected, "", payload); err != nil {
		return nil, err
	}
	return p, nil
}

func (l *Lifecycle) transitionApproved(ctx context.Context, tx store.Tx, p *domain.Proposal, action string, payload map[string]interface{}) (*domain.Proposal, error) {
	p.Status = domain.ProposalApproved
	if err := tx.UpdateProposal(ctx, p); err != nil {
		return nil, err
	}
	if err := l.audit.Record(ctx, tx, "proposal", p.ID, action, "", payload); err != nil {
		return nil, err
	}
	return p, nil
}

// Withdraw transitions a pending proposal to withdrawn. Only the proposing
// actor or an admin may withdraw; admin-ness is a scope check the caller
// has already performed (spec §4.5's "checked outside the core" pattern).
func (l *Lifecycle) Withdraw(ctx context.Context, tx store.Tx, proposalID, actorID string, isAdmin bool) (*domain.Proposal, error) {
	p, err := tx.GetProposal(ctx, proposalID)
	if err != nil {
		return nil, err
	}
	if !p.Pending() {
		return nil, coreerrors.NewConflict("proposal %q is not pending", proposalID)
	}
	if !isAdmin && p.ProposedBy != actorID {
		return nil, coreerrors.NewForbidden("only the proposing actor or an admin may withdraw this proposal")
	}

	now := l.clock.Now()
	p.Status = domain.ProposalWithdrawn
	p.ResolvedAt = &now
	if err := tx.UpdateProposal(ctx, p); err != nil {
		return nil, err
	}
	if err := l.audit.Record(ctx, tx, "proposal", p.ID, domain.ActionProposalWithdrawn, actorID, nil); err != nil {
		return nil, err
	}
	return p, nil
}

// Force treats every outstanding acknowledgment as approved and transitions
// the proposal straight to approved. Admin only; the caller has already
// checked scope.
func (l *Lifecycle) Force(ctx context.Context, tx store.Tx, proposalID, actorID string) (*domain.Proposal, error) {
	p, err := tx.GetProposal(ctx, proposalID)
	if err != nil {
		return nil, err
	}
	if !p.Pending() {
		return nil, coreerrors.NewConflict("proposal %q is not pending", proposalID)
	}

	acks, err := tx.ListAcknowledgments(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	responded := map[string]bool{}
	for _, a := range acks {
		responded[a.ConsumerTeamID] = true
	}
	var unresolved []string
	for _, teamID := range p.AckSnapshotTeamIDs {
		if !responded[teamID] {
			unresolved = append(unresolved, teamID)
		}
	}

	return l.transitionApproved(ctx, tx, p, domain.ActionProposalForceApproved, map[string]interface{}{
		"unresolved_acknowledgers": unresolved,
	})
}

// Publish re-verifies invariant 4 (the base contract is still current)
// before performing the same contract-insert/deprecate transaction as
// publish.Coordinator's non-major path.
func (l *Lifecycle) Publish(ctx context.Context, tx store.Tx, coordinator *publish.Coordinator, proposalID, actorID string) (*domain.Proposal, *domain.Contract, error) {
	p, err := tx.GetProposal(ctx, proposalID)
	if err != nil {
		return nil, nil, err
	}
	if p.Status != domain.ProposalApproved {
		return nil, nil, coreerrors.NewConflict("proposal %q is not approved", proposalID)
	}

	asset, err := tx.GetAsset(ctx, p.AssetID)
	if err != nil {
		return nil, nil, err
	}
	current, err := tx.GetActiveContract(ctx, asset.ID)
	if err != nil {
		return nil, nil, err
	}
	if current.ID != p.BaseContractID {
		now := l.clock.Now()
		p.Status = domain.ProposalRejected
		p.ResolvedAt = &now
		if uErr := tx.UpdateProposal(ctx, p); uErr != nil {
			return nil, nil, uErr
		}
		return nil, nil, coreerrors.NewConflict("base contract %q is no longer current for asset %q; proposal rejected as stale", p.BaseContractID, asset.ID)
	}

	newContract, err := coordinator.ApplyApprovedProposal(ctx, tx, p, current, actorID)
	if err != nil {
		return nil, nil, err
	}

	now := l.clock.Now()
	p.Status = domain.ProposalPublished
	p.ResolvedAt = &now
	if err := tx.UpdateProposal(ctx, p); err != nil {
		return nil, nil, err
	}
	if err := l.audit.Record(ctx, tx, "proposal", p.ID, domain.ActionProposalPublished, actorID, map[string]interface{}{
		"contract_id": newContract.ID,
	}); err != nil {
		return nil, nil, err
	}

	return p, newContract, nil
}
