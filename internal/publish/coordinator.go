// Package publish implements the publish state machine (spec §4.5): the
// single entry point that turns a proposed schema into either a new active
// Contract or a pending Proposal, depending on severity.
package publish

import (
	"context"
	"log/slog"

	"github.com/contractreg/contractreg/internal/audit"
	"github.com/contractreg/contractreg/internal/clock"
	"github.com/contractreg/contractreg/internal/contract"
	"github.com/contractreg/contractreg/internal/coreerrors"
	"github.com/contractreg/contractreg/internal/domain"
	"github.com/contractreg/contractreg/internal/guarantee"
	"github.com/contractreg/contractreg/internal/idgen"
	"github.com/contractreg/contractreg/internal/notify"
	"github.com/contractreg/contractreg/internal/store"
)

// Input is everything Publish needs beyond the transaction itself.
type Input struct {
	AssetID           string
	ProposedSchema    map[string]interface{}
	ProposedVersion   string
	CompatibilityMode *domain.CompatibilityMode // nil defers to the current contract's mode, or backward
	Guarantees        *domain.Guarantees
	ActorID           string
	Force             bool // caller must already have checked admin scope (spec §4.5 step 7)
}

// Result carries exactly one non-nil field: Contract for an immediate
// publish, Proposal for a suspended one pending acknowledgment.
type Result struct {
	Contract *domain.Contract
	Proposal *domain.Proposal
}

// Coordinator runs the publish algorithm inside a caller-supplied
// transaction. It never opens or closes a transaction itself — the HTTP
// layer owns that boundary so a single request can compose Publish with
// other store calls atomically.
type Coordinator struct {
	ids        idgen.Generator
	clock      clock.Clock
	audit      *audit.Recorder
	notifier   notify.Notifier
	differ     *contract.Differ
	classifier *contract.Classifier
}

func NewCoordinator(ids idgen.Generator, c clock.Clock, rec *audit.Recorder, notifier notify.Notifier) *Coordinator {
	return &Coordinator{
		ids:        ids,
		clock:      c,
		audit:      rec,
		notifier:   notifier,
		differ:     contract.NewDiffer(),
		classifier: contract.NewClassifier(),
	}
}

// Publish executes spec §4.5's algorithm. tx must already be open; the
// caller commits or rolls back.
func (c *Coordinator) Publish(ctx context.Context, tx store.Tx, in Input) (*Result, error) {
	asset, err := tx.LockAsset(ctx, in.AssetID)
	if err != nil {
		return nil, err
	}
	if asset.Deleted() {
		return nil, coreerrors.NewNotFound("asset %q not found", in.AssetID)
	}

	if _, err := tx.GetPendingProposal(ctx, asset.ID); err == nil {
		return nil, coreerrors.NewConflict("asset %q already has a pending proposal", asset.ID)
	} else if !coreerrors.Is(err, coreerrors.NotFound) {
		return nil, err
	}

	current, err := tx.GetActiveContract(ctx, asset.ID)
	if err != nil {
		if !coreerrors.Is(err, coreerrors.NotFound) {
			return nil, err
		}
		current = nil
	}

	proposedVersion, err := contract.ParseVersion(in.ProposedVersion)
	if err != nil {
		return nil, err
	}
	if current != nil {
		currentVersion, err := contract.ParseVersion(current.Version)
		if err != nil {
			return nil, coreerrors.Wrap(err, "stored contract %q has an unparseable version", current.ID)
		}
		if proposedVersion.Compare(currentVersion) <= 0 {
			return nil, coreerrors.NewValidation("proposed_version %q must be strictly greater than current version %q", in.ProposedVersion, current.Version)
		}
	}

	mode := resolveMode(in.CompatibilityMode, current)

	if current == nil {
		return c.publishInitial(ctx, tx, asset, in, mode)
	}

	changes, err := c.diff(current, in.ProposedSchema)
	if err != nil {
		return nil, err
	}
	changeType, breaking := c.classifier.Classify(changes, mode)

	if changeType != domain.ChangeMajor {
		newContract, err := c.insertAndDeprecate(ctx, tx, asset, current, in, mode, proposedVersion.String())
		if err != nil {
			return nil, err
		}
		if err := c.audit.Record(ctx, tx, "contract", newContract.ID, domain.ActionContractPublished, in.ActorID, map[string]interface{}{
			"asset_id": asset.ID, "version": newContract.Version, "change_type": string(changeType),
		}); err != nil {
			return nil, err
		}
		return &Result{Contract: newContract}, nil
	}

	if in.Force {
		newContract, err := c.insertAndDeprecate(ctx, tx, asset, current, in, mode, proposedVersion.String())
		if err != nil {
			return nil, err
		}
		if err := c.audit.Record(ctx, tx, "contract", newContract.ID, domain.ActionContractForcePublished, in.ActorID, map[string]interface{}{
			"asset_id": asset.ID, "version": newContract.Version, "breaking_changes": recordsFrom(breaking),
		}); err != nil {
			return nil, err
		}
		return &Result{Contract: newContract}, nil
	}

	// A pre-release proposed version is explicitly not-yet-stable: consumers
	// pinned to a stable line are never subscribed to it, so a breaking
	// change against one skips the ack workflow and publishes immediately
	// (SPEC_FULL §12.2, grounded on contract_publisher.py's is_prerelease
	// short-circuit).
	if proposedVersion.IsPrerelease() {
		newContract, err := c.insertAndDeprecate(ctx, tx, asset, current, in, mode, proposedVersion.String())
		if err != nil {
			return nil, err
		}
		if err := c.audit.Record(ctx, tx, "contract", newContract.ID, domain.ActionContractPublished, in.ActorID, map[string]interface{}{
			"asset_id": asset.ID, "version": newContract.Version, "change_type": string(changeType), "prerelease": true,
		}); err != nil {
			return nil, err
		}
		return &Result{Contract: newContract}, nil
	}

	return c.openProposal(ctx, tx, asset, current, in, mode, proposedVersion.String(), changeType, breaking)
}

// ApplyApprovedProposal performs the contract-insert/deprecate-old
// transaction for a proposal that has already resolved to approved (spec
// §4.6's publish operation). The caller (proposal.Lifecycle) has already
// re-verified that the proposal's base contract is still current.
func (c *Coordinator) ApplyApprovedProposal(ctx context.Context, tx store.Tx, p *domain.Proposal, current *domain.Contract, actorID string) (*domain.Contract, error) {
	asset, err := tx.LockAsset(ctx, p.AssetID)
	if err != nil {
		return nil, err
	}

	newContract, err := c.insertAndDeprecate(ctx, tx, asset, current, Input{
		ProposedSchema:    p.ProposedSchema,
		Guarantees:        nil,
		ActorID:           actorID,
	}, p.ProposedCompatibilityMode, p.ProposedVersion)
	if err != nil {
		return nil, err
	}
	if err := c.audit.Record(ctx, tx, "contract", newContract.ID, domain.ActionContractPublished, actorID, map[string]interface{}{
		"asset_id": asset.ID, "version": newContract.Version, "change_type": string(p.ChangeType), "from_proposal": p.ID,
	}); err != nil {
		return nil, err
	}
	return newContract, nil
}

func (c *Coordinator) publishInitial(ctx context.Context, tx store.Tx, asset *domain.Asset, in Input, mode domain.CompatibilityMode) (*Result, error) {
	if err := guaranteesValid(in.Guarantees); err != nil {
		return nil, err
	}

	newContract := &domain.Contract{
		ID:                c.ids.NewID(),
		AssetID:           asset.ID,
		Version:           in.ProposedVersion,
		Schema:            in.ProposedSchema,
		CompatibilityMode: mode,
		Guarantees:        in.Guarantees,
		Status:            domain.ContractActive,
		PublishedAt:       c.clock.Now(),
		PublishedBy:       in.ActorID,
	}
	if err := tx.CreateContract(ctx, newContract); err != nil {
		return nil, err
	}
	if err := tx.SetAssetCurrentContract(ctx, asset.ID, &newContract.ID); err != nil {
		return nil, err
	}
	if err := c.audit.Record(ctx, tx, "contract", newContract.ID, domain.ActionContractPublished, in.ActorID, map[string]interface{}{
		"asset_id": asset.ID, "version": newContract.Version, "initial": true,
	}); err != nil {
		return nil, err
	}
	return &Result{Contract: newContract}, nil
}

func (c *Coordinator) insertAndDeprecate(ctx context.Context, tx store.Tx, asset *domain.Asset, current *domain.Contract, in Input, mode domain.CompatibilityMode, version string) (*domain.Contract, error) {
	if err := guaranteesValid(in.Guarantees); err != nil {
		return nil, err
	}

	newContract := &domain.Contract{
		ID:                c.ids.NewID(),
		AssetID:           asset.ID,
		Version:           version,
		Schema:            in.ProposedSchema,
		CompatibilityMode: mode,
		Guarantees:        in.Guarantees,
		Status:            domain.ContractActive,
		PublishedAt:       c.clock.Now(),
		PublishedBy:       in.ActorID,
	}
	if err := tx.CreateContract(ctx, newContract); err != nil {
		return nil, err
	}
	if err := tx.SetContractStatus(ctx, current.ID, domain.ContractDeprecated); err != nil {
		return nil, err
	}
	if err := tx.SetAssetCurrentContract(ctx, asset.ID, &newContract.ID); err != nil {
		return nil, err
	}
	if err := c.audit.Record(ctx, tx, "contract", current.ID, domain.ActionContractDeprecated, in.ActorID, map[string]interface{}{
		"asset_id": asset.ID, "superseded_by": newContract.ID,
	}); err != nil {
		return nil, err
	}
	return newContract, nil
}

func (c *Coordinator) openProposal(ctx context.Context, tx store.Tx, asset *domain.Asset, current *domain.Contract, in Input, mode domain.CompatibilityMode, version string, changeType domain.ChangeType, breaking []contract.Change) (*Result, error) {
	activeRegs, err := tx.ListActiveRegistrations(ctx, asset.ID)
	if err != nil {
		return nil, err
	}
	snapshot := uniqueTeamIDs(activeRegs)

	proposal := &domain.Proposal{
		ID:                        c.ids.NewID(),
		AssetID:                   asset.ID,
		BaseContractID:            current.ID,
		ProposedSchema:            in.ProposedSchema,
		ProposedVersion:           version,
		ProposedCompatibilityMode: mode,
		BreakingChanges:           recordsFrom(breaking),
		ChangeType:                changeType,
		Status:                    domain.ProposalPending,
		AckSnapshotTeamIDs:        snapshot,
		ProposedBy:                in.ActorID,
		ProposedAt:                c.clock.Now(),
	}
	if err := tx.CreateProposal(ctx, proposal); err != nil {
		return nil, err
	}
	if err := c.audit.Record(ctx, tx, "proposal", proposal.ID, domain.ActionProposalOpened, in.ActorID, map[string]interface{}{
		"asset_id": asset.ID, "change_type": string(changeType), "consumer_count": len(snapshot),
	}); err != nil {
		return nil, err
	}

	events := make([]notify.Event, 0, len(snapshot))
	for _, teamID := range snapshot {
		events = append(events, notify.Event{
			Type:           "proposal.opened",
			ProposalID:     proposal.ID,
			AssetID:        asset.ID,
			ConsumerTeamID: teamID,
			ChangeType:     string(changeType),
			OccurredAt:     proposal.ProposedAt,
		})
	}
	if len(events) > 0 {
		if err := c.notifier.NotifyAll(ctx, events); err != nil {
			slog.Error("proposal opened but notifier delivery failed", "proposal_id", proposal.ID, "asset_id", asset.ID, "error", err)
		}
	}

	return &Result{Proposal: proposal}, nil
}

func (c *Coordinator) diff(current *domain.Contract, proposedSchema map[string]interface{}) ([]contract.Change, error) {
	oldNode, err := contract.ParseSchema(current.Schema)
	if err != nil {
		return nil, coreerrors.Wrap(err, "stored contract %q has an unparseable schema", current.ID)
	}
	newNode, err := contract.ParseSchema(proposedSchema)
	if err != nil {
		return nil, coreerrors.NewBrokenContract("proposed schema is not a valid contract: %v", err)
	}
	return c.differ.Diff(oldNode, newNode), nil
}

func resolveMode(requested *domain.CompatibilityMode, current *domain.Contract) domain.CompatibilityMode {
	if requested != nil {
		return *requested
	}
	if current != nil {
		return current.CompatibilityMode
	}
	return domain.ModeBackward
}

func uniqueTeamIDs(regs []*domain.Registration) []string {
	seen := map[string]bool{}
	var out []string
	for _, r := range regs {
		if seen[r.ConsumerTeamID] {
			continue
		}
		seen[r.ConsumerTeamID] = true
		out = append(out, r.ConsumerTeamID)
	}
	return out
}

func recordsFrom(changes []contract.Change) []domain.ChangeRecord {
	out := make([]domain.ChangeRecord, 0, len(changes))
	for _, ch := range changes {
		out = append(out, domain.ChangeRecord{
			Path:     ch.Path,
			Kind:     string(ch.Kind),
			OldValue: ch.OldValue,
			NewValue: ch.NewValue,
		})
	}
	return out
}

func guaranteesValid(g *domain.Guarantees) error {
	return guarantee.Validate(g)
}
