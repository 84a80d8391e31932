package domain

import "time"

// ChangeType classifies a schema revision under a compatibility mode.
type ChangeType string

const (
	ChangePatch ChangeType = "patch"
	ChangeMinor ChangeType = "minor"
	ChangeMajor ChangeType = "major"
)

// ProposalStatus is the proposal lifecycle state (§4.6).
type ProposalStatus string

const (
	ProposalPending   ProposalStatus = "pending"
	ProposalApproved  ProposalStatus = "approved"
	ProposalRejected  ProposalStatus = "rejected"
	ProposalWithdrawn ProposalStatus = "withdrawn"
	ProposalPublished ProposalStatus = "published"
)

// ChangeRecord is the persisted, JSON-serializable form of a contract.Change
// (kept independent of the contract package's in-memory representation so
// domain has no import-cycle back into it).
type ChangeRecord struct {
	Path     string      `json:"path"`
	Kind     string      `json:"kind"`
	OldValue interface{} `json:"old_value,omitempty"`
	NewValue interface{} `json:"new_value,omitempty"`
}

// Proposal is a producer's request to publish a breaking change, suspended
// pending acknowledgment from every consumer team captured in
// AckSnapshotTeamIDs at open time (§3 invariant 6, §8 concrete scenario 3).
type Proposal struct {
	ID                       string                 `json:"id"`
	AssetID                  string                 `json:"asset_id"`
	BaseContractID           string                 `json:"base_contract_id"`
	ProposedSchema           map[string]interface{} `json:"proposed_schema"`
	ProposedVersion          string                 `json:"proposed_version"`
	ProposedCompatibilityMode CompatibilityMode     `json:"proposed_compatibility_mode"`
	BreakingChanges          []ChangeRecord         `json:"breaking_changes"`
	ChangeType               ChangeType             `json:"change_type"`
	Status                   ProposalStatus         `json:"status"`
	AckSnapshotTeamIDs       []string               `json:"ack_snapshot_team_ids"`
	ProposedBy               string                 `json:"proposed_by"`
	ProposedAt               time.Time              `json:"proposed_at"`
	ResolvedAt               *time.Time             `json:"resolved_at,omitempty"`
}

func (p *Proposal) Pending() bool { return p.Status == ProposalPending }

// InSnapshot reports whether teamID was captured in this proposal's
// expected-acknowledger set.
func (p *Proposal) InSnapshot(teamID string) bool {
	for _, id := range p.AckSnapshotTeamIDs {
		if id == teamID {
			return true
		}
	}
	return false
}
