package domain

import (
	"time"

	"github.com/contractreg/contractreg/internal/coreerrors"
)

// AckResponse is a consumer's response to a Proposal.
type AckResponse string

const (
	AckApproved  AckResponse = "approved"
	AckBlocked   AckResponse = "blocked"
	AckMigrating AckResponse = "migrating"
)

func (r AckResponse) Valid() bool {
	switch r {
	case AckApproved, AckBlocked, AckMigrating:
		return true
	}
	return false
}

// Resolved reports whether this response counts toward proposal resolution
// as an approval (approved or migrating both satisfy §4.6's "every team has
// responded with approved or migrating").
func (r AckResponse) Resolved() bool {
	return r == AckApproved || r == AckMigrating
}

// Acknowledgment is a consumer Team's response to a Proposal. Unique per
// (proposal_id, consumer_team_id) — a consumer may change their response
// until the proposal resolves.
type Acknowledgment struct {
	ID                string       `json:"id"`
	ProposalID        string       `json:"proposal_id"`
	ConsumerTeamID    string       `json:"consumer_team_id"`
	Response          AckResponse  `json:"response"`
	MigrationDeadline *time.Time  `json:"migration_deadline,omitempty"`
	Notes             string       `json:"notes,omitempty"`
	RespondedAt       time.Time    `json:"responded_at"`
}

func (a *Acknowledgment) Validate() error {
	if a.ProposalID == "" {
		return errRequired("proposal_id")
	}
	if a.ConsumerTeamID == "" {
		return errRequired("consumer_team_id")
	}
	if !a.Response.Valid() {
		return coreerrors.NewValidation("invalid response %q", a.Response)
	}
	return nil
}
