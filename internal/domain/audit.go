package domain

import (
	"time"

	"google.golang.org/protobuf/types/known/structpb"
)

// AuditEvent is an append-only record of a state transition. Payload uses
// structpb.Struct rather than map[string]interface{}: it is the
// language-neutral, self-describing wire type for an "opaque record" and
// round-trips through JSON and protobuf-aware transports identically,
// which a hand-marshaled map does not guarantee for numeric types.
type AuditEvent struct {
	ID         string             `json:"id"`
	EntityType string             `json:"entity_type"`
	EntityID   string             `json:"entity_id"`
	Action     string             `json:"action"`
	ActorID    string             `json:"actor_id"`
	Payload    *structpb.Struct   `json:"payload,omitempty"`
	OccurredAt time.Time          `json:"occurred_at"`
}

// NewPayload builds a structpb.Struct from a plain Go map, the shape every
// call site in this repository actually has on hand. An empty or nil map
// yields nil. A map holding a value structpb can't represent yields a
// payload with a single "_marshal_error" field carrying the error text.
func NewPayload(fields map[string]interface{}) *structpb.Struct {
	if len(fields) == 0 {
		return nil
	}
	s, err := structpb.NewStruct(fields)
	if err != nil {
		// Only unrepresentable Go values (channels, funcs, cyclic
		// structures) hit this path; audit payloads are always built from
		// JSON-shaped domain data.
		return &structpb.Struct{Fields: map[string]*structpb.Value{
			"_marshal_error": structpb.NewStringValue(err.Error()),
		}}
	}
	return s
}

// Well-known audit actions. Kept as untyped string constants (not a Kind
// enum) because the set grows with every new transition and nothing
// switches exhaustively over it.
const (
	ActionContractPublished     = "contract.published"
	ActionContractDeprecated    = "contract.deprecated"
	ActionContractForcePublished = "contract.force_published"
	ActionProposalOpened        = "proposal.opened"
	ActionProposalAcknowledged  = "proposal.acknowledged"
	ActionProposalApproved      = "proposal.approved"
	ActionProposalRejected      = "proposal.rejected"
	ActionProposalWithdrawn     = "proposal.withdrawn"
	ActionProposalForceApproved = "proposal.force_approved"
	ActionProposalPublished     = "proposal.published"
	ActionRegistrationCreated   = "registration.created"
	ActionTeamCreated           = "team.created"
	ActionAssetCreated          = "asset.created"
)
