// Package store defines the transactional persistence boundary the core
// depends on (spec §6): CRUD per entity, asset-row locking, keyset-paginated
// listings, and an append-only audit primitive. internal/store/memory and
// internal/store/postgres provide implementations; the core (internal/publish,
// internal/proposal, internal/impact, internal/audit) only ever sees this
// interface.
package store

import (
	"context"
	"time"

	"github.com/contractreg/contractreg/internal/coreerrors"
	"github.com/contractreg/contractreg/internal/domain"
)

// ErrDuplicate is returned when a uniqueness invariant is violated: a reused
// entity ID, a team slug or asset.fqn collision, a second pending proposal
// on an asset, or a second API key with the same hash. It carries Kind
// Conflict.
var ErrDuplicate error = coreerrors.NewConflict("store: duplicate entity")

// Page requests one page of a keyset-paginated listing. Cursor is opaque and
// echoes what a previous PageResult returned; an empty Cursor starts from
// the beginning. A zero Limit means "use the store's default page size."
type Page struct {
	Cursor string
	Limit  int
}

// PageResult carries the cursor to pass back for the next page. NextCursor
// is empty when there is no further page.
type PageResult struct {
	NextCursor string
}

// AssetFilter narrows ListAssets. Zero-value fields are unconstrained.
type AssetFilter struct {
	OwnerTeamID    string
	ResourceType   domain.ResourceType
	IncludeDeleted bool
}

// RegistrationFilter narrows ListRegistrations.
type RegistrationFilter struct {
	AssetID        string
	ConsumerTeamID string
	Status         domain.RegistrationStatus
}

// ProposalFilter narrows ListProposals.
type ProposalFilter struct {
	AssetID string
	Status  domain.ProposalStatus
}

// AuditFilter narrows QueryAudit (spec §4.7): filtering by entity, actor,
// action and time range, on top of keyset pagination.
type AuditFilter struct {
	EntityTypes []string
	EntityID    string
	ActorID     string
	Action      string
	Since       *time.Time
	Until       *time.Time
}

// Store opens transactions. Every mutation the core performs happens inside
// exactly one Tx (spec §4.5 step 2, §4.7); there is no autocommit path.
type Store interface {
	// Begin starts a new transaction. The store is responsible for choosing
	// an isolation level sufficient for the core's invariants (serializable
	// or an equivalent achieved via row locking — spec §4.5).
	Begin(ctx context.Context) (Tx, error)
}

// Tx is a single transactional unit of work. Methods that can fail against
// store-enforced invariants return a *coreerrors.Error: Kind NotFound for a
// missing row, ErrDuplicate (Kind Conflict) for a uniqueness violation.
// Other backend failures are returned wrapped, not as *coreerrors.Error.
type Tx interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error

	// --- Teams ---
	CreateTeam(ctx context.Context, t *domain.Team) error
	GetTeam(ctx context.Context, id string) (*domain.Team, error)
	GetTeamBySlug(ctx context.Context, slug string) (*domain.Team, error)
	ListTeams(ctx context.Context, includeDeleted bool, page Page) ([]*domain.Team, PageResult, error)
	SoftDeleteTeam(ctx context.Context, id string) error

	// --- Assets ---
	CreateAsset(ctx context.Context, a *domain.Asset) error
	GetAsset(ctx context.Context, id string) (*domain.Asset, error)
	GetAssetByFQN(ctx context.Context, fqn string) (*domain.Asset, error)
	ListAssets(ctx context.Context, filter AssetFilter, page Page) ([]*domain.Asset, PageResult, error)
	// LockAsset acquires the asset-row lock (spec §4.5 step 2) for the
	// remainder of the transaction and returns its current row. Blocks
	// until any concurrent transaction holding the lock commits or rolls
	// back.
	LockAsset(ctx context.Context, id string) (*domain.Asset, error)
	SetAssetCurrentContract(ctx context.Context, assetID string, contractID *string) error
	SoftDeleteAsset(ctx context.Context, id string) error

	// --- Contracts ---
	CreateContract(ctx context.Context, c *domain.Contract) error
	GetContract(ctx context.Context, id string) (*domain.Contract, error)
	GetActiveContract(ctx context.Context, assetID string) (*domain.Contract, error)
	ListContracts(ctx context.Context, assetID string, page Page) ([]*domain.Contract, PageResult, error)
	SetContractStatus(ctx context.Context, id string, status domain.ContractStatus) error

	// --- Registrations ---
	CreateRegistration(ctx context.Context, r *domain.Registration) error
	GetRegistration(ctx context.Context, id string) (*domain.Registration, error)
	ListActiveRegistrations(ctx context.Context, assetID string) ([]*domain.Registration, error)
	ListRegistrations(ctx context.Context, filter RegistrationFilter, page Page) ([]*domain.Registration, PageResult, error)
	SetRegistrationStatus(ctx context.Context, id string, status domain.RegistrationStatus) error

	// --- Proposals ---
	CreateProposal(ctx context.Context, p *domain.Proposal) error
	GetProposal(ctx context.Context, id string) (*domain.Proposal, error)
	GetPendingProposal(ctx context.Context, assetID string) (*domain.Proposal, error)
	ListProposals(ctx context.Context, filter ProposalFilter, page Page) ([]*domain.Proposal, PageResult, error)
	UpdateProposal(ctx context.Context, p *domain.Proposal) error

	// --- Acknowledgments ---
	UpsertAcknowledgment(ctx context.Context, a *domain.Acknowledgment) error
	ListAcknowledgments(ctx context.Context, proposalID string) ([]*domain.Acknowledgment, error)

	// --- API keys ---
	CreateAPIKey(ctx context.Context, k *domain.APIKey) error
	GetAPIKeyByHash(ctx context.Context, keyHash string) (*domain.APIKey, error)
	ListAPIKeysByTeam(ctx context.Context, teamID string) ([]*domain.APIKey, error)
	RevokeAPIKey(ctx context.Context, id string) error

	// --- Dependencies (lineage edges) ---
	AddDependency(ctx context.Context, d domain.AssetDependency) error
	ListDownstream(ctx context.Context, upstreamAssetID string) ([]domain.AssetDependency, error)
	ListUpstream(ctx context.Context, downstreamAssetID string) ([]domain.AssetDependency, error)

	// --- Audit ---
	// AppendAudit must be called inside the same transaction as the
	// mutation it records (spec §4.7); it never runs standalone in the
	// core.
	AppendAudit(ctx context.Context, e *domain.AuditEvent) error
	QueryAudit(ctx context.Context, filter AuditFilter, page Page) ([]*domain.AuditEvent, PageResult, error)
}
