// Package memory is an in-memory, transactional store.Store used in tests
// and local development. It is grounded in the teacher's MemoryRepository
// pattern (jc-chen157-project-aevon's internal/schema/storage/memory.go): a
// mutex-guarded map with a defensive copy on every read and write. Here that
// pattern is scaled from a single map to a whole transactional database: one
// mutex serializes all transactions, and Begin snapshots every table so
// Rollback can restore it verbatim.
package memory

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"time"

	"github.com/contractreg/contractreg/internal/coreerrors"
	"github.com/contractreg/contractreg/internal/domain"
	"github.com/contractreg/contractreg/internal/store"
)

const defaultPageLimit = 50

// Store is the in-memory backing engine. It has no namespace support, so
// (per spec §6) core, workflow, and audit entities all live in one
// namespace without prefix.
type Store struct {
	mu   sync.Mutex
	data db
}

type db struct {
	teams         map[string]*domain.Team
	assets        map[string]*domain.Asset
	contracts     map[string]*domain.Contract
	registrations map[string]*domain.Registration
	proposals     map[string]*domain.Proposal
	acks          map[string]*domain.Acknowledgment
	apiKeys       map[string]*domain.APIKey
	deps          []domain.AssetDependency
	audits        []*domain.AuditEvent
}

func newDB() db {
	return db{
		teams:         make(map[string]*domain.Team),
		assets:        make(map[string]*domain.Asset),
		contracts:     make(map[string]*domain.Contract),
		registrations: make(map[string]*domain.Registration),
		proposals:     make(map[string]*domain.Proposal),
		acks:          make(map[string]*domain.Acknowledgment),
		apiKeys:       make(map[string]*domain.APIKey),
	}
}

func (d db) clone() db {
	out := newDB()
	for k, v := range d.teams {
		cp := *v
		out.teams[k] = &cp
	}
	for k, v := range d.assets {
		cp := *v
		out.assets[k] = &cp
	}
	for k, v := range d.contracts {
		cp := *v
		out.contracts[k] = &cp
	}
	for k, v := range d.registrations {
		cp := *v
		out.registrations[k] = &cp
	}
	for k, v := range d.proposals {
		cp := *v
		out.proposals[k] = &cp
	}
	for k, v := range d.acks {
		cp := *v
		out.acks[k] = &cp
	}
	for k, v := range d.apiKeys {
		cp := *v
		out.apiKeys[k] = &cp
	}
	out.deps = append([]domain.AssetDependency(nil), d.deps...)
	out.audits = append([]*domain.AuditEvent(nil), d.audits...)
	return out
}

// New constructs an empty in-memory store.
func New() *Store {
	return &Store{data: newDB()}
}

// Begin acquires the store's single transaction lock for the lifetime of
// the returned Tx. Only one transaction runs at a time; that is a
// deliberate simplification for a test/dev backend, not a promise the
// postgres backend makes (it locks per asset row, per spec §4.5).
func (s *Store) Begin(ctx context.Context) (store.Tx, error) {
	s.mu.Lock()
	return &tx{store: s, snapshot: s.data.clone()}, nil
}

type tx struct {
	store    *Store
	snapshot db
	done     bool
}

func (t *tx) Commit(ctx context.Context) error {
	if t.done {
		return sql.ErrTxDone
	}
	t.done = true
	t.store.mu.Unlock()
	return nil
}

func (t *tx) Rollback(ctx context.Context) error {
	if t.done {
		return sql.ErrTxDone
	}
	t.done = true
	t.store.data = t.snapshot
	t.store.mu.Unlock()
	return nil
}

// --- Teams ---

func (t *tx) CreateTeam(ctx context.Context, team *domain.Team) error {
	if err := team.Validate(); err != nil {
		return err
	}
	if _, exists := t.store.data.teams[team.ID]; exists {
		return store.ErrDuplicate
	}
	for _, other := range t.store.data.teams {
		if other.Slug == team.Slug {
			return store.ErrDuplicate
		}
	}
	cp := *team
	t.store.data.teams[team.ID] = &cp
	return nil
}

func (t *tx) GetTeam(ctx context.Context, id string) (*domain.Team, error) {
	team, ok := t.store.data.teams[id]
	if !ok {
		return nil, coreerrors.NewNotFound("team %q not found", id)
	}
	cp := *team
	return &cp, nil
}

func (t *tx) GetTeamBySlug(ctx context.Context, slug string) (*domain.Team, error) {
	for _, team := range t.store.data.teams {
		if team.Slug == slug {
			cp := *team
			return &cp, nil
		}
	}
	return nil, coreerrors.NewNotFound("team with slug %q not found", slug)
}

func (t *tx) ListTeams(ctx context.Context, includeDeleted bool, page store.Page) ([]*domain.Team, store.PageResult, error) {
	ids := make([]string, 0, len(t.store.data.teams))
	for id, team := range t.store.data.teams {
		if !includeDeleted && team.Deleted() {
			continue
		}
		ids = append(ids, id)
	}
	pageIDs, result := paginateIDs(ids, page)
	out := make([]*domain.Team, 0, len(pageIDs))
	for _, id := range pageIDs {
		cp := *t.store.data.teams[id]
		out = append(out, &cp)
	}
	return out, result, nil
}

func (t *tx) SoftDeleteTeam(ctx context.Context, id string) error {
	team, ok := t.store.data.teams[id]
	if !ok {
		return coreerrors.NewNotFound("team %q not found", id)
	}
	now := time.Now().UTC()
	team.DeletedAt = &now
	return nil
}

// --- Assets ---

func (t *tx) CreateAsset(ctx context.Context, a *domain.Asset) error {
	if err := a.Validate(); err != nil {
		return err
	}
	if _, exists := t.store.data.assets[a.ID]; exists {
		return store.ErrDuplicate
	}
	for _, other := range t.store.data.assets {
		if other.FQN == a.FQN && !other.Deleted() {
			return store.ErrDuplicate
		}
	}
	cp := *a
	t.store.data.assets[a.ID] = &cp
	return nil
}

func (t *tx) GetAsset(ctx context.Context, id string) (*domain.Asset, error) {
	a, ok := t.store.data.assets[id]
	if !ok {
		return nil, coreerrors.NewNotFound("asset %q not found", id)
	}
	cp := *a
	return &cp, nil
}

func (t *tx) GetAssetByFQN(ctx context.Context, fqn string) (*domain.Asset, error) {
	for _, a := range t.store.data.assets {
		if a.FQN == fqn && !a.Deleted() {
			cp := *a
			return &cp, nil
		}
	}
	return nil, coreerrors.NewNotFound("asset with fqn %q not found", fqn)
}

func (t *tx) ListAssets(ctx context.Context, filter store.AssetFilter, page store.Page) ([]*domain.Asset, store.PageResult, error) {
	ids := make([]string, 0, len(t.store.data.assets))
	for id, a := range t.store.data.assets {
		if !filter.IncludeDeleted && a.Deleted() {
			continue
		}
		if filter.OwnerTeamID != "" && a.OwnerTeamID != filter.OwnerTeamID {
			continue
		}
		if filter.ResourceType != "" && a.ResourceType != filter.ResourceType {
			continue
		}
		ids = append(ids, id)
	}
	pageIDs, result := paginateIDs(ids, page)
	out := make([]*domain.Asset, 0, len(pageIDs))
	for _, id := range pageIDs {
		cp := *t.store.data.assets[id]
		out = append(out, &cp)
	}
	return out, result, nil
}

// LockAsset returns the asset's current row. Because Begin already holds
// the store's sole transaction lock for the caller's exclusive use, no
// further per-asset locking is required here (unlike the postgres backend,
// where this issues SELECT ... FOR UPDATE).
func (t *tx) LockAsset(ctx context.Context, id string) (*domain.Asset, error) {
	return t.GetAsset(ctx, id)
}

func (t *tx) SetAssetCurrentContract(ctx context.Context, assetID string, contractID *string) error {
	a, ok := t.store.data.assets[assetID]
	if !ok {
		return coreerrors.NewNotFound("asset %q not found", assetID)
	}
	a.CurrentContractID = contractID
	return nil
}

func (t *tx) SoftDeleteAsset(ctx context.Context, id string) error {
	a, ok := t.store.data.assets[id]
	if !ok {
		return coreerrors.NewNotFound("asset %q not found", id)
	}
	now := time.Now().UTC()
	a.DeletedAt = &now
	return nil
}

// --- Contracts ---

func (t *tx) CreateContract(ctx context.Context, c *domain.Contract) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if _, exists := t.store.data.contracts[c.ID]; exists {
		return store.ErrDuplicate
	}
	cp := *c
	t.store.data.contracts[c.ID] = &cp
	return nil
}

func (t *tx) GetContract(ctx context.Context, id string) (*domain.Contract, error) {
	c, ok := t.store.data.contracts[id]
	if !ok {
		return nil, coreerrors.NewNotFound("contract %q not found", id)
	}
	cp := *c
	return &cp, nil
}

func (t *tx) GetActiveContract(ctx context.Context, assetID string) (*domain.Contract, error) {
	for _, c := range t.store.data.contracts {
		if c.AssetID == assetID && c.Status == domain.ContractActive {
			cp := *c
			return &cp, nil
		}
	}
	return nil, coreerrors.NewNotFound("asset %q has no active contract", assetID)
}

func (t *tx) ListContracts(ctx context.Context, assetID string, page store.Page) ([]*domain.Contract, store.PageResult, error) {
	ids := make([]string, 0)
	for id, c := range t.store.data.contracts {
		if c.AssetID == assetID {
			ids = append(ids, id)
		}
	}
	pageIDs, result := paginateIDs(ids, page)
	out := make([]*domain.Contract, 0, len(pageIDs))
	for _, id := range pageIDs {
		cp := *t.store.data.contracts[id]
		out = append(out, &cp)
	}
	return out, result, nil
}

func (t *tx) SetContractStatus(ctx context.Context, id string, status domain.ContractStatus) error {
	c, ok := t.store.data.contracts[id]
	if !ok {
		return coreerrors.NewNotFound("contract %q not found", id)
	}
	c.Status = status
	return nil
}

// --- Registrations ---

func (t *tx) CreateRegistration(ctx context.Context, r *domain.Registration) error {
	if err := r.Validate(); err != nil {
		return err
	}
	if _, exists := t.store.data.registrations[r.ID]; exists {
		return store.ErrDuplicate
	}
	cp := *r
	t.store.data.registrations[r.ID] = &cp
	return nil
}

func (t *tx) GetRegistration(ctx context.Context, id string) (*domain.Registration, error) {
	r, ok := t.store.data.registrations[id]
	if !ok {
		return nil, coreerrors.NewNotFound("registration %q not found", id)
	}
	cp := *r
	return &cp, nil
}

func (t *tx) ListActiveRegistrations(ctx context.Context, assetID string) ([]*domain.Registration, error) {
	var out []*domain.Registration
	for _, r := range t.store.data.registrations {
		if r.AssetID == assetID && r.Status == domain.RegistrationActive {
			cp := *r
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (t *tx) ListRegistrations(ctx context.Context, filter store.RegistrationFilter, page store.Page) ([]*domain.Registration, store.PageResult, error) {
	ids := make([]string, 0)
	for id, r := range t.store.data.registrations {
		if filter.AssetID != "" && r.AssetID != filter.AssetID {
			continue
		}
		if filter.ConsumerTeamID != "" && r.ConsumerTeamID != filter.ConsumerTeamID {
			continue
		}
		if filter.Status != "" && r.Status != filter.Status {
			continue
		}
		ids = append(ids, id)
	}
	pageIDs, result := paginateIDs(ids, page)
	out := make([]*domain.Registration, 0, len(pageIDs))
	for _, id := range pageIDs {
		cp := *t.store.data.registrations[id]
		out = append(out, &cp)
	}
	return out, result, nil
}

func (t *tx) SetRegistrationStatus(ctx context.Context, id string, status domain.RegistrationStatus) error {
	r, ok := t.store.data.registrations[id]
	if !ok {
		return coreerrors.NewNotFound("registration %q not found", id)
	}
	r.Status = status
	return nil
}

// --- Proposals ---

func (t *tx) CreateProposal(ctx context.Context, p *domain.Proposal) error {
	if _, exists := t.store.data.proposals[p.ID]; exists {
		return store.ErrDuplicate
	}
	if p.Status == domain.ProposalPending {
		for _, other := range t.store.data.proposals {
			if other.AssetID == p.AssetID && other.Status == domain.ProposalPending {
				return store.ErrDuplicate
			}
		}
	}
	cp := *p
	t.store.data.proposals[p.ID] = &cp
	return nil
}

func (t *tx) GetProposal(ctx context.Context, id string) (*domain.Proposal, error) {
	p, ok := t.store.data.proposals[id]
	if !ok {
		return nil, coreerrors.NewNotFound("proposal %q not found", id)
	}
	cp := *p
	return &cp, nil
}

func (t *tx) GetPendingProposal(ctx context.Context, assetID string) (*domain.Proposal, error) {
	for _, p := range t.store.data.proposals {
		if p.AssetID == assetID && p.Status == domain.ProposalPending {
			cp := *p
			return &cp, nil
		}
	}
	return nil, coreerrors.NewNotFound("asset %q has no pending proposal", assetID)
}

func (t *tx) ListProposals(ctx context.Context, filter store.ProposalFilter, page store.Page) ([]*domain.Proposal, store.PageResult, error) {
	ids := make([]string, 0)
	for id, p := range t.store.data.proposals {
		if filter.AssetID != "" && p.AssetID != filter.AssetID {
			continue
		}
		if filter.Status != "" && p.Status != filter.Status {
			continue
		}
		ids = append(ids, id)
	}
	pageIDs, result := paginateIDs(ids, page)
	out := make([]*domain.Proposal, 0, len(pageIDs))
	for _, id := range pageIDs {
		cp := *t.store.data.proposals[id]
		out = append(out, &cp)
	}
	return out, result, nil
}

func (t *tx) UpdateProposal(ctx context.Context, p *domain.Proposal) error {
	if _, exists := t.store.data.proposals[p.ID]; !exists {
		return coreerrors.NewNotFound("proposal %q not found", p.ID)
	}
	cp := *p
	t.store.data.proposals[p.ID] = &cp
	return nil
}

// --- Acknowledgments ---

func (t *tx) UpsertAcknowledgment(ctx context.Context, a *domain.Acknowledgment) error {
	if err := a.Validate(); err != nil {
		return err
	}
	for id, existing := range t.store.data.acks {
		if existing.ProposalID == a.ProposalID && existing.ConsumerTeamID == a.ConsumerTeamID {
			cp := *a
			cp.ID = existing.ID
			t.store.data.acks[id] = &cp
			return nil
		}
	}
	cp := *a
	t.store.data.acks[a.ID] = &cp
	return nil
}

func (t *tx) ListAcknowledgments(ctx context.Context, proposalID string) ([]*domain.Acknowledgment, error) {
	var out []*domain.Acknowledgment
	for _, a := range t.store.data.acks {
		if a.ProposalID == proposalID {
			cp := *a
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// --- API keys ---

func (t *tx) CreateAPIKey(ctx context.Context, k *domain.APIKey) error {
	if err := k.Validate(); err != nil {
		return err
	}
	if _, exists := t.store.data.apiKeys[k.ID]; exists {
		return store.ErrDuplicate
	}
	for _, other := range t.store.data.apiKeys {
		if other.KeyHash == k.KeyHash {
			return store.ErrDuplicate
		}
	}
	cp := *k
	t.store.data.apiKeys[k.ID] = &cp
	return nil
}

func (t *tx) GetAPIKeyByHash(ctx context.Context, keyHash string) (*domain.APIKey, error) {
	for _, k := range t.store.data.apiKeys {
		if k.KeyHash == keyHash {
			cp := *k
			return &cp, nil
		}
	}
	return nil, coreerrors.NewNotFound("api key not found")
}

func (t *tx) ListAPIKeysByTeam(ctx context.Context, teamID string) ([]*domain.APIKey, error) {
	var out []*domain.APIKey
	for _, k := range t.store.data.apiKeys {
		if k.TeamID == teamID {
			cp := *k
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (t *tx) RevokeAPIKey(ctx context.Context, id string) error {
	k, ok := t.store.data.apiKeys[id]
	if !ok {
		return coreerrors.NewNotFound("api key %q not found", id)
	}
	now := time.Now().UTC()
	k.RevokedAt = &now
	return nil
}

// --- Dependencies ---

func (t *tx) AddDependency(ctx context.Context, d domain.AssetDependency) error {
	for _, existing := range t.store.data.deps {
		if existing == d {
			return nil
		}
	}
	t.store.data.deps = append(t.store.data.deps, d)
	return nil
}

func (t *tx) ListDownstream(ctx context.Context, upstreamAssetID string) ([]domain.AssetDependency, error) {
	var out []domain.AssetDependency
	for _, d := range t.store.data.deps {
		if d.UpstreamAssetID == upstreamAssetID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (t *tx) ListUpstream(ctx context.Context, downstreamAssetID string) ([]domain.AssetDependency, error) {
	var out []domain.AssetDependency
	for _, d := range t.store.data.deps {
		if d.DownstreamAssetID == downstreamAssetID {
			out = append(out, d)
		}
	}
	return out, nil
}

// --- Audit ---

func (t *tx) AppendAudit(ctx context.Context, e *domain.AuditEvent) error {
	cp := *e
	t.store.data.audits = append(t.store.data.audits, &cp)
	return nil
}

func (t *tx) QueryAudit(ctx context.Context, filter store.AuditFilter, page store.Page) ([]*domain.AuditEvent, store.PageResult, error) {
	entityTypes := make(map[string]struct{}, len(filter.EntityTypes))
	for _, et := range filter.EntityTypes {
		entityTypes[et] = struct{}{}
	}

	matches := make([]*domain.AuditEvent, 0)
	for _, e := range t.store.data.audits {
		if len(entityTypes) > 0 {
			if _, ok := entityTypes[e.EntityType]; !ok {
				continue
			}
		}
		if filter.EntityID != "" && e.EntityID != filter.EntityID {
			continue
		}
		if filter.ActorID != "" && e.ActorID != filter.ActorID {
			continue
		}
		if filter.Action != "" && e.Action != filter.Action {
			continue
		}
		if filter.Since != nil && e.OccurredAt.Before(*filter.Since) {
			continue
		}
		if filter.Until != nil && e.OccurredAt.After(*filter.Until) {
			continue
		}
		matches = append(matches, e)
	}

	sort.Slice(matches, func(i, j int) bool {
		if !matches[i].OccurredAt.Equal(matches[j].OccurredAt) {
			return matches[i].OccurredAt.Before(matches[j].OccurredAt)
		}
		return matches[i].ID < matches[j].ID
	})

	start := 0
	if page.Cursor != "" {
		for i, e := range matches {
			if e.ID == page.Cursor {
				start = i + 1
				break
			}
		}
	}
	limit := page.Limit
	if limit <= 0 {
		limit = defaultPageLimit
	}
	end := start + limit
	if end > len(matches) {
		end = len(matches)
	}
	if start > len(matches) {
		start = len(matches)
	}

	var result store.PageResult
	if end < len(matches) {
		result.NextCursor = matches[end-1].ID
	}

	out := make([]*domain.AuditEvent, end-start)
	for i, e := range matches[start:end] {
		cp := *e
		out[i] = &cp
	}
	return out, result, nil
}

// paginateIDs applies keyset pagination over a lexicographically sorted id
// set. Cursor is the last id returned by the previous page.
func paginateIDs(ids []string, page store.Page) ([]string, store.PageResult) {
	sort.Strings(ids)

	start := 0
	if page.Cursor != "" {
		idx := sort.SearchStrings(ids, page.Cursor)
		if idx < len(ids) && ids[idx] == page.Cursor {
			idx++
		}
		start = idx
	}

	limit := page.Limit
	if limit <= 0 {
		limit = defaultPageLimit
	}
	end := start + limit
	if end > len(ids) {
		end = len(ids)
	}
	if start > len(ids) {
		start = len(ids)
	}

	var result store.PageResult
	if end < len(ids) {
		result.NextCursor = ids[end-1]
	}
	return ids[start:end], result
}
