// Package impact answers "what would this schema change break, and who
// would notice" (spec §4.4): a pure, read-only diff over the store plus a
// bounded lineage walk. It is a read path only — no writes, no audit
// events.
package impact

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"

	"golang.org/x/sync/singleflight"

	"github.com/contractreg/contractreg/internal/contract"
	"github.com/contractreg/contractreg/internal/coreerrors"
	"github.com/contractreg/contractreg/internal/domain"
	"github.com/contractreg/contractreg/internal/store"
)

// ConsumerImpact is one consumer team affected by a proposed change,
// either directly (depth 0, registered on the asset itself) or
// transitively via lineage.
type ConsumerImpact struct {
	TeamID             string  `json:"team_id"`
	PinnedVersion      *string `json:"pinned_version,omitempty"`
	ResolvedContractID string  `json:"resolved_contract_id,omitempty"`
	Depth              int     `json:"depth"`
}

// AssetImpact is one downstream asset reached by the lineage walk.
type AssetImpact struct {
	AssetID string `json:"asset_id"`
	Depth   int    `json:"depth"`
}

// Report is the result of Analyze.
type Report struct {
	ChangeType        domain.ChangeType `json:"change_type"`
	BreakingChanges   []contract.Change `json:"breaking_changes"`
	ImpactedConsumers []ConsumerImpact  `json:"impacted_consumers"`
	ImpactedAssets    []AssetImpact     `json:"impacted_assets"`
	SafeToPublish     bool              `json:"safe_to_publish"`
	Truncated         bool              `json:"truncated,omitempty"`
}

type diffResult struct {
	changeType domain.ChangeType
	breaking   []contract.Change
}

// Analyzer caches the pure diff+classify computation for a given
// (base contract, proposed schema, mode) triple, and dedupes concurrent
// identical computations with singleflight — the same shape as the
// teacher's schema.Validator caching compiled schemas, applied here to
// diff results instead of compiled schemas.
type Analyzer struct {
	differ     *contract.Differ
	classifier *contract.Classifier

	group singleflight.Group
	cache diffCache
}

func NewAnalyzer() *Analyzer {
	return &Analyzer{
		differ:     contract.NewDiffer(),
		classifier: contract.NewClassifier(),
		cache:      newDiffCache(256),
	}
}

// Analyze loads the asset's current active contract (if any) inside tx,
// diffs it against proposedSchema under mode, and enumerates every
// consumer that would be affected: registrations directly on the asset,
// plus registrations on assets reachable within maxDepth hops downstream
// (spec.md §3's AssetDependency, supplemented per SPEC_FULL §12.1).
func (a *Analyzer) Analyze(ctx context.Context, tx store.Tx, asset *domain.Asset, proposedSchema map[string]interface{}, mode domain.CompatibilityMode, maxDepth int) (*Report, error) {
	current, err := tx.GetActiveContract(ctx, asset.ID)
	if err != nil {
		if !coreerrors.Is(err, coreerrors.NotFound) {
			return nil, err
		}
		current = nil
	}

	diff, err := a.diffAndClassify(current, proposedSchema, mode)
	if err != nil {
		return nil, err
	}

	report := &Report{
		ChangeType:      diff.changeType,
		BreakingChanges: diff.breaking,
		SafeToPublish:   len(diff.breaking) == 0,
	}

	consumers := map[string]ConsumerImpact{}
	if err := a.collectConsumers(ctx, tx, asset.ID, 0, consumers); err != nil {
		return nil, err
	}

	edges, truncated, err := TraverseDownstream(ctx, tx, asset.ID, maxDepth)
	if err != nil {
		return nil, err
	}
	report.Truncated = truncated

	for _, e := range edges {
		downstream, err := tx.GetAsset(ctx, e.AssetID)
		if err != nil {
			if coreerrors.Is(err, coreerrors.NotFound) {
				continue
			}
			return nil, err
		}
		if downstream.Deleted() {
			continue
		}
		report.ImpactedAssets = append(report.ImpactedAssets, AssetImpact{AssetID: e.AssetID, Depth: e.Depth})
		if err := a.collectConsumers(ctx, tx, e.AssetID, e.Depth, consumers); err != nil {
			return nil, err
		}
	}

	report.ImpactedConsumers = sortedConsumers(consumers)
	return report, nil
}

func (a *Analyzer) collectConsumers(ctx context.Context, tx store.Tx, assetID string, depth int, into map[string]ConsumerImpact) error {
	regs, err := tx.ListActiveRegistrations(ctx, assetID)
	if err != nil {
		return err
	}
	for _, r := range regs {
		existing, ok := into[r.ConsumerTeamID]
		if ok && existing.Depth <= depth {
			continue
		}
		impact := ConsumerImpact{TeamID: r.ConsumerTeamID, PinnedVersion: r.PinnedVersion, Depth: depth}
		if resolved, err := ResolvePinnedContract(ctx, tx, assetID, r.PinnedVersion); err == nil {
			impact.ResolvedContractID = resolved.ID
		} else if !coreerrors.Is(err, coreerrors.NotFound) {
			return err
		}
		into[r.ConsumerTeamID] = impact
	}
	return nil
}

func sortedConsumers(m map[string]ConsumerImpact) []ConsumerImpact {
	out := make([]ConsumerImpact, 0, len(m))
	for _, c := range m {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TeamID < out[j].TeamID })
	return out
}

// diffAndClassify is the pure computation the cache and singleflight group
// guard. With no current contract, the asset has never published: the
// proposed schema is the initial publish, classified major if non-empty
// (a brand-new shape counts as the biggest possible change) else patch,
// and never breaking (there is nothing yet to break).
func (a *Analyzer) diffAndClassify(current *domain.Contract, proposedSchema map[string]interface{}, mode domain.CompatibilityMode) (diffResult, error) {
	if current == nil {
		changeType := domain.ChangePatch
		if len(proposedSchema) > 0 {
			changeType = domain.ChangeMajor
		}
		return diffResult{changeType: changeType}, nil
	}

	key, err := cacheKey(current.ID, proposedSchema, mode)
	if err != nil {
		return diffResult{}, err
	}

	if cached, ok := a.cache.get(key); ok {
		return cached, nil
	}

	v, err, _ := a.group.Do(key, func() (interface{}, error) {
		if cached, ok := a.cache.get(key); ok {
			return cached, nil
		}

		oldNode, err := contract.ParseSchema(current.Schema)
		if err != nil {
			return nil, err
		}
		newNode, err := contract.ParseSchema(proposedSchema)
		if err != nil {
			return nil, err
		}

		changes := a.differ.Diff(oldNode, newNode)
		changeType, breaking := a.classifier.Classify(changes, mode)
		result := diffResult{changeType: changeType, breaking: breaking}

		a.cache.put(key, result)
		return result, nil
	})
	if err != nil {
		return diffResult{}, err
	}
	return v.(diffResult), nil
}

// cacheKey fingerprints (contractID, proposedSchema, mode). The schema is
// hashed rather than used verbatim as a map key since Go maps can't be
// compared or used as keys directly.
func cacheKey(contractID string, schema map[string]interface{}, mode domain.CompatibilityMode) (string, error) {
	b, err := json.Marshal(schema)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(b)
	return contractID + ":" + string(mode) + ":" + hex.EncodeToString(sum[:]), nil
}
