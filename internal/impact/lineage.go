package impact

import (
	"context"

	"github.com/contractreg/contractreg/internal/store"
)

// MaxLineageResults bounds how many downstream assets TraverseDownstream
// returns before truncating, matching tessera's MAX_LINEAGE_RESULTS.
const MaxLineageResults = 500

// DownstreamEdge is one asset reached while walking downstream from a root
// asset, annotated with the depth at which it was first visited.
type DownstreamEdge struct {
	AssetID string
	Depth   int
}

// TraverseDownstream walks the asset_dependencies graph breadth-first from
// rootAssetID, up to maxDepth levels. It never revisits an asset: the
// visited set makes the walk cycle-safe even though AssetDependency itself
// carries no cycle-prevention on write (spec's dependency model note). The
// walk stops early, reporting truncated=true, once it has collected
// MaxLineageResults edges.
func TraverseDownstream(ctx context.Context, tx store.Tx, rootAssetID string, maxDepth int) ([]DownstreamEdge, bool, error) {
	visited := map[string]bool{rootAssetID: true}
	var results []DownstreamEdge
	currentIDs := []string{rootAssetID}
	truncated := false

	for depth := 1; depth <= maxDepth && len(currentIDs) > 0; depth++ {
		var nextIDs []string
		for _, upstreamID := range currentIDs {
			edges, err := tx.ListDownstream(ctx, upstreamID)
			if err != nil {
				return nil, false, err
			}
			for _, e := range edges {
				if visited[e.DownstreamAssetID] {
					continue
				}
				visited[e.DownstreamAssetID] = true
				results = append(results, DownstreamEdge{AssetID: e.DownstreamAssetID, Depth: depth})
				nextIDs = append(nextIDs, e.DownstreamAssetID)

				if len(results) >= MaxLineageResults {
					truncated = true
					break
				}
			}
			if truncated {
				break
			}
		}
		if truncated {
			break
		}
		currentIDs = nextIDs
	}

	return results, truncated, nil
}
