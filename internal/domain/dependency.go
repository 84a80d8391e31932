package domain

// AssetDependency is a directed lineage edge: data flows from Upstream into
// Downstream. Acyclicity is not enforced on write; cycle detection happens
// only when the edge set is traversed (see internal/impact.TraverseDownstream).
type AssetDependency struct {
	UpstreamAssetID   string `json:"upstream_asset_id"`
	DownstreamAssetID string `json:"downstream_asset_id"`
}
