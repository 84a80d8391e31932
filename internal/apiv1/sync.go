package apiv1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/contractreg/contractreg/internal/coreerrors"
	"github.com/contractreg/contractreg/internal/domain"
	"github.com/contractreg/contractreg/internal/store"
)

// syncAssetRequest declares one node an external collaborator's own
// ingester (a dbt manifest walk, an OpenAPI crawl, a GraphQL introspection
// pass — spec §1's external-collaborator concerns, never implemented here)
// has already resolved to a Team-owned asset plus its upstream edges.
type syncAssetRequest struct {
	FQN          string                 `json:"fqn" binding:"required"`
	OwnerTeamID  string                 `json:"owner_team_id" binding:"required"`
	ResourceType domain.ResourceType    `json:"resource_type" binding:"required"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
	UpstreamFQNs []string               `json:"upstream_fqns,omitempty"`
}

type syncRequest struct {
	Assets []syncAssetRequest `json:"assets" binding:"required"`
}

type syncedAsset struct {
	Asset   *domain.Asset `json:"asset"`
	Created bool          `json:"created"`
}

type syncResponse struct {
	Assets      []syncedAsset `json:"assets"`
	EdgesLinked int           `json:"edges_linked"`
}

// sync upserts a batch of assets by FQN and declares the dependency edges
// named against upstream FQNs already present in this same batch or
// already registered. It does not parse any external manifest format
// itself — that belongs to the caller's own ingester.
func (s *Service) sync(c *gin.Context) {
	var req syncRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, coreerrors.NewValidation("%s", err.Error()))
		return
	}

	tx, ok := s.beginTx(c)
	if !ok {
		return
	}

	resp, err := s.runSync(c, tx, req)
	commitOrRollback(c, tx, err)
	if err == nil {
		c.JSON(http.StatusOK, resp)
	}
}

func (s *Service) runSync(c *gin.Context, tx store.Tx, req syncRequest) (*syncResponse, error) {
	resp := &syncResponse{}
	fqnToID := map[string]string{}

	for _, a := range req.Assets {
		existing, err := tx.GetAssetByFQN(c.Request.Context(), a.FQN)
		if err != nil && !coreerrors.Is(err, coreerrors.NotFound) {
			return nil, err
		}
		if existing != nil {
			fqnToID[a.FQN] = existing.ID
			resp.Assets = append(resp.Assets, syncedAsset{Asset: existing, Created: false})
			continue
		}

		asset := &domain.Asset{
			ID:           s.ids.NewID(),
			FQN:          a.FQN,
			OwnerTeamID:  a.OwnerTeamID,
			ResourceType: a.ResourceType,
			Metadata:     a.Metadata,
			CreatedAt:    s.clock.Now(),
		}
		if err := tx.CreateAsset(c.Request.Context(), asset); err != nil {
			return nil, err
		}
		if err := s.audit.Record(c.Request.Context(), tx, "asset", asset.ID, domain.ActionAssetCreated, actorTeamID(c), map[string]interface{}{"fqn": asset.FQN, "via": "sync"}); err != nil {
			return nil, err
		}
		fqnToID[a.FQN] = asset.ID
		resp.Assets = append(resp.Assets, syncedAsset{Asset: asset, Created: true})
	}

	for _, a := range req.Assets {
		downstreamID, ok := fqnToID[a.FQN]
		if !ok {
			continue
		}
		for _, upstreamFQN := range a.UpstreamFQNs {
			upstreamID, ok := fqnToID[upstreamFQN]
			if !ok {
				upstream, err := tx.GetAssetByFQN(c.Request.Context(), upstreamFQN)
				if err != nil {
					if coreerrors.Is(err, coreerrors.NotFound) {
						return nil, coreerrors.NewValidation("upstream asset %q not found in this batch or the registry", upstreamFQN)
					}
					return nil, err
				}
				upstreamID = upstream.ID
			}
			if err := tx.AddDependency(c.Request.Context(), domain.AssetDependency{
				UpstreamAssetID:   upstreamID,
				DownstreamAssetID: downstreamID,
			}); err != nil {
				return nil, err
			}
			resp.EdgesLinked++
		}
	}

	return resp, nil
}
