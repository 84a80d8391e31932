package apiv1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/contractreg/contractreg/internal/coreerrors"
	"github.com/contractreg/contractreg/internal/domain"
	"github.com/contractreg/contractreg/internal/impact"
	"github.com/contractreg/contractreg/internal/publish"
	"github.com/contractreg/contractreg/internal/store"
)

// previewMaxDepth is the maxDepth previewImpact passes to the impact
// Analyzer for its lineage walk.
const previewMaxDepth = 10

type createAssetRequest struct {
	FQN          string                 `json:"fqn" binding:"required"`
	OwnerTeamID  string                 `json:"owner_team_id" binding:"required"`
	ResourceType domain.ResourceType    `json:"resource_type" binding:"required"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
}

func (s *Service) createAsset(c *gin.Context) {
	var req createAssetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, coreerrors.NewValidation("%s", err.Error()))
		return
	}

	tx, ok := s.beginTx(c)
	if !ok {
		return
	}

	asset := &domain.Asset{
		ID:           s.ids.NewID(),
		FQN:          req.FQN,
		OwnerTeamID:  req.OwnerTeamID,
		ResourceType: req.ResourceType,
		Metadata:     req.Metadata,
		CreatedAt:    s.clock.Now(),
	}
	err := tx.CreateAsset(c.Request.Context(), asset)
	if err == nil {
		err = s.audit.Record(c.Request.Context(), tx, "asset", asset.ID, domain.ActionAssetCreated, actorTeamID(c), map[string]interface{}{"fqn": asset.FQN})
	}
	commitOrRollback(c, tx, err)
	if err == nil {
		c.JSON(http.StatusCreated, asset)
	}
}

func (s *Service) getAsset(c *gin.Context) {
	tx, ok := s.beginTx(c)
	if !ok {
		return
	}
	defer tx.Rollback(c.Request.Context())

	asset, err := tx.GetAsset(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, asset)
}

func (s *Service) listAssets(c *gin.Context) {
	tx, ok := s.beginTx(c)
	if !ok {
		return
	}
	defer tx.Rollback(c.Request.Context())

	filter := store.AssetFilter{
		OwnerTeamID:    c.Query("owner_team_id"),
		ResourceType:   domain.ResourceType(c.Query("resource_type")),
		IncludeDeleted: c.Query("include_deleted") == "true",
	}
	assets, page, err := tx.ListAssets(c.Request.Context(), filter, pageFromQuery(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"assets": assets, "next_cursor": page.NextCursor})
}

func (s *Service) deleteAsset(c *gin.Context) {
	tx, ok := s.beginTx(c)
	if !ok {
		return
	}
	err := tx.SoftDeleteAsset(c.Request.Context(), c.Param("id"))
	commitOrRollback(c, tx, err)
	if err == nil {
		c.Status(http.StatusNoContent)
	}
}

type publishContractRequest struct {
	Schema            map[string]interface{}    `json:"schema" binding:"required"`
	Version           string                    `json:"version" binding:"required"`
	CompatibilityMode *domain.CompatibilityMode `json:"compatibility_mode,omitempty"`
	Guarantees        *domain.Guarantees        `json:"guarantees,omitempty"`
	Force             bool                      `json:"force,omitempty"`
}

func (s *Service) publishContract(c *gin.Context) {
	var req publishContractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, coreerrors.NewValidation("%s", err.Error()))
		return
	}
	if req.Force && !actorScope(c).Satisfies(domain.ScopeAdmin) {
		writeError(c, coreerrors.NewForbidden("force publishing a breaking change requires admin scope"))
		return
	}

	tx, ok := s.beginTx(c)
	if !ok {
		return
	}

	result, err := s.coordinator.Publish(c.Request.Context(), tx, publish.Input{
		AssetID:           c.Param("id"),
		ProposedSchema:    req.Schema,
		ProposedVersion:   req.Version,
		CompatibilityMode: req.CompatibilityMode,
		Guarantees:        req.Guarantees,
		ActorID:           actorTeamID(c),
		Force:             req.Force,
	})
	commitOrRollback(c, tx, err)
	if err != nil {
		return
	}
	if result.Contract != nil {
		c.JSON(http.StatusCreated, gin.H{"contract": result.Contract})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"proposal": result.Proposal})
}

type previewImpactRequest struct {
	Schema            map[string]interface{}   `json:"schema" binding:"required"`
	CompatibilityMode domain.CompatibilityMode `json:"compatibility_mode,omitempty"`
}

func (s *Service) previewImpact(c *gin.Context) {
	var req previewImpactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, coreerrors.NewValidation("%s", err.Error()))
		return
	}

	tx, ok := s.beginTx(c)
	if !ok {
		return
	}
	defer tx.Rollback(c.Request.Context())

	asset, err := tx.GetAsset(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	mode := req.CompatibilityMode
	if mode == "" {
		mode = domain.ModeBackward
	}
	report, err := s.analyzer.Analyze(c.Request.Context(), tx, asset, req.Schema, mode, previewMaxDepth)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (s *Service) listContracts(c *gin.Context) {
	tx, ok := s.beginTx(c)
	if !ok {
		return
	}
	defer tx.Rollback(c.Request.Context())

	contracts, page, err := tx.ListContracts(c.Request.Context(), c.Param("id"), pageFromQuery(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"contracts": contracts, "next_cursor": page.NextCursor})
}

func (s *Service) getCurrentContract(c *gin.Context) {
	tx, ok := s.beginTx(c)
	if !ok {
		return
	}
	defer tx.Rollback(c.Request.Context())

	contract, err := tx.GetActiveContract(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, contract)
}

type createRegistrationRequest struct {
	ConsumerTeamID string  `json:"consumer_team_id" binding:"required"`
	PinnedVersion  *string `json:"pinned_version,omitempty"`
}

func (s *Service) createRegistration(c *gin.Context) {
	var req createRegistrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, coreerrors.NewValidation("%s", err.Error()))
		return
	}

	tx, ok := s.beginTx(c)
	if !ok {
		return
	}

	assetID := c.Param("id")
	if req.PinnedVersion != nil {
		if _, err := impact.ResolvePinnedContract(c.Request.Context(), tx, assetID, req.PinnedVersion); err != nil {
			commitOrRollback(c, tx, err)
			return
		}
	}

	reg := &domain.Registration{
		ID:             s.ids.NewID(),
		AssetID:        assetID,
		ConsumerTeamID: req.ConsumerTeamID,
		PinnedVersion:  req.PinnedVersion,
		Status:         domain.RegistrationActive,
		RegisteredAt:   s.clock.Now(),
	}
	err := tx.CreateRegistration(c.Request.Context(), reg)
	if err == nil {
		err = s.audit.Record(c.Request.Context(), tx, "registration", reg.ID, domain.ActionRegistrationCreated, actorTeamID(c), map[string]interface{}{
			"asset_id": assetID, "consumer_team_id": reg.ConsumerTeamID,
		})
	}
	commitOrRollback(c, tx, err)
	if err == nil {
		c.JSON(http.StatusCreated, reg)
	}
}

func (s *Service) listRegistrationsForAsset(c *gin.Context) {
	tx, ok := s.beginTx(c)
	if !ok {
		return
	}
	defer tx.Rollback(c.Request.Context())

	filter := store.RegistrationFilter{AssetID: c.Param("id")}
	regs, page, err := tx.ListRegistrations(c.Request.Context(), filter, pageFromQuery(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"registrations": regs, "next_cursor": page.NextCursor})
}

func (s *Service) listDownstream(c *gin.Context) {
	tx, ok := s.beginTx(c)
	if !ok {
		return
	}
	defer tx.Rollback(c.Request.Context())

	edges, err := tx.ListDownstream(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"dependencies": edges})
}

func (s *Service) listUpstream(c *gin.Context) {
	tx, ok := s.beginTx(c)
	if !ok {
		return
	}
	defer tx.Rollback(c.Request.Context())

	edges, err := tx.ListUpstream(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"dependencies": edges})
}
