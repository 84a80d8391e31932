package apiv1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/contractreg/contractreg/internal/coreerrors"
	"github.com/contractreg/contractreg/internal/domain"
	"github.com/contractreg/contractreg/internal/store"
)

type createTeamRequest struct {
	Name     string                 `json:"name" binding:"required"`
	Slug     string                 `json:"slug" binding:"required"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

func (s *Service) createTeam(c *gin.Context) {
	var req createTeamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, coreerrors.NewValidation("%s", err.Error()))
		return
	}

	tx, ok := s.beginTx(c)
	if !ok {
		return
	}

	team := &domain.Team{
		ID:        s.ids.NewID(),
		Name:      req.Name,
		Slug:      req.Slug,
		Metadata:  req.Metadata,
		CreatedAt: s.clock.Now(),
	}
	err := tx.CreateTeam(c.Request.Context(), team)
	if err == nil {
		err = s.audit.Record(c.Request.Context(), tx, "team", team.ID, domain.ActionTeamCreated, actorTeamID(c), map[string]interface{}{"slug": team.Slug})
	}
	commitOrRollback(c, tx, err)
	if err == nil {
		c.JSON(http.StatusCreated, team)
	}
}

func (s *Service) getTeam(c *gin.Context) {
	tx, ok := s.beginTx(c)
	if !ok {
		return
	}
	defer tx.Rollback(c.Request.Context())

	team, err := tx.GetTeam(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, team)
}

func (s *Service) listTeams(c *gin.Context) {
	tx, ok := s.beginTx(c)
	if !ok {
		return
	}
	defer tx.Rollback(c.Request.Context())

	includeDeleted := c.Query("include_deleted") == "true"
	teams, page, err := tx.ListTeams(c.Request.Context(), includeDeleted, pageFromQuery(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"teams": teams, "next_cursor": page.NextCursor})
}

func (s *Service) deleteTeam(c *gin.Context) {
	tx, ok := s.beginTx(c)
	if !ok {
		return
	}
	err := tx.SoftDeleteTeam(c.Request.Context(), c.Param("id"))
	commitOrRollback(c, tx, err)
	if err == nil {
		c.Status(http.StatusNoContent)
	}
}

func pageFromQuery(c *gin.Context) store.Page {
	return store.Page{Cursor: c.Query("cursor")}
}
