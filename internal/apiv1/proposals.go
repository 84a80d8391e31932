package apiv1

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/contractreg/contractreg/internal/coreerrors"
	"github.com/contractreg/contractreg/internal/domain"
	"github.com/contractreg/contractreg/internal/store"
)

func (s *Service) listProposals(c *gin.Context) {
	tx, ok := s.beginTx(c)
	if !ok {
		return
	}
	defer tx.Rollback(c.Request.Context())

	filter := store.ProposalFilter{
		AssetID: c.Query("asset_id"),
		Status:  domain.ProposalStatus(c.Query("status")),
	}
	proposals, page, err := tx.ListProposals(c.Request.Context(), filter, pageFromQuery(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"proposals": proposals, "next_cursor": page.NextCursor})
}

func (s *Service) getProposal(c *gin.Context) {
	tx, ok := s.beginTx(c)
	if !ok {
		return
	}
	defer tx.Rollback(c.Request.Context())

	p, err := tx.GetProposal(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

type acknowledgeProposalRequest struct {
	Response          domain.AckResponse `json:"response" binding:"required"`
	Notes             string             `json:"notes,omitempty"`
	MigrationDeadline *time.Time         `json:"migration_deadline,omitempty"`
}

func (s *Service) acknowledgeProposal(c *gin.Context) {
	var req acknowledgeProposalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, coreerrors.NewValidation("%s", err.Error()))
		return
	}

	tx, ok := s.beginTx(c)
	if !ok {
		return
	}

	p, err := s.lifecycle.Acknowledge(c.Request.Context(), tx, c.Param("id"), actorTeamID(c), req.Response, req.Notes, req.MigrationDeadline)
	commitOrRollback(c, tx, err)
	if err == nil {
		c.JSON(http.StatusOK, p)
	}
}

func (s *Service) withdrawProposal(c *gin.Context) {
	tx, ok := s.beginTx(c)
	if !ok {
		return
	}

	isAdmin := actorScope(c).Satisfies(domain.ScopeAdmin)
	p, err := s.lifecycle.Withdraw(c.Request.Context(), tx, c.Param("id"), actorTeamID(c), isAdmin)
	commitOrRollback(c, tx, err)
	if err == nil {
		c.JSON(http.StatusOK, p)
	}
}

func (s *Service) forceProposal(c *gin.Context) {
	tx, ok := s.beginTx(c)
	if !ok {
		return
	}

	p, err := s.lifecycle.Force(c.Request.Context(), tx, c.Param("id"), actorTeamID(c))
	commitOrRollback(c, tx, err)
	if err == nil {
		c.JSON(http.StatusOK, p)
	}
}

func (s *Service) publishProposal(c *gin.Context) {
	tx, ok := s.beginTx(c)
	if !ok {
		return
	}

	p, newContract, err := s.lifecycle.Publish(c.Request.Context(), tx, s.coordinator, c.Param("id"), actorTeamID(c))
	if coreerrors.Is(err, coreerrors.Conflict) {
		// A stale base contract leaves the proposal rejected inside tx;
		// commit that transition and still report the conflict.
		if cur, gErr := tx.GetProposal(c.Request.Context(), c.Param("id")); gErr == nil && cur.Status == domain.ProposalRejected {
			if cErr := tx.Commit(c.Request.Context()); cErr != nil {
				err = cErr
			}
			writeError(c, err)
			return
		}
	}
	commitOrRollback(c, tx, err)
	if err == nil {
		c.JSON(http.StatusOK, gin.H{"proposal": p, "contract": newContract})
	}
}
