package apiv1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/contractreg/contractreg/internal/coreerrors"
	"github.com/contractreg/contractreg/internal/domain"
)

type setRegistrationStatusRequest struct {
	Status domain.RegistrationStatus `json:"status" binding:"required"`
}

func (s *Service) setRegistrationStatus(c *gin.Context) {
	var req setRegistrationStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, coreerrors.NewValidation("%s", err.Error()))
		return
	}
	switch req.Status {
	case domain.RegistrationActive, domain.RegistrationMigrating, domain.RegistrationInactive:
	default:
		writeError(c, coreerrors.NewValidation("invalid status %q", req.Status))
		return
	}

	tx, ok := s.beginTx(c)
	if !ok {
		return
	}
	err := tx.SetRegistrationStatus(c.Request.Context(), c.Param("id"), req.Status)
	commitOrRollback(c, tx, err)
	if err == nil {
		c.Status(http.StatusNoContent)
	}
}
