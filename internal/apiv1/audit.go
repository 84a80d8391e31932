package apiv1

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/contractreg/contractreg/internal/coreerrors"
	"github.com/contractreg/contractreg/internal/store"
)

func (s *Service) queryAudit(c *gin.Context) {
	filter := store.AuditFilter{
		EntityID: c.Query("entity_id"),
		ActorID:  c.Query("actor_id"),
		Action:   c.Query("action"),
	}
	if v := c.Query("entity_type"); v != "" {
		filter.EntityTypes = []string{v}
	}
	if v := c.Query("since"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(c, coreerrors.NewValidation("invalid since: %s", err.Error()))
			return
		}
		filter.Since = &t
	}
	if v := c.Query("until"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(c, coreerrors.NewValidation("invalid until: %s", err.Error()))
			return
		}
		filter.Until = &t
	}

	tx, ok := s.beginTx(c)
	if !ok {
		return
	}
	defer tx.Rollback(c.Request.Context())

	events, page, err := s.audit.Query(c.Request.Context(), tx, filter, pageFromQuery(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events, "next_cursor": page.NextCursor})
}
