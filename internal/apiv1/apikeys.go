package apiv1

import (
	"crypto/rand"
	"encoding/base64"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/contractreg/contractreg/internal/coreerrors"
	"github.com/contractreg/contractreg/internal/domain"
)

// newAPIKeySecret generates the bearer credential handed back to the
// caller exactly once at creation time; only its hash is ever persisted.
func newAPIKeySecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return "creg_" + base64.RawURLEncoding.EncodeToString(buf), nil
}

type createAPIKeyRequest struct {
	Scope domain.Scope `json:"scope" binding:"required"`
}

type createAPIKeyResponse struct {
	*domain.APIKey
	Secret string `json:"secret"`
}

func (s *Service) createAPIKey(c *gin.Context) {
	var req createAPIKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, coreerrors.NewValidation("%s", err.Error()))
		return
	}
	switch req.Scope {
	case domain.ScopeRead, domain.ScopeWrite, domain.ScopeAdmin:
	default:
		writeError(c, coreerrors.NewValidation("invalid scope %q", req.Scope))
		return
	}

	secret, err := newAPIKeySecret()
	if err != nil {
		writeError(c, err)
		return
	}

	tx, ok := s.beginTx(c)
	if !ok {
		return
	}

	key := &domain.APIKey{
		ID:        s.ids.NewID(),
		TeamID:    c.Param("id"),
		Scope:     req.Scope,
		KeyHash:   hashAPIKey(secret),
		CreatedAt: s.clock.Now(),
	}
	err = tx.CreateAPIKey(c.Request.Context(), key)
	commitOrRollback(c, tx, err)
	if err == nil {
		c.JSON(http.StatusCreated, createAPIKeyResponse{APIKey: key, Secret: secret})
	}
}

func (s *Service) listAPIKeys(c *gin.Context) {
	tx, ok := s.beginTx(c)
	if !ok {
		return
	}
	defer tx.Rollback(c.Request.Context())

	keys, err := tx.ListAPIKeysByTeam(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"api_keys": keys})
}

func (s *Service) revokeAPIKey(c *gin.Context) {
	tx, ok := s.beginTx(c)
	if !ok {
		return
	}
	err := tx.RevokeAPIKey(c.Request.Context(), c.Param("key_id"))
	commitOrRollback(c, tx, err)
	if err == nil {
		c.Status(http.StatusNoContent)
	}
}
