package apiv1

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/contractreg/contractreg/internal/coreerrors"
	"github.com/contractreg/contractreg/internal/domain"
	"github.com/contractreg/contractreg/internal/store"
)

const (
	ctxTeamID = "auth_team_id"
	ctxScope  = "auth_scope"
)

// hashAPIKey fingerprints a presented secret the same way CreateAPIKey
// persists it — the raw secret is never stored, only its hash.
func hashAPIKey(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}

// authMiddleware resolves the Authorization: Bearer <key> header to an
// APIKey and attaches its team and scope to the request context. Auth
// itself is an external-collaborator concern (spec §1): the core never
// checks scope, only the handlers in this package do, before calling in.
func (s *Service) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("request_id", uuid.New().String())

		header := c.GetHeader("Authorization")
		secret, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || secret == "" {
			writeUnauthorized(c, "missing or malformed Authorization header")
			c.Abort()
			return
		}

		tx, err := s.store.Begin(c.Request.Context())
		if err != nil {
			writeError(c, err)
			c.Abort()
			return
		}
		defer tx.Rollback(context.Background())

		key, err := tx.GetAPIKeyByHash(c.Request.Context(), hashAPIKey(secret))
		if err != nil {
			if coreerrors.Is(err, coreerrors.NotFound) {
				writeUnauthorized(c, "invalid API key")
			} else {
				writeError(c, err)
			}
			c.Abort()
			return
		}
		if key.Revoked() {
			writeUnauthorized(c, "API key has been revoked")
			c.Abort()
			return
		}

		c.Set(ctxTeamID, key.TeamID)
		c.Set(ctxScope, key.Scope)
		c.Next()
	}
}

// requireScope aborts the request with 403 unless the authenticated key's
// scope satisfies min.
func requireScope(min domain.Scope) gin.HandlerFunc {
	return func(c *gin.Context) {
		scope, _ := c.Get(ctxScope)
		s, ok := scope.(domain.Scope)
		if !ok || !s.Satisfies(min) {
			writeError(c, coreerrors.NewForbidden("this operation requires %q scope", min))
			c.Abort()
			return
		}
		c.Next()
	}
}

func actorTeamID(c *gin.Context) string {
	v, _ := c.Get(ctxTeamID)
	s, _ := v.(string)
	return s
}

func actorScope(c *gin.Context) domain.Scope {
	v, _ := c.Get(ctxScope)
	s, _ := v.(domain.Scope)
	return s
}

// beginTx opens a transaction for the request, writing an error response
// and returning ok=false if it fails.
func (s *Service) beginTx(c *gin.Context) (store.Tx, bool) {
	tx, err := s.store.Begin(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return nil, false
	}
	return tx, true
}

// commitOrRollback commits tx if handlerErr is nil, else rolls back. Any
// error is written to the response.
func commitOrRollback(c *gin.Context, tx store.Tx, handlerErr error) {
	if handlerErr != nil {
		tx.Rollback(c.Request.Context())
		writeError(c, handlerErr)
		return
	}
	if err := tx.Commit(c.Request.Context()); err != nil {
		writeError(c, err)
	}
}
