// Package apiv1 is the HTTP surface named in spec §6: a thin gin layer over
// the core (internal/publish, internal/proposal, internal/impact,
// internal/audit) that exists only to make the core's contracts reachable
// end-to-end, not a production-grade transport implementation in its own
// right (spec §1's "out of scope: HTTP transport").
package apiv1

import (
	"github.com/gin-gonic/gin"

	"github.com/contractreg/contractreg/internal/audit"
	"github.com/contractreg/contractreg/internal/clock"
	"github.com/contractreg/contractreg/internal/domain"
	"github.com/contractreg/contractreg/internal/idgen"
	"github.com/contractreg/contractreg/internal/impact"
	"github.com/contractreg/contractreg/internal/proposal"
	"github.com/contractreg/contractreg/internal/publish"
	"github.com/contractreg/contractreg/internal/store"
)

// Service wires the core packages to gin routes. Every handler opens its
// own transaction against store and commits or rolls back before
// responding — the same "core never owns the transaction" split
// internal/publish and internal/proposal rely on.
type Service struct {
	store       store.Store
	ids         idgen.Generator
	clock       clock.Clock
	audit       *audit.Recorder
	analyzer    *impact.Analyzer
	coordinator *publish.Coordinator
	lifecycle   *proposal.Lifecycle
}

func NewService(
	s store.Store,
	ids idgen.Generator,
	c clock.Clock,
	rec *audit.Recorder,
	analyzer *impact.Analyzer,
	coordinator *publish.Coordinator,
	lifecycle *proposal.Lifecycle,
) *Service {
	return &Service{
		store:       s,
		ids:         ids,
		clock:       c,
		audit:       rec,
		analyzer:    analyzer,
		coordinator: coordinator,
		lifecycle:   lifecycle,
	}
}

// RegisterRoutes mounts every /api/v1 resource named in spec §6: Teams,
// Assets, Contracts, Registrations, Proposals, Sync, API keys, Audit
// (Health is registered separately by internal/server, unauthenticated).
func (s *Service) RegisterRoutes(r gin.IRouter) {
	v1 := r.Group("/api/v1")
	v1.Use(s.authMiddleware())

	teams := v1.Group("/teams")
	{
		teams.POST("", requireScope(domain.ScopeWrite), s.createTeam)
		teams.GET("", requireScope(domain.ScopeRead), s.listTeams)
		teams.GET("/:id", requireScope(domain.ScopeRead), s.getTeam)
		teams.DELETE("/:id", requireScope(domain.ScopeAdmin), s.deleteTeam)
		teams.POST("/:id/api-keys", requireScope(domain.ScopeAdmin), s.createAPIKey)
		teams.GET("/:id/api-keys", requireScope(domain.ScopeAdmin), s.listAPIKeys)
		teams.DELETE("/:id/api-keys/:key_id", requireScope(domain.ScopeAdmin), s.revokeAPIKey)
	}

	assets := v1.Group("/assets")
	{
		assets.POST("", requireScope(domain.ScopeWrite), s.createAsset)
		assets.GET("", requireScope(domain.ScopeRead), s.listAssets)
		assets.GET("/:id", requireScope(domain.ScopeRead), s.getAsset)
		assets.DELETE("/:id", requireScope(domain.ScopeWrite), s.deleteAsset)
		assets.POST("/:id/contracts", requireScope(domain.ScopeWrite), s.publishContract)
		assets.POST("/:id/contracts:preview", requireScope(domain.ScopeRead), s.previewImpact)
		assets.GET("/:id/contracts", requireScope(domain.ScopeRead), s.listContracts)
		assets.GET("/:id/contracts/current", requireScope(domain.ScopeRead), s.getCurrentContract)
		assets.POST("/:id/registrations", requireScope(domain.ScopeWrite), s.createRegistration)
		assets.GET("/:id/registrations", requireScope(domain.ScopeRead), s.listRegistrationsForAsset)
		assets.GET("/:id/dependencies/downstream", requireScope(domain.ScopeRead), s.listDownstream)
		assets.GET("/:id/dependencies/upstream", requireScope(domain.ScopeRead), s.listUpstream)
	}

	contracts := v1.Group("/contracts")
	{
		contracts.GET("/:id", requireScope(domain.ScopeRead), s.getContract)
	}

	registrations := v1.Group("/registrations")
	{
		registrations.PATCH("/:id/status", requireScope(domain.ScopeWrite), s.setRegistrationStatus)
	}

	proposals := v1.Group("/proposals")
	{
		proposals.GET("", requireScope(domain.ScopeRead), s.listProposals)
		proposals.GET("/:id", requireScope(domain.ScopeRead), s.getProposal)
		proposals.POST("/:id/acknowledgments", requireScope(domain.ScopeWrite), s.acknowledgeProposal)
		proposals.POST("/:id/withdraw", requireScope(domain.ScopeWrite), s.withdrawProposal)
		proposals.POST("/:id/force", requireScope(domain.ScopeAdmin), s.forceProposal)
		proposals.POST("/:id/publish", requireScope(domain.ScopeWrite), s.publishProposal)
	}

	v1.POST("/sync", requireScope(domain.ScopeWrite), s.sync)
	v1.GET("/audit", requireScope(domain.ScopeRead), s.queryAudit)
}
