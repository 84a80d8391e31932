package domain

import (
	"time"

	"github.com/contractreg/contractreg/internal/coreerrors"
)

// ResourceType is the kind of data object an Asset represents.
type ResourceType string

const (
	ResourceTable        ResourceType = "table"
	ResourceView         ResourceType = "view"
	ResourceModel        ResourceType = "model"
	ResourceAPIEndpoint  ResourceType = "api_endpoint"
	ResourceGraphQLQuery ResourceType = "graphql_query"
)

func (r ResourceType) Valid() bool {
	switch r {
	case ResourceTable, ResourceView, ResourceModel, ResourceAPIEndpoint, ResourceGraphQLQuery:
		return true
	}
	return false
}

// Asset is a data object owned exclusively by a Team. FQN is unique among
// live (non-soft-deleted) assets.
type Asset struct {
	ID                string                 `json:"id"`
	FQN               string                 `json:"fqn"`
	OwnerTeamID       string                 `json:"owner_team_id"`
	ResourceType      ResourceType           `json:"resource_type"`
	CurrentContractID *string                `json:"current_contract_id,omitempty"`
	Metadata          map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt         time.Time              `json:"created_at"`
	DeletedAt         *time.Time             `json:"deleted_at,omitempty"`
}

func (a *Asset) Deleted() bool { return a.DeletedAt != nil }

func (a *Asset) Validate() error {
	if a.FQN == "" {
		return errRequired("fqn")
	}
	if a.OwnerTeamID == "" {
		return errRequired("owner_team_id")
	}
	if !a.ResourceType.Valid() {
		return coreerrors.NewValidation("invalid resource_type %q", a.ResourceType)
	}
	return nil
}
