package domain

import "time"

// RegistrationStatus is the lifecycle state of a consumer's dependency
// declaration.
type RegistrationStatus string

const (
	RegistrationActive    RegistrationStatus = "active"
	RegistrationMigrating RegistrationStatus = "migrating"
	RegistrationInactive  RegistrationStatus = "inactive"
)

// Registration is a consumer Team's declared dependency on an Asset, or on
// one specific pinned Contract version of it. A nil PinnedVersion means
// "track latest compatible" — the asset's current active contract.
type Registration struct {
	ID              string             `json:"id"`
	AssetID         string             `json:"asset_id"`
	ConsumerTeamID  string             `json:"consumer_team_id"`
	PinnedVersion   *string            `json:"pinned_version,omitempty"`
	Status          RegistrationStatus `json:"status"`
	RegisteredAt    time.Time          `json:"registered_at"`
}

func (r *Registration) Validate() error {
	if r.AssetID == "" {
		return errRequired("asset_id")
	}
	if r.ConsumerTeamID == "" {
		return errRequired("consumer_team_id")
	}
	return nil
}
