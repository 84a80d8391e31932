package domain

import "time"

// Team is the identity used for asset ownership and for proposal
// acknowledgments.
type Team struct {
	ID        string                 `json:"id"`
	Name      string                 `json:"name"`
	Slug      string                 `json:"slug"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
	DeletedAt *time.Time             `json:"deleted_at,omitempty"`
}

// Deleted reports whether the team has been soft-deleted.
func (t *Team) Deleted() bool { return t.DeletedAt != nil }

// Validate checks the invariants a caller must satisfy before a Team is
// created. Uniqueness of Slug is enforced by the store, not here.
func (t *Team) Validate() error {
	if t.Name == "" {
		return errRequired("name")
	}
	if t.Slug == "" {
		return errRequired("slug")
	}
	return nil
}
