package domain

import (
	"time"

	"github.com/contractreg/contractreg/internal/coreerrors"
)

// CompatibilityMode is the rule set that decides which diffs are breaking.
type CompatibilityMode string

const (
	ModeBackward CompatibilityMode = "backward"
	ModeForward  CompatibilityMode = "forward"
	ModeFull     CompatibilityMode = "full"
	ModeNone     CompatibilityMode = "none"
)

func (m CompatibilityMode) Valid() bool {
	switch m {
	case ModeBackward, ModeForward, ModeFull, ModeNone:
		return true
	}
	return false
}

// ContractStatus is the lifecycle state of a Contract.
type ContractStatus string

const (
	ContractActive     ContractStatus = "active"
	ContractDeprecated ContractStatus = "deprecated"
	ContractRetired    ContractStatus = "retired"
)

// Guarantees is the optional declarative record of data-quality promises
// attached to a Contract. It is metadata only: the core never executes
// these checks against warehouse data (see spec Non-goals).
type Guarantees struct {
	Freshness      *time.Duration       `json:"freshness,omitempty"`
	Volume         *VolumeGuarantee     `json:"volume,omitempty"`
	Nullability    map[string]bool      `json:"nullability,omitempty"`
	AcceptedValues map[string][]string  `json:"accepted_values,omitempty"`
}

// VolumeGuarantee bounds an expected row-count range. Min/Max are decimal
// strings (see internal/guarantee) rather than float64 to avoid precision
// drift on large row counts.
type VolumeGuarantee struct {
	Min string `json:"min,omitempty"`
	Max string `json:"max,omitempty"`
}

// Contract is a versioned schema plus declarative guarantees published for
// an Asset. Contract.Schema is a raw JSON-Schema-shaped document; the
// contract package is responsible for parsing it into a comparable Node.
type Contract struct {
	ID                string             `json:"id"`
	AssetID           string             `json:"asset_id"`
	Version           string             `json:"version"`
	Schema            map[string]interface{} `json:"schema"`
	CompatibilityMode CompatibilityMode  `json:"compatibility_mode"`
	Guarantees        *Guarantees        `json:"guarantees,omitempty"`
	Status            ContractStatus     `json:"status"`
	PublishedAt       time.Time          `json:"published_at"`
	PublishedBy       string             `json:"published_by"`
}

func (c *Contract) Validate() error {
	if c.AssetID == "" {
		return errRequired("asset_id")
	}
	if c.Version == "" {
		return errRequired("version")
	}
	if !c.CompatibilityMode.Valid() {
		return coreerrors.NewValidation("invalid compatibility_mode %q", c.CompatibilityMode)
	}
	if len(c.Schema) == 0 {
		return errRequired("schema")
	}
	return nil
}
