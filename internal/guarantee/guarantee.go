// Package guarantee provides exact-precision helpers for the declarative
// data-quality guarantees a Contract may carry (spec §3, Guarantees).
// Guarantees are recorded as metadata only — this package never executes
// them against warehouse data (see spec Non-goals).
package guarantee

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/contractreg/contractreg/internal/coreerrors"
	"github.com/contractreg/contractreg/internal/domain"
)

// ParseVolumeBound parses a volume guarantee's min/max string into an exact
// decimal.Decimal. Row counts can run into the billions; shopspring/decimal
// avoids the drift float64 would introduce at that range, the same reason
// the teacher's aggregation layer uses it for arithmetic over event data.
func ParseVolumeBound(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, coreerrors.NewValidation("invalid volume bound %q: %v", s, err)
	}
	if d.IsNegative() {
		return decimal.Zero, coreerrors.NewValidation("volume bound %q cannot be negative", s)
	}
	return d, nil
}

// Validate checks internal consistency of a Guarantees record: a volume
// range's min must not exceed its max, and any nullability/accepted_values
// keys must be non-empty property names.
func Validate(g *domain.Guarantees) error {
	if g == nil {
		return nil
	}
	if g.Volume != nil {
		min, err := ParseVolumeBound(g.Volume.Min)
		if err != nil {
			return err
		}
		max, err := ParseVolumeBound(g.Volume.Max)
		if err != nil {
			return err
		}
		if g.Volume.Max != "" && g.Volume.Min != "" && min.GreaterThan(max) {
			return coreerrors.NewValidation("volume guarantee min %s exceeds max %s", g.Volume.Min, g.Volume.Max)
		}
	}
	for field := range g.Nullability {
		if field == "" {
			return coreerrors.NewValidation("nullability guarantee has an empty field name")
		}
	}
	for field, values := range g.AcceptedValues {
		if field == "" {
			return coreerrors.NewValidation("accepted_values guarantee has an empty field name")
		}
		if len(values) == 0 {
			return coreerrors.NewValidation("accepted_values guarantee for %q has no values", field)
		}
	}
	return nil
}

// InRange reports whether observed falls within the guarantee's [min, max]
// bound. An empty bound on either side means unbounded on that side.
func InRange(g *domain.VolumeGuarantee, observed decimal.Decimal) (bool, error) {
	if g == nil {
		return true, nil
	}
	if g.Min != "" {
		min, err := ParseVolumeBound(g.Min)
		if err != nil {
			return false, err
		}
		if observed.LessThan(min) {
			return false, nil
		}
	}
	if g.Max != "" {
		max, err := ParseVolumeBound(g.Max)
		if err != nil {
			return false, err
		}
		if observed.GreaterThan(max) {
			return false, nil
		}
	}
	return true, nil
}

// Describe renders a Guarantees record as a short human-readable summary.
func Describe(g *domain.Guarantees) string {
	if g == nil {
		return "none"
	}
	parts := make([]string, 0, 4)
	if g.Freshness != nil {
		parts = append(parts, fmt.Sprintf("freshness<=%s", g.Freshness))
	}
	if g.Volume != nil {
		parts = append(parts, fmt.Sprintf("volume[%s,%s]", g.Volume.Min, g.Volume.Max))
	}
	if len(g.Nullability) > 0 {
		parts = append(parts, fmt.Sprintf("nullability(%d fields)", len(g.Nullability)))
	}
	if len(g.AcceptedValues) > 0 {
		parts = append(parts, fmt.Sprintf("accepted_values(%d fields)", len(g.AcceptedValues)))
	}
	if len(parts) == 0 {
		return "none"
	}
	out := parts[0]
	for _, p := range parts[1:] {
		out += ", " + p
	}
	return out
}
