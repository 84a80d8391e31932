package contract

import "github.com/contractreg/contractreg/internal/domain"

// breakingTable encodes spec §4.3's table for every ChangeKind whose
// breaking-ness does not depend on anything but the kind and the mode.
// property_added is handled separately in IsBreaking because its row splits
// on whether the added property is required.
var breakingTable = map[ChangeKind]map[domain.CompatibilityMode]bool{
	PropertyRemoved: {domain.ModeBackward: true, domain.ModeForward: false, domain.ModeFull: true, domain.ModeNone: false},

	RequiredAdded:   {domain.ModeBackward: true, domain.ModeForward: false, domain.ModeFull: true, domain.ModeNone: false},
	RequiredRemoved: {domain.ModeBackward: false, domain.ModeForward: true, domain.ModeFull: true, domain.ModeNone: false},

	TypeWidened:  {domain.ModeBackward: false, domain.ModeForward: true, domain.ModeFull: true, domain.ModeNone: false},
	TypeNarrowed: {domain.ModeBackward: true, domain.ModeForward: false, domain.ModeFull: true, domain.ModeNone: false},
	TypeChanged:  {domain.ModeBackward: true, domain.ModeForward: true, domain.ModeFull: true, domain.ModeNone: false},

	EnumValuesAdded:   {domain.ModeBackward: false, domain.ModeForward: true, domain.ModeFull: true, domain.ModeNone: false},
	EnumValuesRemoved: {domain.ModeBackward: true, domain.ModeForward: false, domain.ModeFull: true, domain.ModeNone: false},
	EnumValuesChanged: {domain.ModeBackward: true, domain.ModeForward: true, domain.ModeFull: true, domain.ModeNone: false},

	ConstraintTightened: {domain.ModeBackward: true, domain.ModeForward: false, domain.ModeFull: true, domain.ModeNone: false},
	ConstraintRelaxed:   {domain.ModeBackward: false, domain.ModeForward: true, domain.ModeFull: true, domain.ModeNone: false},

	NullableAdded:   {domain.ModeBackward: false, domain.ModeForward: true, domain.ModeFull: true, domain.ModeNone: false},
	NullableRemoved: {domain.ModeBackward: true, domain.ModeForward: false, domain.ModeFull: true, domain.ModeNone: false},

	DefaultAdded:   {domain.ModeBackward: false, domain.ModeForward: false, domain.ModeFull: false, domain.ModeNone: false},
	DefaultRemoved: {domain.ModeBackward: false, domain.ModeForward: false, domain.ModeFull: false, domain.ModeNone: false},
	DefaultChanged: {domain.ModeBackward: false, domain.ModeForward: false, domain.ModeFull: false, domain.ModeNone: false},
}

var propertyAddedBreaking = map[bool]map[domain.CompatibilityMode]bool{
	// non-required
	false: {domain.ModeBackward: false, domain.ModeForward: true, domain.ModeFull: true, domain.ModeNone: false},
	// required
	true: {domain.ModeBackward: true, domain.ModeForward: true, domain.ModeFull: true, domain.ModeNone: false},
}

// IsBreaking reports whether a single Change is breaking under mode
// (spec §4.3's per-kind table).
func IsBreaking(c Change, mode domain.CompatibilityMode) bool {
	if c.Kind == PropertyAdded {
		return propertyAddedBreaking[c.PropertyRequired][mode]
	}
	if row, ok := breakingTable[c.Kind]; ok {
		return row[mode]
	}
	return false
}
