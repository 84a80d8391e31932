package contract

// ChangeKind is the minimal complete set of atomic diffs the differ
// detects (spec §4.2 table).
type ChangeKind string

const (
	PropertyAdded   ChangeKind = "property_added"
	PropertyRemoved ChangeKind = "property_removed"

	TypeWidened  ChangeKind = "type_widened"
	TypeNarrowed ChangeKind = "type_narrowed"
	TypeChanged  ChangeKind = "type_changed"

	RequiredAdded   ChangeKind = "required_added"
	RequiredRemoved ChangeKind = "required_removed"

	EnumValuesAdded   ChangeKind = "enum_values_added"
	EnumValuesRemoved ChangeKind = "enum_values_removed"
	EnumValuesChanged ChangeKind = "enum_values_changed"

	ConstraintTightened ChangeKind = "constraint_tightened"
	ConstraintRelaxed   ChangeKind = "constraint_relaxed"

	DefaultAdded   ChangeKind = "default_added"
	DefaultRemoved ChangeKind = "default_removed"
	DefaultChanged ChangeKind = "default_changed"

	NullableAdded   ChangeKind = "nullable_added"
	NullableRemoved ChangeKind = "nullable_removed"
)

// Change is one atomic, path-qualified diff entry. Path uses a JSON-pointer
// style ("$.properties.id", "$.properties.tags.items") so that a change
// nested under array items is distinguishable from one at the top level.
type Change struct {
	Path     string      `json:"path"`
	Kind     ChangeKind  `json:"kind"`
	OldValue interface{} `json:"old_value,omitempty"`
	NewValue interface{} `json:"new_value,omitempty"`

	// PropertyRequired is set on PropertyAdded to distinguish an added
	// required property from an added optional one — the classifier's
	// breaking table (spec §4.3) treats them differently.
	PropertyRequired bool `json:"property_required,omitempty"`
}

// structural reports whether a change kind is structural under spec §4.3's
// severity rule (a non-breaking structural change forces at least "minor";
// only constraints/defaults/descriptions stay "patch").
func (k ChangeKind) structural() bool {
	switch k {
	case PropertyAdded, PropertyRemoved,
		RequiredAdded, RequiredRemoved,
		TypeWidened, TypeNarrowed, TypeChanged,
		EnumValuesAdded, EnumValuesRemoved, EnumValuesChanged,
		NullableAdded, NullableRemoved:
		return true
	default:
		return false
	}
}
