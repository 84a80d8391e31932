package contract

import (
	"fmt"
	"reflect"
	"sort"
)

// Differ walks two schema Nodes and emits an ordered, deterministic list of
// typed Change records (spec §4.2). It holds no state; diffing is a pure
// function of its two inputs.
type Differ struct{}

// NewDiffer constructs a Differ. It exists (rather than a bare package
// function) so callers that inject a differ as a dependency — the impact
// analyzer, the publish coordinator — have something to hold a reference to,
// matching how the rest of the core takes its collaborators as values.
func NewDiffer() *Differ { return &Differ{} }

// Diff computes the ordered change list from old to new. diff(S, S) == nil
// for any schema S (spec §8 property 4).
func (d *Differ) Diff(old, new *Node) []Change {
	return diffNode(old, new, "$")
}

func diffNode(old, new *Node, path string) []Change {
	if old == nil {
		old = &Node{}
	}
	if new == nil {
		new = &Node{}
	}

	var changes []Change

	changes = append(changes, diffTypes(old.Types, new.Types, path)...)
	changes = append(changes, diffNullable(old, new, path)...)
	changes = append(changes, diffProperties(old, new, path)...)
	changes = append(changes, diffRequired(old, new, path)...)
	changes = append(changes, diffEnum(old.Enum, new.Enum, path)...)
	changes = append(changes, diffConstraints(old, new, path)...)
	changes = append(changes, diffDefault(old, new, path)...)
	changes = append(changes, diffItems(old.Items, new.Items, path)...)

	return changes
}

func diffTypes(old, new []string, path string) []Change {
	if equalStringSets(old, new) {
		return nil
	}
	oldIn := containsSub(new, old) // old ⊆ new
	newIn := containsSub(old, new) // new ⊆ old
	switch {
	case oldIn && !newIn:
		return []Change{{Path: path, Kind: TypeWidened, OldValue: old, NewValue: new}}
	case newIn && !oldIn:
		return []Change{{Path: path, Kind: TypeNarrowed, OldValue: old, NewValue: new}}
	default:
		return []Change{{Path: path, Kind: TypeChanged, OldValue: old, NewValue: new}}
	}
}

func diffNullable(old, new *Node, path string) []Change {
	if !old.Nullable && new.Nullable {
		return []Change{{Path: path, Kind: NullableAdded}}
	}
	if old.Nullable && !new.Nullable {
		return []Change{{Path: path, Kind: NullableRemoved}}
	}
	return nil
}

func diffProperties(old, new *Node, path string) []Change {
	names := unionKeys(old.Properties, new.Properties)
	var changes []Change
	for _, name := range names {
		oldProp, inOld := old.Properties[name]
		newProp, inNew := new.Properties[name]
		propPath := path + ".properties." + name
		switch {
		case inNew && !inOld:
			changes = append(changes, Change{
				Path: propPath, Kind: PropertyAdded, NewValue: name,
				PropertyRequired: contains(new.Required, name),
			})
		case inOld && !inNew:
			changes = append(changes, Change{Path: propPath, Kind: PropertyRemoved, OldValue: name})
		default:
			changes = append(changes, diffNode(oldProp, newProp, propPath)...)
		}
	}
	return changes
}

func diffRequired(old, new *Node, path string) []Change {
	// required_added/removed apply only to properties present on both sides
	// (spec §4.3: "required_added (existing prop)"). A brand new required
	// property is reported as property_added(required) instead.
	common := unionKeys(old.Properties, new.Properties)
	var changes []Change
	for _, name := range common {
		if _, inOld := old.Properties[name]; !inOld {
			continue
		}
		if _, inNew := new.Properties[name]; !inNew {
			continue
		}
		wasReq := contains(old.Required, name)
		isReq := contains(new.Required, name)
		propPath := path + ".properties." + name
		switch {
		case isReq && !wasReq:
			changes = append(changes, Change{Path: propPath, Kind: RequiredAdded, NewValue: name})
		case wasReq && !isReq:
			changes = append(changes, Change{Path: propPath, Kind: RequiredRemoved, OldValue: name})
		}
	}
	return changes
}

func diffEnum(old, new []interface{}, path string) []Change {
	if old == nil && new == nil {
		return nil
	}
	oldSet := stringifySet(old)
	newSet := stringifySet(new)
	if setsEqual(oldSet, newSet) {
		return nil
	}
	oldIn := isSubset(oldSet, newSet)
	newIn := isSubset(newSet, oldSet)
	switch {
	case oldIn && !newIn:
		return []Change{{Path: path + "#enum", Kind: EnumValuesAdded, OldValue: old, NewValue: new}}
	case newIn && !oldIn:
		return []Change{{Path: path + "#enum", Kind: EnumValuesRemoved, OldValue: old, NewValue: new}}
	default:
		return []Change{{Path: path + "#enum", Kind: EnumValuesChanged, OldValue: old, NewValue: new}}
	}
}

// constraintField describes one scalar constraint compared in a fixed order.
type constraintField struct {
	name          string
	oldF, newF    *float64
	oldI, newI    *int
	tighterHigher bool // for numeric bounds: true means "raising the bound tightens" (minimum-like)
	isPattern     bool
	oldP, newP    *string
}

func diffConstraints(old, new *Node, path string) []Change {
	fields := []constraintField{
		{name: "minimum", oldF: old.Minimum, newF: new.Minimum, tighterHigher: true},
		{name: "maximum", oldF: old.Maximum, newF: new.Maximum, tighterHigher: false},
		{name: "exclusiveMinimum", oldF: old.ExclusiveMinimum, newF: new.ExclusiveMinimum, tighterHigher: true},
		{name: "exclusiveMaximum", oldF: old.ExclusiveMaximum, newF: new.ExclusiveMaximum, tighterHigher: false},
		{name: "minLength", oldI: old.MinLength, newI: new.MinLength, tighterHigher: true},
		{name: "maxLength", oldI: old.MaxLength, newI: new.MaxLength, tighterHigher: false},
		{name: "pattern", isPattern: true, oldP: old.Pattern, newP: new.Pattern},
		{name: "minItems", oldI: old.MinItems, newI: new.MinItems, tighterHigher: true},
		{name: "maxItems", oldI: old.MaxItems, newI: new.MaxItems, tighterHigher: false},
	}

	var changes []Change
	for _, f := range fields {
		kind, oldV, newV := f.diff()
		if kind == "" {
			continue
		}
		changes = append(changes, Change{Path: path + "#" + f.name, Kind: kind, OldValue: oldV, NewValue: newV})
	}
	return changes
}

func (f constraintField) diff() (ChangeKind, interface{}, interface{}) {
	if f.isPattern {
		switch {
		case f.oldP == nil && f.newP == nil:
			return "", nil, nil
		case f.oldP == nil && f.newP != nil:
			return ConstraintTightened, nil, *f.newP
		case f.oldP != nil && f.newP == nil:
			return ConstraintRelaxed, *f.oldP, nil
		case *f.oldP == *f.newP:
			return "", nil, nil
		default:
			return ConstraintTightened, *f.oldP, *f.newP
		}
	}

	if f.oldF != nil || f.newF != nil {
		switch {
		case f.oldF == nil:
			return ConstraintTightened, nil, *f.newF
		case f.newF == nil:
			return ConstraintRelaxed, *f.oldF, nil
		case *f.oldF == *f.newF:
			return "", nil, nil
		case (*f.newF > *f.oldF) == f.tighterHigher:
			return ConstraintTightened, *f.oldF, *f.newF
		default:
			return ConstraintRelaxed, *f.oldF, *f.newF
		}
	}

	if f.oldI != nil || f.newI != nil {
		switch {
		case f.oldI == nil:
			return ConstraintTightened, nil, *f.newI
		case f.newI == nil:
			return ConstraintRelaxed, *f.oldI, nil
		case *f.oldI == *f.newI:
			return "", nil, nil
		case (*f.newI > *f.oldI) == f.tighterHigher:
			return ConstraintTightened, *f.oldI, *f.newI
		default:
			return ConstraintRelaxed, *f.oldI, *f.newI
		}
	}

	return "", nil, nil
}

func diffDefault(old, new *Node, path string) []Change {
	switch {
	case !old.HasDefault && new.HasDefault:
		return []Change{{Path: path + "#default", Kind: DefaultAdded, NewValue: new.Default}}
	case old.HasDefault && !new.HasDefault:
		return []Change{{Path: path + "#default", Kind: DefaultRemoved, OldValue: old.Default}}
	case old.HasDefault && new.HasDefault && !reflect.DeepEqual(old.Default, new.Default):
		return []Change{{Path: path + "#default", Kind: DefaultChanged, OldValue: old.Default, NewValue: new.Default}}
	default:
		return nil
	}
}

func diffItems(old, new *Node, path string) []Change {
	if old == nil && new == nil {
		return nil
	}
	return diffNode(old, new, path+".items")
}

// --- set helpers ---

func equalStringSets(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	as := append([]string(nil), a...)
	bs := append([]string(nil), b...)
	sort.Strings(as)
	sort.Strings(bs)
	for i := range as {
		if as[i] != bs[i] {
			return false
		}
	}
	return true
}

// containsSub reports whether every element of sub is present in super.
func containsSub(super, sub []string) bool {
	set := map[string]struct{}{}
	for _, s := range super {
		set[s] = struct{}{}
	}
	for _, s := range sub {
		if _, ok := set[s]; !ok {
			return false
		}
	}
	return true
}

func unionKeys(a, b map[string]*Node) []string {
	set := map[string]struct{}{}
	for k := range a {
		set[k] = struct{}{}
	}
	for k := range b {
		set[k] = struct{}{}
	}
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func stringifySet(vals []interface{}) map[string]struct{} {
	set := make(map[string]struct{}, len(vals))
	for _, v := range vals {
		set[fmt.Sprintf("%#v", v)] = struct{}{}
	}
	return set
}

func setsEqual(a, b map[string]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if _, ok := b[k]; !ok {
			return false
		}
	}
	return true
}

func isSubset(sub, super map[string]struct{}) bool {
	for k := range sub {
		if _, ok := super[k]; !ok {
			return false
		}
	}
	return true
}
