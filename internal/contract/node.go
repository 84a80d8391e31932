// Package contract implements the schema-diff / compatibility engine: a
// canonical model for a JSON-Schema-shaped document (this file), a
// deterministic structural differ (diff.go), and a classifier that folds a
// change list into a severity under a compatibility mode (classify.go).
//
// This package is pure and thread-safe given immutable inputs — it never
// touches a store, a clock, or the network (spec §5).
package contract

import (
	"fmt"
	"sort"

	"github.com/contractreg/contractreg/internal/coreerrors"
)

// Node is the canonical, language-neutral value model for one JSON-Schema
// node (spec §4.1). Unknown keys are preserved in Extra but ignored by the
// differ.
type Node struct {
	Types      []string // sorted, deduped permitted types
	Properties map[string]*Node
	Required   []string // sorted
	Items      *Node

	Enum []interface{}

	Minimum          *float64
	Maximum          *float64
	ExclusiveMinimum *float64
	ExclusiveMaximum *float64
	MinLength        *int
	MaxLength        *int
	Pattern          *string
	MinItems         *int
	MaxItems         *int

	Nullable    bool
	Default     interface{}
	HasDefault  bool
	Format      *string
	Description *string

	Extra map[string]interface{}
}

const maxRefDepth = 32

// ParseSchema parses a whole JSON-Schema-shaped document into a Node,
// resolving local $ref pointers against the document's own "definitions"
// or "$defs" table. An unresolved $ref is a BrokenContract error (spec §4.1,
// §7): the caller cannot diff what it cannot parse.
func ParseSchema(doc map[string]interface{}) (*Node, error) {
	defs := map[string]interface{}{}
	if d, ok := doc["definitions"].(map[string]interface{}); ok {
		for k, v := range d {
			defs[k] = v
		}
	}
	if d, ok := doc["$defs"].(map[string]interface{}); ok {
		for k, v := range d {
			defs[k] = v
		}
	}
	return parseNode(doc, defs, 0)
}

func parseNode(raw map[string]interface{}, defs map[string]interface{}, depth int) (*Node, error) {
	if depth > maxRefDepth {
		return nil, coreerrors.NewBrokenContract("$ref resolution exceeded max depth %d (cyclic reference?)", maxRefDepth)
	}

	if ref, ok := raw["$ref"]; ok {
		refStr, ok := ref.(string)
		if !ok {
			return nil, coreerrors.NewBrokenContract("$ref must be a string")
		}
		resolved, err := resolveRef(refStr, defs)
		if err != nil {
			return nil, err
		}
		return parseNode(resolved, defs, depth+1)
	}

	n := &Node{Extra: map[string]interface{}{}}

	types, err := parseTypes(raw["type"])
	if err != nil {
		return nil, err
	}
	n.Types = types
	if contains(n.Types, "null") {
		n.Nullable = true
	}

	if nullable, ok := raw["nullable"].(bool); ok && nullable {
		n.Nullable = true
	}

	if propsRaw, ok := raw["properties"].(map[string]interface{}); ok {
		n.Properties = make(map[string]*Node, len(propsRaw))
		for name, pv := range propsRaw {
			pm, ok := pv.(map[string]interface{})
			if !ok {
				return nil, coreerrors.NewBrokenContract("property %q is not an object", name)
			}
			child, err := parseNode(pm, defs, depth)
			if err != nil {
				return nil, fmt.Errorf("property %q: %w", name, err)
			}
			n.Properties[name] = child
		}
	}

	if reqRaw, ok := raw["required"].([]interface{}); ok {
		req := make([]string, 0, len(reqRaw))
		for _, r := range reqRaw {
			s, ok := r.(string)
			if !ok {
				return nil, coreerrors.NewBrokenContract("required entry is not a string")
			}
			req = append(req, s)
		}
		sort.Strings(req)
		n.Required = req
	}

	if itemsRaw, ok := raw["items"].(map[string]interface{}); ok {
		child, err := parseNode(itemsRaw, defs, depth)
		if err != nil {
			return nil, fmt.Errorf("items: %w", err)
		}
		n.Items = child
	}

	if enumRaw, ok := raw["enum"].([]interface{}); ok {
		n.Enum = enumRaw
	}

	n.Minimum = asFloatPtr(raw["minimum"])
	n.Maximum = asFloatPtr(raw["maximum"])
	n.ExclusiveMinimum = asFloatPtr(raw["exclusiveMinimum"])
	n.ExclusiveMaximum = asFloatPtr(raw["exclusiveMaximum"])
	n.MinLength = asIntPtr(raw["minLength"])
	n.MaxLength = asIntPtr(raw["maxLength"])
	n.MinItems = asIntPtr(raw["minItems"])
	n.MaxItems = asIntPtr(raw["maxItems"])

	if p, ok := raw["pattern"].(string); ok {
		n.Pattern = &p
	}
	if f, ok := raw["format"].(string); ok {
		n.Format = &f
	}
	if d, ok := raw["description"].(string); ok {
		n.Description = &d
	}
	if def, ok := raw["default"]; ok {
		n.Default = def
		n.HasDefault = true
	}

	known := map[string]bool{
		"$ref": true, "type": true, "nullable": true, "properties": true,
		"required": true, "items": true, "enum": true, "minimum": true,
		"maximum": true, "exclusiveMinimum": true, "exclusiveMaximum": true,
		"minLength": true, "maxLength": true, "pattern": true, "minItems": true,
		"maxItems": true, "format": true, "description": true, "default": true,
		"definitions": true, "$defs": true,
	}
	for k, v := range raw {
		if !known[k] {
			n.Extra[k] = v
		}
	}

	return n, nil
}

func resolveRef(ref string, defs map[string]interface{}) (map[string]interface{}, error) {
	name, err := localRefName(ref)
	if err != nil {
		return nil, err
	}
	target, ok := defs[name]
	if !ok {
		return nil, coreerrors.NewBrokenContract("unresolved $ref %q", ref)
	}
	tm, ok := target.(map[string]interface{})
	if !ok {
		return nil, coreerrors.NewBrokenContract("$ref target %q is not an object", ref)
	}
	return tm, nil
}

// localRefName extracts the definition name from "#/definitions/Foo" or
// "#/$defs/Foo". Any other ref shape (remote, JSON-pointer into a nested
// path) is out of scope: local refs are all this engine resolves (spec §4.1).
func localRefName(ref string) (string, error) {
	const defsPrefix = "#/definitions/"
	const altPrefix = "#/$defs/"
	if len(ref) > len(defsPrefix) && ref[:len(defsPrefix)] == defsPrefix {
		return ref[len(defsPrefix):], nil
	}
	if len(ref) > len(altPrefix) && ref[:len(altPrefix)] == altPrefix {
		return ref[len(altPrefix):], nil
	}
	return "", coreerrors.NewBrokenContract("unsupported $ref shape %q (only local #/definitions/* or #/$defs/* refs are resolved)", ref)
}

func parseTypes(raw interface{}) ([]string, error) {
	if raw == nil {
		return nil, nil
	}
	switch v := raw.(type) {
	case string:
		return []string{v}, nil
	case []interface{}:
		set := map[string]struct{}{}
		for _, t := range v {
			s, ok := t.(string)
			if !ok {
				return nil, coreerrors.NewBrokenContract("type entry is not a string")
			}
			set[s] = struct{}{}
		}
		out := make([]string, 0, len(set))
		for t := range set {
			out = append(out, t)
		}
		sort.Strings(out)
		return out, nil
	default:
		return nil, coreerrors.NewBrokenContract("type must be a string or array of strings")
	}
}

func asFloatPtr(v interface{}) *float64 {
	switch f := v.(type) {
	case float64:
		return &f
	case int:
		g := float64(f)
		return &g
	}
	return nil
}

func asIntPtr(v interface{}) *int {
	switch n := v.(type) {
	case float64:
		i := int(n)
		return &i
	case int:
		return &n
	}
	return nil
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
