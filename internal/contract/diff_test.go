package contract_test

import (
	"testing"

	"github.com/contractreg/contractreg/internal/contract"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, doc map[string]interface{}) *contract.Node {
	t.Helper()
	n, err := contract.ParseSchema(doc)
	require.NoError(t, err)
	return n
}

func TestDiff_IdenticalSchemasProduceNoChanges(t *testing.T) {
	doc := map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"id": map[string]interface{}{"type": "string"},
		},
		"required": []interface{}{"id"},
	}
	n := mustParse(t, doc)
	d := contract.NewDiffer()
	require.Empty(t, d.Diff(n, n))
}

func TestDiff_PropertyAddedRequired(t *testing.T) {
	oldN := mustParse(t, map[string]interface{}{
		"type":       "object",
		"properties": map[string]interface{}{},
	})
	newN := mustParse(t, map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"id": map[string]interface{}{"type": "string"},
		},
		"required": []interface{}{"id"},
	})

	d := contract.NewDiffer()
	changes := d.Diff(oldN, newN)
	require.Len(t, changes, 1)
	require.Equal(t, contract.PropertyAdded, changes[0].Kind)
	require.True(t, changes[0].PropertyRequired)
}

func TestDiff_RequiredAddedOnExistingProperty(t *testing.T) {
	oldN := mustParse(t, map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"id": map[string]interface{}{"type": "string"},
		},
	})
	newN := mustParse(t, map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"id": map[string]interface{}{"type": "string"},
		},
		"required": []interface{}{"id"},
	})

	d := contract.NewDiffer()
	changes := d.Diff(oldN, newN)
	require.Len(t, changes, 1)
	require.Equal(t, contract.RequiredAdded, changes[0].Kind)
}

func TestDiff_TypeWidenedAndNarrowed(t *testing.T) {
	str := mustParse(t, map[string]interface{}{"type": "string"})
	strOrNum := mustParse(t, map[string]interface{}{"type": []interface{}{"string", "number"}})

	d := contract.NewDiffer()
	widened := d.Diff(str, strOrNum)
	require.Len(t, widened, 1)
	require.Equal(t, contract.TypeWidened, widened[0].Kind)

	narrowed := d.Diff(strOrNum, str)
	require.Len(t, narrowed, 1)
	require.Equal(t, contract.TypeNarrowed, narrowed[0].Kind)
}

func TestDiff_ConstraintTightenedAndRelaxed(t *testing.T) {
	loose := mustParse(t, map[string]interface{}{"type": "integer", "maximum": float64(100)})
	tight := mustParse(t, map[string]interface{}{"type": "integer", "maximum": float64(10)})

	d := contract.NewDiffer()
	tightened := d.Diff(loose, tight)
	require.Len(t, tightened, 1)
	require.Equal(t, contract.ConstraintTightened, tightened[0].Kind)

	relaxed := d.Diff(tight, loose)
	require.Len(t, relaxed, 1)
	require.Equal(t, contract.ConstraintRelaxed, relaxed[0].Kind)
}

func TestDiff_EnumValuesAddedAndRemoved(t *testing.T) {
	small := mustParse(t, map[string]interface{}{"type": "string", "enum": []interface{}{"a", "b"}})
	big := mustParse(t, map[string]interface{}{"type": "string", "enum": []interface{}{"a", "b", "c"}})

	d := contract.NewDiffer()
	added := d.Diff(small, big)
	require.Len(t, added, 1)
	require.Equal(t, contract.EnumValuesAdded, added[0].Kind)

	removed := d.Diff(big, small)
	require.Len(t, removed, 1)
	require.Equal(t, contract.EnumValuesRemoved, removed[0].Kind)
}

func TestDiff_ItemsNested(t *testing.T) {
	oldN := mustParse(t, map[string]interface{}{
		"type":  "array",
		"items": map[string]interface{}{"type": "string"},
	})
	newN := mustParse(t, map[string]interface{}{
		"type":  "array",
		"items": map[string]interface{}{"type": []interface{}{"string", "number"}},
	})

	d := contract.NewDiffer()
	changes := d.Diff(oldN, newN)
	require.Len(t, changes, 1)
	require.Equal(t, contract.TypeWidened, changes[0].Kind)
	require.Equal(t, "$.items", changes[0].Path)
}

func TestDiff_DefaultChanged(t *testing.T) {
	oldN := mustParse(t, map[string]interface{}{"type": "string", "default": "a"})
	newN := mustParse(t, map[string]interface{}{"type": "string", "default": "b"})

	d := contract.NewDiffer()
	changes := d.Diff(oldN, newN)
	require.Len(t, changes, 1)
	require.Equal(t, contract.DefaultChanged, changes[0].Kind)
}
