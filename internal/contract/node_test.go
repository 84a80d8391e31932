package contract_test

import (
	"testing"

	"github.com/contractreg/contractreg/internal/contract"
	"github.com/stretchr/testify/require"
)

func TestParseSchema_Basic(t *testing.T) {
	doc := map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"id":    map[string]interface{}{"type": "string"},
			"count": map[string]interface{}{"type": "integer", "minimum": float64(0)},
		},
		"required": []interface{}{"id"},
	}

	n, err := contract.ParseSchema(doc)
	require.NoError(t, err)
	require.Equal(t, []string{"object"}, n.Types)
	require.Equal(t, []string{"id"}, n.Required)
	require.Contains(t, n.Properties, "id")
	require.Contains(t, n.Properties, "count")
	require.NotNil(t, n.Properties["count"].Minimum)
	require.Equal(t, float64(0), *n.Properties["count"].Minimum)
}

func TestParseSchema_RefResolution(t *testing.T) {
	doc := map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"addr": map[string]interface{}{"$ref": "#/definitions/Address"},
		},
		"definitions": map[string]interface{}{
			"Address": map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"city": map[string]interface{}{"type": "string"},
				},
			},
		},
	}

	n, err := contract.ParseSchema(doc)
	require.NoError(t, err)
	require.Contains(t, n.Properties["addr"].Properties, "city")
}

func TestParseSchema_UnresolvedRefIsBrokenContract(t *testing.T) {
	doc := map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"addr": map[string]interface{}{"$ref": "#/definitions/Missing"},
		},
	}

	_, err := contract.ParseSchema(doc)
	require.Error(t, err)
}

func TestParseSchema_NullableViaTypeArray(t *testing.T) {
	doc := map[string]interface{}{
		"type": []interface{}{"string", "null"},
	}
	n, err := contract.ParseSchema(doc)
	require.NoError(t, err)
	require.True(t, n.Nullable)
	require.Equal(t, []string{"null", "string"}, n.Types)
}
