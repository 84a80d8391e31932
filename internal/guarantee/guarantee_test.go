package guarantee_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contractreg/contractreg/internal/domain"
	"github.com/contractreg/contractreg/internal/guarantee"
)

func TestParseVolumeBound(t *testing.T) {
	d, err := guarantee.ParseVolumeBound("1000000")
	require.NoError(t, err)
	assert.True(t, d.Equal(decimal.NewFromInt(1000000)))

	_, err = guarantee.ParseVolumeBound("not-a-number")
	require.Error(t, err)

	_, err = guarantee.ParseVolumeBound("-5")
	require.Error(t, err)
}

func TestValidate_VolumeRangeInverted(t *testing.T) {
	g := &domain.Guarantees{Volume: &domain.VolumeGuarantee{Min: "1000", Max: "10"}}
	err := guarantee.Validate(g)
	require.Error(t, err)
}

func TestValidate_OK(t *testing.T) {
	g := &domain.Guarantees{
		Volume:         &domain.VolumeGuarantee{Min: "10", Max: "1000"},
		Nullability:    map[string]bool{"email": false},
		AcceptedValues: map[string][]string{"status": {"active", "inactive"}},
	}
	require.NoError(t, guarantee.Validate(g))
}

func TestInRange(t *testing.T) {
	g := &domain.VolumeGuarantee{Min: "10", Max: "100"}

	ok, err := guarantee.InRange(g, decimal.NewFromInt(50))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = guarantee.InRange(g, decimal.NewFromInt(200))
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = guarantee.InRange(nil, decimal.NewFromInt(200))
	require.NoError(t, err)
	assert.True(t, ok)
}
