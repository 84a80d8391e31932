package contract_test

import (
	"testing"

	"github.com/contractreg/contractreg/internal/contract"
	"github.com/contractreg/contractreg/internal/domain"
	"github.com/stretchr/testify/require"
)

func TestParseVersion_TableDriven(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    contract.Version
		wantErr bool
	}{
		{name: "plain", in: "1.2.3", want: contract.Version{Major: 1, Minor: 2, Patch: 3}},
		{name: "v prefix", in: "v2.0.0", want: contract.Version{Major: 2, Minor: 0, Patch: 0}},
		{name: "prerelease", in: "1.0.0-alpha.1", want: contract.Version{Major: 1, Minor: 0, Patch: 0, Prerelease: "alpha.1"}},
		{name: "build metadata stripped", in: "1.0.0+build.5", want: contract.Version{Major: 1, Minor: 0, Patch: 0}},
		{name: "prerelease and build", in: "v1.4.2-rc.1+exp.sha.5114f85", want: contract.Version{Major: 1, Minor: 4, Patch: 2, Prerelease: "rc.1"}},
		{name: "too few segments", in: "1.2", wantErr: true},
		{name: "non-numeric", in: "1.x.3", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := contract.ParseVersion(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want.Major, got.Major)
			require.Equal(t, tt.want.Minor, got.Minor)
			require.Equal(t, tt.want.Patch, got.Patch)
			require.Equal(t, tt.want.Prerelease, got.Prerelease)
		})
	}
}

func TestVersion_Compare(t *testing.T) {
	a, err := contract.ParseVersion("1.2.3")
	require.NoError(t, err)
	b, err := contract.ParseVersion("1.3.0")
	require.NoError(t, err)

	require.Equal(t, -1, a.Compare(b))
	require.Equal(t, 1, b.Compare(a))
	require.Equal(t, 0, a.Compare(a))
}

func TestSuggestNextVersion(t *testing.T) {
	require.Equal(t, contract.InitialVersion, contract.SuggestNextVersion(nil, domain.ChangeMajor))

	current, err := contract.ParseVersion("1.4.2")
	require.NoError(t, err)

	require.Equal(t, "2.0.0", contract.SuggestNextVersion(&current, domain.ChangeMajor))
	require.Equal(t, "1.5.0", contract.SuggestNextVersion(&current, domain.ChangeMinor))
	require.Equal(t, "1.4.3", contract.SuggestNextVersion(&current, domain.ChangePatch))
}
