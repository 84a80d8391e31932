package domain_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/contractreg/contractreg/internal/domain"
)

func TestScope_Satisfies_OrdersReadWriteAdmin(t *testing.T) {
	require.True(t, domain.ScopeAdmin.Satisfies(domain.ScopeRead))
	require.True(t, domain.ScopeAdmin.Satisfies(domain.ScopeWrite))
	require.True(t, domain.ScopeAdmin.Satisfies(domain.ScopeAdmin))
	require.True(t, domain.ScopeWrite.Satisfies(domain.ScopeRead))
	require.False(t, domain.ScopeRead.Satisfies(domain.ScopeWrite))
	require.False(t, domain.ScopeWrite.Satisfies(domain.ScopeAdmin))
}

func TestAPIKey_Revoked(t *testing.T) {
	k := &domain.APIKey{ID: "key-1", TeamID: "team-1", Scope: domain.ScopeRead, KeyHash: "h"}
	require.False(t, k.Revoked())

	now := time.Now()
	k.RevokedAt = &now
	require.True(t, k.Revoked())
}

func TestAPIKey_Validate(t *testing.T) {
	valid := &domain.APIKey{TeamID: "team-1", Scope: domain.ScopeWrite, KeyHash: "h"}
	require.NoError(t, valid.Validate())

	missingTeam := &domain.APIKey{Scope: domain.ScopeWrite, KeyHash: "h"}
	require.Error(t, missingTeam.Validate())

	invalidScope := &domain.APIKey{TeamID: "team-1", Scope: domain.Scope("superuser"), KeyHash: "h"}
	require.Error(t, invalidScope.Validate())

	missingHash := &domain.APIKey{TeamID: "team-1", Scope: domain.ScopeWrite}
	require.Error(t, missingHash.Validate())
}
