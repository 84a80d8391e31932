package impact_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/contractreg/contractreg/internal/domain"
	"github.com/contractreg/contractreg/internal/impact"
	"github.com/contractreg/contractreg/internal/store"
	"github.com/contractreg/contractreg/internal/store/memory"
)

func seedUpstreamDownstream(t *testing.T, ctx context.Context, s store.Store) {
	t.Helper()
	tx, err := s.Begin(ctx)
	require.NoError(t, err)
	defer tx.Rollback(ctx)

	require.NoError(t, tx.CreateTeam(ctx, &domain.Team{ID: "producer", Name: "Producer", Slug: "producer"}))
	require.NoError(t, tx.CreateAsset(ctx, &domain.Asset{ID: "upstream", FQN: "warehouse.orders", OwnerTeamID: "producer", ResourceType: domain.ResourceTable}))
	require.NoError(t, tx.CreateAsset(ctx, &domain.Asset{ID: "downstream", FQN: "warehouse.orders_summary", OwnerTeamID: "producer", ResourceType: domain.ResourceModel}))
	require.NoError(t, tx.AddDependency(ctx, domain.AssetDependency{UpstreamAssetID: "upstream", DownstreamAssetID: "downstream"}))
	require.NoError(t, tx.CreateRegistration(ctx, &domain.Registration{ID: "reg-direct", AssetID: "upstream", ConsumerTeamID: "consumer-direct", Status: domain.RegistrationActive}))
	require.NoError(t, tx.CreateRegistration(ctx, &domain.Registration{ID: "reg-transitive", AssetID: "downstream", ConsumerTeamID: "consumer-transitive", Status: domain.RegistrationActive}))
	schema := map[string]interface{}{"type": "object", "properties": map[string]interface{}{"id": map[string]interface{}{"type": "string"}}}
	require.NoError(t, tx.CreateContract(ctx, &domain.Contract{ID: "contract-1", AssetID: "upstream", Version: "1.0.0", Schema: schema, CompatibilityMode: domain.ModeBackward, Status: domain.ContractActive}))
	require.NoError(t, tx.SetAssetCurrentContract(ctx, "upstream", strPtr("contract-1")))
	require.NoError(t, tx.Commit(ctx))
}

func strPtr(s string) *string { return &s }

func TestAnalyze_DirectAndTransitiveConsumersBothReported(t *testing.T) {
	s := memory.New()
	ctx := context.Background()
	seedUpstreamDownstream(t, ctx, s)

	tx, err := s.Begin(ctx)
	require.NoError(t, err)
	defer tx.Rollback(ctx)

	asset, err := tx.GetAsset(ctx, "upstream")
	require.NoError(t, err)

	a := impact.NewAnalyzer()
	report, err := a.Analyze(ctx, tx, asset, map[string]interface{}{"type": "object", "properties": map[string]interface{}{"id": map[string]interface{}{"type": "integer"}}}, domain.ModeBackward, 10)
	require.NoError(t, err)

	require.Equal(t, domain.ChangeMajor, report.ChangeType)
	require.False(t, report.SafeToPublish)
	require.Len(t, report.ImpactedAssets, 1)
	require.Equal(t, "downstream", report.ImpactedAssets[0].AssetID)

	teamIDs := make([]string, 0, len(report.ImpactedConsumers))
	for _, c := range report.ImpactedConsumers {
		teamIDs = append(teamIDs, c.TeamID)
	}
	require.Contains(t, teamIDs, "consumer-direct")
	require.Contains(t, teamIDs, "consumer-transitive")
}

func TestAnalyze_NoCurrentContractIsInitialPublishNeverBreaking(t *testing.T) {
	s := memory.New()
	ctx := context.Background()

	tx, err := s.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.CreateTeam(ctx, &domain.Team{ID: "producer", Name: "Producer", Slug: "producer"}))
	require.NoError(t, tx.CreateAsset(ctx, &domain.Asset{ID: "asset-1", FQN: "warehouse.new_thing", OwnerTeamID: "producer", ResourceType: domain.ResourceTable}))
	require.NoError(t, tx.Commit(ctx))

	tx2, err := s.Begin(ctx)
	require.NoError(t, err)
	defer tx2.Rollback(ctx)

	asset, err := tx2.GetAsset(ctx, "asset-1")
	require.NoError(t, err)

	a := impact.NewAnalyzer()
	report, err := a.Analyze(ctx, tx2, asset, map[string]interface{}{"type": "object"}, domain.ModeBackward, 10)
	require.NoError(t, err)
	require.True(t, report.SafeToPublish)
	require.Empty(t, report.BreakingChanges)
}

func TestAnalyze_ConcurrentIdenticalDiffsAreDeduped(t *testing.T) {
	s := memory.New()
	ctx := context.Background()
	seedUpstreamDownstream(t, ctx, s)

	tx, err := s.Begin(ctx)
	require.NoError(t, err)
	defer tx.Rollback(ctx)

	asset, err := tx.GetAsset(ctx, "upstream")
	require.NoError(t, err)

	a := impact.NewAnalyzer()
	proposed := map[string]interface{}{"type": "object", "properties": map[string]interface{}{"id": map[string]interface{}{"type": "integer"}}}

	done := make(chan *impact.Report, 4)
	for i := 0; i < 4; i++ {
		go func() {
			report, err := a.Analyze(ctx, tx, asset, proposed, domain.ModeBackward, 10)
			require.NoError(t, err)
			done <- report
		}()
	}
	for i := 0; i < 4; i++ {
		report := <-done
		require.Equal(t, domain.ChangeMajor, report.ChangeType)
	}
}
