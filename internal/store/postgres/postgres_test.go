package postgres

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/contractreg/contractreg/internal/domain"
	"github.com/contractreg/contractreg/internal/store"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return &Store{db: db}, mock
}

func beginTx(t *testing.T, s *Store, mock sqlmock.Sqlmock) store.Tx {
	t.Helper()
	mock.ExpectBegin()
	txn, err := s.Begin(context.Background())
	require.NoError(t, err)
	return txn
}

func TestTx_CreateTeam_Success(t *testing.T) {
	s, mock := newMockStore(t)
	txn := beginTx(t, s, mock)

	team := &domain.Team{ID: "team-1", Name: "Warehouse", Slug: "warehouse", CreatedAt: time.Now()}

	mock.ExpectExec(regexp.QuoteMeta(insertTeam)).
		WithArgs(team.ID, team.Name, team.Slug, sqlmock.AnyArg(), team.CreatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, txn.CreateTeam(context.Background(), team))
	require.NoError(t, txn.Commit(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTx_CreateTeam_DuplicateSlugTranslatesToErrDuplicate(t *testing.T) {
	s, mock := newMockStore(t)
	txn := beginTx(t, s, mock)

	team := &domain.Team{ID: "team-2", Name: "Warehouse", Slug: "warehouse", CreatedAt: time.Now()}

	mock.ExpectExec(regexp.QuoteMeta(insertTeam)).
		WithArgs(team.ID, team.Name, team.Slug, sqlmock.AnyArg(), team.CreatedAt).
		WillReturnError(&pq.Error{Code: "23505", Message: "duplicate key value violates unique constraint"})
	mock.ExpectRollback()

	err := txn.CreateTeam(context.Background(), team)
	require.ErrorIs(t, err, store.ErrDuplicate)
	require.NoError(t, txn.Rollback(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTx_GetTeam_NotFound(t *testing.T) {
	s, mock := newMockStore(t)
	txn := beginTx(t, s, mock)

	mock.ExpectQuery(regexp.QuoteMeta(selectTeamByID)).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	_, err := txn.GetTeam(context.Background(), "missing")
	require.Error(t, err)
	require.Contains(t, err.Error(), "not found")
	require.NoError(t, txn.Rollback(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTx_LockAsset_UsesForUpdate(t *testing.T) {
	s, mock := newMockStore(t)
	txn := beginTx(t, s, mock)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "fqn", "owner_team_id", "resource_type", "current_contract_id", "metadata", "created_at", "deleted_at"}).
		AddRow("asset-1", "warehouse.public.orders", "team-1", "table", nil, []byte(`{}`), now, nil)

	mock.ExpectQuery(regexp.QuoteMeta(selectAssetByIDForUpdate)).
		WithArgs("asset-1").
		WillReturnRows(rows)
	mock.ExpectCommit()

	a, err := txn.LockAsset(context.Background(), "asset-1")
	require.NoError(t, err)
	require.Equal(t, "warehouse.public.orders", a.FQN)
	require.Nil(t, a.CurrentContractID)
	require.NoError(t, txn.Commit(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTx_SetAssetCurrentContract_NotFoundWhenNoRowsAffected(t *testing.T) {
	s, mock := newMockStore(t)
	txn := beginTx(t, s, mock)

	contractID := "contract-1"
	mock.ExpectExec(regexp.QuoteMeta(updateAssetCurrentContract)).
		WithArgs("asset-missing", contractID).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := txn.SetAssetCurrentContract(context.Background(), "asset-missing", &contractID)
	require.Error(t, err)
	require.Contains(t, err.Error(), "not found")
	require.NoError(t, txn.Rollback(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTx_CreateProposal_DuplicatePendingTranslatesToErrDuplicate(t *testing.T) {
	s, mock := newMockStore(t)
	txn := beginTx(t, s, mock)

	p := &domain.Proposal{
		ID:                        "proposal-1",
		AssetID:                   "asset-1",
		BaseContractID:            "contract-1",
		ProposedSchema:            map[string]interface{}{"type": "object"},
		ProposedVersion:           "2.0.0",
		ProposedCompatibilityMode: domain.ModeBackward,
		ChangeType:                domain.ChangeMajor,
		Status:                    domain.ProposalPending,
		AckSnapshotTeamIDs:        []string{"team-a", "team-b"},
		ProposedBy:                "user-1",
		ProposedAt:                time.Now(),
	}

	mock.ExpectExec(regexp.QuoteMeta(insertProposal)).
		WithArgs(p.ID, p.AssetID, p.BaseContractID, sqlmock.AnyArg(), p.ProposedVersion,
			string(p.ProposedCompatibilityMode), sqlmock.AnyArg(), string(p.ChangeType), string(p.Status),
			sqlmock.AnyArg(), p.ProposedBy, p.ProposedAt, p.ResolvedAt).
		WillReturnError(&pq.Error{Code: "23505"})
	mock.ExpectRollback()

	err := txn.CreateProposal(context.Background(), p)
	require.ErrorIs(t, err, store.ErrDuplicate)
	require.NoError(t, txn.Rollback(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTx_QueryAudit_PaginatesWithTupleCursor(t *testing.T) {
	s, mock := newMockStore(t)
	txn := beginTx(t, s, mock)

	occurredAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "entity_type", "entity_id", "action", "actor_id", "payload", "occurred_at"}).
		AddRow("evt-1", "contract", "contract-1", domain.ActionContractPublished, "user-1", []byte(`{"version":"2.0.0"}`), occurredAt)

	mock.ExpectQuery(regexp.QuoteMeta(selectAuditPage)).
		WithArgs(sqlmock.AnyArg(), "", "", "", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), "", 1).
		WillReturnRows(rows)
	mock.ExpectCommit()

	events, page, err := txn.QueryAudit(context.Background(), store.AuditFilter{}, store.Page{Limit: 1})
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, "evt-1", events[0].ID)
	require.Equal(t, "evt-1", page.NextCursor[len(page.NextCursor)-len("evt-1"):])
	require.NoError(t, txn.Commit(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTx_Commit_AfterDoneReturnsErrTxDone(t *testing.T) {
	s, mock := newMockStore(t)
	txn := beginTx(t, s, mock)

	mock.ExpectCommit()
	require.NoError(t, txn.Commit(context.Background()))

	// A second Commit on an already-committed *sql.Tx surfaces sql.ErrTxDone,
	// matching the in-memory backend's contract for a reused transaction.
	err := txn.Commit(context.Background())
	require.ErrorIs(t, err, sql.ErrTxDone)
}
