package services

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/username/ledgerview/backend/src/database"
	"github.com/username/ledgerview/backend/src/logger"
	"github.com/username/ledgerview/backend/src/models"
	"github.com/username/ledgerview/backend/src/parsers"
	"github.com/username/ledgerview/backend/src/parsers/revolut"
	"github.com/username/ledgerview/backend/src/processors"
	"github.com/username/ledgerview/backend/src/store"
)

func TestMain(m *testing.M) {
	logger.InitLogger("error")
	os.Exit(m.Run())
}

type seqIDGenerator struct{ n int }

func (g *seqIDGenerator) NewID() string {
	g.n++
	return fmt.Sprintf("tx-%d", g.n)
}

func newTestStore(t *testing.T) store.TransactionStore {
	t.Helper()
	db, err := database.InitDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.RunMigrations(db))
	return store.NewSQLiteStore(db)
}

func newTestImportService(t *testing.T, txStore store.TransactionStore) ImportService {
	t.Helper()
	parsers.Register("revolut", revolut.NewParser(&seqIDGenerator{}))
	rule := processors.NewRentAdjustmentRule(
		"To Trading Places",
		decimal.RequireFromString("-2200"),
		decimal.RequireFromString("-1000"),
	)
	return NewImportService(txStore, rule, NewMappingResolver(txStore), nil)
}

const statementHeader = "Type,Product,Started Date,Completed Date,Description,Amount,Fee,Currency,State,Balance\n"

const sampleStatement = statementHeader +
	"CARD_PAYMENT,Current,2024-01-02 09:30:00,2024-01-02 09:31:12,Coffee Shop,-3.50,0.00,EUR,COMPLETED,2996.50\n" +
	"TRANSFER,Current,2024-01-03 08:00:00,2024-01-03 08:00:05,To Trading Places,-2200,0.00,EUR,COMPLETED,796.50\n" +
	"CARD_PAYMENT,Current,2024-01-04 18:00:00,2024-01-04 18:00:40,Netflix,-12.99,0.00,EUR,COMPLETED,783.51\n" +
	"CARD_PAYMENT,Current,2024-01-05 12:00:00,2024-01-05 12:00:10,Pending Shop,-9.99,0.00,EUR,PENDING,773.52\n"

func TestImportCSV_PersistsAcceptedRows(t *testing.T) {
	txStore := newTestStore(t)
	svc := newTestImportService(t, txStore)
	ctx := context.Background()

	result, err := svc.ImportCSV(ctx, strings.NewReader(sampleStatement), 1, "revolut", "statement.csv", int64(len(sampleStatement)))
	require.NoError(t, err)
	require.Equal(t, 3, result.Accepted)
	require.Equal(t, 1, result.Rejected)

	listed, err := txStore.ListTransactions(ctx, 1)
	require.NoError(t, err)
	require.Len(t, listed, 3)
}

func TestImportCSV_AppliesRentAdjustment(t *testing.T) {
	txStore := newTestStore(t)
	svc := newTestImportService(t, txStore)
	ctx := context.Background()

	_, err := svc.ImportCSV(ctx, strings.NewReader(sampleStatement), 1, "revolut", "statement.csv", 0)
	require.NoError(t, err)

	listed, err := txStore.ListTransactions(ctx, 1)
	require.NoError(t, err)

	var adjusted *models.TransactionWithCategory
	for i := range listed {
		if strings.Contains(listed[i].Description, "To Trading Places") {
			adjusted = &listed[i]
		}
	}
	require.NotNil(t, adjusted)
	require.True(t, adjusted.Amount.Decimal.Equal(decimal.RequireFromString("-1000")))
	require.True(t, strings.HasSuffix(adjusted.Description, processors.AdjustedSuffix))

	// The adjusted description is mapped to the Rent category for future runs.
	mapping, err := txStore.GetMappingByDescription(ctx, adjusted.Description, 1)
	require.NoError(t, err)
	rent, err := txStore.GetCategoryByName(ctx, "Rent", 1)
	require.NoError(t, err)
	require.Equal(t, rent.ID, mapping.CategoryID)
}

func TestImportCSV_ReimportReplacesInsteadOfAppending(t *testing.T) {
	txStore := newTestStore(t)
	svc := newTestImportService(t, txStore)
	ctx := context.Background()

	_, err := svc.ImportCSV(ctx, strings.NewReader(sampleStatement), 1, "revolut", "statement.csv", 0)
	require.NoError(t, err)
	result, err := svc.ImportCSV(ctx, strings.NewReader(sampleStatement), 1, "revolut", "statement.csv", 0)
	require.NoError(t, err)
	require.Equal(t, 3, result.Accepted)

	listed, err := txStore.ListTransactions(ctx, 1)
	require.NoError(t, err)
	require.Len(t, listed, 3)
}

func TestImportCSV_OtherUsersDataSurvives(t *testing.T) {
	txStore := newTestStore(t)
	svc := newTestImportService(t, txStore)
	ctx := context.Background()

	_, err := svc.ImportCSV(ctx, strings.NewReader(sampleStatement), 1, "revolut", "statement.csv", 0)
	require.NoError(t, err)
	_, err = svc.ImportCSV(ctx, strings.NewReader(sampleStatement), 2, "revolut", "statement.csv", 0)
	require.NoError(t, err)

	one, err := txStore.ListTransactions(ctx, 1)
	require.NoError(t, err)
	require.Len(t, one, 3)
	two, err := txStore.ListTransactions(ctx, 2)
	require.NoError(t, err)
	require.Len(t, two, 3)
}

func TestImportCSV_Unauthenticated(t *testing.T) {
	svc := newTestImportService(t, newTestStore(t))
	_, err := svc.ImportCSV(context.Background(), strings.NewReader(sampleStatement), 0, "revolut", "statement.csv", 0)
	require.ErrorIs(t, err, ErrUnauthenticated)
}

func TestImportCSV_UnknownSourceLeavesDataIntact(t *testing.T) {
	txStore := newTestStore(t)
	svc := newTestImportService(t, txStore)
	ctx := context.Background()

	_, err := svc.ImportCSV(ctx, strings.NewReader(sampleStatement), 1, "revolut", "statement.csv", 0)
	require.NoError(t, err)

	// The parser lookup happens before the clear phase.
	_, err = svc.ImportCSV(ctx, strings.NewReader(sampleStatement), 1, "unknown-bank", "statement.csv", 0)
	require.ErrorIs(t, err, ErrParsingFailed)

	listed, err := txStore.ListTransactions(ctx, 1)
	require.NoError(t, err)
	require.Len(t, listed, 3)
}

func TestImportCSV_AllRowsInvalid(t *testing.T) {
	txStore := newTestStore(t)
	svc := newTestImportService(t, txStore)
	ctx := context.Background()

	_, err := svc.ImportCSV(ctx, strings.NewReader(sampleStatement), 1, "revolut", "statement.csv", 0)
	require.NoError(t, err)

	allPending := statementHeader +
		"CARD_PAYMENT,Current,2024-01-05 12:00:00,2024-01-05 12:00:10,Pending Shop,-9.99,0.00,EUR,PENDING,773.52\n"
	_, err = svc.ImportCSV(ctx, strings.NewReader(allPending), 1, "revolut", "statement.csv", 0)
	require.ErrorIs(t, err, ErrNoValidRows)

	// The clear phase already ran; the user ends up with an empty dataset.
	listed, err := txStore.ListTransactions(ctx, 1)
	require.NoError(t, err)
	require.Empty(t, listed)
}

func TestImportCSV_UnreadableFileReportsParsingFailure(t *testing.T) {
	txStore := newTestStore(t)
	svc := newTestImportService(t, txStore)

	_, err := svc.ImportCSV(context.Background(), strings.NewReader(""), 1, "revolut", "empty.csv", 0)
	require.ErrorIs(t, err, ErrParsingFailed)
}
