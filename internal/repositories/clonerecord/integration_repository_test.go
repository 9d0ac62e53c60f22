package clonerecord_test

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"testing"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/Gobusters/ectologger/zapadapter"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/funnelforge/funnelforge/internal/repositories/clonerecord"
	"github.com/funnelforge/funnelforge/pkg/database"
	"github.com/funnelforge/funnelforge/pkg/models"
)

func getTestLogger() ectologger.Logger {
	zapLogger, _ := zap.NewDevelopment()
	return zapadapter.NewZapEctoLogger(zapLogger, nil)
}

func getTestDB(t *testing.T) database.DB {
	dbHost := os.Getenv("DB_HOST")
	if dbHost == "" {
		dbHost = "localhost"
	}
	dbUser := os.Getenv("DB_USER_NAME")
	if dbUser == "" {
		dbUser = "user"
	}
	dbPass := os.Getenv("DB_PASSWORD")
	if dbPass == "" {
		dbPass = "password"
	}
	dbName := os.Getenv("DB_NAME")
	if dbName == "" {
		dbName = "funnelforge"
	}

	dsn := "host=" + dbHost + " user=" + dbUser + " password=" + dbPass + " dbname=" + dbName + " sslmode=disable"
	db, err := sqlx.Connect("postgres", dsn)
	require.NoError(t, err, "Failed to connect to test database")

	return database.NewInstance(db, getTestLogger())
}

// cloneFixture seeds the rows a workspace_clones insert references
type cloneFixture struct {
	sellerID   string
	buyerID    string
	sourceWsID string
	clonedWsID string
	paymentID  string
}

func seedCloneFixture(t *testing.T, db database.DB) cloneFixture {
	t.Helper()
	ctx := context.Background()

	f := cloneFixture{
		sellerID:   uuid.New().String(),
		buyerID:    uuid.New().String(),
		sourceWsID: uuid.New().String(),
		clonedWsID: uuid.New().String(),
		paymentID:  uuid.New().String(),
	}

	for _, userID := range []string{f.sellerID, f.buyerID} {
		_, err := db.ExecContext(ctx,
			"INSERT INTO users (id, handle, email, name) VALUES ($1, $2, $3, $4)",
			userID, "user-"+userID[:8], userID[:8]+"@example.com", "Test User")
		require.NoError(t, err)
	}

	_, err := db.ExecContext(ctx,
		"INSERT INTO workspaces (id, name, slug, owner_id) VALUES ($1, $2, $3, $4)",
		f.sourceWsID, "Source", "src-"+f.sourceWsID[:8], f.sellerID)
	require.NoError(t, err)

	_, err = db.ExecContext(ctx,
		"INSERT INTO workspaces (id, name, slug, owner_id) VALUES ($1, $2, $3, $4)",
		f.clonedWsID, "Clone", "cln-"+f.clonedWsID[:8], f.buyerID)
	require.NoError(t, err)

	_, err = db.ExecContext(ctx,
		"INSERT INTO payments (id, transaction_id, status, buyer_id) VALUES ($1, $2, $3, $4)",
		f.paymentID, "txn-"+f.paymentID[:8], "COMPLETED", f.buyerID)
	require.NoError(t, err)

	return f
}

func createRecord(t *testing.T, db database.DB, repo *clonerecord.Repository, record *models.WorkspaceClone) (*models.WorkspaceClone, error) {
	t.Helper()
	ctx, tx, err := db.GetTx(context.Background(), &sql.TxOptions{})
	require.NoError(t, err)
	created, err := repo.CreateTx(ctx, tx, record)
	if err != nil {
		_ = tx.Rollback(ctx)
		return nil, err
	}
	require.NoError(t, tx.Commit(ctx))
	return created, nil
}

func TestCloneRecordRepository_CreateAndGet(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := getTestDB(t)
	repo := clonerecord.NewRepository(db, getTestLogger())
	f := seedCloneFixture(t, db)

	created, err := createRecord(t, db, repo, &models.WorkspaceClone{
		SourceWorkspaceID: f.sourceWsID,
		ClonedWorkspaceID: f.clonedWsID,
		SellerID:          f.sellerID,
		BuyerID:           f.buyerID,
		PaymentID:         &f.paymentID,
	})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	fetched, err := repo.GetByPaymentID(context.Background(), f.paymentID)
	require.NoError(t, err)
	require.NotNil(t, fetched)
	assert.Equal(t, created.ID, fetched.ID)
	assert.Equal(t, f.sourceWsID, fetched.SourceWorkspaceID)
	assert.Equal(t, f.buyerID, fetched.BuyerID)

	records, err := repo.ListBySourceWorkspace(context.Background(), f.sourceWsID)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, created.ID, records[0].ID)
}

func TestCloneRecordRepository_PaymentReuseConflicts(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := getTestDB(t)
	repo := clonerecord.NewRepository(db, getTestLogger())
	f := seedCloneFixture(t, db)

	_, err := createRecord(t, db, repo, &models.WorkspaceClone{
		SourceWorkspaceID: f.sourceWsID,
		ClonedWorkspaceID: f.clonedWsID,
		SellerID:          f.sellerID,
		BuyerID:           f.buyerID,
		PaymentID:         &f.paymentID,
	})
	require.NoError(t, err)

	_, err = createRecord(t, db, repo, &models.WorkspaceClone{
		SourceWorkspaceID: f.sourceWsID,
		ClonedWorkspaceID: f.clonedWsID,
		SellerID:          f.sellerID,
		BuyerID:           f.buyerID,
		PaymentID:         &f.paymentID,
	})
	require.Error(t, err)
	assert.Equal(t, http.StatusConflict, httperror.GetStatusCode(err))
}

func TestCloneRecordRepository_UngatedClonesDoNotCollide(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := getTestDB(t)
	repo := clonerecord.NewRepository(db, getTestLogger())
	f := seedCloneFixture(t, db)

	for i := 0; i < 2; i++ {
		_, err := createRecord(t, db, repo, &models.WorkspaceClone{
			SourceWorkspaceID: f.sourceWsID,
			ClonedWorkspaceID: f.clonedWsID,
			SellerID:          f.sellerID,
			BuyerID:           f.buyerID,
		})
		require.NoError(t, err)
	}
}

func TestCloneRecordRepository_MissingPaymentReturnsNil(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := getTestDB(t)
	repo := clonerecord.NewRepository(db, getTestLogger())

	record, err := repo.GetByPaymentID(context.Background(), uuid.New().String())
	require.NoError(t, err)
	assert.Nil(t, record)
}
