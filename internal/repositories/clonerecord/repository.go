package clonerecord

import (
	"context"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
	"github.com/huandu/go-sqlbuilder"

	"github.com/funnelforge/funnelforge/pkg/database"
	"github.com/funnelforge/funnelforge/pkg/models"
	"github.com/funnelforge/funnelforge/pkg/tracing"
)

const columns = "id, source_workspace_id, cloned_workspace_id, seller_id, buyer_id, payment_id, created_at"

// Repository handles workspace clone provenance records. Rows are written
// once at the end of a successful clone and never mutated.
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{db: db, logger: logger}
}

// GetByPaymentID returns the clone record consuming the given payment, or nil
// when the payment has not been used. This is the payment guard's pre-check;
// the unique constraint on payment_id closes the remaining race window at
// insert time.
func (r *Repository) GetByPaymentID(ctx context.Context, paymentID string) (*models.WorkspaceClone, error) {
	ctx, span := tracing.StartSpan(ctx, "clonerecord.Repository.GetByPaymentID")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns)
	sb.From("workspace_clones")
	sb.Where(sb.Equal("payment_id", paymentID))

	query, args := sb.Build()
	var record models.WorkspaceClone
	if err := r.db.GetContext(ctx, &record, query, args...); err != nil {
		if database.IsNotFound(err) {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"payment_id": paymentID}).Error("Failed to get clone record by payment")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get clone record")
	}
	return &record, nil
}

// ListBySourceWorkspace returns the provenance records of clones made from a
// workspace, newest first.
func (r *Repository) ListBySourceWorkspace(ctx context.Context, sourceWorkspaceID string) ([]models.WorkspaceClone, error) {
	ctx, span := tracing.StartSpan(ctx, "clonerecord.Repository.ListBySourceWorkspace")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns)
	sb.From("workspace_clones")
	sb.Where(sb.Equal("source_workspace_id", sourceWorkspaceID))
	sb.OrderBy("created_at DESC")

	query, args := sb.Build()
	var records []models.WorkspaceClone
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"source_workspace_id": sourceWorkspaceID}).Error("Failed to list clone records")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list clone records")
	}
	return records, nil
}

// CreateTx writes the provenance record through the caller's transaction.
// A unique violation on payment_id means a concurrent clone consumed the
// payment between the guard's pre-check and this insert; it surfaces as the
// authoritative conflict.
func (r *Repository) CreateTx(ctx context.Context, tx database.Tx, record *models.WorkspaceClone) (*models.WorkspaceClone, error) {
	ctx, span := tracing.StartSpan(ctx, "clonerecord.Repository.CreateTx")
	defer span.End()

	if record.ID == "" {
		record.ID = uuid.New().String()
	}
	record.CreatedAt = time.Now().UTC()

	sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
	sb.InsertInto("workspace_clones")
	sb.Cols("id", "source_workspace_id", "cloned_workspace_id", "seller_id", "buyer_id", "payment_id", "created_at")
	sb.Values(record.ID, record.SourceWorkspaceID, record.ClonedWorkspaceID, record.SellerID, record.BuyerID, record.PaymentID, record.CreatedAt)

	query, args := sb.Build()
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		if database.IsUniqueViolation(err) {
			r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"payment_id": record.PaymentID}).Warn("Payment consumed by a concurrent clone")
			return nil, httperror.NewHTTPError(http.StatusConflict, "payment has already been used to clone a workspace")
		}
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"source_workspace_id": record.SourceWorkspaceID}).Error("Failed to create clone record")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to create clone record")
	}
	return record, nil
}
