package payment

import (
	"context"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/huandu/go-sqlbuilder"

	"github.com/funnelforge/funnelforge/pkg/database"
	"github.com/funnelforge/funnelforge/pkg/models"
	"github.com/funnelforge/funnelforge/pkg/tracing"
)

// Repository reads payments written by the webhook pipeline. The clone engine
// never mutates payment rows; consumption is expressed through the unique
// payment reference on workspace_clones.
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{db: db, logger: logger}
}

// GetByTransactionID resolves a payment by its external correlation key.
// Returns nil when no payment matches.
func (r *Repository) GetByTransactionID(ctx context.Context, transactionID string) (*models.Payment, error) {
	ctx, span := tracing.StartSpan(ctx, "payment.Repository.GetByTransactionID")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("id", "transaction_id", "status", "buyer_id", "workspace_id", "amount_cents", "currency", "created_at")
	sb.From("payments")
	sb.Where(sb.Equal("transaction_id", transactionID))

	query, args := sb.Build()
	var payment models.Payment
	if err := r.db.GetContext(ctx, &payment, query, args...); err != nil {
		if database.IsNotFound(err) {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"transaction_id": transactionID}).Error("Failed to get payment by transaction_id")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get payment")
	}
	return &payment, nil
}
