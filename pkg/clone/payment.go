package clone

import (
	"context"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"

	"github.com/funnelforge/funnelforge/pkg/models"
	"github.com/funnelforge/funnelforge/pkg/tracing"
)

// validatePayment resolves the external transaction identifier and checks the
// payment has not already been consumed by a prior clone. Returns nil when no
// identifier was supplied, which lets internal invocations run un-gated.
//
// This check is read-only on purpose. The provenance record written inside the
// clone transaction carries a unique constraint on payment_id, so a race
// between two guards resolving the same payment is decided at insert time.
func (e *Engine) validatePayment(ctx context.Context, transactionID string) (*models.Payment, error) {
	if transactionID == "" {
		return nil, nil
	}

	ctx, span := tracing.StartSpan(ctx, "clone.Engine.validatePayment")
	defer span.End()

	payment, err := e.payments.GetByTransactionID(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, httperror.NewHTTPErrorf(http.StatusNotFound, "couldn't find a payment for transaction %s", transactionID)
	}

	record, err := e.cloneRecords.GetByPaymentID(ctx, payment.ID)
	if err != nil {
		return nil, err
	}
	if record != nil {
		e.logger.WithContext(ctx).WithFields(map[string]any{
			"payment_id":      payment.ID,
			"clone_record_id": record.ID,
		}).Warn("Rejected clone request reusing a consumed payment")
		return nil, httperror.NewHTTPErrorf(http.StatusConflict, "payment %s has already been used to clone a workspace", transactionID)
	}

	return payment, nil
}
