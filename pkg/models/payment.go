package models

import "time"

// PaymentStatus is the external processor's settlement state
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusCompleted PaymentStatus = "COMPLETED"
	PaymentStatusRefunded  PaymentStatus = "REFUNDED"
)

// Payment is written by the payment webhook pipeline; the clone engine only
// reads it. TransactionID is the external correlation key clone requests
// carry.
type Payment struct {
	ID            string        `json:"id" db:"id"`
	TransactionID string        `json:"transaction_id" db:"transaction_id"`
	Status        PaymentStatus `json:"status" db:"status"`
	BuyerID       string        `json:"buyer_id" db:"buyer_id"`
	WorkspaceID   *string       `json:"workspace_id,omitempty" db:"workspace_id"`
	AmountCents   int64         `json:"amount_cents" db:"amount_cents"`
	Currency      string        `json:"currency" db:"currency"`
	CreatedAt     time.Time     `json:"created_at" db:"created_at"`
}

// WorkspaceClone is the provenance record written at the end of a successful
// clone. The unique constraint on payment_id is what makes a payment
// consumable at most once.
type WorkspaceClone struct {
	ID                string    `json:"id" db:"id"`
	SourceWorkspaceID string    `json:"source_workspace_id" db:"source_workspace_id"`
	ClonedWorkspaceID string    `json:"cloned_workspace_id" db:"cloned_workspace_id"`
	SellerID          string    `json:"seller_id" db:"seller_id"`
	BuyerID           string    `json:"buyer_id" db:"buyer_id"`
	PaymentID         *string   `json:"payment_id,omitempty" db:"payment_id"`
	CreatedAt         time.Time `json:"created_at" db:"created_at"`
}

// User is the account owner referenced by workspaces and clones. Auth is
// handled upstream; this service only checks existence and reads the handle.
type User struct {
	ID        string    `json:"id" db:"id"`
	Handle    string    `json:"handle" db:"handle"`
	Email     string    `json:"email" db:"email"`
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
