package models

// CloneWorkspaceRequest is the body of the clone endpoint. PaymentTransactionID
// is the external processor's correlation key; when empty the clone runs
// un-gated (internal invocation).
type CloneWorkspaceRequest struct {
	NewOwnerID           string   `json:"new_owner_id" validate:"required,uuid4"`
	PaymentTransactionID string   `json:"payment_transaction_id,omitempty"`
	PlanType             PlanType `json:"plan_type" validate:"required"`
}

// CloneWorkspaceResponse reports the outcome of a successful clone.
// CloneRecordID is nil when no payment gated the clone, so callers can tell
// "no record" apart from any real identifier.
type CloneWorkspaceResponse struct {
	Message           string           `json:"message"`
	ClonedWorkspaceID string           `json:"cloned_workspace_id"`
	ClonedWorkspace   WorkspaceSummary `json:"cloned_workspace"`
	CloneRecordID     *string          `json:"clone_record_id,omitempty"`
}
