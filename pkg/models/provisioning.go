package models

import (
	"time"

	"github.com/funnelforge/funnelforge/pkg/database"
)

// SubdomainStatus tracks DNS provisioning progress
type SubdomainStatus string

const (
	SubdomainStatusPending SubdomainStatus = "PENDING"
	SubdomainStatusActive  SubdomainStatus = "ACTIVE"
	SubdomainStatusFailed  SubdomainStatus = "FAILED"
)

// Subdomain is the DNS record provisioned for a workspace after creation or
// cloning. Host is derived from the workspace slug.
type Subdomain struct {
	ID          string          `json:"id" db:"id"`
	WorkspaceID string          `json:"workspace_id" db:"workspace_id"`
	Host        string          `json:"host" db:"host"`
	Status      SubdomainStatus `json:"status" db:"status"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at" db:"updated_at"`
}

// WorkspaceMember grants a user a role inside a workspace. The owner gets a
// full-permission row bootstrapped by the post-clone provisioner.
type WorkspaceMember struct {
	ID          string                   `json:"id" db:"id"`
	WorkspaceID string                   `json:"workspace_id" db:"workspace_id"`
	UserID      string                   `json:"user_id" db:"user_id"`
	Role        string                   `json:"role" db:"role"`
	Permissions database.JSONB[[]string] `json:"permissions" db:"permissions"`
	CreatedAt   time.Time                `json:"created_at" db:"created_at"`
}

// OwnerPermissions is the full permission set granted to a workspace owner
var OwnerPermissions = []string{
	"workspace.read",
	"workspace.write",
	"workspace.delete",
	"funnels.read",
	"funnels.write",
	"funnels.publish",
	"members.manage",
}
