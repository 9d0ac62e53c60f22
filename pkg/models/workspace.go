package models

import (
	"time"

	"github.com/funnelforge/funnelforge/pkg/database"
)

// WorkspaceStatus is the lifecycle state of a workspace
type WorkspaceStatus string

const (
	WorkspaceStatusActive   WorkspaceStatus = "ACTIVE"
	WorkspaceStatusDisabled WorkspaceStatus = "DISABLED"
)

// PlanType is the billing tier a workspace runs under
type PlanType string

const (
	PlanFree     PlanType = "FREE"
	PlanBusiness PlanType = "BUSINESS"
	PlanAgency   PlanType = "AGENCY"
)

// AllowsPasswordProtection reports whether funnels in a workspace on this plan
// may be password protected. Cloning into a plan that forbids protection
// clears the password fields on every copied funnel settings row.
func (p PlanType) AllowsPasswordProtection() bool {
	return p == PlanAgency
}

// Valid reports whether p is a known plan tier
func (p PlanType) Valid() bool {
	switch p {
	case PlanFree, PlanBusiness, PlanAgency:
		return true
	}
	return false
}

// WorkspaceSettings is the free-form settings blob carried on a workspace.
// The clone engine copies it verbatim; only the builder UI interprets it.
type WorkspaceSettings struct {
	BrandColor      string `json:"brand_color,omitempty"`
	DefaultLocale   string `json:"default_locale,omitempty"`
	FaviconURL      string `json:"favicon_url,omitempty"`
	CookieBannerOn  bool   `json:"cookie_banner_on,omitempty"`
	CustomFooterOn  bool   `json:"custom_footer_on,omitempty"`
	SupportEmail    string `json:"support_email,omitempty"`
	TimezoneDefault string `json:"timezone_default,omitempty"`
}

// Workspace is the tenant root: funnels, pages, themes and permission
// templates hang off it. slug is globally unique.
type Workspace struct {
	ID          string                               `json:"id" db:"id"`
	Name        string                               `json:"name" db:"name" validate:"required"`
	Slug        string                               `json:"slug" db:"slug" validate:"required"`
	OwnerID     string                               `json:"owner_id" db:"owner_id"`
	Description string                               `json:"description,omitempty" db:"description"`
	ImageURL    string                               `json:"image_url,omitempty" db:"image_url"`
	Settings    database.JSONB[WorkspaceSettings]    `json:"settings" db:"settings"`
	Status      WorkspaceStatus                      `json:"status" db:"status"`
	PlanType    PlanType                             `json:"plan_type" db:"plan_type"`
	CreatedAt   time.Time                            `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time                            `json:"updated_at" db:"updated_at"`
}

// WorkspaceSummary is the compact view returned by the clone endpoint
type WorkspaceSummary struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Slug     string   `json:"slug"`
	PlanType PlanType `json:"plan_type"`
}

// Summary builds the compact view of w
func (w *Workspace) Summary() WorkspaceSummary {
	return WorkspaceSummary{
		ID:       w.ID,
		Name:     w.Name,
		Slug:     w.Slug,
		PlanType: w.PlanType,
	}
}

// UpdateWorkspaceRequest is the payload for workspace updates
type UpdateWorkspaceRequest struct {
	Name        *string            `json:"name,omitempty"`
	Description *string            `json:"description,omitempty"`
	ImageURL    *string            `json:"image_url,omitempty"`
	Settings    *WorkspaceSettings `json:"settings,omitempty"`
}

// WorkspaceListResponse is the response for listing workspaces
type WorkspaceListResponse struct {
	Items      []Workspace `json:"items"`
	TotalCount int         `json:"total_count"`
	Page       int         `json:"page"`
	PageSize   int         `json:"page_size"`
}

// RolePermissionTemplate defines the default permission set granted to a role
// within a workspace. Copied verbatim (re-keyed) during clone.
type RolePermissionTemplate struct {
	ID          string                  `json:"id" db:"id"`
	WorkspaceID string                  `json:"workspace_id" db:"workspace_id"`
	Role        string                  `json:"role" db:"role"`
	Permissions database.JSONB[[]string] `json:"permissions" db:"permissions"`
	CreatedAt   time.Time               `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time               `json:"updated_at" db:"updated_at"`
}
