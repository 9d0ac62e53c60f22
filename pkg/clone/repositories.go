package clone

import (
	"context"

	"github.com/funnelforge/funnelforge/pkg/database"
	"github.com/funnelforge/funnelforge/pkg/models"
)

// WorkspaceRepository defines the workspace storage operations the engine needs
type WorkspaceRepository interface {
	DB() database.DB
	Get(ctx context.Context, id string) (*models.Workspace, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	CreateTx(ctx context.Context, tx database.Tx, ws *models.Workspace) (*models.Workspace, error)
}

// FunnelRepository defines the funnel storage operations the engine needs
type FunnelRepository interface {
	ListByWorkspace(ctx context.Context, workspaceID string) ([]models.Funnel, error)
	CreateTx(ctx context.Context, tx database.Tx, f *models.Funnel) (*models.Funnel, error)
}

// PageRepository defines the page storage operations the engine needs
type PageRepository interface {
	ListByFunnels(ctx context.Context, funnelIDs []string) ([]models.Page, error)
	CreateBatchTx(ctx context.Context, tx database.Tx, pages []models.Page) error
}

// ThemeRepository defines the theme storage operations the engine needs
type ThemeRepository interface {
	GetByIDs(ctx context.Context, ids []string) ([]models.Theme, error)
	CreateTx(ctx context.Context, tx database.Tx, t *models.Theme) (*models.Theme, error)
	SetFunnelTx(ctx context.Context, tx database.Tx, themeID, funnelID string) error
}

// FunnelSettingsRepository defines the settings storage operations the engine needs
type FunnelSettingsRepository interface {
	ListByFunnels(ctx context.Context, funnelIDs []string) ([]models.FunnelSettings, error)
	CreateTx(ctx context.Context, tx database.Tx, s *models.FunnelSettings) (*models.FunnelSettings, error)
}

// RolePermissionRepository defines the permission template operations the engine needs
type RolePermissionRepository interface {
	ListByWorkspace(ctx context.Context, workspaceID string) ([]models.RolePermissionTemplate, error)
	CreateBatchTx(ctx context.Context, tx database.Tx, templates []models.RolePermissionTemplate) error
}

// PaymentRepository defines the payment lookup the guard needs
type PaymentRepository interface {
	GetByTransactionID(ctx context.Context, transactionID string) (*models.Payment, error)
}

// UserRepository defines the user lookup for owner validation
type UserRepository interface {
	Get(ctx context.Context, id string) (*models.User, error)
}

// CloneRecordRepository defines the provenance record operations the engine needs
type CloneRecordRepository interface {
	GetByPaymentID(ctx context.Context, paymentID string) (*models.WorkspaceClone, error)
	CreateTx(ctx context.Context, tx database.Tx, record *models.WorkspaceClone) (*models.WorkspaceClone, error)
}

// Provisioner runs post-commit provisioning for a cloned workspace. Failures
// are logged and reported through metrics but never fail the clone.
type Provisioner interface {
	ProvisionWorkspace(ctx context.Context, ws *models.Workspace) error
}

// EventEmitter publishes workspace lifecycle events after a successful clone
type EventEmitter interface {
	WorkspaceCloned(ctx context.Context, sourceWorkspaceID string, cloned *models.Workspace, cloneRecordID *string) error
}

// CacheInvalidator drops cached workspace views made stale by a clone
type CacheInvalidator interface {
	InvalidateWorkspace(ctx context.Context, workspaceID string) error
	InvalidateOwnerWorkspaces(ctx context.Context, ownerID string) error
}
