package rolepermission

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

const columns = "id, workspace_id, role, permissions, created_at, updated_at"

// Repository handles role permission template persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{db: db, logger: logger}
}

// ListByWorkspace returns the permission templates of a workspace
func (r *Repository) ListByWorkspace(ctx context.Context, workspaceID string) ([]models.RolePermissionTemplate, error) {
	ctx, span := tracing.StartSpan(ctx, "rolepermission.Repository.ListByWorkspace")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns)
	sb.From("role_permission_templates")
	sb.Where(sb.Equal("workspace_id", workspaceID))
	sb.OrderBy("role")

	query, args := sb.Build()
	var templates []models.RolePermissionTemplate
	if err := r.db.SelectContext(ctx, &templates, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"workspace_id": workspaceID}).Error("Failed to list role permission templates")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list role permission templates")
	}
	return templates, nil
}

// CreateBatchTx inserts permission template rows through the caller's transaction
func (r *Repository) CreateBatchTx(ctx context.Context, tx database.Tx, templates []models.RolePermissionTemplate) error {
	ctx, span := tracing.StartSpan(ctx, "rolepermission.Repository.CreateBatchTx")
	defer span.End()

	if len(templates) == 0 {
		return nil
	}

	now := time.Now().UTC()
	sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
	sb.InsertInto("role_permission_templates")
	sb.Cols("id", "workspace_id", "role", "permissions", "created_at", "updated_at")
	for i := range templates {
		if templates[i].ID == "" {
			templates[i].ID = uuid.New().String()
		}
		templates[i].CreatedAt = now
		templates[i].UpdatedAt = now
		t := templates[i]
		sb.Values(t.ID, t.WorkspaceID, t.Role, t.Permissions, now, now)
	}

	query, args := sb.Build()
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"count": len(templates)}).Error("Failed to create role permission templates")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to create role permission templates")
	}
	return nil
}
