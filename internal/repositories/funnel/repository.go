package funnel

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

const columns = "id, name, slug, status, workspace_id, created_by, active_theme_id, created_at, updated_at"

// Repository handles funnel persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{db: db, logger: logger}
}

// ListByWorkspace returns every funnel in a workspace in creation order
func (r *Repository) ListByWorkspace(ctx context.Context, workspaceID string) ([]models.Funnel, error) {
	ctx, span := tracing.StartSpan(ctx, "funnel.Repository.ListByWorkspace")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns)
	sb.From("funnels")
	sb.Where(sb.Equal("workspace_id", workspaceID))
	sb.OrderBy("created_at")

	query, args := sb.Build()
	var funnels []models.Funnel
	if err := r.db.SelectContext(ctx, &funnels, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"workspace_id": workspaceID}).Error("Failed to list funnels")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list funnels")
	}
	return funnels, nil
}

// Get retrieves a funnel by ID, or nil when absent
func (r *Repository) Get(ctx context.Context, id string) (*models.Funnel, error) {
	ctx, span := tracing.StartSpan(ctx, "funnel.Repository.Get")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns)
	sb.From("funnels")
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	var f models.Funnel
	if err := r.db.GetContext(ctx, &f, query, args...); err != nil {
		if database.IsNotFound(err) {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"id": id}).Error("Failed to get funnel")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get funnel")
	}
	return &f, nil
}

// CreateTx inserts a funnel row through the caller's transaction
func (r *Repository) CreateTx(ctx context.Context, tx database.Tx, f *models.Funnel) (*models.Funnel, error) {
	ctx, span := tracing.StartSpan(ctx, "funnel.Repository.CreateTx")
	defer span.End()

	if f.ID == "" {
		f.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	f.CreatedAt = now
	f.UpdatedAt = now

	sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
	sb.InsertInto("funnels")
	sb.Cols("id", "name", "slug", "status", "workspace_id", "created_by", "active_theme_id", "created_at", "updated_at")
	sb.Values(f.ID, f.Name, f.Slug, f.Status, f.WorkspaceID, f.CreatedBy, f.ActiveThemeID, f.CreatedAt, f.UpdatedAt)

	query, args := sb.Build()
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, httperror.NewHTTPErrorf(http.StatusConflict, "funnel slug %q already exists in this workspace", f.Slug)
		}
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"id": f.ID, "workspace_id": f.WorkspaceID}).Error("Failed to create funnel")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to create funnel")
	}
	return f, nil
}
