package workspace

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

const columns = "id, name, slug, owner_id, description, image_url, settings, status, plan_type, created_at, updated_at"

// Repository handles workspace persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{db: db, logger: logger}
}

// DB exposes the underlying database handle for transactional operations.
func (r *Repository) DB() database.DB {
	return r.db
}

// Get retrieves a workspace by ID
func (r *Repository) Get(ctx context.Context, id string) (*models.Workspace, error) {
	ctx, span := tracing.StartSpan(ctx, "workspace.Repository.Get")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns)
	sb.From("workspaces")
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	var ws models.Workspace
	if err := r.db.GetContext(ctx, &ws, query, args...); err != nil {
		if database.IsNotFound(err) {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"id": id}).Error("Failed to get workspace")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get workspace")
	}
	return &ws, nil
}

// SlugExists reports whether any workspace already holds the given slug. The
// slug allocator uses this as an optimistic probe; the unique constraint on
// workspaces.slug remains the final arbiter at insert time.
func (r *Repository) SlugExists(ctx context.Context, slug string) (bool, error) {
	ctx, span := tracing.StartSpan(ctx, "workspace.Repository.SlugExists")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("COUNT(*)")
	sb.From("workspaces")
	sb.Where(sb.Equal("slug", slug))

	query, args := sb.Build()
	var count int
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"slug": slug}).Error("Failed to check slug existence")
		return false, httperror.NewHTTPError(http.StatusInternalServerError, "failed to check slug")
	}
	return count > 0, nil
}

// ListByOwner retrieves the workspaces owned by a user with pagination
func (r *Repository) ListByOwner(ctx context.Context, ownerID string, page, pageSize int) (*models.WorkspaceListResponse, error) {
	ctx, span := tracing.StartSpan(ctx, "workspace.Repository.ListByOwner")
	defer span.End()

	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	countSb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	countSb.Select("COUNT(*)")
	countSb.From("workspaces")
	countSb.Where(countSb.Equal("owner_id", ownerID))

	countQuery, countArgs := countSb.Build()
	var totalCount int
	if err := r.db.GetContext(ctx, &totalCount, countQuery, countArgs...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"owner_id": ownerID}).Error("Failed to count workspaces")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to count workspaces")
	}

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns)
	sb.From("workspaces")
	sb.Where(sb.Equal("owner_id", ownerID))
	sb.OrderBy("created_at DESC")
	sb.Limit(pageSize).Offset(offset)

	query, args := sb.Build()
	var workspaces []models.Workspace
	if err := r.db.SelectContext(ctx, &workspaces, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"owner_id": ownerID}).Error("Failed to list workspaces")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list workspaces")
	}

	return &models.WorkspaceListResponse{
		Items:      workspaces,
		TotalCount: totalCount,
		Page:       page,
		PageSize:   pageSize,
	}, nil
}

// CreateTx inserts a workspace row through the caller's transaction. A unique
// violation on the slug constraint is surfaced as a retryable 409 so callers
// can re-derive a candidate slug; this is the concurrent-collision backstop
// behind the allocator's probe.
func (r *Repository) CreateTx(ctx context.Context, tx database.Tx, ws *models.Workspace) (*models.Workspace, error) {
	ctx, span := tracing.StartSpan(ctx, "workspace.Repository.CreateTx")
	defer span.End()

	if ws.ID == "" {
		ws.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	ws.CreatedAt = now
	ws.UpdatedAt = now

	sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
	sb.InsertInto("workspaces")
	sb.Cols("id", "name", "slug", "owner_id", "description", "image_url", "settings", "status", "plan_type", "created_at", "updated_at")
	sb.Values(ws.ID, ws.Name, ws.Slug, ws.OwnerID, ws.Description, ws.ImageURL, ws.Settings, ws.Status, ws.PlanType, ws.CreatedAt, ws.UpdatedAt)

	query, args := sb.Build()
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		if database.IsUniqueViolation(err) {
			r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"slug": ws.Slug}).Warn("Workspace slug taken by a concurrent writer")
			conflict := httperror.ToHTTPError(httperror.NewHTTPErrorf(http.StatusConflict, "workspace slug %q is already taken", ws.Slug))
			conflict.Meta = map[string]any{"retryable": true}
			return nil, conflict
		}
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"id": ws.ID, "slug": ws.Slug}).Error("Failed to create workspace")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to create workspace")
	}
	return ws, nil
}

// Update applies a partial update to a workspace
func (r *Repository) Update(ctx context.Context, id string, req models.UpdateWorkspaceRequest) (*models.Workspace, error) {
	ctx, span := tracing.StartSpan(ctx, "workspace.Repository.Update")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	sb.Update("workspaces")
	assignments := []string{sb.Assign("updated_at", time.Now().UTC())}
	if req.Name != nil {
		assignments = append(assignments, sb.Assign("name", *req.Name))
	}
	if req.Description != nil {
		assignments = append(assignments, sb.Assign("description", *req.Description))
	}
	if req.ImageURL != nil {
		assignments = append(assignments, sb.Assign("image_url", *req.ImageURL))
	}
	if req.Settings != nil {
		assignments = append(assignments, sb.Assign("settings", database.JSONB[models.WorkspaceSettings]{Data: *req.Settings}))
	}
	sb.Set(assignments...)
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"id": id}).Error("Failed to update workspace")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to update workspace")
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return nil, httperror.NewHTTPErrorf(http.StatusNotFound, "workspace %s not found", id)
	}

	return r.Get(ctx, id)
}

// Delete removes a workspace and, through cascading constraints, its funnels,
// pages, themes and settings.
func (r *Repository) Delete(ctx context.Context, id string) error {
	ctx, span := tracing.StartSpan(ctx, "workspace.Repository.Delete")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewDeleteBuilder()
	sb.DeleteFrom("workspaces")
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"id": id}).Error("Failed to delete workspace")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to delete workspace")
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return httperror.NewHTTPErrorf(http.StatusNotFound, "workspace %s not found", id)
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{"id": id}).Info("Deleted workspace")
	return nil
}
