package subdomain

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

const columns = "id, workspace_id, host, status, created_at, updated_at"

// Repository handles subdomain record persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{db: db, logger: logger}
}

// GetByWorkspace retrieves the subdomain record for a workspace, nil when absent
func (r *Repository) GetByWorkspace(ctx context.Context, workspaceID string) (*models.Subdomain, error) {
	ctx, span := tracing.StartSpan(ctx, "subdomain.Repository.GetByWorkspace")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns)
	sb.From("subdomains")
	sb.Where(sb.Equal("workspace_id", workspaceID))

	query, args := sb.Build()
	var sd models.Subdomain
	if err := r.db.GetContext(ctx, &sd, query, args...); err != nil {
		if database.IsNotFound(err) {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"workspace_id": workspaceID}).Error("Failed to get subdomain")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get subdomain")
	}
	return &sd, nil
}

// Create inserts a subdomain record
func (r *Repository) Create(ctx context.Context, sd *models.Subdomain) (*models.Subdomain, error) {
	ctx, span := tracing.StartSpan(ctx, "subdomain.Repository.Create")
	defer span.End()

	if sd.ID == "" {
		sd.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	sd.CreatedAt = now
	sd.UpdatedAt = now

	sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
	sb.InsertInto("subdomains")
	sb.Cols("id", "workspace_id", "host", "status", "created_at", "updated_at")
	sb.Values(sd.ID, sd.WorkspaceID, sd.Host, sd.Status, sd.CreatedAt, sd.UpdatedAt)

	query, args := sb.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, httperror.NewHTTPErrorf(http.StatusConflict, "subdomain for workspace %s already exists", sd.WorkspaceID)
		}
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"workspace_id": sd.WorkspaceID, "host": sd.Host}).Error("Failed to create subdomain")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to create subdomain")
	}
	return sd, nil
}

// SetStatus updates the provisioning status of a subdomain record
func (r *Repository) SetStatus(ctx context.Context, id string, status models.SubdomainStatus) error {
	ctx, span := tracing.StartSpan(ctx, "subdomain.Repository.SetStatus")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	sb.Update("subdomains")
	sb.Set(sb.Assign("status", status), sb.Assign("updated_at", time.Now().UTC()))
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"id": id, "status": status}).Error("Failed to update subdomain status")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to update subdomain status")
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return httperror.NewHTTPErrorf(http.StatusNotFound, "subdomain %s not found", id)
	}
	return nil
}
