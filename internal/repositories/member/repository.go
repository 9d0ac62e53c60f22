package member

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

const columns = "id, workspace_id, user_id, role, permissions, created_at"

// Repository handles workspace membership persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{db: db, logger: logger}
}

// Get retrieves a member row by workspace and user, nil when absent
func (r *Repository) Get(ctx context.Context, workspaceID, userID string) (*models.WorkspaceMember, error) {
	ctx, span := tracing.StartSpan(ctx, "member.Repository.Get")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns)
	sb.From("workspace_members")
	sb.Where(sb.Equal("workspace_id", workspaceID), sb.Equal("user_id", userID))

	query, args := sb.Build()
	var m models.WorkspaceMember
	if err := r.db.GetContext(ctx, &m, query, args...); err != nil {
		if database.IsNotFound(err) {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"workspace_id": workspaceID, "user_id": userID}).Error("Failed to get workspace member")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get workspace member")
	}
	return &m, nil
}

// ListByWorkspace retrieves all members of a workspace
func (r *Repository) ListByWorkspace(ctx context.Context, workspaceID string) ([]models.WorkspaceMember, error) {
	ctx, span := tracing.StartSpan(ctx, "member.Repository.ListByWorkspace")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns)
	sb.From("workspace_members")
	sb.Where(sb.Equal("workspace_id", workspaceID))
	sb.OrderBy("created_at ASC")

	query, args := sb.Build()
	var members []models.WorkspaceMember
	if err := r.db.SelectContext(ctx, &members, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"workspace_id": workspaceID}).Error("Failed to list workspace members")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list workspace members")
	}
	return members, nil
}

// Create inserts a member row. Inserting the same workspace/user pair twice is
// a conflict; the provisioner treats that as already bootstrapped.
func (r *Repository) Create(ctx context.Context, m *models.WorkspaceMember) (*models.WorkspaceMember, error) {
	ctx, span := tracing.StartSpan(ctx, "member.Repository.Create")
	defer span.End()

	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	m.CreatedAt = time.Now().UTC()

	sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
	sb.InsertInto("workspace_members")
	sb.Cols("id", "workspace_id", "user_id", "role", "permissions", "created_at")
	sb.Values(m.ID, m.WorkspaceID, m.UserID, m.Role, m.Permissions, m.CreatedAt)

	query, args := sb.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, httperror.NewHTTPErrorf(http.StatusConflict, "user %s is already a member of workspace %s", m.UserID, m.WorkspaceID)
		}
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"workspace_id": m.WorkspaceID, "user_id": m.UserID}).Error("Failed to create workspace member")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to create workspace member")
	}
	return m, nil
}
