package theme

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

const columns = "id, name, type, funnel_id, primary_color, secondary_color, background_color, text_color, typography, created_at, updated_at"

// Repository handles theme persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{db: db, logger: logger}
}

// GetByIDs returns the themes with the given ids
func (r *Repository) GetByIDs(ctx context.Context, ids []string) ([]models.Theme, error) {
	ctx, span := tracing.StartSpan(ctx, "theme.Repository.GetByIDs")
	defer span.End()

	if len(ids) == 0 {
		return nil, nil
	}

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns)
	sb.From("themes")
	sb.Where(sb.In("id", sqlbuilder.Flatten(ids)...))

	query, args := sb.Build()
	var themes []models.Theme
	if err := r.db.SelectContext(ctx, &themes, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"ids": ids}).Error("Failed to get themes")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get themes")
	}
	return themes, nil
}

// CreateTx inserts a theme row through the caller's transaction. CUSTOM
// themes are created with funnel_id unset and back-patched once the owning
// funnel exists; see SetFunnelTx.
func (r *Repository) CreateTx(ctx context.Context, tx database.Tx, t *models.Theme) (*models.Theme, error) {
	ctx, span := tracing.StartSpan(ctx, "theme.Repository.CreateTx")
	defer span.End()

	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now

	sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
	sb.InsertInto("themes")
	sb.Cols("id", "name", "type", "funnel_id", "primary_color", "secondary_color", "background_color", "text_color", "typography", "created_at", "updated_at")
	sb.Values(t.ID, t.Name, t.Type, t.FunnelID, t.PrimaryColor, t.SecondaryColor, t.BackgroundColor, t.TextColor, t.Typography, t.CreatedAt, t.UpdatedAt)

	query, args := sb.Build()
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"id": t.ID, "type": t.Type}).Error("Failed to create theme")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to create theme")
	}
	return t, nil
}

// SetFunnelTx back-patches the owning funnel of a CUSTOM theme inside the
// caller's transaction, resolving the funnel/theme circular reference.
func (r *Repository) SetFunnelTx(ctx context.Context, tx database.Tx, themeID, funnelID string) error {
	ctx, span := tracing.StartSpan(ctx, "theme.Repository.SetFunnelTx")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	sb.Update("themes")
	sb.Set(sb.Assign("funnel_id", funnelID), sb.Assign("updated_at", time.Now().UTC()))
	sb.Where(sb.Equal("id", themeID))

	query, args := sb.Build()
	result, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"theme_id": themeID, "funnel_id": funnelID}).Error("Failed to link theme to funnel")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to link theme to funnel")
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return httperror.NewHTTPErrorf(http.StatusNotFound, "theme %s not found", themeID)
	}
	return nil
}
