package funnelsettings

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

const columns = "id, funnel_id, seo_title, seo_description, seo_keywords, google_analytics_id, facebook_pixel_id, cookie_consent_text, cookie_consent_on, legal_notice_url, is_password_protected, password_hash, created_at, updated_at"

// Repository handles funnel settings persistence (1:1 with funnels)
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{db: db, logger: logger}
}

// ListByFunnels returns the settings rows for the given funnels. Funnels
// without settings simply have no row.
func (r *Repository) ListByFunnels(ctx context.Context, funnelIDs []string) ([]models.FunnelSettings, error) {
	ctx, span := tracing.StartSpan(ctx, "funnelsettings.Repository.ListByFunnels")
	defer span.End()

	if len(funnelIDs) == 0 {
		return nil, nil
	}

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns)
	sb.From("funnel_settings")
	sb.Where(sb.In("funnel_id", sqlbuilder.Flatten(funnelIDs)...))

	query, args := sb.Build()
	var settings []models.FunnelSettings
	if err := r.db.SelectContext(ctx, &settings, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"funnel_ids": funnelIDs}).Error("Failed to list funnel settings")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list funnel settings")
	}
	return settings, nil
}

// CreateTx inserts a settings row through the caller's transaction
func (r *Repository) CreateTx(ctx context.Context, tx database.Tx, s *models.FunnelSettings) (*models.FunnelSettings, error) {
	ctx, span := tracing.StartSpan(ctx, "funnelsettings.Repository.CreateTx")
	defer span.End()

	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	s.CreatedAt = now
	s.UpdatedAt = now

	sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
	sb.InsertInto("funnel_settings")
	sb.Cols("id", "funnel_id", "seo_title", "seo_description", "seo_keywords", "google_analytics_id", "facebook_pixel_id", "cookie_consent_text", "cookie_consent_on", "legal_notice_url", "is_password_protected", "password_hash", "created_at", "updated_at")
	sb.Values(s.ID, s.FunnelID, s.SEOTitle, s.SEODescription, s.SEOKeywords, s.GoogleAnalyticsID, s.FacebookPixelID, s.CookieConsentText, s.CookieConsentOn, s.LegalNoticeURL, s.IsPasswordProtected, s.PasswordHash, s.CreatedAt, s.UpdatedAt)

	query, args := sb.Build()
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, httperror.NewHTTPErrorf(http.StatusConflict, "funnel %s already has settings", s.FunnelID)
		}
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"funnel_id": s.FunnelID}).Error("Failed to create funnel settings")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to create funnel settings")
	}
	return s, nil
}
