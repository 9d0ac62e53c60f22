package page

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

const columns = "id, name, content, position, linking_id, funnel_id, type, seo_title, seo_description, seo_keywords, visits, created_at, updated_at"

// Repository handles page persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{db: db, logger: logger}
}

// ListByFunnels returns the pages of the given funnels in ascending position
// order. Used by the clone graph reader to materialize the source subtree in
// one query rather than per funnel.
func (r *Repository) ListByFunnels(ctx context.Context, funnelIDs []string) ([]models.Page, error) {
	ctx, span := tracing.StartSpan(ctx, "page.Repository.ListByFunnels")
	defer span.End()

	if len(funnelIDs) == 0 {
		return nil, nil
	}

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns)
	sb.From("pages")
	sb.Where(sb.In("funnel_id", sqlbuilder.Flatten(funnelIDs)...))
	sb.OrderBy("funnel_id", "position")

	query, args := sb.Build()
	var pages []models.Page
	if err := r.db.SelectContext(ctx, &pages, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"funnel_ids": funnelIDs}).Error("Failed to list pages")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list pages")
	}
	return pages, nil
}

// CreateBatchTx inserts page rows through the caller's transaction, in the
// order given. Visits is intentionally left to the column default of 0.
func (r *Repository) CreateBatchTx(ctx context.Context, tx database.Tx, pages []models.Page) error {
	ctx, span := tracing.StartSpan(ctx, "page.Repository.CreateBatchTx")
	defer span.End()

	if len(pages) == 0 {
		return nil
	}

	now := time.Now().UTC()
	sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
	sb.InsertInto("pages")
	sb.Cols("id", "name", "content", "position", "linking_id", "funnel_id", "type", "seo_title", "seo_description", "seo_keywords", "created_at", "updated_at")
	for i := range pages {
		if pages[i].ID == "" {
			pages[i].ID = uuid.New().String()
		}
		pages[i].CreatedAt = now
		pages[i].UpdatedAt = now
		p := pages[i]
		sb.Values(p.ID, p.Name, p.Content, p.Position, p.LinkingID, p.FunnelID, p.Type, p.SEOTitle, p.SEODescription, p.SEOKeywords, now, now)
	}

	query, args := sb.Build()
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		if database.IsUniqueViolation(err) {
			return httperror.NewHTTPError(http.StatusConflict, "page position collision within funnel")
		}
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"count": len(pages)}).Error("Failed to create pages")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to create pages")
	}
	return nil
}
