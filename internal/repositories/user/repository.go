package user

import (
	"context"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/huandu/go-sqlbuilder"

	"github.com/funnelforge/funnelforge/pkg/database"
	"github.com/funnelforge/funnelforge/pkg/models"
	"github.com/funnelforge/funnelforge/pkg/tracing"
)

// Repository handles user reads. Accounts are created by the auth service;
// this service only resolves them.
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{db: db, logger: logger}
}

// Get returns the user with the given id, or nil when no such user exists.
func (r *Repository) Get(ctx context.Context, id string) (*models.User, error) {
	ctx, span := tracing.StartSpan(ctx, "user.Repository.Get")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("id", "handle", "email", "name", "created_at")
	sb.From("users")
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, args...); err != nil {
		if database.IsNotFound(err) {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"id": id}).Error("Failed to get user")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get user")
	}
	return &user, nil
}

// GetByHandle returns the user owning the given handle, or nil when absent.
func (r *Repository) GetByHandle(ctx context.Context, handle string) (*models.User, error) {
	ctx, span := tracing.StartSpan(ctx, "user.Repository.GetByHandle")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("id", "handle", "email", "name", "created_at")
	sb.From("users")
	sb.Where(sb.Equal("handle", handle))

	query, args := sb.Build()
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, args...); err != nil {
		if database.IsNotFound(err) {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"handle": handle}).Error("Failed to get user by handle")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get user")
	}
	return &user, nil
}
