package funnel

import (
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/labstack/echo/v4"

	"github.com/funnelforge/funnelforge/internal/repositories/funnel"
	"github.com/funnelforge/funnelforge/pkg/models"
	"github.com/funnelforge/funnelforge/pkg/tracing"
)

// Register registers funnel routes
func Register(g *echo.Group) {
	g.GET("/workspaces/:workspace_id/funnels", List)
	g.GET("/funnels/:funnel_id", Get)
}

// List returns the funnels in a workspace
func List(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "funnel_handler.List")
	defer span.End()

	workspaceID := c.Param("workspace_id")

	ctx, repo, err := ectoinject.GetContext[*funnel.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get repository")
	}

	funnels, err := repo.ListByWorkspace(ctx, workspaceID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, models.FunnelListResponse{
		Items:      funnels,
		TotalCount: len(funnels),
	})
}

// Get returns a single funnel by ID
func Get(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "funnel_handler.Get")
	defer span.End()

	id := c.Param("funnel_id")

	ctx, repo, err := ectoinject.GetContext[*funnel.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get repository")
	}

	f, err := repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if f == nil {
		return httperror.NewHTTPErrorf(http.StatusNotFound, "funnel %s not found", id)
	}

	return c.JSON(http.StatusOK, f)
}
