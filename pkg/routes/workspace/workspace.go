package workspace

import (
	"net/http"
	"strconv"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/labstack/echo/v4"

	"github.com/funnelforge/funnelforge/internal/repositories/workspace"
	"github.com/funnelforge/funnelforge/pkg/appcontext"
	"github.com/funnelforge/funnelforge/pkg/cache"
	"github.com/funnelforge/funnelforge/pkg/events"
	"github.com/funnelforge/funnelforge/pkg/models"
	"github.com/funnelforge/funnelforge/pkg/tracing"
)

// Register registers workspace routes
func Register(g *echo.Group) {
	g.GET("/workspaces", List)
	g.GET("/workspaces/:workspace_id", Get)
	g.PUT("/workspaces/:workspace_id", Update)
	g.DELETE("/workspaces/:workspace_id", Delete)
}

// List returns the caller's workspaces
func List(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "workspace_handler.List")
	defer span.End()

	ownerID := appcontext.GetUserID(ctx)
	if ownerID == "" {
		return httperror.NewHTTPError(http.StatusUnauthorized, "user id is required")
	}

	page, _ := strconv.Atoi(c.QueryParam("page"))
	pageSize, _ := strconv.Atoi(c.QueryParam("page_size"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}

	ctx, workspaceCache, err := ectoinject.GetContext[*cache.Workspaces](ctx)
	if err == nil && workspaceCache != nil {
		if cached := workspaceCache.GetOwnerList(ctx, ownerID, page, pageSize); cached != nil {
			return c.JSON(http.StatusOK, cached)
		}
	}

	ctx, repo, err := ectoinject.GetContext[*workspace.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get repository")
	}

	list, err := repo.ListByOwner(ctx, ownerID, page, pageSize)
	if err != nil {
		return err
	}

	if workspaceCache != nil {
		workspaceCache.SetOwnerList(ctx, ownerID, page, pageSize, list)
	}
	return c.JSON(http.StatusOK, list)
}

// Get returns a single workspace by ID
func Get(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "workspace_handler.Get")
	defer span.End()

	id := c.Param("workspace_id")

	ctx, workspaceCache, err := ectoinject.GetContext[*cache.Workspaces](ctx)
	if err == nil && workspaceCache != nil {
		if cached := workspaceCache.GetWorkspace(ctx, id); cached != nil {
			return c.JSON(http.StatusOK, cached)
		}
	}

	ctx, repo, err := ectoinject.GetContext[*workspace.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get repository")
	}

	ws, err := repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if ws == nil {
		return httperror.NewHTTPErrorf(http.StatusNotFound, "workspace %s not found", id)
	}

	if workspaceCache != nil {
		workspaceCache.SetWorkspace(ctx, ws)
	}
	return c.JSON(http.StatusOK, ws)
}

// Update applies a partial update to a workspace
func Update(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "workspace_handler.Update")
	defer span.End()

	id := c.Param("workspace_id")

	var req models.UpdateWorkspaceRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	ctx, repo, err := ectoinject.GetContext[*workspace.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get repository")
	}

	ws, err := repo.Update(ctx, id, req)
	if err != nil {
		return err
	}

	invalidate(c, ws.ID, ws.OwnerID)

	ctx, emitter, err := ectoinject.GetContext[*events.Emitter](ctx)
	if err == nil && emitter != nil {
		_ = emitter.WorkspaceUpdated(ctx, ws)
	}

	return c.JSON(http.StatusOK, ws)
}

// Delete removes a workspace and everything it owns
func Delete(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "workspace_handler.Delete")
	defer span.End()

	id := c.Param("workspace_id")

	ctx, repo, err := ectoinject.GetContext[*workspace.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get repository")
	}

	ws, err := repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if ws == nil {
		return httperror.NewHTTPErrorf(http.StatusNotFound, "workspace %s not found", id)
	}

	if err := repo.Delete(ctx, id); err != nil {
		return err
	}

	invalidate(c, id, ws.OwnerID)

	ctx, emitter, err := ectoinject.GetContext[*events.Emitter](ctx)
	if err == nil && emitter != nil {
		_ = emitter.WorkspaceDeleted(ctx, id)
	}

	return c.JSON(http.StatusOK, map[string]string{"message": "workspace deleted"})
}

func invalidate(c echo.Context, workspaceID, ownerID string) {
	ctx := c.Request().Context()
	ctx, workspaceCache, err := ectoinject.GetContext[*cache.Workspaces](ctx)
	if err != nil || workspaceCache == nil {
		return
	}
	_ = workspaceCache.InvalidateWorkspace(ctx, workspaceID)
	_ = workspaceCache.InvalidateOwnerWorkspaces(ctx, ownerID)
}
