package cloneworkspace

import (
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/funnelforge/funnelforge/pkg/clone"
	"github.com/funnelforge/funnelforge/pkg/models"
	"github.com/funnelforge/funnelforge/pkg/tracing"
)

var validate = validator.New()

// Register registers the workspace clone route
func Register(g *echo.Group) {
	g.POST("/workspaces/:workspace_id/clone", Clone)
}

// Clone copies a workspace and its funnels, pages, themes and settings into a
// new workspace for the requested owner.
func Clone(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "cloneworkspace_handler.Clone")
	defer span.End()

	sourceWorkspaceID := c.Param("workspace_id")
	if sourceWorkspaceID == "" {
		return httperror.NewHTTPError(http.StatusBadRequest, "workspace_id is required")
	}

	var req models.CloneWorkspaceRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if err := validate.Struct(req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx, engine, err := ectoinject.GetContext[*clone.Engine](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get clone engine")
	}

	resp, err := engine.Clone(ctx, sourceWorkspaceID, req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, resp)
}
