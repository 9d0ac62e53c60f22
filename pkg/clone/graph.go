package clone

import (
	"context"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"

	"github.com/funnelforge/funnelforge/pkg/models"
	"github.com/funnelforge/funnelforge/pkg/tracing"
)

// FunnelNode is a funnel together with its owned sub-resources
type FunnelNode struct {
	Funnel      models.Funnel
	Pages       []models.Page
	Settings    *models.FunnelSettings
	ActiveTheme *models.Theme
}

// SourceGraph is a fully materialized snapshot of a workspace and its owned
// subtree. The orchestrator copies from this snapshot only and performs no
// further reads of source data once the transaction starts.
type SourceGraph struct {
	Workspace     models.Workspace
	Funnels       []FunnelNode
	RoleTemplates []models.RolePermissionTemplate
}

// PageCount returns the total number of pages across all funnels
func (g *SourceGraph) PageCount() int {
	total := 0
	for _, node := range g.Funnels {
		total += len(node.Pages)
	}
	return total
}

// loadSourceGraph loads the source workspace and its full owned subtree. Pages
// arrive ordered by position per funnel, so the snapshot preserves the source
// sequence without re-sorting.
func (e *Engine) loadSourceGraph(ctx context.Context, workspaceID string) (*SourceGraph, error) {
	ctx, span := tracing.StartSpan(ctx, "clone.Engine.loadSourceGraph")
	defer span.End()

	ws, err := e.workspaces.Get(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	if ws == nil {
		return nil, httperror.NewHTTPErrorf(http.StatusNotFound, "workspace %s not found", workspaceID)
	}

	funnels, err := e.funnels.ListByWorkspace(ctx, workspaceID)
	if err != nil {
		return nil, err
	}

	templates, err := e.roleTemplates.ListByWorkspace(ctx, workspaceID)
	if err != nil {
		return nil, err
	}

	graph := &SourceGraph{
		Workspace:     *ws,
		Funnels:       make([]FunnelNode, 0, len(funnels)),
		RoleTemplates: templates,
	}
	if len(funnels) == 0 {
		return graph, nil
	}

	funnelIDs := make([]string, 0, len(funnels))
	themeIDs := make([]string, 0, len(funnels))
	for _, f := range funnels {
		funnelIDs = append(funnelIDs, f.ID)
		if f.ActiveThemeID != nil {
			themeIDs = append(themeIDs, *f.ActiveThemeID)
		}
	}

	pages, err := e.pages.ListByFunnels(ctx, funnelIDs)
	if err != nil {
		return nil, err
	}
	pagesByFunnel := make(map[string][]models.Page, len(funnels))
	for _, p := range pages {
		pagesByFunnel[p.FunnelID] = append(pagesByFunnel[p.FunnelID], p)
	}

	settings, err := e.settings.ListByFunnels(ctx, funnelIDs)
	if err != nil {
		return nil, err
	}
	settingsByFunnel := make(map[string]models.FunnelSettings, len(settings))
	for _, s := range settings {
		settingsByFunnel[s.FunnelID] = s
	}

	themesByID := make(map[string]models.Theme, len(themeIDs))
	if len(themeIDs) > 0 {
		themes, err := e.themes.GetByIDs(ctx, themeIDs)
		if err != nil {
			return nil, err
		}
		for _, t := range themes {
			themesByID[t.ID] = t
		}
	}

	for _, f := range funnels {
		node := FunnelNode{
			Funnel: f,
			Pages:  pagesByFunnel[f.ID],
		}
		if s, ok := settingsByFunnel[f.ID]; ok {
			settingsCopy := s
			node.Settings = &settingsCopy
		}
		if f.ActiveThemeID != nil {
			if t, ok := themesByID[*f.ActiveThemeID]; ok {
				themeCopy := t
				node.ActiveTheme = &themeCopy
			} else {
				e.logger.WithContext(ctx).WithFields(map[string]any{
					"funnel_id": f.ID,
					"theme_id":  *f.ActiveThemeID,
				}).Warn("Funnel references a missing theme, cloning without it")
			}
		}
		graph.Funnels = append(graph.Funnels, node)
	}

	return graph, nil
}
