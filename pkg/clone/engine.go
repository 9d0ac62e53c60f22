// Package clone implements the workspace clone engine: a transactional copy
// of a workspace and its owned subtree (funnels, pages, themes, settings,
// permission templates) into a new workspace for a new owner, gated by an
// optional one-shot payment.
package clone

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"

	"github.com/funnelforge/funnelforge/pkg/database"
	"github.com/funnelforge/funnelforge/pkg/metrics"
	"github.com/funnelforge/funnelforge/pkg/models"
	"github.com/funnelforge/funnelforge/pkg/tracing"
)

// Engine orchestrates workspace clones. All copy steps run inside a single
// transaction; a failure at any step leaves no partial rows behind.
type Engine struct {
	logger          ectologger.Logger
	workspaces      WorkspaceRepository
	funnels         FunnelRepository
	pages           PageRepository
	themes          ThemeRepository
	settings        FunnelSettingsRepository
	roleTemplates   RolePermissionRepository
	payments        PaymentRepository
	users           UserRepository
	cloneRecords    CloneRecordRepository
	provisioner     Provisioner
	emitter         EventEmitter
	cache           CacheInvalidator
	slugMaxAttempts int
}

// NewEngine creates a new clone engine. Provisioner, emitter and cache are
// post-commit collaborators and may be nil.
func NewEngine(
	logger ectologger.Logger,
	workspaces WorkspaceRepository,
	funnels FunnelRepository,
	pages PageRepository,
	themes ThemeRepository,
	settings FunnelSettingsRepository,
	roleTemplates RolePermissionRepository,
	payments PaymentRepository,
	users UserRepository,
	cloneRecords CloneRecordRepository,
	provisioner Provisioner,
	emitter EventEmitter,
	cache CacheInvalidator,
	slugMaxAttempts int,
) *Engine {
	if slugMaxAttempts <= 0 {
		slugMaxAttempts = 500
	}
	return &Engine{
		logger:          logger,
		workspaces:      workspaces,
		funnels:         funnels,
		pages:           pages,
		themes:          themes,
		settings:        settings,
		roleTemplates:   roleTemplates,
		payments:        payments,
		users:           users,
		cloneRecords:    cloneRecords,
		provisioner:     provisioner,
		emitter:         emitter,
		cache:           cache,
		slugMaxAttempts: slugMaxAttempts,
	}
}

type cloneResult struct {
	workspace     *models.Workspace
	cloneRecordID *string
	funnelCount   int
	pageCount     int
	themeCount    int
}

// Clone copies the source workspace and its owned subtree into a new workspace
// for req.NewOwnerID.
//
// Behavior:
//   - Payment, owner and source existence are pre-checked before any
//     transactional work so requests destined to fail spend nothing.
//   - The new slug is probed optimistically; the unique constraint on
//     workspaces.slug decides concurrent races at insert time.
//   - All copy steps, including the provenance record that consumes the
//     payment, commit or abort together.
//   - Post-commit provisioning, cache invalidation and event emission are
//     best-effort and never fail a committed clone.
func (e *Engine) Clone(ctx context.Context, sourceWorkspaceID string, req models.CloneWorkspaceRequest) (*models.CloneWorkspaceResponse, error) {
	ctx, span := tracing.StartSpan(ctx, "clone.Engine.Clone")
	defer span.End()

	start := time.Now()
	log := e.logger.WithContext(ctx).WithFields(map[string]any{
		"source_workspace_id": sourceWorkspaceID,
		"new_owner_id":        req.NewOwnerID,
		"plan_type":           req.PlanType,
	})

	if !req.PlanType.Valid() {
		return nil, httperror.NewHTTPErrorf(http.StatusBadRequest, "unknown plan type %q", req.PlanType)
	}

	payment, err := e.validatePayment(ctx, req.PaymentTransactionID)
	if err != nil {
		metrics.RecordClone("rejected", time.Since(start).Seconds())
		return nil, err
	}

	owner, err := e.users.Get(ctx, req.NewOwnerID)
	if err != nil {
		metrics.RecordClone("failed", time.Since(start).Seconds())
		return nil, err
	}
	if owner == nil {
		metrics.RecordClone("rejected", time.Since(start).Seconds())
		return nil, httperror.NewHTTPErrorf(http.StatusNotFound, "owner %s not found", req.NewOwnerID)
	}

	graph, err := e.loadSourceGraph(ctx, sourceWorkspaceID)
	if err != nil {
		metrics.RecordClone("failed", time.Since(start).Seconds())
		return nil, err
	}

	slugBase := owner.Handle
	if slugify(slugBase) == "" {
		slugBase = graph.Workspace.Slug
	}
	slug, err := e.allocateSlug(ctx, slugBase)
	if err != nil {
		metrics.RecordClone("failed", time.Since(start).Seconds())
		return nil, err
	}

	ctxTx, tx, err := e.workspaces.DB().GetTx(ctx, &sql.TxOptions{})
	if err != nil {
		metrics.RecordClone("failed", time.Since(start).Seconds())
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to begin clone transaction")
	}
	defer tx.Rollback(ctxTx)

	result, err := e.copyGraph(ctxTx, tx, graph, owner, slug, req.PlanType, payment)
	if err != nil {
		metrics.RecordClone("failed", time.Since(start).Seconds())
		return nil, err
	}

	if err := tx.Commit(ctxTx); err != nil {
		log.WithError(err).Error("Failed to commit clone transaction")
		metrics.RecordClone("failed", time.Since(start).Seconds())
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to commit clone")
	}

	metrics.RecordClone("success", time.Since(start).Seconds())
	metrics.CloneEntitiesCopied.WithLabelValues("workspace").Inc()
	metrics.CloneEntitiesCopied.WithLabelValues("funnel").Add(float64(result.funnelCount))
	metrics.CloneEntitiesCopied.WithLabelValues("page").Add(float64(result.pageCount))
	metrics.CloneEntitiesCopied.WithLabelValues("theme").Add(float64(result.themeCount))

	log.WithFields(map[string]any{
		"cloned_workspace_id": result.workspace.ID,
		"slug":                result.workspace.Slug,
		"funnels":             result.funnelCount,
		"pages":               result.pageCount,
		"duration_ms":         time.Since(start).Milliseconds(),
	}).Info("Cloned workspace")

	e.afterClone(ctx, sourceWorkspaceID, result)

	return &models.CloneWorkspaceResponse{
		Message:           "workspace cloned successfully",
		ClonedWorkspaceID: result.workspace.ID,
		ClonedWorkspace:   result.workspace.Summary(),
		CloneRecordID:     result.cloneRecordID,
	}, nil
}

// copyGraph walks the materialized snapshot and writes the clone through tx.
// Any error aborts the caller's transaction; no compensation logic is needed
// because nothing commits on failure.
func (e *Engine) copyGraph(
	ctx context.Context,
	tx database.Tx,
	graph *SourceGraph,
	owner *models.User,
	slug string,
	planType models.PlanType,
	payment *models.Payment,
) (*cloneResult, error) {
	ctx, span := tracing.StartSpan(ctx, "clone.Engine.copyGraph")
	defer span.End()

	source := graph.Workspace
	workspace, err := e.workspaces.CreateTx(ctx, tx, &models.Workspace{
		Name:        source.Name,
		Slug:        slug,
		OwnerID:     owner.ID,
		Description: source.Description,
		ImageURL:    source.ImageURL,
		Settings:    source.Settings,
		Status:      models.WorkspaceStatusActive,
		PlanType:    planType,
	})
	if err != nil {
		return nil, err
	}

	if len(graph.RoleTemplates) > 0 {
		templates := make([]models.RolePermissionTemplate, 0, len(graph.RoleTemplates))
		for _, t := range graph.RoleTemplates {
			templates = append(templates, models.RolePermissionTemplate{
				WorkspaceID: workspace.ID,
				Role:        t.Role,
				Permissions: t.Permissions,
			})
		}
		if err := e.roleTemplates.CreateBatchTx(ctx, tx, templates); err != nil {
			return nil, err
		}
	}

	result := &cloneResult{workspace: workspace}
	for _, node := range graph.Funnels {
		if err := e.copyFunnel(ctx, tx, workspace, owner, planType, node, result); err != nil {
			return nil, err
		}
	}

	// The provenance insert is what permanently consumes the payment through
	// the unique constraint on payment_id. Un-gated clones leave no record,
	// so callers can tell "no payment" apart from any real record id.
	if payment != nil {
		record, err := e.cloneRecords.CreateTx(ctx, tx, &models.WorkspaceClone{
			SourceWorkspaceID: source.ID,
			ClonedWorkspaceID: workspace.ID,
			SellerID:          source.OwnerID,
			BuyerID:           owner.ID,
			PaymentID:         &payment.ID,
		})
		if err != nil {
			return nil, err
		}
		result.cloneRecordID = &record.ID
	}

	return result, nil
}

// copyFunnel copies one funnel node: theme resolution first, then the funnel
// row, the CUSTOM theme back-patch, settings with redaction, and pages. The
// theme must exist before the funnel that references it; everything else in
// this order is only there to keep reads of the clone human-sensible.
func (e *Engine) copyFunnel(
	ctx context.Context,
	tx database.Tx,
	workspace *models.Workspace,
	owner *models.User,
	planType models.PlanType,
	node FunnelNode,
	result *cloneResult,
) error {
	source := node.Funnel

	var activeThemeID *string
	var pendingTheme *models.Theme
	if node.ActiveTheme != nil {
		switch node.ActiveTheme.Type {
		case models.ThemeTypeGlobal:
			// Shared by reference, never duplicated.
			id := node.ActiveTheme.ID
			activeThemeID = &id
		case models.ThemeTypeCustom:
			// Duplicated with funnel_id unset; the owning funnel does not
			// exist yet, so the link is back-patched below.
			created, err := e.themes.CreateTx(ctx, tx, &models.Theme{
				Name:            node.ActiveTheme.Name,
				Type:            models.ThemeTypeCustom,
				PrimaryColor:    node.ActiveTheme.PrimaryColor,
				SecondaryColor:  node.ActiveTheme.SecondaryColor,
				BackgroundColor: node.ActiveTheme.BackgroundColor,
				TextColor:       node.ActiveTheme.TextColor,
				Typography:      node.ActiveTheme.Typography,
			})
			if err != nil {
				return err
			}
			activeThemeID = &created.ID
			pendingTheme = created
			result.themeCount++
		}
	}

	funnel, err := e.funnels.CreateTx(ctx, tx, &models.Funnel{
		Name:          source.Name,
		Slug:          source.Slug,
		Status:        source.Status,
		WorkspaceID:   workspace.ID,
		CreatedBy:     owner.ID,
		ActiveThemeID: activeThemeID,
	})
	if err != nil {
		return err
	}
	result.funnelCount++

	if pendingTheme != nil {
		if err := e.themes.SetFunnelTx(ctx, tx, pendingTheme.ID, funnel.ID); err != nil {
			return err
		}
	}

	if node.Settings != nil {
		settings := models.FunnelSettings{
			FunnelID:            funnel.ID,
			SEOTitle:            node.Settings.SEOTitle,
			SEODescription:      node.Settings.SEODescription,
			SEOKeywords:         node.Settings.SEOKeywords,
			GoogleAnalyticsID:   node.Settings.GoogleAnalyticsID,
			FacebookPixelID:     node.Settings.FacebookPixelID,
			CookieConsentText:   node.Settings.CookieConsentText,
			CookieConsentOn:     node.Settings.CookieConsentOn,
			LegalNoticeURL:      node.Settings.LegalNoticeURL,
			IsPasswordProtected: node.Settings.IsPasswordProtected,
			PasswordHash:        node.Settings.PasswordHash,
		}
		redactSettings(&settings, planType)
		if _, err := e.settings.CreateTx(ctx, tx, &settings); err != nil {
			return err
		}
	}

	if len(node.Pages) > 0 {
		pages := make([]models.Page, 0, len(node.Pages))
		for _, p := range node.Pages {
			pages = append(pages, models.Page{
				Name:           p.Name,
				Content:        p.Content,
				Position:       p.Position,
				LinkingID:      p.LinkingID,
				FunnelID:       funnel.ID,
				Type:           p.Type,
				SEOTitle:       p.SEOTitle,
				SEODescription: p.SEODescription,
				SEOKeywords:    p.SEOKeywords,
			})
		}
		if err := e.pages.CreateBatchTx(ctx, tx, pages); err != nil {
			return err
		}
		result.pageCount += len(pages)
	}

	return nil
}

// afterClone runs the best-effort post-commit side effects. Failures here are
// logged and counted but never surfaced; the clone already committed.
func (e *Engine) afterClone(ctx context.Context, sourceWorkspaceID string, result *cloneResult) {
	log := e.logger.WithContext(ctx).WithFields(map[string]any{
		"cloned_workspace_id": result.workspace.ID,
	})

	if e.cache != nil {
		if err := e.cache.InvalidateWorkspace(ctx, sourceWorkspaceID); err != nil {
			log.WithError(err).Warn("Failed to invalidate source workspace cache")
		}
		if err := e.cache.InvalidateOwnerWorkspaces(ctx, result.workspace.OwnerID); err != nil {
			log.WithError(err).Warn("Failed to invalidate owner workspace cache")
		}
	}

	if e.provisioner != nil {
		if err := e.provisioner.ProvisionWorkspace(ctx, result.workspace); err != nil {
			log.WithError(err).Warn("Post-clone provisioning failed, clone remains committed")
			metrics.ProvisionerRunsTotal.WithLabelValues("failed").Inc()
		} else {
			metrics.ProvisionerRunsTotal.WithLabelValues("success").Inc()
		}
	}

	if e.emitter != nil {
		if err := e.emitter.WorkspaceCloned(ctx, sourceWorkspaceID, result.workspace, result.cloneRecordID); err != nil {
			log.WithError(err).Warn("Failed to emit workspace cloned event")
		}
	}
}
