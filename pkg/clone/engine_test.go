package clone

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/funnelforge/funnelforge/pkg/database"
	"github.com/funnelforge/funnelforge/pkg/models"
)

func strptr(s string) *string { return &s }

// seedScenario builds a source workspace with two funnels: one LIVE with two
// pages, a CUSTOM theme and password-protected settings, one DRAFT with a
// single page and a GLOBAL theme and no settings.
func seedScenario(s *fakeStore) {
	s.users["seller-1"] = models.User{ID: "seller-1", Handle: "acme", Email: "seller@acme.test"}
	s.users["buyer-1"] = models.User{ID: "buyer-1", Handle: "buyer", Email: "buyer@example.test"}

	s.workspaces["ws-src"] = models.Workspace{
		ID:          "ws-src",
		Name:        "Acme Funnels",
		Slug:        "acme-funnels",
		OwnerID:     "seller-1",
		Description: "Launch funnels for Acme",
		ImageURL:    "https://cdn.test/acme.png",
		Settings:    database.JSONB[models.WorkspaceSettings]{Data: models.WorkspaceSettings{BrandColor: "#ff6600", DefaultLocale: "en"}},
		Status:      models.WorkspaceStatusActive,
		PlanType:    models.PlanAgency,
	}

	s.themes["theme-global"] = models.Theme{ID: "theme-global", Name: "Clean Light", Type: models.ThemeTypeGlobal}
	s.themes["theme-custom"] = models.Theme{
		ID:           "theme-custom",
		Name:         "Acme Brand",
		Type:         models.ThemeTypeCustom,
		FunnelID:     strptr("funnel-a"),
		PrimaryColor: "#ff6600",
		TextColor:    "#222222",
	}

	s.funnels = append(s.funnels,
		models.Funnel{
			ID:            "funnel-a",
			Name:          "Product Launch",
			Slug:          "launch",
			Status:        models.FunnelStatusLive,
			WorkspaceID:   "ws-src",
			CreatedBy:     "seller-1",
			ActiveThemeID: strptr("theme-custom"),
		},
		models.Funnel{
			ID:            "funnel-b",
			Name:          "Waitlist",
			Slug:          "waitlist",
			Status:        models.FunnelStatusDraft,
			WorkspaceID:   "ws-src",
			CreatedBy:     "seller-1",
			ActiveThemeID: strptr("theme-global"),
		},
	)

	s.pages = append(s.pages,
		models.Page{ID: "page-a1", Name: "Landing", Content: json.RawMessage(`{"blocks":[]}`), Position: 1, LinkingID: "lnk-a1", FunnelID: "funnel-a", Type: models.PageTypeLanding, Visits: 42},
		models.Page{ID: "page-a2", Name: "Checkout", Content: json.RawMessage(`{"blocks":[]}`), Position: 2, LinkingID: "lnk-a2", FunnelID: "funnel-a", Type: models.PageTypeCheckout, Visits: 7},
		models.Page{ID: "page-b1", Name: "Join", Content: json.RawMessage(`{"blocks":[]}`), Position: 1, LinkingID: "lnk-b1", FunnelID: "funnel-b", Type: models.PageTypeGeneric, Visits: 3},
	)

	s.settings = append(s.settings, models.FunnelSettings{
		ID:                  "settings-a",
		FunnelID:            "funnel-a",
		SEOTitle:            "Acme Launch",
		GoogleAnalyticsID:   strptr("GA-123"),
		FacebookPixelID:     strptr("FB-456"),
		CookieConsentOn:     true,
		IsPasswordProtected: true,
		PasswordHash:        strptr("$2a$10$hash"),
	})

	s.templates = append(s.templates, models.RolePermissionTemplate{
		ID:          "template-1",
		WorkspaceID: "ws-src",
		Role:        "editor",
		Permissions: database.JSONB[[]string]{Data: []string{"funnels.read", "funnels.write"}},
	})

	s.payments["txn-1"] = models.Payment{ID: "pay-1", TransactionID: "txn-1", Status: models.PaymentStatusCompleted, BuyerID: "buyer-1"}
}

func cloneRequest(plan models.PlanType, paymentTxn string) models.CloneWorkspaceRequest {
	return models.CloneWorkspaceRequest{
		NewOwnerID:           "buyer-1",
		PaymentTransactionID: paymentTxn,
		PlanType:             plan,
	}
}

func TestClone_EndToEnd(t *testing.T) {
	store := newFakeStore()
	seedScenario(store)
	engine := newTestEngine(store)

	resp, err := engine.Clone(context.Background(), "ws-src", cloneRequest(models.PlanBusiness, "txn-1"))
	require.NoError(t, err)
	require.NotNil(t, resp)

	assert.Equal(t, "buyer", resp.ClonedWorkspace.Slug)
	assert.Equal(t, "Acme Funnels", resp.ClonedWorkspace.Name)
	assert.Equal(t, models.PlanBusiness, resp.ClonedWorkspace.PlanType)
	require.NotNil(t, resp.CloneRecordID)

	cloned, ok := store.workspaces[resp.ClonedWorkspaceID]
	require.True(t, ok, "cloned workspace should be committed")
	assert.Equal(t, "buyer-1", cloned.OwnerID)
	assert.Equal(t, models.WorkspaceStatusActive, cloned.Status)
	assert.Equal(t, "Launch funnels for Acme", cloned.Description)
	assert.Equal(t, "#ff6600", cloned.Settings.Data.BrandColor)

	var newFunnels []models.Funnel
	for _, f := range store.funnels {
		if f.WorkspaceID == cloned.ID {
			newFunnels = append(newFunnels, f)
		}
	}
	require.Len(t, newFunnels, 2)
	assert.Equal(t, "Product Launch", newFunnels[0].Name)
	assert.Equal(t, "launch", newFunnels[0].Slug)
	assert.Equal(t, models.FunnelStatusLive, newFunnels[0].Status)
	assert.Equal(t, "buyer-1", newFunnels[0].CreatedBy)
	assert.Equal(t, "Waitlist", newFunnels[1].Name)
	assert.Equal(t, models.FunnelStatusDraft, newFunnels[1].Status)

	// CUSTOM theme duplicated and back-patched to the new funnel.
	require.NotNil(t, newFunnels[0].ActiveThemeID)
	assert.NotEqual(t, "theme-custom", *newFunnels[0].ActiveThemeID)
	newTheme := store.themes[*newFunnels[0].ActiveThemeID]
	assert.Equal(t, models.ThemeTypeCustom, newTheme.Type)
	assert.Equal(t, "Acme Brand", newTheme.Name)
	assert.Equal(t, "#ff6600", newTheme.PrimaryColor)
	require.NotNil(t, newTheme.FunnelID)
	assert.Equal(t, newFunnels[0].ID, *newTheme.FunnelID)

	// GLOBAL theme shared by reference.
	require.NotNil(t, newFunnels[1].ActiveThemeID)
	assert.Equal(t, "theme-global", *newFunnels[1].ActiveThemeID)

	var newPages []models.Page
	for _, p := range store.pages {
		if p.FunnelID == newFunnels[0].ID || p.FunnelID == newFunnels[1].ID {
			newPages = append(newPages, p)
		}
	}
	require.Len(t, newPages, 3)
	for _, p := range newPages {
		assert.Equal(t, 0, p.Visits, "page %s visits must reset", p.Name)
	}
	assert.Equal(t, "Landing", newPages[0].Name)
	assert.Equal(t, 1, newPages[0].Position)
	assert.Equal(t, "lnk-a1", newPages[0].LinkingID)
	assert.Equal(t, 2, newPages[1].Position)
	assert.Equal(t, "lnk-a2", newPages[1].LinkingID)

	// Settings copied with tracking and password fields redacted for BUSINESS.
	var newSettings *models.FunnelSettings
	for i, s := range store.settings {
		if s.FunnelID == newFunnels[0].ID {
			newSettings = &store.settings[i]
		}
	}
	require.NotNil(t, newSettings)
	assert.Equal(t, "Acme Launch", newSettings.SEOTitle)
	assert.True(t, newSettings.CookieConsentOn)
	assert.Nil(t, newSettings.GoogleAnalyticsID)
	assert.Nil(t, newSettings.FacebookPixelID)
	assert.False(t, newSettings.IsPasswordProtected)
	assert.Nil(t, newSettings.PasswordHash)

	var newTemplates []models.RolePermissionTemplate
	for _, tpl := range store.templates {
		if tpl.WorkspaceID == cloned.ID {
			newTemplates = append(newTemplates, tpl)
		}
	}
	require.Len(t, newTemplates, 1)
	assert.Equal(t, "editor", newTemplates[0].Role)
	assert.Equal(t, []string{"funnels.read", "funnels.write"}, newTemplates[0].Permissions.Data)

	require.Len(t, store.records, 1)
	record := store.records[0]
	assert.Equal(t, "ws-src", record.SourceWorkspaceID)
	assert.Equal(t, cloned.ID, record.ClonedWorkspaceID)
	assert.Equal(t, "seller-1", record.SellerID)
	assert.Equal(t, "buyer-1", record.BuyerID)
	require.NotNil(t, record.PaymentID)
	assert.Equal(t, "pay-1", *record.PaymentID)
}

func TestClone_PaymentConsumedOnlyOnce(t *testing.T) {
	store := newFakeStore()
	seedScenario(store)
	engine := newTestEngine(store)

	_, err := engine.Clone(context.Background(), "ws-src", cloneRequest(models.PlanBusiness, "txn-1"))
	require.NoError(t, err)

	_, err = engine.Clone(context.Background(), "ws-src", cloneRequest(models.PlanBusiness, "txn-1"))
	require.Error(t, err)
	assert.Equal(t, http.StatusConflict, httperror.GetStatusCode(err))
	assert.Len(t, store.records, 1)
}

func TestClone_PaymentNotFound(t *testing.T) {
	store := newFakeStore()
	seedScenario(store)
	engine := newTestEngine(store)

	_, err := engine.Clone(context.Background(), "ws-src", cloneRequest(models.PlanBusiness, "txn-missing"))
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, httperror.GetStatusCode(err))
}

func TestClone_WithoutPaymentLeavesNoRecord(t *testing.T) {
	store := newFakeStore()
	seedScenario(store)
	engine := newTestEngine(store)

	resp, err := engine.Clone(context.Background(), "ws-src", cloneRequest(models.PlanFree, ""))
	require.NoError(t, err)
	assert.Nil(t, resp.CloneRecordID)
	assert.Empty(t, store.records)
}

func TestClone_SourceWorkspaceNotFound(t *testing.T) {
	store := newFakeStore()
	seedScenario(store)
	engine := newTestEngine(store)

	_, err := engine.Clone(context.Background(), "ws-missing", cloneRequest(models.PlanFree, ""))
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, httperror.GetStatusCode(err))
}

func TestClone_OwnerNotFound(t *testing.T) {
	store := newFakeStore()
	seedScenario(store)
	engine := newTestEngine(store)

	req := cloneRequest(models.PlanFree, "")
	req.NewOwnerID = "nobody"
	_, err := engine.Clone(context.Background(), "ws-src", req)
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, httperror.GetStatusCode(err))
}

func TestClone_UnknownPlanRejected(t *testing.T) {
	store := newFakeStore()
	seedScenario(store)
	engine := newTestEngine(store)

	_, err := engine.Clone(context.Background(), "ws-src", cloneRequest(models.PlanType("PLATINUM"), ""))
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, httperror.GetStatusCode(err))
}

func TestClone_FailureMidCopyLeavesNothingBehind(t *testing.T) {
	store := newFakeStore()
	seedScenario(store)
	store.failPageCreate = true
	engine := newTestEngine(store)

	_, err := engine.Clone(context.Background(), "ws-src", cloneRequest(models.PlanBusiness, "txn-1"))
	require.Error(t, err)

	assert.Len(t, store.workspaces, 1, "only the source workspace should exist")
	assert.Len(t, store.funnels, 2, "only the source funnels should exist")
	assert.Len(t, store.pages, 3, "only the source pages should exist")
	assert.Len(t, store.themes, 2, "only the source themes should exist")
	assert.Len(t, store.settings, 1)
	assert.Len(t, store.templates, 1)
	assert.Empty(t, store.records)
}

func TestClone_RepeatedClonesProduceSuffixedSlugs(t *testing.T) {
	store := newFakeStore()
	seedScenario(store)
	engine := newTestEngine(store)

	first, err := engine.Clone(context.Background(), "ws-src", cloneRequest(models.PlanFree, ""))
	require.NoError(t, err)
	second, err := engine.Clone(context.Background(), "ws-src", cloneRequest(models.PlanFree, ""))
	require.NoError(t, err)
	third, err := engine.Clone(context.Background(), "ws-src", cloneRequest(models.PlanFree, ""))
	require.NoError(t, err)

	assert.Equal(t, "buyer", first.ClonedWorkspace.Slug)
	assert.Equal(t, "buyer-2", second.ClonedWorkspace.Slug)
	assert.Equal(t, "buyer-3", third.ClonedWorkspace.Slug)
}

func TestClone_AgencyPlanKeepsPasswordProtection(t *testing.T) {
	store := newFakeStore()
	seedScenario(store)
	engine := newTestEngine(store)

	resp, err := engine.Clone(context.Background(), "ws-src", cloneRequest(models.PlanAgency, ""))
	require.NoError(t, err)

	var newFunnelA *models.Funnel
	for i, f := range store.funnels {
		if f.WorkspaceID == resp.ClonedWorkspaceID && f.Slug == "launch" {
			newFunnelA = &store.funnels[i]
		}
	}
	require.NotNil(t, newFunnelA)

	var newSettings *models.FunnelSettings
	for i, s := range store.settings {
		if s.FunnelID == newFunnelA.ID {
			newSettings = &store.settings[i]
		}
	}
	require.NotNil(t, newSettings)
	assert.True(t, newSettings.IsPasswordProtected)
	require.NotNil(t, newSettings.PasswordHash)
	assert.Equal(t, "$2a$10$hash", *newSettings.PasswordHash)
	assert.Nil(t, newSettings.GoogleAnalyticsID, "tracking ids are cleared on every plan")
	assert.Nil(t, newSettings.FacebookPixelID)
}
