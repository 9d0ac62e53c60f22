package clone

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/funnelforge/funnelforge/pkg/models"
)

func protectedSettings() models.FunnelSettings {
	ga := "GA-123"
	fb := "FB-456"
	hash := "$2a$10$hash"
	return models.FunnelSettings{
		SEOTitle:            "Launch",
		GoogleAnalyticsID:   &ga,
		FacebookPixelID:     &fb,
		CookieConsentOn:     true,
		IsPasswordProtected: true,
		PasswordHash:        &hash,
	}
}

func TestRedactSettings_TrackingClearedOnEveryPlan(t *testing.T) {
	for _, plan := range []models.PlanType{models.PlanFree, models.PlanBusiness, models.PlanAgency} {
		t.Run(string(plan), func(t *testing.T) {
			s := protectedSettings()
			redactSettings(&s, plan)
			assert.Nil(t, s.GoogleAnalyticsID)
			assert.Nil(t, s.FacebookPixelID)
			assert.Equal(t, "Launch", s.SEOTitle)
			assert.True(t, s.CookieConsentOn)
		})
	}
}

func TestRedactSettings_PasswordClearedWhenPlanForbidsIt(t *testing.T) {
	s := protectedSettings()
	redactSettings(&s, models.PlanBusiness)
	assert.False(t, s.IsPasswordProtected)
	assert.Nil(t, s.PasswordHash)
}

func TestRedactSettings_PasswordKeptWhenPlanAllowsIt(t *testing.T) {
	s := protectedSettings()
	redactSettings(&s, models.PlanAgency)
	assert.True(t, s.IsPasswordProtected)
	assert.NotNil(t, s.PasswordHash)
}
