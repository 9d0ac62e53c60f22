package clone

import "github.com/funnelforge/funnelforge/pkg/models"

// redactionRule clears one group of funnel settings fields when its predicate
// holds for the destination plan. Keeping the policy as data keeps the
// orchestrator's control flow free of per-field conditionals.
type redactionRule struct {
	name    string
	applies func(plan models.PlanType) bool
	apply   func(s *models.FunnelSettings)
}

// settingsRedactions is the policy applied to every copied settings row.
// Tracking identifiers always belong to the seller's accounts and are cleared
// unconditionally; password protection is cleared only when the destination
// plan cannot carry it.
var settingsRedactions = []redactionRule{
	{
		name:    "tracking_identifiers",
		applies: func(models.PlanType) bool { return true },
		apply: func(s *models.FunnelSettings) {
			s.GoogleAnalyticsID = nil
			s.FacebookPixelID = nil
		},
	},
	{
		name:    "password_protection",
		applies: func(plan models.PlanType) bool { return !plan.AllowsPasswordProtection() },
		apply: func(s *models.FunnelSettings) {
			s.IsPasswordProtected = false
			s.PasswordHash = nil
		},
	},
}

// redactSettings applies the redaction policy in place for the given
// destination plan.
func redactSettings(s *models.FunnelSettings, plan models.PlanType) {
	for _, rule := range settingsRedactions {
		if rule.applies(plan) {
			rule.apply(s)
		}
	}
}
