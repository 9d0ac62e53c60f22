package models

import (
	"encoding/json"
	"time"
)

// FunnelStatus is the publication state of a funnel
type FunnelStatus string

const (
	FunnelStatusDraft    FunnelStatus = "DRAFT"
	FunnelStatusLive     FunnelStatus = "LIVE"
	FunnelStatusArchived FunnelStatus = "ARCHIVED"
)

// Funnel belongs to exactly one workspace. slug is unique within the
// workspace, so cross-workspace copies can keep the source slug unchanged.
type Funnel struct {
	ID            string       `json:"id" db:"id"`
	Name          string       `json:"name" db:"name" validate:"required"`
	Slug          string       `json:"slug" db:"slug" validate:"required"`
	Status        FunnelStatus `json:"status" db:"status"`
	WorkspaceID   string       `json:"workspace_id" db:"workspace_id"`
	CreatedBy     string       `json:"created_by" db:"created_by"`
	ActiveThemeID *string      `json:"active_theme_id,omitempty" db:"active_theme_id"`
	CreatedAt     time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at" db:"updated_at"`
}

// PageType distinguishes builder page kinds
type PageType string

const (
	PageTypeLanding  PageType = "LANDING"
	PageTypeCheckout PageType = "CHECKOUT"
	PageTypeThankYou PageType = "THANK_YOU"
	PageTypeGeneric  PageType = "GENERIC"
)

// Page belongs to exactly one funnel. Position is a dense sequence unique
// within the funnel; LinkingID is the stable cross-page anchor the builder
// uses for internal links, preserved as-is by the clone engine.
type Page struct {
	ID             string          `json:"id" db:"id"`
	Name           string          `json:"name" db:"name"`
	Content        json.RawMessage `json:"content" db:"content"`
	Position       int             `json:"position" db:"position"`
	LinkingID      string          `json:"linking_id" db:"linking_id"`
	FunnelID       string          `json:"funnel_id" db:"funnel_id"`
	Type           PageType        `json:"type" db:"type"`
	SEOTitle       string          `json:"seo_title,omitempty" db:"seo_title"`
	SEODescription string          `json:"seo_description,omitempty" db:"seo_description"`
	SEOKeywords    string          `json:"seo_keywords,omitempty" db:"seo_keywords"`
	Visits         int             `json:"visits" db:"visits"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at" db:"updated_at"`
}

// FunnelSettings is the 1:1 settings row for a funnel. Tracking identifiers
// are cleared on every clone; the password fields are cleared only when the
// destination plan forbids protection.
type FunnelSettings struct {
	ID                  string    `json:"id" db:"id"`
	FunnelID            string    `json:"funnel_id" db:"funnel_id"`
	SEOTitle            string    `json:"seo_title,omitempty" db:"seo_title"`
	SEODescription      string    `json:"seo_description,omitempty" db:"seo_description"`
	SEOKeywords         string    `json:"seo_keywords,omitempty" db:"seo_keywords"`
	GoogleAnalyticsID   *string   `json:"google_analytics_id,omitempty" db:"google_analytics_id"`
	FacebookPixelID     *string   `json:"facebook_pixel_id,omitempty" db:"facebook_pixel_id"`
	CookieConsentText   string    `json:"cookie_consent_text,omitempty" db:"cookie_consent_text"`
	CookieConsentOn     bool      `json:"cookie_consent_on" db:"cookie_consent_on"`
	LegalNoticeURL      string    `json:"legal_notice_url,omitempty" db:"legal_notice_url"`
	IsPasswordProtected bool      `json:"is_password_protected" db:"is_password_protected"`
	PasswordHash        *string   `json:"-" db:"password_hash"`
	CreatedAt           time.Time `json:"created_at" db:"created_at"`
	UpdatedAt           time.Time `json:"updated_at" db:"updated_at"`
}

// FunnelListResponse is the response for listing funnels in a workspace
type FunnelListResponse struct {
	Items      []Funnel `json:"items"`
	TotalCount int      `json:"total_count"`
}
