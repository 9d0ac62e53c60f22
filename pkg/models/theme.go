package models

import (
	"time"

	"github.com/funnelforge/funnelforge/pkg/database"
)

// ThemeType controls ownership and sharing semantics. A GLOBAL theme has no
// owning funnel and may be referenced by many funnels; a CUSTOM theme belongs
// to exactly one funnel and is duplicated when that funnel is copied.
type ThemeType string

const (
	ThemeTypeGlobal ThemeType = "GLOBAL"
	ThemeTypeCustom ThemeType = "CUSTOM"
)

// ThemeTypography holds the font choices of a theme
type ThemeTypography struct {
	HeadingFont string `json:"heading_font,omitempty"`
	BodyFont    string `json:"body_font,omitempty"`
	BaseSizePx  int    `json:"base_size_px,omitempty"`
}

// Theme is a visual preset. FunnelID is set only for CUSTOM themes.
type Theme struct {
	ID              string                           `json:"id" db:"id"`
	Name            string                           `json:"name" db:"name"`
	Type            ThemeType                        `json:"type" db:"type"`
	FunnelID        *string                          `json:"funnel_id,omitempty" db:"funnel_id"`
	PrimaryColor    string                           `json:"primary_color,omitempty" db:"primary_color"`
	SecondaryColor  string                           `json:"secondary_color,omitempty" db:"secondary_color"`
	BackgroundColor string                           `json:"background_color,omitempty" db:"background_color"`
	TextColor       string                           `json:"text_color,omitempty" db:"text_color"`
	Typography      database.JSONB[ThemeTypography]  `json:"typography" db:"typography"`
	CreatedAt       time.Time                        `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time                        `json:"updated_at" db:"updated_at"`
}
