package clone

import (
	"context"
	"net/http"
	"testing"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/funnelforge/funnelforge/pkg/models"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "already clean", input: "acme", expected: "acme"},
		{name: "uppercase and spaces", input: "Acme Funnels", expected: "acme-funnels"},
		{name: "special characters stripped", input: "björn's shop!", expected: "bjrns-shop"},
		{name: "dash runs collapsed", input: "a  -  b", expected: "a-b"},
		{name: "leading and trailing dashes trimmed", input: "--acme--", expected: "acme"},
		{name: "whitespace only", input: "   ", expected: ""},
		{name: "digits kept", input: "shop 24-7", expected: "shop-24-7"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, slugify(tt.input))
		})
	}
}

func TestAllocateSlug_SkipsTakenCandidates(t *testing.T) {
	store := newFakeStore()
	store.workspaces["w1"] = models.Workspace{ID: "w1", Slug: "acme"}
	store.workspaces["w2"] = models.Workspace{ID: "w2", Slug: "acme-2"}
	engine := newTestEngine(store)

	slug, err := engine.allocateSlug(context.Background(), "Acme")
	require.NoError(t, err)
	assert.Equal(t, "acme-3", slug)
}

func TestAllocateSlug_EmptyBaseFallsBack(t *testing.T) {
	store := newFakeStore()
	engine := newTestEngine(store)

	slug, err := engine.allocateSlug(context.Background(), "!!!")
	require.NoError(t, err)
	assert.Equal(t, "workspace", slug)
}

func TestAllocateSlug_AttemptCapExceeded(t *testing.T) {
	store := newFakeStore()
	store.workspaces["w1"] = models.Workspace{ID: "w1", Slug: "acme"}
	store.workspaces["w2"] = models.Workspace{ID: "w2", Slug: "acme-2"}
	store.workspaces["w3"] = models.Workspace{ID: "w3", Slug: "acme-3"}
	engine := newTestEngine(store)
	engine.slugMaxAttempts = 3

	_, err := engine.allocateSlug(context.Background(), "acme")
	require.Error(t, err)
	assert.Equal(t, http.StatusInternalServerError, httperror.GetStatusCode(err))
}
