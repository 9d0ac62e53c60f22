package clone

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/Gobusters/ectoerror/httperror"

	"github.com/funnelforge/funnelforge/pkg/metrics"
	"github.com/funnelforge/funnelforge/pkg/tracing"
)

var slugInvalidChars = regexp.MustCompile(`[^a-z0-9-]+`)
var slugDashRuns = regexp.MustCompile(`-{2,}`)

// slugify normalizes a display name or handle into slug form
func slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, " ", "-")
	s = slugInvalidChars.ReplaceAllString(s, "")
	s = slugDashRuns.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// allocateSlug probes for a free workspace slug starting from base, then
// base-2, base-3 and so on. The probe is an optimistic hint only; the unique
// constraint on workspaces.slug is the final arbiter at insert time. The
// attempt cap turns a runaway search into a hard failure for operator
// attention instead of spinning forever.
func (e *Engine) allocateSlug(ctx context.Context, base string) (string, error) {
	ctx, span := tracing.StartSpan(ctx, "clone.Engine.allocateSlug")
	defer span.End()

	base = slugify(base)
	if base == "" {
		base = "workspace"
	}

	for attempt := 1; attempt <= e.slugMaxAttempts; attempt++ {
		candidate := base
		if attempt > 1 {
			candidate = fmt.Sprintf("%s-%d", base, attempt)
		}

		taken, err := e.workspaces.SlugExists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			metrics.SlugProbeAttempts.Observe(float64(attempt))
			return candidate, nil
		}
	}

	e.logger.WithContext(ctx).WithFields(map[string]any{
		"base":         base,
		"max_attempts": e.slugMaxAttempts,
	}).Error("Slug allocation exhausted its attempt cap")
	return "", httperror.NewHTTPErrorf(http.StatusInternalServerError, "could not allocate a unique slug from %q", base)
}
