package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWorkspaceKey(t *testing.T) {
	assert.Equal(t, "workspace:ws-1", workspaceKey("ws-1"))
}

func TestOwnerListKey(t *testing.T) {
	assert.Equal(t, "workspaces:owner:u-1:p2:s20", ownerListKey("u-1", 2, 20))
}

func TestOwnerListPatternMatchesAllPages(t *testing.T) {
	assert.Equal(t, "workspaces:owner:u-1:*", ownerListPattern("u-1"))
}
