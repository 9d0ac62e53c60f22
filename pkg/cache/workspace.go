package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/redis/go-redis/v9"

	"github.com/funnelforge/funnelforge/pkg/metrics"
	"github.com/funnelforge/funnelforge/pkg/models"
)

const (
	workspaceKeyPrefix = "workspace:"
	ownerListKeyPrefix = "workspaces:owner:"
)

func workspaceKey(id string) string {
	return workspaceKeyPrefix + id
}

func ownerListKey(ownerID string, page, pageSize int) string {
	return fmt.Sprintf("%s%s:p%d:s%d", ownerListKeyPrefix, ownerID, page, pageSize)
}

func ownerListPattern(ownerID string) string {
	return ownerListKeyPrefix + ownerID + ":*"
}

// Workspaces caches workspace reads and owner-scoped workspace listings.
// Misses and backend errors both fall through to the database, so the cache
// never sits on the failure path.
type Workspaces struct {
	client *Client
	logger ectologger.Logger
	ttl    time.Duration
}

// NewWorkspaces creates a workspace cache with the given entry TTL
func NewWorkspaces(client *Client, logger ectologger.Logger, ttl time.Duration) *Workspaces {
	return &Workspaces{
		client: client,
		logger: logger,
		ttl:    ttl,
	}
}

// GetWorkspace returns the cached workspace, or nil on a miss
func (w *Workspaces) GetWorkspace(ctx context.Context, id string) *models.Workspace {
	raw, err := w.client.Get(ctx, workspaceKey(id))
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			w.logger.WithContext(ctx).WithError(err).Warn("Workspace cache read failed")
		}
		metrics.RecordCacheOperation("workspace", "miss")
		return nil
	}

	var ws models.Workspace
	if err := json.Unmarshal([]byte(raw), &ws); err != nil {
		w.logger.WithContext(ctx).WithError(err).Warn("Dropping undecodable workspace cache entry")
		_ = w.client.Del(ctx, workspaceKey(id))
		metrics.RecordCacheOperation("workspace", "miss")
		return nil
	}

	metrics.RecordCacheOperation("workspace", "hit")
	return &ws
}

// SetWorkspace stores a workspace, best-effort
func (w *Workspaces) SetWorkspace(ctx context.Context, ws *models.Workspace) {
	raw, err := json.Marshal(ws)
	if err != nil {
		return
	}
	if err := w.client.Set(ctx, workspaceKey(ws.ID), raw, w.ttl); err != nil {
		w.logger.WithContext(ctx).WithError(err).Warn("Workspace cache write failed")
	}
}

// GetOwnerList returns a cached listing page, or nil on a miss
func (w *Workspaces) GetOwnerList(ctx context.Context, ownerID string, page, pageSize int) *models.WorkspaceListResponse {
	raw, err := w.client.Get(ctx, ownerListKey(ownerID, page, pageSize))
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			w.logger.WithContext(ctx).WithError(err).Warn("Workspace list cache read failed")
		}
		metrics.RecordCacheOperation("workspace_list", "miss")
		return nil
	}

	var list models.WorkspaceListResponse
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		_ = w.client.Del(ctx, ownerListKey(ownerID, page, pageSize))
		metrics.RecordCacheOperation("workspace_list", "miss")
		return nil
	}

	metrics.RecordCacheOperation("workspace_list", "hit")
	return &list
}

// SetOwnerList stores a listing page, best-effort
func (w *Workspaces) SetOwnerList(ctx context.Context, ownerID string, page, pageSize int, list *models.WorkspaceListResponse) {
	raw, err := json.Marshal(list)
	if err != nil {
		return
	}
	if err := w.client.Set(ctx, ownerListKey(ownerID, page, pageSize), raw, w.ttl); err != nil {
		w.logger.WithContext(ctx).WithError(err).Warn("Workspace list cache write failed")
	}
}

// InvalidateWorkspace drops the cached workspace entry
func (w *Workspaces) InvalidateWorkspace(ctx context.Context, workspaceID string) error {
	return w.client.Del(ctx, workspaceKey(workspaceID))
}

// InvalidateOwnerWorkspaces drops every cached listing page for an owner
func (w *Workspaces) InvalidateOwnerWorkspaces(ctx context.Context, ownerID string) error {
	return w.client.DelPattern(ctx, ownerListPattern(ownerID))
}
