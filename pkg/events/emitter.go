// Package events maps domain changes onto the Kafka topic schema.
package events

import (
	"context"
	"encoding/json"

	"github.com/Gobusters/ectologger"

	"github.com/funnelforge/funnelforge/pkg/kafka"
	"github.com/funnelforge/funnelforge/pkg/models"
)

// Publisher is the Kafka surface the emitter writes through
type Publisher interface {
	PublishWorkspaceEvent(ctx context.Context, event *kafka.WorkspaceEvent) error
}

// Emitter publishes workspace lifecycle events. A nil producer disables
// emission, which is how local environments run without a broker.
type Emitter struct {
	producer Publisher
	logger   ectologger.Logger
}

// NewEmitter creates a workspace event emitter
func NewEmitter(producer Publisher, logger ectologger.Logger) *Emitter {
	return &Emitter{
		producer: producer,
		logger:   logger,
	}
}

// WorkspaceCloned announces a committed clone
func (e *Emitter) WorkspaceCloned(ctx context.Context, sourceWorkspaceID string, cloned *models.Workspace, cloneRecordID *string) error {
	if e.producer == nil {
		return nil
	}

	summary, err := json.Marshal(cloned.Summary())
	if err != nil {
		return err
	}

	event := &kafka.WorkspaceEvent{
		EventType:         "workspace.cloned",
		WorkspaceID:       cloned.ID,
		OwnerID:           cloned.OwnerID,
		SourceWorkspaceID: sourceWorkspaceID,
		Data:              summary,
	}
	if cloneRecordID != nil {
		event.CloneRecordID = *cloneRecordID
	}

	return e.producer.PublishWorkspaceEvent(ctx, event)
}

// WorkspaceUpdated announces a workspace mutation
func (e *Emitter) WorkspaceUpdated(ctx context.Context, ws *models.Workspace) error {
	if e.producer == nil {
		return nil
	}

	summary, err := json.Marshal(ws.Summary())
	if err != nil {
		return err
	}

	return e.producer.PublishWorkspaceEvent(ctx, &kafka.WorkspaceEvent{
		EventType:   "workspace.updated",
		WorkspaceID: ws.ID,
		OwnerID:     ws.OwnerID,
		Data:        summary,
	})
}

// WorkspaceDeleted announces a workspace removal
func (e *Emitter) WorkspaceDeleted(ctx context.Context, workspaceID string) error {
	if e.producer == nil {
		return nil
	}

	return e.producer.PublishWorkspaceEvent(ctx, &kafka.WorkspaceEvent{
		EventType:   "workspace.deleted",
		WorkspaceID: workspaceID,
	})
}
