// Package provisioner bootstraps a freshly created or cloned workspace:
// owner membership and a DNS subdomain. It runs after the owning transaction
// commits and every step is independently retryable.
package provisioner

import (
	"context"
	"fmt"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"

	"github.com/funnelforge/funnelforge/pkg/database"
	"github.com/funnelforge/funnelforge/pkg/models"
	"github.com/funnelforge/funnelforge/pkg/tracing"
)

// DNSClient creates subdomain records with the external DNS provider
type DNSClient interface {
	CreateSubdomain(ctx context.Context, host string) error
}

// MemberRepository defines the membership writes the provisioner needs
type MemberRepository interface {
	Create(ctx context.Context, m *models.WorkspaceMember) (*models.WorkspaceMember, error)
}

// SubdomainRepository defines the subdomain record writes the provisioner needs
type SubdomainRepository interface {
	GetByWorkspace(ctx context.Context, workspaceID string) (*models.Subdomain, error)
	Create(ctx context.Context, sd *models.Subdomain) (*models.Subdomain, error)
	SetStatus(ctx context.Context, id string, status models.SubdomainStatus) error
}

// Service provisions workspaces. Re-running against an already provisioned
// workspace is a no-op, so callers may retry freely.
type Service struct {
	logger     ectologger.Logger
	dns        DNSClient
	members    MemberRepository
	subdomains SubdomainRepository
	baseDomain string
}

// NewService creates a provisioner
func NewService(
	logger ectologger.Logger,
	dns DNSClient,
	members MemberRepository,
	subdomains SubdomainRepository,
	baseDomain string,
) *Service {
	return &Service{
		logger:     logger,
		dns:        dns,
		members:    members,
		subdomains: subdomains,
		baseDomain: baseDomain,
	}
}

// Host returns the subdomain host for a workspace slug
func (s *Service) Host(slug string) string {
	return fmt.Sprintf("%s.%s", slug, s.baseDomain)
}

// ProvisionWorkspace grants the owner a full-permission membership and creates
// the workspace subdomain.
func (s *Service) ProvisionWorkspace(ctx context.Context, ws *models.Workspace) error {
	ctx, span := tracing.StartSpan(ctx, "provisioner.Service.ProvisionWorkspace")
	defer span.End()

	log := s.logger.WithContext(ctx).WithFields(map[string]any{
		"workspace_id": ws.ID,
		"owner_id":     ws.OwnerID,
	})

	_, err := s.members.Create(ctx, &models.WorkspaceMember{
		WorkspaceID: ws.ID,
		UserID:      ws.OwnerID,
		Role:        "owner",
		Permissions: database.JSONB[[]string]{Data: models.OwnerPermissions},
	})
	if err != nil {
		if httperror.GetStatusCode(err) == http.StatusConflict {
			log.Debug("Owner membership already exists")
		} else {
			return err
		}
	}

	existing, err := s.subdomains.GetByWorkspace(ctx, ws.ID)
	if err != nil {
		return err
	}
	if existing != nil && existing.Status == models.SubdomainStatusActive {
		return nil
	}
	if existing == nil {
		existing, err = s.subdomains.Create(ctx, &models.Subdomain{
			WorkspaceID: ws.ID,
			Host:        s.Host(ws.Slug),
			Status:      models.SubdomainStatusPending,
		})
		if err != nil {
			return err
		}
	}

	if err := s.dns.CreateSubdomain(ctx, existing.Host); err != nil {
		log.WithError(err).WithFields(map[string]any{"host": existing.Host}).Error("DNS subdomain creation failed")
		if setErr := s.subdomains.SetStatus(ctx, existing.ID, models.SubdomainStatusFailed); setErr != nil {
			log.WithError(setErr).Warn("Failed to mark subdomain as failed")
		}
		return err
	}

	if err := s.subdomains.SetStatus(ctx, existing.ID, models.SubdomainStatusActive); err != nil {
		return err
	}

	log.WithFields(map[string]any{"host": existing.Host}).Info("Provisioned workspace")
	return nil
}

// NoopDNS is the DNS client used when no provider is configured. It only logs.
type NoopDNS struct {
	Logger ectologger.Logger
}

func (n *NoopDNS) CreateSubdomain(ctx context.Context, host string) error {
	n.Logger.WithContext(ctx).WithFields(map[string]any{"host": host}).Info("DNS provider disabled, skipping subdomain creation")
	return nil
}
