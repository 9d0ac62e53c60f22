package provisioner

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/funnelforge/funnelforge/pkg/models"
)

type fakeDNS struct {
	hosts []string
	err   error
}

func (f *fakeDNS) CreateSubdomain(ctx context.Context, host string) error {
	if f.err != nil {
		return f.err
	}
	f.hosts = append(f.hosts, host)
	return nil
}

type fakeMembers struct {
	created  []models.WorkspaceMember
	conflict bool
}

func (f *fakeMembers) Create(ctx context.Context, m *models.WorkspaceMember) (*models.WorkspaceMember, error) {
	if f.conflict {
		return nil, httperror.NewHTTPError(http.StatusConflict, "already a member")
	}
	f.created = append(f.created, *m)
	return m, nil
}

type fakeSubdomains struct {
	records map[string]*models.Subdomain // by workspace id
	status  map[string]models.SubdomainStatus
}

func newFakeSubdomains() *fakeSubdomains {
	return &fakeSubdomains{
		records: map[string]*models.Subdomain{},
		status:  map[string]models.SubdomainStatus{},
	}
}

func (f *fakeSubdomains) GetByWorkspace(ctx context.Context, workspaceID string) (*models.Subdomain, error) {
	if sd, ok := f.records[workspaceID]; ok {
		copied := *sd
		copied.Status = f.status[sd.ID]
		return &copied, nil
	}
	return nil, nil
}

func (f *fakeSubdomains) Create(ctx context.Context, sd *models.Subdomain) (*models.Subdomain, error) {
	sd.ID = "sd-" + sd.WorkspaceID
	f.records[sd.WorkspaceID] = sd
	f.status[sd.ID] = sd.Status
	return sd, nil
}

func (f *fakeSubdomains) SetStatus(ctx context.Context, id string, status models.SubdomainStatus) error {
	f.status[id] = status
	return nil
}

func testWorkspace() *models.Workspace {
	return &models.Workspace{ID: "ws-1", Slug: "buyer", OwnerID: "buyer-1"}
}

func newTestService(dns *fakeDNS, members *fakeMembers, subdomains *fakeSubdomains) *Service {
	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
	return NewService(logger, dns, members, subdomains, "funnelforge.app")
}

func TestProvisionWorkspace(t *testing.T) {
	dns := &fakeDNS{}
	members := &fakeMembers{}
	subdomains := newFakeSubdomains()
	svc := newTestService(dns, members, subdomains)

	err := svc.ProvisionWorkspace(context.Background(), testWorkspace())
	require.NoError(t, err)

	require.Len(t, members.created, 1)
	assert.Equal(t, "owner", members.created[0].Role)
	assert.Equal(t, "buyer-1", members.created[0].UserID)
	assert.Equal(t, models.OwnerPermissions, members.created[0].Permissions.Data)

	assert.Equal(t, []string{"buyer.funnelforge.app"}, dns.hosts)
	sd := subdomains.records["ws-1"]
	require.NotNil(t, sd)
	assert.Equal(t, models.SubdomainStatusActive, subdomains.status[sd.ID])
}

func TestProvisionWorkspace_ExistingMembershipIsNotAnError(t *testing.T) {
	dns := &fakeDNS{}
	svc := newTestService(dns, &fakeMembers{conflict: true}, newFakeSubdomains())

	err := svc.ProvisionWorkspace(context.Background(), testWorkspace())
	require.NoError(t, err)
	assert.Len(t, dns.hosts, 1)
}

func TestProvisionWorkspace_DNSFailureMarksRecordFailed(t *testing.T) {
	dns := &fakeDNS{err: errors.New("provider unavailable")}
	subdomains := newFakeSubdomains()
	svc := newTestService(dns, &fakeMembers{}, subdomains)

	err := svc.ProvisionWorkspace(context.Background(), testWorkspace())
	require.Error(t, err)

	sd := subdomains.records["ws-1"]
	require.NotNil(t, sd)
	assert.Equal(t, models.SubdomainStatusFailed, subdomains.status[sd.ID])
}

func TestProvisionWorkspace_AlreadyActiveIsIdempotent(t *testing.T) {
	dns := &fakeDNS{}
	subdomains := newFakeSubdomains()
	svc := newTestService(dns, &fakeMembers{conflict: true}, subdomains)

	ws := testWorkspace()
	sd, err := subdomains.Create(context.Background(), &models.Subdomain{WorkspaceID: ws.ID, Host: "buyer.funnelforge.app"})
	require.NoError(t, err)
	require.NoError(t, subdomains.SetStatus(context.Background(), sd.ID, models.SubdomainStatusActive))

	require.NoError(t, svc.ProvisionWorkspace(context.Background(), ws))
	assert.Empty(t, dns.hosts, "no DNS call for an already active subdomain")
}
