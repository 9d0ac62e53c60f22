package clone

import (
	"context"
	"database/sql"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"

	"github.com/funnelforge/funnelforge/pkg/database"
	"github.com/funnelforge/funnelforge/pkg/models"
)

// fakeStore is an in-memory stand-in for the persistence layer. Writes inside
// a transaction land in staged and only become visible on Commit, which is
// what lets the tests observe rollback behavior.
type fakeStore struct {
	workspaces map[string]models.Workspace
	users      map[string]models.User
	payments   map[string]models.Payment // keyed by transaction id
	funnels    []models.Funnel
	pages      []models.Page
	themes     map[string]models.Theme
	settings   []models.FunnelSettings
	templates  []models.RolePermissionTemplate
	records    []models.WorkspaceClone

	staged         stagedWrites
	failPageCreate bool
}

type stagedWrites struct {
	workspaces []models.Workspace
	funnels    []models.Funnel
	pages      []models.Page
	themes     []models.Theme
	themeLinks map[string]string // theme id -> funnel id
	settings   []models.FunnelSettings
	templates  []models.RolePermissionTemplate
	records    []models.WorkspaceClone
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		workspaces: map[string]models.Workspace{},
		users:      map[string]models.User{},
		payments:   map[string]models.Payment{},
		themes:     map[string]models.Theme{},
	}
}

func (s *fakeStore) applyStaged() {
	for _, ws := range s.staged.workspaces {
		s.workspaces[ws.ID] = ws
	}
	for _, t := range s.staged.themes {
		s.themes[t.ID] = t
	}
	for id, funnelID := range s.staged.themeLinks {
		t := s.themes[id]
		fid := funnelID
		t.FunnelID = &fid
		s.themes[id] = t
	}
	s.funnels = append(s.funnels, s.staged.funnels...)
	s.pages = append(s.pages, s.staged.pages...)
	s.settings = append(s.settings, s.staged.settings...)
	s.templates = append(s.templates, s.staged.templates...)
	s.records = append(s.records, s.staged.records...)
	s.staged = stagedWrites{}
}

func (s *fakeStore) discardStaged() {
	s.staged = stagedWrites{}
}

type fakeDB struct {
	database.DB
	store *fakeStore
}

func (f *fakeDB) GetTx(ctx context.Context, opts *sql.TxOptions) (context.Context, database.Tx, error) {
	return ctx, &fakeTx{store: f.store}, nil
}

type fakeTx struct {
	database.Tx
	store  *fakeStore
	closed bool
}

func (t *fakeTx) IsOpen() bool { return !t.closed }

func (t *fakeTx) Commit(ctx context.Context) error {
	if t.closed {
		return nil
	}
	t.store.applyStaged()
	t.closed = true
	return nil
}

func (t *fakeTx) Rollback(ctx context.Context) error {
	if t.closed {
		return nil
	}
	t.store.discardStaged()
	t.closed = true
	return nil
}

type fakeWorkspaceRepo struct{ s *fakeStore }

func (f *fakeWorkspaceRepo) DB() database.DB { return &fakeDB{store: f.s} }

func (f *fakeWorkspaceRepo) Get(ctx context.Context, id string) (*models.Workspace, error) {
	if ws, ok := f.s.workspaces[id]; ok {
		return &ws, nil
	}
	return nil, nil
}

func (f *fakeWorkspaceRepo) SlugExists(ctx context.Context, slug string) (bool, error) {
	for _, ws := range f.s.workspaces {
		if ws.Slug == slug {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeWorkspaceRepo) CreateTx(ctx context.Context, tx database.Tx, ws *models.Workspace) (*models.Workspace, error) {
	ws.ID = uuid.New().String()
	f.s.staged.workspaces = append(f.s.staged.workspaces, *ws)
	return ws, nil
}

type fakeFunnelRepo struct{ s *fakeStore }

func (f *fakeFunnelRepo) ListByWorkspace(ctx context.Context, workspaceID string) ([]models.Funnel, error) {
	var out []models.Funnel
	for _, fn := range f.s.funnels {
		if fn.WorkspaceID == workspaceID {
			out = append(out, fn)
		}
	}
	return out, nil
}

func (f *fakeFunnelRepo) CreateTx(ctx context.Context, tx database.Tx, fn *models.Funnel) (*models.Funnel, error) {
	fn.ID = uuid.New().String()
	f.s.staged.funnels = append(f.s.staged.funnels, *fn)
	return fn, nil
}

type fakePageRepo struct{ s *fakeStore }

func (f *fakePageRepo) ListByFunnels(ctx context.Context, funnelIDs []string) ([]models.Page, error) {
	ids := map[string]bool{}
	for _, id := range funnelIDs {
		ids[id] = true
	}
	var out []models.Page
	for _, p := range f.s.pages {
		if ids[p.FunnelID] {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakePageRepo) CreateBatchTx(ctx context.Context, tx database.Tx, pages []models.Page) error {
	if f.s.failPageCreate {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to create pages")
	}
	for i := range pages {
		pages[i].ID = uuid.New().String()
	}
	f.s.staged.pages = append(f.s.staged.pages, pages...)
	return nil
}

type fakeThemeRepo struct{ s *fakeStore }

func (f *fakeThemeRepo) GetByIDs(ctx context.Context, ids []string) ([]models.Theme, error) {
	var out []models.Theme
	for _, id := range ids {
		if t, ok := f.s.themes[id]; ok {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeThemeRepo) CreateTx(ctx context.Context, tx database.Tx, t *models.Theme) (*models.Theme, error) {
	t.ID = uuid.New().String()
	f.s.staged.themes = append(f.s.staged.themes, *t)
	return t, nil
}

func (f *fakeThemeRepo) SetFunnelTx(ctx context.Context, tx database.Tx, themeID, funnelID string) error {
	if f.s.staged.themeLinks == nil {
		f.s.staged.themeLinks = map[string]string{}
	}
	f.s.staged.themeLinks[themeID] = funnelID
	return nil
}

type fakeSettingsRepo struct{ s *fakeStore }

func (f *fakeSettingsRepo) ListByFunnels(ctx context.Context, funnelIDs []string) ([]models.FunnelSettings, error) {
	ids := map[string]bool{}
	for _, id := range funnelIDs {
		ids[id] = true
	}
	var out []models.FunnelSettings
	for _, s := range f.s.settings {
		if ids[s.FunnelID] {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeSettingsRepo) CreateTx(ctx context.Context, tx database.Tx, s *models.FunnelSettings) (*models.FunnelSettings, error) {
	s.ID = uuid.New().String()
	f.s.staged.settings = append(f.s.staged.settings, *s)
	return s, nil
}

type fakeRoleRepo struct{ s *fakeStore }

func (f *fakeRoleRepo) ListByWorkspace(ctx context.Context, workspaceID string) ([]models.RolePermissionTemplate, error) {
	var out []models.RolePermissionTemplate
	for _, t := range f.s.templates {
		if t.WorkspaceID == workspaceID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeRoleRepo) CreateBatchTx(ctx context.Context, tx database.Tx, templates []models.RolePermissionTemplate) error {
	for i := range templates {
		templates[i].ID = uuid.New().String()
	}
	f.s.staged.templates = append(f.s.staged.templates, templates...)
	return nil
}

type fakePaymentRepo struct{ s *fakeStore }

func (f *fakePaymentRepo) GetByTransactionID(ctx context.Context, transactionID string) (*models.Payment, error) {
	if p, ok := f.s.payments[transactionID]; ok {
		return &p, nil
	}
	return nil, nil
}

type fakeUserRepo struct{ s *fakeStore }

func (f *fakeUserRepo) Get(ctx context.Context, id string) (*models.User, error) {
	if u, ok := f.s.users[id]; ok {
		return &u, nil
	}
	return nil, nil
}

type fakeRecordRepo struct{ s *fakeStore }

func (f *fakeRecordRepo) GetByPaymentID(ctx context.Context, paymentID string) (*models.WorkspaceClone, error) {
	for _, r := range f.s.records {
		if r.PaymentID != nil && *r.PaymentID == paymentID {
			return &r, nil
		}
	}
	return nil, nil
}

func (f *fakeRecordRepo) CreateTx(ctx context.Context, tx database.Tx, record *models.WorkspaceClone) (*models.WorkspaceClone, error) {
	for _, r := range append(f.s.records, f.s.staged.records...) {
		if record.PaymentID != nil && r.PaymentID != nil && *r.PaymentID == *record.PaymentID {
			return nil, httperror.NewHTTPError(http.StatusConflict, "payment has already been used to clone a workspace")
		}
	}
	record.ID = uuid.New().String()
	f.s.staged.records = append(f.s.staged.records, *record)
	return record, nil
}

func newTestEngine(s *fakeStore) *Engine {
	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
	return NewEngine(
		logger,
		&fakeWorkspaceRepo{s},
		&fakeFunnelRepo{s},
		&fakePageRepo{s},
		&fakeThemeRepo{s},
		&fakeSettingsRepo{s},
		&fakeRoleRepo{s},
		&fakePaymentRepo{s},
		&fakeUserRepo{s},
		&fakeRecordRepo{s},
		nil, nil, nil,
		500,
	)
}
