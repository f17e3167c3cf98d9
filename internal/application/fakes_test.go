package application_test

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"testing"
	"time"

	"partner-edge/internal/domain"
	"partner-edge/internal/infrastructure/encryption"
	"partner-edge/internal/infrastructure/partner"
	"partner-edge/internal/infrastructure/repository"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

type fakeOAuth struct {
	grant *domain.TokenGrant
	err   error
	codes []string
}

func (f *fakeOAuth) AuthCodeURL(state string) string {
	return "https://partner.example/oauth2/authorize?state=" + url.QueryEscape(state)
}

func (f *fakeOAuth) Exchange(_ context.Context, code string) (*domain.TokenGrant, error) {
	f.codes = append(f.codes, code)
	if f.err != nil {
		return nil, f.err
	}
	g := *f.grant
	return &g, nil
}

func (f *fakeOAuth) TokenSource(_ context.Context, token *oauth2.Token) oauth2.TokenSource {
	return oauth2.StaticTokenSource(token)
}

type callbackCall struct {
	LocationID string
	URL        string
	Events     []string
}

type fakeAPI struct {
	mu         sync.Mutex
	account    *domain.PartnerAccount
	accountErr error
	catalogErr error
	updateErr  error
	catalogs   map[string]*domain.Catalog
	updates    map[string]domain.OrderStatusUpdate
	callbacks  []callbackCall
	tokens     []string
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		account:  &domain.PartnerAccount{ID: "acc-1", Name: "Trattoria"},
		catalogs: map[string]*domain.Catalog{},
		updates:  map[string]domain.OrderStatusUpdate{},
	}
}

func (f *fakeAPI) GetAccount(_ context.Context, token *oauth2.Token, _ string) (*domain.PartnerAccount, error) {
	f.record(token)
	if f.accountErr != nil {
		return nil, f.accountErr
	}
	return f.account, nil
}

func (f *fakeAPI) PutCatalog(_ context.Context, token *oauth2.Token, locationID string, catalog *domain.Catalog) error {
	f.record(token)
	if f.catalogErr != nil {
		return f.catalogErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.catalogs[locationID] = catalog
	return nil
}

func (f *fakeAPI) UpdateOrder(_ context.Context, token *oauth2.Token, orderID string, update domain.OrderStatusUpdate) error {
	f.record(token)
	if f.updateErr != nil {
		return f.updateErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates[orderID] = update
	return nil
}

func (f *fakeAPI) CreateCallback(_ context.Context, token *oauth2.Token, locationID, callbackURL string, events []string) error {
	f.record(token)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.callbacks = append(f.callbacks, callbackCall{LocationID: locationID, URL: callbackURL, Events: events})
	return nil
}

func (f *fakeAPI) record(token *oauth2.Token) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokens = append(f.tokens, token.AccessToken)
}

type memoryOrders struct {
	mu      sync.Mutex
	saved   map[string]*domain.OrderRecord
	listing []*domain.OrderRecord
	err     error
}

func newMemoryOrders() *memoryOrders {
	return &memoryOrders{saved: map[string]*domain.OrderRecord{}}
}

func (m *memoryOrders) SaveOrder(_ context.Context, order *domain.OrderRecord) error {
	if m.err != nil {
		return m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved[order.OrganizationID+"/"+order.RowKey] = order
	return nil
}

func (m *memoryOrders) ListOrdersForDay(context.Context, string, time.Time) ([]*domain.OrderRecord, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.listing, nil
}

type staticMenus struct {
	items map[string][]domain.MenuItem
}

func (s staticMenus) GetMenu(_ context.Context, organizationID string) ([]domain.MenuItem, error) {
	return s.items[organizationID], nil
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent map[string][]domain.Notification
	err  error
}

func (r *recordingNotifier) NotifyOrganization(_ context.Context, organizationID string, n domain.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sent == nil {
		r.sent = map[string][]domain.Notification{}
	}
	r.sent[organizationID] = append(r.sent[organizationID], n)
	return r.err
}

type memoryWebhookLog struct {
	deliveries []*domain.WebhookDelivery
}

func (m *memoryWebhookLog) LogWebhook(_ context.Context, d *domain.WebhookDelivery) error {
	m.deliveries = append(m.deliveries, d)
	return nil
}

var errBoom = errors.New("boom")

const testSecret = "integration-test-secret"

type fixture struct {
	repo   *repository.SQLConnectionRepository
	oauth  *fakeOAuth
	api    *fakeAPI
	tokens *partner.TokenManager
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := repository.OpenSQLite(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	encSvc, err := encryption.NewService(testSecret)
	require.NoError(t, err)

	repo := repository.NewSQLConnectionRepository(db)
	oauth := &fakeOAuth{grant: &domain.TokenGrant{
		AccessToken:  "access-1",
		RefreshToken: "refresh-1",
		ExpiresAt:    time.Now().Add(time.Hour),
		AccountID:    "acc-1",
		LocationID:   "loc-1",
	}}
	return &fixture{
		repo:   repo,
		oauth:  oauth,
		api:    newFakeAPI(),
		tokens: partner.NewTokenManager(encSvc, oauth, repo, zerolog.Nop()),
	}
}
