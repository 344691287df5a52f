package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	evhandler "registrar/internal/eventlog/handler"
	"registrar/internal/eventlog/models"
	"registrar/internal/platform/config"
	"registrar/internal/platform/logger"
	regmodels "registrar/internal/registry/models"
	"registrar/pkg/testutil"
)

const (
	alice = "0x52908400098527886E0F7030069857D2E4169EE7"
	bob   = "0x8617E340B3D01FA5F11F306F4090FD50E238070D"
)

type AppSuite struct {
	suite.Suite
	app *App
}

func TestAppSuite(t *testing.T) {
	suite.Run(t, new(AppSuite))
}

func (s *AppSuite) SetupTest() {
	s.app = s.newApp(config.Server{})
}

func (s *AppSuite) TearDownTest() {
	s.NoError(s.app.Close())
}

func (s *AppSuite) newApp(cfg config.Server) *App {
	cfg.Addr = "127.0.0.1:0"
	cfg.ShutdownTimeout = time.Second
	if cfg.MaxListingPrice.IsZero() {
		cfg.MaxListingPrice = config.DefaultMaxListingPrice
	}
	a, err := New(context.Background(), cfg, logger.Discard())
	s.Require().NoError(err)
	return a
}

func (s *AppSuite) do(method, path string, body any) *httptest.ResponseRecorder {
	return testutil.DoRequest(s.app.Router, testutil.NewJSONRequest(s.T(), method, path, body))
}

// ============================================================================
// End to end over HTTP
// ============================================================================

func (s *AppSuite) TestRegisterResolveListAndSell() {
	rr := s.do(http.MethodPost, "/v1/domains", map[string]string{"name": "Alice", "extension": "web3", "owner": alice})
	testutil.AssertStatus(s.T(), rr, http.StatusCreated)

	rr = s.do(http.MethodPut, "/v1/domains/alice.web3/resolution", map[string]string{"caller": alice, "address": alice})
	testutil.AssertStatus(s.T(), rr, http.StatusOK)

	rr = s.do(http.MethodGet, "/v1/reverse/"+alice, nil)
	testutil.AssertStatus(s.T(), rr, http.StatusOK)
	s.Contains(rr.Body.String(), `"full_name":"alice.web3"`)

	rr = s.do(http.MethodPost, "/v1/listings", map[string]string{"full_name": "alice.web3", "seller": alice, "price": "5"})
	testutil.AssertStatus(s.T(), rr, http.StatusCreated)

	rr = s.do(http.MethodPost, "/v1/listings/alice.web3/purchase", map[string]string{"buyer": bob, "payment": "5"})
	testutil.AssertStatus(s.T(), rr, http.StatusOK)

	rr = s.do(http.MethodGet, "/v1/domains/alice.web3", nil)
	testutil.AssertStatus(s.T(), rr, http.StatusOK)
	entry := testutil.DecodeResponse[regmodels.Entry](s.T(), rr)
	s.Equal(bob, entry.Owner.String())
	s.EqualValues(1, entry.TimesTransferred)

	rr = s.do(http.MethodGet, "/v1/domains/alice.web3/resolution", nil)
	testutil.AssertStatus(s.T(), rr, http.StatusOK)
	s.Contains(rr.Body.String(), `"resolved_address":null`)

	rr = s.do(http.MethodGet, "/v1/events?full_name=alice.web3", nil)
	testutil.AssertStatus(s.T(), rr, http.StatusOK)
	page := testutil.DecodeResponse[evhandler.QueryResponse](s.T(), rr)
	var types []models.Type
	for _, e := range page.Events {
		types = append(types, e.Type)
	}
	s.Equal([]models.Type{
		models.TypeMint, models.TypeResolveUpdate, models.TypeList, models.TypeTransfer, models.TypeSale,
	}, types)
}

func (s *AppSuite) TestListingCeilingFromConfig() {
	s.NoError(s.app.Close())
	s.app = s.newApp(config.Server{MaxListingPrice: decimal.NewFromInt(1)})

	testutil.AssertStatus(s.T(), s.do(http.MethodPost, "/v1/domains", map[string]string{"full_name": "alice.web3", "owner": alice}), http.StatusCreated)
	rr := s.do(http.MethodPost, "/v1/listings", map[string]string{"full_name": "alice.web3", "seller": alice, "price": "2"})
	testutil.AssertStatus(s.T(), rr, http.StatusBadRequest)
}

func (s *AppSuite) TestExtensionsFromSeedFile() {
	path := filepath.Join(s.T().TempDir(), "extensions.yaml")
	s.Require().NoError(os.WriteFile(path, []byte("extensions:\n  - name: web3\n    base_price: \"0.1\"\n"), 0o600))
	s.NoError(s.app.Close())
	s.app = s.newApp(config.Server{ExtensionsFile: path})

	testutil.AssertStatus(s.T(), s.do(http.MethodPost, "/v1/domains", map[string]string{"full_name": "alice.web3", "owner": alice}), http.StatusCreated)
	testutil.AssertStatus(s.T(), s.do(http.MethodPost, "/v1/domains", map[string]string{"full_name": "alice.dao", "owner": alice}), http.StatusBadRequest)
}

func (s *AppSuite) TestMissingSeedFileFails() {
	_, err := New(context.Background(), config.Server{ExtensionsFile: "/nonexistent/extensions.yaml"}, logger.Discard())
	s.Error(err)
}

// ============================================================================
// Lifecycle
// ============================================================================

func (s *AppSuite) TestHealthzInMemory() {
	rr := s.do(http.MethodGet, "/healthz", nil)
	testutil.AssertStatus(s.T(), rr, http.StatusOK)
	s.JSONEq(`{"status":"ok"}`, rr.Body.String())
}

func (s *AppSuite) TestRunStopsOnCancel() {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.app.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		s.NoError(err)
	case <-time.After(5 * time.Second):
		s.Fail("Run did not return after cancel")
	}
}
