package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"registrar/internal/extension/models"
	"registrar/internal/extension/service"
	"registrar/internal/extension/store"
	"registrar/internal/platform/logger"
	"registrar/pkg/testutil"
)

func newRouter(t *testing.T) http.Handler {
	t.Helper()
	svc := service.New(store.NewInMemoryStore())
	require.NoError(t, svc.Seed(context.Background(), store.Defaults()))
	r := chi.NewRouter()
	New(svc, logger.Discard()).Register(r)
	return r
}

func TestListExtensions(t *testing.T) {
	router := newRouter(t)
	rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodGet, "/extensions", nil))
	testutil.AssertStatus(t, rr, http.StatusOK)

	exts := testutil.DecodeResponse[[]models.Extension](t, rr)
	assert.Len(t, *exts, 6)
}

func TestUpsertAndToggle(t *testing.T) {
	router := newRouter(t)

	rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPut, "/extensions/eth", map[string]any{
		"base_price":   "0.05",
		"tier_pricing": map[string]string{"3": "4"},
		"description":  "Ethereum",
	}))
	testutil.AssertStatus(t, rr, http.StatusOK)
	ext := testutil.DecodeResponse[models.Extension](t, rr)
	assert.Equal(t, "eth", ext.Name)
	assert.True(t, ext.Enabled)

	rr = testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodGet, "/extensions/eth/quote?label=abc", nil))
	testutil.AssertStatus(t, rr, http.StatusOK)
	quote := testutil.DecodeResponse[QuoteResponse](t, rr)
	assert.Equal(t, "abc.eth", quote.FullName)
	assert.Equal(t, "0.2", quote.Price.String())

	rr = testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPut, "/extensions/eth/enabled", map[string]bool{"enabled": false}))
	testutil.AssertStatus(t, rr, http.StatusOK)

	rr = testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodGet, "/extensions/eth/quote?label=abc", nil))
	testutil.AssertErrorReason(t, rr, http.StatusBadRequest, "unknown_extension")
}

func TestUpsertRejectsNegativePrice(t *testing.T) {
	router := newRouter(t)
	rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPut, "/extensions/eth", map[string]any{
		"base_price": "-1",
	}))
	testutil.AssertStatus(t, rr, http.StatusBadRequest)
}

func TestGetUnknownExtension(t *testing.T) {
	router := newRouter(t)
	rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodGet, "/extensions/nope", nil))
	testutil.AssertStatus(t, rr, http.StatusNotFound)
}

func TestQuoteRejectsBadLabel(t *testing.T) {
	router := newRouter(t)
	rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodGet, "/extensions/web3/quote?label=-bad", nil))
	testutil.AssertErrorReason(t, rr, http.StatusBadRequest, "invalid_name_format")
}
