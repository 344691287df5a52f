package handler

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"registrar/internal/eventlog/models"
	"registrar/internal/eventlog/service"
	"registrar/internal/eventlog/store"
	"registrar/internal/platform/logger"
	"registrar/pkg/domain"
	"registrar/pkg/testutil"
)

func setup(t *testing.T) (http.Handler, *service.Log) {
	t.Helper()
	log, err := service.New(store.NewInMemoryStore())
	require.NoError(t, err)
	r := chi.NewRouter()
	New(log, logger.Discard()).Register(r)
	return r, log
}

func seed(t *testing.T, log *service.Log, names ...string) {
	t.Helper()
	for _, n := range names {
		_, err := log.Append(context.Background(),
			models.NewEvent(models.TypeMint, n, domain.Account("a"), "", nil, testutil.FixedTime))
		require.NoError(t, err)
	}
}

func TestQueryPaginates(t *testing.T) {
	router, log := setup(t)
	seed(t, log, "a.web3", "b.web3", "a.web3", "a.web3")

	rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodGet, "/events?full_name=A.web3&limit=2", nil))
	testutil.AssertStatus(t, rr, http.StatusOK)
	page := testutil.DecodeResponse[QueryResponse](t, rr)
	require.Len(t, page.Events, 2)
	assert.Equal(t, uint64(3), page.Next)

	rr = testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodGet, "/events?full_name=a.web3&limit=2&after=3", nil))
	page = testutil.DecodeResponse[QueryResponse](t, rr)
	require.Len(t, page.Events, 1)
	assert.Equal(t, uint64(4), page.Events[0].Sequence)
	assert.Zero(t, page.Next)
}

func TestQueryRejectsBadParams(t *testing.T) {
	router, _ := setup(t)
	for _, path := range []string{"/events?type=burn", "/events?after=x", "/events?since=yesterday", "/events?limit=0"} {
		rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodGet, path, nil))
		testutil.AssertStatus(t, rr, http.StatusBadRequest)
	}
}

func TestQuerySince(t *testing.T) {
	router, log := setup(t)
	seed(t, log, "a.web3")
	since := testutil.FixedTime.Add(time.Minute).Format(time.RFC3339)

	rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodGet, "/events?since="+since, nil))
	page := testutil.DecodeResponse[QueryResponse](t, rr)
	assert.Empty(t, page.Events)
}

func TestRecentAndGet(t *testing.T) {
	router, log := setup(t)
	seed(t, log, "a.web3", "b.web3")

	rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodGet, "/events/recent?limit=1", nil))
	testutil.AssertStatus(t, rr, http.StatusOK)
	recent := testutil.DecodeResponse[[]models.Event](t, rr)
	require.Len(t, *recent, 1)
	assert.Equal(t, "b.web3", (*recent)[0].FullName)

	rr = testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodGet, "/events/1", nil))
	testutil.AssertStatus(t, rr, http.StatusOK)

	rr = testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodGet, "/events/9", nil))
	testutil.AssertStatus(t, rr, http.StatusNotFound)

	rr = testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodGet, "/events/zero", nil))
	testutil.AssertStatus(t, rr, http.StatusBadRequest)
}

func TestSetStatus(t *testing.T) {
	router, log := setup(t)
	e := models.NewEvent(models.TypeSale, "a.web3", domain.Account("a"), "", nil, testutil.FixedTime)
	e.Status = models.StatusPending
	_, err := log.Append(context.Background(), e)
	require.NoError(t, err)

	rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPut, "/events/1/status", map[string]string{"status": "pending"}))
	testutil.AssertStatus(t, rr, http.StatusBadRequest)

	rr = testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPut, "/events/1/status", map[string]string{"status": "confirmed"}))
	testutil.AssertStatus(t, rr, http.StatusNoContent)

	rr = testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPut, "/events/1/status", map[string]string{"status": "failed"}))
	testutil.AssertStatus(t, rr, http.StatusConflict)
}
