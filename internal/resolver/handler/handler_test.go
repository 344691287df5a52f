package handler

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"registrar/internal/platform/logger"
	"registrar/internal/resolver/handler/mocks"
	"registrar/internal/resolver/models"
	"registrar/pkg/domain"
	dErrors "registrar/pkg/domain-errors"
	"registrar/pkg/testutil"
)

type HandlerSuite struct {
	suite.Suite
	ctrl    *gomock.Controller
	service *mocks.MockService
	router  http.Handler
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.service = mocks.NewMockService(s.ctrl)
	r := chi.NewRouter()
	New(s.service, logger.Discard()).Register(r)
	s.router = r
}

func (s *HandlerSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *HandlerSuite) do(method, path string, body any) *httptest.ResponseRecorder {
	return testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), method, path, body))
}

func (s *HandlerSuite) TestResolve() {
	s.Run("resolved", func() {
		target := domain.Account("0xB")
		s.service.EXPECT().Resolve(gomock.Any(), "alice.web3").Return(&target, nil)

		rr := s.do(http.MethodGet, "/domains/Alice.web3/resolution", nil)
		testutil.AssertStatus(s.T(), rr, http.StatusOK)
		resp := testutil.DecodeResponse[ResolveResponse](s.T(), rr)
		s.Equal("alice.web3", resp.FullName)
		s.Equal(target, *resp.ResolvedAddress)
	})

	s.Run("unresolved is null, not an error", func() {
		s.service.EXPECT().Resolve(gomock.Any(), "bob.web3").Return(nil, nil)

		rr := s.do(http.MethodGet, "/domains/bob.web3/resolution", nil)
		testutil.AssertStatus(s.T(), rr, http.StatusOK)
		s.JSONEq(`{"full_name":"bob.web3","resolved_address":null}`, rr.Body.String())
	})
}

func (s *HandlerSuite) TestSetResolution() {
	s.Run("success", func() {
		target := domain.Account("0xB")
		s.service.EXPECT().SetResolution(gomock.Any(), "alice.web3", domain.Account("0xA"), target).
			Return(&models.Record{FullName: "alice.web3", ResolvedAddress: &target, TextRecords: map[string]string{}}, nil)

		rr := s.do(http.MethodPut, "/domains/alice.web3/resolution", map[string]string{"caller": "0xA", "address": "0xB"})
		testutil.AssertStatus(s.T(), rr, http.StatusOK)
	})

	s.Run("not owner maps to forbidden", func() {
		s.service.EXPECT().SetResolution(gomock.Any(), "alice.web3", domain.Account("0xC"), domain.Account("0xB")).
			Return(nil, domain.ErrNotOwner("alice.web3"))

		rr := s.do(http.MethodPut, "/domains/alice.web3/resolution", map[string]string{"caller": "0xC", "address": "0xB"})
		testutil.AssertStatus(s.T(), rr, http.StatusForbidden)
		s.Contains(rr.Body.String(), domain.ReasonNotOwner)
	})

	s.Run("missing address", func() {
		rr := s.do(http.MethodPut, "/domains/alice.web3/resolution", map[string]string{"caller": "0xA"})
		testutil.AssertStatus(s.T(), rr, http.StatusBadRequest)
	})
}

func (s *HandlerSuite) TestClearResolution() {
	s.service.EXPECT().ClearResolution(gomock.Any(), "alice.web3", domain.Account("0xA")).
		Return(&models.Record{FullName: "alice.web3", TextRecords: map[string]string{}}, nil)

	rr := s.do(http.MethodDelete, "/domains/alice.web3/resolution", map[string]string{"caller": "0xA"})
	testutil.AssertStatus(s.T(), rr, http.StatusOK)
}

func (s *HandlerSuite) TestTextRecords() {
	s.Run("set keeps empty values", func() {
		s.service.EXPECT().SetTextRecord(gomock.Any(), "alice.web3", domain.Account("0xA"), "notice", "").
			Return(&models.Record{FullName: "alice.web3", TextRecords: map[string]string{"notice": ""}}, nil)

		rr := s.do(http.MethodPut, "/domains/alice.web3/records/notice", map[string]string{"caller": "0xA", "value": ""})
		testutil.AssertStatus(s.T(), rr, http.StatusOK)
	})

	s.Run("set requires a value field", func() {
		rr := s.do(http.MethodPut, "/domains/alice.web3/records/notice", map[string]string{"caller": "0xA"})
		testutil.AssertStatus(s.T(), rr, http.StatusBadRequest)
	})

	s.Run("unknown key in closed namespace", func() {
		s.service.EXPECT().SetTextRecord(gomock.Any(), "alice.web3", domain.Account("0xA"), "colour", "blue").
			Return(nil, dErrors.NewReason(dErrors.CodeValidation, domain.ReasonUnknownTextRecordKey, "unknown text record key colour"))

		rr := s.do(http.MethodPut, "/domains/alice.web3/records/colour", map[string]string{"caller": "0xA", "value": "blue"})
		testutil.AssertStatus(s.T(), rr, http.StatusBadRequest)
		s.Contains(rr.Body.String(), domain.ReasonUnknownTextRecordKey)
	})

	s.Run("get set key", func() {
		s.service.EXPECT().GetTextRecord(gomock.Any(), "alice.web3", "email").Return("a@x.io", true, nil)

		rr := s.do(http.MethodGet, "/domains/alice.web3/records/email", nil)
		testutil.AssertStatus(s.T(), rr, http.StatusOK)
		s.JSONEq(`{"full_name":"alice.web3","key":"email","value":"a@x.io"}`, rr.Body.String())
	})

	s.Run("get unset key is null", func() {
		s.service.EXPECT().GetTextRecord(gomock.Any(), "alice.web3", "email").Return("", false, nil)

		rr := s.do(http.MethodGet, "/domains/alice.web3/records/email", nil)
		testutil.AssertStatus(s.T(), rr, http.StatusOK)
		s.JSONEq(`{"full_name":"alice.web3","key":"email","value":null}`, rr.Body.String())
	})

	s.Run("remove", func() {
		s.service.EXPECT().RemoveTextRecord(gomock.Any(), "alice.web3", domain.Account("0xA"), "email").
			Return(&models.Record{FullName: "alice.web3", TextRecords: map[string]string{}}, nil)

		rr := s.do(http.MethodDelete, "/domains/alice.web3/records/email", map[string]string{"caller": "0xA"})
		testutil.AssertStatus(s.T(), rr, http.StatusOK)
	})
}

func (s *HandlerSuite) TestRecordNotFound() {
	s.service.EXPECT().Record(gomock.Any(), "ghost.web3").Return(nil, domain.ErrNotFound("ghost.web3"))

	rr := s.do(http.MethodGet, "/domains/ghost.web3/records", nil)
	testutil.AssertStatus(s.T(), rr, http.StatusNotFound)
}

func (s *HandlerSuite) TestStatus() {
	s.service.EXPECT().Status(gomock.Any(), "alice.web3").
		Return(&models.Status{FullName: "alice.web3", Owner: "0xA"}, nil)

	rr := s.do(http.MethodGet, "/domains/alice.web3/status", nil)
	testutil.AssertStatus(s.T(), rr, http.StatusOK)
	status := testutil.DecodeResponse[models.Status](s.T(), rr)
	s.False(status.Resolved)
}

func (s *HandlerSuite) TestReverse() {
	s.Run("address is checksummed before lookup", func() {
		s.service.EXPECT().
			ReverseResolve(gomock.Any(), domain.Account("0x52908400098527886E0F7030069857D2E4169EE7")).
			Return("alice.web3", true, nil)

		rr := s.do(http.MethodGet, "/reverse/0x52908400098527886e0f7030069857d2e4169ee7", nil)
		testutil.AssertStatus(s.T(), rr, http.StatusOK)
		resp := testutil.DecodeResponse[ReverseResponse](s.T(), rr)
		s.Equal("alice.web3", *resp.FullName)
	})

	s.Run("no mapping", func() {
		s.service.EXPECT().ReverseResolve(gomock.Any(), domain.Account("0xB")).Return("", false, nil)

		rr := s.do(http.MethodGet, "/reverse/0xB", nil)
		testutil.AssertStatus(s.T(), rr, http.StatusOK)
		s.JSONEq(`{"address":"0xB","full_name":null}`, rr.Body.String())
	})
}

func (s *HandlerSuite) TestBatch() {
	s.Run("success", func() {
		target := domain.Account("0xB")
		s.service.EXPECT().BatchResolve(gomock.Any(), []string{"a.web3", "b.web3"}).
			Return(map[string]*domain.Account{"a.web3": &target, "b.web3": nil}, nil)

		rr := s.do(http.MethodPost, "/resolve/batch", map[string][]string{"full_names": {"a.web3", "b.web3"}})
		testutil.AssertStatus(s.T(), rr, http.StatusOK)
		s.JSONEq(`{"a.web3":"0xB","b.web3":null}`, rr.Body.String())
	})

	s.Run("empty batch", func() {
		rr := s.do(http.MethodPost, "/resolve/batch", map[string][]string{"full_names": {}})
		testutil.AssertStatus(s.T(), rr, http.StatusBadRequest)
	})
}
