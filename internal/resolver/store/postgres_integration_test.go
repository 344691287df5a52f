//go:build integration

package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"registrar/internal/resolver/models"
	"registrar/internal/resolver/store"
	"registrar/pkg/domain"
	"registrar/pkg/platform/sentinel"
	"registrar/pkg/platform/tx"
	"registrar/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.PostgresStore
	ctx      context.Context
	version  uint64
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.store = store.NewPostgres(s.postgres.DB)
	s.ctx = context.Background()
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(s.ctx, "resolution_records"))
}

func (s *PostgresStoreSuite) point(fullName string, addr domain.Account) {
	r, err := s.store.Get(s.ctx, fullName)
	if errors.Is(err, sentinel.ErrNotFound) {
		r, err = models.NewRecord(fullName, time.Now()), nil
	}
	s.Require().NoError(err)
	r.ResolvedAddress = &addr
	s.version++
	r.AddressVersion = s.version
	s.Require().NoError(s.store.Put(s.ctx, r))
}

func (s *PostgresStoreSuite) reverse(addr domain.Account) string {
	name, err := s.store.ReverseLookup(s.ctx, addr)
	if errors.Is(err, sentinel.ErrNotFound) {
		return ""
	}
	s.Require().NoError(err)
	return name
}

func (s *PostgresStoreSuite) TestRoundTripKeepsTextRecords() {
	r := models.NewRecord("alice.web3", time.Now())
	r.TextRecords["email"] = "a@x.io"
	r.TextRecords["notice"] = ""
	s.Require().NoError(s.store.Put(s.ctx, r))

	got, err := s.store.Get(s.ctx, "alice.web3")
	s.Require().NoError(err)
	s.Nil(got.ResolvedAddress)
	s.Equal(map[string]string{"email": "a@x.io", "notice": ""}, got.TextRecords)
}

func (s *PostgresStoreSuite) TestReverseLookupIsLastWriteWinsWithFallback() {
	s.point("a.web3", "0xB")
	s.point("b.web3", "0xB")
	s.Equal("b.web3", s.reverse("0xB"))

	s.Require().NoError(s.store.Put(s.ctx, models.NewRecord("b.web3", time.Now())))
	s.Equal("a.web3", s.reverse("0xB"))

	s.point("a.web3", "0xC")
	s.Equal("", s.reverse("0xB"))
}

func (s *PostgresStoreSuite) TestRolledBackPutIsInvisible() {
	s.point("a.web3", "0xB")
	runner := tx.NewPostgres(s.postgres.DB)

	err := runner.RunInTx(s.ctx, "a.web3", func(ctx context.Context) error {
		r := models.NewRecord("a.web3", time.Now())
		addr := domain.Account("0xC")
		r.ResolvedAddress = &addr
		s.Require().NoError(s.store.Put(ctx, r))
		return errors.New("abort")
	})
	s.Error(err)
	s.Equal("a.web3", s.reverse("0xB"))
	s.Equal("", s.reverse("0xC"))
}
