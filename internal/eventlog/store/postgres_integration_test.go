//go:build integration

package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"registrar/internal/eventlog/models"
	"registrar/internal/eventlog/store"
	"registrar/pkg/domain"
	"registrar/pkg/platform/tx"
	"registrar/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.PostgresStore
	ctx      context.Context
	at       time.Time
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
	s.at = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(s.ctx, "events"))
}

func (s *PostgresStoreSuite) TestAppendAssignsConsecutiveSequences() {
	price := decimal.RequireFromString("1.5")
	for i, e := range []*models.Event{
		models.NewEvent(models.TypeMint, "alice.web3", "0xA", "", nil, s.at),
		models.NewEvent(models.TypeList, "alice.web3", "0xA", "", &price, s.at),
	} {
		seq, err := s.store.Append(s.ctx, e)
		s.Require().NoError(err)
		s.EqualValues(i+1, seq)
	}

	got, err := s.store.Get(s.ctx, 2)
	s.Require().NoError(err)
	s.Equal(models.TypeList, got.Type)
	s.True(price.Equal(*got.Amount))
	s.Equal(domain.Account(""), got.Counterparty)
}

func (s *PostgresStoreSuite) TestRollbackLeavesNoGap() {
	runner := tx.NewPostgres(s.postgres.DB)
	err := runner.RunInTx(s.ctx, "alice.web3", func(ctx context.Context) error {
		_, err := s.store.Append(ctx, models.NewEvent(models.TypeMint, "alice.web3", "0xA", "", nil, s.at))
		s.Require().NoError(err)
		return errors.New("abort")
	})
	s.Error(err)

	seq, err := s.store.Append(s.ctx, models.NewEvent(models.TypeMint, "bob.web3", "0xB", "", nil, s.at))
	s.Require().NoError(err)
	s.EqualValues(1, seq)
}

func (s *PostgresStoreSuite) TestRecentIsNewestFirst() {
	for _, name := range []string{"a.web3", "b.web3", "c.web3"} {
		_, err := s.store.Append(s.ctx, models.NewEvent(models.TypeMint, name, "0xA", "", nil, s.at))
		s.Require().NoError(err)
	}
	events, err := s.store.Recent(s.ctx, models.Filter{}, 2)
	s.Require().NoError(err)
	s.Require().Len(events, 2)
	s.Equal("c.web3", events[0].FullName)
	s.Equal("b.web3", events[1].FullName)
}
