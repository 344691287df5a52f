package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"registrar/internal/eventlog/models"
	"registrar/pkg/domain"
	"registrar/pkg/platform/sentinel"
	"registrar/pkg/platform/tx"
)

var at = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func mint(fullName string) *models.Event {
	return models.NewEvent(models.TypeMint, fullName, domain.Account("owner"), "", nil, at)
}

func TestAppendOutsideTransaction(t *testing.T) {
	st := NewInMemoryStore()
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		seq, err := st.Append(ctx, mint("alice.web3"))
		require.NoError(t, err)
		assert.Equal(t, uint64(i), seq)
	}
	hw, err := st.HighWater(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), hw)
}

func TestAppendInsideTransactionIsHiddenUntilCommit(t *testing.T) {
	st := NewInMemoryStore()
	runner := tx.NewSharded()
	ctx := context.Background()

	err := runner.RunInTx(ctx, "alice.web3", func(ctx context.Context) error {
		seq, err := st.Append(ctx, mint("alice.web3"))
		require.NoError(t, err)
		assert.Equal(t, uint64(1), seq)

		hw, _ := st.HighWater(ctx)
		assert.Zero(t, hw, "uncommitted events are not visible")
		return nil
	})
	require.NoError(t, err)

	hw, err := st.HighWater(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), hw)
}

func TestRollbackReturnsSequenceNumbers(t *testing.T) {
	st := NewInMemoryStore()
	runner := tx.NewSharded()
	ctx := context.Background()
	failure := errors.New("boom")

	err := runner.RunInTx(ctx, "alice.web3", func(ctx context.Context) error {
		_, _ = st.Append(ctx, mint("alice.web3"))
		_, _ = st.Append(ctx, mint("alice.web3"))
		return failure
	})
	require.ErrorIs(t, err, failure)

	seq, err := st.Append(ctx, mint("bob.web3"))
	require.NoError(t, err)
	assert.Equal(t, uint64(1), seq, "rolled back sequences are reused")

	e, err := st.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "bob.web3", e.FullName)
}

func TestConcurrentTransactionsStayGapFree(t *testing.T) {
	st := NewInMemoryStore()
	runner := tx.NewSharded()
	ctx := context.Background()

	const workers = 32
	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			name := fmt.Sprintf("name%d.web3", i)
			_ = runner.RunInTx(ctx, name, func(ctx context.Context) error {
				_, _ = st.Append(ctx, mint(name))
				_, _ = st.Append(ctx, mint(name))
				if i%3 == 0 {
					return errors.New("abort")
				}
				return nil
			})
		}()
	}
	wg.Wait()

	hw, err := st.HighWater(ctx)
	require.NoError(t, err)
	page, err := st.Page(ctx, models.Filter{}, hw, int(hw)+1)
	require.NoError(t, err)
	for i, e := range page {
		assert.Equal(t, uint64(i+1), e.Sequence)
	}
	// Each committed transaction's two events are adjacent.
	for i := 0; i+1 < len(page); i += 2 {
		assert.Equal(t, page[i].FullName, page[i+1].FullName)
	}
}

func TestPageAndRecent(t *testing.T) {
	st := NewInMemoryStore()
	ctx := context.Background()
	for _, name := range []string{"a.web3", "b.web3", "a.web3", "c.web3", "a.web3"} {
		_, err := st.Append(ctx, mint(name))
		require.NoError(t, err)
	}

	page, err := st.Page(ctx, models.Filter{FullName: "a.web3"}, 5, 2)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, uint64(1), page[0].Sequence)
	assert.Equal(t, uint64(3), page[1].Sequence)

	page, err = st.Page(ctx, models.Filter{FullName: "a.web3", After: 3}, 4, 10)
	require.NoError(t, err)
	assert.Empty(t, page, "upTo bounds the page")

	recent, err := st.Recent(ctx, models.Filter{FullName: "a.web3"}, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, uint64(5), recent[0].Sequence)
	assert.Equal(t, uint64(3), recent[1].Sequence)
}

func TestSetStatus(t *testing.T) {
	st := NewInMemoryStore()
	ctx := context.Background()
	e := mint("alice.web3")
	e.Status = models.StatusPending
	seq, err := st.Append(ctx, e)
	require.NoError(t, err)

	require.NoError(t, st.SetStatus(ctx, seq, models.StatusFailed))
	assert.ErrorIs(t, st.SetStatus(ctx, seq, models.StatusConfirmed), sentinel.ErrInvalidState)
	assert.ErrorIs(t, st.SetStatus(ctx, 99, models.StatusConfirmed), sentinel.ErrNotFound)

	got, err := st.Get(ctx, seq)
	require.NoError(t, err)
	assert.Equal(t, models.StatusFailed, got.Status)
}
