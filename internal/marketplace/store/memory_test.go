package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"registrar/internal/marketplace/models"
	"registrar/pkg/platform/sentinel"
	"registrar/pkg/platform/tx"
)

func TestInMemoryStore(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("list active orders newest first", func(t *testing.T) {
		s := NewInMemoryStore()
		require.NoError(t, s.Save(ctx, models.NewListing("a.web3", "0xA", decimal.NewFromInt(1), base)))
		require.NoError(t, s.Save(ctx, models.NewListing("b.web3", "0xA", decimal.NewFromInt(2), base.Add(time.Minute))))
		closed := models.NewListing("c.web3", "0xA", decimal.NewFromInt(3), base)
		closed.Active = false
		require.NoError(t, s.Save(ctx, closed))

		active, err := s.ListActive(ctx, models.Filter{Sort: models.SortNewest})
		require.NoError(t, err)
		require.Len(t, active, 2)
		assert.Equal(t, "b.web3", active[0].FullName)
		assert.Equal(t, "a.web3", active[1].FullName)
	})

	t.Run("list active filters sorts and pages", func(t *testing.T) {
		s := NewInMemoryStore()
		for i, l := range []struct {
			name  string
			price int64
		}{
			{"ab.web3", 5},
			{"abcd.web3", 1},
			{"abcdef.web3", 3},
			{"abc.dao", 2},
			{"zzzzz.web3", 9},
		} {
			require.NoError(t, s.Save(ctx, models.NewListing(l.name, "0xA", decimal.NewFromInt(l.price), base.Add(time.Duration(i)*time.Minute))))
		}
		names := func(f models.Filter) []string {
			t.Helper()
			require.NoError(t, f.Normalize())
			got, err := s.ListActive(ctx, f)
			require.NoError(t, err)
			out := make([]string, 0, len(got))
			for _, l := range got {
				out = append(out, l.FullName)
			}
			return out
		}
		lo, hi := decimal.NewFromInt(2), decimal.NewFromInt(5)

		assert.Equal(t, []string{"abcd.web3", "abcdef.web3", "ab.web3", "zzzzz.web3"},
			names(models.Filter{Extension: ".WEB3", Sort: models.SortPriceAsc}))
		assert.Equal(t, []string{"abc.dao", "abcdef.web3", "abcd.web3", "ab.web3"},
			names(models.Filter{Search: "ab"}))
		assert.Equal(t, []string{"ab.web3", "abcdef.web3", "abc.dao"},
			names(models.Filter{MinPrice: &lo, MaxPrice: &hi, Sort: models.SortPriceDesc}))
		assert.Equal(t, []string{"ab.web3", "abc.dao"}, names(models.Filter{Length: models.LengthShort, Sort: models.SortOldest}))
		assert.Equal(t, []string{"abcd.web3"}, names(models.Filter{Length: models.LengthFour}))
		assert.Equal(t, []string{"abcdef.web3", "zzzzz.web3"}, names(models.Filter{Length: models.LengthLong, Sort: models.SortOldest}))
		assert.Equal(t, []string{"ab.web3", "abc.dao", "abcd.web3", "zzzzz.web3", "abcdef.web3"},
			names(models.Filter{Sort: models.SortLength}))
		assert.Equal(t, []string{"abcdef.web3", "abc.dao"}, names(models.Filter{Sort: models.SortOldest, Offset: 2, Limit: 2}))
		assert.Empty(t, names(models.Filter{Offset: 10}))
	})

	t.Run("rollback restores previous listing", func(t *testing.T) {
		s := NewInMemoryStore()
		require.NoError(t, s.Save(ctx, models.NewListing("a.web3", "0xA", decimal.NewFromInt(1), base)))

		err := tx.NewSharded().RunInTx(ctx, "a.web3", func(ctx context.Context) error {
			l, err := s.Get(ctx, "a.web3")
			require.NoError(t, err)
			l.Active = false
			require.NoError(t, s.Save(ctx, l))
			require.NoError(t, s.Save(ctx, models.NewListing("new.web3", "0xB", decimal.NewFromInt(5), base)))
			return errors.New("abort")
		})
		require.Error(t, err)

		l, err := s.Get(ctx, "a.web3")
		require.NoError(t, err)
		assert.True(t, l.Active)
		_, err = s.Get(ctx, "new.web3")
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})
}
