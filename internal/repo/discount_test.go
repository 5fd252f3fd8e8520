package repo_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/marketplace/internal/models"
	"github.com/Skotchmaster/marketplace/internal/repo"
	"github.com/Skotchmaster/marketplace/internal/testutil"
)

var today = time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

func seedDiscount(t *testing.T, r *repo.GormRepo, d models.DiscountCode) models.DiscountCode {
	t.Helper()
	if d.Amount.IsZero() {
		d.Amount = decimal.NewFromInt(10)
	}
	if d.Kind == "" {
		d.Kind = models.DiscountKindPercentage
	}
	if d.Status == "" {
		d.Status = models.DiscountStatusActive
	}
	if d.ExpiresAt.IsZero() {
		d.ExpiresAt = today.AddDate(0, 1, 0)
	}
	if d.UserID == 0 {
		d.UserID = 1
	}
	require.NoError(t, r.CreateDiscount(context.Background(), &d))
	return d
}

func TestCreateDiscount_Duplicate(t *testing.T) {
	r := testutil.NewRepo(t)
	seedDiscount(t, r, models.DiscountCode{Code: "SAVE10", MaxUses: 5})

	err := r.CreateDiscount(context.Background(), &models.DiscountCode{
		Code: "SAVE10", Amount: decimal.NewFromInt(5), Kind: models.DiscountKindFixed,
		Status: models.DiscountStatusActive, ExpiresAt: today, UserID: 2,
	})
	require.ErrorIs(t, err, repo.ErrDuplicate)
}

func TestConsumeDiscount_CapDeactivates(t *testing.T) {
	r := testutil.NewRepo(t)
	ctx := context.Background()
	seedDiscount(t, r, models.DiscountCode{Code: "TWICE", MaxUses: 2})

	d, err := r.ConsumeDiscount(ctx, "TWICE", today)
	require.NoError(t, err)
	assert.Equal(t, 1, d.UseCount)
	assert.Equal(t, models.DiscountStatusActive, d.Status)

	d, err = r.ConsumeDiscount(ctx, "TWICE", today)
	require.NoError(t, err)
	assert.Equal(t, 2, d.UseCount)
	assert.Equal(t, models.DiscountStatusInactive, d.Status)

	_, err = r.ConsumeDiscount(ctx, "TWICE", today)
	require.ErrorIs(t, err, repo.ErrNotFound)

	stored, err := r.DiscountByCode(ctx, "TWICE")
	require.NoError(t, err)
	assert.Equal(t, 2, stored.UseCount)
}

func TestConsumeDiscount_Rejections(t *testing.T) {
	r := testutil.NewRepo(t)
	ctx := context.Background()

	seedDiscount(t, r, models.DiscountCode{Code: "OLD", MaxUses: 5, ExpiresAt: today.Add(-time.Hour)})
	seedDiscount(t, r, models.DiscountCode{Code: "OFF", MaxUses: 5})
	require.NoError(t, r.DB.Model(&models.DiscountCode{}).Where("code = ?", "OFF").
		Update("status", models.DiscountStatusInactive).Error)

	for _, code := range []string{"OLD", "OFF", "MISSING"} {
		_, err := r.ConsumeDiscount(ctx, code, today)
		assert.ErrorIs(t, err, repo.ErrNotFound, code)
	}

	old, err := r.DiscountByCode(ctx, "OLD")
	require.NoError(t, err)
	assert.Equal(t, 0, old.UseCount)
}

func TestConsumeDiscount_ExpiresTodayIsValid(t *testing.T) {
	r := testutil.NewRepo(t)
	seedDiscount(t, r, models.DiscountCode{Code: "LASTDAY", MaxUses: 1, ExpiresAt: today.Add(9 * time.Hour)})

	d, err := r.ConsumeDiscount(context.Background(), "LASTDAY", today)
	require.NoError(t, err)
	assert.Equal(t, 1, d.UseCount)
}

func TestConsumeDiscount_Unlimited(t *testing.T) {
	r := testutil.NewRepo(t)
	ctx := context.Background()
	seedDiscount(t, r, models.DiscountCode{Code: "FOREVER", MaxUses: 0})

	for i := 1; i <= 5; i++ {
		d, err := r.ConsumeDiscount(ctx, "FOREVER", today)
		require.NoError(t, err)
		assert.Equal(t, i, d.UseCount)
		assert.Equal(t, models.DiscountStatusActive, d.Status)
	}
}

func TestConsumeDiscount_ConcurrentSingleUse(t *testing.T) {
	r := testutil.NewRepo(t)
	seedDiscount(t, r, models.DiscountCode{Code: "ONCE", MaxUses: 1})

	const workers = 16
	var (
		wg        sync.WaitGroup
		succeeded atomic.Int32
		notFound  atomic.Int32
	)
	start := make(chan struct{})
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := r.ConsumeDiscount(context.Background(), "ONCE", today)
			switch {
			case err == nil:
				succeeded.Add(1)
			case errors.Is(err, repo.ErrNotFound):
				notFound.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int32(1), succeeded.Load())
	assert.Equal(t, int32(workers-1), notFound.Load())

	d, err := r.DiscountByCode(context.Background(), "ONCE")
	require.NoError(t, err)
	assert.Equal(t, 1, d.UseCount)
	assert.Equal(t, models.DiscountStatusInactive, d.Status)
}

func TestListDiscounts_ActiveFirstThenLatestExpiry(t *testing.T) {
	r := testutil.NewRepo(t)
	seedDiscount(t, r, models.DiscountCode{Code: "A", MaxUses: 1, ExpiresAt: today.AddDate(0, 0, 1)})
	seedDiscount(t, r, models.DiscountCode{Code: "B", MaxUses: 1, ExpiresAt: today.AddDate(0, 0, 5)})
	seedDiscount(t, r, models.DiscountCode{Code: "C", MaxUses: 1, ExpiresAt: today.AddDate(0, 0, 9)})
	require.NoError(t, r.DB.Model(&models.DiscountCode{}).Where("code = ?", "C").
		Update("status", models.DiscountStatusInactive).Error)

	items, err := r.ListDiscounts(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, []string{"B", "A", "C"}, []string{items[0].Code, items[1].Code, items[2].Code})
}
