package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/marketplace/internal/events"
	"github.com/Skotchmaster/marketplace/internal/models"
	"github.com/Skotchmaster/marketplace/internal/testutil"
)

type memCache struct {
	mu    sync.Mutex
	items map[uint]models.Product
	hits  int
}

func newMemCache() *memCache { return &memCache{items: map[uint]models.Product{}} }

func (c *memCache) Get(_ context.Context, id uint) (*models.Product, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.items[id]
	if !ok {
		return nil, false, nil
	}
	c.hits++
	return &p, true, nil
}

func (c *memCache) Set(_ context.Context, p *models.Product) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[p.ID] = *p
	return nil
}

func (c *memCache) Invalidate(_ context.Context, id uint) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, id)
	return nil
}

type memIndex struct {
	mu   sync.Mutex
	docs map[uint]models.Product
	err  error
}

func (i *memIndex) IndexProduct(_ context.Context, p *models.Product) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.docs[p.ID] = *p
	return nil
}

func (i *memIndex) DeleteProduct(_ context.Context, id uint) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	delete(i.docs, id)
	return nil
}

func (i *memIndex) Search(_ context.Context, q string) ([]uint, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.err != nil {
		return nil, i.err
	}
	var ids []uint
	q = strings.ToLower(q)
	for id, p := range i.docs {
		if strings.Contains(strings.ToLower(p.Name), q) || strings.Contains(strings.ToLower(p.Description), q) {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func productInput(name string, price string, stock int) ProductInput {
	return ProductInput{Name: name, Price: dec(price), Stock: &stock, Category: "hogar"}
}

func TestCatalogService_CreateValidation(t *testing.T) {
	svc := &CatalogService{Products: testutil.NewRepo(t)}
	ctx := context.Background()

	negative := -1
	tests := []struct {
		name string
		in   ProductInput
	}{
		{name: "missing name", in: ProductInput{Price: dec("1"), Stock: intPtr(1), Category: "x"}},
		{name: "missing category", in: ProductInput{Name: "a", Price: dec("1"), Stock: intPtr(1)}},
		{name: "missing price", in: ProductInput{Name: "a", Stock: intPtr(1), Category: "x"}},
		{name: "missing stock", in: ProductInput{Name: "a", Price: dec("1"), Category: "x"}},
		{name: "zero price", in: ProductInput{Name: "a", Price: dec("0"), Stock: intPtr(1), Category: "x"}},
		{name: "price rounds to zero", in: ProductInput{Name: "a", Price: dec("0.004"), Stock: intPtr(1), Category: "x"}},
		{name: "negative stock", in: ProductInput{Name: "a", Price: dec("1"), Stock: &negative, Category: "x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, 1, tt.in)
			require.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestCatalogService_CreateDefaultsAndEvents(t *testing.T) {
	rec := &events.Recorder{}
	idx := &memIndex{docs: map[uint]models.Product{}}
	svc := &CatalogService{Products: testutil.NewRepo(t), Index: idx, Events: rec}
	ctx := context.Background()

	p, err := svc.Create(ctx, 9, productInput("Silla", "19.99", 0))
	require.NoError(t, err)
	assert.Equal(t, uint(9), p.UserID)
	assert.Equal(t, "", p.Description)
	assert.Equal(t, models.ImageList{}, p.Images)
	assert.Equal(t, models.ProductStatusAvailable, p.Status)
	assert.Contains(t, idx.docs, p.ID)

	got, err := svc.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("19.99").Equal(got.Price))

	_, err = svc.Get(ctx, 12345)
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, svc.Delete(ctx, 1, p.ID))
	assert.NotContains(t, idx.docs, p.ID)
	require.ErrorIs(t, svc.Delete(ctx, 1, p.ID), ErrNotFound)

	assert.Equal(t, []string{"created", "deleted"}, rec.Types(events.TopicProducts))
}

func TestCatalogService_OwnerOnly(t *testing.T) {
	ctx := context.Background()
	r := testutil.NewRepo(t)

	open := &CatalogService{Products: r}
	p, err := open.Create(ctx, 1, productInput("Mesa", "10", 1))
	require.NoError(t, err)

	_, err = open.Update(ctx, 2, p.ID, productInput("Mesa 2", "11", 1))
	require.NoError(t, err, "any authenticated user may edit by default")

	strict := &CatalogService{Products: r, OwnerOnly: true}
	_, err = strict.Update(ctx, 2, p.ID, productInput("Mesa 3", "12", 1))
	require.ErrorIs(t, err, ErrForbidden)
	require.ErrorIs(t, strict.Delete(ctx, 2, p.ID), ErrForbidden)

	upd, err := strict.Update(ctx, 1, p.ID, productInput("Mesa 3", "12", 1))
	require.NoError(t, err)
	assert.Equal(t, "Mesa 3", upd.Name)

	_, err = strict.Update(ctx, 1, 999, productInput("x", "1", 1))
	require.ErrorIs(t, err, ErrNotFound)
}

func TestCatalogService_CacheReadThroughAndInvalidation(t *testing.T) {
	ctx := context.Background()
	cache := newMemCache()
	svc := &CatalogService{Products: testutil.NewRepo(t), Cache: cache}

	p, err := svc.Create(ctx, 1, productInput("Lampara", "5", 2))
	require.NoError(t, err)

	_, err = svc.Get(ctx, p.ID)
	require.NoError(t, err)
	_, err = svc.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, cache.hits)

	_, err = svc.Update(ctx, 1, p.ID, productInput("Lampara LED", "6", 2))
	require.NoError(t, err)

	got, err := svc.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Lampara LED", got.Name)
}

func TestCatalogService_Search(t *testing.T) {
	ctx := context.Background()
	idx := &memIndex{docs: map[uint]models.Product{}}
	svc := &CatalogService{Products: testutil.NewRepo(t), Index: idx}

	for _, name := range []string{"Zapato Rojo", "Bolso rojo", "Silla"} {
		_, err := svc.Create(ctx, 1, productInput(name, "1", 1))
		require.NoError(t, err)
	}

	_, err := svc.Search(ctx, "  ")
	require.ErrorIs(t, err, ErrValidation)

	found, err := svc.Search(ctx, "ROJO")
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, "Bolso rojo", found[0].Name)
	assert.Equal(t, "Zapato Rojo", found[1].Name)

	idx.err = errors.New("cluster unavailable")
	found, err = svc.Search(ctx, "rojo")
	require.NoError(t, err)
	assert.Len(t, found, 2)
}
