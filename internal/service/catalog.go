package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/marketplace/internal/events"
	"github.com/Skotchmaster/marketplace/internal/models"
	"github.com/Skotchmaster/marketplace/internal/repo"
	"github.com/Skotchmaster/marketplace/pkg/logging"
)

type ProductStore interface {
	ListProducts(ctx context.Context) ([]models.Product, error)
	ProductsByCategory(ctx context.Context, category string) ([]models.Product, error)
	SearchProducts(ctx context.Context, q string) ([]models.Product, error)
	ProductByID(ctx context.Context, id uint) (*models.Product, error)
	ProductsByIDs(ctx context.Context, ids []uint) ([]models.Product, error)
	ProductsByOwner(ctx context.Context, userID uint) ([]models.Product, error)
	CreateProduct(ctx context.Context, p *models.Product) error
	UpdateProduct(ctx context.Context, id uint, in models.Product) (*models.Product, error)
	DeleteProduct(ctx context.Context, id uint) error
}

type ProductCache interface {
	Get(ctx context.Context, id uint) (*models.Product, bool, error)
	Set(ctx context.Context, p *models.Product) error
	Invalidate(ctx context.Context, id uint) error
}

type ProductIndex interface {
	IndexProduct(ctx context.Context, p *models.Product) error
	DeleteProduct(ctx context.Context, id uint) error
	Search(ctx context.Context, q string) ([]uint, error)
}

// CatalogService owns product listings. Cache and Index are optional.
type CatalogService struct {
	Products  ProductStore
	Cache     ProductCache
	Index     ProductIndex
	Events    events.Publisher
	OwnerOnly bool
	Now       func() time.Time
}

type ProductInput struct {
	Name        string
	Description string
	Price       *decimal.Decimal
	Stock       *int
	Category    string
	Images      []string
	Status      string
}

func (in ProductInput) validate() error {
	if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.Category) == "" || in.Price == nil || in.Stock == nil {
		return fail(ErrValidation, "name, price, stock and category are required")
	}
	// Prices are stored with two decimals; validate what will be stored.
	if !in.Price.Round(2).IsPositive() {
		return fail(ErrValidation, "price must be greater than 0")
	}
	if *in.Stock < 0 {
		return fail(ErrValidation, "stock cannot be negative")
	}
	return nil
}

func (in ProductInput) model() models.Product {
	images := models.ImageList(in.Images)
	if images == nil {
		images = models.ImageList{}
	}
	status := strings.TrimSpace(in.Status)
	if status == "" {
		status = models.ProductStatusAvailable
	}
	return models.Product{
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Price:       in.Price.Round(2),
		Stock:       *in.Stock,
		Category:    strings.TrimSpace(in.Category),
		Images:      images,
		Status:      status,
	}
}

func (s *CatalogService) List(ctx context.Context) ([]models.Product, error) {
	return s.Products.ListProducts(ctx)
}

func (s *CatalogService) ByCategory(ctx context.Context, category string) ([]models.Product, error) {
	return s.Products.ProductsByCategory(ctx, category)
}

func (s *CatalogService) ByOwner(ctx context.Context, userID uint) ([]models.Product, error) {
	return s.Products.ProductsByOwner(ctx, userID)
}

// Search uses the index when one is configured and falls back to SQL on
// index errors. Results are ordered by name.
func (s *CatalogService) Search(ctx context.Context, q string) ([]models.Product, error) {
	l := logging.FromContext(ctx).With("svc", "catalog.search")

	q = strings.TrimSpace(q)
	if q == "" {
		return nil, fail(ErrValidation, "search query is required")
	}

	if s.Index != nil {
		ids, err := s.Index.Search(ctx, q)
		if err == nil {
			items, err := s.Products.ProductsByIDs(ctx, ids)
			if err != nil {
				return nil, err
			}
			sort.SliceStable(items, func(i, j int) bool { return items[i].Name < items[j].Name })
			return items, nil
		}
		l.Warn("index_search_failed", "reason", "falling back to database", "error", err)
	}
	return s.Products.SearchProducts(ctx, q)
}

func (s *CatalogService) Get(ctx context.Context, id uint) (*models.Product, error) {
	l := logging.FromContext(ctx).With("svc", "catalog.get", "product_id", id)

	if s.Cache != nil {
		p, ok, err := s.Cache.Get(ctx, id)
		switch {
		case err != nil:
			l.Warn("cache_get_failed", "error", err)
		case ok:
			return p, nil
		}
	}

	p, err := s.Products.ProductByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, fail(ErrNotFound, "product not found")
		}
		return nil, err
	}

	if s.Cache != nil {
		if err := s.Cache.Set(ctx, p); err != nil {
			l.Warn("cache_set_failed", "error", err)
		}
	}
	return p, nil
}

func (s *CatalogService) Create(ctx context.Context, ownerID uint, in ProductInput) (*models.Product, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	p := in.model()
	p.UserID = ownerID
	if err := s.Products.CreateProduct(ctx, &p); err != nil {
		return nil, err
	}

	s.mirror(ctx, &p)
	publish(ctx, s.Events, events.TopicProducts, idKey(p.ID), "created", productPayload(&p), nowFunc(s.Now))
	return &p, nil
}

func (s *CatalogService) Update(ctx context.Context, callerID, id uint, in ProductInput) (*models.Product, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, callerID, id); err != nil {
		return nil, err
	}

	p, err := s.Products.UpdateProduct(ctx, id, in.model())
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, fail(ErrNotFound, "product not found")
		}
		return nil, err
	}

	s.invalidate(ctx, id)
	s.mirror(ctx, p)
	publish(ctx, s.Events, events.TopicProducts, idKey(p.ID), "updated", productPayload(p), nowFunc(s.Now))
	return p, nil
}

func (s *CatalogService) Delete(ctx context.Context, callerID, id uint) error {
	l := logging.FromContext(ctx).With("svc", "catalog.delete", "product_id", id)

	if err := s.authorize(ctx, callerID, id); err != nil {
		return err
	}
	if err := s.Products.DeleteProduct(ctx, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return fail(ErrNotFound, "product not found")
		}
		return err
	}

	s.invalidate(ctx, id)
	if s.Index != nil {
		if err := s.Index.DeleteProduct(ctx, id); err != nil {
			l.Warn("index_delete_failed", "error", err)
		}
	}
	publish(ctx, s.Events, events.TopicProducts, idKey(id), "deleted", map[string]any{"id_producto": id}, nowFunc(s.Now))
	return nil
}

// authorize enforces the owner-only policy when it is switched on.
func (s *CatalogService) authorize(ctx context.Context, callerID, id uint) error {
	if !s.OwnerOnly {
		return nil
	}
	p, err := s.Products.ProductByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return fail(ErrNotFound, "product not found")
		}
		return err
	}
	if p.UserID != callerID {
		return fail(ErrForbidden, "only the owner can modify this product")
	}
	return nil
}

func (s *CatalogService) invalidate(ctx context.Context, id uint) {
	if s.Cache == nil {
		return
	}
	if err := s.Cache.Invalidate(ctx, id); err != nil {
		logging.FromContext(ctx).Warn("cache_invalidate_failed", "product_id", id, "error", err)
	}
}

func (s *CatalogService) mirror(ctx context.Context, p *models.Product) {
	if s.Index == nil {
		return
	}
	if err := s.Index.IndexProduct(ctx, p); err != nil {
		logging.FromContext(ctx).Warn("index_product_failed", "product_id", p.ID, "error", err)
	}
}

func productPayload(p *models.Product) map[string]any {
	return map[string]any{
		"id_producto": p.ID,
		"id_usuario":  p.UserID,
		"categoria":   p.Category,
		"precio":      p.Price.StringFixed(2),
		"stock":       p.Stock,
	}
}
