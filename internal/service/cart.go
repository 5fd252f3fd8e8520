package service

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/marketplace/internal/events"
	"github.com/Skotchmaster/marketplace/internal/models"
	"github.com/Skotchmaster/marketplace/internal/repo"
)

type CartStore interface {
	CartItems(ctx context.Context, userID uint) ([]models.CartItem, error)
	AddToCart(ctx context.Context, userID, productID uint, qty int, unitPrice decimal.Decimal) (*models.CartItem, error)
	SetCartQuantity(ctx context.Context, userID, productID uint, qty int) (*models.CartItem, error)
	RemoveCartItem(ctx context.Context, userID, productID uint) error
	ClearCart(ctx context.Context, userID uint) error
}

type ProductLookup interface {
	ProductByID(ctx context.Context, id uint) (*models.Product, error)
}

type CartService struct {
	Cart     CartStore
	Products ProductLookup
	Events   events.Publisher
	Now      func() time.Time
}

func (s *CartService) Get(ctx context.Context, userID uint) ([]models.CartItem, error) {
	return s.Cart.CartItems(ctx, userID)
}

// Add puts qty units of a product in the cart. The unit price is captured
// when the line is first created.
func (s *CartService) Add(ctx context.Context, userID, productID uint, qty int) (*models.CartItem, error) {
	if productID == 0 {
		return nil, fail(ErrValidation, "productId and quantity are required")
	}
	if qty <= 0 {
		return nil, fail(ErrValidation, "quantity must be greater than 0")
	}

	p, err := s.Products.ProductByID(ctx, productID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, fail(ErrNotFound, "product not found")
		}
		return nil, err
	}

	item, err := s.Cart.AddToCart(ctx, userID, productID, qty, p.Price)
	if err != nil {
		return nil, err
	}

	publish(ctx, s.Events, events.TopicCart, idKey(userID), "item_added",
		map[string]any{"user_id": userID, "product_id": productID, "quantity": qty}, nowFunc(s.Now))
	return item, nil
}

func (s *CartService) SetQuantity(ctx context.Context, userID, productID uint, qty int) (*models.CartItem, error) {
	if qty <= 0 {
		return nil, fail(ErrValidation, "quantity must be greater than 0")
	}

	item, err := s.Cart.SetCartQuantity(ctx, userID, productID, qty)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, fail(ErrNotFound, "item not found in cart")
		}
		return nil, err
	}

	publish(ctx, s.Events, events.TopicCart, idKey(userID), "quantity_set",
		map[string]any{"user_id": userID, "product_id": productID, "quantity": qty}, nowFunc(s.Now))
	return item, nil
}

// Remove is idempotent.
func (s *CartService) Remove(ctx context.Context, userID, productID uint) error {
	if err := s.Cart.RemoveCartItem(ctx, userID, productID); err != nil {
		return err
	}
	publish(ctx, s.Events, events.TopicCart, idKey(userID), "item_removed",
		map[string]any{"user_id": userID, "product_id": productID}, nowFunc(s.Now))
	return nil
}

func (s *CartService) Clear(ctx context.Context, userID uint) error {
	if err := s.Cart.ClearCart(ctx, userID); err != nil {
		return err
	}
	publish(ctx, s.Events, events.TopicCart, idKey(userID), "cleared", map[string]any{"user_id": userID}, nowFunc(s.Now))
	return nil
}

// CartTotal sums the line totals.
func CartTotal(items []models.CartItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Total)
	}
	return total
}
