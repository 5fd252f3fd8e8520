package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/marketplace/internal/events"
	"github.com/Skotchmaster/marketplace/internal/models"
	"github.com/Skotchmaster/marketplace/internal/repo"
	"github.com/Skotchmaster/marketplace/pkg/logging"
)

const DefaultMaxUses = 100

var hundred = decimal.NewFromInt(100)

type DiscountStore interface {
	CreateDiscount(ctx context.Context, d *models.DiscountCode) error
	DiscountByCode(ctx context.Context, code string) (*models.DiscountCode, error)
	ConsumeDiscount(ctx context.Context, code string, startOfToday time.Time) (*models.DiscountCode, error)
	ListDiscounts(ctx context.Context) ([]models.DiscountCode, error)
}

type DiscountService struct {
	Discounts DiscountStore
	Events    events.Publisher
	Now       func() time.Time
}

type DiscountInput struct {
	Code    string
	Amount  *decimal.Decimal
	Kind    string
	MaxUses *int
}

func (in DiscountInput) validate() error {
	if strings.TrimSpace(in.Code) == "" || in.Amount == nil || strings.TrimSpace(in.Kind) == "" {
		return fail(ErrValidation, "codigo, descuento and tipo_descuento are required")
	}
	amount := in.Amount.Round(2)
	switch in.Kind {
	case models.DiscountKindPercentage:
		if !amount.IsPositive() || amount.GreaterThan(hundred) {
			return fail(ErrValidation, "percentage discount must be greater than 0 and at most 100")
		}
	case models.DiscountKindFixed:
		if !amount.IsPositive() {
			return fail(ErrValidation, "fixed discount must be greater than 0")
		}
	default:
		return fail(ErrValidation, `tipo_descuento must be "%" or "CLP"`)
	}
	if in.MaxUses != nil && *in.MaxUses < 0 {
		return fail(ErrValidation, "uso_maximo cannot be negative")
	}
	return nil
}

// Create stores a new active code that expires one calendar month from now.
func (s *DiscountService) Create(ctx context.Context, ownerID uint, in DiscountInput) (*models.DiscountCode, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	maxUses := DefaultMaxUses
	if in.MaxUses != nil {
		maxUses = *in.MaxUses
	}

	now := nowFunc(s.Now)
	d := models.DiscountCode{
		UserID:    ownerID,
		Code:      strings.TrimSpace(in.Code),
		Amount:    in.Amount.Round(2),
		Kind:      in.Kind,
		UseCount:  0,
		MaxUses:   maxUses,
		Status:    models.DiscountStatusActive,
		ExpiresAt: AddMonthsClamped(now, 1),
	}
	if err := s.Discounts.CreateDiscount(ctx, &d); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, fail(ErrConflict, "discount code already exists")
		}
		return nil, err
	}

	publish(ctx, s.Events, events.TopicDiscounts, d.Code, "created",
		map[string]any{"codigo": d.Code, "tipo_descuento": d.Kind, "uso_maximo": d.MaxUses, "fecha_expiracion": d.ExpiresAt}, now)
	return &d, nil
}

// ValidateAndConsume spends one use of code. Every rejection is reported as
// ErrNotFound; the concrete reason is only logged at debug level.
func (s *DiscountService) ValidateAndConsume(ctx context.Context, code string) (*models.DiscountCode, error) {
	l := logging.FromContext(ctx).With("svc", "discount.validate")

	code = strings.TrimSpace(code)
	if code == "" {
		return nil, fail(ErrValidation, "discount code is required")
	}

	now := nowFunc(s.Now)
	today := StartOfDay(now)
	d, err := s.Discounts.ConsumeDiscount(ctx, code, today)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			if l.Enabled(ctx, slog.LevelDebug) {
				l.Debug("discount_rejected", "code", code, "reason", s.rejectReason(ctx, code, today))
			}
			return nil, fail(ErrNotFound, "discount code not found or no longer valid")
		}
		return nil, err
	}

	publish(ctx, s.Events, events.TopicDiscounts, d.Code, "consumed",
		map[string]any{"codigo": d.Code, "uso_actual": d.UseCount, "estado": d.Status}, now)
	return d, nil
}

func (s *DiscountService) List(ctx context.Context) ([]models.DiscountCode, error) {
	return s.Discounts.ListDiscounts(ctx)
}

func (s *DiscountService) rejectReason(ctx context.Context, code string, today time.Time) string {
	d, err := s.Discounts.DiscountByCode(ctx, code)
	switch {
	case errors.Is(err, repo.ErrNotFound):
		return "unknown"
	case err != nil:
		return "lookup failed: " + err.Error()
	case d.Status != models.DiscountStatusActive:
		return "inactive"
	case d.ExpiresAt.Before(today):
		return "expired"
	case d.MaxUses != 0 && d.UseCount >= d.MaxUses:
		return "exhausted"
	default:
		return "concurrently consumed"
	}
}

// AddMonthsClamped adds calendar months and clamps the day to the last day
// of the target month, so Jan 31 + 1 month is the last day of February.
func AddMonthsClamped(t time.Time, months int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(months), 1, 0, 0, 0, 0, t.Location())
	if last := daysIn(first.Year(), first.Month(), t.Location()); d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func daysIn(y int, m time.Month, loc *time.Location) int {
	return time.Date(y, m+1, 0, 0, 0, 0, 0, loc).Day()
}

func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
