package checkout

import (
	"context"
	"errors"
	"time"

	"github.com/angelmondragon/storefront/internal/cart"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/metrics"
	"github.com/shopspring/decimal"
)

const DefaultDelay = 2 * time.Second

type cartManager interface {
	WaitReady(ctx context.Context) error
	Summary(flatTax float64) cart.Summary
	ClearCart(ctx context.Context)
}

// Receipt reports what a simulated checkout settled.
type Receipt struct {
	ItemCount   int
	Subtotal    decimal.Decimal
	Tax         decimal.Decimal
	Total       decimal.Decimal
	CompletedAt time.Time
}

// Service simulates placing the order for the live cart.
type Service interface {
	Checkout(ctx context.Context) (*Receipt, error)
}

type ServiceParams struct {
	Cart    cartManager
	FlatTax float64
	Delay   time.Duration
	Logger  *logger.Logger
	Metrics *metrics.CartMetrics

	now   func() time.Time
	sleep func(time.Duration)
}

type service struct {
	cart    cartManager
	flatTax float64
	delay   time.Duration
	logg    *logger.Logger
	metrics *metrics.CartMetrics
	now     func() time.Time
	sleep   func(time.Duration)
}

func NewService(params ServiceParams) (Service, error) {
	if params.Cart == nil {
		return nil, errors.New("cart manager is required")
	}
	if params.Delay < 0 {
		params.Delay = 0
	}
	if params.Logger == nil {
		params.Logger = logger.Nop()
	}
	if params.now == nil {
		params.now = time.Now
	}
	if params.sleep == nil {
		params.sleep = time.Sleep
	}
	return &service{
		cart:    params.Cart,
		flatTax: params.FlatTax,
		delay:   params.Delay,
		logg:    params.Logger,
		metrics: params.Metrics,
		now:     params.now,
		sleep:   params.sleep,
	}, nil
}

// Checkout waits for the cart to finish loading, runs the artificial delay,
// then always succeeds and clears the cart. Once the delay has started it is
// not interrupted by ctx.
func (s *service) Checkout(ctx context.Context) (*Receipt, error) {
	if err := s.cart.WaitReady(ctx); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeStateConflict, err, "cart is still loading")
	}

	s.sleep(s.delay)

	summary := s.cart.Summary(s.flatTax)
	s.cart.ClearCart(ctx)
	s.metrics.IncCheckout()

	receipt := &Receipt{
		ItemCount:   summary.TotalItems,
		Subtotal:    summary.Subtotal,
		Tax:         summary.Tax,
		Total:       summary.Total,
		CompletedAt: s.now().UTC(),
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"items": receipt.ItemCount,
		"total": receipt.Total.StringFixed(2),
	})
	s.logg.Info(logCtx, "checkout.completed")
	return receipt, nil
}
