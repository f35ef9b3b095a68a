package cart

import (
	"context"
	"errors"
	"time"

	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/sony/gobreaker/v2"
)

// BreakerSettings tunes when the store breaker trips and how long it stays open.
type BreakerSettings struct {
	ConsecutiveFailures uint32
	OpenTimeout         time.Duration
}

// BreakerStore fails fast once the wrapped store keeps erroring.
// ErrNotFound and caller cancellations do not count as failures.
type BreakerStore struct {
	next Store
	cb   *gobreaker.CircuitBreaker[string]
}

func NewBreakerStore(next Store, settings BreakerSettings, logg *logger.Logger) *BreakerStore {
	if settings.ConsecutiveFailures == 0 {
		settings.ConsecutiveFailures = 5
	}
	if logg == nil {
		logg = logger.Nop()
	}
	threshold := settings.ConsecutiveFailures

	cb := gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:    "cart-store",
		Timeout: settings.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: func(err error) bool {
			return err == nil ||
				errors.Is(err, ErrNotFound) ||
				errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			ctx := logg.WithFields(context.Background(), map[string]any{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			})
			logg.Warn(ctx, "cart.store.breaker_state_changed")
		},
	})
	return &BreakerStore{next: next, cb: cb}
}

func (b *BreakerStore) Get(ctx context.Context, key string) (string, error) {
	return b.cb.Execute(func() (string, error) {
		return b.next.Get(ctx, key)
	})
}

func (b *BreakerStore) Set(ctx context.Context, key, value string) error {
	_, err := b.cb.Execute(func() (string, error) {
		return "", b.next.Set(ctx, key, value)
	})
	return err
}

// State exposes the breaker state for readiness reporting.
func (b *BreakerStore) State() gobreaker.State {
	return b.cb.State()
}
