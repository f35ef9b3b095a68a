package bootstrap

import (
	"context"
	"fmt"

	"github.com/angelmondragon/storefront/internal/cart"
	"github.com/angelmondragon/storefront/pkg/config"
	"github.com/angelmondragon/storefront/pkg/db"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/migrate"
	pkgredis "github.com/angelmondragon/storefront/pkg/redis"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/multierr"
)

type pinger interface {
	Ping(ctx context.Context) error
}

// Storage is the durable cart store selected by configuration, along with the
// connections that back it.
type Storage struct {
	Store   cart.Store
	Backend string

	pingers map[string]pinger
	closers []func() error
	breaker *cart.BreakerStore
}

// OpenStorage connects the configured cart backend. The returned Storage must
// be closed even when only partially used.
func OpenStorage(ctx context.Context, cfg *config.Config, logg *logger.Logger) (*Storage, error) {
	if logg == nil {
		logg = logger.Nop()
	}
	s := &Storage{Backend: cfg.Cart.Store, pingers: map[string]pinger{}}

	switch cfg.Cart.Store {
	case config.CartStoreMemory:
		s.Store = cart.NewMemoryStore()
	case config.CartStoreRedis:
		client, err := pkgredis.New(ctx, cfg.Redis, logg)
		if err != nil {
			return nil, fmt.Errorf("bootstrap redis: %w", err)
		}
		s.closers = append(s.closers, client.Close)
		s.pingers["redis"] = client
		s.Store = cart.NewRedisStore(client, cfg.Redis.SnapshotTTL)
	case config.CartStoreSQL:
		client, err := db.New(ctx, cfg.DB, logg)
		if err != nil {
			return nil, fmt.Errorf("bootstrap database: %w", err)
		}
		s.closers = append(s.closers, client.Close)
		if err := migrate.MaybeRunDev(ctx, cfg, logg, client); err != nil {
			return nil, multierr.Append(fmt.Errorf("dev migrations: %w", err), s.Close())
		}
		s.pingers["database"] = client
		s.Store = cart.NewSQLStore(client.DB())
	default:
		return nil, fmt.Errorf("unknown cart store %q", cfg.Cart.Store)
	}

	if cfg.Breaker.Enabled && cfg.Cart.Store != config.CartStoreMemory {
		s.breaker = cart.NewBreakerStore(s.Store, cart.BreakerSettings{
			ConsecutiveFailures: cfg.Breaker.ConsecutiveFailures,
			OpenTimeout:         cfg.Breaker.OpenTimeout,
		}, logg)
		s.Store = s.breaker
	}

	logg.Info(logg.WithField(ctx, "backend", s.Backend), "cart storage ready")
	return s, nil
}

// Ping checks every backing connection and reports all failures together.
func (s *Storage) Ping(ctx context.Context) error {
	var err error
	for name, p := range s.pingers {
		if pingErr := p.Ping(ctx); pingErr != nil {
			err = multierr.Append(err, fmt.Errorf("%s: %w", name, pingErr))
		}
	}
	return err
}

// BreakerOpen reports whether the store breaker is currently rejecting calls.
func (s *Storage) BreakerOpen() bool {
	return s.breaker != nil && s.breaker.State() == gobreaker.StateOpen
}

func (s *Storage) Close() error {
	var err error
	for i := len(s.closers) - 1; i >= 0; i-- {
		err = multierr.Append(err, s.closers[i]())
	}
	s.closers = nil
	return err
}
