package main

import (
	"context"
	"io"
	"os"
	"os/signal"

	"github.com/joho/godotenv"

	"github.com/angelmondragon/storefront/internal/bootstrap"
	"github.com/angelmondragon/storefront/internal/cart"
	"github.com/angelmondragon/storefront/internal/catalog"
	"github.com/angelmondragon/storefront/pkg/config"
	"github.com/angelmondragon/storefront/pkg/logger"
)

func main() {
	logg := newCLILogger(os.Stderr)

	_ = godotenv.Load()

	a, err := newApp(context.Background(), logg)
	if err != nil {
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd(a).ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func newCLILogger(out io.Writer) *logger.Logger {
	return logger.New(logger.Options{
		ServiceName: "cartctl",
		Level:       logger.ParseLevel("warn"),
		Format:      logger.FormatConsole,
		Output:      out,
	})
}

// newApp loads configuration and wires the store and catalog loaders. A
// configuration failure is logged before it is returned.
func newApp(ctx context.Context, logg *logger.Logger) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		logg.Error(ctx, "failed to load config", err)
		return nil, err
	}

	return &app{
		storageKey: cfg.Cart.StorageKey,
		flatTax:    cfg.Cart.FlatTax,
		logg:       logg,
		openStore: func(ctx context.Context) (cart.Store, func() error, error) {
			storage, err := bootstrap.OpenStorage(ctx, cfg, logg)
			if err != nil {
				return nil, nil, err
			}
			return storage.Store, storage.Close, nil
		},
		loadCatalog: func() (*catalog.Catalog, error) {
			return catalog.Load(cfg.Catalog.Path)
		},
	}, nil
}
