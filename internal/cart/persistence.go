package cart

import (
	"context"
	"errors"
	"time"

	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/metrics"
)

// persister never surfaces store errors. Failed or unparseable reads load as
// an empty cart and failed writes are dropped; both are logged and counted.
type persister struct {
	store        Store
	key          string
	logg         *logger.Logger
	metrics      *metrics.CartMetrics
	writeTimeout time.Duration
}

func (p *persister) load(ctx context.Context) []CartItem {
	ctx = p.logg.WithCartKey(ctx, p.key)

	raw, err := p.store.Get(ctx, p.key)
	if errors.Is(err, ErrNotFound) {
		p.logg.Debug(ctx, "cart.load.empty")
		return []CartItem{}
	}
	if err != nil {
		if ctx.Err() == nil {
			p.metrics.IncPersistFailure("read")
			p.logg.Error(ctx, "cart.load.failed", err)
		}
		return []CartItem{}
	}

	items, err := DecodeItems(raw)
	if err != nil {
		p.metrics.IncPersistFailure("decode")
		p.logg.Error(ctx, "cart.load.unparseable", err)
		return []CartItem{}
	}
	return items
}

// save writes the full snapshot. The write is detached from the caller's
// cancellation and bounded by the write timeout instead.
func (p *persister) save(ctx context.Context, items []CartItem) {
	ctx = p.logg.WithCartKey(context.WithoutCancel(ctx), p.key)

	raw, err := EncodeItems(items)
	if err != nil {
		p.metrics.IncPersistFailure("encode")
		p.logg.Error(ctx, "cart.save.encode_failed", err)
		return
	}

	if p.writeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.writeTimeout)
		defer cancel()
	}

	if err := p.store.Set(ctx, p.key, raw); err != nil {
		p.metrics.IncPersistFailure("write")
		p.logg.Error(ctx, "cart.save.failed", err)
	}
}
