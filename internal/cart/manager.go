package cart

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/angelmondragon/storefront/internal/catalog"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/metrics"
)

const (
	DefaultStorageKey      = "shopping-cart"
	DefaultMinLoadDuration = 100 * time.Millisecond
)

type phase int

const (
	phaseLoading phase = iota
	phaseLoaded
)

type mutation struct {
	op    string
	apply func([]CartItem) []CartItem
}

// ManagerParams wires a Manager. Store is required; everything else defaults.
type ManagerParams struct {
	Store           Store
	StorageKey      string
	Logger          *logger.Logger
	Metrics         *metrics.CartMetrics
	MinLoadDuration time.Duration
	WriteTimeout    time.Duration
}

// Manager owns the live cart. The cart starts loading, hydrates once from the
// store, and from then on writes its full contents back after every mutation.
// Mutations issued while loading are queued and replayed on top of the loaded
// items, so a write never lands before the initial read completes.
type Manager struct {
	persist *persister
	logg    *logger.Logger
	metrics *metrics.CartMetrics
	minLoad time.Duration

	mu      sync.Mutex
	phase   phase
	items   []CartItem
	pending []mutation
	started bool
	cancel  context.CancelFunc
	done    chan struct{}
	ready   chan struct{}
}

func NewManager(params ManagerParams) (*Manager, error) {
	if params.Store == nil {
		return nil, errors.New("cart store is required")
	}
	if params.StorageKey == "" {
		params.StorageKey = DefaultStorageKey
	}
	if params.Logger == nil {
		params.Logger = logger.Nop()
	}
	if params.MinLoadDuration < 0 {
		params.MinLoadDuration = 0
	}

	return &Manager{
		persist: &persister{
			store:        params.Store,
			key:          params.StorageKey,
			logg:         params.Logger,
			metrics:      params.Metrics,
			writeTimeout: params.WriteTimeout,
		},
		logg:    params.Logger,
		metrics: params.Metrics,
		minLoad: params.MinLoadDuration,
		items:   []CartItem{},
		ready:   make(chan struct{}),
	}, nil
}

// Start kicks off the one-time load. Calling it again is a no-op.
func (m *Manager) Start(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.started {
		return
	}
	m.started = true

	loadCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.done = make(chan struct{})
	go m.load(loadCtx)
}

// Close abandons an in-flight load and waits for it to unwind. A load result
// that arrives after Close is discarded.
func (m *Manager) Close() {
	m.mu.Lock()
	cancel, done := m.cancel, m.done
	m.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (m *Manager) load(ctx context.Context) {
	defer close(m.done)
	start := time.Now()

	loaded := m.persist.load(ctx)

	if wait := m.minLoad - time.Since(start); wait > 0 {
		timer := time.NewTimer(wait)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
		}
	}
	if ctx.Err() != nil {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	items := loaded
	for _, mut := range m.pending {
		items = mut.apply(items)
	}
	replayed := len(m.pending)
	m.items = items
	m.pending = nil
	m.phase = phaseLoaded
	close(m.ready)

	m.metrics.ObserveLoad(time.Since(start))
	logCtx := m.logg.WithFields(m.logg.WithCartKey(ctx, m.persist.key), map[string]any{
		"items":    len(items),
		"replayed": replayed,
	})
	m.logg.Info(logCtx, "cart.loaded")

	if replayed > 0 {
		m.persist.save(ctx, m.items)
	}
}

// Ready is closed once the initial load has completed.
func (m *Manager) Ready() <-chan struct{} {
	return m.ready
}

// WaitReady blocks until the cart is loaded or ctx is done.
func (m *Manager) WaitReady(ctx context.Context) error {
	select {
	case <-m.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Manager) IsLoading() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.phase == phaseLoading
}

// StorageKey is the key the cart persists under.
func (m *Manager) StorageKey() string {
	return m.persist.key
}

// Items returns a copy of the cart lines in insertion order.
func (m *Manager) Items() []CartItem {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneItems(m.items)
}

// AddToCart increments the product's line, appending a new line at quantity 1
// when the product is not in the cart yet.
func (m *Manager) AddToCart(ctx context.Context, product catalog.Product) {
	m.mutate(ctx, "add", func(items []CartItem) []CartItem {
		return addItem(items, product)
	})
}

// RemoveFromCart drops the line for productID. Unknown ids are a no-op.
func (m *Manager) RemoveFromCart(ctx context.Context, productID int) {
	m.mutate(ctx, "remove", func(items []CartItem) []CartItem {
		return removeItem(items, productID)
	})
}

// UpdateQuantity sets an existing line's quantity. Zero or negative removes
// the line; unknown ids are left alone.
func (m *Manager) UpdateQuantity(ctx context.Context, productID, quantity int) {
	m.mutate(ctx, "update", func(items []CartItem) []CartItem {
		return setQuantity(items, productID, quantity)
	})
}

func (m *Manager) ClearCart(ctx context.Context) {
	m.mutate(ctx, "clear", func([]CartItem) []CartItem {
		return []CartItem{}
	})
}

func (m *Manager) mutate(ctx context.Context, op string, apply func([]CartItem) []CartItem) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.metrics.IncMutation(op)
	if m.phase == phaseLoading {
		m.pending = append(m.pending, mutation{op: op, apply: apply})
		m.logg.Debug(m.logg.WithField(ctx, "op", op), "cart.mutation.queued")
		return
	}

	m.items = apply(m.items)
	m.persist.save(ctx, m.items)
}

func cloneItems(items []CartItem) []CartItem {
	out := make([]CartItem, len(items))
	copy(out, items)
	return out
}

func indexOf(items []CartItem, productID int) int {
	for i, line := range items {
		if line.Product.ID == productID {
			return i
		}
	}
	return -1
}

func addItem(items []CartItem, product catalog.Product) []CartItem {
	if i := indexOf(items, product.ID); i >= 0 {
		out := cloneItems(items)
		out[i].Quantity++
		return out
	}
	out := make([]CartItem, len(items), len(items)+1)
	copy(out, items)
	return append(out, CartItem{Product: product, Quantity: 1})
}

func removeItem(items []CartItem, productID int) []CartItem {
	out := make([]CartItem, 0, len(items))
	for _, line := range items {
		if line.Product.ID != productID {
			out = append(out, line)
		}
	}
	return out
}

func setQuantity(items []CartItem, productID, quantity int) []CartItem {
	if quantity <= 0 {
		return removeItem(items, productID)
	}
	out := cloneItems(items)
	if i := indexOf(out, productID); i >= 0 {
		out[i].Quantity = quantity
	}
	return out
}
