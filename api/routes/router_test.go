package routes

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/storefront/internal/cart"
	"github.com/angelmondragon/storefront/internal/catalog"
	"github.com/angelmondragon/storefront/internal/checkout"
	"github.com/angelmondragon/storefront/pkg/config"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/metrics"
)

type stubStorage struct {
	err         error
	breakerOpen bool
}

func (s stubStorage) Ping(context.Context) error {
	return s.err
}

func (s stubStorage) BreakerOpen() bool {
	return s.breakerOpen
}

type blockingStore struct {
	*cart.MemoryStore
	release chan struct{}
}

func (b *blockingStore) Get(ctx context.Context, key string) (string, error) {
	select {
	case <-b.release:
	case <-ctx.Done():
		return "", ctx.Err()
	}
	return b.MemoryStore.Get(ctx, key)
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

type cartBody struct {
	Items []struct {
		Product   catalog.Product `json:"product"`
		Quantity  int             `json:"quantity"`
		LineTotal string          `json:"line_total"`
	} `json:"items"`
	IsLoading  bool `json:"is_loading"`
	TotalItems int  `json:"total_items"`
	Summary    struct {
		Subtotal string `json:"subtotal"`
		Tax      string `json:"tax"`
		Total    string `json:"total"`
	} `json:"summary"`
}

type testServer struct {
	handler http.Handler
	manager *cart.Manager
	store   cart.Store
}

func testConfig() *config.Config {
	return &config.Config{
		App:  config.AppConfig{Env: config.AppEnvDev},
		Cart: config.CartConfig{StorageKey: cart.DefaultStorageKey, FlatTax: 10},
	}
}

func newTestServer(t *testing.T, store cart.Store, storage storageHealth, start bool) *testServer {
	t.Helper()
	cfg := testConfig()
	logg := logger.Nop()
	registry := prometheus.NewRegistry()
	cartMetrics := metrics.NewCartMetrics(registry)

	products, err := catalog.Load("")
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}

	mgr, err := cart.NewManager(cart.ManagerParams{Store: store, Logger: logg, Metrics: cartMetrics})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	t.Cleanup(mgr.Close)
	if start {
		mgr.Start(context.Background())
		if err := mgr.WaitReady(context.Background()); err != nil {
			t.Fatalf("wait ready: %v", err)
		}
	}

	svc, err := checkout.NewService(checkout.ServiceParams{Cart: mgr, FlatTax: cfg.Cart.FlatTax, Metrics: cartMetrics, Logger: logg})
	if err != nil {
		t.Fatalf("new checkout: %v", err)
	}

	return &testServer{
		handler: NewRouter(cfg, logg, registry, storage, mgr, products, svc),
		manager: mgr,
		store:   store,
	}
}

func (s *testServer) do(t *testing.T, method, path, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, req)

	var env envelope
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
			t.Fatalf("%s %s: decode envelope: %v (%s)", method, path, err, w.Body.String())
		}
	}
	return w, env
}

func decodeCart(t *testing.T, env envelope) cartBody {
	t.Helper()
	var body cartBody
	if err := json.Unmarshal(env.Data, &body); err != nil {
		t.Fatalf("decode cart: %v", err)
	}
	return body
}

func TestHealthEndpoints(t *testing.T) {
	srv := newTestServer(t, cart.NewMemoryStore(), stubStorage{}, true)

	w, _ := srv.do(t, http.MethodGet, "/health/live", "")
	if w.Code != http.StatusOK {
		t.Fatalf("live: expected 200, got %d", w.Code)
	}
	if w.Header().Get("X-Request-Id") == "" {
		t.Fatal("expected request id header")
	}

	w, _ = srv.do(t, http.MethodGet, "/health/ready", "")
	if w.Code != http.StatusOK {
		t.Fatalf("ready: expected 200, got %d", w.Code)
	}
}

func TestReadyFailsWhileLoadingOrStorageDown(t *testing.T) {
	loading := newTestServer(t, cart.NewMemoryStore(), stubStorage{}, false)
	w, env := loading.do(t, http.MethodGet, "/health/ready", "")
	if w.Code != http.StatusServiceUnavailable || env.Error == nil || env.Error.Code != "DEPENDENCY_ERROR" {
		t.Fatalf("expected 503 while loading, got %d %s", w.Code, w.Body.String())
	}

	down := newTestServer(t, cart.NewMemoryStore(), stubStorage{err: errors.New("redis down")}, true)
	w, _ = down.do(t, http.MethodGet, "/health/ready", "")
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 with storage down, got %d", w.Code)
	}

	tripped := newTestServer(t, cart.NewMemoryStore(), stubStorage{breakerOpen: true}, true)
	w, env = tripped.do(t, http.MethodGet, "/health/ready", "")
	if w.Code != http.StatusServiceUnavailable || env.Error == nil || env.Error.Details["storage"] != "breaker_open" {
		t.Fatalf("expected 503 breaker_open, got %d %s", w.Code, w.Body.String())
	}
}

func TestProductsEndpoints(t *testing.T) {
	srv := newTestServer(t, cart.NewMemoryStore(), nil, true)

	w, env := srv.do(t, http.MethodGet, "/api/v1/products", "")
	if w.Code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", w.Code)
	}
	var list []catalog.Product
	if err := json.Unmarshal(env.Data, &list); err != nil || len(list) == 0 {
		t.Fatalf("unexpected product list err=%v body=%s", err, env.Data)
	}

	w, env = srv.do(t, http.MethodGet, "/api/v1/products?limit=2", "")
	var limited []catalog.Product
	if err := json.Unmarshal(env.Data, &limited); err != nil || w.Code != http.StatusOK || len(limited) != 2 {
		t.Fatalf("expected 2 products, got %d err=%v body=%s", w.Code, err, env.Data)
	}
	if limited[0].ID != list[0].ID {
		t.Fatalf("limit must keep catalog order")
	}

	w, _ = srv.do(t, http.MethodGet, "/api/v1/products?limit=0", "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for limit=0, got %d", w.Code)
	}

	w, _ = srv.do(t, http.MethodGet, "/api/v1/products/1", "")
	if w.Code != http.StatusOK {
		t.Fatalf("get: expected 200, got %d", w.Code)
	}

	w, env = srv.do(t, http.MethodGet, "/api/v1/products/999", "")
	if w.Code != http.StatusNotFound || env.Error.Code != "NOT_FOUND" {
		t.Fatalf("expected 404, got %d %s", w.Code, w.Body.String())
	}

	w, _ = srv.do(t, http.MethodGet, "/api/v1/products/abc", "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad id, got %d", w.Code)
	}
}

func TestCartLifecycle(t *testing.T) {
	srv := newTestServer(t, cart.NewMemoryStore(), nil, true)

	w, env := srv.do(t, http.MethodPost, "/api/v1/cart/items", `{"product_id":1}`)
	if w.Code != http.StatusOK {
		t.Fatalf("add: expected 200, got %d %s", w.Code, w.Body.String())
	}
	body := decodeCart(t, env)
	if len(body.Items) != 1 || body.Items[0].Quantity != 1 {
		t.Fatalf("unexpected cart after add %+v", body)
	}

	w, env = srv.do(t, http.MethodPost, "/api/v1/cart/items", `{"product_id":1,"quantity":2}`)
	if w.Code != http.StatusOK {
		t.Fatalf("add qty: expected 200, got %d", w.Code)
	}
	body = decodeCart(t, env)
	if len(body.Items) != 1 || body.Items[0].Quantity != 3 {
		t.Fatalf("expected merged line with quantity 3, got %+v", body.Items)
	}

	_, env = srv.do(t, http.MethodPost, "/api/v1/cart/items", `{"product_id":2}`)
	body = decodeCart(t, env)
	if len(body.Items) != 2 || body.TotalItems != 4 {
		t.Fatalf("unexpected cart %+v", body)
	}

	w, env = srv.do(t, http.MethodPatch, "/api/v1/cart/items/2", `{"quantity":5}`)
	if w.Code != http.StatusOK {
		t.Fatalf("patch: expected 200, got %d", w.Code)
	}
	body = decodeCart(t, env)
	if body.Items[1].Quantity != 5 {
		t.Fatalf("expected quantity 5, got %+v", body.Items)
	}

	_, env = srv.do(t, http.MethodPatch, "/api/v1/cart/items/2", `{"quantity":0}`)
	body = decodeCart(t, env)
	if len(body.Items) != 1 || body.Items[0].Product.ID != 1 {
		t.Fatalf("quantity 0 must remove the line, got %+v", body.Items)
	}

	_, env = srv.do(t, http.MethodDelete, "/api/v1/cart/items/42", "")
	body = decodeCart(t, env)
	if len(body.Items) != 1 {
		t.Fatalf("removing an absent product must be a no-op, got %+v", body.Items)
	}

	_, env = srv.do(t, http.MethodDelete, "/api/v1/cart/items/1", "")
	body = decodeCart(t, env)
	if len(body.Items) != 0 {
		t.Fatalf("expected empty cart, got %+v", body.Items)
	}
}

func TestCartSummaryAndTotals(t *testing.T) {
	srv := newTestServer(t, cart.NewMemoryStore(), nil, true)
	ctx := context.Background()
	lamp := catalog.Product{ID: 1, Name: "Lamp", Price: 10}
	mug := catalog.Product{ID: 2, Name: "Mug", Price: 5}
	srv.manager.AddToCart(ctx, lamp)
	srv.manager.AddToCart(ctx, mug)
	srv.manager.UpdateQuantity(ctx, lamp.ID, 2)
	srv.manager.UpdateQuantity(ctx, mug.ID, 3)

	_, env := srv.do(t, http.MethodGet, "/api/v1/cart", "")
	body := decodeCart(t, env)
	if body.Summary.Subtotal != "35.00" || body.Summary.Tax != "10.00" || body.Summary.Total != "25.00" {
		t.Fatalf("unexpected summary %+v", body.Summary)
	}
	if body.Items[0].LineTotal != "20.00" {
		t.Fatalf("unexpected line total %q", body.Items[0].LineTotal)
	}

	_, env = srv.do(t, http.MethodGet, "/api/v1/cart/totals?adjustment=5", "")
	var totals struct {
		TotalItems int    `json:"total_items"`
		Total      string `json:"total"`
	}
	if err := json.Unmarshal(env.Data, &totals); err != nil {
		t.Fatalf("decode totals: %v", err)
	}
	if totals.TotalItems != 5 || totals.Total != "30.00" {
		t.Fatalf("unexpected totals %+v", totals)
	}

	w, _ := srv.do(t, http.MethodGet, "/api/v1/cart/totals?adjustment=lots", "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad adjustment, got %d", w.Code)
	}
}

func TestCartValidation(t *testing.T) {
	srv := newTestServer(t, cart.NewMemoryStore(), nil, true)

	cases := []struct {
		method, path, body string
		status             int
	}{
		{http.MethodPost, "/api/v1/cart/items", `{"product_id":999}`, http.StatusNotFound},
		{http.MethodPost, "/api/v1/cart/items", `{"product_id":1,"quantity":100}`, http.StatusBadRequest},
		{http.MethodPost, "/api/v1/cart/items", `{"product_id":1,"extra":true}`, http.StatusBadRequest},
		{http.MethodPost, "/api/v1/cart/items", `{}`, http.StatusBadRequest},
		{http.MethodPatch, "/api/v1/cart/items/1", `{}`, http.StatusBadRequest},
		{http.MethodPatch, "/api/v1/cart/items/x", `{"quantity":1}`, http.StatusBadRequest},
	}
	for _, tc := range cases {
		w, _ := srv.do(t, tc.method, tc.path, tc.body)
		if w.Code != tc.status {
			t.Fatalf("%s %s %s: expected %d, got %d (%s)", tc.method, tc.path, tc.body, tc.status, w.Code, w.Body.String())
		}
	}
}

func TestMutationsDuringLoadAreAccepted(t *testing.T) {
	store := &blockingStore{MemoryStore: cart.NewMemoryStore(), release: make(chan struct{})}
	srv := newTestServer(t, store, nil, false)
	srv.manager.Start(context.Background())

	w, env := srv.do(t, http.MethodPost, "/api/v1/cart/items", `{"product_id":3}`)
	if w.Code != http.StatusAccepted {
		t.Fatalf("expected 202 while loading, got %d", w.Code)
	}
	if body := decodeCart(t, env); !body.IsLoading {
		t.Fatal("expected is_loading=true")
	}

	close(store.release)
	if err := srv.manager.WaitReady(context.Background()); err != nil {
		t.Fatalf("wait ready: %v", err)
	}

	_, env = srv.do(t, http.MethodGet, "/api/v1/cart", "")
	body := decodeCart(t, env)
	if body.IsLoading || len(body.Items) != 1 || body.Items[0].Product.ID != 3 {
		t.Fatalf("expected queued add to be replayed, got %+v", body)
	}
}

func TestCheckoutEndpoint(t *testing.T) {
	srv := newTestServer(t, cart.NewMemoryStore(), nil, true)
	srv.do(t, http.MethodPost, "/api/v1/cart/items", `{"product_id":1,"quantity":2}`)

	w, env := srv.do(t, http.MethodPost, "/api/v1/checkout", "")
	if w.Code != http.StatusOK {
		t.Fatalf("checkout: expected 200, got %d %s", w.Code, w.Body.String())
	}
	var receipt struct {
		Status    string `json:"status"`
		ItemCount int    `json:"item_count"`
	}
	if err := json.Unmarshal(env.Data, &receipt); err != nil {
		t.Fatalf("decode receipt: %v", err)
	}
	if receipt.Status != "completed" || receipt.ItemCount != 2 {
		t.Fatalf("unexpected receipt %+v", receipt)
	}

	_, env = srv.do(t, http.MethodGet, "/api/v1/cart", "")
	if body := decodeCart(t, env); len(body.Items) != 0 {
		t.Fatalf("expected cart cleared after checkout, got %+v", body.Items)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t, cart.NewMemoryStore(), nil, true)
	srv.do(t, http.MethodGet, "/api/v1/products", "")

	w, _ := srv.do(t, http.MethodGet, "/metrics", "")
	if w.Code != http.StatusOK {
		t.Fatalf("metrics: expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "http_requests_total") {
		t.Fatalf("expected http metrics in scrape, got %s", w.Body.String())
	}
}
