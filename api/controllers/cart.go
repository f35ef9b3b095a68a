package controllers

import (
	"context"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront/api/responses"
	"github.com/angelmondragon/storefront/api/validators"
	"github.com/angelmondragon/storefront/internal/cart"
	"github.com/angelmondragon/storefront/internal/catalog"
	"github.com/angelmondragon/storefront/pkg/logger"
)

type cartManager interface {
	Snapshot(flatTax float64) cart.Snapshot
	IsLoading() bool
	TotalItems() int
	TotalPrice(adjustment float64) decimal.Decimal
	AddToCart(ctx context.Context, product catalog.Product)
	RemoveFromCart(ctx context.Context, productID int)
	UpdateQuantity(ctx context.Context, productID, quantity int)
	ClearCart(ctx context.Context)
}

type productLookup interface {
	Get(id int) (catalog.Product, error)
}

type addItemRequest struct {
	ProductID int  `json:"product_id" validate:"required,gte=1"`
	Quantity  *int `json:"quantity,omitempty" validate:"omitempty,min=1,max=99"`
}

type updateItemRequest struct {
	Quantity *int `json:"quantity" validate:"required"`
}

// writeCart responds with the current cart. While the initial load is still
// outstanding mutations are only queued, so the status is 202.
func writeCart(w http.ResponseWriter, mgr cartManager, flatTax float64) {
	snap := mgr.Snapshot(flatTax)
	status := http.StatusOK
	if snap.Loading {
		status = http.StatusAccepted
	}
	responses.WriteSuccessStatus(w, status, newCartDTO(snap))
}

// CartGet returns the cart lines, loading flag and summary.
func CartGet(mgr cartManager, flatTax float64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, newCartDTO(mgr.Snapshot(flatTax)))
	}
}

// CartTotals exposes TotalPrice with an optional adjustment query parameter.
func CartTotals(mgr cartManager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		adjustment, err := validators.ParseQueryFloat(r, "adjustment", 0)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, totalsDTO{
			TotalItems: mgr.TotalItems(),
			Adjustment: money(decimal.NewFromFloat(adjustment)),
			Total:      money(mgr.TotalPrice(adjustment)),
			IsLoading:  mgr.IsLoading(),
		})
	}
}

// CartAddItem adds a catalog product, once per requested unit.
func CartAddItem(mgr cartManager, products productLookup, flatTax float64, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req addItemRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := products.Get(req.ProductID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		quantity := 1
		if req.Quantity != nil {
			quantity = *req.Quantity
		}
		ctx := logg.WithProductID(r.Context(), product.ID)
		// One AddToCart per unit, matching the product page. Each call
		// persists its own snapshot, so quantity is capped at 99.
		for i := 0; i < quantity; i++ {
			mgr.AddToCart(ctx, product)
		}
		writeCart(w, mgr, flatTax)
	}
}

// CartUpdateItem sets a line's quantity; zero or below removes the line.
func CartUpdateItem(mgr cartManager, flatTax float64, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := validators.ParsePathInt(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req updateItemRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		mgr.UpdateQuantity(logg.WithProductID(r.Context(), productID), productID, *req.Quantity)
		writeCart(w, mgr, flatTax)
	}
}

func CartRemoveItem(mgr cartManager, flatTax float64, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := validators.ParsePathInt(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		mgr.RemoveFromCart(logg.WithProductID(r.Context(), productID), productID)
		writeCart(w, mgr, flatTax)
	}
}

func CartClear(mgr cartManager, flatTax float64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mgr.ClearCart(r.Context())
		writeCart(w, mgr, flatTax)
	}
}
