package controllers

import (
	"time"

	"github.com/angelmondragon/storefront/internal/cart"
	"github.com/angelmondragon/storefront/internal/catalog"
	"github.com/angelmondragon/storefront/internal/checkout"
	"github.com/shopspring/decimal"
)

// Money values are rendered with two decimals to keep float noise off the wire.
func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

type cartItemDTO struct {
	Product   catalog.Product `json:"product"`
	Quantity  int             `json:"quantity"`
	LineTotal string          `json:"line_total"`
}

type summaryDTO struct {
	Subtotal string `json:"subtotal"`
	Tax      string `json:"tax"`
	Total    string `json:"total"`
}

type cartDTO struct {
	Items      []cartItemDTO `json:"items"`
	IsLoading  bool          `json:"is_loading"`
	TotalItems int           `json:"total_items"`
	Summary    summaryDTO    `json:"summary"`
}

func newCartDTO(snap cart.Snapshot) cartDTO {
	items := make([]cartItemDTO, 0, len(snap.Items))
	for _, line := range snap.Items {
		lineTotal := decimal.NewFromFloat(line.Product.Price).Mul(decimal.NewFromInt(int64(line.Quantity)))
		items = append(items, cartItemDTO{
			Product:   line.Product,
			Quantity:  line.Quantity,
			LineTotal: money(lineTotal),
		})
	}
	return cartDTO{
		Items:      items,
		IsLoading:  snap.Loading,
		TotalItems: snap.Summary.TotalItems,
		Summary: summaryDTO{
			Subtotal: money(snap.Summary.Subtotal),
			Tax:      money(snap.Summary.Tax),
			Total:    money(snap.Summary.Total),
		},
	}
}

type totalsDTO struct {
	TotalItems int    `json:"total_items"`
	Adjustment string `json:"adjustment"`
	Total      string `json:"total"`
	IsLoading  bool   `json:"is_loading"`
}

type receiptDTO struct {
	Status      string    `json:"status"`
	ItemCount   int       `json:"item_count"`
	Subtotal    string    `json:"subtotal"`
	Tax         string    `json:"tax"`
	Total       string    `json:"total"`
	CompletedAt time.Time `json:"completed_at"`
}

func newReceiptDTO(r *checkout.Receipt) receiptDTO {
	return receiptDTO{
		Status:      "completed",
		ItemCount:   r.ItemCount,
		Subtotal:    money(r.Subtotal),
		Tax:         money(r.Tax),
		Total:       money(r.Total),
		CompletedAt: r.CompletedAt,
	}
}
