package cart

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/angelmondragon/storefront/internal/catalog"
)

// ErrUnparseable marks a stored snapshot that does not have the cart shape.
var ErrUnparseable = errors.New("cart snapshot unparseable")

// CartItem is one product line in the cart.
type CartItem struct {
	Product  catalog.Product `json:"product"`
	Quantity int             `json:"quantity"`
}

type storedItem struct {
	Product  *storedProduct `json:"product"`
	Quantity *int           `json:"quantity"`
}

// storedProduct mirrors catalog.Product with pointers so absent keys can be
// told apart from zero values. Only category may be omitted.
type storedProduct struct {
	ID          *int     `json:"id"`
	Name        *string  `json:"name"`
	Price       *float64 `json:"price"`
	Category    *string  `json:"category"`
	Description *string  `json:"description"`
	Image       *string  `json:"image"`
}

func (p *storedProduct) product() (catalog.Product, error) {
	var missing []string
	if p.ID == nil {
		missing = append(missing, "id")
	}
	if p.Name == nil {
		missing = append(missing, "name")
	}
	if p.Price == nil {
		missing = append(missing, "price")
	}
	if p.Description == nil {
		missing = append(missing, "description")
	}
	if p.Image == nil {
		missing = append(missing, "image")
	}
	if len(missing) > 0 {
		return catalog.Product{}, fmt.Errorf("product missing %s", strings.Join(missing, ", "))
	}
	out := catalog.Product{
		ID:          *p.ID,
		Name:        *p.Name,
		Price:       *p.Price,
		Description: *p.Description,
		Image:       *p.Image,
	}
	if p.Category != nil {
		out.Category = *p.Category
	}
	return out, nil
}

// EncodeItems renders items as the persisted JSON array. A nil cart encodes as [].
func EncodeItems(items []CartItem) (string, error) {
	if items == nil {
		items = []CartItem{}
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return "", fmt.Errorf("encode cart: %w", err)
	}
	return string(raw), nil
}

// DecodeItems parses a persisted snapshot. It accepts exactly what EncodeItems
// produces for a well-formed cart: every product key present with its JSON
// type, positive quantities and distinct product ids. Catalog rules such as a
// non-empty name are not re-applied, so any cart the manager held reloads.
func DecodeItems(raw string) ([]CartItem, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, fmt.Errorf("%w: empty value", ErrUnparseable)
	}

	var stored *[]storedItem
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnparseable, err)
	}
	if stored == nil {
		return nil, fmt.Errorf("%w: not an array", ErrUnparseable)
	}

	items := make([]CartItem, 0, len(*stored))
	seen := make(map[int]struct{}, len(*stored))
	for i, line := range *stored {
		if line.Product == nil {
			return nil, fmt.Errorf("%w: line %d has no product", ErrUnparseable, i)
		}
		product, err := line.Product.product()
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrUnparseable, i, err)
		}
		if line.Quantity == nil {
			return nil, fmt.Errorf("%w: line %d has no quantity", ErrUnparseable, i)
		}
		if *line.Quantity < 1 {
			return nil, fmt.Errorf("%w: line %d quantity %d", ErrUnparseable, i, *line.Quantity)
		}
		if _, dup := seen[product.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate product %d", ErrUnparseable, product.ID)
		}
		seen[product.ID] = struct{}{}
		items = append(items, CartItem{Product: product, Quantity: *line.Quantity})
	}
	return items, nil
}
