package catalog

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"

	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/go-playground/validator/v10"
)

//go:embed data/products.json
var bundled []byte

var validate = validator.New()

// Product is an immutable catalog entry. The JSON shape is also the shape
// persisted inside cart snapshots.
type Product struct {
	ID          int     `json:"id" validate:"required"`
	Name        string  `json:"name" validate:"required"`
	Price       float64 `json:"price" validate:"gte=0"`
	Category    string  `json:"category,omitempty"`
	Description string  `json:"description"`
	Image       string  `json:"image"`
}

// Validate reports whether the product satisfies the catalog shape rules.
func (p Product) Validate() error {
	return validate.Struct(p)
}

// Catalog is the static, ordered product list.
type Catalog struct {
	products []Product
	index    map[int]int
}

// Load reads the catalog from path, or from the bundled list when path is empty.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Parse(bundled)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %q: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes and validates a JSON array of products.
func Parse(data []byte) (*Catalog, error) {
	var products []Product
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&products); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	return New(products)
}

// New builds a catalog from an in-memory list, preserving order.
func New(products []Product) (*Catalog, error) {
	c := &Catalog{
		products: make([]Product, 0, len(products)),
		index:    make(map[int]int, len(products)),
	}
	for i, p := range products {
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("product at position %d: %w", i, err)
		}
		if _, dup := c.index[p.ID]; dup {
			return nil, fmt.Errorf("duplicate product id %d", p.ID)
		}
		c.index[p.ID] = len(c.products)
		c.products = append(c.products, p)
	}
	return c, nil
}

// List returns a copy of the products in catalog order.
func (c *Catalog) List() []Product {
	out := make([]Product, len(c.products))
	copy(out, c.products)
	return out
}

// Get looks a product up by id.
func (c *Catalog) Get(id int) (Product, error) {
	pos, ok := c.index[id]
	if !ok {
		return Product{}, pkgerrors.New(pkgerrors.CodeNotFound, "product not found").WithDetails(map[string]any{"product_id": id})
	}
	return c.products[pos], nil
}

func (c *Catalog) Len() int {
	return len(c.products)
}
