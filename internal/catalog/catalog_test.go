package catalog

import (
	"os"
	"path/filepath"
	"testing"

	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
)

func TestLoadBundledCatalog(t *testing.T) {
	c, err := Load("")
	if err != nil {
		t.Fatalf("load bundled catalog: %v", err)
	}
	if c.Len() == 0 {
		t.Fatal("expected bundled products")
	}

	list := c.List()
	if list[0].ID != 1 {
		t.Fatalf("expected file order to be preserved, first id=%d", list[0].ID)
	}

	p, err := c.Get(8)
	if err != nil {
		t.Fatalf("get gift card: %v", err)
	}
	if p.Category != "" {
		t.Fatalf("gift card has no category, got %q", p.Category)
	}
}

func TestListReturnsCopy(t *testing.T) {
	c, err := New([]Product{{ID: 1, Name: "A", Price: 1}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	list := c.List()
	list[0].Name = "mutated"

	got, _ := c.Get(1)
	if got.Name != "A" {
		t.Fatalf("catalog was mutated through List, got %q", got.Name)
	}
}

func TestGetUnknownProduct(t *testing.T) {
	c, err := New(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err = c.Get(42)
	if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestNewRejectsInvalidProducts(t *testing.T) {
	cases := map[string][]Product{
		"missing name":   {{ID: 1, Price: 1}},
		"negative price": {{ID: 1, Name: "A", Price: -1}},
		"zero id":        {{ID: 0, Name: "A", Price: 1}},
		"duplicate id":   {{ID: 1, Name: "A", Price: 1}, {ID: 1, Name: "B", Price: 2}},
	}
	for name, products := range cases {
		if _, err := New(products); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "products.json")
	body := `[{"id":3,"name":"Lamp","price":12.5,"description":"d","image":"/i.png"}]`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write file: %v", err)
	}

	c, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if p, err := c.Get(3); err != nil || p.Price != 12.5 {
		t.Fatalf("unexpected product %+v err=%v", p, err)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestParseRejectsUnknownFields(t *testing.T) {
	if _, err := Parse([]byte(`[{"id":1,"name":"A","price":1,"sku":"x"}]`)); err == nil {
		t.Fatal("expected unknown field error")
	}
}
