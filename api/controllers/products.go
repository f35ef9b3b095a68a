package controllers

import (
	"net/http"

	"github.com/angelmondragon/storefront/api/responses"
	"github.com/angelmondragon/storefront/api/validators"
	"github.com/angelmondragon/storefront/internal/catalog"
	"github.com/angelmondragon/storefront/pkg/logger"
)

type productCatalog interface {
	List() []catalog.Product
	Get(id int) (catalog.Product, error)
}

const maxProductsLimit = 100

// ProductsList returns the catalog in file order, truncated to ?limit= when set.
func ProductsList(products productCatalog, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list := products.List()
		limit, err := validators.ParseQueryInt(r, "limit", len(list), 1, maxProductsLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if limit < len(list) {
			list = list[:limit]
		}
		responses.WriteSuccess(w, list)
	}
}

func ProductsGet(products productCatalog, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := validators.ParsePathInt(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		product, err := products.Get(productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}
