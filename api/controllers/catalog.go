package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/aurevo/storefront/api/responses"
	"github.com/aurevo/storefront/internal/catalog"
	pkgerrors "github.com/aurevo/storefront/pkg/errors"
	"github.com/aurevo/storefront/pkg/logger"
)

func CatalogList(lookup catalog.Lookup) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, map[string]any{"products": lookup.List()})
	}
}

func CatalogProduct(lookup catalog.Lookup, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		product, ok := lookup.Product(chi.URLParam(r, "productID"))
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "product not found"))
			return
		}
		responses.WriteSuccess(w, product)
	}
}

// CatalogPage resolves a product page name such as product3.html.
func CatalogPage(lookup catalog.Lookup, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := lookup.ProductIDForPage(chi.URLParam(r, "page"))
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "product page not found"))
			return
		}
		product, _ := lookup.Product(id)
		responses.WriteSuccess(w, product)
	}
}
