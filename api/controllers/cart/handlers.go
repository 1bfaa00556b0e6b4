package cart

import (
	"net/http"
	"strings"

	"github.com/aurevo/storefront/api/middleware"
	"github.com/aurevo/storefront/api/responses"
	"github.com/aurevo/storefront/api/validators"
	cartsvc "github.com/aurevo/storefront/internal/cart"
	"github.com/aurevo/storefront/internal/catalog"
	"github.com/aurevo/storefront/internal/checkout"
	pkgerrors "github.com/aurevo/storefront/pkg/errors"
	"github.com/aurevo/storefront/pkg/logger"
)

// CartFetch returns the session's cart.
func CartFetch(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, err := sessionFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartView(session.Snapshot()))
	}
}

// CartAddItem adds one unit of a catalog product, merging with an identical line.
func CartAddItem(lookup catalog.Lookup, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, err := sessionFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload AddItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		productID := strings.TrimSpace(payload.ProductID)
		if productID == "" {
			id, ok := lookup.ProductIDForPage(payload.Page)
			if !ok {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "product page not found"))
				return
			}
			productID = id
		}

		attrs, ok := lookup.Attributes(productID)
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "product not found"))
			return
		}
		attrs.Size = payload.Size
		attrs.Color = payload.Color

		if err := session.AddItem(r.Context(), productID, attrs); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newCartView(session.Snapshot()))
	}
}

func CartSetQuantity(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, err := sessionFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload SetQuantityRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		identity := cartsvc.NewIdentity(payload.ProductID, payload.Size, payload.Color)
		if err := session.SetQuantity(r.Context(), identity, payload.Quantity); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartView(session.Snapshot()))
	}
}

func CartRemoveItem(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, err := sessionFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload RemoveItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		removed, err := session.RemoveItem(r.Context(), payload.ProductID, payload.Size, payload.Color)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if !removed {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "cart line not found"))
			return
		}
		responses.WriteSuccess(w, newCartView(session.Snapshot()))
	}
}

func CartClear(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, err := sessionFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := session.ClearCart(r.Context()); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartView(session.Snapshot()))
	}
}

func sessionFromRequest(r *http.Request) (*checkout.Session, error) {
	handle := middleware.SessionFromContext(r.Context())
	if handle == nil || handle.Session == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "session missing from context")
	}
	return handle.Session, nil
}
