package checkout

import (
	"net/http"

	"github.com/aurevo/storefront/api/middleware"
	"github.com/aurevo/storefront/api/responses"
	"github.com/aurevo/storefront/api/validators"
	checkoutsvc "github.com/aurevo/storefront/internal/checkout"
	pkgerrors "github.com/aurevo/storefront/pkg/errors"
	"github.com/aurevo/storefront/pkg/logger"
)

// ValidationView is the live form verdict plus the state of the place-order control.
type ValidationView struct {
	Validation checkoutsvc.ValidationResult `json:"validation"`
	Ready      bool                         `json:"ready"`
	Label      checkoutsvc.SubmitLabel      `json:"label"`
}

// ConfirmationView is returned for a delivered order.
type ConfirmationView struct {
	Order          checkoutsvc.OrderRecord `json:"order"`
	DisplayOrderID string                  `json:"displayOrderId"`
	Attempts       int                     `json:"attempts"`
}

// CheckoutPin checks a PIN code against the delivery area.
func CheckoutPin(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, err := sessionFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload PinRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, session.CheckPin(r.Context(), payload.PinCode))
	}
}

// CheckoutValidate runs the field rules without submitting.
func CheckoutValidate(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, err := sessionFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var form checkoutsvc.FormFields
		if err := validators.DecodeJSON(r, &form); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result := session.Validate(r.Context(), form)
		ready, label := session.Readiness(form)
		responses.WriteSuccess(w, ValidationView{Validation: result, Ready: ready, Label: label})
	}
}

func CheckoutAcceptTerms(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, err := sessionFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		session.AcceptTerms(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}
}

// CheckoutSubmit places the order. A delivery that failed after every retry
// is reported as a dependency error carrying the last reason.
func CheckoutSubmit(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, err := sessionFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var form checkoutsvc.FormFields
		if err := validators.DecodeJSON(r, &form); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := session.Checkout(r.Context(), form)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if !result.Outcome.Success {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeDependency, result.Outcome.Reason).WithDetails(map[string]any{
				"orderId":  result.Order.OrderID,
				"attempts": result.Outcome.Attempts,
			}))
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, ConfirmationView{
			Order:          result.Order,
			DisplayOrderID: result.DisplayOrderID,
			Attempts:       result.Outcome.Attempts,
		})
	}
}

func sessionFromRequest(r *http.Request) (*checkoutsvc.Session, error) {
	handle := middleware.SessionFromContext(r.Context())
	if handle == nil || handle.Session == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "session missing from context")
	}
	return handle.Session, nil
}
