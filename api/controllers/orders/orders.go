package orders

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/aurevo/storefront/api/middleware"
	"github.com/aurevo/storefront/api/responses"
	"github.com/aurevo/storefront/api/validators"
	ordersvc "github.com/aurevo/storefront/internal/orders"
	"github.com/aurevo/storefront/pkg/db/models"
	"github.com/aurevo/storefront/pkg/enums"
	pkgerrors "github.com/aurevo/storefront/pkg/errors"
	"github.com/aurevo/storefront/pkg/logger"
	"github.com/aurevo/storefront/pkg/pagination"
)

// Reader is the read side of the order ledger.
type Reader interface {
	FindByOrderID(ctx context.Context, sessionID, orderID string) (*models.Order, error)
	List(ctx context.Context, params ordersvc.ListParams) (*ordersvc.OrderList, error)
	Export(ctx context.Context, sessionID string) ([]models.Order, error)
}

// ListOrders pages through the session's orders, newest first.
func ListOrders(repo Reader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, err := sessionIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, err := validators.ParseQueryEnum(r, "status", enums.ParseOrderStatus)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := repo.List(r.Context(), ordersvc.ListParams{
			SessionID: sessionID,
			Status:    status,
			Params: pagination.Params{
				Limit:  limit,
				Cursor: r.URL.Query().Get("cursor"),
			},
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		views := make([]OrderView, 0, len(list.Orders))
		for _, order := range list.Orders {
			views = append(views, newOrderView(order))
		}
		responses.WriteSuccess(w, OrderListView{Orders: views, NextCursor: list.NextCursor})
	}
}

func OrderDetail(repo Reader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		order, err := findOrder(r, repo)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOrderView(*order))
	}
}

// OrderReceipt downloads the plain-text receipt for one order.
func OrderReceipt(repo Reader, receipt ordersvc.Receipt, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		order, err := findOrder(r, repo)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filename := fmt.Sprintf("aurevo-order-%s.txt", order.OrderID)
		responses.WriteAttachment(w, "text/plain; charset=utf-8", filename, []byte(receipt.Render(*order)))
	}
}

// ExportOrders downloads the session's order log as CSV.
func ExportOrders(repo Reader, now func() time.Time, logg *logger.Logger) http.HandlerFunc {
	if now == nil {
		now = time.Now
	}
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, err := sessionIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		rows, err := repo.Export(r.Context(), sessionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var buf bytes.Buffer
		if err := ordersvc.WriteCSV(&buf, rows); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "render order export"))
			return
		}
		responses.WriteAttachment(w, "text/csv; charset=utf-8", ordersvc.ExportFilename(now()), buf.Bytes())
	}
}

func findOrder(r *http.Request, repo Reader) (*models.Order, error) {
	sessionID, err := sessionIDFromRequest(r)
	if err != nil {
		return nil, err
	}
	orderID := chi.URLParam(r, "orderID")
	if orderID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	return repo.FindByOrderID(r.Context(), sessionID, orderID)
}

func sessionIDFromRequest(r *http.Request) (string, error) {
	handle := middleware.SessionFromContext(r.Context())
	if handle == nil || handle.Session == nil {
		return "", pkgerrors.New(pkgerrors.CodeInternal, "session missing from context")
	}
	return handle.Session.ID(), nil
}
