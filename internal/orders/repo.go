package orders

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/aurevo/storefront/internal/checkout"
	"github.com/aurevo/storefront/pkg/db"
	"github.com/aurevo/storefront/pkg/db/models"
	"github.com/aurevo/storefront/pkg/enums"
	pkgerrors "github.com/aurevo/storefront/pkg/errors"
	"github.com/aurevo/storefront/pkg/pagination"
	"gorm.io/gorm"
)

// Repository is the local order ledger. It satisfies checkout.Ledger.
type Repository interface {
	Create(ctx context.Context, sessionID string, order checkout.OrderRecord) error
	UpdateStatus(ctx context.Context, orderID string, update checkout.StatusUpdate) error
	FindByOrderID(ctx context.Context, sessionID, orderID string) (*models.Order, error)
	List(ctx context.Context, params ListParams) (*OrderList, error)
	Export(ctx context.Context, sessionID string) ([]models.Order, error)
	FailStalePending(ctx context.Context, cutoff time.Time, reason string) (int64, error)
}

// ListParams filters one page of a session's orders, newest first.
type ListParams struct {
	SessionID string
	Status    *enums.OrderStatus
	pagination.Params
}

// OrderList wraps one page plus the cursor of the next.
type OrderList struct {
	Orders     []models.Order `json:"orders"`
	NextCursor string         `json:"nextCursor,omitempty"`
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(conn *gorm.DB) Repository {
	return &repository{db: conn}
}

func (r *repository) Create(ctx context.Context, sessionID string, order checkout.OrderRecord) error {
	row := toModel(sessionID, order)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&row).Error
	})
	if err == nil {
		return nil
	}
	if db.IsUniqueViolation(err, "") {
		return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "order already recorded")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record order")
}

func (r *repository) UpdateStatus(ctx context.Context, orderID string, update checkout.StatusUpdate) error {
	if !update.Status.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid order status")
	}
	changes := map[string]any{
		"status":          update.Status,
		"submit_attempts": update.Attempts,
	}
	if update.ServerOrderID != "" {
		changes["server_order_id"] = update.ServerOrderID
	}
	if update.FailureReason != "" {
		changes["failure_reason"] = update.FailureReason
	} else if update.Status == enums.OrderStatusConfirmed {
		changes["failure_reason"] = nil
	}

	res := r.db.WithContext(ctx).Model(&models.Order{}).Where("order_id = ?", orderID).Updates(changes)
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "update order status")
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return nil
}

func (r *repository) FindByOrderID(ctx context.Context, sessionID, orderID string) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items", func(tx *gorm.DB) *gorm.DB { return tx.Order("position ASC") }).
		Where("order_id = ? AND session_id = ?", strings.TrimSpace(orderID), sessionID).
		First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find order")
	}
	return &order, nil
}

func (r *repository) List(ctx context.Context, params ListParams) (*OrderList, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	limit := pagination.NormalizeLimit(params.Limit)

	query := r.db.WithContext(ctx).
		Preload("Items", func(tx *gorm.DB) *gorm.DB { return tx.Order("position ASC") }).
		Where("session_id = ?", params.SessionID)
	if params.Status != nil {
		query = query.Where("status = ?", *params.Status)
	}
	if cursor != nil {
		query = query.Where("(ordered_at < ?) OR (ordered_at = ? AND order_id < ?)", cursor.At, cursor.At, cursor.Key)
	}

	var rows []models.Order
	if err := query.Order("ordered_at DESC").Order("order_id DESC").Limit(limit + 1).Find(&rows).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}

	list := &OrderList{Orders: rows}
	if len(rows) > limit {
		list.Orders = rows[:limit]
		last := list.Orders[limit-1]
		list.NextCursor = pagination.EncodeCursor(pagination.Cursor{At: last.OrderedAt, Key: last.OrderID})
	}
	return list, nil
}

func (r *repository) Export(ctx context.Context, sessionID string) ([]models.Order, error) {
	var rows []models.Order
	err := r.db.WithContext(ctx).
		Preload("Items", func(tx *gorm.DB) *gorm.DB { return tx.Order("position ASC") }).
		Where("session_id = ?", sessionID).
		Order("ordered_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "export orders")
	}
	return rows, nil
}

// FailStalePending marks orders still Pending at cutoff as Failed. Such rows
// belong to submissions whose process stopped before recording an outcome.
func (r *repository) FailStalePending(ctx context.Context, cutoff time.Time, reason string) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("status = ? AND ordered_at < ?", enums.OrderStatusPending, cutoff).
		Updates(map[string]any{
			"status":         enums.OrderStatusFailed,
			"failure_reason": reason,
		})
	if res.Error != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "fail stale orders")
	}
	return res.RowsAffected, nil
}

func toModel(sessionID string, order checkout.OrderRecord) models.Order {
	items := make([]models.OrderItem, 0, len(order.Items))
	for i, item := range order.Items {
		items = append(items, models.OrderItem{
			Position: i,
			Name:     item.Name,
			Price:    item.Price,
			Size:     item.Size,
			Color:    item.Color,
			Quantity: item.Quantity,
			Image:    item.Image,
		})
	}
	return models.Order{
		OrderID:        order.OrderID,
		SessionID:      sessionID,
		Status:         order.Status,
		PaymentMethod:  order.PaymentMethod.String(),
		CustomerName:   order.Customer.Name,
		CustomerEmail:  order.Customer.Email,
		CustomerMobile: order.Customer.Mobile,
		Address:        order.Customer.Address,
		City:           order.Customer.City,
		State:          order.Customer.State,
		PinCode:        order.Customer.PinCode,
		Notes:          order.Notes,
		TermsAccepted:  order.TermsAccepted,
		Total:          order.Total,
		OrderedAt:      order.CreatedAt.UTC(),
		Items:          items,
	}
}

var _ checkout.Ledger = (*repository)(nil)
