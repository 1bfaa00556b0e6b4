package orders

import (
	"time"

	"github.com/aurevo/storefront/pkg/db/models"
	"github.com/aurevo/storefront/pkg/enums"
)

type OrderView struct {
	OrderID        string            `json:"orderId"`
	ServerOrderID  string            `json:"serverOrderId,omitempty"`
	Status         enums.OrderStatus `json:"status"`
	PaymentMethod  string            `json:"paymentMethod"`
	CustomerName   string            `json:"customerName"`
	CustomerEmail  string            `json:"customerEmail"`
	CustomerMobile string            `json:"customerMobile"`
	Address        string            `json:"address"`
	City           string            `json:"city,omitempty"`
	State          string            `json:"state,omitempty"`
	PinCode        string            `json:"pinCode"`
	Notes          string            `json:"notes,omitempty"`
	Total          string            `json:"total"`
	FailureReason  string            `json:"failureReason,omitempty"`
	Attempts       int               `json:"attempts"`
	OrderedAt      time.Time         `json:"orderedAt"`
	Items          []OrderItemView   `json:"items"`
}

type OrderItemView struct {
	Name     string `json:"name"`
	Price    string `json:"price"`
	Size     string `json:"size"`
	Color    string `json:"color"`
	Quantity int    `json:"quantity"`
	Image    string `json:"image,omitempty"`
}

type OrderListView struct {
	Orders     []OrderView `json:"orders"`
	NextCursor string      `json:"nextCursor,omitempty"`
}

func newOrderView(order models.Order) OrderView {
	items := make([]OrderItemView, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, OrderItemView{
			Name:     item.Name,
			Price:    item.Price.StringFixed(2),
			Size:     item.Size,
			Color:    item.Color,
			Quantity: item.Quantity,
			Image:    item.Image,
		})
	}
	return OrderView{
		OrderID:        order.OrderID,
		ServerOrderID:  deref(order.ServerOrderID),
		Status:         order.Status,
		PaymentMethod:  order.PaymentMethod,
		CustomerName:   order.CustomerName,
		CustomerEmail:  order.CustomerEmail,
		CustomerMobile: order.CustomerMobile,
		Address:        order.Address,
		City:           order.City,
		State:          order.State,
		PinCode:        order.PinCode,
		Notes:          order.Notes,
		Total:          order.Total.StringFixed(2),
		FailureReason:  deref(order.FailureReason),
		Attempts:       order.SubmitAttempts,
		OrderedAt:      order.OrderedAt,
		Items:          items,
	}
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
