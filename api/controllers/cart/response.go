package cart

import (
	"time"

	"github.com/aurevo/storefront/internal/cart"
)

// CartView is the wire shape of a cart snapshot. Amounts are fixed to two decimals.
type CartView struct {
	Items []LineView `json:"items"`
	Count int        `json:"count"`
	Total string     `json:"total"`
}

type LineView struct {
	ProductID     string    `json:"productId"`
	Name          string    `json:"name"`
	Price         string    `json:"price"`
	OriginalPrice string    `json:"originalPrice"`
	Image         string    `json:"image"`
	Size          string    `json:"size"`
	Color         string    `json:"color"`
	Quantity      int       `json:"quantity"`
	Subtotal      string    `json:"subtotal"`
	AddedAt       time.Time `json:"addedAt"`
}

func newCartView(snapshot cart.Snapshot) CartView {
	lines := make([]LineView, 0, len(snapshot.Items))
	for _, item := range snapshot.Items {
		lines = append(lines, LineView{
			ProductID:     item.ProductID,
			Name:          item.Name,
			Price:         item.UnitPrice.StringFixed(2),
			OriginalPrice: item.OriginalPrice.StringFixed(2),
			Image:         item.ImageURL,
			Size:          item.Size,
			Color:         item.Color,
			Quantity:      item.Quantity,
			Subtotal:      item.Subtotal().StringFixed(2),
			AddedAt:       item.AddedAt,
		})
	}
	return CartView{
		Items: lines,
		Count: snapshot.Count,
		Total: snapshot.Total.StringFixed(2),
	}
}
