package cart

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	DefaultSize  = "M"
	DefaultColor = "Default"
	DefaultName  = "Unknown Product"
)

// Identity is the (product, size, color) triple that makes two lines the same line.
type Identity struct {
	ProductID string `json:"productId"`
	Size      string `json:"size"`
	Color     string `json:"color"`
}

// NewIdentity resolves blank size and color to their defaults.
func NewIdentity(productID, size, color string) Identity {
	return Identity{
		ProductID: strings.TrimSpace(productID),
		Size:      orDefault(size, DefaultSize),
		Color:     orDefault(color, DefaultColor),
	}
}

// LineItem is one entry of the cart.
type LineItem struct {
	ProductID     string          `json:"productId"`
	Name          string          `json:"name"`
	UnitPrice     decimal.Decimal `json:"unitPrice"`
	OriginalPrice decimal.Decimal `json:"originalPrice"`
	ImageURL      string          `json:"image"`
	Size          string          `json:"size"`
	Color         string          `json:"color"`
	Quantity      int             `json:"quantity"`
	AddedAt       time.Time       `json:"addedAt"`
}

func (l LineItem) Identity() Identity {
	return Identity{ProductID: l.ProductID, Size: l.Size, Color: l.Color}
}

// Subtotal is unit price times quantity.
func (l LineItem) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Attributes describe a product being added. Blank fields fall back to defaults.
type Attributes struct {
	Name          string
	Price         decimal.Decimal
	OriginalPrice decimal.Decimal
	Image         string
	Size          string
	Color         string
}

// Snapshot is an independent copy of the cart at one point in time.
type Snapshot struct {
	Items []LineItem      `json:"items"`
	Count int             `json:"count"`
	Total decimal.Decimal `json:"total"`
}

func (s Snapshot) IsEmpty() bool {
	return len(s.Items) == 0
}

func orDefault(value, fallback string) string {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		return trimmed
	}
	return fallback
}
