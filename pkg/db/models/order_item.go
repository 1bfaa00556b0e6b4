package models

import "github.com/shopspring/decimal"

// OrderItem captures the snapshot of each cart line within an order.
type OrderItem struct {
	ID         uint            `gorm:"column:id;primaryKey;autoIncrement"`
	OrderRowID uint            `gorm:"column:order_row_id;not null;index"`
	Position   int             `gorm:"column:position;not null"`
	Name       string          `gorm:"column:name;not null"`
	Price      decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	Size       string          `gorm:"column:size;size:32;not null"`
	Color      string          `gorm:"column:color;size:64;not null"`
	Quantity   int             `gorm:"column:quantity;not null"`
	Image      string          `gorm:"column:image"`
}

func (OrderItem) TableName() string { return "order_items" }
