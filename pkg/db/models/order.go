package models

import (
	"time"

	"github.com/aurevo/storefront/pkg/enums"
	"github.com/shopspring/decimal"
)

// Order is the locally recorded copy of a submitted checkout.
type Order struct {
	ID             uint              `gorm:"column:id;primaryKey;autoIncrement"`
	OrderID        string            `gorm:"column:order_id;size:64;not null;uniqueIndex"`
	SessionID      string            `gorm:"column:session_id;size:64;index"`
	ServerOrderID  *string           `gorm:"column:server_order_id;size:128"`
	Status         enums.OrderStatus `gorm:"column:status;size:32;not null"`
	PaymentMethod  string            `gorm:"column:payment_method;size:32;not null"`
	CustomerName   string            `gorm:"column:customer_name;not null"`
	CustomerEmail  string            `gorm:"column:customer_email;not null"`
	CustomerMobile string            `gorm:"column:customer_mobile;not null"`
	Address        string            `gorm:"column:address;not null"`
	City           string            `gorm:"column:city"`
	State          string            `gorm:"column:state"`
	PinCode        string            `gorm:"column:pin_code;size:6;not null"`
	Notes          string            `gorm:"column:notes"`
	TermsAccepted  bool              `gorm:"column:terms_accepted;not null"`
	Total          decimal.Decimal   `gorm:"column:total;type:numeric(12,2);not null"`
	FailureReason  *string           `gorm:"column:failure_reason"`
	SubmitAttempts int               `gorm:"column:submit_attempts;not null;default:0"`
	OrderedAt      time.Time         `gorm:"column:ordered_at;not null"`
	Items          []OrderItem       `gorm:"foreignKey:OrderRowID;constraint:OnDelete:CASCADE"`
	CreatedAt      time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

func (Order) TableName() string { return "orders" }
