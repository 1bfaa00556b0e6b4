package checkout

import (
	"encoding/json"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/aurevo/storefront/internal/cart"
	"github.com/aurevo/storefront/pkg/enums"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	DefaultOrderIDPrefix = "AUR"
	orderIDClockDigits   = 6
	orderIDRandomChars   = 6
)

// Customer is the contact and delivery block of an order.
type Customer struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Mobile  string `json:"mobile"`
	Address string `json:"address"`
	City    string `json:"city"`
	State   string `json:"state"`
	PinCode string `json:"pinCode"`
}

// OrderItem is the frozen copy of one cart line.
type OrderItem struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Size      string          `json:"size"`
	Color     string          `json:"color"`
	Quantity  int             `json:"quantity"`
	Image     string          `json:"image"`
}

// OrderRecord owns its item snapshot; later cart mutations never reach it.
type OrderRecord struct {
	OrderID       string              `json:"orderId"`
	CreatedAt     time.Time           `json:"createdAt"`
	Customer      Customer            `json:"customer"`
	Items         []OrderItem         `json:"items"`
	Total         decimal.Decimal     `json:"total"`
	Status        enums.OrderStatus   `json:"status"`
	PaymentMethod enums.PaymentMethod `json:"paymentMethod"`
	Notes         string              `json:"notes"`
	TermsAccepted bool                `json:"termsAccepted"`
}

// PayloadItem is one entry of the wire items array.
type PayloadItem struct {
	Name     string      `json:"name"`
	Price    json.Number `json:"price"`
	Size     string      `json:"size"`
	Color    string      `json:"color"`
	Quantity int         `json:"quantity"`
	Image    string      `json:"image"`
}

// Payload is the document posted to the order endpoint.
type Payload struct {
	Name          string        `json:"name"`
	Email         string        `json:"email"`
	Mobile        string        `json:"mobile"`
	Address       string        `json:"address"`
	City          string        `json:"city"`
	State         string        `json:"state"`
	Pin           string        `json:"pin"`
	Items         []PayloadItem `json:"items"`
	Total         json.Number   `json:"total"`
	PaymentMethod string        `json:"paymentMethod"`
	Notes         string        `json:"notes"`
	TermsAccepted bool          `json:"termsAccepted"`
	OrderID       string        `json:"orderID"`
	OrderDate     string        `json:"orderDate"`
	Status        string        `json:"status"`
}

// Payload renders the order in the endpoint's wire format.
func (o OrderRecord) Payload() Payload {
	items := make([]PayloadItem, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, PayloadItem{
			Name:     item.Name,
			Price:    json.Number(item.Price.String()),
			Size:     item.Size,
			Color:    item.Color,
			Quantity: item.Quantity,
			Image:    item.Image,
		})
	}
	return Payload{
		Name:          o.Customer.Name,
		Email:         o.Customer.Email,
		Mobile:        o.Customer.Mobile,
		Address:       o.Customer.Address,
		City:          o.Customer.City,
		State:         o.Customer.State,
		Pin:           o.Customer.PinCode,
		Items:         items,
		Total:         json.Number(o.Total.String()),
		PaymentMethod: o.PaymentMethod.String(),
		Notes:         o.Notes,
		TermsAccepted: o.TermsAccepted,
		OrderID:       o.OrderID,
		OrderDate:     o.CreatedAt.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
		Status:        o.Status.String(),
	}
}

// AssemblerConfig holds the fixed order attributes.
type AssemblerConfig struct {
	OrderIDPrefix string
	PaymentMethod enums.PaymentMethod
	Now           func() time.Time
}

// Assembler turns a cart snapshot plus form into an OrderRecord.
type Assembler struct {
	prefix  string
	payment enums.PaymentMethod
	now     func() time.Time
}

func NewAssembler(cfg AssemblerConfig) *Assembler {
	a := &Assembler{
		prefix:  strings.TrimSpace(cfg.OrderIDPrefix),
		payment: cfg.PaymentMethod,
		now:     cfg.Now,
	}
	if a.prefix == "" {
		a.prefix = DefaultOrderIDPrefix
	}
	if !a.payment.IsValid() {
		a.payment = enums.PaymentMethodPrepaid
	}
	if a.now == nil {
		a.now = time.Now
	}
	return a
}

// Assemble copies every line and computes the total once. Callers reject
// empty carts before calling.
func (a *Assembler) Assemble(snapshot cart.Snapshot, form FormFields) OrderRecord {
	form = form.Trimmed()
	now := a.now().UTC()

	items := make([]OrderItem, 0, len(snapshot.Items))
	total := decimal.Zero
	for _, line := range snapshot.Items {
		items = append(items, OrderItem{
			ProductID: line.ProductID,
			Name:      line.Name,
			Price:     line.UnitPrice,
			Size:      line.Size,
			Color:     line.Color,
			Quantity:  line.Quantity,
			Image:     line.ImageURL,
		})
		total = total.Add(line.Subtotal())
	}

	return OrderRecord{
		OrderID:   a.NewOrderID(now),
		CreatedAt: now,
		Customer: Customer{
			Name:    form.FullName,
			Email:   form.Email,
			Mobile:  form.Mobile,
			Address: form.Address,
			City:    form.City,
			State:   form.State,
			PinCode: form.PinCode,
		},
		Items:         items,
		Total:         total,
		Status:        enums.OrderStatusPending,
		PaymentMethod: a.payment,
		Notes:         form.Notes,
		TermsAccepted: form.TermsAccepted,
	}
}

// NewOrderID is prefix + last six digits of the millisecond clock + six random
// base-36 characters drawn from a v4 uuid.
func (a *Assembler) NewOrderID(now time.Time) string {
	ms := strconv.FormatInt(now.UnixMilli(), 10)
	if len(ms) > orderIDClockDigits {
		ms = ms[len(ms)-orderIDClockDigits:]
	}

	id := uuid.New()
	random := strings.ToUpper(new(big.Int).SetBytes(id[:]).Text(36))
	if len(random) < orderIDRandomChars {
		random = strings.Repeat("0", orderIDRandomChars-len(random)) + random
	}
	random = random[len(random)-orderIDRandomChars:]

	return a.prefix + ms + random
}
