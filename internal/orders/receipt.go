package orders

import (
	"fmt"
	"strings"
	"time"

	"github.com/aurevo/storefront/pkg/db/models"
	"github.com/shopspring/decimal"
)

var indiaTime = time.FixedZone("IST", 5*60*60+30*60)

// Receipt holds the footer lines printed under every confirmation.
type Receipt struct {
	Brand        string
	Tagline      string
	ContactEmail string
	DeliveryArea string
}

// DefaultReceipt is the storefront's standard confirmation footer.
var DefaultReceipt = Receipt{
	Brand:        "AUREVO",
	Tagline:      "Conscious Luxury | Made in India",
	ContactEmail: "aurevoindia@gmail.com",
	DeliveryArea: "Jalpaiguri (735101)",
}

// RenderReceipt renders the plain-text confirmation using DefaultReceipt.
func RenderReceipt(order models.Order) string {
	return DefaultReceipt.Render(order)
}

// Render produces the plain-text order confirmation.
func (r Receipt) Render(order models.Order) string {
	var b strings.Builder

	title := r.Brand + " - ORDER CONFIRMATION"
	fmt.Fprintf(&b, "%s\n%s\n\n", title, strings.Repeat("=", len(title)))
	fmt.Fprintf(&b, "Order ID: %s\n", order.OrderID)
	if order.ServerOrderID != nil && *order.ServerOrderID != "" && *order.ServerOrderID != order.OrderID {
		fmt.Fprintf(&b, "Reference: %s\n", *order.ServerOrderID)
	}
	fmt.Fprintf(&b, "Order Date: %s\n", order.OrderedAt.In(indiaTime).Format("02 Jan 2006, 3:04 PM MST"))
	fmt.Fprintf(&b, "Status: %s\n\n", order.Status)

	section(&b, "CUSTOMER INFORMATION")
	fmt.Fprintf(&b, "Name: %s\n", order.CustomerName)
	fmt.Fprintf(&b, "Email: %s\n", order.CustomerEmail)
	fmt.Fprintf(&b, "Mobile: %s\n", order.CustomerMobile)
	fmt.Fprintf(&b, "Address: %s\n", joinNonEmpty(", ", order.Address, order.City, order.State))
	fmt.Fprintf(&b, "PIN Code: %s\n\n", order.PinCode)

	section(&b, "ORDER ITEMS")
	for i, item := range order.Items {
		if i > 0 {
			b.WriteString("\n")
		}
		subtotal := item.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
		fmt.Fprintf(&b, "• %s\n  Size: %s | Color: %s\n  Quantity: %d × ₹%s = ₹%s\n",
			item.Name, item.Size, item.Color, item.Quantity, rupees(item.Price), rupees(subtotal))
	}
	b.WriteString("\n")

	section(&b, "ORDER SUMMARY")
	fmt.Fprintf(&b, "Subtotal: ₹%s\n", rupees(order.Total))
	b.WriteString("Shipping: FREE\n")
	fmt.Fprintf(&b, "Total: ₹%s\n", rupees(order.Total))
	fmt.Fprintf(&b, "Payment: %s\n", order.PaymentMethod)
	if strings.TrimSpace(order.Notes) != "" {
		fmt.Fprintf(&b, "Notes: %s\n", order.Notes)
	}

	fmt.Fprintf(&b, "\nThank you for choosing %s!\n", r.Brand)
	if r.Tagline != "" {
		fmt.Fprintf(&b, "%s\n", r.Tagline)
	}
	if r.ContactEmail != "" {
		fmt.Fprintf(&b, "\nContact: %s\n", r.ContactEmail)
	}
	if r.DeliveryArea != "" {
		fmt.Fprintf(&b, "Delivery: %s\n", r.DeliveryArea)
	}
	return b.String()
}

func section(b *strings.Builder, title string) {
	fmt.Fprintf(b, "%s\n%s\n", title, strings.Repeat("-", len(title)))
}

// rupees drops the fraction for whole amounts.
func rupees(amount decimal.Decimal) string {
	if amount.Equal(amount.Truncate(0)) {
		return amount.StringFixed(0)
	}
	return amount.StringFixed(2)
}

func joinNonEmpty(sep string, parts ...string) string {
	kept := parts[:0:0]
	for _, part := range parts {
		if strings.TrimSpace(part) != "" {
			kept = append(kept, strings.TrimSpace(part))
		}
	}
	return strings.Join(kept, sep)
}
