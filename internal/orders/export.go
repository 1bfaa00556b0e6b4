package orders

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aurevo/storefront/pkg/db/models"
)

// CSVHeader is the first row of every export.
var CSVHeader = []string{"OrderID", "Date", "CustomerName", "Email", "Mobile", "Address", "Pincode", "Items", "Total"}

// WriteCSV writes the order log. Quoting of names, addresses and item lists
// is left to encoding/csv.
func WriteCSV(w io.Writer, orders []models.Order) error {
	out := csv.NewWriter(w)
	if err := out.Write(CSVHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, order := range orders {
		row := []string{
			order.OrderID,
			order.OrderedAt.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
			order.CustomerName,
			order.CustomerEmail,
			order.CustomerMobile,
			order.Address,
			order.PinCode,
			itemsColumn(order.Items),
			order.Total.StringFixed(2),
		}
		if err := out.Write(row); err != nil {
			return fmt.Errorf("write csv row %s: %w", order.OrderID, err)
		}
	}
	out.Flush()
	return out.Error()
}

// ExportFilename names a CSV download for the given day.
func ExportFilename(day time.Time) string {
	return fmt.Sprintf("aurevo-orders-backup-%s.csv", day.UTC().Format("2006-01-02"))
}

func itemsColumn(items []models.OrderItem) string {
	parts := make([]string, 0, len(items))
	for _, item := range items {
		parts = append(parts, fmt.Sprintf("%s (%s, %s) x%d", item.Name, item.Size, item.Color, item.Quantity))
	}
	return strings.Join(parts, "; ")
}
