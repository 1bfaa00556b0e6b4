package orders

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/aurevo/storefront/pkg/db/models"
	"github.com/aurevo/storefront/pkg/enums"
	"github.com/aurevo/storefront/pkg/pagination"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func paginationParams(limit int, cursor string) pagination.Params {
	return pagination.Params{Limit: limit, Cursor: cursor}
}

func ledgerRow() models.Order {
	server := "SRV-1"
	return models.Order{
		OrderID:        "AUR600123K3J9QZ",
		ServerOrderID:  &server,
		Status:         enums.OrderStatusConfirmed,
		PaymentMethod:  "Prepaid",
		CustomerName:   `Riya "R" Sen`,
		CustomerEmail:  "riya@example.com",
		CustomerMobile: "9876543210",
		Address:        "12 Station Road, Ward 4",
		City:           "Jalpaiguri",
		State:          "West Bengal",
		PinCode:        "735101",
		Total:          decimal.RequireFromString("1047.50"),
		OrderedAt:      time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC),
		Items: []models.OrderItem{
			{Name: "Black Essential Tee", Price: decimal.NewFromInt(349), Size: "M", Color: "Black", Quantity: 2},
			{Name: "Beige Essential Tee", Price: decimal.RequireFromString("349.50"), Size: "L", Color: "Default", Quantity: 1},
		},
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, []models.Order{ledgerRow()}))

	assert.True(t, strings.HasPrefix(buf.String(), "OrderID,Date,CustomerName,Email,Mobile,Address,Pincode,Items,Total\n"))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	row := rows[1]
	assert.Equal(t, "AUR600123K3J9QZ", row[0])
	assert.Equal(t, "2026-03-01T09:30:00.000Z", row[1])
	assert.Equal(t, `Riya "R" Sen`, row[2])
	assert.Equal(t, "12 Station Road, Ward 4", row[5])
	assert.Equal(t, "Black Essential Tee (M, Black) x2; Beige Essential Tee (L, Default) x1", row[7])
	assert.Equal(t, "1047.50", row[8])
}

func TestWriteCSVHeaderOnly(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, nil))
	assert.Equal(t, "OrderID,Date,CustomerName,Email,Mobile,Address,Pincode,Items,Total\n", buf.String())
}

func TestRenderReceipt(t *testing.T) {
	text := RenderReceipt(ledgerRow())

	assert.True(t, strings.HasPrefix(text, "AUREVO - ORDER CONFIRMATION\n"))
	assert.Contains(t, text, "Order ID: AUR600123K3J9QZ\n")
	assert.Contains(t, text, "Reference: SRV-1\n")
	assert.Contains(t, text, "Order Date: 01 Mar 2026, 3:00 PM IST\n")
	assert.Contains(t, text, "Address: 12 Station Road, Ward 4, Jalpaiguri, West Bengal\n")
	assert.Contains(t, text, "  Quantity: 2 × ₹349 = ₹698\n")
	assert.Contains(t, text, "  Quantity: 1 × ₹349.50 = ₹349.50\n")
	assert.Contains(t, text, "Total: ₹1047.50\n")
	assert.Contains(t, text, "Delivery: Jalpaiguri (735101)\n")
	assert.NotContains(t, text, "Notes:")
}

func TestExportFilename(t *testing.T) {
	assert.Equal(t, "aurevo-orders-backup-2026-03-01.csv", ExportFilename(time.Date(2026, 3, 1, 23, 0, 0, 0, time.UTC)))
}
