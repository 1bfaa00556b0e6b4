package cart

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// LegacyKeys are read, in order, when the canonical key holds no lines.
// WithLegacyKeys replaces them per model.
var LegacyKeys = []string{"cart", "shopping_cart", "aurevo_shopping_cart"}

var (
	idFields       = []string{"id", "productId", "product_id"}
	nameFields     = []string{"name", "productName", "title"}
	priceFields    = []string{"price", "productPrice"}
	originalFields = []string{"originalPrice"}
	imageFields    = []string{"image", "productImage", "img"}
	sizeFields     = []string{"size", "productSize"}
	colorFields    = []string{"color", "productColor"}
	quantityFields = []string{"quantity", "productQuantity", "qty"}
)

// record is the persisted shape of one line.
type record struct {
	ID            string      `json:"id"`
	Name          string      `json:"name"`
	Price         json.Number `json:"price"`
	OriginalPrice json.Number `json:"originalPrice"`
	Image         string      `json:"image"`
	Size          string      `json:"size"`
	Color         string      `json:"color"`
	Quantity      int         `json:"quantity"`
	AddedAt       int64       `json:"addedAt"`
}

func toRecords(items []LineItem) []record {
	out := make([]record, 0, len(items))
	for _, item := range items {
		out = append(out, record{
			ID:            item.ProductID,
			Name:          item.Name,
			Price:         json.Number(item.UnitPrice.String()),
			OriginalPrice: json.Number(item.OriginalPrice.String()),
			Image:         item.ImageURL,
			Size:          item.Size,
			Color:         item.Color,
			Quantity:      item.Quantity,
			AddedAt:       item.AddedAt.UnixMilli(),
		})
	}
	return out
}

type loadResult struct {
	items     []LineItem
	sourceKey string
	merged    int
	rewrite   bool
}

// loadNormalized reads the canonical key, falling back to the legacy keys, and
// returns identity-merged lines plus whether the canonical document needs rewriting.
func loadNormalized(ctx context.Context, kv KV, key string, legacyKeys []string, now func() time.Time) loadResult {
	raws, shaped := readDocument(ctx, kv, key)
	sourceKey := key
	if len(raws) == 0 {
		for _, legacy := range legacyKeys {
			if legacy == key {
				continue
			}
			if raws, shaped = readDocument(ctx, kv, legacy); len(raws) > 0 {
				sourceKey = legacy
				break
			}
		}
	}
	if len(raws) == 0 {
		return loadResult{sourceKey: key}
	}

	result := loadResult{
		sourceKey: sourceKey,
		rewrite:   sourceKey != key || shaped,
	}
	fallbackTime := now().UTC()
	for _, raw := range raws {
		item, repaired, ok := decodeLine(raw, fallbackTime)
		if !ok {
			result.rewrite = true
			continue
		}
		if repaired {
			result.rewrite = true
		}
		if idx := indexByIdentity(result.items, item.Identity()); idx >= 0 {
			result.items[idx].Quantity += item.Quantity
			result.merged++
			result.rewrite = true
			continue
		}
		result.items = append(result.items, item)
	}
	return result
}

// readDocument accepts either a JSON array of lines or an object with an items
// array. shaped reports the latter.
func readDocument(ctx context.Context, kv KV, key string) (lines []json.RawMessage, shaped bool) {
	raw, ok := kv.ReadRaw(ctx, key)
	if !ok {
		return nil, false
	}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, false
	}
	switch trimmed[0] {
	case '[':
		if err := json.Unmarshal(trimmed, &lines); err != nil {
			return nil, false
		}
		return lines, false
	case '{':
		var doc struct {
			Items []json.RawMessage `json:"items"`
		}
		if err := json.Unmarshal(trimmed, &doc); err != nil {
			return nil, false
		}
		return doc.Items, true
	default:
		return nil, false
	}
}

// decodeLine maps one stored line, tolerating field aliases and string numbers.
// repaired reports that the stored form differs from the canonical one.
func decodeLine(raw json.RawMessage, fallbackTime time.Time) (item LineItem, repaired bool, ok bool) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return LineItem{}, false, false
	}

	id, canonical := stringField(fields, idFields)
	if id == "" {
		return LineItem{}, false, false
	}
	repaired = !canonical

	name, canonical := stringField(fields, nameFields)
	repaired = repaired || !canonical
	image, canonical := stringField(fields, imageFields)
	repaired = repaired || !canonical
	size, canonical := stringField(fields, sizeFields)
	repaired = repaired || !canonical
	color, canonical := stringField(fields, colorFields)
	repaired = repaired || !canonical

	price, canonical := decimalField(fields, priceFields)
	repaired = repaired || !canonical
	original, canonical := decimalField(fields, originalFields)
	repaired = repaired || !canonical
	if original.IsZero() {
		original = price
	}

	quantity, canonical := intField(fields, quantityFields)
	repaired = repaired || !canonical
	if quantity < 1 {
		quantity = 1
		repaired = true
	}

	addedAt := fallbackTime
	if ms, canonicalAdded := intField(fields, []string{"addedAt"}); ms > 0 {
		addedAt = time.UnixMilli(int64(ms)).UTC()
		repaired = repaired || !canonicalAdded
	} else {
		repaired = true
	}

	identity := NewIdentity(id, size, color)
	if identity.Size != size || identity.Color != color {
		repaired = true
	}

	return LineItem{
		ProductID:     identity.ProductID,
		Name:          orDefault(name, DefaultName),
		UnitPrice:     price,
		OriginalPrice: original,
		ImageURL:      image,
		Size:          identity.Size,
		Color:         identity.Color,
		Quantity:      quantity,
		AddedAt:       addedAt,
	}, repaired, true
}

func indexByIdentity(items []LineItem, identity Identity) int {
	for i, item := range items {
		if item.Identity() == identity {
			return i
		}
	}
	return -1
}

// lookup returns the first present alias; canonical is true when that alias is
// the first name in the list or when no alias is present at all.
func lookup(fields map[string]json.RawMessage, names []string) (json.RawMessage, bool) {
	for i, name := range names {
		if raw, ok := fields[name]; ok && string(raw) != "null" {
			return raw, i == 0
		}
	}
	return nil, true
}

func stringField(fields map[string]json.RawMessage, names []string) (string, bool) {
	raw, canonical := lookup(fields, names)
	if raw == nil {
		return "", canonical
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s), canonical
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String(), false
	}
	return "", false
}

func decimalField(fields map[string]json.RawMessage, names []string) (decimal.Decimal, bool) {
	raw, canonical := lookup(fields, names)
	if raw == nil {
		return decimal.Zero, canonical
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		if d, err := decimal.NewFromString(n.String()); err == nil && !d.IsNegative() {
			return d, canonical
		}
		return decimal.Zero, false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		cleaned := strings.NewReplacer("₹", "", ",", "", "Rs.", "", " ", "").Replace(strings.TrimSpace(s))
		if d, err := decimal.NewFromString(cleaned); err == nil && !d.IsNegative() {
			return d, false
		}
	}
	return decimal.Zero, false
}

func intField(fields map[string]json.RawMessage, names []string) (int, bool) {
	raw, canonical := lookup(fields, names)
	if raw == nil {
		return 0, false
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		if i, err := n.Int64(); err == nil {
			return int(i), canonical
		}
		if f, err := n.Float64(); err == nil && !math.IsNaN(f) {
			return int(f), false
		}
		return 0, false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if i, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return i, false
		}
	}
	return 0, false
}
