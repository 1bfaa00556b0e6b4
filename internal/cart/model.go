package cart

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	pkgerrors "github.com/aurevo/storefront/pkg/errors"
	"github.com/aurevo/storefront/pkg/logger"
	"github.com/shopspring/decimal"
)

// DefaultKey is the storage key holding the canonical cart document.
const DefaultKey = "aurevo_cart"

// KV is the persistence surface the cart needs. storage.Store satisfies it.
type KV interface {
	ReadRaw(ctx context.Context, key string) (json.RawMessage, bool)
	Write(ctx context.Context, key string, value any) bool
	Delete(ctx context.Context, key string) bool
}

// MutationRecorder counts persisted mutations.
type MutationRecorder interface {
	IncCartMutation(op string)
}

// Model is the ordered, identity-deduplicated cart of one shopper.
// It is not safe for concurrent use; callers serialize access.
type Model struct {
	kv        KV
	key       string
	legacy    []string
	items     []LineItem
	observers []Observer
	now       func() time.Time
	logg      *logger.Logger
	metrics   MutationRecorder
}

// Option configures a Model.
type Option func(*Model)

// WithKey overrides the storage key.
func WithKey(key string) Option {
	return func(m *Model) {
		if strings.TrimSpace(key) != "" {
			m.key = key
		}
	}
}

// WithClock overrides the time source used for AddedAt.
func WithClock(now func() time.Time) Option {
	return func(m *Model) {
		if now != nil {
			m.now = now
		}
	}
}

// WithLegacyKeys overrides the keys consulted when the canonical key is empty.
func WithLegacyKeys(keys ...string) Option {
	return func(m *Model) {
		m.legacy = append([]string(nil), keys...)
	}
}

func WithLogger(logg *logger.Logger) Option {
	return func(m *Model) {
		if logg != nil {
			m.logg = logg
		}
	}
}

func WithMutationRecorder(rec MutationRecorder) Option {
	return func(m *Model) {
		m.metrics = rec
	}
}

// NewModel builds an empty cart bound to kv. Call Load to hydrate it.
func NewModel(kv KV, opts ...Option) *Model {
	m := &Model{
		kv:     kv,
		key:    DefaultKey,
		legacy: LegacyKeys,
		now:    time.Now,
		logg:   logger.Nop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}
	return m
}

// Key returns the storage key the cart persists under.
func (m *Model) Key() string {
	return m.key
}

// Subscribe registers an observer for persisted mutations.
func (m *Model) Subscribe(observer Observer) {
	if observer != nil {
		m.observers = append(m.observers, observer)
	}
}

// Load hydrates the cart from storage, normalizing legacy documents. Missing or
// unreadable data yields an empty cart.
func (m *Model) Load(ctx context.Context) {
	result := loadNormalized(ctx, m.kv, m.key, m.legacy, m.now)
	m.items = result.items
	if !result.rewrite {
		return
	}

	ctx = m.logg.WithFields(ctx, map[string]any{
		"cart_key":    m.key,
		"source_key":  result.sourceKey,
		"cart_lines":  len(m.items),
		"merged_rows": result.merged,
	})
	if !m.kv.Write(ctx, m.key, toRecords(m.items)) {
		m.logg.Warn(ctx, "normalized cart could not be persisted")
		return
	}
	if result.sourceKey != m.key {
		m.kv.Delete(ctx, result.sourceKey)
	}
	m.logg.Info(ctx, "cart document normalized")
}

// AddItem adds one unit of the product variant, merging into an existing line
// with the same identity.
func (m *Model) AddItem(ctx context.Context, productID string, attrs *Attributes) error {
	if strings.TrimSpace(productID) == "" || attrs == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "Invalid product data")
	}
	if attrs.Price.IsNegative() || attrs.OriginalPrice.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "Invalid product data").
			WithDetails(map[string]any{"price": "must not be negative"})
	}

	identity := NewIdentity(productID, attrs.Size, attrs.Color)
	merged := false
	var changed LineItem
	if idx := m.indexOf(identity); idx >= 0 {
		m.items[idx].Quantity++
		merged = true
		changed = m.items[idx]
	} else {
		original := attrs.OriginalPrice
		if original.IsZero() {
			original = attrs.Price
		}
		changed = LineItem{
			ProductID:     identity.ProductID,
			Name:          orDefault(attrs.Name, DefaultName),
			UnitPrice:     attrs.Price,
			OriginalPrice: original,
			ImageURL:      strings.TrimSpace(attrs.Image),
			Size:          identity.Size,
			Color:         identity.Color,
			Quantity:      1,
			AddedAt:       m.now().UTC(),
		}
		m.items = append(m.items, changed)
	}

	m.commit(ctx, Change{Op: OpAdd, Merged: merged, Item: &changed})
	return nil
}

// RemoveItem drops every line matching the identity. It reports whether anything was removed.
func (m *Model) RemoveItem(ctx context.Context, productID, size, color string) bool {
	identity := NewIdentity(productID, size, color)
	kept := m.items[:0:0]
	for _, item := range m.items {
		if item.Identity() != identity {
			kept = append(kept, item)
		}
	}
	if len(kept) == len(m.items) {
		return false
	}
	m.items = kept
	m.commit(ctx, Change{Op: OpRemove})
	return true
}

// SetQuantity replaces the quantity of an existing line. Quantities below one
// are rejected; use RemoveItem to drop a line.
func (m *Model) SetQuantity(ctx context.Context, identity Identity, quantity int) error {
	identity = NewIdentity(identity.ProductID, identity.Size, identity.Color)
	if quantity < 1 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1").
			WithDetails(map[string]any{"quantity": quantity})
	}
	idx := m.indexOf(identity)
	if idx < 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("cart line %s (%s, %s) not found", identity.ProductID, identity.Size, identity.Color))
	}
	if m.items[idx].Quantity == quantity {
		return nil
	}
	m.items[idx].Quantity = quantity
	changed := m.items[idx]
	m.commit(ctx, Change{Op: OpQuantity, Item: &changed})
	return nil
}

// Clear empties the cart and persists the empty document.
func (m *Model) Clear(ctx context.Context) {
	m.items = nil
	m.commit(ctx, Change{Op: OpClear})
}

// Total is the sum of unit price times quantity over all lines.
func (m *Model) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range m.items {
		total = total.Add(item.Subtotal())
	}
	return total
}

// Count is the number of units across all lines.
func (m *Model) Count() int {
	count := 0
	for _, item := range m.items {
		count += item.Quantity
	}
	return count
}

// Len is the number of distinct lines.
func (m *Model) Len() int {
	return len(m.items)
}

func (m *Model) IsEmpty() bool {
	return len(m.items) == 0
}

// Items returns a copy of the lines in insertion order.
func (m *Model) Items() []LineItem {
	out := make([]LineItem, len(m.items))
	copy(out, m.items)
	return out
}

func (m *Model) Snapshot() Snapshot {
	return Snapshot{
		Items: m.Items(),
		Count: m.Count(),
		Total: m.Total(),
	}
}

func (m *Model) indexOf(identity Identity) int {
	for i, item := range m.items {
		if item.Identity() == identity {
			return i
		}
	}
	return -1
}

// commit persists first, then notifies. A failed write keeps the in-memory state.
func (m *Model) commit(ctx context.Context, change Change) {
	if !m.kv.Write(ctx, m.key, toRecords(m.items)) {
		m.logg.Warn(m.logg.WithField(ctx, "cart_key", m.key), "cart change kept in memory only")
	}
	if m.metrics != nil {
		m.metrics.IncCartMutation(string(change.Op))
	}
	for _, observer := range m.observers {
		change.Snapshot = m.Snapshot()
		m.notify(ctx, observer, change)
	}
}

func (m *Model) notify(ctx context.Context, observer Observer, change Change) {
	defer func() {
		if r := recover(); r != nil {
			m.logg.Error(ctx, "cart observer panicked", fmt.Errorf("panic: %v", r))
		}
	}()
	observer(ctx, change)
}
