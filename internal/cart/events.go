package cart

import "context"

// Op names the mutation that produced a Change.
type Op string

const (
	OpAdd      Op = "add"
	OpRemove   Op = "remove"
	OpQuantity Op = "quantity"
	OpClear    Op = "clear"
)

// Change is delivered to observers after a mutation has been persisted.
type Change struct {
	Op       Op
	Merged   bool
	Item     *LineItem
	Snapshot Snapshot
}

// Message is the shopper-facing toast text for the change.
func (c Change) Message() string {
	switch c.Op {
	case OpAdd:
		if c.Merged {
			return "Updated quantity in cart!"
		}
		return "Added to cart!"
	case OpRemove:
		return "Removed from cart!"
	case OpQuantity:
		return "Cart updated!"
	case OpClear:
		return "Cart cleared!"
	default:
		return ""
	}
}

// Observer receives cart changes. Observers run synchronously in registration order.
type Observer func(ctx context.Context, change Change)
