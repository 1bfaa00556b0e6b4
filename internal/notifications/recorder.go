package notifications

import (
	"context"
	"sync"
	"time"

	"github.com/aurevo/storefront/internal/cart"
	"github.com/aurevo/storefront/internal/checkout"
	"github.com/aurevo/storefront/pkg/enums"
	"github.com/google/uuid"
)

// DefaultCapacity bounds how many notifications a Recorder keeps.
const DefaultCapacity = 20

// Notification is one shopper-facing toast.
type Notification struct {
	ID        uuid.UUID      `json:"id"`
	Message   string         `json:"message"`
	Severity  enums.Severity `json:"severity"`
	CreatedAt time.Time      `json:"createdAt"`
}

// View is the latest rendered state of one session.
type View struct {
	Cart          cart.Snapshot              `json:"cart"`
	Validation    *checkout.ValidationResult `json:"validation,omitempty"`
	State         enums.SubmissionState      `json:"state"`
	Notifications []Notification             `json:"notifications"`
}

// Recorder keeps the last rendered state in memory so the API can serve it.
// Oldest notifications are dropped once capacity is reached.
type Recorder struct {
	mu         sync.Mutex
	capacity   int
	now        func() time.Time
	items      []Notification
	cart       cart.Snapshot
	validation *checkout.ValidationResult
	state      enums.SubmissionState
}

func NewRecorder(capacity int) *Recorder {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Recorder{
		capacity: capacity,
		now:      time.Now,
		state:    enums.SubmissionStateIdle,
	}
}

func (r *Recorder) OnCartChanged(_ context.Context, snapshot cart.Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cart = snapshot
}

func (r *Recorder) OnValidationChanged(_ context.Context, result checkout.ValidationResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.validation = &result
}

func (r *Recorder) OnSubmissionStateChanged(_ context.Context, state enums.SubmissionState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state = state
}

func (r *Recorder) Notify(_ context.Context, message string, severity enums.Severity) {
	if message == "" {
		return
	}
	if !severity.IsValid() {
		severity = enums.SeverityInfo
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, Notification{
		ID:        uuid.New(),
		Message:   message,
		Severity:  severity,
		CreatedAt: r.now().UTC(),
	})
	if overflow := len(r.items) - r.capacity; overflow > 0 {
		r.items = append(r.items[:0:0], r.items[overflow:]...)
	}
}

// View returns a copy of the current state, oldest notification first.
func (r *Recorder) View() View {
	r.mu.Lock()
	defer r.mu.Unlock()
	view := View{
		Cart:          r.cart,
		State:         r.state,
		Notifications: append([]Notification(nil), r.items...),
	}
	if r.validation != nil {
		v := *r.validation
		view.Validation = &v
	}
	return view
}

// Dismiss removes one notification. It reports whether it was present.
func (r *Recorder) Dismiss(id uuid.UUID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, item := range r.items {
		if item.ID == id {
			r.items = append(r.items[:i], r.items[i+1:]...)
			return true
		}
	}
	return false
}

// Drain returns every pending notification and forgets them.
func (r *Recorder) Drain() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.items
	r.items = nil
	return out
}
