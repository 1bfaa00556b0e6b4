package sessions

import (
	"context"
	"fmt"
	"regexp"
	"sync"
	"time"

	"github.com/aurevo/storefront/internal/cart"
	"github.com/aurevo/storefront/internal/checkout"
	"github.com/aurevo/storefront/internal/notifications"
	"github.com/aurevo/storefront/pkg/enums"
	pkgerrors "github.com/aurevo/storefront/pkg/errors"
	"github.com/aurevo/storefront/pkg/logger"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

// HeaderSessionID carries the shopper's session id on every request.
const HeaderSessionID = "X-Session-Id"

const DefaultIdleTTL = 2 * time.Hour

var idPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{8,64}$`)

// NewID returns a fresh session id.
func NewID() string {
	return uuid.NewString()
}

// ValidID reports whether id is acceptable as a session id.
func ValidID(id string) bool {
	return idPattern.MatchString(id)
}

// Handle is one live shopper session plus its notification feed.
type Handle struct {
	Session *checkout.Session
	Feed    *notifications.Recorder
}

// Params wires a Registry. Validator, Assembler and Submitter are shared by
// every session.
type Params struct {
	Store        cart.KV
	CartKey      string
	Validator    *checkout.Validator
	Assembler    *checkout.Assembler
	Submitter    *checkout.Submitter
	Ledger       checkout.Ledger
	Renderer     checkout.Renderer
	CartMetrics  cart.MutationRecorder
	Rejections   checkout.RejectionRecorder
	Logger       *logger.Logger
	IdleTTL      time.Duration
	FeedCapacity int
	Now          func() time.Time
}

type entry struct {
	handle   *Handle
	lastSeen time.Time
}

// Registry maps session ids to live sessions. Concurrent first requests for
// the same id share one cart load.
type Registry struct {
	params Params
	now    func() time.Time
	logg   *logger.Logger

	mu      sync.Mutex
	entries map[string]*entry
	group   singleflight.Group
}

func NewRegistry(params Params) (*Registry, error) {
	if params.Store == nil {
		return nil, fmt.Errorf("cart store required")
	}
	if params.Validator == nil || params.Assembler == nil || params.Submitter == nil {
		return nil, fmt.Errorf("checkout pipeline required")
	}
	if params.IdleTTL <= 0 {
		params.IdleTTL = DefaultIdleTTL
	}
	r := &Registry{
		params:  params,
		now:     params.Now,
		logg:    params.Logger,
		entries: make(map[string]*entry),
	}
	if r.now == nil {
		r.now = time.Now
	}
	if r.logg == nil {
		r.logg = logger.Nop()
	}
	return r, nil
}

// CartKey is the default storage key of a session's cart.
func CartKey(id string) string {
	return cart.DefaultKey + ":" + id
}

func (r *Registry) cartKey(id string) string {
	if r.params.CartKey == "" || r.params.CartKey == cart.DefaultKey {
		return CartKey(id)
	}
	return r.params.CartKey + ":" + id
}

// Get returns the live session for id, loading its cart on first use.
func (r *Registry) Get(ctx context.Context, id string) (*Handle, error) {
	if !ValidID(id) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid session id")
	}
	if handle := r.lookup(id); handle != nil {
		return handle, nil
	}

	v, err, _ := r.group.Do(id, func() (any, error) {
		if handle := r.lookup(id); handle != nil {
			return handle, nil
		}
		handle, err := r.build(context.WithoutCancel(ctx), id)
		if err != nil {
			return nil, err
		}
		r.mu.Lock()
		r.entries[id] = &entry{handle: handle, lastSeen: r.now()}
		r.mu.Unlock()
		return handle, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Handle), nil
}

func (r *Registry) lookup(id string) *Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[id]
	if !ok {
		return nil
	}
	e.lastSeen = r.now()
	return e.handle
}

func (r *Registry) build(ctx context.Context, id string) (*Handle, error) {
	ctx = r.logg.WithSessionID(ctx, id)

	legacy := make([]string, 0, len(cart.LegacyKeys))
	for _, key := range cart.LegacyKeys {
		legacy = append(legacy, key+":"+id)
	}
	model := cart.NewModel(r.params.Store,
		cart.WithKey(r.cartKey(id)),
		cart.WithLegacyKeys(legacy...),
		cart.WithLogger(r.logg),
		cart.WithMutationRecorder(r.params.CartMetrics),
	)
	model.Load(ctx)

	feed := notifications.NewRecorder(r.params.FeedCapacity)
	renderer := notifications.Fanout{feed}
	if r.params.Renderer != nil {
		renderer = append(renderer, r.params.Renderer)
	}

	session, err := checkout.NewSession(checkout.SessionParams{
		ID:        id,
		Cart:      model,
		Validator: r.params.Validator,
		Assembler: r.params.Assembler,
		Submitter: r.params.Submitter,
		Ledger:    r.params.Ledger,
		Renderer:  renderer,
		Metrics:   r.params.Rejections,
		Logger:    r.logg,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create session")
	}
	feed.OnCartChanged(ctx, model.Snapshot())

	r.logg.Debug(r.logg.WithField(ctx, "cart_lines", model.Len()), "session opened")
	return &Handle{Session: session, Feed: feed}, nil
}

// Len reports the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Sweep drops sessions idle longer than the TTL. Sessions with an order in
// flight are kept. Carts stay in storage and reload on the next request.
func (r *Registry) Sweep() int {
	cutoff := r.now().Add(-r.params.IdleTTL)
	r.mu.Lock()
	defer r.mu.Unlock()
	evicted := 0
	for id, e := range r.entries {
		if e.lastSeen.After(cutoff) {
			continue
		}
		if e.handle.Session.State() == enums.SubmissionStateSubmitting {
			continue
		}
		delete(r.entries, id)
		evicted++
	}
	return evicted
}

// Run sweeps idle sessions until ctx is done.
func (r *Registry) Run(ctx context.Context) {
	interval := r.params.IdleTTL / 4
	if interval < time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Sweep(); n > 0 {
				r.logg.Info(r.logg.WithField(ctx, "evicted", n), "idle sessions evicted")
			}
		}
	}
}
