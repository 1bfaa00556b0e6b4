package checkout

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aurevo/storefront/internal/cart"
	"github.com/aurevo/storefront/internal/storage"
	"github.com/aurevo/storefront/pkg/enums"
	pkgerrors "github.com/aurevo/storefront/pkg/errors"
	"github.com/aurevo/storefront/pkg/orderapi"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type note struct {
	message  string
	severity enums.Severity
}

type recordingRenderer struct {
	mu          sync.Mutex
	snapshots   []cart.Snapshot
	validations []ValidationResult
	states      []enums.SubmissionState
	notes       []note
}

func (r *recordingRenderer) OnCartChanged(_ context.Context, snapshot cart.Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snapshots = append(r.snapshots, snapshot)
}

func (r *recordingRenderer) OnValidationChanged(_ context.Context, result ValidationResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.validations = append(r.validations, result)
}

func (r *recordingRenderer) OnSubmissionStateChanged(_ context.Context, state enums.SubmissionState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, state)
}

func (r *recordingRenderer) Notify(_ context.Context, message string, severity enums.Severity) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notes = append(r.notes, note{message: message, severity: severity})
}

func (r *recordingRenderer) messages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.notes))
	for _, n := range r.notes {
		out = append(out, n.message)
	}
	return out
}

type memoryLedger struct {
	created []OrderRecord
	updates map[string]StatusUpdate
}

func (l *memoryLedger) Create(_ context.Context, _ string, order OrderRecord) error {
	l.created = append(l.created, order)
	return nil
}

func (l *memoryLedger) UpdateStatus(_ context.Context, orderID string, update StatusUpdate) error {
	if l.updates == nil {
		l.updates = map[string]StatusUpdate{}
	}
	l.updates[orderID] = update
	return nil
}

type rejectionCounter struct {
	reasons []string
}

func (r *rejectionCounter) IncRejection(reason string) {
	r.reasons = append(r.reasons, reason)
}

type sessionFixture struct {
	session  *Session
	model    *cart.Model
	sender   Sender
	sleeper  *recordingSleeper
	renderer *recordingRenderer
	ledger   *memoryLedger
	rejects  *rejectionCounter
}

func newSessionFixture(t *testing.T, sender Sender) *sessionFixture {
	t.Helper()
	store := storage.NewStore(storage.NewMemoryBackend(), nil)
	model := cart.NewModel(store, cart.WithKey("aurevo_cart:test"))
	model.Load(context.Background())

	sleeper := &recordingSleeper{}
	submitter, err := NewSubmitter(SubmitterParams{Sender: sender, Sleeper: sleeper, MaxRetries: 3, BaseDelay: time.Second})
	require.NoError(t, err)

	f := &sessionFixture{
		model:    model,
		sender:   sender,
		sleeper:  sleeper,
		renderer: &recordingRenderer{},
		ledger:   &memoryLedger{},
		rejects:  &rejectionCounter{},
	}
	f.session, err = NewSession(SessionParams{
		ID:        "test",
		Cart:      model,
		Validator: newTestValidator(t),
		Assembler: NewAssembler(AssemblerConfig{}),
		Submitter: submitter,
		Ledger:    f.ledger,
		Renderer:  f.renderer,
		Metrics:   f.rejects,
	})
	require.NoError(t, err)
	return f
}

func (f *sessionFixture) addTee(t *testing.T, quantity int) {
	t.Helper()
	for i := 0; i < quantity; i++ {
		require.NoError(t, f.session.AddItem(context.Background(), "essential-tee", &cart.Attributes{Name: "Black Essential Tee", Price: decimal.NewFromInt(349)}))
	}
}

func TestCheckoutRetriesThenSucceedsAndClearsCart(t *testing.T) {
	sender := &scriptedSender{failures: []error{httpFailure("HTTP 500: Internal Server Error"), httpFailure("HTTP 500: Internal Server Error")}, serverID: "SRV-1"}
	f := newSessionFixture(t, sender)
	f.addTee(t, 2)

	result, err := f.session.Checkout(context.Background(), validForm())
	require.NoError(t, err)

	assert.Equal(t, 3, sender.Calls())
	assert.True(t, result.Outcome.Success)
	assert.Equal(t, "SRV-1", result.DisplayOrderID)
	assert.Equal(t, enums.OrderStatusConfirmed, result.Order.Status)
	assert.True(t, result.Order.Total.Equal(decimal.NewFromInt(698)))
	assert.True(t, f.model.IsEmpty(), "cart cleared after success")
	assert.Equal(t, enums.SubmissionStateSuccess, f.session.State())

	require.Len(t, f.ledger.created, 1)
	assert.Equal(t, enums.OrderStatusPending, f.ledger.created[0].Status)
	assert.Equal(t, enums.OrderStatusConfirmed, f.ledger.updates[result.Order.OrderID].Status)
	assert.Equal(t, 3, f.ledger.updates[result.Order.OrderID].Attempts)

	msgs := f.renderer.messages()
	assert.Contains(t, msgs, msgOrderPlaced)
	assert.NotContains(t, msgs, "Cart cleared!")
	assert.Equal(t, []enums.SubmissionState{
		enums.SubmissionStateValidating,
		enums.SubmissionStateSubmitting,
		enums.SubmissionStateSuccess,
	}, f.renderer.states)
}

func TestCheckoutFailureLeavesCartIntact(t *testing.T) {
	sender := &scriptedSender{failures: []error{
		httpFailure("HTTP 500: Internal Server Error"),
		httpFailure("HTTP 502: Bad Gateway"),
		httpFailure("Request timed out"),
	}}
	f := newSessionFixture(t, sender)
	f.addTee(t, 3)

	result, err := f.session.Checkout(context.Background(), validForm())
	require.NoError(t, err)

	assert.False(t, result.Outcome.Success)
	assert.Equal(t, "Request timed out", result.Outcome.Reason)
	assert.Equal(t, enums.OrderStatusFailed, result.Order.Status)
	assert.Equal(t, 3, f.model.Count(), "cart unchanged after failure")
	assert.Equal(t, enums.SubmissionStateFailure, f.session.State())
	assert.Equal(t, "Request timed out", f.ledger.updates[result.Order.OrderID].FailureReason)

	f.renderer.mu.Lock()
	last := f.renderer.notes[len(f.renderer.notes)-1]
	f.renderer.mu.Unlock()
	assert.Equal(t, note{message: "Request timed out", severity: enums.SeverityError}, last)

	// a failed checkout can be retried by the shopper
	sender.failures = nil
	sender.calls = 0
	result, err = f.session.Checkout(context.Background(), validForm())
	require.NoError(t, err)
	assert.True(t, result.Outcome.Success)
}

func TestCheckoutRejectsEmptyCart(t *testing.T) {
	sender := &scriptedSender{}
	f := newSessionFixture(t, sender)

	_, err := f.session.Checkout(context.Background(), validForm())
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	assert.Zero(t, sender.Calls())
	assert.Equal(t, []string{"empty_cart"}, f.rejects.reasons)
	assert.Contains(t, f.renderer.messages(), msgEmptyCart)
}

func TestCheckoutRejectsInvalidFormWithoutNetwork(t *testing.T) {
	sender := &scriptedSender{}
	f := newSessionFixture(t, sender)
	f.addTee(t, 1)

	form := validForm()
	form.PinCode = "123456"
	_, err := f.session.Checkout(context.Background(), form)
	require.Error(t, err)

	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
	details, ok := typed.Details().(map[string]any)
	require.True(t, ok)
	fields := details["fields"].(map[string]string)
	assert.Equal(t, "Sorry, we currently deliver only in Jalpaiguri (735101).", fields[FieldPinCode])
	assert.Equal(t, LabelVerifyPin, details["label"])

	assert.Zero(t, sender.Calls())
	assert.Equal(t, enums.SubmissionStateIdle, f.session.State())
	assert.Equal(t, 1, f.model.Count())
	require.NotEmpty(t, f.renderer.validations)
	assert.False(t, f.renderer.validations[len(f.renderer.validations)-1].Valid)
}

func TestCheckoutHonorsEarlierTermsAcceptance(t *testing.T) {
	sender := &scriptedSender{}
	f := newSessionFixture(t, sender)
	f.addTee(t, 1)

	form := validForm()
	form.TermsAccepted = false

	_, err := f.session.Checkout(context.Background(), form)
	require.Error(t, err)
	assert.Equal(t, []string{"terms"}, f.rejects.reasons)

	ready, label := f.session.Readiness(form)
	assert.False(t, ready)
	assert.Equal(t, LabelAcceptTerms, label)

	f.session.AcceptTerms(context.Background())
	ready, label = f.session.Readiness(form)
	assert.True(t, ready)
	assert.Equal(t, LabelPlaceOrder, label)

	result, err := f.session.Checkout(context.Background(), form)
	require.NoError(t, err)
	assert.True(t, result.Order.TermsAccepted)
}

// blockingSender holds the first call until released.
type blockingSender struct {
	started chan struct{}
	release chan struct{}
	once    sync.Once
	calls   int
	mu      sync.Mutex
}

func (b *blockingSender) Send(ctx context.Context, _ any) (*orderapi.Result, error) {
	b.mu.Lock()
	b.calls++
	b.mu.Unlock()
	b.once.Do(func() { close(b.started) })
	select {
	case <-b.release:
		return &orderapi.Result{}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func TestCheckoutGuardsConcurrentSubmission(t *testing.T) {
	sender := &blockingSender{started: make(chan struct{}), release: make(chan struct{})}
	f := newSessionFixture(t, sender)
	f.addTee(t, 1)

	var (
		wg     sync.WaitGroup
		result *CheckoutResult
		err    error
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		result, err = f.session.Checkout(context.Background(), validForm())
	}()

	<-sender.started
	assert.Equal(t, enums.SubmissionStateSubmitting, f.session.State())

	_, second := f.session.Checkout(context.Background(), validForm())
	assert.True(t, errors.Is(second, ErrSubmissionInProgress))
	assert.True(t, errors.Is(f.session.AddItem(context.Background(), "zip-front", &cart.Attributes{Price: decimal.NewFromInt(349)}), ErrSubmissionInProgress))
	assert.True(t, errors.Is(f.session.ClearCart(context.Background()), ErrSubmissionInProgress))

	close(sender.release)
	wg.Wait()

	require.NoError(t, err)
	assert.True(t, result.Outcome.Success)
	sender.mu.Lock()
	assert.Equal(t, 1, sender.calls)
	sender.mu.Unlock()
	assert.Len(t, f.ledger.created, 1)
}

func TestCheckoutSurvivesCallerCancellation(t *testing.T) {
	sender := &scriptedSender{}
	f := newSessionFixture(t, sender)
	f.addTee(t, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	result, err := f.session.Checkout(ctx, validForm())
	require.NoError(t, err)
	assert.True(t, result.Outcome.Success)
}

func TestCartChangesReachRenderer(t *testing.T) {
	f := newSessionFixture(t, &scriptedSender{})
	f.addTee(t, 2)

	removed, err := f.session.RemoveItem(context.Background(), "essential-tee", "", "")
	require.NoError(t, err)
	assert.True(t, removed)

	assert.Equal(t, []string{"Added to cart!", "Updated quantity in cart!", "Removed from cart!"}, f.renderer.messages())
	require.Len(t, f.renderer.snapshots, 3)
	assert.True(t, f.renderer.snapshots[2].IsEmpty())
}
