package checkout

import (
	"context"
	"fmt"
	"sync"

	"github.com/aurevo/storefront/internal/cart"
	"github.com/aurevo/storefront/pkg/enums"
	pkgerrors "github.com/aurevo/storefront/pkg/errors"
	"github.com/aurevo/storefront/pkg/logger"
)

// ErrSubmissionInProgress rejects a checkout or cart change while an order is in flight.
var ErrSubmissionInProgress = pkgerrors.New(pkgerrors.CodeConflict, "An order is already being submitted")

const (
	msgEmptyCart      = "Your cart is empty"
	msgFixForm        = "Please correct the form errors before submitting."
	msgVerifyPin      = "Please verify your PIN code for delivery."
	msgAcceptTerms    = "Please accept the Terms & Conditions to continue."
	msgOrderPlaced    = "Order placed successfully!"
	msgTermsAccepted  = "Terms & Conditions accepted!"
	msgSubmitFallback = "Order submission failed. Please try again."
)

// Renderer is the one-way rendering collaborator. Calls happen synchronously
// and must not call back into the Session.
type Renderer interface {
	OnCartChanged(ctx context.Context, snapshot cart.Snapshot)
	OnValidationChanged(ctx context.Context, result ValidationResult)
	OnSubmissionStateChanged(ctx context.Context, state enums.SubmissionState)
	Notify(ctx context.Context, message string, severity enums.Severity)
}

// StatusUpdate is the terminal information written back to the ledger.
type StatusUpdate struct {
	Status        enums.OrderStatus
	ServerOrderID string
	FailureReason string
	Attempts      int
}

// Ledger keeps a local record of every submitted order.
type Ledger interface {
	Create(ctx context.Context, sessionID string, order OrderRecord) error
	UpdateStatus(ctx context.Context, orderID string, update StatusUpdate) error
}

// RejectionRecorder counts checkouts stopped before the network.
type RejectionRecorder interface {
	IncRejection(reason string)
}

// CheckoutResult is returned for every checkout that reached the network.
type CheckoutResult struct {
	Order          OrderRecord `json:"order"`
	Outcome        Outcome     `json:"outcome"`
	DisplayOrderID string      `json:"displayOrderId"`
}

// SessionParams wires a Session.
type SessionParams struct {
	ID        string
	Cart      *cart.Model
	Validator *Validator
	Assembler *Assembler
	Submitter *Submitter
	Ledger    Ledger
	Renderer  Renderer
	Metrics   RejectionRecorder
	Logger    *logger.Logger
}

// Session is one shopper's checkout flow bound to their cart. All methods are
// safe for concurrent use; the network submission runs without holding the lock.
type Session struct {
	id        string
	cart      *cart.Model
	validator *Validator
	assembler *Assembler
	submitter *Submitter
	ledger    Ledger
	renderer  Renderer
	metrics   RejectionRecorder
	logg      *logger.Logger

	mu            sync.Mutex
	state         enums.SubmissionState
	pinValid      bool
	termsAccepted bool
}

func NewSession(params SessionParams) (*Session, error) {
	if params.Cart == nil {
		return nil, fmt.Errorf("cart model required")
	}
	if params.Validator == nil {
		return nil, fmt.Errorf("validator required")
	}
	if params.Assembler == nil {
		return nil, fmt.Errorf("assembler required")
	}
	if params.Submitter == nil {
		return nil, fmt.Errorf("submitter required")
	}
	s := &Session{
		id:        params.ID,
		cart:      params.Cart,
		validator: params.Validator,
		assembler: params.Assembler,
		submitter: params.Submitter,
		ledger:    params.Ledger,
		renderer:  params.Renderer,
		metrics:   params.Metrics,
		logg:      params.Logger,
		state:     enums.SubmissionStateIdle,
	}
	if s.renderer == nil {
		s.renderer = nopRenderer{}
	}
	if s.metrics == nil {
		s.metrics = nopRejections{}
	}
	if s.logg == nil {
		s.logg = logger.Nop()
	}
	s.cart.Subscribe(s.onCartChange)
	return s, nil
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) State() enums.SubmissionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) Snapshot() cart.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.Snapshot()
}

func (s *Session) AddItem(ctx context.Context, productID string, attrs *cart.Attributes) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == enums.SubmissionStateSubmitting {
		return ErrSubmissionInProgress
	}
	if err := s.cart.AddItem(ctx, productID, attrs); err != nil {
		s.renderer.Notify(ctx, messageOf(err), enums.SeverityError)
		return err
	}
	return nil
}

func (s *Session) RemoveItem(ctx context.Context, productID, size, color string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == enums.SubmissionStateSubmitting {
		return false, ErrSubmissionInProgress
	}
	return s.cart.RemoveItem(ctx, productID, size, color), nil
}

func (s *Session) SetQuantity(ctx context.Context, identity cart.Identity, quantity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == enums.SubmissionStateSubmitting {
		return ErrSubmissionInProgress
	}
	return s.cart.SetQuantity(ctx, identity, quantity)
}

func (s *Session) ClearCart(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == enums.SubmissionStateSubmitting {
		return ErrSubmissionInProgress
	}
	s.cart.Clear(ctx)
	return nil
}

// Validate runs the field rules and reports the result to the renderer.
func (s *Session) Validate(ctx context.Context, form FormFields) ValidationResult {
	result := s.validator.Validate(form)
	s.renderer.OnValidationChanged(ctx, result)
	return result
}

// CheckPin runs the deliverability check and remembers the verdict.
func (s *Session) CheckPin(ctx context.Context, pin string) PinStatus {
	status := s.validator.CheckPin(pin)
	s.mu.Lock()
	s.pinValid = status.Valid
	s.mu.Unlock()
	return status
}

func (s *Session) AcceptTerms(ctx context.Context) {
	s.mu.Lock()
	s.termsAccepted = true
	s.mu.Unlock()
	s.renderer.Notify(ctx, msgTermsAccepted, enums.SeveritySuccess)
}

// Readiness reports whether form can be submitted and the place-order label.
func (s *Session) Readiness(form FormFields) (bool, SubmitLabel) {
	s.mu.Lock()
	pinValid := s.pinValid
	if s.termsAccepted {
		form.TermsAccepted = true
	}
	s.mu.Unlock()
	return s.validator.CanSubmit(form, s.validator.Validate(form), pinValid)
}

// Checkout validates, assembles and submits the current cart. Rejections are
// returned as errors and never reach the network; every submitted order yields
// a result whose Outcome carries success or the final failure reason.
func (s *Session) Checkout(ctx context.Context, form FormFields) (*CheckoutResult, error) {
	ctx = s.logg.WithSessionID(ctx, s.id)

	order, err := s.prepare(ctx, form)
	if err != nil {
		return nil, err
	}
	ctx = s.logg.WithOrderID(ctx, order.OrderID)

	if s.ledger != nil {
		if err := s.ledger.Create(ctx, s.id, order); err != nil {
			s.logg.Error(ctx, "recording pending order failed", err)
		}
	}

	// once submitted, the shopper leaving does not cancel the order
	outcome := s.submitter.Submit(context.WithoutCancel(ctx), order)

	return s.finish(ctx, order, outcome), nil
}

func (s *Session) prepare(ctx context.Context, form FormFields) (OrderRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == enums.SubmissionStateSubmitting {
		return OrderRecord{}, ErrSubmissionInProgress
	}
	if s.cart.IsEmpty() {
		s.metrics.IncRejection("empty_cart")
		s.renderer.Notify(ctx, msgEmptyCart, enums.SeverityError)
		return OrderRecord{}, pkgerrors.New(pkgerrors.CodeValidation, msgEmptyCart)
	}

	s.setState(ctx, enums.SubmissionStateValidating)

	if s.termsAccepted {
		form.TermsAccepted = true
	}
	result := s.validator.Validate(form)
	s.renderer.OnValidationChanged(ctx, result)
	pin := s.validator.CheckPin(form.PinCode)
	s.pinValid = pin.Valid

	if ok, label := s.validator.CanSubmit(form, result, pin.Valid); !ok {
		msg, reason := msgFixForm, "validation"
		switch {
		case !result.Valid:
		case !pin.Valid:
			msg, reason = msgVerifyPin, "pin"
		default:
			msg, reason = msgAcceptTerms, "terms"
		}
		s.metrics.IncRejection(reason)
		s.setState(ctx, enums.SubmissionStateIdle)
		s.renderer.Notify(ctx, msg, enums.SeverityError)
		return OrderRecord{}, pkgerrors.New(pkgerrors.CodeValidation, msg).WithDetails(map[string]any{
			"fields": result.Errors,
			"pin":    pin,
			"label":  label,
		})
	}

	order := s.assembler.Assemble(s.cart.Snapshot(), form)
	s.setState(ctx, enums.SubmissionStateSubmitting)
	return order, nil
}

func (s *Session) finish(ctx context.Context, order OrderRecord, outcome Outcome) *CheckoutResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	update := StatusUpdate{Attempts: outcome.Attempts, ServerOrderID: outcome.ServerOrderID}
	result := &CheckoutResult{Order: order, Outcome: outcome}

	if outcome.Success {
		s.cart.Clear(ctx)
		order.Status = enums.OrderStatusConfirmed
		update.Status = enums.OrderStatusConfirmed
		result.DisplayOrderID = order.OrderID
		if outcome.ServerOrderID != "" {
			result.DisplayOrderID = outcome.ServerOrderID
		}
		s.pinValid = false
		s.termsAccepted = false
		s.setState(ctx, enums.SubmissionStateSuccess)
		s.renderer.Notify(ctx, msgOrderPlaced, enums.SeveritySuccess)
	} else {
		order.Status = enums.OrderStatusFailed
		update.Status = enums.OrderStatusFailed
		update.FailureReason = outcome.Reason
		s.setState(ctx, enums.SubmissionStateFailure)
		reason := outcome.Reason
		if reason == "" {
			reason = msgSubmitFallback
		}
		s.renderer.Notify(ctx, reason, enums.SeverityError)
	}
	result.Order = order

	if s.ledger != nil {
		if err := s.ledger.UpdateStatus(ctx, order.OrderID, update); err != nil {
			s.logg.Error(ctx, "recording order outcome failed", err)
		}
	}
	return result
}

func (s *Session) setState(ctx context.Context, state enums.SubmissionState) {
	s.state = state
	s.renderer.OnSubmissionStateChanged(ctx, state)
}

// onCartChange runs with s.mu held by the mutating method.
func (s *Session) onCartChange(ctx context.Context, change cart.Change) {
	s.renderer.OnCartChanged(ctx, change.Snapshot)
	if s.state == enums.SubmissionStateSubmitting {
		return
	}
	msg := change.Message()
	if msg == "" {
		return
	}
	severity := enums.SeverityInfo
	if change.Op == cart.OpAdd || change.Op == cart.OpQuantity {
		severity = enums.SeveritySuccess
	}
	s.renderer.Notify(ctx, msg, severity)
}

func messageOf(err error) string {
	if typed := pkgerrors.As(err); typed != nil {
		return typed.Message()
	}
	return err.Error()
}

type nopRenderer struct{}

func (nopRenderer) OnCartChanged(context.Context, cart.Snapshot)                    {}
func (nopRenderer) OnValidationChanged(context.Context, ValidationResult)           {}
func (nopRenderer) OnSubmissionStateChanged(context.Context, enums.SubmissionState) {}
func (nopRenderer) Notify(context.Context, string, enums.Severity)                  {}

type nopRejections struct{}

func (nopRejections) IncRejection(string) {}
