package orderapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	pkgerrors "github.com/aurevo/storefront/pkg/errors"
	"github.com/sony/gobreaker/v2"
)

const (
	// the order endpoint takes the JSON document as a plain-text body
	contentType = "text/plain;charset=utf-8"

	responseBodyReadLimit int64 = 64 << 10

	defaultConsecutiveFailures uint32 = 6
	defaultOpenTimeout                = 30 * time.Second

	msgUnsuccessful = "Server returned unsuccessful response"
	msgUnexpected   = "Unexpected response from server"
	msgTimeout      = "Request timed out"
	msgBreakerOpen  = "Order service is temporarily unavailable"
)

var (
	errEndpointRequired = errors.New("order endpoint url is required")

	// ErrRejected marks a response the endpoint delivered but classified as unsuccessful.
	ErrRejected = errors.New("order rejected by endpoint")
)

// Result is a successful delivery as reported by the order endpoint.
type Result struct {
	OrderID    string
	Message    string
	StatusCode int
}

// BreakerState mirrors gobreaker states as plain ints for metrics.
type BreakerState int

const (
	BreakerClosed   BreakerState = BreakerState(gobreaker.StateClosed)
	BreakerHalfOpen BreakerState = BreakerState(gobreaker.StateHalfOpen)
	BreakerOpen     BreakerState = BreakerState(gobreaker.StateOpen)
)

func (s BreakerState) String() string {
	return gobreaker.State(s).String()
}

// Client posts assembled orders to the remote order endpoint.
type Client struct {
	httpClient  *http.Client
	endpoint    string
	breaker     *gobreaker.CircuitBreaker[*Result]
	failures    uint32
	openTimeout time.Duration
	onState     func(from, to BreakerState)
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBreaker tunes when the circuit opens and how long it stays open.
func WithBreaker(consecutiveFailures uint32, openTimeout time.Duration) Option {
	return func(c *Client) {
		if consecutiveFailures > 0 {
			c.failures = consecutiveFailures
		}
		if openTimeout > 0 {
			c.openTimeout = openTimeout
		}
	}
}

// WithStateListener registers a hook invoked on every breaker transition.
func WithStateListener(fn func(from, to BreakerState)) Option {
	return func(c *Client) {
		c.onState = fn
	}
}

// NewClient builds the order endpoint client.
func NewClient(endpoint string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimSpace(endpoint)
	if trimmed == "" {
		return nil, errEndpointRequired
	}
	if _, err := url.ParseRequestURI(trimmed); err != nil {
		return nil, fmt.Errorf("invalid order endpoint url: %w", err)
	}

	client := &Client{
		endpoint: trimmed,
		// per-attempt deadlines come from the caller's context
		httpClient:  &http.Client{},
		failures:    defaultConsecutiveFailures,
		openTimeout: defaultOpenTimeout,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}

	if client.httpClient == nil {
		client.httpClient = &http.Client{}
	}

	failures := client.failures
	client.breaker = gobreaker.NewCircuitBreaker[*Result](gobreaker.Settings{
		Name:    "order-endpoint",
		Timeout: client.openTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		IsSuccessful: func(err error) bool {
			// a rejection proves the endpoint is reachable
			return err == nil || errors.Is(err, ErrRejected)
		},
		IsExcluded: func(err error) bool {
			return errors.Is(err, context.Canceled)
		},
		OnStateChange: func(_ string, from, to gobreaker.State) {
			if client.onState != nil {
				client.onState(BreakerState(from), BreakerState(to))
			}
		},
	})

	return client, nil
}

// Send delivers one order document. Every failure is returned as a typed
// dependency error whose message is suitable for the shopper.
func (c *Client) Send(ctx context.Context, payload any) (*Result, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "order endpoint client not configured")
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marshal order payload")
	}

	result, err := c.breaker.Execute(func() (*Result, error) {
		return c.post(ctx, body)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, msgBreakerOpen)
		}
		return nil, err
	}
	return result, nil
}

// State reports the current breaker state.
func (c *Client) State() BreakerState {
	if c == nil || c.breaker == nil {
		return BreakerClosed
	}
	return BreakerState(c.breaker.State())
}

func (c *Client) post(ctx context.Context, body []byte) (*Result, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build order request")
	}
	httpReq.Header.Set("Content-Type", contentType)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, msgTimeout)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, err.Error())
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, msgTimeout)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read order response")
	}

	return Classify(resp.StatusCode, http.StatusText(resp.StatusCode), raw)
}

// Classify turns a raw endpoint response into a result or a shopper-facing error.
func Classify(status int, statusText string, body []byte) (*Result, error) {
	if status < 200 || status > 299 {
		msg := fmt.Sprintf("HTTP %d: %s", status, statusText)
		return nil, pkgerrors.New(pkgerrors.CodeDependency, msg).WithDetails(map[string]any{"status": status})
	}

	var parsed any
	if err := json.Unmarshal(body, &parsed); err != nil {
		text := strings.TrimSpace(string(body))
		if strings.Contains(strings.ToLower(text), "success") {
			return &Result{StatusCode: status, Message: text}, nil
		}
		if text == "" {
			text = msgUnexpected
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, ErrRejected, text)
	}

	// structured bodies must be an object with success: true
	doc, _ := parsed.(map[string]any)
	if ok, _ := doc["success"].(bool); ok {
		return &Result{
			StatusCode: status,
			OrderID:    firstString(doc, "orderId", "orderID", "order_id"),
			Message:    firstString(doc, "message"),
		}, nil
	}

	msg := firstString(doc, "message", "error")
	if msg == "" {
		msg = msgUnsuccessful
	}
	return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, ErrRejected, msg)
}

// FailureMessage extracts the shopper-facing message from a Send error.
func FailureMessage(err error) string {
	if err == nil {
		return ""
	}
	if typed := pkgerrors.As(err); typed != nil && typed.Message() != "" {
		return typed.Message()
	}
	return err.Error()
}

func firstString(doc map[string]any, keys ...string) string {
	for _, key := range keys {
		if value, ok := doc[key].(string); ok && strings.TrimSpace(value) != "" {
			return strings.TrimSpace(value)
		}
	}
	return ""
}
