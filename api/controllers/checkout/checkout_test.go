package checkout

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aurevo/storefront/api/middleware"
	"github.com/aurevo/storefront/internal/catalog"
	checkoutsvc "github.com/aurevo/storefront/internal/checkout"
	"github.com/aurevo/storefront/internal/sessions"
	"github.com/aurevo/storefront/internal/storage"
	pkgerrors "github.com/aurevo/storefront/pkg/errors"
	"github.com/aurevo/storefront/pkg/orderapi"
)

const validForm = `{
	"fullName": "Riya Sen",
	"email": "riya@example.com",
	"mobile": "98765 43210",
	"address": "12 Hill Cart Road",
	"city": "Jalpaiguri",
	"state": "West Bengal",
	"pincode": "735101",
	"termsAccepted": true
}`

type stubSender struct {
	err   error
	calls int
}

func (s *stubSender) Send(context.Context, any) (*orderapi.Result, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &orderapi.Result{StatusCode: http.StatusOK, OrderID: "SRV-42"}, nil
}

type noSleep struct{}

func (noSleep) Sleep(context.Context, time.Duration) error { return nil }

func newTestHandle(t *testing.T, sender checkoutsvc.Sender) *sessions.Handle {
	t.Helper()
	validator, err := checkoutsvc.NewValidator(checkoutsvc.ValidatorConfig{ValidPINs: []string{"735101"}, DeliveryLocation: "Jalpaiguri"})
	require.NoError(t, err)
	submitter, err := checkoutsvc.NewSubmitter(checkoutsvc.SubmitterParams{Sender: sender, Sleeper: noSleep{}, MaxRetries: 2})
	require.NoError(t, err)
	registry, err := sessions.NewRegistry(sessions.Params{
		Store:     storage.NewStore(storage.NewMemoryBackend(), nil),
		Validator: validator,
		Assembler: checkoutsvc.NewAssembler(checkoutsvc.AssemblerConfig{}),
		Submitter: submitter,
	})
	require.NoError(t, err)
	handle, err := registry.Get(context.Background(), sessions.NewID())
	require.NoError(t, err)
	return handle
}

func addProduct(t *testing.T, handle *sessions.Handle) {
	t.Helper()
	attrs, ok := catalog.Default().Attributes("essential-tee")
	require.True(t, ok)
	require.NoError(t, handle.Session.AddItem(context.Background(), "essential-tee", attrs))
}

func serve(handler http.Handler, handle *sessions.Handle, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(body))
	req = req.WithContext(middleware.WithSession(req.Context(), handle))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	return resp
}

func TestCheckoutSubmitSuccess(t *testing.T) {
	sender := &stubSender{}
	handle := newTestHandle(t, sender)
	addProduct(t, handle)

	resp := serve(CheckoutSubmit(nil), handle, validForm)
	require.Equal(t, http.StatusCreated, resp.Code)

	var envelope struct {
		Data ConfirmationView `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	assert.Equal(t, "SRV-42", envelope.Data.DisplayOrderID)
	assert.Equal(t, 1, envelope.Data.Attempts)
	assert.Equal(t, "Riya Sen", envelope.Data.Order.Customer.Name)
	assert.True(t, handle.Session.Snapshot().IsEmpty())
	assert.Equal(t, 1, sender.calls)
}

func TestCheckoutSubmitDeliveryFailure(t *testing.T) {
	sender := &stubSender{err: pkgerrors.New(pkgerrors.CodeDependency, "HTTP 502: Bad Gateway")}
	handle := newTestHandle(t, sender)
	addProduct(t, handle)

	resp := serve(CheckoutSubmit(nil), handle, validForm)
	require.Equal(t, http.StatusServiceUnavailable, resp.Code)

	var envelope struct {
		Error struct {
			Code    string         `json:"code"`
			Message string         `json:"message"`
			Details map[string]any `json:"details"`
		} `json:"error"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	assert.Equal(t, string(pkgerrors.CodeDependency), envelope.Error.Code)
	assert.Equal(t, "HTTP 502: Bad Gateway", envelope.Error.Message)
	assert.EqualValues(t, 2, envelope.Error.Details["attempts"])
	assert.False(t, handle.Session.Snapshot().IsEmpty())
	assert.Equal(t, 2, sender.calls)
}

func TestCheckoutSubmitRejectsInvalidForm(t *testing.T) {
	sender := &stubSender{}
	handle := newTestHandle(t, sender)
	addProduct(t, handle)

	resp := serve(CheckoutSubmit(nil), handle, `{"fullName":"Riya Sen","pincode":"123456","termsAccepted":true}`)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Zero(t, sender.calls)
}

func TestCheckoutSubmitRejectsUnknownFields(t *testing.T) {
	handle := newTestHandle(t, &stubSender{})
	resp := serve(CheckoutSubmit(nil), handle, `{"coupon":"FREE"}`)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestCheckoutPin(t *testing.T) {
	handle := newTestHandle(t, &stubSender{})

	resp := serve(CheckoutPin(nil), handle, `{"pincode":"735101"}`)
	require.Equal(t, http.StatusOK, resp.Code)
	var envelope struct {
		Data checkoutsvc.PinStatus `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	assert.True(t, envelope.Data.Valid)

	resp = serve(CheckoutPin(nil), handle, `{"pincode":"700001"}`)
	require.Equal(t, http.StatusOK, resp.Code)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	assert.False(t, envelope.Data.Valid)
	assert.NotEmpty(t, envelope.Data.Message)
}

func TestCheckoutValidateReportsReadiness(t *testing.T) {
	handle := newTestHandle(t, &stubSender{})
	addProduct(t, handle)
	serve(CheckoutPin(nil), handle, `{"pincode":"735101"}`)

	resp := serve(CheckoutValidate(nil), handle, validForm)
	require.Equal(t, http.StatusOK, resp.Code)

	var envelope struct {
		Data ValidationView `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	assert.True(t, envelope.Data.Validation.Valid)
	assert.True(t, envelope.Data.Ready)
}

func TestCheckoutAcceptTerms(t *testing.T) {
	handle := newTestHandle(t, &stubSender{})
	resp := serve(CheckoutAcceptTerms(nil), handle, "")
	assert.Equal(t, http.StatusNoContent, resp.Code)
}
