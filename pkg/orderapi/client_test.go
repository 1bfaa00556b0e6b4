package orderapi

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	pkgerrors "github.com/aurevo/storefront/pkg/errors"
	"github.com/stretchr/testify/require"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func respond(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     http.Header{},
	}
}

func newTestClient(t *testing.T, rt roundTripFunc, opts ...Option) *Client {
	t.Helper()
	opts = append([]Option{WithHTTPClient(&http.Client{Transport: rt})}, opts...)
	client, err := NewClient("https://orders.example.test/exec", opts...)
	require.NoError(t, err)
	return client
}

func TestSendPostsPlainTextJSON(t *testing.T) {
	var captured *http.Request
	var capturedBody string
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		captured = req
		data, err := io.ReadAll(req.Body)
		require.NoError(t, err)
		capturedBody = string(data)
		return respond(http.StatusOK, `{"success":true,"orderId":"SRV-1"}`), nil
	})

	result, err := client.Send(context.Background(), map[string]any{"name": "Asha", "total": 1299})
	require.NoError(t, err)
	require.Equal(t, "SRV-1", result.OrderID)
	require.Equal(t, http.MethodPost, captured.Method)
	require.Equal(t, "https://orders.example.test/exec", captured.URL.String())
	require.Equal(t, "text/plain;charset=utf-8", captured.Header.Get("Content-Type"))
	require.JSONEq(t, `{"name":"Asha","total":1299}`, capturedBody)
}

func TestClassify(t *testing.T) {
	cases := []struct {
		name    string
		status  int
		body    string
		success bool
		message string
	}{
		{name: "json success", status: 200, body: `{"success":true}`, success: true},
		{name: "json failure with message", status: 200, body: `{"success":false,"message":"Sheet locked"}`, message: "Sheet locked"},
		{name: "json failure with error", status: 200, body: `{"success":false,"error":"quota"}`, message: "quota"},
		{name: "json without flag", status: 200, body: `{"status":"queued"}`, message: "Server returned unsuccessful response"},
		{name: "text mentioning success", status: 200, body: "Order saved: SUCCESS", success: true},
		{name: "json string mentioning success", status: 200, body: `"Order unsuccessful: sheet locked"`, message: "Server returned unsuccessful response"},
		{name: "json array mentioning success", status: 200, body: `["success"]`, message: "Server returned unsuccessful response"},
		{name: "json success flag as string", status: 200, body: `{"success":"true"}`, message: "Server returned unsuccessful response"},
		{name: "text without success", status: 200, body: "try later", message: "try later"},
		{name: "empty text", status: 200, body: "", message: "Unexpected response from server"},
		{name: "server error", status: 500, body: `{"success":true}`, message: "HTTP 500: Internal Server Error"},
		{name: "redirect status", status: 302, body: "success", message: "HTTP 302: Found"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result, err := Classify(tc.status, http.StatusText(tc.status), []byte(tc.body))
			if tc.success {
				require.NoError(t, err)
				require.NotNil(t, result)
				return
			}
			require.Error(t, err)
			require.Nil(t, result)
			require.Equal(t, tc.message, FailureMessage(err))
			require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))
		})
	}
}

func TestSendTimeoutIsReported(t *testing.T) {
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		<-req.Context().Done()
		return nil, req.Context().Err()
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := client.Send(ctx, map[string]any{})
	require.Error(t, err)
	require.Equal(t, "Request timed out", FailureMessage(err))
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	calls := 0
	var transitions []BreakerState
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		calls++
		return respond(http.StatusBadGateway, ""), nil
	}, WithBreaker(2, time.Minute), WithStateListener(func(_, to BreakerState) {
		transitions = append(transitions, to)
	}))

	for i := 0; i < 2; i++ {
		_, err := client.Send(context.Background(), map[string]any{})
		require.Error(t, err)
	}
	require.Equal(t, BreakerOpen, client.State())
	require.Equal(t, []BreakerState{BreakerOpen}, transitions)

	_, err := client.Send(context.Background(), map[string]any{})
	require.Error(t, err)
	require.Equal(t, "Order service is temporarily unavailable", FailureMessage(err))
	require.Equal(t, 2, calls, "open breaker must short-circuit the request")
}

func TestRejectionsDoNotTripBreaker(t *testing.T) {
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		return respond(http.StatusOK, `{"success":false,"message":"duplicate"}`), nil
	}, WithBreaker(1, time.Minute))

	for i := 0; i < 3; i++ {
		_, err := client.Send(context.Background(), map[string]any{})
		require.Error(t, err)
		require.True(t, errors.Is(err, ErrRejected))
	}
	require.Equal(t, BreakerClosed, client.State())
}

func TestNewClientValidatesEndpoint(t *testing.T) {
	_, err := NewClient("  ")
	require.Error(t, err)

	_, err = NewClient("not a url")
	require.Error(t, err)

	var nilClient *Client
	_, err = nilClient.Send(context.Background(), nil)
	require.Error(t, err)
}
