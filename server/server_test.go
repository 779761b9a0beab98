package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitwit/solpay/request"
	"github.com/vitwit/solpay/types"
)

// stubService fakes the core so the boundary can be tested alone.
type stubService struct {
	buildResult *types.BuildResult
	buildErr    error
	lastReq     *types.PaymentRequest
}

func (s *stubService) BuildTransaction(ctx context.Context, req *types.PaymentRequest) (*types.BuildResult, error) {
	s.lastReq = req
	if s.buildErr != nil {
		return nil, s.buildErr
	}
	return s.buildResult, nil
}

func (s *stubService) NewPaymentRequest(amount string) (*request.PaymentRequest, error) {
	if amount == "" {
		return nil, types.NewValidationError("no amount provided")
	}
	return &request.PaymentRequest{
		Reference: "11111111111111111111111111111111",
		URL:       "solana:https%3A%2F%2Fshop.example.com%2Fapi%2Fpay",
		QRCode:    "data:image/png;base64,xxxx",
	}, nil
}

func (s *stubService) MerchantInfo() types.MerchantInfo {
	return types.MerchantInfo{
		Label: "Buy some tokens",
		Icon:  "https://cryptologos.cc/logos/solana-sol-logo.png",
	}
}

func newTestServer(svc *stubService) *Server {
	return New(svc, &types.Config{
		ListenAddr: ":0",
		Label:      "Buy some tokens",
	}, nil)
}

func TestMerchantInfoEndpoint(t *testing.T) {
	srv := newTestServer(&stubService{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/pay", nil)
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var info types.MerchantInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
	assert.Equal(t, "Buy some tokens", info.Label)
	assert.NotEmpty(t, info.Icon)
}

func TestMakeTransactionSuccess(t *testing.T) {
	svc := &stubService{
		buildResult: &types.BuildResult{
			Transaction: "dHJhbnNhY3Rpb24=",
			Message:     "Buying 5 tokens",
		},
	}
	srv := newTestServer(svc)

	body := bytes.NewBufferString(`{"account":"FW79xRL1yks1Y9bD8NSB888YGRmyEq4SCMYhFodHLWh9"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/pay?amount=5&reference=ref123", body)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var res types.BuildResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, "dHJhbnNhY3Rpb24=", res.Transaction)
	assert.Equal(t, "Buying 5 tokens", res.Message)

	// Query parameters and body are forwarded unchanged to the builder.
	require.NotNil(t, svc.lastReq)
	assert.Equal(t, "5", svc.lastReq.Amount)
	assert.Equal(t, "ref123", svc.lastReq.Reference)
	assert.Equal(t, "FW79xRL1yks1Y9bD8NSB888YGRmyEq4SCMYhFodHLWh9", svc.lastReq.Account)
}

func TestMakeTransactionErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantBody   string
	}{
		{
			name:       "validation error is 400 with reason",
			err:        types.NewValidationError("no reference provided"),
			wantStatus: http.StatusBadRequest,
			wantBody:   "no reference provided",
		},
		{
			name:       "retryable chain failure is 503 and opaque",
			err:        &types.Error{Code: types.ErrAnchorUnavailable, Message: "blockhash fetch failed"},
			wantStatus: http.StatusServiceUnavailable,
			wantBody:   "error creating transaction",
		},
		{
			name:       "missing merchant account is 500 and opaque",
			err:        &types.Error{Code: types.ErrMissingMerchantAccount, Message: "merchant token account does not exist"},
			wantStatus: http.StatusInternalServerError,
			wantBody:   "error creating transaction",
		},
		{
			name:       "untyped error is 500 and opaque",
			err:        assert.AnError,
			wantStatus: http.StatusInternalServerError,
			wantBody:   "error creating transaction",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(&stubService{buildErr: tt.err})

			body := bytes.NewBufferString(`{"account":"abc"}`)
			req := httptest.NewRequest(http.MethodPost, "/api/pay?amount=5&reference=r", body)
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()
			srv.Handler().ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)

			var payload map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
			assert.Contains(t, payload["error"], tt.wantBody)

			// Internal detail never leaks on 5xx responses.
			if tt.wantStatus >= 500 {
				assert.NotContains(t, rec.Body.String(), "blockhash")
				assert.NotContains(t, rec.Body.String(), "merchant token account")
			}
		})
	}
}

func TestNewPaymentEndpoint(t *testing.T) {
	srv := newTestServer(&stubService{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/pay/new?amount=5", nil)
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var pr request.PaymentRequest
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pr))
	assert.NotEmpty(t, pr.Reference)
	assert.NotEmpty(t, pr.URL)
	assert.NotEmpty(t, pr.QRCode)
}

func TestNewPaymentMissingAmount(t *testing.T) {
	srv := newTestServer(&stubService{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/pay/new", nil)
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "no amount provided")
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(&stubService{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}
