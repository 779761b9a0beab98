// Package solpay implements the merchant side of a Solana Pay
// request-to-pay flow: it encodes scannable payment-request URLs and
// builds, partially signs, and serializes the transaction a wallet
// fetches for co-signing.
package solpay

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/vitwit/solpay/builder"
	"github.com/vitwit/solpay/clients"
	"github.com/vitwit/solpay/logger"
	"github.com/vitwit/solpay/metrics"
	"github.com/vitwit/solpay/request"
	"github.com/vitwit/solpay/signer"
	"github.com/vitwit/solpay/types"
	"github.com/vitwit/solpay/utils"
)

// SolPay wires the signing key, chain accessor and transaction builder
// for one merchant configuration. Instances are safe for concurrent use.
type SolPay struct {
	cfg     *types.Config
	chain   clients.ChainClient
	signer  signer.Signer
	builder *builder.Builder
	log     logger.Logger
	metrics metrics.Recorder
	timeout time.Duration
}

// New constructs a SolPay instance from an explicit configuration.
func New(cfg *types.Config, opts ...Option) (*SolPay, error) {
	if cfg == nil {
		return nil, &types.Error{Code: types.ErrConfigError, Message: "configuration is required"}
	}

	s := &SolPay{
		cfg:     cfg,
		log:     logger.NoopLogger{},
		metrics: metrics.NoopRecorder{},
		timeout: cfg.Timeout,
	}
	if s.timeout <= 0 {
		s.timeout = types.DefaultTimeout
	}
	for _, opt := range opts {
		opt(s)
	}

	sgn, err := signer.NewLocalSigner(cfg.MerchantKey)
	if err != nil {
		return nil, err
	}
	s.signer = sgn

	mint, err := cfg.MintKey()
	if err != nil {
		return nil, err
	}

	chain, err := clients.NewSolanaClient(cfg, sgn, s.log)
	if err != nil {
		return nil, err
	}
	s.chain = chain

	s.builder = builder.New(
		chain,
		sgn,
		mint,
		cfg.MintDecimals,
		builder.WithLogger(s.log),
		builder.WithMetrics(s.metrics),
	)

	return s, nil
}

// BuildTransaction assembles and partially signs the payment transaction
// for one (amount, reference, payer) triple.
func (s *SolPay) BuildTransaction(ctx context.Context, req *types.PaymentRequest) (*types.BuildResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.builder.Build(ctx, req)
}

// NewPaymentRequest creates a fresh payment attempt: a single-use
// reference, the solana: URL a wallet resolves into a transaction fetch,
// and a QR rendering of that URL.
func (s *SolPay) NewPaymentRequest(amount string) (*request.PaymentRequest, error) {
	if _, err := utils.ValidateAmount(amount); err != nil {
		return nil, err
	}

	reference, err := request.NewReference()
	if err != nil {
		return nil, err
	}

	link, err := url.Parse(strings.TrimRight(s.cfg.BaseURL, "/") + "/api/pay")
	if err != nil {
		return nil, &types.Error{
			Code:    types.ErrInvalidEndpoint,
			Message: "invalid base url",
			Err:     err,
		}
	}
	q := link.Query()
	q.Set("amount", amount)
	q.Set("reference", reference.String())
	link.RawQuery = q.Encode()

	encoded, err := request.EncodeURL(request.URLParams{
		Link:    link,
		Label:   s.cfg.Label,
		Message: s.cfg.Message,
	})
	if err != nil {
		return nil, err
	}

	qr, err := request.QRCodeDataURL(encoded, 256)
	if err != nil {
		return nil, err
	}

	s.log.Info("payment request created", map[string]any{
		"amount":    amount,
		"reference": reference.String(),
	})

	return &request.PaymentRequest{
		Reference: reference.String(),
		URL:       encoded,
		QRCode:    qr,
	}, nil
}

// MerchantInfo returns the wallet-facing merchant descriptor.
func (s *SolPay) MerchantInfo() types.MerchantInfo {
	return types.MerchantInfo{
		Label: s.cfg.Label,
		Icon:  s.cfg.Icon,
	}
}

// Close releases the chain client.
func (s *SolPay) Close() {
	if s.chain != nil {
		s.chain.Close()
	}
}
