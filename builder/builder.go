// Package builder assembles the partially signed payment transaction: a
// native transfer carrying the tracking reference followed by a checked
// token transfer from the merchant, serialized for client co-signing.
package builder

import (
	"context"
	"encoding/base64"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"

	"github.com/vitwit/solpay/clients"
	"github.com/vitwit/solpay/logger"
	"github.com/vitwit/solpay/metrics"
	"github.com/vitwit/solpay/signer"
	"github.com/vitwit/solpay/types"
	"github.com/vitwit/solpay/utils"
)

// Builder is stateless and reentrant: concurrent builds share only the
// read-only chain accessor and signing key.
type Builder struct {
	chain        clients.ChainClient
	signer       signer.Signer
	mint         solana.PublicKey
	mintDecimals uint8
	log          logger.Logger
	metrics      metrics.Recorder
}

type Option func(*Builder)

func WithLogger(l logger.Logger) Option {
	return func(b *Builder) {
		b.log = l
	}
}

func WithMetrics(r metrics.Recorder) Option {
	return func(b *Builder) {
		b.metrics = r
	}
}

// New creates a transaction builder for a single (mint, merchant)
// configuration.
func New(chain clients.ChainClient, sgn signer.Signer, mint solana.PublicKey, mintDecimals uint8, opts ...Option) *Builder {
	b := &Builder{
		chain:        chain,
		signer:       sgn,
		mint:         mint,
		mintDecimals: mintDecimals,
		log:          logger.NoopLogger{},
		metrics:      metrics.NoopRecorder{},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

type buildInputs struct {
	amount     decimal.Decimal
	payer      solana.PublicKey
	reference  solana.PublicKey
	lamports   uint64
	tokenUnits uint64
}

// Build assembles, partially signs and serializes the payment
// transaction. It is idempotent per (amount, reference, payer): repeated
// calls produce byte-identical output for an identical anchor.
func (b *Builder) Build(ctx context.Context, req *types.PaymentRequest) (*types.BuildResult, error) {
	start := time.Now()
	res, err := b.build(ctx, req)

	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	labels := map[string]string{"outcome": outcome}
	b.metrics.IncCounter("build_transaction", labels)
	b.metrics.ObserveLatency("build_transaction", time.Since(start), labels)
	return res, err
}

func (b *Builder) build(ctx context.Context, req *types.PaymentRequest) (*types.BuildResult, error) {
	in, err := b.validate(req)
	if err != nil {
		return nil, err
	}

	b.log.Debug("building payment transaction", map[string]any{
		"amount":    in.amount.String(),
		"reference": in.reference.String(),
		"payer":     in.payer.String(),
	})

	merchant := b.signer.PublicKey()

	payerTokenAccount, err := b.chain.EnsureTokenAccount(ctx, in.payer, b.mint)
	if err != nil {
		return nil, err
	}

	merchantTokenAccount, exists, err := b.chain.TokenAccount(ctx, merchant, b.mint)
	if err != nil {
		return nil, err
	}
	if !exists {
		// Never auto-created: funding it would charge the payer rent they
		// did not consent to.
		return nil, &types.Error{
			Code:    types.ErrMissingMerchantAccount,
			Message: "merchant token account does not exist",
		}
	}

	anchor, err := b.chain.LatestAnchor(ctx)
	if err != nil {
		return nil, err
	}

	transferIx, err := nativeTransfer(in.payer, merchant, in.reference, in.lamports)
	if err != nil {
		return nil, err
	}
	tokenIx := tokenTransfer(merchantTokenAccount, b.mint, payerTokenAccount, merchant, in.tokenUnits, b.mintDecimals)

	// Instruction order is a correctness invariant: observers locate the
	// payment by the reference on the native transfer.
	tx, err := solana.NewTransaction(
		[]solana.Instruction{transferIx, tokenIx},
		anchor.Blockhash,
		solana.TransactionPayer(in.payer),
	)
	if err != nil {
		return nil, &types.Error{
			Code:    types.ErrConfigError,
			Message: "failed to assemble transaction",
			Err:     err,
		}
	}

	// The merchant slot is filled here; the payer slot stays zeroed until
	// the wallet co-signs.
	if err := b.signer.SignTransaction(tx); err != nil {
		return nil, err
	}

	raw, err := tx.MarshalBinary()
	if err != nil {
		return nil, &types.Error{
			Code:    types.ErrSigningError,
			Message: "failed to serialize transaction",
			Err:     err,
		}
	}

	return &types.BuildResult{
		Transaction: base64.StdEncoding.EncodeToString(raw),
		Message:     purchaseMessage(in.amount),
	}, nil
}

// validate rejects malformed inputs and performs the display-to-base unit
// conversion before any chain access, so a failing request has no side
// effects.
func (b *Builder) validate(req *types.PaymentRequest) (*buildInputs, error) {
	if req == nil {
		return nil, types.NewValidationError("request is required")
	}

	amount, err := utils.ValidateAmount(req.Amount)
	if err != nil {
		return nil, err
	}
	reference, err := utils.ValidateAddress("reference", req.Reference)
	if err != nil {
		return nil, err
	}
	payer, err := utils.ValidateAddress("account", req.Account)
	if err != nil {
		return nil, err
	}

	lamports, err := utils.ToBaseUnits(amount, types.NativeDecimals)
	if err != nil {
		return nil, err
	}
	tokenUnits, err := utils.ToBaseUnits(amount, b.mintDecimals)
	if err != nil {
		return nil, err
	}

	return &buildInputs{
		amount:     amount,
		payer:      payer,
		reference:  reference,
		lamports:   lamports,
		tokenUnits: tokenUnits,
	}, nil
}

func purchaseMessage(amount decimal.Decimal) string {
	if amount.Equal(decimal.NewFromInt(1)) {
		return "Buying 1 token"
	}
	return "Buying " + amount.String() + " tokens"
}
