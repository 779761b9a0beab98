package clients

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gagliardetto/solana-go"
	associatedtokenaccount "github.com/gagliardetto/solana-go/programs/associated-token-account"
	"github.com/gagliardetto/solana-go/rpc"

	"github.com/vitwit/solpay/logger"
	"github.com/vitwit/solpay/signer"
	"github.com/vitwit/solpay/types"
)

// SolanaClient implements ChainClient over JSON-RPC. Reads are retried
// with bounded exponential backoff; the only write (associated token
// account creation) is funded and signed by the merchant key and treats
// concurrent duplicate creation as success.
type SolanaClient struct {
	network types.Network
	rpcURL  string
	client  *rpc.Client
	funder  signer.Signer
	timeout time.Duration
	retries uint64
	log     logger.Logger
}

var _ ChainClient = (*SolanaClient)(nil)

// NewSolanaClient creates a chain accessor for the configured cluster.
// The funder signs and pays for token account creation.
func NewSolanaClient(cfg *types.Config, funder signer.Signer, log logger.Logger) (*SolanaClient, error) {
	if cfg.RPCURL == "" {
		return nil, &types.Error{Code: types.ErrConfigError, Message: "rpc url is not configured"}
	}
	if funder == nil {
		return nil, &types.Error{Code: types.ErrConfigError, Message: "funder signer is required"}
	}
	if log == nil {
		log = logger.NoopLogger{}
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = types.DefaultTimeout
	}
	retries := cfg.RetryCount
	if retries <= 0 {
		retries = types.DefaultRetryCount
	}
	return &SolanaClient{
		network: cfg.Network,
		rpcURL:  cfg.RPCURL,
		client:  rpc.New(cfg.RPCURL),
		funder:  funder,
		timeout: timeout,
		retries: uint64(retries),
		log:     log,
	}, nil
}

// LatestAnchor fetches the most recent finalized blockhash.
func (c *SolanaClient) LatestAnchor(ctx context.Context) (types.Anchor, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var anchor types.Anchor
	err := c.retry(ctx, func() error {
		out, err := c.client.GetLatestBlockhash(ctx, rpc.CommitmentFinalized)
		if err != nil {
			return err
		}
		anchor = types.Anchor{
			Blockhash:            out.Value.Blockhash,
			LastValidBlockHeight: out.Value.LastValidBlockHeight,
		}
		return nil
	})
	if err != nil {
		return types.Anchor{}, &types.Error{
			Code:    types.ErrAnchorUnavailable,
			Message: "failed to fetch recent blockhash",
			Err:     err,
		}
	}
	return anchor, nil
}

// TokenAccount derives the associated token account for (owner, mint) and
// reports whether it exists on chain.
func (c *SolanaClient) TokenAccount(ctx context.Context, owner, mint solana.PublicKey) (solana.PublicKey, bool, error) {
	ata, _, err := solana.FindAssociatedTokenAddress(owner, mint)
	if err != nil {
		return solana.PublicKey{}, false, &types.Error{
			Code:    types.ErrConfigError,
			Message: "failed to derive associated token account",
			Err:     err,
		}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	exists := false
	err = c.retry(ctx, func() error {
		_, err := c.client.GetAccountInfo(ctx, ata)
		if errors.Is(err, rpc.ErrNotFound) {
			exists = false
			return nil
		}
		if err != nil {
			return err
		}
		exists = true
		return nil
	})
	if err != nil {
		return solana.PublicKey{}, false, &types.Error{
			Code:    types.ErrNetworkError,
			Message: "failed to look up token account",
			Err:     err,
		}
	}
	return ata, exists, nil
}

// EnsureTokenAccount resolves the associated token account for
// (owner, mint), creating it with the funder's key if it does not exist.
func (c *SolanaClient) EnsureTokenAccount(ctx context.Context, owner, mint solana.PublicKey) (solana.PublicKey, error) {
	ata, exists, err := c.TokenAccount(ctx, owner, mint)
	if err != nil {
		return solana.PublicKey{}, err
	}
	if exists {
		return ata, nil
	}

	c.log.Info("creating token account", map[string]any{
		"owner":   owner.String(),
		"mint":    mint.String(),
		"account": ata.String(),
	})

	anchor, err := c.LatestAnchor(ctx)
	if err != nil {
		return solana.PublicKey{}, err
	}

	ix := associatedtokenaccount.NewCreateInstruction(
		c.funder.PublicKey(),
		owner,
		mint,
	).Build()

	tx, err := solana.NewTransaction(
		[]solana.Instruction{ix},
		anchor.Blockhash,
		solana.TransactionPayer(c.funder.PublicKey()),
	)
	if err != nil {
		return solana.PublicKey{}, &types.Error{
			Code:    types.ErrNetworkError,
			Message: "failed to build token account creation",
			Err:     err,
		}
	}
	if err := c.funder.SignTransaction(tx); err != nil {
		return solana.PublicKey{}, err
	}

	if _, err := c.Submit(ctx, tx); err != nil {
		// A concurrent request for the same payer may have created the
		// account first; that is a success outcome, not a failure.
		if isAlreadyInUse(err) {
			return ata, nil
		}
		return solana.PublicKey{}, err
	}
	return ata, nil
}

// Submit broadcasts a fully signed transaction and waits for it to reach
// confirmed commitment.
func (c *SolanaClient) Submit(ctx context.Context, tx *solana.Transaction) (solana.Signature, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	sig, err := c.client.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
		PreflightCommitment: rpc.CommitmentConfirmed,
	})
	if err != nil {
		if isAlreadyInUse(err) {
			return solana.Signature{}, &types.Error{
				Code:    types.ErrNetworkError,
				Message: "account already in use",
				Err:     err,
			}
		}
		return solana.Signature{}, &types.Error{
			Code:    types.ErrNetworkError,
			Message: "failed to broadcast transaction",
			Err:     err,
		}
	}

	if err := c.waitForConfirmation(ctx, sig); err != nil {
		return sig, err
	}
	return sig, nil
}

// waitForConfirmation polls signature status until the transaction is
// confirmed or the context expires.
func (c *SolanaClient) waitForConfirmation(ctx context.Context, sig solana.Signature) error {
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return &types.Error{
				Code:    types.ErrNetworkError,
				Message: "timed out waiting for confirmation",
				Err:     ctx.Err(),
			}
		case <-ticker.C:
			out, err := c.client.GetSignatureStatuses(ctx, false, sig)
			if err != nil || len(out.Value) == 0 || out.Value[0] == nil {
				continue
			}
			status := out.Value[0]
			if status.Err != nil {
				return &types.Error{
					Code:    types.ErrNetworkError,
					Message: fmt.Sprintf("transaction failed on chain: %v", status.Err),
				}
			}
			switch status.ConfirmationStatus {
			case rpc.ConfirmationStatusConfirmed, rpc.ConfirmationStatusFinalized:
				return nil
			}
		}
	}
}

// MinimumRentExemption returns the lamports needed to make an account of
// the given data size rent exempt. Used by the provisioning CLI.
func (c *SolanaClient) MinimumRentExemption(ctx context.Context, size uint64) (uint64, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var rent uint64
	err := c.retry(ctx, func() error {
		out, err := c.client.GetMinimumBalanceForRentExemption(ctx, size, rpc.CommitmentFinalized)
		if err != nil {
			return err
		}
		rent = out
		return nil
	})
	if err != nil {
		return 0, &types.Error{
			Code:    types.ErrNetworkError,
			Message: "failed to fetch rent exemption",
			Err:     err,
		}
	}
	return rent, nil
}

func (c *SolanaClient) GetNetwork() types.Network { return c.network }

func (c *SolanaClient) Close() {}

// retry runs op with bounded exponential backoff. Reads issued here are
// idempotent.
func (c *SolanaClient) retry(ctx context.Context, op backoff.Operation) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 200 * time.Millisecond
	bo.MaxElapsedTime = c.timeout
	return backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(bo, c.retries), ctx))
}

// isAlreadyInUse matches the system program error returned when an
// account creation races a concurrent duplicate.
func isAlreadyInUse(err error) bool {
	return err != nil && strings.Contains(err.Error(), "already in use")
}
