package clients

import (
	"context"

	"github.com/gagliardetto/solana-go"

	"github.com/vitwit/solpay/types"
)

// ChainClient is the chain-state accessor consumed by the transaction
// builder. All reads are idempotent and safe to retry; EnsureTokenAccount
// is the only operation that may write, and it must treat a concurrent
// duplicate creation as success.
type ChainClient interface {
	// LatestAnchor returns the most recent finalized blockhash and its
	// validity height.
	LatestAnchor(ctx context.Context) (types.Anchor, error)

	// TokenAccount derives the associated token account for (owner, mint)
	// and reports whether it exists on chain.
	TokenAccount(ctx context.Context, owner, mint solana.PublicKey) (solana.PublicKey, bool, error)

	// EnsureTokenAccount derives the associated token account for
	// (owner, mint), creating it on chain if absent.
	EnsureTokenAccount(ctx context.Context, owner, mint solana.PublicKey) (solana.PublicKey, error)

	Close()
}
