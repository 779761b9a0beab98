// Package signer holds the merchant's long-lived signing key. The key is
// used read-only and is safe for concurrent use; the private material is
// never exposed outside this package.
package signer

import (
	"github.com/gagliardetto/solana-go"

	"github.com/vitwit/solpay/types"
)

// Signer adds this key's signature to a transaction without requiring the
// other signer slots to be filled.
type Signer interface {
	PublicKey() solana.PublicKey
	SignTransaction(tx *solana.Transaction) error
}

// LocalSigner signs with an in-process ed25519 key.
type LocalSigner struct {
	key solana.PrivateKey
}

var _ Signer = (*LocalSigner)(nil)

// NewLocalSigner parses a base58-encoded secret key.
func NewLocalSigner(secret string) (*LocalSigner, error) {
	if secret == "" {
		return nil, &types.Error{
			Code:    types.ErrConfigError,
			Message: "merchant signing key is not configured",
		}
	}
	key, err := solana.PrivateKeyFromBase58(secret)
	if err != nil {
		return nil, &types.Error{
			Code:    types.ErrConfigError,
			Message: "invalid merchant signing key",
			Err:     err,
		}
	}
	return &LocalSigner{key: key}, nil
}

func (s *LocalSigner) PublicKey() solana.PublicKey {
	return s.key.PublicKey()
}

// SignTransaction partially signs: the slot for this key is filled and
// every other required slot is left zeroed.
func (s *LocalSigner) SignTransaction(tx *solana.Transaction) error {
	_, err := tx.PartialSign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(s.key.PublicKey()) {
			return &s.key
		}
		return nil
	})
	if err != nil {
		return &types.Error{
			Code:    types.ErrSigningError,
			Message: "failed to sign transaction",
			Err:     err,
		}
	}
	return nil
}
