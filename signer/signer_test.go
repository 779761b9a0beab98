package signer

import (
	"crypto/ed25519"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitwit/solpay/types"
)

func TestNewLocalSigner(t *testing.T) {
	key, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)

	sgn, err := NewLocalSigner(key.String())
	require.NoError(t, err)
	assert.True(t, sgn.PublicKey().Equals(key.PublicKey()))
}

func TestNewLocalSignerInvalid(t *testing.T) {
	for _, secret := range []string{"", "not-a-key"} {
		_, err := NewLocalSigner(secret)
		require.Error(t, err)

		var typed *types.Error
		require.ErrorAs(t, err, &typed)
		assert.Equal(t, types.ErrConfigError, typed.Code)
	}
}

func TestSignTransactionPartial(t *testing.T) {
	merchantKey, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	payerKey, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)

	merchant := merchantKey.PublicKey()
	payer := payerKey.PublicKey()

	sgn, err := NewLocalSigner(merchantKey.String())
	require.NoError(t, err)

	// Two transfers so that both the payer (fee payer) and the merchant
	// are required signers, as in the production transaction.
	tx, err := solana.NewTransaction(
		[]solana.Instruction{
			system.NewTransferInstruction(1, payer, merchant).Build(),
			system.NewTransferInstruction(1, merchant, payer).Build(),
		},
		solana.Hash{},
		solana.TransactionPayer(payer),
	)
	require.NoError(t, err)

	require.NoError(t, sgn.SignTransaction(tx))

	// Only the merchant slot is filled; the payer slot stays zeroed for
	// the wallet to co-sign.
	require.Len(t, tx.Signatures, 2)
	assert.True(t, tx.Message.AccountKeys[0].Equals(payer))
	assert.True(t, tx.Signatures[0].IsZero())
	assert.False(t, tx.Signatures[1].IsZero())

	msg, err := tx.Message.MarshalBinary()
	require.NoError(t, err)
	assert.True(t, ed25519.Verify(ed25519.PublicKey(merchant[:]), msg, tx.Signatures[1][:]))
}
