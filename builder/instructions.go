package builder

import (
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/programs/token"

	"github.com/vitwit/solpay/types"
)

// nativeTransfer builds the payer-to-merchant lamports transfer with the
// reference appended as a non-signing, non-writable key. The reference
// carries no transfer semantics; it only makes the transaction findable
// by watchers scanning for that key. The final instruction is constructed
// from the complete account list in one step, never mutated afterwards.
func nativeTransfer(payer, merchant, reference solana.PublicKey, lamports uint64) (solana.Instruction, error) {
	base := system.NewTransferInstruction(lamports, payer, merchant).Build()
	data, err := base.Data()
	if err != nil {
		return nil, &types.Error{
			Code:    types.ErrConfigError,
			Message: "failed to encode transfer instruction",
			Err:     err,
		}
	}

	accounts := make(solana.AccountMetaSlice, 0, len(base.Accounts())+1)
	accounts = append(accounts, base.Accounts()...)
	accounts = append(accounts, solana.Meta(reference))

	return solana.NewInstruction(base.ProgramID(), accounts, data), nil
}

// tokenTransfer builds the checked token transfer from the merchant's
// token account to the payer's. The merchant is the instruction authority
// and therefore a required co-signer; together with the payer's signature
// on the native transfer this makes the transaction require both parties.
func tokenTransfer(source, mint, destination, authority solana.PublicKey, amount uint64, decimals uint8) solana.Instruction {
	return token.NewTransferCheckedInstruction(
		amount,
		decimals,
		source,
		mint,
		destination,
		authority,
		nil,
	).Build()
}
