package utils

import (
	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"

	"github.com/vitwit/solpay/types"
)

// maxDisplayAmount bounds inputs so that scaled base-unit values stay
// well within uint64 for any decimal scale up to 9.
var maxDisplayAmount = decimal.New(1, 9)

// ValidateAmount parses a display-unit amount and requires it to be
// strictly positive.
func ValidateAmount(amount string) (decimal.Decimal, error) {
	if amount == "" {
		return decimal.Decimal{}, types.NewValidationError("no amount provided")
	}
	dec, err := decimal.NewFromString(amount)
	if err != nil {
		return decimal.Decimal{}, types.NewValidationError("invalid amount %q", amount)
	}
	if !dec.IsPositive() {
		return decimal.Decimal{}, types.NewValidationError("amount must be greater than zero")
	}
	if dec.GreaterThan(maxDisplayAmount) {
		return decimal.Decimal{}, types.NewValidationError("amount exceeds the supported maximum")
	}
	return dec, nil
}

// ValidateAddress parses a base58 account identifier. The field name is
// used to produce a caller-facing message naming the missing input.
func ValidateAddress(field, address string) (solana.PublicKey, error) {
	if address == "" {
		return solana.PublicKey{}, types.NewValidationError("no %s provided", field)
	}
	pk, err := solana.PublicKeyFromBase58(address)
	if err != nil {
		return solana.PublicKey{}, types.NewValidationError("invalid %s address", field)
	}
	return pk, nil
}

// ToBaseUnits converts a display-unit amount to base units at the given
// decimal scale using exact integer arithmetic. A fractional amount below
// one base unit is rejected rather than rounded to zero.
func ToBaseUnits(amount decimal.Decimal, decimals uint8) (uint64, error) {
	shifted := amount.Shift(int32(decimals))
	if !shifted.IsInteger() {
		return 0, types.NewValidationError("amount is smaller than one base unit of the currency")
	}
	units := shifted.BigInt()
	if !units.IsUint64() {
		return 0, types.NewValidationError("amount is too large")
	}
	return units.Uint64(), nil
}
