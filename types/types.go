package types

import (
	"time"

	"github.com/gagliardetto/solana-go"
)

// Network represents the Solana cluster a deployment settles on.
type Network string

const (
	NetworkMainnet Network = "mainnet-beta"
	NetworkDevnet  Network = "devnet"
	NetworkTestnet Network = "testnet"
)

func (n Network) String() string {
	return string(n)
}

func (n Network) IsTestnet() bool {
	return n == NetworkDevnet || n == NetworkTestnet
}

// NativeDecimals is the fixed decimal scale of the native currency
// (1 SOL = 10^9 lamports).
const NativeDecimals = 9

// PaymentRequest carries the caller-supplied inputs for a single build.
// Reference must be unique per payment attempt; the builder does not
// deduplicate.
type PaymentRequest struct {
	// Amount in display units of the settlement token, e.g. "5" or "0.25".
	Amount string `json:"amount" validate:"required"`

	// Reference is a base58 public key embedded in the transaction as a
	// non-signing observer key so the payment can be found on chain.
	Reference string `json:"reference" validate:"required"`

	// Account is the paying wallet's base58 public key.
	Account string `json:"account" validate:"required"`
}

// BuildResult is the serialized, partially signed transaction handed back
// to the wallet for co-signing.
type BuildResult struct {
	// Transaction is the base64 encoding of the wire-format transaction.
	// The merchant signature slot is filled; the payer slot is zeroed.
	Transaction string `json:"transaction"`

	// Message is a human-readable purchase description shown by wallets.
	Message string `json:"message"`
}

// Anchor bounds transaction expiry to a recent finalized block.
type Anchor struct {
	Blockhash            solana.Hash `json:"blockhash"`
	LastValidBlockHeight uint64      `json:"lastValidBlockHeight"`
}

// MerchantInfo is the wallet-facing merchant descriptor served on the
// metadata query.
type MerchantInfo struct {
	Label string `json:"label"`
	Icon  string `json:"icon"`
}

// Config is the explicit per-deployment configuration. It replaces the
// original implementation's process-wide constants so that multiple
// configurations can coexist and tests can inject fakes.
type Config struct {
	// RPCURL is the Solana JSON-RPC endpoint.
	RPCURL string `json:"rpcUrl" validate:"required,url"`

	// MerchantKey is the merchant's base58 secret key. It is both the
	// token-transfer authority and the funder for payer token accounts.
	MerchantKey string `json:"-" validate:"required"`

	// Mint is the base58 address of the settlement token mint.
	Mint string `json:"mint" validate:"required"`

	// MintDecimals is the mint's configured decimal scale.
	MintDecimals uint8 `json:"mintDecimals"`

	Network Network `json:"network"`

	// Label and Icon are served on the merchant metadata query; Message
	// is embedded in payment request URLs.
	Label   string `json:"label" validate:"required"`
	Icon    string `json:"icon" validate:"omitempty,url"`
	Message string `json:"message"`

	// BaseURL is the public origin of this service, used when encoding
	// payment request URLs, e.g. "https://shop.example.com".
	BaseURL string `json:"baseUrl" validate:"required,url"`

	// ListenAddr is the local address the HTTP boundary binds to.
	ListenAddr string `json:"listenAddr"`

	// Timeout bounds each chain access. Zero means DefaultTimeout.
	Timeout time.Duration `json:"timeout"`

	// RetryCount bounds retries of retryable chain reads.
	RetryCount int `json:"retryCount"`

	LogLevel      string `json:"logLevel"`
	EnableMetrics bool   `json:"enableMetrics"`
}

// DefaultTimeout bounds chain access when Config.Timeout is unset.
const DefaultTimeout = 30 * time.Second

// DefaultRetryCount bounds retryable chain reads when unset.
const DefaultRetryCount = 3

// MintKey parses the configured mint address.
func (c *Config) MintKey() (solana.PublicKey, error) {
	pk, err := solana.PublicKeyFromBase58(c.Mint)
	if err != nil {
		return solana.PublicKey{}, &Error{
			Code:    ErrConfigError,
			Message: "invalid mint address",
			Err:     err,
		}
	}
	return pk, nil
}
