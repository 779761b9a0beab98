package utils

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/vitwit/solpay/types"
)

var validate = validator.New()

// LoadConfig reads configuration from the environment, loading a .env
// file first when one exists. Missing or malformed required values are
// fatal configuration errors.
func LoadConfig() (*types.Config, error) {
	// Best effort: absence of a .env file is fine in production.
	_ = godotenv.Load()

	cfg := &types.Config{
		RPCURL:        getEnv("RPC_URL", "https://api.devnet.solana.com"),
		MerchantKey:   os.Getenv("WALLET_PRIVATE_KEY"),
		Mint:          os.Getenv("TOKEN_MINT"),
		Network:       types.Network(getEnv("NETWORK", "devnet")),
		Label:         getEnv("MERCHANT_LABEL", "Buy some tokens"),
		Icon:          getEnv("MERCHANT_ICON", "https://cryptologos.cc/logos/solana-sol-logo.png"),
		Message:       getEnv("PAYMENT_MESSAGE", "Thanks for buying our tokens!"),
		BaseURL:       os.Getenv("BASE_URL"),
		ListenAddr:    getEnv("LISTEN_ADDR", ":8080"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		EnableMetrics: getEnv("ENABLE_METRICS", "false") == "true",
	}

	decimals, err := getEnvUint("TOKEN_DECIMALS", 6)
	if err != nil {
		return nil, err
	}
	if decimals > 9 {
		return nil, &types.Error{
			Code:    types.ErrConfigError,
			Message: "TOKEN_DECIMALS must be at most 9",
		}
	}
	cfg.MintDecimals = uint8(decimals)

	timeoutSecs, err := getEnvUint("RPC_TIMEOUT_SECONDS", 30)
	if err != nil {
		return nil, err
	}
	cfg.Timeout = time.Duration(timeoutSecs) * time.Second

	retries, err := getEnvUint("RPC_RETRY_COUNT", uint64(types.DefaultRetryCount))
	if err != nil {
		return nil, err
	}
	cfg.RetryCount = int(retries)

	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ValidateConfig checks a configuration against its struct tags.
func ValidateConfig(cfg *types.Config) error {
	if err := validate.Struct(cfg); err != nil {
		return &types.Error{
			Code:    types.ErrConfigError,
			Message: fmt.Sprintf("invalid configuration: %v", err),
		}
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvUint(key string, fallback uint64) (uint64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return 0, &types.Error{
			Code:    types.ErrConfigError,
			Message: fmt.Sprintf("%s must be a non-negative integer", key),
		}
	}
	return n, nil
}
