// mint-token is the one-shot provisioning tool that creates the
// settlement token mint, the merchant's token account and the initial
// supply. It prints the mint address consumed by the service
// configuration (TOKEN_MINT). Run once per deployment.
package main

import (
	"fmt"
	"os"

	"github.com/gagliardetto/solana-go"
	associatedtokenaccount "github.com/gagliardetto/solana-go/programs/associated-token-account"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/programs/token"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/vitwit/solpay/clients"
	"github.com/vitwit/solpay/logger"
	"github.com/vitwit/solpay/signer"
	"github.com/vitwit/solpay/types"
)

// mintAccountSize is the byte size of an SPL token mint account.
const mintAccountSize = 82

func main() {
	app := &cli.App{
		Name:  "mint-token",
		Usage: "create the settlement token mint and initial supply",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "rpc-url",
				Value: "https://api.devnet.solana.com",
				Usage: "Solana JSON-RPC endpoint",
			},
			&cli.StringFlag{
				Name:  "network",
				Value: "devnet",
				Usage: "cluster name used for the explorer link",
			},
			&cli.UintFlag{
				Name:  "decimals",
				Value: 6,
				Usage: "decimal scale of the new mint",
			},
			&cli.Uint64Flag{
				Name:  "supply",
				Value: 10000,
				Usage: "initial supply in display units, minted to the merchant",
			},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	_ = godotenv.Load()

	decimals := c.Uint("decimals")
	if decimals > 9 {
		return fmt.Errorf("decimals must be at most 9")
	}

	sgn, err := signer.NewLocalSigner(os.Getenv("WALLET_PRIVATE_KEY"))
	if err != nil {
		return err
	}
	merchant := sgn.PublicKey()

	network := types.Network(c.String("network"))
	client, err := clients.NewSolanaClient(&types.Config{
		RPCURL:  c.String("rpc-url"),
		Network: network,
	}, sgn, logger.NoopLogger{})
	if err != nil {
		return err
	}
	defer client.Close()

	ctx := c.Context

	mintKey, err := solana.NewRandomPrivateKey()
	if err != nil {
		return fmt.Errorf("failed to generate mint keypair: %w", err)
	}
	mint := mintKey.PublicKey()

	rent, err := client.MinimumRentExemption(ctx, mintAccountSize)
	if err != nil {
		return err
	}

	merchantTokenAccount, _, err := solana.FindAssociatedTokenAddress(merchant, mint)
	if err != nil {
		return fmt.Errorf("failed to derive merchant token account: %w", err)
	}

	supply := c.Uint64("supply")
	baseUnits := supply
	for i := uint(0); i < decimals; i++ {
		baseUnits *= 10
	}

	instructions := []solana.Instruction{
		system.NewCreateAccountInstruction(
			rent,
			mintAccountSize,
			token.ProgramID,
			merchant,
			mint,
		).Build(),
		token.NewInitializeMintInstruction(
			uint8(decimals),
			merchant,
			merchant,
			mint,
			solana.SysVarRentPubkey,
		).Build(),
		associatedtokenaccount.NewCreateInstruction(
			merchant,
			merchant,
			mint,
		).Build(),
		token.NewMintToInstruction(
			baseUnits,
			mint,
			merchantTokenAccount,
			merchant,
			nil,
		).Build(),
	}

	anchor, err := client.LatestAnchor(ctx)
	if err != nil {
		return err
	}

	tx, err := solana.NewTransaction(
		instructions,
		anchor.Blockhash,
		solana.TransactionPayer(merchant),
	)
	if err != nil {
		return fmt.Errorf("failed to assemble transaction: %w", err)
	}

	if err := sgn.SignTransaction(tx); err != nil {
		return err
	}
	// The new mint account co-signs its own creation.
	if _, err := tx.PartialSign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(mint) {
			return &mintKey
		}
		return nil
	}); err != nil {
		return fmt.Errorf("failed to sign with mint key: %w", err)
	}

	sig, err := client.Submit(ctx, tx)
	if err != nil {
		return err
	}

	fmt.Printf("Minted %d tokens to %s\n", supply, merchant)
	fmt.Printf("Mint address (TOKEN_MINT): %s\n", mint)
	fmt.Printf("Merchant token account:    %s\n", merchantTokenAccount)

	explorer := fmt.Sprintf("https://explorer.solana.com/tx/%s", sig)
	if network.IsTestnet() {
		explorer += "?cluster=" + network.String()
	}
	fmt.Printf("View transaction: %s\n", explorer)
	return nil
}
