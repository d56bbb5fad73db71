// Copyright (C) 2025-2026, Eiger Oy. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"encoding/hex"
	"fmt"
	"os"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	axelar "github.com/eigerco/axelar-amplifier-solana-sub000"
	"github.com/eigerco/axelar-amplifier-solana-sub000/discriminator"
	"github.com/eigerco/axelar-amplifier-solana-sub000/gasservice"
	"github.com/eigerco/axelar-amplifier-solana-sub000/gateway"
	"github.com/eigerco/axelar-amplifier-solana-sub000/governance"
	"github.com/eigerco/axelar-amplifier-solana-sub000/its"
	"github.com/eigerco/axelar-amplifier-solana-sub000/operators"
	"github.com/eigerco/axelar-amplifier-solana-sub000/payload"
	"github.com/eigerco/axelar-amplifier-solana-sub000/relayer"
	"github.com/eigerco/axelar-amplifier-solana-sub000/runtime"
	"github.com/eigerco/axelar-amplifier-solana-sub000/runtime/token"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "axelarcli",
	Short: "Axelar Amplifier Solana - local tooling CLI",
	Long: `Tooling for the Solana edition of the Axelar Amplifier protocol.

Provides address derivation, payload decoding, and a self-contained demo
that runs the gateway and the interchain token service against an
in-process runtime.`,
	Version: fmt.Sprintf("%s (built %s)", version, buildDate),
}

func init() {
	rootCmd.AddCommand(programIDCmd)
	rootCmd.AddCommand(tokenIDCmd)
	rootCmd.AddCommand(decodeCmd)
	rootCmd.AddCommand(demoCmd)
}

var programIDCmd = &cobra.Command{
	Use:   "program-id [name]",
	Short: "Print derived program addresses",
	Long: `Print the deterministic program address of a named program, or all
well-known programs when no name is given.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) == 1 {
			fmt.Println(runtime.ProgramID(args[0]))
			return
		}
		fmt.Printf("  gateway:     %s\n", gateway.ID)
		fmt.Printf("  its:         %s\n", its.ID)
		fmt.Printf("  gas service: %s\n", gasservice.ID)
		fmt.Printf("  governance:  %s\n", governance.ID)
		fmt.Printf("  operators:   %s\n", operators.ID)
	},
}

var tokenIDCmd = &cobra.Command{
	Use:   "token-id",
	Short: "Derive interchain token ids",
	Long: `Derive a token id from a deployer and salt, or the canonical id of an
existing mint.`,
	Run: func(cmd *cobra.Command, args []string) {
		mintStr, _ := cmd.Flags().GetString("mint")
		if mintStr != "" {
			mint, err := solana.PublicKeyFromBase58(mintStr)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Invalid mint address: %v\n", err)
				os.Exit(1)
			}
			id := its.CanonicalTokenID(mint)
			fmt.Printf("%x\n", id)
			return
		}

		deployerStr, _ := cmd.Flags().GetString("deployer")
		saltHex, _ := cmd.Flags().GetString("salt")
		linked, _ := cmd.Flags().GetBool("linked")

		deployer, err := solana.PublicKeyFromBase58(deployerStr)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Invalid deployer address: %v\n", err)
			os.Exit(1)
		}
		salt, err := hexTo32(saltHex)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Invalid salt: %v\n", err)
			os.Exit(1)
		}

		var id [32]byte
		if linked {
			id = its.LinkedTokenID(deployer, salt)
		} else {
			id = its.InterchainTokenID(deployer, salt)
		}
		fmt.Printf("%x\n", id)

		manager, _, err := its.TokenManagerAddress(id)
		if err == nil {
			fmt.Printf("manager: %s\n", manager)
		}
	},
}

var decodeCmd = &cobra.Command{
	Use:   "decode",
	Short: "Decode a hex-encoded ITS payload",
	Long: `Decode a hex-encoded ABI payload, unwrapping hub envelopes when
present.`,
	Run: func(cmd *cobra.Command, args []string) {
		dataHex, _ := cmd.Flags().GetString("data")
		data, err := hex.DecodeString(strip0x(dataHex))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Invalid hex data: %v\n", err)
			os.Exit(1)
		}

		p, err := payload.Decode(data)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Undecodable payload: %v\n", err)
			os.Exit(1)
		}
		if _, inner, err := payload.UnwrapReceiveFromHub(data); err == nil {
			p = inner
		}
		printPayload(p)
	},
}

func printPayload(p payload.Payload) {
	switch m := p.(type) {
	case *payload.InterchainTransfer:
		fmt.Println("InterchainTransfer:")
		fmt.Printf("  token id:    %x\n", m.TokenID)
		fmt.Printf("  source:      %x\n", m.SourceAddress)
		fmt.Printf("  destination: %x\n", m.DestinationAddress)
		fmt.Printf("  amount:      %s\n", m.Amount)
		fmt.Printf("  data:        %x\n", m.Data)
	case *payload.DeployInterchainToken:
		fmt.Println("DeployInterchainToken:")
		fmt.Printf("  token id: %x\n", m.TokenID)
		fmt.Printf("  name:     %s\n", m.Name)
		fmt.Printf("  symbol:   %s\n", m.Symbol)
		fmt.Printf("  decimals: %d\n", m.Decimals)
		fmt.Printf("  minter:   %x\n", m.Minter)
	case *payload.LinkToken:
		fmt.Println("LinkToken:")
		fmt.Printf("  token id:     %x\n", m.TokenID)
		fmt.Printf("  manager type: %s\n", m.TokenManagerType)
	case *payload.RegisterTokenMetadata:
		fmt.Println("RegisterTokenMetadata:")
		fmt.Printf("  token address: %x\n", m.TokenAddress)
		fmt.Printf("  decimals:      %d\n", m.Decimals)
	case *payload.SendToHub:
		fmt.Printf("SendToHub -> %s\n", m.DestinationChain)
	case *payload.ReceiveFromHub:
		fmt.Printf("ReceiveFromHub <- %s\n", m.SourceChain)
	default:
		fmt.Printf("payload type %T\n", p)
	}
}

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run a local end-to-end token bridge flow",
	Long: `Spin up the in-process runtime, initialize the gateway, the gas
service, and the interchain token service, deploy a token, and send an
outbound interchain transfer. The emitted gateway call is decoded and
printed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		verifiers, _ := cmd.Flags().GetInt("verifiers")
		threshold, _ := cmd.Flags().GetUint64("threshold")
		return runDemo(verifiers, threshold)
	},
}

func init() {
	tokenIDCmd.Flags().String("deployer", "", "Deployer wallet (base58)")
	tokenIDCmd.Flags().String("salt", "", "32-byte salt (hex)")
	tokenIDCmd.Flags().Bool("linked", false, "Derive a linked custom token id")
	tokenIDCmd.Flags().String("mint", "", "Existing mint for a canonical id (base58)")

	decodeCmd.Flags().StringP("data", "d", "", "Hex payload to decode")
	decodeCmd.MarkFlagRequired("data")

	demoCmd.Flags().Int("verifiers", 3, "Number of local verifiers")
	demoCmd.Flags().Uint64("threshold", 2, "Signing quorum weight")
}

const demoHubAddress = "axelar157hl7gpuknjmhtac2qnphuazv2yerfagva7lsu9vuj2pgn32z22qa26dk4"

func runDemo(verifiers int, threshold uint64) error {
	logger, err := zap.NewDevelopment()
	if err != nil {
		return err
	}
	defer logger.Sync()

	rt := runtime.New(logger)
	for _, p := range []runtime.Program{gateway.New(), gasservice.New(), its.New()} {
		if err := rt.Register(p); err != nil {
			return err
		}
	}

	payer := solana.PublicKeyFromBytes([]byte("demo-payer-wallet-demo-payer-wal"))
	rt.FundWallet(payer, 100_000_000_000)
	rt.SetClock(1_700_000_000)

	signers := make([]relayer.Signer, verifiers)
	for i := range signers {
		s, err := relayer.NewLocalSigner()
		if err != nil {
			return err
		}
		signers[i] = s
	}
	pool := relayer.NewSignerPool(signers...)
	set, err := pool.VerifierSet(1, threshold)
	if err != nil {
		return err
	}

	domainSeparator := axelar.Keccak256([]byte("axelarcli-demo"))
	setHash, err := set.Hash(domainSeparator)
	if err != nil {
		return err
	}

	steps := []struct {
		program func(string, interface{}) (runtime.Instruction, error)
		method  string
		params  interface{}
	}{
		{func(method string, params interface{}) (runtime.Instruction, error) {
			return gateway.NewInstruction(method, params)
		}, "initialize_config", &gateway.InitializeConfigParams{
			Payer:                   payer,
			Operator:                payer,
			DomainSeparator:         domainSeparator,
			InitialVerifierSetHash:  setHash,
			PreviousSignerRetention: 4,
			MinimumRotationDelay:    3600,
		}},
		{gasservice.NewInstruction, "initialize", &gasservice.InitializeParams{Payer: payer}},
		{its.NewInstruction, "initialize", &its.InitializeParams{
			Payer:      payer,
			Operator:   payer,
			ChainName:  "solana",
			HubAddress: demoHubAddress,
		}},
		{its.NewInstruction, "set_trusted_chain", &its.TrustedChainParams{
			Payer:     payer,
			Authority: payer,
			ChainName: "ethereum",
		}},
	}
	for _, step := range steps {
		ix, err := step.program(step.method, step.params)
		if err != nil {
			return err
		}
		if err := rt.Invoke(ix, payer); err != nil {
			return fmt.Errorf("%s: %w", step.method, err)
		}
	}

	r, err := relayer.New(relayer.Config{
		Runtime:         rt,
		Logger:          logger,
		Pool:            pool,
		Set:             set,
		DomainSeparator: domainSeparator,
		Payer:           payer,
	})
	if err != nil {
		return err
	}

	// Deploy a fresh interchain token with an initial supply.
	salt := axelar.Keccak256([]byte("demo-token"))
	deployIx, err := its.NewInstruction("deploy_interchain_token", &its.DeployTokenParams{
		Payer:         payer,
		Salt:          salt,
		Name:          "Demo Token",
		Symbol:        "DEMO",
		Decimals:      9,
		InitialSupply: 1_000_000,
	})
	if err != nil {
		return err
	}
	if err := rt.Invoke(deployIx, payer); err != nil {
		return fmt.Errorf("deploy token: %w", err)
	}

	tokenID := its.InterchainTokenID(payer, salt)
	mint, _, err := its.InterchainMintAddress(tokenID)
	if err != nil {
		return err
	}
	logger.Info("token deployed",
		zap.String("token_id", hex.EncodeToString(tokenID[:])),
		zap.Stringer("mint", mint))

	// Send tokens out to a trusted chain.
	dest, _ := hex.DecodeString("4f4495243837681061c4743b74b3eedf548d56a5")
	transferIx, err := its.NewInstruction("interchain_transfer", &its.TransferParams{
		Sender:             payer,
		TokenID:            tokenID,
		DestinationChain:   "ethereum",
		DestinationAddress: dest,
		Amount:             250_000,
		GasValue:           5_000,
	})
	if err != nil {
		return err
	}
	if err := rt.Invoke(transferIx, payer); err != nil {
		return fmt.Errorf("interchain transfer: %w", err)
	}

	ata, _, err := token.FindAssociatedTokenAddress(payer, mint, token.ProgramFor(nil))
	if err != nil {
		return err
	}
	acct, _, err := demoTokenBalance(rt, ata)
	if err != nil {
		return err
	}
	logger.Info("local balance after transfer", zap.Uint64("amount", acct))

	// Show what the gateway emitted for the hub.
	for _, ev := range rt.EventsFor(gateway.ID) {
		if ev.Discriminator != gateway.EventCallContract {
			continue
		}
		var call gateway.CallContractEvent
		if err := bin.UnmarshalBorsh(&call, ev.Data); err != nil {
			return err
		}
		fmt.Printf("\noutbound call -> %s @ %s\n", call.DestinationChain, call.DestinationContractAddress)
		if p, err := payload.Decode(call.Payload); err == nil {
			if hubMsg, ok := p.(*payload.SendToHub); ok {
				fmt.Printf("hub envelope for %s\n", hubMsg.DestinationChain)
				if inner, err := payload.Decode(hubMsg.Payload); err == nil {
					printPayload(inner)
				}
			}
		}
	}

	setID := r.SetHash()
	logger.Info("demo complete", zap.String("verifier_set", hex.EncodeToString(setID[:8])))
	return nil
}

// demoTokenBalance reads a token account's balance outside a program
// context.
func demoTokenBalance(rt *runtime.Runtime, address solana.PublicKey) (uint64, solana.PublicKey, error) {
	acct := rt.Account(address)
	if acct == nil {
		return 0, solana.PublicKey{}, fmt.Errorf("no account at %s", address)
	}
	var state token.Account
	if err := bin.UnmarshalBorsh(&state, acct.Data[discriminator.Length:]); err != nil {
		return 0, solana.PublicKey{}, err
	}
	return state.Amount, state.Mint, nil
}

func hexTo32(s string) ([32]byte, error) {
	var out [32]byte
	b, err := hex.DecodeString(strip0x(s))
	if err != nil {
		return out, err
	}
	if len(b) != 32 {
		return out, fmt.Errorf("expected 32 bytes, got %d", len(b))
	}
	copy(out[:], b)
	return out, nil
}

func strip0x(s string) string {
	if len(s) >= 2 && s[0:2] == "0x" {
		return s[2:]
	}
	return s
}
