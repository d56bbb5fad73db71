// Copyright (C) 2025-2026, Eiger Oy. All rights reserved.
// See the file LICENSE for licensing terms.

package its

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/holiman/uint256"

	axelar "github.com/eigerco/axelar-amplifier-solana-sub000"
	"github.com/eigerco/axelar-amplifier-solana-sub000/gasservice"
	"github.com/eigerco/axelar-amplifier-solana-sub000/gateway"
	"github.com/eigerco/axelar-amplifier-solana-sub000/payload"
	"github.com/eigerco/axelar-amplifier-solana-sub000/runtime"
	"github.com/eigerco/axelar-amplifier-solana-sub000/runtime/token"
)

func managerTypeWire(t TokenManagerType) *uint256.Int {
	return uint256.NewInt(uint64(t))
}

// callGateway emits an outbound GMP call to the hub and attaches the
// native gas payment.
func (s *Service) callGateway(ctx *runtime.Context, cfg *Config, payer solana.PublicKey, wire []byte, gasValue uint64) error {
	if err := gateway.CallContractViaCPI(ctx, ItsHubChainName, cfg.HubAddress, wire); err != nil {
		return err
	}
	if gasValue == 0 {
		return nil
	}
	ix, err := gasservice.NewInstruction("pay_native_for_contract_call", &gasservice.PayNativeParams{
		Payer:              payer,
		DestinationChain:   ItsHubChainName,
		DestinationAddress: cfg.HubAddress,
		PayloadHash:        axelar.Keccak256(wire),
		RefundAddress:      payer,
		Amount:             gasValue,
	})
	if err != nil {
		return err
	}
	ix.Accounts = []*solana.AccountMeta{{PublicKey: payer, IsSigner: true, IsWritable: true}}
	return ctx.InvokeSigned(ix)
}

// sendToHub wraps an ITS payload in a hub envelope for its destination
// chain and routes it through the gateway.
func (s *Service) sendToHub(ctx *runtime.Context, cfg *Config, payer solana.PublicKey, destinationChain string, inner payload.Payload, gasValue uint64) error {
	if !s.isTrustedChain(ctx, destinationChain) {
		return fmt.Errorf("%w: %s", ErrUntrustedChain, destinationChain)
	}
	wire, err := payload.WrapSendToHub(destinationChain, inner)
	if err != nil {
		return err
	}
	return s.callGateway(ctx, cfg, payer, wire, gasValue)
}

// interchainTransfer is the outbound engine: it takes custody of the
// sender's tokens per the manager type and emits the transfer message.
// A non-nil data blob upgrades the wire payload to a contract call with
// token context.
func (s *Service) interchainTransfer(ctx *runtime.Context, p *TransferParams, data []byte) error {
	if err := ctx.RequireSigner(p.Sender); err != nil {
		return err
	}
	if p.Amount == 0 {
		return fmt.Errorf("%w: zero transfer amount", runtime.ErrInvalidArgument)
	}
	cfg, _, err := s.loadConfig(ctx, true)
	if err != nil {
		return err
	}
	tm, managerPDA, err := s.loadManager(ctx, p.TokenID)
	if err != nil {
		return err
	}

	if err := tm.Flow.track(ctx.Clock(), FlowOut, p.Amount); err != nil {
		return err
	}

	mintState, program, err := token.GetMint(ctx, tm.Mint)
	if err != nil {
		return err
	}
	source, _, err := token.FindAssociatedTokenAddress(p.Sender, tm.Mint, program)
	if err != nil {
		return fmt.Errorf("%w: %v", runtime.ErrDerivedPDAMismatch, err)
	}

	// Take custody: mintable types burn, lock types move into the
	// vault. The fee variant reports the vault-credited net amount on
	// the wire.
	wireAmount := p.Amount
	switch {
	case tm.Type.IsMintable():
		if err := token.Burn(ctx, tm.Mint, source, p.Sender, p.Amount); err != nil {
			return err
		}
	case tm.Type == LockUnlockFee:
		net, err := token.TransferCheckedWithFee(ctx, source, tm.Vault, tm.Mint, p.Sender, p.Amount, mintState.Decimals)
		if err != nil {
			return err
		}
		wireAmount = net
	default:
		if err := token.TransferChecked(ctx, source, tm.Vault, tm.Mint, p.Sender, p.Amount, mintState.Decimals); err != nil {
			return err
		}
	}
	if err := s.writeManager(ctx, managerPDA, tm); err != nil {
		return err
	}

	if err := s.sendToHub(ctx, cfg, p.Sender, p.DestinationChain, &payload.InterchainTransfer{
		TokenID:            p.TokenID,
		SourceAddress:      p.Sender[:],
		DestinationAddress: p.DestinationAddress,
		Amount:             uint256.NewInt(wireAmount),
		Data:               data,
	}, p.GasValue); err != nil {
		return err
	}

	var dataHash [32]byte
	if len(data) > 0 {
		dataHash = axelar.Keccak256(data)
	}
	return s.emit(ctx, EventInterchainTransfer, &InterchainTransferEvent{
		TokenID:            p.TokenID,
		Source:             p.Sender,
		DestinationChain:   p.DestinationChain,
		DestinationAddress: p.DestinationAddress,
		Amount:             wireAmount,
		DataHash:           dataHash,
	})
}

// execute delivers a gateway-approved inbound message: it proves
// possession through validate_message, authenticates the hub origin,
// unwraps the envelope, and dispatches on the inner payload.
func (s *Service) execute(ctx *runtime.Context, p *ExecuteParams) error {
	if err := ctx.RequireSigner(p.Payer); err != nil {
		return err
	}
	cfg, _, err := s.loadConfig(ctx, true)
	if err != nil {
		return err
	}

	if err := gateway.ValidateViaCPI(ctx, p.Message); err != nil {
		return err
	}
	if axelar.Keccak256(p.Payload) != p.Message.PayloadHash {
		return fmt.Errorf("%w: payload does not match approved hash", ErrInvalidPayloadHash)
	}
	if p.Message.CCID.Chain != ItsHubChainName || p.Message.SourceAddress != cfg.HubAddress {
		return fmt.Errorf("%w: %s %s", ErrNotHubOrigin, p.Message.CCID.Chain, p.Message.SourceAddress)
	}

	originChain, inner, err := payload.UnwrapReceiveFromHub(p.Payload)
	if err != nil {
		return err
	}
	if !s.isTrustedChain(ctx, originChain) {
		return fmt.Errorf("%w: %s", ErrUntrustedChain, originChain)
	}

	commandID := p.Message.CommandID()
	switch v := inner.(type) {
	case *payload.InterchainTransfer:
		return s.giveToken(ctx, p.Payer, commandID, originChain, v)
	case *payload.DeployInterchainToken:
		return s.inboundDeploy(ctx, p.Payer, v)
	case *payload.LinkToken:
		return s.inboundLink(ctx, p.Payer, v)
	default:
		return fmt.Errorf("%w: inbound selector %d", payload.ErrInvalidPayload, inner.Selector())
	}
}

// giveToken is the inbound engine: it credits the destination per the
// manager type and, when the payload carries data, hands control to the
// destination program with the transferred-token context.
func (s *Service) giveToken(ctx *runtime.Context, payer solana.PublicKey, commandID [32]byte, originChain string, xfer *payload.InterchainTransfer) error {
	amount, err := axelar.U64FromUint256(xfer.Amount)
	if err != nil {
		return err
	}
	if amount == 0 {
		return fmt.Errorf("%w: zero transfer amount", runtime.ErrInvalidArgument)
	}
	tm, managerPDA, err := s.loadManager(ctx, xfer.TokenID)
	if err != nil {
		return err
	}
	if err := tm.Flow.track(ctx.Clock(), FlowIn, amount); err != nil {
		return err
	}

	if len(xfer.DestinationAddress) != solana.PublicKeyLength {
		return fmt.Errorf("%w: %d-byte destination", ErrInvalidDestination, len(xfer.DestinationAddress))
	}
	destination := solana.PublicKeyFromBytes(xfer.DestinationAddress)

	mintState, program, err := token.GetMint(ctx, tm.Mint)
	if err != nil {
		return err
	}

	// The destination is either a token account of this mint used
	// directly, or a wallet whose associated account is resolved and
	// created on demand.
	destAccount := destination
	if state, _, err := token.GetAccount(ctx, destination); err == nil {
		if !state.Mint.Equals(tm.Mint) {
			return fmt.Errorf("%w: %s holds a different mint", ErrInvalidDestination, destination)
		}
	} else {
		destAccount, err = token.GetOrCreateAssociated(ctx, payer, destination, tm.Mint)
		if err != nil {
			return err
		}
		if !program.Equals(solana.Token2022ProgramID) {
			state, _, err := token.GetAccount(ctx, destAccount)
			if err != nil {
				return err
			}
			if !state.Owner.Equals(destination) {
				return fmt.Errorf("%w: associated account owner mismatch", ErrInvalidDestination)
			}
		}
	}

	manager, err := s.signAsManager(ctx, tm)
	if err != nil {
		return err
	}
	net := amount
	switch {
	case tm.Type.IsMintable():
		if err := token.MintTo(ctx, tm.Mint, destAccount, manager, amount); err != nil {
			return err
		}
	case tm.Type == LockUnlockFee:
		net, err = token.TransferCheckedWithFee(ctx, tm.Vault, destAccount, tm.Mint, manager, amount, mintState.Decimals)
		if err != nil {
			return err
		}
	default:
		if err := token.TransferChecked(ctx, tm.Vault, destAccount, tm.Mint, manager, amount, mintState.Decimals); err != nil {
			return err
		}
	}
	if err := s.writeManager(ctx, managerPDA, tm); err != nil {
		return err
	}

	var dataHash [32]byte
	if len(xfer.Data) > 0 {
		dataHash = axelar.Keccak256(xfer.Data)
	}
	if err := s.emit(ctx, EventInterchainTransferReceived, &InterchainTransferReceivedEvent{
		CommandID:   commandID,
		TokenID:     xfer.TokenID,
		SourceChain: originChain,
		Destination: destination,
		Amount:      net,
		DataHash:    dataHash,
	}); err != nil {
		return err
	}

	if len(xfer.Data) > 0 {
		return s.executeWithToken(ctx, destination, &ExecuteWithTokenParams{
			CommandID:     commandID,
			SourceChain:   originChain,
			SourceAddress: xfer.SourceAddress,
			TokenID:       xfer.TokenID,
			Mint:          tm.Mint,
			Amount:        net,
			Data:          xfer.Data,
		})
	}
	return nil
}

// inboundDeploy materializes a hub-initiated token deployment.
func (s *Service) inboundDeploy(ctx *runtime.Context, payer solana.PublicKey, p *payload.DeployInterchainToken) error {
	mintPDA, _, err := InterchainMintAddress(p.TokenID)
	if err != nil {
		return fmt.Errorf("%w: %v", runtime.ErrDerivedPDAMismatch, err)
	}
	if ctx.Exists(mintPDA) {
		return fmt.Errorf("%w: %x", ErrAlreadyDeployed, p.TokenID)
	}
	managerPDA, _, err := TokenManagerAddress(p.TokenID)
	if err != nil {
		return fmt.Errorf("%w: %v", runtime.ErrDerivedPDAMismatch, err)
	}
	if err := token.CreateMint(ctx, payer, mintPDA, p.Decimals, managerPDA, nil); err != nil {
		return err
	}

	// Hub-deployed managers are operated by the ITS root, not by
	// whoever relayed the message.
	rootPDA, _, err := RootAddress()
	if err != nil {
		return fmt.Errorf("%w: %v", runtime.ErrDerivedPDAMismatch, err)
	}
	var minter *solana.PublicKey
	if len(p.Minter) == solana.PublicKeyLength {
		m := solana.PublicKeyFromBytes(p.Minter)
		minter = &m
	}
	_, _, err = s.createManager(ctx, payer, &managerSpec{
		TokenID:  p.TokenID,
		Type:     NativeInterchainToken,
		Mint:     mintPDA,
		Name:     p.Name,
		Symbol:   p.Symbol,
		Operator: rootPDA,
		Minter:   minter,
	})
	if err != nil {
		return err
	}

	minterKey := solana.PublicKey{}
	if minter != nil {
		minterKey = *minter
	}
	return s.emit(ctx, EventInterchainTokenDeployed, &InterchainTokenDeployedEvent{
		TokenID:  p.TokenID,
		Mint:     mintPDA,
		Name:     p.Name,
		Symbol:   p.Symbol,
		Decimals: p.Decimals,
		Minter:   minterKey,
	})
}

// inboundLink places a pre-existing local mint under a hub-linked
// manager.
func (s *Service) inboundLink(ctx *runtime.Context, payer solana.PublicKey, p *payload.LinkToken) error {
	managerType, err := axelar.U64FromUint256(p.TokenManagerType)
	if err != nil {
		return err
	}
	t := TokenManagerType(managerType)
	if t == NativeInterchainToken || t > MintBurn {
		return fmt.Errorf("%w: linked manager type %d", runtime.ErrInvalidArgument, managerType)
	}
	if len(p.DestinationTokenAddress) != solana.PublicKeyLength {
		return fmt.Errorf("%w: %d-byte token address", ErrInvalidDestination, len(p.DestinationTokenAddress))
	}
	rootPDA, _, err := RootAddress()
	if err != nil {
		return fmt.Errorf("%w: %v", runtime.ErrDerivedPDAMismatch, err)
	}
	operator := rootPDA
	// LinkParams may carry a local operator chosen by the source-chain
	// registrant.
	if len(p.LinkParams) == solana.PublicKeyLength {
		operator = solana.PublicKeyFromBytes(p.LinkParams)
	}
	_, _, err = s.createManager(ctx, payer, &managerSpec{
		TokenID:  p.TokenID,
		Type:     t,
		Mint:     solana.PublicKeyFromBytes(p.DestinationTokenAddress),
		Operator: operator,
	})
	return err
}
