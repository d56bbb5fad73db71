// Copyright (C) 2025-2026, Eiger Oy. All rights reserved.
// See the file LICENSE for licensing terms.

// Package token models the host chain's fungible-token programs: mints,
// token accounts, associated token accounts, and the transfer-fee
// extension of the newer token program. Handlers execute inline against
// the runtime ledger but keep the token programs' authority rules:
// minting requires the mint authority's signature, debits require the
// account owner's.
package token

import (
	"errors"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"

	axelar "github.com/eigerco/axelar-amplifier-solana-sub000"
	"github.com/eigerco/axelar-amplifier-solana-sub000/discriminator"
	"github.com/eigerco/axelar-amplifier-solana-sub000/runtime"
)

var (
	ErrMintMismatch        = errors.New("token account mint mismatch")
	ErrNoMintAuthority     = errors.New("mint has no mint authority")
	ErrNotMintAuthority    = errors.New("not the mint authority")
	ErrNotAccountOwner     = errors.New("not the token account owner")
	ErrInsufficientBalance = errors.New("insufficient token balance")
	ErrDecimalsMismatch    = errors.New("decimals mismatch")
	ErrNoTransferFee       = errors.New("mint has no transfer-fee extension")
)

var (
	mintDiscriminator         = discriminator.Account("Mint")
	tokenAccountDiscriminator = discriminator.Account("TokenAccount")
)

// basisPointsDivisor converts fee basis points to a fraction.
const basisPointsDivisor = 10_000

// TransferFeeConfig is the transfer-fee extension carried by newer-program
// mints: a fee in basis points capped at MaximumFee per transfer.
type TransferFeeConfig struct {
	BasisPoints uint16
	MaximumFee  uint64
}

// Fee returns the fee withheld when transferring amount.
func (c *TransferFeeConfig) Fee(amount uint64) uint64 {
	fee := amount / basisPointsDivisor * uint64(c.BasisPoints)
	rem := amount % basisPointsDivisor * uint64(c.BasisPoints) / basisPointsDivisor
	fee += rem
	if fee > c.MaximumFee {
		return c.MaximumFee
	}
	return fee
}

// Mint is a fungible-token mint.
type Mint struct {
	MintAuthority   *solana.PublicKey  `bin:"optional"`
	FreezeAuthority *solana.PublicKey  `bin:"optional"`
	Supply          uint64
	Decimals        uint8
	TransferFee     *TransferFeeConfig `bin:"optional"`
}

// Account is a token holding account.
type Account struct {
	Mint           solana.PublicKey
	Owner          solana.PublicKey
	Amount         uint64
	ImmutableOwner bool
}

// ProgramFor returns the token program id a mint must live under: the
// newer program when a transfer-fee extension is present.
func ProgramFor(fee *TransferFeeConfig) solana.PublicKey {
	if fee != nil {
		return solana.Token2022ProgramID
	}
	return solana.TokenProgramID
}

// CreateMint initializes a new mint under the token program implied by
// the fee config.
func CreateMint(ctx *runtime.Context, payer, mint solana.PublicKey, decimals uint8, authority solana.PublicKey, fee *TransferFeeConfig) error {
	program := ProgramFor(fee)
	state := Mint{
		MintAuthority: &authority,
		Decimals:      decimals,
		TransferFee:   fee,
	}
	size, err := borshSize(&state)
	if err != nil {
		return err
	}
	if _, err := ctx.Create(mint, size, program, payer); err != nil {
		return err
	}
	return writeMint(ctx, mint, &state)
}

// GetMint loads a mint from either token program.
func GetMint(ctx *runtime.Context, mint solana.PublicKey) (*Mint, solana.PublicKey, error) {
	acct := ctx.Account(mint)
	if acct == nil || len(acct.Data) == 0 {
		return nil, solana.PublicKey{}, fmt.Errorf("%w: mint %s", runtime.ErrNotInitialized, mint)
	}
	program := acct.Owner
	if !program.Equals(solana.TokenProgramID) && !program.Equals(solana.Token2022ProgramID) {
		return nil, solana.PublicKey{}, fmt.Errorf("%w: mint %s owned by %s", runtime.ErrIncorrectOwner, mint, program)
	}
	var state Mint
	if err := ctx.ReadState(program, mint, mintDiscriminator, &state); err != nil {
		return nil, solana.PublicKey{}, err
	}
	return &state, program, nil
}

// SetMintAuthority reassigns the mint authority. The current authority
// must sign; passing nil newAuthority burns the authority forever.
func SetMintAuthority(ctx *runtime.Context, mint solana.PublicKey, current solana.PublicKey, newAuthority *solana.PublicKey) error {
	state, _, err := GetMint(ctx, mint)
	if err != nil {
		return err
	}
	if state.MintAuthority == nil {
		return fmt.Errorf("%w: %s", ErrNoMintAuthority, mint)
	}
	if !state.MintAuthority.Equals(current) {
		return fmt.Errorf("%w: %s", ErrNotMintAuthority, current)
	}
	if err := ctx.RequireSigner(current); err != nil {
		return err
	}
	state.MintAuthority = newAuthority
	return writeMint(ctx, mint, state)
}

// CreateAccount initializes a token account for mint owned by owner.
func CreateAccount(ctx *runtime.Context, payer, address, mint, owner solana.PublicKey, immutableOwner bool) error {
	_, program, err := GetMint(ctx, mint)
	if err != nil {
		return err
	}
	state := Account{
		Mint:           mint,
		Owner:          owner,
		ImmutableOwner: immutableOwner,
	}
	size, err := borshSize(&state)
	if err != nil {
		return err
	}
	if _, err := ctx.Create(address, size, program, payer); err != nil {
		return err
	}
	return ctx.WriteState(program, address, tokenAccountDiscriminator, &state)
}

// GetAccount loads a token account.
func GetAccount(ctx *runtime.Context, address solana.PublicKey) (*Account, solana.PublicKey, error) {
	acct := ctx.Account(address)
	if acct == nil || len(acct.Data) == 0 {
		return nil, solana.PublicKey{}, fmt.Errorf("%w: token account %s", runtime.ErrNotInitialized, address)
	}
	program := acct.Owner
	if !program.Equals(solana.TokenProgramID) && !program.Equals(solana.Token2022ProgramID) {
		return nil, solana.PublicKey{}, fmt.Errorf("%w: token account %s owned by %s", runtime.ErrIncorrectOwner, address, program)
	}
	var state Account
	if err := ctx.ReadState(program, address, tokenAccountDiscriminator, &state); err != nil {
		return nil, solana.PublicKey{}, err
	}
	return &state, program, nil
}

// FindAssociatedTokenAddress derives the canonical associated token
// account of wallet for mint under the given token program.
func FindAssociatedTokenAddress(wallet, mint, tokenProgram solana.PublicKey) (solana.PublicKey, uint8, error) {
	return solana.FindProgramAddress(
		[][]byte{wallet[:], tokenProgram[:], mint[:]},
		solana.SPLAssociatedTokenAccountProgramID,
	)
}

// GetOrCreateAssociated idempotently creates the associated token
// account of wallet for mint. Associated accounts under the newer token
// program are created with the immutable-owner extension.
func GetOrCreateAssociated(ctx *runtime.Context, payer, wallet, mint solana.PublicKey) (solana.PublicKey, error) {
	_, program, err := GetMint(ctx, mint)
	if err != nil {
		return solana.PublicKey{}, err
	}
	ata, _, err := FindAssociatedTokenAddress(wallet, mint, program)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("%w: %v", runtime.ErrDerivedPDAMismatch, err)
	}
	if ctx.Exists(ata) {
		state, _, err := GetAccount(ctx, ata)
		if err != nil {
			return solana.PublicKey{}, err
		}
		if !state.Mint.Equals(mint) {
			return solana.PublicKey{}, fmt.Errorf("%w: %s", ErrMintMismatch, ata)
		}
		return ata, nil
	}
	immutable := program.Equals(solana.Token2022ProgramID)
	if err := CreateAccount(ctx, payer, ata, mint, wallet, immutable); err != nil {
		return solana.PublicKey{}, err
	}
	return ata, nil
}

// MintTo mints amount into dest, signed by the mint authority.
func MintTo(ctx *runtime.Context, mint, dest, authority solana.PublicKey, amount uint64) error {
	state, _, err := GetMint(ctx, mint)
	if err != nil {
		return err
	}
	if state.MintAuthority == nil {
		return fmt.Errorf("%w: %s", ErrNoMintAuthority, mint)
	}
	if !state.MintAuthority.Equals(authority) {
		return fmt.Errorf("%w: %s", ErrNotMintAuthority, authority)
	}
	if err := ctx.RequireSigner(authority); err != nil {
		return err
	}

	destState, destProgram, err := GetAccount(ctx, dest)
	if err != nil {
		return err
	}
	if !destState.Mint.Equals(mint) {
		return fmt.Errorf("%w: %s", ErrMintMismatch, dest)
	}

	supply, err := axelar.AddUint64(state.Supply, amount)
	if err != nil {
		return fmt.Errorf("%w: supply of %s", err, mint)
	}
	balance, err := axelar.AddUint64(destState.Amount, amount)
	if err != nil {
		return fmt.Errorf("%w: balance of %s", err, dest)
	}
	state.Supply = supply
	destState.Amount = balance
	if err := writeMint(ctx, mint, state); err != nil {
		return err
	}
	return ctx.WriteState(destProgram, dest, tokenAccountDiscriminator, destState)
}

// Burn burns amount from source, signed by the source owner.
func Burn(ctx *runtime.Context, mint, source, authority solana.PublicKey, amount uint64) error {
	state, _, err := GetMint(ctx, mint)
	if err != nil {
		return err
	}
	srcState, srcProgram, err := GetAccount(ctx, source)
	if err != nil {
		return err
	}
	if !srcState.Mint.Equals(mint) {
		return fmt.Errorf("%w: %s", ErrMintMismatch, source)
	}
	if !srcState.Owner.Equals(authority) {
		return fmt.Errorf("%w: %s", ErrNotAccountOwner, authority)
	}
	if err := ctx.RequireSigner(authority); err != nil {
		return err
	}
	if srcState.Amount < amount {
		return fmt.Errorf("%w: %s holds %d of %d", ErrInsufficientBalance, source, srcState.Amount, amount)
	}

	srcState.Amount -= amount
	state.Supply -= amount
	if err := ctx.WriteState(srcProgram, source, tokenAccountDiscriminator, srcState); err != nil {
		return err
	}
	return writeMint(ctx, mint, state)
}

// TransferChecked moves amount between accounts of the same mint,
// validating decimals, signed by the source owner.
func TransferChecked(ctx *runtime.Context, source, dest, mint, authority solana.PublicKey, amount uint64, decimals uint8) error {
	_, err := transfer(ctx, source, dest, mint, authority, amount, decimals, false)
	return err
}

// TransferCheckedWithFee is TransferChecked through the transfer-fee
// extension. It returns the net amount credited to dest.
func TransferCheckedWithFee(ctx *runtime.Context, source, dest, mint, authority solana.PublicKey, amount uint64, decimals uint8) (uint64, error) {
	return transfer(ctx, source, dest, mint, authority, amount, decimals, true)
}

func transfer(ctx *runtime.Context, source, dest, mint, authority solana.PublicKey, amount uint64, decimals uint8, withFee bool) (uint64, error) {
	mintState, _, err := GetMint(ctx, mint)
	if err != nil {
		return 0, err
	}
	if mintState.Decimals != decimals {
		return 0, fmt.Errorf("%w: mint has %d, caller declared %d", ErrDecimalsMismatch, mintState.Decimals, decimals)
	}
	if withFee && mintState.TransferFee == nil {
		return 0, fmt.Errorf("%w: %s", ErrNoTransferFee, mint)
	}

	srcState, srcProgram, err := GetAccount(ctx, source)
	if err != nil {
		return 0, err
	}
	destState, destProgram, err := GetAccount(ctx, dest)
	if err != nil {
		return 0, err
	}
	if !srcState.Mint.Equals(mint) || !destState.Mint.Equals(mint) {
		return 0, fmt.Errorf("%w: transfer between %s and %s", ErrMintMismatch, source, dest)
	}
	if !srcState.Owner.Equals(authority) {
		return 0, fmt.Errorf("%w: %s", ErrNotAccountOwner, authority)
	}
	if err := ctx.RequireSigner(authority); err != nil {
		return 0, err
	}
	if srcState.Amount < amount {
		return 0, fmt.Errorf("%w: %s holds %d of %d", ErrInsufficientBalance, source, srcState.Amount, amount)
	}

	var fee uint64
	if withFee {
		fee = mintState.TransferFee.Fee(amount)
	}
	received := amount - fee

	srcState.Amount -= amount
	destState.Amount += received
	// the withheld fee accrues to the mint's fee vault, modeled as burned
	// supply until fees are harvested
	if fee > 0 {
		mintState.Supply -= fee
		if err := writeMint(ctx, mint, mintState); err != nil {
			return 0, err
		}
	}
	if err := ctx.WriteState(srcProgram, source, tokenAccountDiscriminator, srcState); err != nil {
		return 0, err
	}
	if err := ctx.WriteState(destProgram, dest, tokenAccountDiscriminator, destState); err != nil {
		return 0, err
	}
	return received, nil
}

func writeMint(ctx *runtime.Context, mint solana.PublicKey, state *Mint) error {
	acct := ctx.Account(mint)
	if acct == nil {
		return fmt.Errorf("%w: mint %s", runtime.ErrNotInitialized, mint)
	}
	return ctx.WriteState(acct.Owner, mint, mintDiscriminator, state)
}

func borshSize(v interface{}) (int, error) {
	b, err := bin.MarshalBorsh(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", runtime.ErrInvalidAccountData, err)
	}
	return len(b) + discriminator.Length, nil
}
