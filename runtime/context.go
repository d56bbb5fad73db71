// Copyright (C) 2025-2026, Eiger Oy. All rights reserved.
// See the file LICENSE for licensing terms.

package runtime

import (
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/eigerco/axelar-amplifier-solana-sub000/discriminator"
)

// Context is the execution context of a single program invocation. It
// carries the executing program's identity, the set of keys that signed
// this invocation (transaction signers plus PDAs asserted through
// invoke_signed seeds), and access to the ledger, clock, and event log.
type Context struct {
	rt      *Runtime
	program solana.PublicKey
	signers map[solana.PublicKey]struct{}
	depth   int
}

// ProgramID returns the currently executing program.
func (c *Context) ProgramID() solana.PublicKey {
	return c.program
}

// Clock returns the chain clock, in unix seconds.
func (c *Context) Clock() int64 {
	return c.rt.clock
}

// Logger returns the runtime logger scoped to the executing program.
func (c *Context) Logger() *zap.Logger {
	return c.rt.log.With(zap.Stringer("program", c.program))
}

// UpgradeAuthority returns the executing program's upgrade authority,
// or the zero key if the program is immutable.
func (c *Context) UpgradeAuthority() solana.PublicKey {
	return c.rt.upgradeAuth[c.program]
}

// IsSigner reports whether pk signed this invocation.
func (c *Context) IsSigner(pk solana.PublicKey) bool {
	_, ok := c.signers[pk]
	return ok
}

// RequireSigner fails with ErrMissingSignature unless pk signed.
func (c *Context) RequireSigner(pk solana.PublicKey) error {
	if !c.IsSigner(pk) {
		return fmt.Errorf("%w: %s", ErrMissingSignature, pk)
	}
	return nil
}

// Account returns the live account for pk, or nil if absent.
func (c *Context) Account(pk solana.PublicKey) *Account {
	return c.rt.ledger.Get(pk)
}

// Exists reports whether pk holds an initialized account.
func (c *Context) Exists(pk solana.PublicKey) bool {
	acct := c.rt.ledger.Get(pk)
	return acct != nil && (len(acct.Data) > 0 || !acct.IsSystemOwned())
}

// Create initializes a rent-exempt account owned by owner, funded by
// payer. The payer must have signed unless it is a PDA of the executing
// program asserted through invoke_signed.
func (c *Context) Create(pk solana.PublicKey, space int, owner, payer solana.PublicKey) (*Account, error) {
	if c.Exists(pk) {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyInitialized, pk)
	}
	if err := c.RequireSigner(payer); err != nil {
		return nil, fmt.Errorf("payer: %w", err)
	}

	rent := RentExemptMinimum(space)
	payerAcct := c.rt.ledger.Get(payer)
	if payerAcct == nil || payerAcct.Lamports < rent {
		return nil, fmt.Errorf("%w: payer %s cannot fund %d lamports of rent", ErrInsufficientFunds, payer, rent)
	}
	payerAcct.Lamports -= rent

	acct := c.rt.ledger.Get(pk)
	if acct == nil {
		acct = &Account{}
		c.rt.ledger.Put(pk, acct)
	}
	acct.Lamports += rent
	acct.Owner = owner
	acct.Data = make([]byte, 0, space)
	return acct, nil
}

// InitPDA derives the PDA for seeds under the executing program, creates
// it rent-exempt with the program as owner, and returns the address and
// bump.
func (c *Context) InitPDA(seeds [][]byte, space int, payer solana.PublicKey) (solana.PublicKey, uint8, error) {
	pda, bump, err := solana.FindProgramAddress(seeds, c.program)
	if err != nil {
		return solana.PublicKey{}, 0, fmt.Errorf("%w: %v", ErrDerivedPDAMismatch, err)
	}
	if _, err := c.Create(pda, space, c.program, payer); err != nil {
		return solana.PublicKey{}, 0, err
	}
	return pda, bump, nil
}

// VerifyPDA checks that pk is the PDA derived from seeds and bump under
// program.
func VerifyPDA(pk solana.PublicKey, seeds [][]byte, bump uint8, program solana.PublicKey) error {
	full := append(append([][]byte{}, seeds...), []byte{bump})
	derived, err := solana.CreateProgramAddress(full, program)
	if err != nil || !derived.Equals(pk) {
		return fmt.Errorf("%w: %s is not the pda for the given seeds", ErrDerivedPDAMismatch, pk)
	}
	return nil
}

// Close moves the account's lamports to receiver and wipes it. Only the
// owning program may close an account.
func (c *Context) Close(pk, receiver solana.PublicKey) error {
	acct := c.rt.ledger.Get(pk)
	if acct == nil {
		return fmt.Errorf("%w: %s", ErrNotInitialized, pk)
	}
	if !acct.Owner.Equals(c.program) {
		return fmt.Errorf("%w: %s is owned by %s", ErrIncorrectOwner, pk, acct.Owner)
	}
	recv := c.rt.ledger.Get(receiver)
	if recv == nil {
		recv = &Account{Owner: solana.SystemProgramID}
		c.rt.ledger.Put(receiver, recv)
	}
	recv.Lamports += acct.Lamports
	c.rt.ledger.Delete(pk)
	return nil
}

// TransferLamports moves lamports between accounts. Debits require
// either a wallet signature or program ownership of the source.
func (c *Context) TransferLamports(from, to solana.PublicKey, lamports uint64) error {
	src := c.rt.ledger.Get(from)
	if src == nil {
		return fmt.Errorf("%w: %s", ErrNotInitialized, from)
	}
	switch {
	case src.Owner.Equals(c.program):
		// program-owned vaults are debited under program authority
	case src.IsSystemOwned():
		if err := c.RequireSigner(from); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w: %s is owned by %s", ErrIncorrectOwner, from, src.Owner)
	}
	if src.Lamports < lamports {
		return fmt.Errorf("%w: %s holds %d of %d lamports", ErrInsufficientFunds, from, src.Lamports, lamports)
	}
	// program-owned accounts must stay rent exempt
	if !src.IsSystemOwned() && src.Lamports-lamports < RentExemptMinimum(len(src.Data)) {
		return fmt.Errorf("%w: transfer would break rent exemption of %s", ErrInsufficientFunds, from)
	}

	dst := c.rt.ledger.Get(to)
	if dst == nil {
		dst = &Account{Owner: solana.SystemProgramID}
		c.rt.ledger.Put(to, dst)
	}
	src.Lamports -= lamports
	dst.Lamports += lamports
	return nil
}

// WriteState borsh-serializes v behind its account discriminator into an
// account the given program owns. The caller context must either be that
// program or be executing an inlined handler of it (token program model).
func (c *Context) WriteState(owner, pk solana.PublicKey, disc discriminator.Discriminator, v interface{}) error {
	return c.writeData(owner, pk, disc[:], v)
}

// WriteRawState is WriteState for the intentionally empty-discriminated
// account types (gateway config, gas treasury).
func (c *Context) WriteRawState(owner, pk solana.PublicKey, v interface{}) error {
	return c.writeData(owner, pk, nil, v)
}

func (c *Context) writeData(owner, pk solana.PublicKey, prefix []byte, v interface{}) error {
	acct := c.rt.ledger.Get(pk)
	if acct == nil {
		return fmt.Errorf("%w: %s", ErrNotInitialized, pk)
	}
	if !acct.Owner.Equals(owner) {
		return fmt.Errorf("%w: %s is owned by %s, not %s", ErrIncorrectOwner, pk, acct.Owner, owner)
	}
	body, err := bin.MarshalBorsh(v)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidAccountData, err)
	}
	data := make([]byte, 0, len(prefix)+len(body))
	data = append(data, prefix...)
	data = append(data, body...)
	if acct.Lamports < RentExemptMinimum(len(data)) {
		return fmt.Errorf("%w: %s is not rent exempt for %d bytes", ErrInsufficientFunds, pk, len(data))
	}
	acct.Data = data
	return nil
}

// ReadState deserializes an account owned by the given program, checking
// the discriminator.
func (c *Context) ReadState(owner, pk solana.PublicKey, disc discriminator.Discriminator, v interface{}) error {
	body, err := c.readData(owner, pk)
	if err != nil {
		return err
	}
	body, err = discriminator.Split(disc, body)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidAccountData, err)
	}
	if err := bin.UnmarshalBorsh(v, body); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidAccountData, err)
	}
	return nil
}

// ReadRawState is ReadState for empty-discriminated account types.
func (c *Context) ReadRawState(owner, pk solana.PublicKey, v interface{}) error {
	body, err := c.readData(owner, pk)
	if err != nil {
		return err
	}
	if err := bin.UnmarshalBorsh(v, body); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidAccountData, err)
	}
	return nil
}

func (c *Context) readData(owner, pk solana.PublicKey) ([]byte, error) {
	acct := c.rt.ledger.Get(pk)
	if acct == nil || len(acct.Data) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotInitialized, pk)
	}
	if !acct.Owner.Equals(owner) {
		return nil, fmt.Errorf("%w: %s is owned by %s, not %s", ErrIncorrectOwner, pk, acct.Owner, owner)
	}
	return acct.Data, nil
}

// SignWithSeeds asserts a PDA signature for an inlined handler, the way
// invoke_signed would for a real cross-program call: the seeds must
// re-derive to a PDA under the executing program, which is then treated
// as a signer for the rest of this invocation.
func (c *Context) SignWithSeeds(seeds [][]byte) (solana.PublicKey, error) {
	pda, err := solana.CreateProgramAddress(seeds, c.program)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("%w: %v", ErrDerivedPDAMismatch, err)
	}
	c.signers[pda] = struct{}{}
	return pda, nil
}

// InvokeSigned performs a cross-program invocation. Each seed group must
// re-derive to a PDA under the calling program; those PDAs sign the
// callee's context. Transaction signers do not propagate implicitly:
// only accounts marked as signers in the instruction metas that also
// signed the current context carry through.
func (c *Context) InvokeSigned(ix Instruction, signerSeeds ...[][]byte) error {
	if c.depth+1 >= maxInvokeDepth {
		return ErrCallDepthExceeded
	}
	prog, ok := c.rt.programs[ix.ProgramID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownProgram, ix.ProgramID)
	}

	signers := make(map[solana.PublicKey]struct{})
	for _, seeds := range signerSeeds {
		pda, err := solana.CreateProgramAddress(seeds, c.program)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrDerivedPDAMismatch, err)
		}
		signers[pda] = struct{}{}
	}
	for _, meta := range ix.Accounts {
		if meta.IsSigner && c.IsSigner(meta.PublicKey) {
			signers[meta.PublicKey] = struct{}{}
		}
	}

	callee := &Context{
		rt:      c.rt,
		program: ix.ProgramID,
		signers: signers,
		depth:   c.depth + 1,
	}
	return prog.Execute(callee, ix)
}

// EmitEvent records a structured event. The event authority PDA derived
// from seeds under the executing program acts as the self-CPI signer
// that makes the record attributable to the program.
func (c *Context) EmitEvent(authoritySeeds [][]byte, disc discriminator.Discriminator, v interface{}) error {
	if _, err := solana.CreateProgramAddress(authoritySeeds, c.program); err != nil {
		return fmt.Errorf("%w: event authority: %v", ErrDerivedPDAMismatch, err)
	}
	body, err := bin.MarshalBorsh(v)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInstructionData, err)
	}
	c.rt.events = append(c.rt.events, Event{
		Program:       c.program,
		Discriminator: disc,
		Data:          body,
	})
	return nil
}
