// Copyright 2024 The saferotp Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package otp

import (
	"errors"
	"fmt"

	"github.com/SimpleHacks/saferotp/otp/byte3x"
	"github.com/SimpleHacks/saferotp/otp/ecc"
	"github.com/SimpleHacks/saferotp/otp/shadow"
	"github.com/SimpleHacks/saferotp/otp/vote"
)

// Engine is the safer access layer over OTP fuse memory: it holds the
// capabilities (component 2's raw facade, component 3's shadow,
// component 4's codec, component 8's wait-for-key gate) that its
// methods dispatch across, and exposes the read/write/verify
// operations of every redundancy scheme as plain Go methods.
//
// An Engine is not safe for concurrent use: per spec, the caller
// serializes access the same way the boot-ROM primitive expects.
type Engine struct {
	backend Backend
	shadow  *shadow.Store
	virtual bool

	codec Codec

	waitForKey bool
	waiter     KeyWaiter
}

// NewEngine returns an Engine backed by backend (typically a
// HardwareBackend) and using codec to encode/decode ECC rows. The
// returned Engine starts non-virtualized, with no wait-for-key gate.
func NewEngine(backend Backend, codec Codec) *Engine {
	return &Engine{
		backend: backend,
		shadow:  shadow.New(),
		codec:   codec,
		waiter:  NoWait{},
	}
}

// SetKeyWaiter installs w as the wait-for-key callback. A nil w
// restores the no-op default.
func (e *Engine) SetKeyWaiter(w KeyWaiter) {
	if w == nil {
		w = NoWait{}
	}
	e.waiter = w
}

// SetWaitForKey enables or disables the wait-for-key gate (component
// 8). When enabled, every hardware write blocks on the installed
// KeyWaiter before reaching the backend; shadow writes are unaffected.
func (e *Engine) SetWaitForKey(enabled bool) {
	e.waitForKey = enabled
}

// Virtualized reports whether VirtualizationInit has switched the
// Engine onto its shadow store.
func (e *Engine) Virtualized() bool {
	return e.virtual
}

// VirtualizationInit primes the shadow store by reading every row not
// covered by ignoredPagesMask from the backend, then switches the
// Engine onto the shadow for every subsequent raw operation. It fails
// if called twice.
func (e *Engine) VirtualizationInit(ignoredPagesMask uint64) error {
	hw := func(row uint16) (uint32, error) {
		buf := make([]uint32, 1)
		if err := e.backend.ReadRaw(row, buf); err != nil {
			return 0, err
		}
		return buf[0], nil
	}
	if err := e.shadow.Init(ignoredPagesMask, hw); err != nil {
		if errors.Is(err, shadow.ErrReinit) {
			return fmt.Errorf("otp: virtualization already initialized: %w", ErrReinit)
		}
		return err
	}
	e.virtual = true
	return nil
}

// VirtualizationRestore unconditionally overwrites rows [start,
// start+len(buf)) of the shadow store, bypassing monotonicity. It
// exists for loading a known-good snapshot (see otp/snapshot) and has
// no effect on real hardware.
func (e *Engine) VirtualizationRestore(start uint16, buf []uint32) error {
	if err := validateRange(start, len(buf)*4); err != nil {
		return err
	}
	return e.shadow.Restore(start, buf)
}

// ShadowStore returns the Engine's underlying shadow store, for
// callers (such as otp/snapshot) that need to marshal or inspect it
// directly rather than through the raw facade.
func (e *Engine) ShadowStore() *shadow.Store {
	return e.shadow
}

// AdoptShadow replaces the Engine's shadow store with store and
// switches the Engine onto it, as if VirtualizationInit had populated
// it directly. It is meant for loading a previously marshaled
// snapshot (see otp/snapshot).
func (e *Engine) AdoptShadow(store *shadow.Store) error {
	if store == nil {
		return fmt.Errorf("otp: AdoptShadow called with a nil store: %w", ErrUnsupportedParameters)
	}
	e.shadow = store
	e.virtual = true
	return nil
}

// VirtualizationSave unconditionally copies rows [start,
// start+len(buf)) out of the shadow store into buf, bypassing error
// flags.
func (e *Engine) VirtualizationSave(start uint16, buf []uint32) error {
	if err := validateRange(start, len(buf)*4); err != nil {
		return err
	}
	return e.shadow.Save(start, buf)
}

// translateShadowErr maps the shadow package's own sentinels onto the
// otp package's public error vocabulary, so callers only ever need to
// check against the otp sentinels regardless of whether the Engine is
// virtualized.
func translateShadowErr(err error, write bool) error {
	switch {
	case errors.Is(err, shadow.ErrRowError):
		if write {
			return fmt.Errorf("%w: %w", ErrHardwareWrite, err)
		}
		return fmt.Errorf("%w: %w", ErrHardwareRead, err)
	case errors.Is(err, shadow.ErrMonotonicity):
		return fmt.Errorf("%w: %w", ErrMonotonicity, err)
	case errors.Is(err, shadow.ErrRange):
		return fmt.Errorf("%w: %w", ErrRange, err)
	default:
		return err
	}
}

// readRaw dispatches a raw read to the shadow store or the hardware
// backend depending on virtualization state (component 2/3).
func (e *Engine) readRaw(start uint16, buf []uint32) error {
	if err := validateRange(start, len(buf)*4); err != nil {
		return err
	}
	if e.virtual {
		if err := e.shadow.ReadRaw(start, buf); err != nil {
			return translateShadowErr(err, false)
		}
		return nil
	}
	if err := e.backend.ReadRaw(start, buf); err != nil {
		return fmt.Errorf("otp: hardware read at row %#03x: %w", start, err)
	}
	return nil
}

// writeRaw dispatches a raw write to the shadow store or the hardware
// backend, applying the wait-for-key gate only on the hardware path
// (component 8 has no effect on shadow writes).
func (e *Engine) writeRaw(start uint16, buf []uint32) error {
	if err := validateRange(start, len(buf)*4); err != nil {
		return err
	}
	if e.virtual {
		if err := e.shadow.WriteRaw(start, buf); err != nil {
			return translateShadowErr(err, true)
		}
		return nil
	}
	if e.waitForKey {
		e.waiter.WaitForKey()
	}
	if err := e.backend.WriteRaw(start, buf); err != nil {
		return fmt.Errorf("otp: hardware write at row %#03x: %w", start, err)
	}
	return nil
}

// ReadSingleRawUnsafe reads one row's raw 32 bit value, bypassing
// every redundancy scheme.
func (e *Engine) ReadSingleRawUnsafe(row uint16) (uint32, error) {
	buf := make([]uint32, 1)
	if err := e.readRaw(row, buf); err != nil {
		return 0, err
	}
	return buf[0], nil
}

// WriteSingleRawUnsafe writes one row's raw 32 bit value directly,
// bypassing every redundancy scheme. value's upper 8 bits must be
// zero.
func (e *Engine) WriteSingleRawUnsafe(row uint16, value uint32) error {
	if value&^RawMask != 0 {
		return fmt.Errorf("otp: raw value %#08x at row %#03x has non-zero upper byte: %w", value, row, ErrUnsupportedParameters)
	}
	return e.writeRaw(row, []uint32{value})
}

// ReadSingleECC decodes row through the ECC row engine (component 4).
func (e *Engine) ReadSingleECC(row uint16) (uint16, error) {
	raw, err := e.ReadSingleRawUnsafe(row)
	if err != nil {
		return 0, err
	}
	v, ok := e.codec.Decode(raw)
	if !ok {
		return 0, fmt.Errorf("otp: row %#03x failed to decode as ECC: %w", row, ErrDecode)
	}
	return v, nil
}

// WriteSingleECC reconciles value against row's existing contents per
// the ECC engine's BRBP-aware selection rule (component 4, spec.md
// §4.4), writes if needed, and verifies the row reads back as value.
func (e *Engine) WriteSingleECC(row uint16, value uint16) error {
	existing, err := e.ReadSingleRawUnsafe(row)
	if err != nil {
		return err
	}

	plan := ecc.Reconcile(existing, value, e.codec)
	if !plan.Possible {
		return fmt.Errorf("otp: row %#03x cannot be reconciled to decode as %#04x: %w", row, value, ErrDecode)
	}
	if !plan.WriteNeeded {
		return nil
	}

	if err := e.writeRaw(row, []uint32{plan.ToWrite}); err != nil {
		return err
	}

	got, err := e.ReadSingleECC(row)
	if err != nil {
		return err
	}
	if got != value {
		return fmt.Errorf("otp: row %#03x read back %#04x after ECC write, want %#04x: %w", row, got, value, ErrVerification)
	}
	return nil
}

// ReadSingleByte3x decodes row through the byte-3x engine (component
// 5): the per-bit majority of the row's three data bytes.
func (e *Engine) ReadSingleByte3x(row uint16) (uint8, error) {
	raw, err := e.ReadSingleRawUnsafe(row)
	if err != nil {
		return 0, err
	}
	return byte3x.Decode(raw), nil
}

// WriteSingleByte3x writes value into row's three data bytes,
// refusing to clear any bit that already carries a 2-of-3 vote, and
// verifies the row decodes back to value.
func (e *Engine) WriteSingleByte3x(row uint16, value uint8) error {
	existing, err := e.ReadSingleRawUnsafe(row)
	if err != nil {
		return err
	}

	plan := byte3x.PlanWrite(existing, value)
	if !plan.Possible {
		return fmt.Errorf("otp: row %#03x: byte-3x write would clear a voted-set bit: %w", row, ErrVoteClear)
	}
	if !plan.WriteNeeded {
		return nil
	}

	if err := e.writeRaw(row, []uint32{plan.ToWrite}); err != nil {
		return err
	}

	got, err := e.ReadSingleByte3x(row)
	if err != nil {
		return err
	}
	if got != value {
		return fmt.Errorf("otp: row %#03x read back %#02x after byte-3x write, want %#02x: %w", row, got, value, ErrVerification)
	}
	return nil
}

// readVoteRows reads m consecutive rows starting at start, recording
// per-row success or failure rather than aborting on the first error,
// since the N-of-M engine (component 6) tolerates individual row
// failures.
func (e *Engine) readVoteRows(start uint16, m int) ([]vote.Row, error) {
	if int(start)+m > NumRows {
		return nil, fmt.Errorf("otp: rbit range [%#03x, +%d) exceeds OTP row space: %w", start, m, ErrRange)
	}
	rows := make([]vote.Row, m)
	for i := 0; i < m; i++ {
		raw, err := e.ReadSingleRawUnsafe(start + uint16(i))
		if err != nil {
			rows[i] = vote.Row{Ok: false}
			continue
		}
		rows[i] = vote.Row{Raw: raw, Ok: true}
	}
	return rows, nil
}

// readRBIT implements the N-of-M voting read shared by RBIT-3 and
// RBIT-8.
func (e *Engine) readRBIT(start uint16, n, m int) (uint32, error) {
	if !vote.Supported(n, m) {
		return 0, fmt.Errorf("otp: unsupported voting parameters (%d, %d): %w", n, m, ErrUnsupportedParameters)
	}
	rows, err := e.readVoteRows(start, m)
	if err != nil {
		return 0, err
	}
	value, ok := vote.Decode(rows, n)
	if !ok {
		return 0, fmt.Errorf("otp: rbit%d read at row %#03x lacks quorum: %w", m, start, ErrQuorum)
	}
	return value, nil
}

// writeRBIT implements the N-of-M voting write shared by RBIT-3 and
// RBIT-8: individual row-write failures are tolerated (the row is
// simply left as-is) so long as the final re-read confirms the
// requested value.
func (e *Engine) writeRBIT(start uint16, n, m int, value uint32) error {
	if !vote.Supported(n, m) {
		return fmt.Errorf("otp: unsupported voting parameters (%d, %d): %w", n, m, ErrUnsupportedParameters)
	}

	current, err := e.readRBIT(start, n, m)
	if err == nil && current&^value != 0 {
		return fmt.Errorf("otp: rbit%d write at row %#03x would clear voted-set bits %#06x: %w", m, start, current&^value, ErrVoteClear)
	}

	for i := 0; i < m; i++ {
		row := start + uint16(i)
		raw, err := e.ReadSingleRawUnsafe(row)
		if err != nil {
			continue
		}
		toWrite, needed := vote.PlanRowWrite(raw, value)
		if !needed {
			continue
		}
		// A single row's write failure is tolerated and the loop
		// continues; the final quorum read below is the real verdict.
		_ = e.writeRaw(row, []uint32{toWrite})
	}

	got, err := e.readRBIT(start, n, m)
	if err != nil {
		return err
	}
	if got != value {
		return fmt.Errorf("otp: rbit%d read back %#06x after write at row %#03x, want %#06x: %w", m, got, start, value, ErrVerification)
	}
	return nil
}

// ReadSingleRBIT3 decodes the 2-of-3 vote across the three rows
// starting at start.
func (e *Engine) ReadSingleRBIT3(start uint16) (uint32, error) {
	return e.readRBIT(start, 2, 3)
}

// WriteSingleRBIT3 writes value across the three rows starting at
// start per the 2-of-3 voting write rule.
func (e *Engine) WriteSingleRBIT3(start uint16, value uint32) error {
	return e.writeRBIT(start, 2, 3, value)
}

// ReadSingleRBIT8 decodes the 3-of-8 vote across the eight rows
// starting at start.
func (e *Engine) ReadSingleRBIT8(start uint16) (uint32, error) {
	return e.readRBIT(start, 3, 8)
}

// WriteSingleRBIT8 writes value across the eight rows starting at
// start per the 3-of-8 voting write rule.
func (e *Engine) WriteSingleRBIT8(start uint16, value uint32) error {
	return e.writeRBIT(start, 3, 8, value)
}
