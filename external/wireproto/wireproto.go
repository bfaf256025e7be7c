// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package wireproto decodes the protocol-buffer-style messages the
// caller sends across the Client API boundary: MidenProgram,
// MidenProgramInputs, and ProofOptions. Unlike the inter-thread codec
// package, these three schemas are owned by the external caller, not
// by this module — but ProofOptions carries the hash function, field
// extension, and prime field the orchestrator must validate before
// any worker is dispatched, so its decode lives here rather than
// behind the VM/StarkLibrary boundary.
package wireproto

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/starkoracles/aero-prover/proverrors"
)

// HashFn is the element-hasher enum carried by ProofOptions.
type HashFn uint32

const (
	HashBlake2s256 HashFn = 0
	HashBlake3_256 HashFn = 1
	HashSha3_256   HashFn = 2
)

func (h HashFn) String() string {
	switch h {
	case HashBlake2s256:
		return "blake2s_256"
	case HashBlake3_256:
		return "blake3_256"
	case HashSha3_256:
		return "sha3_256"
	default:
		return fmt.Sprintf("hash_fn(%d)", uint32(h))
	}
}

// FieldExtension is the trace field-extension-degree enum carried by
// ProofOptions.
type FieldExtension uint32

const (
	ExtensionNone      FieldExtension = 0
	ExtensionQuadratic FieldExtension = 1
	ExtensionCubic     FieldExtension = 2
)

func (e FieldExtension) String() string {
	switch e {
	case ExtensionNone:
		return "none"
	case ExtensionQuadratic:
		return "quadratic"
	case ExtensionCubic:
		return "cubic"
	default:
		return fmt.Sprintf("field_extension(%d)", uint32(e))
	}
}

// PrimeField is the base-field enum carried by ProofOptions.
type PrimeField uint32

const (
	FieldGoldilocks PrimeField = 0
	FieldOther      PrimeField = 1
)

func (p PrimeField) String() string {
	switch p {
	case FieldGoldilocks:
		return "goldilocks"
	default:
		return fmt.Sprintf("prime_field(%d)", uint32(p))
	}
}

// ProofOptions mirrors the caller-supplied ProofOptions record of
// spec §6. num_queries, blowup_factor, grinding_factor,
// fri_folding_factor, and fri_max_remainder_size are carried through
// unvalidated here — they are the STARK library's concern once the
// enum fields below have been checked.
type ProofOptions struct {
	NumQueries          uint32
	BlowupFactor        uint32
	GrindingFactor      uint32
	HashFn              HashFn
	FieldExtension      FieldExtension
	FriFoldingFactor    uint32
	FriMaxRemainderSize uint32
	PrimeField          PrimeField
}

// Validate rejects any ProofOptions outside the single configuration
// this orchestrator accepts: Blake2s-256 hashing, no field extension,
// the Goldilocks prime field. Called before any worker is dispatched.
func (o ProofOptions) Validate() error {
	if o.HashFn != HashBlake2s256 {
		return fmt.Errorf("%w: hash function %s is not implemented, only %s", proverrors.ErrUnsupported, o.HashFn, HashBlake2s256)
	}
	if o.FieldExtension != ExtensionNone {
		return fmt.Errorf("%w: field extension %s is not implemented, only %s", proverrors.ErrUnsupported, o.FieldExtension, ExtensionNone)
	}
	if o.PrimeField != FieldGoldilocks {
		return fmt.Errorf("%w: prime field %s is not implemented, only %s", proverrors.ErrUnsupported, o.PrimeField, FieldGoldilocks)
	}
	return nil
}

// EncodeProofOptions serializes o as a sequence of varint fields,
// field order matching the struct declaration.
func EncodeProofOptions(o ProofOptions) []byte {
	buf := make([]byte, 0, 64)
	buf = protowire.AppendVarint(buf, uint64(o.NumQueries))
	buf = protowire.AppendVarint(buf, uint64(o.BlowupFactor))
	buf = protowire.AppendVarint(buf, uint64(o.GrindingFactor))
	buf = protowire.AppendVarint(buf, uint64(o.HashFn))
	buf = protowire.AppendVarint(buf, uint64(o.FieldExtension))
	buf = protowire.AppendVarint(buf, uint64(o.FriFoldingFactor))
	buf = protowire.AppendVarint(buf, uint64(o.FriMaxRemainderSize))
	buf = protowire.AppendVarint(buf, uint64(o.PrimeField))
	return buf
}

// DecodeProofOptions parses the wire form EncodeProofOptions produces,
// failing with ErrBadInput on a short read or malformed varint.
func DecodeProofOptions(b []byte) (ProofOptions, error) {
	var o ProofOptions
	pos := 0
	next := func(name string) (uint64, error) {
		v, n := protowire.ConsumeVarint(b[pos:])
		if n < 0 {
			return 0, fmt.Errorf("%w: malformed %s in proof options", proverrors.ErrBadInput, name)
		}
		pos += n
		return v, nil
	}
	numQueries, err := next("num_queries")
	if err != nil {
		return o, err
	}
	blowup, err := next("blowup_factor")
	if err != nil {
		return o, err
	}
	grinding, err := next("grinding_factor")
	if err != nil {
		return o, err
	}
	hashFn, err := next("hash_fn")
	if err != nil {
		return o, err
	}
	fieldExt, err := next("field_extension")
	if err != nil {
		return o, err
	}
	friFold, err := next("fri_folding_factor")
	if err != nil {
		return o, err
	}
	friMaxRem, err := next("fri_max_remainder_size")
	if err != nil {
		return o, err
	}
	primeField, err := next("prime_field")
	if err != nil {
		return o, err
	}
	if pos != len(b) {
		return o, fmt.Errorf("%w: %d trailing bytes in proof options", proverrors.ErrBadInput, len(b)-pos)
	}
	o = ProofOptions{
		NumQueries:          uint32(numQueries),
		BlowupFactor:        uint32(blowup),
		GrindingFactor:      uint32(grinding),
		HashFn:              HashFn(hashFn),
		FieldExtension:      FieldExtension(fieldExt),
		FriFoldingFactor:    uint32(friFold),
		FriMaxRemainderSize: uint32(friMaxRem),
		PrimeField:          PrimeField(primeField),
	}
	return o, nil
}

// MidenProgram mirrors the caller-supplied MidenProgram record: a
// single UTF-8 source-text field.
type MidenProgram struct {
	Program string
}

// EncodeMidenProgram serializes p as a single length-delimited field.
func EncodeMidenProgram(p MidenProgram) []byte {
	return protowire.AppendBytes(nil, []byte(p.Program))
}

// DecodeMidenProgram parses the wire form EncodeMidenProgram produces.
func DecodeMidenProgram(b []byte) (MidenProgram, error) {
	v, n := protowire.ConsumeBytes(b)
	if n < 0 {
		return MidenProgram{}, fmt.Errorf("%w: malformed program source field", proverrors.ErrBadInput)
	}
	if n != len(b) {
		return MidenProgram{}, fmt.Errorf("%w: %d trailing bytes in program", proverrors.ErrBadInput, len(b)-n)
	}
	return MidenProgram{Program: string(v)}, nil
}

// MidenProgramInputs mirrors the caller-supplied MidenProgramInputs
// record: the initial operand stack and the advice tape, both u64
// sequences.
type MidenProgramInputs struct {
	StackInit  []uint64
	AdviceTape []uint64
}

func appendU64Slice(buf []byte, vs []uint64) []byte {
	buf = protowire.AppendVarint(buf, uint64(len(vs)))
	for _, v := range vs {
		buf = protowire.AppendVarint(buf, v)
	}
	return buf
}

// EncodeMidenProgramInputs serializes in as two varint-counted u64
// sequences, stack_init then advice_tape.
func EncodeMidenProgramInputs(in MidenProgramInputs) []byte {
	buf := make([]byte, 0, 16+8*(len(in.StackInit)+len(in.AdviceTape)))
	buf = appendU64Slice(buf, in.StackInit)
	buf = appendU64Slice(buf, in.AdviceTape)
	return buf
}

func consumeU64Slice(b []byte, pos int, name string) ([]uint64, int, error) {
	n, m := protowire.ConsumeVarint(b[pos:])
	if m < 0 {
		return nil, 0, fmt.Errorf("%w: malformed %s length", proverrors.ErrBadInput, name)
	}
	pos += m
	out := make([]uint64, n)
	for i := range out {
		v, k := protowire.ConsumeVarint(b[pos:])
		if k < 0 {
			return nil, 0, fmt.Errorf("%w: malformed %s element %d", proverrors.ErrBadInput, name, i)
		}
		out[i] = v
		pos += k
	}
	return out, pos, nil
}

// DecodeMidenProgramInputs parses the wire form
// EncodeMidenProgramInputs produces.
func DecodeMidenProgramInputs(b []byte) (MidenProgramInputs, error) {
	stackInit, pos, err := consumeU64Slice(b, 0, "stack_init")
	if err != nil {
		return MidenProgramInputs{}, err
	}
	adviceTape, pos, err := consumeU64Slice(b, pos, "advice_tape")
	if err != nil {
		return MidenProgramInputs{}, err
	}
	if pos != len(b) {
		return MidenProgramInputs{}, fmt.Errorf("%w: %d trailing bytes in program inputs", proverrors.ErrBadInput, len(b)-pos)
	}
	return MidenProgramInputs{StackInit: stackInit, AdviceTape: adviceTape}, nil
}
