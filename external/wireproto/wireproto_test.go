// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package wireproto

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/starkoracles/aero-prover/proverrors"
)

func TestProofOptionsRoundTrip(t *testing.T) {
	in := ProofOptions{
		NumQueries:          27,
		BlowupFactor:        8,
		GrindingFactor:      17,
		HashFn:              HashBlake2s256,
		FieldExtension:      ExtensionNone,
		FriFoldingFactor:    16,
		FriMaxRemainderSize: 128,
		PrimeField:          FieldGoldilocks,
	}
	out, err := DecodeProofOptions(EncodeProofOptions(in))
	require.NoError(t, err)
	require.Equal(t, in, out)
}

func TestProofOptionsValidateAcceptsOnlyTheSupportedConfiguration(t *testing.T) {
	base := ProofOptions{HashFn: HashBlake2s256, FieldExtension: ExtensionNone, PrimeField: FieldGoldilocks}
	require.NoError(t, base.Validate())

	badHash := base
	badHash.HashFn = HashBlake3_256
	require.ErrorIs(t, badHash.Validate(), proverrors.ErrUnsupported)

	badExt := base
	badExt.FieldExtension = ExtensionQuadratic
	require.ErrorIs(t, badExt.Validate(), proverrors.ErrUnsupported)

	badField := base
	badField.PrimeField = FieldOther
	require.ErrorIs(t, badField.Validate(), proverrors.ErrUnsupported)
}

func TestDecodeProofOptionsRejectsTrailingBytes(t *testing.T) {
	encoded := EncodeProofOptions(ProofOptions{})
	_, err := DecodeProofOptions(append(encoded, 0xFF))
	require.ErrorIs(t, err, proverrors.ErrBadInput)
}

func TestDecodeProofOptionsRejectsShortMessage(t *testing.T) {
	_, err := DecodeProofOptions([]byte{1, 2})
	require.ErrorIs(t, err, proverrors.ErrBadInput)
}

func TestMidenProgramRoundTrip(t *testing.T) {
	in := MidenProgram{Program: "begin repeat.9 swap dup.1 add end end"}
	out, err := DecodeMidenProgram(EncodeMidenProgram(in))
	require.NoError(t, err)
	require.Equal(t, in, out)
}

func TestMidenProgramInputsRoundTrip(t *testing.T) {
	in := MidenProgramInputs{
		StackInit:  []uint64{0, 1},
		AdviceTape: []uint64{},
	}
	out, err := DecodeMidenProgramInputs(EncodeMidenProgramInputs(in))
	require.NoError(t, err)
	require.Equal(t, len(in.StackInit), len(out.StackInit))
	require.Equal(t, in.StackInit, out.StackInit)
	require.Empty(t, out.AdviceTape)
}

func TestHashFnStringsCoverKnownValues(t *testing.T) {
	require.Equal(t, "blake2s_256", HashBlake2s256.String())
	require.Equal(t, "blake3_256", HashBlake3_256.String())
	require.Equal(t, "sha3_256", HashSha3_256.String())
	require.Contains(t, HashFn(99).String(), "99")
}
