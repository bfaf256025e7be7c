// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package codec

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/starkoracles/aero-prover/field"
)

func elems(vs ...uint64) []field.Element {
	out := make([]field.Element, len(vs))
	for i, v := range vs {
		out[i] = field.New(v)
	}
	return out
}

func TestHashingWorkItemRoundTrip(t *testing.T) {
	item := HashingWorkItem{
		BatchIndex: 0,
		Rows:       [][]field.Element{elems(1, 2), elems(3, 4)},
	}
	decoded, err := DecodeHashingWorkItem(item.Encode())
	require.NoError(t, err)
	require.Equal(t, item, decoded)
}

func TestHashingResultRoundTrip(t *testing.T) {
	result := HashingResult{
		BatchIndex: 7,
		Hashes:     []field.Digest{{1, 2, 3}, {4, 5, 6}},
	}
	decoded, err := DecodeHashingResult(result.Encode())
	require.NoError(t, err)
	require.Equal(t, result, decoded)
}

func TestConstraintWorkItemRoundTrip(t *testing.T) {
	item := ConstraintWorkItem{
		TraceInfo:         []byte("trace-info"),
		PublicInputs:      []byte("public-inputs"),
		ProofOptions:      []byte("proof-options"),
		AuxRandElements:   []byte("aux-rand"),
		CompositionCoeffs: []byte("coeffs"),
		TraceLDE: [][]field.Element{
			elems(1, 2),
			elems(2, 11),
		},
		FragmentOffset: 0,
		NumFragments:   8,
	}
	decoded, err := DecodeConstraintWorkItem(item.Encode())
	require.NoError(t, err)
	require.Equal(t, item, decoded)
}

func TestConstraintComputeResultRoundTrip(t *testing.T) {
	result := ConstraintComputeResult{
		FragmentOffset: 3,
		NumFragments:   8,
		Evaluations:    [][]field.Element{elems(9, 8, 7), elems(1, 2, 3)},
	}
	decoded, err := DecodeConstraintComputeResult(result.Encode())
	require.NoError(t, err)
	require.Equal(t, result, decoded)
}

func TestProvingWorkItemRoundTrip(t *testing.T) {
	item := ProvingWorkItem{
		Program:       []byte("begin end"),
		ProgramInputs: []byte("inputs"),
		ProofOptions:  []byte("options"),
		BatchSize:     1024,
		IsSequential:  true,
	}
	decoded, err := DecodeProvingWorkItem(item.Encode())
	require.NoError(t, err)
	require.Equal(t, item, decoded)
}

func TestProverOutputRoundTrip(t *testing.T) {
	out := ProverOutput{
		Proof:          []byte{1, 2, 3},
		ProgramOutputs: []byte{4, 5},
		PublicInputs:   []byte{6},
	}
	decoded, err := DecodeProverOutput(out.Encode())
	require.NoError(t, err)
	require.Equal(t, out, decoded)
}

func TestDecodeRejectsShortMessages(t *testing.T) {
	_, err := DecodeHashingWorkItem([]byte{1, 2})
	require.Error(t, err)

	_, err = DecodeHashingResult(nil)
	require.Error(t, err)

	_, err = DecodeConstraintWorkItem([]byte{0, 0, 0, 0})
	require.Error(t, err)
}

func TestDecodeRejectsTrailingGarbage(t *testing.T) {
	item := HashingWorkItem{BatchIndex: 0, Rows: [][]field.Element{elems(1)}}
	encoded := append(item.Encode(), 0xFF)
	_, err := DecodeHashingWorkItem(encoded)
	require.Error(t, err)
}

func TestDecodeRejectsNonCanonicalElement(t *testing.T) {
	item := HashingWorkItem{BatchIndex: 0, Rows: [][]field.Element{elems(1, 2)}}
	encoded := item.Encode()
	// Corrupt the first row element's 8-byte LE encoding to exceed the
	// Goldilocks modulus (0xFFFFFFFF00000001), which must be rejected.
	offset := len(encoded) - 2*8 // two elements, little-endian at tail
	for i := 0; i < 8; i++ {
		encoded[offset+i] = 0xFF
	}
	_, err := DecodeHashingWorkItem(encoded)
	require.Error(t, err)
}
