// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package constraints

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/starkoracles/aero-prover/codec"
	"github.com/starkoracles/aero-prover/external/testdouble"
	"github.com/starkoracles/aero-prover/field"
)

func elems(vs ...uint64) []field.Element {
	out := make([]field.Element, len(vs))
	for i, v := range vs {
		out[i] = field.New(v)
	}
	return out
}

func TestProcessEvaluatesOwnFragmentOnly(t *testing.T) {
	lib := testdouble.Library{}
	lde := [][]field.Element{elems(1, 2, 3, 4, 5, 6)}

	item := codec.ConstraintWorkItem{
		TraceInfo:      []byte("ti"),
		PublicInputs:   []byte("pi"),
		ProofOptions:   []byte("po"),
		TraceLDE:       lde,
		FragmentOffset: 1,
		NumFragments:   3,
	}
	result, err := Process(item, lib)
	require.NoError(t, err)
	require.Equal(t, 1, result.FragmentOffset)
	require.Equal(t, 3, result.NumFragments)
	require.Len(t, result.Evaluations[0], 2) // 6 rows / 3 fragments
}

func TestProcessRejectsOutOfRangeFragmentOffset(t *testing.T) {
	lib := testdouble.Library{}
	item := codec.ConstraintWorkItem{
		TraceInfo:      []byte("ti"),
		PublicInputs:   []byte("pi"),
		ProofOptions:   []byte("po"),
		TraceLDE:       [][]field.Element{elems(1, 2)},
		FragmentOffset: 5,
		NumFragments:   2,
	}
	_, err := Process(item, lib)
	require.Error(t, err)
}

func TestHandlerRoundTripsThroughCodec(t *testing.T) {
	lib := testdouble.Library{}
	item := codec.ConstraintWorkItem{
		TraceInfo:      []byte("ti"),
		PublicInputs:   []byte("pi"),
		ProofOptions:   []byte("po"),
		TraceLDE:       [][]field.Element{elems(1, 2, 3, 4)},
		FragmentOffset: 0,
		NumFragments:   2,
	}
	handler := Handler(lib)
	out, err := handler(item.Encode())
	require.NoError(t, err)

	result, err := codec.DecodeConstraintComputeResult(out)
	require.NoError(t, err)
	require.Equal(t, 0, result.FragmentOffset)
}

func TestHandlerRejectsBadMessage(t *testing.T) {
	handler := Handler(testdouble.Library{})
	_, err := handler([]byte{1})
	require.Error(t, err)
}
