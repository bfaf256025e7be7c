// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package external declares the boundary between this orchestrator
// and the actual VM and STARK proving library. Those libraries are
// large, native-code-backed dependencies outside this module's scope;
// everything the orchestrator needs from them is expressed here as an
// interface, with a deterministic reference implementation in this
// package's testdouble subpackage used by this module's tests. The
// orchestrator's sequential path calls whichever implementation it was
// constructed with, the same as its parallel path.
package external

import (
	"context"

	"github.com/starkoracles/aero-prover/external/wireproto"
	"github.com/starkoracles/aero-prover/field"
)

// FragmentBound describes one slice of the constraint-evaluation
// domain: the rows [RowStart, RowEnd) a single dispatched fragment is
// responsible for filling.
type FragmentBound struct {
	Offset   int
	RowStart int
	RowEnd   int
}

// VMExecutor runs a decoded Miden program to completion and returns
// its execution trace as a column-major matrix, the opaque
// trace-metadata blob the proving library needs to rebuild the AIR,
// and the program's declared outputs. program and programInputs have
// already passed through wireproto's decode and carry no further
// validation obligation.
type VMExecutor interface {
	Execute(ctx context.Context, program wireproto.MidenProgram, programInputs wireproto.MidenProgramInputs) (trace [][]field.Element, traceInfo []byte, outputs []byte, err error)
}

// StarkLibrary is every proving-library operation the orchestrator
// drives directly. AIR descriptors, transcripts, and proofs are
// opaque byte blobs owned by the library; this module never inspects
// their contents, only threads them between calls and across the
// wire.
type StarkLibrary interface {
	// BuildAIR reconstructs the algebraic intermediate representation
	// from trace metadata, public inputs, and proof options.
	BuildAIR(traceInfo, publicInputs, proofOptions []byte) (air []byte, err error)

	// SeedTranscript derives the initial Fiat-Shamir transcript seed
	// for air and publicInputs, before the trace has been committed.
	SeedTranscript(air, publicInputs []byte) (transcript []byte, err error)

	// CommitTraceRoot folds the sealed trace commitment traceRoot into
	// transcript and draws the aux-trace random elements the
	// constraint evaluator needs from the resulting channel state.
	// Must only be called after the trace Merkle tree has been built —
	// randomness drawn here depends on the commitment, never the
	// reverse.
	CommitTraceRoot(transcript []byte, traceRoot field.Digest) (nextTranscript, auxRandElements []byte, err error)

	// DrawCompositionCoeffs draws the constraint-composition
	// coefficients from the channel. Called after CommitTraceRoot; the
	// coefficients are a distinct draw from the aux-trace random
	// elements, never the same bytes reused.
	DrawCompositionCoeffs(transcript []byte) (compositionCoeffs []byte, err error)

	// InterpolateAndLDE interpolates trace into polynomials and
	// evaluates them over the low-degree-extension domain air
	// describes, returning the LDE as column-major field elements.
	InterpolateAndLDE(trace [][]field.Element, air []byte) (lde [][]field.Element, err error)

	// FragmentBounds partitions a domain of numRows rows into
	// numFragments contiguous row ranges.
	FragmentBounds(air []byte, numRows, numFragments int) ([]FragmentBound, error)

	// EvaluateFragment evaluates every transition and boundary
	// constraint air declares over the rows bound describes,
	// returning column-major evaluations for just that fragment.
	EvaluateFragment(air []byte, lde [][]field.Element, bound FragmentBound, auxRandElements, compositionCoeffs []byte) (evaluations [][]field.Element, err error)

	// Epilogue folds the committed trace root and every fragment's
	// constraint evaluations into a FRI proof plus whatever further
	// transcript rounds the library needs, returning the encoded
	// proof bytes.
	Epilogue(air []byte, traceRoot field.Digest, evaluations [][]field.Element, transcript []byte) (proof []byte, err error)

	// Verify checks a previously produced proof against publicInputs
	// and proofOptions.
	Verify(proof, publicInputs, proofOptions []byte) error

	// GrindNonce performs proof-of-work grinding against seed,
	// returning the first nonce whose combined hash has at least
	// grindingBits leading zero bits.
	GrindNonce(seed []byte, grindingBits uint32) (nonce uint64, err error)
}
