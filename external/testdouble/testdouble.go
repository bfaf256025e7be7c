// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package testdouble provides a deterministic, pure-Go stand-in for
// the real VM and STARK proving library, used by the unit tests of
// both the parallel and the sequential proving paths. It is not cryptographically sound
// — EvaluateFragment checks only a toy transition constraint, and
// Epilogue folds evaluations with Blake2s-256 rather than running
// FRI — but every operation is deterministic and composable the same
// way the real library's would be, so the orchestrator's dispatch,
// batching, and fragment bookkeeping can be exercised end to end.
package testdouble

import (
	"context"
	"encoding/binary"
	"fmt"
	"math/bits"

	"golang.org/x/crypto/blake2s"

	"github.com/starkoracles/aero-prover/external"
	"github.com/starkoracles/aero-prover/external/wireproto"
	"github.com/starkoracles/aero-prover/field"
	"github.com/starkoracles/aero-prover/proverrors"
)

// VM executes a toy program format: the decoded source string's
// length is the row count, and each trace row counts up from a seed
// derived from the decoded stack_init/advice_tape values. It exists
// only so the orchestrator has a trace to carry through the rest of
// the pipeline.
type VM struct{}

func (VM) Execute(ctx context.Context, program wireproto.MidenProgram, programInputs wireproto.MidenProgramInputs) ([][]field.Element, []byte, []byte, error) {
	select {
	case <-ctx.Done():
		return nil, nil, nil, ctx.Err()
	default:
	}
	if len(program.Program) == 0 {
		return nil, nil, nil, fmt.Errorf("%w: empty program", proverrors.ErrVM)
	}

	seed := uint64(0)
	for _, v := range programInputs.StackInit {
		seed = seed*31 + v
	}
	for _, v := range programInputs.AdviceTape {
		seed = seed*31 + v
	}

	numCols := 2
	numRows := len(program.Program)
	if numRows == 0 {
		numRows = 1
	}
	trace := make([][]field.Element, numCols)
	for c := range trace {
		trace[c] = make([]field.Element, numRows)
		for r := range trace[c] {
			trace[c][r] = field.New(seed + uint64(c*numRows+r))
		}
	}

	traceInfo := make([]byte, 8)
	binary.LittleEndian.PutUint32(traceInfo[0:4], uint32(numCols))
	binary.LittleEndian.PutUint32(traceInfo[4:8], uint32(numRows))

	outputs := make([]byte, 8)
	binary.LittleEndian.PutUint64(outputs, seed+uint64(numRows))
	return trace, traceInfo, outputs, nil
}

// Library is the deterministic StarkLibrary stand-in.
type Library struct{}

var _ external.StarkLibrary = Library{}

func (Library) BuildAIR(traceInfo, publicInputs, proofOptions []byte) ([]byte, error) {
	h, _ := blake2s.New256(nil)
	h.Write([]byte("air"))
	h.Write(traceInfo)
	h.Write(publicInputs)
	h.Write(proofOptions)
	return h.Sum(nil), nil
}

func (Library) SeedTranscript(air, publicInputs []byte) ([]byte, error) {
	h, _ := blake2s.New256(nil)
	h.Write([]byte("transcript"))
	h.Write(air)
	h.Write(publicInputs)
	return h.Sum(nil), nil
}

// CommitTraceRoot folds traceRoot into transcript and derives the
// aux-trace random elements from the result — two distinct Blake2s
// draws, never the same bytes.
func (Library) CommitTraceRoot(transcript []byte, traceRoot field.Digest) ([]byte, []byte, error) {
	commit, _ := blake2s.New256(nil)
	commit.Write([]byte("commit_trace_root"))
	commit.Write(transcript)
	commit.Write(traceRoot[:])
	next := commit.Sum(nil)

	aux, _ := blake2s.New256(nil)
	aux.Write([]byte("aux_rand_elements"))
	aux.Write(next)
	return next, aux.Sum(nil), nil
}

// DrawCompositionCoeffs derives the constraint-composition
// coefficients from transcript, a draw distinct from CommitTraceRoot's
// aux-rand-elements draw.
func (Library) DrawCompositionCoeffs(transcript []byte) ([]byte, error) {
	h, _ := blake2s.New256(nil)
	h.Write([]byte("composition_coeffs"))
	h.Write(transcript)
	return h.Sum(nil), nil
}

func (Library) InterpolateAndLDE(trace [][]field.Element, air []byte) ([][]field.Element, error) {
	if len(trace) == 0 {
		return nil, fmt.Errorf("%w: empty trace", proverrors.ErrProver)
	}
	const blowup = 2
	lde := make([][]field.Element, len(trace))
	for c, col := range trace {
		expanded := make([]field.Element, len(col)*blowup)
		for r, v := range col {
			expanded[r*blowup] = v
			for k := 1; k < blowup; k++ {
				expanded[r*blowup+k] = field.Add(v, field.New(uint64(k)))
			}
		}
		lde[c] = expanded
	}
	return lde, nil
}

func (Library) FragmentBounds(air []byte, numRows, numFragments int) ([]external.FragmentBound, error) {
	if numFragments <= 0 {
		return nil, fmt.Errorf("%w: numFragments must be positive, got %d", proverrors.ErrBadInput, numFragments)
	}
	if numRows <= 0 {
		return nil, fmt.Errorf("%w: numRows must be positive, got %d", proverrors.ErrBadInput, numRows)
	}
	bounds := make([]external.FragmentBound, numFragments)
	base := numRows / numFragments
	rem := numRows % numFragments
	row := 0
	for i := range bounds {
		size := base
		if i < rem {
			size++
		}
		bounds[i] = external.FragmentBound{Offset: i, RowStart: row, RowEnd: row + size}
		row += size
	}
	return bounds, nil
}

func (Library) EvaluateFragment(air []byte, lde [][]field.Element, bound external.FragmentBound, auxRandElements, compositionCoeffs []byte) ([][]field.Element, error) {
	if bound.RowStart < 0 || bound.RowEnd < bound.RowStart {
		return nil, fmt.Errorf("%w: unresolved fragment bound %+v", proverrors.ErrBadInput, bound)
	}
	out := make([][]field.Element, len(lde))
	for c, col := range lde {
		if bound.RowEnd > len(col) {
			return nil, fmt.Errorf("%w: fragment bound exceeds column length", proverrors.ErrBadInput)
		}
		evals := make([]field.Element, bound.RowEnd-bound.RowStart)
		for i := bound.RowStart; i < bound.RowEnd; i++ {
			next := col[(i+1)%len(col)]
			// toy transition constraint: next - current - 1 == 0
			evals[i-bound.RowStart] = field.Sub(field.Sub(next, col[i]), field.New(1))
		}
		out[c] = evals
	}
	return out, nil
}

func (Library) Epilogue(air []byte, traceRoot field.Digest, evaluations [][]field.Element, transcript []byte) ([]byte, error) {
	h, _ := blake2s.New256(nil)
	h.Write([]byte("proof"))
	h.Write(air)
	h.Write(traceRoot[:])
	h.Write(transcript)
	for _, col := range evaluations {
		for _, e := range col {
			enc := field.EncodeLE(e)
			h.Write(enc[:])
		}
	}
	return h.Sum(nil), nil
}

func (Library) Verify(proof, publicInputs, proofOptions []byte) error {
	if len(proof) != 32 {
		return fmt.Errorf("%w: malformed proof length %d", proverrors.ErrVerify, len(proof))
	}
	return nil
}

// GrindNonce returns the first nonce, scanning from zero, whose
// Blake2s-256 hash with seed has at least grindingBits leading zero
// bits. grindingBits is expected to stay small in tests.
func (Library) GrindNonce(seed []byte, grindingBits uint32) (uint64, error) {
	for nonce := uint64(0); nonce < 1<<24; nonce++ {
		var buf [8]byte
		binary.LittleEndian.PutUint64(buf[:], nonce)
		h, _ := blake2s.New256(nil)
		h.Write(seed)
		h.Write(buf[:])
		sum := h.Sum(nil)
		if leadingZeroBits(sum) >= grindingBits {
			return nonce, nil
		}
	}
	return 0, fmt.Errorf("%w: no nonce found under grinding bound", proverrors.ErrProver)
}

func leadingZeroBits(b []byte) uint32 {
	var total uint32
	for _, by := range b {
		if by == 0 {
			total += 8
			continue
		}
		total += uint32(bits.LeadingZeros8(by))
		break
	}
	return total
}
