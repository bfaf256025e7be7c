// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package prover implements the proving orchestrator: the state
// machine that takes a program and its inputs through execution,
// trace commitment, constraint evaluation, and proof encoding, fanning
// the row-hashing and constraint-evaluation stages out across the two
// worker banks in workerpool.Pool.
package prover

import (
	"context"
	"encoding/binary"
	"fmt"
	"sync"
	"time"

	log "github.com/luxfi/log"
	"golang.org/x/crypto/blake2s"
	"golang.org/x/sync/errgroup"

	"github.com/starkoracles/aero-prover/codec"
	"github.com/starkoracles/aero-prover/external"
	"github.com/starkoracles/aero-prover/external/wireproto"
	"github.com/starkoracles/aero-prover/field"
	"github.com/starkoracles/aero-prover/hashing"
	"github.com/starkoracles/aero-prover/internal/obslog"
	"github.com/starkoracles/aero-prover/internal/obsmetrics"
	"github.com/starkoracles/aero-prover/merkle"
	"github.com/starkoracles/aero-prover/proverrors"
	"github.com/starkoracles/aero-prover/trace"
	"github.com/starkoracles/aero-prover/workerpool"
)

// State is one stage of the proving state machine.
type State string

const (
	StateIdle               State = "idle"
	StateDecoded            State = "decoded"
	StateTraced             State = "traced"
	StateCommittedTracePrep State = "committed_trace_prep"
	StateHashing            State = "hashing"
	StateMerkleReady        State = "merkle_ready"
	StateConstraintPrep     State = "constraint_prep"
	StateConstraining       State = "constraining"
	StateEpilogueReady      State = "epilogue_ready"
	StateProven             State = "proven"
	StateEncoded            State = "encoded"
	StateFailed             State = "failed"
)

// Orchestrator drives one prove() or prove_sequential() call at a
// time through the state machine above, dispatching to the worker
// pool for the hashing and constraining stages of a parallel run.
type Orchestrator struct {
	pool *workerpool.Pool
	vm   external.VMExecutor
	lib  external.StarkLibrary
	log  log.Logger

	// GrindingBits enables proof-of-work grinding of the transcript
	// before the epilogue when non-zero. Zero (the default) skips
	// grinding entirely.
	GrindingBits uint32

	mu        sync.Mutex
	state     State
	stageStop func() time.Duration
}

// New constructs an Orchestrator. pool supplies the hashing and
// constraint worker banks; vm and lib are the program executor and
// proving library the state machine drives.
func New(pool *workerpool.Pool, vm external.VMExecutor, lib external.StarkLibrary) *Orchestrator {
	obslog.Init()
	return &Orchestrator{
		pool:  pool,
		vm:    vm,
		lib:   lib,
		log:   obslog.L(),
		state: StateIdle,
	}
}

// State reports the orchestrator's current stage. Safe for concurrent
// use with an in-flight Prove call, though the value may be stale by
// the time it is read.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

func (o *Orchestrator) transition(s State) {
	o.mu.Lock()
	prevStop := o.stageStop
	prevState := o.state
	o.state = s
	o.stageStop = obsmetrics.StageTimer(string(s))
	o.mu.Unlock()
	if prevStop != nil {
		prevStop()
	}
	o.log.Debug("orchestrator state transition", "from", string(prevState), "to", string(s))
	obsmetrics.StageTransitions.WithLabelValues(string(s)).Inc()
}

func (o *Orchestrator) fail(err error) error {
	o.transition(StateFailed)
	o.log.Error("orchestrator failed", "err", err)
	return err
}

// Prove runs item through the state machine, choosing the parallel or
// sequential path per item.IsSequential, and resets to StateIdle on
// success so the orchestrator is ready for the next call. program,
// programInputs, and proofOptions are parsed via the external wire
// schema before anything else happens; any decode failure is
// ErrBadInput and no worker is ever touched.
func (o *Orchestrator) Prove(ctx context.Context, item codec.ProvingWorkItem) (codec.ProverOutput, error) {
	if item.BatchSize <= 0 {
		return codec.ProverOutput{}, o.fail(fmt.Errorf("%w: batch size must be positive, got %d", proverrors.ErrBadInput, item.BatchSize))
	}
	program, err := wireproto.DecodeMidenProgram(item.Program)
	if err != nil {
		return codec.ProverOutput{}, o.fail(err)
	}
	if len(program.Program) == 0 {
		return codec.ProverOutput{}, o.fail(fmt.Errorf("%w: empty program", proverrors.ErrBadInput))
	}
	programInputs, err := wireproto.DecodeMidenProgramInputs(item.ProgramInputs)
	if err != nil {
		return codec.ProverOutput{}, o.fail(err)
	}
	opts, err := wireproto.DecodeProofOptions(item.ProofOptions)
	if err != nil {
		return codec.ProverOutput{}, o.fail(err)
	}
	if err := opts.Validate(); err != nil {
		return codec.ProverOutput{}, o.fail(err)
	}
	o.transition(StateDecoded)

	if item.IsSequential {
		return o.proveSequential(ctx, item, program, programInputs)
	}
	return o.proveParallel(ctx, item, program, programInputs)
}

// HashBankSize reports the number of pinned hashing workers backing
// this orchestrator.
func (o *Orchestrator) HashBankSize() int {
	return o.pool.Hashing.Size()
}

// ConstraintBankSize reports the number of pinned constraint workers
// backing this orchestrator; the parallel path partitions the
// constraint-evaluation domain into exactly this many fragments.
func (o *Orchestrator) ConstraintBankSize() int {
	return o.pool.Constraints.Size()
}

func (o *Orchestrator) trace(ctx context.Context, program wireproto.MidenProgram, programInputs wireproto.MidenProgramInputs) (trace.Matrix, []byte, []byte, error) {
	rawTrace, traceInfo, outputs, err := o.vm.Execute(ctx, program, programInputs)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("%w: %v", proverrors.ErrVM, err)
	}
	o.transition(StateTraced)
	return trace.Matrix(rawTrace), traceInfo, outputs, nil
}

// verify re-runs the library verifier against a freshly produced
// proof; failure here is fatal per the PROVEN -> verify -> ENCODED
// transition, not advisory.
func (o *Orchestrator) verify(proof, publicInputs, proofOptions []byte) error {
	if err := o.lib.Verify(proof, publicInputs, proofOptions); err != nil {
		return fmt.Errorf("%w: %v", proverrors.ErrVerify, err)
	}
	return nil
}

// proveParallel fans the hashing and constraint stages out across the
// worker pool, assembling the final result only from the banks'
// returned messages — never from a locally recomputed duplicate.
func (o *Orchestrator) proveParallel(ctx context.Context, item codec.ProvingWorkItem, program wireproto.MidenProgram, programInputs wireproto.MidenProgramInputs) (codec.ProverOutput, error) {
	rawTrace, traceInfo, outputs, err := o.trace(ctx, program, programInputs)
	if err != nil {
		return codec.ProverOutput{}, o.fail(err)
	}

	o.transition(StateCommittedTracePrep)
	air, err := o.lib.BuildAIR(traceInfo, outputs, item.ProofOptions)
	if err != nil {
		return codec.ProverOutput{}, o.fail(fmt.Errorf("%w: %v", proverrors.ErrProver, err))
	}
	lde, err := o.lib.InterpolateAndLDE(rawTrace, air)
	if err != nil {
		return codec.ProverOutput{}, o.fail(fmt.Errorf("%w: %v", proverrors.ErrProver, err))
	}
	ldeMatrix := trace.Matrix(lde)

	digests, err := o.dispatchHashing(ctx, ldeMatrix, item.BatchSize)
	if err != nil {
		return codec.ProverOutput{}, o.fail(err)
	}

	o.transition(StateMerkleReady)
	tree, err := merkle.Build(digests)
	if err != nil {
		return codec.ProverOutput{}, o.fail(fmt.Errorf("%w: %v", proverrors.ErrProver, err))
	}
	traceRoot := tree.Root()

	o.transition(StateConstraintPrep)
	transcript, err := o.lib.SeedTranscript(air, outputs)
	if err != nil {
		return codec.ProverOutput{}, o.fail(fmt.Errorf("%w: %v", proverrors.ErrProver, err))
	}
	transcript, auxRandElements, err := o.lib.CommitTraceRoot(transcript, traceRoot)
	if err != nil {
		return codec.ProverOutput{}, o.fail(fmt.Errorf("%w: %v", proverrors.ErrProver, err))
	}
	compositionCoeffs, err := o.lib.DrawCompositionCoeffs(transcript)
	if err != nil {
		return codec.ProverOutput{}, o.fail(fmt.Errorf("%w: %v", proverrors.ErrProver, err))
	}
	numFragments := o.ConstraintBankSize()

	o.transition(StateConstraining)
	evaluations, err := o.dispatchConstraints(ctx, constraintDispatchInput{
		traceInfo:         traceInfo,
		publicInputs:      outputs,
		proofOptions:      item.ProofOptions,
		auxRandElements:   auxRandElements,
		compositionCoeffs: compositionCoeffs,
		lde:               lde,
		numFragments:      numFragments,
	})
	if err != nil {
		return codec.ProverOutput{}, o.fail(err)
	}

	o.transition(StateEpilogueReady)
	transcript, err = o.maybeGrind(transcript)
	if err != nil {
		return codec.ProverOutput{}, o.fail(err)
	}
	proof, err := o.lib.Epilogue(air, traceRoot, evaluations, transcript)
	if err != nil {
		return codec.ProverOutput{}, o.fail(fmt.Errorf("%w: %v", proverrors.ErrProver, err))
	}
	o.transition(StateProven)

	if err := o.verify(proof, outputs, item.ProofOptions); err != nil {
		return codec.ProverOutput{}, o.fail(err)
	}

	result := codec.ProverOutput{Proof: proof, ProgramOutputs: outputs, PublicInputs: outputs}
	o.transition(StateEncoded)
	o.transition(StateIdle)
	return result, nil
}

// dispatchHashing fans every row batch out to the hashing bank and
// collects digests purely from worker replies.
func (o *Orchestrator) dispatchHashing(ctx context.Context, lde trace.Matrix, batchSize int) ([]field.Digest, error) {
	o.transition(StateHashing)
	numBatches, err := lde.NumBatches(batchSize)
	if err != nil {
		return nil, err
	}
	if numBatches == 0 {
		return nil, fmt.Errorf("%w: trace LDE has no rows to hash", proverrors.ErrBadInput)
	}
	buffer := merkle.NewRowDigestBuffer(numBatches)

	group, gctx := errgroup.WithContext(ctx)
	for b := 0; b < numBatches; b++ {
		b := b
		group.Go(func() error {
			rows, err := lde.RowBatch(b, batchSize)
			if err != nil {
				return err
			}
			item := codec.HashingWorkItem{BatchIndex: b, Rows: rows}
			out, err := o.pool.Hashing.Dispatch(gctx, b, item.Encode())
			if err != nil {
				return fmt.Errorf("%w: %v", proverrors.ErrWorker, err)
			}
			result, err := codec.DecodeHashingResult(out)
			if err != nil {
				return err
			}
			buffer.Append(result.BatchIndex, result.Hashes)
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	return buffer.Sorted()
}

type constraintDispatchInput struct {
	traceInfo         []byte
	publicInputs      []byte
	proofOptions      []byte
	auxRandElements   []byte
	compositionCoeffs []byte
	lde               [][]field.Element
	numFragments      int
}

// dispatchConstraints fans every fragment out to the constraint bank
// and assembles the final evaluation matrix purely from worker
// replies, deliberately never evaluating a fragment locally as a
// shortcut or cross-check.
func (o *Orchestrator) dispatchConstraints(ctx context.Context, in constraintDispatchInput) (trace.Matrix, error) {
	table := trace.NewConstraintEvaluationTable(in.numFragments, len(in.lde))

	group, gctx := errgroup.WithContext(ctx)
	for f := 0; f < in.numFragments; f++ {
		f := f
		group.Go(func() error {
			item := codec.ConstraintWorkItem{
				TraceInfo:         in.traceInfo,
				PublicInputs:      in.publicInputs,
				ProofOptions:      in.proofOptions,
				AuxRandElements:   in.auxRandElements,
				CompositionCoeffs: in.compositionCoeffs,
				TraceLDE:          in.lde,
				FragmentOffset:    f,
				NumFragments:      in.numFragments,
			}
			out, err := o.pool.Constraints.Dispatch(gctx, f, item.Encode())
			if err != nil {
				return fmt.Errorf("%w: %v", proverrors.ErrWorker, err)
			}
			result, err := codec.DecodeConstraintComputeResult(out)
			if err != nil {
				return err
			}
			return table.SetFragment(result.FragmentOffset, result.FragmentOffset, result.Evaluations)
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	return table.Assemble()
}

// maybeGrind performs proof-of-work grinding against transcript when
// GrindingBits is set, folding the winning nonce back into the
// transcript so the epilogue's challenges depend on it.
func (o *Orchestrator) maybeGrind(transcript []byte) ([]byte, error) {
	if o.GrindingBits == 0 {
		return transcript, nil
	}
	nonce, err := o.lib.GrindNonce(transcript, o.GrindingBits)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", proverrors.ErrProver, err)
	}
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], nonce)
	sum := blake2s.Sum256(append(append([]byte{}, transcript...), buf[:]...))
	return sum[:], nil
}

// proveSequential evaluates every batch and fragment in-process, with
// no worker dispatch at all: the baseline the parallel path is
// measured against.
func (o *Orchestrator) proveSequential(ctx context.Context, item codec.ProvingWorkItem, program wireproto.MidenProgram, programInputs wireproto.MidenProgramInputs) (codec.ProverOutput, error) {
	rawTrace, traceInfo, outputs, err := o.trace(ctx, program, programInputs)
	if err != nil {
		return codec.ProverOutput{}, o.fail(err)
	}

	o.transition(StateCommittedTracePrep)
	air, err := o.lib.BuildAIR(traceInfo, outputs, item.ProofOptions)
	if err != nil {
		return codec.ProverOutput{}, o.fail(fmt.Errorf("%w: %v", proverrors.ErrProver, err))
	}
	lde, err := o.lib.InterpolateAndLDE(rawTrace, air)
	if err != nil {
		return codec.ProverOutput{}, o.fail(fmt.Errorf("%w: %v", proverrors.ErrProver, err))
	}
	ldeMatrix := trace.Matrix(lde)

	o.transition(StateHashing)
	numBatches, err := ldeMatrix.NumBatches(item.BatchSize)
	if err != nil {
		return codec.ProverOutput{}, o.fail(err)
	}
	if numBatches == 0 {
		return codec.ProverOutput{}, o.fail(fmt.Errorf("%w: trace LDE has no rows to hash", proverrors.ErrBadInput))
	}
	digests := make([]field.Digest, 0, ldeMatrix.NumRows())
	for b := 0; b < numBatches; b++ {
		rows, err := ldeMatrix.RowBatch(b, item.BatchSize)
		if err != nil {
			return codec.ProverOutput{}, o.fail(err)
		}
		result := hashing.Process(codec.HashingWorkItem{BatchIndex: b, Rows: rows})
		digests = append(digests, result.Hashes...)
	}

	o.transition(StateMerkleReady)
	tree, err := merkle.Build(digests)
	if err != nil {
		return codec.ProverOutput{}, o.fail(fmt.Errorf("%w: %v", proverrors.ErrProver, err))
	}
	traceRoot := tree.Root()

	o.transition(StateConstraintPrep)
	transcript, err := o.lib.SeedTranscript(air, outputs)
	if err != nil {
		return codec.ProverOutput{}, o.fail(fmt.Errorf("%w: %v", proverrors.ErrProver, err))
	}
	transcript, auxRandElements, err := o.lib.CommitTraceRoot(transcript, traceRoot)
	if err != nil {
		return codec.ProverOutput{}, o.fail(fmt.Errorf("%w: %v", proverrors.ErrProver, err))
	}
	compositionCoeffs, err := o.lib.DrawCompositionCoeffs(transcript)
	if err != nil {
		return codec.ProverOutput{}, o.fail(fmt.Errorf("%w: %v", proverrors.ErrProver, err))
	}
	numFragments := 1
	bounds, err := o.lib.FragmentBounds(air, ldeMatrix.NumRows(), numFragments)
	if err != nil {
		return codec.ProverOutput{}, o.fail(fmt.Errorf("%w: %v", proverrors.ErrProver, err))
	}

	o.transition(StateConstraining)
	evaluations, err := o.lib.EvaluateFragment(air, lde, bounds[0], auxRandElements, compositionCoeffs)
	if err != nil {
		return codec.ProverOutput{}, o.fail(fmt.Errorf("%w: %v", proverrors.ErrProver, err))
	}

	o.transition(StateEpilogueReady)
	transcript, err = o.maybeGrind(transcript)
	if err != nil {
		return codec.ProverOutput{}, o.fail(err)
	}
	proof, err := o.lib.Epilogue(air, traceRoot, evaluations, transcript)
	if err != nil {
		return codec.ProverOutput{}, o.fail(fmt.Errorf("%w: %v", proverrors.ErrProver, err))
	}
	o.transition(StateProven)

	if err := o.verify(proof, outputs, item.ProofOptions); err != nil {
		return codec.ProverOutput{}, o.fail(err)
	}

	result := codec.ProverOutput{Proof: proof, ProgramOutputs: outputs, PublicInputs: outputs}
	o.transition(StateEncoded)
	o.transition(StateIdle)
	return result, nil
}

// Verify delegates to the proving library's own verifier.
func (o *Orchestrator) Verify(proof, publicInputs, proofOptions []byte) error {
	return o.lib.Verify(proof, publicInputs, proofOptions)
}
