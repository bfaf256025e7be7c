// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package client implements the Client Handle facade: the single
// entry point callers use to request a proof, either by calling Prove
// directly or by sending a raw encoded message the way a host
// embedding this module across a process or language boundary would.
package client

import (
	"context"

	"github.com/starkoracles/aero-prover/codec"
	"github.com/starkoracles/aero-prover/external"
	"github.com/starkoracles/aero-prover/prover"
	"github.com/starkoracles/aero-prover/workerpool"
)

// Handle owns the worker pool and orchestrator for one proving
// session. Callers should keep a Handle alive across multiple Prove
// calls rather than rebuilding the worker pool each time.
type Handle struct {
	orch *prover.Orchestrator
	pool *workerpool.Pool
}

// New constructs a Handle with hashBankSize hashing workers and
// constraintBankSize constraint workers, backed by vm and lib. A bank
// size of 0 defaults to the host's CPU count.
func New(hashBankSize, constraintBankSize int, vm external.VMExecutor, lib external.StarkLibrary, hashHandler, constraintHandler workerpool.Handler) *Handle {
	pool := workerpool.NewPool(hashBankSize, constraintBankSize, hashHandler, constraintHandler)
	return &Handle{
		orch: prover.New(pool, vm, lib),
		pool: pool,
	}
}

// Close tears down the worker pool. A Handle must not be used after
// Close returns.
func (h *Handle) Close() {
	h.pool.Close()
}

// Prove runs the parallel proving path for program against
// programInputs and proofOptions, batching trace rows in groups of
// batchSize for the hashing stage.
func (h *Handle) Prove(ctx context.Context, program, programInputs, proofOptions []byte, batchSize int) (codec.ProverOutput, error) {
	return h.orch.Prove(ctx, codec.ProvingWorkItem{
		Program:       program,
		ProgramInputs: programInputs,
		ProofOptions:  proofOptions,
		BatchSize:     batchSize,
		IsSequential:  false,
	})
}

// ProveSequential runs the single-threaded baseline path: the same
// pipeline as Prove, but with no batch dispatched to the worker pool.
func (h *Handle) ProveSequential(ctx context.Context, program, programInputs, proofOptions []byte, batchSize int) (codec.ProverOutput, error) {
	return h.orch.Prove(ctx, codec.ProvingWorkItem{
		Program:       program,
		ProgramInputs: programInputs,
		ProofOptions:  proofOptions,
		BatchSize:     batchSize,
		IsSequential:  true,
	})
}

// HandleMessage decodes a codec.ProvingWorkItem from raw, runs it
// through Prove or ProveSequential per its IsSequential flag, and
// returns the encoded codec.ProverOutput — the shape of call this
// facade exposes to a host that only speaks byte messages across a
// boundary (a browser Worker, a FFI bridge, a subprocess pipe).
func (h *Handle) HandleMessage(ctx context.Context, raw []byte) ([]byte, error) {
	item, err := codec.DecodeProvingWorkItem(raw)
	if err != nil {
		return nil, err
	}
	out, err := h.orch.Prove(ctx, item)
	if err != nil {
		return nil, err
	}
	return out.Encode(), nil
}

// Verify delegates to the underlying proving library's verifier.
func (h *Handle) Verify(proof, publicInputs, proofOptions []byte) error {
	return h.orch.Verify(proof, publicInputs, proofOptions)
}

// State reports the orchestrator's current proving-pipeline stage.
func (h *Handle) State() prover.State {
	return h.orch.State()
}
