// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package constraints implements the per-fragment leaf work a
// constraint-bank worker performs: rebuild the AIR from the opaque
// metadata the orchestrator dispatched, resolve this fragment's row
// range, and evaluate every transition and boundary constraint over
// it, entirely through the external.StarkLibrary boundary.
package constraints

import (
	"fmt"

	"github.com/starkoracles/aero-prover/codec"
	"github.com/starkoracles/aero-prover/external"
	"github.com/starkoracles/aero-prover/proverrors"
)

// Process evaluates exactly the fragment item.FragmentOffset names,
// using lib to rebuild the AIR and run the evaluator. The caller is
// responsible for ensuring every worker in a given evaluation round
// is handed the same item.NumFragments, so FragmentBounds partitions
// the domain identically across workers.
func Process(item codec.ConstraintWorkItem, lib external.StarkLibrary) (codec.ConstraintComputeResult, error) {
	air, err := lib.BuildAIR(item.TraceInfo, item.PublicInputs, item.ProofOptions)
	if err != nil {
		return codec.ConstraintComputeResult{}, err
	}

	numRows := 0
	if len(item.TraceLDE) > 0 {
		numRows = len(item.TraceLDE[0])
	}
	bounds, err := lib.FragmentBounds(air, numRows, item.NumFragments)
	if err != nil {
		return codec.ConstraintComputeResult{}, err
	}
	if item.FragmentOffset < 0 || item.FragmentOffset >= len(bounds) {
		return codec.ConstraintComputeResult{}, fmt.Errorf("%w: fragment offset %d out of range for %d fragments", proverrors.ErrBadInput, item.FragmentOffset, len(bounds))
	}
	bound := bounds[item.FragmentOffset]

	evaluations, err := lib.EvaluateFragment(air, item.TraceLDE, bound, item.AuxRandElements, item.CompositionCoeffs)
	if err != nil {
		return codec.ConstraintComputeResult{}, err
	}

	return codec.ConstraintComputeResult{
		FragmentOffset: item.FragmentOffset,
		NumFragments:   item.NumFragments,
		Evaluations:    evaluations,
	}, nil
}

// Handler adapts Process to the workerpool.Handler signature, binding
// a fixed library implementation for every dispatched message.
func Handler(lib external.StarkLibrary) func(payload []byte) ([]byte, error) {
	return func(payload []byte) ([]byte, error) {
		item, err := codec.DecodeConstraintWorkItem(payload)
		if err != nil {
			return nil, err
		}
		result, err := Process(item, lib)
		if err != nil {
			return nil, err
		}
		return result.Encode(), nil
	}
}
