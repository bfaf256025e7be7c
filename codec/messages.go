// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package codec

import (
	"github.com/starkoracles/aero-prover/field"
)

// HashingWorkItem is dispatched to a hashing worker: a batch index and
// the LDE rows belonging to that batch, in LDE row order.
type HashingWorkItem struct {
	BatchIndex int
	Rows       [][]field.Element
}

func (w HashingWorkItem) Encode() []byte {
	b := newWriter(64 + len(w.Rows)*32)
	b.u32(uint32(w.BatchIndex))
	b.u32(uint32(len(w.Rows)))
	for _, row := range w.Rows {
		b.row(row)
	}
	return b.buf
}

func DecodeHashingWorkItem(data []byte) (HashingWorkItem, error) {
	r := newReader(data)
	idx, err := r.u32()
	if err != nil {
		return HashingWorkItem{}, err
	}
	n, err := r.u32()
	if err != nil {
		return HashingWorkItem{}, err
	}
	rows := make([][]field.Element, n)
	for i := range rows {
		row, err := r.row()
		if err != nil {
			return HashingWorkItem{}, err
		}
		rows[i] = row
	}
	if err := r.trailingErr(); err != nil {
		return HashingWorkItem{}, err
	}
	return HashingWorkItem{BatchIndex: int(idx), Rows: rows}, nil
}

// HashingResult carries the digests for one batch, in the same order
// as the HashingWorkItem's rows.
type HashingResult struct {
	BatchIndex int
	Hashes     []field.Digest
}

func (r HashingResult) Encode() []byte {
	b := newWriter(8 + len(r.Hashes)*32)
	b.u32(uint32(r.BatchIndex))
	b.digests(r.Hashes)
	return b.buf
}

func DecodeHashingResult(data []byte) (HashingResult, error) {
	r := newReader(data)
	idx, err := r.u32()
	if err != nil {
		return HashingResult{}, err
	}
	hashes, err := r.digests()
	if err != nil {
		return HashingResult{}, err
	}
	if err := r.trailingErr(); err != nil {
		return HashingResult{}, err
	}
	return HashingResult{BatchIndex: int(idx), Hashes: hashes}, nil
}

// ConstraintWorkItem is dispatched to a constraint worker: everything
// needed to reconstruct the AIR and evaluator and fill exactly one
// fragment of the constraint-evaluation domain. TraceInfo,
// PublicInputs, ProofOptions, AuxRandElements, and CompositionCoeffs
// are opaque library byte blobs, delegated to the external STARK
// library's own serialization — this module only length-prefixes and
// forwards them.
type ConstraintWorkItem struct {
	TraceInfo         []byte
	PublicInputs      []byte
	ProofOptions      []byte
	AuxRandElements   []byte
	CompositionCoeffs []byte
	TraceLDE          [][]field.Element // column-major, serialized LDE
	FragmentOffset    int
	NumFragments      int
}

func (w ConstraintWorkItem) Encode() []byte {
	b := newWriter(256 + matrixSizeHint(w.TraceLDE))
	b.bytes(w.TraceInfo)
	b.bytes(w.PublicInputs)
	b.bytes(w.ProofOptions)
	b.bytes(w.AuxRandElements)
	b.bytes(w.CompositionCoeffs)
	b.matrix(w.TraceLDE)
	b.u32(uint32(w.FragmentOffset))
	b.u32(uint32(w.NumFragments))
	return b.buf
}

func matrixSizeHint(m [][]field.Element) int {
	n := 0
	for _, col := range m {
		n += len(col) * 8
	}
	return n
}

func DecodeConstraintWorkItem(data []byte) (ConstraintWorkItem, error) {
	r := newReader(data)
	var w ConstraintWorkItem
	var err error
	if w.TraceInfo, err = r.bytes(); err != nil {
		return ConstraintWorkItem{}, err
	}
	if w.PublicInputs, err = r.bytes(); err != nil {
		return ConstraintWorkItem{}, err
	}
	if w.ProofOptions, err = r.bytes(); err != nil {
		return ConstraintWorkItem{}, err
	}
	if w.AuxRandElements, err = r.bytes(); err != nil {
		return ConstraintWorkItem{}, err
	}
	if w.CompositionCoeffs, err = r.bytes(); err != nil {
		return ConstraintWorkItem{}, err
	}
	if w.TraceLDE, err = r.matrix(); err != nil {
		return ConstraintWorkItem{}, err
	}
	offset, err := r.u32()
	if err != nil {
		return ConstraintWorkItem{}, err
	}
	num, err := r.u32()
	if err != nil {
		return ConstraintWorkItem{}, err
	}
	w.FragmentOffset = int(offset)
	w.NumFragments = int(num)
	if err := r.trailingErr(); err != nil {
		return ConstraintWorkItem{}, err
	}
	return w, nil
}

// ConstraintComputeResult carries one fragment's column-major
// evaluations, tagged with its offset and the partition size it was
// computed against.
type ConstraintComputeResult struct {
	FragmentOffset int
	NumFragments   int
	Evaluations    [][]field.Element // column-major
}

func (r ConstraintComputeResult) Encode() []byte {
	b := newWriter(64 + matrixSizeHint(r.Evaluations))
	b.u32(uint32(r.FragmentOffset))
	b.u32(uint32(r.NumFragments))
	b.matrix(r.Evaluations)
	return b.buf
}

func DecodeConstraintComputeResult(data []byte) (ConstraintComputeResult, error) {
	r := newReader(data)
	offset, err := r.u32()
	if err != nil {
		return ConstraintComputeResult{}, err
	}
	num, err := r.u32()
	if err != nil {
		return ConstraintComputeResult{}, err
	}
	evals, err := r.matrix()
	if err != nil {
		return ConstraintComputeResult{}, err
	}
	if err := r.trailingErr(); err != nil {
		return ConstraintComputeResult{}, err
	}
	return ConstraintComputeResult{FragmentOffset: int(offset), NumFragments: int(num), Evaluations: evals}, nil
}

// ProvingWorkItem is the single message Client Handle sends to the
// orchestrator thread to start a parallel or sequential proving run.
type ProvingWorkItem struct {
	Program       []byte
	ProgramInputs []byte
	ProofOptions  []byte
	BatchSize     int
	IsSequential  bool
}

func (w ProvingWorkItem) Encode() []byte {
	b := newWriter(64 + len(w.Program) + len(w.ProgramInputs) + len(w.ProofOptions))
	b.bytes(w.Program)
	b.bytes(w.ProgramInputs)
	b.bytes(w.ProofOptions)
	b.u32(uint32(w.BatchSize))
	if w.IsSequential {
		b.u32(1)
	} else {
		b.u32(0)
	}
	return b.buf
}

func DecodeProvingWorkItem(data []byte) (ProvingWorkItem, error) {
	r := newReader(data)
	var w ProvingWorkItem
	var err error
	if w.Program, err = r.bytes(); err != nil {
		return ProvingWorkItem{}, err
	}
	if w.ProgramInputs, err = r.bytes(); err != nil {
		return ProvingWorkItem{}, err
	}
	if w.ProofOptions, err = r.bytes(); err != nil {
		return ProvingWorkItem{}, err
	}
	batchSize, err := r.u32()
	if err != nil {
		return ProvingWorkItem{}, err
	}
	seqFlag, err := r.u32()
	if err != nil {
		return ProvingWorkItem{}, err
	}
	w.BatchSize = int(batchSize)
	w.IsSequential = seqFlag != 0
	if err := r.trailingErr(); err != nil {
		return ProvingWorkItem{}, err
	}
	return w, nil
}

// ProverOutput is the single response message sent back to Client
// Handle: encoded proof, program outputs, and public inputs.
type ProverOutput struct {
	Proof          []byte
	ProgramOutputs []byte
	PublicInputs   []byte
}

func (o ProverOutput) Encode() []byte {
	b := newWriter(len(o.Proof) + len(o.ProgramOutputs) + len(o.PublicInputs) + 16)
	b.bytes(o.Proof)
	b.bytes(o.ProgramOutputs)
	b.bytes(o.PublicInputs)
	return b.buf
}

func DecodeProverOutput(data []byte) (ProverOutput, error) {
	r := newReader(data)
	var o ProverOutput
	var err error
	if o.Proof, err = r.bytes(); err != nil {
		return ProverOutput{}, err
	}
	if o.ProgramOutputs, err = r.bytes(); err != nil {
		return ProverOutput{}, err
	}
	if o.PublicInputs, err = r.bytes(); err != nil {
		return ProverOutput{}, err
	}
	if err := r.trailingErr(); err != nil {
		return ProverOutput{}, err
	}
	return o, nil
}
