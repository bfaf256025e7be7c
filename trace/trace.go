// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package trace holds the column-major matrices that flow through the
// proving pipeline — the raw execution trace, its low-degree
// extension, and the constraint-evaluation table assembled from
// worker fragments — plus the row-batching and fragment-bookkeeping
// helpers the orchestrator uses to split and rejoin them.
package trace

import (
	"fmt"
	"sort"
	"sync"

	"github.com/starkoracles/aero-prover/field"
	"github.com/starkoracles/aero-prover/proverrors"
)

// Matrix is a column-major table of field elements: Matrix[col][row].
type Matrix [][]field.Element

// NumColumns reports the matrix's column count.
func (m Matrix) NumColumns() int {
	return len(m)
}

// NumRows reports the matrix's row count, taken from the first
// column. Matrices are always rectangular.
func (m Matrix) NumRows() int {
	if len(m) == 0 {
		return 0
	}
	return len(m[0])
}

// NumBatches returns how many row batches of size batchSize exactly
// cover every row. batchSize must evenly divide the row count — a
// short last batch is rejected rather than silently produced.
func (m Matrix) NumBatches(batchSize int) (int, error) {
	if batchSize <= 0 {
		return 0, fmt.Errorf("%w: batch size must be positive, got %d", proverrors.ErrBadInput, batchSize)
	}
	rows := m.NumRows()
	if rows%batchSize != 0 {
		return 0, fmt.Errorf("%w: batch size %d does not evenly divide %d trace rows", proverrors.ErrBadInput, batchSize, rows)
	}
	return rows / batchSize, nil
}

// RowBatch extracts rows [batchIndex*batchSize, ...) in row-major
// order, the shape a hashing worker consumes: one []field.Element per
// row, each holding that row's value across every column.
func (m Matrix) RowBatch(batchIndex, batchSize int) ([][]field.Element, error) {
	if batchSize <= 0 {
		return nil, fmt.Errorf("%w: batch size must be positive, got %d", proverrors.ErrBadInput, batchSize)
	}
	rows := m.NumRows()
	start := batchIndex * batchSize
	if start >= rows {
		return nil, fmt.Errorf("%w: batch index %d out of range for %d rows", proverrors.ErrBadInput, batchIndex, rows)
	}
	end := start + batchSize
	if end > rows {
		end = rows
	}
	out := make([][]field.Element, end-start)
	for r := start; r < end; r++ {
		row := make([]field.Element, len(m))
		for c, col := range m {
			row[c] = col[r]
		}
		out[r-start] = row
	}
	return out, nil
}

// ConstraintEvaluationTable assembles the fragments constraint
// workers return into one column-major matrix, keyed by each
// fragment's declared row range so results can be merged regardless
// of arrival order.
type ConstraintEvaluationTable struct {
	mu           sync.Mutex
	numFragments int
	numColumns   int
	fragments    map[int]fragmentEntry
}

type fragmentEntry struct {
	rowStart int
	values   [][]field.Element // column-major, width numColumns
}

// NewConstraintEvaluationTable creates a table expecting exactly
// numFragments distinct fragment offsets, each contributing
// numColumns columns of evaluations.
func NewConstraintEvaluationTable(numFragments, numColumns int) *ConstraintEvaluationTable {
	return &ConstraintEvaluationTable{
		numFragments: numFragments,
		numColumns:   numColumns,
		fragments:    make(map[int]fragmentEntry, numFragments),
	}
}

// SetFragment records one fragment's evaluations at the given row
// offset. Safe for concurrent use by multiple worker-completion
// callbacks.
func (t *ConstraintEvaluationTable) SetFragment(offset, rowStart int, values [][]field.Element) error {
	if len(values) != t.numColumns {
		return fmt.Errorf("%w: fragment has %d columns, want %d", proverrors.ErrWorker, len(values), t.numColumns)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.fragments[offset] = fragmentEntry{rowStart: rowStart, values: values}
	return nil
}

// Complete reports whether every expected fragment offset has arrived.
func (t *ConstraintEvaluationTable) Complete() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.fragments) == t.numFragments
}

// Assemble concatenates fragments in row-offset order into the final
// column-major evaluation matrix. Fails if any expected fragment is
// missing.
func (t *ConstraintEvaluationTable) Assemble() (Matrix, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.fragments) != t.numFragments {
		return nil, fmt.Errorf("%w: constraint evaluation table has %d of %d fragments", proverrors.ErrWorker, len(t.fragments), t.numFragments)
	}
	offsets := make([]int, 0, len(t.fragments))
	for off := range t.fragments {
		offsets = append(offsets, off)
	}
	sort.Slice(offsets, func(i, j int) bool {
		return t.fragments[offsets[i]].rowStart < t.fragments[offsets[j]].rowStart
	})

	out := make(Matrix, t.numColumns)
	for _, off := range offsets {
		entry := t.fragments[off]
		for c := 0; c < t.numColumns; c++ {
			out[c] = append(out[c], entry.values[c]...)
		}
	}
	return out, nil
}
