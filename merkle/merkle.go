// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package merkle builds the main-trace commitment: a binary Merkle
// tree over the per-row digests of the trace LDE, combining sibling
// digests with the same Blake2s-256 hash the row digests themselves
// were produced with.
package merkle

import (
	"fmt"
	"sort"
	"sync"

	"golang.org/x/crypto/blake2s"

	"github.com/starkoracles/aero-prover/field"
	"github.com/starkoracles/aero-prover/proverrors"
)

// RowDigestBuffer accumulates (batch_idx, digests) pairs posted back
// by hashing-worker completion callbacks. Multiple workers complete
// concurrently, so the buffer protects its internal map with a mutex.
type RowDigestBuffer struct {
	mu       sync.Mutex
	expected int
	entries  map[int][]field.Digest
}

// NewRowDigestBuffer creates a buffer expecting exactly numBatches
// distinct batch indices before it is considered complete.
func NewRowDigestBuffer(numBatches int) *RowDigestBuffer {
	return &RowDigestBuffer{
		expected: numBatches,
		entries:  make(map[int][]field.Digest, numBatches),
	}
}

// Append records one batch's digests. Safe for concurrent use by
// multiple worker-completion callbacks.
func (b *RowDigestBuffer) Append(batchIndex int, digests []field.Digest) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries[batchIndex] = digests
}

// Len reports how many distinct batch indices have arrived so far.
func (b *RowDigestBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.entries)
}

// Sorted validates that every batch index in [0, expected) is present
// exactly once and returns the concatenated digests in batch-index
// order, independent of arrival order.
func (b *RowDigestBuffer) Sorted() ([]field.Digest, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.entries) != b.expected {
		return nil, fmt.Errorf("%w: row digest buffer has %d entries, want %d", proverrors.ErrWorker, len(b.entries), b.expected)
	}
	indices := make([]int, 0, len(b.entries))
	for idx := range b.entries {
		indices = append(indices, idx)
	}
	sort.Ints(indices)

	var out []field.Digest
	for i, idx := range indices {
		if idx != i {
			return nil, fmt.Errorf("%w: batch index %d missing from row digest buffer", proverrors.ErrWorker, i)
		}
		out = append(out, b.entries[idx]...)
	}
	return out, nil
}

// Tree is a binary Merkle tree over row digests. Leaves are combined
// pairwise bottom-up; Root is the final combined digest.
type Tree struct {
	levels [][]field.Digest // levels[0] = leaves, levels[len-1] = {root}
}

// Build constructs a Merkle tree over leaves. len(leaves) must be a
// power of two: trace LDE row counts are always trace length times
// blowup factor, both powers of two.
func Build(leaves []field.Digest) (*Tree, error) {
	if len(leaves) == 0 {
		return nil, fmt.Errorf("%w: cannot build a Merkle tree over zero leaves", proverrors.ErrProver)
	}
	if len(leaves)&(len(leaves)-1) != 0 {
		return nil, fmt.Errorf("%w: leaf count %d is not a power of two", proverrors.ErrProver, len(leaves))
	}

	levels := make([][]field.Digest, 0, bitLen(len(leaves))+1)
	levels = append(levels, leaves)
	cur := leaves
	for len(cur) > 1 {
		next := make([]field.Digest, len(cur)/2)
		for i := range next {
			next[i] = combine(cur[2*i], cur[2*i+1])
		}
		levels = append(levels, next)
		cur = next
	}
	return &Tree{levels: levels}, nil
}

func bitLen(n int) int {
	l := 0
	for n > 1 {
		n >>= 1
		l++
	}
	return l
}

// combine hashes two sibling digests into their parent, left || right.
func combine(left, right field.Digest) field.Digest {
	var buf [64]byte
	copy(buf[:32], left[:])
	copy(buf[32:], right[:])
	return field.Digest(blake2s.Sum256(buf[:]))
}

// Root returns the tree's root digest, the main-trace commitment.
func (t *Tree) Root() field.Digest {
	last := t.levels[len(t.levels)-1]
	return last[0]
}

// Depth returns the number of levels above the leaves, i.e. log2 of
// the leaf count.
func (t *Tree) Depth() int {
	return len(t.levels) - 1
}

// AuthPath returns the sibling digest at each level on the path from
// leaf index to the root, used for Merkle batch proofs in the wire
// format.
func (t *Tree) AuthPath(leafIndex int) ([]field.Digest, error) {
	if leafIndex < 0 || leafIndex >= len(t.levels[0]) {
		return nil, fmt.Errorf("%w: leaf index %d out of range", proverrors.ErrProver, leafIndex)
	}
	path := make([]field.Digest, 0, t.Depth())
	idx := leafIndex
	for level := 0; level < t.Depth(); level++ {
		siblingIdx := idx ^ 1
		path = append(path, t.levels[level][siblingIdx])
		idx /= 2
	}
	return path, nil
}

// VerifyAuthPath recomputes the root from a leaf and its auth path and
// reports whether it equals root.
func VerifyAuthPath(root field.Digest, leaf field.Digest, leafIndex int, path []field.Digest) bool {
	cur := leaf
	idx := leafIndex
	for _, sibling := range path {
		if idx&1 == 0 {
			cur = combine(cur, sibling)
		} else {
			cur = combine(sibling, cur)
		}
		idx /= 2
	}
	return cur == root
}
