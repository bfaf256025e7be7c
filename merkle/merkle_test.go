// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package merkle

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/starkoracles/aero-prover/field"
)

func digest(b byte) field.Digest {
	var d field.Digest
	d[0] = b
	return d
}

func TestRowDigestBufferSortedOrdersByBatch(t *testing.T) {
	buf := NewRowDigestBuffer(3)
	buf.Append(2, []field.Digest{digest(2)})
	buf.Append(0, []field.Digest{digest(0)})
	buf.Append(1, []field.Digest{digest(1)})

	require.Equal(t, 3, buf.Len())
	sorted, err := buf.Sorted()
	require.NoError(t, err)
	require.Equal(t, []field.Digest{digest(0), digest(1), digest(2)}, sorted)
}

func TestRowDigestBufferSortedRejectsIncomplete(t *testing.T) {
	buf := NewRowDigestBuffer(2)
	buf.Append(0, []field.Digest{digest(0)})
	_, err := buf.Sorted()
	require.Error(t, err)
}

func TestBuildRejectsNonPowerOfTwo(t *testing.T) {
	_, err := Build([]field.Digest{digest(1), digest(2), digest(3)})
	require.Error(t, err)
}

func TestBuildRejectsEmpty(t *testing.T) {
	_, err := Build(nil)
	require.Error(t, err)
}

func TestBuildDeterministicRoot(t *testing.T) {
	leaves := []field.Digest{digest(1), digest(2), digest(3), digest(4)}
	t1, err := Build(leaves)
	require.NoError(t, err)
	t2, err := Build(leaves)
	require.NoError(t, err)
	require.Equal(t, t1.Root(), t2.Root())
	require.Equal(t, 2, t1.Depth())
}

func TestBuildRootChangesWithLeafOrder(t *testing.T) {
	a, err := Build([]field.Digest{digest(1), digest(2), digest(3), digest(4)})
	require.NoError(t, err)
	b, err := Build([]field.Digest{digest(2), digest(1), digest(3), digest(4)})
	require.NoError(t, err)
	require.NotEqual(t, a.Root(), b.Root())
}

func TestAuthPathVerifiesAgainstRoot(t *testing.T) {
	leaves := []field.Digest{digest(1), digest(2), digest(3), digest(4), digest(5), digest(6), digest(7), digest(8)}
	tree, err := Build(leaves)
	require.NoError(t, err)

	for i, leaf := range leaves {
		path, err := tree.AuthPath(i)
		require.NoError(t, err)
		require.True(t, VerifyAuthPath(tree.Root(), leaf, i, path))
	}
}

func TestAuthPathRejectsOutOfRange(t *testing.T) {
	tree, err := Build([]field.Digest{digest(1), digest(2)})
	require.NoError(t, err)
	_, err = tree.AuthPath(5)
	require.Error(t, err)
}

func TestVerifyAuthPathRejectsWrongLeaf(t *testing.T) {
	leaves := []field.Digest{digest(1), digest(2), digest(3), digest(4)}
	tree, err := Build(leaves)
	require.NoError(t, err)
	path, err := tree.AuthPath(0)
	require.NoError(t, err)
	require.False(t, VerifyAuthPath(tree.Root(), digest(99), 0, path))
}
