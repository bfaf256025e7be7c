// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package hashing implements the per-row leaf work a hashing-bank
// worker performs: given one batch of trace-LDE rows, hash each row
// to a single digest with the canonical Blake2s-256 element hasher.
package hashing

import (
	"golang.org/x/crypto/blake2s"

	"github.com/starkoracles/aero-prover/codec"
	"github.com/starkoracles/aero-prover/field"
)

// HashFunction identifies a supported element hasher. Blake2s256 is
// currently the only one accepted; any other selector must surface as
// an unsupported-configuration error rather than silently hash wrong.
type HashFunction string

const Blake2s256 HashFunction = "blake2s-256"

// RowDigest hashes a single row's canonical little-endian element
// encodings, concatenated in column order.
func RowDigest(row []field.Element) field.Digest {
	buf := make([]byte, 0, len(row)*8)
	for _, e := range row {
		enc := field.EncodeLE(e)
		buf = append(buf, enc[:]...)
	}
	return field.Digest(blake2s.Sum256(buf))
}

// Process hashes every row in item and returns the batch's digests in
// row order, the unit of work one hashing-bank worker performs for
// one dispatched message.
func Process(item codec.HashingWorkItem) codec.HashingResult {
	hashes := make([]field.Digest, len(item.Rows))
	for i, row := range item.Rows {
		hashes[i] = RowDigest(row)
	}
	return codec.HashingResult{BatchIndex: item.BatchIndex, Hashes: hashes}
}

// Handler adapts Process to the workerpool.Handler signature: decode
// the dispatched message, hash it, and re-encode the result.
func Handler(payload []byte) ([]byte, error) {
	item, err := codec.DecodeHashingWorkItem(payload)
	if err != nil {
		return nil, err
	}
	result := Process(item)
	return result.Encode(), nil
}
