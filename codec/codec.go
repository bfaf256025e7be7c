// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package codec implements the single serialization contract every
// inter-thread message in the proving pipeline round-trips through:
// varint-framed counts and byte blobs (via protowire, the same
// low-level primitives protobuf's own wire format is built on), field
// elements as canonical 8-byte little-endian fixed64 values, matrices
// as a varint-counted sequence of varint-counted columns, and opaque
// library structures wrapped as a varint-length-prefixed byte string.
package codec

import (
	"encoding/binary"
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/starkoracles/aero-prover/field"
	"github.com/starkoracles/aero-prover/proverrors"
)

// writer accumulates a message; all Write* helpers panic-free append.
type writer struct {
	buf []byte
}

func newWriter(sizeHint int) *writer {
	return &writer{buf: make([]byte, 0, sizeHint)}
}

func (w *writer) u32(v uint32) {
	w.buf = protowire.AppendVarint(w.buf, uint64(v))
}

func (w *writer) u64(v uint64) {
	w.buf = protowire.AppendVarint(w.buf, v)
}

func (w *writer) bytes(p []byte) {
	w.buf = protowire.AppendBytes(w.buf, p)
}

func (w *writer) element(e field.Element) {
	w.buf = protowire.AppendFixed64(w.buf, uint64(e))
}

// row writes a varint-counted slice of field elements.
func (w *writer) row(row []field.Element) {
	w.u32(uint32(len(row)))
	for _, e := range row {
		w.element(e)
	}
}

// matrix writes a column-major matrix: a varint-counted sequence of
// columns, each column a varint-counted row of elements.
func (w *writer) matrix(cols [][]field.Element) {
	w.u32(uint32(len(cols)))
	for _, col := range cols {
		w.row(col)
	}
}

func (w *writer) digest(d field.Digest) {
	w.buf = append(w.buf, d[:]...)
}

func (w *writer) digests(ds []field.Digest) {
	w.u32(uint32(len(ds)))
	for _, d := range ds {
		w.digest(d)
	}
}

// reader consumes a message produced by writer, failing with
// ErrBadMessage on any short read, malformed varint, or out-of-range
// element.
type reader struct {
	buf []byte
	pos int
}

func newReader(b []byte) *reader {
	return &reader{buf: b}
}

func (r *reader) need(n int) error {
	if r.pos+n > len(r.buf) {
		return fmt.Errorf("%w: need %d bytes at offset %d, have %d", proverrors.ErrBadMessage, n, r.pos, len(r.buf))
	}
	return nil
}

func (r *reader) u32() (uint32, error) {
	v, n := protowire.ConsumeVarint(r.buf[r.pos:])
	if n < 0 {
		return 0, fmt.Errorf("%w: malformed varint at offset %d", proverrors.ErrBadMessage, r.pos)
	}
	r.pos += n
	return uint32(v), nil
}

func (r *reader) u64() (uint64, error) {
	v, n := protowire.ConsumeVarint(r.buf[r.pos:])
	if n < 0 {
		return 0, fmt.Errorf("%w: malformed varint at offset %d", proverrors.ErrBadMessage, r.pos)
	}
	r.pos += n
	return v, nil
}

func (r *reader) bytes() ([]byte, error) {
	v, n := protowire.ConsumeBytes(r.buf[r.pos:])
	if n < 0 {
		return nil, fmt.Errorf("%w: malformed length-delimited field at offset %d", proverrors.ErrBadMessage, r.pos)
	}
	out := make([]byte, len(v))
	copy(out, v)
	r.pos += n
	return out, nil
}

func (r *reader) element() (field.Element, error) {
	v, n := protowire.ConsumeFixed64(r.buf[r.pos:])
	if n < 0 {
		return 0, fmt.Errorf("%w: malformed element at offset %d", proverrors.ErrBadMessage, r.pos)
	}
	var enc [8]byte
	binary.LittleEndian.PutUint64(enc[:], v)
	e, err := field.DecodeLE(enc[:])
	if err != nil {
		return 0, fmt.Errorf("%w: %v", proverrors.ErrBadMessage, err)
	}
	r.pos += n
	return e, nil
}

func (r *reader) row() ([]field.Element, error) {
	n, err := r.u32()
	if err != nil {
		return nil, err
	}
	out := make([]field.Element, n)
	for i := range out {
		e, err := r.element()
		if err != nil {
			return nil, err
		}
		out[i] = e
	}
	return out, nil
}

func (r *reader) matrix() ([][]field.Element, error) {
	n, err := r.u32()
	if err != nil {
		return nil, err
	}
	cols := make([][]field.Element, n)
	for i := range cols {
		col, err := r.row()
		if err != nil {
			return nil, err
		}
		cols[i] = col
	}
	return cols, nil
}

func (r *reader) digest() (field.Digest, error) {
	var d field.Digest
	if err := r.need(32); err != nil {
		return d, err
	}
	copy(d[:], r.buf[r.pos:r.pos+32])
	r.pos += 32
	return d, nil
}

func (r *reader) digests() ([]field.Digest, error) {
	n, err := r.u32()
	if err != nil {
		return nil, err
	}
	out := make([]field.Digest, n)
	for i := range out {
		d, err := r.digest()
		if err != nil {
			return nil, err
		}
		out[i] = d
	}
	return out, nil
}

// finished reports whether the reader consumed the entire buffer,
// which every top-level Decode must check to reject trailing garbage.
func (r *reader) finished() bool {
	return r.pos == len(r.buf)
}

func (r *reader) trailingErr() error {
	if !r.finished() {
		return fmt.Errorf("%w: %d trailing bytes", proverrors.ErrBadMessage, len(r.buf)-r.pos)
	}
	return nil
}
