// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package field implements arithmetic over the Goldilocks prime field
// p = 2^64 - 2^32 + 1, the only field this prover accepts.
package field

import (
	"encoding/binary"
	"errors"
	"math/big"
	"math/bits"
)

// Modulus is the Goldilocks prime p = 2^64 - 2^32 + 1.
const Modulus uint64 = 0xFFFFFFFF00000001

// ErrNonCanonical is returned when a decoded element is not strictly
// less than Modulus.
var ErrNonCanonical = errors.New("field: value is not a canonical element")

// Element is a residue modulo Modulus, always held in canonical form
// (strictly less than Modulus).
type Element uint64

// New reduces v modulo Modulus and returns the canonical Element.
func New(v uint64) Element {
	if v >= Modulus {
		return Element(v - Modulus)
	}
	return Element(v)
}

// Add returns a+b mod p.
func Add(a, b Element) Element {
	sum, carry := bits.Add64(uint64(a), uint64(b), 0)
	if carry != 0 || sum >= Modulus {
		sum -= Modulus
	}
	return Element(sum)
}

// Sub returns a-b mod p.
func Sub(a, b Element) Element {
	if a >= b {
		return Element(uint64(a) - uint64(b))
	}
	return Element(Modulus - (uint64(b) - uint64(a)))
}

// Mul returns a*b mod p using a 128-bit intermediate product, reduced
// the same way the precompile's Goldilocks field type does it.
func Mul(a, b Element) Element {
	hi, lo := bits.Mul64(uint64(a), uint64(b))
	return reduce128(hi, lo)
}

// reduce128 reduces a 128-bit value hi*2^64+lo modulo the Goldilocks
// prime. big.Int keeps this obviously correct; the field element
// throughput here is dominated by per-row hashing and LDE I/O, not
// raw multiply count, so the extra allocation is not on the hot path
// this orchestrator cares about.
func reduce128(hi, lo uint64) Element {
	result := new(big.Int).SetUint64(hi)
	result.Lsh(result, 64)
	result.Add(result, new(big.Int).SetUint64(lo))
	result.Mod(result, modulusBig)
	return Element(result.Uint64())
}

var modulusBig = new(big.Int).SetUint64(Modulus)

// Exp computes base^exp mod p by square-and-multiply.
func Exp(base Element, exp uint64) Element {
	result := Element(1)
	for exp > 0 {
		if exp&1 == 1 {
			result = Mul(result, base)
		}
		base = Mul(base, base)
		exp >>= 1
	}
	return result
}

// Inv computes the multiplicative inverse via Fermat's little theorem.
// Inv(0) returns 0, matching the convention used throughout the proving
// pipeline (a zero element never needs inverting in a valid trace).
func Inv(a Element) Element {
	if a == 0 {
		return 0
	}
	return Exp(a, Modulus-2)
}

// EncodeLE writes the canonical 8-byte little-endian encoding of e.
func EncodeLE(e Element) [8]byte {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(e))
	return buf
}

// DecodeLE parses an 8-byte little-endian encoding, rejecting values
// that are not strictly less than Modulus.
func DecodeLE(b []byte) (Element, error) {
	if len(b) < 8 {
		return 0, errors.New("field: short read decoding element")
	}
	v := binary.LittleEndian.Uint64(b)
	if v >= Modulus {
		return 0, ErrNonCanonical
	}
	return Element(v), nil
}

// Digest is a 32-byte hash output (row digest, Merkle node, commitment).
type Digest [32]byte
