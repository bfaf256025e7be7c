// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package proverrors declares the error kinds the orchestrator and
// Client Handle classify failures into. Every error returned across a
// package boundary in this module wraps one of these sentinels so
// callers can type-switch on kind with errors.Is.
package proverrors

import "errors"

// Kind classifies a failure the way Client Handle reports it to callers.
type Kind string

const (
	KindBadInput    Kind = "bad_input"
	KindBadMessage  Kind = "bad_message"
	KindUnsupported Kind = "unsupported"
	KindVM          Kind = "vm"
	KindProver      Kind = "prover"
	KindVerify      Kind = "verify"
	KindWorker      Kind = "worker"
	KindTimeout     Kind = "timeout"
)

var (
	// ErrBadInput: decode of caller-supplied program/inputs/options failed.
	ErrBadInput = errors.New("proverrors: bad input")
	// ErrBadMessage: decode of an inter-thread message failed.
	ErrBadMessage = errors.New("proverrors: bad message")
	// ErrUnsupported: hash function, field extension, or prime field
	// outside the accepted set.
	ErrUnsupported = errors.New("proverrors: unsupported configuration")
	// ErrVM: the VM executor rejected the program.
	ErrVM = errors.New("proverrors: vm execution failed")
	// ErrProver: a library-level proving step failed.
	ErrProver = errors.New("proverrors: prover step failed")
	// ErrVerify: the generated proof did not verify.
	ErrVerify = errors.New("proverrors: proof failed verification")
	// ErrWorker: a worker thread could not be created, or accepted a
	// message with a transport error (including a stalled completion
	// future, which is classified fatal and surfaced as ErrWorker).
	ErrWorker = errors.New("proverrors: worker failure")
	// ErrTimeout: a completion future was not satisfied before its
	// deadline.
	ErrTimeout = errors.New("proverrors: timed out waiting for workers")
)

// kindBySentinel backs KindOf.
var kindBySentinel = map[error]Kind{
	ErrBadInput:    KindBadInput,
	ErrBadMessage:  KindBadMessage,
	ErrUnsupported: KindUnsupported,
	ErrVM:          KindVM,
	ErrProver:      KindProver,
	ErrVerify:      KindVerify,
	ErrWorker:      KindWorker,
	ErrTimeout:     KindTimeout,
}

// KindOf classifies err by the sentinel it wraps. Returns ("", false)
// if err does not wrap one of the sentinels in this package.
func KindOf(err error) (Kind, bool) {
	for sentinel, kind := range kindBySentinel {
		if errors.Is(err, sentinel) {
			return kind, true
		}
	}
	return "", false
}
