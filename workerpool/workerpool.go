// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package workerpool models the two fixed worker banks the proving
// orchestrator dispatches to: a hashing bank and a constraint bank.
// Each worker is a goroutine with its own inbox channel of opaque
// []byte payloads; there is no shared memory between dispatcher and
// worker beyond that channel, and no work-stealing between workers —
// a message sent to worker i always runs on worker i. This mirrors
// threshold.ThresholdClient's simpleNetwork/handlerLoop pair, which
// also models isolated actors talking only through channels.
package workerpool

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/starkoracles/aero-prover/internal/obsmetrics"
	"github.com/starkoracles/aero-prover/proverrors"
)

// Handler processes one message's payload and returns the result
// payload to post back, or an error if the message could not be
// processed. A Handler runs on exactly one worker goroutine for the
// pool's lifetime.
type Handler func(payload []byte) ([]byte, error)

type job struct {
	payload []byte
	reply   chan<- result
}

type result struct {
	payload []byte
	err     error
}

// Bank is a fixed set of pinned worker goroutines, each with its own
// buffered inbox. Dispatch assigns messages to workers round-robin by
// a caller-supplied index modulo the bank size, so the same logical
// unit of work (e.g. the same batch index) always lands on the same
// worker across retries.
type Bank struct {
	name    string
	inboxes []chan job
	wg      sync.WaitGroup
}

// NewBank starts size worker goroutines, each running handler against
// the payloads sent to its inbox. size is floored at 1. name labels
// this bank's dispatch metric (e.g. "hashing", "constraints").
func NewBank(name string, size int, handler Handler) *Bank {
	if size < 1 {
		size = 1
	}
	b := &Bank{name: name, inboxes: make([]chan job, size)}
	for i := range b.inboxes {
		inbox := make(chan job, 64)
		b.inboxes[i] = inbox
		b.wg.Add(1)
		go func(inbox chan job) {
			defer b.wg.Done()
			for j := range inbox {
				payload, err := handler(j.payload)
				j.reply <- result{payload: payload, err: err}
			}
		}(inbox)
	}
	return b
}

// Size reports the number of pinned workers in the bank.
func (b *Bank) Size() int {
	return len(b.inboxes)
}

// Dispatch sends payload to the worker at index mod Size() and waits
// for its reply or ctx's cancellation, whichever comes first.
func (b *Bank) Dispatch(ctx context.Context, index int, payload []byte) ([]byte, error) {
	obsmetrics.RecordDispatch(b.name)
	worker := index % len(b.inboxes)
	reply := make(chan result, 1)
	select {
	case b.inboxes[worker] <- job{payload: payload, reply: reply}:
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %v", proverrors.ErrTimeout, ctx.Err())
	}
	select {
	case r := <-reply:
		return r.payload, r.err
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %v", proverrors.ErrTimeout, ctx.Err())
	}
}

// Close shuts every worker's inbox down and waits for the goroutines
// to drain. Close must only be called once all in-flight Dispatch
// calls have returned.
func (b *Bank) Close() {
	for _, inbox := range b.inboxes {
		close(inbox)
	}
	b.wg.Wait()
}

// Pool is the orchestrator's complete worker surface: one bank for
// row hashing, one bank for constraint-fragment evaluation. The two
// banks are sized independently since the two stages have different
// per-item costs.
type Pool struct {
	Hashing     *Bank
	Constraints *Bank
}

// NewPool starts a pool with hashBankSize hashing workers and
// constraintBankSize constraint workers. A size of 0 for either bank
// defaults to runtime.NumCPU(), floored at 2 so a single-core host
// still gets real concurrency between dispatcher and worker.
func NewPool(hashBankSize, constraintBankSize int, hashHandler, constraintHandler Handler) *Pool {
	return &Pool{
		Hashing:     NewBank("hashing", resolveSize(hashBankSize), hashHandler),
		Constraints: NewBank("constraints", resolveSize(constraintBankSize), constraintHandler),
	}
}

func resolveSize(requested int) int {
	if requested > 0 {
		return requested
	}
	n := runtime.NumCPU()
	if n < 2 {
		return 2
	}
	return n
}

// Close tears down both banks.
func (p *Pool) Close() {
	p.Hashing.Close()
	p.Constraints.Close()
}

// CompletionFuture tracks how many of an expected count of units of
// work have completed and resolves once that count is reached.
// A browser host without real threads would have to poll a shared
// counter on a re-armed timer, since postMessage callbacks can't be
// awaited directly; running as native goroutines, this instead closes
// a channel exactly once the expected count is reached. The prover
// package's hashing and constraint stages do not use it: they wait on
// an errgroup over their blocking Bank.Dispatch calls.
type CompletionFuture struct {
	mu        sync.Mutex
	expected  int
	completed int
	done      chan struct{}
	closeOnce sync.Once
}

// NewCompletionFuture creates a future that resolves once Complete
// has been called expected times.
func NewCompletionFuture(expected int) *CompletionFuture {
	return &CompletionFuture{
		expected: expected,
		done:     make(chan struct{}),
	}
}

// Complete records one unit of work finishing. Resolves the future
// once the expected count is reached; safe to call from any worker
// goroutine.
func (f *CompletionFuture) Complete() {
	f.mu.Lock()
	f.completed++
	done := f.completed >= f.expected
	f.mu.Unlock()
	if done {
		f.closeOnce.Do(func() { close(f.done) })
	}
}

// Poll reports whether the future has already resolved, without
// blocking.
func (f *CompletionFuture) Poll() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Wait blocks until the future resolves or ctx is done.
func (f *CompletionFuture) Wait(ctx context.Context) error {
	select {
	case <-f.done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%w: %v", proverrors.ErrTimeout, ctx.Err())
	}
}
