// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package workerpool

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func echoHandler(payload []byte) ([]byte, error) {
	out := make([]byte, len(payload))
	copy(out, payload)
	return out, nil
}

func TestBankDispatchRoundTripsPayload(t *testing.T) {
	bank := NewBank("test", 4, echoHandler)
	defer bank.Close()

	ctx := context.Background()
	out, err := bank.Dispatch(ctx, 2, []byte("hello"))
	require.NoError(t, err)
	require.Equal(t, []byte("hello"), out)
}

func TestBankDispatchPinsSameIndexToSameWorker(t *testing.T) {
	size := 4
	// Build the bank by hand so each worker replies with its own index,
	// which makes the worker a Dispatch lands on observable.
	bank := &Bank{name: "test", inboxes: make([]chan job, size)}
	for w := range bank.inboxes {
		inbox := make(chan job, 1)
		bank.inboxes[w] = inbox
		bank.wg.Add(1)
		go func(w int, inbox chan job) {
			defer bank.wg.Done()
			for j := range inbox {
				j.reply <- result{payload: []byte{byte(w)}}
			}
		}(w, inbox)
	}
	defer bank.Close()

	ctx := context.Background()
	for round := 0; round < 3; round++ {
		for idx := 0; idx < size*2; idx++ {
			out, err := bank.Dispatch(ctx, idx, []byte{byte(idx)})
			require.NoError(t, err)
			require.Equal(t, []byte{byte(idx % size)}, out)
		}
	}
}

func TestBankDispatchPropagatesHandlerError(t *testing.T) {
	bank := NewBank("test", 2, func(payload []byte) ([]byte, error) {
		return nil, fmt.Errorf("boom")
	})
	defer bank.Close()

	_, err := bank.Dispatch(context.Background(), 0, nil)
	require.Error(t, err)
}

func TestBankDispatchRespectsContextCancellation(t *testing.T) {
	block := make(chan struct{})
	bank := NewBank("test", 1, func(payload []byte) ([]byte, error) {
		<-block
		return payload, nil
	})
	defer func() {
		close(block)
		bank.Close()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	// occupy the only worker so the second dispatch queues behind ctx's deadline
	go func() { _, _ = bank.Dispatch(context.Background(), 0, nil) }()
	time.Sleep(5 * time.Millisecond)
	_, err := bank.Dispatch(ctx, 0, nil)
	require.Error(t, err)
}

func TestNewPoolDefaultsBankSizeWhenZero(t *testing.T) {
	pool := NewPool(0, 0, echoHandler, echoHandler)
	defer pool.Close()
	require.GreaterOrEqual(t, pool.Hashing.Size(), 2)
	require.GreaterOrEqual(t, pool.Constraints.Size(), 2)
}

func TestCompletionFutureResolvesAfterExpectedCompletions(t *testing.T) {
	future := NewCompletionFuture(3)
	require.False(t, future.Poll())

	var wg sync.WaitGroup
	var completions int64
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			atomic.AddInt64(&completions, 1)
			future.Complete()
		}()
	}
	wg.Wait()

	err := future.Wait(context.Background())
	require.NoError(t, err)
	require.True(t, future.Poll())
	require.EqualValues(t, 3, atomic.LoadInt64(&completions))
}

func TestCompletionFutureWaitTimesOut(t *testing.T) {
	future := NewCompletionFuture(2)
	future.Complete()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	err := future.Wait(ctx)
	require.Error(t, err)
}
