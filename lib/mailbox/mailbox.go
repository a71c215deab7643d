// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package mailbox provides an unbounded, goroutine-safe FIFO queue for
// passing values between goroutines without ever blocking the producer.
//
// A Mailbox is the message-passing surface between an actor goroutine
// and the code that talks to it: any number of goroutines may Put, and a
// single consumer takes values out, either by polling (TryTake, TakeAll)
// or by waiting on NewData. Values come out in the order they went in.
package mailbox

import (
	"context"
	"sync"
)

// Mailbox is an unbounded FIFO queue. The zero value is not usable; call
// New.
type Mailbox[T any] struct {
	mu    sync.Mutex
	items []T

	// newData has capacity 1. Put performs a non-blocking send, so at
	// most one wakeup is pending no matter how many values arrive.
	newData chan struct{}
}

// New returns an empty Mailbox.
func New[T any]() *Mailbox[T] {
	return &Mailbox[T]{
		newData: make(chan struct{}, 1),
	}
}

// Put appends v. It never blocks.
func (m *Mailbox[T]) Put(v T) {
	m.mu.Lock()
	m.items = append(m.items, v)
	m.mu.Unlock()

	select {
	case m.newData <- struct{}{}:
	default:
	}
}

// TryTake removes and returns the oldest value. The boolean is false if
// the mailbox was empty.
func (m *Mailbox[T]) TryTake() (T, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var zero T
	if len(m.items) == 0 {
		return zero, false
	}
	v := m.items[0]
	m.items[0] = zero
	m.items = m.items[1:]
	if len(m.items) == 0 {
		m.items = nil
	}
	return v, true
}

// TakeAll removes and returns everything queued at the time of the call,
// oldest first. Values put concurrently may or may not be included; they
// are never lost.
func (m *Mailbox[T]) TakeAll() []T {
	m.mu.Lock()
	defer m.mu.Unlock()

	items := m.items
	m.items = nil
	return items
}

// Take removes and returns the oldest value, waiting for one to arrive
// if the mailbox is empty. It returns ctx.Err() if ctx is done first.
// Only one goroutine should wait in Take at a time.
func (m *Mailbox[T]) Take(ctx context.Context) (T, error) {
	for {
		if v, ok := m.TryTake(); ok {
			return v, nil
		}
		select {
		case <-m.newData:
		case <-ctx.Done():
			var zero T
			return zero, ctx.Err()
		}
	}
}

// Len returns the number of queued values.
func (m *Mailbox[T]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

// NewData returns a channel that receives after a Put. A receive means
// the mailbox may be non-empty; a consumer should drain with TryTake or
// TakeAll and then wait again. Only the single consumer should use it.
func (m *Mailbox[T]) NewData() <-chan struct{} {
	return m.newData
}
