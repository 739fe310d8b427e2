// Copyright 2025 Patrick J. Scruggs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package slogrotate

import (
	"errors"
	"fmt"
	"sync"
)

// ErrQueueCorrupted reports that the entry committed by the writer was not
// the entry it peeked. Only one consumer may exist per queue, so this is a
// fatal condition for the sink.
var ErrQueueCorrupted = errors.New("slogrotate: log queue corrupted")

// compactThreshold bounds the dead prefix kept in the backing slice before
// it is reclaimed.
const compactThreshold = 1024

// entryQueue is an unbounded FIFO with many producers and a single consumer.
// The consumer peeks the oldest entry and only removes it once the write is
// confirmed, so a failed write is retried without reordering.
type entryQueue struct {
	mu      sync.Mutex
	items   []*queuedEntry
	head    int
	nextSeq uint64
	ready   chan struct{}
}

func newEntryQueue() *entryQueue {
	return &entryQueue{ready: make(chan struct{}, 1)}
}

// enqueue appends e and wakes the consumer.
func (q *entryQueue) enqueue(e *queuedEntry) {
	q.mu.Lock()
	q.nextSeq++
	e.seq = q.nextSeq
	q.items = append(q.items, e)
	q.mu.Unlock()

	select {
	case q.ready <- struct{}{}:
	default:
	}
}

// peek returns the oldest entry without removing it.
func (q *entryQueue) peek() (*queuedEntry, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.head >= len(q.items) {
		return nil, false
	}
	return q.items[q.head], true
}

// commit removes the oldest entry, which must be want.
func (q *entryQueue) commit(want *queuedEntry) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.head >= len(q.items) {
		return fmt.Errorf("%w: commit of entry %d on empty queue", ErrQueueCorrupted, want.seq)
	}
	got := q.items[q.head]
	if got != want {
		return fmt.Errorf("%w: committed entry %d, oldest is %d", ErrQueueCorrupted, want.seq, got.seq)
	}
	q.items[q.head] = nil
	q.head++

	switch {
	case q.head == len(q.items):
		q.items = q.items[:0]
		q.head = 0
	case q.head >= compactThreshold && q.head*2 >= len(q.items):
		n := copy(q.items, q.items[q.head:])
		clear(q.items[n:])
		q.items = q.items[:n]
		q.head = 0
	}
	return nil
}

// len reports the number of entries waiting.
func (q *entryQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items) - q.head
}

// drain removes and returns every waiting entry. It is used once the writer
// has stopped to account for entries that will never be written.
func (q *entryQueue) drain() []*queuedEntry {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := append([]*queuedEntry(nil), q.items[q.head:]...)
	q.items = nil
	q.head = 0
	return out
}
