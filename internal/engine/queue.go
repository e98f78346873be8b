package engine

import (
	"sync"
)

// Message is one chat message addressed to the bot.
type Message struct {
	// ChatID identifies the conversation replies go to.
	ChatID string

	// User identifies the sender. Signed requests and /config are keyed
	// by it.
	User string

	// Text is the raw message text, e.g. "/get -type gym".
	Text string
}

// messageQueue is a thread-safe FIFO queue for incoming messages.
//
// The queue is unbounded so transports never block on a slow executor.
// Enqueue may be called from any goroutine while the Engine's Run loop
// dequeues.
//
// The queue uses a channel for signaling to enable context-aware waiting
// in the Run loop.
type messageQueue struct {
	mu       sync.Mutex
	messages []Message
	closed   bool
	signal   chan struct{} // Signals availability (buffered, size 1)
}

func newMessageQueue() *messageQueue {
	return &messageQueue{
		messages: make([]Message, 0, 64),
		signal:   make(chan struct{}, 1),
	}
}

// Enqueue adds a message to the back of the queue.
// Returns false if the queue is closed.
func (q *messageQueue) Enqueue(m Message) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}

	q.messages = append(q.messages, m)

	// Non-blocking: the buffer of 1 coalesces signals
	select {
	case q.signal <- struct{}{}:
	default:
	}

	return true
}

// TryDequeue removes the front message without blocking.
// Returns (Message{}, false) if the queue is empty.
func (q *messageQueue) TryDequeue() (Message, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.messages) == 0 {
		return Message{}, false
	}

	m := q.messages[0]
	q.messages[0] = Message{} // release the text for GC

	if len(q.messages) == 1 {
		q.messages = q.messages[:0]
	} else {
		q.messages = q.messages[1:]
	}

	return m, true
}

// Wait returns a channel that signals when messages may be available.
// Use with select for context-aware waiting:
//
//	select {
//	case <-ctx.Done():
//	    return ctx.Err()
//	case <-q.Wait():
//	    // Try TryDequeue
//	}
func (q *messageQueue) Wait() <-chan struct{} {
	return q.signal
}

// Len returns the current queue length.
func (q *messageQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.messages)
}

// Close signals that no more messages will be enqueued.
// Wakes any blocked waiters by closing the signal channel.
func (q *messageQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}

	q.closed = true
	close(q.signal)
}

func (q *messageQueue) isClosed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}
