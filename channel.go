package relay

import (
	"context"
	"sync"
)

// Channel is an unbounded multi-producer single-consumer queue of messages.
//
// Send never waits for the consumer: messages pile up in memory until received. Receive must only be
// called from one goroutine at a time.
type Channel struct {
	mu     sync.Mutex
	items  []Message
	head   int
	closed bool
	ready  chan struct{} // capacity 1, signals the consumer that items or close are pending
}

// NewChannel builds an empty, open channel.
func NewChannel() *Channel {
	return &Channel{ready: make(chan struct{}, 1)}
}

// Send enqueues msg. It fails with ErrChannelClosed once the channel has been closed.
func (c *Channel) Send(msg Message) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrChannelClosed
	}
	c.items = append(c.items, msg)
	c.mu.Unlock()
	c.notify()
	return nil
}

// Receive blocks until a message is available. Pending messages are still delivered after Close; once
// they are drained, Receive returns ErrChannelClosed. It returns the context error if ctx is done first.
func (c *Channel) Receive(ctx context.Context) (Message, error) {
	for {
		c.mu.Lock()
		if c.head < len(c.items) {
			msg := c.items[c.head]
			c.items[c.head] = Message{}
			c.head++
			switch {
			case c.head == len(c.items): // reuse the backing array once drained
				c.items = c.items[:0]
				c.head = 0
			case c.head > len(c.items)/2: // the received prefix outweighs the backlog
				n := copy(c.items, c.items[c.head:])
				clear(c.items[n:])
				c.items = c.items[:n]
				c.head = 0
			}
			c.mu.Unlock()
			return msg, nil
		}
		closed := c.closed
		c.mu.Unlock()
		if closed {
			return Message{}, ErrChannelClosed
		}

		select {
		case <-ctx.Done():
			return Message{}, ctx.Err()
		case <-c.ready:
		}
	}
}

// Close stops accepting messages. It is safe to call several times.
func (c *Channel) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	c.notify()
}

// Len returns the number of messages not yet received.
func (c *Channel) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items) - c.head
}

func (c *Channel) notify() {
	select {
	case c.ready <- struct{}{}:
	default: // a wake-up is already pending
	}
}
