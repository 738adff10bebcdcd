package state

import (
	"sync"

	"github.com/jkmp/matchmakingd/internal/wire"
)

// Mailbox is the outbound channel handle a Client carries: any handler may
// send to any client's mailbox. It is backed by a growable queue rather
// than a fixed-capacity channel, so a slow-draining peer never causes a
// live send to be discarded — only a send after the mailbox has been
// closed (the owning session has gone away) is a silent no-op. A pump
// goroutine serialises the queue onto the channel Receive returns, so
// receivers still see sends in enqueue order.
type Mailbox struct {
	mu     sync.Mutex
	queue  []wire.Message
	closed bool
	notify chan struct{}
	out    chan wire.Message
}

// NewMailbox creates an unbounded mailbox and starts its pump goroutine.
func NewMailbox() *Mailbox {
	m := &Mailbox{
		notify: make(chan struct{}, 1),
		out:    make(chan wire.Message),
	}
	go m.pump()
	return m
}

// Send enqueues m for delivery. Per spec, send failure is silent, and only
// happens once the mailbox has been closed — a live but slow reader never
// loses a message, no matter how deep the queue grows.
func (m *Mailbox) Send(msg wire.Message) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.queue = append(m.queue, msg)
	m.mu.Unlock()

	select {
	case m.notify <- struct{}{}:
	default:
	}
}

// Close marks the mailbox closed: queued messages already accepted are
// still delivered, but the pump exits (and Receive's channel closes) once
// they have drained, and further Send calls are no-ops. Callers must Close
// a mailbox once its owning session exits, or its pump goroutine leaks.
func (m *Mailbox) Close() {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()

	select {
	case m.notify <- struct{}{}:
	default:
	}
}

// Receive returns the channel a session actor drains.
func (m *Mailbox) Receive() <-chan wire.Message {
	return m.out
}

func (m *Mailbox) pump() {
	for {
		m.mu.Lock()
		for len(m.queue) == 0 && !m.closed {
			m.mu.Unlock()
			<-m.notify
			m.mu.Lock()
		}
		if len(m.queue) == 0 {
			m.mu.Unlock()
			close(m.out)
			return
		}
		msg := m.queue[0]
		m.queue = m.queue[1:]
		m.mu.Unlock()

		m.out <- msg
	}
}

// Client is one connected, authenticated player.
type Client struct {
	AccountID uint64
	Name      string
	Position  wire.Vector2
	mailbox   *Mailbox
}

// NewClient constructs a Client bound to the given outbound mailbox.
func NewClient(accountID uint64, name string, position wire.Vector2, mailbox *Mailbox) *Client {
	return &Client{AccountID: accountID, Name: name, Position: position, mailbox: mailbox}
}

// Send enqueues msg on this client's mailbox.
func (c *Client) Send(msg wire.Message) {
	c.mailbox.Send(msg)
}

func (c *Client) String() string {
	return "(" + c.Name + ")"
}
