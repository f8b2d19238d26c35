// Package mailer delivers confirmation mail asynchronously. The Dispatcher
// decouples request handling from SMTP latency: Send enqueues onto a
// buffered channel and a single worker drains it, so a slow or dead relay
// never blocks a signup.
package mailer

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
)

// Sender performs one synchronous delivery.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Message is one confirmation mail.
type Message struct {
	To       string
	Username string
	Token    string
}

// Dispatcher satisfies contactbook.Mailer. Deliveries that do not fit the
// buffer are dropped and counted; the triggering request never waits.
type Dispatcher struct {
	sender    Sender
	logger    *slog.Logger
	ch        chan Message
	done      chan struct{}
	wg        sync.WaitGroup
	dropped   atomic.Uint64
	closed    atomic.Bool
	closeOnce sync.Once
}

// NewDispatcher starts the delivery worker. bufferSize floors at 1.
func NewDispatcher(sender Sender, bufferSize int, logger *slog.Logger) *Dispatcher {
	if bufferSize <= 0 {
		bufferSize = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	d := &Dispatcher{
		sender: sender,
		logger: logger,
		ch:     make(chan Message, bufferSize),
		done:   make(chan struct{}),
	}
	d.wg.Add(1)
	go d.run()
	return d
}

func (d *Dispatcher) run() {
	defer d.wg.Done()
	for {
		select {
		case msg := <-d.ch:
			d.deliver(msg)
		case <-d.done:
			// Drain what was already queued before shutting down.
			for {
				select {
				case msg := <-d.ch:
					d.deliver(msg)
				default:
					return
				}
			}
		}
	}
}

func (d *Dispatcher) deliver(msg Message) {
	if err := d.sender.Send(context.Background(), msg); err != nil {
		d.logger.Error("confirmation mail delivery failed", "to", msg.To, "err", err)
	}
}

// SendConfirmation enqueues one delivery. It returns nil even when the
// queue is full; the drop is counted and visible via Dropped.
func (d *Dispatcher) SendConfirmation(_ context.Context, email, username, confirmToken string) error {
	if d == nil || d.closed.Load() {
		return nil
	}
	select {
	case d.ch <- Message{To: email, Username: username, Token: confirmToken}:
	case <-d.done:
	default:
		d.dropped.Add(1)
		d.logger.Warn("mail queue full, confirmation dropped", "to", email)
	}
	return nil
}

// Dropped reports how many deliveries were discarded on a full queue.
func (d *Dispatcher) Dropped() uint64 {
	if d == nil {
		return 0
	}
	return d.dropped.Load()
}

// Close stops the worker after draining the queue. Safe to call twice.
func (d *Dispatcher) Close() {
	if d == nil {
		return
	}
	d.closeOnce.Do(func() {
		d.closed.Store(true)
		close(d.done)
		d.wg.Wait()
	})
}
