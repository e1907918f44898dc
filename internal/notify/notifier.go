// Package notify delivers messages to the chat channel without blocking the
// caller. Delivery is best effort: failures are logged and dropped.
package notify

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"
)

// Sender performs the actual delivery.
type Sender interface {
	SendText(ctx context.Context, text string) error
	SendPhoto(ctx context.Context, caption string, image []byte) error
}

// DeliveryError wraps a failed send.
type DeliveryError struct {
	Op  string
	Err error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("notify %s: %v", e.Op, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

// Notifier runs each send on its own goroutine with a timeout.
type Notifier struct {
	sender  Sender
	timeout time.Duration
	wg      sync.WaitGroup

	// OnError observes failed deliveries after they are logged.
	OnError func(error)
}

func New(sender Sender, timeout time.Duration) *Notifier {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Notifier{sender: sender, timeout: timeout}
}

// Notify sends text and returns immediately.
func (n *Notifier) Notify(text string) {
	n.dispatch("message", func(ctx context.Context) error {
		return n.sender.SendText(ctx, text)
	})
}

// NotifyWithImage sends a photo with a caption and returns immediately.
func (n *Notifier) NotifyWithImage(caption string, image []byte) {
	n.dispatch("photo", func(ctx context.Context) error {
		return n.sender.SendPhoto(ctx, caption, image)
	})
}

// Wait blocks until in-flight sends finish.
func (n *Notifier) Wait() {
	n.wg.Wait()
}

func (n *Notifier) dispatch(op string, send func(ctx context.Context) error) {
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				n.fail(&DeliveryError{Op: op, Err: fmt.Errorf("panic: %v", r)})
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), n.timeout)
		defer cancel()
		if err := send(ctx); err != nil {
			n.fail(&DeliveryError{Op: op, Err: err})
		}
	}()
}

func (n *Notifier) fail(err error) {
	log.Printf("[error] %v", err)
	if n.OnError != nil {
		n.OnError(err)
	}
}

// LogSender writes messages to the log; used when no bot token is configured.
type LogSender struct{}

func (LogSender) SendText(_ context.Context, text string) error {
	log.Printf("[info] notify (log only): %s", text)
	return nil
}

func (LogSender) SendPhoto(_ context.Context, caption string, image []byte) error {
	log.Printf("[info] notify photo (log only, %d bytes): %s", len(image), caption)
	return nil
}
