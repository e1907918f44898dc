package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSender struct {
	mu     sync.Mutex
	texts  []string
	photos []string
	err    error
	block  chan struct{}
}

func (s *recordingSender) SendText(ctx context.Context, text string) error {
	if s.block != nil {
		select {
		case <-s.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.texts = append(s.texts, text)
	return s.err
}

func (s *recordingSender) SendPhoto(_ context.Context, caption string, _ []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.photos = append(s.photos, caption)
	return s.err
}

func TestNotifyDelivers(t *testing.T) {
	sender := &recordingSender{}
	n := New(sender, time.Second)

	n.Notify("hello")
	n.NotifyWithImage("grid", []byte{1, 2, 3})
	n.Wait()

	assert.Equal(t, []string{"hello"}, sender.texts)
	assert.Equal(t, []string{"grid"}, sender.photos)
}

func TestNotifyDoesNotBlockCaller(t *testing.T) {
	sender := &recordingSender{block: make(chan struct{})}
	n := New(sender, time.Second)

	done := make(chan struct{})
	go func() {
		n.Notify("slow")
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(500 * time.Millisecond):
		t.Fatal("Notify blocked on a slow sender")
	}
	close(sender.block)
	n.Wait()
}

func TestNotifySwallowsFailures(t *testing.T) {
	boom := errors.New("telegram down")
	sender := &recordingSender{err: boom}
	n := New(sender, time.Second)

	var mu sync.Mutex
	var got []error
	n.OnError = func(err error) {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, err)
	}

	n.Notify("lost")
	n.Wait()

	require.Len(t, got, 1)
	var derr *DeliveryError
	require.ErrorAs(t, got[0], &derr)
	assert.Equal(t, "message", derr.Op)
	assert.ErrorIs(t, got[0], boom)
}

func TestNotifyTimesOut(t *testing.T) {
	sender := &recordingSender{block: make(chan struct{})}
	n := New(sender, 20*time.Millisecond)

	var mu sync.Mutex
	var got error
	n.OnError = func(err error) {
		mu.Lock()
		defer mu.Unlock()
		got = err
	}

	n.Notify("stuck")
	n.Wait()
	close(sender.block)

	assert.ErrorIs(t, got, context.DeadlineExceeded)
}
