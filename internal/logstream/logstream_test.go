package logstream

import (
	"strconv"
	"testing"

	"github.com/rawblock/arbengine/pkg/models"
)

func TestNewSubscriberDefaultsQueueDepth(t *testing.T) {
	s := NewSubscriber(Config{})
	if cap(s.Events) != DefaultQueueDepth {
		t.Fatalf("expected default queue depth %d, got %d", DefaultQueueDepth, cap(s.Events))
	}
}

func TestPublishDropsOldestWhenFull(t *testing.T) {
	s := NewSubscriber(Config{QueueDepth: 2})

	for i := 1; i <= 3; i++ {
		s.publish(models.SwapEvent{Tx: strconv.Itoa(i)})
	}

	if got := s.Dropped(); got != 1 {
		t.Fatalf("expected exactly 1 dropped event, got %d", got)
	}
	if got := s.QueueDepth(); got != 2 {
		t.Fatalf("expected the queue to stay at capacity 2, got %d", got)
	}

	// The survivors must be the two newest events, oldest first.
	for want := 2; want <= 3; want++ {
		ev := <-s.Events
		if ev.TxID() != strconv.Itoa(want) {
			t.Fatalf("expected tx %d next in queue, got %s", want, ev.TxID())
		}
	}
}

func TestPublishNeverBlocksAtDepthOne(t *testing.T) {
	s := NewSubscriber(Config{QueueDepth: 1})

	// With nobody consuming, repeated publishes must complete and leave
	// only the newest event behind.
	for i := 1; i <= 10; i++ {
		s.publish(models.SwapEvent{Tx: strconv.Itoa(i)})
	}

	ev := <-s.Events
	if ev.TxID() != "10" {
		t.Fatalf("expected only the newest event to survive, got tx %s", ev.TxID())
	}
	if got := s.QueueDepth(); got != 0 {
		t.Fatalf("expected an empty queue after draining, got %d", got)
	}
}
