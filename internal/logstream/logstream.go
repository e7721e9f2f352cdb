// Package logstream is the dialer side of the log-stream event source: an
// outbound WebSocket subscription to the AMM's event feed, decoding each
// frame into a models.Event and handing it to the pipeline over a channel.
// It never writes to the registry itself; that is the reconciler's job.
package logstream

import (
	"context"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rawblock/arbengine/internal/eventcodec"
	"github.com/rawblock/arbengine/pkg/models"
)

// DefaultQueueDepth is the event queue's capacity when Config doesn't set
// one. At this depth the consumer is minutes behind a busy feed and the
// oldest queued reserves are already stale, so dropping from the head
// loses nothing a resync pass wouldn't rewrite anyway.
const DefaultQueueDepth = 4096

// Config holds the event feed's WebSocket endpoint and the depth of the
// decoded-event queue handed to the pipeline.
type Config struct {
	URL        string
	QueueDepth int
}

// Subscriber dials the configured endpoint and decodes every frame it
// receives, publishing decoded events on Events. Malformed frames are
// logged and dropped; a dropped connection is retried with backoff rather
// than treated as fatal: the pipeline keeps running on stale reserves
// until the stream recovers, the same tolerance the reconciler has for an
// unknown pool.
//
// When the consumer falls behind and the queue fills, the oldest queued
// event is dropped to make room for the newest, so the ranker always
// catches up onto the freshest reserves rather than stalling the
// WebSocket read loop behind a full channel. Dropping an event does
// desynchronize the affected pools until the next resync pass corrects
// them; Dropped exposes the running count so operators can see it happen.
type Subscriber struct {
	cfg     Config
	Events  chan models.Event
	dropped atomic.Int64
}

// NewSubscriber builds a Subscriber with a drop-oldest event queue of the
// configured depth; the pipeline coordinator is expected to drain it
// promptly.
func NewSubscriber(cfg Config) *Subscriber {
	depth := cfg.QueueDepth
	if depth <= 0 {
		depth = DefaultQueueDepth
	}
	return &Subscriber{
		cfg:    cfg,
		Events: make(chan models.Event, depth),
	}
}

// Dropped returns how many events have been discarded to keep the queue
// fresh since the subscriber was built.
func (s *Subscriber) Dropped() int64 {
	return s.dropped.Load()
}

// QueueDepth returns how many decoded events are waiting for the consumer.
func (s *Subscriber) QueueDepth() int {
	return len(s.Events)
}

// publish enqueues ev without ever blocking the read loop: when the queue
// is full, the oldest queued event is popped and discarded first. The
// consumer may race the pop, in which case the freed slot is taken and the
// loop simply tries the send again.
func (s *Subscriber) publish(ev models.Event) {
	for {
		select {
		case s.Events <- ev:
			return
		default:
		}

		select {
		case stale := <-s.Events:
			n := s.dropped.Add(1)
			if n == 1 || n%1000 == 0 {
				log.Printf("[LogStream] consumer behind, dropped oldest event (tx %s, %d total)", stale.TxID(), n)
			}
		default:
		}
	}
}

// Run dials and reads until ctx is cancelled, reconnecting with a fixed
// backoff on any read or dial error.
func (s *Subscriber) Run(ctx context.Context) {
	const backoff = 2 * time.Second

	for {
		select {
		case <-ctx.Done():
			log.Println("[LogStream] shutting down")
			return
		default:
		}

		if err := s.runOnce(ctx); err != nil {
			log.Printf("[LogStream] connection error: %v; reconnecting in %s", err, backoff)
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
	}
}

func (s *Subscriber) runOnce(ctx context.Context) error {
	log.Printf("[LogStream] dialing %s...", s.cfg.URL)
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, s.cfg.URL, nil)
	if err != nil {
		return fmt.Errorf("logstream: dial: %w", err)
	}
	defer conn.Close()
	log.Println("[LogStream] connected")

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("logstream: read: %w", err)
		}

		ev, err := eventcodec.Decode(raw)
		if err != nil {
			log.Printf("[LogStream] dropping malformed frame: %v", err)
			continue
		}

		s.publish(ev)
	}
}
