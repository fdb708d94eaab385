package realtime

import (
	"context"
	"log/slog"
	"sync"

	"sitetrack/internal/domain/repositories"
	"sitetrack/internal/metrics"
)

// OpResync is delivered in place of events a slow subscriber missed
const OpResync = repositories.OpResync

// DefaultBuffer is the per-subscriber channel capacity
const DefaultBuffer = 32

// Hub fans change events out to subscribers. It implements
// repositories.ChangeFeed.
type Hub struct {
	mu     sync.Mutex
	subs   map[*subscriber]struct{}
	buffer int
	logger *slog.Logger
}

type subscriber struct {
	tables map[string]struct{}
	ch     chan repositories.ChangeEvent
}

// NewHub creates an empty hub
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		subs:   make(map[*subscriber]struct{}),
		buffer: DefaultBuffer,
		logger: logger,
	}
}

// Subscribe returns a channel of events for tables. With no tables every
// event is delivered. The channel closes when ctx is done.
func (h *Hub) Subscribe(ctx context.Context, tables ...string) <-chan repositories.ChangeEvent {
	sub := &subscriber{
		tables: make(map[string]struct{}, len(tables)),
		ch:     make(chan repositories.ChangeEvent, h.buffer),
	}
	for _, t := range tables {
		sub.tables[t] = struct{}{}
	}

	h.mu.Lock()
	h.subs[sub] = struct{}{}
	h.mu.Unlock()

	go func() {
		<-ctx.Done()
		h.mu.Lock()
		delete(h.subs, sub)
		close(sub.ch)
		h.mu.Unlock()
	}()

	return sub.ch
}

// Publish delivers ev to every interested subscriber without blocking
func (h *Hub) Publish(ev repositories.ChangeEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for sub := range h.subs {
		if !sub.wants(ev.Table) {
			continue
		}
		select {
		case sub.ch <- ev:
			continue
		default:
		}

		// Full: evict the oldest event and queue a resync, which subsumes
		// both the evicted event and ev. Only Publish sends, under h.mu,
		// so the freed slot cannot be taken by another sender.
		select {
		case <-sub.ch:
		default:
		}
		select {
		case sub.ch <- repositories.ChangeEvent{Table: ev.Table, Op: OpResync}:
		default:
		}
		metrics.ChangeEventsDropped.Inc()
		h.logger.Debug("subscriber lagging, coalescing events", "table", ev.Table)
	}
}

// Subscribers returns the number of open subscriptions
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

func (s *subscriber) wants(table string) bool {
	if len(s.tables) == 0 {
		return true
	}
	_, ok := s.tables[table]
	return ok
}
