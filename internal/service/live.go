package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"sitetrack/internal/domain"
	"sitetrack/internal/domain/repositories"
	"sitetrack/internal/metrics"
)

// snapshotFunc builds the snapshot numbered seq. repoll asks the stream to
// rebuild after the poll interval even without a change event.
type snapshotFunc[T any] func(ctx context.Context, seq uint64) (snap T, repoll bool, err error)

// liveQuery re-runs a query whenever a relevant change event arrives and
// pushes the full result. Snapshots are numbered from 1 and a failed
// rebuild does not consume a number. A rebuild that fails with ErrForbidden
// or ErrNotFound closes the stream; reconnecting then reports the error.
type liveQuery[T any] struct {
	kind     string
	events   <-chan repositories.ChangeEvent
	relevant func(repositories.ChangeEvent) bool
	build    snapshotFunc[T]
	poll     time.Duration
	logger   *slog.Logger
}

// start builds the first snapshot synchronously so setup errors reach the
// caller, then streams the rest until ctx is done.
func (q *liveQuery[T]) start(ctx context.Context) (<-chan T, error) {
	first, repoll, err := q.build(ctx, 1)
	if err != nil {
		return nil, err
	}

	out := make(chan T, 1)
	out <- first

	go func() {
		defer close(out)
		defer metrics.TrackSubscription(q.kind)()

		seq := uint64(1)
		timer := time.NewTimer(q.poll)
		if !repoll {
			timer.Stop()
		}
		defer timer.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-q.events:
				if !ok {
					return
				}
				if ev.Op != repositories.OpResync && !q.relevant(ev) {
					continue
				}
			case <-timer.C:
			}

			snap, again, err := q.build(ctx, seq+1)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				if errors.Is(err, domain.ErrForbidden) || errors.Is(err, domain.ErrNotFound) {
					q.logger.Info("live query ended", "kind", q.kind, "reason", err)
					return
				}
				q.logger.Warn("live query rebuild failed", "kind", q.kind, "error", err)
				timer.Reset(q.poll)
				continue
			}
			seq++

			select {
			case out <- snap:
			case <-ctx.Done():
				return
			}

			if again {
				timer.Reset(q.poll)
			} else {
				timer.Stop()
			}
		}
	}()

	return out, nil
}
