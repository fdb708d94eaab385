package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/jackc/pgx/v5"

	"sitetrack/internal/domain/repositories"
)

// Listener holds one dedicated connection that LISTENs on the change
// channel and republishes every notification into a ChangeFeed.
type Listener struct {
	connConfig *pgx.ConnConfig
	channel    string
	tables     []string
	feed       repositories.ChangeFeed
	logger     *slog.Logger
}

// NewListener creates a listener. tables are the logical table names that
// receive a resync after every reconnect, since notifications sent while
// disconnected are lost.
func NewListener(connConfig *pgx.ConnConfig, channel string, tables []string, feed repositories.ChangeFeed, logger *slog.Logger) *Listener {
	return &Listener{
		connConfig: connConfig,
		channel:    channel,
		tables:     tables,
		feed:       feed,
		logger:     logger,
	}
}

// Run listens until ctx is done, reconnecting with exponential backoff
func (l *Listener) Run(ctx context.Context) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 30 * time.Second

	first := true
	for {
		err := l.listen(ctx, func() {
			b.Reset()
			if !first {
				l.resync()
			}
			first = false
		})
		if ctx.Err() != nil {
			return nil
		}

		wait := b.NextBackOff()
		l.logger.Warn("change listener disconnected, retrying",
			"error", err,
			"channel", l.channel,
			"retry_in", wait,
		)

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(wait):
		}
	}
}

func (l *Listener) listen(ctx context.Context, onConnected func()) error {
	conn, err := pgx.ConnectConfig(ctx, l.connConfig)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer conn.Close(context.Background())

	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{l.channel}.Sanitize()); err != nil {
		return fmt.Errorf("listen %s: %w", l.channel, err)
	}

	l.logger.Info("change listener connected", "channel", l.channel)
	onConnected()

	for {
		n, err := conn.WaitForNotification(ctx)
		if err != nil {
			return fmt.Errorf("wait for notification: %w", err)
		}

		var ev repositories.ChangeEvent
		if err := json.Unmarshal([]byte(n.Payload), &ev); err != nil {
			l.logger.Warn("malformed change notification", "error", err, "payload", n.Payload)
			continue
		}
		l.feed.Publish(ev)
	}
}

func (l *Listener) resync() {
	for _, t := range l.tables {
		l.feed.Publish(repositories.ChangeEvent{Table: t, Op: OpResync})
	}
}
