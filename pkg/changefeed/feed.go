// Package changefeed pushes row-change events to scoped subscribers over
// Redis pub/sub. A scope is usually the owning user id.
package changefeed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

type Change struct {
	Table   string          `json:"table"`
	Type    string          `json:"type"`
	Key     string          `json:"key"`
	Payload json.RawMessage `json:"payload"`
	At      time.Time       `json:"at"`
}

type Feed struct {
	log *slog.Logger
	rdb *redis.Client
}

func New(log *slog.Logger, rdb *redis.Client) *Feed {
	return &Feed{log: log, rdb: rdb}
}

func Channel(table, scope string) string {
	return fmt.Sprintf("feed:%s:%s", table, scope)
}

func (f *Feed) Publish(ctx context.Context, scope string, c Change) error {
	if c.At.IsZero() {
		c.At = time.Now().UTC()
	}
	body, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal change: %w", err)
	}
	return f.rdb.Publish(ctx, Channel(c.Table, scope), body).Err()
}

// Subscribe returns once the subscription is live. The subscription ends when
// Close is called or ctx is done, whichever comes first.
func (f *Feed) Subscribe(ctx context.Context, table, scope string) (*Subscription, error) {
	ps := f.rdb.Subscribe(ctx, Channel(table, scope))
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("subscribe %s: %w", Channel(table, scope), err)
	}

	s := &Subscription{
		ps:     ps,
		events: make(chan Change, 16),
		done:   make(chan struct{}),
	}
	go s.pump(f.log)
	go func() {
		select {
		case <-ctx.Done():
			_ = s.Close()
		case <-s.done:
		}
	}()
	return s, nil
}

type Subscription struct {
	ps     *redis.PubSub
	events chan Change
	done   chan struct{}
	once   sync.Once
}

// Events is closed after the subscription ends.
func (s *Subscription) Events() <-chan Change {
	return s.events
}

func (s *Subscription) Close() error {
	var err error
	s.once.Do(func() {
		close(s.done)
		err = s.ps.Close()
		if errors.Is(err, redis.ErrClosed) {
			err = nil
		}
	})
	return err
}

func (s *Subscription) pump(log *slog.Logger) {
	defer close(s.events)
	msgs := s.ps.Channel()
	for {
		select {
		case <-s.done:
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}
			var c Change
			if err := json.Unmarshal([]byte(msg.Payload), &c); err != nil {
				log.Warn("changefeed message dropped", "channel", msg.Channel, "err", err)
				continue
			}
			select {
			case s.events <- c:
			case <-s.done:
				return
			}
		}
	}
}
