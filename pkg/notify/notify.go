// Package notify is the user-facing notification surface. Delivery is
// fire-and-forget: implementations log failures and never return them.
package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
)

type Notification struct {
	Kind    Kind      `json:"kind"`
	Title   string    `json:"title"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

type Notifier interface {
	Notify(ctx context.Context, userID string, n Notification)
}

func Success(title, message string) Notification {
	return Notification{Kind: KindSuccess, Title: title, Message: message}
}

func Error(title, message string) Notification {
	return Notification{Kind: KindError, Title: title, Message: message}
}

type LogNotifier struct {
	log *slog.Logger
}

func NewLogNotifier(log *slog.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (l *LogNotifier) Notify(_ context.Context, userID string, n Notification) {
	l.log.Info("notification", "user_id", userID, "kind", n.Kind, "title", n.Title, "message", n.Message)
}

// RedisNotifier publishes notifications on the per-user channel
// "notifications:<user>".
type RedisNotifier struct {
	log *slog.Logger
	rdb *redis.Client
	now func() time.Time
}

func NewRedisNotifier(log *slog.Logger, rdb *redis.Client) *RedisNotifier {
	return &RedisNotifier{log: log, rdb: rdb, now: time.Now}
}

func Channel(userID string) string {
	return "notifications:" + userID
}

func (r *RedisNotifier) Notify(ctx context.Context, userID string, n Notification) {
	if n.At.IsZero() {
		n.At = r.now().UTC()
	}
	body, err := json.Marshal(n)
	if err != nil {
		r.log.Error("notification marshal failed", "user_id", userID, "err", err)
		return
	}
	if err := r.rdb.Publish(ctx, Channel(userID), body).Err(); err != nil {
		r.log.Error("notification publish failed", "user_id", userID, "err", err)
	}
}

type Multi []Notifier

func (m Multi) Notify(ctx context.Context, userID string, n Notification) {
	for _, nt := range m {
		nt.Notify(ctx, userID, n)
	}
}
