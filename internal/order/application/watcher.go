package application

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/dmehra2102/storefront/internal/order/domain"
	"github.com/dmehra2102/storefront/pkg/changefeed"
	"github.com/dmehra2102/storefront/pkg/notify"
)

const FeedTable = "orders"

// Update is what a buyer's live order view receives.
type Update struct {
	Type        string        `json:"type"`
	OrderID     string        `json:"order_id"`
	OrderNumber string        `json:"order_number"`
	Status      domain.Status `json:"status"`
	At          time.Time     `json:"at"`
}

// Watcher reacts to a buyer's order change feed: it drops the buyer's cached
// order list, raises the notification for the new state and hands the update
// to the caller. A buyer may have several streams open; each status
// notification is raised by whichever stream claims it first.
type Watcher struct {
	log      *slog.Logger
	cache    OrderCache
	notifier notify.Notifier
	raised   NotificationLog
}

func NewWatcher(log *slog.Logger, cache OrderCache, notifier notify.Notifier, raised NotificationLog) *Watcher {
	return &Watcher{log: log, cache: cache, notifier: notifier, raised: raised}
}

// Watch returns nil when events is closed and ctx.Err() when ctx ends first.
func (w *Watcher) Watch(ctx context.Context, userID string, events <-chan changefeed.Change, onChange func(Update)) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case c, ok := <-events:
			if !ok {
				return nil
			}
			u, ok := w.handle(ctx, userID, c)
			if ok && onChange != nil {
				onChange(u)
			}
		}
	}
}

func (w *Watcher) handle(ctx context.Context, userID string, c changefeed.Change) (Update, bool) {
	var u Update
	switch c.Type {
	case domain.EventOrderStatusChanged:
		var ev domain.OrderStatusChanged
		if err := json.Unmarshal(c.Payload, &ev); err != nil {
			w.log.Warn("order change undecodable", "type", c.Type, "err", err)
			return Update{}, false
		}
		if ev.UserID != userID {
			return Update{}, false
		}
		u = Update{Type: c.Type, OrderID: ev.OrderID, OrderNumber: ev.OrderNumber, Status: ev.To, At: ev.ChangedAt}
	case domain.EventOrderPlaced:
		var ev domain.OrderPlaced
		if err := json.Unmarshal(c.Payload, &ev); err != nil {
			w.log.Warn("order change undecodable", "type", c.Type, "err", err)
			return Update{}, false
		}
		if ev.UserID != userID {
			return Update{}, false
		}
		u = Update{Type: c.Type, OrderID: ev.OrderID, OrderNumber: ev.OrderNumber, Status: ev.Status, At: ev.PlacedAt}
	default:
		return Update{}, false
	}

	if err := w.cache.Invalidate(ctx, userID); err != nil {
		w.log.Warn("order cache invalidate failed", "user_id", userID, "err", err)
	}
	if u.Type == domain.EventOrderStatusChanged && w.claim(ctx, u) {
		w.notifier.Notify(ctx, userID, StatusNotification(u.Status, u.OrderNumber))
	}
	return u, true
}

// claim fails open: a lost dedupe store means a possible repeat, not silence.
func (w *Watcher) claim(ctx context.Context, u Update) bool {
	key := "order-notify:" + u.OrderID + ":" + string(u.Status)
	seen, err := w.raised.Seen(ctx, key)
	if err != nil {
		w.log.Warn("notification dedupe failed", "key", key, "err", err)
		return true
	}
	return !seen
}

// StatusNotification is the buyer-facing message for an order entering status.
func StatusNotification(status domain.Status, number string) notify.Notification {
	switch status {
	case domain.StatusConfirmed:
		return notify.Success("Order accepted", fmt.Sprintf("Your order %s has been accepted by the seller.", number))
	case domain.StatusProcessing:
		return notify.Success("Order processing", fmt.Sprintf("Your order %s is being prepared.", number))
	case domain.StatusShipped:
		return notify.Success("Order shipped", fmt.Sprintf("Your order %s is on its way.", number))
	case domain.StatusDelivered:
		return notify.Success("Order delivered", fmt.Sprintf("Your order %s has been delivered.", number))
	case domain.StatusCancelled:
		return notify.Error("Order cancelled", fmt.Sprintf("Your order %s has been cancelled.", number))
	case domain.StatusRefunded:
		return notify.Error("Order refunded", fmt.Sprintf("Your order %s has been refunded.", number))
	}
	return notify.Success("Order updated", fmt.Sprintf("Your order %s is now %s.", number, status))
}
