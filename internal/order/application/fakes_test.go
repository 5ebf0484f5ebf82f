package application

import (
	"context"
	"fmt"
	"sort"
	"sync"

	cartdomain "github.com/dmehra2102/storefront/internal/cart/domain"
	coupondomain "github.com/dmehra2102/storefront/internal/coupon/domain"
	"github.com/dmehra2102/storefront/internal/order/domain"
	"github.com/dmehra2102/storefront/pkg/notify"
	"github.com/dmehra2102/storefront/pkg/outbox"
)

type fakeCart struct {
	mu          sync.Mutex
	lines       map[string][]cartdomain.Line
	err         error
	invalidated []string
}

func newFakeCart() *fakeCart {
	return &fakeCart{lines: map[string][]cartdomain.Line{}}
}

func (f *fakeCart) Snapshot(_ context.Context, userID string) (cartdomain.Cart, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return cartdomain.Cart{}, f.err
	}
	return cartdomain.Cart{UserID: userID, Lines: append([]cartdomain.Line(nil), f.lines[userID]...)}, nil
}

func (f *fakeCart) Invalidate(userID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invalidated = append(f.invalidated, userID)
}

// take removes the ordered lines and fails if any was removed or
// requantified since the snapshot.
func (f *fakeCart) take(userID string, items []domain.Item) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	want := map[string]int{}
	for _, it := range items {
		want[it.CartLineID] = it.Quantity
	}
	var kept []cartdomain.Line
	for _, l := range f.lines[userID] {
		qty, ordered := want[l.ID]
		switch {
		case !ordered:
			kept = append(kept, l)
		case qty != l.Quantity:
			return domain.ErrCartChanged
		default:
			delete(want, l.ID)
		}
	}
	if len(want) > 0 {
		return domain.ErrCartChanged
	}
	f.lines[userID] = kept
	return nil
}

func (f *fakeCart) setLines(userID string, lines ...cartdomain.Line) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lines[userID] = lines
}

func (f *fakeCart) count(userID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.lines[userID])
}

type fakeRepo struct {
	mu        sync.Mutex
	cart      *fakeCart
	orders    map[string]domain.Order
	taken     map[string]bool
	outbox    []outbox.Record
	createErr error
	updateErr error
	creates   int
	// beforeCreate and beforeUpdate run before the transactional writes.
	beforeCreate func()
	beforeUpdate func()
}

func newFakeRepo(cart *fakeCart) *fakeRepo {
	return &fakeRepo{cart: cart, orders: map[string]domain.Order{}, taken: map[string]bool{}}
}

func (r *fakeRepo) CreateWithOutbox(ctx context.Context, o domain.Order, rec outbox.Record) error {
	if r.beforeCreate != nil {
		r.beforeCreate()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.creates++
	if err := ctx.Err(); err != nil {
		return err
	}
	if r.createErr != nil {
		return r.createErr
	}
	if r.taken[o.Number] {
		return domain.ErrDuplicateOrderNumber
	}
	if r.cart != nil {
		if err := r.cart.take(o.UserID, o.Items); err != nil {
			return err
		}
	}
	r.taken[o.Number] = true
	r.orders[o.ID] = o
	r.outbox = append(r.outbox, rec)
	return nil
}

func (r *fakeRepo) UpdateStatusWithOutbox(_ context.Context, ch domain.StatusChange, rec outbox.Record) (domain.Order, error) {
	if r.beforeUpdate != nil {
		r.beforeUpdate()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updateErr != nil {
		return domain.Order{}, r.updateErr
	}
	o, ok := r.orders[ch.OrderID]
	if !ok {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	if o.Status != ch.From {
		return domain.Order{}, domain.ErrIllegalStatusTransition
	}
	o.Status = ch.To
	if ch.PaymentStatus != nil {
		o.PaymentStatus = *ch.PaymentStatus
	}
	if ch.Tracking != nil {
		o.TrackingNumber = ch.Tracking.Number
		o.TrackingURL = ch.Tracking.URL
	}
	r.orders[o.ID] = o
	r.outbox = append(r.outbox, rec)
	return o, nil
}

func (r *fakeRepo) Get(_ context.Context, id string) (domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	return o, nil
}

func (r *fakeRepo) setStatus(id string, st domain.Status) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o := r.orders[id]
	o.Status = st
	r.orders[id] = o
}

func (r *fakeRepo) ListByUser(_ context.Context, userID string) ([]domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Order
	for _, o := range r.orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *fakeRepo) List(_ context.Context, status *domain.Status) ([]domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Order
	for _, o := range r.orders {
		if status == nil || o.Status == *status {
			out = append(out, o)
		}
	}
	return out, nil
}

func (r *fakeRepo) visible() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.orders)
}

type fakeOrderCache struct {
	mu          sync.Mutex
	lists       map[string][]domain.Order
	invalidated []string
}

func newFakeOrderCache() *fakeOrderCache {
	return &fakeOrderCache{lists: map[string][]domain.Order{}}
}

func (c *fakeOrderCache) GetList(_ context.Context, userID string) ([]domain.Order, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	l, ok := c.lists[userID]
	if !ok {
		return nil, ErrCacheMiss
	}
	return l, nil
}

func (c *fakeOrderCache) SetList(_ context.Context, userID string, orders []domain.Order) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lists[userID] = orders
	return nil
}

func (c *fakeOrderCache) Invalidate(_ context.Context, userID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.lists, userID)
	c.invalidated = append(c.invalidated, userID)
	return nil
}

type fakeCoupons struct {
	coupons map[string]coupondomain.Coupon
	calls   int
}

func (f *fakeCoupons) Evaluate(_ context.Context, code string, subtotal int64) (coupondomain.Result, error) {
	f.calls++
	c, ok := f.coupons[code]
	if !ok {
		return coupondomain.Evaluate(nil, code, subtotal, fixedNow)
	}
	return coupondomain.Evaluate(&c, code, subtotal, fixedNow)
}

type fakeGuard struct {
	mu       sync.Mutex
	held     map[string]bool
	err      error
	released []string
}

func newFakeGuard() *fakeGuard {
	return &fakeGuard{held: map[string]bool{}}
}

func (g *fakeGuard) Acquire(_ context.Context, key string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return false, g.err
	}
	if g.held[key] {
		return false, nil
	}
	g.held[key] = true
	return true, nil
}

func (g *fakeGuard) Release(_ context.Context, key string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.held, key)
	g.released = append(g.released, key)
	return nil
}

// seqNumbers hands out the given numbers first, then ORD-N.
type seqNumbers struct {
	mu    sync.Mutex
	fixed []string
	n     int
}

func (s *seqNumbers) Next() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	if len(s.fixed) > 0 {
		v := s.fixed[0]
		s.fixed = s.fixed[1:]
		return v, nil
	}
	return fmt.Sprintf("ORD-%d", s.n), nil
}

type sentNotification struct {
	UserID string
	notify.Notification
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentNotification
}

func (r *recordingNotifier) Notify(_ context.Context, userID string, n notify.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, sentNotification{UserID: userID, Notification: n})
}

func (r *recordingNotifier) all() []sentNotification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]sentNotification(nil), r.sent...)
}

type memNotificationLog struct {
	mu   sync.Mutex
	keys map[string]bool
	err  error
}

func newMemNotificationLog() *memNotificationLog {
	return &memNotificationLog{keys: map[string]bool{}}
}

func (l *memNotificationLog) Seen(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return false, l.err
	}
	seen := l.keys[key]
	l.keys[key] = true
	return seen, nil
}
