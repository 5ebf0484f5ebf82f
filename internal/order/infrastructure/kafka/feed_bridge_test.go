package kafka

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/dmehra2102/storefront/pkg/changefeed"
	"github.com/dmehra2102/storefront/pkg/logging"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// queueReader hands out msgs, then blocks until ctx ends.
type queueReader struct {
	mu        sync.Mutex
	msgs      []kafka.Message
	committed []int64
	closed    bool
}

func (r *queueReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	if len(r.msgs) > 0 {
		m := r.msgs[0]
		r.msgs = r.msgs[1:]
		r.mu.Unlock()
		return m, nil
	}
	r.mu.Unlock()
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (r *queueReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *queueReader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

type memDeduper struct {
	seen map[string]bool
	err  error
}

func (d *memDeduper) Key(topic string, partition int, offset int64) string {
	return fmt.Sprintf("%s:%d:%d", topic, partition, offset)
}

func (d *memDeduper) Seen(_ context.Context, key string) (bool, error) {
	if d.err != nil {
		return false, d.err
	}
	was := d.seen[key]
	d.seen[key] = true
	return was, nil
}

type published struct {
	scope  string
	change changefeed.Change
}

type recordingFeed struct {
	mu   sync.Mutex
	got  []published
	done chan struct{}
	want int
}

func (f *recordingFeed) Publish(_ context.Context, scope string, c changefeed.Change) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.got = append(f.got, published{scope: scope, change: c})
	if len(f.got) == f.want {
		close(f.done)
	}
	return nil
}

func msg(offset int64, eventType, key string, headers map[string]string, value string) kafka.Message {
	hs := []kafka.Header{{Key: "event_type", Value: []byte(eventType)}}
	for k, v := range headers {
		hs = append(hs, kafka.Header{Key: k, Value: []byte(v)})
	}
	return kafka.Message{Topic: "order.events", Offset: offset, Key: []byte(key), Value: []byte(value), Headers: hs}
}

func runBridge(t *testing.T, reader *queueReader, feed *recordingFeed, idem *memDeduper) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- NewFeedBridge(logging.Discard(), reader, feed, idem).Run(ctx) }()

	<-feed.done
	cancel()
	require.NoError(t, <-done)
}

func TestFeedBridge_ForwardsToBuyerScope(t *testing.T) {
	reader := &queueReader{msgs: []kafka.Message{
		msg(1, "OrderPlaced", "o1", map[string]string{"user_id": "u1"}, `{"order_id":"o1","user_id":"u1"}`),
		msg(2, "OrderStatusChanged", "o2", nil, `{"order_id":"o2","user_id":"u2","to":"shipped"}`),
	}}
	feed := &recordingFeed{done: make(chan struct{}), want: 2}
	runBridge(t, reader, feed, &memDeduper{seen: map[string]bool{}})

	require.Len(t, feed.got, 2)
	assert.Equal(t, "u1", feed.got[0].scope)
	assert.Equal(t, "orders", feed.got[0].change.Table)
	assert.Equal(t, "OrderPlaced", feed.got[0].change.Type)
	assert.Equal(t, "o1", feed.got[0].change.Key)
	assert.Equal(t, "u2", feed.got[1].scope)
	assert.JSONEq(t, `{"order_id":"o2","user_id":"u2","to":"shipped"}`, string(feed.got[1].change.Payload))
	assert.Equal(t, []int64{1, 2}, reader.committed)
	assert.True(t, reader.closed)
}

func TestFeedBridge_SkipsDuplicatesAndJunk(t *testing.T) {
	reader := &queueReader{msgs: []kafka.Message{
		msg(1, "OrderPlaced", "o1", nil, `{not json`),
		msg(2, "OrderPlaced", "o1", nil, `{"order_id":"o1"}`),
		msg(3, "OrderPlaced", "o3", nil, `{"order_id":"o3","user_id":"u3"}`),
	}}
	idem := &memDeduper{seen: map[string]bool{}}
	idem.seen[idem.Key("order.events", 0, 2)] = true
	feed := &recordingFeed{done: make(chan struct{}), want: 1}
	runBridge(t, reader, feed, idem)

	require.Len(t, feed.got, 1)
	assert.Equal(t, "u3", feed.got[0].scope)
	assert.Equal(t, []int64{1, 2, 3}, reader.committed)
}

func TestFeedBridge_IdempotencyOutageStillForwards(t *testing.T) {
	reader := &queueReader{msgs: []kafka.Message{
		msg(1, "OrderPlaced", "o1", map[string]string{"user_id": "u1"}, `{}`),
	}}
	feed := &recordingFeed{done: make(chan struct{}), want: 1}
	runBridge(t, reader, feed, &memDeduper{seen: map[string]bool{}, err: errors.New("redis down")})

	require.Len(t, feed.got, 1)
}
