package outbox

import (
	"context"
	"errors"
	"testing"

	"github.com/dmehra2102/storefront/pkg/logging"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProducer struct {
	msgs []kafka.Message
	err  error
}

func (p *fakeProducer) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if p.err != nil {
		return p.err
	}
	p.msgs = append(p.msgs, msgs...)
	return nil
}

func header(m kafka.Message, key string) string {
	for _, h := range m.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func TestDispatch_BuildsMessage(t *testing.T) {
	p := &fakeProducer{}
	d := NewDispatcher(logging.Discard(), p, "order.events")

	err := d.Dispatch(context.Background(), Event{
		ID:          10,
		AggregateID: "order-1",
		Type:        "OrderStatusChanged",
		Payload:     []byte(`{"to":"shipped"}`),
		Headers:     map[string]string{"user_id": "u-1"},
		Traceparent: "00-abc-def-01",
	})
	require.NoError(t, err)
	require.Len(t, p.msgs, 1)

	m := p.msgs[0]
	assert.Equal(t, "order.events", m.Topic)
	assert.Equal(t, "order-1", string(m.Key))
	assert.JSONEq(t, `{"to":"shipped"}`, string(m.Value))
	assert.Equal(t, "OrderStatusChanged", header(m, "event_type"))
	assert.Equal(t, "u-1", header(m, "user_id"))
	assert.Equal(t, "00-abc-def-01", header(m, "traceparent"))
}

func TestDispatch_BreakerOpensAfterConsecutiveFailures(t *testing.T) {
	p := &fakeProducer{err: errors.New("broker down")}
	d := NewDispatcher(logging.Discard(), p, "order.events")

	for i := 0; i < 5; i++ {
		err := d.Dispatch(context.Background(), Event{ID: int64(i)})
		require.Error(t, err)
		assert.False(t, IsBreakerOpen(err))
	}

	err := d.Dispatch(context.Background(), Event{ID: 99})
	assert.True(t, IsBreakerOpen(err))
	assert.ErrorIs(t, err, ErrBreakerOpen)
}
