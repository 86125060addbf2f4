package kafka

import (
	"context"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"relay/internal/bus"
	"relay/internal/relay"
)

type fakeWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.msgs = append(w.msgs, msgs...)
	return w.err
}

func (w *fakeWriter) Close() error { return nil }

type fakeReader struct {
	msgs      []kafka.Message
	committed []int64
	closed    bool
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	if len(r.msgs) == 0 {
		<-ctx.Done()
		return kafka.Message{}, ctx.Err()
	}
	msg := r.msgs[0]
	r.msgs = r.msgs[1:]
	return msg, nil
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *fakeReader) Close() error {
	r.closed = true
	return nil
}

func testEvent() relay.Event {
	return relay.Event{
		Source:     relay.Source,
		DetailType: relay.DetailType,
		Detail:     []byte(`{"requestData":{"body":"hello"},"type":"forward"}`),
		BusName:    "relay-bus",
	}
}

func encoded(t *testing.T, offset int64) kafka.Message {
	t.Helper()

	_, data, err := bus.Encode(testEvent())
	require.NoError(t, err)
	return kafka.Message{Topic: "relay-bus", Offset: offset, Value: data}
}

func TestBus_Publish(t *testing.T) {
	w := &fakeWriter{}

	id, err := NewBus(w).Publish(context.Background(), testEvent())
	require.NoError(t, err)

	require.Len(t, w.msgs, 1)
	assert.Equal(t, "relay-bus", w.msgs[0].Topic)
	assert.Equal(t, id, string(w.msgs[0].Key))

	delivered, err := bus.Decode(w.msgs[0].Value)
	require.NoError(t, err)
	assert.Equal(t, id, delivered.ID)
}

func TestBus_PublishError(t *testing.T) {
	_, err := NewBus(&fakeWriter{err: errors.New("leader not available")}).Publish(context.Background(), testEvent())
	assert.ErrorIs(t, err, relay.ErrDependency)
}

func TestSource_Receive(t *testing.T) {
	r := &fakeReader{msgs: []kafka.Message{encoded(t, 10), encoded(t, 11)}}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var got []relay.DeliveredEvent
	err := NewSource(r, zap.NewNop()).Receive(ctx, func(_ context.Context, e relay.DeliveredEvent) error {
		got = append(got, e)
		if len(got) == 2 {
			cancel()
		}
		return nil
	})

	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, []int64{10, 11}, r.committed)
	assert.True(t, r.closed)
}

func TestSource_Receive_DeliveryError(t *testing.T) {
	r := &fakeReader{msgs: []kafka.Message{encoded(t, 5), encoded(t, 6)}}

	err := NewSource(r, zap.NewNop()).Receive(context.Background(), func(context.Context, relay.DeliveredEvent) error {
		return errors.New("store down")
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "offset 5")
	assert.Empty(t, r.committed)
}
