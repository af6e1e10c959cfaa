package event

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khoahotran/portgen/internal/application/service"
	"github.com/khoahotran/portgen/internal/config"
	"github.com/khoahotran/portgen/pkg/logger"
)

// scriptedReader hands out msgs in order, then reports the context error.
type scriptedReader struct {
	msgs      []kafka.Message
	committed []int64
	cancel    context.CancelFunc
}

func (r *scriptedReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	if len(r.msgs) == 0 {
		r.cancel()
		return kafka.Message{}, ctx.Err()
	}
	m := r.msgs[0]
	r.msgs = r.msgs[1:]
	return m, nil
}

func (r *scriptedReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *scriptedReader) Close() error { return nil }

func encodeEvent(t *testing.T, e service.PortfolioEvent) []byte {
	b, err := json.Marshal(e)
	require.NoError(t, err)
	return b
}

func TestKafkaConsumer_CommitsHandledAndUndecodable(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	r := &scriptedReader{cancel: cancel, msgs: []kafka.Message{
		{Offset: 1, Value: encodeEvent(t, service.PortfolioEvent{Type: service.PortfolioEventCreated, PortfolioID: "p1", OwnerID: "u1"})},
		{Offset: 2, Value: []byte("not json")},
		{Offset: 3, Value: encodeEvent(t, service.PortfolioEvent{Type: service.PortfolioEventDeleted, PortfolioID: "p2", OwnerID: "u1"})},
	}}
	c := &KafkaConsumer{reader: r, logger: logger.NewNop(), maxAttempts: 3}

	var seen []string
	err := c.Run(ctx, func(_ context.Context, e service.PortfolioEvent) error {
		seen = append(seen, e.PortfolioID)
		if e.PortfolioID == "p2" {
			return errors.New("store unavailable")
		}
		return nil
	})
	require.NoError(t, err)

	// p2 is retried until attempts run out, then dropped and committed.
	assert.Equal(t, []string{"p1", "p2", "p2", "p2"}, seen)
	assert.Equal(t, []int64{1, 2, 3}, r.committed)
}

func TestKafkaConsumer_RetriesUntilHandled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	r := &scriptedReader{cancel: cancel, msgs: []kafka.Message{
		{Offset: 7, Value: encodeEvent(t, service.PortfolioEvent{Type: service.PortfolioEventBackrefFailed, PortfolioID: "p1", OwnerID: "u1"})},
	}}
	c := &KafkaConsumer{reader: r, logger: logger.NewNop(), maxAttempts: 5, backoff: time.Millisecond}

	calls := 0
	err := c.Run(ctx, func(context.Context, service.PortfolioEvent) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []int64{7}, r.committed)
}

func TestNewKafkaConsumer_RequiresBrokers(t *testing.T) {
	_, err := NewKafkaConsumer(config.Config{}, logger.NewNop())
	assert.Error(t, err)
}
