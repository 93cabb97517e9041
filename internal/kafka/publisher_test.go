package kafka

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"lapor-chat/internal/config"
	"lapor-chat/internal/imtypes"
)

type sent struct {
	topic string
	key   string
	value []byte
}

type recordingProducer struct {
	sent []sent
	fail map[string]error
}

func (p *recordingProducer) SendMessage(_ context.Context, topic string, key []byte, payload []byte) error {
	if err := p.fail[topic]; err != nil {
		return err
	}
	p.sent = append(p.sent, sent{topic: topic, key: string(key), value: payload})
	return nil
}

func (p *recordingProducer) Close() {}

func TestEventPublisher(t *testing.T) {
	ctx := context.Background()
	cfg := config.KafkaConfig{MessageEventsTopic: "events", NotificationsTopic: "notify"}

	t.Run("should send appends to both topics", func(t *testing.T) {
		req := require.New(t)
		prod := &recordingProducer{}
		pub := NewEventPublisher(prod, cfg)
		ev := imtypes.MessageEvent{Event: imtypes.MessageAppended, MessageID: "m1", UserID: "u1", Text: "halo", At: time.Now().UTC()}

		req.NoError(pub.PublishMessageEvent(ctx, ev))

		req.Len(prod.sent, 2)
		req.Equal("events", prod.sent[0].topic)
		req.Equal("notify", prod.sent[1].topic)
		req.Equal("m1", prod.sent[0].key)
		decoded, err := DecodeMessageEvent(prod.sent[1].value)
		req.NoError(err)
		req.Equal("halo", decoded.Text)
		req.Equal(imtypes.MessageAppended, decoded.Event)
	})

	t.Run("should send deletes only to the events topic", func(t *testing.T) {
		req := require.New(t)
		prod := &recordingProducer{}
		pub := NewEventPublisher(prod, cfg)

		req.NoError(pub.PublishMessageEvent(ctx, imtypes.MessageEvent{Event: imtypes.MessageDeleted, MessageID: "m1"}))

		req.Len(prod.sent, 1)
		req.Equal("events", prod.sent[0].topic)
	})

	t.Run("should still notify when the events topic fails", func(t *testing.T) {
		req := require.New(t)
		prod := &recordingProducer{fail: map[string]error{"events": errors.New("broker down")}}
		pub := NewEventPublisher(prod, cfg)

		err := pub.PublishMessageEvent(ctx, imtypes.MessageEvent{Event: imtypes.MessageAppended, MessageID: "m2"})

		req.Error(err)
		req.Len(prod.sent, 1)
		req.Equal("notify", prod.sent[0].topic)
	})
}

func TestDecodeMessageEvent(t *testing.T) {
	req := require.New(t)

	_, err := DecodeMessageEvent([]byte(`{"messageId":"m1"}`))
	req.Error(err)

	_, err = DecodeMessageEvent([]byte(`not json`))
	req.Error(err)
}
