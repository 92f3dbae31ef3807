package memory

import (
	"context"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ispbilling/ispbilling/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPubSub_PublishSubscribe(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	ps := NewPubSub(logger.NewNoopLogger())
	defer ps.Close()

	msgs, err := ps.Subscribe(ctx, "subscription.events")
	require.NoError(t, err)

	msg := message.NewMessage(watermill.NewUUID(), []byte(`{"event_type":"created"}`))
	msg.Metadata.Set("tenant_id", "tenant_1")
	require.NoError(t, ps.Publish(ctx, "subscription.events", msg))

	select {
	case got := <-msgs:
		assert.Equal(t, msg.UUID, got.UUID)
		assert.Equal(t, "tenant_1", got.Metadata.Get("tenant_id"))
		got.Ack()
	case <-ctx.Done():
		t.Fatal("message was not delivered")
	}
}
