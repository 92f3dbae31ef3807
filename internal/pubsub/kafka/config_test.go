package kafka

import (
	"testing"

	"github.com/Shopify/sarama"
	"github.com/ispbilling/ispbilling/internal/config"
	"github.com/stretchr/testify/assert"
)

func TestApplySaramaConfig(t *testing.T) {
	cfg := &config.KafkaConfig{
		Brokers:  []string{"localhost:9092"},
		ClientID: "ispbilling",
	}

	sc := applySaramaConfig(sarama.NewConfig(), cfg)
	assert.Equal(t, "ispbilling", sc.ClientID)
	assert.Equal(t, sarama.OffsetOldest, sc.Consumer.Offsets.Initial)
	assert.False(t, sc.Net.TLS.Enable)
	assert.False(t, sc.Net.SASL.Enable)

	cfg.UseSASL = true
	cfg.SASLUser = "user"
	cfg.SASLPassword = "secret"
	sc = applySaramaConfig(sarama.NewConfig(), cfg)
	assert.True(t, sc.Net.SASL.Enable)
	assert.True(t, sc.Net.TLS.Enable)
	assert.Equal(t, "user", sc.Net.SASL.User)
	assert.Equal(t, sarama.SASLMechanism(sarama.SASLTypePlaintext), sc.Net.SASL.Mechanism)
}
