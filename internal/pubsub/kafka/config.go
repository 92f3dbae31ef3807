package kafka

import (
	"crypto/tls"
	"time"

	"github.com/Shopify/sarama"
	"github.com/ispbilling/ispbilling/internal/config"
)

// applySaramaConfig layers the client id, offsets and security settings onto base
func applySaramaConfig(base *sarama.Config, cfg *config.KafkaConfig) *sarama.Config {
	base.Version = sarama.V2_1_0_0
	base.ClientID = cfg.ClientID

	// start from the earliest offset when the group has no committed offset
	base.Consumer.Offsets.Initial = sarama.OffsetOldest
	base.Consumer.Offsets.AutoCommit.Enable = true
	base.Consumer.Offsets.AutoCommit.Interval = 5 * time.Second
	base.Consumer.Offsets.Retry.Max = 3

	if cfg.TLS {
		base.Net.TLS.Enable = true
		base.Net.TLS.Config = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	if !cfg.UseSASL {
		return base
	}

	base.Net.SASL.Enable = true
	base.Net.TLS.Enable = true
	base.Net.SASL.Mechanism = sarama.SASLTypePlaintext
	base.Net.SASL.User = cfg.SASLUser
	base.Net.SASL.Password = cfg.SASLPassword

	return base
}
