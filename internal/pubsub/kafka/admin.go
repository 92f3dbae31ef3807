package kafka

import (
	"time"

	"github.com/Shopify/sarama"
	"github.com/cockroachdb/errors"
	"github.com/ispbilling/ispbilling/internal/config"
)

// CheckConnection dials the brokers with the service's client settings and
// returns the topics visible to it
func CheckConnection(cfg *config.KafkaConfig) ([]string, error) {
	saramaCfg := applySaramaConfig(sarama.NewConfig(), cfg)
	saramaCfg.Net.DialTimeout = 10 * time.Second
	saramaCfg.Net.ReadTimeout = 10 * time.Second
	saramaCfg.Net.WriteTimeout = 10 * time.Second

	client, err := sarama.NewClient(cfg.Brokers, saramaCfg)
	if err != nil {
		return nil, errors.Wrap(err, "creating kafka client")
	}
	defer client.Close()

	topics, err := client.Topics()
	if err != nil {
		return nil, errors.Wrap(err, "listing kafka topics")
	}
	return topics, nil
}
