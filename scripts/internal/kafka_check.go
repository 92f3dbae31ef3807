package internal

import (
	"fmt"

	"github.com/ispbilling/ispbilling/internal/config"
	"github.com/ispbilling/ispbilling/internal/pubsub/kafka"
)

func CheckKafkaConnection() error {
	cfg, err := config.NewConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	topics, err := kafka.CheckConnection(&cfg.Kafka)
	if err != nil {
		return err
	}

	fmt.Printf("Successfully connected to %v. Available topics: %v\n", cfg.Kafka.Brokers, topics)
	return nil
}
