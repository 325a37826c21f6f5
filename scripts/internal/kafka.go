package internal

import (
	"fmt"
	"time"

	"github.com/Shopify/sarama"
	"github.com/flexprice/coupon-service/internal/config"
	"github.com/flexprice/coupon-service/internal/pubsub/kafka"
)

// TestKafkaConnection connects to the configured brokers and lists their topics
func TestKafkaConnection() error {
	cfg, err := config.NewConfig()
	if err != nil {
		return err
	}
	if len(cfg.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers is not configured")
	}

	saramaConfig := kafka.GetSaramaConfig(cfg)
	saramaConfig.Net.DialTimeout = 10 * time.Second
	saramaConfig.Net.ReadTimeout = 10 * time.Second
	saramaConfig.Net.WriteTimeout = 10 * time.Second

	client, err := sarama.NewClient(cfg.Kafka.Brokers, saramaConfig)
	if err != nil {
		return fmt.Errorf("error creating client: %v", err)
	}
	defer client.Close()

	topics, err := client.Topics()
	if err != nil {
		return fmt.Errorf("error listing topics: %v", err)
	}

	fmt.Printf("Successfully connected! Available topics: %v\n", topics)
	return nil
}
