package service

import (
	"context"
	"encoding/json"
	"log"

	"github.com/segmentio/kafka-go"

	"tableside/internal/domain"
)

// Consumer folds order events into the Redis rollups behind the statistics
// fast path. It never touches cart or order state.
type Consumer struct {
	Reader *kafka.Reader
	Cache  StatsCache
}

func NewConsumer(reader *kafka.Reader, cache StatsCache) *Consumer {
	return &Consumer{Reader: reader, Cache: cache}
}

func (c *Consumer) Start(ctx context.Context) {
	log.Println("Starting order event consumer...")
	for {
		message, err := c.Reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Printf("Error reading message: %v", err)
			continue
		}

		var evt domain.OrderEvent
		if err := json.Unmarshal(message.Value, &evt); err != nil {
			log.Printf("Error unmarshaling message: %v", err)
			continue
		}

		c.Process(ctx, evt)
	}
}

func (c *Consumer) Process(ctx context.Context, evt domain.OrderEvent) {
	switch evt.Type {
	case domain.EventOrderPlaced:
		if err := c.Cache.RecordOrderPlaced(ctx, evt); err != nil {
			log.Printf("Error recording order %d rollup: %v", evt.OrderID, err)
			return
		}
	case domain.EventStatusChanged:
		// Status moves change the distribution only; dropping the cached
		// view is enough.
	default:
		return
	}

	if err := c.Cache.InvalidateStatistics(ctx, evt.RestaurantID); err != nil {
		log.Printf("Error invalidating statistics for restaurant %d: %v", evt.RestaurantID, err)
	}
}
