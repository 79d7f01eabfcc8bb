package service

import (
	"context"
	"encoding/json"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"rag-presupuestos-be/internal/pkg/logger"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// consumerService drains the query-completed topic and writes an audit line
// per answered query. Estimate-mode answers are the ones operators watch for,
// so they log at warn level.
type consumerService struct {
	pubSub    *gochannel.GoChannel
	topicName string
	logger    logger.ILogger
}

func NewConsumerService(pubSub *gochannel.GoChannel, topicName string, log logger.ILogger) IConsumerService {
	return &consumerService{
		pubSub:    pubSub,
		topicName: topicName,
		logger:    log,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(msg *message.Message) {
	var payload map[string]interface{}
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cs.logger.Error("consumer", "failed to unmarshal query completed event", map[string]interface{}{
			"error": err.Error(),
		})
		// Malformed payloads are acked to avoid an infinite redelivery loop.
		msg.Ack()
		return
	}

	if mode, _ := payload["mode"].(string); mode == "market_estimate" {
		cs.logger.Warn("consumer", "query answered without grounded evidence", payload)
	} else {
		cs.logger.Info("consumer", "query answered", payload)
	}
	msg.Ack()
}
