package service

import (
	"context"
	"encoding/json"

	"care-advisor-be/internal/dto"
	"care-advisor-be/internal/entity"
	"care-advisor-be/internal/pkg/logger"
	"care-advisor-be/internal/repository/contract"

	"github.com/ThreeDotsLabs/watermill/message"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// consumerService persists profile snapshots queued by ended sessions.
type consumerService struct {
	subscriber message.Subscriber
	topicName  string
	snapshots  contract.ProfileSnapshotRepository
	logger     logger.ILogger
}

func NewConsumerService(
	subscriber message.Subscriber,
	topicName string,
	snapshots contract.ProfileSnapshotRepository,
	log logger.ILogger,
) IConsumerService {
	return &consumerService{
		subscriber: subscriber,
		topicName:  topicName,
		snapshots:  snapshots,
		logger:     log,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.subscriber.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.PublishProfileSnapshotMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cs.logger.Error("SnapshotConsumer", "Failed to unmarshal message", map[string]interface{}{"error": err.Error()})
		msg.Ack() // poison message, retrying cannot help
		return
	}

	snapshot := &entity.ProfileSnapshot{
		SessionId: payload.SessionId,
		Stage:     payload.Stage,
		Profile:   payload.Profile,
		History:   payload.History,
		CreatedAt: payload.EndedAt,
	}
	if err := cs.snapshots.Create(ctx, snapshot); err != nil {
		cs.logger.Error("SnapshotConsumer", "Failed to persist profile snapshot", map[string]interface{}{
			"session_id": payload.SessionId,
			"error":      err.Error(),
		})
		msg.Nack()
		return
	}

	cs.logger.Info("SnapshotConsumer", "Profile snapshot stored", map[string]interface{}{
		"session_id": payload.SessionId,
		"entries":    len(payload.History),
	})
	msg.Ack()
}
