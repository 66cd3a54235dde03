package service

import (
	"context"
	"encoding/json"

	"ecourts-fetcher-be/internal/dto"
	"ecourts-fetcher-be/internal/mapper"
	"ecourts-fetcher-be/internal/pkg/logger"
	"ecourts-fetcher-be/internal/repository/specification"
	"ecourts-fetcher-be/internal/repository/unitofwork"
	"ecourts-fetcher-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill/message"
)

// EventPublisher forwards domain events to the external bus.
type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

type IConsumerService interface {
	Consume(ctx context.Context) error
}

type consumerService struct {
	subscriber     message.Subscriber
	topicName      string
	uowFactory     unitofwork.RepositoryFactory
	eventPublisher EventPublisher
	logger         logger.ILogger
	mapper         *mapper.FetchRecordMapper
}

// NewConsumerService persists outcome messages and forwards them as
// FETCH_RESOLVED events. uowFactory and eventPublisher may be nil.
func NewConsumerService(
	subscriber message.Subscriber,
	topicName string,
	uowFactory unitofwork.RepositoryFactory,
	eventPublisher EventPublisher,
	log logger.ILogger,
) IConsumerService {
	return &consumerService{
		subscriber:     subscriber,
		topicName:      topicName,
		uowFactory:     uowFactory,
		eventPublisher: eventPublisher,
		logger:         log,
		mapper:         mapper.NewFetchRecordMapper(),
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
	var payload dto.FetchOutcomeMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cs.logger.Error("Consumer", "Failed to unmarshal outcome message", map[string]interface{}{
			"message_id": msg.UUID,
			"error":      err.Error(),
		})
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	details := map[string]interface{}{
		"run_id":  payload.RunId.String(),
		"outcome": payload.OutcomeKind,
	}

	if cs.uowFactory != nil {
		duplicate, err := cs.persist(ctx, &payload)
		if err != nil {
			details["error"] = err.Error()
			cs.logger.Error("Consumer", "Failed to persist fetch record", details)
			msg.Nack() // Nack for retriable errors
			return
		}
		if duplicate {
			cs.logger.Info("Consumer", "Skipped redelivered outcome", details)
			msg.Ack()
			return
		}
	}

	if cs.eventPublisher != nil {
		evt := events.NewFetchResolved(
			payload.RunId.String(),
			payload.Owner,
			payload.Workflow,
			payload.OutcomeKind,
			payload.Summary,
			payload.Reference,
			payload.OccurredAt,
		)
		// The record is already stored; the external bus is best effort.
		if err := cs.eventPublisher.Publish(ctx, evt); err != nil {
			cs.logger.Warn("Consumer", "Failed to publish FETCH_RESOLVED event", map[string]interface{}{
				"run_id": payload.RunId.String(),
				"error":  err.Error(),
			})
		}
	}

	cs.logger.Info("Consumer", "Outcome recorded", details)
	msg.Ack()
}

// persist stores the outcome once per run. A run that is already recorded
// reports duplicate and is left untouched.
func (cs *consumerService) persist(ctx context.Context, payload *dto.FetchOutcomeMessage) (duplicate bool, err error) {
	uow := cs.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return false, err
	}
	repo := uow.FetchRecordRepository()

	existing, err := repo.FindOne(ctx, specification.ByRunID{RunID: payload.RunId})
	if err != nil {
		_ = uow.Rollback()
		return false, err
	}
	if existing != nil {
		return true, uow.Rollback()
	}

	if err := repo.Create(ctx, cs.mapper.FromMessage(payload)); err != nil {
		_ = uow.Rollback()
		return false, err
	}
	return false, uow.Commit()
}
