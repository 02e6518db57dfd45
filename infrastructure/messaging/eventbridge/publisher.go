package eventbridge

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
	"go.uber.org/zap"

	"decisionmap/domain/events"
)

// Source is the EventBridge source of every published event
const Source = "decisionmap.api"

// EventBridge limits PutEvents to 10 entries
const batchSize = 10

// Client is the subset of the EventBridge API the publisher uses
type Client interface {
	PutEvents(ctx context.Context, params *eventbridge.PutEventsInput, optFns ...func(*eventbridge.Options)) (*eventbridge.PutEventsOutput, error)
}

// Publisher implements ports.EventPublisher using AWS EventBridge
type Publisher struct {
	client       Client
	eventBusName string
	logger       *zap.Logger
}

// NewPublisher creates a new EventBridge publisher
func NewPublisher(client Client, eventBusName string, logger *zap.Logger) *Publisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Publisher{client: client, eventBusName: eventBusName, logger: logger}
}

// Publish sends a single event to EventBridge
func (p *Publisher) Publish(ctx context.Context, event events.DomainEvent) error {
	return p.PublishBatch(ctx, []events.DomainEvent{event})
}

// PublishBatch sends events in chunks of ten
func (p *Publisher) PublishBatch(ctx context.Context, domainEvents []events.DomainEvent) error {
	for i := 0; i < len(domainEvents); i += batchSize {
		end := i + batchSize
		if end > len(domainEvents) {
			end = len(domainEvents)
		}
		if err := p.publishBatch(ctx, domainEvents[i:end]); err != nil {
			return err
		}
	}
	return nil
}

func (p *Publisher) publishBatch(ctx context.Context, domainEvents []events.DomainEvent) error {
	entries := make([]types.PutEventsRequestEntry, 0, len(domainEvents))
	sent := make([]events.DomainEvent, 0, len(domainEvents))

	for _, event := range domainEvents {
		detail, err := json.Marshal(event)
		if err != nil {
			p.logger.Error("Failed to marshal event",
				zap.Error(err),
				zap.String("eventType", event.GetEventType()),
			)
			continue
		}
		entries = append(entries, types.PutEventsRequestEntry{
			EventBusName: aws.String(p.eventBusName),
			Source:       aws.String(Source),
			DetailType:   aws.String(event.GetEventType()),
			Detail:       aws.String(string(detail)),
			Time:         aws.Time(event.GetTimestamp()),
			Resources:    []string{fmt.Sprintf("decisionmap:%s", event.GetAggregateID())},
		})
		sent = append(sent, event)
	}
	if len(entries) == 0 {
		return nil
	}

	result, err := p.client.PutEvents(ctx, &eventbridge.PutEventsInput{Entries: entries})
	if err != nil {
		return fmt.Errorf("failed to publish events to EventBridge: %w", err)
	}

	if result.FailedEntryCount > 0 {
		for i, entry := range result.Entries {
			if entry.ErrorCode != nil && i < len(sent) {
				p.logger.Error("Failed to publish event",
					zap.String("eventType", sent[i].GetEventType()),
					zap.String("errorCode", aws.ToString(entry.ErrorCode)),
					zap.String("errorMessage", aws.ToString(entry.ErrorMessage)),
				)
			}
		}
		return fmt.Errorf("%d events failed to publish", result.FailedEntryCount)
	}

	p.logger.Debug("Events published to EventBridge",
		zap.Int("count", len(entries)),
		zap.String("eventBus", p.eventBusName),
	)
	return nil
}
