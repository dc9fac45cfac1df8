// Package events publishes upload notifications to SQS.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"github.com/Esosek/tubely/pkg/models"
)

// DefaultPublishTimeout bounds a single SendMessage call.
const DefaultPublishTimeout = 10 * time.Second

// Publisher emits upload events. Publishing is best-effort; callers log
// failures and never fail the originating request on them.
type Publisher interface {
	PublishUploadEvent(ctx context.Context, event models.UploadEvent) error
}

// SQSPublisher publishes events to an SQS queue.
type SQSPublisher struct {
	client   *sqs.Client
	queueURL string
}

// NewSQSPublisher creates an SQSPublisher from a constructed AWS config.
func NewSQSPublisher(awsCfg aws.Config, queueURL string) *SQSPublisher {
	return &SQSPublisher{
		client:   sqs.NewFromConfig(awsCfg),
		queueURL: queueURL,
	}
}

// PublishUploadEvent sends the event as a JSON message.
func (p *SQSPublisher) PublishUploadEvent(ctx context.Context, event models.UploadEvent) error {
	ctx, cancel := context.WithTimeout(ctx, DefaultPublishTimeout)
	defer cancel()

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal upload event: %w", err)
	}

	_, err = p.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(p.queueURL),
		MessageBody: aws.String(string(body)),
	})
	if err != nil {
		return fmt.Errorf("failed to publish upload event: %w", err)
	}

	return nil
}

// NoopPublisher discards events. Used when no queue is configured.
type NoopPublisher struct{}

// PublishUploadEvent does nothing.
func (NoopPublisher) PublishUploadEvent(context.Context, models.UploadEvent) error {
	return nil
}
