package servicebus

import (
	"context"
	"encoding/json"

	"content-scheduler/domain/model"
	"content-scheduler/domain/repository"
	"content-scheduler/infrastructure/logger"

	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/messaging/azservicebus"
)

type messageSender interface {
	SendMessage(ctx context.Context, message *azservicebus.Message, options *azservicebus.SendMessageOptions) error
	Close(ctx context.Context) error
}

type PublishEvents struct {
	sender messageSender
	queue  string
}

// NewClient authenticates with DefaultAzureCredential against the namespace FQDN.
func NewClient(namespace string) (*azservicebus.Client, error) {
	cred, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, err
	}
	return azservicebus.NewClient(namespace, cred, nil)
}

// NewPublishEvents sends publish attempts to a Service Bus queue.
func NewPublishEvents(client *azservicebus.Client, queue string) (*PublishEvents, error) {
	sender, err := client.NewSender(queue, nil)
	if err != nil {
		logger.GetLogger().
			WithField("error", err).
			Error("Error while making new sender service bus.")
		return nil, err
	}
	return &PublishEvents{sender: sender, queue: queue}, nil
}

var _ repository.IPublishEvents = (*PublishEvents)(nil)

func (p *PublishEvents) PublishEvent(ctx context.Context, event model.PublishEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return err
	}
	subject := "publish." + string(event.Status)
	contentType := "application/json"
	msg := &azservicebus.Message{
		Body:        body,
		Subject:     &subject,
		ContentType: &contentType,
		ApplicationProperties: map[string]any{
			"platform":   event.Platform,
			"user_id":    event.UserID,
			"account_id": event.AccountID,
			"video_id":   event.VideoID,
		},
	}
	if err := p.sender.SendMessage(ctx, msg, nil); err != nil {
		logger.GetLogger().WithField("error", err).WithField("queue", p.queue).Error("Error while sending message.")
		return err
	}
	return nil
}

func (p *PublishEvents) Close(ctx context.Context) {
	if err := p.sender.Close(ctx); err != nil {
		logger.GetLogger().
			WithField("error", err).
			Error("Error while closing sender.")
	}
}
