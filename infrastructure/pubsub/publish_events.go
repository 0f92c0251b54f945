package pubsub

import (
	"context"
	"encoding/json"
	"strconv"

	"content-scheduler/domain/model"
	"content-scheduler/domain/repository"
	"content-scheduler/infrastructure/logger"

	"cloud.google.com/go/pubsub"
)

type sendFunc func(ctx context.Context, msg *pubsub.Message) (string, error)

type PublishEvents struct {
	topicID string
	send    sendFunc
}

// NewPublishEvents publishes publish attempts to a Pub/Sub topic, creating it when missing.
func NewPublishEvents(ctx context.Context, client *pubsub.Client, topicID string) (repository.IPublishEvents, error) {
	topic := client.Topic(topicID)
	exists, err := topic.Exists(ctx)
	if err != nil {
		return nil, err
	}
	if !exists {
		logger.GetLogger().WithField("topic", topicID).Info("Topic doesn't exist - creating it")
		if topic, err = client.CreateTopic(ctx, topicID); err != nil {
			return nil, err
		}
	}
	return &PublishEvents{
		topicID: topicID,
		send: func(ctx context.Context, msg *pubsub.Message) (string, error) {
			return topic.Publish(ctx, msg).Get(ctx)
		},
	}, nil
}

func (p *PublishEvents) PublishEvent(ctx context.Context, event model.PublishEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	msg := &pubsub.Message{
		Data:       payload,
		Attributes: eventAttributes(event),
	}

	serverID, err := p.send(ctx, msg)
	if err != nil {
		return err
	}
	logger.GetLogger().
		WithField("server ID", serverID).
		WithField("topic", p.topicID).
		WithField("video_id", event.VideoID).
		Debug("Publish event sent")
	return nil
}

// eventAttributes lets subscribers filter without decoding the payload.
func eventAttributes(event model.PublishEvent) map[string]string {
	attrs := map[string]string{
		"status":     string(event.Status),
		"platform":   event.Platform,
		"user_id":    strconv.FormatInt(event.UserID, 10),
		"account_id": strconv.FormatInt(event.AccountID, 10),
	}
	if event.ErrorKind != "" {
		attrs["error_kind"] = string(event.ErrorKind)
	}
	return attrs
}
