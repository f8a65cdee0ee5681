package pubsub

import (
	"context"

	"cloud.google.com/go/pubsub"
	"github.com/charmbracelet/log"
	"github.com/vmihailenco/msgpack/v5"
)

// New creates a Pub/Sub client for projectID and a teardown that closes it.
// An empty projectID yields a client that drops every message.
func New(projectID string) (PubSubClient, func()) {
	if projectID == "" {
		log.Info("No GCP project configured, lifecycle events will not be published")
		return discard{}, func() {}
	}
	ctx := context.Background()
	pubSubC, err := pubsub.NewClient(ctx, projectID)
	if err != nil {
		log.Fatalf("Failed to create client: %v", err)
	}
	teardown := func() {
		if err := pubSubC.Close(); err != nil {
			log.Error("Failed to close pubsub client", "error", err)
		}
	}

	return &client{
		client:   pubSubC,
		teardown: teardown,
	}, teardown
}

func (c *client) SendMessage(ctx context.Context, topic EventType, data any) error {
	msgpackData, err := msgpack.Marshal(data)
	if err != nil {
		log.Error("MessagePack marshal error", "error", err)
		return err
	}
	message := &pubsub.Message{
		Data: msgpackData,
	}
	result := c.client.Topic(string(topic)).Publish(ctx, message)
	serverID, err := result.Get(ctx)
	if err != nil {
		log.Error("Failed to publish message", "error", err, "topic", topic)
		return err
	}
	log.Debug("SendMessage", "serverID", serverID, "topic", topic)
	return nil
}

func (c *client) ProcessMessage(data []byte, returnValue any) error {
	return decode(data, returnValue)
}

func (discard) SendMessage(ctx context.Context, topic EventType, data any) error {
	// Still encode so payload bugs surface without a broker.
	_, err := msgpack.Marshal(data)
	return err
}

func (discard) ProcessMessage(data []byte, returnValue any) error {
	return decode(data, returnValue)
}

func decode(data []byte, returnValue any) error {
	// Unmarshal the MessagePack data into the provided pointer struct
	err := msgpack.Unmarshal(data, returnValue)
	if err != nil {
		log.Error("MessagePack unmarshal error", "error", err)
		return err
	}
	return nil
}
