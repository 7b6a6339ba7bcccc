package events

import (
	"context"
	"encoding/json"
	"log"

	"smartorder/shop-svc/internal/notify"
)

// Consumer replays events raised on other instances into the local hub.
type Consumer struct {
	Reader MessageReader
	Hub    notify.Publisher
	Origin string
}

func NewConsumer(reader MessageReader, hub notify.Publisher, origin string) *Consumer {
	return &Consumer{
		Reader: reader,
		Hub:    hub,
		Origin: origin,
	}
}

// Start blocks until ctx is cancelled.
func (c *Consumer) Start(ctx context.Context) {
	log.Println("Starting event consumer...")
	for {
		message, err := c.Reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Println("Event consumer stopped")
				return
			}
			log.Printf("Error reading message: %v", err)
			continue
		}
		c.Process(message.Value)
	}
}

func (c *Consumer) Process(payload []byte) {
	var evt notify.Event
	if err := json.Unmarshal(payload, &evt); err != nil {
		log.Printf("Error unmarshaling event: %v", err)
		return
	}
	if evt.Type == "" || evt.Origin == c.Origin {
		return
	}
	c.Hub.Publish(evt)
}
