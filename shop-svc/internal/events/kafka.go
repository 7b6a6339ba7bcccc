// Package events relays hub notifications between instances over Kafka.
package events

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"smartorder/shop-svc/internal/notify"

	"github.com/segmentio/kafka-go"
)

type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
}

var (
	_ MessageWriter = (*kafka.Writer)(nil)
	_ MessageReader = (*kafka.Reader)(nil)
)

// DefaultQueueSize bounds how many local events wait for the writer.
const DefaultQueueSize = 256

// KafkaPublisher forwards events raised on this instance to the topic. Hub
// delivery only queues the event; Start does the writing.
type KafkaPublisher struct {
	Writer  MessageWriter
	Origin  string
	Timeout time.Duration

	queue chan notify.Event
}

func NewKafkaPublisher(writer MessageWriter, origin string) *KafkaPublisher {
	return &KafkaPublisher{
		Writer:  writer,
		Origin:  origin,
		Timeout: 5 * time.Second,
		queue:   make(chan notify.Event, DefaultQueueSize),
	}
}

// Attach subscribes the publisher to every topic on hub. The returned
// function detaches it.
func (p *KafkaPublisher) Attach(hub *notify.Hub) func() {
	return hub.Subscribe(notify.AllTopics, p.Forward)
}

// Forward queues a local event and returns immediately. The event is dropped
// when the queue is full.
func (p *KafkaPublisher) Forward(evt notify.Event) {
	if evt.Origin != p.Origin {
		return
	}
	select {
	case p.queue <- evt:
	default:
		log.Printf("Dropping %s event: kafka queue full", evt.Type)
	}
}

// Start writes queued events in order until ctx is done.
func (p *KafkaPublisher) Start(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case evt := <-p.queue:
			p.write(ctx, evt)
		}
	}
}

func (p *KafkaPublisher) write(ctx context.Context, evt notify.Event) {
	ctx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()
	if err := p.PublishEvent(ctx, evt); err != nil {
		log.Printf("Error publishing %s event: %v", evt.Type, err)
	}
}

func (p *KafkaPublisher) PublishEvent(ctx context.Context, evt notify.Event) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	return p.Writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(evt.ShopID),
		Value: payload,
	})
}
