package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

const streamName = "TENDER_EVENTS"

// Типы событий жизненного цикла, публикуемых в JetStream.
const (
	TenderCreated   = "created"
	TenderPublished = "published"
	TenderClosed    = "closed"
	TenderAwarded   = "awarded"
	BidSubmitted    = "bid_submitted"
)

// Event - событие жизненного цикла тендера для внешних потребителей
// (архивация, уведомления). Публикация не влияет на исход запроса.
type Event struct {
	Type       string    `json:"type"`
	TenderID   string    `json:"tenderId"`
	BidID      string    `json:"bidId,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

// Publisher публикует события жизненного цикла в NATS JetStream.
type Publisher struct {
	nats *nats.Conn
	js   jetstream.JetStream
}

// NewPublisher подключается к NATS и создаёт поток событий, если его нет.
func NewPublisher(url string) (*Publisher, error) {
	nc, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to nats: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create jetstream context: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:        streamName,
		Description: "Tender lifecycle events",
		Subjects:    []string{"tender.events.*"},
		Storage:     jetstream.FileStorage,
		MaxAge:      24 * time.Hour,
		Replicas:    1,
	})
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create/update stream: %w", err)
	}

	return &Publisher{nats: nc, js: js}, nil
}

// Publish отправляет событие в поток. Сбой публикации возвращается вызывающему,
// но запросы пользователей от него не падают - решает сервисный слой.
func (p *Publisher) Publish(ctx context.Context, event Event) error {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	subject := fmt.Sprintf("tender.events.%s", event.Type)
	if _, err = p.js.Publish(ctx, subject, payload); err != nil {
		return fmt.Errorf("failed to publish %s event: %w", event.Type, err)
	}
	return nil
}

// Close закрывает соединение с NATS.
func (p *Publisher) Close() {
	p.nats.Close()
}
