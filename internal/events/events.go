// Package events публикует события об изменениях комментариев и заметок.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"newsnotes/internal/logger"

	"github.com/segmentio/kafka-go"
)

const (
	CommentCreated = "comment.created"
	CommentUpdated = "comment.updated"
	CommentDeleted = "comment.deleted"
	NoteCreated    = "note.created"
	NoteUpdated    = "note.updated"
	NoteDeleted    = "note.deleted"
)

// Event - сообщение о действии пользователя. ParentID - новость
// комментария, для заметок пуст.
type Event struct {
	Type     string    `json:"type"`
	ID       int64     `json:"id"`
	ParentID int64     `json:"parent_id,omitempty"`
	AuthorID int64     `json:"author_id"`
	At       time.Time `json:"at"`
}

type Publisher interface {
	Publish(ctx context.Context, ev Event) error
	Close() error
}

// Emit публикует событие; ошибка только логируется, запрос пользователя
// от брокера не зависит.
func Emit(ctx context.Context, p Publisher, ev Event) {
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	if err := p.Publish(ctx, ev); err != nil {
		logger.Log.WithError(err).WithFields(logger.Fields{
			"event": ev.Type,
			"id":    ev.ID,
		}).Warn("Не удалось опубликовать событие")
	}
}

// KafkaPublisher пишет события в топик, ключ сообщения - тип события.
type KafkaPublisher struct {
	writer *kafka.Writer
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.LeastBytes{},
			AllowAutoTopicCreation: true,
			WriteTimeout:           5 * time.Second,
		},
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, ev Event) error {
	value, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := p.writer.WriteMessages(ctx, kafka.Message{Key: []byte(ev.Type), Value: value}); err != nil {
		return fmt.Errorf("failed to send event to kafka: %w", err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("failed to close kafka writer: %w", err)
	}
	return nil
}

// Nop отбрасывает события, когда брокер не настроен.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }

func (Nop) Close() error { return nil }
