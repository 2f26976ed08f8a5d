package consumer

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/Eursukkul/consultation-service/internal/dto"
	"github.com/Eursukkul/consultation-service/internal/service"
	jsoniter "github.com/json-iterator/go"
	amqp "github.com/rabbitmq/amqp091-go"
)

const handleTimeout = 10 * time.Second

type CalendarRecorder interface {
	RecordCalendarEvent(ctx context.Context, id, eventID, link string) error
}

// CalendarConsumer writes calendar links published by the dispatcher back to
// their consultations.
type CalendarConsumer struct {
	store CalendarRecorder
	log   *slog.Logger
}

func NewCalendarConsumer(store CalendarRecorder, log *slog.Logger) *CalendarConsumer {
	return &CalendarConsumer{store: store, log: log.With("component", "calendar-consumer")}
}

// Start processes messages until msgs is closed. done is closed afterwards.
func (cc *CalendarConsumer) Start(msgs <-chan amqp.Delivery) (done <-chan struct{}) {
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		for msg := range msgs {
			cc.handleMessage(msg)
		}
		cc.log.Info("channel closed, stopping consumer")
	}()
	return finished
}

func (cc *CalendarConsumer) handleMessage(msg amqp.Delivery) {
	var m dto.CalendarLinkedMessage
	if err := jsoniter.Unmarshal(msg.Body, &m); err != nil || m.ConsultationID == "" {
		cc.log.Error("malformed message", "error", err, "body", string(msg.Body))
		_ = msg.Nack(false, false)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), handleTimeout)
	defer cancel()

	err := cc.store.RecordCalendarEvent(ctx, m.ConsultationID, m.EventID, m.Link)
	switch {
	case errors.Is(err, service.ErrConsultationNotFound):
		cc.log.Error("consultation not found, dropping", "consultation_id", m.ConsultationID)
		_ = msg.Nack(false, false)
		return
	case err != nil:
		cc.log.Error("record calendar event", "consultation_id", m.ConsultationID, "error", err)
		_ = msg.Nack(false, true) // requeue
		return
	}

	cc.log.Info("calendar link saved", "consultation_id", m.ConsultationID, "event_id", m.EventID)
	_ = msg.Ack(false)
}
