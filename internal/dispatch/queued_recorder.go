package dispatch

import (
	"context"

	"github.com/Eursukkul/consultation-service/internal/dto"
	"github.com/Eursukkul/consultation-service/pkg/rabbitmq"
)

type Publisher interface {
	Publish(ctx context.Context, routingKey string, payload any) error
}

// QueuedRecorder hands calendar write-backs to the message queue. The
// calendar consumer applies them to the store.
type QueuedRecorder struct {
	pub Publisher
}

func NewQueuedRecorder(pub Publisher) *QueuedRecorder {
	return &QueuedRecorder{pub: pub}
}

func (q *QueuedRecorder) RecordCalendarEvent(ctx context.Context, id, eventID, link string) error {
	return q.pub.Publish(ctx, rabbitmq.RoutingKeyCalendarLinked, dto.CalendarLinkedMessage{
		ConsultationID: id,
		EventID:        eventID,
		Link:           link,
	})
}
