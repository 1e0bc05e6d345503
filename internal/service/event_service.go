package service

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/shiftworks/vacation-api/internal/dto"
	"github.com/shiftworks/vacation-api/internal/models"
	"github.com/shiftworks/vacation-api/pkg/jobs"
)

// Event types dispatched to the notifier.
const (
	EventAssignmentCompleted = "assignment.completed"
	EventRequestResolved     = "reprogramming.resolved"
)

// Notifier delivers engine events to the outside world. The notification
// channel itself (mail, chat, webhooks) lives in another system; this
// service only hands events over.
type Notifier interface {
	Notify(ctx context.Context, eventType string, payload interface{}) error
}

type eventQueue interface {
	Enqueue(job jobs.Job) error
}

// EventService fans engine events out to the notifier through the
// background queue so request handlers never block on delivery.
type EventService struct {
	queue  eventQueue
	logger *zap.Logger
}

// NewEventService creates the dispatcher.
func NewEventService(queue eventQueue, logger *zap.Logger) *EventService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventService{queue: queue, logger: logger}
}

// AssignmentCompleted publishes the summary of a finished batch.
func (s *EventService) AssignmentCompleted(ctx context.Context, result *dto.RunAssignmentResponse) {
	s.enqueue(EventAssignmentCompleted, result)
}

// RequestResolved publishes a decided reprogramming request.
func (s *EventService) RequestResolved(ctx context.Context, request *models.ReprogrammingRequest) {
	s.enqueue(EventRequestResolved, request)
}

func (s *EventService) enqueue(eventType string, payload interface{}) {
	if s == nil || s.queue == nil {
		return
	}
	job := jobs.Job{ID: uuid.NewString(), Type: eventType, Payload: payload}
	if err := s.queue.Enqueue(job); err != nil {
		// Events are best effort; the state change already committed.
		s.logger.Warn("failed to enqueue event", zap.String("type", eventType), zap.Error(err))
	}
}

// NotifyHandler adapts a Notifier into a queue handler.
func NotifyHandler(notifier Notifier) jobs.Handler {
	return func(ctx context.Context, job jobs.Job) error {
		return notifier.Notify(ctx, job.Type, job.Payload)
	}
}

// LoggingNotifier is the default sink when no external channel is
// configured: it writes events to the structured log.
type LoggingNotifier struct {
	logger *zap.Logger
}

// NewLoggingNotifier creates a notifier that logs events.
func NewLoggingNotifier(logger *zap.Logger) *LoggingNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LoggingNotifier{logger: logger}
}

// Notify logs the event.
func (n *LoggingNotifier) Notify(_ context.Context, eventType string, payload interface{}) error {
	n.logger.Info("event", zap.String("type", eventType), zap.Any("payload", payload))
	return nil
}
