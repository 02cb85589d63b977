package service

import (
	"context"

	"kaab_hub/internal/domain/model"

	"github.com/sirupsen/logrus"
)

// NotificationDispatcher queues notification jobs for the notification worker.
type NotificationDispatcher interface {
	Dispatch(ctx context.Context, job model.NotificationJob) error
}

// EventPublisher pushes events to everyone watching a question.
type EventPublisher interface {
	Publish(ctx context.Context, questionID, event string, payload interface{}) error
}

// VoteRecorder counts vote toggles.
type VoteRecorder interface {
	RecordVote(target, direction, result string)
}

// sideEffects runs post-commit work. Failures are logged and never fail the request.
type sideEffects struct {
	notifier  NotificationDispatcher
	publisher EventPublisher
	log       *logrus.Entry
}

func (s sideEffects) notify(ctx context.Context, job model.NotificationJob) {
	if s.notifier == nil || job.RecipientID == "" || job.RecipientID == job.ActorID {
		return
	}
	if err := s.notifier.Dispatch(ctx, job); err != nil && s.log != nil {
		s.log.WithError(err).WithField("type", job.Type).Warn("failed to queue notification")
	}
}

func (s sideEffects) publish(ctx context.Context, questionID, event string, payload interface{}) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, questionID, event, payload); err != nil && s.log != nil {
		s.log.WithError(err).WithField("event", event).Warn("failed to publish realtime event")
	}
}

func (s sideEffects) warn(err error, msg string) {
	if s.log != nil {
		s.log.WithError(err).Warn(msg)
	}
}
