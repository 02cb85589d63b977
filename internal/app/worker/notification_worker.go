package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"kaab_hub/internal/domain/model"
	"kaab_hub/internal/platform/queue"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	popWait      = 5 * time.Second
	retryBackoff = 5 * time.Second
)

// JobSource hands out queued notification jobs.
type JobSource interface {
	Pop(ctx context.Context, wait time.Duration) (model.NotificationJob, error)
}

type RecipientFinder interface {
	FindByID(ctx context.Context, id string) (*model.User, error)
}

type NotificationStore interface {
	Create(ctx context.Context, n *model.Notification) error
}

type NotificationRecorder interface {
	RecordNotification(notificationType, result string)
}

// NotificationWorker drains the notification queue, drops jobs the recipient
// opted out of and stores the rest.
type NotificationWorker struct {
	jobs     JobSource
	users    RecipientFinder
	store    NotificationStore
	recorder NotificationRecorder
	log      *logrus.Entry
	now      func() time.Time
}

func NewNotificationWorker(jobs JobSource, users RecipientFinder, store NotificationStore, recorder NotificationRecorder, log *logrus.Entry) *NotificationWorker {
	return &NotificationWorker{
		jobs:     jobs,
		users:    users,
		store:    store,
		recorder: recorder,
		log:      log.WithField("component", "notification_worker"),
		now:      time.Now,
	}
}

// Start blocks until ctx is cancelled.
func (w *NotificationWorker) Start(ctx context.Context) {
	w.log.Info("Notification worker started")
	for {
		select {
		case <-ctx.Done():
			w.log.Info("Notification worker stopping")
			return
		default:
		}

		job, err := w.jobs.Pop(ctx, popWait)
		if err != nil {
			switch {
			case errors.Is(err, queue.ErrEmpty):
			case ctx.Err() != nil:
			default:
				w.log.WithError(err).Error("Failed to pop notification job")
				sleep(ctx, retryBackoff)
			}
			continue
		}

		if err := w.Handle(ctx, job); err != nil {
			w.log.WithError(err).WithFields(logrus.Fields{
				"type":      job.Type,
				"recipient": job.RecipientID,
			}).Error("Failed to handle notification job")
		}
	}
}

// Handle turns one job into a stored notification. Jobs are dropped, not
// retried, when the recipient is gone or has the matching preference off.
func (w *NotificationWorker) Handle(ctx context.Context, job model.NotificationJob) error {
	recipient, err := w.users.FindByID(ctx, job.RecipientID)
	if err != nil {
		w.record(job.Type, "failed")
		return fmt.Errorf("load recipient %s: %w", job.RecipientID, err)
	}
	if !recipient.NotificationPreferences.Allows(job.Type) {
		w.record(job.Type, "suppressed")
		w.log.WithFields(logrus.Fields{"type": job.Type, "recipient": job.RecipientID}).Debug("Notification suppressed by preferences")
		return nil
	}

	n := &model.Notification{
		ID:          uuid.NewString(),
		RecipientID: recipient.ID,
		Type:        job.Type,
		ActorID:     job.ActorID,
		QuestionID:  optional(job.QuestionID),
		AnswerID:    optional(job.AnswerID),
		Message:     job.Message(),
		CreatedAt:   w.now().UTC(),
	}
	if err := w.store.Create(ctx, n); err != nil {
		w.record(job.Type, "failed")
		return fmt.Errorf("store notification: %w", err)
	}
	w.record(job.Type, "delivered")
	w.log.WithFields(logrus.Fields{
		"type":      job.Type,
		"recipient": recipient.ID,
		"latency":   w.now().Sub(job.EnqueuedAt).String(),
	}).Debug("Notification stored")
	return nil
}

func (w *NotificationWorker) record(t model.NotificationType, result string) {
	if w.recorder != nil {
		w.recorder.RecordNotification(string(t), result)
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
