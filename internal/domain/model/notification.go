package model

import (
	"fmt"
	"time"
)

type NotificationType string

const (
	NotificationAnswer   NotificationType = "answer"
	NotificationUpvote   NotificationType = "upvote"
	NotificationMention  NotificationType = "mention"
	NotificationAccepted NotificationType = "accepted"
)

type Notification struct {
	ID          string           `json:"id"`
	RecipientID string           `json:"recipientId"`
	Type        NotificationType `json:"type"`
	ActorID     string           `json:"actorId"`
	Actor       *UserSummary     `json:"actor,omitempty"`
	QuestionID  *string          `json:"questionId,omitempty"`
	AnswerID    *string          `json:"answerId,omitempty"`
	Message     string           `json:"message"`
	Read        bool             `json:"read"`
	CreatedAt   time.Time        `json:"createdAt"`
}

// NotificationJob is the queued request to notify a user. The worker turns
// it into a Notification once the recipient's preferences allow it.
type NotificationJob struct {
	Type        NotificationType `json:"type"`
	RecipientID string           `json:"recipient_id"`
	ActorID     string           `json:"actor_id"`
	ActorName   string           `json:"actor_name"`
	QuestionID  string           `json:"question_id,omitempty"`
	AnswerID    string           `json:"answer_id,omitempty"`
	Title       string           `json:"title,omitempty"`
	EnqueuedAt  time.Time        `json:"enqueued_at"`
}

// Allows reports whether prefs let a notification of type t through.
// Acceptance notices are always delivered.
func (p NotificationPreferences) Allows(t NotificationType) bool {
	switch t {
	case NotificationAnswer:
		return p.AnswerNotifications
	case NotificationUpvote:
		return p.UpvoteNotifications
	case NotificationMention:
		return p.MentionNotifications
	case NotificationAccepted:
		return true
	}
	return false
}

// Message renders the text shown in the notification list.
func (j NotificationJob) Message() string {
	switch j.Type {
	case NotificationAnswer:
		return fmt.Sprintf("%s answered your question %q", j.ActorName, j.Title)
	case NotificationUpvote:
		if j.AnswerID != "" {
			return fmt.Sprintf("%s upvoted your answer", j.ActorName)
		}
		return fmt.Sprintf("%s upvoted your question %q", j.ActorName, j.Title)
	case NotificationMention:
		if j.Title != "" {
			return fmt.Sprintf("%s mentioned you in %q", j.ActorName, j.Title)
		}
		return fmt.Sprintf("%s mentioned you", j.ActorName)
	case NotificationAccepted:
		return fmt.Sprintf("%s accepted your answer", j.ActorName)
	}
	return ""
}
