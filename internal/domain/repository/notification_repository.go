package repository

import (
	"context"
	"database/sql"
	"fmt"

	"kaab_hub/internal/common"
	"kaab_hub/internal/domain/model"
)

type NotificationRepository interface {
	Create(ctx context.Context, n *model.Notification) error
	ListByRecipient(ctx context.Context, recipientID string, limit int) ([]model.Notification, error)
	MarkRead(ctx context.Context, id, recipientID string) error
	MarkAllRead(ctx context.Context, recipientID string) (int64, error)
}

type pgNotificationRepository struct {
	db *sql.DB
}

func NewPgNotificationRepository(db *sql.DB) NotificationRepository {
	return &pgNotificationRepository{db: db}
}

func (r *pgNotificationRepository) Create(ctx context.Context, n *model.Notification) error {
	query := `INSERT INTO notifications (id, recipient_id, type, actor_id, question_id, answer_id, message)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)
	          RETURNING created_at`
	err := r.db.QueryRowContext(ctx, query,
		n.ID, n.RecipientID, string(n.Type), n.ActorID, n.QuestionID, n.AnswerID, n.Message,
	).Scan(&n.CreatedAt)
	if err != nil {
		return fmt.Errorf("pgNotificationRepository.Create: %w", err)
	}
	return nil
}

func (r *pgNotificationRepository) ListByRecipient(ctx context.Context, recipientID string, limit int) ([]model.Notification, error) {
	query := `
        SELECT n.id, n.recipient_id, n.type, n.actor_id, u.name, u.profile_picture,
               n.question_id, n.answer_id, n.message, n.read, n.created_at
        FROM notifications n
        JOIN users u ON u.id = n.actor_id
        WHERE n.recipient_id = $1
        ORDER BY n.created_at DESC
        LIMIT $2`
	rows, err := r.db.QueryContext(ctx, query, recipientID, limit)
	if err != nil {
		return nil, fmt.Errorf("pgNotificationRepository.ListByRecipient query: %w", err)
	}
	defer rows.Close()

	out := []model.Notification{}
	for rows.Next() {
		n := model.Notification{Actor: &model.UserSummary{}}
		var questionID, answerID sql.NullString
		if err := rows.Scan(&n.ID, &n.RecipientID, &n.Type, &n.ActorID, &n.Actor.Name, &n.Actor.ProfilePicture,
			&questionID, &answerID, &n.Message, &n.Read, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("pgNotificationRepository.ListByRecipient scan: %w", err)
		}
		n.Actor.ID = n.ActorID
		if questionID.Valid {
			n.QuestionID = &questionID.String
		}
		if answerID.Valid {
			n.AnswerID = &answerID.String
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pgNotificationRepository.ListByRecipient rows.Err: %w", err)
	}
	return out, nil
}

// MarkRead only touches notifications owned by recipientID.
func (r *pgNotificationRepository) MarkRead(ctx context.Context, id, recipientID string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE notifications SET read = TRUE WHERE id = $1 AND recipient_id = $2`, id, recipientID)
	if err != nil {
		return fmt.Errorf("pgNotificationRepository.MarkRead: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *pgNotificationRepository) MarkAllRead(ctx context.Context, recipientID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE notifications SET read = TRUE WHERE recipient_id = $1 AND NOT read`, recipientID)
	if err != nil {
		return 0, fmt.Errorf("pgNotificationRepository.MarkAllRead: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}
