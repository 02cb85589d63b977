package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"kaab_hub/internal/common"
	"kaab_hub/internal/domain/model"
	"kaab_hub/internal/domain/voting"
)

type AnswerRepository interface {
	Create(ctx context.Context, tx *sql.Tx, a *model.Answer) error
	FindByID(ctx context.Context, id string) (*model.Answer, error)
	// LockForUpdate row-locks the answer until tx ends.
	LockForUpdate(ctx context.Context, tx *sql.Tx, id string) (voting.AnswerState, error)
	ListByQuestion(ctx context.Context, questionID string, newestFirst bool) ([]model.Answer, error)
	ListByAuthor(ctx context.Context, authorID string) ([]model.Answer, error)
	UpdateContent(ctx context.Context, tx *sql.Tx, a *model.Answer) error
	SetAccepted(ctx context.Context, tx *sql.Tx, id string, accepted bool) error
	Delete(ctx context.Context, tx *sql.Tx, id string) error
	AddComment(ctx context.Context, c *model.Comment) error
	Search(ctx context.Context, term string, limit int) ([]model.Answer, error)
}

type pgAnswerRepository struct {
	db *sql.DB
}

func NewPgAnswerRepository(db *sql.DB) AnswerRepository {
	return &pgAnswerRepository{db: db}
}

const answerSelect = `
        SELECT a.id, a.content, a.author_id, u.name, u.profile_picture, a.question_id,
               COALESCE((SELECT json_agg(v.user_id ORDER BY v.created_at) FROM answer_votes v
                         WHERE v.answer_id = a.id AND v.direction = 'up'), '[]'),
               COALESCE((SELECT json_agg(v.user_id ORDER BY v.created_at) FROM answer_votes v
                         WHERE v.answer_id = a.id AND v.direction = 'down'), '[]'),
               a.is_accepted,
               COALESCE((SELECT json_agg(json_build_object(
                             'id', c.id, 'content', c.content, 'authorId', c.author_id,
                             'author', json_build_object('id', cu.id, 'name', cu.name, 'profilePicture', cu.profile_picture),
                             'createdAt', c.created_at) ORDER BY c.created_at)
                         FROM answer_comments c JOIN users cu ON cu.id = c.author_id
                         WHERE c.answer_id = a.id), '[]'),
               a.created_at, a.updated_at
        FROM answers a
        JOIN users u ON u.id = a.author_id`

func scanAnswer(row interface{ Scan(...interface{}) error }) (*model.Answer, error) {
	a := &model.Answer{Author: &model.UserSummary{}}
	err := row.Scan(
		&a.ID, &a.Content, &a.AuthorID, &a.Author.Name, &a.Author.ProfilePicture, &a.QuestionID,
		asJSON(&a.Upvotes), asJSON(&a.Downvotes), &a.IsAccepted, asJSON(&a.Comments),
		&a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	a.Author.ID = a.AuthorID
	a.Upvotes = nonNil(a.Upvotes)
	a.Downvotes = nonNil(a.Downvotes)
	if a.Comments == nil {
		a.Comments = []model.Comment{}
	}
	return a, nil
}

func (r *pgAnswerRepository) queryAnswers(ctx context.Context, op, query string, args ...interface{}) ([]model.Answer, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("pgAnswerRepository.%s query: %w", op, err)
	}
	defer rows.Close()

	answers := []model.Answer{}
	for rows.Next() {
		a, err := scanAnswer(rows)
		if err != nil {
			return nil, fmt.Errorf("pgAnswerRepository.%s scan: %w", op, err)
		}
		answers = append(answers, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pgAnswerRepository.%s rows.Err: %w", op, err)
	}
	return answers, nil
}

func (r *pgAnswerRepository) Create(ctx context.Context, tx *sql.Tx, a *model.Answer) error {
	query := `INSERT INTO answers (id, content, author_id, question_id)
	          VALUES ($1, $2, $3, $4)
	          RETURNING created_at, updated_at`
	err := conn(r.db, tx).QueryRowContext(ctx, query, a.ID, a.Content, a.AuthorID, a.QuestionID).
		Scan(&a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("pgAnswerRepository.Create: %w", err)
	}
	return nil
}

func (r *pgAnswerRepository) FindByID(ctx context.Context, id string) (*model.Answer, error) {
	a, err := scanAnswer(r.db.QueryRowContext(ctx, answerSelect+` WHERE a.id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgAnswerRepository.FindByID: %w", err)
	}
	return a, nil
}

func (r *pgAnswerRepository) LockForUpdate(ctx context.Context, tx *sql.Tx, id string) (voting.AnswerState, error) {
	var st voting.AnswerState
	query := `SELECT id, question_id, author_id, is_accepted FROM answers WHERE id = $1 FOR UPDATE`
	err := tx.QueryRowContext(ctx, query, id).Scan(&st.ID, &st.QuestionID, &st.AuthorID, &st.IsAccepted)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return st, common.ErrNotFound
		}
		return st, fmt.Errorf("pgAnswerRepository.LockForUpdate: %w", err)
	}
	return st, nil
}

func (r *pgAnswerRepository) ListByQuestion(ctx context.Context, questionID string, newestFirst bool) ([]model.Answer, error) {
	order := " ORDER BY a.created_at ASC"
	if newestFirst {
		order = " ORDER BY a.created_at DESC"
	}
	return r.queryAnswers(ctx, "ListByQuestion", answerSelect+` WHERE a.question_id = $1`+order, questionID)
}

func (r *pgAnswerRepository) ListByAuthor(ctx context.Context, authorID string) ([]model.Answer, error) {
	return r.queryAnswers(ctx, "ListByAuthor", answerSelect+` WHERE a.author_id = $1 ORDER BY a.created_at DESC`, authorID)
}

func (r *pgAnswerRepository) UpdateContent(ctx context.Context, tx *sql.Tx, a *model.Answer) error {
	query := `UPDATE answers SET content = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2 RETURNING updated_at`
	err := conn(r.db, tx).QueryRowContext(ctx, query, a.Content, a.ID).Scan(&a.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return common.ErrNotFound
		}
		return fmt.Errorf("pgAnswerRepository.UpdateContent: %w", err)
	}
	return nil
}

func (r *pgAnswerRepository) SetAccepted(ctx context.Context, tx *sql.Tx, id string, accepted bool) error {
	query := `UPDATE answers SET is_accepted = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2`
	res, err := conn(r.db, tx).ExecContext(ctx, query, accepted, id)
	if err != nil {
		return fmt.Errorf("pgAnswerRepository.SetAccepted: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *pgAnswerRepository) Delete(ctx context.Context, tx *sql.Tx, id string) error {
	res, err := conn(r.db, tx).ExecContext(ctx, `DELETE FROM answers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("pgAnswerRepository.Delete: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *pgAnswerRepository) AddComment(ctx context.Context, c *model.Comment) error {
	query := `INSERT INTO answer_comments (id, answer_id, author_id, content)
	          VALUES ($1, $2, $3, $4)
	          RETURNING created_at`
	err := r.db.QueryRowContext(ctx, query, c.ID, c.AnswerID, c.AuthorID, c.Content).Scan(&c.CreatedAt)
	if err != nil {
		return fmt.Errorf("pgAnswerRepository.AddComment: %w", err)
	}
	return nil
}

func (r *pgAnswerRepository) Search(ctx context.Context, term string, limit int) ([]model.Answer, error) {
	query := answerSelect + ` WHERE a.content ILIKE $1 ORDER BY a.created_at DESC LIMIT $2`
	return r.queryAnswers(ctx, "Search", query, likePattern(term), limit)
}
