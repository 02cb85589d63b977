package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"kaab_hub/internal/common"
	"kaab_hub/internal/domain/model"
	"kaab_hub/internal/domain/voting"
)

type QuestionRepository interface {
	Create(ctx context.Context, tx *sql.Tx, q *model.Question) error
	FindByID(ctx context.Context, id string) (*model.Question, error)
	// LockForUpdate row-locks the question until tx ends.
	LockForUpdate(ctx context.Context, tx *sql.Tx, id string) (voting.QuestionState, error)
	List(ctx context.Context, filter model.QuestionFilter) ([]model.Question, int, error)
	ListByAuthor(ctx context.Context, authorID string) ([]model.Question, error)
	Update(ctx context.Context, tx *sql.Tx, q *model.Question) error
	IncrementViews(ctx context.Context, id string) (int, error)
	MarkSolved(ctx context.Context, tx *sql.Tx, questionID, answerID string) error
	ClearSolved(ctx context.Context, tx *sql.Tx, questionID, answerID string) error
	Delete(ctx context.Context, tx *sql.Tx, id string) error
	Search(ctx context.Context, filter model.SearchFilter) ([]model.Question, error)
}

type pgQuestionRepository struct {
	db *sql.DB
}

func NewPgQuestionRepository(db *sql.DB) QuestionRepository {
	return &pgQuestionRepository{db: db}
}

const questionSelect = `
        SELECT q.id, q.title, q.content, q.author_id, u.name, u.profile_picture,
               to_json(q.tags), q.category, q.course,
               COALESCE((SELECT json_agg(v.user_id ORDER BY v.created_at) FROM question_votes v
                         WHERE v.question_id = q.id AND v.direction = 'up'), '[]'),
               COALESCE((SELECT json_agg(v.user_id ORDER BY v.created_at) FROM question_votes v
                         WHERE v.question_id = q.id AND v.direction = 'down'), '[]'),
               COALESCE((SELECT json_agg(a.id ORDER BY a.created_at) FROM answers a
                         WHERE a.question_id = q.id), '[]'),
               q.views, q.is_solved, q.solved_by, q.created_at, q.updated_at
        FROM questions q
        JOIN users u ON u.id = q.author_id`

func scanQuestion(row interface{ Scan(...interface{}) error }) (*model.Question, error) {
	q := &model.Question{Author: &model.UserSummary{}}
	var solvedBy sql.NullString
	err := row.Scan(
		&q.ID, &q.Title, &q.Content, &q.AuthorID, &q.Author.Name, &q.Author.ProfilePicture,
		asJSON(&q.Tags), &q.Category, &q.Course,
		asJSON(&q.Upvotes), asJSON(&q.Downvotes), asJSON(&q.AnswerIDs),
		&q.Views, &q.IsSolved, &solvedBy, &q.CreatedAt, &q.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	q.Author.ID = q.AuthorID
	if solvedBy.Valid {
		q.SolvedBy = &solvedBy.String
	}
	q.Tags = nonNil(q.Tags)
	q.Upvotes = nonNil(q.Upvotes)
	q.Downvotes = nonNil(q.Downvotes)
	q.AnswerIDs = nonNil(q.AnswerIDs)
	return q, nil
}

func (r *pgQuestionRepository) queryQuestions(ctx context.Context, op, query string, args ...interface{}) ([]model.Question, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("pgQuestionRepository.%s query: %w", op, err)
	}
	defer rows.Close()

	questions := []model.Question{}
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, fmt.Errorf("pgQuestionRepository.%s scan: %w", op, err)
		}
		questions = append(questions, *q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pgQuestionRepository.%s rows.Err: %w", op, err)
	}
	return questions, nil
}

func (r *pgQuestionRepository) Create(ctx context.Context, tx *sql.Tx, q *model.Question) error {
	query := `INSERT INTO questions (id, title, content, author_id, tags, category, course)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)
	          RETURNING created_at, updated_at`
	err := conn(r.db, tx).QueryRowContext(ctx, query,
		q.ID, q.Title, q.Content, q.AuthorID, nonNil(q.Tags), q.Category, q.Course,
	).Scan(&q.CreatedAt, &q.UpdatedAt)
	if err != nil {
		return fmt.Errorf("pgQuestionRepository.Create: %w", err)
	}
	return nil
}

func (r *pgQuestionRepository) FindByID(ctx context.Context, id string) (*model.Question, error) {
	q, err := scanQuestion(r.db.QueryRowContext(ctx, questionSelect+` WHERE q.id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgQuestionRepository.FindByID: %w", err)
	}
	return q, nil
}

func (r *pgQuestionRepository) LockForUpdate(ctx context.Context, tx *sql.Tx, id string) (voting.QuestionState, error) {
	var st voting.QuestionState
	var solvedBy sql.NullString
	query := `SELECT id, author_id, solved_by FROM questions WHERE id = $1 FOR UPDATE`
	err := tx.QueryRowContext(ctx, query, id).Scan(&st.ID, &st.AuthorID, &solvedBy)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return st, common.ErrNotFound
		}
		return st, fmt.Errorf("pgQuestionRepository.LockForUpdate: %w", err)
	}
	if solvedBy.Valid {
		st.SolvedBy = &solvedBy.String
	}
	return st, nil
}

func (r *pgQuestionRepository) List(ctx context.Context, f model.QuestionFilter) ([]model.Question, int, error) {
	var conditions []string
	var args []interface{}
	argID := 1

	if f.Category != "" {
		conditions = append(conditions, fmt.Sprintf("q.category = $%d", argID))
		args = append(args, f.Category)
		argID++
	}
	if f.Course != "" {
		conditions = append(conditions, fmt.Sprintf("q.course = $%d", argID))
		args = append(args, f.Course)
		argID++
	}
	if f.Tag != "" {
		conditions = append(conditions, fmt.Sprintf("$%d = ANY(q.tags)", argID))
		args = append(args, f.Tag)
		argID++
	}
	if f.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(q.title ILIKE $%d OR q.content ILIKE $%d)", argID, argID))
		args = append(args, likePattern(f.Search))
		argID++
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM questions q`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("pgQuestionRepository.List count: %w", err)
	}

	query := questionSelect + where + " ORDER BY " + questionOrder(f.Sort) +
		fmt.Sprintf(" LIMIT $%d OFFSET $%d", argID, argID+1)
	args = append(args, f.Limit, f.Offset)

	questions, err := r.queryQuestions(ctx, "List", query, args...)
	if err != nil {
		return nil, 0, err
	}
	return questions, total, nil
}

func questionOrder(sort model.QuestionSort) string {
	switch sort {
	case model.SortByViews:
		return "q.views DESC, q.created_at DESC"
	case model.SortByUpvotes:
		return "(SELECT COUNT(*) FROM question_votes v WHERE v.question_id = q.id AND v.direction = 'up') DESC, q.created_at DESC"
	}
	return "q.created_at DESC"
}

func (r *pgQuestionRepository) ListByAuthor(ctx context.Context, authorID string) ([]model.Question, error) {
	return r.queryQuestions(ctx, "ListByAuthor", questionSelect+` WHERE q.author_id = $1 ORDER BY q.created_at DESC`, authorID)
}

func (r *pgQuestionRepository) Update(ctx context.Context, tx *sql.Tx, q *model.Question) error {
	query := `UPDATE questions SET title = $1, content = $2, tags = $3, category = $4, course = $5,
	                 updated_at = CURRENT_TIMESTAMP
	          WHERE id = $6
	          RETURNING updated_at`
	err := conn(r.db, tx).QueryRowContext(ctx, query,
		q.Title, q.Content, nonNil(q.Tags), q.Category, q.Course, q.ID,
	).Scan(&q.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return common.ErrNotFound
		}
		return fmt.Errorf("pgQuestionRepository.Update: %w", err)
	}
	return nil
}

// IncrementViews bumps the counter in place and returns the new value.
func (r *pgQuestionRepository) IncrementViews(ctx context.Context, id string) (int, error) {
	var views int
	err := r.db.QueryRowContext(ctx, `UPDATE questions SET views = views + 1 WHERE id = $1 RETURNING views`, id).Scan(&views)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, common.ErrNotFound
		}
		return 0, fmt.Errorf("pgQuestionRepository.IncrementViews: %w", err)
	}
	return views, nil
}

func (r *pgQuestionRepository) MarkSolved(ctx context.Context, tx *sql.Tx, questionID, answerID string) error {
	query := `UPDATE questions SET is_solved = TRUE, solved_by = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2`
	res, err := conn(r.db, tx).ExecContext(ctx, query, answerID, questionID)
	if err != nil {
		return fmt.Errorf("pgQuestionRepository.MarkSolved: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return common.ErrNotFound
	}
	return nil
}

// ClearSolved reopens the question only if answerID is the one that solved it.
func (r *pgQuestionRepository) ClearSolved(ctx context.Context, tx *sql.Tx, questionID, answerID string) error {
	query := `UPDATE questions SET is_solved = FALSE, solved_by = NULL, updated_at = CURRENT_TIMESTAMP
	          WHERE id = $1 AND solved_by = $2`
	if _, err := conn(r.db, tx).ExecContext(ctx, query, questionID, answerID); err != nil {
		return fmt.Errorf("pgQuestionRepository.ClearSolved: %w", err)
	}
	return nil
}

// Delete removes the question; answers, comments and votes go with it by cascade.
func (r *pgQuestionRepository) Delete(ctx context.Context, tx *sql.Tx, id string) error {
	res, err := conn(r.db, tx).ExecContext(ctx, `DELETE FROM questions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("pgQuestionRepository.Delete: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *pgQuestionRepository) Search(ctx context.Context, f model.SearchFilter) ([]model.Question, error) {
	var b strings.Builder
	b.WriteString(questionSelect)
	b.WriteString(` WHERE (q.title ILIKE $1 OR q.content ILIKE $1
	                OR EXISTS (SELECT 1 FROM unnest(q.tags) t WHERE t ILIKE $1))`)
	switch f.Filter {
	case model.SearchSolved:
		b.WriteString(" AND q.is_solved")
	case model.SearchUnsolved:
		b.WriteString(" AND NOT q.is_solved")
	}
	switch f.Sort {
	case model.SearchSortNewest:
		b.WriteString(" ORDER BY q.created_at DESC")
	case model.SearchSortVotes:
		b.WriteString(` ORDER BY (SELECT COUNT(*) FILTER (WHERE v.direction = 'up') - COUNT(*) FILTER (WHERE v.direction = 'down')
		                FROM question_votes v WHERE v.question_id = q.id) DESC, q.created_at DESC`)
	default:
		b.WriteString(" ORDER BY (q.title ILIKE $1) DESC, q.created_at DESC")
	}
	b.WriteString(" LIMIT $2")
	return r.queryQuestions(ctx, "Search", b.String(), likePattern(f.Query), f.Limit)
}
