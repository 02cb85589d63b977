package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"kaab_hub/internal/common"
	"kaab_hub/internal/domain/model"
)

type TagRepository interface {
	// Ensure creates any missing tags; existing ones are left untouched.
	Ensure(ctx context.Context, tx *sql.Tx, names []string) error
	List(ctx context.Context) ([]model.Tag, error)
	FindByName(ctx context.Context, name string) (*model.Tag, error)
	Follow(ctx context.Context, name, userID string) error
	Unfollow(ctx context.Context, name, userID string) error
}

type pgTagRepository struct {
	db *sql.DB
}

func NewPgTagRepository(db *sql.DB) TagRepository {
	return &pgTagRepository{db: db}
}

func (r *pgTagRepository) Ensure(ctx context.Context, tx *sql.Tx, names []string) error {
	db := conn(r.db, tx)
	for _, name := range names {
		if _, err := db.ExecContext(ctx, `INSERT INTO tags (name) VALUES ($1) ON CONFLICT (name) DO NOTHING`, name); err != nil {
			return fmt.Errorf("pgTagRepository.Ensure %s: %w", name, err)
		}
	}
	return nil
}

const tagSelect = `
        SELECT t.name, t.description, t.created_at,
               (SELECT COUNT(*) FROM questions q WHERE t.name = ANY(q.tags)),
               (SELECT COUNT(*) FROM tag_followers f WHERE f.tag = t.name)
        FROM tags t`

func scanTag(row interface{ Scan(...interface{}) error }) (*model.Tag, error) {
	t := &model.Tag{}
	if err := row.Scan(&t.Name, &t.Description, &t.CreatedAt, &t.QuestionCount, &t.FollowersCount); err != nil {
		return nil, err
	}
	return t, nil
}

func (r *pgTagRepository) List(ctx context.Context) ([]model.Tag, error) {
	rows, err := r.db.QueryContext(ctx, tagSelect+` ORDER BY 4 DESC, t.name`)
	if err != nil {
		return nil, fmt.Errorf("pgTagRepository.List query: %w", err)
	}
	defer rows.Close()

	tags := []model.Tag{}
	for rows.Next() {
		t, err := scanTag(rows)
		if err != nil {
			return nil, fmt.Errorf("pgTagRepository.List scan: %w", err)
		}
		tags = append(tags, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pgTagRepository.List rows.Err: %w", err)
	}
	return tags, nil
}

func (r *pgTagRepository) FindByName(ctx context.Context, name string) (*model.Tag, error) {
	t, err := scanTag(r.db.QueryRowContext(ctx, tagSelect+` WHERE t.name = $1`, name))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgTagRepository.FindByName: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, `
        SELECT u.id, u.name, u.profile_picture
        FROM tag_followers f JOIN users u ON u.id = f.user_id
        WHERE f.tag = $1 ORDER BY f.created_at`, name)
	if err != nil {
		return nil, fmt.Errorf("pgTagRepository.FindByName followers: %w", err)
	}
	defer rows.Close()

	t.Followers = []model.UserSummary{}
	for rows.Next() {
		var s model.UserSummary
		if err := rows.Scan(&s.ID, &s.Name, &s.ProfilePicture); err != nil {
			return nil, fmt.Errorf("pgTagRepository.FindByName scan follower: %w", err)
		}
		t.Followers = append(t.Followers, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pgTagRepository.FindByName rows.Err: %w", err)
	}
	return t, nil
}

func (r *pgTagRepository) Follow(ctx context.Context, name, userID string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO tag_followers (tag, user_id) VALUES ($1, $2) ON CONFLICT (tag, user_id) DO NOTHING`, name, userID)
	if err != nil {
		return fmt.Errorf("pgTagRepository.Follow: %w", err)
	}
	return nil
}

func (r *pgTagRepository) Unfollow(ctx context.Context, name, userID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM tag_followers WHERE tag = $1 AND user_id = $2`, name, userID)
	if err != nil {
		return fmt.Errorf("pgTagRepository.Unfollow: %w", err)
	}
	return nil
}
