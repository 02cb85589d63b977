package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"kaab_hub/internal/common"
	"kaab_hub/internal/domain/model"
)

type MentorRepository interface {
	List(ctx context.Context, filter model.MentorFilter) ([]model.Mentor, error)
	FindBySlug(ctx context.Context, slug string) (*model.Mentor, error)
}

type pgMentorRepository struct {
	db *sql.DB
}

func NewPgMentorRepository(db *sql.DB) MentorRepository {
	return &pgMentorRepository{db: db}
}

const mentorSelect = `SELECT slug, name, skill, intro, location, email, bio, skills, testimonials, social, image FROM mentors`

func scanMentor(row interface{ Scan(...interface{}) error }) (*model.Mentor, error) {
	m := &model.Mentor{}
	err := row.Scan(&m.Slug, &m.Name, &m.Skill, &m.Intro, &m.Location, &m.Email, &m.Bio,
		asJSON(&m.Skills), asJSON(&m.Testimonials), asJSON(&m.Social), &m.Image)
	if err != nil {
		return nil, err
	}
	m.Skills = nonNil(m.Skills)
	if m.Testimonials == nil {
		m.Testimonials = []model.Testimonial{}
	}
	return m, nil
}

func (r *pgMentorRepository) List(ctx context.Context, f model.MentorFilter) ([]model.Mentor, error) {
	var conditions []string
	var args []interface{}
	if f.Skill != "" {
		args = append(args, likePattern(f.Skill))
		conditions = append(conditions, fmt.Sprintf("(skill ILIKE $%d OR skills::text ILIKE $%d)", len(args), len(args)))
	}
	if f.Location != "" {
		args = append(args, f.Location)
		conditions = append(conditions, fmt.Sprintf("location = $%d", len(args)))
	}
	query := mentorSelect
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY name"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("pgMentorRepository.List query: %w", err)
	}
	defer rows.Close()

	out := []model.Mentor{}
	for rows.Next() {
		m, err := scanMentor(rows)
		if err != nil {
			return nil, fmt.Errorf("pgMentorRepository.List scan: %w", err)
		}
		out = append(out, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pgMentorRepository.List rows.Err: %w", err)
	}
	return out, nil
}

func (r *pgMentorRepository) FindBySlug(ctx context.Context, slug string) (*model.Mentor, error) {
	m, err := scanMentor(r.db.QueryRowContext(ctx, mentorSelect+` WHERE slug = $1`, slug))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgMentorRepository.FindBySlug: %w", err)
	}
	return m, nil
}
