package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"kaab_hub/internal/domain/model"
)

type OpportunityRepository interface {
	Create(ctx context.Context, o *model.Opportunity) error
	List(ctx context.Context, filter model.OpportunityFilter) ([]model.Opportunity, error)
}

type pgOpportunityRepository struct {
	db *sql.DB
}

func NewPgOpportunityRepository(db *sql.DB) OpportunityRepository {
	return &pgOpportunityRepository{db: db}
}

func (r *pgOpportunityRepository) Create(ctx context.Context, o *model.Opportunity) error {
	query := `INSERT INTO opportunities (id, title, description, category, location, field, deadline, link, author_id)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	          RETURNING created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query,
		o.ID, o.Title, o.Description, string(o.Category), string(o.Location), string(o.Field), o.Deadline, o.Link, o.AuthorID,
	).Scan(&o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("pgOpportunityRepository.Create: %w", err)
	}
	return nil
}

func (r *pgOpportunityRepository) List(ctx context.Context, f model.OpportunityFilter) ([]model.Opportunity, error) {
	var b strings.Builder
	b.WriteString(`
        SELECT o.id, o.title, o.description, o.category, o.location, o.field, o.deadline, o.link,
               o.author_id, u.name, u.profile_picture, o.created_at, o.updated_at
        FROM opportunities o
        JOIN users u ON u.id = o.author_id`)

	var conditions []string
	var args []interface{}
	add := func(column, value string) {
		if value == "" {
			return
		}
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf("o.%s = $%d", column, len(args)))
	}
	add("category", string(f.Category))
	add("location", string(f.Location))
	add("field", string(f.Field))

	if len(conditions) > 0 {
		b.WriteString(" WHERE " + strings.Join(conditions, " AND "))
	}
	b.WriteString(" ORDER BY o.created_at DESC")

	rows, err := r.db.QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("pgOpportunityRepository.List query: %w", err)
	}
	defer rows.Close()

	out := []model.Opportunity{}
	for rows.Next() {
		o := model.Opportunity{Author: &model.UserSummary{}}
		if err := rows.Scan(&o.ID, &o.Title, &o.Description, &o.Category, &o.Location, &o.Field, &o.Deadline, &o.Link,
			&o.AuthorID, &o.Author.Name, &o.Author.ProfilePicture, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, fmt.Errorf("pgOpportunityRepository.List scan: %w", err)
		}
		o.Author.ID = o.AuthorID
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pgOpportunityRepository.List rows.Err: %w", err)
	}
	return out, nil
}
