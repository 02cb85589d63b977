package repository

import (
	"context"
	"database/sql"
	"fmt"

	"kaab_hub/internal/domain/voting"
)

// VoteRepository stores one row per (target, user). Callers hold the target's
// row lock for the whole read-toggle-write so concurrent voters serialise.
type VoteRepository interface {
	Load(ctx context.Context, tx *sql.Tx, target voting.Target, targetID string) (up, down []string, err error)
	Set(ctx context.Context, tx *sql.Tx, target voting.Target, targetID, userID string, dir voting.Direction) error
}

type pgVoteRepository struct {
	db *sql.DB
}

func NewPgVoteRepository(db *sql.DB) VoteRepository {
	return &pgVoteRepository{db: db}
}

type voteTable struct {
	table  string
	column string
}

var voteTables = map[voting.Target]voteTable{
	voting.TargetQuestion: {table: "question_votes", column: "question_id"},
	voting.TargetAnswer:   {table: "answer_votes", column: "answer_id"},
}

func tableFor(target voting.Target) (voteTable, error) {
	t, ok := voteTables[target]
	if !ok {
		return voteTable{}, fmt.Errorf("unknown vote target %q", target)
	}
	return t, nil
}

func (r *pgVoteRepository) Load(ctx context.Context, tx *sql.Tx, target voting.Target, targetID string) ([]string, []string, error) {
	t, err := tableFor(target)
	if err != nil {
		return nil, nil, fmt.Errorf("pgVoteRepository.Load: %w", err)
	}
	query := fmt.Sprintf(`SELECT user_id, direction FROM %s WHERE %s = $1 ORDER BY created_at`, t.table, t.column)
	rows, err := conn(r.db, tx).QueryContext(ctx, query, targetID)
	if err != nil {
		return nil, nil, fmt.Errorf("pgVoteRepository.Load query: %w", err)
	}
	defer rows.Close()

	up, down := []string{}, []string{}
	for rows.Next() {
		var userID string
		var dir voting.Direction
		if err := rows.Scan(&userID, &dir); err != nil {
			return nil, nil, fmt.Errorf("pgVoteRepository.Load scan: %w", err)
		}
		switch dir {
		case voting.Up:
			up = append(up, userID)
		case voting.Down:
			down = append(down, userID)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("pgVoteRepository.Load rows.Err: %w", err)
	}
	return up, down, nil
}

// Set records userID's current vote; voting.None removes it.
func (r *pgVoteRepository) Set(ctx context.Context, tx *sql.Tx, target voting.Target, targetID, userID string, dir voting.Direction) error {
	t, err := tableFor(target)
	if err != nil {
		return fmt.Errorf("pgVoteRepository.Set: %w", err)
	}
	db := conn(r.db, tx)

	if dir == voting.None {
		query := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1 AND user_id = $2`, t.table, t.column)
		if _, err := db.ExecContext(ctx, query, targetID, userID); err != nil {
			return fmt.Errorf("pgVoteRepository.Set delete: %w", err)
		}
		return nil
	}

	query := fmt.Sprintf(`INSERT INTO %[1]s (%[2]s, user_id, direction) VALUES ($1, $2, $3)
	          ON CONFLICT (%[2]s, user_id) DO UPDATE SET direction = EXCLUDED.direction, created_at = CURRENT_TIMESTAMP`,
		t.table, t.column)
	if _, err := db.ExecContext(ctx, query, targetID, userID, string(dir)); err != nil {
		return fmt.Errorf("pgVoteRepository.Set upsert: %w", err)
	}
	return nil
}
