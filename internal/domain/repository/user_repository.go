package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"kaab_hub/internal/common"
	"kaab_hub/internal/domain/model"
)

type UserRepository interface {
	Create(ctx context.Context, tx *sql.Tx, user *model.User) error
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByID(ctx context.Context, id string) (*model.User, error)
	UpdateProfile(ctx context.Context, user *model.User) error
	UpdateSettings(ctx context.Context, userID string, prefs model.NotificationPreferences, privacy model.PrivacySettings) error
	UpdatePassword(ctx context.Context, userID, hashedPassword string) error
	UpdateProfilePicture(ctx context.Context, userID, url string) error
	IncrementReputation(ctx context.Context, tx *sql.Tx, userID string, delta int) error
}

type pgUserRepository struct {
	db *sql.DB
}

func NewPgUserRepository(db *sql.DB) UserRepository {
	return &pgUserRepository{db: db}
}

const userColumns = `id, name, email, password_hash, profile_picture, bio, university, course, year,
	location, field, reputation, is_admin, notification_preferences, privacy_settings, created_at, updated_at`

func scanUser(row interface{ Scan(...interface{}) error }) (*model.User, error) {
	u := &model.User{}
	var year sql.NullInt64
	err := row.Scan(
		&u.ID, &u.Name, &u.Email, &u.HashedPassword, &u.ProfilePicture, &u.Bio, &u.University, &u.Course, &year,
		&u.Location, &u.Field, &u.Reputation, &u.IsAdmin,
		asJSON(&u.NotificationPreferences), asJSON(&u.PrivacySettings),
		&u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if year.Valid {
		y := int(year.Int64)
		u.Year = &y
	}
	return u, nil
}

func (r *pgUserRepository) Create(ctx context.Context, tx *sql.Tx, user *model.User) error {
	prefs, err := toJSON(user.NotificationPreferences)
	if err != nil {
		return fmt.Errorf("pgUserRepository.Create: %w", err)
	}
	privacy, err := toJSON(user.PrivacySettings)
	if err != nil {
		return fmt.Errorf("pgUserRepository.Create: %w", err)
	}

	query := `INSERT INTO users (id, name, email, password_hash, university, course, year, notification_preferences, privacy_settings)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	          RETURNING created_at, updated_at`
	err = conn(r.db, tx).QueryRowContext(ctx, query,
		user.ID, user.Name, user.Email, user.HashedPassword, user.University, user.Course, user.Year, prefs, privacy,
	).Scan(&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if common.IsUniqueViolation(err) {
			return fmt.Errorf("user with given email already exists: %w", common.ErrConflict)
		}
		return fmt.Errorf("pgUserRepository.Create: %w", err)
	}
	return nil
}

func (r *pgUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	user, err := scanUser(r.db.QueryRowContext(ctx, query, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgUserRepository.FindByEmail: %w", err)
	}
	return user, nil
}

func (r *pgUserRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	user, err := scanUser(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgUserRepository.FindByID: %w", err)
	}
	return user, nil
}

func (r *pgUserRepository) UpdateProfile(ctx context.Context, user *model.User) error {
	query := `UPDATE users SET name = $1, bio = $2, university = $3, course = $4, year = $5,
	                 location = $6, field = $7, updated_at = CURRENT_TIMESTAMP
	          WHERE id = $8
	          RETURNING updated_at`
	err := r.db.QueryRowContext(ctx, query,
		user.Name, user.Bio, user.University, user.Course, user.Year, user.Location, user.Field, user.ID,
	).Scan(&user.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return common.ErrNotFound
		}
		return fmt.Errorf("pgUserRepository.UpdateProfile: %w", err)
	}
	return nil
}

func (r *pgUserRepository) UpdateSettings(ctx context.Context, userID string, prefs model.NotificationPreferences, privacy model.PrivacySettings) error {
	prefsJSON, err := toJSON(prefs)
	if err != nil {
		return fmt.Errorf("pgUserRepository.UpdateSettings: %w", err)
	}
	privacyJSON, err := toJSON(privacy)
	if err != nil {
		return fmt.Errorf("pgUserRepository.UpdateSettings: %w", err)
	}
	query := `UPDATE users SET notification_preferences = $1, privacy_settings = $2, updated_at = CURRENT_TIMESTAMP
	          WHERE id = $3`
	return r.execOne(ctx, "UpdateSettings", query, prefsJSON, privacyJSON, userID)
}

func (r *pgUserRepository) UpdatePassword(ctx context.Context, userID, hashedPassword string) error {
	query := `UPDATE users SET password_hash = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2`
	return r.execOne(ctx, "UpdatePassword", query, hashedPassword, userID)
}

func (r *pgUserRepository) UpdateProfilePicture(ctx context.Context, userID, url string) error {
	query := `UPDATE users SET profile_picture = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2`
	return r.execOne(ctx, "UpdateProfilePicture", query, url, userID)
}

// IncrementReputation adds delta in place so concurrent grants never overwrite each other.
func (r *pgUserRepository) IncrementReputation(ctx context.Context, tx *sql.Tx, userID string, delta int) error {
	query := `UPDATE users SET reputation = reputation + $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2`
	res, err := conn(r.db, tx).ExecContext(ctx, query, delta, userID)
	if err != nil {
		return fmt.Errorf("pgUserRepository.IncrementReputation: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *pgUserRepository) execOne(ctx context.Context, op, query string, args ...interface{}) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("pgUserRepository.%s: %w", op, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return common.ErrNotFound
	}
	return nil
}
