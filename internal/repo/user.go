package repo

import (
	"context"
	"database/sql"

	"github.com/AhmedMotwaly/taskapp-3tier/internal/models"
)

// UserRepo reads user rows. Users are provisioned out-of-band (seed tool);
// nothing here mutates them.
type UserRepo struct {
	DB *sql.DB
}

func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{DB: db}
}

// GetByUsername looks a user up for login. The match is case-sensitive.
// Returns sql.ErrNoRows when no such user exists.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `
		SELECT id, username, password_hash, first_name, last_name
		FROM users
		WHERE username = $1
	`

	user := &models.User{}

	err := r.DB.QueryRowContext(ctx, query, username).
		Scan(&user.ID, &user.Username, &user.PasswordHash, &user.FirstName, &user.LastName)

	if err != nil {
		return nil, err
	}

	return user, nil
}

// GetByID returns one user by id. Returns sql.ErrNoRows when missing.
func (r *UserRepo) GetByID(ctx context.Context, id int) (*models.User, error) {
	query := `
		SELECT id, username, password_hash, first_name, last_name
		FROM users
		WHERE id = $1
	`

	user := &models.User{}

	err := r.DB.QueryRowContext(ctx, query, id).
		Scan(&user.ID, &user.Username, &user.PasswordHash, &user.FirstName, &user.LastName)

	if err != nil {
		return nil, err
	}

	return user, nil
}
