package postgres

import (
	"context"
	"database/sql"
	"errors"

	"mung-manager/internal/domain/lifecycle"
	"mung-manager/internal/domain/users"
)

type UsersRepo struct {
	db *sql.DB
}

func NewUsersRepo(db *sql.DB) *UsersRepo {
	return &UsersRepo{db: db}
}

const userColumns = `
	id, social_id, social_provider, email, name, phone_number,
	state, deleted_at, created_at, updated_at
`

func (r *UsersRepo) Create(ctx context.Context, u users.User) (users.User, error) {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	`,
		u.ID,
		u.SocialID,
		u.SocialProvider,
		u.Email,
		u.Name,
		u.PhoneNumber,
		string(u.Lifecycle.State),
		u.Lifecycle.DeletedAt,
		u.CreatedAt,
		u.UpdatedAt,
	)
	if err != nil {
		return users.User{}, err
	}
	return u, nil
}

func (r *UsersRepo) Update(ctx context.Context, u users.User) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET email = $2, name = $3, phone_number = $4,
		    state = $5, deleted_at = $6, updated_at = $7
		WHERE id = $1
	`,
		u.ID,
		u.Email,
		u.Name,
		u.PhoneNumber,
		string(u.Lifecycle.State),
		u.Lifecycle.DeletedAt,
		u.UpdatedAt,
	)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return users.ErrNotFound
	}
	return nil
}

func (r *UsersRepo) GetByID(ctx context.Context, id string) (users.User, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+userColumns+` FROM users WHERE id = $1
	`, id)
	return scanUser(row)
}

func (r *UsersRepo) GetBySocialID(ctx context.Context, provider, socialID string) (users.User, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE social_provider = $1 AND social_id = $2
	`, provider, socialID)
	return scanUser(row)
}

func scanUser(row rowScanner) (users.User, error) {
	var (
		u     users.User
		state string
	)
	err := row.Scan(
		&u.ID,
		&u.SocialID,
		&u.SocialProvider,
		&u.Email,
		&u.Name,
		&u.PhoneNumber,
		&state,
		&u.Lifecycle.DeletedAt,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return users.User{}, users.ErrNotFound
	}
	if err != nil {
		return users.User{}, err
	}
	u.Lifecycle.State = lifecycle.State(state)
	return u, nil
}
