package repo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/BuzzLyutic/taskboard/internal/model"
)

type UserRepo struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

// Create возвращает ErrorConflict, если email уже занят
func (r *UserRepo) Create(ctx context.Context, u model.User) (model.User, error) {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO users (name, email, password_hash)
		VALUES ($1, $2, $3)
		RETURNING id::text, created_at
	`, u.Name, u.Email, u.PasswordHash).Scan(&u.ID, &u.CreatedAt)
	return u, mapError(err)
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	return r.getBy(ctx, "email", email)
}

func (r *UserRepo) Get(ctx context.Context, id string) (model.User, error) {
	if !validID(id) {
		return model.User{}, ErrorNotFound
	}
	return r.getBy(ctx, "id", id)
}

func (r *UserRepo) getBy(ctx context.Context, field, value string) (model.User, error) {
	var u model.User
	// field - только константы из этого файла
	err := r.pool.QueryRow(ctx, `
		SELECT id::text, name, email, password_hash, created_at
		FROM users
		WHERE `+field+` = $1
	`, value).Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.CreatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return u, ErrorNotFound
	}
	return u, err
}
