package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/todo-app/identity-service/internal/core/domain"
)

const uniqueViolation = "23505"

// DB is the subset of *pgxpool.Pool the repository uses.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
}

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id              UUID PRIMARY KEY,
	username        VARCHAR(50) NOT NULL,
	password_hash   TEXT NOT NULL,
	role            SMALLINT NOT NULL,
	first_name      TEXT NOT NULL DEFAULT '',
	last_name       TEXT NOT NULL DEFAULT '',
	first_name_ruby TEXT NOT NULL DEFAULT '',
	last_name_ruby  TEXT NOT NULL DEFAULT '',
	created_at      TIMESTAMPTZ NOT NULL,
	updated_at      TIMESTAMPTZ NOT NULL,
	created_by      TEXT NOT NULL DEFAULT '',
	updated_by      TEXT NOT NULL DEFAULT '',
	deleted         BOOLEAN NOT NULL DEFAULT FALSE
);
CREATE UNIQUE INDEX IF NOT EXISTS users_username_active_key ON users (username) WHERE NOT deleted;
`

const selectUser = `SELECT id::text, username, password_hash, role, first_name, last_name,
	first_name_ruby, last_name_ruby, created_at, updated_at, created_by, updated_by
FROM users`

const insertUser = `INSERT INTO users (id, username, password_hash, role, first_name, last_name,
	first_name_ruby, last_name_ruby, created_at, updated_at, created_by, updated_by)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

// UserRepository stores users in PostgreSQL.
type UserRepository struct {
	db  DB
	now func() time.Time
}

func NewUserRepository(db DB) *UserRepository {
	return &UserRepository{db: db, now: time.Now}
}

// EnsureSchema creates the users table and the unique index on active
// usernames.
func (r *UserRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	now := r.now().UTC().Truncate(time.Microsecond)
	actor := user.CreatedBy
	if actor == "" {
		actor = user.Username
	}

	created := *user
	created.ID = uuid.NewString()
	created.CreatedAt = now
	created.UpdatedAt = now
	created.CreatedBy = actor
	created.UpdatedBy = actor
	created.Deleted = false

	_, err := r.db.Exec(ctx, insertUser,
		created.ID, created.Username, created.PasswordHash, int(created.Role),
		created.FirstName, created.LastName, created.FirstNameRuby, created.LastNameRuby,
		created.CreatedAt, created.UpdatedAt, created.CreatedBy, created.UpdatedBy,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, domain.ErrDuplicateUsername
		}
		return nil, fmt.Errorf("%w: insert user: %w", domain.ErrStoreUnavailable, err)
	}
	return &created, nil
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.findOne(ctx, selectUser+" WHERE username = $1 AND NOT deleted", username)
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, domain.ErrUserNotFound
	}
	return r.findOne(ctx, selectUser+" WHERE id = $1 AND NOT deleted", uid.String())
}

func (r *UserRepository) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}

func (r *UserRepository) findOne(ctx context.Context, query string, arg string) (*domain.User, error) {
	var (
		u    domain.User
		role int
	)
	err := r.db.QueryRow(ctx, query, arg).Scan(
		&u.ID, &u.Username, &u.PasswordHash, &role, &u.FirstName, &u.LastName,
		&u.FirstNameRuby, &u.LastNameRuby, &u.CreatedAt, &u.UpdatedAt, &u.CreatedBy, &u.UpdatedBy,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("%w: find user: %w", domain.ErrStoreUnavailable, err)
	}
	u.Role = domain.Role(role)
	return &u, nil
}
