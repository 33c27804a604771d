package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	// `pgx` specific imports for PostgreSQL interaction.
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// pgUniqueViolation is the PostgreSQL error code for unique constraint violations.
const pgUniqueViolation = "23505"

// DBTX is the subset of pgx used by the Postgres store.
// *pgxpool.Pool, *pgx.Conn and pgx.Tx all satisfy it.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Postgres implements UserStore, AttemptStore and SessionStore on top of pgx.
type Postgres struct {
	db DBTX
}

// NewPostgres creates a Postgres store over the given pool or transaction.
func NewPostgres(db DBTX) *Postgres {
	return &Postgres{db: db}
}

// Stores returns the Postgres store wired as all three record stores.
func (p *Postgres) Stores() Stores {
	return Stores{Users: p, Attempts: p, Sessions: p}
}

const userColumns = `id::text, name, email, password, secret_phrase, role, about_slug, about_content, created_at`

func scanUser(row pgx.Row) (*User, error) {
	var u User
	var role string
	err := row.Scan(
		&u.ID,
		&u.Name,
		&u.Email,
		&u.HashedPassword,
		&u.HashedSecretPhrase,
		&role,
		&u.AboutSlug,
		&u.AboutContent,
		&u.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	u.Role = Role(role)
	return &u, nil
}

func (p *Postgres) FindUserByEmail(ctx context.Context, email string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(p.db.QueryRow(ctx, query, strings.ToLower(email)))
}

func (p *Postgres) FindUserByID(ctx context.Context, id string) (*User, error) {
	if _, err := uuid.Parse(id); err != nil {
		// Not a UUID, so it cannot match; avoids a cast error from the server.
		return nil, ErrNotFound
	}
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1::uuid`
	return scanUser(p.db.QueryRow(ctx, query, id))
}

func (p *Postgres) CreateUser(ctx context.Context, u *User) (*User, error) {
	created := *u
	created.Email = strings.ToLower(u.Email)
	if created.ID == "" {
		created.ID = uuid.NewString()
	}
	if created.Role == "" {
		created.Role = RoleUser
	}

	query := `INSERT INTO users (id, name, email, password, secret_phrase, role, about_slug, about_content)
              VALUES ($1::uuid, $2, $3, $4, $5, $6, $7, $8)
              RETURNING created_at`
	err := p.db.QueryRow(ctx, query,
		created.ID,
		created.Name,
		created.Email,
		created.HashedPassword,
		created.HashedSecretPhrase,
		string(created.Role),
		created.AboutSlug,
		created.AboutContent,
	).Scan(&created.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return nil, fmt.Errorf("%w: %s", ErrDuplicate, pgErr.ConstraintName)
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &created, nil
}

// DeleteUser removes the user. Sessions go with it through ON DELETE CASCADE.
func (p *Postgres) DeleteUser(ctx context.Context, id string) error {
	tag, err := p.db.Exec(ctx, `DELETE FROM users WHERE id = $1::uuid`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) FindLoginAttempt(ctx context.Context, ip string) (*LoginAttempt, error) {
	a := LoginAttempt{IP: ip}
	err := p.db.QueryRow(ctx,
		`SELECT attempts, updated_at FROM login_attempts WHERE ip = $1`, ip,
	).Scan(&a.Attempts, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &a, nil
}

// IncrementLoginAttempt is a single-statement upsert, so concurrent failures from the
// same address never lose an increment.
func (p *Postgres) IncrementLoginAttempt(ctx context.Context, ip string, at time.Time) (*LoginAttempt, error) {
	query := `INSERT INTO login_attempts (ip, attempts, updated_at)
              VALUES ($1, 1, $2)
              ON CONFLICT (ip) DO UPDATE
              SET attempts = login_attempts.attempts + 1, updated_at = EXCLUDED.updated_at
              RETURNING attempts, updated_at`
	a := LoginAttempt{IP: ip}
	if err := p.db.QueryRow(ctx, query, ip, at).Scan(&a.Attempts, &a.UpdatedAt); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &a, nil
}

func (p *Postgres) ResetLoginAttempt(ctx context.Context, ip string, at time.Time) error {
	tag, err := p.db.Exec(ctx,
		`UPDATE login_attempts SET attempts = 0, updated_at = $2 WHERE ip = $1`, ip, at)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) DeleteLoginAttempt(ctx context.Context, ip string) error {
	if _, err := p.db.Exec(ctx, `DELETE FROM login_attempts WHERE ip = $1`, ip); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (p *Postgres) DeleteStaleLoginAttempts(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := p.db.Exec(ctx, `DELETE FROM login_attempts WHERE updated_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (p *Postgres) CreateSession(ctx context.Context, s *Session) error {
	_, err := p.db.Exec(ctx,
		`INSERT INTO sessions (id, user_id, expires_at) VALUES ($1, $2::uuid, $3)`,
		s.ID, s.UserID, s.ExpiresAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return fmt.Errorf("%w: %s", ErrDuplicate, pgErr.ConstraintName)
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (p *Postgres) FindSession(ctx context.Context, id string) (*Session, error) {
	s := Session{ID: id}
	err := p.db.QueryRow(ctx,
		`SELECT user_id::text, expires_at FROM sessions WHERE id = $1`, id,
	).Scan(&s.UserID, &s.ExpiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &s, nil
}

func (p *Postgres) DeleteSession(ctx context.Context, id string) error {
	if _, err := p.db.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (p *Postgres) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	tag, err := p.db.Exec(ctx, `DELETE FROM sessions WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return tag.RowsAffected(), nil
}

// Wipe truncates every table owned by the service.
func (p *Postgres) Wipe(ctx context.Context) error {
	if _, err := p.db.Exec(ctx, `TRUNCATE sessions, login_attempts, users`); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
