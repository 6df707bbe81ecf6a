// ABOUTME: Self-hosted Postgres backend using a pgx connection pool.
// ABOUTME: Accounts store bcrypt hashes; sync_rows holds one row per account.
package remote

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"
)

const pgUniqueViolation = "23505"

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS accounts (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS sync_rows (
		account_id TEXT PRIMARY KEY REFERENCES accounts(id) ON DELETE CASCADE,
		ciphertext TEXT NOT NULL,
		salt TEXT NOT NULL,
		iv TEXT NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
}

// PostgresBackend stores accounts and rows in a Postgres database.
type PostgresBackend struct {
	pool *pgxpool.Pool
	cost int

	mu      sync.RWMutex
	session *Session
}

var _ Backend = (*PostgresBackend)(nil)

// OpenPostgres connects to dsn, verifies the connection, and creates the
// tables if needed.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresBackend, error) {
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}
	poolConfig.MaxConns = 4
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	b := NewPostgres(pool)
	if err := b.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return b, nil
}

// NewPostgres wraps an existing pool. The schema is assumed to exist.
func NewPostgres(pool *pgxpool.Pool) *PostgresBackend {
	return &PostgresBackend{pool: pool, cost: bcrypt.DefaultCost}
}

func (b *PostgresBackend) migrate(ctx context.Context) error {
	for _, stmt := range postgresSchema {
		if _, err := b.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}
	return nil
}

// Close releases the pool.
func (b *PostgresBackend) Close() {
	b.pool.Close()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

func (b *PostgresBackend) CreateAccount(ctx context.Context, email, password string) (Session, error) {
	email, err := validateCredentials(email, password)
	if err != nil {
		return Session{}, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), b.cost)
	if err != nil {
		return Session{}, fmt.Errorf("hash password: %w", err)
	}

	id := uuid.New().String()
	_, err = b.pool.Exec(ctx,
		`INSERT INTO accounts (id, email, password_hash) VALUES ($1, $2, $3)`,
		id, email, string(hash))
	if err != nil {
		if isUniqueViolation(err) {
			return Session{}, ErrAccountExists
		}
		return Session{}, fmt.Errorf("insert account: %w", err)
	}

	return b.setSession(Session{AccountID: id, Email: email}), nil
}

func (b *PostgresBackend) SignIn(ctx context.Context, email, password string) (Session, error) {
	email, err := validateCredentials(email, password)
	if err != nil {
		return Session{}, err
	}

	var id, hash string
	err = b.pool.QueryRow(ctx,
		`SELECT id, password_hash FROM accounts WHERE email = $1`, email).Scan(&id, &hash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Session{}, ErrAuthentication
		}
		return Session{}, fmt.Errorf("query account: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return Session{}, ErrAuthentication
	}

	return b.setSession(Session{AccountID: id, Email: email}), nil
}

func (b *PostgresBackend) setSession(s Session) Session {
	b.mu.Lock()
	b.session = &s
	b.mu.Unlock()
	return s
}

func (b *PostgresBackend) SignOut(ctx context.Context) error {
	b.mu.Lock()
	b.session = nil
	b.mu.Unlock()
	return nil
}

func (b *PostgresBackend) CurrentSession() (Session, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.session == nil {
		return Session{}, false
	}
	return *b.session, true
}

func (b *PostgresBackend) authorize(accountID string) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return authorize(b.session, accountID)
}

func rowTime(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t
}

func (b *PostgresBackend) InsertRow(ctx context.Context, row Row) error {
	if err := b.authorize(row.AccountID); err != nil {
		return err
	}
	_, err := b.pool.Exec(ctx,
		`INSERT INTO sync_rows (account_id, ciphertext, salt, iv, updated_at) VALUES ($1, $2, $3, $4, $5)`,
		row.AccountID, row.Ciphertext, row.Salt, row.IV, rowTime(row.UpdatedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return ErrRowExists
		}
		return fmt.Errorf("insert row: %w", err)
	}
	return nil
}

func (b *PostgresBackend) UpsertRow(ctx context.Context, row Row) error {
	if err := b.authorize(row.AccountID); err != nil {
		return err
	}
	_, err := b.pool.Exec(ctx,
		`INSERT INTO sync_rows (account_id, ciphertext, salt, iv, updated_at) VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (account_id) DO UPDATE
		 SET ciphertext = EXCLUDED.ciphertext, salt = EXCLUDED.salt, iv = EXCLUDED.iv, updated_at = EXCLUDED.updated_at`,
		row.AccountID, row.Ciphertext, row.Salt, row.IV, rowTime(row.UpdatedAt))
	if err != nil {
		return fmt.Errorf("upsert row: %w", err)
	}
	return nil
}

func (b *PostgresBackend) SelectRow(ctx context.Context, accountID string) (Row, error) {
	if err := b.authorize(accountID); err != nil {
		return Row{}, err
	}

	row := Row{AccountID: accountID}
	err := b.pool.QueryRow(ctx,
		`SELECT ciphertext, salt, iv, updated_at FROM sync_rows WHERE account_id = $1`,
		accountID).Scan(&row.Ciphertext, &row.Salt, &row.IV, &row.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Row{}, ErrNoRow
		}
		return Row{}, fmt.Errorf("select row: %w", err)
	}
	return row, nil
}

// DeleteAccount removes an account and its row. Used by tests and
// account cleanup.
func (b *PostgresBackend) DeleteAccount(ctx context.Context, email string) error {
	email, err := NormalizeEmail(email)
	if err != nil {
		return err
	}
	if _, err := b.pool.Exec(ctx, `DELETE FROM accounts WHERE email = $1`, email); err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	return nil
}
