// ABOUTME: Remote account and row-store capability used by the sync coordinator.
// ABOUTME: One encrypted row per account; every row operation is owner-scoped.
package remote

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrAuthentication is returned when credentials are rejected.
	ErrAuthentication = errors.New("invalid email or password")
	// ErrAccountExists is returned when signing up with a taken email.
	ErrAccountExists = errors.New("account already exists")
	// ErrConfirmationPending is returned when an account was created but
	// cannot sign in until its email is confirmed.
	ErrConfirmationPending = errors.New("account created, email confirmation required")
	// ErrNotSignedIn is returned by row operations without a session.
	ErrNotSignedIn = errors.New("not signed in")
	// ErrNoRow is returned when the account has no stored row.
	ErrNoRow = errors.New("no remote row")
	// ErrRowExists is returned when inserting a row that already exists.
	ErrRowExists = errors.New("remote row already exists")
	// ErrForbidden is returned when touching another account's row.
	ErrForbidden = errors.New("row belongs to another account")
	// ErrInvalidInput is returned for malformed emails or empty passwords.
	ErrInvalidInput = errors.New("invalid input")
)

// Session identifies the signed-in account.
type Session struct {
	AccountID   string
	Email       string
	AccessToken string
}

// Row is the single encrypted record stored per account.
type Row struct {
	AccountID  string
	Ciphertext string
	Salt       string
	IV         string
	UpdatedAt  time.Time
}

// Accounts manages sign-up and sign-in against the remote service.
type Accounts interface {
	CreateAccount(ctx context.Context, email, password string) (Session, error)
	SignIn(ctx context.Context, email, password string) (Session, error)
	SignOut(ctx context.Context) error
	CurrentSession() (Session, bool)
}

// Rows reads and writes the signed-in account's row.
type Rows interface {
	InsertRow(ctx context.Context, row Row) error
	UpsertRow(ctx context.Context, row Row) error
	SelectRow(ctx context.Context, accountID string) (Row, error)
}

// Backend is a complete remote: accounts plus rows.
type Backend interface {
	Accounts
	Rows
}

// NormalizeEmail trims and lowercases an email and checks its shape.
func NormalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	at := strings.Index(email, "@")
	if at <= 0 || at == len(email)-1 || strings.Count(email, "@") != 1 {
		return "", fmt.Errorf("%w: email %q", ErrInvalidInput, email)
	}
	return email, nil
}

func validateCredentials(email, password string) (string, error) {
	email, err := NormalizeEmail(email)
	if err != nil {
		return "", err
	}
	if password == "" {
		return "", fmt.Errorf("%w: empty password", ErrInvalidInput)
	}
	return email, nil
}

// authorize checks that a session exists and owns accountID.
func authorize(sess *Session, accountID string) error {
	if sess == nil {
		return ErrNotSignedIn
	}
	if accountID != sess.AccountID {
		return ErrForbidden
	}
	return nil
}
