// ABOUTME: In-process remote backend for tests and offline use.
// ABOUTME: Accounts keep bcrypt hashes; rows are scoped to the signed-in account.
package remote

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type memAccount struct {
	id   string
	hash []byte
}

// MemoryBackend is a Backend held entirely in memory. Use Client to get
// several sessions sharing the same accounts and rows.
type MemoryBackend struct {
	shared  *memoryData
	mu      sync.Mutex
	session *Session
}

type memoryData struct {
	mu       sync.Mutex
	accounts map[string]memAccount
	rows     map[string]Row
}

var _ Backend = (*MemoryBackend)(nil)

// NewMemoryBackend returns an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{shared: &memoryData{
		accounts: map[string]memAccount{},
		rows:     map[string]Row{},
	}}
}

// Client returns a second handle on the same data with its own session,
// like another device talking to the same service.
func (m *MemoryBackend) Client() *MemoryBackend {
	return &MemoryBackend{shared: m.shared}
}

func (m *MemoryBackend) CreateAccount(ctx context.Context, email, password string) (Session, error) {
	email, err := validateCredentials(email, password)
	if err != nil {
		return Session{}, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		return Session{}, fmt.Errorf("hash password: %w", err)
	}

	m.shared.mu.Lock()
	if _, ok := m.shared.accounts[email]; ok {
		m.shared.mu.Unlock()
		return Session{}, ErrAccountExists
	}
	acct := memAccount{id: uuid.New().String(), hash: hash}
	m.shared.accounts[email] = acct
	m.shared.mu.Unlock()

	return m.setSession(Session{AccountID: acct.id, Email: email}), nil
}

func (m *MemoryBackend) SignIn(ctx context.Context, email, password string) (Session, error) {
	email, err := validateCredentials(email, password)
	if err != nil {
		return Session{}, err
	}

	m.shared.mu.Lock()
	acct, ok := m.shared.accounts[email]
	m.shared.mu.Unlock()
	if !ok {
		return Session{}, ErrAuthentication
	}
	if err := bcrypt.CompareHashAndPassword(acct.hash, []byte(password)); err != nil {
		return Session{}, ErrAuthentication
	}

	return m.setSession(Session{AccountID: acct.id, Email: email}), nil
}

func (m *MemoryBackend) setSession(s Session) Session {
	s.AccessToken = uuid.New().String()
	m.mu.Lock()
	m.session = &s
	m.mu.Unlock()
	return s
}

func (m *MemoryBackend) SignOut(ctx context.Context) error {
	m.mu.Lock()
	m.session = nil
	m.mu.Unlock()
	return nil
}

func (m *MemoryBackend) CurrentSession() (Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return Session{}, false
	}
	return *m.session, true
}

func (m *MemoryBackend) authorize(accountID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return authorize(m.session, accountID)
}

func (m *MemoryBackend) InsertRow(ctx context.Context, row Row) error {
	if err := m.authorize(row.AccountID); err != nil {
		return err
	}

	m.shared.mu.Lock()
	defer m.shared.mu.Unlock()
	if _, ok := m.shared.rows[row.AccountID]; ok {
		return ErrRowExists
	}
	if row.UpdatedAt.IsZero() {
		row.UpdatedAt = time.Now()
	}
	m.shared.rows[row.AccountID] = row
	return nil
}

func (m *MemoryBackend) UpsertRow(ctx context.Context, row Row) error {
	if err := m.authorize(row.AccountID); err != nil {
		return err
	}

	m.shared.mu.Lock()
	defer m.shared.mu.Unlock()
	if row.UpdatedAt.IsZero() {
		row.UpdatedAt = time.Now()
	}
	m.shared.rows[row.AccountID] = row
	return nil
}

func (m *MemoryBackend) SelectRow(ctx context.Context, accountID string) (Row, error) {
	if err := m.authorize(accountID); err != nil {
		return Row{}, err
	}

	m.shared.mu.Lock()
	defer m.shared.mu.Unlock()
	row, ok := m.shared.rows[accountID]
	if !ok {
		return Row{}, ErrNoRow
	}
	return row, nil
}
