// ABOUTME: Sync coordinator pushing and pulling the encrypted snapshot row.
// ABOUTME: Owns the signed-in session, a single-flight guard, and sync status.
package sync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	gosync "sync"
	"time"

	"github.com/harperreed/habits/internal/crypto"
	"github.com/harperreed/habits/internal/habits"
	"github.com/harperreed/habits/internal/logger"
	"github.com/harperreed/habits/internal/models"
	"github.com/harperreed/habits/internal/remote"
	"golang.org/x/sync/semaphore"
)

var (
	// ErrNotConfigured is returned when no remote backend is available.
	ErrNotConfigured = errors.New("remote sync is not configured")
	// ErrSyncInProgress is returned when another operation holds the guard.
	ErrSyncInProgress = errors.New("sync already in progress")
	// ErrNotSignedIn is returned by push and pull without a session.
	ErrNotSignedIn = errors.New("not signed in")
	// ErrWrongPassword is returned when the remote payload cannot be
	// decrypted. Errors carrying it also match crypto.ErrAuthentication.
	ErrWrongPassword = errors.New("wrong password")
	// ErrCorruptPayload is returned when a decrypted payload is not a snapshot.
	ErrCorruptPayload = errors.New("remote payload is not a valid snapshot")
)

// Operation names used in status and metrics.
const (
	OpSignUp = "signup"
	OpSignIn = "signin"
	OpPush   = "push"
	OpPull   = "pull"
)

// State is the coordinator's sync state.
type State string

const (
	StateIdle    State = "idle"
	StateSyncing State = "syncing"
	StateSuccess State = "success"
	StateError   State = "error"
)

// Status is a point-in-time view of the coordinator.
type Status struct {
	State      State     `json:"state"`
	LastOp     string    `json:"lastOp,omitempty"`
	LastSynced time.Time `json:"lastSynced,omitempty"`
	LastError  string    `json:"lastError,omitempty"`
	SignedIn   bool      `json:"signedIn"`
	Email      string    `json:"email,omitempty"`
	AccountID  string    `json:"accountId,omitempty"`
}

// session is the signed-in account plus the password that encrypts its
// row. It lives in memory only.
type session struct {
	email     string
	accountID string
	password  []byte
}

func (s *session) wipe() {
	clear(s.password)
	s.password = nil
}

// Coordinator serializes sync operations against one backend. At most one
// network operation runs at a time; overlapping calls fail fast.
type Coordinator struct {
	backend remote.Backend
	guard   *semaphore.Weighted
	metrics *Metrics
	now     func() time.Time

	mu      gosync.Mutex
	session *session
	status  Status
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithMetrics records operation counts and durations.
func WithMetrics(m *Metrics) Option {
	return func(c *Coordinator) {
		c.metrics = m
	}
}

// WithClock overrides the clock used for row timestamps and status.
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) {
		c.now = now
	}
}

// NewCoordinator creates a coordinator. A nil backend yields a coordinator
// whose operations all return ErrNotConfigured.
func NewCoordinator(backend remote.Backend, opts ...Option) *Coordinator {
	c := &Coordinator{
		backend: backend,
		guard:   semaphore.NewWeighted(1),
		now:     time.Now,
		status:  Status{State: StateIdle},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Configured reports whether a backend is attached.
func (c *Coordinator) Configured() bool {
	return c.backend != nil
}

// Status returns the current status.
func (c *Coordinator) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	st := c.status
	if c.session != nil {
		st.SignedIn = true
		st.Email = c.session.email
		st.AccountID = c.session.accountID
	}
	return st
}

// run executes fn under the single-flight guard and records the outcome.
func (c *Coordinator) run(op string, fn func() error) error {
	if c.backend == nil {
		return ErrNotConfigured
	}
	if !c.guard.TryAcquire(1) {
		c.metrics.observe(op, resultBusy, 0)
		return ErrSyncInProgress
	}
	defer c.guard.Release(1)

	c.mu.Lock()
	c.status.State = StateSyncing
	c.status.LastOp = op
	c.mu.Unlock()

	start := c.now()
	err := fn()
	elapsed := c.now().Sub(start)

	c.mu.Lock()
	if err != nil {
		c.status.State = StateError
		c.status.LastError = err.Error()
	} else {
		c.status.State = StateSuccess
		c.status.LastError = ""
		c.status.LastSynced = c.now()
	}
	c.mu.Unlock()

	if err != nil {
		logger.Warn("sync operation failed", "op", op, "error", err)
		c.metrics.observe(op, resultError, elapsed)
	} else {
		logger.Info("sync operation complete", "op", op, "duration", elapsed)
		c.metrics.observe(op, resultSuccess, elapsed)
	}
	return err
}

func (c *Coordinator) setSession(sess remote.Session, password string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session != nil {
		c.session.wipe()
	}
	c.session = &session{
		email:     sess.Email,
		accountID: sess.AccountID,
		password:  []byte(password),
	}
}

func (c *Coordinator) clearSession() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session != nil {
		c.session.wipe()
		c.session = nil
	}
}

// dropExpired wipes the session when the remote no longer honors it.
func (c *Coordinator) dropExpired(err error) {
	if errors.Is(err, remote.ErrForbidden) || errors.Is(err, remote.ErrNotSignedIn) {
		logger.Info("remote session expired, wiping cached password")
		c.clearSession()
	}
}

func (c *Coordinator) currentAccount() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return "", ErrNotSignedIn
	}
	return c.session.accountID, nil
}

func (c *Coordinator) sessionPassword() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil || len(c.session.password) == 0 {
		return "", ErrNotSignedIn
	}
	return string(c.session.password), nil
}

func (c *Coordinator) seal(accountID string, snap habits.Snapshot, password string) (remote.Row, error) {
	if snap.Habits == nil {
		snap.Habits = []models.Habit{}
	}
	if snap.Logs == nil {
		snap.Logs = []models.HabitLog{}
	}
	payload, err := json.Marshal(snap)
	if err != nil {
		return remote.Row{}, fmt.Errorf("marshal snapshot: %w", err)
	}
	bundle, err := crypto.Encrypt(string(payload), password)
	if err != nil {
		return remote.Row{}, fmt.Errorf("encrypt snapshot: %w", err)
	}
	return remote.Row{
		AccountID:  accountID,
		Ciphertext: bundle.Ciphertext,
		Salt:       bundle.Salt,
		IV:         bundle.IV,
		UpdatedAt:  c.now().UTC(),
	}, nil
}

func open(row remote.Row, password string) (*habits.Snapshot, error) {
	plaintext, err := crypto.Decrypt(crypto.Bundle{
		Ciphertext: row.Ciphertext,
		Salt:       row.Salt,
		IV:         row.IV,
	}, password)
	if err != nil {
		if errors.Is(err, crypto.ErrAuthentication) {
			return nil, fmt.Errorf("%w: %w", ErrWrongPassword, err)
		}
		return nil, fmt.Errorf("decrypt snapshot: %w", err)
	}

	var snap habits.Snapshot
	if err := json.Unmarshal([]byte(plaintext), &snap); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptPayload, err)
	}
	return &snap, nil
}

// SignUp creates an account and stores snap as its first encrypted row.
// The new account stays signed in even if storing the row fails.
func (c *Coordinator) SignUp(ctx context.Context, email, password string, snap habits.Snapshot) error {
	if password == "" {
		return crypto.ErrEmptyPassword
	}
	return c.run(OpSignUp, func() error {
		sess, err := c.backend.CreateAccount(ctx, email, password)
		if err != nil {
			return fmt.Errorf("create account: %w", err)
		}
		c.setSession(sess, password)

		row, err := c.seal(sess.AccountID, snap, password)
		if err != nil {
			return err
		}
		if err := c.backend.InsertRow(ctx, row); err != nil {
			return fmt.Errorf("store initial row: %w", err)
		}
		return nil
	})
}

// SignIn authenticates and fetches the remote snapshot. It returns a nil
// snapshot when the account has no row yet. If the row cannot be decrypted
// the session is discarded and an ErrWrongPassword error is returned.
func (c *Coordinator) SignIn(ctx context.Context, email, password string) (*habits.Snapshot, error) {
	if password == "" {
		return nil, crypto.ErrEmptyPassword
	}
	var snap *habits.Snapshot
	err := c.run(OpSignIn, func() error {
		sess, err := c.backend.SignIn(ctx, email, password)
		if err != nil {
			return fmt.Errorf("sign in: %w", err)
		}

		row, err := c.backend.SelectRow(ctx, sess.AccountID)
		if errors.Is(err, remote.ErrNoRow) {
			c.setSession(sess, password)
			return nil
		}
		if err != nil {
			_ = c.backend.SignOut(ctx)
			return fmt.Errorf("fetch row: %w", err)
		}

		snap, err = open(row, password)
		if err != nil {
			_ = c.backend.SignOut(ctx)
			return err
		}
		c.setSession(sess, password)
		return nil
	})
	return snap, err
}

// SignOut ends the remote session and wipes the cached password.
func (c *Coordinator) SignOut(ctx context.Context) error {
	if c.backend == nil {
		return ErrNotConfigured
	}
	c.clearSession()

	c.mu.Lock()
	c.status = Status{State: StateIdle}
	c.mu.Unlock()

	if err := c.backend.SignOut(ctx); err != nil {
		return fmt.Errorf("sign out: %w", err)
	}
	return nil
}

// Push encrypts snap with password and overwrites the account's row.
func (c *Coordinator) Push(ctx context.Context, snap habits.Snapshot, password string) error {
	if password == "" {
		return crypto.ErrEmptyPassword
	}
	return c.run(OpPush, func() error {
		accountID, err := c.currentAccount()
		if err != nil {
			return err
		}
		row, err := c.seal(accountID, snap, password)
		if err != nil {
			return err
		}
		if err := c.backend.UpsertRow(ctx, row); err != nil {
			c.dropExpired(err)
			return fmt.Errorf("upsert row: %w", err)
		}
		return nil
	})
}

// Pull fetches and decrypts the account's row. It returns a nil snapshot
// when no row exists.
func (c *Coordinator) Pull(ctx context.Context, password string) (*habits.Snapshot, error) {
	if password == "" {
		return nil, crypto.ErrEmptyPassword
	}
	var snap *habits.Snapshot
	err := c.run(OpPull, func() error {
		accountID, err := c.currentAccount()
		if err != nil {
			return err
		}
		row, err := c.backend.SelectRow(ctx, accountID)
		if errors.Is(err, remote.ErrNoRow) {
			return nil
		}
		if err != nil {
			c.dropExpired(err)
			return fmt.Errorf("fetch row: %w", err)
		}
		snap, err = open(row, password)
		return err
	})
	return snap, err
}

// PushSession pushes using the password cached at sign-in.
func (c *Coordinator) PushSession(ctx context.Context, snap habits.Snapshot) error {
	if c.backend == nil {
		return ErrNotConfigured
	}
	password, err := c.sessionPassword()
	if err != nil {
		return err
	}
	return c.Push(ctx, snap, password)
}

// PullSession pulls using the password cached at sign-in.
func (c *Coordinator) PullSession(ctx context.Context) (*habits.Snapshot, error) {
	if c.backend == nil {
		return nil, ErrNotConfigured
	}
	password, err := c.sessionPassword()
	if err != nil {
		return nil, err
	}
	return c.Pull(ctx, password)
}
