// ABOUTME: Supabase backend: GoTrue password auth and a PostgREST sync_data table.
// ABOUTME: Row-level security on the server scopes rows to auth.uid().
package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
)

// DefaultSupabaseTable is the PostgREST table holding sync rows.
const DefaultSupabaseTable = "sync_data"

// SupabaseBackend talks to a Supabase project over HTTP.
type SupabaseBackend struct {
	client  *resty.Client
	anonKey string
	table   string

	mu      sync.RWMutex
	session *Session
}

var _ Backend = (*SupabaseBackend)(nil)

// SupabaseOption configures a SupabaseBackend.
type SupabaseOption func(*SupabaseBackend)

// WithTable overrides the sync table name.
func WithTable(table string) SupabaseOption {
	return func(b *SupabaseBackend) {
		b.table = table
	}
}

// WithTimeout sets the HTTP timeout.
func WithTimeout(d time.Duration) SupabaseOption {
	return func(b *SupabaseBackend) {
		b.client.SetTimeout(d)
	}
}

// NewSupabase creates a backend for the project at baseURL using its anon key.
func NewSupabase(baseURL, anonKey string, opts ...SupabaseOption) *SupabaseBackend {
	c := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetHeader("Content-Type", "application/json").
		SetHeader("apikey", anonKey).
		SetTimeout(30 * time.Second)

	b := &SupabaseBackend{client: c, anonKey: anonKey, table: DefaultSupabaseTable}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// authResponse covers both the session shape and the bare user shape
// GoTrue returns when email confirmation is on.
type authResponse struct {
	AccessToken string    `json:"access_token"`
	User        *authUser `json:"user"`
	ID          string    `json:"id"`
	Email       string    `json:"email"`
}

type apiError struct {
	Code             any    `json:"code"`
	ErrorCode        string `json:"error_code"`
	Msg              string `json:"msg"`
	Message          string `json:"message"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

func (e apiError) text() string {
	for _, s := range []string{e.Msg, e.Message, e.ErrorDescription, e.Error, e.ErrorCode} {
		if s != "" {
			return s
		}
	}
	return ""
}

func statusError(op string, resp *resty.Response) error {
	var ae apiError
	_ = json.Unmarshal(resp.Body(), &ae)
	msg := ae.text()
	if msg == "" {
		msg = strings.TrimSpace(resp.String())
	}
	return fmt.Errorf("%s: status %d: %s", op, resp.StatusCode(), msg)
}

func (b *SupabaseBackend) CreateAccount(ctx context.Context, email, password string) (Session, error) {
	email, err := validateCredentials(email, password)
	if err != nil {
		return Session{}, err
	}

	var out authResponse
	resp, err := b.client.R().
		SetContext(ctx).
		SetAuthToken(b.anonKey).
		SetBody(credentials{Email: email, Password: password}).
		SetResult(&out).
		Post("/auth/v1/signup")
	if err != nil {
		return Session{}, fmt.Errorf("signup request: %w", err)
	}

	switch {
	case resp.IsSuccess():
	case resp.StatusCode() == http.StatusUnprocessableEntity || resp.StatusCode() == http.StatusBadRequest:
		if strings.Contains(strings.ToLower(resp.String()), "already") {
			return Session{}, ErrAccountExists
		}
		return Session{}, statusError("signup", resp)
	default:
		return Session{}, statusError("signup", resp)
	}

	if out.AccessToken == "" {
		return Session{}, ErrConfirmationPending
	}
	return b.setSession(out, email), nil
}

func (b *SupabaseBackend) SignIn(ctx context.Context, email, password string) (Session, error) {
	email, err := validateCredentials(email, password)
	if err != nil {
		return Session{}, err
	}

	var out authResponse
	resp, err := b.client.R().
		SetContext(ctx).
		SetAuthToken(b.anonKey).
		SetQueryParam("grant_type", "password").
		SetBody(credentials{Email: email, Password: password}).
		SetResult(&out).
		Post("/auth/v1/token")
	if err != nil {
		return Session{}, fmt.Errorf("token request: %w", err)
	}
	if resp.StatusCode() == http.StatusBadRequest || resp.StatusCode() == http.StatusUnauthorized {
		return Session{}, ErrAuthentication
	}
	if !resp.IsSuccess() {
		return Session{}, statusError("sign in", resp)
	}
	if out.AccessToken == "" {
		return Session{}, fmt.Errorf("sign in: response carried no access token")
	}
	return b.setSession(out, email), nil
}

func (b *SupabaseBackend) setSession(out authResponse, email string) Session {
	s := Session{AccessToken: out.AccessToken, Email: email}
	if out.User != nil {
		s.AccountID = out.User.ID
		if out.User.Email != "" {
			s.Email = out.User.Email
		}
	} else {
		s.AccountID = out.ID
	}

	b.mu.Lock()
	b.session = &s
	b.mu.Unlock()
	return s
}

// SignOut revokes the access token and clears the local session. The
// local session is cleared even when the request fails.
func (b *SupabaseBackend) SignOut(ctx context.Context) error {
	b.mu.Lock()
	sess := b.session
	b.session = nil
	b.mu.Unlock()
	if sess == nil {
		return nil
	}

	resp, err := b.client.R().
		SetContext(ctx).
		SetAuthToken(sess.AccessToken).
		Post("/auth/v1/logout")
	if err != nil {
		return fmt.Errorf("logout request: %w", err)
	}
	if !resp.IsSuccess() && resp.StatusCode() != http.StatusUnauthorized {
		return statusError("logout", resp)
	}
	return nil
}

func (b *SupabaseBackend) CurrentSession() (Session, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.session == nil {
		return Session{}, false
	}
	return *b.session, true
}

// supabaseRow is the sync_data table shape.
type supabaseRow struct {
	UserID     string    `json:"user_id"`
	Ciphertext string    `json:"ciphertext"`
	Salt       string    `json:"salt"`
	IV         string    `json:"iv"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func toSupabaseRow(r Row) supabaseRow {
	updated := r.UpdatedAt
	if updated.IsZero() {
		updated = time.Now().UTC()
	}
	return supabaseRow{
		UserID:     r.AccountID,
		Ciphertext: r.Ciphertext,
		Salt:       r.Salt,
		IV:         r.IV,
		UpdatedAt:  updated,
	}
}

func (b *SupabaseBackend) rowRequest(ctx context.Context, accountID string) (*resty.Request, error) {
	b.mu.RLock()
	sess := b.session
	b.mu.RUnlock()
	if err := authorize(sess, accountID); err != nil {
		return nil, err
	}
	return b.client.R().SetContext(ctx).SetAuthToken(sess.AccessToken), nil
}

func (b *SupabaseBackend) restPath() string {
	return "/rest/v1/" + b.table
}

func rowStatusError(op string, resp *resty.Response) error {
	switch resp.StatusCode() {
	case http.StatusConflict:
		return ErrRowExists
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %v", ErrForbidden, statusError(op, resp))
	}
	return statusError(op, resp)
}

func (b *SupabaseBackend) InsertRow(ctx context.Context, row Row) error {
	req, err := b.rowRequest(ctx, row.AccountID)
	if err != nil {
		return err
	}
	resp, err := req.
		SetHeader("Prefer", "return=minimal").
		SetBody([]supabaseRow{toSupabaseRow(row)}).
		Post(b.restPath())
	if err != nil {
		return fmt.Errorf("insert row request: %w", err)
	}
	if !resp.IsSuccess() {
		return rowStatusError("insert row", resp)
	}
	return nil
}

func (b *SupabaseBackend) UpsertRow(ctx context.Context, row Row) error {
	req, err := b.rowRequest(ctx, row.AccountID)
	if err != nil {
		return err
	}
	resp, err := req.
		SetHeader("Prefer", "resolution=merge-duplicates,return=minimal").
		SetQueryParam("on_conflict", "user_id").
		SetBody([]supabaseRow{toSupabaseRow(row)}).
		Post(b.restPath())
	if err != nil {
		return fmt.Errorf("upsert row request: %w", err)
	}
	if !resp.IsSuccess() {
		return rowStatusError("upsert row", resp)
	}
	return nil
}

func (b *SupabaseBackend) SelectRow(ctx context.Context, accountID string) (Row, error) {
	req, err := b.rowRequest(ctx, accountID)
	if err != nil {
		return Row{}, err
	}

	var rows []supabaseRow
	resp, err := req.
		SetQueryParam("user_id", "eq."+accountID).
		SetQueryParam("select", "user_id,ciphertext,salt,iv,updated_at").
		SetResult(&rows).
		Get(b.restPath())
	if err != nil {
		return Row{}, fmt.Errorf("select row request: %w", err)
	}
	if !resp.IsSuccess() {
		return Row{}, rowStatusError("select row", resp)
	}
	if len(rows) == 0 {
		return Row{}, ErrNoRow
	}

	r := rows[0]
	return Row{
		AccountID:  r.UserID,
		Ciphertext: r.Ciphertext,
		Salt:       r.Salt,
		IV:         r.IV,
		UpdatedAt:  r.UpdatedAt,
	}, nil
}
