// Package supabase is a minimal REST client for the two backend endpoints the
// suite needs: password sign-in on the auth API and a user-scoped delete on
// the jobs table.
package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-cleanhttp"

	"github.com/jobtracker/e2e/internal/jobs"
)

// JobsTable is the table holding job application rows.
const JobsTable = "jobs"

// maxErrorBody bounds how much of an error response is kept for messages.
const maxErrorBody = 512

var (
	// ErrUnauthorized is returned when the backend rejects the credentials
	// or token (HTTP 400/401/403).
	ErrUnauthorized = errors.New("unauthorized")

	// ErrNoUser is returned when a sign-in response carries no user id.
	ErrNoUser = errors.New("no user in auth response")

	// ErrEmptyUserID guards against an unfiltered delete.
	ErrEmptyUserID = errors.New("refusing to delete without a user id")
)

// StatusError describes a non-2xx response.
type StatusError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d: %s", e.Op, e.StatusCode, e.Body)
}

// Unwrap maps auth failures onto ErrUnauthorized.
func (e *StatusError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden:
		return ErrUnauthorized
	}
	return nil
}

// User is the subset of the auth user object the suite reads.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Session is a successful password sign-in.
type Session struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
	User        User   `json:"user"`
}

// Client talks to one backend project.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default pooled client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// New returns a client for the project at baseURL using the anon apiKey.
func New(baseURL, apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(strings.TrimSpace(baseURL), "/"),
		apiKey:  strings.TrimSpace(apiKey),
		http:    cleanhttp.DefaultPooledClient(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// SignInWithPassword exchanges email and password for an access token.
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*Session, error) {
	body, err := json.Marshal(map[string]string{"email": email, "password": password})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/auth/v1/token?grant_type=password", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("sign in: %w", err)
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sign in: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError("sign in", resp)
	}

	var s Session
	if err := json.NewDecoder(resp.Body).Decode(&s); err != nil {
		return nil, fmt.Errorf("sign in: malformed response: %w", err)
	}
	if s.User.ID == "" {
		return nil, ErrNoUser
	}
	if s.AccessToken == "" {
		return nil, fmt.Errorf("sign in: malformed response: missing access_token")
	}
	return &s, nil
}

// DeleteJobsForUser removes every job row owned by userID and returns the
// deleted rows. The request is always filtered by user_id; an empty userID
// is rejected before any request is made.
func (c *Client) DeleteJobsForUser(ctx context.Context, accessToken, userID string) ([]jobs.Job, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrEmptyUserID
	}

	q := url.Values{"user_id": {"eq." + userID}}
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete,
		c.baseURL+"/rest/v1/"+JobsTable+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("delete jobs: %w", err)
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Prefer", "return=representation")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("delete jobs: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNoContent:
		return nil, nil
	default:
		return nil, statusError("delete jobs", resp)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("delete jobs: %w", err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil
	}

	var rows []deletedRow
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("delete jobs: malformed response: %w", err)
	}
	out := make([]jobs.Job, len(rows))
	for i, r := range rows {
		out[i] = r.job()
	}
	return out, nil
}

// deletedRow is a jobs row as returned by the REST API. Timestamps stay text
// because timestamp columns without a zone are not valid RFC 3339.
type deletedRow struct {
	ID          string      `json:"id"`
	UserID      string      `json:"user_id"`
	URL         string      `json:"url"`
	JobTitle    string      `json:"job_title"`
	CompanyName string      `json:"company_name"`
	Status      jobs.Status `json:"status"`
	Notes       string      `json:"notes"`
	CreatedAt   string      `json:"created_at"`
	UpdatedAt   string      `json:"updated_at"`
}

func (r deletedRow) job() jobs.Job {
	return jobs.Job{
		ID:          r.ID,
		UserID:      r.UserID,
		URL:         r.URL,
		JobTitle:    r.JobTitle,
		CompanyName: r.CompanyName,
		Status:      r.Status,
		Notes:       r.Notes,
		CreatedAt:   parseTimestamp(r.CreatedAt),
		UpdatedAt:   parseTimestamp(r.UpdatedAt),
	}
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999Z07",
	"2006-01-02 15:04:05.999999999",
}

// parseTimestamp reads the timestamp forms Postgres emits. Zone-less values
// are taken as UTC; anything else yields the zero time.
func parseTimestamp(s string) time.Time {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

func statusError(op string, resp *http.Response) error {
	b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return &StatusError{Op: op, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(b))}
}
