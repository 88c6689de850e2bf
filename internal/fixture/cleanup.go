package fixture

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jobtracker/e2e/internal/config"
	"github.com/jobtracker/e2e/internal/jobs"
	"github.com/jobtracker/e2e/internal/supabase"
)

// DefaultCleanupTimeout bounds each network call made during cleanup.
const DefaultCleanupTimeout = 10 * time.Second

// StoreClient is the backend surface the Cleaner needs.
type StoreClient interface {
	SignInWithPassword(ctx context.Context, email, password string) (*supabase.Session, error)
	DeleteJobsForUser(ctx context.Context, accessToken, userID string) ([]jobs.Job, error)
}

// CleanupResult reports what a cleanup pass did. It is informational only;
// callers must not fail a test on it.
type CleanupResult struct {
	Skipped bool   // store or credentials not configured
	UserID  string // user the delete was scoped to
	Deleted int    // rows removed
	Err     error  // first failure, already logged
}

// Cleaner removes the job rows owned by the test user. It signs in out of
// band, so it works even when the browser session is broken, and scopes the
// delete to the user id returned by that sign-in.
type Cleaner struct {
	client  StoreClient
	creds   config.Credentials
	logger  *zap.Logger
	timeout time.Duration
}

// NewCleaner returns a Cleaner for the configured backend. A Cleaner built
// from incomplete store settings skips silently.
func NewCleaner(store config.StoreSettings, creds config.Credentials, logger *zap.Logger) *Cleaner {
	var client StoreClient
	if store.Complete() {
		client = supabase.New(store.URL, store.AnonKey)
	}
	return NewCleanerWithClient(client, creds, logger)
}

// NewCleanerWithClient returns a Cleaner using client. A nil client skips.
func NewCleanerWithClient(client StoreClient, creds config.Credentials, logger *zap.Logger) *Cleaner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cleaner{
		client:  client,
		creds:   creds,
		logger:  logger.Named("cleanup"),
		timeout: DefaultCleanupTimeout,
	}
}

// WithTimeout sets the per-call timeout.
func (c *Cleaner) WithTimeout(d time.Duration) *Cleaner {
	c.timeout = d
	return c
}

// Run performs one best-effort cleanup pass. It never panics and never
// returns an error to the caller; failures are logged as warnings and
// reported in the result.
func (c *Cleaner) Run(ctx context.Context) (res CleanupResult) {
	defer func() {
		if r := recover(); r != nil {
			res.Err = fmt.Errorf("cleanup panicked: %v", r)
			c.logger.Warn("Cleanup warning", zap.Error(res.Err))
		}
	}()

	if c.client == nil {
		c.logger.Debug("Cleanup skipped: store not configured")
		return CleanupResult{Skipped: true}
	}
	if !c.creds.Complete() {
		c.logger.Debug("Cleanup skipped: credentials not configured")
		return CleanupResult{Skipped: true}
	}

	session, err := c.signIn(ctx)
	if err != nil {
		if errors.Is(err, supabase.ErrNoUser) {
			c.logger.Warn("Cleanup warning: no user found in auth response, skipping cleanup")
		} else {
			c.logger.Warn("Cleanup warning: sign in failed", zap.String("user", c.creds.Email), zap.Error(err))
		}
		return CleanupResult{Err: err}
	}

	userID := session.User.ID
	res.UserID = userID
	c.logger.Info("Cleanup: preparing to delete jobs",
		zap.String("user", c.creds.Email), zap.String("user_id", userID))

	deleted, err := c.deleteJobs(ctx, session.AccessToken, userID)
	if err != nil {
		c.logger.Warn("Cleanup error during deletion",
			zap.String("user_id", userID), zap.Error(err))
		res.Err = err
		return res
	}

	res.Deleted = len(deleted)
	c.logger.Info("Cleanup: deleted jobs",
		zap.String("user", c.creds.Email), zap.Int("deleted", res.Deleted))
	return res
}

func (c *Cleaner) signIn(ctx context.Context) (*supabase.Session, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	return c.client.SignInWithPassword(ctx, c.creds.Email, c.creds.Password)
}

func (c *Cleaner) deleteJobs(ctx context.Context, token, userID string) ([]jobs.Job, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	return c.client.DeleteJobsForUser(ctx, token, userID)
}
