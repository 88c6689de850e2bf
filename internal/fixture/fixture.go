// Package fixture provides per-test browser sessions for the end-to-end
// suite: a plain page, an authenticated page, and the teardown that follows
// them (user-scoped data cleanup, coverage capture, browser shutdown).
//
// Teardown never fails a test. Every teardown step runs on every exit path,
// including failed and panicking tests, and its errors are only logged.
package fixture

import (
	"context"
	"fmt"
	"testing"

	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/jobtracker/e2e/internal/config"
)

// Fixtures hands out sessions configured from one Config.
type Fixtures struct {
	cfg config.Config

	// NewLogger builds the logger for a test. Defaults to zaptest.NewLogger.
	NewLogger func(t testing.TB) *zap.Logger
}

// New returns Fixtures for cfg.
func New(cfg config.Config) *Fixtures {
	return &Fixtures{
		cfg: cfg,
		NewLogger: func(t testing.TB) *zap.Logger {
			return zaptest.NewLogger(t)
		},
	}
}

// Config returns the configuration the fixtures were built with.
func (f *Fixtures) Config() config.Config {
	return f.cfg
}

// BaseURL returns the application base URL without a trailing slash.
func (f *Fixtures) BaseURL() string {
	return f.cfg.BaseURL
}

// Page opens a fresh session for t. On teardown the page's coverage is
// captured and the browser is closed.
func (f *Fixtures) Page(t testing.TB) *Session {
	t.Helper()
	logger := f.NewLogger(t)

	s, err := NewSession(f.cfg.Browser())
	if err != nil {
		t.Fatalf("failed to create browser session: %v", err)
	}

	capturer := NewCoverageCapturer(f.cfg.CoverageDir, logger)
	t.Cleanup(func() {
		var merr *multierror.Error
		merr = multierror.Append(merr, bestEffort("coverage", func() error {
			capturer.CaptureQuietly(PageCoverage{Page: s.Page()})
			return nil
		}))
		merr = multierror.Append(merr, bestEffort("close browser", s.Close))
		if err := merr.ErrorOrNil(); err != nil {
			logger.Warn("Teardown warning", zap.Error(err))
		}
	})

	return s
}

// AuthenticatedPage opens a session and logs the configured test user in.
// The test is skipped when credentials are not configured and fails when
// the login does not complete. After the test, the user's job rows are
// deleted on a best-effort basis before the page is torn down.
func (f *Fixtures) AuthenticatedPage(t testing.TB) *Session {
	t.Helper()

	creds := f.cfg.Credentials
	if !creds.Complete() {
		t.Skip(ErrMissingCredentials.Error())
	}

	s := f.Page(t)
	f.cleanupAfter(t)

	auth := NewAuthenticator(f.cfg.BaseURL)
	auth.StepTimeout = s.Config().Timeout
	if err := auth.Login(s.Page(), creds); err != nil {
		t.Fatalf("login failed: %v", err)
	}

	return s
}

// cleanupAfter registers the deletion of the test user's jobs. It runs on
// every exit path of t and only ever logs.
func (f *Fixtures) cleanupAfter(t testing.TB) {
	logger := f.NewLogger(t)
	cleaner := NewCleaner(f.cfg.Store, f.cfg.Credentials, logger)
	t.Cleanup(func() {
		if err := bestEffort("cleanup", func() error {
			cleaner.Run(context.Background())
			return nil
		}); err != nil {
			logger.Warn("Teardown warning", zap.Error(err))
		}
	})
}

// bestEffort runs fn and converts a panic into an error.
func bestEffort(name string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s panicked: %v", name, r)
		}
	}()
	if err := fn(); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}
