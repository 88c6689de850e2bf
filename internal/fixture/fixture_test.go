package fixture

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/jobtracker/e2e/internal/config"
)

func TestAuthenticatedPage_SkipsWithoutCredentials(t *testing.T) {
	f := New(config.Config{})

	var skipped, reached bool
	ok := t.Run("scenario", func(t *testing.T) {
		defer func() { skipped = t.Skipped() }()
		f.AuthenticatedPage(t)
		reached = true
	})

	assert.True(t, ok, "missing credentials must not fail the test")
	assert.True(t, skipped)
	assert.False(t, reached, "no session is handed out")
}

func TestCleanupAfter_RunsWhenTestAbortsAndNeverFails(t *testing.T) {
	var tokenCalls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenCalls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	logger, logs := observed()
	f := New(config.Config{
		Credentials: testCreds,
		Store:       config.StoreSettings{URL: srv.URL, AnonKey: "anon"},
	})
	f.NewLogger = func(testing.TB) *zap.Logger { return logger }

	ok := t.Run("scenario", func(t *testing.T) {
		f.cleanupAfter(t)
		// Stands in for a login that aborts the test body.
		t.SkipNow()
	})

	assert.True(t, ok, "cleanup failures must not fail the test")
	require.EqualValues(t, 1, tokenCalls.Load(), "cleanup ran after the body aborted")
	assert.Equal(t, 1, logs.FilterLevelExact(zapcore.WarnLevel).Len())
}

func TestCleanupAfter_DroppedConnectionIsContained(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic(http.ErrAbortHandler)
	}))
	defer srv.Close()

	f := New(config.Config{
		Credentials: testCreds,
		Store:       config.StoreSettings{URL: srv.URL, AnonKey: "anon"},
	})
	f.NewLogger = func(testing.TB) *zap.Logger { return zap.NewNop() }

	ok := t.Run("scenario", func(t *testing.T) {
		f.cleanupAfter(t)
	})
	assert.True(t, ok)
}
