//go:build e2e

// Package e2e provides end-to-end browser tests for the job tracker.
//
// These tests are isolated from the standard test suite via build tags.
// They require a Chrome browser (auto-downloaded by Rod if not present)
// and are intended for CI pipelines or explicit local testing.
//
// Running E2E tests against the local stand-in app:
//
//	go test -tags=e2e ./e2e/...
//
// Running them against a deployed app (configure .env.local or the
// environment with BASE_URL, TEST_USER_EMAIL, TEST_USER_PASSWORD,
// NEXT_PUBLIC_SUPABASE_URL and NEXT_PUBLIC_SUPABASE_ANON_KEY):
//
//	BASE_URL=https://tracker.example.com go test -tags=e2e ./e2e/...
//
// Running all tests except E2E:
//
//	go test ./...
//
// E2E tests use:
//   - Rod for browser automation (Chrome DevTools Protocol)
//   - internal/fixture for sessions, login, cleanup and coverage
//   - cmd/fakeapp/server as the target when BASE_URL is unset
//
// Test isolation:
// Each test launches its own browser with a fresh incognito context.
// Authenticated tests share the test user and delete all of that user's
// jobs on teardown, so they do not call t.Parallel.
package e2e
