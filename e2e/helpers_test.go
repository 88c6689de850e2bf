//go:build e2e

package e2e

import (
	"strconv"
	"testing"
	"time"

	"github.com/go-rod/rod"
	"github.com/stretchr/testify/require"

	"github.com/jobtracker/e2e/internal/fixture"
)

const appTitle = "Job Application Tracker"

// openTracker returns the tracker page of a freshly logged in session.
func openTracker(t *testing.T) (*fixture.Session, *fixture.Tracker) {
	t.Helper()
	s := fx.AuthenticatedPage(t)
	return s, fixture.NewTracker(s.Page(), s.Config().Timeout)
}

// open navigates a new anonymous session to path.
func open(t *testing.T, path string) *rod.Page {
	t.Helper()
	s := fx.Page(t)
	require.NoError(t, s.Navigate(fx.BaseURL()+path))
	return s.Page()
}

func requireTitle(t *testing.T, page *rod.Page, want string, timeout time.Duration) {
	t.Helper()
	p := page.Timeout(timeout)
	defer p.CancelTimeout()

	require.NoError(t, p.WaitLoad())
	res, err := p.Eval(`() => document.title`)
	require.NoError(t, err)
	require.Equal(t, want, res.Value.Str())
}

func requireVisible(t *testing.T, page *rod.Page, selector string, timeout time.Duration) {
	t.Helper()
	p := page.Timeout(timeout)
	defer p.CancelTimeout()

	el, err := p.Element(selector)
	require.NoError(t, err, "element %s not found", selector)
	require.NoError(t, el.WaitVisible(), "element %s not visible within %s", selector, timeout)
}

// uniqueSuffix returns a millisecond timestamp for data that must not
// collide with leftovers of earlier runs.
func uniqueSuffix() string {
	return strconv.FormatInt(time.Now().UnixMilli(), 10)
}
