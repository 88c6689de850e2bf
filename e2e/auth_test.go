//go:build e2e

package e2e

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jobtracker/e2e/internal/fixture"
)

func TestAuth_LoginPageLoads(t *testing.T) {
	page := open(t, fixture.LoginPath)

	requireTitle(t, page, appTitle, 10*time.Second)
	requireVisible(t, page, fixture.EmailInputSelector, 5*time.Second)
	requireVisible(t, page, fixture.PasswordInputSelector, 5*time.Second)
	requireVisible(t, page, fixture.SubmitButtonSelector, 5*time.Second)
}

func TestAuth_SignupPageLoads(t *testing.T) {
	page := open(t, fixture.SignupPath)

	requireTitle(t, page, appTitle, 10*time.Second)
	requireVisible(t, page, fixture.EmailInputSelector, 5*time.Second)
	requireVisible(t, page, `input[id="password"]`, 5*time.Second)
	requireVisible(t, page, `input[id="confirm-password"]`, 5*time.Second)
}

func TestAuth_UnauthenticatedRedirect(t *testing.T) {
	page := open(t, fixture.HomePath)

	err := fixture.WaitForURL(page, fx.BaseURL()+fixture.LoginPath, 5*time.Second)
	require.NoError(t, err, "unauthenticated visit should land on the login page")
}

func TestAuth_Login(t *testing.T) {
	s := fx.AuthenticatedPage(t)

	info, err := s.Page().Info()
	require.NoError(t, err)
	require.Equal(t, fx.BaseURL()+fixture.HomePath, info.URL)
}
