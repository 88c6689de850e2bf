package fixture

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"

	"github.com/jobtracker/e2e/internal/config"
)

// Routes of the application under test.
const (
	LoginPath  = "/auth/login"
	SignupPath = "/auth/signup"
	HomePath   = "/"
)

// Login form selectors.
const (
	EmailInputSelector    = `input[type="email"]`
	PasswordInputSelector = `input[type="password"]`
	SubmitButtonSelector  = `button[type="submit"]`
)

// ErrLoginTimeout is returned when the app does not redirect to the landing
// route after submitting the login form.
var ErrLoginTimeout = errors.New("timed out waiting for login redirect")

// ErrURLTimeout is returned when a page does not reach the expected URL.
var ErrURLTimeout = errors.New("timed out waiting for URL")

// ErrMissingCredentials is returned when the test user is not configured.
var ErrMissingCredentials = errors.New(config.EnvUserEmail + " and " + config.EnvUserPassword + " must be set")

const (
	defaultRedirectTimeout = 10 * time.Second
	urlPollInterval        = 100 * time.Millisecond
)

// Authenticator drives the login form of the application under test.
type Authenticator struct {
	BaseURL         string
	StepTimeout     time.Duration // bound for each element lookup (default: 30s)
	RedirectTimeout time.Duration // bound for the post-login redirect (default: 10s)
}

// NewAuthenticator returns an Authenticator for the app at baseURL.
func NewAuthenticator(baseURL string) *Authenticator {
	return &Authenticator{
		BaseURL:         strings.TrimSuffix(baseURL, "/"),
		StepTimeout:     config.DefaultBrowserConfig().Timeout,
		RedirectTimeout: defaultRedirectTimeout,
	}
}

// Login navigates page to the login route, submits creds and waits for the
// redirect to the authenticated landing route.
func (a *Authenticator) Login(page *rod.Page, creds config.Credentials) error {
	if !creds.Complete() {
		return ErrMissingCredentials
	}

	p := page.Timeout(a.StepTimeout)
	defer p.CancelTimeout()

	if err := p.Navigate(a.BaseURL + LoginPath); err != nil {
		return fmt.Errorf("failed to open login page: %w", err)
	}
	if err := Fill(p, EmailInputSelector, creds.Email); err != nil {
		return err
	}
	if err := Fill(p, PasswordInputSelector, creds.Password); err != nil {
		return err
	}
	if err := Click(p, SubmitButtonSelector); err != nil {
		return err
	}

	if err := WaitForURL(page, a.BaseURL+HomePath, a.RedirectTimeout); err != nil {
		if errors.Is(err, ErrURLTimeout) {
			return fmt.Errorf("%w: %w", ErrLoginTimeout, err)
		}
		return err
	}
	return nil
}

// Fill replaces the value of the element matched by selector with value.
func Fill(page *rod.Page, selector, value string) error {
	el, err := page.Element(selector)
	if err != nil {
		return fmt.Errorf("failed to find %s: %w", selector, err)
	}
	return fillElement(el, value)
}

func fillElement(el *rod.Element, value string) error {
	if err := el.SelectAllText(); err != nil {
		return fmt.Errorf("failed to select text: %w", err)
	}
	if value == "" {
		if _, err := el.Eval(`() => {
			this.value = '';
			this.dispatchEvent(new Event('input', { bubbles: true }));
		}`); err != nil {
			return fmt.Errorf("failed to clear input: %w", err)
		}
		return nil
	}
	if err := el.Input(value); err != nil {
		return fmt.Errorf("failed to input text: %w", err)
	}
	return nil
}

// Click clicks the element matched by selector.
func Click(page *rod.Page, selector string) error {
	el, err := page.Element(selector)
	if err != nil {
		return fmt.Errorf("failed to find %s: %w", selector, err)
	}
	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("failed to click %s: %w", selector, err)
	}
	return nil
}

// WaitForURL polls the page location until it equals want or timeout
// elapses. The error wraps ErrURLTimeout and names the last seen URL.
func WaitForURL(page *rod.Page, want string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	last := ""

	for time.Now().Before(deadline) {
		info, err := page.Info()
		if err != nil {
			return fmt.Errorf("failed to read page URL: %w", err)
		}
		last = info.URL
		if last == want {
			return nil
		}
		time.Sleep(urlPollInterval)
	}

	return fmt.Errorf("%w: want %s, at %s (waited %v)", ErrURLTimeout, want, last, timeout)
}
