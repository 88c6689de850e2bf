// session.go provides the browser session used by every scenario.
// It wraps Rod to launch Chrome and open one isolated context per test.
package fixture

import (
	"errors"
	"fmt"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/hashicorp/go-multierror"

	"github.com/jobtracker/e2e/internal/config"
)

// Session is a browser process, an incognito context and a single page.
type Session struct {
	browser *rod.Browser
	context *rod.Browser
	page    *rod.Page
	cfg     config.BrowserConfig
}

// NewSession launches Chrome with the given configuration and opens a blank
// page inside a fresh incognito context. The context is configured with:
//   - A fixed viewport (default 1920x1080)
//   - Certificate errors ignored (self-signed dev servers)
//   - No sandbox (for container compatibility)
func NewSession(cfg config.BrowserConfig) (*Session, error) {
	l := launcher.New().
		Headless(cfg.Headless).
		Set("no-sandbox").
		Set("disable-gpu").
		Set("disable-dev-shm-usage")
	if cfg.IgnoreCertErrors {
		l = l.Set("ignore-certificate-errors")
	}

	url, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch Chrome: %w", err)
	}

	browser := rod.New().ControlURL(url)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("failed to connect to Chrome: %w", err)
	}

	s := &Session{browser: browser, cfg: cfg}
	if err := s.open(); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

func (s *Session) open() error {
	ctx, err := s.browser.Incognito()
	if err != nil {
		return fmt.Errorf("failed to create browser context: %w", err)
	}
	s.context = ctx

	page, err := ctx.Page(proto.TargetCreateTarget{})
	if err != nil {
		return fmt.Errorf("failed to open page: %w", err)
	}
	s.page = page

	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             s.cfg.ViewportWidth,
		Height:            s.cfg.ViewportHeight,
		DeviceScaleFactor: 1,
	}); err != nil {
		return fmt.Errorf("failed to set viewport: %w", err)
	}

	if s.cfg.IgnoreCertErrors {
		if err := (proto.SecuritySetIgnoreCertificateErrors{Ignore: true}).Call(page); err != nil {
			return fmt.Errorf("failed to ignore certificate errors: %w", err)
		}
	}
	return nil
}

// Page returns the session page.
func (s *Session) Page() *rod.Page {
	return s.page
}

// Context returns the incognito browser context that owns the page. Use it
// for context-wide operations such as waiting for downloads.
func (s *Session) Context() *rod.Browser {
	return s.context
}

// Config returns the configuration the session was opened with.
func (s *Session) Config() config.BrowserConfig {
	return s.cfg
}

// Navigate opens url on the session page, bounded by the default timeout.
func (s *Session) Navigate(url string) error {
	if s.page == nil {
		return errors.New("no page open")
	}
	p := s.page.Timeout(s.cfg.Timeout)
	defer p.CancelTimeout()

	if err := p.Navigate(url); err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	return nil
}

// Close disposes the context and shuts the browser down.
// Always call this (via defer or t.Cleanup) to prevent orphaned Chrome processes.
func (s *Session) Close() error {
	var merr *multierror.Error
	if s.context != nil {
		if err := s.context.Close(); err != nil {
			merr = multierror.Append(merr, fmt.Errorf("close context: %w", err))
		}
	}
	if s.browser != nil {
		if err := s.browser.Close(); err != nil {
			merr = multierror.Append(merr, fmt.Errorf("close browser: %w", err))
		}
	}
	return merr.ErrorOrNil()
}
