package fixture

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-rod/rod"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// coverageScript returns the instrumentation counters as a JSON string, or
// null when the page was not instrumented.
const coverageScript = `() => {
	if (typeof window.__coverage__ === 'undefined' || window.__coverage__ === null) {
		return null;
	}
	return JSON.stringify(window.__coverage__);
}`

// CoverageSource yields the raw instrumentation snapshot of a page. ok is
// false when the page carries no instrumentation.
type CoverageSource interface {
	Coverage() (raw []byte, ok bool, err error)
}

// PageCoverage reads window.__coverage__ from a Rod page.
type PageCoverage struct {
	Page *rod.Page
}

// Coverage implements CoverageSource.
func (p PageCoverage) Coverage() ([]byte, bool, error) {
	if p.Page == nil {
		return nil, false, nil
	}
	res, err := p.Page.Eval(coverageScript)
	if err != nil {
		return nil, false, fmt.Errorf("failed to read coverage: %w", err)
	}
	if res.Value.Nil() {
		return nil, false, nil
	}
	return []byte(res.Value.Str()), true, nil
}

// CoverageCapturer writes instrumentation snapshots into Dir, one file per
// call, named coverage-{uuid}.json.
type CoverageCapturer struct {
	Dir    string
	logger *zap.Logger
}

// NewCoverageCapturer returns a capturer writing into dir.
func NewCoverageCapturer(dir string, logger *zap.Logger) *CoverageCapturer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CoverageCapturer{Dir: dir, logger: logger.Named("coverage")}
}

// Capture persists the snapshot of src. It returns an empty path and no
// error when src is not instrumented.
func (c *CoverageCapturer) Capture(src CoverageSource) (string, error) {
	raw, ok, err := src.Coverage()
	if err != nil {
		return "", err
	}
	if !ok {
		return "", nil
	}
	if !json.Valid(raw) {
		return "", fmt.Errorf("coverage snapshot is not valid JSON")
	}

	if err := os.MkdirAll(c.Dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create coverage dir: %w", err)
	}
	path := filepath.Join(c.Dir, "coverage-"+uuid.NewString()+".json")
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return "", fmt.Errorf("failed to write coverage: %w", err)
	}
	return path, nil
}

// CaptureQuietly is Capture with every failure, including panics, logged
// and swallowed. It is safe to call from test teardown.
func (c *CoverageCapturer) CaptureQuietly(src CoverageSource) (path string) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Warn("Coverage capture panicked", zap.Any("panic", r))
			path = ""
		}
	}()

	path, err := c.Capture(src)
	if err != nil {
		c.logger.Warn("Coverage capture failed", zap.Error(err))
		return ""
	}
	if path != "" {
		c.logger.Debug("Coverage saved", zap.String("path", path))
	}
	return path
}
