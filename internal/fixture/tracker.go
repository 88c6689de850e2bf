package fixture

import (
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"

	"github.com/jobtracker/e2e/internal/jobs"
)

// Selectors of the tracker page.
const (
	URLInputSelector       = `input[placeholder*="https://example.com"]`
	TitleInputSelector     = `input[placeholder*="QA Automation Engineer"]`
	CompanyInputSelector   = `input[placeholder*="Acme Inc"]`
	StatusSelectSelector   = `select#status`
	NotesInputSelector     = `textarea[placeholder*="notes"]`
	SearchInputSelector    = `input[placeholder*="Search jobs"]`
	ClearSearchSelector    = `button[aria-label="Clear search"]`
	CardSelector           = `.bg-white`
	CardTitleSelector      = `.text-lg.font-semibold`
	addJobButtonText       = "Add Job Application"
	exportButtonText       = "Export HTML"
	statusFilterOptionText = "All Status"
)

const pollInterval = 100 * time.Millisecond

// ErrWaitTimeout is returned when a polled UI condition does not hold in time.
var ErrWaitTimeout = errors.New("timed out waiting for condition")

// JobInput is the content typed into the add-job form. Empty fields are left
// untouched.
type JobInput struct {
	URL     string
	Title   string
	Company string
	Status  jobs.Status
	Notes   string
}

// Tracker drives the job tracker page.
type Tracker struct {
	page    *rod.Page
	timeout time.Duration
}

// NewTracker wraps page. timeout bounds element lookups.
func NewTracker(page *rod.Page, timeout time.Duration) *Tracker {
	return &Tracker{page: page, timeout: timeout}
}

// Page returns the underlying page.
func (tr *Tracker) Page() *rod.Page {
	return tr.page
}

func (tr *Tracker) p() *rod.Page {
	return tr.page.Timeout(tr.timeout)
}

// find looks up selector (optionally filtered by the text regex) within the
// lookup timeout and rebinds the element to the page's own context, so it
// stays usable after the lookup timeout is released.
func (tr *Tracker) find(selector, regex string) (*rod.Element, error) {
	p := tr.p()
	defer p.CancelTimeout()

	var (
		el  *rod.Element
		err error
	)
	if regex == "" {
		el, err = p.Element(selector)
	} else {
		el, err = p.ElementR(selector, regex)
	}
	if err != nil {
		return nil, err
	}
	return el.Context(tr.page.GetContext()), nil
}

// text returns a regex matching s literally.
func text(s string) string {
	return regexp.QuoteMeta(s)
}

// exact returns a regex matching an element whose whole text is s.
func exact(s string) string {
	return `^\s*` + regexp.QuoteMeta(s) + `\s*$`
}

// FillJobForm types in into the add-job form.
func (tr *Tracker) FillJobForm(in JobInput) error {
	p := tr.p()
	defer p.CancelTimeout()

	fields := []struct{ selector, value string }{
		{URLInputSelector, in.URL},
		{TitleInputSelector, in.Title},
		{CompanyInputSelector, in.Company},
		{NotesInputSelector, in.Notes},
	}
	for _, f := range fields {
		if f.value == "" {
			continue
		}
		if err := Fill(p, f.selector, f.value); err != nil {
			return err
		}
	}
	if in.Status != "" {
		if err := tr.selectValue(p, StatusSelectSelector, "", string(in.Status)); err != nil {
			return err
		}
	}
	return nil
}

// SubmitButton returns the add-job submit button.
func (tr *Tracker) SubmitButton() (*rod.Element, error) {
	el, err := tr.find("button", text(addJobButtonText))
	if err != nil {
		return nil, fmt.Errorf("failed to find submit button: %w", err)
	}
	return el, nil
}

// SubmitEnabled reports whether the add-job button accepts clicks.
func (tr *Tracker) SubmitEnabled() (bool, error) {
	el, err := tr.SubmitButton()
	if err != nil {
		return false, err
	}
	disabled, err := el.Disabled()
	if err != nil {
		return false, err
	}
	return !disabled, nil
}

// WaitSubmitEnabled polls until the submit button's enabled state is want.
func (tr *Tracker) WaitSubmitEnabled(want bool, timeout time.Duration) error {
	return waitFor(timeout, func() (bool, error) {
		got, err := tr.SubmitEnabled()
		return got == want, err
	}, fmt.Sprintf("submit enabled=%v", want))
}

// Submit clicks the add-job button.
func (tr *Tracker) Submit() error {
	el, err := tr.SubmitButton()
	if err != nil {
		return err
	}
	return el.Click(proto.InputMouseButtonLeft, 1)
}

// AddJob fills the form and submits it.
func (tr *Tracker) AddJob(in JobInput) error {
	if err := tr.FillJobForm(in); err != nil {
		return err
	}
	return tr.Submit()
}

// Card returns the first job card containing s.
func (tr *Tracker) Card(s string) (*rod.Element, error) {
	el, err := tr.find(CardSelector, text(s))
	if err != nil {
		return nil, fmt.Errorf("failed to find card %q: %w", s, err)
	}
	return el, nil
}

// WaitVisible polls until an element matching selector whose text contains
// s is visible.
func (tr *Tracker) WaitVisible(selector, s string, timeout time.Duration) error {
	return waitFor(timeout, func() (bool, error) {
		return tr.visible(selector, s)
	}, fmt.Sprintf("%s containing %q visible", selector, s))
}

// WaitHidden polls until no visible element matching selector contains s.
func (tr *Tracker) WaitHidden(selector, s string, timeout time.Duration) error {
	return waitFor(timeout, func() (bool, error) {
		v, err := tr.visible(selector, s)
		return !v, err
	}, fmt.Sprintf("%s containing %q hidden", selector, s))
}

// WaitCard waits for a job card containing s.
func (tr *Tracker) WaitCard(s string, timeout time.Duration) error {
	return tr.WaitVisible(CardSelector, s, timeout)
}

// WaitCardGone waits until no job card contains s.
func (tr *Tracker) WaitCardGone(s string, timeout time.Duration) error {
	return tr.WaitHidden(CardSelector, s, timeout)
}

// WaitCardTitle waits for a card heading containing title.
func (tr *Tracker) WaitCardTitle(title string, timeout time.Duration) error {
	return tr.WaitVisible(CardTitleSelector, title, timeout)
}

func (tr *Tracker) visible(selector, s string) (bool, error) {
	has, el, err := tr.page.HasR(selector, text(s))
	if err != nil || !has {
		return false, err
	}
	return el.Visible()
}

// Edit fields of the card edit form, by label.
const (
	EditFieldTitle   = "Job Title"
	EditFieldCompany = "Company"
	EditFieldURL     = "URL"
	EditFieldNotes   = "Notes"
)

// Edit opens the edit form of the card containing current, replaces the
// field labelled field with value and saves.
func (tr *Tracker) Edit(current, field, value string) error {
	card, err := tr.Card(current)
	if err != nil {
		return err
	}
	if err := tr.clickIn(card, "Edit"); err != nil {
		return err
	}

	p := tr.p()
	defer p.CancelTimeout()

	label, err := p.ElementR("label", exact(field))
	if err != nil {
		return fmt.Errorf("edit form did not open: %w", err)
	}
	wrap, err := label.Parent()
	if err != nil {
		return err
	}
	inputs, err := wrap.Elements("input, textarea")
	if err != nil {
		return err
	}
	if inputs.Empty() {
		return fmt.Errorf("edit form has no %s input", field)
	}
	if err := fillElement(inputs.Last(), value); err != nil {
		return err
	}

	save, err := p.ElementR("button", exact("Save"))
	if err != nil {
		return fmt.Errorf("failed to find save button: %w", err)
	}
	return save.Click(proto.InputMouseButtonLeft, 1)
}

// Delete removes the card containing s through the confirm step.
func (tr *Tracker) Delete(s string) error {
	card, err := tr.Card(s)
	if err != nil {
		return err
	}
	if err := tr.clickIn(card, "Delete"); err != nil {
		return err
	}
	return tr.clickIn(card, "Confirm")
}

func (tr *Tracker) clickIn(el *rod.Element, label string) error {
	e := el.Timeout(tr.timeout)
	defer e.CancelTimeout()

	btn, err := e.ElementR("button", exact(label))
	if err != nil {
		return fmt.Errorf("failed to find %s button: %w", label, err)
	}
	return btn.Click(proto.InputMouseButtonLeft, 1)
}

// Search types q into the search box.
func (tr *Tracker) Search(q string) error {
	p := tr.p()
	defer p.CancelTimeout()
	return Fill(p, SearchInputSelector, q)
}

// ClearSearch clicks the clear button of the search box.
func (tr *Tracker) ClearSearch() error {
	p := tr.p()
	defer p.CancelTimeout()
	return Click(p, ClearSearchSelector)
}

// SearchValue returns the current content of the search box.
func (tr *Tracker) SearchValue() (string, error) {
	p := tr.p()
	defer p.CancelTimeout()
	el, err := p.Element(SearchInputSelector)
	if err != nil {
		return "", err
	}
	v, err := el.Property("value")
	if err != nil {
		return "", err
	}
	return v.Str(), nil
}

// FilterStatus picks s in the status filter; the empty status selects all.
func (tr *Tracker) FilterStatus(s jobs.Status) error {
	value := string(s)
	if value == "" {
		value = "all"
	}
	p := tr.p()
	defer p.CancelTimeout()
	return tr.selectValue(p, "select", statusFilterOptionText, value)
}

// selectValue chooses the option with value inside the select matched by
// selector (and containing contains, when set).
func (tr *Tracker) selectValue(p *rod.Page, selector, contains, value string) error {
	var (
		el  *rod.Element
		err error
	)
	if contains != "" {
		el, err = p.ElementR(selector, text(contains))
	} else {
		el, err = p.Element(selector)
	}
	if err != nil {
		return fmt.Errorf("failed to find %s: %w", selector, err)
	}
	opt := fmt.Sprintf(`option[value=%q]`, value)
	if err := el.Select([]string{opt}, true, rod.SelectorTypeCSSSector); err != nil {
		return fmt.Errorf("failed to select %s: %w", value, err)
	}
	return nil
}

// Export clicks the export button in the context owning the page and waits
// for the resulting download. It returns the suggested file name.
func (tr *Tracker) Export(ctx *rod.Browser, dir string, timeout time.Duration) (string, error) {
	b := ctx.Timeout(timeout)
	defer b.CancelTimeout()

	wait := b.WaitDownload(dir)

	p := tr.p()
	defer p.CancelTimeout()
	btn, err := p.ElementR("button", text(exportButtonText))
	if err != nil {
		return "", fmt.Errorf("failed to find export button: %w", err)
	}
	if err := btn.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return "", err
	}

	info := wait()
	if info == nil || info.SuggestedFilename == "" {
		return "", fmt.Errorf("%w: download (waited %v)", ErrWaitTimeout, timeout)
	}
	return info.SuggestedFilename, nil
}

// waitFor polls cond until it reports true or timeout elapses.
func waitFor(timeout time.Duration, cond func() (bool, error), what string) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		ok, err := cond()
		if err != nil {
			return fmt.Errorf("failed to check %s: %w", what, err)
		}
		if ok {
			return nil
		}
		time.Sleep(pollInterval)
	}
	return fmt.Errorf("%w: %s (waited %v)", ErrWaitTimeout, what, timeout)
}
