// Package jobs defines the job application record shared by the cleanup
// client and the stand-in application, plus the list operations the tracker
// UI performs on it (filter, sort, per-status counts, HTML export).
package jobs

import (
	"fmt"
	"time"
)

// Status is the pipeline stage of a job application.
type Status string

const (
	StatusSaved        Status = "saved"
	StatusApplied      Status = "applied"
	StatusInterviewing Status = "interviewing"
	StatusOffered      Status = "offered"
	StatusRejected     Status = "rejected"
)

// Statuses lists every status in display order.
var Statuses = []Status{
	StatusSaved,
	StatusApplied,
	StatusInterviewing,
	StatusOffered,
	StatusRejected,
}

var statusLabels = map[Status]string{
	StatusSaved:        "Saved",
	StatusApplied:      "Applied",
	StatusInterviewing: "Interviewing",
	StatusOffered:      "Offered",
	StatusRejected:     "Rejected",
}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	_, ok := statusLabels[s]
	return ok
}

// Label returns the human readable name shown in the UI.
func (s Status) Label() string {
	if l, ok := statusLabels[s]; ok {
		return l
	}
	return string(s)
}

// ParseStatus converts a raw value into a Status. The empty string maps to
// StatusSaved, matching the default of the add-job form.
func ParseStatus(raw string) (Status, error) {
	if raw == "" {
		return StatusSaved, nil
	}
	s := Status(raw)
	if !s.Valid() {
		return "", fmt.Errorf("unknown job status %q", raw)
	}
	return s, nil
}

// Job is a row of the jobs table.
type Job struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	URL         string    `json:"url"`
	JobTitle    string    `json:"job_title"`
	CompanyName string    `json:"company_name"`
	Status      Status    `json:"status"`
	Notes       string    `json:"notes"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Insert is the payload accepted when creating a job.
type Insert struct {
	URL         string `json:"url,omitempty"`
	JobTitle    string `json:"job_title"`
	CompanyName string `json:"company_name"`
	Status      Status `json:"status,omitempty"`
	Notes       string `json:"notes,omitempty"`
}

// Validate checks the fields the tracker form requires before submitting.
func (in Insert) Validate() error {
	if in.URL == "" || in.CompanyName == "" {
		return fmt.Errorf("url and company name are required")
	}
	if in.Status != "" && !in.Status.Valid() {
		return fmt.Errorf("unknown job status %q", in.Status)
	}
	return nil
}

// Update is a partial update; nil fields are left untouched.
type Update struct {
	URL         *string `json:"url,omitempty"`
	JobTitle    *string `json:"job_title,omitempty"`
	CompanyName *string `json:"company_name,omitempty"`
	Status      *Status `json:"status,omitempty"`
	Notes       *string `json:"notes,omitempty"`
}

// Apply copies the set fields of u onto j.
func (u Update) Apply(j *Job) error {
	if u.Status != nil && !u.Status.Valid() {
		return fmt.Errorf("unknown job status %q", *u.Status)
	}
	if u.URL != nil {
		j.URL = *u.URL
	}
	if u.JobTitle != nil {
		j.JobTitle = *u.JobTitle
	}
	if u.CompanyName != nil {
		j.CompanyName = *u.CompanyName
	}
	if u.Status != nil {
		j.Status = *u.Status
	}
	if u.Notes != nil {
		j.Notes = *u.Notes
	}
	return nil
}
