package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/jobtracker/e2e/internal/jobs"
)

var (
	// ErrNotFound is returned when no job with the id exists for the user.
	ErrNotFound = errors.New("job not found")

	// ErrDuplicateURL is returned when the user already tracks the URL.
	ErrDuplicateURL = errors.New("a job with this url already exists")
)

const schema = `
CREATE TABLE IF NOT EXISTS jobs (
	id           TEXT PRIMARY KEY,
	user_id      TEXT NOT NULL,
	url          TEXT NOT NULL DEFAULT '',
	job_title    TEXT NOT NULL DEFAULT '',
	company_name TEXT NOT NULL,
	status       TEXT NOT NULL DEFAULT 'saved',
	notes        TEXT NOT NULL DEFAULT '',
	created_at   TEXT NOT NULL,
	updated_at   TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS jobs_user_id ON jobs(user_id);
`

// timeLayout is fixed width so text ordering matches time ordering.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const jobColumns = `id, user_id, url, job_title, company_name, status, notes, created_at, updated_at`

// Store keeps job rows in SQLite. Every method is scoped to one user.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// OpenStore opens an SQLite database at path (":memory:" for a private
// in-memory database) and applies the schema.
func OpenStore(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// A single connection keeps an in-memory database alive and serializes
	// writers.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db, now: func() time.Time { return time.Now().UTC() }}, nil
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanJob(row scanner) (jobs.Job, error) {
	var (
		j                    jobs.Job
		status               string
		createdAt, updatedAt string
	)
	if err := row.Scan(&j.ID, &j.UserID, &j.URL, &j.JobTitle, &j.CompanyName, &status, &j.Notes, &createdAt, &updatedAt); err != nil {
		return jobs.Job{}, err
	}
	j.Status = jobs.Status(status)
	var err error
	if j.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
		return jobs.Job{}, err
	}
	if j.UpdatedAt, err = time.Parse(timeLayout, updatedAt); err != nil {
		return jobs.Job{}, err
	}
	return j, nil
}

func queryJobs(ctx context.Context, q interface {
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
}, query string, args ...any) ([]jobs.Job, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []jobs.Job{}
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, j)
	}
	return out, rows.Err()
}

// List returns the user's jobs, newest first.
func (s *Store) List(ctx context.Context, userID string) ([]jobs.Job, error) {
	return queryJobs(ctx, s.db,
		`SELECT `+jobColumns+` FROM jobs WHERE user_id = ? ORDER BY created_at DESC`, userID)
}

// Get returns one of the user's jobs.
func (s *Store) Get(ctx context.Context, userID, id string) (jobs.Job, error) {
	j, err := scanJob(s.db.QueryRowContext(ctx,
		`SELECT `+jobColumns+` FROM jobs WHERE id = ? AND user_id = ?`, id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return jobs.Job{}, ErrNotFound
	}
	return j, err
}

// Create inserts a job owned by userID.
func (s *Store) Create(ctx context.Context, userID string, in jobs.Insert) (jobs.Job, error) {
	if err := in.Validate(); err != nil {
		return jobs.Job{}, err
	}
	status := in.Status
	if status == "" {
		status = jobs.StatusSaved
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return jobs.Job{}, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := checkURLFree(ctx, tx, userID, in.URL, ""); err != nil {
		return jobs.Job{}, err
	}

	now := s.now()
	j := jobs.Job{
		ID:          uuid.NewString(),
		UserID:      userID,
		URL:         in.URL,
		JobTitle:    in.JobTitle,
		CompanyName: in.CompanyName,
		Status:      status,
		Notes:       in.Notes,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO jobs (`+jobColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		j.ID, j.UserID, j.URL, j.JobTitle, j.CompanyName, string(j.Status), j.Notes,
		now.Format(timeLayout), now.Format(timeLayout),
	); err != nil {
		return jobs.Job{}, err
	}

	if err := tx.Commit(); err != nil {
		return jobs.Job{}, err
	}
	committed = true
	return j, nil
}

// Update applies u to one of the user's jobs.
func (s *Store) Update(ctx context.Context, userID, id string, u jobs.Update) (jobs.Job, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return jobs.Job{}, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	j, err := scanJob(tx.QueryRowContext(ctx,
		`SELECT `+jobColumns+` FROM jobs WHERE id = ? AND user_id = ?`, id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return jobs.Job{}, ErrNotFound
	}
	if err != nil {
		return jobs.Job{}, err
	}

	if err := u.Apply(&j); err != nil {
		return jobs.Job{}, err
	}
	if u.URL != nil {
		if err := checkURLFree(ctx, tx, userID, j.URL, j.ID); err != nil {
			return jobs.Job{}, err
		}
	}
	j.UpdatedAt = s.now()

	if _, err := tx.ExecContext(ctx, `
		UPDATE jobs
		SET url = ?, job_title = ?, company_name = ?, status = ?, notes = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`,
		j.URL, j.JobTitle, j.CompanyName, string(j.Status), j.Notes,
		j.UpdatedAt.Format(timeLayout), j.ID, userID,
	); err != nil {
		return jobs.Job{}, err
	}

	if err := tx.Commit(); err != nil {
		return jobs.Job{}, err
	}
	committed = true
	return j, nil
}

// Delete removes one of the user's jobs.
func (s *Store) Delete(ctx context.Context, userID, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM jobs WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteAllForUser removes every job owned by userID and returns them.
func (s *Store) DeleteAllForUser(ctx context.Context, userID string) ([]jobs.Job, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	deleted, err := queryJobs(ctx, tx,
		`SELECT `+jobColumns+` FROM jobs WHERE user_id = ? ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM jobs WHERE user_id = ?`, userID); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	return deleted, nil
}

// checkURLFree fails with ErrDuplicateURL when another job of the user
// (other than exceptID) already has url. Empty URLs never conflict.
func checkURLFree(ctx context.Context, tx *sql.Tx, userID, url, exceptID string) error {
	if url == "" {
		return nil
	}
	var exists bool
	if err := tx.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM jobs WHERE user_id = ? AND url = ? AND id <> ?)`,
		userID, url, exceptID,
	).Scan(&exists); err != nil {
		return err
	}
	if exists {
		return ErrDuplicateURL
	}
	return nil
}
