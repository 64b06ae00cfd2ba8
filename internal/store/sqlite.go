package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/amishk599/jobhunter/internal/model"

	_ "modernc.org/sqlite"
)

var (
	_ model.PostingStore     = (*SQLiteStore)(nil)
	_ model.ApplicationStore = (*SQLiteStore)(nil)
)

const schema = `
CREATE TABLE IF NOT EXISTS postings (
	job_id      TEXT PRIMARY KEY,
	title       TEXT NOT NULL,
	company     TEXT NOT NULL DEFAULT '',
	location    TEXT NOT NULL DEFAULT '',
	salary      TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT '',
	match_score INTEGER NOT NULL DEFAULT 0,
	url         TEXT NOT NULL DEFAULT '',
	source      TEXT NOT NULL DEFAULT '',
	scraped_at  DATETIME,
	first_seen  DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS preferences (
	user_id    TEXT NOT NULL,
	job_id     TEXT NOT NULL,
	kind       TEXT NOT NULL,
	created_at DATETIME NOT NULL,
	PRIMARY KEY (user_id, job_id)
);

CREATE TABLE IF NOT EXISTS applications (
	id                  TEXT PRIMARY KEY,
	user_id             TEXT NOT NULL,
	job_id              TEXT NOT NULL,
	position            TEXT NOT NULL DEFAULT '',
	company             TEXT NOT NULL DEFAULT '',
	status              TEXT NOT NULL,
	created_at          DATETIME NOT NULL,
	application_sent_at DATETIME,
	last_status_update  DATETIME,
	detail              TEXT
);
CREATE INDEX IF NOT EXISTS idx_applications_user_status ON applications (user_id, status);

CREATE TABLE IF NOT EXISTS inbox_messages (
	id               TEXT PRIMARY KEY,
	application_id   TEXT NOT NULL,
	user_id          TEXT NOT NULL,
	from_addr        TEXT NOT NULL,
	to_addr          TEXT NOT NULL,
	subject          TEXT NOT NULL,
	body             TEXT NOT NULL,
	received_at      DATETIME NOT NULL,
	status_extracted TEXT NOT NULL,
	direction        TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_inbox_user_received ON inbox_messages (user_id, received_at);
`

// SQLiteStore persists postings, preferences, applications and inbox
// messages in a single SQLite file. Every mutating call is its own write, so
// state is durable as soon as the call returns.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath and ensures
// the tables exist.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}
	// A single connection keeps writes serialized and avoids SQLITE_BUSY
	// between the CLI and the delayed simulation goroutine.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging sqlite db: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating tables: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SavePostings inserts postings whose job_id is not stored yet and returns
// those. Existing rows are left untouched: a posting is immutable once scraped.
func (s *SQLiteStore) SavePostings(ctx context.Context, postings []model.JobPosting) ([]model.JobPosting, error) {
	if len(postings) == 0 {
		return nil, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin save postings: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT OR IGNORE INTO postings
		(job_id, title, company, location, salary, description, match_score, url, source, scraped_at, first_seen)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return nil, fmt.Errorf("prepare save postings: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	var inserted []model.JobPosting
	for _, p := range postings {
		res, err := stmt.ExecContext(ctx, p.ID, p.Title, p.Company, p.Location, p.Salary,
			p.Description, p.MatchScore, p.URL, p.Source, nullTime(timePtr(p.ScrapedAt)), now)
		if err != nil {
			return nil, fmt.Errorf("saving posting %s: %w", p.ID, err)
		}
		if n, _ := res.RowsAffected(); n == 1 {
			inserted = append(inserted, p)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit save postings: %w", err)
	}
	return inserted, nil
}

const postingColumns = `job_id, title, company, location, salary, description, match_score, url, source, scraped_at`

// GetPosting returns a *model.NotFoundError for an unknown job_id.
func (s *SQLiteStore) GetPosting(ctx context.Context, jobID string) (*model.JobPosting, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+postingColumns+` FROM postings WHERE job_id = ?`, jobID)
	p, err := scanPosting(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &model.NotFoundError{Kind: "posting", ID: jobID}
	}
	if err != nil {
		return nil, fmt.Errorf("loading posting %s: %w", jobID, err)
	}
	return p, nil
}

// ListPostings returns all postings by descending match score, newest scrape first on ties.
func (s *SQLiteStore) ListPostings(ctx context.Context) ([]model.JobPosting, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+postingColumns+` FROM postings
		ORDER BY match_score DESC, scraped_at DESC, job_id`)
	if err != nil {
		return nil, fmt.Errorf("listing postings: %w", err)
	}
	defer rows.Close()

	var out []model.JobPosting
	for rows.Next() {
		p, err := scanPosting(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning posting: %w", err)
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

// SetPreference records a saved or disliked reaction. A job has at most one
// reaction per user; the latest wins.
func (s *SQLiteStore) SetPreference(ctx context.Context, userID, jobID string, kind model.PreferenceKind) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO preferences (user_id, job_id, kind, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (user_id, job_id) DO UPDATE SET kind = excluded.kind, created_at = excluded.created_at`,
		userID, jobID, string(kind), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("setting %s preference for %s: %w", kind, jobID, err)
	}
	return nil
}

// ListPreferences returns job ids with the given reaction, most recent first.
func (s *SQLiteStore) ListPreferences(ctx context.Context, userID string, kind model.PreferenceKind) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT job_id FROM preferences
		WHERE user_id = ? AND kind = ? ORDER BY created_at DESC, job_id`, userID, string(kind))
	if err != nil {
		return nil, fmt.Errorf("listing %s preferences: %w", kind, err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning preference: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *SQLiteStore) DeletePreference(ctx context.Context, userID, jobID string, kind model.PreferenceKind) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM preferences WHERE user_id = ? AND job_id = ? AND kind = ?`,
		userID, jobID, string(kind))
	if err != nil {
		return fmt.Errorf("deleting %s preference for %s: %w", kind, jobID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &model.NotFoundError{Kind: string(kind) + " posting", ID: jobID}
	}
	return nil
}

// Cleanup deletes postings first seen before the cutoff that no application references.
func (s *SQLiteStore) Cleanup(ctx context.Context, olderThan time.Duration) error {
	cutoff := time.Now().UTC().Add(-olderThan)
	_, err := s.db.ExecContext(ctx, `DELETE FROM postings WHERE first_seen < ?
		AND job_id NOT IN (SELECT job_id FROM applications)`, cutoff)
	if err != nil {
		return fmt.Errorf("cleaning up postings older than %v: %w", olderThan, err)
	}
	return nil
}

// CreateApplication inserts a new application row.
func (s *SQLiteStore) CreateApplication(ctx context.Context, app *model.Application) error {
	detail, err := encodeDetail(app.Detail)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO applications
		(id, user_id, job_id, position, company, status, created_at, application_sent_at, last_status_update, detail)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		app.ID, app.UserID, app.JobID, app.Position, app.Company, string(app.Status),
		app.CreatedAt.UTC(), nullTime(app.ApplicationSentAt), nullTime(app.LastStatusUpdate), detail)
	if err != nil {
		return fmt.Errorf("creating application %s: %w", app.ID, err)
	}
	return nil
}

const applicationColumns = `id, user_id, job_id, position, company, status, created_at, application_sent_at, last_status_update, detail`

// GetApplication returns a *model.NotFoundError for an unknown id.
func (s *SQLiteStore) GetApplication(ctx context.Context, id string) (*model.Application, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+applicationColumns+` FROM applications WHERE id = ?`, id)
	app, err := scanApplication(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &model.NotFoundError{Kind: "application", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("loading application %s: %w", id, err)
	}
	return app, nil
}

// UpdateApplication overwrites the mutable columns of an existing application.
func (s *SQLiteStore) UpdateApplication(ctx context.Context, app *model.Application) error {
	return updateApplication(ctx, s.db, app)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func updateApplication(ctx context.Context, db execer, app *model.Application) error {
	detail, err := encodeDetail(app.Detail)
	if err != nil {
		return err
	}
	res, err := db.ExecContext(ctx, `UPDATE applications
		SET status = ?, application_sent_at = ?, last_status_update = ?, detail = ?
		WHERE id = ?`,
		string(app.Status), nullTime(app.ApplicationSentAt), nullTime(app.LastStatusUpdate), detail, app.ID)
	if err != nil {
		return fmt.Errorf("updating application %s: %w", app.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &model.NotFoundError{Kind: "application", ID: app.ID}
	}
	return nil
}

// DeleteApplication removes an application row.
func (s *SQLiteStore) DeleteApplication(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM applications WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting application %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &model.NotFoundError{Kind: "application", ID: id}
	}
	return nil
}

// ListApplications returns the user's applications newest first, optionally
// restricted to the given statuses.
func (s *SQLiteStore) ListApplications(ctx context.Context, userID string, statuses ...model.Status) ([]model.Application, error) {
	query := `SELECT ` + applicationColumns + ` FROM applications WHERE user_id = ?`
	args := []any{userID}
	if len(statuses) > 0 {
		query += ` AND status IN (?` + strings.Repeat(", ?", len(statuses)-1) + `)`
		for _, st := range statuses {
			args = append(args, string(st))
		}
	}
	query += ` ORDER BY created_at DESC, rowid DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing applications: %w", err)
	}
	defer rows.Close()

	var out []model.Application
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning application: %w", err)
		}
		out = append(out, *app)
	}
	return out, rows.Err()
}

// RecordResponse updates the application and appends its inbox message in
// one transaction. Messages are never updated afterwards.
func (s *SQLiteStore) RecordResponse(ctx context.Context, app *model.Application, msg *model.InboxMessage) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning response for %s: %w", app.ID, err)
	}
	defer tx.Rollback()

	var current string
	err = tx.QueryRowContext(ctx, `SELECT status FROM applications WHERE id = ?`, app.ID).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return &model.NotFoundError{Kind: "application", ID: app.ID}
	}
	if err != nil {
		return fmt.Errorf("loading application %s: %w", app.ID, err)
	}
	if model.Status(current) != model.StatusApplied {
		return &model.InvalidStateError{Op: "record response for", ID: app.ID, Status: model.Status(current)}
	}

	if err := updateApplication(ctx, tx, app); err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `INSERT INTO inbox_messages
		(id, application_id, user_id, from_addr, to_addr, subject, body, received_at, status_extracted, direction)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		msg.ID, msg.ApplicationID, msg.UserID, msg.From, msg.To, msg.Subject, msg.Body,
		msg.ReceivedAt.UTC(), string(msg.StatusExtracted), string(msg.Direction))
	if err != nil {
		return fmt.Errorf("creating inbox message for %s: %w", msg.ApplicationID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing response for %s: %w", app.ID, err)
	}
	return nil
}

// ListInboxMessages returns the user's messages, most recent first.
func (s *SQLiteStore) ListInboxMessages(ctx context.Context, userID string) ([]model.InboxMessage, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, application_id, user_id, from_addr, to_addr, subject, body,
		received_at, status_extracted, direction
		FROM inbox_messages WHERE user_id = ? ORDER BY received_at DESC, rowid DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("listing inbox: %w", err)
	}
	defer rows.Close()

	var out []model.InboxMessage
	for rows.Next() {
		var (
			m         model.InboxMessage
			status    string
			direction string
		)
		if err := rows.Scan(&m.ID, &m.ApplicationID, &m.UserID, &m.From, &m.To, &m.Subject, &m.Body,
			&m.ReceivedAt, &status, &direction); err != nil {
			return nil, fmt.Errorf("scanning inbox message: %w", err)
		}
		m.StatusExtracted = model.Status(status)
		m.Direction = model.Direction(direction)
		out = append(out, m)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPosting(row scanner) (*model.JobPosting, error) {
	var (
		p         model.JobPosting
		scrapedAt sql.NullTime
	)
	if err := row.Scan(&p.ID, &p.Title, &p.Company, &p.Location, &p.Salary, &p.Description,
		&p.MatchScore, &p.URL, &p.Source, &scrapedAt); err != nil {
		return nil, err
	}
	if scrapedAt.Valid {
		p.ScrapedAt = scrapedAt.Time
	}
	return &p, nil
}

func scanApplication(row scanner) (*model.Application, error) {
	var (
		app      model.Application
		status   string
		sentAt   sql.NullTime
		updateAt sql.NullTime
		detail   sql.NullString
	)
	if err := row.Scan(&app.ID, &app.UserID, &app.JobID, &app.Position, &app.Company, &status,
		&app.CreatedAt, &sentAt, &updateAt, &detail); err != nil {
		return nil, err
	}
	app.Status = model.Status(status)
	if sentAt.Valid {
		t := sentAt.Time
		app.ApplicationSentAt = &t
	}
	if updateAt.Valid {
		t := updateAt.Time
		app.LastStatusUpdate = &t
	}
	if detail.Valid && detail.String != "" {
		var d model.StatusDetail
		if err := json.Unmarshal([]byte(detail.String), &d); err != nil {
			return nil, fmt.Errorf("decoding detail of %s: %w", app.ID, err)
		}
		app.Detail = &d
	}
	return &app, nil
}

func encodeDetail(d *model.StatusDetail) (sql.NullString, error) {
	if d == nil {
		return sql.NullString{}, nil
	}
	b, err := json.Marshal(d)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("encoding status detail: %w", err)
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil || t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

func timePtr(t time.Time) *time.Time { return &t }
