// Package audit keeps an append-only SQLite journal of runs and the decision
// taken for every person in each run.
package audit

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/agentstation/custlist/pkg/constants"
	"github.com/agentstation/custlist/pkg/errors"
	"github.com/agentstation/custlist/pkg/reconcile"
)

//go:embed schema.sql
var schemaSQL string

// timeLayout is how timestamps are stored.
const timeLayout = time.RFC3339

// Journal is an open audit database.
type Journal struct {
	db *sql.DB
}

// Open creates or opens the journal at path.
func Open(path string) (*Journal, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, constants.DirPermissions); err != nil {
			return nil, errors.WrapIO("create", dir, err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.WrapResource("open", "journal", path, err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, errors.WrapResource("open", "journal", path, err)
	}

	// One writer per process.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, stmt := range []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
		schemaSQL,
	} {
		if _, err := db.Exec(stmt); err != nil {
			_ = db.Close()
			return nil, errors.WrapResource("migrate", "journal", path, err)
		}
	}
	return &Journal{db: db}, nil
}

// Close closes the database.
func (j *Journal) Close() error {
	if j == nil || j.db == nil {
		return nil
	}
	return j.db.Close()
}

// Run summarizes one committed run.
type Run struct {
	ID           string    `json:"id" yaml:"id"`
	StartedAt    time.Time `json:"started_at" yaml:"started_at"`
	FinishedAt   time.Time `json:"finished_at" yaml:"finished_at"`
	Input        string    `json:"input" yaml:"input"`
	Master       string    `json:"master" yaml:"master"`
	Overwrite    bool      `json:"overwrite" yaml:"overwrite"`
	Observations int       `json:"observations" yaml:"observations"`
	Created      int       `json:"created" yaml:"created"`
	Siblings     int       `json:"siblings" yaml:"siblings"`
	Merged       int       `json:"merged" yaml:"merged"`
	Warnings     int       `json:"warnings" yaml:"warnings"`
	NextSerial   int       `json:"next_serial" yaml:"next_serial"`
}

// Entry is one journaled decision.
type Entry struct {
	RunID   string           `json:"run_id" yaml:"run_id"`
	Seq     int              `json:"seq" yaml:"seq"`
	Action  reconcile.Action `json:"action" yaml:"action"`
	Name    string           `json:"name" yaml:"name"`
	Email   string           `json:"email" yaml:"email"`
	Serial  string           `json:"serial" yaml:"serial"`
	Related []string         `json:"related,omitempty" yaml:"related,omitempty"`
	Day     string           `json:"day" yaml:"day"`
}

// Record appends run and its decisions in one transaction.
func (j *Journal) Record(ctx context.Context, run Run, decisions []reconcile.Decision) error {
	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.WrapResource("record", "run", run.ID, err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, started_at, finished_at, input, master, overwrite,
			observations, created, siblings, merged, warnings, next_serial)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.StartedAt.UTC().Format(timeLayout), run.FinishedAt.UTC().Format(timeLayout),
		run.Input, run.Master, run.Overwrite,
		run.Observations, run.Created, run.Siblings, run.Merged, run.Warnings, run.NextSerial)
	if err != nil {
		return errors.WrapResource("record", "run", run.ID, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO decisions (run_id, seq, action, name, email, serial, related, day)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return errors.WrapResource("record", "decisions", run.ID, err)
	}
	defer func() { _ = stmt.Close() }()

	day := run.StartedAt.Format(constants.DateLayout)
	for i, d := range decisions {
		if _, err := stmt.ExecContext(ctx, run.ID, i, string(d.Action), d.Key.Name, d.Key.Email,
			d.Serial, strings.Join(d.Related, constants.SerialSeparator), day); err != nil {
			return errors.WrapResource("record", "decision", fmt.Sprintf("%s#%d", run.ID, i), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.WrapResource("commit", "journal", run.ID, err)
	}
	return nil
}

// Runs returns up to limit runs, newest first.
func (j *Journal) Runs(ctx context.Context, limit int) ([]Run, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT id, started_at, finished_at, input, master, overwrite,
			observations, created, siblings, merged, warnings, next_serial
		FROM runs ORDER BY started_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, errors.WrapResource("query", "runs", "", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Run
	for rows.Next() {
		var (
			r             Run
			started, done string
		)
		if err := rows.Scan(&r.ID, &started, &done, &r.Input, &r.Master, &r.Overwrite,
			&r.Observations, &r.Created, &r.Siblings, &r.Merged, &r.Warnings, &r.NextSerial); err != nil {
			return nil, errors.WrapResource("scan", "runs", "", err)
		}
		r.StartedAt, _ = time.Parse(timeLayout, started)
		r.FinishedAt, _ = time.Parse(timeLayout, done)
		out = append(out, r)
	}
	return out, rows.Err()
}

// History returns every journaled decision that touched serial, oldest first.
func (j *Journal) History(ctx context.Context, serial string) ([]Entry, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT d.run_id, d.seq, d.action, d.name, d.email, d.serial, d.related, d.day
		FROM decisions d JOIN runs r ON r.id = d.run_id
		WHERE d.serial = ? OR instr(',' || replace(d.related, ' ', '') || ',', ',' || ? || ',') > 0
		ORDER BY r.started_at, d.seq`, serial, serial)
	if err != nil {
		return nil, errors.WrapResource("query", "decisions", serial, err)
	}
	defer func() { _ = rows.Close() }()

	var out []Entry
	for rows.Next() {
		var (
			e       Entry
			action  string
			related string
		)
		if err := rows.Scan(&e.RunID, &e.Seq, &action, &e.Name, &e.Email, &e.Serial, &related, &e.Day); err != nil {
			return nil, errors.WrapResource("scan", "decisions", serial, err)
		}
		e.Action = reconcile.Action(action)
		if related != "" {
			e.Related = strings.Split(related, constants.SerialSeparator)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
