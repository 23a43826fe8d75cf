// Package journal records native calls to SQLite so an input session can be
// inspected or replayed against another native target.
package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	_ "github.com/glebarez/sqlite"
	"github.com/webigeo/inputbridge/internal/core"
)

const schema = `
CREATE TABLE IF NOT EXISTS calls (
	id      INTEGER PRIMARY KEY AUTOINCREMENT,
	session TEXT    NOT NULL,
	seq     INTEGER NOT NULL,
	name    TEXT    NOT NULL,
	args    TEXT    NOT NULL,
	at      INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS calls_session_seq ON calls (session, seq);
`

// Journal is a call log stored in one SQLite database.
type Journal struct {
	db *sql.DB
}

// Entry is one recorded call.
type Entry struct {
	Session string
	Seq     int64
	Name    string
	Args    []any
	At      time.Time
}

// Open opens or creates the journal at path. ":memory:" gives a private
// in-memory journal.
func Open(path string) (*Journal, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening journal %s: %w", path, err)
	}
	if path == ":memory:" {
		// Every pooled connection would otherwise see its own empty database.
		db.SetMaxOpenConns(1)
	} else {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			log.Printf("inputbridge: journal %s: enabling WAL: %v", path, err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating journal schema: %w", err)
	}
	return &Journal{db: db}, nil
}

// Close closes the database.
func (j *Journal) Close() error {
	return j.db.Close()
}

// Append stores one call.
func (j *Journal) Append(ctx context.Context, session string, seq int64, name string, args []any) error {
	wire, err := core.EncodeArgs(args)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", name, err)
	}
	data, err := json.Marshal(wire)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", name, err)
	}
	_, err = j.db.ExecContext(ctx,
		"INSERT INTO calls (session, seq, name, args, at) VALUES (?, ?, ?, ?, ?)",
		session, seq, name, string(data), time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("recording %s: %w", name, err)
	}
	return nil
}

// Entries returns the calls of session in recording order.
func (j *Journal) Entries(ctx context.Context, session string) ([]Entry, error) {
	rows, err := j.db.QueryContext(ctx,
		"SELECT seq, name, args, at FROM calls WHERE session = ? ORDER BY seq, id", session)
	if err != nil {
		return nil, fmt.Errorf("querying session %s: %w", session, err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e    = Entry{Session: session}
			args string
			at   int64
		)
		if err := rows.Scan(&e.Seq, &e.Name, &args, &at); err != nil {
			return nil, fmt.Errorf("scanning call: %w", err)
		}
		var wire []core.Arg
		if err := json.Unmarshal([]byte(args), &wire); err != nil {
			return nil, fmt.Errorf("decoding call %d: %w", e.Seq, err)
		}
		if e.Args, err = core.DecodeArgs(wire); err != nil {
			return nil, fmt.Errorf("decoding call %d: %w", e.Seq, err)
		}
		e.At = time.UnixMilli(at)
		out = append(out, e)
	}
	return out, rows.Err()
}

// Sessions lists recorded sessions, oldest first.
func (j *Journal) Sessions(ctx context.Context) ([]string, error) {
	rows, err := j.db.QueryContext(ctx,
		"SELECT session FROM calls GROUP BY session ORDER BY MIN(id)")
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Replay issues the calls of session against native in order and stops at
// the first failure. It returns the number of calls that succeeded.
func (j *Journal) Replay(ctx context.Context, session string, native core.Native) (int, error) {
	entries, err := j.Entries(ctx, session)
	if err != nil {
		return 0, err
	}
	for i, e := range entries {
		if err := native.Call(ctx, e.Name, e.Args...); err != nil {
			return i, fmt.Errorf("replaying call %d (%s): %w", e.Seq, e.Name, err)
		}
	}
	return len(entries), nil
}

// NewSession returns a session name derived from the current time.
func NewSession() string {
	return time.Now().UTC().Format("20060102T150405.000000")
}

// Recorder is a core.Native that journals every call before forwarding it.
type Recorder struct {
	j       *Journal
	session string
	next    core.Native

	mu  sync.Mutex
	seq int64
}

var _ core.Native = (*Recorder)(nil)

// Recorder returns a recording Native for session. next may be nil, in
// which case calls are only recorded.
func (j *Journal) Recorder(session string, next core.Native) *Recorder {
	return &Recorder{j: j, session: session, next: next}
}

// Session returns the session name calls are recorded under.
func (r *Recorder) Session() string { return r.session }

// Call records the call, then forwards it. A recording failure is logged
// and never keeps the call from reaching next.
func (r *Recorder) Call(ctx context.Context, name string, args ...any) error {
	r.mu.Lock()
	r.seq++
	seq := r.seq
	r.mu.Unlock()

	if err := r.j.Append(ctx, r.session, seq, name, args); err != nil {
		log.Printf("inputbridge: journal %s: %v", r.session, err)
	}
	if r.next == nil {
		return nil
	}
	return r.next.Call(ctx, name, args...)
}
