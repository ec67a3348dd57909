/*
Package sqlite provides a SQLite-backed snapshot store.

PURPOSE:
  An alternative to the JSON file store for deployments that prefer a
  single database file. It implements the same leave.SnapshotStore
  contract: Save replaces the complete contents of the three collections,
  Load reads them back, Backup copies the database aside.

SNAPSHOT SEMANTICS:
  The engine persists whole snapshots, so Save runs one SQL transaction
  that deletes and re-inserts every row. Readers see the previous
  snapshot until the transaction commits.

TABLES:
  users:          account records, balance map stored as JSON
  leave_requests: requests with an explicit position column so insertion
                  order survives the round trip
  holidays:       date + description pairs

WAL MODE:
  The database is opened with WAL so the Backup VACUUM and concurrent
  reads do not block a writer.
*/
package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/warp/leave-engine/leave"
)

// Store implements leave.SnapshotStore over a SQLite database file.
type Store struct {
	db   *sql.DB
	path string
}

// New opens (or creates) the database at path and migrates the schema.
// Use ":memory:" for an in-memory database.
func New(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	store := &Store{db: db, path: path}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		username TEXT PRIMARY KEY,
		password_hash TEXT NOT NULL,
		email TEXT NOT NULL,
		department TEXT NOT NULL,
		is_admin INTEGER NOT NULL DEFAULT 0,
		balance_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS leave_requests (
		id TEXT PRIMARY KEY,
		pos INTEGER NOT NULL,
		username TEXT NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		leave_type TEXT NOT NULL,
		reason TEXT NOT NULL,
		status TEXT NOT NULL,
		admin_comment TEXT NOT NULL DEFAULT '',
		requested_at TEXT NOT NULL,
		decided_at TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_requests_username
		ON leave_requests(username);
	CREATE INDEX IF NOT EXISTS idx_requests_status
		ON leave_requests(status);

	CREATE TABLE IF NOT EXISTS holidays (
		date TEXT NOT NULL,
		description TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Load reads the complete snapshot from the database.
func (s *Store) Load() (*leave.Snapshot, error) {
	snap := leave.EmptySnapshot()

	rows, err := s.db.Query(`SELECT username, password_hash, email, department, is_admin, balance_json FROM users`)
	if err != nil {
		return nil, fmt.Errorf("load users: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var u leave.User
		var isAdmin int
		var balanceJSON string
		if err := rows.Scan(&u.Username, &u.PasswordHash, &u.Email, &u.Department, &isAdmin, &balanceJSON); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		u.IsAdmin = isAdmin != 0
		if err := json.Unmarshal([]byte(balanceJSON), &u.Balance); err != nil {
			return nil, fmt.Errorf("decode balance for %s: %w", u.Username, err)
		}
		snap.Users[u.Username] = u
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load users: %w", err)
	}

	reqRows, err := s.db.Query(`SELECT id, username, start_date, end_date, leave_type, reason, status, admin_comment, requested_at, decided_at
		FROM leave_requests ORDER BY pos`)
	if err != nil {
		return nil, fmt.Errorf("load requests: %w", err)
	}
	defer reqRows.Close()
	for reqRows.Next() {
		var r leave.Request
		var id, start, end, code, status, requestedAt string
		var decidedAt sql.NullString
		if err := reqRows.Scan(&id, &r.Username, &start, &end, &code, &r.Reason, &status, &r.AdminComment, &requestedAt, &decidedAt); err != nil {
			return nil, fmt.Errorf("scan request: %w", err)
		}
		r.ID = leave.RequestID(id)
		r.LeaveType = leave.TypeCode(code)
		r.Status = leave.Status(status)
		if r.StartDate, err = leave.ParseDate(start); err != nil {
			return nil, err
		}
		if r.EndDate, err = leave.ParseDate(end); err != nil {
			return nil, err
		}
		if r.RequestedAt, err = time.Parse(time.RFC3339Nano, requestedAt); err != nil {
			return nil, fmt.Errorf("parse requested_at: %w", err)
		}
		if decidedAt.Valid {
			t, err := time.Parse(time.RFC3339Nano, decidedAt.String)
			if err != nil {
				return nil, fmt.Errorf("parse decided_at: %w", err)
			}
			r.DecidedAt = &t
		}
		snap.Requests = append(snap.Requests, r)
	}
	if err := reqRows.Err(); err != nil {
		return nil, fmt.Errorf("load requests: %w", err)
	}

	holRows, err := s.db.Query(`SELECT date, description FROM holidays ORDER BY date`)
	if err != nil {
		return nil, fmt.Errorf("load holidays: %w", err)
	}
	defer holRows.Close()
	for holRows.Next() {
		var h leave.Holiday
		var date string
		if err := holRows.Scan(&date, &h.Description); err != nil {
			return nil, fmt.Errorf("scan holiday: %w", err)
		}
		if h.Date, err = leave.ParseDate(date); err != nil {
			return nil, err
		}
		snap.Holidays = append(snap.Holidays, h)
	}
	if err := holRows.Err(); err != nil {
		return nil, fmt.Errorf("load holidays: %w", err)
	}

	return snap, nil
}

// Save replaces the database contents with the snapshot in one transaction.
func (s *Store) Save(snap *leave.Snapshot) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"users", "leave_requests", "holidays"} {
		if _, err := tx.Exec(`DELETE FROM ` + table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	for _, u := range snap.Users {
		balanceJSON, err := json.Marshal(u.Balance)
		if err != nil {
			return fmt.Errorf("encode balance for %s: %w", u.Username, err)
		}
		isAdmin := 0
		if u.IsAdmin {
			isAdmin = 1
		}
		if _, err := tx.Exec(
			`INSERT INTO users (username, password_hash, email, department, is_admin, balance_json) VALUES (?, ?, ?, ?, ?, ?)`,
			u.Username, u.PasswordHash, u.Email, u.Department, isAdmin, string(balanceJSON),
		); err != nil {
			return fmt.Errorf("insert user %s: %w", u.Username, err)
		}
	}

	for pos, r := range snap.Requests {
		var decidedAt any
		if r.DecidedAt != nil {
			decidedAt = r.DecidedAt.Format(time.RFC3339Nano)
		}
		if _, err := tx.Exec(
			`INSERT INTO leave_requests (id, pos, username, start_date, end_date, leave_type, reason, status, admin_comment, requested_at, decided_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			string(r.ID), pos, r.Username, r.StartDate.String(), r.EndDate.String(),
			string(r.LeaveType), r.Reason, string(r.Status), r.AdminComment,
			r.RequestedAt.Format(time.RFC3339Nano), decidedAt,
		); err != nil {
			return fmt.Errorf("insert request %s: %w", r.ID, err)
		}
	}

	for _, h := range snap.Holidays {
		if _, err := tx.Exec(
			`INSERT INTO holidays (date, description) VALUES (?, ?)`,
			h.Date.String(), h.Description,
		); err != nil {
			return fmt.Errorf("insert holiday %s: %w", h.Date, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save: %w", err)
	}
	return nil
}

// Backup writes a timestamped copy of the database next to it. In-memory
// databases have nothing on disk to copy and return nil.
func (s *Store) Backup() error {
	if s.path == ":memory:" {
		return nil
	}
	dir := filepath.Join(filepath.Dir(s.path), "backups")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create backup dir: %w", err)
	}

	stamp := time.Now().Format("20060102_150405")
	dst := filepath.Join(dir, fmt.Sprintf("%s_%s.bak", filepath.Base(s.path), stamp))
	if _, err := s.db.Exec(`VACUUM INTO ?`, dst); err != nil {
		return fmt.Errorf("backup database: %w", err)
	}
	return nil
}
