// internal/db/queries.go
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrSessionNotFound is returned for unknown or expired sessions.
var ErrSessionNotFound = errors.New("session not found")

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

// Queries holds the console's own SQL. The console stores no studio data:
// only operator sessions, preferences and the audit journal.
type Queries struct {
	db DBTX
}

func NewQueries(db DBTX) *Queries {
	return &Queries{db: db}
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

// dbTime normalises timestamps so stored values compare as text.
func dbTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Second)
}

type Session struct {
	TokenHash string
	Username  string
	CreatedAt time.Time
	ExpiresAt time.Time
}

const createSession = `
INSERT INTO sessions (token_hash, username, created_at, expires_at)
VALUES (?, ?, ?, ?)
`

func (q *Queries) CreateSession(ctx context.Context, s Session) error {
	_, err := q.db.ExecContext(ctx, createSession, s.TokenHash, s.Username, dbTime(s.CreatedAt), dbTime(s.ExpiresAt))
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

const getSession = `
SELECT token_hash, username, created_at, expires_at
FROM sessions
WHERE token_hash = ? AND expires_at > ?
`

// GetSession returns the session if it exists and has not expired at now.
func (q *Queries) GetSession(ctx context.Context, tokenHash string, now time.Time) (Session, error) {
	var s Session
	err := q.db.QueryRowContext(ctx, getSession, tokenHash, dbTime(now)).Scan(&s.TokenHash, &s.Username, &s.CreatedAt, &s.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, ErrSessionNotFound
	}
	if err != nil {
		return Session{}, fmt.Errorf("get session: %w", err)
	}
	return s, nil
}

const extendSession = `
UPDATE sessions SET expires_at = ? WHERE token_hash = ?
`

func (q *Queries) ExtendSession(ctx context.Context, tokenHash string, expiresAt time.Time) error {
	if _, err := q.db.ExecContext(ctx, extendSession, dbTime(expiresAt), tokenHash); err != nil {
		return fmt.Errorf("extend session: %w", err)
	}
	return nil
}

const deleteSession = `
DELETE FROM sessions WHERE token_hash = ?
`

func (q *Queries) DeleteSession(ctx context.Context, tokenHash string) error {
	if _, err := q.db.ExecContext(ctx, deleteSession, tokenHash); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

const deleteExpiredSessions = `
DELETE FROM sessions WHERE expires_at <= ?
`

func (q *Queries) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteExpiredSessions, dbTime(now))
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	return res.RowsAffected()
}

const getPreference = `
SELECT pref_value FROM preferences WHERE username = ? AND pref_key = ?
`

// GetPreference returns the stored value, or "" and false when unset.
func (q *Queries) GetPreference(ctx context.Context, username, key string) (string, bool, error) {
	var value string
	err := q.db.QueryRowContext(ctx, getPreference, username, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get preference %s: %w", key, err)
	}
	return value, true, nil
}

const setPreference = `
INSERT INTO preferences (username, pref_key, pref_value, updated_at)
VALUES (?, ?, ?, ?)
ON CONFLICT (username, pref_key) DO UPDATE SET
    pref_value = excluded.pref_value,
    updated_at = excluded.updated_at
`

func (q *Queries) SetPreference(ctx context.Context, username, key, value string) error {
	if _, err := q.db.ExecContext(ctx, setPreference, username, key, value, dbTime(time.Now())); err != nil {
		return fmt.Errorf("set preference %s: %w", key, err)
	}
	return nil
}

type AuditEntry struct {
	ID        int64
	CreatedAt time.Time
	Operator  string
	Entity    string
	RecordID  string
	Action    string
	Outcome   string
	Detail    string
}

const insertAuditEntry = `
INSERT INTO audit_log (created_at, operator, entity, record_id, action, outcome, detail)
VALUES (?, ?, ?, ?, ?, ?, ?)
`

func (q *Queries) InsertAuditEntry(ctx context.Context, e AuditEntry) (int64, error) {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	res, err := q.db.ExecContext(ctx, insertAuditEntry,
		dbTime(e.CreatedAt), e.Operator, e.Entity, e.RecordID, e.Action, e.Outcome, e.Detail)
	if err != nil {
		return 0, fmt.Errorf("insert audit entry: %w", err)
	}
	return res.LastInsertId()
}

const listAuditEntries = `
SELECT id, created_at, operator, entity, record_id, action, outcome, detail
FROM audit_log
WHERE (? = '' OR entity = ?)
ORDER BY created_at DESC, id DESC
LIMIT ?
`

// ListAuditEntries returns the newest entries first. An empty entity lists all.
func (q *Queries) ListAuditEntries(ctx context.Context, entity string, limit int) ([]AuditEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := q.db.QueryContext(ctx, listAuditEntries, entity, entity, limit)
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	defer rows.Close()

	var entries []AuditEntry
	for rows.Next() {
		var e AuditEntry
		if err := rows.Scan(&e.ID, &e.CreatedAt, &e.Operator, &e.Entity, &e.RecordID, &e.Action, &e.Outcome, &e.Detail); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	return entries, nil
}
