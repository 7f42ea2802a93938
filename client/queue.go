// Package client is the device-side capture SDK: a durable queue of
// mutations that could not be sent immediately, and a dispatcher that
// replays them once connectivity returns.
package client

import (
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite"
)

const queueSchema = `
CREATE TABLE IF NOT EXISTS pending_mutations (
    local_id    INTEGER PRIMARY KEY AUTOINCREMENT,
    url         TEXT NOT NULL,
    method      TEXT NOT NULL,
    payload     BLOB NOT NULL,
    enqueued_at TEXT NOT NULL DEFAULT (datetime('now'))
);
`

// offlineCreatable lists the collection paths whose payloads must carry a
// clientTempId before they may be queued. Without the key the server
// could not deduplicate the replay.
var offlineCreatable = map[string]bool{
	"/api/v1/incidents":   true,
	"/api/v1/inspections": true,
}

// PendingMutation is one stored, not-yet-confirmed request. EnqueuedAt
// is diagnostic only; replay order comes from LocalID.
type PendingMutation struct {
	LocalID    int64  `json:"localId"`
	URL        string `json:"url"`
	Method     string `json:"method"`
	Payload    []byte `json:"payload"`
	EnqueuedAt string `json:"enqueuedAt"`
}

// Queue is the durable local store of pending mutations. It survives
// process restarts; entries are removed only after the server confirms
// success.
type Queue struct {
	db *sql.DB
}

// OpenQueue opens (or creates) the queue database at path.
func OpenQueue(path string) (*Queue, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open queue db: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(queueSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate queue db: %w", err)
	}
	return &Queue{db: db}, nil
}

// Enqueue durably stores one mutation and returns its local id. Any
// storage error propagates to the caller: a capture that silently fails
// to enqueue would be data loss.
func (q *Queue) Enqueue(url, method string, payload []byte) (int64, error) {
	if offlineCreatable[url] {
		var probe struct {
			ClientTempID string `json:"clientTempId"`
		}
		if err := json.Unmarshal(payload, &probe); err != nil {
			return 0, fmt.Errorf("enqueue %s: payload is not valid JSON: %w", url, err)
		}
		if probe.ClientTempID == "" {
			return 0, fmt.Errorf("enqueue %s: payload is missing clientTempId", url)
		}
	}

	res, err := q.db.Exec(
		`INSERT INTO pending_mutations (url, method, payload) VALUES (?, ?, ?)`,
		url, method, payload)
	if err != nil {
		return 0, fmt.Errorf("enqueue %s: %w", url, err)
	}
	return res.LastInsertId()
}

// Pending returns a snapshot of all stored mutations in insertion
// order. It never removes anything; removal is explicit.
func (q *Queue) Pending() ([]PendingMutation, error) {
	rows, err := q.db.Query(
		`SELECT local_id, url, method, payload, enqueued_at FROM pending_mutations ORDER BY local_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pending []PendingMutation
	for rows.Next() {
		var m PendingMutation
		if err := rows.Scan(&m.LocalID, &m.URL, &m.Method, &m.Payload, &m.EnqueuedAt); err != nil {
			return nil, err
		}
		pending = append(pending, m)
	}
	return pending, rows.Err()
}

// Remove deletes one mutation. Removing an absent id is a no-op.
func (q *Queue) Remove(localID int64) error {
	_, err := q.db.Exec(`DELETE FROM pending_mutations WHERE local_id = ?`, localID)
	return err
}

// Clear empties the queue. Only for explicit user-initiated resets.
func (q *Queue) Clear() error {
	_, err := q.db.Exec(`DELETE FROM pending_mutations`)
	return err
}

// Len returns the number of stored mutations.
func (q *Queue) Len() (int, error) {
	var n int
	err := q.db.QueryRow(`SELECT COUNT(*) FROM pending_mutations`).Scan(&n)
	return n, err
}

// Close closes the underlying database.
func (q *Queue) Close() error {
	return q.db.Close()
}
