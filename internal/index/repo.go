package index

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

const checksumKey = "document_checksum"

// TaskRow represents a row in the tasks table. Dates are YYYY-MM-DD or
// empty; Closed keeps the full timestamp.
type TaskRow struct {
	Ordinal   int
	Line      int
	Level     int
	State     string
	Priority  string
	Title     string
	Tags      []string
	Scheduled string
	Deadline  string
	Closed    string
	Body      string
}

// SearchResult represents one search hit.
type SearchResult struct {
	Ordinal   int    `json:"ordinal"`
	State     string `json:"state"`
	Title     string `json:"title"`
	Scheduled string `json:"scheduled,omitempty"`
	Snippet   string `json:"snippet"`
}

// ReplaceTasks swaps the whole task set and records the document checksum
// it was built from, within a single transaction.
func (db *DB) ReplaceTasks(rows []TaskRow, checksum string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	if _, err := tx.Exec(`DELETE FROM tasks`); err != nil {
		return fmt.Errorf("index: clear tasks: %w", err)
	}

	if len(rows) > 0 {
		stmt, err := tx.Prepare(`
			INSERT INTO tasks (ordinal, line, level, state, priority, title, tags, scheduled, deadline, closed, body)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("index: prepare task insert: %w", err)
		}
		defer stmt.Close()
		for _, r := range rows {
			tags := r.Tags
			if tags == nil {
				tags = []string{}
			}
			tagsJSON, _ := json.Marshal(tags)
			if _, err := stmt.Exec(r.Ordinal, r.Line, r.Level, r.State, r.Priority, r.Title,
				string(tagsJSON), r.Scheduled, r.Deadline, r.Closed, r.Body); err != nil {
				return fmt.Errorf("index: insert task: %w", err)
			}
		}
	}

	// FTS replace (no-op when FTS5 tag is absent).
	if err := ftsReplace(tx, rows); err != nil {
		return err
	}

	if _, err := tx.Exec(`
		INSERT INTO meta (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, checksumKey, checksum); err != nil {
		return fmt.Errorf("index: store checksum: %w", err)
	}

	return tx.Commit()
}

// Checksum returns the checksum of the document the index was last built
// from, or empty string if it was never built.
func (db *DB) Checksum() (string, error) {
	var cs string
	err := db.conn.QueryRow(`SELECT value FROM meta WHERE key = ?`, checksumKey).Scan(&cs)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("index: checksum: %w", err)
	}
	return cs, nil
}

// Count returns the number of indexed tasks.
func (db *DB) Count() (int, error) {
	var n int
	if err := db.conn.QueryRow(`SELECT count(*) FROM tasks`).Scan(&n); err != nil {
		return 0, fmt.Errorf("index: count: %w", err)
	}
	return n, nil
}

// CountByState returns the number of indexed tasks per state keyword.
func (db *DB) CountByState() (map[string]int, error) {
	rows, err := db.conn.Query(`SELECT state, count(*) FROM tasks GROUP BY state`)
	if err != nil {
		return nil, fmt.Errorf("index: count by state: %w", err)
	}
	defer rows.Close()
	out := make(map[string]int)
	for rows.Next() {
		var (
			state string
			n     int
		)
		if err := rows.Scan(&state, &n); err != nil {
			return nil, err
		}
		out[state] = n
	}
	return out, rows.Err()
}
