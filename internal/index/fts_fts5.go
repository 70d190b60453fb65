//go:build sqlite_fts5

package index

import (
	"database/sql"
	"fmt"
	"strings"
)

func initFTS(conn *sql.DB) error {
	_, err := conn.Exec(`
		CREATE VIRTUAL TABLE IF NOT EXISTS tasks_fts USING fts5(
			ordinal UNINDEXED,
			title,
			body,
			tags,
			tokenize = 'unicode61 remove_diacritics 2'
		);
	`)
	return err
}

func ftsReplace(tx *sql.Tx, rows []TaskRow) error {
	if _, err := tx.Exec(`DELETE FROM tasks_fts`); err != nil {
		return fmt.Errorf("index: clear fts: %w", err)
	}
	stmt, err := tx.Prepare(`INSERT INTO tasks_fts (ordinal, title, body, tags) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("index: prepare fts insert: %w", err)
	}
	defer stmt.Close()
	for _, r := range rows {
		if _, err := stmt.Exec(r.Ordinal, r.Title, r.Body, strings.Join(r.Tags, " ")); err != nil {
			return fmt.Errorf("index: insert fts: %w", err)
		}
	}
	return nil
}

// Search performs an FTS5 full-text search and returns matching tasks with snippets.
func (db *DB) Search(query string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.conn.Query(`
		SELECT t.ordinal, t.state, t.title, t.scheduled,
		       snippet(tasks_fts, 2, '<b>', '</b>', '...', 64)
		FROM tasks_fts
		JOIN tasks t ON t.ordinal = tasks_fts.ordinal
		WHERE tasks_fts MATCH ?
		ORDER BY rank
		LIMIT ?
	`, query, limit)
	if err != nil {
		return nil, fmt.Errorf("index: search: %w", err)
	}
	defer rows.Close()

	out := []SearchResult{}
	for rows.Next() {
		var r SearchResult
		if err := rows.Scan(&r.Ordinal, &r.State, &r.Title, &r.Scheduled, &r.Snippet); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
