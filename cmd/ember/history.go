package main

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// History persists REPL input lines to a local SQLite database so they
// survive across sessions. It is pure CLI convenience: nothing in
// internal/vm depends on it, and file-mode execution never opens one.
type History struct {
	db *sql.DB
}

// openHistory opens (creating if necessary) ~/.ember_history.db. A failure
// to determine the home directory or open the database is returned to the
// caller, who treats history as optional.
func openHistory() (*History, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("locating home directory: %w", err)
	}
	path := filepath.Join(home, ".ember_history.db")

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}

	const schema = `
CREATE TABLE IF NOT EXISTS history (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	line TEXT NOT NULL,
	submitted_at DATETIME DEFAULT CURRENT_TIMESTAMP
)`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}

	return &History{db: db}, nil
}

// Append records one submitted REPL line.
func (h *History) Append(line string) error {
	_, err := h.db.Exec("INSERT INTO history (line) VALUES (?)", line)
	return err
}

// Recent returns the last n submitted lines, oldest first.
func (h *History) Recent(n int) ([]string, error) {
	rows, err := h.db.Query("SELECT line FROM history ORDER BY id DESC LIMIT ?", n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []string
	for rows.Next() {
		var line string
		if err := rows.Scan(&line); err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	for i, j := 0, len(lines)-1; i < j; i, j = i+1, j-1 {
		lines[i], lines[j] = lines[j], lines[i]
	}
	return lines, rows.Err()
}

func (h *History) Close() error {
	return h.db.Close()
}
