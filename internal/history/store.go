package history

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Message is one chat message as stored in history.
type Message struct {
	ID     int64
	Sender string
	Body   string
	SentAt time.Time
}

// Store persists chat messages to a SQLite database so that history
// survives server restarts.
type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS messages (
	id      INTEGER PRIMARY KEY AUTOINCREMENT,
	sender  TEXT NOT NULL,
	body    TEXT NOT NULL,
	sent_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// Open opens (or creates) the history database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %v", err)
	}

	// A single writer keeps SQLite happy under concurrent appends.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create history schema: %v", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Append records a message in history.
func (s *Store) Append(sender, body string) error {
	_, err := s.db.Exec(
		"INSERT INTO messages (sender, body, sent_at) VALUES (?, ?, ?)",
		sender, body, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to append message: %v", err)
	}
	return nil
}

// Recent returns up to limit most recent messages, oldest first, so they
// can be replayed to a newly connected user in order.
func (s *Store) Recent(limit int) ([]Message, error) {
	rows, err := s.db.Query(`
		SELECT id, sender, body, sent_at FROM (
			SELECT id, sender, body, sent_at
			FROM messages ORDER BY id DESC LIMIT ?
		) ORDER BY id ASC`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %v", err)
	}
	defer rows.Close()

	var messages []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.Sender, &m.Body, &m.SentAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %v", err)
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

// Count returns the total number of stored messages.
func (s *Store) Count() (int, error) {
	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM messages").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count messages: %v", err)
	}
	return count, nil
}
