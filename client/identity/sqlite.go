package identity

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"github.com/olafr/tafl-client/pkg/log"
)

const (
	keyActiveGame  = "active_game"
	keyClientToken = "client_token"
)

// SQLiteStore is a Store backed by a local sqlite database, so a
// restarted client resumes the same game with the same identity.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %v", err)
	}

	q := `
	CREATE TABLE IF NOT EXISTS client_state (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`
	if _, err := db.Exec(q); err != nil {
		return nil, fmt.Errorf("failed to create client_state table: %v", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) ActiveGame() (string, bool) {
	return s.get(keyActiveGame)
}

func (s *SQLiteStore) SetActiveGame(id string) {
	s.set(keyActiveGame, id)
}

func (s *SQLiteStore) ClientToken() (string, bool) {
	return s.get(keyClientToken)
}

func (s *SQLiteStore) SetClientToken(token string) {
	s.set(keyClientToken, token)
}

func (s *SQLiteStore) get(key string) (string, bool) {
	q := `
	SELECT value FROM client_state WHERE key = ?;
	`
	var value string
	if err := s.db.QueryRow(q, key).Scan(&value); err != nil {
		if err != sql.ErrNoRows {
			log.Warn("Failed to read %s from store: %v", key, err)
		}
		return "", false
	}
	return value, true
}

func (s *SQLiteStore) set(key, value string) {
	q := `
	INSERT OR REPLACE INTO client_state (key, value)
	VALUES (?, ?);
	`
	if _, err := s.db.Exec(q, key, value); err != nil {
		log.Warn("Failed to write %s to store: %v", key, err)
	}
}
