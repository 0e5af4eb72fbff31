package store

import (
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"agenda-whatsapp/internal/models"
)

//go:embed migrations_sqlite.sql
var sqliteMigrations string

// SQLiteStore persists conversation state in a single-file SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (and creates, if needed) the database at path and runs
// the migrations. The parent directory is created when missing.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?_foreign_keys=on", path))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err := db.Exec(sqliteMigrations); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Get(userID string) (*models.ConversationState, error) {
	row := s.db.QueryRow(
		`SELECT user_id, account_number, step, scheduled_date, last_updated FROM conversations WHERE user_id = ?`,
		userID,
	)

	var st models.ConversationState
	var account, step, date sql.NullString
	var updatedMs sql.NullInt64
	if err := row.Scan(&st.UserID, &account, &step, &date, &updatedMs); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read conversation %s: %w", userID, err)
	}
	st.AccountID = account.String
	st.Step = models.Step(step.String)
	st.ScheduledDate = date.String
	if updatedMs.Valid {
		st.LastUpdated = time.UnixMilli(updatedMs.Int64)
	}
	return &st, nil
}

func (s *SQLiteStore) UpsertIdentity(userID, accountID string) error {
	_, err := s.db.Exec(
		`INSERT INTO conversations (user_id, account_number, last_updated) VALUES (?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET
		   account_number = COALESCE(conversations.account_number, excluded.account_number),
		   last_updated = excluded.last_updated`,
		userID, accountID, time.Now().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert identity for %s: %w", userID, err)
	}
	return nil
}

func (s *SQLiteStore) SetStep(userID string, step models.Step) error {
	_, err := s.db.Exec(
		`UPDATE conversations SET step = NULLIF(?, ''), last_updated = ? WHERE user_id = ?`,
		string(step), time.Now().UnixMilli(), userID,
	)
	if err != nil {
		return fmt.Errorf("failed to set step for %s: %w", userID, err)
	}
	return nil
}

func (s *SQLiteStore) SetStepAndDate(userID string, step models.Step, dateLabel string) error {
	_, err := s.db.Exec(
		`UPDATE conversations SET step = NULLIF(?, ''), scheduled_date = NULLIF(?, ''), last_updated = ? WHERE user_id = ?`,
		string(step), dateLabel, time.Now().UnixMilli(), userID,
	)
	if err != nil {
		return fmt.Errorf("failed to set step and date for %s: %w", userID, err)
	}
	return nil
}

func (s *SQLiteStore) ClearPending(userID string) error {
	_, err := s.db.Exec(
		`UPDATE conversations SET step = NULL, scheduled_date = NULL, last_updated = ? WHERE user_id = ?`,
		time.Now().UnixMilli(), userID,
	)
	if err != nil {
		return fmt.Errorf("failed to clear pending state for %s: %w", userID, err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
