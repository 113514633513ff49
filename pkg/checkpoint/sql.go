// Copyright 2025 CreatorCore Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package checkpoint

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// SQLStore persists checkpoints in SQLite or Postgres.
type SQLStore struct {
	db      *sql.DB
	dialect string
}

const createCheckpointsTableSQL = `
CREATE TABLE IF NOT EXISTS checkpoints (
    thread_id VARCHAR(255) PRIMARY KEY,
    state_json TEXT NOT NULL,
    updated_at TIMESTAMP NOT NULL
)`

// NewSQLStore opens the database and ensures the schema.
func NewSQLStore(driver, dsn string) (*SQLStore, error) {
	if dsn == "" {
		return nil, fmt.Errorf("data source is required for %s checkpoint store", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open checkpoint database: %w", err)
	}

	dialect := driver
	if driver == "sqlite3" {
		dialect = "sqlite"
		// Serialize writers; SQLite returns "database is locked" otherwise.
		db.SetMaxOpenConns(1)
	}

	s := &SQLStore{db: db, dialect: dialect}
	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLStore) initSchema() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if _, err := s.db.ExecContext(ctx, createCheckpointsTableSQL); err != nil {
		return fmt.Errorf("failed to create checkpoints table: %w", err)
	}
	return nil
}

// Put saves the state for a thread, replacing any prior checkpoint.
func (s *SQLStore) Put(ctx context.Context, threadID string, state []byte) error {
	var query string
	if s.dialect == "postgres" {
		query = `INSERT INTO checkpoints (thread_id, state_json, updated_at) VALUES ($1, $2, $3)
ON CONFLICT (thread_id) DO UPDATE SET state_json = EXCLUDED.state_json, updated_at = EXCLUDED.updated_at`
	} else {
		query = `INSERT INTO checkpoints (thread_id, state_json, updated_at) VALUES (?, ?, ?)
ON CONFLICT (thread_id) DO UPDATE SET state_json = excluded.state_json, updated_at = excluded.updated_at`
	}

	if _, err := s.db.ExecContext(ctx, query, threadID, string(state), time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to save checkpoint for thread %s: %w", threadID, err)
	}
	return nil
}

// Get returns the latest state for a thread.
func (s *SQLStore) Get(ctx context.Context, threadID string) ([]byte, error) {
	query := `SELECT state_json FROM checkpoints WHERE thread_id = ?`
	if s.dialect == "postgres" {
		query = `SELECT state_json FROM checkpoints WHERE thread_id = $1`
	}

	var stateJSON string
	err := s.db.QueryRowContext(ctx, query, threadID).Scan(&stateJSON)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load checkpoint for thread %s: %w", threadID, err)
	}
	return []byte(stateJSON), nil
}

// Delete removes a thread's checkpoint.
func (s *SQLStore) Delete(ctx context.Context, threadID string) error {
	query := `DELETE FROM checkpoints WHERE thread_id = ?`
	if s.dialect == "postgres" {
		query = `DELETE FROM checkpoints WHERE thread_id = $1`
	}
	if _, err := s.db.ExecContext(ctx, query, threadID); err != nil {
		return fmt.Errorf("failed to delete checkpoint for thread %s: %w", threadID, err)
	}
	return nil
}

// Close closes the database.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

var _ Store = (*SQLStore)(nil)
