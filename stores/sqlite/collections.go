package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"dnastudio/core"

	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"
)

type sqliteStore struct {
	db *sql.DB
}

// NewStore opens (or creates) the database and its collections table.
func NewStore(dataSourceName string) (*sqliteStore, error) {
	db, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// A single connection serialises read-modify-write in Append.
	db.SetMaxOpenConns(1)

	stmt := `
	CREATE TABLE IF NOT EXISTS collections (
		name TEXT PRIMARY KEY,
		data BLOB NOT NULL,
		updated_at DATETIME NOT NULL
	);`
	if _, err := db.Exec(stmt); err != nil {
		db.Close()
		return nil, fmt.Errorf("create collections table: %w", err)
	}
	return &sqliteStore{db: db}, nil
}

func (s *sqliteStore) Close() error {
	return s.db.Close()
}

func (s *sqliteStore) Load(ctx context.Context, name string) ([]byte, error) {
	if err := core.ValidateCollectionName(name); err != nil {
		return nil, err
	}
	log := logrus.WithField("collection", name)

	var data []byte
	err := s.db.QueryRowContext(ctx, "SELECT data FROM collections WHERE name = ?", name).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("Collection not found")
			return nil, fmt.Errorf("collection %s: %w", name, core.ErrNotFound)
		}
		log.WithError(err).Error("Failed to load collection")
		return nil, err
	}
	return data, nil
}

func (s *sqliteStore) Save(ctx context.Context, name string, data []byte) error {
	if err := core.ValidateCollectionName(name); err != nil {
		return err
	}
	return upsert(ctx, s.db, name, data)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func upsert(ctx context.Context, db execer, name string, data []byte) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO collections (name, data, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		name, data, time.Now())
	if err != nil {
		logrus.WithField("collection", name).WithError(err).Error("Failed to save collection")
	}
	return err
}

func (s *sqliteStore) Append(ctx context.Context, name string, entry []byte) error {
	if err := core.ValidateCollectionName(name); err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var existing []byte
	err = tx.QueryRowContext(ctx, "SELECT data FROM collections WHERE name = ?", name).Scan(&existing)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return err
	}
	updated, err := core.AppendEntry(existing, entry)
	if err != nil {
		return err
	}
	if err := upsert(ctx, tx, name, updated); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *sqliteStore) Names(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT name FROM collections ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}
