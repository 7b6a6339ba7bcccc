package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

type PostgresBackend struct {
	DB *sql.DB
}

func NewPostgresBackend(db *sql.DB) *PostgresBackend {
	return &PostgresBackend{DB: db}
}

func (b *PostgresBackend) Load(ctx context.Context, key string) ([]byte, error) {
	var data []byte
	err := b.DB.QueryRowContext(ctx, "SELECT value FROM records WHERE key = $1", key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (b *PostgresBackend) Save(ctx context.Context, key string, data []byte) error {
	_, err := b.DB.ExecContext(ctx, upsertRecord, key, string(data))
	return err
}

// Update locks the row for the duration of fn. A key that does not exist yet
// has no row to lock, so two first writers race and the later commit wins.
func (b *PostgresBackend) Update(ctx context.Context, key string, fn func(current []byte) ([]byte, error)) error {
	tx, err := b.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var current []byte
	err = tx.QueryRowContext(ctx, "SELECT value FROM records WHERE key = $1 FOR UPDATE", key).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		current = nil
	} else if err != nil {
		return err
	}

	next, err := fn(current)
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, upsertRecord, key, string(next)); err != nil {
		return err
	}
	return tx.Commit()
}

func (b *PostgresBackend) Delete(ctx context.Context, key string) error {
	_, err := b.DB.ExecContext(ctx, "DELETE FROM records WHERE key = $1", key)
	return err
}

func (b *PostgresBackend) Clear(ctx context.Context) error {
	_, err := b.DB.ExecContext(ctx, "DELETE FROM records WHERE key LIKE $1", KeyPrefix+"%")
	return err
}

const upsertRecord = `
	INSERT INTO records (key, value, updated_at)
	VALUES ($1, $2, CURRENT_TIMESTAMP)
	ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = CURRENT_TIMESTAMP`

func (b *PostgresBackend) EnsureSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS records (
			key TEXT PRIMARY KEY,
			value JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
	}
	for _, stmt := range statements {
		if _, err := b.DB.Exec(stmt); err != nil {
			return fmt.Errorf("ensure schema `%s`: %w", stmt, err)
		}
	}
	return nil
}
