// Package storage is the SQLite backend: records for offline mode and the
// activity journal written by the worker.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"fintrack/internal/core"
	"fintrack/internal/remote"
)

var (
	_ remote.Backend = (*SQLiteRepository)(nil)
	_ remote.Pinger  = (*SQLiteRepository)(nil)
)

const timeLayout = time.RFC3339Nano

type SQLiteRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewSQLiteRepository(dbPath string, logger *slog.Logger) (*SQLiteRepository, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// A single writer avoids SQLITE_BUSY between the web server's goroutines.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(`PRAGMA busy_timeout = 5000`); err != nil {
		db.Close()
		return nil, fmt.Errorf("configure database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &SQLiteRepository{db: db, logger: logger}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

const selectRecord = `SELECT id, user_id, date, description, amount, category, payment_method FROM records`

// ListByUser returns the user's records in insertion order.
func (r *SQLiteRepository) ListByUser(ctx context.Context, userID string) ([]core.Record, error) {
	rows, err := r.db.QueryContext(ctx, selectRecord+` WHERE user_id = ? ORDER BY rowid`, userID)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	out := make([]core.Record, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	return out, nil
}

func (r *SQLiteRepository) Create(ctx context.Context, rec core.Record) (core.Record, error) {
	if err := rec.Validate(); err != nil {
		return core.Record{}, err
	}
	rec.ID = uuid.NewString()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO records (id, user_id, date, description, amount, category, payment_method) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.UserID, rec.Date.UTC().Format(timeLayout), rec.Description,
		rec.Amount.String(), string(rec.Category), string(rec.PaymentMethod))
	if err != nil {
		return core.Record{}, fmt.Errorf("create record: %w", err)
	}

	r.logger.InfoContext(ctx, "Record saved to SQLite", "record_id", rec.ID, "user_id", rec.UserID, "amount", rec.Amount.String())
	return rec, nil
}

func (r *SQLiteRepository) Update(ctx context.Context, id string, p core.Patch) (core.Record, error) {
	if err := p.Validate(); err != nil {
		return core.Record{}, err
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Record{}, fmt.Errorf("begin update: %w", err)
	}
	defer tx.Rollback()

	rec, err := scanRecord(tx.QueryRowContext(ctx, selectRecord+` WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Record{}, fmt.Errorf("update %s: %w", id, remote.ErrNotFound)
	}
	if err != nil {
		return core.Record{}, err
	}
	rec = p.Apply(rec)

	_, err = tx.ExecContext(ctx,
		`UPDATE records SET date = ?, description = ?, amount = ?, category = ?, payment_method = ? WHERE id = ?`,
		rec.Date.UTC().Format(timeLayout), rec.Description, rec.Amount.String(),
		string(rec.Category), string(rec.PaymentMethod), id)
	if err != nil {
		return core.Record{}, fmt.Errorf("update record %s: %w", id, err)
	}
	if err := tx.Commit(); err != nil {
		return core.Record{}, fmt.Errorf("commit update: %w", err)
	}
	return rec, nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, id string) (core.Record, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Record{}, fmt.Errorf("begin delete: %w", err)
	}
	defer tx.Rollback()

	rec, err := scanRecord(tx.QueryRowContext(ctx, selectRecord+` WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Record{}, fmt.Errorf("delete %s: %w", id, remote.ErrNotFound)
	}
	if err != nil {
		return core.Record{}, err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM records WHERE id = ?`, id); err != nil {
		return core.Record{}, fmt.Errorf("delete record %s: %w", id, err)
	}
	if err := tx.Commit(); err != nil {
		return core.Record{}, fmt.Errorf("commit delete: %w", err)
	}
	return rec, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (core.Record, error) {
	var (
		rec            core.Record
		date, amount   string
		category, paid string
	)
	if err := s.Scan(&rec.ID, &rec.UserID, &date, &rec.Description, &amount, &category, &paid); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Record{}, err
		}
		return core.Record{}, fmt.Errorf("scan record: %w", err)
	}
	t, err := time.Parse(timeLayout, date)
	if err != nil {
		return core.Record{}, fmt.Errorf("record %s date %q: %w", rec.ID, date, err)
	}
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return core.Record{}, fmt.Errorf("record %s amount %q: %w", rec.ID, amount, err)
	}
	rec.Date = t
	rec.Amount = d
	rec.Category = core.Category(category)
	rec.PaymentMethod = core.PaymentMethod(paid)
	return rec, nil
}
