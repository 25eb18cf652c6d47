// Package sqlite keeps the roster and the ledger in a single SQLite file.
// Saves replace a whole table inside one transaction, so readers never see
// a half-written dataset.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"bodekasse/internal/core"
	"bodekasse/internal/log"
	"bodekasse/internal/store"
)

var _ store.Store = (*Store)(nil)

type Store struct {
	db     *sql.DB
	logger *log.Logger
}

// DSN builds the connection string for dbPath:
//   - busy_timeout waits for locks instead of failing immediately
//   - journal_mode(WAL) lets readers proceed during a save
//   - synchronous(NORMAL) is safe with WAL
func DSN(dbPath string) string {
	return fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)", filepath.Clean(dbPath))
}

// Open creates the database file if needed and migrates it. A nil logger
// logs through slog.Default.
func Open(dbPath string, logger *log.Logger) (*Store, error) {
	if logger == nil {
		logger = log.Wrap(nil, log.ComponentStorage)
	} else {
		logger = logger.WithComponent(log.ComponentStorage)
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	dsn := DSN(dbPath)
	if err := RunMigrations(dsn); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	logger.Debug("SQLite store opened", "db_path", dbPath)
	return &Store{db: db, logger: logger}, nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) LoadMembers(ctx context.Context) ([]core.Member, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM members ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("query members: %w", err)
	}
	defer rows.Close()

	members := []core.Member{}
	for rows.Next() {
		var m core.Member
		if err := rows.Scan(&m.Name); err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate members: %w", err)
	}
	// Collation order may differ from Go's byte order.
	store.SortMembers(members)
	return members, nil
}

func (s *Store) LoadFines(ctx context.Context) ([]core.Fine, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT seq, id, member, fine, amount, date FROM fines ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("query fines: %w", err)
	}
	defer rows.Close()

	fines := []core.Fine{}
	for rows.Next() {
		var (
			seq  int64
			f    core.Fine
			date string
		)
		if err := rows.Scan(&seq, &f.ID, &f.Member, &f.FineType, &f.Amount, &date); err != nil {
			return nil, fmt.Errorf("scan fine: %w", err)
		}
		f.Date, err = core.ParseDate(date)
		if err != nil {
			return nil, fmt.Errorf("fine row %d: date %q: %w", seq, date, err)
		}
		fines = append(fines, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate fines: %w", err)
	}
	return fines, nil
}

func (s *Store) SaveMembers(ctx context.Context, members []core.Member) error {
	return s.replace(ctx, "members", func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `INSERT INTO members (name) VALUES (?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, m := range members {
			if _, err := stmt.ExecContext(ctx, m.Name); err != nil {
				return fmt.Errorf("insert member %q: %w", m.Name, err)
			}
		}
		return nil
	})
}

func (s *Store) SaveFines(ctx context.Context, fines []core.Fine) error {
	return s.replace(ctx, "fines", func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `INSERT INTO fines (id, member, fine, amount, date) VALUES (?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, f := range fines {
			if _, err := stmt.ExecContext(ctx, f.ID, f.Member, f.FineType, f.Amount, f.Date.String()); err != nil {
				return fmt.Errorf("insert fine %s: %w", f.ID, err)
			}
		}
		return nil
	})
}

// replace empties table and refills it with fill, atomically.
func (s *Store) replace(ctx context.Context, table string, fill func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
		return fmt.Errorf("clear %s: %w", table, err)
	}
	if err := fill(tx); err != nil {
		return fmt.Errorf("save %s: %w", table, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit %s: %w", table, err)
	}

	s.logger.DebugContext(ctx, "Dataset saved to SQLite", "table", table)
	return nil
}
