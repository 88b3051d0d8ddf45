package engine

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3" // Драйвер sqlite3 для database/sql.

	"github.com/nvkalinin/month-grid/log"
	"github.com/nvkalinin/month-grid/store"
)

// Миграции применяются по возрастанию версии, примененные записываются в schema_version.
var migrations = map[int]string{
	1: `CREATE TABLE IF NOT EXISTS months (
		year  INTEGER NOT NULL,
		month INTEGER NOT NULL CHECK (month BETWEEN 1 AND 12),
		days  TEXT    NOT NULL,
		PRIMARY KEY (year, month)
	)`,
}

// SQLite хранит по строке на месяц: (year, month, days), где days — тот же JSON, что и в Bolt.
type SQLite struct {
	db *sql.DB
}

func NewSQLite(file string) (*SQLite, error) {
	// WAL разрешает читать во время записи, busy_timeout ждет блокировку вместо ошибки.
	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=5000", file)

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("store/sqlite cannot open %s: %w", file, err)
	}
	// SQLite допускает только одного писателя.
	db.SetMaxOpenConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store/sqlite cannot ping %s: %w", file, err)
	}

	s := &SQLite{db: db}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	log.Printf("[DEBUG] store/sqlite opened %s successfully", file)

	return s, nil
}

func (s *SQLite) migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL)`); err != nil {
		return fmt.Errorf("store/sqlite cannot create schema_version: %w", err)
	}

	var current int
	row := s.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_version`)
	if err := row.Scan(&current); err != nil {
		return fmt.Errorf("store/sqlite cannot read schema version: %w", err)
	}

	for v := current + 1; ; v++ {
		stmt, ok := migrations[v]
		if !ok {
			return nil
		}

		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("store/sqlite cannot begin migration %d: %w", v, err)
		}
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("store/sqlite migration %d failed: %w", v, err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO schema_version (version) VALUES (?)`, v); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("store/sqlite cannot record migration %d: %w", v, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("store/sqlite cannot commit migration %d: %w", v, err)
		}
		log.Printf("[INFO] store/sqlite applied migration %d", v)
	}
}

func (s *SQLite) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("store/sqlite cannot close: %w", err)
	}
	log.Printf("[DEBUG] store/sqlite closed successfully")
	return nil
}

func (s *SQLite) FindDay(y int, mon time.Month, d int) (*store.Day, bool) {
	days, ok := s.FindMonth(y, mon)
	if !ok {
		return nil, false
	}

	day, ok := days[d]
	if !ok {
		return nil, false
	}

	return &day, true
}

func (s *SQLite) FindMonth(y int, mon time.Month) (store.Days, bool) {
	var daysJson string
	err := s.db.QueryRow(`SELECT days FROM months WHERE year = ? AND month = ?`, y, int(mon)).Scan(&daysJson)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false
	}
	if err != nil {
		log.Printf("[WARN] store/sqlite cannot get /%d/%d: %v", y, mon, err)
		return nil, false
	}

	var d store.Days
	if err := json.Unmarshal([]byte(daysJson), &d); err != nil {
		log.Printf("[WARN] store/sqlite invalid month at /%d/%d: %v", y, mon, err)
		return nil, false
	}
	return d, true
}

func (s *SQLite) FindYear(y int) (store.Months, bool) {
	rows, err := s.db.Query(`SELECT month, days FROM months WHERE year = ? ORDER BY month`, y)
	if err != nil {
		log.Printf("[WARN] store/sqlite cannot get year %d: %v", y, err)
		return nil, false
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Printf("[WARN] store/sqlite cannot close rows: %v", err)
		}
	}()

	m := make(store.Months, 12)
	for rows.Next() {
		var (
			mon      int
			daysJson string
		)
		if err := rows.Scan(&mon, &daysJson); err != nil {
			log.Printf("[WARN] store/sqlite cannot scan year %d: %v", y, err)
			continue
		}

		var d store.Days
		if err := json.Unmarshal([]byte(daysJson), &d); err != nil {
			log.Printf("[WARN] store/sqlite invalid month at /%d/%d: %v", y, mon, err)
			continue
		}
		m[time.Month(mon)] = d
	}
	if err := rows.Err(); err != nil {
		log.Printf("[WARN] store/sqlite year %d: %v", y, err)
	}

	if len(m) == 0 {
		return nil, false
	}
	return m, true
}

func (s *SQLite) PutYear(y int, data store.Months) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("store/sqlite cannot begin tx: %w", err)
	}

	for m, days := range data {
		val, err := json.Marshal(days)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("store/sqlite cannot marshal /%d/%d: %w", y, m, err)
		}

		log.Printf("[DEBUG] store/sqlite put /%d/%d len=%d", y, m, len(val))
		_, err = tx.Exec(`INSERT INTO months (year, month, days) VALUES (?, ?, ?)
			ON CONFLICT (year, month) DO UPDATE SET days = excluded.days`, y, int(m), string(val))
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("store/sqlite cannot put /%d/%d: %w", y, m, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store/sqlite cannot commit year %d: %w", y, err)
	}
	return nil
}
