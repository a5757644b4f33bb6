// Package sqlstore persists snapshots in SQLite or MySQL and serves them as a data source.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/hylla/slaboard/internal/domain"
)

// Driver names accepted by Open.
const (
	DriverSQLite = "sqlite"
	DriverMySQL  = "mysql"
)

// ErrUnsupportedDriver reports a driver name Open does not know.
var ErrUnsupportedDriver = errors.New("unsupported sql driver")

// Config selects a database.
type Config struct {
	Driver      string
	DSN         string
	ConnTimeout time.Duration
}

// Store reads and writes activity records.
type Store struct {
	db     *sql.DB
	driver string
}

// Open opens the configured database and migrates it.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "", DriverSQLite:
		return OpenSQLite(cfg.DSN)
	case DriverMySQL:
		return OpenMySQL(ctx, cfg.DSN, cfg.ConnTimeout)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, cfg.Driver)
	}
}

// OpenSQLite opens a SQLite file, creating its directory when needed.
func OpenSQLite(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create sqlite dir: %w", err)
	}
	db, err := sql.Open(DriverSQLite, path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	return newStore(context.Background(), db, DriverSQLite)
}

// OpenInMemory opens a private in-memory SQLite database.
func OpenInMemory() (*Store, error) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := sql.Open(DriverSQLite, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite memory: %w", err)
	}
	return newStore(context.Background(), db, DriverSQLite)
}

// OpenMySQL opens a MySQL database and verifies the connection.
func OpenMySQL(ctx context.Context, dsn string, timeout time.Duration) (*Store, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, errors.New("mysql dsn is required")
	}
	db, err := sql.Open(DriverMySQL, dsn)
	if err != nil {
		return nil, fmt.Errorf("open mysql: %w", err)
	}
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)

	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping mysql: %w", err)
	}
	return newStore(ctx, db, DriverMySQL)
}

func newStore(ctx context.Context, db *sql.DB, driver string) (*Store, error) {
	store := &Store{db: db, driver: driver}
	if err := store.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Origin names this source in snapshots and logs.
func (s *Store) Origin() string {
	return "sql:" + s.driver
}

// migrate creates the record tables.
func (s *Store) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS activity_definitions (
			position INTEGER NOT NULL PRIMARY KEY,
			record_timestamp BIGINT,
			record_date VARCHAR(64),
			activity_id VARCHAR(255) NOT NULL,
			app_id VARCHAR(255) NOT NULL,
			business_area VARCHAR(255) NOT NULL,
			activity_name VARCHAR(255) NOT NULL DEFAULT '',
			activity_type VARCHAR(64) NOT NULL DEFAULT '',
			business_step_id VARCHAR(255) NOT NULL DEFAULT '',
			expected_start_time VARCHAR(32) NOT NULL DEFAULT '',
			expected_end_time VARCHAR(32) NOT NULL DEFAULT '',
			parsed_expected_start_time VARCHAR(32) NOT NULL DEFAULT '',
			parsed_expected_end_time VARCHAR(32) NOT NULL DEFAULT '',
			sla_time_offset VARCHAR(16) NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS activity_statuses (
			position INTEGER NOT NULL PRIMARY KEY,
			record_timestamp BIGINT,
			record_date VARCHAR(64),
			activity_id VARCHAR(255) NOT NULL,
			app_id VARCHAR(255) NOT NULL DEFAULT '',
			business_area VARCHAR(255) NOT NULL DEFAULT '',
			business_step_id VARCHAR(255) NOT NULL DEFAULT '',
			activity_type VARCHAR(64) NOT NULL DEFAULT '',
			activity_description VARCHAR(1024) NOT NULL DEFAULT '',
			business_date VARCHAR(32) NOT NULL DEFAULT '',
			reporting_time VARCHAR(64) NOT NULL DEFAULT '',
			run_id VARCHAR(255) NOT NULL DEFAULT '',
			activity_status VARCHAR(32) NOT NULL DEFAULT '',
			sla_status VARCHAR(64) NOT NULL DEFAULT ''
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate %s: %w", s.driver, err)
		}
	}
	return nil
}

// ReplaceSnapshot swaps both tables for the given records in one transaction. Source order is kept.
func (s *Store) ReplaceSnapshot(ctx context.Context, defs []domain.ActivityDefinition, statuses []domain.ActivityStatus) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, table := range []string{"activity_definitions", "activity_statuses"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	for i, def := range defs {
		ts, date := recordIDArgs(def.RecordID)
		_, err := tx.ExecContext(ctx, `
			INSERT INTO activity_definitions(
				position, record_timestamp, record_date, activity_id, app_id, business_area, activity_name,
				activity_type, business_step_id, expected_start_time, expected_end_time,
				parsed_expected_start_time, parsed_expected_end_time, sla_time_offset
			) VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			i, ts, date, def.ActivityID, def.AppID, def.BusinessArea, def.ActivityName,
			string(def.ActivityType), def.BusinessStepID, def.ExpectedStartTime, def.ExpectedEndTime,
			def.ParsedExpectedStartTime, def.ParsedExpectedEndTime, string(def.SLATimeOffset),
		)
		if err != nil {
			return fmt.Errorf("insert definition %q: %w", def.ActivityID, err)
		}
	}
	for i, st := range statuses {
		ts, date := recordIDArgs(st.RecordID)
		_, err := tx.ExecContext(ctx, `
			INSERT INTO activity_statuses(
				position, record_timestamp, record_date, activity_id, app_id, business_area, business_step_id,
				activity_type, activity_description, business_date, reporting_time, run_id,
				activity_status, sla_status
			) VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			i, ts, date, st.ActivityID, st.AppID, st.BusinessArea, st.BusinessStepID,
			string(st.ActivityType), st.ActivityDescription, st.BusinessDate, st.ReportingTime, st.RunID,
			string(st.ActivityStatus), string(st.SLAStatus),
		)
		if err != nil {
			return fmt.Errorf("insert status %q: %w", st.ActivityID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace: %w", err)
	}
	return nil
}

// FetchDefinitions returns every stored definition in source order.
func (s *Store) FetchDefinitions(ctx context.Context) ([]domain.ActivityDefinition, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT record_timestamp, record_date, activity_id, app_id, business_area, activity_name,
			activity_type, business_step_id, expected_start_time, expected_end_time,
			parsed_expected_start_time, parsed_expected_end_time, sla_time_offset
		FROM activity_definitions
		ORDER BY position ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query definitions: %w", err)
	}
	defer rows.Close()

	out := make([]domain.ActivityDefinition, 0)
	for rows.Next() {
		var (
			def          domain.ActivityDefinition
			ts           sql.NullInt64
			date         sql.NullString
			activityType string
			offset       string
		)
		if err := rows.Scan(
			&ts, &date, &def.ActivityID, &def.AppID, &def.BusinessArea, &def.ActivityName,
			&activityType, &def.BusinessStepID, &def.ExpectedStartTime, &def.ExpectedEndTime,
			&def.ParsedExpectedStartTime, &def.ParsedExpectedEndTime, &offset,
		); err != nil {
			return nil, fmt.Errorf("scan definition: %w", err)
		}
		def.RecordID = scanRecordID(ts, date)
		def.ActivityType = domain.ActivityType(activityType)
		def.SLATimeOffset = domain.SLATimeOffset(offset)
		out = append(out, def)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate definitions: %w", err)
	}
	return out, nil
}

// FetchStatuses returns every stored status record in source order.
func (s *Store) FetchStatuses(ctx context.Context) ([]domain.ActivityStatus, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT record_timestamp, record_date, activity_id, app_id, business_area, business_step_id,
			activity_type, activity_description, business_date, reporting_time, run_id,
			activity_status, sla_status
		FROM activity_statuses
		ORDER BY position ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query statuses: %w", err)
	}
	defer rows.Close()

	out := make([]domain.ActivityStatus, 0)
	for rows.Next() {
		var (
			st           domain.ActivityStatus
			ts           sql.NullInt64
			date         sql.NullString
			activityType string
			runState     string
			slaStatus    string
		)
		if err := rows.Scan(
			&ts, &date, &st.ActivityID, &st.AppID, &st.BusinessArea, &st.BusinessStepID,
			&activityType, &st.ActivityDescription, &st.BusinessDate, &st.ReportingTime, &st.RunID,
			&runState, &slaStatus,
		); err != nil {
			return nil, fmt.Errorf("scan status: %w", err)
		}
		st.RecordID = scanRecordID(ts, date)
		st.ActivityType = domain.ActivityType(activityType)
		st.ActivityStatus = domain.RunState(runState)
		st.SLAStatus = domain.SLAStatus(slaStatus)
		out = append(out, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate statuses: %w", err)
	}
	return out, nil
}

// recordIDArgs maps an optional envelope id to nullable column values.
func recordIDArgs(id *domain.RecordID) (any, any) {
	if id == nil {
		return nil, nil
	}
	return id.Timestamp, id.Date
}

// scanRecordID rebuilds an optional envelope id.
func scanRecordID(ts sql.NullInt64, date sql.NullString) *domain.RecordID {
	if !ts.Valid && !date.Valid {
		return nil
	}
	return &domain.RecordID{Timestamp: ts.Int64, Date: date.String}
}
