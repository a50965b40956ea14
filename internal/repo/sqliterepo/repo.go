// Package sqliterepo stores readings in a single local SQLite file.
package sqliterepo

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/energytrack-io/energytrack/internal/domain"
	"github.com/energytrack-io/energytrack/internal/repo"

	// SQLite driver using pure Go implementation
	_ "modernc.org/sqlite"
)

// Config configures the SQLite repository.
type Config struct {
	// Path to the SQLite database file. ":memory:" is accepted for tests.
	Path string

	// BusyTimeout is the timeout for acquiring locks in milliseconds.
	BusyTimeout int

	// MaxConnections is the max number of database connections.
	MaxConnections int
}

// DefaultConfig returns default configuration.
func DefaultConfig() Config {
	return Config{
		Path:           "energy.db",
		BusyTimeout:    5000,
		MaxConnections: 4,
	}
}

var _ repo.ReadingRepository = (*Repo)(nil)

// Repo implements repo.ReadingRepository backed by SQLite. Concurrency
// control beyond statement-level safety is delegated to the engine (WAL).
type Repo struct {
	db     *sql.DB
	mu     sync.RWMutex
	closed bool

	insertStmt *sql.Stmt
	sinceStmt  *sql.Stmt
	countStmt  *sql.Stmt
}

// Open opens (creating if absent) the database file and ensures the schema
// exists. Any failure here is a non-recoverable startup precondition.
func Open(config Config) (*Repo, error) {
	if config.Path == "" {
		config.Path = "energy.db"
	}
	if config.BusyTimeout <= 0 {
		config.BusyTimeout = 5000
	}
	if config.MaxConnections <= 0 {
		config.MaxConnections = 4
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(%d)",
		config.Path, config.BusyTimeout)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	db.SetMaxOpenConns(config.MaxConnections)
	db.SetMaxIdleConns(config.MaxConnections / 2)

	r := &Repo{db: db}

	if err := r.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	if err := r.prepareStatements(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to prepare statements: %w", err)
	}
	return r, nil
}

// initSchema creates the readings table if it does not exist yet.
// Timestamps are stored as Unix nanoseconds (UTC).
func (r *Repo) initSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS energy_usage (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp INTEGER NOT NULL,
			usage REAL NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_energy_usage_timestamp ON energy_usage(timestamp);
	`
	if _, err := r.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

func (r *Repo) prepareStatements() error {
	var err error

	r.insertStmt, err = r.db.Prepare(`INSERT INTO energy_usage (timestamp, usage) VALUES (?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert statement: %w", err)
	}

	r.sinceStmt, err = r.db.Prepare(`
		SELECT id, timestamp, usage FROM energy_usage
		WHERE timestamp >= ?
		ORDER BY timestamp, id
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare select statement: %w", err)
	}

	r.countStmt, err = r.db.Prepare(`SELECT COUNT(*) FROM energy_usage`)
	if err != nil {
		return fmt.Errorf("failed to prepare count statement: %w", err)
	}

	return nil
}

// Insert stores one reading and returns it with the row ID assigned by SQLite.
func (r *Repo) Insert(ctx context.Context, reading domain.Reading) (domain.Reading, error) {
	r.mu.RLock()
	if r.closed {
		r.mu.RUnlock()
		return domain.Reading{}, repo.ErrClosed
	}
	r.mu.RUnlock()

	if reading.Time.IsZero() {
		reading.Time = time.Now().UTC()
	}

	res, err := r.insertStmt.ExecContext(ctx, reading.Time.UTC().UnixNano(), reading.Usage)
	if err != nil {
		return domain.Reading{}, fmt.Errorf("failed to insert reading: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return domain.Reading{}, fmt.Errorf("failed to read insert id: %w", err)
	}

	reading.ID = id
	reading.Time = reading.Time.UTC()
	return reading, nil
}

// ListSince returns readings with Time >= since, ascending by time then ID.
func (r *Repo) ListSince(ctx context.Context, since time.Time) ([]domain.Reading, error) {
	r.mu.RLock()
	if r.closed {
		r.mu.RUnlock()
		return nil, repo.ErrClosed
	}
	r.mu.RUnlock()

	rows, err := r.sinceStmt.QueryContext(ctx, since.UTC().UnixNano())
	if err != nil {
		return nil, fmt.Errorf("failed to query readings: %w", err)
	}
	defer rows.Close()

	var readings []domain.Reading
	for rows.Next() {
		var (
			id int64
			ts int64
			u  float64
		)
		if err := rows.Scan(&id, &ts, &u); err != nil {
			return nil, fmt.Errorf("failed to scan reading: %w", err)
		}
		readings = append(readings, domain.Reading{
			ID:    id,
			Time:  time.Unix(0, ts).UTC(),
			Usage: u,
		})
	}
	return readings, rows.Err()
}

// Count returns the total number of stored readings.
func (r *Repo) Count(ctx context.Context) (int64, error) {
	r.mu.RLock()
	if r.closed {
		r.mu.RUnlock()
		return 0, repo.ErrClosed
	}
	r.mu.RUnlock()

	var n int64
	if err := r.countStmt.QueryRowContext(ctx).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count readings: %w", err)
	}
	return n, nil
}

// Close releases the database handle. Further operations return ErrClosed.
func (r *Repo) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true

	if r.insertStmt != nil {
		r.insertStmt.Close()
	}
	if r.sinceStmt != nil {
		r.sinceStmt.Close()
	}
	if r.countStmt != nil {
		r.countStmt.Close()
	}

	return r.db.Close()
}
