package sources

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/creastat/logmerge/core"
	"github.com/creastat/logmerge/protocol"
	_ "github.com/mattn/go-sqlite3"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS logs (
	id     INTEGER PRIMARY KEY AUTOINCREMENT,
	source INTEGER NOT NULL,
	ts     INTEGER NOT NULL,
	msg    TEXT    NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_logs_source_ts ON logs (source, ts, id);
`

// DefaultPageSize is the number of rows a SQLiteSource reads per query
const DefaultPageSize = 256

// Store holds log entries of many sources in one sqlite database.
type Store struct {
	db *sql.DB
}

// OpenStore creates or opens a sqlite database at path and applies the schema.
//
// The database is configured with:
//   - WAL mode so readers do not block the seeding writer
//   - a 5-second busy timeout for lock contention
func OpenStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Sources read in short keyset pages, so one connection serves them all
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Import drains src into the store under the given source id and returns the
// number of rows written. Rows are written in one transaction.
func (s *Store) Import(ctx context.Context, source int, src core.Source) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin import: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO logs (source, ts, msg) VALUES (?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("prepare import: %w", err)
	}
	defer stmt.Close()

	count := 0
	for !src.Drained() {
		record, err := src.Pop()
		if err != nil {
			return count, fmt.Errorf("read source %d: %w", source, err)
		}
		if record == nil {
			break
		}
		if _, err := stmt.ExecContext(ctx, source, record.Timestamp().UnixNano(), protocol.RecordMessage(record)); err != nil {
			return count, fmt.Errorf("insert row: %w", err)
		}
		count++
	}

	if err := tx.Commit(); err != nil {
		return count, fmt.Errorf("commit import: %w", err)
	}
	return count, nil
}

// SourceIDs lists the distinct source ids present in the store, ascending
func (s *Store) SourceIDs(ctx context.Context) ([]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT source FROM logs ORDER BY source`)
	if err != nil {
		return nil, fmt.Errorf("list sources: %w", err)
	}
	defer rows.Close()

	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan source id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Source returns a reader over the rows of one source id.
// A pageSize <= 0 uses DefaultPageSize.
func (s *Store) Source(source, pageSize int) *SQLiteSource {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &SQLiteSource{
		db:       s.db,
		source:   source,
		pageSize: pageSize,
	}
}

// SQLiteSource reads one source's rows ordered by (ts, id), a page at a time.
// It satisfies both core.Source and core.AsyncSource.
type SQLiteSource struct {
	db       *sql.DB
	source   int
	pageSize int

	page   []core.LogEntry
	lastTS int64
	lastID int64
	primed bool
	done   bool
}

// PopAsync returns the next row, querying a new page when the current one is used up
func (s *SQLiteSource) PopAsync(ctx context.Context) (core.Record, error) {
	if len(s.page) == 0 && !s.done {
		if err := s.fetch(ctx); err != nil {
			return nil, err
		}
	}
	if len(s.page) == 0 {
		return nil, nil
	}

	entry := s.page[0]
	s.page = s.page[1:]
	return entry, nil
}

// Pop is PopAsync without cancellation
func (s *SQLiteSource) Pop() (core.Record, error) {
	return s.PopAsync(context.Background())
}

// Drained reports whether the last query came back empty and every row was served
func (s *SQLiteSource) Drained() bool {
	return s.done && len(s.page) == 0
}

func (s *SQLiteSource) fetch(ctx context.Context) error {
	query := `SELECT id, ts, msg FROM logs WHERE source = ? ORDER BY ts, id LIMIT ?`
	args := []any{s.source, s.pageSize}
	if s.primed {
		query = `SELECT id, ts, msg FROM logs
			WHERE source = ? AND (ts > ? OR (ts = ? AND id > ?))
			ORDER BY ts, id LIMIT ?`
		args = []any{s.source, s.lastTS, s.lastTS, s.lastID, s.pageSize}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("query source %d: %w", s.source, err)
	}
	defer rows.Close()

	page := make([]core.LogEntry, 0, s.pageSize)
	for rows.Next() {
		var (
			id  int64
			ts  int64
			msg string
		)
		if err := rows.Scan(&id, &ts, &msg); err != nil {
			return fmt.Errorf("scan source %d: %w", s.source, err)
		}
		page = append(page, core.LogEntry{Date: time.Unix(0, ts).UTC(), Msg: msg})
		s.lastTS, s.lastID = ts, id
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("read source %d: %w", s.source, err)
	}

	s.primed = true
	s.page = page
	if len(page) < s.pageSize {
		s.done = true
	}
	return nil
}
