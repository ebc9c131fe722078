package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jgoulah/griddash/internal/dataset"
	"github.com/jgoulah/griddash/pkg/models"
	_ "modernc.org/sqlite"
)

// DB wraps the database connection
type DB struct {
	conn *sql.DB
}

// SourceInfo describes one imported dataset
type SourceInfo struct {
	Name       string
	Records    int
	ImportedAt time.Time
}

// New creates a new database connection and initializes the schema
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// A single connection keeps ":memory:" databases shared and serialises writers
	conn.SetMaxOpenConns(1)

	db := &DB{conn: conn}
	if err := db.initSchema(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}

	return db, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// initSchema creates the necessary tables
func (db *DB) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS records (
		source TEXT NOT NULL,
		row_index INTEGER NOT NULL,
		datetime TEXT NOT NULL,
		actual REAL NOT NULL,
		predicted REAL NOT NULL,
		hour INTEGER NOT NULL,
		imported_at TEXT NOT NULL,
		PRIMARY KEY (source, row_index)
	);
	CREATE INDEX IF NOT EXISTS idx_records_source_hour ON records(source, hour);

	CREATE TABLE IF NOT EXISTS sources (
		name TEXT PRIMARY KEY,
		imported_at TEXT NOT NULL
	);
	`

	_, err := db.conn.Exec(schema)
	return err
}

// ReplaceRecords stores records under source, replacing any earlier import of
// it. An empty import is recorded too, so it can still be listed and served.
func (db *DB) ReplaceRecords(ctx context.Context, source string, records []models.Record) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM records WHERE source = ?`, source); err != nil {
		return fmt.Errorf("deleting previous records: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO records (source, row_index, datetime, actual, predicted, hour, imported_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	importedAt := time.Now().UTC().Format(time.RFC3339)
	if _, err := tx.ExecContext(ctx, `
	INSERT INTO sources (name, imported_at) VALUES (?, ?)
	ON CONFLICT(name) DO UPDATE SET imported_at = excluded.imported_at
	`, source, importedAt); err != nil {
		return fmt.Errorf("recording source: %w", err)
	}

	for i, r := range records {
		if _, err := stmt.ExecContext(ctx, source, i, r.Datetime, r.Actual, r.Predicted, r.Hour, importedAt); err != nil {
			return fmt.Errorf("inserting record %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing records: %w", err)
	}
	return nil
}

// ListRecords retrieves the records of a source in their original row order
func (db *DB) ListRecords(ctx context.Context, source string) ([]models.Record, error) {
	query := `
	SELECT datetime, actual, predicted, hour
	FROM records
	WHERE source = ?
	ORDER BY row_index
	`

	rows, err := db.conn.QueryContext(ctx, query, source)
	if err != nil {
		return nil, fmt.Errorf("querying records: %w", err)
	}
	defer rows.Close()

	results := []models.Record{}
	for rows.Next() {
		var r models.Record
		if err := rows.Scan(&r.Datetime, &r.Actual, &r.Predicted, &r.Hour); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		results = append(results, r)
	}

	return results, rows.Err()
}

// ListSources returns every imported source, ordered by name
func (db *DB) ListSources(ctx context.Context) ([]SourceInfo, error) {
	query := `
	SELECT s.name, COUNT(r.row_index), s.imported_at
	FROM sources s
	LEFT JOIN records r ON r.source = s.name
	GROUP BY s.name, s.imported_at
	ORDER BY s.name
	`

	rows, err := db.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying sources: %w", err)
	}
	defer rows.Close()

	var results []SourceInfo
	for rows.Next() {
		var info SourceInfo
		var importedAt string
		if err := rows.Scan(&info.Name, &info.Records, &importedAt); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}

		info.ImportedAt, err = time.Parse(time.RFC3339, importedAt)
		if err != nil {
			return nil, fmt.Errorf("parsing imported_at: %w", err)
		}
		results = append(results, info)
	}

	return results, rows.Err()
}

// HasSource checks if a source has been imported, even with no records
func (db *DB) HasSource(ctx context.Context, source string) (bool, error) {
	var n int
	err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM sources WHERE name = ?`, source).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("looking up source: %w", err)
	}
	return n > 0, nil
}

// Source loads a stored import as a dashboard dataset
type Source struct {
	DB   *DB
	Name string
}

// Load reads the stored records. An unknown source is an error.
func (s Source) Load(ctx context.Context) (*dataset.Dataset, error) {
	ok, err := s.DB.HasSource(ctx, s.Name)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("no stored records for source %q", s.Name)
	}

	records, err := s.DB.ListRecords(ctx, s.Name)
	if err != nil {
		return nil, err
	}
	return dataset.New(records), nil
}
