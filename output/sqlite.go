package output

import (
	"database/sql"
	"fmt"
	"sync"

	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"TrailZero/core"
	"TrailZero/internal/logger"
)

const createRecordsTableSQL = `
CREATE TABLE IF NOT EXISTS records (
	id TEXT PRIMARY KEY,
	source TEXT NOT NULL,
	event_index INTEGER NOT NULL,
	name TEXT,
	type TEXT,
	date_time INTEGER,
	source_ip TEXT,
	region TEXT,
	user_agent TEXT,
	user_name TEXT,
	arn TEXT,
	account_id TEXT,
	request_parameters TEXT NOT NULL,
	additional_event_data TEXT NOT NULL,
	warning TEXT NOT NULL
);
`

const insertRecordSQL = `
INSERT INTO records (
	id, source, event_index, name, type, date_time, source_ip, region, user_agent,
	user_name, arn, account_id, request_parameters, additional_event_data, warning
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
`

// SQLiteWriter stores records in the records table of a SQLite database
type SQLiteWriter struct {
	mu         sync.Mutex
	db         *sql.DB
	insertStmt *sql.Stmt // prepared once at db level
	txStmt     *sql.Stmt // insertStmt bound to the open transaction
	tx         *sql.Tx
	batchSize  int
	count      int
	closed     bool
}

// NewSQLiteWriter creates a new SQLite writer
func NewSQLiteWriter(outputPath string) (*SQLiteWriter, error) {
	db, err := sql.Open("sqlite3", outputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	// Bulk load settings; durability is restored in Close
	pragmas := []string{
		"PRAGMA synchronous = OFF",
		"PRAGMA journal_mode = MEMORY",
		"PRAGMA cache_size = -64000",
		"PRAGMA temp_store = MEMORY",
		"PRAGMA locking_mode = EXCLUSIVE",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma %s: %w", pragma, err)
		}
	}

	if _, err := db.Exec(createRecordsTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create records table: %w", err)
	}

	stmt, err := db.Prepare(insertRecordSQL)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to prepare insert statement: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		stmt.Close()
		db.Close()
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}

	return &SQLiteWriter{
		db:         db,
		insertStmt: stmt,
		txStmt:     tx.Stmt(stmt),
		tx:         tx,
		batchSize:  10000,
	}, nil
}

// Write inserts the record. Null values are stored as NULL.
func (w *SQLiteWriter) Write(record *core.Record) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return "", ErrWriterClosed
	}

	id := NewRecordID()
	_, err := w.txStmt.Exec(
		id,
		record.Source,
		record.Index,
		record.Name,
		record.Type,
		record.EpochSeconds,
		record.SourceIP,
		record.Region,
		record.UserAgent,
		record.UserName,
		record.ARN,
		record.AccountID,
		record.RequestParameters,
		record.AdditionalEventData,
		record.Warning,
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert record: %w", err)
	}

	w.count++
	if w.count >= w.batchSize {
		if err := w.commitAndStartNewTransaction(); err != nil {
			return "", err
		}
	}

	return id, nil
}

// commitAndStartNewTransaction commits the current transaction and starts a new one
func (w *SQLiteWriter) commitAndStartNewTransaction() error {
	// The transaction bound statement is invalid after commit
	w.txStmt.Close()

	if err := w.tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	tx, err := w.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	w.tx = tx
	w.txStmt = tx.Stmt(w.insertStmt)
	w.count = 0

	return nil
}

// Close commits pending records, indexes the table and closes the database
func (w *SQLiteWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true

	w.txStmt.Close()
	w.insertStmt.Close()

	if err := w.tx.Commit(); err != nil {
		w.db.Close()
		return fmt.Errorf("failed to commit final transaction: %w", err)
	}

	// Indexing after the bulk insert is much faster than during it
	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_records_date_time ON records (date_time)",
		"CREATE INDEX IF NOT EXISTS idx_records_name ON records (name)",
	}
	for _, index := range indexes {
		if _, err := w.db.Exec(index); err != nil {
			w.db.Close()
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	if _, err := w.db.Exec("PRAGMA synchronous = NORMAL"); err != nil {
		logger.Debug("Failed to reset synchronous pragma: %v", err)
	}

	if err := w.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	return nil
}
