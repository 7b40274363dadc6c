package history

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite" // SQLite driver (pure Go)

	"github.com/mydoor3520/log-detective/pkg/core"
	"github.com/mydoor3520/log-detective/pkg/extract"
)

//go:embed migrations/*.sql
var migrations embed.FS

// errNotOpened is returned by every operation on a store without a connection.
var errNotOpened = errors.New("database not opened")

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
	now    func() time.Time
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore creates a new SQLite history store instance.
// A nil logger discards output.
func NewSQLiteStore(logger *slog.Logger) *SQLiteStore {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &SQLiteStore{logger: logger, now: time.Now}
}

// NewSQLiteStoreWithDB wraps an existing connection. The schema is not migrated.
func NewSQLiteStoreWithDB(db *sql.DB, logger *slog.Logger) *SQLiteStore {
	s := NewSQLiteStore(logger)
	s.db = db
	return s
}

// Open opens a connection to the SQLite database, creating parent directories.
// Use ":memory:" for an in-memory database.
func (s *SQLiteStore) Open(path string) error {
	dsn := ":memory:"
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create history directory: %w", err)
			}
		}
		var err error
		if dsn, err = sqliteDSN(path); err != nil {
			return err
		}
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// One connection keeps :memory: databases shared and serialises writers.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping sqlite database: %w", err)
	}

	s.db = db
	s.path = path
	s.logger.Debug("history store opened", "path", path)
	return nil
}

// sqliteDSN builds a file: URI for path. The path is made absolute and
// percent-encoded so '?', '#' and '%' stay part of the file name.
func sqliteDSN(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve history path: %w", err)
	}
	p := filepath.ToSlash(abs)
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	u := url.URL{
		Scheme:   "file",
		Path:     p,
		RawQuery: "_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)",
	}
	return u.String(), nil
}

// Close closes the SQLite database connection.
func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// Migrate runs all pending database migrations.
func (s *SQLiteStore) Migrate() error {
	if s.db == nil {
		return errNotOpened
	}

	goose.SetBaseFS(migrations)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("sqlite"); err != nil {
		return fmt.Errorf("failed to set dialect: %w", err)
	}
	if err := goose.Up(s.db, "migrations"); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// generateID creates a new UUID.
func generateID() string {
	return uuid.New().String()
}

// --- Solutions ---

// AddSolution remembers a fix. The error text is run through the extractors
// so later searches can match on the exception type.
func (s *SQLiteStore) AddSolution(errText, solution string) (*Solution, error) {
	if s.db == nil {
		return nil, errNotOpened
	}
	errText = strings.TrimSpace(errText)
	solution = strings.TrimSpace(solution)
	if errText == "" || solution == "" {
		return nil, fmt.Errorf("error and solution are both required")
	}

	sol := &Solution{
		ID:        generateID(),
		Error:     errText,
		Language:  core.EcosystemUnknown,
		Solution:  solution,
		CreatedAt: s.now().UTC(),
	}
	if eco, records := extract.Parse(errText); len(records) > 0 {
		sol.ErrorType = records[0].ErrorType
		sol.Language = eco
	}

	_, err := s.db.Exec(
		`INSERT INTO solutions (id, error, error_type, language, solution, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		sol.ID, sol.Error, sol.ErrorType, sol.Language.String(), sol.Solution, formatTime(sol.CreatedAt),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to add solution: %w", err)
	}

	s.logger.Debug("solution added", "id", sol.ID, "error_type", sol.ErrorType)
	return sol, nil
}

// SearchSolutions returns fixes whose error or solution contains query, or
// whose exception type matches the type found in query. Exact type matches
// rank first, newest first within each group.
func (s *SQLiteStore) SearchSolutions(query string, limit int) ([]Solution, error) {
	if s.db == nil {
		return nil, errNotOpened
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("search text is required")
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	errorType := query
	if _, records := extract.Parse(query); len(records) > 0 {
		errorType = records[0].ErrorType
	}
	like := "%" + escapeLike(query) + "%"

	rows, err := s.db.Query(
		`SELECT id, error, error_type, language, solution, created_at FROM solutions
		WHERE error LIKE ? ESCAPE '\' OR solution LIKE ? ESCAPE '\' OR (error_type != '' AND error_type = ?)
		ORDER BY (error_type = ?) DESC, created_at DESC
		LIMIT ?`,
		like, like, errorType, errorType, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to search solutions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	solutions := make([]Solution, 0)
	for rows.Next() {
		var sol Solution
		var language, createdAt string
		if err := rows.Scan(&sol.ID, &sol.Error, &sol.ErrorType, &language, &sol.Solution, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan solution: %w", err)
		}
		sol.Language = core.Ecosystem(language)
		sol.CreatedAt = parseTime(createdAt)
		solutions = append(solutions, sol)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate solutions: %w", err)
	}
	return solutions, nil
}

// --- Occurrences ---

// RecordErrors stores every record in one transaction.
func (s *SQLiteStore) RecordErrors(source string, records []core.ErrorRecord) (int, error) {
	if s.db == nil {
		return 0, errNotOpened
	}
	if len(records) == 0 {
		return 0, nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	seenAt := formatTime(s.now().UTC())
	for i := range records {
		rec := &records[i]
		var lineNumber sql.NullInt64
		if n := rec.LineNumber(); n != nil {
			lineNumber = sql.NullInt64{Int64: int64(*n), Valid: true}
		}
		var filePath sql.NullString
		if p := rec.FilePath(); p != nil {
			filePath = sql.NullString{String: *p, Valid: true}
		}

		if _, err := tx.Exec(
			`INSERT INTO occurrences (id, source, language, error_type, message, severity, file_path, line_number, raw_text, seen_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			generateID(), source, rec.Ecosystem.String(), rec.ErrorType, rec.Message, rec.Severity.String(),
			filePath, lineNumber, rec.RawText, seenAt,
		); err != nil {
			return 0, fmt.Errorf("failed to record error %s: %w", rec.ErrorType, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit occurrences: %w", err)
	}
	s.logger.Debug("errors recorded", "source", source, "count", len(records))
	return len(records), nil
}

// TopErrors returns recorded error types ordered by frequency.
func (s *SQLiteStore) TopErrors(limit int) ([]ErrorSummary, error) {
	if s.db == nil {
		return nil, errNotOpened
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	rows, err := s.db.Query(
		`SELECT error_type, language, COUNT(*) AS n, MAX(seen_at) AS last_seen FROM occurrences
		GROUP BY error_type, language
		ORDER BY n DESC, last_seen DESC, error_type ASC
		LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list errors: %w", err)
	}
	defer func() { _ = rows.Close() }()

	summaries := make([]ErrorSummary, 0)
	for rows.Next() {
		var sum ErrorSummary
		var language, lastSeen string
		if err := rows.Scan(&sum.ErrorType, &language, &sum.Count, &lastSeen); err != nil {
			return nil, fmt.Errorf("failed to scan error summary: %w", err)
		}
		sum.Language = core.Ecosystem(language)
		sum.LastSeen = parseTime(lastSeen)
		summaries = append(summaries, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate error summaries: %w", err)
	}
	return summaries, nil
}

// Timestamps are stored as fixed-width RFC 3339 text so they sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
