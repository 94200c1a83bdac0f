package sink

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// ErrRunNotFound is returned when a crawl run does not exist.
var ErrRunNotFound = errors.New("crawl run not found")

// OfferStore keeps crawled offers and crawl runs in SQLite.
type OfferStore struct {
	db *sql.DB
}

// OfferFilter represents filtering options for listing offers.
type OfferFilter struct {
	CrawlID *uuid.UUID // Only offers from this run
	Limit   int        // Pagination limit
	Offset  int        // Pagination offset
}

// NewOfferStore creates an offer store with the given database path.
func NewOfferStore(dbPath string) (*OfferStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &OfferStore{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// initSchema creates the offres and runs tables if they don't exist.
func (s *OfferStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		crawl_id TEXT PRIMARY KEY,
		url_template TEXT NOT NULL,
		start_page INTEGER NOT NULL,
		end_page INTEGER NOT NULL,
		pages_ok INTEGER NOT NULL DEFAULT 0,
		pages_failed INTEGER NOT NULL DEFAULT 0,
		records INTEGER NOT NULL DEFAULT 0,
		started_at TEXT,
		finished_at TEXT
	);

	CREATE TABLE IF NOT EXISTS offres (
		id TEXT PRIMARY KEY,
		crawl_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		titre TEXT,
		entreprise TEXT,
		localisation TEXT,
		salaire TEXT,
		date_publication TEXT,
		description TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_offres_crawl ON offres (crawl_id, position);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *OfferStore) Close() error {
	return s.db.Close()
}

// AppendRecords stores the run and its rows in one transaction: either all
// rows are stored or none.
func (s *OfferStore) AppendRecords(ctx context.Context, run RunInfo, rows []Row) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := insertRun(ctx, tx, run); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO offres (
			id, crawl_id, position, titre, entreprise, localisation,
			salaire, date_publication, description, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now()
	for _, row := range rows {
		_, err := stmt.ExecContext(ctx,
			row.ID.String(),
			row.CrawlID.String(),
			row.Position,
			row.Title,
			row.Company,
			row.Location,
			row.SalaryText,
			formatTime(row.PublishedAt),
			row.Description,
			formatTime(&now),
		)
		if err != nil {
			return fmt.Errorf("failed to insert offer %d: %w", row.Position, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// insertRun records run, replacing an earlier record with the same ID.
func insertRun(ctx context.Context, tx *sql.Tx, run RunInfo) error {
	query := `
		INSERT OR REPLACE INTO runs (
			crawl_id, url_template, start_page, end_page,
			pages_ok, pages_failed, records, started_at, finished_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := tx.ExecContext(ctx, query,
		run.CrawlID.String(),
		run.URLTemplate,
		run.StartPage,
		run.EndPage,
		run.PagesOK,
		run.PagesFailed,
		run.Records,
		formatZeroableTime(run.StartedAt),
		formatZeroableTime(run.FinishedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}
	return nil
}

// ListOffers lists stored offers in the order they were stored: run by run,
// and in crawl order within a run.
func (s *OfferStore) ListOffers(filter OfferFilter) ([]Row, error) {
	query := `
		SELECT id, crawl_id, position, titre, entreprise, localisation,
		       salaire, date_publication, description
		FROM offres
	`
	var conditions []string
	var args []any

	if filter.CrawlID != nil {
		conditions = append(conditions, "crawl_id = ?")
		args = append(args, filter.CrawlID.String())
	}

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	// Rows are inserted in crawl order, one run per transaction
	query += " ORDER BY rowid ASC"

	switch {
	case filter.Limit > 0:
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	case filter.Offset > 0:
		query += " LIMIT -1"
	}
	if filter.Offset > 0 {
		query += " OFFSET ?"
		args = append(args, filter.Offset)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query offers: %w", err)
	}
	defer rows.Close()

	result := []Row{}
	for rows.Next() {
		var idStr, crawlIDStr string
		var position int
		var title, company, location, salary, publishedAt, description sql.NullString

		if err := rows.Scan(&idStr, &crawlIDStr, &position,
			&title, &company, &location, &salary, &publishedAt, &description); err != nil {
			return nil, fmt.Errorf("failed to scan offer: %w", err)
		}

		row := Row{
			Position:    position,
			Title:       nullString(title),
			Company:     nullString(company),
			Location:    nullString(location),
			SalaryText:  nullString(salary),
			Description: nullString(description),
		}
		if row.ID, err = uuid.Parse(idStr); err != nil {
			return nil, fmt.Errorf("failed to parse offer ID: %w", err)
		}
		if row.CrawlID, err = uuid.Parse(crawlIDStr); err != nil {
			return nil, fmt.Errorf("failed to parse crawl ID: %w", err)
		}
		if publishedAt.Valid {
			t := parseTime(publishedAt.String)
			row.PublishedAt = &t
		}

		result = append(result, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate offers: %w", err)
	}

	return result, nil
}

// CountOffers returns the number of stored offers, optionally for one run.
func (s *OfferStore) CountOffers(crawlID *uuid.UUID) (int, error) {
	query := "SELECT COUNT(*) FROM offres"
	var args []any
	if crawlID != nil {
		query += " WHERE crawl_id = ?"
		args = append(args, crawlID.String())
	}

	var count int
	if err := s.db.QueryRow(query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count offers: %w", err)
	}
	return count, nil
}

// GetRun retrieves a crawl run by ID.
func (s *OfferStore) GetRun(crawlID uuid.UUID) (*RunInfo, error) {
	query := runColumns + " WHERE crawl_id = ?"

	run, err := scanRun(s.db.QueryRow(query, crawlID.String()))
	if err == sql.ErrNoRows {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, err
	}
	return run, nil
}

// ListRuns lists crawl runs, most recent first.
func (s *OfferStore) ListRuns() ([]RunInfo, error) {
	rows, err := s.db.Query(runColumns + " ORDER BY started_at DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	runs := []RunInfo{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate runs: %w", err)
	}

	return runs, nil
}

const runColumns = `
	SELECT crawl_id, url_template, start_page, end_page,
	       pages_ok, pages_failed, records, started_at, finished_at
	FROM runs
`

// scanner is implemented by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*RunInfo, error) {
	var run RunInfo
	var crawlIDStr string
	var startedAt, finishedAt sql.NullString

	err := row.Scan(&crawlIDStr, &run.URLTemplate, &run.StartPage, &run.EndPage,
		&run.PagesOK, &run.PagesFailed, &run.Records, &startedAt, &finishedAt)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}

	if run.CrawlID, err = uuid.Parse(crawlIDStr); err != nil {
		return nil, fmt.Errorf("failed to parse crawl ID: %w", err)
	}
	if startedAt.Valid {
		run.StartedAt = parseTime(startedAt.String)
	}
	if finishedAt.Valid {
		run.FinishedAt = parseTime(finishedAt.String)
	}

	return &run, nil
}

func nullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

// storedTimeFormat is RFC 3339 with a fixed nine-digit fraction.
const storedTimeFormat = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	// Fixed-width UTC so stored times sort as text
	return t.UTC().Format(storedTimeFormat)
}

func formatZeroableTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return formatTime(&t)
}

func parseTime(s string) time.Time {
	// Try RFC3339Nano first, fall back to RFC3339 for compatibility
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		t, _ = time.Parse(time.RFC3339, s)
	}
	return t.Truncate(0)
}
