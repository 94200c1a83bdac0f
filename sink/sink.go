// Package sink hands crawl results to persistent storage. Records are
// converted to fixed-shape rows in discovery order and delegated to a
// Store; storage failures are returned to the caller, never swallowed.
package sink

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pevans/hellowork/offers"
)

// ErrNoStore is returned by Flush when the sink has no store.
var ErrNoStore = errors.New("no store configured")

// Columns lists the dataset columns in export order.
var Columns = []string{
	"titre",
	"entreprise",
	"localisation",
	"salaire",
	"date_publication",
	"description",
}

// Row is one stored listing. Identity is assigned here, not by the crawler.
type Row struct {
	ID          uuid.UUID  `json:"id"`
	CrawlID     uuid.UUID  `json:"crawl_id"`
	Position    int        `json:"position"`
	Title       *string    `json:"titre"`
	Company     *string    `json:"entreprise"`
	Location    *string    `json:"localisation"`
	SalaryText  *string    `json:"salaire"`
	PublishedAt *time.Time `json:"date_publication"`
	Description *string    `json:"description"`
}

// Record converts the row back to a crawler record.
func (r Row) Record() offers.Record {
	return offers.Record{
		Title:       r.Title,
		Company:     r.Company,
		Location:    r.Location,
		SalaryText:  r.SalaryText,
		PublishedAt: r.PublishedAt,
		Description: r.Description,
	}
}

// RunInfo describes one crawl invocation.
type RunInfo struct {
	CrawlID     uuid.UUID `json:"crawl_id"`
	URLTemplate string    `json:"url_template"`
	StartPage   int       `json:"start_page"`
	EndPage     int       `json:"end_page"`
	PagesOK     int       `json:"pages_ok"`
	PagesFailed int       `json:"pages_failed"`
	Records     int       `json:"records"`
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at"`
}

// NewRunInfo creates run metadata with a fresh crawl ID.
func NewRunInfo(urlTemplate string, startPage, endPage int) RunInfo {
	return RunInfo{
		CrawlID:     uuid.New(),
		URLTemplate: urlTemplate,
		StartPage:   startPage,
		EndPage:     endPage,
	}
}

// Store persists the rows of one crawl run.
type Store interface {
	AppendRecords(ctx context.Context, run RunInfo, rows []Row) error
}

// ToRows converts a dataset to rows, one per record, keeping order.
func ToRows(crawlID uuid.UUID, dataset offers.Dataset) []Row {
	rows := make([]Row, 0, len(dataset))
	for i, r := range dataset {
		rows = append(rows, Row{
			ID:          uuid.New(),
			CrawlID:     crawlID,
			Position:    i,
			Title:       r.Title,
			Company:     r.Company,
			Location:    r.Location,
			SalaryText:  r.SalaryText,
			PublishedAt: r.PublishedAt,
			Description: r.Description,
		})
	}
	return rows
}

// Sink flushes datasets to a store.
type Sink struct {
	store Store
}

// NewSink creates a sink writing to store.
func NewSink(store Store) *Sink {
	return &Sink{store: store}
}

// Flush converts dataset to rows and stores them with run. An empty dataset
// is still flushed so the run itself is recorded. The stored rows are
// returned on success.
func (s *Sink) Flush(ctx context.Context, run RunInfo, dataset offers.Dataset) ([]Row, error) {
	if s.store == nil {
		return nil, ErrNoStore
	}

	run.Records = len(dataset)
	rows := ToRows(run.CrawlID, dataset)

	if err := s.store.AppendRecords(ctx, run, rows); err != nil {
		return nil, fmt.Errorf("failed to store %d records: %w", len(rows), err)
	}

	return rows, nil
}

// multiStore writes to several stores in order.
type multiStore []Store

// Multi returns a store that appends to each store in order, stopping at the
// first failure. Nil stores are skipped.
func Multi(stores ...Store) Store {
	var m multiStore
	for _, s := range stores {
		if s != nil {
			m = append(m, s)
		}
	}
	return m
}

func (m multiStore) AppendRecords(ctx context.Context, run RunInfo, rows []Row) error {
	for _, s := range m {
		if err := s.AppendRecords(ctx, run, rows); err != nil {
			return err
		}
	}
	return nil
}
