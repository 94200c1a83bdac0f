package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/google/uuid"
)

// Archive keeps one JSON file per crawl run in a directory.
type Archive struct {
	storageDir string
}

// ArchivedRun is the content of one archive file.
type ArchivedRun struct {
	Run  RunInfo `json:"run"`
	Rows []Row   `json:"rows"`
}

// ReadError describes a failure to read a single archive file.
type ReadError struct {
	Filename string
	Err      error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("%s: %v", e.Filename, e.Err)
}

// ArchiveListResult contains the runs read from the archive, including any
// per-file errors that occurred during the operation.
type ArchiveListResult struct {
	Runs   []ArchivedRun
	Errors []ReadError
}

// NewArchive creates an archive in storageDir, creating the directory if
// needed.
func NewArchive(storageDir string) (*Archive, error) {
	// 0700: owner-only access
	if err := os.MkdirAll(storageDir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create archive directory: %w", err)
	}

	return &Archive{storageDir: storageDir}, nil
}

func (a *Archive) path(crawlID uuid.UUID) string {
	return filepath.Join(a.storageDir, crawlID.String()+".json")
}

// AppendRecords writes the run and its rows to <crawl_id>.json.
func (a *Archive) AppendRecords(ctx context.Context, run RunInfo, rows []Row) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.MarshalIndent(ArchivedRun{Run: run, Rows: rows}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal run: %w", err)
	}

	// 0600: owner-only read/write
	if err := os.WriteFile(a.path(run.CrawlID), data, 0o600); err != nil {
		return fmt.Errorf("failed to write run: %w", err)
	}

	return nil
}

// List returns every archived run, oldest first. Corrupted or invalid files
// are collected in the result's Errors slice rather than causing the entire
// operation to fail.
func (a *Archive) List() (*ArchiveListResult, error) {
	entries, err := os.ReadDir(a.storageDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read archive directory: %w", err)
	}

	result := &ArchiveListResult{}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}

		data, err := os.ReadFile(filepath.Join(a.storageDir, entry.Name()))
		if err != nil {
			result.Errors = append(result.Errors, ReadError{Filename: entry.Name(), Err: err})
			continue
		}

		var archived ArchivedRun
		if err := json.Unmarshal(data, &archived); err != nil {
			result.Errors = append(result.Errors, ReadError{Filename: entry.Name(), Err: err})
			continue
		}

		result.Runs = append(result.Runs, archived)
	}

	sort.SliceStable(result.Runs, func(i, j int) bool {
		return result.Runs[i].Run.StartedAt.Before(result.Runs[j].Run.StartedAt)
	})

	return result, nil
}

// Get retrieves an archived run by crawl ID. It returns nil without error
// when the run is not archived.
func (a *Archive) Get(crawlID uuid.UUID) (*ArchivedRun, error) {
	data, err := os.ReadFile(a.path(crawlID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read run: %w", err)
	}

	var archived ArchivedRun
	if err := json.Unmarshal(data, &archived); err != nil {
		return nil, fmt.Errorf("failed to unmarshal run: %w", err)
	}

	return &archived, nil
}
