package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/elastic/go-elasticsearch/v9/esutil"
)

// DefaultElasticIndex is the index offers are written to when none is set.
const DefaultElasticIndex = "offres"

// ElasticConfig configures the Elasticsearch store.
type ElasticConfig struct {
	Addresses []string `yaml:"addresses"`
	Username  string   `yaml:"username"`
	Password  string   `yaml:"password"`
	Index     string   `yaml:"index"`
}

// ElasticStore indexes offers into Elasticsearch, one document per row.
type ElasticStore struct {
	client *elasticsearch.Client
	index  string
}

// elasticDoc is the indexed document: the row plus run context.
type elasticDoc struct {
	Row
	URLTemplate string    `json:"url_template"`
	CrawledAt   time.Time `json:"crawled_at"`
}

// NewElasticStore creates an Elasticsearch store.
func NewElasticStore(config ElasticConfig) (*ElasticStore, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: config.Addresses,
		Username:  config.Username,
		Password:  config.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Elasticsearch client: %w", err)
	}

	index := config.Index
	if index == "" {
		index = DefaultElasticIndex
	}

	return &ElasticStore{client: client, index: index}, nil
}

// AppendRecords bulk-indexes rows using the row ID as document ID. Any item
// that fails to index makes the whole append fail.
func (s *ElasticStore) AppendRecords(ctx context.Context, run RunInfo, rows []Row) error {
	if len(rows) == 0 {
		return nil
	}

	var mu sync.Mutex
	var firstErr error
	record := func(err error) {
		mu.Lock()
		defer mu.Unlock()
		if firstErr == nil {
			firstErr = err
		}
	}

	bi, err := esutil.NewBulkIndexer(esutil.BulkIndexerConfig{
		Index:      s.index,
		Client:     s.client,
		NumWorkers: 1,
		OnError: func(_ context.Context, err error) {
			record(err)
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create bulk indexer: %w", err)
	}

	crawledAt := run.FinishedAt
	if crawledAt.IsZero() {
		crawledAt = time.Now()
	}

	for _, row := range rows {
		data, err := json.Marshal(elasticDoc{Row: row, URLTemplate: run.URLTemplate, CrawledAt: crawledAt})
		if err != nil {
			bi.Close(ctx)
			return fmt.Errorf("failed to marshal offer %d: %w", row.Position, err)
		}

		err = bi.Add(ctx, esutil.BulkIndexerItem{
			Action:     "index",
			DocumentID: row.ID.String(),
			Body:       bytes.NewReader(data),
			OnFailure: func(_ context.Context, item esutil.BulkIndexerItem, res esutil.BulkIndexerResponseItem, err error) {
				if err == nil {
					err = fmt.Errorf("%s: %s", res.Error.Type, res.Error.Reason)
				}
				record(fmt.Errorf("failed to index offer %s: %w", item.DocumentID, err))
			},
		})
		if err != nil {
			bi.Close(ctx)
			return fmt.Errorf("failed to queue offer %d: %w", row.Position, err)
		}
	}

	if err := bi.Close(ctx); err != nil {
		return fmt.Errorf("failed to flush bulk indexer: %w", err)
	}

	stats := bi.Stats()
	mu.Lock()
	defer mu.Unlock()
	if stats.NumFailed > 0 || firstErr != nil {
		return fmt.Errorf("failed to index %d of %d offers: %v", stats.NumFailed, len(rows), firstErr)
	}

	return nil
}
