// internal/common/database/elasticsearch.go
package database

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"loanflow-workers/internal/common/config"

	"github.com/elastic/go-elasticsearch/v8"
)

// documentsIndexMapping provisions the search index for uploaded documents.
// extractedText carries the full text-layer content and is what chat context
// lookups and full-text queries match against. String fields keep the
// text-plus-keyword shape dynamic mapping would produce, so indexes created
// either way answer the same term and multi_match queries.
const documentsIndexMapping = `{
  "mappings": {
    "properties": {
      "applicationId": {"type": "text", "fields": {"keyword": {"type": "keyword"}}},
      "filename":      {"type": "text", "fields": {"keyword": {"type": "keyword"}}},
      "contentType":   {"type": "text", "fields": {"keyword": {"type": "keyword"}}},
      "sizeBytes":     {"type": "long"},
      "extractedText": {"type": "text"},
      "preview":       {"type": "text", "index": false},
      "createdAt":     {"type": "date"}
    }
  }
}`

// ElasticsearchClient carries the shared search client. The raw client is
// exported because the document and query workers issue their own esapi
// requests against it.
type ElasticsearchClient struct {
	Client *elasticsearch.Client
}

// NewElasticsearch builds the client from config. Credentials are optional;
// local stacks run without auth.
func NewElasticsearch(cfg config.ElasticsearchConfig) (*ElasticsearchClient, error) {
	esCfg := elasticsearch.Config{
		Addresses: cfg.Addresses,
	}
	if cfg.Username != "" {
		esCfg.Username = cfg.Username
		esCfg.Password = cfg.Password
	}

	es, err := elasticsearch.NewClient(esCfg)
	if err != nil {
		return nil, fmt.Errorf("create elasticsearch client: %w", err)
	}
	return &ElasticsearchClient{Client: es}, nil
}

// Ping verifies the cluster answers.
func (c *ElasticsearchClient) Ping(ctx context.Context) error {
	res, err := c.Client.Ping(c.Client.Ping.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("elasticsearch ping: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("elasticsearch ping: %s", res.Status())
	}
	return nil
}

// EnsureDocumentIndex creates the documents index with its mapping when it
// does not exist yet. It runs on every startup next to the postgres schema
// bootstrap so a fresh stack is searchable immediately.
func (c *ElasticsearchClient) EnsureDocumentIndex(ctx context.Context, name string) error {
	exists, err := c.Client.Indices.Exists(
		[]string{name},
		c.Client.Indices.Exists.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("check index %s: %w", name, err)
	}
	defer exists.Body.Close()

	if exists.StatusCode == http.StatusOK {
		return nil
	}
	if exists.StatusCode != http.StatusNotFound {
		return fmt.Errorf("check index %s: %s", name, exists.Status())
	}

	res, err := c.Client.Indices.Create(
		name,
		c.Client.Indices.Create.WithBody(strings.NewReader(documentsIndexMapping)),
		c.Client.Indices.Create.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("create index %s: %w", name, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("create index %s: %s", name, res.Status())
	}
	return nil
}
