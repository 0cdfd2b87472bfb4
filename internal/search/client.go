// Package search implements the search index on Elasticsearch.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"rescribe/internal/domain"
	models "rescribe/internal/domain/models/structure"
	"rescribe/internal/domain/repositories"
)

// maxResultWindow is the default index.max_result_window
const maxResultWindow = 10000

// Config holds connection settings
type Config struct {
	Addresses []string
	Username  string
	Password  string
	// Refresh is passed to write requests ("", "true", "false", "wait_for")
	Refresh string
}

// Client implements repositories.SearchIndex
type Client struct {
	es      *elasticsearch.Client
	refresh string
	logger  *slog.Logger
}

var _ repositories.SearchIndex = (*Client)(nil)

// NewClient creates a client for the given cluster
func NewClient(cfg Config, logger *slog.Logger) (*Client, error) {
	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: cfg.Addresses,
		Username:  cfg.Username,
		Password:  cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("create elasticsearch client: %w", err)
	}
	return &Client{es: es, refresh: cfg.Refresh, logger: logger}, nil
}

// Get loads the _source of a document into dest
func (c *Client) Get(ctx context.Context, index, id string, dest any) error {
	res, err := c.es.Get(index, id, c.es.Get.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("get %s/%s: %w", index, id, err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%s document %s: %w", index, id, domain.ErrNotFound)
	}
	if err := responseError(res, "get "+index); err != nil {
		return err
	}

	var body struct {
		Source json.RawMessage `json:"_source"`
	}
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return fmt.Errorf("decode %s/%s: %w", index, id, err)
	}
	if err := json.Unmarshal(body.Source, dest); err != nil {
		return fmt.Errorf("decode %s/%s source: %w", index, id, err)
	}
	return nil
}

// Index creates or replaces a document
func (c *Client) Index(ctx context.Context, index, id string, doc any) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", index, id, err)
	}
	opts := []func(*esapi.IndexRequest){
		c.es.Index.WithDocumentID(id),
		c.es.Index.WithContext(ctx),
	}
	if c.refresh != "" {
		opts = append(opts, c.es.Index.WithRefresh(c.refresh))
	}
	res, err := c.es.Index(index, bytes.NewReader(body), opts...)
	if err != nil {
		return fmt.Errorf("index %s/%s: %w", index, id, err)
	}
	defer res.Body.Close()
	return responseError(res, "index "+index)
}

// Update merges partial into an existing document
func (c *Client) Update(ctx context.Context, index, id string, partial any) error {
	body, err := json.Marshal(map[string]any{"doc": partial})
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", index, id, err)
	}
	opts := []func(*esapi.UpdateRequest){c.es.Update.WithContext(ctx)}
	if c.refresh != "" {
		opts = append(opts, c.es.Update.WithRefresh(c.refresh))
	}
	res, err := c.es.Update(index, id, bytes.NewReader(body), opts...)
	if err != nil {
		return fmt.Errorf("update %s/%s: %w", index, id, err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%s document %s: %w", index, id, domain.ErrNotFound)
	}
	return responseError(res, "update "+index)
}

// Delete removes a document. A missing document is not an error.
func (c *Client) Delete(ctx context.Context, index, id string) error {
	opts := []func(*esapi.DeleteRequest){c.es.Delete.WithContext(ctx)}
	if c.refresh != "" {
		opts = append(opts, c.es.Delete.WithRefresh(c.refresh))
	}
	res, err := c.es.Delete(index, id, opts...)
	if err != nil {
		return fmt.Errorf("delete %s/%s: %w", index, id, err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return nil
	}
	return responseError(res, "delete "+index)
}

// Bulk sends writes as one NDJSON bulk request. Item failures are combined;
// a delete of a missing document counts as success.
func (c *Client) Bulk(ctx context.Context, index string, writes []models.Write) error {
	if len(writes) == 0 {
		return nil
	}
	body, err := encodeBulk(writes)
	if err != nil {
		return err
	}

	opts := []func(*esapi.BulkRequest){
		c.es.Bulk.WithIndex(index),
		c.es.Bulk.WithContext(ctx),
	}
	if c.refresh != "" {
		opts = append(opts, c.es.Bulk.WithRefresh(c.refresh))
	}
	res, err := c.es.Bulk(bytes.NewReader(body), opts...)
	if err != nil {
		return fmt.Errorf("bulk %s: %w", index, err)
	}
	defer res.Body.Close()
	if err := responseError(res, "bulk "+index); err != nil {
		return err
	}

	var br bulkResponse
	if err := json.NewDecoder(res.Body).Decode(&br); err != nil {
		return fmt.Errorf("decode bulk response: %w", err)
	}
	if err := br.itemErrors(); err != nil {
		return fmt.Errorf("bulk %s: %w", index, err)
	}
	return nil
}

// Search returns the IDs of documents matching q
func (c *Client) Search(ctx context.Context, index string, q repositories.Query) ([]string, error) {
	size := q.Size
	if size <= 0 || size > maxResultWindow {
		size = maxResultWindow
	}
	body, err := json.Marshal(map[string]any{
		"query":   boolQuery(q),
		"_source": false,
		"sort":    []any{"_doc"},
	})
	if err != nil {
		return nil, fmt.Errorf("encode query: %w", err)
	}

	res, err := c.es.Search(
		c.es.Search.WithContext(ctx),
		c.es.Search.WithIndex(index),
		c.es.Search.WithBody(bytes.NewReader(body)),
		c.es.Search.WithSize(size),
	)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", index, err)
	}
	defer res.Body.Close()
	if err := responseError(res, "search "+index); err != nil {
		return nil, err
	}

	var sr struct {
		Hits struct {
			Hits []struct {
				ID string `json:"_id"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	ids := make([]string, len(sr.Hits.Hits))
	for i, h := range sr.Hits.Hits {
		ids[i] = h.ID
	}
	return ids, nil
}

// UpdateByQuery runs script on every matching document
func (c *Client) UpdateByQuery(ctx context.Context, index string, q repositories.Query, op repositories.Script) (int, error) {
	s, err := painless(op)
	if err != nil {
		return 0, err
	}
	body, err := json.Marshal(map[string]any{
		"query":  boolQuery(q),
		"script": s,
	})
	if err != nil {
		return 0, fmt.Errorf("encode update by query: %w", err)
	}

	res, err := c.es.UpdateByQuery([]string{index},
		c.es.UpdateByQuery.WithContext(ctx),
		c.es.UpdateByQuery.WithBody(bytes.NewReader(body)),
		c.es.UpdateByQuery.WithConflicts("proceed"),
	)
	if err != nil {
		return 0, fmt.Errorf("update by query %s: %w", index, err)
	}
	defer res.Body.Close()
	if err := responseError(res, "update by query "+index); err != nil {
		return 0, err
	}

	var ur struct {
		Updated  int               `json:"updated"`
		Failures []json.RawMessage `json:"failures"`
	}
	if err := json.NewDecoder(res.Body).Decode(&ur); err != nil {
		return 0, fmt.Errorf("decode update by query response: %w", err)
	}
	if len(ur.Failures) > 0 {
		return ur.Updated, fmt.Errorf("update by query %s: %d failures, first: %s", index, len(ur.Failures), ur.Failures[0])
	}
	return ur.Updated, nil
}

// boolQuery translates q into a bool query of term clauses
func boolQuery(q repositories.Query) map[string]any {
	b := map[string]any{}
	if len(q.Must) > 0 {
		b["filter"] = terms(q.Must)
	}
	if len(q.Should) > 0 {
		b["should"] = terms(q.Should)
		b["minimum_should_match"] = 1
	}
	if len(b) == 0 {
		return map[string]any{"match_all": map[string]any{}}
	}
	return map[string]any{"bool": b}
}

func terms(ts []repositories.Term) []any {
	out := make([]any, len(ts))
	for i, t := range ts {
		out[i] = map[string]any{"term": map[string]any{t.Field: t.Value}}
	}
	return out
}

// responseError converts an error response into a Go error
func responseError(res *esapi.Response, op string) error {
	if !res.IsError() {
		return nil
	}
	raw, _ := io.ReadAll(res.Body)
	var e struct {
		Error struct {
			Type   string `json:"type"`
			Reason string `json:"reason"`
		} `json:"error"`
	}
	if json.Unmarshal(raw, &e) == nil && e.Error.Type != "" {
		return fmt.Errorf("%s: %s: %s: %s", op, res.Status(), e.Error.Type, e.Error.Reason)
	}
	return fmt.Errorf("%s: %s", op, res.Status())
}
