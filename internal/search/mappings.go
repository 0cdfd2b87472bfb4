package search

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"net/http"

	"gopkg.in/yaml.v3"
	"rescribe/internal/domain/repositories"
)

//go:embed mappings.yaml
var mappingsYAML []byte

// Mappings returns the index definitions keyed by unprefixed index name
func Mappings() (map[string]map[string]any, error) {
	var defs map[string]map[string]any
	if err := yaml.Unmarshal(mappingsYAML, &defs); err != nil {
		return nil, fmt.Errorf("parse index mappings: %w", err)
	}
	return defs, nil
}

// EnsureIndices creates every missing index with its mapping
func (c *Client) EnsureIndices(ctx context.Context, names *repositories.IndexNames) error {
	defs, err := Mappings()
	if err != nil {
		return err
	}

	indices := map[string]string{
		"files":        names.Files,
		"folders":      names.Folders,
		"repositories": names.Repositories,
		"projects":     names.Projects,
	}
	for key, index := range indices {
		def, ok := defs[key]
		if !ok {
			return fmt.Errorf("no mapping for index %q", key)
		}

		res, err := c.es.Indices.Exists([]string{index}, c.es.Indices.Exists.WithContext(ctx))
		if err != nil {
			return fmt.Errorf("check index %s: %w", index, err)
		}
		res.Body.Close()
		if res.StatusCode == http.StatusOK {
			continue
		}

		body, err := json.Marshal(def)
		if err != nil {
			return fmt.Errorf("encode mapping %s: %w", key, err)
		}
		res, err = c.es.Indices.Create(index,
			c.es.Indices.Create.WithBody(bytes.NewReader(body)),
			c.es.Indices.Create.WithContext(ctx),
		)
		if err != nil {
			return fmt.Errorf("create index %s: %w", index, err)
		}
		err = responseError(res, "create index "+index)
		res.Body.Close()
		if err != nil {
			return err
		}
		c.logger.Info("created index", "index", index)
	}
	return nil
}
