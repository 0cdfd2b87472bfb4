package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"slices"
	"sort"
	"sync"

	"rescribe/internal/domain"
	models "rescribe/internal/domain/models/structure"
	"rescribe/internal/domain/repositories"
)

type source map[string]any

// Index is an in-memory SearchIndex. Documents are kept as decoded JSON so
// that field names match the ones the real index sees.
type Index struct {
	mu      sync.RWMutex
	indices map[string]map[string]source

	// BulkErr, when set, is returned by every Bulk call before anything is applied
	BulkErr error
}

var _ repositories.SearchIndex = (*Index)(nil)

func NewIndex() *Index {
	return &Index{indices: make(map[string]map[string]source)}
}

// Count returns the number of documents in index whose field equals value
func (x *Index) Count(index, field string, value any) int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	n := 0
	for _, doc := range x.indices[index] {
		if termMatches(doc, repositories.Term{Field: field, Value: value}) {
			n++
		}
	}
	return n
}

// Source returns a copy of a stored document, or nil
func (x *Index) Source(index, id string) map[string]any {
	x.mu.RLock()
	defer x.mu.RUnlock()
	doc, ok := x.indices[index][id]
	if !ok {
		return nil
	}
	var out map[string]any
	_ = remarshal(doc, &out)
	return out
}

func (x *Index) Get(ctx context.Context, index, id string, dest any) error {
	x.mu.RLock()
	defer x.mu.RUnlock()
	doc, ok := x.indices[index][id]
	if !ok {
		return fmt.Errorf("%s document %s: %w", index, id, domain.ErrNotFound)
	}
	return remarshal(doc, dest)
}

func (x *Index) Index(ctx context.Context, index, id string, doc any) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.put(index, id, doc)
}

func (x *Index) Update(ctx context.Context, index, id string, partial any) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	doc, ok := x.indices[index][id]
	if !ok {
		return fmt.Errorf("%s document %s: %w", index, id, domain.ErrNotFound)
	}
	var fields source
	if err := remarshal(partial, &fields); err != nil {
		return err
	}
	for k, v := range fields {
		doc[k] = v
	}
	return nil
}

func (x *Index) Delete(ctx context.Context, index, id string) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	delete(x.indices[index], id)
	return nil
}

func (x *Index) Bulk(ctx context.Context, index string, writes []models.Write) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.BulkErr != nil {
		return x.BulkErr
	}
	for _, w := range writes {
		switch w.Action {
		case models.WriteAdd:
			if err := x.put(index, w.ID, w.Document); err != nil {
				return err
			}
		case models.WriteUpdate:
			doc, ok := x.indices[index][w.ID]
			if !ok {
				return fmt.Errorf("%s document %s: %w", index, w.ID, domain.ErrNotFound)
			}
			applyPatch(doc, w.Patch)
		case models.WriteDelete:
			delete(x.indices[index], w.ID)
		}
	}
	return nil
}

func (x *Index) Search(ctx context.Context, index string, q repositories.Query) ([]string, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	var ids []string
	for id, doc := range x.indices[index] {
		if queryMatches(doc, q) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	if q.Size > 0 && len(ids) > q.Size {
		ids = ids[:q.Size]
	}
	return ids, nil
}

func (x *Index) UpdateByQuery(ctx context.Context, index string, q repositories.Query, script repositories.Script) (int, error) {
	x.mu.Lock()
	defer x.mu.Unlock()
	if script.Op != repositories.ScriptArrayRemove {
		return 0, fmt.Errorf("unsupported script %q", script.Op)
	}
	n := 0
	for _, doc := range x.indices[index] {
		if !queryMatches(doc, q) {
			continue
		}
		values, _ := doc[script.Field].([]any)
		doc[script.Field] = slices.DeleteFunc(values, func(v any) bool { return reflect.DeepEqual(v, script.Value) })
		n++
	}
	return n, nil
}

func (x *Index) put(index, id string, doc any) error {
	var src source
	if err := remarshal(doc, &src); err != nil {
		return err
	}
	if x.indices[index] == nil {
		x.indices[index] = make(map[string]source)
	}
	x.indices[index][id] = src
	return nil
}

func applyPatch(doc source, p *models.Patch) {
	if p == nil {
		return
	}
	var branches []string
	if raw, ok := doc["branches"].([]any); ok {
		for _, b := range raw {
			if s, ok := b.(string); ok {
				branches = append(branches, s)
			}
		}
	}
	branches = patchBranches(branches, p)
	doc["branches"] = toAny(branches)
	doc["numBranches"] = float64(len(branches))
	if p.FileLength != nil {
		doc["fileLength"] = float64(*p.FileLength)
	}
	if p.Analysis != nil {
		var analysis any
		if err := json.Unmarshal(p.Analysis, &analysis); err == nil {
			doc["analysis"] = analysis
		}
	}
	if !p.UpdatedAt.IsZero() {
		doc["updated"] = float64(p.UpdatedAt.UnixMilli())
	}
}

func queryMatches(doc source, q repositories.Query) bool {
	for _, t := range q.Must {
		if !termMatches(doc, t) {
			return false
		}
	}
	if len(q.Should) == 0 {
		return true
	}
	for _, t := range q.Should {
		if termMatches(doc, t) {
			return true
		}
	}
	return false
}

func termMatches(doc source, t repositories.Term) bool {
	var want any
	if err := remarshal(t.Value, &want); err != nil {
		return false
	}
	switch got := doc[t.Field].(type) {
	case []any:
		return slices.ContainsFunc(got, func(v any) bool { return reflect.DeepEqual(v, want) })
	default:
		return reflect.DeepEqual(got, want)
	}
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

func remarshal(in, out any) error {
	b, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	if err := json.Unmarshal(b, out); err != nil {
		return fmt.Errorf("decode document: %w", err)
	}
	return nil
}
