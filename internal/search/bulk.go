package search

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/hashicorp/go-multierror"
	models "rescribe/internal/domain/models/structure"
	"rescribe/internal/domain/repositories"
)

// patchScript applies a models.Patch to a file or folder document
const patchScript = `
if (params.remove != null && ctx._source.branches != null) {
  ctx._source.branches.removeIf(b -> b == params.remove);
}
if (params.add != null) {
  if (ctx._source.branches == null) { ctx._source.branches = []; }
  if (!ctx._source.branches.contains(params.add)) { ctx._source.branches.add(params.add); }
}
ctx._source.numBranches = ctx._source.branches == null ? 0 : ctx._source.branches.size();
if (params.fileLength != null) { ctx._source.fileLength = params.fileLength; }
if (params.analysis != null) { ctx._source.analysis = params.analysis; }
if (params.updated != null) { ctx._source.updated = params.updated; }
`

const arrayRemoveScript = `
if (ctx._source[params.field] != null) {
  ctx._source[params.field].removeIf(v -> v == params.value);
}
`

type bulkAction struct {
	ID string `json:"_id"`
}

type script struct {
	Source string         `json:"source"`
	Lang   string         `json:"lang"`
	Params map[string]any `json:"params"`
}

// encodeBulk renders writes as NDJSON action/source pairs
func encodeBulk(writes []models.Write) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)

	for _, w := range writes {
		var action string
		var source any
		switch w.Action {
		case models.WriteAdd:
			action, source = "index", w.Document
		case models.WriteUpdate:
			if w.Patch == nil {
				return nil, fmt.Errorf("update %s without patch", w.ID)
			}
			action, source = "update", map[string]any{"script": patchParams(w.Patch)}
		case models.WriteDelete:
			action = "delete"
		default:
			return nil, fmt.Errorf("%s: unknown action %q", w.ID, w.Action)
		}

		if err := enc.Encode(map[string]bulkAction{action: {ID: w.ID}}); err != nil {
			return nil, fmt.Errorf("encode bulk action: %w", err)
		}
		if source != nil {
			if err := enc.Encode(source); err != nil {
				return nil, fmt.Errorf("encode bulk source %s: %w", w.ID, err)
			}
		}
	}
	return buf.Bytes(), nil
}

func patchParams(p *models.Patch) script {
	params := map[string]any{}
	if p.RemoveBranch != "" {
		params["remove"] = p.RemoveBranch
	}
	if p.AddBranch != "" {
		params["add"] = p.AddBranch
	}
	if p.FileLength != nil {
		params["fileLength"] = *p.FileLength
	}
	if p.Analysis != nil {
		params["analysis"] = p.Analysis
	}
	if !p.UpdatedAt.IsZero() {
		params["updated"] = p.UpdatedAt.UnixMilli()
	}
	return script{Source: patchScript, Lang: "painless", Params: params}
}

func painless(s repositories.Script) (script, error) {
	switch s.Op {
	case repositories.ScriptArrayRemove:
		return script{
			Source: arrayRemoveScript,
			Lang:   "painless",
			Params: map[string]any{"field": s.Field, "value": s.Value},
		}, nil
	default:
		return script{}, fmt.Errorf("unsupported script %q", s.Op)
	}
}

type bulkItem struct {
	ID     string `json:"_id"`
	Status int    `json:"status"`
	Error  *struct {
		Type   string `json:"type"`
		Reason string `json:"reason"`
	} `json:"error,omitempty"`
}

type bulkResponse struct {
	Errors bool                  `json:"errors"`
	Items  []map[string]bulkItem `json:"items"`
}

func (r *bulkResponse) itemErrors() error {
	if !r.Errors {
		return nil
	}
	var result *multierror.Error
	for _, item := range r.Items {
		for action, res := range item {
			if action == "delete" && res.Status == http.StatusNotFound {
				continue
			}
			if res.Error == nil && res.Status < 300 {
				continue
			}
			reason := http.StatusText(res.Status)
			if res.Error != nil {
				reason = res.Error.Type + ": " + res.Error.Reason
			}
			result = multierror.Append(result, fmt.Errorf("%s %s: %s", action, res.ID, reason))
		}
	}
	return result.ErrorOrNil()
}
