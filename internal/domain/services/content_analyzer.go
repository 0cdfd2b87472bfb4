package services

import (
	"context"
	"encoding/json"
)

// AnalyzeRequest is the input of the content analysis service
type AnalyzeRequest struct {
	ID       string `json:"id"`
	FileName string `json:"fileName"`
	Path     string `json:"path"`
	Content  string `json:"content"`
}

// ContentAnalyzer returns per-line and per-symbol annotations used to
// enrich the search index. The result is opaque to this service.
type ContentAnalyzer interface {
	Analyze(ctx context.Context, req *AnalyzeRequest) (json.RawMessage, error)
}
