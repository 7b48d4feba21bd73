package domain

import "time"

type DocumentStatus string

const (
	StatusUploaded   DocumentStatus = "uploaded"
	StatusProcessing DocumentStatus = "processing"
	StatusIndexed    DocumentStatus = "indexed"
	StatusFailed     DocumentStatus = "failed"
)

// SourceDocument is a legal source file (a statute PDF) tracked through the
// extract-chunk-embed-index pipeline.
type SourceDocument struct {
	ID          string         `json:"id"`
	Filename    string         `json:"filename"`
	MimeType    string         `json:"mime_type"`
	StoragePath string         `json:"storage_path"`
	LawTitle    string         `json:"law_title,omitempty"`
	Status      DocumentStatus `json:"status"`
	Error       string         `json:"error,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// IndexStats summarizes one extraction+indexing run over a document.
type IndexStats struct {
	LawTitle       string `json:"law_title"`
	TotalArticles  int    `json:"total_articles"`
	InForce        int    `json:"in_force"`
	Vetoed         int    `json:"vetoed"`
	PassagesStored int    `json:"passages_stored"`
}

// DocumentFailure records a per-document extraction failure inside a batch.
// Batches never abort on a single bad file; failures are collected instead.
type DocumentFailure struct {
	Filename string `json:"filename"`
	Reason   string `json:"reason"`
}

// BatchReport aggregates a folder-level indexing run.
type BatchReport struct {
	Documents      int               `json:"documents"`
	TotalArticles  int               `json:"total_articles"`
	InForce        int               `json:"in_force"`
	Vetoed         int               `json:"vetoed"`
	PassagesStored int               `json:"passages_stored"`
	Failures       []DocumentFailure `json:"failures,omitempty"`
}
