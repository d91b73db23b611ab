package storage

import (
	"context"

	"abr-search/models"
)

// ArtifactStore is the interface for persisting raw payloads and exports.
type ArtifactStore interface {
	SaveXML(name, payload string) error
	WriteCSV(name string, rows []models.OutputRow) error
}

// SearchRecorder is the interface any search history backend must satisfy.
type SearchRecorder interface {
	RecordSearch(ctx context.Context, result *models.SearchResult) error
	Close() error
}
