package services

import (
	"context"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"abr-search/abr"
	"abr-search/models"
	"abr-search/storage"
	"abr-search/utils"
)

// Searcher fetches the raw registry payload for a query.
type Searcher interface {
	Search(ctx context.Context, q models.SearchQuery) (string, error)
}

// Pipeline runs one search end to end: fetch, keep the raw payload, extract,
// export CSV and optionally record the run.
type Pipeline struct {
	searcher Searcher
	store    storage.ArtifactStore
	recorder storage.SearchRecorder
	logger   *utils.Logger
	now      func() time.Time
}

// NewPipeline wires a Pipeline. recorder may be nil.
func NewPipeline(searcher Searcher, store storage.ArtifactStore, recorder storage.SearchRecorder, logger *utils.Logger) *Pipeline {
	if logger == nil {
		logger = utils.NewNopLogger()
	}
	return &Pipeline{
		searcher: searcher,
		store:    store,
		recorder: recorder,
		logger:   logger,
		now:      time.Now,
	}
}

// Run executes q. Registry and extraction failures are returned unchanged so
// callers can inspect them with abr.KindOf. When extraction fails the raw XML
// has already been saved but no CSV is written.
func (p *Pipeline) Run(ctx context.Context, q models.SearchQuery) (*models.SearchResult, error) {
	payload, err := p.searcher.Search(ctx, q)
	if err != nil {
		p.logger.Error("[pipeline] Search for %q failed: %v", q.Term, err)
		return nil, err
	}

	now := p.now()
	base := ArtifactName(q, now)
	result := &models.SearchResult{
		ID:        uuid.NewString(),
		Query:     q,
		XMLFile:   base + ".xml",
		CreatedAt: now,
	}

	if err := p.store.SaveXML(result.XMLFile, payload); err != nil {
		return nil, eris.Wrap(err, "save raw payload")
	}
	p.logger.Info("[pipeline] Saved XML file: %s", result.XMLFile)

	rows, err := abr.ExtractString(payload)
	if err != nil {
		p.logger.Error("[pipeline] Could not parse %s: %v", result.XMLFile, err)
		return nil, err
	}

	result.CSVFile = base + ".csv"
	if err := p.store.WriteCSV(result.CSVFile, rows); err != nil {
		return nil, eris.Wrap(err, "write csv export")
	}
	result.Rows = rows
	result.RecordCount = len(rows)
	p.logger.Info("[pipeline] Converted %d records to %s", result.RecordCount, result.CSVFile)

	if p.recorder != nil {
		if err := p.recorder.RecordSearch(ctx, result); err != nil {
			p.logger.Warn("[pipeline] PostgreSQL write failed for %s: %v", result.ID, err)
		}
	}

	return result, nil
}

// ConvertFile extracts the registry payload at xmlPath into a CSV at csvPath
// and returns the number of records written.
func ConvertFile(xmlPath, csvPath string) (int, error) {
	f, err := os.Open(xmlPath)
	if err != nil {
		return 0, eris.Wrapf(err, "open %q", xmlPath)
	}
	defer f.Close() //nolint:errcheck

	rows, err := abr.Extract(f)
	if err != nil {
		return 0, err
	}
	if err := storage.WriteCSVFile(csvPath, rows); err != nil {
		return 0, err
	}
	return len(rows), nil
}
