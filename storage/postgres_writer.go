package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"
	"github.com/rotisserie/eris"

	"abr-search/models"
	"abr-search/utils"
)

// PostgresWriter records search runs and their exported rows in PostgreSQL.
type PostgresWriter struct {
	db *sql.DB
}

// NewPostgresWriter opens a connection to PostgreSQL, runs schema migrations,
// and returns a ready-to-use PostgresWriter.
func NewPostgresWriter(ctx context.Context, dsn string, retry *utils.RetryConfig) (*PostgresWriter, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: open")
	}

	if retry == nil {
		retry = &utils.RetryConfig{MaxAttempts: 1}
	}
	if err := retry.Do(ctx, "postgres ping", func() error {
		return db.PingContext(ctx)
	}); err != nil {
		_ = db.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}

	pw := &PostgresWriter{db: db}
	if err := pw.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, eris.Wrap(err, "postgres: migrate")
	}

	return pw, nil
}

func (pw *PostgresWriter) migrate(ctx context.Context) error {
	_, err := pw.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS abr_searches (
			id              UUID         PRIMARY KEY,
			term            TEXT         NOT NULL,
			state_filter    VARCHAR(3)   NOT NULL DEFAULT '',
			postcode_filter VARCHAR(10)  NOT NULL DEFAULT '',
			record_count    INTEGER      NOT NULL DEFAULT 0,
			xml_file        TEXT         NOT NULL DEFAULT '',
			csv_file        TEXT         NOT NULL DEFAULT '',
			created_at      TIMESTAMPTZ  NOT NULL DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS abr_records (
			search_id     UUID     NOT NULL REFERENCES abr_searches(id) ON DELETE CASCADE,
			position      INTEGER  NOT NULL,
			abn           TEXT     NOT NULL DEFAULT '',
			abn_status    TEXT     NOT NULL DEFAULT '',
			business_name TEXT     NOT NULL DEFAULT '',
			name_type     TEXT     NOT NULL DEFAULT '',
			score         TEXT     NOT NULL DEFAULT '',
			is_current    TEXT     NOT NULL DEFAULT '',
			state_code    TEXT     NOT NULL DEFAULT '',
			postcode      TEXT     NOT NULL DEFAULT '',
			PRIMARY KEY (search_id, position)
		);

		CREATE INDEX IF NOT EXISTS idx_abr_records_abn        ON abr_records(abn);
		CREATE INDEX IF NOT EXISTS idx_abr_records_state_code ON abr_records(state_code);
		CREATE INDEX IF NOT EXISTS idx_abr_searches_term      ON abr_searches(term);
	`)
	return err
}

// RecordSearch stores the search run and all of its rows in one transaction.
func (pw *PostgresWriter) RecordSearch(ctx context.Context, result *models.SearchResult) (err error) {
	tx, err := pw.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "postgres: begin")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	created := result.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO abr_searches (id, term, state_filter, postcode_filter, record_count, xml_file, csv_file, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, result.ID, result.Query.Term, string(result.Query.State), result.Query.Postcode,
		result.RecordCount, result.XMLFile, result.CSVFile, created)
	if err != nil {
		return eris.Wrap(err, "postgres: insert search")
	}

	for _, b := range recordBatches(len(result.Rows), recordBatchSize) {
		if err = insertBatch(ctx, tx, result.ID, b[0], result.Rows[b[0]:b[1]]); err != nil {
			return eris.Wrap(err, "postgres: insert records")
		}
	}

	if err = tx.Commit(); err != nil {
		return eris.Wrap(err, "postgres: commit")
	}
	return nil
}

const (
	recordColumns   = 10
	recordBatchSize = 50
)

// recordBatches splits n rows into [start, end) ranges of at most size rows.
func recordBatches(n, size int) [][2]int {
	var out [][2]int
	for i := 0; i < n; i += size {
		end := i + size
		if end > n {
			end = n
		}
		out = append(out, [2]int{i, end})
	}
	return out
}

func insertBatch(ctx context.Context, tx *sql.Tx, searchID string, offset int, batch []models.OutputRow) error {
	query, args := buildRecordInsert(searchID, offset, batch)
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

// buildRecordInsert returns a multi-row INSERT for batch. Placeholders restart
// at $1 for every batch; positions continue from offset.
func buildRecordInsert(searchID string, offset int, batch []models.OutputRow) (string, []interface{}) {
	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]interface{}, 0, len(batch)*recordColumns)

	for idx, r := range batch {
		base := idx * recordColumns
		ph := make([]string, recordColumns)
		for c := range ph {
			ph[c] = fmt.Sprintf("$%d", base+c+1)
		}
		valueStrings = append(valueStrings, "("+strings.Join(ph, ",")+")")
		valueArgs = append(valueArgs,
			searchID, offset+idx,
			r.ABN, r.ABNStatus, r.BusinessName, r.NameType,
			r.Score, r.IsCurrent, r.StateCode, r.Postcode)
	}

	query := fmt.Sprintf(`
		INSERT INTO abr_records (search_id, position, abn, abn_status, business_name, name_type, score, is_current, state_code, postcode)
		VALUES %s
	`, strings.Join(valueStrings, ","))
	return query, valueArgs
}

// FetchRows returns the rows recorded for a search, in export order.
func (pw *PostgresWriter) FetchRows(ctx context.Context, searchID string) ([]models.OutputRow, error) {
	rows, err := pw.db.QueryContext(ctx, `
		SELECT abn, abn_status, business_name, name_type, score, is_current, state_code, postcode
		FROM abr_records
		WHERE search_id = $1
		ORDER BY position
	`, searchID)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: fetch rows")
	}
	defer rows.Close()

	var out []models.OutputRow
	for rows.Next() {
		var r models.OutputRow
		if err := rows.Scan(
			&r.ABN, &r.ABNStatus, &r.BusinessName, &r.NameType,
			&r.Score, &r.IsCurrent, &r.StateCode, &r.Postcode,
		); err != nil {
			return nil, eris.Wrap(err, "postgres: scan row")
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (pw *PostgresWriter) Close() error {
	return pw.db.Close()
}
