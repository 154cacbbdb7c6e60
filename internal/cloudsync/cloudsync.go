// Package cloudsync mirrors stored transactions to BigQuery and
// organized statement documents to Cloud Storage. The mirror is
// best-effort: the local store stays the source of truth and callers
// log sync failures as warnings instead of aborting the run.
//
// Application Default Credentials are assumed (gcloud auth
// application-default login).
package cloudsync

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"

	"github.com/chakri-sirigiri/go-statements-parser/internal/fields"
	"github.com/chakri-sirigiri/go-statements-parser/internal/model"
)

// Syncer mirrors run results to Google Cloud. An empty Project
// disables the BigQuery sync; an empty Bucket disables document
// uploads.
type Syncer struct {
	Project string
	Dataset string
	Table   string
	Bucket  string
}

// Enabled reports whether any mirror target is configured.
func (s *Syncer) Enabled() bool {
	return s.Project != "" || s.Bucket != ""
}

// transactionRow adapts a record to the BigQuery row shape. Monetary
// fields go out as NUMERIC; absent fields stay NULL.
type transactionRow struct {
	rec    *model.TransactionRecord
	runID  string
	loaded time.Time
}

func (r *transactionRow) Save() (map[string]bigquery.Value, string, error) {
	row := map[string]bigquery.Value{
		"institution":    r.rec.Institution,
		"statement_date": civil.DateOf(r.rec.StatementDate),
		"source_file":    r.rec.SourceFile,
		"run_id":         r.runID,
		"loaded_ts":      r.loaded,
	}
	for _, name := range fields.Names() {
		if amt, ok := r.rec.Amount(name); ok {
			row[name] = amt.Rat()
		}
	}
	return row, insertID(r.rec), nil
}

// insertID keys BigQuery's best-effort dedupe to the statement, so a
// retried run does not double-load a row.
func insertID(rec *model.TransactionRecord) string {
	return rec.Institution + ":" + rec.SourceFile
}

// SyncRecord inserts one stored record into the configured BigQuery
// table. A Syncer without a project does nothing.
func (s *Syncer) SyncRecord(ctx context.Context, rec *model.TransactionRecord, runID string) error {
	if s.Project == "" {
		return nil
	}

	client, err := bigquery.NewClient(ctx, s.Project)
	if err != nil {
		return fmt.Errorf("creating bigquery client: %w", err)
	}
	defer client.Close()

	inserter := client.Dataset(s.Dataset).Table(s.Table).Inserter()
	row := &transactionRow{rec: rec, runID: runID, loaded: time.Now().UTC()}
	if err := inserter.Put(ctx, row); err != nil {
		return fmt.Errorf("inserting row for %s: %w", rec.SourceFile, err)
	}
	return nil
}

// MirrorCount returns how many rows the BigQuery mirror holds for an
// institution and year, for spotting drift against the local store.
func (s *Syncer) MirrorCount(ctx context.Context, institution string, year int) (int64, error) {
	if s.Project == "" {
		return 0, errors.New("bigquery sync is not configured")
	}

	client, err := bigquery.NewClient(ctx, s.Project)
	if err != nil {
		return 0, fmt.Errorf("creating bigquery client: %w", err)
	}
	defer client.Close()

	q := client.Query(fmt.Sprintf(
		"SELECT COUNT(*) AS n FROM `%s.%s` WHERE institution = @institution AND EXTRACT(YEAR FROM statement_date) = @year",
		s.Dataset, s.Table))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "institution", Value: institution},
		{Name: "year", Value: year},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return 0, fmt.Errorf("counting mirrored rows: %w", err)
	}

	var row struct {
		N int64 `bigquery:"n"`
	}
	if err := it.Next(&row); err != nil && err != iterator.Done {
		return 0, fmt.Errorf("counting mirrored rows: %w", err)
	}
	return row.N, nil
}

// ObjectName returns the bucket path for an organized statement.
func ObjectName(institution, localPath string) string {
	return institution + "/" + filepath.Base(localPath)
}

// UploadDocument copies an organized statement into the configured
// bucket and returns its gs:// URI. A Syncer without a bucket does
// nothing and returns an empty URI.
func (s *Syncer) UploadDocument(ctx context.Context, institution, localPath string) (string, error) {
	if s.Bucket == "" {
		return "", nil
	}

	f, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("open file %q: %w", localPath, err)
	}
	defer f.Close()

	client, err := storage.NewClient(ctx)
	if err != nil {
		return "", fmt.Errorf("create storage client: %w", err)
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	objectName := ObjectName(institution, localPath)
	w := client.Bucket(s.Bucket).Object(objectName).NewWriter(ctx)
	if _, err := io.Copy(w, f); err != nil {
		w.Close()
		return "", fmt.Errorf("copy file to GCS writer: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("finalize upload: %w", err)
	}

	return fmt.Sprintf("gs://%s/%s", s.Bucket, objectName), nil
}
