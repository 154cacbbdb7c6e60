// Package processor drives a statement batch: organize inbox
// documents under canonical names, extract their transactions in
// chronological order, persist them with duplicate detection, and
// leave an audit trail for every document touched.
package processor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/chakri-sirigiri/go-statements-parser/internal/cloudsync"
	"github.com/chakri-sirigiri/go-statements-parser/internal/config"
	"github.com/chakri-sirigiri/go-statements-parser/internal/fields"
	"github.com/chakri-sirigiri/go-statements-parser/internal/gitops"
	"github.com/chakri-sirigiri/go-statements-parser/internal/institution"
	"github.com/chakri-sirigiri/go-statements-parser/internal/model"
	"github.com/chakri-sirigiri/go-statements-parser/internal/pdftext"
	"github.com/chakri-sirigiri/go-statements-parser/internal/runlog"
	"github.com/chakri-sirigiri/go-statements-parser/internal/statement"
	"github.com/chakri-sirigiri/go-statements-parser/internal/store"
)

// ErrDuplicate reports that a single-file extraction matched an
// already stored statement.
var ErrDuplicate = errors.New("statement already stored")

// Processor wires the pipeline's collaborators. Syncer is optional;
// leave it nil to keep runs local.
type Processor struct {
	Config    *config.Config
	Registry  *institution.Registry
	Store     store.Store
	Extractor pdftext.Extractor
	Syncer    *cloudsync.Syncer
}

// New creates a Processor over the given store and text extractor.
func New(cfg *config.Config, reg *institution.Registry, st store.Store, ex pdftext.Extractor) *Processor {
	return &Processor{Config: cfg, Registry: reg, Store: st, Extractor: ex}
}

// OrganizeResult reports one pass over the inbox.
type OrganizeResult struct {
	Organized []string // canonical names now in the organized folder
	Skipped   []string // inbox names left behind
}

// RunResult summarizes one extraction batch.
type RunResult struct {
	RunID      string
	Stored     []*model.TransactionRecord
	Skipped    int
	Duplicates int
	Failed     int
}

// Run executes the full pipeline: organize the inbox, then extract and
// store every organized statement. A failed validation persists the
// offending record and aborts the rest of the batch.
func (p *Processor) Run(ctx context.Context) (*RunResult, error) {
	if _, err := p.Organize(ctx); err != nil {
		return nil, err
	}
	return p.Extract(ctx)
}

// Organize moves inbox statements into the organized folder under
// their canonical YYYY-MM-DD-<type> names. Files that cannot be dated
// or that collide with a different organized statement stay in the
// inbox; the batch continues.
func (p *Processor) Organize(ctx context.Context) (*OrganizeResult, error) {
	h, err := p.handler()
	if err != nil {
		return nil, err
	}

	names, err := listStatements(p.Config.Folders.Inbox)
	if err != nil {
		return nil, err
	}
	sort.Strings(names)

	if err := os.MkdirAll(p.Config.Folders.Organized, 0o755); err != nil {
		return nil, fmt.Errorf("creating organized folder: %w", err)
	}

	res := &OrganizeResult{}
	for _, name := range names {
		flog := log.WithField("file", name)

		if isManualEntry(name) {
			flog.Info("skipping manual entry")
			res.Skipped = append(res.Skipped, name)
			continue
		}

		src := filepath.Join(p.Config.Folders.Inbox, name)
		canonical, err := p.canonicalName(ctx, h, src, name)
		if err != nil {
			flog.WithError(err).Warn("cannot organize statement")
			res.Skipped = append(res.Skipped, name)
			continue
		}

		dst := filepath.Join(p.Config.Folders.Organized, canonical)
		if err := moveStatement(src, dst); err != nil {
			flog.WithError(err).Warn("cannot organize statement")
			res.Skipped = append(res.Skipped, name)
			continue
		}
		flog.WithField("to", canonical).Info("organized statement")
		res.Organized = append(res.Organized, canonical)
	}
	return res, nil
}

// Extract processes every statement in the organized folder in
// chronological order.
func (p *Processor) Extract(ctx context.Context) (*RunResult, error) {
	h, err := p.handler()
	if err != nil {
		return nil, err
	}

	names, err := listStatements(p.Config.Folders.Organized)
	if err != nil {
		return nil, err
	}
	statement.SortNames(names)

	runID := uuid.NewString()
	logger := log.WithFields(log.Fields{"run_id": runID, "institution": h.Name()})
	logger.WithField("statements", len(names)).Info("starting extraction run")

	res := &RunResult{RunID: runID}
	for _, name := range names {
		flog := logger.WithField("file", name)
		entry := runlog.Entry{Timestamp: time.Now().UTC(), RunID: runID, SourceFile: name}

		if reason := skipReason(name); reason != "" {
			res.Skipped++
			entry.Outcome, entry.Message = runlog.OutcomeSkipped, reason
			p.appendRunLog(entry, flog)
			flog.WithField("reason", reason).Info("skipping statement")
			continue
		}

		path := filepath.Join(p.Config.Folders.Organized, name)
		rec, outcome, err := p.processOne(ctx, h, path, name)

		var vErr *institution.ValidationError
		switch {
		case errors.As(err, &vErr):
			res.Failed++
			entry.Outcome, entry.Message = runlog.OutcomeFailed, vErr.Error()
			p.appendRunLog(entry, flog)
			flog.WithError(vErr).Error("paycheck validation failed, aborting batch")
			return res, vErr
		case err != nil && outcome == runlog.OutcomeFailed:
			res.Failed++
			entry.Outcome, entry.Message = runlog.OutcomeFailed, err.Error()
			p.appendRunLog(entry, flog)
			flog.WithError(err).Warn("skipping statement")
			continue
		case err != nil:
			return res, fmt.Errorf("%s: %w", name, err)
		}

		switch outcome {
		case runlog.OutcomeDuplicate:
			res.Duplicates++
			entry.Outcome, entry.Message = outcome, "already stored"
			flog.Info("duplicate statement, skipping")
		case runlog.OutcomeStored:
			res.Stored = append(res.Stored, rec)
			entry.Outcome = outcome
			entry.Message = "net pay $" + rec.AmountOrZero(fields.NetPay).StringFixed(2)
			flog.WithField("statement_date", rec.StatementDate.Format("2006-01-02")).
				Info("stored transaction record")
			p.syncRecord(ctx, flog, rec, runID, path)
		}
		p.appendRunLog(entry, flog)
	}

	p.finishRun(logger, res)
	return res, nil
}

// ExtractFile processes one document in place, without organizing it.
// A duplicate returns the extracted record together with ErrDuplicate.
func (p *Processor) ExtractFile(ctx context.Context, path string) (*model.TransactionRecord, error) {
	h, err := p.handler()
	if err != nil {
		return nil, err
	}

	name := filepath.Base(path)
	runID := uuid.NewString()
	flog := log.WithFields(log.Fields{"run_id": runID, "institution": h.Name(), "file": name})
	entry := runlog.Entry{Timestamp: time.Now().UTC(), RunID: runID, SourceFile: name}

	rec, outcome, err := p.processOne(ctx, h, path, name)
	if err != nil {
		entry.Outcome, entry.Message = runlog.OutcomeFailed, err.Error()
		p.appendRunLog(entry, flog)
		return rec, err
	}

	switch outcome {
	case runlog.OutcomeDuplicate:
		entry.Outcome, entry.Message = outcome, "already stored"
		p.appendRunLog(entry, flog)
		return rec, ErrDuplicate
	default:
		entry.Outcome = outcome
		entry.Message = "net pay $" + rec.AmountOrZero(fields.NetPay).StringFixed(2)
		p.appendRunLog(entry, flog)
		flog.Info("stored transaction record")
		p.syncRecord(ctx, flog, rec, runID, path)
		return rec, nil
	}
}

// processOne extracts, dedupes, and stores one statement. The record
// is non-nil for stored outcomes and for failed validations, which are
// persisted before the error comes back.
func (p *Processor) processOne(ctx context.Context, h institution.Handler, path, name string) (*model.TransactionRecord, string, error) {
	text, err := p.text(ctx, path)
	if err != nil {
		return nil, runlog.OutcomeFailed, fmt.Errorf("extracting text: %w", err)
	}

	rec, err := h.Extract(text, name)
	var vErr *institution.ValidationError
	if errors.As(err, &vErr) {
		if insErr := p.Store.Insert(ctx, rec); insErr != nil {
			log.WithField("file", name).WithError(insErr).Error("storing failed-validation record")
		}
		return rec, runlog.OutcomeFailed, vErr
	}
	if err != nil {
		return nil, runlog.OutcomeFailed, err
	}

	keys, err := p.Store.FindKeys(ctx, rec.Institution, rec.StatementDate)
	if err != nil {
		return nil, "", fmt.Errorf("checking duplicates: %w", err)
	}
	if store.IsDuplicate(keys, store.KeyOf(rec)) {
		return rec, runlog.OutcomeDuplicate, nil
	}

	if err := p.Store.Insert(ctx, rec); err != nil {
		return nil, "", fmt.Errorf("storing record: %w", err)
	}
	return rec, runlog.OutcomeStored, nil
}

func (p *Processor) handler() (institution.Handler, error) {
	h := p.Registry.Get(p.Config.Institution)
	if h == nil {
		return nil, fmt.Errorf("unknown institution %q (have %s)",
			p.Config.Institution, strings.Join(p.Registry.Names(), ", "))
	}
	if ipay, ok := h.(*institution.IPay); ok && p.Config.PromotionMarkers != nil {
		ipay.PromotionMarkers = p.Config.PromotionMarkers
	}
	return h, nil
}

// text returns a document's plain text: .txt files are read directly,
// PDFs go through the extractor.
func (p *Processor) text(ctx context.Context, path string) (string, error) {
	if strings.EqualFold(filepath.Ext(path), ".txt") {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
	return p.Extractor.Text(ctx, path)
}

func (p *Processor) canonicalName(ctx context.Context, h institution.Handler, src, name string) (string, error) {
	text, err := p.text(ctx, src)
	if err != nil {
		return "", fmt.Errorf("extracting text: %w", err)
	}
	date, err := h.StatementDate(text)
	if err != nil {
		return "", err
	}
	return statement.Canonical(date, statement.TypeFromSource(name), name), nil
}

// moveStatement renames src to dst. An existing dst with the same
// contents means the statement was organized before, so the inbox copy
// is dropped; different contents fail the file.
func moveStatement(src, dst string) error {
	if _, err := os.Stat(dst); err == nil {
		same, err := sameContents(src, dst)
		if err != nil {
			return err
		}
		if !same {
			return fmt.Errorf("%s already exists with different contents", filepath.Base(dst))
		}
		return os.Remove(src)
	}
	if err := os.Rename(src, dst); err != nil {
		return fmt.Errorf("moving statement: %w", err)
	}
	return nil
}

func sameContents(a, b string) (bool, error) {
	da, err := os.ReadFile(a)
	if err != nil {
		return false, err
	}
	db, err := os.ReadFile(b)
	if err != nil {
		return false, err
	}
	return bytes.Equal(da, db), nil
}

func (p *Processor) syncRecord(ctx context.Context, flog *log.Entry, rec *model.TransactionRecord, runID, path string) {
	if p.Syncer == nil || !p.Syncer.Enabled() {
		return
	}
	if err := p.Syncer.SyncRecord(ctx, rec, runID); err != nil {
		flog.WithError(err).Warn("bigquery sync failed")
	}
	uri, err := p.Syncer.UploadDocument(ctx, rec.Institution, path)
	if err != nil {
		flog.WithError(err).Warn("document upload failed")
	} else if uri != "" {
		flog.WithField("uri", uri).Debug("uploaded statement document")
	}
}

func (p *Processor) finishRun(logger *log.Entry, res *RunResult) {
	logger.WithFields(log.Fields{
		"stored":     len(res.Stored),
		"skipped":    res.Skipped,
		"duplicates": res.Duplicates,
		"failed":     res.Failed,
	}).Info("extraction run finished")

	if !p.Config.Git.AutoCommit || len(res.Stored) == 0 {
		return
	}
	message := "statements run " + shortID(res.RunID)
	hash, err := gitops.Snapshot(p.Config.Store.Path, message,
		p.Config.Git.AuthorName, p.Config.Git.AuthorEmail)
	switch {
	case errors.Is(err, gitops.ErrNotRepo):
		logger.Warn("auto-commit enabled but the data directory is not a git repository")
	case err != nil:
		logger.WithError(err).Warn("auto-commit failed")
	case hash != "":
		logger.WithField("commit", hash).Info("committed data directory")
	}
}

func (p *Processor) appendRunLog(e runlog.Entry, flog *log.Entry) {
	if p.Config.Store.Path == "" {
		return
	}
	if err := runlog.Append(p.Config.Store.Path, []runlog.Entry{e}); err != nil {
		flog.WithError(err).Warn("writing run log")
	}
}

func listStatements(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", dir, err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".pdf", ".txt":
			names = append(names, e.Name())
		}
	}
	return names, nil
}

func isManualEntry(name string) bool {
	return strings.Contains(strings.ToLower(name), "manual_entry")
}

// skipReason reports why an organized statement is not extracted.
func skipReason(name string) string {
	switch {
	case isManualEntry(name):
		return "manual entry"
	case statement.IsYearEnd(name):
		return "year-end summary"
	default:
		return ""
	}
}

func shortID(runID string) string {
	if len(runID) > 8 {
		return runID[:8]
	}
	return runID
}
