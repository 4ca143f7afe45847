// Package pipeline drives one batch pass over every enabled category:
// list candidate messages, fetch and extract a bounded batch, label each
// processed message, then reconcile the collected records into the
// category's spreadsheet.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"vinted-ledger/internal/extract"
	"vinted-ledger/internal/gmail"
	"vinted-ledger/internal/sheets"
)

// Mailbox is the Gmail collaborator the orchestrator needs.
type Mailbox interface {
	ListMessageIDs(ctx context.Context, query string) ([]string, error)
	Document(ctx context.Context, id string) (gmail.Document, error)
	EnsureLabel(ctx context.Context, name string) (string, error)
	ApplyLabel(ctx context.Context, msgID, labelID string) error
}

// Appender is the reconcile/append engine.
type Appender interface {
	Reconcile(ctx context.Context, spreadsheetID string, spec sheets.TabSpec, entries []sheets.Entry) (int, error)
}

// Category binds a Gmail query and label to an extractor and a sheet
// layout. Build turns one message's collapsed body text (plus received
// timestamp) into an appendable entry; ok is false on an extraction miss.
type Category struct {
	Name          extract.Category
	Query         string
	Label         string
	SpreadsheetID string
	Spec          sheets.TabSpec
	Build         func(text, receivedAt string) (entry sheets.Entry, ok bool)
}

// Options bound one run.
type Options struct {
	BatchSize      int
	RateLimitDelay time.Duration
	DryRun         bool
}

// Orchestrator runs the categories sequentially. It holds no state across
// runs; the mailbox label and the spreadsheet dedup columns are the only
// durable markers.
type Orchestrator struct {
	mailbox    Mailbox
	appender   Appender
	categories []Category
	opts       Options
	logger     *slog.Logger
}

func New(mailbox Mailbox, appender Appender, categories []Category, opts Options, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		mailbox:    mailbox,
		appender:   appender,
		categories: categories,
		opts:       opts,
		logger:     logger,
	}
}

// Run performs one pass over every category. Per-message failures are
// logged and skipped; a category-level failure (listing, labeling setup,
// spreadsheet write) is recorded in the report and the remaining categories
// still run. The returned error is non-nil when any category failed.
func (o *Orchestrator) Run(ctx context.Context) (*Report, error) {
	started := time.Now()
	report := &Report{StartedAt: started}

	failed := 0
	for _, cat := range o.categories {
		if cat.SpreadsheetID == "" {
			o.logger.Debug("category disabled, no spreadsheet configured", "category", cat.Name)
			continue
		}
		rep := o.runCategory(ctx, cat)
		if rep.Err != "" {
			failed++
		}
		report.Categories = append(report.Categories, rep)
	}
	report.Duration = time.Since(started)

	o.logger.Info("run completed",
		"duration", report.Duration,
		"appended", report.TotalAppended(),
		"remaining", report.TotalRemaining(),
		"failed_categories", failed)

	if failed > 0 {
		return report, fmt.Errorf("%d of %d categories failed", failed, len(report.Categories))
	}
	return report, nil
}

func (o *Orchestrator) runCategory(ctx context.Context, cat Category) CategoryReport {
	logger := o.logger.With("category", cat.Name)
	rep := CategoryReport{Category: string(cat.Name)}

	ids, err := o.mailbox.ListMessageIDs(ctx, cat.Query)
	if err != nil {
		logger.Error("listing failed", "error", err)
		rep.Err = err.Error()
		return rep
	}
	rep.Listed = len(ids)

	batch := ids
	if len(batch) > o.opts.BatchSize {
		batch = batch[:o.opts.BatchSize]
	}
	rep.Batched = len(batch)
	rep.Remaining = rep.Listed - rep.Batched
	logger.Info("processing batch", "listed", rep.Listed, "batch", rep.Batched, "remaining", rep.Remaining)

	if len(batch) == 0 {
		return rep
	}

	labelID := ""
	if !o.opts.DryRun {
		labelID, err = o.mailbox.EnsureLabel(ctx, cat.Label)
		if err != nil {
			logger.Error("label setup failed", "label", cat.Label, "error", err)
			rep.Err = err.Error()
			return rep
		}
	}

	var entries []sheets.Entry
	for _, id := range batch {
		if o.opts.RateLimitDelay > 0 {
			time.Sleep(o.opts.RateLimitDelay)
		}

		doc, err := o.mailbox.Document(ctx, id)
		if err != nil {
			logger.Warn("fetch failed, message left for retry", "message_id", id, "error", err)
			rep.Skipped++
			continue
		}
		if doc.HTML == "" {
			logger.Warn("no html part, message left for retry", "message_id", id)
			rep.Skipped++
			continue
		}

		entry, ok := cat.Build(extract.BodyText(doc.HTML), doc.ReceivedAt)
		if !ok {
			logger.Warn("extraction failed, message left for retry", "message_id", id)
			rep.Skipped++
			continue
		}
		entries = append(entries, entry)
		rep.Extracted++

		if o.opts.DryRun {
			continue
		}
		// A failed label write is logged but the record still reaches
		// reconcile: the message will be re-extracted next run, and
		// the dedup column absorbs the duplicate where one exists.
		if err := o.mailbox.ApplyLabel(ctx, id, labelID); err != nil {
			logger.Error("label write failed", "message_id", id, "error", err)
		} else {
			rep.Tagged++
		}
	}

	if o.opts.DryRun {
		logger.Info("dry run, skipping append", "would_append", len(entries))
		return rep
	}

	appended, err := o.appender.Reconcile(ctx, cat.SpreadsheetID, cat.Spec, entries)
	rep.Appended = appended
	if err != nil {
		logger.Error("reconcile failed", "appended", appended, "error", err)
		rep.Err = err.Error()
	}
	return rep
}
