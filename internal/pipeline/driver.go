// Package pipeline turns input rows into appended outreach leads.
package pipeline

import (
	"context"
	"time"

	"go.uber.org/zap"

	"outreach-engine/internal/domain"
	"outreach-engine/internal/filter"
	"outreach-engine/internal/logging"
	"outreach-engine/internal/message"
	"outreach-engine/internal/normalize"
	"outreach-engine/internal/sink"
)

const (
	ReasonDuplicate = "duplicate"

	OutcomeAppended     = "appended"
	OutcomeAppendFailed = "append_failed"
)

// EmailResolver returns an address for the lead, or "" when none was found.
type EmailResolver interface {
	Resolve(ctx context.Context, lead domain.Lead) string
}

// Ledger remembers leads appended by earlier runs.
type Ledger interface {
	Seen(ctx context.Context, lead domain.Lead) (bool, error)
	Record(ctx context.Context, runID string, lead domain.Lead) error
}

// RunCounter is implemented by ledgers that can tell how many leads a run
// recorded.
type RunCounter interface {
	CountRun(ctx context.Context, runID string) (int, error)
}

// Report summarizes one run.
type Report struct {
	RunID        string         `json:"run_id"`
	StartedAt    time.Time      `json:"started_at"`
	FinishedAt   time.Time      `json:"finished_at"`
	Rows         int            `json:"rows"`
	Skipped      map[string]int `json:"skipped"`
	Appended     int            `json:"appended"`
	AppendFailed int            `json:"append_failed"`
	EmailsFound  int            `json:"emails_found"`
	Recorded     int            `json:"recorded"` // ledger rows written by this run

	// Accepted holds every lead that passed the filters, in input order.
	Accepted []domain.Lead `json:"-"`
}

func NewReport(runID string) *Report {
	return &Report{RunID: runID, StartedAt: time.Now(), Skipped: map[string]int{}}
}

func (r *Report) skip(reason string) {
	if r.Skipped == nil {
		r.Skipped = map[string]int{}
	}
	r.Skipped[reason]++
}

func (r *Report) SkippedTotal() int {
	n := 0
	for _, c := range r.Skipped {
		n += c
	}
	return n
}

// Driver runs rows one at a time through normalize, filter, template,
// resolve and append. A failing row never stops the batch.
type Driver struct {
	Classifier       filter.Classifier
	Templater        message.Templater
	Resolver         EmailResolver // optional
	Ledger           Ledger        // optional
	Sink             sink.Sink
	EmailPlaceholder string
	Log              *zap.Logger
}

func (d *Driver) Process(ctx context.Context, rows []domain.Row, rep *Report) {
	log := logging.OrNop(d.Log)

	for i, row := range rows {
		if ctx.Err() != nil {
			log.Warn("run cancelled", zap.Int("remaining", len(rows)-i))
			return
		}
		rep.Rows++
		d.processRow(ctx, log, row, rep)
	}
}

func (d *Driver) processRow(ctx context.Context, log *zap.Logger, row domain.Row, rep *Report) {
	lead := normalize.BuildLead(row)
	rlog := log.With(zap.String("source", row.Source), zap.Int("row", row.Index))

	if keep, reason := filter.ShouldKeepLead(d.Classifier, lead); !keep {
		rep.skip(reason)
		rlog.Debug("row skipped", zap.String("reason", reason), zap.String("title", lead.Title))
		return
	}

	if d.Ledger != nil {
		seen, err := d.Ledger.Seen(ctx, lead)
		if err != nil {
			rlog.Warn("ledger lookup failed", zap.Error(err))
		} else if seen {
			rep.skip(ReasonDuplicate)
			rlog.Debug("row skipped", zap.String("reason", ReasonDuplicate), zap.String("name", lead.Name))
			return
		}
	}

	lead.Message = d.Templater.Render(lead.Name, lead.Companies)
	if d.Resolver != nil {
		lead.Email = d.Resolver.Resolve(ctx, lead)
		if lead.Email != "" {
			rep.EmailsFound++
		}
	}
	rep.Accepted = append(rep.Accepted, lead)

	if err := d.Sink.Append(ctx, lead.SheetRow(d.EmailPlaceholder)); err != nil {
		rep.AppendFailed++
		rlog.Error("append failed", zap.String("name", lead.Name), zap.Error(err))
		return
	}
	rep.Appended++
	rlog.Info("lead appended",
		zap.String("name", lead.Name),
		zap.String("company", lead.Company),
		zap.Bool("email", lead.Email != ""))

	if d.Ledger != nil {
		if err := d.Ledger.Record(ctx, rep.RunID, lead); err != nil {
			rlog.Warn("ledger write failed", zap.Error(err))
		}
	}
}
