// Package reports renders price history snapshots and writes them to Cloud Storage.
package reports

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dvloznov/price-tracker/internal/domain"
	"github.com/dvloznov/price-tracker/internal/jobs"
	"github.com/dvloznov/price-tracker/internal/pricehistory"
	"github.com/rs/zerolog"
)

// OverviewService is the part of pricehistory.Service the exporter needs.
type OverviewService interface {
	Overview(ctx context.Context, userID string, opts pricehistory.OverviewOptions) (*pricehistory.Overview, error)
}

// Snapshot is the JSON document written for each export.
type Snapshot struct {
	JobID       string    `json:"job_id"`
	UserID      string    `json:"user_id"`
	GeneratedAt time.Time `json:"generated_at"`
	*pricehistory.Overview
}

// Exporter turns ExportReportJobs into stored snapshots.
type Exporter struct {
	svc   OverviewService
	store Store
	log   zerolog.Logger
	now   func() time.Time
}

// NewExporter creates an Exporter.
func NewExporter(svc OverviewService, store Store, log zerolog.Logger) *Exporter {
	return &Exporter{
		svc:   svc,
		store: store,
		log:   log,
		now:   time.Now,
	}
}

// Export computes the user's overview, writes it and records the URI on the job.
func (e *Exporter) Export(ctx context.Context, job *jobs.ExportReportJob) error {
	if job.UserID == "" {
		return fmt.Errorf("Exporter.Export: job %s has no user", job.JobID)
	}
	period, err := domain.ParseChangePeriod(job.Period)
	if err != nil {
		return fmt.Errorf("Exporter.Export: %w", err)
	}

	overview, err := e.svc.Overview(ctx, job.UserID, pricehistory.OverviewOptions{
		Trends: pricehistory.TrendsOptions{Period: period},
		Alerts: pricehistory.AlertOptions{ThresholdPct: job.ThresholdPct},
	})
	if err != nil {
		return fmt.Errorf("Exporter.Export: %w", err)
	}

	generatedAt := e.now()
	data, err := json.MarshalIndent(Snapshot{
		JobID:       job.JobID,
		UserID:      job.UserID,
		GeneratedAt: generatedAt,
		Overview:    overview,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("Exporter.Export: marshal snapshot: %w", err)
	}

	uri, err := e.store.Write(ctx, ObjectName(job.UserID, job.JobID, generatedAt), data, "application/json")
	if err != nil {
		return fmt.Errorf("Exporter.Export: %w", err)
	}
	job.ReportURI = uri

	e.log.Info().
		Str("job_id", job.JobID).
		Str("user_id", job.UserID).
		Str("uri", uri).
		Int("trends", len(overview.Trends)).
		Int("alerts", len(overview.Alerts)).
		Msg("Exported price report")
	return nil
}

// Handle adapts Export to jobs.JobHandler.
func (e *Exporter) Handle(ctx context.Context, job jobs.Job) error {
	export, ok := job.(*jobs.ExportReportJob)
	if !ok {
		return fmt.Errorf("Exporter.Handle: unsupported job type %s", job.GetType())
	}
	return e.Export(ctx, export)
}
