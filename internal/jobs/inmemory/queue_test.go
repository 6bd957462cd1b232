package inmemory

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dvloznov/price-tracker/internal/jobs"
	"github.com/rs/zerolog"
)

func waitForStatus(t *testing.T, store *Store, jobID string, want jobs.JobStatus) *jobs.ExportReportJob {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		job, err := store.GetJob(context.Background(), jobID)
		if err == nil && job.Status == want {
			return job
		}
		time.Sleep(5 * time.Millisecond)
	}
	job, _ := store.GetJob(context.Background(), jobID)
	t.Fatalf("job %s did not reach %s, last state %+v", jobID, want, job)
	return nil
}

func TestQueue_PublishAndProcess(t *testing.T) {
	store := NewStore()
	q := NewQueue(QueueConfig{Workers: 2}, store, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var seen atomic.Value
	if err := q.Start(ctx, func(ctx context.Context, job jobs.Job) error {
		seen.Store(job.GetType())
		export := job.(*jobs.ExportReportJob)
		export.ReportURI = "gs://bucket/reports/" + export.JobID + ".json"
		return nil
	}); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer q.Stop(context.Background())

	job := &jobs.ExportReportJob{UserID: "u1", Period: "30d"}
	if err := q.PublishExportReport(ctx, job); err != nil {
		t.Fatalf("PublishExportReport() error = %v", err)
	}
	if job.JobID == "" || job.Status != jobs.JobStatusPending || job.CreatedAt.IsZero() {
		t.Errorf("published job = %+v, want ID, pending status and CreatedAt", job)
	}
	if job.MaxRetries != DefaultQueueConfig().MaxRetries {
		t.Errorf("MaxRetries = %d, want default %d", job.MaxRetries, DefaultQueueConfig().MaxRetries)
	}

	done := waitForStatus(t, store, job.JobID, jobs.JobStatusCompleted)
	if done.ReportURI == "" || done.StartedAt == nil || done.CompletedAt == nil {
		t.Errorf("completed job = %+v, want report URI and timestamps", done)
	}
	if seen.Load() != jobs.JobTypeExportReport {
		t.Errorf("handler saw type %v, want %s", seen.Load(), jobs.JobTypeExportReport)
	}
}

func TestQueue_RetriesThenSucceeds(t *testing.T) {
	store := NewStore()
	q := NewQueue(QueueConfig{Workers: 1, MaxRetries: 3, RetryDelay: 5 * time.Millisecond}, store, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls int32
	_ = q.Start(ctx, func(ctx context.Context, job jobs.Job) error {
		if atomic.AddInt32(&calls, 1) < 3 {
			return errors.New("storage unavailable")
		}
		return nil
	})
	defer q.Stop(context.Background())

	job := &jobs.ExportReportJob{UserID: "u1"}
	if err := q.PublishExportReport(ctx, job); err != nil {
		t.Fatalf("PublishExportReport() error = %v", err)
	}

	done := waitForStatus(t, store, job.JobID, jobs.JobStatusCompleted)
	if done.RetryCount != 2 || done.Error != "" {
		t.Errorf("job = %+v, want RetryCount 2 and no error", done)
	}
}

func TestQueue_FailsAfterMaxRetries(t *testing.T) {
	store := NewStore()
	q := NewQueue(QueueConfig{Workers: 1, MaxRetries: 1, RetryDelay: 5 * time.Millisecond}, store, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	_ = q.Start(ctx, func(ctx context.Context, job jobs.Job) error {
		return errors.New("bucket not found")
	})
	defer q.Stop(context.Background())

	job := &jobs.ExportReportJob{UserID: "u1"}
	_ = q.PublishExportReport(ctx, job)

	failed := waitForStatus(t, store, job.JobID, jobs.JobStatusFailed)
	if failed.RetryCount != 1 || failed.Error != "bucket not found" {
		t.Errorf("job = %+v, want one retry and the handler error", failed)
	}
}

func TestQueue_PublishAfterStop(t *testing.T) {
	q := NewQueue(QueueConfig{}, NewStore(), zerolog.Nop())
	if err := q.Stop(context.Background()); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}

	if err := q.PublishExportReport(context.Background(), &jobs.ExportReportJob{UserID: "u1"}); !errors.Is(err, ErrQueueClosed) {
		t.Errorf("PublishExportReport() error = %v, want ErrQueueClosed", err)
	}
	if err := q.Start(context.Background(), nil); !errors.Is(err, ErrQueueClosed) {
		t.Errorf("Start() error = %v, want ErrQueueClosed", err)
	}
	if err := q.Close(); err != nil {
		t.Errorf("Close() after Stop error = %v, want nil", err)
	}
}
