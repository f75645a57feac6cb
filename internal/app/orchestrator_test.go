package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/avelter/qrscan/internal/interfaces"
	"github.com/avelter/qrscan/internal/model"
)

func testOrchestrator(scanFunc func(ctx context.Context, scanID string, task model.ScanTask) (*model.ScanReport, error)) *Orchestrator {
	return &Orchestrator{
		cfg:      DefaultConfig(),
		logger:   interfaces.NewTestLogger(false),
		scanFunc: scanFunc,
	}
}

func drainEvents(t *testing.T, job *ScanJob, timeout time.Duration) []JobEvent {
	t.Helper()
	var events []JobEvent
	deadline := time.After(timeout)
	for {
		select {
		case ev, ok := <-job.Events:
			if !ok {
				return events
			}
			events = append(events, ev)
		case <-deadline:
			t.Fatalf("events channel not closed; got %v", events)
		}
	}
}

func TestStartScanJobSuccess(t *testing.T) {
	report := &model.ScanReport{Stats: model.ScanStats{TotalPages: 2}}
	o := testOrchestrator(func(ctx context.Context, scanID string, task model.ScanTask) (*model.ScanReport, error) {
		return report, nil
	})

	job, err := o.StartScanJob(context.Background(), "scan-1", "doc.pdf", model.NewScanTask("/tmp/doc.pdf", 5))
	if err != nil {
		t.Fatalf("StartScanJob: %v", err)
	}

	events := drainEvents(t, job, 2*time.Second)

	var sawRunning, sawResult bool
	for _, ev := range events {
		if ev.Type == JobEventStatus && ev.Status == JobRunning {
			sawRunning = true
		}
		if ev.Type == JobEventResult && ev.Status == JobDone {
			sawResult = true
		}
	}
	if !sawRunning || !sawResult {
		t.Errorf("missing lifecycle events: %v", events)
	}

	got, ok := o.GetJob("scan-1")
	if !ok {
		t.Fatal("job not tracked")
	}
	if got.Status != JobDone {
		t.Errorf("status = %s", got.Status)
	}
	if got.Report != report {
		t.Error("report not attached to job")
	}
	if got.EndedAt.IsZero() {
		t.Error("EndedAt not set")
	}
}

func TestStartScanJobFailure(t *testing.T) {
	o := testOrchestrator(func(ctx context.Context, scanID string, task model.ScanTask) (*model.ScanReport, error) {
		return nil, errors.New("open document: not a PDF")
	})

	job, err := o.StartScanJob(context.Background(), "scan-2", "bad.pdf", model.NewScanTask("/tmp/bad.pdf", 5))
	if err != nil {
		t.Fatalf("StartScanJob: %v", err)
	}
	drainEvents(t, job, 2*time.Second)

	got, _ := o.GetJob("scan-2")
	if got.Status != JobFailed {
		t.Errorf("status = %s, want failed", got.Status)
	}
	if got.Error == "" {
		t.Error("error not recorded")
	}
	if got.Report != nil {
		t.Error("failed job carries a report")
	}
}

func TestCancelJob(t *testing.T) {
	started := make(chan struct{})
	o := testOrchestrator(func(ctx context.Context, scanID string, task model.ScanTask) (*model.ScanReport, error) {
		close(started)
		<-ctx.Done()
		return nil, ctx.Err()
	})

	job, err := o.StartScanJob(context.Background(), "scan-3", "doc.pdf", model.NewScanTask("/tmp/doc.pdf", 5))
	if err != nil {
		t.Fatalf("StartScanJob: %v", err)
	}

	<-started
	if !o.CancelJob("scan-3") {
		t.Fatal("CancelJob returned false for a running job")
	}
	drainEvents(t, job, 2*time.Second)

	got, _ := o.GetJob("scan-3")
	if got.Status != JobCanceled {
		t.Errorf("status = %s, want canceled", got.Status)
	}

	// A finished job has no cancel left.
	if o.CancelJob("scan-3") {
		t.Error("CancelJob returned true after completion")
	}
}

func TestProgressEventsReachJobStream(t *testing.T) {
	o := testOrchestrator(nil)
	o.scanFunc = func(ctx context.Context, scanID string, task model.ScanTask) (*model.ScanReport, error) {
		o.Progress(scanID, "Reading page 1/1")
		return &model.ScanReport{}, nil
	}

	job, err := o.StartScanJob(context.Background(), "scan-4", "doc.pdf", model.NewScanTask("/tmp/doc.pdf", 5))
	if err != nil {
		t.Fatalf("StartScanJob: %v", err)
	}
	events := drainEvents(t, job, 2*time.Second)

	found := false
	for _, ev := range events {
		if ev.Type == JobEventProgress && ev.Message == "Reading page 1/1" {
			found = true
		}
	}
	if !found {
		t.Errorf("progress event missing: %v", events)
	}
}

func TestDeleteJob(t *testing.T) {
	o := testOrchestrator(func(ctx context.Context, scanID string, task model.ScanTask) (*model.ScanReport, error) {
		return &model.ScanReport{}, nil
	})

	job, _ := o.StartScanJob(context.Background(), "scan-5", "doc.pdf", model.NewScanTask("/tmp/doc.pdf", 5))
	drainEvents(t, job, 2*time.Second)

	if !o.DeleteJob("scan-5") {
		t.Fatal("DeleteJob returned false")
	}
	if _, ok := o.GetJob("scan-5"); ok {
		t.Error("job still tracked after delete")
	}
	if o.DeleteJob("scan-5") {
		t.Error("second DeleteJob returned true")
	}
}

func TestListJobs(t *testing.T) {
	o := testOrchestrator(func(ctx context.Context, scanID string, task model.ScanTask) (*model.ScanReport, error) {
		return &model.ScanReport{}, nil
	})

	for _, id := range []string{"a", "b"} {
		job, _ := o.StartScanJob(context.Background(), id, id+".pdf", model.NewScanTask("/tmp/"+id, 5))
		drainEvents(t, job, 2*time.Second)
	}

	if got := len(o.ListJobs()); got != 2 {
		t.Errorf("ListJobs = %d jobs, want 2", got)
	}
}

func TestGetJobReturnsSnapshot(t *testing.T) {
	o := testOrchestrator(func(ctx context.Context, scanID string, task model.ScanTask) (*model.ScanReport, error) {
		return &model.ScanReport{}, nil
	})

	job, err := o.StartScanJob(context.Background(), "scan-6", "doc.pdf", model.NewScanTask("/tmp/doc.pdf", 5))
	if err != nil {
		t.Fatalf("StartScanJob: %v", err)
	}
	drainEvents(t, job, 2*time.Second)

	got, _ := o.GetJob("scan-6")
	got.Status = JobFailed
	got.Error = "mutated by caller"

	again, _ := o.GetJob("scan-6")
	if again.Status != JobDone || again.Error != "" {
		t.Errorf("tracked job changed through a snapshot: status=%s error=%q", again.Status, again.Error)
	}

	listed := o.ListJobs()[0]
	listed.Status = JobFailed
	again, _ = o.GetJob("scan-6")
	if again.Status != JobDone {
		t.Error("tracked job changed through a ListJobs snapshot")
	}
}
