package app

import (
	"context"
	"sync"
	"time"

	"github.com/avelter/qrscan/internal/aiextract"
	"github.com/avelter/qrscan/internal/history"
	"github.com/avelter/qrscan/internal/logging"
	"github.com/avelter/qrscan/internal/model"
	"github.com/avelter/qrscan/internal/scanner"
	"github.com/avelter/qrscan/internal/store"
	"github.com/avelter/qrscan/internal/validator"
	"github.com/avelter/qrscan/internal/webclient"
)

type JobEventType string

const (
	JobEventStatus   JobEventType = "status"
	JobEventProgress JobEventType = "progress"
	JobEventResult   JobEventType = "result"
)

type JobEvent struct {
	ScanID string       `json:"scan_id"`
	Type   JobEventType `json:"type"`

	// For status changes
	Status JobStatus `json:"status,omitempty"`
	Error  string    `json:"error,omitempty"`

	// For progress updates
	Message string `json:"message,omitempty"`
}

type JobStatus string

const (
	JobPending  JobStatus = "pending"
	JobRunning  JobStatus = "running"
	JobDone     JobStatus = "done"
	JobFailed   JobStatus = "failed"
	JobCanceled JobStatus = "canceled"
)

type ScanJob struct {
	ScanID    string        `json:"scan_id"`
	Filename  string        `json:"filename"`
	Status    JobStatus     `json:"status"`
	Error     string        `json:"error,omitempty"`
	StartedAt time.Time     `json:"started_at"`
	EndedAt   time.Time     `json:"ended_at"`
	Events    chan JobEvent `json:"-"`

	Report *model.ScanReport `json:"report,omitempty"`
}

// Orchestrator runs scan jobs asynchronously and tracks their lifecycle. It
// also acts as the progress sink for running scanners so page-by-page updates
// reach the job's event stream.
type Orchestrator struct {
	cfg     *Config
	store   *store.Store
	history *history.History
	logger  logging.Logger

	// scanFunc runs one scan. Swappable in tests.
	scanFunc func(ctx context.Context, scanID string, task model.ScanTask) (*model.ScanReport, error)

	client webclient.WebClient

	jobsMu     sync.Mutex
	jobs       map[string]*ScanJob
	jobCancels map[string]context.CancelFunc
}

// NewOrchestrator wires the scan pipeline: web client, validator, AI
// extractor, and scanner.
func NewOrchestrator(cfg *Config, st *store.Store, hist *history.History, logger logging.Logger) (*Orchestrator, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	o := &Orchestrator{
		cfg:     cfg,
		store:   st,
		history: hist,
		logger:  logger.With(logging.Field{Key: "component", Value: "orchestrator"}),
	}

	webclient.RegisterDefaultBackends()
	client, err := webclient.NewWebClient(cfg.WebClientConfig(), logger)
	if err != nil {
		return nil, err
	}
	o.client = client

	v := validator.New(client, logger)
	extractor := aiextract.NewGemini(cfg.GoogleAPIKey, logger)
	sc := scanner.New(v, extractor, logger, o)
	o.scanFunc = sc.Scan

	return o, nil
}

// Progress implements interfaces.ProgressSink: scanner progress messages
// become job events.
func (o *Orchestrator) Progress(scanID, message string) {
	o.emitJobEvent(scanID, JobEvent{
		ScanID:  scanID,
		Type:    JobEventProgress,
		Message: message,
	})
}

func (o *Orchestrator) ensureJobMaps() {
	o.jobsMu.Lock()
	defer o.jobsMu.Unlock()
	if o.jobs == nil {
		o.jobs = make(map[string]*ScanJob)
	}
	if o.jobCancels == nil {
		o.jobCancels = make(map[string]context.CancelFunc)
	}
}

func (o *Orchestrator) emitJobEvent(scanID string, ev JobEvent) {
	o.jobsMu.Lock()
	job, ok := o.jobs[scanID]
	o.jobsMu.Unlock()
	if !ok || job == nil || job.Events == nil {
		return
	}

	// Non-blocking send; drop if buffer is full.
	select {
	case job.Events <- ev:
	default:
	}
}

func (o *Orchestrator) setStatus(scanID string, status JobStatus, errMsg string) {
	o.jobsMu.Lock()
	if j, ok := o.jobs[scanID]; ok {
		j.Status = status
		if errMsg != "" {
			j.Error = errMsg
		}
	}
	o.jobsMu.Unlock()

	o.emitJobEvent(scanID, JobEvent{
		ScanID: scanID,
		Type:   JobEventStatus,
		Status: status,
		Error:  errMsg,
	})
}

// StartScanJob launches the scan for a stored upload. The returned job's
// Events channel streams status and progress until the job reaches a
// terminal state, after which the channel is closed.
func (o *Orchestrator) StartScanJob(ctx context.Context, scanID, filename string, task model.ScanTask) (*ScanJob, error) {
	o.ensureJobMaps()

	job := &ScanJob{
		ScanID:    scanID,
		Filename:  filename,
		Status:    JobPending,
		StartedAt: time.Now().UTC(),
		Events:    make(chan JobEvent, 32),
	}

	o.jobsMu.Lock()
	o.jobs[scanID] = job
	o.jobsMu.Unlock()

	jobCtx, cancel := context.WithCancel(ctx)
	o.jobsMu.Lock()
	o.jobCancels[scanID] = cancel
	o.jobsMu.Unlock()

	o.emitJobEvent(scanID, JobEvent{ScanID: scanID, Type: JobEventStatus, Status: JobPending})

	go o.runScan(jobCtx, scanID, task)

	return job, nil
}

func (o *Orchestrator) runScan(ctx context.Context, scanID string, task model.ScanTask) {
	defer func() {
		o.jobsMu.Lock()
		if j, ok := o.jobs[scanID]; ok {
			j.EndedAt = time.Now().UTC()
		}
		delete(o.jobCancels, scanID)
		j := o.jobs[scanID]
		o.jobsMu.Unlock()

		if o.store != nil {
			if err := o.store.Cleanup(scanID); err != nil {
				o.logger.Warn("upload cleanup failed",
					logging.Field{Key: "scan_id", Value: scanID},
					logging.Field{Key: "error", Value: err.Error()})
			}
		}

		if j != nil && j.Events != nil {
			close(j.Events)
		}
	}()

	o.setStatus(scanID, JobRunning, "")

	report, err := o.scanFunc(ctx, scanID, task)
	if err != nil {
		select {
		case <-ctx.Done():
			o.setStatus(scanID, JobCanceled, ctx.Err().Error())
		default:
			o.setStatus(scanID, JobFailed, err.Error())
		}
		return
	}

	select {
	case <-ctx.Done():
		o.setStatus(scanID, JobCanceled, ctx.Err().Error())
		return
	default:
	}

	o.jobsMu.Lock()
	if j, ok := o.jobs[scanID]; ok {
		j.Status = JobDone
		j.Report = report
	}
	o.jobsMu.Unlock()

	if o.history != nil {
		if err := o.history.Record(context.Background(), scanID, report); err != nil {
			o.logger.Warn("recording scan history failed",
				logging.Field{Key: "scan_id", Value: scanID},
				logging.Field{Key: "error", Value: err.Error()})
		}
	}

	o.emitJobEvent(scanID, JobEvent{
		ScanID: scanID,
		Type:   JobEventResult,
		Status: JobDone,
	})
}

// CancelJob stops a running job. Finished jobs report false.
func (o *Orchestrator) CancelJob(scanID string) bool {
	o.jobsMu.Lock()
	cancel := o.jobCancels[scanID]
	o.jobsMu.Unlock()
	if cancel == nil {
		return false
	}
	cancel()
	return true
}

// GetJob returns a snapshot of the job. runScan keeps mutating the tracked
// job under jobsMu, so handing out the live pointer would let handlers
// marshal it mid-update. The snapshot shares the Events channel and the
// report, which is immutable once attached.
func (o *Orchestrator) GetJob(scanID string) (*ScanJob, bool) {
	o.jobsMu.Lock()
	defer o.jobsMu.Unlock()
	job, ok := o.jobs[scanID]
	if !ok {
		return nil, false
	}
	snapshot := *job
	return &snapshot, true
}

// ListJobs returns snapshots of every tracked job.
func (o *Orchestrator) ListJobs() []*ScanJob {
	o.jobsMu.Lock()
	defer o.jobsMu.Unlock()
	out := make([]*ScanJob, 0, len(o.jobs))
	for _, job := range o.jobs {
		snapshot := *job
		out = append(out, &snapshot)
	}
	return out
}

// DeleteJob cancels a job if running and removes it from tracking.
func (o *Orchestrator) DeleteJob(scanID string) bool {
	o.CancelJob(scanID)
	o.jobsMu.Lock()
	defer o.jobsMu.Unlock()
	if _, ok := o.jobs[scanID]; !ok {
		return false
	}
	delete(o.jobs, scanID)
	return true
}

// SweepStale removes uploads older than the configured retention.
func (o *Orchestrator) SweepStale() int {
	if o.store == nil {
		return 0
	}
	return o.store.SweepOlderThan(o.cfg.UploadRetention())
}

// RunRetentionLoop sweeps stale uploads periodically until ctx ends.
func (o *Orchestrator) RunRetentionLoop(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			o.SweepStale()
		}
	}
}

// Close cancels all running jobs and releases the web client.
func (o *Orchestrator) Close() {
	o.jobsMu.Lock()
	cancels := make([]context.CancelFunc, 0, len(o.jobCancels))
	for _, cancel := range o.jobCancels {
		cancels = append(cancels, cancel)
	}
	o.jobsMu.Unlock()

	for _, cancel := range cancels {
		cancel()
	}

	if o.client != nil {
		o.client.Close()
	}
}
