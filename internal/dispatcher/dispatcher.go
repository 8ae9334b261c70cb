// Package dispatcher is the Job Dispatcher (C4): the heart of the system.
// A single cooperative loop that claims the oldest ready job, runs it to
// completion in an isolated child process, and never starts a second job
// before the current one terminates.
package dispatcher

import (
	"context"
	"os"
	"time"

	"transflow/internal/childproc"
	"transflow/internal/estimate"
	"transflow/internal/mediaprobe"
	"transflow/internal/models"
	"transflow/internal/notify"
	"transflow/pkg/logger"
)

// heavyModels are downgraded to "small" once a job exceeds the configured
// size threshold (§4.4 step 6).
var heavyModels = map[string]bool{
	"medium": true, "large": true, "large-v2": true, "large-v3": true, "turbo": true,
}

// Store is the subset of the C1 queue the dispatcher depends on.
type Store interface {
	TakeNextReady() (*models.Job, error)
	Claim(id uint) (bool, error)
	Finish(id uint) (bool, error)
	Cancel(id uint) (bool, error)
	IsCancelled(id uint) (bool, error)
	SetError(id uint, message string) error
}

// Cleaner is invoked every 10th tick (§4.4 step 1).
type Cleaner interface {
	Clean(preserve map[string]bool)
}

// ArtifactWriter hands off a finished result plus user metadata and returns
// the paths it wrote (§4.4 step 12).
type ArtifactWriter interface {
	Write(job *models.Job, result *childproc.Result) (transcriptPath string, subtitlePath string, err error)
}

// Config parameterizes the model-selection policy and child spawn target.
type Config struct {
	DefaultModel          string
	SmallModelThresholdMB float64
	ChildExecutable       string // normally os.Executable(), re-exec'd in worker mode
}

// Dispatcher is C4.
type Dispatcher struct {
	store    Store
	notifier notify.Port
	cleaner  Cleaner
	artifact ArtifactWriter
	cfg      Config

	active      map[uint]*childproc.Handle
	activeFiles map[uint]string // job id -> file_path, preserved from cleanup while in flight
	tickCount   int
	consecutive int
}

// New builds a Dispatcher over its collaborators.
func New(store Store, notifier notify.Port, cleaner Cleaner, artifact ArtifactWriter, cfg Config) *Dispatcher {
	return &Dispatcher{
		store:       store,
		notifier:    notifier,
		cleaner:     cleaner,
		artifact:    artifact,
		cfg:         cfg,
		active:      make(map[uint]*childproc.Handle),
		activeFiles: make(map[uint]string),
	}
}

// Run drives the main loop until ctx is cancelled. It never returns an error
// to its caller: every failure is handled internally per §7's propagation
// rule, except a context cancellation which unwinds the loop cleanly.
func (d *Dispatcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		d.tick(ctx)
	}
}

func (d *Dispatcher) tick(ctx context.Context) {
	d.tickCount++
	if d.tickCount%10 == 0 {
		d.cleaner.Clean(d.preservedPaths())
	}
	if d.tickCount%50 == 0 {
		logger.Heartbeat(len(d.active), 0)
	}

	job, err := d.store.TakeNextReady()
	if err != nil {
		d.onTransientError(err)
		return
	}
	d.consecutive = 0

	if job == nil {
		sleepCtx(ctx, 1*time.Second)
		return
	}

	ok, err := d.store.Claim(job.ID)
	if err != nil {
		d.onTransientError(err)
		return
	}
	if !ok {
		return // lost the race with a concurrent cancel
	}

	d.runJob(ctx, job)
}

func (d *Dispatcher) onTransientError(err error) {
	d.consecutive++
	logger.Error("Dispatcher store error", "error", err, "consecutive", d.consecutive)
	if d.consecutive >= 5 {
		logger.Warn("Too many consecutive store errors, backing off", "count", d.consecutive)
		time.Sleep(30 * time.Second)
		d.consecutive = 0
	}
}

func (d *Dispatcher) preservedPaths() map[string]bool {
	preserved := make(map[string]bool, len(d.activeFiles))
	for _, path := range d.activeFiles {
		preserved[path] = true
	}
	return preserved
}

func (d *Dispatcher) target(job *models.Job) notify.Target {
	return notify.Target{
		ChatID:    job.ChatID,
		MessageID: job.MessageID,
		IsSystem:  job.ChatID == 0,
	}
}

// runJob executes steps 4-15 of the main loop for one claimed job. Any
// unhandled failure in here is caught and finishes the job rather than
// crashing the dispatcher (§7 propagation rule).
func (d *Dispatcher) runJob(ctx context.Context, job *models.Job) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Recovered from panic in dispatcher job body", "job_id", job.ID, "panic", r)
			_, _ = d.store.Finish(job.ID)
		}
	}()

	target := d.target(job)

	if _, err := os.Stat(job.FilePath); err != nil {
		d.notifyStatus(ctx, job.ID, target, msgFileMissing)
		_, _ = d.store.Finish(job.ID)
		return
	}

	model, downgraded := d.selectModel(job.FileSizeMB)
	conditionOnPreviousText := job.FileSizeMB <= 2

	if downgraded {
		d.notifyStatus(ctx, job.ID, target, msgModelDowngrade(d.cfg.DefaultModel, model))
	}
	d.notifyStatus(ctx, job.ID, target, msgTranscribingStarted(model))

	if cancelled, err := d.store.IsCancelled(job.ID); err == nil && cancelled {
		d.notifyStatus(ctx, job.ID, target, msgCancelled)
		_, _ = d.store.Cancel(job.ID)
		return
	}

	handle, err := childproc.Start(ctx, d.cfg.ChildExecutable, childproc.Args{
		FilePath:                job.FilePath,
		ConditionOnPreviousText: conditionOnPreviousText,
		Model:                   model,
		JobID:                   job.ID,
	})
	if err != nil {
		d.notifier.NotifyError(ctx, job.ID, target, msgChildFailure(err.Error()))
		_ = d.store.SetError(job.ID, err.Error())
		_, _ = d.store.Finish(job.ID)
		return
	}
	d.active[job.ID] = handle
	d.activeFiles[job.ID] = job.FilePath
	defer func() {
		delete(d.active, job.ID)
		delete(d.activeFiles, job.ID)
	}()

	if d.waitWithPoll(ctx, job, target, handle, model) == outcomeCancelled {
		return
	}

	result, resultErr := handle.AwaitResult()
	if resultErr != nil {
		d.notifier.NotifyError(ctx, job.ID, target, msgChildFailure(resultErr.Error()))
		_ = d.store.SetError(job.ID, resultErr.Error())
		_, _ = d.store.Finish(job.ID)
		delete(d.activeFiles, job.ID)
		d.cleaner.Clean(d.preservedPaths())
		return
	}
	if result == nil { // child observed cancellation itself
		d.notifyStatus(ctx, job.ID, target, msgCancelled)
		_, _ = d.store.Cancel(job.ID)
		return
	}

	if result.Text == "" {
		d.notifyStatus(ctx, job.ID, target, msgNoSpeechDetected)
		_, _ = d.store.Finish(job.ID)
		delete(d.activeFiles, job.ID)
		d.cleaner.Clean(d.preservedPaths())
		return
	}

	transcriptPath, subtitlePath, err := d.artifact.Write(job, result)
	if err != nil {
		logger.Error("Failed to write transcript artifact", "job_id", job.ID, "error", err)
		d.notifier.NotifyError(ctx, job.ID, target, msgChildFailure(err.Error()))
		_ = d.store.SetError(job.ID, err.Error())
		_, _ = d.store.Finish(job.ID)
		delete(d.activeFiles, job.ID)
		d.cleaner.Clean(d.preservedPaths())
		return
	}

	attachments := []notify.Attachment{{Path: transcriptPath, Name: job.FileName + ".txt"}}
	if subtitlePath != "" {
		attachments = append(attachments, notify.Attachment{Path: subtitlePath, Name: job.FileName + ".srt"})
	}
	preview := result.Text
	if len(preview) > 500 {
		preview = preview[:500] + "…"
	}
	if err := d.notifier.NotifyResult(ctx, job.ID, target, preview, result.Text, attachments); err != nil {
		logger.Warn("Notification failure delivering result", "job_id", job.ID, "error", err)
	}

	_, _ = d.store.Finish(job.ID)
	delete(d.activeFiles, job.ID)
	d.cleaner.Clean(d.preservedPaths())
	logger.JobCompleted(job.ID, time.Duration(result.ProcessingTimeS*float64(time.Second)), transcriptPath)
}

type waitOutcome int

const (
	outcomeCompleted waitOutcome = iota
	outcomeCancelled
)

// waitWithPoll is step 9: the 1s-tick loop watching both the cancellation
// flag and the child's liveness, emitting progress roughly every 30s.
func (d *Dispatcher) waitWithPoll(ctx context.Context, job *models.Job, target notify.Target, handle *childproc.Handle, model string) waitOutcome {
	start := time.Now()
	duration := estimate.EstimateAudioDurationSeconds(job.FileSizeMB, estimate.IsVideo(job.FileName))
	if probed, ok := mediaprobe.Duration(ctx, job.FilePath); ok {
		duration = probed.Seconds()
	}
	estimated := estimate.EstimateProcessingSeconds(duration, job.FileSizeMB, model)

	for {
		if cancelled, err := d.store.IsCancelled(job.ID); err == nil && cancelled {
			handle.Kill()
			d.notifyStatus(ctx, job.ID, target, msgCancelled)
			_, _ = d.store.Cancel(job.ID)
			return outcomeCancelled
		}

		elapsed := time.Since(start)
		if estimate.ShouldEmitProgressTick(elapsed) {
			pct, bar := estimate.Progress(elapsed, estimated)
			d.notifyStatus(ctx, job.ID, target, msgProgress(job.FileName, model, int(elapsed.Seconds()), pct, bar))
		}

		if handle.Poll() != childproc.Running {
			return outcomeCompleted
		}

		sleepCtx(ctx, 1*time.Second)
	}
}

func (d *Dispatcher) selectModel(fileSizeMB float64) (effective string, downgraded bool) {
	model := d.cfg.DefaultModel
	if fileSizeMB > d.cfg.SmallModelThresholdMB && heavyModels[model] {
		return "small", true
	}
	return model, false
}

func (d *Dispatcher) notifyStatus(ctx context.Context, jobID uint, target notify.Target, text string) {
	if _, err := d.notifier.NotifyStatus(ctx, jobID, target, text); err != nil {
		logger.Warn("Notification failure", "job_id", jobID, "error", err)
	}
}

func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
