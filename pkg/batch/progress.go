package batch

import (
	"sync"
	"time"
)

// Progress tracks the progress of a batch run.
type Progress struct {
	mu sync.RWMutex

	TotalFiles     int
	ProcessedCount int
	SkippedCount   int
	FailedCount    int

	CurrentFile string
	Status      string

	StartedAt time.Time
	UpdatedAt time.Time

	onUpdate func(ProgressSnapshot)
}

// NewProgress creates a new progress tracker.
func NewProgress(totalFiles int) *Progress {
	return &Progress{
		TotalFiles: totalFiles,
		Status:     "pending",
		StartedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}
}

// SetOnUpdate sets a callback called on each update.
func (p *Progress) SetOnUpdate(fn func(ProgressSnapshot)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onUpdate = fn
}

// Start marks the run as started.
func (p *Progress) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Status = "running"
	p.StartedAt = time.Now()
	p.UpdatedAt = time.Now()
	p.notifyUpdate()
}

// SetCurrentFile updates the file currently being processed.
func (p *Progress) SetCurrentFile(path string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.CurrentFile = path
	p.UpdatedAt = time.Now()
	p.notifyUpdate()
}

// RecordProcessed counts one file as fully processed.
func (p *Progress) RecordProcessed() {
	p.record(func() { p.ProcessedCount++ })
}

// RecordSkipped counts one file as skipped.
func (p *Progress) RecordSkipped() {
	p.record(func() { p.SkippedCount++ })
}

// RecordFailed counts one file as failed.
func (p *Progress) RecordFailed() {
	p.record(func() { p.FailedCount++ })
}

func (p *Progress) record(bump func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	bump()
	p.UpdatedAt = time.Now()
	p.notifyUpdate()
}

// Complete marks the run as completed or failed.
func (p *Progress) Complete(success bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if success {
		p.Status = "completed"
	} else {
		p.Status = "failed"
	}
	p.UpdatedAt = time.Now()
	p.notifyUpdate()
}

// Cancel marks the run as cancelled.
func (p *Progress) Cancel() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Status = "cancelled"
	p.UpdatedAt = time.Now()
	p.notifyUpdate()
}

// Snapshot returns a read-only copy of the current progress.
func (p *Progress) Snapshot() ProgressSnapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.snapshotLocked()
}

// snapshotLocked must be called with at least a read lock held.
func (p *Progress) snapshotLocked() ProgressSnapshot {
	elapsed := time.Since(p.StartedAt).Seconds()
	done := p.ProcessedCount + p.SkippedCount + p.FailedCount

	var estimatedRemaining *float64
	if done > 0 {
		remaining := p.TotalFiles - done
		rate := elapsed / float64(done)
		est := rate * float64(remaining)
		estimatedRemaining = &est
	}

	return ProgressSnapshot{
		TotalFiles:                p.TotalFiles,
		ProcessedCount:            p.ProcessedCount,
		SkippedCount:              p.SkippedCount,
		FailedCount:               p.FailedCount,
		CurrentFile:               p.CurrentFile,
		Status:                    p.Status,
		StartedAt:                 p.StartedAt,
		ElapsedSeconds:            elapsed,
		EstimatedRemainingSeconds: estimatedRemaining,
	}
}

// notifyUpdate calls the update callback if set.
// Must be called with lock held.
func (p *Progress) notifyUpdate() {
	if p.onUpdate != nil {
		go p.onUpdate(p.snapshotLocked())
	}
}

// ProgressSnapshot is an immutable snapshot of progress state.
type ProgressSnapshot struct {
	TotalFiles                int
	ProcessedCount            int
	SkippedCount              int
	FailedCount               int
	CurrentFile               string
	Status                    string
	StartedAt                 time.Time
	ElapsedSeconds            float64
	EstimatedRemainingSeconds *float64
}

// DoneCount returns the number of files with a recorded outcome.
func (s ProgressSnapshot) DoneCount() int {
	return s.ProcessedCount + s.SkippedCount + s.FailedCount
}

// PercentComplete returns the percentage of files with a recorded outcome.
func (s ProgressSnapshot) PercentComplete() float64 {
	if s.TotalFiles == 0 {
		return 0
	}
	return float64(s.DoneCount()) / float64(s.TotalFiles) * 100
}

// IsComplete returns true if all files have a recorded outcome.
func (s ProgressSnapshot) IsComplete() bool {
	return s.DoneCount() >= s.TotalFiles
}

// IsSuccess returns true if the run completed without failures.
func (s ProgressSnapshot) IsSuccess() bool {
	return s.Status == "completed" && s.FailedCount == 0
}
