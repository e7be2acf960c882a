// Package batch runs a report handler over a set of session files.
package batch

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	dlerrors "github.com/otherjamesbrown/delib-cli/pkg/errors"
	"github.com/otherjamesbrown/delib-cli/pkg/logging"
)

// DefaultConcurrency is the default number of concurrent workers.
const DefaultConcurrency = 1

// Handler processes one session file. A nil return counts the file as
// processed; an error wrapping the malformed-input sentinel counts it as
// skipped; any other error counts it as failed. Failures never stop the run.
type Handler func(ctx context.Context, path string) error

// ProcessorConfig configures the batch processor.
type ProcessorConfig struct {
	// Concurrency is the number of worker goroutines. Files are the unit
	// of parallelism; a file is never split across workers.
	Concurrency int

	// RunID identifies the run in logs and results. Generated when empty.
	RunID string
}

// ProcessResult contains the result of a batch run.
type ProcessResult struct {
	RunID          string
	TotalFiles     int
	ProcessedCount int
	SkippedCount   int
	FailedCount    int
	StartedAt      time.Time
	CompletedAt    time.Time
	Success        bool
	Errors         []FileError
}

// FileError records an error for a specific file.
type FileError struct {
	FilePath string
	Error    string
}

// Processor runs a Handler over session files, sequentially or with a
// worker pool.
type Processor struct {
	cfg     ProcessorConfig
	handler Handler
	logger  logging.Logger

	progress *Progress
	mu       sync.Mutex
}

// NewProcessor creates a batch processor around a handler.
func NewProcessor(handler Handler, logger logging.Logger, cfg ProcessorConfig) *Processor {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}
	return &Processor{
		cfg:     cfg,
		handler: handler,
		logger:  logger.With(logging.F("component", "batch_processor")),
	}
}

// Process runs the handler over every file. Per-file failures are recorded
// in the result and never abort the remaining files; only context
// cancellation stops the run early.
func (p *Processor) Process(ctx context.Context, files []string) *ProcessResult {
	runID := p.cfg.RunID
	if runID == "" {
		runID = uuid.New().String()
	}

	result := &ProcessResult{
		RunID:      runID,
		TotalFiles: len(files),
		StartedAt:  time.Now(),
		Errors:     []FileError{},
	}

	if len(files) == 0 {
		result.CompletedAt = time.Now()
		result.Success = true
		return result
	}

	p.progress = NewProgress(len(files))
	p.progress.Start()

	log := p.logger.With(logging.F("run_id", runID))
	log.Info("starting batch run",
		logging.F("total_files", len(files)),
		logging.F("concurrency", p.cfg.Concurrency))

	if p.cfg.Concurrency == 1 {
		p.processSequential(ctx, log, files, result)
	} else {
		p.processParallel(ctx, log, files, result)
	}

	result.CompletedAt = time.Now()
	result.Success = result.FailedCount == 0

	p.progress.Complete(result.Success)
	log.Info("batch run finished",
		logging.F("processed", result.ProcessedCount),
		logging.F("skipped", result.SkippedCount),
		logging.F("failed", result.FailedCount))

	return result
}

// Progress returns the current progress tracker, nil before Process runs.
func (p *Processor) Progress() *Progress {
	return p.progress
}

func (p *Processor) processSequential(ctx context.Context, log logging.Logger, files []string, result *ProcessResult) {
	for _, file := range files {
		if ctx.Err() != nil {
			p.progress.Cancel()
			return
		}
		p.progress.SetCurrentFile(file)
		p.recordOutcome(log, file, p.handler(ctx, file), result)
	}
}

func (p *Processor) processParallel(ctx context.Context, log logging.Logger, files []string, result *ProcessResult) {
	filesCh := make(chan string, len(files))
	resultsCh := make(chan fileOutcome, len(files))

	var wg sync.WaitGroup
	for i := 0; i < p.cfg.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for file := range filesCh {
				if ctx.Err() != nil {
					resultsCh <- fileOutcome{file: file, err: ctx.Err()}
					continue
				}
				p.progress.SetCurrentFile(file)
				resultsCh <- fileOutcome{file: file, err: p.handler(ctx, file)}
			}
		}()
	}

	for _, file := range files {
		filesCh <- file
	}
	close(filesCh)

	go func() {
		wg.Wait()
		close(resultsCh)
	}()

	for fo := range resultsCh {
		p.recordOutcome(log, fo.file, fo.err, result)
	}
}

type fileOutcome struct {
	file string
	err  error
}

// recoverable reports whether err is a domain error the run can continue
// past. Scoped session errors answer for themselves; bare sentinels are
// recoverable for everything below run scope.
func recoverable(err error) bool {
	if se := dlerrors.AsSessionError(err); se != nil {
		return se.Recoverable()
	}
	return dlerrors.IsMalformedInput(err) ||
		dlerrors.IsUnattributableEvent(err) ||
		dlerrors.IsNegativeDuration(err)
}

func (p *Processor) recordOutcome(log logging.Logger, file string, err error, result *ProcessResult) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch {
	case err == nil:
		result.ProcessedCount++
		p.progress.RecordProcessed()
		log.Debug("file processed", logging.F("file", file))

	case recoverable(err):
		result.SkippedCount++
		p.progress.RecordSkipped()
		fields := []logging.Field{logging.F("file", file), logging.Err(err)}
		if se := dlerrors.AsSessionError(err); se != nil {
			fields = append(fields, logging.F("scope", string(se.Scope)))
			if se.Room != "" {
				fields = append(fields, logging.F("room", se.Room))
			}
		}
		log.Warn("file skipped", fields...)

	default:
		result.FailedCount++
		result.Errors = append(result.Errors, FileError{
			FilePath: file,
			Error:    err.Error(),
		})
		p.progress.RecordFailed()
		log.Error("file failed", logging.F("file", file), logging.Err(err))
	}
}
