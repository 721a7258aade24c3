package processor

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"TrailZero/core"
	"TrailZero/internal/logger"
	"TrailZero/internal/metrics"
	"TrailZero/internal/retry"
	"TrailZero/output"
	"TrailZero/parsers"
	"TrailZero/source"
)

// Notifier receives the completion summary of a run
type Notifier interface {
	Notify(message string)
}

// NotifierFunc adapts a function to the Notifier interface
type NotifierFunc func(message string)

// Notify calls f(message)
func (f NotifierFunc) Notify(message string) { f(message) }

// LogNotifier logs the summary at INFO level
type LogNotifier struct{}

// Notify implements Notifier
func (LogNotifier) Notify(message string) {
	logger.Info("%s", message)
}

// ProgressFunc is called after each file with the number of files processed
// so far and the number of files found. Calls are serialized.
type ProgressFunc func(processed, total int)

// Deps are the collaborators of a Processor
type Deps struct {
	// Source discovers the candidate files and reads their content
	Source source.Source

	// Writer receives every record
	Writer output.Writer

	// Notifier receives the summary; nil discards it
	Notifier Notifier

	// Cancelled is polled before each file; nil never cancels
	Cancelled func() bool

	// Progress is optional
	Progress ProgressFunc

	// Parser defaults to a CloudTrailParser
	Parser parsers.Parser
}

// Option configures a Processor
type Option func(*Processor)

// WithWorkers sets how many files are processed concurrently. Records of one
// file are always emitted in order by a single worker.
func WithWorkers(n int) Option {
	return func(p *Processor) {
		if n > 0 {
			p.numWorkers = n
		}
	}
}

// WithReadRetry sets the retry policy for reading file content
func WithReadRetry(config retry.Config) Option {
	return func(p *Processor) {
		p.readRetry = config
	}
}

// Processor runs one batch: discover the files, then read, parse and emit
// the records of each of them
type Processor struct {
	deps       Deps
	numWorkers int
	readRetry  retry.Config

	progressMu sync.Mutex
}

// New creates a processor. By default files are processed sequentially.
func New(deps Deps, opts ...Option) *Processor {
	if deps.Parser == nil {
		deps.Parser = &parsers.CloudTrailParser{}
	}
	if deps.Notifier == nil {
		deps.Notifier = NotifierFunc(func(string) {})
	}

	p := &Processor{
		deps:       deps,
		numWorkers: 1,
		readRetry:  retry.DefaultConfig,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run processes every discovered file and returns the aggregate result. It
// never fails as a whole: problems are collected in the result, and the
// summary is delivered to the notifier even when the run was cancelled.
func (p *Processor) Run(ctx context.Context) *core.BatchResult {
	start := time.Now()
	result := &core.BatchResult{}

	defer func() {
		result.Duration = time.Since(start)
		p.deps.Notifier.Notify(result.Summary())
	}()

	files, err := p.deps.Source.Find(ctx)
	if err != nil {
		logger.Error("File discovery failed: %v", err)
		p.addError(result, fmt.Errorf("failed to discover files: %w", err))
		if ctx.Err() != nil {
			result.MarkCancelled()
		}
		return result
	}
	result.FilesFound = len(files)
	logger.Info("Found %d candidate files", len(files))

	if p.numWorkers <= 1 || len(files) <= 1 {
		for _, file := range files {
			if p.cancelled(ctx) {
				result.MarkCancelled()
				break
			}
			p.processFile(ctx, file, result)
		}
		return result
	}

	p.runWorkers(ctx, files, result)
	return result
}

func (p *Processor) runWorkers(ctx context.Context, files []source.File, result *core.BatchResult) {
	filesChan := make(chan source.File)

	var wg sync.WaitGroup
	for i := 0; i < p.numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for file := range filesChan {
				p.processFile(ctx, file, result)
			}
		}()
	}

	// Cancellation is checked before each file is handed out; files already
	// taken by a worker run to completion
	for _, file := range files {
		if p.cancelled(ctx) {
			result.MarkCancelled()
			break
		}
		filesChan <- file
	}

	close(filesChan)
	wg.Wait()
}

func (p *Processor) cancelled(ctx context.Context) bool {
	if ctx.Err() != nil {
		return true
	}
	return p.deps.Cancelled != nil && p.deps.Cancelled()
}

// processFile reads, parses and emits one file
func (p *Processor) processFile(ctx context.Context, file source.File, result *core.BatchResult) {
	start := time.Now()
	defer func() {
		metrics.ObserveFileParseDuration(time.Since(start))
	}()

	logger.Debug("Processing file: %s", file.Path)

	content, err := p.readContent(ctx, file)
	if err != nil {
		if ctx.Err() != nil {
			// Cancelled while reading; the file was never processed
			result.MarkCancelled()
			return
		}
		decodeErr := &core.DocumentDecodeError{Source: file.Path, Err: err}
		logger.Error("%v", decodeErr)
		p.addError(result, decodeErr)
		p.fileDone(file, result, 0)
		return
	}

	records, err := p.deps.Parser.Parse(&core.Document{Source: file.Path, Content: content})
	if err != nil {
		if !errors.Is(err, core.ErrDocumentDecode) {
			err = &core.DocumentDecodeError{Source: file.Path, Err: err}
		}
		logger.Error("%v", err)
		p.addError(result, err)
		p.fileDone(file, result, 0)
		return
	}

	emitted := 0
	for record, recordErr := range records {
		if recordErr != nil {
			logger.Warn("%v", recordErr)
			p.addError(result, recordErr)
		}
		if record == nil {
			continue
		}

		if _, err := p.deps.Writer.Write(record); err != nil {
			sinkErr := &core.SinkWriteError{Source: file.Path, Index: record.Index, Err: err}
			logger.Error("%v", sinkErr)
			p.addError(result, sinkErr)
			result.AddLost()
			continue
		}

		result.AddRecord()
		metrics.IncRecordsEmitted()
		emitted++
	}

	p.fileDone(file, result, emitted)
}

// readContent reads a file, retrying failures that may be transient
func (p *Processor) readContent(ctx context.Context, file source.File) ([]byte, error) {
	var content []byte
	err := retry.Do(ctx, "read "+file.Path, p.readRetry, func() error {
		var err error
		content, err = p.deps.Source.Read(ctx, file)
		if isCorrupt(err) {
			return retry.Permanent(err)
		}
		return err
	})
	return content, err
}

// isCorrupt reports content errors that another attempt cannot fix
func isCorrupt(err error) bool {
	return errors.Is(err, gzip.ErrHeader) ||
		errors.Is(err, gzip.ErrChecksum) ||
		errors.Is(err, io.ErrUnexpectedEOF)
}

func (p *Processor) fileDone(file source.File, result *core.BatchResult, emitted int) {
	metrics.IncFilesProcessed()

	p.progressMu.Lock()
	defer p.progressMu.Unlock()

	processed := result.FileDone()
	logger.Debug("Processed file: %s (%d records)", file.Path, emitted)
	if p.deps.Progress != nil {
		p.deps.Progress(processed, result.FilesFound)
	}
}

func (p *Processor) addError(result *core.BatchResult, err error) {
	metrics.IncError(err)
	result.AddError(err)
}
