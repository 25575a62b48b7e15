package tasks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/lens/internal/classifier"
	"github.com/desertthunder/lens/internal/models"
	"github.com/desertthunder/lens/internal/parser"
	"github.com/desertthunder/lens/internal/services"
	"github.com/desertthunder/lens/internal/shared"
)

const (
	DefaultWorkers = 4

	stageClassify = "classify"
	stageEnrich   = "enrich"
	stagePersist  = "persist"
)

var errPersistenceUnavailable = errors.New("persistence unavailable: every entry failed to persist")

// Store is the persistence collaborator a scan writes to.
type Store interface {
	CreateScanLog(ctx context.Context, log *models.ScanLog) error
	UpdateScanLog(ctx context.Context, id string, patch models.ScanLogPatch) error
	CreateMovie(ctx context.Context, m *models.MovieRecord) error
	CreateSeries(ctx context.Context, s *models.SeriesRecord) error
	CreateChannel(ctx context.Context, c *models.ChannelRecord) error
}

// Enricher looks up external metadata for a classified entry.
type Enricher interface {
	Enrich(ctx context.Context, title string, year int, kind models.ContentType) (*models.Candidate, error)
	Details(ctx context.Context, cand models.Candidate) (*models.Details, error)
}

// ClassifyFunc decides the type and heuristic metadata of an entry.
type ClassifyFunc func(models.PlaylistEntry) models.ClassificationResult

// ScanRequest identifies the source of one scan.
type ScanRequest struct {
	SourceID    string
	Location    string // URL, file path, inline playlist text or Xtream server
	SourceType  models.SourceType
	Credentials models.Credentials
}

// ScanOpts configures a [ScanEngine].
type ScanOpts struct {
	Enricher    Enricher         // Optional; nil scans heuristically
	Workers     int              // Concurrent entries (default: 4, max: 16)
	ScanTimeout time.Duration    // Bound on the whole scan (default: none)
	Classify    ClassifyFunc     // Default: classifier.Classify
	Logger      *log.Logger      // Default: discard
	Now         func() time.Time // Default: time.Now
}

// ScanEngine runs scans against one fetcher and store.
type ScanEngine struct {
	fetcher  services.Fetcher
	store    Store
	enricher Enricher
	classify ClassifyFunc
	workers  int
	timeout  time.Duration
	logger   *log.Logger
	now      func() time.Time
}

// NewScanEngine creates a ScanEngine.
func NewScanEngine(fetcher services.Fetcher, store Store, opts ScanOpts) *ScanEngine {
	if opts.Workers == 0 {
		opts.Workers = DefaultWorkers
	}
	if opts.Classify == nil {
		opts.Classify = classifier.Classify
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &ScanEngine{
		fetcher:  fetcher,
		store:    store,
		enricher: opts.Enricher,
		classify: opts.Classify,
		workers:  shared.ScanConfig{Workers: opts.Workers}.WorkerCount(),
		timeout:  opts.ScanTimeout,
		logger:   opts.Logger,
		now:      opts.Now,
	}
}

// sendProgress sends a progress update through the channel without blocking.
func (e *ScanEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

type scanJob struct {
	index int
	entry models.PlaylistEntry
}

type scanResult struct {
	outcome       EntryOutcome
	persistFailed bool
}

// RunScan performs one scan and returns its terminal [models.ScanLog].
//
// The returned error is non-nil only for scan-fatal conditions: a source that cannot be
// fetched or parsed ([shared.ParseError]), an unusable store ([shared.PersistenceError]) or
// cancellation. Entry-level failures are reported in the log's Errors.
// If the scan log cannot be created at all the returned log is nil.
func (e *ScanEngine) RunScan(ctx context.Context, req ScanRequest, progress chan<- ProgressUpdate) (*models.ScanLog, error) {
	if e.fetcher == nil || e.store == nil {
		return nil, fmt.Errorf("%w: scan engine not initialized", shared.ErrServiceUnavailable)
	}

	scanLog := models.NewScanLog(req.SourceID, e.now())
	scanLog.ID = shared.GenerateID()
	if err := e.store.CreateScanLog(ctx, scanLog); err != nil {
		return nil, asPersistence("create scan log", err)
	}

	logger := shared.WithLogger(e.logger, "scan", scanLog.ID, "source", req.SourceID)
	logger.Info("scan started", "type", req.SourceType, "workers", e.workers)

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	e.sendProgress(progress, fetchSourceUpdate(req.SourceID))
	text, err := e.fetcher.FetchText(ctx, services.Source{
		Location:    req.Location,
		Type:        req.SourceType,
		Credentials: req.Credentials,
	})
	if err != nil {
		if !errors.Is(err, shared.ErrParse) {
			err = shared.NewParseError(req.SourceID, err)
		}
		return e.fail(ctx, logger, scanLog, progress, err.Error(), err)
	}

	entries := parser.Parse(text)
	if err := scanLog.SetTotal(len(entries)); err != nil {
		return e.fail(ctx, logger, scanLog, progress, err.Error(), err)
	}
	e.sendProgress(progress, parseUpdate(len(entries)))
	e.flush(ctx, logger, scanLog)

	persistFailures := e.process(ctx, logger, req.SourceID, entries, scanLog, progress)

	switch {
	case ctx.Err() != nil && scanLog.ProcessedEntries < scanLog.TotalEntries:
		err := fmt.Errorf("scan interrupted: %w", ctx.Err())
		return e.fail(ctx, logger, scanLog, progress, "interrupted: "+ctx.Err().Error(), err)
	case scanLog.ProcessedEntries > 0 && persistFailures == scanLog.ProcessedEntries:
		err := asPersistence("persist entries", errPersistenceUnavailable)
		return e.fail(ctx, logger, scanLog, progress, errPersistenceUnavailable.Error(), err)
	}

	if err := scanLog.Complete(e.now()); err != nil {
		return scanLog.Snapshot(), err
	}
	if err := e.flush(ctx, logger, scanLog); err != nil {
		return scanLog.Snapshot(), err
	}

	logger.Info("scan completed",
		"total", scanLog.TotalEntries,
		"processed", scanLog.ProcessedEntries,
		"errors", len(scanLog.Errors),
		"elapsed", shared.FormatDuration(scanLog.Duration(e.now())),
	)
	e.sendProgress(progress, completeUpdate(scanLog.Snapshot()))
	return scanLog.Snapshot(), nil
}

// process fans entries out to the worker pool and records each outcome on scanLog.
// It returns the number of entries the store failed to persist; rejected records are not counted.
func (e *ScanEngine) process(
	ctx context.Context,
	logger *log.Logger,
	sourceID string,
	entries []models.PlaylistEntry,
	scanLog *models.ScanLog,
	progress chan<- ProgressUpdate,
) int {
	if len(entries) == 0 {
		return 0
	}

	jobs := make(chan scanJob)
	results := make(chan scanResult, e.workers)

	var wg sync.WaitGroup
	for range min(e.workers, len(entries)) {
		wg.Add(1)
		go e.scanWorker(ctx, &wg, sourceID, jobs, results)
	}

	go func() {
		defer close(jobs)
		for i, entry := range entries {
			if ctx.Err() != nil {
				return
			}
			select {
			case <-ctx.Done():
				return
			case jobs <- scanJob{index: i, entry: entry}:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	persistFailures := 0
	for res := range results {
		msg := ""
		if res.outcome.Err != nil {
			msg = res.outcome.Err.Error()
			logger.Warn("entry failed", "index", res.outcome.Index, "name", res.outcome.Name, "err", res.outcome.Err)
		}
		if err := scanLog.RecordAttempt(msg); err != nil {
			logger.Error("failed to record entry", "index", res.outcome.Index, "err", err)
			continue
		}
		if res.persistFailed {
			persistFailures++
		}
		e.sendProgress(progress, entryUpdate(scanLog.ProcessedEntries, scanLog.TotalEntries, res.outcome))
	}
	return persistFailures
}

// scanWorker processes jobs until the channel closes.
func (e *ScanEngine) scanWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	sourceID string,
	jobs <-chan scanJob,
	results chan<- scanResult,
) {
	defer wg.Done()
	for job := range jobs {
		results <- e.processEntry(ctx, sourceID, job)
	}
}

// processEntry classifies, enriches and persists one entry. It never panics.
func (e *ScanEngine) processEntry(ctx context.Context, sourceID string, job scanJob) (res scanResult) {
	res.outcome = EntryOutcome{Index: job.index, Name: entryName(job.entry)}
	defer func() {
		if r := recover(); r != nil {
			res.outcome.Err = &shared.EntryError{
				Index: job.index,
				Name:  res.outcome.Name,
				Stage: stageClassify,
				Err:   fmt.Errorf("panic: %v", r),
			}
		}
	}()

	result := e.classify(job.entry)
	result.Confidence = classifier.Clamp(result.Confidence)
	res.outcome.Type = result.Type

	var enrichErr error
	if e.enricher != nil && result.Type != models.Channel {
		result, enrichErr = e.enrich(ctx, result)
	}
	res.outcome.Result = &result

	if err := e.persist(ctx, sourceID, job.entry, result); err != nil {
		res.persistFailed = !rejected(err)
		res.outcome.Err = &shared.EntryError{Index: job.index, Name: res.outcome.Name, Stage: stagePersist, Err: err}
		return res
	}
	if enrichErr != nil {
		res.outcome.Err = &shared.EntryError{Index: job.index, Name: res.outcome.Name, Stage: stageEnrich, Err: enrichErr}
	}
	return res
}

// enrich merges the best provider candidate into result. Provider errors are returned
// alongside whatever could still be merged.
func (e *ScanEngine) enrich(ctx context.Context, result models.ClassificationResult) (models.ClassificationResult, error) {
	md := result.Metadata
	cand, err := e.enricher.Enrich(ctx, md.Title, md.Year, result.Type)
	if cand == nil {
		return result, err
	}

	details, derr := e.enricher.Details(ctx, *cand)
	return classifier.Apply(result, cand, details), errors.Join(err, derr)
}

func (e *ScanEngine) persist(ctx context.Context, sourceID string, entry models.PlaylistEntry, result models.ClassificationResult) error {
	switch result.Type {
	case models.Movie:
		return e.store.CreateMovie(ctx, models.NewMovieRecord(sourceID, entry, result))
	case models.Series:
		return e.store.CreateSeries(ctx, models.NewSeriesRecord(sourceID, entry, result))
	default:
		return e.store.CreateChannel(ctx, models.NewChannelRecord(sourceID, entry, result))
	}
}

// fail moves scanLog to failed, flushes it and reports cause.
func (e *ScanEngine) fail(
	ctx context.Context,
	logger *log.Logger,
	scanLog *models.ScanLog,
	progress chan<- ProgressUpdate,
	reason string,
	cause error,
) (*models.ScanLog, error) {
	if err := scanLog.Fail(e.now(), reason); err != nil {
		logger.Error("failed to mark scan failed", "err", err)
	}
	if err := e.flush(ctx, logger, scanLog); err != nil {
		cause = errors.Join(cause, err)
	}
	logger.Error("scan failed",
		"processed", scanLog.ProcessedEntries,
		"total", scanLog.TotalEntries,
		"err", cause,
	)
	e.sendProgress(progress, failedUpdate(scanLog.Snapshot(), cause))
	return scanLog.Snapshot(), cause
}

// flush writes the current state of scanLog. It runs detached from cancellation so an
// interrupted scan still records the counts it reached.
func (e *ScanEngine) flush(ctx context.Context, logger *log.Logger, scanLog *models.ScanLog) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	if err := e.store.UpdateScanLog(ctx, scanLog.ID, scanLog.Patch()); err != nil {
		logger.Error("failed to update scan log", "err", err)
		return asPersistence("update scan log", err)
	}
	return nil
}

// rejected reports whether err is a record validation failure rather than a store fault.
func rejected(err error) bool {
	return errors.Is(err, models.ErrMissingTitle) ||
		errors.Is(err, models.ErrMissingURL) ||
		errors.Is(err, models.ErrMissingSource) ||
		errors.Is(err, models.ErrConfidence)
}

func asPersistence(op string, err error) error {
	var pe *shared.PersistenceError
	if errors.As(err, &pe) {
		return err
	}
	return &shared.PersistenceError{Op: op, Err: err}
}

func entryName(e models.PlaylistEntry) string {
	if e.Name != "" {
		return e.Name
	}
	return e.RawName
}
