package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotfill/internal/models"
	"github.com/desertthunder/spotfill/internal/services"
	"github.com/desertthunder/spotfill/internal/shared"
	"golang.org/x/time/rate"
)

// DefaultMaxAttempts is how many deferrals a row may accumulate across runs before it is abandoned.
const DefaultMaxAttempts = 3

// InputStore records that an input row no longer needs a lookup.
type InputStore interface {
	MarkProcessed(index int) error
}

// OutputStore holds resolved tracks, unique by track URL.
type OutputStore interface {
	Contains(trackURL string) bool
	// Append adds row unless its track URL is already present. Reports whether a row was written.
	Append(row models.OutputRow) (bool, error)
	Count() int
}

// AttemptTracker counts failed lookups per row across runs.
//
// Implemented by repositories.AttemptRepository.
type AttemptTracker interface {
	RecordFailure(row models.InputRow, reason string) (int, error)
	Clear(key string) error
}

// Outcome is the terminal state of one row within a run.
type Outcome int

const (
	Resolved  Outcome = iota // appended to the output table
	Duplicate                // resolved to a track already in the output table
	NoMatch                  // neither query returned anything
	Deferred                 // lookup failed, row left pending
	Abandoned                // lookup failed too many times, row marked processed without output
)

func (o Outcome) String() string {
	switch o {
	case Resolved:
		return "resolved"
	case Duplicate:
		return "duplicate"
	case NoMatch:
		return "no match"
	case Deferred:
		return "deferred"
	case Abandoned:
		return "abandoned"
	default:
		return "unknown"
	}
}

// RowResult describes what happened to one row.
type RowResult struct {
	Row      models.InputRow
	Outcome  Outcome
	Output   *models.OutputRow // Set for Resolved and Duplicate
	Fallback bool              // Matched by the artist-only query
	Attempts int               // Recorded failures, for Deferred and Abandoned
	Err      error             // Lookup error, for Deferred and Abandoned
}

// RunResult contains the counters of one pipeline run.
type RunResult struct {
	Total       int // Rows in the budget
	Resolved    int
	Duplicates  int
	NoMatch     int
	Deferred    int
	Abandoned   int
	Requests    int // Searches sent to the catalog
	RateLimited int // 429 responses received
	GateWaits   int // Times the rate gate made us sleep
	Elapsed     time.Duration
	Failures    []RowResult // Deferred and Abandoned rows
}

// Attempted returns the number of rows that reached a terminal state this run.
func (r *RunResult) Attempted() int {
	return r.Resolved + r.Duplicates + r.NoMatch + r.Deferred + r.Abandoned
}

func (r *RunResult) record(res RowResult) {
	switch res.Outcome {
	case Resolved:
		r.Resolved++
	case Duplicate:
		r.Duplicates++
	case NoMatch:
		r.NoMatch++
	case Deferred:
		r.Deferred++
		r.Failures = append(r.Failures, res)
	case Abandoned:
		r.Abandoned++
		r.Failures = append(r.Failures, res)
	}
}

// Options configures an [Enricher]. Zero values fall back to defaults.
type Options struct {
	Goal              int
	CountFallback     bool          // Pass the artist-only fallback search through the rate gate
	MaxAttempts       int           // Deferrals before a row is abandoned; 0 disables abandoning
	DefaultRetryAfter time.Duration // Used when a 429 carries no usable Retry-After
	Gate              *RateGate
	Clock             Clock
	Logger            *log.Logger
	Attempts          AttemptTracker // Optional
}

// Enricher resolves input rows against a [services.Catalog] one at a time, writing matches to the output store and
// progress to the input store.
type Enricher struct {
	catalog  services.Catalog
	input    InputStore
	output   OutputStore
	attempts AttemptTracker

	goal              int
	countFallback     bool
	maxAttempts       int
	defaultRetryAfter time.Duration

	gate      *RateGate
	clock     Clock
	logger    *log.Logger
	estimator *Estimator

	progress chan<- ProgressUpdate
	step     int
	total    int
	result   *RunResult
}

// NewEnricher creates an Enricher. Missing collaborators in opts are replaced with defaults.
func NewEnricher(catalog services.Catalog, input InputStore, output OutputStore, opts Options) *Enricher {
	e := &Enricher{
		catalog:           catalog,
		input:             input,
		output:            output,
		attempts:          opts.Attempts,
		goal:              opts.Goal,
		countFallback:     opts.CountFallback,
		maxAttempts:       opts.MaxAttempts,
		defaultRetryAfter: opts.DefaultRetryAfter,
		gate:              opts.Gate,
		clock:             opts.Clock,
		logger:            opts.Logger,
		estimator:         NewEstimator(0),
		result:            &RunResult{},
	}

	if e.goal <= 0 {
		e.goal = DefaultGoal
	}
	if e.maxAttempts < 0 {
		e.maxAttempts = 0
	}
	if e.defaultRetryAfter <= 0 {
		e.defaultRetryAfter = time.Second
	}
	if e.clock == nil {
		e.clock = SystemClock{}
	}
	if e.gate == nil {
		e.gate = NewRateGate(DefaultRequestsPerWindow, DefaultWindow, e.clock)
	}
	if e.logger == nil {
		e.logger = shared.NewLogger(nil)
	}
	return e
}

// sendProgress sends a progress update through the channel without blocking.
func (e *Enricher) sendProgress(update ProgressUpdate) {
	if e.progress == nil {
		return
	}
	select {
	case e.progress <- update:
	default:
	}
}

// Run resolves rows in order, stopping early if ctx is cancelled.
//
// alreadyRetrieved is the output count before this run and only feeds progress reporting. Lookup failures never
// abort the run; table write errors do. The returned result is non-nil even when err is not.
func (e *Enricher) Run(ctx context.Context, rows []models.InputRow, alreadyRetrieved int, progress chan<- ProgressUpdate) (*RunResult, error) {
	if e.catalog == nil {
		return nil, fmt.Errorf("%w: catalog not initialized", shared.ErrServiceUnavailable)
	}

	e.progress = progress
	e.total = len(rows)
	e.result = &RunResult{Total: len(rows)}
	defer func() { e.progress = nil }()

	started := e.clock.Now()
	logEvery := rate.Sometimes{First: 1, Every: 25, Interval: 30 * time.Second}

	e.sendProgress(loadRowsUpdate(len(rows), len(rows)))

	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			e.result.Elapsed = e.clock.Now().Sub(started)
			return e.result, err
		}

		e.step = i + 1
		e.sendProgress(searchTrackUpdate(e.step, e.total, alreadyRetrieved+e.step, e.goal, row))

		rowStart := e.clock.Now()
		res, err := e.ResolveOne(ctx, row)
		if err != nil {
			e.result.Elapsed = e.clock.Now().Sub(started)
			return e.result, err
		}
		e.estimator.Observe(e.clock.Now().Sub(rowStart))
		e.result.record(res)

		processed := e.output.Count()
		p := RowProgress{
			Row:       row,
			Outcome:   res.Outcome,
			Processed: processed,
			Goal:      e.goal,
			Percent:   percent(processed, e.goal),
			ETA:       e.estimator.ETA(e.total - e.step),
		}
		e.sendProgress(rowDoneUpdate(e.step, e.total, p))

		logEvery.Do(func() {
			e.logger.Info("progress",
				"step", e.step, "total", e.total,
				"retrieved", processed, "goal", e.goal,
				"percent", fmt.Sprintf("%.2f", p.Percent),
				"eta", formatETA(p.ETA))
		})
	}

	e.result.Elapsed = e.clock.Now().Sub(started)
	e.sendProgress(completeUpdate(e.result))
	return e.result, nil
}

// ResolveOne looks up a single row and records the outcome in the stores.
//
// A 429 on either query waits for the advertised Retry-After and starts the row over. Other lookup failures defer
// the row, or abandon it once the attempt tracker reports too many failures. The returned error is only ever a
// store failure or context cancellation.
func (e *Enricher) ResolveOne(ctx context.Context, row models.InputRow) (RowResult, error) {
	logger := shared.WithLogger(e.logger, "artist", row.Artist, "title", row.Title)
	req := services.SearchRequest{Artist: row.Artist, Title: row.Title}

	for {
		res, err := e.search(ctx, req, true)
		if retry, cerr := e.handleRateLimit(ctx, err, logger); cerr != nil {
			return RowResult{Row: row}, cerr
		} else if retry {
			continue
		}
		if err != nil {
			return e.deferRow(row, err, logger)
		}

		track := res.First()
		fallback := false
		if track == nil {
			logger.Debug("no match, trying artist-only query")
			res, err = e.search(ctx, req.ArtistOnly(), e.countFallback)
			if retry, cerr := e.handleRateLimit(ctx, err, logger); cerr != nil {
				return RowResult{Row: row}, cerr
			} else if retry {
				continue
			}
			if err != nil {
				return e.deferRow(row, err, logger)
			}
			track = res.First()
			fallback = true
		}

		if track == nil {
			logger.Info("no match")
			if err := e.markProcessed(row); err != nil {
				return RowResult{Row: row}, err
			}
			return RowResult{Row: row, Outcome: NoMatch}, nil
		}

		return e.store(row, *track, fallback, logger)
	}
}

func (e *Enricher) search(ctx context.Context, req services.SearchRequest, gated bool) (*services.SearchResult, error) {
	if gated {
		if d := e.gate.Delay(); d > 0 {
			e.logger.Info("API call limit reached", "wait", fmt.Sprintf("%.2fs", d.Seconds()))
			e.sendProgress(rateWaitUpdate(e.step, e.total, d))
		}
		slept, err := e.gate.Wait(ctx)
		if err != nil {
			return nil, err
		}
		if slept > 0 {
			e.result.GateWaits++
		}
	}
	e.result.Requests++
	return e.catalog.Search(ctx, req)
}

// handleRateLimit sleeps for the Retry-After of a 429 and reports whether the row should start over.
func (e *Enricher) handleRateLimit(ctx context.Context, err error, logger *log.Logger) (bool, error) {
	if err == nil {
		return false, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return false, ctxErr
	}

	var rl *services.RateLimitError
	if !errors.As(err, &rl) {
		return false, nil
	}

	wait := rl.RetryAfter
	if wait <= 0 {
		wait = e.defaultRetryAfter
	}
	e.result.RateLimited++
	logger.Warn("rate limit exceeded", "retry_after", wait)
	e.sendProgress(backoffUpdate(e.step, e.total, wait))

	if err := e.clock.Sleep(ctx, wait); err != nil {
		return false, err
	}
	return true, nil
}

func (e *Enricher) store(row models.InputRow, track services.SpotifyTrack, fallback bool, logger *log.Logger) (RowResult, error) {
	year, err := models.ReleaseYear(row.Year, track.Album.ReleaseDate)
	if err != nil {
		logger.Warn("could not resolve year", "error", err)
		year = 0
	}

	artist := track.PrimaryArtist()
	out := models.OutputRow{
		Year:       year,
		TrackURL:   models.TrackURL(track.ID),
		TrackName:  track.Name,
		ArtistID:   artist.ID,
		ArtistName: artist.Name,
		AlbumID:    track.Album.ID,
		Popularity: track.Popularity,
	}

	outcome := Duplicate
	if !e.output.Contains(out.TrackURL) {
		appended, err := e.output.Append(out)
		if err != nil {
			return RowResult{Row: row}, fmt.Errorf("failed to append %s: %w", out.TrackURL, err)
		}
		if appended {
			outcome = Resolved
		}
	}

	if outcome == Duplicate {
		logger.Info("duplicate track skipped", "track", out.TrackURL)
	} else {
		logger.Info("resolved", "track", out.TrackURL, "name", out.TrackName, "year", out.Year, "fallback", fallback)
	}

	if err := e.markProcessed(row); err != nil {
		return RowResult{Row: row}, err
	}
	if e.attempts != nil {
		if err := e.attempts.Clear(row.Key()); err != nil {
			logger.Warn("failed to clear attempts", "error", err)
		}
	}
	return RowResult{Row: row, Outcome: outcome, Output: &out, Fallback: fallback}, nil
}

func (e *Enricher) deferRow(row models.InputRow, cause error, logger *log.Logger) (RowResult, error) {
	res := RowResult{Row: row, Outcome: Deferred, Err: cause}
	if e.attempts == nil {
		logger.Warn("lookup failed, deferring", "error", cause)
		return res, nil
	}

	n, err := e.attempts.RecordFailure(row, cause.Error())
	if err != nil {
		logger.Warn("failed to record attempt", "error", err)
		return res, nil
	}
	res.Attempts = n

	if e.maxAttempts > 0 && n >= e.maxAttempts {
		logger.Warn("lookup failed, abandoning", "attempts", n, "error", cause)
		if err := e.markProcessed(row); err != nil {
			return RowResult{Row: row}, err
		}
		res.Outcome = Abandoned
		return res, nil
	}

	logger.Warn("lookup failed, deferring", "attempts", n, "error", cause)
	return res, nil
}

func (e *Enricher) markProcessed(row models.InputRow) error {
	if err := e.input.MarkProcessed(row.Index); err != nil {
		return fmt.Errorf("failed to mark row %d processed: %w", row.Index, err)
	}
	return nil
}
