// Package verify checks that a media endpoint serves the same bytes for a
// resource whether it is asked to stream it live or to read it as a static
// file, across a set of byte ranges.
//
// Each scenario issues two requests that differ only in the live_streaming
// query parameter, digests both bodies and compares them. Scenarios run
// strictly one after another.
package verify

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/azhovan/rangeprobe/pkg/client"
	"github.com/azhovan/rangeprobe/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/multierr"
)

// ErrNoResponse is recorded when a Fetcher returns neither a response nor an error.
var ErrNoResponse = errors.New("no response received")

// Fetcher performs a single request and reads the body in full.
// *client.Client is the production implementation.
type Fetcher interface {
	Fetch(ctx context.Context, spec client.RequestSpec) (*client.ResponseRecord, error)
}

// Verifier runs scenarios against one endpoint.
type Verifier struct {
	// Config is the validated run configuration.
	Config Config

	// Fetcher issues the requests, normally a *client.Client built from Config.
	Fetcher Fetcher

	// Logger receives one record per scenario, and per request at debug level.
	Logger *slog.Logger

	clientOptions []client.Option
}

// Option configures a Verifier.
type Option func(*Verifier)

// WithLogger sets the logger used by the verifier and the client it builds.
func WithLogger(logger *slog.Logger) Option {
	return func(v *Verifier) {
		v.Logger = logger
	}
}

// WithFetcher replaces the HTTP client, mostly for tests.
func WithFetcher(f Fetcher) Option {
	return func(v *Verifier) {
		v.Fetcher = f
	}
}

// WithClientOptions passes extra options (auth, body observer, custom
// *http.Client) to the client New builds.
func WithClientOptions(options ...client.Option) Option {
	return func(v *Verifier) {
		v.clientOptions = append(v.clientOptions, options...)
	}
}

// New validates cfg and returns a Verifier for it.
func New(cfg Config, options ...Option) (*Verifier, error) {
	if cfg.WindowSize == 0 {
		cfg.WindowSize = DefaultWindowSize
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = client.DefaultTimeout
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	v := &Verifier{
		Config: cfg,
		Logger: logger.DefaultLogger(),
	}
	for _, opt := range options {
		opt(v)
	}
	if v.Logger == nil {
		v.Logger = logger.Discard()
	}

	if v.Fetcher == nil {
		opts := []client.Option{
			client.WithLogger(v.Logger),
			client.WithTimeout(cfg.Timeout),
			client.WithRateLimit(cfg.RequestsPerSecond, 1),
			client.WithMaxBodySize(cfg.MaxBodySize),
		}
		c, err := client.NewClient(cfg.BaseURL, append(opts, v.clientOptions...)...)
		if err != nil {
			return nil, err
		}
		v.Fetcher = c
	}

	return v, nil
}

// Run executes every configured scenario against the configured resource.
// All scenarios run even when earlier ones fail; inspect the report or call
// Report.Err for the verdict.
func (v *Verifier) Run(ctx context.Context) *Report {
	report := &Report{
		RunID:    uuid.NewString(),
		BaseURL:  v.Config.BaseURL,
		Resource: v.Config.Resource,
		Started:  time.Now(),
		Results:  make([]ScenarioResult, 0, len(v.Config.Scenarios)),
	}

	log := v.Logger.With(slog.String("run_id", report.RunID))
	log.Info("starting verification",
		slog.String("base_url", report.BaseURL),
		slog.String("resource", report.Resource),
		slog.Int("scenarios", len(v.Config.Scenarios)),
	)

	for _, sc := range v.Config.Scenarios {
		res := v.runScenario(ctx, log, v.Config.Resource, sc)
		report.Results = append(report.Results, res)
	}

	report.Elapsed = time.Since(report.Started)
	log.Info("verification finished",
		slog.Int("matched", report.Count(OutcomeMatched)),
		slog.Int("mismatched", report.Count(OutcomeMismatched)),
		slog.Int("rejected", report.Count(OutcomeRejected)),
		slog.Int("indeterminate", report.Count(OutcomeIndeterminate)),
		slog.Duration("elapsed", report.Elapsed),
	)

	return report
}

// RunScenario requests resource with the scenario's range once in static
// mode and once in live mode, then compares the bodies. It never retries.
func (v *Verifier) RunScenario(ctx context.Context, resource string, sc Scenario) ScenarioResult {
	return v.runScenario(ctx, v.Logger, resource, sc)
}

func (v *Verifier) runScenario(ctx context.Context, log *slog.Logger, resource string, sc Scenario) ScenarioResult {
	log = log.With(slog.String("scenario", sc.Label), slog.String("range", sc.Range))

	result := ScenarioResult{
		Label:           sc.Label,
		Range:           sc.Range,
		Outcome:         OutcomeIndeterminate,
		FirstDifference: -1,
	}

	spec := client.RequestSpec{Resource: resource, Mode: client.Static, Range: sc.Range}

	staticRec, staticErr := v.Fetcher.Fetch(ctx, spec)
	if staticRec == nil {
		result.Err = orNoResponse(staticErr)
		log.Error("static request failed, scenario aborted", slog.String("error", result.Err.Error()))
		return result
	}

	result.Static = observe(staticRec, v.Config.WindowSize)

	liveRec, liveErr := v.Fetcher.Fetch(ctx, spec.WithMode(client.Live))
	if liveRec == nil {
		// keep a status error the static request may already have produced
		result.Err = multierr.Combine(staticErr, orNoResponse(liveErr))
		log.Error("live request failed, scenario aborted", slog.String("error", result.Err.Error()))
		return result
	}

	result.Live = observe(liveRec, v.Config.WindowSize)

	s, l := result.Static.Digest, result.Live.Digest
	result.Matched = s.Full == l.Full
	result.PrefixMatched = s.Prefix == l.Prefix
	result.SuffixMatched = s.Suffix == l.Suffix
	result.StatusMatched = staticRec.StatusCode == liveRec.StatusCode
	result.Divergence = classify(s, l)
	result.FirstDifference = firstDifference(staticRec.Body, liveRec.Body)

	switch {
	case staticErr != nil || liveErr != nil:
		result.Outcome = OutcomeRejected
		result.Err = multierr.Combine(staticErr, liveErr)
	case result.Matched:
		result.Outcome = OutcomeMatched
	default:
		result.Outcome = OutcomeMismatched
	}

	attrs := []any{
		slog.String("outcome", result.Outcome.String()),
		slog.Bool("matched", result.Matched),
		slog.Group("static", slog.Int("status", staticRec.StatusCode), slog.Int64("length", s.Length), slog.String("sha1", s.Full)),
		slog.Group("live", slog.Int("status", liveRec.StatusCode), slog.Int64("length", l.Length), slog.String("sha1", l.Full)),
	}
	if result.Outcome == OutcomeMatched {
		log.Info("scenario finished", attrs...)
	} else {
		attrs = append(attrs,
			slog.String("divergence", result.Divergence.String()),
			slog.Int64("first_difference", result.FirstDifference),
		)
		if result.Err != nil {
			attrs = append(attrs, slog.String("error", result.Err.Error()))
		}
		log.Warn("scenario finished", attrs...)
	}

	return result
}

func orNoResponse(err error) error {
	if err == nil {
		return ErrNoResponse
	}
	return err
}
