// Package aggregator fans one search query out to every eligible marketplace
// connector, merges what comes back and derives normalized rows and market
// intelligence from the merged set.
package aggregator

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/guarzo/crosslist/internal/connector"
	"github.com/guarzo/crosslist/internal/market"
	"github.com/guarzo/crosslist/internal/model"
	"github.com/guarzo/crosslist/internal/normalize"
)

const (
	DefaultSearchDeadline   = 20 * time.Second
	DefaultConnectorTimeout = 15 * time.Second
)

// Aggregator is safe for concurrent use; each call to SearchAllPlatforms is
// independent.
type Aggregator struct {
	registry         *connector.Registry
	creds            connector.CredentialSource
	logger           *zap.Logger
	defaults         []string
	deadline         time.Duration
	connectorTimeout time.Duration
	normalizer       *normalize.Normalizer
	onProgress       ProgressFunc
}

// ProgressFunc is told each time a scheduled platform reports or times out.
// It is called from a single goroutine.
type ProgressFunc func(platform string, done, total int)

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *zap.Logger) Option {
	return func(a *Aggregator) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithDefaultPlatforms sets the platforms searched when a call names none.
func WithDefaultPlatforms(platforms ...string) Option {
	return func(a *Aggregator) {
		a.defaults = append([]string(nil), platforms...)
	}
}

// WithSearchDeadline bounds the whole fan-out.
func WithSearchDeadline(d time.Duration) Option {
	return func(a *Aggregator) {
		if d > 0 {
			a.deadline = d
		}
	}
}

// WithConnectorTimeout bounds each connector call.
func WithConnectorTimeout(d time.Duration) Option {
	return func(a *Aggregator) {
		if d > 0 {
			a.connectorTimeout = d
		}
	}
}

// WithNormalizer replaces the default-fee normalizer.
func WithNormalizer(n *normalize.Normalizer) Option {
	return func(a *Aggregator) {
		if n != nil {
			a.normalizer = n
		}
	}
}

// WithProgress registers a callback for per-platform completion.
func WithProgress(fn ProgressFunc) Option {
	return func(a *Aggregator) {
		a.onProgress = fn
	}
}

// New creates an aggregator over registry. creds may be nil.
func New(registry *connector.Registry, creds connector.CredentialSource, opts ...Option) *Aggregator {
	if creds == nil {
		creds = connector.StaticCredentials(nil)
	}
	a := &Aggregator{
		registry:         registry,
		creds:            creds,
		logger:           zap.NewNop(),
		deadline:         DefaultSearchDeadline,
		connectorTimeout: DefaultConnectorTimeout,
		normalizer:       normalize.New(nil),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// task is one scheduled connector.
type task struct {
	platform  connector.Platform
	connector connector.Connector
}

// outcome is what a task reports back to the collector.
type outcome struct {
	platform connector.Platform
	results  []model.SearchResult
	err      error
	reason   Reason
	elapsed  time.Duration
}

// SearchAllPlatforms runs query against platforms, or the default set when
// platforms is empty. Connector faults never fail the call; they are reported
// in Response.Failures. An invalid query is rejected before any connector
// runs with an error wrapping model.ErrInvalidQuery.
func (a *Aggregator) SearchAllPlatforms(ctx context.Context, query model.SearchQuery, platforms []string) (*Response, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	searchID := uuid.NewString()
	log := a.logger.With(zap.String("search_id", searchID))

	tasks, failures := a.resolve(a.platformNames(platforms), log)

	raw, runFailures := a.fanOut(ctx, query, tasks, log)
	failures = append(failures, runFailures...)
	sort.SliceStable(failures, func(i, j int) bool { return failures[i].Platform < failures[j].Platform })

	raw = applyQuery(query, raw)

	normalized, err := a.normalizer.Results(raw)
	if err != nil {
		log.Error("normalization rejected merged results", zap.Error(err))
		return nil, fmt.Errorf("normalize results: %w", err)
	}

	resp := &Response{
		SearchID:     searchID,
		Raw:          raw,
		Results:      normalized,
		Intelligence: market.Build(query, raw),
		Failures:     failures,
		Elapsed:      time.Since(start),
	}

	log.Info("search complete",
		zap.String("keywords", query.Keywords),
		zap.Int("results", len(raw)),
		zap.Int("scheduled", len(tasks)),
		zap.Strings("failed", resp.FailedPlatforms()),
		zap.Strings("skipped", resp.SkippedPlatforms()),
		zap.Duration("elapsed", resp.Elapsed))

	return resp, nil
}

// platformNames returns the requested names, the configured defaults or every
// registered platform, deduplicated in order.
func (a *Aggregator) platformNames(requested []string) []string {
	names := requested
	if len(names) == 0 {
		names = a.defaults
	}
	if len(names) == 0 {
		for _, p := range a.registry.Platforms() {
			names = append(names, string(p))
		}
	}

	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		key := strings.ToLower(strings.TrimSpace(n))
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, n)
	}
	return out
}

// resolve builds connectors and filters out those that must not be called.
func (a *Aggregator) resolve(names []string, log *zap.Logger) ([]task, []Failure) {
	var tasks []task
	var failures []Failure

	for _, name := range names {
		platform, ok := connector.ParsePlatform(name)
		if !ok {
			log.Warn("skipping unknown platform", zap.String("platform", name))
			failures = append(failures, Failure{
				Platform: strings.TrimSpace(name),
				Reason:   ReasonUnknownPlatform,
				Err:      fmt.Errorf("%w: %q", connector.ErrUnknownPlatform, name),
			})
			continue
		}

		c, err := a.registry.Get(string(platform), a.creds.Credentials(platform))
		if err != nil {
			reason := ReasonFault
			if errors.Is(err, connector.ErrUnknownPlatform) {
				reason = ReasonUnknownPlatform
			}
			log.Warn("connector could not be built", zap.String("platform", string(platform)), zap.Error(err))
			failures = append(failures, Failure{Platform: string(platform), Reason: reason, Err: err})
			continue
		}

		if !c.Capability().Searchable() || !c.IsAvailable() {
			err := fmt.Errorf("%w: %s (%s)", connector.ErrUnavailable, platform, c.Capability())
			log.Debug("skipping unavailable connector",
				zap.String("platform", string(platform)),
				zap.Stringer("capability", c.Capability()))
			failures = append(failures, Failure{Platform: string(platform), Reason: ReasonUnavailable, Err: err})
			continue
		}

		tasks = append(tasks, task{platform: platform, connector: c})
	}

	return tasks, failures
}

// fanOut runs one goroutine per task and merges results in completion order.
// Tasks still running when the search deadline passes are reported as timed
// out; anything they send later is dropped.
func (a *Aggregator) fanOut(ctx context.Context, query model.SearchQuery, tasks []task, log *zap.Logger) ([]model.SearchResult, []Failure) {
	if len(tasks) == 0 {
		return []model.SearchResult{}, nil
	}

	fanCtx, cancel := context.WithTimeout(ctx, a.deadline)
	defer cancel()

	// Buffered so a task never blocks after the collector has given up.
	outcomes := make(chan outcome, len(tasks))

	// Tasks never return an error; the group is only used for Wait so one
	// failing connector cannot cancel the others.
	var g errgroup.Group
	for _, t := range tasks {
		g.Go(func() error {
			outcomes <- a.run(fanCtx, query, t)
			return nil
		})
	}
	go func() {
		_ = g.Wait()
		close(outcomes)
	}()

	pending := make(map[connector.Platform]bool, len(tasks))
	for _, t := range tasks {
		pending[t.platform] = true
	}

	raw := []model.SearchResult{}
	var failures []Failure
	done := 0
	report := func(p connector.Platform) {
		done++
		if a.onProgress != nil {
			a.onProgress(string(p), done, len(tasks))
		}
	}

collect:
	for len(pending) > 0 {
		select {
		case o, ok := <-outcomes:
			if !ok {
				break collect
			}
			delete(pending, o.platform)
			report(o.platform)

			fields := []zap.Field{
				zap.String("platform", string(o.platform)),
				zap.Duration("elapsed", o.elapsed),
			}
			if o.err != nil {
				log.Warn("connector failed", append(fields, zap.String("reason", string(o.reason)), zap.Error(o.err))...)
				failures = append(failures, Failure{Platform: string(o.platform), Reason: o.reason, Err: o.err})
				continue
			}
			log.Info("connector returned", append(fields, zap.Int("results", len(o.results)))...)
			raw = append(raw, o.results...)

		case <-fanCtx.Done():
			break collect
		}
	}

	for _, t := range tasks {
		if !pending[t.platform] {
			continue
		}
		err := fmt.Errorf("no response before search deadline: %w", fanCtx.Err())
		log.Warn("connector timed out", zap.String("platform", string(t.platform)), zap.Error(err))
		failures = append(failures, Failure{Platform: string(t.platform), Reason: ReasonTimeout, Err: err})
		report(t.platform)
	}

	return raw, failures
}

// run calls one connector under its own timeout and keeps at most
// query.Limit of its results, in the connector's order. A panic becomes a
// fault.
func (a *Aggregator) run(ctx context.Context, query model.SearchQuery, t task) (o outcome) {
	start := time.Now()
	o.platform = t.platform

	defer func() {
		o.elapsed = time.Since(start)
		if r := recover(); r != nil {
			o.results = nil
			o.reason = ReasonFault
			o.err = fmt.Errorf("connector panicked: %v", r)
		}
	}()

	callCtx, cancel := context.WithTimeout(ctx, a.connectorTimeout)
	defer cancel()

	results, err := t.connector.Search(callCtx, query)
	if err != nil {
		o.reason = ReasonFault
		if errors.Is(err, context.DeadlineExceeded) || callCtx.Err() != nil {
			o.reason = ReasonTimeout
		}
		o.err = err
		return o
	}

	if query.Limit > 0 && len(results) > query.Limit {
		results = results[:query.Limit]
	}
	o.results = results
	return o
}
