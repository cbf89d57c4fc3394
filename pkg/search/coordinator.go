package search

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var searchTracer = otel.Tracer("fedsearch/search")

// DefaultSparseThreshold is the local match count below which a remote
// fetch is warranted.
const DefaultSparseThreshold = 15

// Request describes one search invocation.
type Request struct {
	// Query is the raw input text.
	Query string

	// Category is the active category filter: "all" (the default when
	// empty) or a module tag.
	Category string

	// Enabled lists the modules eligible for remote fetch. Nil means
	// all known modules.
	Enabled []Module

	// SelfID is the logged-in user's identifier, when available.
	SelfID string
}

// Response is one observation of a search invocation: the partial
// local result set, the final merged set, or an aborted marker when a
// newer invocation superseded this one.
type Response struct {
	Results []ScoredItem `json:"results"`
	Partial bool         `json:"partial"`
	Aborted bool         `json:"aborted,omitempty"`
	Query   string       `json:"query"`
}

// HistoryRecorder persists accepted queries. Implementations live
// outside this package (see pkg/history).
type HistoryRecorder interface {
	Record(ctx context.Context, query string) error
}

// CoordinatorConfig tunes the search pipeline.
type CoordinatorConfig struct {
	// MinQueryLength is the minimum phrase length for a remote fetch
	// when no filter is present.
	MinQueryLength int

	// SparseThreshold: remote fetch happens only when the local stage
	// found fewer than this many chat matches or person matches.
	SparseThreshold int

	// MaxResults caps the merged list; 0 means no cap.
	MaxResults int

	CacheTTL        time.Duration
	CacheMaxEntries int

	ChatScanLimit   int
	PersonScanLimit int

	Scores  ScoreConfig
	Weights WeightTable
}

// DefaultCoordinatorConfig returns the default pipeline tuning.
func DefaultCoordinatorConfig() CoordinatorConfig {
	return CoordinatorConfig{
		MinQueryLength:  2,
		SparseThreshold: DefaultSparseThreshold,
		MaxResults:      0,
		CacheTTL:        DefaultCacheTTL,
		CacheMaxEntries: DefaultCacheMaxEntries,
		ChatScanLimit:   500,
		PersonScanLimit: 100,
		Scores:          DefaultScoreConfig(),
		Weights:         DefaultWeights(),
	}
}

// Coordinator composes the whole pipeline: cache check, exclusion
// sets, local stage, remote fan-out with supersession, merge, cache
// write. At most one invocation is current; issuing a new one cancels
// any previous invocation still awaiting remote responses, and a
// cancelled invocation's results are discarded, never applied.
type Coordinator struct {
	cfg          CoordinatorConfig
	parser       *QueryParser
	local        *LocalSearcher
	merger       *Merger
	orchestrator *Orchestrator
	cache        *ResponseCache
	dataset      *Dataset
	history      HistoryRecorder
	logger       logrus.FieldLogger
	metrics      *Metrics

	mu     sync.Mutex
	cancel context.CancelFunc
	seq    uint64
}

// NewCoordinator creates a coordinator over a dataset and an
// orchestrator. logger and metrics may be nil.
func NewCoordinator(cfg CoordinatorConfig, dataset *Dataset, orchestrator *Orchestrator, logger logrus.FieldLogger, metrics *Metrics) *Coordinator {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	scorer := NewScorer(cfg.Scores)
	return &Coordinator{
		cfg:          cfg,
		parser:       NewQueryParser(),
		local:        NewLocalSearcher(cfg.ChatScanLimit, cfg.PersonScanLimit),
		merger:       NewMerger(scorer, cfg.Weights, nil),
		orchestrator: orchestrator,
		cache:        NewResponseCache(cfg.CacheMaxEntries, cfg.CacheTTL, metrics),
		dataset:      dataset,
		logger:       logger,
		metrics:      metrics,
	}
}

// SetHistoryRecorder attaches a search history store. Recording
// failures are logged, never surfaced.
func (c *Coordinator) SetHistoryRecorder(history HistoryRecorder) {
	c.history = history
}

// Cache exposes the response cache, for diagnostics.
func (c *Coordinator) Cache() *ResponseCache {
	return c.cache
}

// Parse parses raw query text with the coordinator's parser.
func (c *Coordinator) Parse(raw string) *ParsedQuery {
	return c.parser.Parse(raw)
}

// Search runs one invocation. onPartial, when non-nil, is called once
// with the local-stage results before remote fetching begins. The
// returned response is the final merged list, or carries Aborted when
// a newer invocation superseded this one.
func (c *Coordinator) Search(ctx context.Context, req Request, onPartial func(*Response)) (*Response, error) {
	start := time.Now()
	if req.Category == "" {
		req.Category = CategoryAll
	}
	enabled := req.Enabled
	if enabled == nil {
		enabled = AllModules
	}

	query := c.parser.Parse(req.Query)

	ctx, span := searchTracer.Start(ctx, "Search",
		trace.WithAttributes(
			attribute.String("query.phrase", query.Phrase),
			attribute.Int("query.keywords", len(query.Keywords)),
			attribute.Int("query.filters", len(query.Filters)),
			attribute.String("category", req.Category),
		),
	)
	defer span.End()

	invocationID := uuid.NewString()
	log := c.logger.WithFields(logrus.Fields{
		"invocation_id": invocationID,
		"category":      req.Category,
	})

	if query.IsEmpty() {
		span.SetStatus(codes.Ok, "empty query")
		c.metrics.recordSearch(outcomeFinal, time.Since(start).Seconds())
		return &Response{Results: []ScoredItem{}, Query: req.Query}, nil
	}

	// Cache hit skips the entire pipeline.
	if cached, err := c.cache.Get(query.Serialize(), req.Category); err == nil {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		span.SetStatus(codes.Ok, "cache hit")
		log.WithField("results", len(cached)).Debug("response cache hit")
		c.recordHistory(ctx, query, log)
		c.metrics.recordSearch(outcomeCacheHit, time.Since(start).Seconds())
		return &Response{Results: cached, Query: req.Query}, nil
	}

	// Supersede any invocation still awaiting remote responses; the
	// newest invocation always wins.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
	}
	c.cancel = cancel
	c.seq++
	seq := c.seq
	c.mu.Unlock()

	chats, people := c.dataset.Snapshot()
	exclusions := BuildExclusionSets(chats, people, req.SelfID)

	local := c.local.Search(chats, people, query, req.SelfID)
	log.WithFields(logrus.Fields{
		"chats":  local.ChatCount,
		"people": local.PersonCount,
	}).Debug("local stage complete")
	if onPartial != nil {
		onPartial(&Response{Results: local.Items, Partial: true, Query: req.Query})
	}

	if !c.shouldFetchRemote(query, local) {
		final := c.capResults(local.Items)
		c.cache.Set(query.Serialize(), req.Category, final)
		c.recordHistory(ctx, query, log)
		span.SetAttributes(attribute.Int("result.count", len(final)))
		span.SetStatus(codes.Ok, "local only")
		c.metrics.recordSearch(outcomeFinal, time.Since(start).Seconds())
		return &Response{Results: final, Query: req.Query}, nil
	}

	outcome, err := c.orchestrator.Fetch(ctx, query, req.Category, enabled, exclusions, c.dataset)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			log.Debug("invocation superseded")
			span.SetStatus(codes.Ok, "superseded")
			c.metrics.recordSearch(outcomeAborted, time.Since(start).Seconds())
			return &Response{Results: []ScoredItem{}, Aborted: true, Query: req.Query}, nil
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "remote fetch failed")
		c.metrics.recordSearch(outcomeFailed, time.Since(start).Seconds())
		return nil, fmt.Errorf("remote fetch failed: %w", err)
	}

	// A newer invocation may have taken over while we were joining;
	// its state must never be overwritten by ours.
	c.mu.Lock()
	stale := seq != c.seq
	c.mu.Unlock()
	if stale {
		log.Debug("discarding results of superseded invocation")
		c.metrics.recordSearch(outcomeAborted, time.Since(start).Seconds())
		return &Response{Results: []ScoredItem{}, Aborted: true, Query: req.Query}, nil
	}

	c.dataset.Apply(outcome.Enrichment)

	merged := c.merger.Merge(local.Items, outcome.Records, query, c.cfg.MaxResults)
	c.cache.Set(query.Serialize(), req.Category, merged)
	c.recordHistory(ctx, query, log)

	span.SetAttributes(
		attribute.Int("result.count", len(merged)),
		attribute.Int("remote.count", len(outcome.Records)),
	)
	span.SetStatus(codes.Ok, "search completed")
	c.metrics.recordSearch(outcomeFinal, time.Since(start).Seconds())
	return &Response{Results: merged, Query: req.Query}, nil
}

// shouldFetchRemote applies the advisory fetch predicate and the
// sparse-result heuristic: remote fetch only pays off when the local
// stage came back thin.
func (c *Coordinator) shouldFetchRemote(query *ParsedQuery, local *LocalResult) bool {
	if !query.NeedsServerFetch(c.cfg.MinQueryLength) {
		return false
	}
	return local.ChatCount < c.cfg.SparseThreshold || local.PersonCount < c.cfg.SparseThreshold
}

func (c *Coordinator) capResults(items []ScoredItem) []ScoredItem {
	if c.cfg.MaxResults > 0 && len(items) > c.cfg.MaxResults {
		return items[:c.cfg.MaxResults]
	}
	return items
}

// recordHistory persists the accepted query. The write survives
// invocation cancellation; failures are logged only.
func (c *Coordinator) recordHistory(ctx context.Context, query *ParsedQuery, log logrus.FieldLogger) {
	if c.history == nil {
		return
	}
	if err := c.history.Record(context.WithoutCancel(ctx), query.Serialize()); err != nil {
		log.WithError(err).Warn("failed to record search history")
	}
}
