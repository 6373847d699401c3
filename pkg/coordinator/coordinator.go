// Package coordinator runs search rounds: it fans a phrase out to every
// catalog endpoint, applies the responses as they arrive and reports when
// every region has answered.
//
// Each round is tagged with a generation. Starting a new round supersedes the
// previous one: its requests are cancelled and any response that still shows
// up for it is discarded without touching state.
package coordinator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rubiojr/gsuggest/pkg/core"
	"github.com/rubiojr/gsuggest/pkg/log"
	"github.com/rubiojr/gsuggest/pkg/metrics"
	"github.com/rubiojr/gsuggest/pkg/realtime"
)

const (
	// DefaultRequestTimeout bounds every region request unless overridden.
	DefaultRequestTimeout = 10 * time.Second
	// DefaultHistorySize is how many rounds stay reachable by generation.
	DefaultHistorySize = 32
)

// ErrClosed is returned by StartSearch after Close.
var ErrClosed = errors.New("coordinator closed")

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithRequestTimeout sets the per-request deadline. Non-positive values fall
// back to DefaultRequestTimeout.
func WithRequestTimeout(d time.Duration) Option {
	return func(c *Coordinator) {
		c.timeout = normalizeTimeout(d)
	}
}

// WithHistorySize sets how many rounds are retained for lookup.
func WithHistorySize(n int) Option {
	return func(c *Coordinator) {
		if n > 0 {
			c.historySize = n
		}
	}
}

// WithOnRoundComplete registers fn to be called exactly once for every round
// whose regions have all reported. It is never called for a superseded round.
// fn runs on the round's processing goroutine and must not call Close.
func WithOnRoundComplete(fn func(*Round)) Option {
	return func(c *Coordinator) {
		if fn != nil {
			c.onComplete = append(c.onComplete, fn)
		}
	}
}

// WithEventSink registers fn to receive round events, typically
// (*realtime.Hub).Broadcast.
func WithEventSink(fn func(realtime.RoundEvent)) Option {
	return func(c *Coordinator) {
		if fn != nil {
			c.sinks = append(c.sinks, fn)
		}
	}
}

// Coordinator owns the active round and serializes every mutation of it.
type Coordinator struct {
	catalog   *core.Catalog
	transport core.Transport
	parser    core.Parser
	logger    *log.Logger

	onComplete []func(*Round)
	sinks      []func(realtime.RoundEvent)

	mu          sync.Mutex
	generation  uint64
	current     *Round
	cancel      context.CancelFunc
	rounds      map[uint64]*Round
	order       []uint64
	historySize int
	timeout     time.Duration
	closed      bool

	wg sync.WaitGroup
}

type taggedOutcome struct {
	regionID string
	outcome  core.Outcome
}

// New creates a coordinator querying every endpoint of catalog.
func New(catalog *core.Catalog, transport core.Transport, parser core.Parser, opts ...Option) *Coordinator {
	c := &Coordinator{
		catalog:     catalog,
		transport:   transport,
		parser:      parser,
		logger:      log.ForService("coordinator"),
		rounds:      make(map[uint64]*Round),
		historySize: DefaultHistorySize,
		timeout:     DefaultRequestTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Catalog returns the endpoint catalog.
func (c *Coordinator) Catalog() *core.Catalog {
	return c.catalog
}

// SetRequestTimeout changes the per-request deadline for rounds started
// afterwards.
func (c *Coordinator) SetRequestTimeout(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.timeout = normalizeTimeout(d)
}

// RequestTimeout returns the deadline applied to new rounds.
func (c *Coordinator) RequestTimeout() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.timeout
}

// StartSearch begins a round for phrase and returns without waiting for any
// response. An empty phrase is rejected with core.ErrInvalidInput and leaves
// all state untouched. Any active round is superseded.
func (c *Coordinator) StartSearch(phrase string) (*Round, error) {
	phrase = strings.TrimSpace(phrase)
	if phrase == "" {
		return nil, core.ErrInvalidInput
	}

	now := time.Now()

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClosed
	}

	var superseded *Round
	if c.current != nil && c.current.supersede(now) {
		superseded = c.current
	}
	if c.cancel != nil {
		c.cancel()
	}

	c.generation++
	round := newRound(phrase, c.generation, c.catalog.Size(), now)
	c.current = round
	c.remember(round)

	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	timeout := c.timeout

	empty := c.catalog.Size() == 0
	if empty {
		round.mu.Lock()
		round.terminate(StatusComplete, now)
		round.mu.Unlock()
	} else {
		c.wg.Add(1)
	}
	c.mu.Unlock()

	metrics.RoundsStarted.Inc()
	if superseded != nil {
		metrics.RoundsSuperseded.Inc()
		c.logger.Infof("round %d (%q) superseded at %d/%d regions",
			superseded.Generation(), superseded.Phrase(), superseded.Completed(), superseded.Total())
		c.emit(superseded, realtime.RoundEvent{Type: realtime.EventRoundSuperseded})
	}

	c.logger.Infof("round %d started for %q across %d regions", round.generation, phrase, c.catalog.Size())
	c.emit(round, realtime.RoundEvent{Type: realtime.EventRoundStarted})

	if empty {
		cancel()
		c.completed(round)
		return round, nil
	}

	c.dispatch(ctx, cancel, round, timeout)
	return round, nil
}

// dispatch issues one request per endpoint and starts the goroutine that
// feeds their outcomes, one at a time, into OnResponse.
func (c *Coordinator) dispatch(ctx context.Context, cancel context.CancelFunc, round *Round, timeout time.Duration) {
	endpoints := c.catalog.List()
	outcomes := make(chan taggedOutcome, len(endpoints))

	var fetchWg sync.WaitGroup
	for _, ep := range endpoints {
		fetchWg.Add(1)
		go func(ep core.Endpoint) {
			defer fetchWg.Done()
			outcomes <- taggedOutcome{
				regionID: ep.RegionID,
				outcome:  c.fetch(ctx, round.generation, ep, round.phrase, timeout),
			}
		}(ep)
	}

	go func() {
		fetchWg.Wait()
		close(outcomes)
	}()

	go func() {
		defer c.wg.Done()
		defer cancel()
		for o := range outcomes {
			if err := c.OnResponse(round.generation, o.regionID, o.outcome); err != nil {
				c.logger.Errorf("round %d: %v", round.generation, err)
			}
		}
	}()
}

// fetch performs a single request and always returns an outcome, at the
// latest when the request deadline expires.
func (c *Coordinator) fetch(ctx context.Context, generation uint64, ep core.Endpoint, phrase string, timeout time.Duration) core.Outcome {
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req := core.Request{
		Generation: generation,
		RegionID:   ep.RegionID,
		URL:        ep.URL(phrase),
	}

	type result struct {
		payload []byte
		err     error
	}
	resCh := make(chan result, 1)
	start := time.Now()

	go func() {
		payload, err := c.transport.Fetch(reqCtx, req)
		resCh <- result{payload: payload, err: err}
	}()

	select {
	case res := <-resCh:
		metrics.RequestDuration.WithLabelValues(ep.RegionID).Observe(time.Since(start).Seconds())
		if res.err != nil {
			return core.Failure(asTransportError(reqCtx, req, res.err))
		}
		return core.Success(res.payload)
	case <-reqCtx.Done():
		metrics.RequestDuration.WithLabelValues(ep.RegionID).Observe(time.Since(start).Seconds())
		return core.Failure(&core.TransportError{
			RegionID: req.RegionID,
			URL:      req.URL,
			Timeout:  errors.Is(reqCtx.Err(), context.DeadlineExceeded),
			Err:      reqCtx.Err(),
		})
	}
}

func asTransportError(ctx context.Context, req core.Request, err error) error {
	var te *core.TransportError
	if errors.As(err, &te) {
		if te.RegionID == "" {
			te.RegionID = req.RegionID
		}
		if te.URL == "" {
			te.URL = req.URL
		}
		return err
	}
	return &core.TransportError{
		RegionID: req.RegionID,
		URL:      req.URL,
		Timeout:  errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded),
		Err:      err,
	}
}

// OnResponse applies the outcome of one region's request.
//
// Responses for any generation other than the active round's are discarded
// and nil is returned. A second response for a region already complete in
// this generation is discarded with core.ErrDuplicateCompletion, and a region
// outside the catalog yields core.ErrUnknownRegion.
func (c *Coordinator) OnResponse(generation uint64, regionID string, outcome core.Outcome) error {
	now := time.Now()

	c.mu.Lock()
	round := c.current
	current := c.generation
	if round == nil || generation != current || round.Status() != StatusActive {
		c.mu.Unlock()
		metrics.StaleResponses.Inc()
		c.logger.Debugf("discarding stale response from %s (generation %d, current %d)", regionID, generation, current)
		return nil
	}
	if !c.catalog.Has(regionID) {
		c.mu.Unlock()
		return fmt.Errorf("%w: %s", core.ErrUnknownRegion, regionID)
	}

	var (
		items   []string
		failure *RegionFailure
	)
	if outcome.OK() {
		parsed, err := c.parser.Parse(outcome.Payload)
		if err != nil {
			failure = &RegionFailure{RegionID: regionID, Kind: KindMalformedPayload, Err: err}
		} else {
			items = parsed
		}
	} else {
		kind := KindTransportError
		var te *core.TransportError
		if errors.As(outcome.Err, &te) && te.Timeout {
			kind = KindTimeout
		}
		failure = &RegionFailure{RegionID: regionID, Kind: kind, Err: outcome.Err}
	}

	round.mu.Lock()
	if err := round.agg.MarkComplete(regionID); err != nil {
		round.mu.Unlock()
		c.mu.Unlock()
		return fmt.Errorf("generation %d: %w", generation, err)
	}
	added := round.agg.Merge(items)
	if failure != nil {
		round.failures = append(round.failures, *failure)
	}
	finished := false
	if round.agg.IsRoundComplete() {
		finished = round.terminate(StatusComplete, now)
	}
	round.mu.Unlock()
	c.mu.Unlock()

	ev := realtime.RoundEvent{
		Type:     realtime.EventRegionDone,
		RegionID: regionID,
		Outcome:  metrics.OutcomeOK,
	}
	if failure != nil {
		ev.Outcome = string(failure.Kind)
		ev.Error = failure.Err.Error()
		switch failure.Kind {
		case KindMalformedPayload:
			c.logger.Errorf("region %s: malformed payload: %v", regionID, failure.Err)
		default:
			c.logger.Warnf("region %s: %v", regionID, failure.Err)
		}
	} else {
		c.logger.Debugf("region %s: %d items, %d new", regionID, len(items), added)
	}
	metrics.RegionOutcomes.WithLabelValues(regionID, ev.Outcome).Inc()
	metrics.SuggestionsMerged.Add(float64(added))
	c.emit(round, ev)

	if finished {
		c.completed(round)
	}
	return nil
}

// completed announces a round that just reached 100%.
func (c *Coordinator) completed(round *Round) {
	metrics.RoundsCompleted.Inc()
	c.logger.Infof("round %d complete for %q: %d suggestions, %d failed regions",
		round.generation, round.phrase, len(round.Results()), len(round.Failures()))
	c.emit(round, realtime.RoundEvent{Type: realtime.EventRoundComplete, Results: round.Results()})
	for _, fn := range c.onComplete {
		fn(round)
	}
}

func (c *Coordinator) emit(round *Round, ev realtime.RoundEvent) {
	if len(c.sinks) == 0 {
		return
	}
	ev.Generation = round.generation
	ev.Phrase = round.phrase
	ev.Completed = round.Completed()
	ev.Total = round.Total()
	ev.Progress = round.Progress()
	ev.Time = time.Now().UTC()
	for _, sink := range c.sinks {
		sink(ev)
	}
}

// remember records round for lookup, evicting the oldest beyond the history
// size. Callers hold c.mu.
func (c *Coordinator) remember(round *Round) {
	c.rounds[round.generation] = round
	c.order = append(c.order, round.generation)
	for len(c.order) > c.historySize {
		delete(c.rounds, c.order[0])
		c.order = c.order[1:]
	}
}

// Current returns the most recently started round, or nil.
func (c *Coordinator) Current() *Round {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Generation returns the current generation counter.
func (c *Coordinator) Generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation
}

// Round returns a retained round by generation.
func (c *Coordinator) Round(generation uint64) (*Round, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	round, ok := c.rounds[generation]
	if !ok {
		return nil, fmt.Errorf("%w: generation %d", core.ErrUnknownRound, generation)
	}
	return round, nil
}

// Close supersedes the active round, cancels its requests and waits for
// in-flight processing to drain. StartSearch fails afterwards.
func (c *Coordinator) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	var superseded *Round
	if c.current != nil && c.current.supersede(time.Now()) {
		superseded = c.current
	}
	if c.cancel != nil {
		c.cancel()
	}
	c.mu.Unlock()

	if superseded != nil {
		metrics.RoundsSuperseded.Inc()
		c.emit(superseded, realtime.RoundEvent{Type: realtime.EventRoundSuperseded})
	}

	c.wg.Wait()
	return nil
}

func normalizeTimeout(d time.Duration) time.Duration {
	if d <= 0 {
		return DefaultRequestTimeout
	}
	return d
}
