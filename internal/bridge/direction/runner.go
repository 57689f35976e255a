// Package direction wires one direction's watcher, durable queue, signer,
// and submitter into a running pipeline, grounded on the teacher's
// EventWatcher.WatchEvents ticker-loop shape (chains/evm and chains/svm
// event_watcher.go) generalized to spec.md §3's four-stage pipeline and
// the single-in-flight-submission constraint from spec.md §4.3.
package direction

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/usdc-bridge/relayer/internal/bridge/chain"
	"github.com/usdc-bridge/relayer/internal/bridge/cursor"
	bridgeerrors "github.com/usdc-bridge/relayer/internal/bridge/errors"
	"github.com/usdc-bridge/relayer/internal/bridge/event"
	"github.com/usdc-bridge/relayer/internal/bridge/metrics"
	"github.com/usdc-bridge/relayer/internal/bridge/queue"
	"github.com/usdc-bridge/relayer/internal/bridge/signer"
)

// Config configures one Runner.
type Config struct {
	Name             string // "e2s" or "s2e"
	PollInterval     time.Duration
	WatcherWindow    uint64 // max blocks/slots scanned per poll tick
	RetryLimit       int
	MinSourceBalance uint64
	MinTargetBalance uint64
}

// Runner drives one direction: Watcher -> Queue -> Signer -> Submitter.
// Exactly one submitter loop runs per Runner, so at most one destination
// transaction is ever in flight for this direction within this process
// (spec.md §4.3).
type Runner struct {
	cfg     Config
	watcher chain.WatcherAdapter
	submit  chain.SubmitterAdapter
	signer  signer.Signer
	queue   *queue.Queue
	cursor  *cursor.Store
	metrics *metrics.Metrics
	logger  zerolog.Logger

	mu          sync.Mutex
	retryCounts map[uint64]int
	stuck       map[uint64]bool
	lastWatcher time.Time
	lastSubmit  time.Time
}

// New builds a Runner for one direction.
func New(cfg Config, watcher chain.WatcherAdapter, submit chain.SubmitterAdapter, sgn signer.Signer, q *queue.Queue, cur *cursor.Store, m *metrics.Metrics, logger zerolog.Logger) *Runner {
	return &Runner{
		cfg:         cfg,
		watcher:     watcher,
		submit:      submit,
		signer:      sgn,
		queue:       q,
		cursor:      cur,
		metrics:     m,
		logger:      logger.With().Str("component", "direction_runner").Str("direction", cfg.Name).Logger(),
		retryCounts: make(map[uint64]int),
		stuck:       make(map[uint64]bool),
	}
}

// Run blocks, alternating watcher and submitter ticks on cfg.PollInterval,
// until ctx is cancelled.
func (r *Runner) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.cfg.PollInterval)
	defer ticker.Stop()

	r.logger.Info().Dur("poll_interval", r.cfg.PollInterval).Msg("starting direction runner")

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := r.watchTick(ctx); err != nil {
				r.logger.Error().Err(err).Msg("watcher tick failed")
			}
			if err := r.submitTick(ctx); err != nil {
				r.logger.Error().Err(err).Msg("submitter tick failed")
			}
			r.checkGasBalance(ctx)
		}
	}
}

// checkGasBalance warns when the destination wallet's balance drops below
// GAS__MIN_TARGET_BALANCE, the supplemented min-balance monitor from
// SPEC_FULL.md (the original spec.md names GAS__MIN_*_BALANCE in its
// environment variable table but never specifies what reads them).
func (r *Runner) checkGasBalance(ctx context.Context) {
	if r.cfg.MinTargetBalance == 0 {
		return
	}
	balance, err := r.submit.WalletBalance(ctx)
	if err != nil {
		r.logger.Warn().Err(err).Msg("failed to read destination wallet balance")
		return
	}
	if balance < r.cfg.MinTargetBalance {
		r.logger.Warn().
			Uint64("balance", balance).
			Uint64("min_target_balance", r.cfg.MinTargetBalance).
			Msg("destination wallet balance below configured minimum")
	}
}

// watchTick polls the source chain for new StakeEvents since the last
// persisted cursor and persists them to the durable queue, applying
// backpressure against QUEUE__MAX_SIZE (spec.md §4.2).
func (r *Runner) watchTick(ctx context.Context) error {
	saturated, err := r.queue.IsSaturated()
	if err != nil {
		return fmt.Errorf("check queue saturation: %w", err)
	}
	if saturated {
		r.logger.Warn().Msg("queue saturated, skipping watcher tick")
		return nil
	}

	last, _, err := r.cursor.LastScanned(r.cfg.Name)
	if err != nil {
		return fmt.Errorf("load cursor: %w", err)
	}
	from := last + 1

	latest, err := r.watcher.LatestBlock(ctx)
	if err != nil {
		return fmt.Errorf("get latest block: %w", err)
	}
	if from > latest {
		return nil
	}

	to := latest
	if r.cfg.WatcherWindow > 0 && to-from+1 > r.cfg.WatcherWindow {
		to = from + r.cfg.WatcherWindow - 1
	}

	events, err := r.watcher.PollEvents(ctx, from, to)
	if err != nil {
		return fmt.Errorf("poll events %d-%d: %w", from, to, err)
	}

	for _, ev := range events {
		if err := r.queue.Put(ev); err != nil {
			r.logger.Error().Err(err).Uint64("nonce", ev.Nonce).Msg("failed to persist event to queue")
			continue
		}
		r.metrics.EventsWatched.WithLabelValues(r.cfg.Name).Inc()
	}

	if err := r.cursor.Advance(r.cfg.Name, to); err != nil {
		return fmt.Errorf("advance cursor: %w", err)
	}

	r.mu.Lock()
	r.lastWatcher = time.Now()
	r.mu.Unlock()

	depth, err := r.queue.Len()
	if err == nil {
		r.metrics.QueueDepth.WithLabelValues(r.cfg.Name).Set(float64(depth))
	}

	return nil
}

// submitTick drains the durable queue, signing and submitting each pending
// event in turn (never concurrently, per spec.md §4.3). A retryable failure
// leaves the entry in the queue for the next tick, even past
// QUEUE__RETRY_LIMIT; only a non-retryable failure removes it.
func (r *Runner) submitTick(ctx context.Context) error {
	events, err := r.queue.Iter()
	if err != nil {
		return fmt.Errorf("list queue: %w", err)
	}

	for _, ev := range events {
		r.processOne(ctx, ev)
	}

	r.mu.Lock()
	r.lastSubmit = time.Now()
	r.mu.Unlock()

	return nil
}

// processOne carries one queued event through sign -> simulate -> send ->
// confirm, classifying any failure via internal/bridge/errors.Classify and
// either removing the entry (terminal outcome) or leaving it for the next
// tick (retryable outcome), per spec.md §7.
func (r *Runner) processOne(ctx context.Context, ev event.StakeEvent) {
	logger := r.logger.With().Uint64("nonce", ev.Nonce).Logger()

	sig, err := r.signer.Sign(ev)
	if err != nil {
		logger.Error().Err(err).Msg("failed to sign event, will retry")
		return
	}
	r.metrics.SignaturesProduced.WithLabelValues(r.cfg.Name).Inc()

	simLog, simErr := r.submit.Simulate(ctx, ev, sig)
	if simErr != nil {
		r.handleFailure(ev, bridgeerrors.Classify(ev.Nonce, simErr, simLog))
		return
	}

	tx, sendErr := r.submit.Send(ctx, ev, sig)
	if sendErr != nil {
		r.handleFailure(ev, bridgeerrors.Classify(ev.Nonce, sendErr, ""))
		return
	}

	confirmLog, confirmErr := r.submit.Confirm(ctx, tx.TxHash)
	if confirmErr != nil {
		r.handleFailure(ev, bridgeerrors.Classify(ev.Nonce, confirmErr, confirmLog))
		return
	}

	if err := r.queue.Remove(ev.Nonce); err != nil {
		logger.Error().Err(err).Msg("failed to remove completed event from queue")
	}
	r.metrics.SubmissionsSent.WithLabelValues(r.cfg.Name).Inc()
	r.clearRetryCount(ev.Nonce)
	logger.Info().Str("tx_hash", tx.TxHash).Msg("release transaction confirmed")
}

// handleFailure applies spec.md §7's classification: non-retryable errors
// drop the entry immediately; retryable errors always stay queued. Past
// QUEUE__RETRY_LIMIT a retryable failure is escalated to a SeverityCritical
// log and the SubmissionsStuck gauge, but the entry is never removed —
// per SPEC_FULL.md's "Retry-limited drop" supplement and spec.md §9 Open
// Question 3, a retryable error means the release never reached the
// destination chain, so dropping it here would permanently strand a
// locked-but-never-released stake. Escalation is observability only;
// correctness relies on the destination's on-chain InvalidNonce
// deduplication, not an off-chain idempotency key.
func (r *Runner) handleFailure(ev event.StakeEvent, classified *bridgeerrors.SubmitError) {
	logger := r.logger.With().Uint64("nonce", ev.Nonce).Logger()

	if classified == nil {
		logger.Warn().Msg("submission failed with no classifiable error, treating as retryable")
		r.incrementRetryCount(ev.Nonce)
		return
	}

	if !classified.IsRetryable() {
		logger.Error().Err(classified).Msg("non-retryable submission failure, dropping event")
		if err := r.queue.Remove(ev.Nonce); err != nil {
			logger.Error().Err(err).Msg("failed to remove dropped event from queue")
		}
		r.metrics.SubmissionsDropped.WithLabelValues(r.cfg.Name).Inc()
		r.clearRetryCount(ev.Nonce)
		return
	}

	count := r.incrementRetryCount(ev.Nonce)
	if r.cfg.RetryLimit > 0 && count >= r.cfg.RetryLimit {
		if r.markStuck(ev.Nonce) {
			r.metrics.SubmissionsStuck.WithLabelValues(r.cfg.Name).Inc()
		}
		logger.Error().
			Err(classified).
			Str("severity", string(bridgeerrors.SeverityCritical)).
			Int("retry_count", count).
			Msg("retry limit exceeded, event remains queued pending on-chain resolution")
		return
	}

	logger.Warn().Err(classified).Int("retry_count", count).Msg("retryable submission failure, keeping event queued")
	r.metrics.SubmissionsRetried.WithLabelValues(r.cfg.Name).Inc()
}

func (r *Runner) incrementRetryCount(nonce uint64) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.retryCounts[nonce]++
	return r.retryCounts[nonce]
}

// markStuck records nonce as having crossed QUEUE__RETRY_LIMIT, returning
// true the first time (so the caller only increments the gauge once per
// nonce, not on every subsequent retryable tick).
func (r *Runner) markStuck(nonce uint64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stuck[nonce] {
		return false
	}
	r.stuck[nonce] = true
	return true
}

// clearRetryCount resets a nonce's retry bookkeeping once it leaves the
// queue (on success or a non-retryable drop), decrementing the stuck gauge
// if the entry had been escalated.
func (r *Runner) clearRetryCount(nonce uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.retryCounts, nonce)
	if r.stuck[nonce] {
		delete(r.stuck, nonce)
		r.metrics.SubmissionsStuck.WithLabelValues(r.cfg.Name).Dec()
	}
}

// Ready reports whether this direction's watcher and submitter have ticked
// within the last 3 poll intervals, used by health.StatusProvider.
func (r *Runner) Ready() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	grace := 3 * r.cfg.PollInterval
	if r.lastWatcher.IsZero() || r.lastSubmit.IsZero() {
		return false
	}
	return time.Since(r.lastWatcher) < grace && time.Since(r.lastSubmit) < grace
}

// WalletBalances reports the current target (destination) wallet balance
// for GAS__MIN_*_BALANCE monitoring (SPEC_FULL.md's "Supplemented features").
// Only the target (destination) balance is observable through
// chain.SubmitterAdapter; source-side balance monitoring is the paired
// direction's submitter concern when it runs as this direction's target.
func (r *Runner) WalletBalances(ctx context.Context) (target uint64, err error) {
	return r.submit.WalletBalance(ctx)
}
