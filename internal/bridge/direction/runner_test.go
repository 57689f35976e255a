package direction

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/usdc-bridge/relayer/internal/bridge/chain"
	"github.com/usdc-bridge/relayer/internal/bridge/cursor"
	"github.com/usdc-bridge/relayer/internal/bridge/event"
	"github.com/usdc-bridge/relayer/internal/bridge/metrics"
	"github.com/usdc-bridge/relayer/internal/bridge/queue"

	"github.com/prometheus/client_golang/prometheus"
)

type fakeWatcher struct {
	latest uint64
	events []event.StakeEvent
}

func (f *fakeWatcher) LatestBlock(ctx context.Context) (uint64, error) { return f.latest, nil }
func (f *fakeWatcher) PollEvents(ctx context.Context, from, to uint64) ([]event.StakeEvent, error) {
	var out []event.StakeEvent
	for _, ev := range f.events {
		if ev.BlockHeight >= from && ev.BlockHeight <= to {
			out = append(out, ev)
		}
	}
	return out, nil
}

type fakeSubmitter struct {
	simulateLog string
	simulateErr error
	sendErr     error
	confirmErr  error
	sent        []uint64
}

func (f *fakeSubmitter) Simulate(ctx context.Context, ev event.StakeEvent, sig []byte) (string, error) {
	return f.simulateLog, f.simulateErr
}
func (f *fakeSubmitter) Send(ctx context.Context, ev event.StakeEvent, sig []byte) (*chain.SubmittedTx, error) {
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	f.sent = append(f.sent, ev.Nonce)
	return &chain.SubmittedTx{TxHash: fmt.Sprintf("tx-%d", ev.Nonce)}, nil
}
func (f *fakeSubmitter) Confirm(ctx context.Context, txHash string) (string, error) {
	return "", f.confirmErr
}
func (f *fakeSubmitter) WalletBalance(ctx context.Context) (uint64, error) { return 1_000_000, nil }

type fakeSigner struct{}

func (fakeSigner) Sign(ev event.StakeEvent) ([]byte, error) { return []byte("sig"), nil }
func (fakeSigner) RelayerID() string                        { return "relayer-1" }

func testEvent(nonce, blockHeight uint64) event.StakeEvent {
	return event.StakeEvent{
		SourceContract:  [32]byte{1},
		TargetContract:  [32]byte{2},
		SourceChainID:   1,
		TargetChainID:   2,
		BlockHeight:     blockHeight,
		Amount:          1000,
		ReceiverAddress: "receiver",
		Nonce:           nonce,
	}
}

func newTestRunner(t *testing.T, watcher *fakeWatcher, submit *fakeSubmitter, retryLimit int) (*Runner, *queue.Queue) {
	t.Helper()
	dir := t.TempDir()
	logger := zerolog.Nop()

	q, err := queue.New(dir, 0, logger)
	if err != nil {
		t.Fatalf("new queue: %v", err)
	}
	cur, err := cursor.Open(":memory:")
	if err != nil {
		t.Fatalf("open cursor: %v", err)
	}
	t.Cleanup(func() { cur.Close() })

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	cfg := Config{Name: "e2s", PollInterval: time.Second, WatcherWindow: 1000, RetryLimit: retryLimit}
	r := New(cfg, watcher, submit, fakeSigner{}, q, cur, m, logger)
	return r, q
}

func TestWatchTickPersistsNewEvents(t *testing.T) {
	watcher := &fakeWatcher{latest: 10, events: []event.StakeEvent{testEvent(1, 5)}}
	r, q := newTestRunner(t, watcher, &fakeSubmitter{}, 3)

	if err := r.watchTick(context.Background()); err != nil {
		t.Fatalf("watchTick: %v", err)
	}

	pending, err := q.Iter()
	if err != nil {
		t.Fatalf("iter: %v", err)
	}
	if len(pending) != 1 || pending[0].Nonce != 1 {
		t.Fatalf("expected one pending event with nonce 1, got %+v", pending)
	}

	last, ok, err := r.cursor.LastScanned("e2s")
	if err != nil || !ok || last != 10 {
		t.Fatalf("expected cursor advanced to 10, got %d ok=%v err=%v", last, ok, err)
	}
}

func TestSubmitTickRemovesSuccessfulEvent(t *testing.T) {
	submit := &fakeSubmitter{}
	r, q := newTestRunner(t, &fakeWatcher{}, submit, 3)

	if err := q.Put(testEvent(7, 1)); err != nil {
		t.Fatalf("put: %v", err)
	}

	if err := r.submitTick(context.Background()); err != nil {
		t.Fatalf("submitTick: %v", err)
	}

	pending, _ := q.Iter()
	if len(pending) != 0 {
		t.Fatalf("expected queue drained after successful submission, got %+v", pending)
	}
	if len(submit.sent) != 1 || submit.sent[0] != 7 {
		t.Fatalf("expected nonce 7 sent, got %+v", submit.sent)
	}
}

func TestSubmitTickDropsNonRetryableFailure(t *testing.T) {
	submit := &fakeSubmitter{
		simulateLog: "custom program error: custom(6000)",
		simulateErr: fmt.Errorf("transaction simulation failed"),
	}
	r, q := newTestRunner(t, &fakeWatcher{}, submit, 3)

	if err := q.Put(testEvent(9, 1)); err != nil {
		t.Fatalf("put: %v", err)
	}

	if err := r.submitTick(context.Background()); err != nil {
		t.Fatalf("submitTick: %v", err)
	}

	pending, _ := q.Iter()
	if len(pending) != 0 {
		t.Fatalf("expected non-retryable failure to drop the event, got %+v", pending)
	}
}

// TestSubmitTickNeverDropsRetryableFailureEvenPastLimit pins
// SPEC_FULL.md's "Retry-limited drop" supplement: a retryable error means
// the release never reached the destination chain, so the entry must stay
// queued indefinitely even once QUEUE__RETRY_LIMIT is exceeded. Escalation
// past the limit is observability only (see the SubmissionsStuck gauge),
// never a queue removal.
func TestSubmitTickNeverDropsRetryableFailureEvenPastLimit(t *testing.T) {
	submit := &fakeSubmitter{simulateErr: fmt.Errorf("connection reset by peer")}
	r, q := newTestRunner(t, &fakeWatcher{}, submit, 2)

	if err := q.Put(testEvent(3, 1)); err != nil {
		t.Fatalf("put: %v", err)
	}

	if err := r.submitTick(context.Background()); err != nil {
		t.Fatalf("submitTick 1: %v", err)
	}
	if pending, _ := q.Iter(); len(pending) != 1 {
		t.Fatalf("expected event still queued after first retryable failure, got %+v", pending)
	}

	if err := r.submitTick(context.Background()); err != nil {
		t.Fatalf("submitTick 2: %v", err)
	}
	if pending, _ := q.Iter(); len(pending) != 1 || pending[0].Nonce != 3 {
		t.Fatalf("expected event still queued after exceeding retry limit, got %+v", pending)
	}

	if err := r.submitTick(context.Background()); err != nil {
		t.Fatalf("submitTick 3: %v", err)
	}
	if pending, _ := q.Iter(); len(pending) != 1 || pending[0].Nonce != 3 {
		t.Fatalf("expected event to remain queued on every subsequent retryable failure, got %+v", pending)
	}
}

func TestReadyFalseBeforeFirstTick(t *testing.T) {
	r, _ := newTestRunner(t, &fakeWatcher{}, &fakeSubmitter{}, 3)
	if r.Ready() {
		t.Fatalf("expected Ready() to be false before any tick has run")
	}
}
