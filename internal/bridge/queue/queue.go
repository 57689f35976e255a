// Package queue implements the durable, content-addressed event queue from
// spec.md §4.2: a directory of files, one per nonce, holding the canonical
// JSON of a StakeEvent. The Watcher is the exclusive writer; the Submitter
// is the exclusive reader and deleter (spec.md §3, "Ownership").
package queue

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/usdc-bridge/relayer/internal/bridge/event"
)

const filePrefix = "event_"
const fileSuffix = ".json"

// Queue is a directory-backed, at-least-once store of pending StakeEvents.
type Queue struct {
	dir     string
	maxSize int
	mu      sync.Mutex
	logger  zerolog.Logger
}

// New opens (creating if absent) a queue rooted at dir. maxSize <= 0 means
// unbounded.
func New(dir string, maxSize int, logger zerolog.Logger) (*Queue, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("queue: create dir %s: %w", dir, err)
	}
	return &Queue{
		dir:     dir,
		maxSize: maxSize,
		logger:  logger.With().Str("component", "event_queue").Str("dir", dir).Logger(),
	}, nil
}

func (q *Queue) path(nonce uint64) string {
	return filepath.Join(q.dir, fmt.Sprintf("%s%d%s", filePrefix, nonce, fileSuffix))
}

// Put persists ev atomically (write-then-rename), keyed by nonce. Events
// are deterministic per nonce, so an existing entry with the same nonce is
// overwritten.
func (q *Queue) Put(ev event.StakeEvent) error {
	if err := ev.Validate(); err != nil {
		return fmt.Errorf("queue: refuse to persist invalid event: %w", err)
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("queue: marshal event nonce=%d: %w", ev.Nonce, err)
	}

	final := q.path(ev.Nonce)
	tmp := final + ".tmp"
	if err := os.WriteFile(tmp, data, 0o640); err != nil {
		return fmt.Errorf("queue: write temp file: %w", err)
	}
	if err := os.Rename(tmp, final); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("queue: rename temp file into place: %w", err)
	}

	q.logger.Debug().Uint64("nonce", ev.Nonce).Msg("persisted event to queue")
	return nil
}

// Iter enumerates pending entries in ascending nonce order. Entries that
// fail to parse are logged as malformed and removed from the queue, since a
// malformed event on disk is non-retryable (spec.md §7).
func (q *Queue) Iter() ([]event.StakeEvent, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	entries, err := os.ReadDir(q.dir)
	if err != nil {
		return nil, fmt.Errorf("queue: read dir: %w", err)
	}

	out := make([]event.StakeEvent, 0, len(entries))
	for _, ent := range entries {
		if ent.IsDir() || !strings.HasSuffix(ent.Name(), fileSuffix) {
			continue
		}
		full := filepath.Join(q.dir, ent.Name())
		data, err := os.ReadFile(full)
		if err != nil {
			q.logger.Warn().Err(err).Str("file", ent.Name()).Msg("failed to read queue entry")
			continue
		}
		var ev event.StakeEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			q.logger.Warn().Err(err).Str("file", ent.Name()).Msg("malformed queue entry, removing")
			if rmErr := os.Remove(full); rmErr != nil {
				q.logger.Error().Err(rmErr).Str("file", ent.Name()).Msg("failed to remove malformed queue entry")
			}
			continue
		}
		out = append(out, ev)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Nonce < out[j].Nonce })
	return out, nil
}

// Remove deletes the entry for nonce after terminal disposition (success or
// non-retryable failure). Removing an absent entry is not an error.
func (q *Queue) Remove(nonce uint64) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if err := os.Remove(q.path(nonce)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("queue: remove nonce=%d: %w", nonce, err)
	}
	return nil
}

// Len returns the number of pending entries, used by the watcher to apply
// backpressure against QUEUE__MAX_SIZE.
func (q *Queue) Len() (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	entries, err := os.ReadDir(q.dir)
	if err != nil {
		return 0, fmt.Errorf("queue: read dir: %w", err)
	}
	n := 0
	for _, ent := range entries {
		if !ent.IsDir() && strings.HasSuffix(ent.Name(), fileSuffix) {
			n++
		}
	}
	return n, nil
}

// IsSaturated reports whether the queue is at or above its configured
// maximum size. A non-positive maxSize means unbounded.
func (q *Queue) IsSaturated() (bool, error) {
	if q.maxSize <= 0 {
		return false, nil
	}
	n, err := q.Len()
	if err != nil {
		return false, err
	}
	return n >= q.maxSize, nil
}
