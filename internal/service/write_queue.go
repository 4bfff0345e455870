package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mansoorceksport/repsync/internal/domain"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// WriteQueueKey is the store key holding the JSON array of pending entries
const WriteQueueKey = "write_queue:v1"

// DrainResult summarises one ProcessQueue pass
type DrainResult struct {
	Offline   bool  `json:"offline"`
	Attempted int   `json:"attempted"`
	Delivered int   `json:"delivered"`
	Failed    int   `json:"failed"`
	Skipped   int   `json:"skipped"`   // Still inside their backoff window
	Exhausted int   `json:"exhausted"` // Past MaxAttempts, left for manual retry
	Remaining int   `json:"remaining"`
	Err       error `json:"-"`
}

// WriteQueue is the durable FIFO of workout log submissions that failed online.
// Every read-modify-write of WriteQueueKey happens under mu, so an Enqueue that lands
// while a drain pass is submitting is merged into the pass's final write instead of lost.
type WriteQueue struct {
	store        domain.KeyValueStore
	submitter    domain.WorkoutLogSubmitter
	connectivity domain.ConnectivityObserver
	policy       RetryPolicy

	mu  sync.Mutex
	now func() time.Time

	log       *logrus.Entry
	tracer    trace.Tracer
	enqueued  metric.Int64Counter
	delivered metric.Int64Counter
	failed    metric.Int64Counter
}

func NewWriteQueue(
	store domain.KeyValueStore,
	submitter domain.WorkoutLogSubmitter,
	connectivity domain.ConnectivityObserver,
	policy RetryPolicy,
) *WriteQueue {
	q := &WriteQueue{
		store:        store,
		submitter:    submitter,
		connectivity: connectivity,
		policy:       policy,
		now:          time.Now,
		log:          logrus.WithField("component", "write_queue"),
		tracer:       otel.Tracer("write_queue"),
	}

	meter := otel.Meter("repsync/write_queue")
	var err error
	if q.enqueued, err = meter.Int64Counter("write_queue.enqueued", metric.WithDescription("Entries added to the write queue")); err != nil {
		q.log.WithError(err).Warn("failed to create enqueued counter")
	}
	if q.delivered, err = meter.Int64Counter("write_queue.delivered", metric.WithDescription("Queued entries accepted by the backend")); err != nil {
		q.log.WithError(err).Warn("failed to create delivered counter")
	}
	if q.failed, err = meter.Int64Counter("write_queue.failed", metric.WithDescription("Failed delivery attempts")); err != nil {
		q.log.WithError(err).Warn("failed to create failed counter")
	}
	return q
}

// Policy returns the retry policy the queue drains with
func (q *WriteQueue) Policy() RetryPolicy {
	return q.policy
}

// Enqueue appends a pending submission. Attempt bookkeeping is reset regardless of
// what the caller passed. Enqueueing an id that is already queued is a no-op.
func (q *WriteQueue) Enqueue(ctx context.Context, entry domain.WriteQueueEntry) error {
	if err := entry.Validate(); err != nil {
		return err
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = q.now().UTC()
	}
	entry.Attempts = 0
	entry.LastAttemptAt = nil
	entry.LastError = ""

	q.mu.Lock()
	defer q.mu.Unlock()

	entries, err := q.load(ctx)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if e.ID == entry.ID {
			q.log.WithField("entry_id", entry.ID).Info("entry already queued")
			return nil
		}
	}

	entries = append(entries, entry)
	if err := q.save(ctx, entries); err != nil {
		return err
	}

	q.add(ctx, q.enqueued)
	q.log.WithFields(logrus.Fields{
		"entry_id": entry.ID,
		"depth":    len(entries),
	}).Info("queued workout log for later delivery")
	return nil
}

// GetQueue returns a snapshot of every entry, or an empty slice if the store fails
func (q *WriteQueue) GetQueue(ctx context.Context) []domain.WriteQueueEntry {
	q.mu.Lock()
	defer q.mu.Unlock()

	entries, err := q.load(ctx)
	if err != nil {
		q.log.WithError(err).Error("failed to read write queue")
		return []domain.WriteQueueEntry{}
	}
	return entries
}

// Exhausted returns the entries automatic draining has given up on
func (q *WriteQueue) Exhausted(ctx context.Context) []domain.WriteQueueEntry {
	exhausted := []domain.WriteQueueEntry{}
	for _, e := range q.GetQueue(ctx) {
		if e.IsExhausted(q.policy.MaxAttempts) {
			exhausted = append(exhausted, e)
		}
	}
	return exhausted
}

// Retry resets an entry's attempt bookkeeping so the next pass submits it immediately
func (q *WriteQueue) Retry(ctx context.Context, id string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	entries, err := q.load(ctx)
	if err != nil {
		return err
	}
	for i := range entries {
		if entries[i].ID != id {
			continue
		}
		entries[i].Attempts = 0
		entries[i].LastAttemptAt = nil
		entries[i].LastError = ""
		if err := q.save(ctx, entries); err != nil {
			return err
		}
		q.log.WithField("entry_id", id).Info("entry reset for manual retry")
		return nil
	}
	return fmt.Errorf("queue entry %s: %w", id, domain.ErrNotFound)
}

// ClearQueue deletes every pending entry
func (q *WriteQueue) ClearQueue(ctx context.Context) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if err := q.store.RemoveItem(ctx, WriteQueueKey); err != nil {
		return fmt.Errorf("failed to clear write queue: %w", err)
	}
	q.log.Warn("write queue cleared")
	return nil
}

// ProcessQueue makes one pass over the queue in order.
// Entries are submitted one at a time outside the lock; the result is merged against a
// fresh read so concurrent Enqueue, Retry and ClearQueue calls are honoured.
func (q *WriteQueue) ProcessQueue(ctx context.Context) DrainResult {
	ctx, span := q.tracer.Start(ctx, "WriteQueue.ProcessQueue")
	defer span.End()

	var res DrainResult
	if !q.connectivity.IsConnected(ctx) {
		res.Offline = true
		span.SetAttributes(attribute.Bool("offline", true))
		return res
	}

	q.mu.Lock()
	snapshot, err := q.load(ctx)
	q.mu.Unlock()
	if err != nil {
		return q.abort(span, res, err)
	}
	if len(snapshot) == 0 {
		return res
	}

	delivered := make(map[string]bool)
	updated := make(map[string]domain.WriteQueueEntry)

	for _, entry := range snapshot {
		if ctx.Err() != nil {
			break
		}

		if entry.IsExhausted(q.policy.MaxAttempts) {
			res.Exhausted++
			continue
		}
		if entry.LastAttemptAt != nil && q.now().Sub(*entry.LastAttemptAt) < q.policy.Backoff(entry.Attempts) {
			res.Skipped++
			continue
		}

		res.Attempted++
		result := q.submit(ctx, entry)
		entryLog := q.log.WithFields(logrus.Fields{
			"entry_id": entry.ID,
			"attempts": entry.Attempts,
		})

		if result.IsOK() {
			delivered[entry.ID] = true
			res.Delivered++
			q.add(ctx, q.delivered)
			entryLog.Info("queued workout log delivered")
			continue
		}

		attemptAt := q.now().UTC()
		entry.Attempts++
		entry.LastAttemptAt = &attemptAt
		entry.LastError = result.Error().Error()
		updated[entry.ID] = entry
		res.Failed++
		q.add(ctx, q.failed, attribute.String("result", result.Kind.String()))

		if entry.IsExhausted(q.policy.MaxAttempts) {
			entryLog.WithField("result", result.Kind.String()).Errorf("delivery exhausted after %d attempts, needs manual attention: %s", entry.Attempts, entry.LastError)
		} else {
			entryLog.WithField("result", result.Kind.String()).Warnf("delivery failed, retry %d/%d in %s: %s",
				entry.Attempts, q.policy.MaxAttempts, q.policy.Backoff(entry.Attempts), entry.LastError)
		}
	}

	if res.Attempted == 0 {
		res.Remaining = len(snapshot)
		return res
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	fresh, err := q.load(ctx)
	if err != nil {
		return q.abort(span, res, err)
	}

	merged := make([]domain.WriteQueueEntry, 0, len(fresh))
	for _, e := range fresh {
		if delivered[e.ID] {
			continue
		}
		// A Retry that landed mid-flight reset the counter; keep the reset
		if u, ok := updated[e.ID]; ok && e.Attempts == u.Attempts-1 {
			merged = append(merged, u)
			continue
		}
		merged = append(merged, e)
	}

	if err := q.save(ctx, merged); err != nil {
		return q.abort(span, res, err)
	}

	res.Remaining = len(merged)
	span.SetAttributes(
		attribute.Int("attempted", res.Attempted),
		attribute.Int("delivered", res.Delivered),
		attribute.Int("remaining", res.Remaining),
	)
	return res
}

// submit calls the submitter, converting a panic into a failed attempt
func (q *WriteQueue) submit(ctx context.Context, entry domain.WriteQueueEntry) (res domain.Result[*domain.WorkoutLog]) {
	defer func() {
		if r := recover(); r != nil {
			res = domain.Transient[*domain.WorkoutLog](fmt.Errorf("submitter panicked: %v", r))
		}
	}()
	return q.submitter.CreateWorkoutLog(ctx, entry.ID, entry.Payload)
}

func (q *WriteQueue) abort(span trace.Span, res DrainResult, err error) DrainResult {
	q.log.WithError(err).Error("drain pass aborted, queue left untouched")
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	res.Err = err
	return res
}

// load reads the persisted list. A missing key is an empty queue and so is
// malformed JSON, which is logged; only store failures are returned.
func (q *WriteQueue) load(ctx context.Context) ([]domain.WriteQueueEntry, error) {
	data, err := q.store.GetItem(ctx, WriteQueueKey)
	if err != nil {
		if errors.Is(err, domain.ErrKeyNotFound) {
			return []domain.WriteQueueEntry{}, nil
		}
		return nil, fmt.Errorf("failed to read write queue: %w", err)
	}

	var entries []domain.WriteQueueEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		q.log.WithError(err).Error("write queue is malformed, treating as empty")
		return []domain.WriteQueueEntry{}, nil
	}
	if entries == nil {
		entries = []domain.WriteQueueEntry{}
	}
	return entries, nil
}

func (q *WriteQueue) save(ctx context.Context, entries []domain.WriteQueueEntry) error {
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("failed to marshal write queue: %w", err)
	}
	if err := q.store.SetItem(ctx, WriteQueueKey, data); err != nil {
		return fmt.Errorf("failed to write write queue: %w", err)
	}
	return nil
}

func (q *WriteQueue) add(ctx context.Context, counter metric.Int64Counter, attrs ...attribute.KeyValue) {
	if counter == nil {
		return
	}
	counter.Add(ctx, 1, metric.WithAttributes(attrs...))
}
