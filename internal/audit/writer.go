package audit

import (
	"context"
	"flairhq/internal/audit/interfaces"
	"flairhq/internal/models"
	"flairhq/internal/providers"
	"flairhq/internal/storage"
	"flairhq/internal/structures"
	"sync"
	"time"

	"go.uber.org/atomic"
)

const defaultQueueSize = 256

type item struct {
	events  []models.ModerationEvent
	flushed chan struct{}
}

// Writer appends moderation events to the event store from a single
// background worker. Failures are logged, never returned.
type Writer struct {
	store   storage.EventStoreInterface
	logger  providers.Logger
	metrics providers.MetricsProviderInterface
	now     func() time.Time

	mu     sync.RWMutex
	closed bool
	queue  chan item
	done   chan struct{}

	pending atomic.Int64
	written atomic.Int64
	dropped atomic.Int64
	failed  atomic.Int64
}

type WriterStats struct {
	Pending int64
	Written int64
	Dropped int64
	Failed  int64
}

func NewWriter(conf *structures.Config, store storage.EventStoreInterface, logger providers.Logger, metrics providers.MetricsProviderInterface) *Writer {
	size := conf.Audit.QueueSize
	if size <= 0 {
		size = defaultQueueSize
	}
	w := &Writer{
		store:   store,
		logger:  logger,
		metrics: metrics,
		now:     time.Now,
		queue:   make(chan item, size),
		done:    make(chan struct{}),
	}
	go w.run()
	return w
}

var _ interfaces.WriterInterface = (*Writer)(nil)

// Record queues events without blocking. A full queue drops the batch.
func (w *Writer) Record(events ...models.ModerationEvent) {
	if len(events) == 0 {
		return
	}
	batch := make([]models.ModerationEvent, len(events))
	copy(batch, events)
	now := w.now().UTC()
	for i := range batch {
		if batch[i].CreatedAt.IsZero() {
			batch[i].CreatedAt = now
		}
	}

	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.closed {
		w.drop(batch, "writer closed")
		return
	}
	n := int64(len(batch))
	backlog := w.pending.Add(n)
	select {
	case w.queue <- item{events: batch}:
		w.metrics.SetAuditBacklog(int(backlog))
	default:
		w.pending.Sub(n)
		w.drop(batch, "queue full")
	}
}

func (w *Writer) drop(batch []models.ModerationEvent, reason string) {
	w.dropped.Add(int64(len(batch)))
	for _, ev := range batch {
		w.logger.Warnf(providers.TypeAudit, "Dropped %s event of %s (%s): %s", ev.Type, ev.User, reason, ev.Content)
	}
}

// Flush waits until every event recorded before the call has been handled.
func (w *Writer) Flush(ctx context.Context) error {
	marker := item{flushed: make(chan struct{})}

	w.mu.RLock()
	if w.closed {
		w.mu.RUnlock()
		select {
		case <-w.done:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	select {
	case w.queue <- marker:
		w.mu.RUnlock()
	case <-ctx.Done():
		w.mu.RUnlock()
		return ctx.Err()
	}

	select {
	case <-marker.flushed:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting events, drains the queue and waits for the worker.
func (w *Writer) Close() {
	w.mu.Lock()
	if !w.closed {
		w.closed = true
		close(w.queue)
	}
	w.mu.Unlock()
	<-w.done
}

func (w *Writer) Stats() WriterStats {
	return WriterStats{
		Pending: w.pending.Load(),
		Written: w.written.Load(),
		Dropped: w.dropped.Load(),
		Failed:  w.failed.Load(),
	}
}

func (w *Writer) run() {
	defer close(w.done)
	for it := range w.queue {
		if it.flushed != nil {
			close(it.flushed)
			continue
		}
		w.write(it.events)
	}
}

func (w *Writer) write(events []models.ModerationEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := w.store.CreateEvents(ctx, events...); err != nil {
		w.failed.Add(int64(len(events)))
		for _, ev := range events {
			w.logger.Errorf(providers.TypeAudit, "Unable to write %s event of %s: %v", ev.Type, ev.User, err)
		}
	} else {
		w.written.Add(int64(len(events)))
		for _, ev := range events {
			w.logger.Infof(providers.TypeAudit, "%s %s: %s", ev.Type, ev.User, ev.Content)
		}
	}
	w.metrics.SetAuditBacklog(int(w.pending.Sub(int64(len(events)))))
}
