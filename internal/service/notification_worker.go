package service

import (
	"context"
	"log/slog"

	"github.com/iyhunko/affiliate-catalog/internal/metrics"
	"github.com/iyhunko/affiliate-catalog/internal/sqs"
)

// CatalogPublisher sends catalog messages to the queue.
type CatalogPublisher interface {
	PublishCatalogMessage(ctx context.Context, msg sqs.CatalogMessage) error
}

// NotificationWorker publishes catalog messages in the background so a slow
// queue never delays a write response. Messages that do not fit the buffer
// are dropped and logged.
type NotificationWorker struct {
	publisher CatalogPublisher
	queue     chan sqs.CatalogMessage
	stopChan  chan struct{}
	done      chan struct{}
}

// NewNotificationWorker creates a worker buffering up to size messages.
func NewNotificationWorker(publisher CatalogPublisher, size int) *NotificationWorker {
	if size < 1 {
		size = 1
	}
	return &NotificationWorker{
		publisher: publisher,
		queue:     make(chan sqs.CatalogMessage, size),
		stopChan:  make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Notify enqueues msg without blocking.
func (w *NotificationWorker) Notify(_ context.Context, msg sqs.CatalogMessage) {
	select {
	case w.queue <- msg:
	default:
		metrics.NotificationsPublished.WithLabelValues(metrics.OutcomeError).Inc()
		slog.Warn("Notification queue full, dropping catalog message", slog.String("revision", msg.Revision))
	}
}

// Start publishes queued messages until the context is done or Stop is called.
// Messages still queued at that point are flushed first.
func (w *NotificationWorker) Start(ctx context.Context) {
	defer close(w.done)
	slog.Info("Notification worker started")

	for {
		select {
		case <-ctx.Done():
			w.drain(context.WithoutCancel(ctx))
			slog.Info("Notification worker stopped by context")
			return
		case <-w.stopChan:
			w.drain(ctx)
			slog.Info("Notification worker stopped")
			return
		case msg := <-w.queue:
			w.publish(ctx, msg)
		}
	}
}

// Stop stops the worker and waits for queued messages to be published.
func (w *NotificationWorker) Stop() {
	close(w.stopChan)
	<-w.done
}

func (w *NotificationWorker) drain(ctx context.Context) {
	for {
		select {
		case msg := <-w.queue:
			w.publish(ctx, msg)
		default:
			return
		}
	}
}

func (w *NotificationWorker) publish(ctx context.Context, msg sqs.CatalogMessage) {
	if err := w.publisher.PublishCatalogMessage(ctx, msg); err != nil {
		metrics.NotificationsPublished.WithLabelValues(metrics.OutcomeError).Inc()
		slog.Error("Failed to send SQS message",
			slog.Any("err", err),
			slog.String("action", msg.Action),
			slog.String("revision", msg.Revision))
		return
	}
	metrics.NotificationsPublished.WithLabelValues(metrics.OutcomeOK).Inc()
	slog.Info("Catalog notification published", slog.String("revision", msg.Revision))
}
