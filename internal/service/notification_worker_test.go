package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/iyhunko/affiliate-catalog/internal/service"
	"github.com/iyhunko/affiliate-catalog/internal/sqs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingPublisher collects published messages.
type recordingPublisher struct {
	mu   sync.Mutex
	msgs []sqs.CatalogMessage
	err  error
}

func (p *recordingPublisher) PublishCatalogMessage(_ context.Context, msg sqs.CatalogMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, msg)
	return p.err
}

func (p *recordingPublisher) revisions() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.msgs))
	for _, m := range p.msgs {
		out = append(out, m.Revision)
	}
	return out
}

func TestNotificationWorker_PublishesInOrder(t *testing.T) {
	// given
	publisher := &recordingPublisher{}
	worker := service.NewNotificationWorker(publisher, 10)
	go worker.Start(context.Background())

	// when
	worker.Notify(context.Background(), sqs.CatalogMessage{Action: sqs.ActionUpdated, Revision: "r1"})
	worker.Notify(context.Background(), sqs.CatalogMessage{Action: sqs.ActionUpdated, Revision: "r2"})

	// then
	require.Eventually(t, func() bool {
		return len(publisher.revisions()) == 2
	}, time.Second, 10*time.Millisecond)
	worker.Stop()
	assert.Equal(t, []string{"r1", "r2"}, publisher.revisions())
}

func TestNotificationWorker_StopFlushesQueue(t *testing.T) {
	// given
	publisher := &recordingPublisher{}
	worker := service.NewNotificationWorker(publisher, 10)
	worker.Notify(context.Background(), sqs.CatalogMessage{Revision: "r1"})
	worker.Notify(context.Background(), sqs.CatalogMessage{Revision: "r2"})

	// when
	go worker.Start(context.Background())
	worker.Stop()

	// then
	assert.ElementsMatch(t, []string{"r1", "r2"}, publisher.revisions())
}

func TestNotificationWorker_DropsWhenFull(t *testing.T) {
	// given
	publisher := &recordingPublisher{}
	worker := service.NewNotificationWorker(publisher, 1)

	// when
	worker.Notify(context.Background(), sqs.CatalogMessage{Revision: "kept"})
	worker.Notify(context.Background(), sqs.CatalogMessage{Revision: "dropped"})
	go worker.Start(context.Background())
	worker.Stop()

	// then
	assert.Equal(t, []string{"kept"}, publisher.revisions())
}

func TestNotificationWorker_PublishErrorDoesNotStopWorker(t *testing.T) {
	// given
	publisher := &recordingPublisher{err: errors.New("queue unavailable")}
	worker := service.NewNotificationWorker(publisher, 10)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		worker.Start(ctx)
		close(done)
	}()

	// when
	worker.Notify(ctx, sqs.CatalogMessage{Revision: "r1"})
	worker.Notify(ctx, sqs.CatalogMessage{Revision: "r2"})
	require.Eventually(t, func() bool {
		return len(publisher.revisions()) == 2
	}, time.Second, 10*time.Millisecond)
	cancel()

	// then
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop after context cancellation")
	}
}
