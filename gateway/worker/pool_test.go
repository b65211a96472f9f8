package worker

import (
	"context"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/papercomputeco/wireline/pkg/eventstream"
	"github.com/papercomputeco/wireline/pkg/storage"
	"github.com/papercomputeco/wireline/pkg/storage/inmemory"
)

// capturePublisher records published events for assertions.
type capturePublisher struct {
	mu     sync.Mutex
	events []*eventstream.ExchangeCompletedEvent
}

func (p *capturePublisher) PublishExchange(_ context.Context, event *eventstream.ExchangeCompletedEvent) error {
	if event == nil {
		return eventstream.ErrNilExchangeEvent
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *capturePublisher) Close() error { return nil }

func (p *capturePublisher) published() []*eventstream.ExchangeCompletedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*eventstream.ExchangeCompletedEvent(nil), p.events...)
}

// newTestPool creates a worker pool backed by an in-memory driver.
// Callers should "wp.Close()" to drain enqueued jobs before asserting storage state.
func newTestPool(pub eventstream.Publisher) (*Pool, *inmemory.Driver) {
	logger, _ := zap.NewDevelopment()
	driver := inmemory.NewDriver()

	wp, err := NewPool(&Config{
		Driver:      driver,
		Publisher:   pub,
		GatewayName: "test-gateway",
		UpstreamURL: "http://backend.test",
		Logger:      logger,
	})
	Expect(err).NotTo(HaveOccurred())

	return wp, driver
}

func testJob(id string) Job {
	started := time.Now().UTC().Add(-500 * time.Millisecond)
	return Job{
		Exchange: &storage.Exchange{
			ID:              id,
			Model:           "test-model",
			Status:          200,
			FinishReason:    "stop",
			PromptChars:     24,
			CompletionChars: 12,
			Streaming:       true,
			DurationMs:      500,
			CreatedAt:       started,
		},
		Path:        "/v1/chat/completions",
		StartedAt:   started,
		CompletedAt: started.Add(500 * time.Millisecond),
	}
}

var _ = Describe("Worker Pool", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	Describe("Enqueue", func() {
		It("returns true when the queue has capacity", func() {
			wp, _ := newTestPool(nil)
			ok := wp.Enqueue(testJob("ex-1"))
			Expect(ok).To(BeTrue())
			wp.Close()
		})
	})

	Describe("Persistence", func() {
		It("stores the exchange after draining", func() {
			wp, driver := newTestPool(nil)
			wp.Enqueue(testJob("ex-1"))
			wp.Close()

			ex, err := driver.Get(ctx, "ex-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(ex.Model).To(Equal("test-model"))
			Expect(ex.FinishReason).To(Equal("stop"))
		})

		It("stores multiple exchanges across workers", func() {
			wp, driver := newTestPool(nil)
			wp.Enqueue(testJob("ex-1"))
			wp.Enqueue(testJob("ex-2"))
			wp.Enqueue(testJob("ex-3"))
			wp.Close()

			all, err := driver.List(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(all).To(HaveLen(3))
		})
	})

	Describe("Event publishing", func() {
		It("publishes a completion event per stored exchange", func() {
			pub := &capturePublisher{}
			wp, _ := newTestPool(pub)
			wp.Enqueue(testJob("ex-1"))
			wp.Close()

			events := pub.published()
			Expect(events).To(HaveLen(1))

			ev := events[0]
			Expect(ev.EventType).To(Equal(eventstream.EventTypeExchangeCompleted))
			Expect(ev.SchemaVersion).To(Equal(eventstream.SchemaVersionV1))
			Expect(ev.EventID).NotTo(BeEmpty())
			Expect(ev.Source.Gateway).To(Equal("test-gateway"))
			Expect(ev.Source.Upstream).To(Equal("http://backend.test"))
			Expect(ev.RequestMeta.Path).To(Equal("/v1/chat/completions"))
			Expect(ev.RequestMeta.Streaming).To(BeTrue())
			Expect(ev.RequestMeta.HTTPStatus).To(Equal(200))
			Expect(ev.Exchange.ExchangeID).To(Equal("ex-1"))
			Expect(ev.Exchange.PromptChars).To(Equal(24))
		})

		It("skips publishing when no publisher is configured", func() {
			wp, driver := newTestPool(nil)
			wp.Enqueue(testJob("ex-1"))
			wp.Close()

			_, err := driver.Get(ctx, "ex-1")
			Expect(err).NotTo(HaveOccurred())
		})
	})
})
