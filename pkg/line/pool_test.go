package line_test

import (
	"context"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/psplover16/line-ai-rebot/pkg/bot"
	"github.com/psplover16/line-ai-rebot/pkg/intent"
	"github.com/psplover16/line-ai-rebot/pkg/line"
)

// gateParser records parsed texts and blocks until released, so tests can
// hold workers mid-dispatch.
type gateParser struct {
	mu    sync.Mutex
	gate  chan struct{}
	texts []string
}

func newGateParser() *gateParser {
	return &gateParser{gate: make(chan struct{})}
}

func (p *gateParser) Parse(ctx context.Context, userText string) (intent.Intent, error) {
	p.mu.Lock()
	p.texts = append(p.texts, userText)
	p.mu.Unlock()
	<-p.gate
	return intent.Intent{}, intent.ErrNotJSON
}

func (p *gateParser) parsed() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.texts...)
}

type nullSink struct{}

func (nullSink) Push(ctx context.Context, to, text string) error { return nil }

var _ = Describe("Pool", func() {
	var (
		parser     *gateParser
		dispatcher *bot.Dispatcher
	)

	BeforeEach(func() {
		parser = newGateParser()
		dispatcher = bot.NewDispatcher(bot.Config{
			Parser:      parser,
			Sink:        nullSink{},
			AllowedUser: "U_owner",
		})
	})

	It("dispatches enqueued jobs on background workers", func() {
		close(parser.gate)

		pool, err := line.NewPool(&line.PoolConfig{
			Dispatcher: dispatcher,
			Logger:     zap.NewNop(),
		})
		Expect(err).NotTo(HaveOccurred())
		defer pool.Close()

		Expect(pool.Enqueue(line.Job{UserID: "U_owner", Text: "hello"})).To(BeTrue())

		Eventually(parser.parsed).Should(ConsistOf("hello"))
	})

	It("drops jobs when the queue is full", func() {
		pool, err := line.NewPool(&line.PoolConfig{
			Dispatcher: dispatcher,
			NumWorkers: 1,
			QueueSize:  1,
			Logger:     zap.NewNop(),
		})
		Expect(err).NotTo(HaveOccurred())

		// First job occupies the worker, second fills the queue.
		Expect(pool.Enqueue(line.Job{UserID: "U_owner", Text: "first"})).To(BeTrue())
		Eventually(parser.parsed).Should(HaveLen(1))
		Expect(pool.Enqueue(line.Job{UserID: "U_owner", Text: "second"})).To(BeTrue())

		Expect(pool.Enqueue(line.Job{UserID: "U_owner", Text: "third"})).To(BeFalse())

		close(parser.gate)
		pool.Close()
	})

	It("drains in-flight jobs on Close", func() {
		close(parser.gate)

		pool, err := line.NewPool(&line.PoolConfig{
			Dispatcher: dispatcher,
			NumWorkers: 2,
			Logger:     zap.NewNop(),
		})
		Expect(err).NotTo(HaveOccurred())

		for _, text := range []string{"a", "b", "c", "d"} {
			Expect(pool.Enqueue(line.Job{UserID: "U_owner", Text: text})).To(BeTrue())
		}
		pool.Close()

		Expect(parser.parsed()).To(ConsistOf("a", "b", "c", "d"))
	})
})
