package bot_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"unicode/utf8"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/psplover16/line-ai-rebot/pkg/action"
	"github.com/psplover16/line-ai-rebot/pkg/bot"
	"github.com/psplover16/line-ai-rebot/pkg/intent"
	"github.com/psplover16/line-ai-rebot/pkg/llm"
	"github.com/psplover16/line-ai-rebot/pkg/memory/local"
)

const owner = "U_owner"

type fakeParser struct {
	it    intent.Intent
	err   error
	calls int
}

func (p *fakeParser) Parse(ctx context.Context, userText string) (intent.Intent, error) {
	p.calls++
	return p.it, p.err
}

type fakeChatter struct {
	reply    string
	err      error
	messages []llm.Message
	calls    int
}

func (c *fakeChatter) Chat(ctx context.Context, model string, messages []llm.Message) (string, error) {
	c.calls++
	c.messages = messages
	return c.reply, c.err
}

type fakeRunner struct {
	output string
	err    error
	specs  []action.Spec
}

func (r *fakeRunner) Run(ctx context.Context, spec action.Spec) (string, error) {
	r.specs = append(r.specs, spec)
	return r.output, r.err
}

type fakeSearcher struct {
	mu      sync.Mutex
	err     error
	queries []string
}

func (s *fakeSearcher) Launch(ctx context.Context, query string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queries = append(s.queries, query)
	return s.err
}

func (s *fakeSearcher) launched() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.queries...)
}

type pushed struct {
	to   string
	text string
}

type recordingSink struct {
	mu     sync.Mutex
	err    error
	pushes []pushed
}

func (s *recordingSink) Push(ctx context.Context, to, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pushes = append(s.pushes, pushed{to: to, text: text})
	return s.err
}

func (s *recordingSink) all() []pushed {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]pushed(nil), s.pushes...)
}

var _ = Describe("Dispatcher", func() {
	var (
		parser   *fakeParser
		chatter  *fakeChatter
		runner   *fakeRunner
		searcher *fakeSearcher
		sink     *recordingSink
		store    *local.Store
		cfg      bot.Config
	)

	BeforeEach(func() {
		parser = &fakeParser{}
		chatter = &fakeChatter{}
		runner = &fakeRunner{}
		searcher = &fakeSearcher{}
		sink = &recordingSink{}
		store = local.NewStore(local.DefaultHistoryLimit)

		cfg = bot.Config{
			Parser:      parser,
			Chatter:     chatter,
			ChatModel:   "chat-model",
			Memory:      store,
			Registry:    action.NewRegistry(action.DefaultSpecs()),
			Runner:      runner,
			Searcher:    searcher,
			Sink:        sink,
			AllowedUser: owner,
		}
	})

	dispatch := func(userID, text string) {
		bot.NewDispatcher(cfg).Dispatch(context.Background(), userID, text)
	}

	lastPush := func() pushed {
		pushes := sink.all()
		Expect(pushes).To(HaveLen(1))
		return pushes[0]
	}

	Describe("authorization", func() {
		It("echoes the caller id in bootstrap mode without invoking the parser", func() {
			cfg.AllowedUser = ""

			dispatch("U_stranger", "hello")

			push := lastPush()
			Expect(push.to).To(Equal("U_stranger"))
			Expect(push.text).To(ContainSubstring("U_stranger"))
			Expect(parser.calls).To(BeZero())
		})

		It("rejects a sender that is not the allowed user before any model call", func() {
			dispatch("U_stranger", "hello")

			Expect(lastPush().text).To(Equal("unauthorized user"))
			Expect(parser.calls).To(BeZero())
			Expect(chatter.calls).To(BeZero())
			Expect(store.Len("U_stranger")).To(BeZero())
		})
	})

	Describe("intent parsing", func() {
		It("reports a parse failure without chatting, executing, or remembering", func() {
			parser.err = intent.ErrNotJSON

			dispatch(owner, "gibberish")

			Expect(lastPush().text).To(ContainSubstring("intent parsing failed"))
			Expect(chatter.calls).To(BeZero())
			Expect(runner.specs).To(BeEmpty())
			Expect(store.Len(owner)).To(BeZero())
		})

		It("rejects actions outside the whitelist with no side effects", func() {
			parser.it = intent.Intent{Action: "format_disk"}

			dispatch(owner, "wipe it all")

			Expect(lastPush().text).To(ContainSubstring("unknown command"))
			Expect(runner.specs).To(BeEmpty())
			Expect(store.Len(owner)).To(BeZero())
		})
	})

	Describe("chat path", func() {
		BeforeEach(func() {
			parser.it = intent.Intent{Action: action.None}
		})

		It("sends persona, history, and the new message to the chat model", func() {
			store.AppendExchange(owner, llm.User("earlier"), llm.Assistant("noted"))
			chatter.reply = "sure thing"

			dispatch(owner, "and now?")

			Expect(chatter.messages).To(HaveLen(4))
			Expect(chatter.messages[0].Role).To(Equal(llm.RoleSystem))
			Expect(chatter.messages[0].Content).To(ContainSubstring("繁體中文"))
			Expect(chatter.messages[1].Content).To(Equal("earlier"))
			Expect(chatter.messages[2].Content).To(Equal("noted"))
			Expect(chatter.messages[3]).To(Equal(llm.User("and now?")))
			Expect(lastPush().text).To(Equal("sure thing"))
		})

		It("records the exchange on success", func() {
			chatter.reply = "sure thing"

			dispatch(owner, "hello")

			history := store.History(owner)
			Expect(history).To(HaveLen(2))
			Expect(history[0]).To(Equal(llm.User("hello")))
			Expect(history[1]).To(Equal(llm.Assistant("sure thing")))
		})

		It("does not remember a failed chat", func() {
			chatter.err = errors.New("upstream down")

			dispatch(owner, "hello")

			Expect(lastPush().text).To(Equal("the AI produced no response"))
			Expect(store.Len(owner)).To(BeZero())
		})

		It("treats an empty reply as no response", func() {
			chatter.reply = ""

			dispatch(owner, "hello")

			Expect(lastPush().text).To(Equal("the AI produced no response"))
			Expect(store.Len(owner)).To(BeZero())
		})
	})

	Describe("command path", func() {
		BeforeEach(func() {
			parser.it = intent.Intent{Action: "time"}
		})

		It("runs the spec and replies with its output", func() {
			runner.output = "10:42 PM"

			dispatch(owner, "what time is it")

			Expect(runner.specs).To(HaveLen(1))
			Expect(lastPush().text).To(Equal("10:42 PM"))

			history := store.History(owner)
			Expect(history).To(HaveLen(2))
			Expect(history[1].Content).To(ContainSubstring("(executed) time"))
		})

		It("caps long output in the reply but not in memory", func() {
			runner.output = strings.Repeat("x", 4000)

			dispatch(owner, "list it")

			Expect(lastPush().text).To(HaveLen(1500))
			Expect(store.History(owner)[1].Content).To(ContainSubstring(strings.Repeat("x", 4000)))
		})

		It("never splits a rune when capping multibyte output", func() {
			// 1499 ASCII bytes put the cap boundary inside the first
			// three-byte character.
			runner.output = strings.Repeat("x", 1499) + "現在時間"

			dispatch(owner, "what time is it")

			reply := lastPush().text
			Expect(utf8.ValidString(reply)).To(BeTrue())
			Expect(len(reply)).To(BeNumerically("<=", 1500))
			Expect(reply).To(Equal(strings.Repeat("x", 1499)))
		})

		It("falls back to a confirmation when the command prints nothing", func() {
			runner.output = ""

			dispatch(owner, "what time is it")

			Expect(lastPush().text).To(Equal("executed: time"))
		})

		It("surfaces execution failures and does not remember them", func() {
			runner.err = errors.New("exit status 1")

			dispatch(owner, "what time is it")

			Expect(lastPush().text).To(ContainSubstring("execution failed"))
			Expect(store.Len(owner)).To(BeZero())
		})
	})

	Describe("search path", func() {
		BeforeEach(func() {
			parser.it = intent.Intent{Action: action.Search, SearchQuery: "lo-fi beats"}
		})

		It("confirms immediately and launches in the background", func() {
			dispatch(owner, "play some lo-fi")

			Expect(lastPush().text).To(Equal("searching YouTube for: lo-fi beats"))
			Eventually(searcher.launched).Should(ConsistOf("lo-fi beats"))

			history := store.History(owner)
			Expect(history).To(HaveLen(2))
			Expect(history[1].Content).To(ContainSubstring("YouTube search: lo-fi beats"))
		})

		It("asks for a keyword when the query is empty", func() {
			parser.it.SearchQuery = ""

			dispatch(owner, "play something")

			Expect(lastPush().text).To(Equal("please provide a YouTube search keyword"))
			Consistently(searcher.launched).Should(BeEmpty())
			Expect(store.Len(owner)).To(BeZero())
		})

		It("still confirms when the launch later fails", func() {
			searcher.err = errors.New("no network")

			dispatch(owner, "play some lo-fi")

			Expect(lastPush().text).To(Equal("searching YouTube for: lo-fi beats"))
			Eventually(searcher.launched).Should(HaveLen(1))
		})
	})

	It("swallows sink failures", func() {
		sink.err = errors.New("push channel down")
		parser.it = intent.Intent{Action: action.None}
		chatter.reply = "hi"

		Expect(func() { dispatch(owner, "hello") }).NotTo(Panic())
	})
})
