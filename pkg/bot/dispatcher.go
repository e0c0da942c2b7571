package bot

import (
	"context"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/psplover16/line-ai-rebot/pkg/action"
	"github.com/psplover16/line-ai-rebot/pkg/llm"
	"github.com/psplover16/line-ai-rebot/pkg/memory"
)

// Dispatcher routes one inbound message through the two-stage model protocol.
// Stages run strictly in sequence: authorize, parse, validate, act, reply.
// Every terminal state pushes exactly one reply; conversation memory is only
// written on successful terminal actions.
type Dispatcher struct {
	config Config
	logger *zap.Logger
}

// Config wires the dispatcher's collaborators.
type Config struct {
	// Parser is the stage-1 intent classifier.
	Parser IntentParser

	// Chatter is the stage-2 chat-completion client.
	Chatter llm.Chatter

	// ChatModel is the model id used for the conversational path.
	ChatModel string

	// Memory holds per-identity conversation history.
	Memory memory.Store

	// Registry is the closed action set.
	Registry *action.Registry

	// Runner executes command-backed actions.
	Runner Runner

	// Searcher performs the search-and-launch action.
	Searcher Searcher

	// Sink delivers replies.
	Sink Sink

	// AllowedUser is the single authorized identity. When empty the
	// dispatcher runs in bootstrap mode and only echoes caller ids.
	AllowedUser string

	// Logger is the provided zap logger.
	Logger *zap.Logger
}

// NewDispatcher creates a dispatcher.
func NewDispatcher(cfg Config) *Dispatcher {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{config: cfg, logger: logger}
}

// Dispatch processes one inbound text message from userID. All failures are
// terminal for this message and surface only through the reply channel; a
// bad message never affects subsequent ones.
func (d *Dispatcher) Dispatch(ctx context.Context, userID, text string) {
	logger := d.logger.With(
		zap.String("dispatch_id", uuid.NewString()),
		zap.String("user_id", userID),
	)
	logger.Info("message received", zap.String("text", text))

	// Authorization precedes any model invocation.
	if d.config.AllowedUser == "" {
		logger.Warn("no allowed user configured, replying with caller id")
		d.push(ctx, logger, userID, bootstrapReply(userID))
		return
	}
	if userID != d.config.AllowedUser {
		logger.Warn("unauthorized sender rejected")
		d.push(ctx, logger, userID, msgUnauthorized)
		return
	}

	it, err := d.config.Parser.Parse(ctx, text)
	if err != nil {
		logger.Error("intent parsing failed", zap.Error(err))
		d.push(ctx, logger, userID, msgParseFailed)
		return
	}

	logger.Info("intent parsed",
		zap.String("action", it.Action),
		zap.String("search_query", it.SearchQuery),
	)

	if !d.config.Registry.Allowed(it.Action) {
		logger.Warn("action not in whitelist", zap.String("action", it.Action))
		d.push(ctx, logger, userID, msgUnknownAction)
		return
	}

	switch it.Action {
	case action.Search:
		d.dispatchSearch(ctx, logger, userID, text, it.SearchQuery)
	case action.None:
		d.dispatchChat(ctx, logger, userID, text)
	default:
		d.dispatchCommand(ctx, logger, userID, text, it.Action)
	}
}

// dispatchSearch launches the search action detached and confirms
// optimistically, without waiting for the launch to complete.
func (d *Dispatcher) dispatchSearch(ctx context.Context, logger *zap.Logger, userID, text, query string) {
	if query == "" {
		d.push(ctx, logger, userID, msgMissingQuery)
		return
	}

	launchCtx := context.WithoutCancel(ctx)
	go func() {
		if err := d.config.Searcher.Launch(launchCtx, query); err != nil {
			logger.Warn("search launch failed", zap.Error(err))
		}
	}()

	d.config.Memory.AppendExchange(userID, llm.User(text), llm.Assistant(searchRecord(query)))
	d.push(ctx, logger, userID, searchConfirmation(query))
}

// dispatchChat runs the conversational path against the chat model with the
// persona prompt and the caller's history as context.
func (d *Dispatcher) dispatchChat(ctx context.Context, logger *zap.Logger, userID, text string) {
	history := d.config.Memory.History(userID)

	messages := make([]llm.Message, 0, len(history)+2)
	messages = append(messages, llm.System(personaPrompt))
	messages = append(messages, history...)
	messages = append(messages, llm.User(text))

	reply, err := d.config.Chatter.Chat(ctx, d.config.ChatModel, messages)
	if err != nil {
		logger.Error("chat invocation failed", zap.Error(err))
		d.push(ctx, logger, userID, msgNoResponse)
		return
	}
	if reply == "" {
		logger.Warn("chat model returned empty reply")
		d.push(ctx, logger, userID, msgNoResponse)
		return
	}

	d.config.Memory.AppendExchange(userID, llm.User(text), llm.Assistant(reply))
	d.push(ctx, logger, userID, reply)
}

// dispatchCommand executes a whitelisted command and replies with its
// decoded output, capped to the reply limit.
func (d *Dispatcher) dispatchCommand(ctx context.Context, logger *zap.Logger, userID, text, actionID string) {
	spec, ok := d.config.Registry.Lookup(actionID)
	if !ok {
		// Built-ins are routed above; a miss here means the whitelist has
		// an identifier with no command spec behind it.
		logger.Error("no command spec for action", zap.String("action", actionID))
		d.push(ctx, logger, userID, msgUnknownAction)
		return
	}

	output, err := d.config.Runner.Run(ctx, spec)
	if err != nil {
		logger.Error("command execution failed",
			zap.String("action", actionID),
			zap.Error(err),
		)
		d.push(ctx, logger, userID, execFailure(err))
		return
	}

	logger.Info("command executed",
		zap.String("action", actionID),
		zap.Int("output_len", len(output)),
	)

	d.config.Memory.AppendExchange(userID, llm.User(text), llm.Assistant(execRecord(actionID, output)))

	reply := capReply(output)
	if reply == "" {
		reply = execFallback(actionID)
	}
	d.push(ctx, logger, userID, reply)
}

// capReply bounds a reply to replyCap bytes without splitting a rune; the
// push API rejects invalid UTF-8, so a mid-rune cut would lose the whole
// reply.
func capReply(reply string) string {
	if len(reply) <= replyCap {
		return reply
	}
	cut := replyCap
	for cut > 0 && !utf8.RuneStart(reply[cut]) {
		cut--
	}
	return reply[:cut]
}

// push delivers a reply, logging failures instead of propagating them so a
// broken delivery channel cannot cascade into a second failure.
func (d *Dispatcher) push(ctx context.Context, logger *zap.Logger, userID, text string) {
	if err := d.config.Sink.Push(ctx, userID, text); err != nil {
		logger.Error("push failed", zap.Error(err))
	}
}
