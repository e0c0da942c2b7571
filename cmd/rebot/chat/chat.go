// Package chatcmder provides the chat command for exercising the dispatch
// pipeline locally, without LINE in the loop.
package chatcmder

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/psplover16/line-ai-rebot/pkg/action"
	"github.com/psplover16/line-ai-rebot/pkg/bot"
	"github.com/psplover16/line-ai-rebot/pkg/cliui"
	"github.com/psplover16/line-ai-rebot/pkg/config"
	"github.com/psplover16/line-ai-rebot/pkg/intent"
	"github.com/psplover16/line-ai-rebot/pkg/llm/ollama"
	"github.com/psplover16/line-ai-rebot/pkg/logger"
	"github.com/psplover16/line-ai-rebot/pkg/memory/local"
)

var (
	userPrompt  = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Bold(true).Render("you> ")
	rebotPrompt = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Render("rebot> ")
)

// localIdentity is the fixed identity used for REPL sessions. It is also the
// allowed user, so the REPL always dispatches as the authorized sender.
const localIdentity = "local"

type chatCommander struct {
	upstream    string
	parserModel string
	chatModel   string
	debug       bool

	cfg    *config.Config
	logger *zap.Logger
}

// stdoutSink prints replies to the terminal instead of pushing over LINE.
type stdoutSink struct{}

func (stdoutSink) Push(_ context.Context, _, text string) error {
	fmt.Printf("%s%s\n\n", rebotPrompt, text)
	return nil
}

const chatLongDesc string = `Chat with the dispatch pipeline from this terminal.

Messages go through the same two-stage protocol as LINE messages: the parser
model classifies intent, then the message is routed to a chat reply, a
whitelisted local command, or a YouTube search. Replies print to stdout.

Examples:
  rebot chat
  rebot chat --chat-model qwen2.5:7b --upstream http://localhost:11434`

const chatShortDesc string = "Chat with the dispatch pipeline locally"

var chatFlags = []string{
	config.FlagUpstream,
	config.FlagParserModel,
	config.FlagChatModel,
}

func NewChatCmd() *cobra.Command {
	cmder := &chatCommander{}
	flagSet := config.DefaultFlagSet()

	cmd := &cobra.Command{
		Use:   "chat",
		Short: chatShortDesc,
		Long:  chatLongDesc,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")

			v, err := config.InitViper(configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			config.BindRegisteredFlags(v, cmd, flagSet, chatFlags)
			cmder.cfg = config.FromViper(v)
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}

			return cmder.run()
		},
	}

	config.AddStringFlag(cmd, flagSet, config.FlagUpstream, &cmder.upstream)
	config.AddStringFlag(cmd, flagSet, config.FlagParserModel, &cmder.parserModel)
	config.AddStringFlag(cmd, flagSet, config.FlagChatModel, &cmder.chatModel)

	return cmd
}

func (c *chatCommander) run() error {
	c.logger = logger.NewLogger(c.debug)
	defer func() { _ = c.logger.Sync() }()

	cfg := c.cfg

	chatter := ollama.NewClient(ollama.Config{
		BaseURL:    cfg.LLM.Upstream,
		MaxRetries: cfg.LLM.MaxRetries,
		Logger:     c.logger,
	})

	dispatcher := bot.NewDispatcher(bot.Config{
		Parser:    intent.NewParser(chatter, cfg.LLM.ParserModel, c.logger),
		Chatter:   chatter,
		ChatModel: cfg.LLM.ChatModel,
		Memory:    local.NewStore(local.DefaultHistoryLimit),
		Registry:  action.NewRegistry(action.DefaultSpecs()),
		Runner: action.NewRunner(action.RunnerConfig{
			Timeout:  time.Duration(cfg.Exec.TimeoutSeconds) * time.Second,
			Encoding: cfg.Exec.Encoding,
			Logger:   c.logger,
		}),
		Searcher:    action.NewYouTubeSearcher(action.SearcherConfig{Logger: c.logger}),
		Sink:        stdoutSink{},
		AllowedUser: localIdentity,
		Logger:      c.logger,
	})

	fmt.Println()
	fmt.Printf("  %s %s\n", cliui.KeyStyle.Render("Parser model:"), cliui.NameStyle.Render(cfg.LLM.ParserModel))
	fmt.Printf("  %s %s\n\n", cliui.KeyStyle.Render("Chat model:"), cliui.NameStyle.Render(cfg.LLM.ChatModel))
	fmt.Printf("  %s\n\n", cliui.DimStyle.Render("Type your message and press Enter. /exit or Ctrl+D to quit."))

	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Print(userPrompt)
		if !scanner.Scan() {
			// EOF or error
			break
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if input == "/exit" {
			break
		}

		dispatcher.Dispatch(context.Background(), localIdentity, input)
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading input: %w", err)
	}

	fmt.Println()
	return nil
}
