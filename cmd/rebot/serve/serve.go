// Package servecmder provides the serve command for running the LINE
// webhook service.
package servecmder

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/line/line-bot-sdk-go/v7/linebot"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/psplover16/line-ai-rebot/pkg/action"
	"github.com/psplover16/line-ai-rebot/pkg/bot"
	"github.com/psplover16/line-ai-rebot/pkg/config"
	"github.com/psplover16/line-ai-rebot/pkg/intent"
	"github.com/psplover16/line-ai-rebot/pkg/line"
	"github.com/psplover16/line-ai-rebot/pkg/llm/ollama"
	"github.com/psplover16/line-ai-rebot/pkg/logger"
	"github.com/psplover16/line-ai-rebot/pkg/memory/local"
)

type ServeCommander struct {
	listen      string
	upstream    string
	parserModel string
	chatModel   string
	allowedUser string
	encoding    string
	debug       bool

	cfg    *config.Config
	logger *zap.Logger
}

const serveLongDesc string = `Run the LINE webhook service.

The service receives messages from LINE, classifies each one with the parser
model, and routes it to a chat reply, a whitelisted local command, or a
YouTube search. Replies are pushed back over LINE.

Credentials must be provided via config.toml or the environment:
  REBOT_LINE_CHANNEL_SECRET
  REBOT_LINE_CHANNEL_TOKEN

When line.allowed_user is unset the service runs in bootstrap mode and only
replies with the caller's user id so it can be added to the config.`

const serveShortDesc string = "Run the LINE webhook service"

var serveFlags = []string{
	config.FlagListen,
	config.FlagUpstream,
	config.FlagParserModel,
	config.FlagChatModel,
	config.FlagAllowedUser,
	config.FlagEncoding,
}

func NewServeCmd() *cobra.Command {
	cmder := &ServeCommander{}
	flagSet := config.DefaultFlagSet()

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")

			v, err := config.InitViper(configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			config.BindRegisteredFlags(v, cmd, flagSet, serveFlags)
			cmder.cfg = config.FromViper(v)
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %v", err)
			}
			return cmder.run()
		},
	}

	config.AddStringFlag(cmd, flagSet, config.FlagListen, &cmder.listen)
	config.AddStringFlag(cmd, flagSet, config.FlagUpstream, &cmder.upstream)
	config.AddStringFlag(cmd, flagSet, config.FlagParserModel, &cmder.parserModel)
	config.AddStringFlag(cmd, flagSet, config.FlagChatModel, &cmder.chatModel)
	config.AddStringFlag(cmd, flagSet, config.FlagAllowedUser, &cmder.allowedUser)
	config.AddStringFlag(cmd, flagSet, config.FlagEncoding, &cmder.encoding)

	return cmd
}

func (c *ServeCommander) run() error {
	c.logger = logger.NewLogger(c.debug)
	defer func() { _ = c.logger.Sync() }()

	cfg := c.cfg

	if cfg.Line.ChannelSecret == "" || cfg.Line.ChannelToken == "" {
		return errors.New("LINE credentials are required (line.channel_secret, line.channel_token)")
	}

	if cfg.Line.AllowedUser == "" {
		c.logger.Warn("no allowed user configured, running in bootstrap mode")
	}

	lineClient, err := linebot.New(cfg.Line.ChannelSecret, cfg.Line.ChannelToken)
	if err != nil {
		return fmt.Errorf("creating LINE client: %w", err)
	}

	chatter := ollama.NewClient(ollama.Config{
		BaseURL:    cfg.LLM.Upstream,
		MaxRetries: cfg.LLM.MaxRetries,
		Logger:     c.logger,
	})

	dispatcher := bot.NewDispatcher(bot.Config{
		Parser:      intent.NewParser(chatter, cfg.LLM.ParserModel, c.logger),
		Chatter:     chatter,
		ChatModel:   cfg.LLM.ChatModel,
		Memory:      local.NewStore(local.DefaultHistoryLimit),
		Registry:    action.NewRegistry(action.DefaultSpecs()),
		Runner: action.NewRunner(action.RunnerConfig{
			Timeout:  time.Duration(cfg.Exec.TimeoutSeconds) * time.Second,
			Encoding: cfg.Exec.Encoding,
			Logger:   c.logger,
		}),
		Searcher:    action.NewYouTubeSearcher(action.SearcherConfig{Logger: c.logger}),
		Sink:        line.NewPushClient(lineClient),
		AllowedUser: cfg.Line.AllowedUser,
		Logger:      c.logger,
	})

	pool, err := line.NewPool(&line.PoolConfig{
		Dispatcher: dispatcher,
		Logger:     c.logger,
	})
	if err != nil {
		return fmt.Errorf("creating dispatch pool: %w", err)
	}

	server := line.NewServer(line.ServerConfig{ListenAddr: cfg.Server.Listen}, lineClient, pool, c.logger)

	c.logger.Info("starting rebot",
		zap.String("listen", cfg.Server.Listen),
		zap.String("upstream", cfg.LLM.Upstream),
		zap.String("parser_model", cfg.LLM.ParserModel),
		zap.String("chat_model", cfg.LLM.ChatModel),
	)

	// Channel to capture errors from goroutines
	errChan := make(chan error, 1)

	go func() {
		if err := server.Run(); err != nil {
			errChan <- fmt.Errorf("webhook server error: %w", err)
		}
	}()

	// Wait for interrupt signal or error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		pool.Close()
		return err
	case sig := <-sigChan:
		c.logger.Info("received signal, shutting down", zap.String("signal", sig.String()))
		if err := server.Shutdown(); err != nil {
			c.logger.Error("webhook shutdown failed", zap.Error(err))
		}
		pool.Close()
		return nil
	}
}
