package config

import (
	"fmt"
	"strconv"
)

// Config represents the persistent rebot configuration stored as config.toml
// in the .rebot/ directory. The TOML layout uses sections for logical grouping.
type Config struct {
	Version int          `toml:"version"`
	Server  ServerConfig `toml:"server"`
	Line    LineConfig   `toml:"line"`
	LLM     LLMConfig    `toml:"llm"`
	Exec    ExecConfig   `toml:"exec"`
}

// ServerConfig holds webhook server settings.
type ServerConfig struct {
	Listen string `toml:"listen,omitempty"`
}

// LineConfig holds LINE messaging credentials and the authorization
// allowlist. An empty AllowedUser puts the service in bootstrap mode, where
// it only ever echoes caller ids back so the operator can configure one.
type LineConfig struct {
	ChannelSecret string `toml:"channel_secret,omitempty"`
	ChannelToken  string `toml:"channel_token,omitempty"`
	AllowedUser   string `toml:"allowed_user,omitempty"`
}

// LLMConfig holds the Ollama upstream and the two model identifiers: a
// lightweight one for intent parsing and a heavier one for chat replies.
type LLMConfig struct {
	Upstream    string `toml:"upstream,omitempty"`
	ParserModel string `toml:"parser_model,omitempty"`
	ChatModel   string `toml:"chat_model,omitempty"`
	MaxRetries  int    `toml:"max_retries,omitempty"`
}

// ExecConfig holds local command execution settings.
type ExecConfig struct {
	Encoding       string `toml:"encoding,omitempty"`
	TimeoutSeconds int    `toml:"timeout_seconds,omitempty"`
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"server.listen": {
		get: func(c *Config) string { return c.Server.Listen },
		set: func(c *Config, v string) error { c.Server.Listen = v; return nil },
	},
	"line.channel_secret": {
		get: func(c *Config) string { return c.Line.ChannelSecret },
		set: func(c *Config, v string) error { c.Line.ChannelSecret = v; return nil },
	},
	"line.channel_token": {
		get: func(c *Config) string { return c.Line.ChannelToken },
		set: func(c *Config, v string) error { c.Line.ChannelToken = v; return nil },
	},
	"line.allowed_user": {
		get: func(c *Config) string { return c.Line.AllowedUser },
		set: func(c *Config, v string) error { c.Line.AllowedUser = v; return nil },
	},
	"llm.upstream": {
		get: func(c *Config) string { return c.LLM.Upstream },
		set: func(c *Config, v string) error { c.LLM.Upstream = v; return nil },
	},
	"llm.parser_model": {
		get: func(c *Config) string { return c.LLM.ParserModel },
		set: func(c *Config, v string) error { c.LLM.ParserModel = v; return nil },
	},
	"llm.chat_model": {
		get: func(c *Config) string { return c.LLM.ChatModel },
		set: func(c *Config, v string) error { c.LLM.ChatModel = v; return nil },
	},
	"llm.max_retries": {
		get: func(c *Config) string {
			if c.LLM.MaxRetries == 0 {
				return ""
			}
			return strconv.Itoa(c.LLM.MaxRetries)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid value for llm.max_retries: %w", err)
			}
			c.LLM.MaxRetries = n
			return nil
		},
	},
	"exec.encoding": {
		get: func(c *Config) string { return c.Exec.Encoding },
		set: func(c *Config, v string) error { c.Exec.Encoding = v; return nil },
	},
	"exec.timeout_seconds": {
		get: func(c *Config) string {
			if c.Exec.TimeoutSeconds == 0 {
				return ""
			}
			return strconv.Itoa(c.Exec.TimeoutSeconds)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid value for exec.timeout_seconds: %w", err)
			}
			c.Exec.TimeoutSeconds = n
			return nil
		},
	},
}
