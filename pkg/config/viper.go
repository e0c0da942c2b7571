package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/psplover16/line-ai-rebot/pkg/dotdir"
)

// InitViper creates and returns a configured *viper.Viper.
// It sets defaults from NewDefaultConfig(), reads the config.toml file
// (if found via dotdir resolution), and binds environment variables
// with the REBOT_ prefix.
//
// Config precedence (highest to lowest):
//  1. CLI flags (once bound via BindRegisteredFlags)
//  2. Environment variables (REBOT_LINE_CHANNEL_SECRET, REBOT_SERVER_LISTEN, etc.)
//  3. config.toml file values
//  4. Defaults from NewDefaultConfig()
func InitViper(configDir string) (*viper.Viper, error) {
	v := viper.New()

	// 1. Register all defaults from NewDefaultConfig().
	setViperDefaults(v)

	// 2. Config file discovery via dotdir resolution.
	v.SetConfigName("config")
	v.SetConfigType("toml")

	ddm := dotdir.NewManager()
	target, err := ddm.Target(configDir)
	if err != nil {
		return nil, fmt.Errorf("resolving config dir: %w", err)
	}

	if target != "" {
		v.AddConfigPath(target)
	}

	if err := v.ReadInConfig(); err != nil {
		// Config file not found errors are fine, defaults will apply.
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	// 3. Environment variables: REBOT_LINE_CHANNEL_TOKEN, REBOT_LLM_UPSTREAM, etc.
	v.SetEnvPrefix("REBOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v, nil
}

// setViperDefaults registers defaults from NewDefaultConfig() into viper
// using dotted-key notation. This keeps defaults.go as the single source of truth.
func setViperDefaults(v *viper.Viper) {
	d := NewDefaultConfig()

	v.SetDefault("version", d.Version)

	// Server
	v.SetDefault("server.listen", d.Server.Listen)

	// LINE
	v.SetDefault("line.channel_secret", d.Line.ChannelSecret)
	v.SetDefault("line.channel_token", d.Line.ChannelToken)
	v.SetDefault("line.allowed_user", d.Line.AllowedUser)

	// LLM
	v.SetDefault("llm.upstream", d.LLM.Upstream)
	v.SetDefault("llm.parser_model", d.LLM.ParserModel)
	v.SetDefault("llm.chat_model", d.LLM.ChatModel)
	v.SetDefault("llm.max_retries", d.LLM.MaxRetries)

	// Exec
	v.SetDefault("exec.encoding", d.Exec.Encoding)
	v.SetDefault("exec.timeout_seconds", d.Exec.TimeoutSeconds)
}

// FromViper materializes a Config from a viper instance after flags, env,
// file, and defaults have all been layered.
func FromViper(v *viper.Viper) *Config {
	return &Config{
		Version: v.GetInt("version"),
		Server: ServerConfig{
			Listen: v.GetString("server.listen"),
		},
		Line: LineConfig{
			ChannelSecret: v.GetString("line.channel_secret"),
			ChannelToken:  v.GetString("line.channel_token"),
			AllowedUser:   strings.TrimSpace(v.GetString("line.allowed_user")),
		},
		LLM: LLMConfig{
			Upstream:    v.GetString("llm.upstream"),
			ParserModel: v.GetString("llm.parser_model"),
			ChatModel:   v.GetString("llm.chat_model"),
			MaxRetries:  v.GetInt("llm.max_retries"),
		},
		Exec: ExecConfig{
			Encoding:       v.GetString("exec.encoding"),
			TimeoutSeconds: v.GetInt("exec.timeout_seconds"),
		},
	}
}
