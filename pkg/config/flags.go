package config

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flag is the single source of truth for a CLI flag.
// Commands reference flags by registry key rather than hard-coding names,
// shorthands, defaults, and descriptions inline. This prevents flag drift
// when the same logical flag appears on multiple commands (e.g., --upstream
// on both "rebot serve" and "rebot chat").
type Flag struct {
	// Name is the long flag name (e.g. "upstream").
	Name string

	// Shorthand is the one-letter short flag (e.g. "u"). Empty for no shorthand.
	Shorthand string

	// ViperKey is the dotted config key this flag maps to (e.g. "llm.upstream").
	ViperKey string

	// Description is the help text shown in --help output.
	Description string
}

// FlagSet is a mapping of flag names to Flag structs that hold their name,
// shorthand, viper key, etc.
type FlagSet map[string]Flag

// Flag registry keys.
// Use these constants when calling AddStringFlag and BindRegisteredFlags
// to avoid typos or drift from one command to another.
const (
	FlagListen      = "listen"
	FlagUpstream    = "upstream"
	FlagParserModel = "parser-model"
	FlagChatModel   = "chat-model"
	FlagAllowedUser = "allowed-user"
	FlagEncoding    = "encoding"
)

// DefaultFlagSet returns the shared flag definitions used across commands.
func DefaultFlagSet() FlagSet {
	return FlagSet{
		FlagListen: {
			Name: "listen", Shorthand: "l", ViperKey: "server.listen",
			Description: "Address for the webhook server to listen on",
		},
		FlagUpstream: {
			Name: "upstream", Shorthand: "u", ViperKey: "llm.upstream",
			Description: "Upstream Ollama URL",
		},
		FlagParserModel: {
			Name: "parser-model", ViperKey: "llm.parser_model",
			Description: "Lightweight model used for intent parsing",
		},
		FlagChatModel: {
			Name: "chat-model", Shorthand: "m", ViperKey: "llm.chat_model",
			Description: "Model used for conversational replies",
		},
		FlagAllowedUser: {
			Name: "allowed-user", ViperKey: "line.allowed_user",
			Description: "LINE user id allowed to control this machine",
		},
		FlagEncoding: {
			Name: "encoding", ViperKey: "exec.encoding",
			Description: "Console output encoding for command results (big5 or utf-8)",
		},
	}
}

// AddStringFlag registers a string flag on cmd from the given FlagSet.
// The flag's name, shorthand, default, and description all come from the
// FlagSet entry so they cannot drift across commands.
func AddStringFlag(cmd *cobra.Command, fs FlagSet, key string, target *string) {
	def, ok := fs[key]
	if !ok {
		return
	}

	defaultVal := defaultString(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().StringVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().StringVar(target, def.Name, defaultVal, def.Description)
	}
}

// BindRegisteredFlags binds already-registered flags to viper using definitions
// from the given FlagSet. Call this in PreRunE after InitViper to connect flags
// to the viper precedence chain (flag > env > config file > default).
func BindRegisteredFlags(v *viper.Viper, cmd *cobra.Command, fs FlagSet, registryKeys []string) {
	for _, registryKey := range registryKeys {
		def, ok := fs[registryKey]
		if !ok {
			continue
		}

		f := cmd.Flags().Lookup(def.Name)
		if f == nil {
			continue
		}

		_ = v.BindPFlag(def.ViperKey, f)
	}
}

// defaultString returns the default string value for a viper key from NewDefaultConfig.
func defaultString(viperKey string) string {
	v := viper.New()
	setViperDefaults(v)
	return v.GetString(viperKey)
}
