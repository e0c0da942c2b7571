package config

const (
	defaultListen      = ":3000"
	defaultUpstream    = "http://localhost:11434"
	defaultParserModel = "qwen2.5:3b"
	defaultChatModel   = "qwen2.5:7b"
	defaultMaxRetries  = 2

	defaultExecEncoding       = "big5"
	defaultExecTimeoutSeconds = 30
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values. Credentials and
// the allowed user have no defaults; they come from the config file or the
// REBOT_ environment.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		Server: ServerConfig{
			Listen: defaultListen,
		},
		LLM: LLMConfig{
			Upstream:    defaultUpstream,
			ParserModel: defaultParserModel,
			ChatModel:   defaultChatModel,
			MaxRetries:  defaultMaxRetries,
		},
		Exec: ExecConfig{
			Encoding:       defaultExecEncoding,
			TimeoutSeconds: defaultExecTimeoutSeconds,
		},
	}
}
