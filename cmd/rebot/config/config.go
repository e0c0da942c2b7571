// Package configcmder provides the config command for managing persistent
// rebot configuration stored in the .rebot/ directory.
package configcmder

import (
	"github.com/spf13/cobra"
)

const configLongDesc string = `Manage persistent rebot configuration.

Configuration is stored as config.toml in the .rebot/ directory and provides
default values for command flags. CLI flags always take precedence over
config file values.

Keys use dotted notation matching the TOML section structure:
  server.listen,
  line.channel_secret, line.channel_token, line.allowed_user,
  llm.upstream, llm.parser_model, llm.chat_model, llm.max_retries,
  exec.encoding, exec.timeout_seconds

Use subcommands to get, set, or list configuration values:
  rebot config set <key> <value>    Set a configuration value
  rebot config get <key>            Get a configuration value
  rebot config list                 List all configuration values

Examples:
  rebot config set line.allowed_user U1234567890abcdef
  rebot config set llm.chat_model qwen2.5:7b
  rebot config get llm.upstream
  rebot config list`

const configShortDesc string = "Manage persistent rebot configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}
