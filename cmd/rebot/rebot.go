// Package rebotcmder
package rebotcmder

import (
	"github.com/spf13/cobra"

	chatcmder "github.com/psplover16/line-ai-rebot/cmd/rebot/chat"
	configcmder "github.com/psplover16/line-ai-rebot/cmd/rebot/config"
	servecmder "github.com/psplover16/line-ai-rebot/cmd/rebot/serve"
	versioncmder "github.com/psplover16/line-ai-rebot/cmd/version"
)

const rebotLongDesc string = `Rebot is a single-user LINE assistant that controls this machine.

Inbound messages are classified by a lightweight local model and routed to a
conversational reply, a whitelisted local command, or a YouTube search.

Run services using:
  rebot serve     Run the LINE webhook service
  rebot chat      Chat with the dispatch pipeline locally (no LINE)
  rebot config    Manage persistent configuration`

const rebotShortDesc string = "Rebot - LINE AI remote assistant"

func NewRebotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rebot",
		Short: rebotShortDesc,
		Long:  rebotLongDesc,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override the .rebot/ config directory")

	// Add subcommands
	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(chatcmder.NewChatCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
