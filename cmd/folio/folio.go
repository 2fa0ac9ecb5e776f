// Package foliocmder
package foliocmder

import (
	"github.com/spf13/cobra"

	chatcmder "github.com/frantai/folio/cmd/folio/chat"
	configcmder "github.com/frantai/folio/cmd/folio/config"
	historycmder "github.com/frantai/folio/cmd/folio/history"
	profilecmder "github.com/frantai/folio/cmd/folio/profile"
	servecmder "github.com/frantai/folio/cmd/folio/serve"
	sessioncmder "github.com/frantai/folio/cmd/folio/session"
	versioncmder "github.com/frantai/folio/cmd/version"
)

const folioLongDesc string = `Folio talks to a portfolio backend from the terminal.

Read the profile, chat with the portfolio assistant and browse past
conversations:
  folio profile          Print the resume
  folio chat             Chat with the assistant
  folio history          Browse recorded transcripts
  folio session          Inspect or reset the stored chat session

Run services using:
  folio serve preview    Run a local stand-in for the backend
  folio serve mcp        Run the MCP server for agents
  folio serve            Run both servers together`

const folioShortDesc string = "Folio - portfolio chat client"

func NewFolioCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "folio",
		Short:        folioShortDesc,
		Long:         folioLongDesc,
		SilenceUsage: true,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override path to .folio/ config directory")

	// Add subcommands
	cmd.AddCommand(chatcmder.NewChatCmd())
	cmd.AddCommand(profilecmder.NewProfileCmd())
	cmd.AddCommand(sessioncmder.NewSessionCmd())
	cmd.AddCommand(historycmder.NewHistoryCmd())
	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
