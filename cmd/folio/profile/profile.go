// Package profilecmder provides the profile command, which prints the
// resume document served by the portfolio backend.
package profilecmder

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/frantai/folio/pkg/client"
	"github.com/frantai/folio/pkg/cliui"
	"github.com/frantai/folio/pkg/config"
	"github.com/frantai/folio/pkg/logger"
	"github.com/frantai/folio/pkg/profile"
)

type profileCommander struct {
	apiTarget string
	apiPrefix string
	timeout   time.Duration
	asJSON    bool
	debug     bool

	logger *zap.Logger
}

const profileLongDesc string = `Print the portfolio profile.

Fetches the resume document from the backend and prints it as Markdown,
styled when stdout is a terminal. Use --json for the raw document.

Examples:
  folio profile
  folio profile --json | jq .skills
  folio profile --api-target https://portfolio.example.com`

const profileShortDesc string = "Print the portfolio profile"

var profileFlags = []string{
	config.FlagAPITarget,
	config.FlagAPIPrefix,
	config.FlagTimeout,
}

func NewProfileCmd() *cobra.Command {
	cmder := &profileCommander{}

	cmd := &cobra.Command{
		Use:   "profile",
		Short: profileShortDesc,
		Long:  profileLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			v, err := config.InitViper(configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			config.BindRegisteredFlags(v, cmd, config.Flags, profileFlags)

			cmder.apiTarget = v.GetString("client.api_target")
			cmder.apiPrefix = v.GetString("client.api_prefix")
			cmder.timeout = v.GetDuration("client.timeout")
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}
			return cmder.run(cmd.Context(), cmd.OutOrStdout())
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagAPITarget, &cmder.apiTarget)
	config.AddStringFlag(cmd, config.Flags, config.FlagAPIPrefix, &cmder.apiPrefix)
	config.AddDurationFlag(cmd, config.Flags, config.FlagTimeout, &cmder.timeout)
	cmd.Flags().BoolVar(&cmder.asJSON, "json", false, "Print the profile as JSON")

	return cmd
}

func (c *profileCommander) run(ctx context.Context, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}

	c.logger = logger.NewLogger(c.debug)
	defer func() { _ = c.logger.Sync() }()

	backend, err := client.NewClient(client.Config{
		BaseURL:   c.apiTarget,
		APIPrefix: c.apiPrefix,
		Timeout:   c.timeout,
	}, c.logger)
	if err != nil {
		return err
	}

	p, err := backend.GetProfile(ctx)
	if err != nil {
		return fmt.Errorf("fetching profile: %w", err)
	}

	return writeProfile(out, p, c.asJSON)
}

func writeProfile(out io.Writer, p *profile.Profile, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(p)
	}

	md := profile.Markdown(p)
	if cliui.IsTerminal(out) {
		// Rendering failures fall back to the plain document.
		md, _ = cliui.RenderMarkdown(md)
	}

	_, err := io.WriteString(out, md)
	return err
}
