// Package servecmder provides the serve command with subcommands for running services.
package servecmder

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	mcpcmder "github.com/frantai/folio/cmd/folio/serve/mcp"
	previewcmder "github.com/frantai/folio/cmd/folio/serve/preview"
	"github.com/frantai/folio/cmd/folio/transcriptstore"
	"github.com/frantai/folio/pkg/config"
	"github.com/frantai/folio/pkg/logger"
)

type serveCommander struct {
	previewListen string
	mcpListen     string
	apiPrefix     string
	profilePath   string
	sqlitePath    string
	postgresDSN   string
	events        transcriptstore.EventOptions
	debug         bool

	logger *zap.Logger
}

const serveLongDesc string = `Run folio services.

Use subcommands to run individual services or all services together:
  folio serve            Run the preview and MCP servers together
  folio serve preview    Run just the preview server
  folio serve mcp        Run just the MCP server

Run together, the MCP server answers from the preview server.`

const serveShortDesc string = "Run folio services"

var serveFlags = []string{
	config.FlagAPIPrefix,
	config.FlagProfilePath,
	config.FlagSQLite,
	config.FlagPostgres,
	config.FlagKafkaBrokers,
	config.FlagKafkaTopic,
}

func NewServeCmd() *cobra.Command {
	cmder := &serveCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			v, err := config.InitViper(configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			config.BindRegisteredFlags(v, cmd, config.Flags, serveFlags)
			_ = v.BindPFlag("preview.listen", cmd.Flags().Lookup("preview-listen"))
			_ = v.BindPFlag("mcp.listen", cmd.Flags().Lookup("mcp-listen"))

			cmder.previewListen = v.GetString("preview.listen")
			cmder.mcpListen = v.GetString("mcp.listen")
			cmder.apiPrefix = v.GetString("client.api_prefix")
			cmder.profilePath = v.GetString("preview.profile_path")
			cmder.sqlitePath = v.GetString("storage.sqlite_path")
			cmder.postgresDSN = v.GetString("storage.postgres_dsn")
			cmder.events.KafkaBrokers = v.GetString("events.kafka_brokers")
			cmder.events.KafkaTopic = v.GetString("events.kafka_topic")
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}
			return cmder.run(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&cmder.previewListen, "preview-listen", ":8000", "Address for the preview server to listen on")
	cmd.Flags().StringVar(&cmder.mcpListen, "mcp-listen", ":8090", "Address for the MCP server to listen on")
	config.AddStringFlag(cmd, config.Flags, config.FlagAPIPrefix, &cmder.apiPrefix)
	config.AddStringFlag(cmd, config.Flags, config.FlagProfilePath, &cmder.profilePath)
	config.AddStringFlag(cmd, config.Flags, config.FlagSQLite, &cmder.sqlitePath)
	config.AddStringFlag(cmd, config.Flags, config.FlagPostgres, &cmder.postgresDSN)
	config.AddStringFlag(cmd, config.Flags, config.FlagKafkaBrokers, &cmder.events.KafkaBrokers)
	config.AddStringFlag(cmd, config.Flags, config.FlagKafkaTopic, &cmder.events.KafkaTopic)

	cmd.AddCommand(previewcmder.NewPreviewCmd())
	cmd.AddCommand(mcpcmder.NewMCPCmd())

	return cmd
}

func (c *serveCommander) run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	c.logger = logger.NewLogger(c.debug)
	defer func() { _ = c.logger.Sync() }()

	preview, err := previewcmder.NewServer(previewcmder.Options{
		Listen:      c.previewListen,
		APIPrefix:   c.apiPrefix,
		ProfilePath: c.profilePath,
	}, c.logger)
	if err != nil {
		return err
	}

	target, err := localTarget(c.previewListen)
	if err != nil {
		return err
	}

	host, err := mcpcmder.NewHost(ctx, mcpcmder.Options{
		APITarget:   target,
		APIPrefix:   c.apiPrefix,
		SQLitePath:  c.sqlitePath,
		PostgresDSN: c.postgresDSN,
		Events:      c.events,
	}, c.logger)
	if err != nil {
		return err
	}
	defer host.Close()

	c.logger.Info("starting MCP server",
		zap.String("listen", c.mcpListen),
		zap.String("api_target", target),
	)

	errChan := make(chan error, 2)

	go func() {
		if err := preview.Run(); err != nil {
			errChan <- fmt.Errorf("preview server error: %w", err)
		}
	}()

	go func() {
		if err := host.App().Listen(c.mcpListen); err != nil {
			errChan <- fmt.Errorf("MCP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		c.logger.Info("received signal, shutting down", zap.String("signal", sig.String()))
		_ = host.App().Shutdown()
		return preview.Shutdown()
	}
}

// localTarget turns a listen address into a URL a local client can dial.
func localTarget(listen string) (string, error) {
	host, port, err := net.SplitHostPort(listen)
	if err != nil {
		return "", fmt.Errorf("invalid listen address %q: %w", listen, err)
	}

	switch host {
	case "", "0.0.0.0", "::":
		host = "localhost"
	}

	return "http://" + net.JoinHostPort(host, port), nil
}
