// Package mcpcmder provides the MCP server cobra command.
package mcpcmder

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/frantai/folio/api/mcp"
	"github.com/frantai/folio/cmd/folio/transcriptstore"
	"github.com/frantai/folio/pkg/client"
	"github.com/frantai/folio/pkg/config"
	"github.com/frantai/folio/pkg/eventstream"
	"github.com/frantai/folio/pkg/logger"
	"github.com/frantai/folio/pkg/transcript"
	"github.com/frantai/folio/pkg/transcript/worker"
)

type mcpCommander struct {
	listen      string
	apiTarget   string
	apiPrefix   string
	timeout     time.Duration
	sqlitePath  string
	postgresDSN string
	events      transcriptstore.EventOptions
	debug       bool

	logger *zap.Logger
}

const mcpLongDesc string = `Run the folio MCP server.

Exposes the portfolio to MCP-capable agents over streamable HTTP at /mcp:
  get_profile   the resume as Markdown and structured data
  ask           a question to the portfolio assistant

Exchanges made through the ask tool are recorded in the transcript store.

Examples:
  folio serve mcp
  folio serve mcp --api-target https://portfolio.example.com --listen :9090`

const mcpShortDesc string = "Run the folio MCP server"

var mcpFlags = []string{
	config.FlagMCPListen,
	config.FlagAPITarget,
	config.FlagAPIPrefix,
	config.FlagTimeout,
	config.FlagSQLite,
	config.FlagPostgres,
	config.FlagKafkaBrokers,
	config.FlagKafkaTopic,
}

func NewMCPCmd() *cobra.Command {
	cmder := &mcpCommander{}

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: mcpShortDesc,
		Long:  mcpLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			v, err := config.InitViper(configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			config.BindRegisteredFlags(v, cmd, config.Flags, mcpFlags)

			cmder.listen = v.GetString("mcp.listen")
			cmder.apiTarget = v.GetString("client.api_target")
			cmder.apiPrefix = v.GetString("client.api_prefix")
			cmder.timeout = v.GetDuration("client.timeout")
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

	config.AddStringFlag(cmd, config.Flags, config.FlagMCPListen, &cmder.listen)
	config.AddStringFlag(cmd, config.Flags, config.FlagAPITarget, &cmder.apiTarget)
	config.AddStringFlag(cmd, config.Flags, config.FlagAPIPrefix, &cmder.apiPrefix)
	config.AddDurationFlag(cmd, config.Flags, config.FlagTimeout, &cmder.timeout)
	config.AddStringFlag(cmd, config.Flags, config.FlagSQLite, &cmder.sqlitePath)
	config.AddStringFlag(cmd, config.Flags, config.FlagPostgres, &cmder.postgresDSN)
	config.AddStringFlag(cmd, config.Flags, config.FlagKafkaBrokers, &cmder.events.KafkaBrokers)
	config.AddStringFlag(cmd, config.Flags, config.FlagKafkaTopic, &cmder.events.KafkaTopic)

	return cmd
}

func (c *mcpCommander) run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	c.logger = logger.NewLogger(c.debug)
	defer func() { _ = c.logger.Sync() }()

	host, err := NewHost(ctx, Options{
		APITarget:   c.apiTarget,
		APIPrefix:   c.apiPrefix,
		Timeout:     c.timeout,
		SQLitePath:  c.sqlitePath,
		PostgresDSN: c.postgresDSN,
		Events:      c.events,
	}, c.logger)
	if err != nil {
		return err
	}
	defer host.Close()

	c.logger.Info("starting MCP server",
		zap.String("listen", c.listen),
		zap.String("api_target", c.apiTarget),
	)

	errChan := make(chan error, 1)
	go func() {
		if err := host.App().Listen(c.listen); err != nil {
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
		return host.App().Shutdown()
	}
}

// Options configures a Host.
type Options struct {
	APITarget   string
	APIPrefix   string
	Timeout     time.Duration
	SQLitePath  string
	PostgresDSN string
	Events      transcriptstore.EventOptions
}

// Host serves the MCP handler from a fiber app and owns the transcript
// store its ask tool records into.
type Host struct {
	app       *fiber.App
	pool      *worker.Pool
	driver    transcript.Driver
	publisher eventstream.Publisher
}

// NewHost wires a backend client, transcript store and MCP server into a
// fiber app serving /mcp and /ping.
func NewHost(ctx context.Context, opts Options, logger *zap.Logger) (*Host, error) {
	backend, err := client.NewClient(client.Config{
		BaseURL:   opts.APITarget,
		APIPrefix: opts.APIPrefix,
		Timeout:   opts.Timeout,
	}, logger)
	if err != nil {
		return nil, err
	}

	driver, err := transcriptstore.Open(ctx, transcriptstore.Options{
		SQLitePath:  opts.SQLitePath,
		PostgresDSN: opts.PostgresDSN,
	}, logger)
	if err != nil {
		return nil, err
	}

	publisher, err := transcriptstore.OpenPublisher(opts.Events, logger)
	if err != nil {
		driver.Close()
		return nil, err
	}

	pool, err := worker.NewPool(&worker.Config{
		Driver:    driver,
		Publisher: publisher,
		Source:    eventstream.EventSource{Component: "mcp"},
		Logger:    logger,
	})
	if err != nil {
		publisher.Close()
		driver.Close()
		return nil, fmt.Errorf("creating transcript pool: %w", err)
	}

	server, err := mcp.NewServer(mcp.Config{
		Backend:  backend,
		Recorder: pool,
		Logger:   logger,
	})
	if err != nil {
		pool.Close()
		publisher.Close()
		driver.Close()
		return nil, fmt.Errorf("creating MCP server: %w", err)
	}

	return &Host{
		app:       newApp(server.Handler()),
		pool:      pool,
		driver:    driver,
		publisher: publisher,
	}, nil
}

// App returns the fiber app serving the MCP endpoints.
func (h *Host) App() *fiber.App {
	return h.app
}

// Close drains pending transcript writes, then closes the publisher and
// the store.
func (h *Host) Close() error {
	h.pool.Close()
	return errors.Join(h.publisher.Close(), h.driver.Close())
}

func newApp(handler http.Handler) *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	app.Get("/ping", func(c *fiber.Ctx) error {
		return c.JSON("pong")
	})
	app.All("/mcp", adaptor.HTTPHandler(handler))

	return app
}
