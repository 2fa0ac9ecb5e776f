// Package chatcmder provides the chat command for talking to the portfolio
// assistant.
package chatcmder

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/frantai/folio/cmd/folio/transcriptstore"
	"github.com/frantai/folio/pkg/chat"
	"github.com/frantai/folio/pkg/client"
	"github.com/frantai/folio/pkg/config"
	"github.com/frantai/folio/pkg/eventstream"
	"github.com/frantai/folio/pkg/logger"
	"github.com/frantai/folio/pkg/session"
	"github.com/frantai/folio/pkg/transcript/worker"
)

type chatCommander struct {
	apiTarget   string
	apiPrefix   string
	timeout     time.Duration
	subject     string
	sqlitePath  string
	postgresDSN string
	kafka       transcriptstore.EventOptions
	configDir   string
	dumpRaw     string
	tui         bool
	debug       bool

	in  io.Reader
	out io.Writer

	logger *zap.Logger
}

const chatLongDesc string = `Chat with the portfolio assistant.

Questions are streamed to the backend and the answer is printed as it
arrives. The session id is kept in the .folio/ directory so the next
"folio chat" continues the same conversation.

Inside the chat:
  /new       start a new session
  /session   show the current session id
  /exit      quit (Ctrl+D works too)

Every exchange is recorded in the transcript store (see "folio history").

Examples:
  folio chat
  folio chat --tui
  folio chat --api-target https://portfolio.example.com --subject Ada
  folio chat --dump-raw reply.sse`

const chatShortDesc string = "Chat with the portfolio assistant"

var chatFlags = []string{
	config.FlagAPITarget,
	config.FlagAPIPrefix,
	config.FlagTimeout,
	config.FlagSubject,
	config.FlagSQLite,
	config.FlagPostgres,
	config.FlagKafkaBrokers,
	config.FlagKafkaTopic,
}

func NewChatCmd() *cobra.Command {
	cmder := &chatCommander{}

	cmd := &cobra.Command{
		Use:   "chat",
		Short: chatShortDesc,
		Long:  chatLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			cmder.configDir, _ = cmd.Flags().GetString("config-dir")
			v, err := config.InitViper(cmder.configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			config.BindRegisteredFlags(v, cmd, config.Flags, chatFlags)

			cmder.apiTarget = v.GetString("client.api_target")
			cmder.apiPrefix = v.GetString("client.api_prefix")
			cmder.timeout = v.GetDuration("client.timeout")
			cmder.subject = v.GetString("chat.subject")
			cmder.sqlitePath = v.GetString("storage.sqlite_path")
			cmder.postgresDSN = v.GetString("storage.postgres_dsn")
			cmder.kafka.KafkaBrokers = v.GetString("events.kafka_brokers")
			cmder.kafka.KafkaTopic = v.GetString("events.kafka_topic")
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}

			cmder.in = cmd.InOrStdin()
			cmder.out = cmd.OutOrStdout()
			return cmder.run(cmd.Context())
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagAPITarget, &cmder.apiTarget)
	config.AddStringFlag(cmd, config.Flags, config.FlagAPIPrefix, &cmder.apiPrefix)
	config.AddDurationFlag(cmd, config.Flags, config.FlagTimeout, &cmder.timeout)
	config.AddStringFlag(cmd, config.Flags, config.FlagSubject, &cmder.subject)
	config.AddStringFlag(cmd, config.Flags, config.FlagSQLite, &cmder.sqlitePath)
	config.AddStringFlag(cmd, config.Flags, config.FlagPostgres, &cmder.postgresDSN)
	config.AddStringFlag(cmd, config.Flags, config.FlagKafkaBrokers, &cmder.kafka.KafkaBrokers)
	config.AddStringFlag(cmd, config.Flags, config.FlagKafkaTopic, &cmder.kafka.KafkaTopic)
	cmd.Flags().BoolVar(&cmder.tui, "tui", false, "Open a full-screen chat window")
	cmd.Flags().StringVar(&cmder.dumpRaw, "dump-raw", "", "Append the raw event stream of every reply to this file")

	return cmd
}

func (c *chatCommander) run(ctx context.Context) error {
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

	driver, err := transcriptstore.Open(ctx, transcriptstore.Options{
		SQLitePath:  c.sqlitePath,
		PostgresDSN: c.postgresDSN,
	}, c.logger)
	if err != nil {
		return err
	}
	defer driver.Close()

	publisher, err := transcriptstore.OpenPublisher(c.kafka, c.logger)
	if err != nil {
		return err
	}
	defer publisher.Close()

	pool, err := worker.NewPool(&worker.Config{
		Driver:    driver,
		Publisher: publisher,
		Source:    eventstream.EventSource{Component: "chat", Host: hostname()},
		Logger:    c.logger,
	})
	if err != nil {
		return fmt.Errorf("creating transcript pool: %w", err)
	}
	defer pool.Close()

	opts := []chat.Option{
		chat.WithRecorder(pool),
		chat.WithSubject(c.subject),
		chat.WithLogger(c.logger),
	}

	if c.dumpRaw != "" {
		f, err := os.OpenFile(c.dumpRaw, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("opening raw dump: %w", err)
		}
		defer f.Close()
		opts = append(opts, chat.WithTee(f))
	}

	runner := chat.NewRunner(backend, session.NewFileStore(c.configDir), opts...)

	if c.tui {
		return runChatTUI(ctx, runner)
	}
	return repl(ctx, runner, c.in, c.out)
}

func hostname() string {
	name, err := os.Hostname()
	if err != nil {
		return ""
	}
	return name
}
