// Package historycmder provides the history command for browsing
// recorded chat transcripts.
package historycmder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/frantai/folio/cmd/folio/transcriptstore"
	"github.com/frantai/folio/pkg/chat"
	"github.com/frantai/folio/pkg/cliui"
	"github.com/frantai/folio/pkg/config"
	"github.com/frantai/folio/pkg/logger"
	"github.com/frantai/folio/pkg/transcript"
)

type historyCommander struct {
	sqlitePath  string
	postgresDSN string
	debug       bool

	logger *zap.Logger
}

const historyLongDesc string = `Browse recorded chat transcripts.

Without arguments, lists every recorded session, most recently active
first. With a session id, replays that session's questions and answers.

The transcript database is found the same way "folio chat" writes it:
--postgres, then --sqlite, then FOLIO_SQLITE, then ~/.folio/folio.db,
./folio.db and ./.folio/folio.db.

Examples:
  folio history
  folio history 6f1c2a52-8c1e-4a8e-9a61-0d3b1c2e7f10
  folio history --sqlite ./transcripts.db`

const historyShortDesc string = "Browse recorded chat transcripts"

var historyFlags = []string{
	config.FlagSQLite,
	config.FlagPostgres,
}

func NewHistoryCmd() *cobra.Command {
	cmder := &historyCommander{}

	cmd := &cobra.Command{
		Use:   "history [session-id]",
		Short: historyShortDesc,
		Long:  historyLongDesc,
		Args:  cobra.MaximumNArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			v, err := config.InitViper(configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			config.BindRegisteredFlags(v, cmd, config.Flags, historyFlags)

			cmder.sqlitePath = v.GetString("storage.sqlite_path")
			cmder.postgresDSN = v.GetString("storage.postgres_dsn")
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}

			sessionID := uuid.Nil
			if len(args) == 1 {
				sessionID, err = uuid.Parse(args[0])
				if err != nil {
					return fmt.Errorf("invalid session id %q: %w", args[0], err)
				}
			}
			return cmder.run(cmd.Context(), cmd.OutOrStdout(), sessionID)
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagSQLite, &cmder.sqlitePath)
	config.AddStringFlag(cmd, config.Flags, config.FlagPostgres, &cmder.postgresDSN)

	return cmd
}

func (c *historyCommander) run(ctx context.Context, out io.Writer, sessionID uuid.UUID) error {
	if ctx == nil {
		ctx = context.Background()
	}

	c.logger = logger.NewLogger(c.debug)
	defer func() { _ = c.logger.Sync() }()

	driver, err := transcriptstore.OpenExisting(ctx, transcriptstore.Options{
		SQLitePath:  c.sqlitePath,
		PostgresDSN: c.postgresDSN,
	}, c.logger)
	if err != nil {
		return err
	}
	defer driver.Close()

	if sessionID == uuid.Nil {
		return listSessions(ctx, out, driver)
	}
	return replaySession(ctx, out, driver, sessionID)
}

func listSessions(ctx context.Context, out io.Writer, driver transcript.Driver) error {
	summaries, err := driver.Sessions(ctx)
	if err != nil {
		return fmt.Errorf("listing sessions: %w", err)
	}

	if len(summaries) == 0 {
		fmt.Fprintf(out, "\n  %s\n\n", cliui.DimStyle.Render("No transcripts recorded yet."))
		return nil
	}

	fmt.Fprintln(out)
	for _, s := range summaries {
		fmt.Fprintf(out, "  %s  %s  %s\n",
			cliui.ValueStyle.Render(s.SessionID.String()),
			cliui.KeyStyle.Render(pluralize(s.Exchanges, "exchange")),
			cliui.DimStyle.Render(s.LastAt.Local().Format(time.DateTime)),
		)
	}
	fmt.Fprintln(out)

	return nil
}

func replaySession(ctx context.Context, out io.Writer, driver transcript.Driver, sessionID uuid.UUID) error {
	exchanges, err := driver.List(ctx, sessionID)
	if err != nil {
		var notFound transcript.ErrNotFound
		if errors.As(err, &notFound) {
			return fmt.Errorf("no transcript recorded for session %s", sessionID)
		}
		return fmt.Errorf("listing exchanges: %w", err)
	}

	fmt.Fprintf(out, "\n  %s %s\n\n", cliui.KeyStyle.Render("Session:"), cliui.ValueStyle.Render(sessionID.String()))
	for _, ex := range exchanges {
		fmt.Fprintf(out, "%s %s\n", cliui.UserStyle.Render("you>"), ex.Question)

		answer := ex.Answer
		if ex.Failed {
			answer = strings.TrimSpace(answer + " " + cliui.ErrorStyle.Render(chat.FailureText))
		}
		fmt.Fprintf(out, "%s %s\n", cliui.AssistantStyle.Render("assistant>"), answer)

		meta := []string{ex.CreatedAt.Local().Format(time.DateTime)}
		if ex.ResponseTime > 0 {
			meta = append(meta, cliui.FormatDuration(ex.ResponseTime))
		}
		fmt.Fprintf(out, "  %s\n\n", cliui.DimStyle.Render(strings.Join(meta, " · ")))
	}

	return nil
}

func pluralize(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
