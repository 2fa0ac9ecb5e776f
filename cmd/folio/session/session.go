// Package sessioncmder provides the session command for inspecting and
// resetting the stored chat session.
package sessioncmder

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/frantai/folio/pkg/client"
	"github.com/frantai/folio/pkg/cliui"
	"github.com/frantai/folio/pkg/config"
	"github.com/frantai/folio/pkg/logger"
	"github.com/frantai/folio/pkg/session"
)

type sessionCommander struct {
	apiTarget string
	apiPrefix string
	timeout   time.Duration
	configDir string
	debug     bool

	logger *zap.Logger
}

const sessionLongDesc string = `Inspect or reset the stored chat session.

The id of the current chat session is kept in session.json in the .folio/
directory. "folio chat" resumes it until it is cleared or replaced.

  folio session show     Show the stored session and its backend details
  folio session new      Open a new session on the backend and store it
  folio session clear    Forget the stored session`

const sessionShortDesc string = "Inspect or reset the stored chat session"

var sessionFlags = []string{
	config.FlagAPITarget,
	config.FlagAPIPrefix,
	config.FlagTimeout,
}

func NewSessionCmd() *cobra.Command {
	cmder := &sessionCommander{}

	cmd := &cobra.Command{
		Use:   "session",
		Short: sessionShortDesc,
		Long:  sessionLongDesc,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cmder.configDir, _ = cmd.Flags().GetString("config-dir")
			v, err := config.InitViper(cmder.configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			config.BindRegisteredFlags(v, cmd, config.Flags, sessionFlags)

			cmder.apiTarget = v.GetString("client.api_target")
			cmder.apiPrefix = v.GetString("client.api_prefix")
			cmder.timeout = v.GetDuration("client.timeout")

			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}
			return nil
		},
	}

	cmd.AddCommand(cmder.newSubCmd("show", "Show the stored session", cmder.show))
	cmd.AddCommand(cmder.newSubCmd("new", "Open and store a new session", cmder.create))
	cmd.AddCommand(cmder.newSubCmd("clear", "Forget the stored session", func(_ context.Context, out io.Writer) error {
		return cmder.clear(out)
	}))

	return cmd
}

func (c *sessionCommander) newSubCmd(use, short string, run func(context.Context, io.Writer) error) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), cmd.OutOrStdout())
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagAPITarget, &c.apiTarget)
	config.AddStringFlag(cmd, config.Flags, config.FlagAPIPrefix, &c.apiPrefix)
	config.AddDurationFlag(cmd, config.Flags, config.FlagTimeout, &c.timeout)

	return cmd
}

func (c *sessionCommander) client() (*client.Client, error) {
	c.logger = logger.NewLogger(c.debug)
	return client.NewClient(client.Config{
		BaseURL:   c.apiTarget,
		APIPrefix: c.apiPrefix,
		Timeout:   c.timeout,
	}, c.logger)
}

func (c *sessionCommander) show(ctx context.Context, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}

	id, err := session.NewFileStore(c.configDir).Get()
	if err != nil {
		return err
	}
	if id == uuid.Nil {
		fmt.Fprintf(out, "\n  %s\n\n", cliui.DimStyle.Render("No stored session. The next chat starts a new one."))
		return nil
	}

	fmt.Fprintf(out, "\n  %s %s\n", cliui.KeyStyle.Render("Session:"), cliui.ValueStyle.Render(id.String()))

	backend, err := c.client()
	if err != nil {
		return err
	}
	defer func() { _ = c.logger.Sync() }()

	s, err := backend.GetSession(ctx, id)
	if client.IsNotFound(err) {
		fmt.Fprintf(out, "  %s %s\n\n", cliui.FailMark, "The backend no longer knows this session. Run \"folio session new\".")
		return nil
	}
	if err != nil {
		return fmt.Errorf("fetching session: %w", err)
	}

	printDetails(out, s)
	return nil
}

func (c *sessionCommander) create(ctx context.Context, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}

	backend, err := c.client()
	if err != nil {
		return err
	}
	defer func() { _ = c.logger.Sync() }()

	s, err := backend.CreateSession(ctx)
	if err != nil {
		return fmt.Errorf("creating session: %w", err)
	}
	if err := session.NewFileStore(c.configDir).Set(s.SessionID); err != nil {
		return fmt.Errorf("storing session: %w", err)
	}

	fmt.Fprintf(out, "\n  %s New session %s\n\n", cliui.SuccessMark, cliui.ValueStyle.Render(s.SessionID.String()))
	return nil
}

func (c *sessionCommander) clear(out io.Writer) error {
	if err := session.NewFileStore(c.configDir).Clear(); err != nil {
		return err
	}
	fmt.Fprintf(out, "\n  %s Session cleared\n\n", cliui.SuccessMark)
	return nil
}

func printDetails(out io.Writer, s *client.Session) {
	fmt.Fprintf(out, "  %s %d\n", cliui.KeyStyle.Render("Messages:"), s.MessageCount)
	if !s.FirstMessageAt.IsZero() {
		fmt.Fprintf(out, "  %s %s\n", cliui.KeyStyle.Render("First:"), s.FirstMessageAt.Local().Format(time.DateTime))
	}
	if !s.LastMessageAt.IsZero() {
		fmt.Fprintf(out, "  %s %s\n", cliui.KeyStyle.Render("Last:"), s.LastMessageAt.Local().Format(time.DateTime))
	}
	fmt.Fprintln(out)
}
