// Package previewcmder provides the preview server cobra command.
package previewcmder

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/frantai/folio/api"
	"github.com/frantai/folio/pkg/config"
	"github.com/frantai/folio/pkg/logger"
	"github.com/frantai/folio/pkg/profile"
)

type previewCommander struct {
	listen       string
	apiPrefix    string
	profilePath  string
	tokenDelay   time.Duration
	fragmentSize int
	watch        bool
	debug        bool

	logger *zap.Logger
}

const previewLongDesc string = `Run the folio preview server.

The preview server speaks the portfolio backend's HTTP contract: the profile
route, session routes and the streamed chat route. Replies are scripted from
the profile, so the CLI and MCP server can be tried without the real
backend.

Examples:
  folio serve preview
  folio serve preview --profile ./me.json --listen :9000
  folio serve preview --token-delay 50ms
  folio serve preview --profile ./me.json --watch`

const previewShortDesc string = "Run the folio preview server"

var previewFlags = []string{
	config.FlagPreviewListen,
	config.FlagAPIPrefix,
	config.FlagProfilePath,
}

func NewPreviewCmd() *cobra.Command {
	cmder := &previewCommander{}

	cmd := &cobra.Command{
		Use:   "preview",
		Short: previewShortDesc,
		Long:  previewLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			v, err := config.InitViper(configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			config.BindRegisteredFlags(v, cmd, config.Flags, previewFlags)

			cmder.listen = v.GetString("preview.listen")
			cmder.apiPrefix = v.GetString("client.api_prefix")
			cmder.profilePath = v.GetString("preview.profile_path")
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

	config.AddStringFlag(cmd, config.Flags, config.FlagPreviewListen, &cmder.listen)
	config.AddStringFlag(cmd, config.Flags, config.FlagAPIPrefix, &cmder.apiPrefix)
	config.AddStringFlag(cmd, config.Flags, config.FlagProfilePath, &cmder.profilePath)
	cmd.Flags().DurationVar(&cmder.tokenDelay, "token-delay", 0, "Pause between streamed tokens")
	cmd.Flags().IntVar(&cmder.fragmentSize, "fragment-size", 0, "Split the reply stream into writes of at most this many bytes")
	cmd.Flags().BoolVar(&cmder.watch, "watch", false, "Reload the --profile file when it changes")

	return cmd
}

func (c *previewCommander) run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	c.logger = logger.NewLogger(c.debug)
	defer func() { _ = c.logger.Sync() }()

	server, err := NewServer(Options{
		Listen:       c.listen,
		APIPrefix:    c.apiPrefix,
		ProfilePath:  c.profilePath,
		TokenDelay:   c.tokenDelay,
		FragmentSize: c.fragmentSize,
	}, c.logger)
	if err != nil {
		return err
	}

	if c.watch {
		if c.profilePath == "" {
			return errors.New("--watch needs a --profile file")
		}
		if err := WatchProfile(ctx, c.profilePath, server, c.logger); err != nil {
			return err
		}
	}

	errChan := make(chan error, 1)
	go func() {
		if err := server.Run(); err != nil {
			errChan <- fmt.Errorf("preview server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		c.logger.Info("received signal, shutting down", zap.String("signal", sig.String()))
		return server.Shutdown()
	}
}

// Options configures a preview server built by NewServer.
type Options struct {
	Listen       string
	APIPrefix    string
	ProfilePath  string
	TokenDelay   time.Duration
	FragmentSize int
}

// NewServer builds a preview server, loading the profile from
// opts.ProfilePath when set.
func NewServer(opts Options, logger *zap.Logger) (*api.Server, error) {
	var p *profile.Profile
	if opts.ProfilePath != "" {
		var err error
		p, err = profile.Load(opts.ProfilePath)
		if err != nil {
			return nil, err
		}
		logger.Info("serving profile", zap.String("path", opts.ProfilePath))
	} else {
		logger.Info("serving built-in sample profile")
	}

	return api.NewServer(api.Config{
		ListenAddr:   opts.Listen,
		APIPrefix:    opts.APIPrefix,
		Profile:      p,
		TokenDelay:   opts.TokenDelay,
		FragmentSize: opts.FragmentSize,
	}, logger), nil
}
