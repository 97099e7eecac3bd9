package cmd

import (
	"context"
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/lborres/assessgate/internal/app"
	"github.com/lborres/assessgate/internal/config"
	"github.com/lborres/assessgate/internal/logging"
)

var (
	// ErrNotLoggedIn is returned by commands that need a persisted session.
	ErrNotLoggedIn = errors.New("not logged in")
	// ErrAccessNotGranted is returned by check when the decision is not allow.
	ErrAccessNotGranted = errors.New("access not granted")
)

// rootOptions carries state shared by every subcommand.
type rootOptions struct {
	configPath string
	logLevel   string

	app *app.App
}

// NewRootCmd builds the assessgate command tree.
func NewRootCmd() *cobra.Command {
	root, _ := newRoot()
	return root
}

func newRoot() (*cobra.Command, *rootOptions) {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "assessgate",
		Short: "Session and permission gate for the AssessAssist admin client",
		Long: `assessgate keeps an AssessAssist session on this machine and decides which
screens and actions the signed-in user may reach.

The session is restored from the configured store on every invocation, so
"assessgate login" in one shell is visible to "assessgate whoami" in the next.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: opts.setup,
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return opts.teardown()
		},
	}

	root.PersistentFlags().StringVar(&opts.configPath, "config", os.Getenv(config.EnvPrefix+"CONFIG"), "config file (YAML)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "override the configured log level")

	root.AddCommand(
		newServeCmd(opts),
		newLoginCmd(opts),
		newLogoutCmd(opts),
		newWhoamiCmd(opts),
		newNavCmd(opts),
		newCheckCmd(opts),
	)

	return root, opts
}

// Execute runs the root command
func Execute() error {
	return ExecuteContext(context.Background())
}

// ExecuteContext runs the root command with ctx, which is cancelled on interrupt.
// The app is released even when the command fails, which skips post-run hooks.
func ExecuteContext(ctx context.Context) error {
	root, opts := newRoot()
	err := root.ExecuteContext(ctx)
	return errors.Join(err, opts.teardown())
}

// setup loads configuration, builds the app and restores the session.
func (o *rootOptions) setup(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return err
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}

	logger := logging.New(cfg.Log, cmd.ErrOrStderr())

	ctx := cmd.Context()
	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	a.Gate.Start(ctx)

	o.app = a
	return nil
}

func (o *rootOptions) teardown() error {
	if o.app == nil {
		return nil
	}
	err := o.app.Close()
	o.app = nil
	return err
}
