package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/felixgeelhaar/rendezvous/pkg/observability"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	cfgFile   string
	verbose   bool
	logger    *slog.Logger
	bootstrap Bootstrap
	cleanup   func()
)

// Bootstrap builds the App once flags are parsed. The returned function
// releases whatever the App holds.
type Bootstrap func(ctx context.Context) (*App, func(), error)

// SkipBootstrap is the annotation marking commands that run without an App.
const SkipBootstrap = "skip-bootstrap"

type commandContext struct {
	correlationID uuid.UUID
	startedAt     time.Time
}

type commandContextKey struct{}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "rendezvous",
	Short: "Rendezvous - meeting slot negotiation",
	Long: `Rendezvous finds a meeting slot every participant can attend.

It normalizes each participant's availability to UTC, intersects it,
picks the best common slot and notifies everyone, or proposes
alternatives when nothing overlaps.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		info := commandContext{
			correlationID: uuid.New(),
			startedAt:     time.Now(),
		}
		if ctx == nil {
			ctx = context.Background()
		}
		ctx = observability.WithCorrelationID(ctx, info.correlationID.String())
		cmd.SetContext(context.WithValue(ctx, commandContextKey{}, info))

		if app == nil && bootstrap != nil && cmd.Annotations[SkipBootstrap] == "" {
			built, release, err := bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			app, cleanup = built, release
		}

		if logger == nil {
			logger = slog.Default()
		}
		logger.Info("command start",
			"command", cmd.CommandPath(),
			"correlation_id", info.correlationID.String(),
		)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger == nil {
			logger = slog.Default()
		}
		info, ok := cmd.Context().Value(commandContextKey{}).(commandContext)
		if !ok {
			return
		}
		logger.Info("command end",
			"command", cmd.CommandPath(),
			"correlation_id", info.correlationID.String(),
			"duration_ms", time.Since(info.startedAt).Milliseconds(),
		)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute(ctx context.Context) {
	err := rootCmd.ExecuteContext(ctx)
	if cleanup != nil {
		cleanup()
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "env-file", "e", "", "additional .env file to load")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// AddCommand adds a command to the root command.
func AddCommand(cmd *cobra.Command) {
	rootCmd.AddCommand(cmd)
}

// EnvFile returns the --env-file flag value.
func EnvFile() string {
	return cfgFile
}

// Verbose reports whether --verbose was given.
func Verbose() bool {
	return verbose
}

// Root returns the root command, for tests and embedding.
func Root() *cobra.Command {
	return rootCmd
}

// SetBootstrap registers the function that builds the App before a command runs.
func SetBootstrap(b Bootstrap) {
	bootstrap = b
}

// SetLogger sets the CLI logger.
func SetLogger(l *slog.Logger) {
	logger = l
}
