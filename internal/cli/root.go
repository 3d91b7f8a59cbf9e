package cli

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/roach88/memimg/internal/config"
	"github.com/roach88/memimg/internal/metrics"
)

// RootOptions holds global flags for all commands, plus the state
// resolved from them before any subcommand runs.
type RootOptions struct {
	Verbose     bool
	Format      string // "json" | "text"
	ConfigPath  string
	EnvFile     string
	LogBackend  string // overrides log.backend when set
	LogPath     string // overrides log.path when set
	MetricsFile string

	// NewID generates account IDs for "account create" without --id.
	NewID func() string

	Config   config.Config
	Logger   *slog.Logger
	Registry *prometheus.Registry
	Recorder metrics.Recorder
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewUUIDv7 returns a time-ordered random UUID string.
func NewUUIDv7() string {
	return uuid.Must(uuid.NewV7()).String()
}

// NewRootCommand creates the root command for the memimg CLI.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{NewID: NewUUIDv7})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	if opts.NewID == nil {
		opts.NewID = NewUUIDv7
	}

	cmd := &cobra.Command{
		Use:   "memimg",
		Short: "memimg - a memory-image ledger",
		Long: `An account ledger held entirely in memory.

Every accepted command is appended to a durable log before it takes effect;
on start the log is replayed to rebuild the ledger.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return resolve(opts, cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if opts.MetricsFile == "" || opts.Registry == nil {
				return nil
			}
			if err := prometheus.WriteToTextfile(opts.MetricsFile, opts.Registry); err != nil {
				return WrapExitError(ExitCommandError, "failed to write metrics", err)
			}
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output (debug logging)")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "path to YAML config file")
	cmd.PersistentFlags().StringVar(&opts.EnvFile, "env-file", "", "dotenv file with MEMIMG_* defaults")
	cmd.PersistentFlags().StringVar(&opts.LogBackend, "log-backend", "", "command log backend (file|sqlite|memory)")
	cmd.PersistentFlags().StringVar(&opts.LogPath, "log-path", "", "command log file or database path")
	cmd.PersistentFlags().StringVar(&opts.MetricsFile, "metrics-file", "", "write Prometheus metrics to this file on success")

	// Add subcommands
	cmd.AddCommand(NewAccountCommand(opts))
	cmd.AddCommand(NewAccountsCommand(opts))
	cmd.AddCommand(NewDepositCommand(opts))
	cmd.AddCommand(NewWithdrawCommand(opts))
	cmd.AddCommand(NewTransferCommand(opts))
	cmd.AddCommand(NewBalanceCommand(opts))
	cmd.AddCommand(NewReplayCommand(opts))
	cmd.AddCommand(NewLogCommand(opts))

	return cmd
}

// resolve loads configuration, applies flag overrides, and builds the
// logger and metrics recorder shared by every subcommand.
func resolve(opts *RootOptions, cmd *cobra.Command) error {
	cfg, err := config.LoadWithEnvFile(opts.ConfigPath, opts.EnvFile)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}
	if opts.LogBackend != "" {
		cfg.Log.Backend = opts.LogBackend
	}
	if opts.LogPath != "" {
		cfg.Log.Path = opts.LogPath
	}
	if opts.Verbose {
		cfg.Logging.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	}

	logger, err := newLogger(cmd.ErrOrStderr(), cfg.Logging)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid logging configuration", err)
	}

	opts.Config = cfg
	opts.Logger = logger
	opts.Registry = prometheus.NewRegistry()
	opts.Recorder = metrics.NewPrometheusRecorder(opts.Registry)
	return nil
}

// formatter returns an OutputFormatter writing to cmd's streams.
func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}
