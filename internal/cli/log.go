package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// LogResult describes the configured command log.
type LogResult struct {
	Backend string `json:"backend"`
	Path    string `json:"path,omitempty"`
	Entries int64  `json:"entries"`
}

func (r LogResult) String() string {
	path := r.Path
	if path == "" {
		path = "(in memory)"
	}
	return fmt.Sprintf("Backend: %s\nPath:    %s\nEntries: %d", r.Backend, path, r.Entries)
}

// NewLogCommand creates the log command.
func NewLogCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "log",
		Short: "Show the command log backend and entry count",
		Long: `Show the command log backend and entry count.

Entries are counted without decoding them; use replay to verify them.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := rootOpts.formatter(cmd)

			b, err := openBackend(rootOpts)
			if err != nil {
				return f.Fail(CodePersistence, ExitCommandError, fmt.Errorf("open %s log: %w", rootOpts.Config.Log.Backend, err))
			}
			defer b.close()

			n, err := b.count(cmd.Context())
			if err != nil {
				return f.Fail(CodePersistence, ExitCommandError, fmt.Errorf("count entries: %w", err))
			}
			return f.Success(LogResult{Backend: b.name, Path: b.path, Entries: n})
		},
	}
}
