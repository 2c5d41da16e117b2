package cli

import (
	"context"

	"github.com/spf13/cobra"
)

// NewRemoveCommand creates the rm command.
func NewRemoveCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <key>...",
		Short: "Remove entries",
		Long: `Remove the value, IV and any array records stored under each key.
Keys without entries are ignored.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, rootOpts, false, func(ctx context.Context, s *session) error {
				for _, key := range args {
					if err := s.store.Remove(ctx, key); err != nil {
						s.out.Error(CodeBackend, err.Error(), map[string]string{"key": key})
						return WrapExitError(ExitCommandError, "remove failed", err)
					}
					s.out.VerboseLog("removed %q", key)
				}
				return s.out.Success(map[string]any{"removed": args})
			})
		},
	}
}

// NewCountCommand creates the count command.
func NewCountCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "count",
		Short: "Count raw records",
		Long: `Print the number of raw records in the namespace, not counting the
master IV. A scalar entry is two records; an array of n elements is n+2.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, rootOpts, false, func(ctx context.Context, s *session) error {
				n, err := s.store.CountEntries(ctx)
				if err != nil {
					s.out.Error(CodeBackend, err.Error(), nil)
					return WrapExitError(ExitCommandError, "count failed", err)
				}
				return s.out.Success(n)
			})
		},
	}
}

// NewDumpCommand creates the dump command.
func NewDumpCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "dump",
		Short: "Print raw records",
		Long: `Print every raw record in the namespace as "key : value", sorted by key.
Nothing is decrypted.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, rootOpts, false, func(ctx context.Context, s *session) error {
				content, err := s.store.EncryptedContent(ctx)
				if err != nil {
					s.out.Error(CodeBackend, err.Error(), nil)
					return WrapExitError(ExitCommandError, "dump failed", err)
				}
				return s.out.Text(content)
			})
		},
	}
}

// NewKeyCommand creates the key command.
func NewKeyCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "key <key>",
		Short:         "Print the encrypted record name for a key",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, rootOpts, false, func(ctx context.Context, s *session) error {
				return s.out.Success(s.store.EncryptedKey(args[0]))
			})
		},
	}
}

// ClearOptions holds flags for the clear command.
type ClearOptions struct {
	*RootOptions
	Force bool
}

// NewClearCommand creates the clear command.
func NewClearCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ClearOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every record in the namespace",
		Long: `Delete every record in the namespace, the master IV included.
Entries written afterwards by the same process keep using the old master IV;
the next process mints a new one.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !opts.Force {
				return NewExitError(ExitCommandError, "refusing to clear without --force")
			}
			return withSession(cmd, rootOpts, false, func(ctx context.Context, s *session) error {
				if err := s.store.DeleteAll(ctx); err != nil {
					s.out.Error(CodeBackend, err.Error(), nil)
					return WrapExitError(ExitCommandError, "clear failed", err)
				}
				return s.out.Success(map[string]any{"namespace": s.cfg.Namespace, "cleared": true})
			})
		},
	}

	cmd.Flags().BoolVarP(&opts.Force, "force", "f", false, "confirm deletion")

	return cmd
}
