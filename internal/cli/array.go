package cli

import (
	"context"
	"strings"

	"github.com/spf13/cobra"
)

// NewArrayCommand creates the array command and its set/get subcommands.
func NewArrayCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "array",
		Short: "Store and restore string arrays",
		Long: `Store and restore string arrays.

An array is kept as a size record plus one record per element, all
encrypted with one shared IV. Storing a shorter array removes the
elements past its end.`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "set <key> [values...]",
		Short: "Store an array",
		Example: `  aesprefs array set recent a.txt b.txt
  aesprefs array set recent   # stores an empty array`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, rootOpts, false, func(ctx context.Context, s *session) error {
				values := args[1:]
				if err := s.store.StoreArray(ctx, args[0], values); err != nil {
					s.out.Error(CodeBackend, err.Error(), nil)
					return WrapExitError(ExitCommandError, "store array failed", err)
				}
				return s.out.Success(map[string]any{"key": args[0], "size": len(values)})
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:           "get <key>",
		Short:         "Restore an array, one element per line",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, rootOpts, false, func(ctx context.Context, s *session) error {
				values := s.store.RestoreArray(ctx, args[0])
				if rootOpts.Format == "json" {
					return s.out.Success(values)
				}
				if len(values) == 0 {
					return nil
				}
				return s.out.Text(strings.Join(values, "\n") + "\n")
			})
		},
	})

	return cmd
}
