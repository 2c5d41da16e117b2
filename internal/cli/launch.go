package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// LaunchInfo is printed by the launch command.
type LaunchInfo struct {
	Launches    int       `json:"launches"`
	InstalledAt time.Time `json:"installed_at"`
	InstallID   string    `json:"install_id"`
}

func (l LaunchInfo) String() string {
	return fmt.Sprintf("launches: %d\ninstalled: %s\ninstall id: %s",
		l.Launches, l.InstalledAt.Format(time.RFC3339), l.InstallID)
}

// NewLaunchCommand creates the launch command.
func NewLaunchCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "launch",
		Short: "Record an application launch",
		Long: `Bind the namespace, increment the launch counter and stamp the
installation date and ID if they are not set yet. The first launch
records a count of 0.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, rootOpts, true, func(ctx context.Context, s *session) error {
				return s.out.Success(LaunchInfo{
					Launches:    s.store.LaunchCounter(ctx),
					InstalledAt: s.store.InstallationTime(ctx).UTC(),
					InstallID:   s.store.InstallationID(ctx),
				})
			})
		},
	}
}
