package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/robostack/relsync/internal/domain"
)

// newSyncCmd creates the sync command
func newSyncCmd(deps func() (*container, error)) *cobra.Command {
	var (
		channelFlag    string
		versionFlag    string
		stabilityFlag  string
		nonInteractive bool
	)
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Sync mirrors and report branch/tag state for a release",
		Long: `Sync clones or fetches every configured repository mirror, checks out the
primary branch and the release-prep branch when one exists, collects the
channel tags on each synced branch, and prints the sync status, latest
tags, compare links, and bounded change logs.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := deps()
			if err != nil {
				return err
			}
			release, err := resolveRelease(c, channelFlag, stabilityFlag, versionFlag, nonInteractive)
			if err != nil {
				return err
			}
			_, err = c.newOrchestrator().Execute(cmd.Context(), release)
			return err
		},
	}
	cmd.Flags().StringVar(&channelFlag, "channel", "", "Release channel (internal or external)")
	cmd.Flags().StringVar(&versionFlag, "version", "", "Base version, for example 8.4.1 or v8.4.1")
	cmd.Flags().StringVar(&stabilityFlag, "stability", "", "Release stability (stable or unstable)")
	cmd.Flags().BoolVar(&nonInteractive, "non-interactive", false, "Fail instead of prompting for missing values")
	return cmd
}

// resolveRelease fills missing release parameters from prompts unless the
// run is non-interactive, in which case missing values are an error.
func resolveRelease(
	c *container,
	channelFlag, stabilityFlag, versionFlag string,
	nonInteractive bool,
) (domain.ReleaseContext, error) {
	var zero domain.ReleaseContext

	var channel domain.Channel
	switch {
	case channelFlag != "":
		parsed, err := domain.ParseChannel(channelFlag)
		if err != nil {
			return zero, err
		}
		channel = parsed
	case nonInteractive:
		return zero, fmt.Errorf("--channel is required in non-interactive mode")
	default:
		selected, err := c.promptSvc.SelectChannel()
		if err != nil {
			return zero, err
		}
		channel = selected
	}

	stability := stabilityFlag
	if stability == "" {
		if nonInteractive {
			stability = "unstable"
		} else {
			selected, err := c.promptSvc.SelectStability()
			if err != nil {
				return zero, err
			}
			stability = selected
		}
	}

	version := versionFlag
	if version == "" {
		if nonInteractive {
			return zero, fmt.Errorf("--version is required in non-interactive mode")
		}
		entered, err := c.promptSvc.InputBaseVersion()
		if err != nil {
			return zero, err
		}
		version = entered
	}

	return domain.NewReleaseContext(channel, stability, version)
}
