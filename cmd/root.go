package cmd

import (
	"github.com/spf13/cobra"

	"github.com/robostack/relsync/pkg/version"
)

var rootCmd = &cobra.Command{
	Use:     "relsync",
	Version: version.Summary(),
	Short:   "Reconcile branch and tag state across the robot stack repositories",
	Long: `relsync keeps local mirrors of the coordinated robot stack repositories in
sync, resolves the release-prep branch for a release, collects the channel
tags on every synced branch, and prints compare links and change logs.`,
}

func Execute() error {
	return rootCmd.Execute()
}
