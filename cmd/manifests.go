package cmd

import (
	"fmt"
	"sort"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/robostack/relsync/internal/service"
)

var manifestTitleStyle = lipgloss.NewStyle().Bold(true)

// newManifestsCmd creates the manifests command group
func newManifestsCmd(deps func() (*container, error)) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "manifests",
		Short: "Show the published release manifests",
	}
	cmd.AddCommand(newManifestsAppCmd(deps))
	cmd.AddCommand(newManifestsRobotCmd(deps))
	return cmd
}

func newManifestsAppCmd(deps func() (*container, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "app",
		Short: "Fetch the app update YAML manifests per channel and platform",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := deps()
			if err != nil {
				return err
			}
			results := service.FetchAppManifestBatch(cmd.Context(), c.manifestSvc, c.cfg.AppEndpoints())

			out := cmd.OutOrStdout()
			t := table.New().Border(lipgloss.NormalBorder()).
				Headers("Channel", "Version", "Path", "Release Date")
			for _, res := range results {
				if res.Err != nil {
					t.Row(res.Label, "ERROR", "-", res.Err.Error())
					continue
				}
				t.Row(res.Label, res.Manifest.Version, res.Manifest.Path, localReleaseDate(res.Manifest.ReleaseDate))
			}
			fmt.Fprintln(out, manifestTitleStyle.Render("App YAML Manifests"))
			fmt.Fprintln(out, t.Render())
			return nil
		},
	}
}

func newManifestsRobotCmd(deps func() (*container, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "robot",
		Short: "Fetch the robot releases.json documents per device and host",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := deps()
			if err != nil {
				return err
			}
			results := service.FetchRobotReleasesBatch(cmd.Context(), c.manifestSvc, c.cfg.RobotEndpoints())

			type row struct {
				robot, channel, version, url string
			}
			var rows []row
			for _, res := range results {
				if res.Err != nil {
					rows = append(rows, row{res.Label, "ERROR", "-", res.Err.Error()})
					continue
				}
				for _, entry := range []struct {
					channel string
					release *service.RobotRelease
				}{
					{"alpha", res.Releases.LatestAlpha()},
					{"beta", res.Releases.LatestBeta()},
					{"stable", res.Releases.LatestStable()},
				} {
					if entry.release != nil {
						rows = append(rows, row{res.Label, entry.channel, entry.release.Version, entry.release.VersionURL})
					}
				}
			}
			channelOrder := map[string]int{"alpha": 0, "beta": 1, "stable": 2, "ERROR": 3}
			sort.SliceStable(rows, func(i, j int) bool {
				return channelOrder[rows[i].channel] < channelOrder[rows[j].channel]
			})

			out := cmd.OutOrStdout()
			t := table.New().Border(lipgloss.NormalBorder()).
				Headers("Robot", "Channel", "Version", "Version URL")
			for _, r := range rows {
				t.Row(r.robot, r.channel, r.version, r.url)
			}
			fmt.Fprintln(out, manifestTitleStyle.Render("Robot JSON Releases"))
			fmt.Fprintln(out, t.Render())
			return nil
		},
	}
}

// localReleaseDate converts the manifest's UTC release date to local time
// for display. Unparseable or absent dates render as N/A.
func localReleaseDate(raw string) string {
	if raw == "" {
		return "N/A"
	}
	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return "N/A"
	}
	return parsed.Local().Format("2006-01-02 15:04:05 MST")
}
