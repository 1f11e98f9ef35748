package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/robostack/relsync/internal/domain"
)

// Endpoint names one published manifest URL.
type Endpoint struct {
	Label string
	URL   string
}

// AppFile is one downloadable artifact listed in an app update manifest.
type AppFile struct {
	URL    string
	SHA512 string
	Size   int64
}

// AppManifest is the electron-builder update document published per
// channel and platform.
type AppManifest struct {
	Version      string
	Files        []AppFile
	Path         string
	SHA512       string
	ReleaseNotes string
	ReleaseDate  string
}

// RobotRelease is one published system image. The JSON "version" field is a
// URL to the version document, not the version number itself.
type RobotRelease struct {
	Version      string `json:"-"`
	FullImage    string `json:"fullImage"`
	System       string `json:"system"`
	VersionURL   string `json:"version"`
	ReleaseNotes string `json:"releaseNotes"`
}

// RobotReleases partitions a releases.json production map by prerelease
// channel.
type RobotReleases struct {
	Alphas  []RobotRelease
	Betas   []RobotRelease
	Stables []RobotRelease
}

// NewRobotReleases partitions the production map. Versions with an alpha or
// beta prerelease label land in their channel, versions without one are
// stable, and anything unparseable fails the whole document.
func NewRobotReleases(production map[string]RobotRelease) (*RobotReleases, error) {
	coll := &RobotReleases{}
	for ver, rel := range production {
		parsed, err := semver.NewVersion(ver)
		if err != nil {
			return nil, fmt.Errorf("%w: release version %q: %v", domain.ErrUnparseableVersion, ver, err)
		}
		rel.Version = ver
		switch strings.SplitN(parsed.Prerelease(), ".", 2)[0] {
		case "alpha":
			coll.Alphas = append(coll.Alphas, rel)
		case "beta":
			coll.Betas = append(coll.Betas, rel)
		case "":
			coll.Stables = append(coll.Stables, rel)
		}
	}
	return coll, nil
}

// LatestAlpha returns the highest alpha release, or nil when none exist.
func (c *RobotReleases) LatestAlpha() *RobotRelease { return latestOf(c.Alphas) }

// LatestBeta returns the highest beta release, or nil when none exist.
func (c *RobotReleases) LatestBeta() *RobotRelease { return latestOf(c.Betas) }

// LatestStable returns the highest stable release, or nil when none exist.
func (c *RobotReleases) LatestStable() *RobotRelease { return latestOf(c.Stables) }

func latestOf(releases []RobotRelease) *RobotRelease {
	names := make([]string, 0, len(releases))
	for _, rel := range releases {
		names = append(names, rel.Version)
	}
	best := domain.GreatestVersionTag("", names)
	if best == "" {
		return nil
	}
	for i := range releases {
		if releases[i].Version == best {
			return &releases[i]
		}
	}
	return nil
}

// ManifestService fetches the published release manifests.
type ManifestService interface {
	FetchAppManifest(ctx context.Context, url string) (*AppManifest, error)
	FetchRobotReleases(ctx context.Context, url string) (*RobotReleases, error)
}

// AppResult is one labelled app manifest fetch outcome.
type AppResult struct {
	Label    string
	Manifest *AppManifest
	Err      error
}

// RobotResult is one labelled robot releases fetch outcome.
type RobotResult struct {
	Label    string
	Releases *RobotReleases
	Err      error
}
