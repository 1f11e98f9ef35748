package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/robostack/relsync/internal/domain"
	"github.com/robostack/relsync/internal/service"
)

// RepoConfig describes one managed repository.
type RepoConfig struct {
	Name               string `mapstructure:"name"`
	RemoteURL          string `mapstructure:"remote_url"`
	PrimaryBranch      string `mapstructure:"primary_branch"`
	ReleaseBranch      bool   `mapstructure:"release_branch"`
	ExternalTagPattern string `mapstructure:"external_tag_pattern"`
	InternalTagPattern string `mapstructure:"internal_tag_pattern"`
}

// ManifestEndpoint labels one published manifest URL.
type ManifestEndpoint struct {
	Label string `mapstructure:"label"`
	URL   string `mapstructure:"url"`
}

type Config struct {
	MirrorRoot     string             `mapstructure:"mirror_root"`
	Workers        int                `mapstructure:"workers"`
	GithubToken    string             `mapstructure:"github_token"`
	Repos          []RepoConfig       `mapstructure:"repos"`
	AppManifests   []ManifestEndpoint `mapstructure:"app_manifests"`
	RobotManifests []ManifestEndpoint `mapstructure:"robot_manifests"`
}

// DefaultConfig returns a Config with default values: the four coordinated
// repositories and the published manifest URL tables.
func DefaultConfig() *Config {
	return &Config{
		MirrorRoot: ".",
		Workers:    4,
		Repos: []RepoConfig{
			{
				Name:               "buildroot",
				RemoteURL:          "https://github.com/Opentrons/buildroot.git",
				PrimaryBranch:      "opentrons-develop",
				ReleaseBranch:      true,
				ExternalTagPattern: "v",
				InternalTagPattern: "internal@",
			},
			{
				Name:               "ot3-firmware",
				RemoteURL:          "https://github.com/Opentrons/ot3-firmware.git",
				PrimaryBranch:      "main",
				ReleaseBranch:      true,
				ExternalTagPattern: "v",
				InternalTagPattern: "internal@",
			},
			{
				Name:               "oe-core",
				RemoteURL:          "https://github.com/Opentrons/oe-core.git",
				PrimaryBranch:      "main",
				ReleaseBranch:      true,
				ExternalTagPattern: "v",
				InternalTagPattern: "internal@",
			},
			{
				Name:               "opentrons",
				RemoteURL:          "https://github.com/Opentrons/opentrons.git",
				PrimaryBranch:      "edge",
				ReleaseBranch:      true,
				ExternalTagPattern: "v",
				InternalTagPattern: "ot3@",
			},
		},
		AppManifests: []ManifestEndpoint{
			{Label: "Alpha (Windows)", URL: "https://builds.opentrons.com/app/alpha.yml"},
			{Label: "Alpha (Mac)", URL: "https://builds.opentrons.com/app/alpha-mac.yml"},
			{Label: "Alpha (Linux)", URL: "https://builds.opentrons.com/app/alpha-linux.yml"},
			{Label: "Beta (Windows)", URL: "https://builds.opentrons.com/app/beta.yml"},
			{Label: "Beta (Mac)", URL: "https://builds.opentrons.com/app/beta-mac.yml"},
			{Label: "Beta (Linux)", URL: "https://builds.opentrons.com/app/beta-linux.yml"},
			{Label: "Latest (Windows)", URL: "https://builds.opentrons.com/app/latest.yml"},
			{Label: "Latest (Mac)", URL: "https://builds.opentrons.com/app/latest-mac.yml"},
			{Label: "Latest (Linux)", URL: "https://builds.opentrons.com/app/latest-linux.yml"},
		},
		RobotManifests: []ManifestEndpoint{
			{Label: "Flex", URL: "https://builds.opentrons.com/ot3-oe/releases.json"},
			{Label: "OT-2", URL: "https://builds.opentrons.com/ot2-br/releases.json"},
			{Label: "Flex (internal)", URL: "https://ot3-development.builds.opentrons.com/ot3-oe/releases.json"},
			{Label: "OT-2 (internal)", URL: "https://ot3-development.builds.opentrons.com/ot2-br/releases.json"},
		},
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.MirrorRoot == "" {
		return fmt.Errorf("mirror_root cannot be empty")
	}
	if strings.Contains(c.MirrorRoot, "..") {
		return fmt.Errorf("mirror_root contains invalid path traversal")
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	if len(c.Repos) == 0 {
		return fmt.Errorf("at least one repository must be configured")
	}
	seen := make(map[string]bool, len(c.Repos))
	for i, repo := range c.Repos {
		if repo.Name == "" {
			return fmt.Errorf("repos[%d]: name cannot be empty", i)
		}
		if seen[repo.Name] {
			return fmt.Errorf("repos[%d]: duplicate repository name %q", i, repo.Name)
		}
		seen[repo.Name] = true
		if repo.RemoteURL == "" {
			return fmt.Errorf("repo %s: remote_url cannot be empty", repo.Name)
		}
		if repo.PrimaryBranch == "" {
			return fmt.Errorf("repo %s: primary_branch cannot be empty", repo.Name)
		}
		if repo.ExternalTagPattern == "" || repo.InternalTagPattern == "" {
			return fmt.Errorf("repo %s: both tag patterns must be set", repo.Name)
		}
	}
	for _, ep := range append(append([]ManifestEndpoint{}, c.AppManifests...), c.RobotManifests...) {
		if ep.Label == "" || ep.URL == "" {
			return fmt.Errorf("manifest endpoints need both label and url")
		}
	}
	return nil
}

// RepoSpecs converts the configured repositories into domain specs with
// local mirror paths under the mirror root.
func (c *Config) RepoSpecs() []domain.RepoSpec {
	specs := make([]domain.RepoSpec, 0, len(c.Repos))
	for _, repo := range c.Repos {
		specs = append(specs, domain.RepoSpec{
			Name:               repo.Name,
			RemoteURL:          repo.RemoteURL,
			LocalPath:          filepath.Join(c.MirrorRoot, repo.Name),
			PrimaryBranch:      repo.PrimaryBranch,
			WantsReleaseBranch: repo.ReleaseBranch,
			ExternalTagPattern: repo.ExternalTagPattern,
			InternalTagPattern: repo.InternalTagPattern,
		})
	}
	return specs
}

// AppEndpoints converts the app manifest table for the manifest service.
func (c *Config) AppEndpoints() []service.Endpoint {
	return toEndpoints(c.AppManifests)
}

// RobotEndpoints converts the robot manifest table for the manifest service.
func (c *Config) RobotEndpoints() []service.Endpoint {
	return toEndpoints(c.RobotManifests)
}

func toEndpoints(eps []ManifestEndpoint) []service.Endpoint {
	out := make([]service.Endpoint, 0, len(eps))
	for _, ep := range eps {
		out = append(out, service.Endpoint{Label: ep.Label, URL: ep.URL})
	}
	return out
}

func LoadConfig() (*Config, error) {
	v := viper.New()
	v.SetConfigName(".relsync")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME")
	// Configure environment variables
	v.SetEnvPrefix("RELSYNC")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	// BindEnv allows multiple env vars - it will check them in order
	if err := v.BindEnv("github_token", "GITHUB_TOKEN", "RELSYNC_GITHUB_TOKEN"); err != nil {
		return nil, fmt.Errorf("failed to bind github_token env: %w", err)
	}
	if err := v.BindEnv("mirror_root", "RELSYNC_MIRROR_ROOT"); err != nil {
		return nil, fmt.Errorf("failed to bind mirror_root env: %w", err)
	}
	if err := v.BindEnv("workers", "RELSYNC_WORKERS"); err != nil {
		return nil, fmt.Errorf("failed to bind workers env: %w", err)
	}
	// Set defaults
	defaults := DefaultConfig()
	v.SetDefault("mirror_root", defaults.MirrorRoot)
	v.SetDefault("workers", defaults.Workers)
	v.SetDefault("repos", defaults.Repos)
	v.SetDefault("app_manifests", defaults.AppManifests)
	v.SetDefault("robot_manifests", defaults.RobotManifests)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &config, nil
}
