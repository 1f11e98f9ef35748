package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"

	"gopkg.in/yaml.v3"
)

// manifestService is the implementation of the ManifestService interface.
type manifestService struct {
	client *http.Client
}

// NewManifestService creates a new ManifestService.
func NewManifestService() ManifestService {
	return &manifestService{
		client: &http.Client{Timeout: DefaultManifestTimeout},
	}
}

// rawAppFile keeps pointer fields so entries missing a required field can be
// told apart from entries carrying zero values.
type rawAppFile struct {
	URL    *string `yaml:"url"`
	SHA512 *string `yaml:"sha512"`
	Size   *int64  `yaml:"size"`
}

type rawAppManifest struct {
	Version      string       `yaml:"version"`
	Files        []rawAppFile `yaml:"files"`
	Path         string       `yaml:"path"`
	SHA512       string       `yaml:"sha512"`
	ReleaseNotes string       `yaml:"releaseNotes"`
	ReleaseDate  string       `yaml:"releaseDate"`
}

// FetchAppManifest downloads and decodes one app update YAML document. File
// entries missing url, sha512, or size are dropped rather than failing the
// document.
func (s *manifestService) FetchAppManifest(ctx context.Context, url string) (*AppManifest, error) {
	body, err := s.get(ctx, url)
	if err != nil {
		return nil, err
	}
	var raw rawAppManifest
	if err := yaml.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decode app manifest %s: %w", url, err)
	}
	if raw.Version == "" {
		return nil, fmt.Errorf("app manifest %s has no version", url)
	}
	manifest := &AppManifest{
		Version:      raw.Version,
		Path:         raw.Path,
		SHA512:       raw.SHA512,
		ReleaseNotes: raw.ReleaseNotes,
		ReleaseDate:  raw.ReleaseDate,
	}
	for _, f := range raw.Files {
		if f.URL == nil || f.SHA512 == nil || f.Size == nil {
			continue
		}
		manifest.Files = append(manifest.Files, AppFile{URL: *f.URL, SHA512: *f.SHA512, Size: *f.Size})
	}
	return manifest, nil
}

// FetchRobotReleases downloads one releases.json document and partitions its
// production entries by channel.
func (s *manifestService) FetchRobotReleases(ctx context.Context, url string) (*RobotReleases, error) {
	body, err := s.get(ctx, url)
	if err != nil {
		return nil, err
	}
	var doc struct {
		Production map[string]RobotRelease `json:"production"`
	}
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("decode robot releases %s: %w", url, err)
	}
	if len(doc.Production) == 0 {
		return nil, fmt.Errorf("robot releases %s has no production entries", url)
	}
	return NewRobotReleases(doc.Production)
}

func (s *manifestService) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", url, err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: unexpected status %d", url, resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", url, err)
	}
	return body, nil
}

// FetchAppManifestBatch fetches every endpoint concurrently. Results keep the
// endpoint order; a failed URL becomes an errored result, never an abort.
func FetchAppManifestBatch(ctx context.Context, svc ManifestService, endpoints []Endpoint) []AppResult {
	results := make([]AppResult, len(endpoints))
	var wg sync.WaitGroup
	for i, ep := range endpoints {
		wg.Add(1)
		go func(i int, ep Endpoint) {
			defer wg.Done()
			manifest, err := svc.FetchAppManifest(ctx, ep.URL)
			results[i] = AppResult{Label: ep.Label, Manifest: manifest, Err: err}
		}(i, ep)
	}
	wg.Wait()
	return results
}

// FetchRobotReleasesBatch fetches every endpoint concurrently, mirroring
// FetchAppManifestBatch.
func FetchRobotReleasesBatch(ctx context.Context, svc ManifestService, endpoints []Endpoint) []RobotResult {
	results := make([]RobotResult, len(endpoints))
	var wg sync.WaitGroup
	for i, ep := range endpoints {
		wg.Add(1)
		go func(i int, ep Endpoint) {
			defer wg.Done()
			releases, err := svc.FetchRobotReleases(ctx, ep.URL)
			results[i] = RobotResult{Label: ep.Label, Releases: releases, Err: err}
		}(i, ep)
	}
	wg.Wait()
	return results
}
