// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SlateBridge Contributors

package toolkit

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
)

// ErrNoCachedCore is returned when Resolve finds no usable core and the
// caller asked for cache-only resolution.
var ErrNoCachedCore = errors.New("no cached toolkit core")

// coreExecutable returns the core binary name for the current OS.
func coreExecutable() string {
	if runtime.GOOS == "windows" {
		return "slate-core.exe"
	}
	return "slate-core"
}

// Cache manages versioned toolkit cores on disk. Layout:
// <root>/<version>/slate-core.
type Cache struct {
	root   string
	client *http.Client
}

// NewCache creates a cache rooted at root.
func NewCache(root string) *Cache {
	return &Cache{
		root:   root,
		client: &http.Client{Timeout: 2 * time.Minute},
	}
}

// Resolve returns the executable path of a cached core. An empty version
// resolves to the newest cached core. Resolve never touches the network,
// so host startup works offline when a core is pre-cached.
func (c *Cache) Resolve(version string) (string, *semver.Version, error) {
	versions, err := c.cachedVersions()
	if err != nil {
		return "", nil, err
	}
	if len(versions) == 0 {
		return "", nil, oops.
			Code("NOT_FOUND").
			With("cache_root", c.root).
			Wrapf(ErrNoCachedCore, "cache at %s is empty", c.root)
	}

	if version == "" {
		v := versions[0]
		return c.executablePath(v), v, nil
	}

	want, err := semver.NewVersion(version)
	if err != nil {
		return "", nil, oops.With("version", version).Wrapf(err, "invalid core version %q", version)
	}
	for _, v := range versions {
		if v.Equal(want) {
			return c.executablePath(v), v, nil
		}
	}
	return "", nil, oops.
		Code("NOT_FOUND").
		With("version", version).
		Wrapf(ErrNoCachedCore, "core %s is not cached", version)
}

// Fetch downloads a core version into the cache, retrying transient
// failures with capped exponential backoff. Run from the CLI ahead of
// time; never called during host startup.
func (c *Cache) Fetch(ctx context.Context, baseURL, version string) (string, error) {
	if _, err := semver.NewVersion(version); err != nil {
		return "", oops.With("version", version).Wrapf(err, "invalid core version %q", version)
	}

	destDir := filepath.Join(c.root, version)
	dest := filepath.Join(destDir, coreExecutable())
	if _, err := os.Stat(dest); err == nil {
		slog.Debug("core already cached", "version", version, "path", dest)
		return dest, nil
	}

	if err := os.MkdirAll(destDir, 0o700); err != nil {
		return "", fmt.Errorf("failed to create cache dir: %w", err)
	}

	url := fmt.Sprintf("%s/%s/%s/%s", baseURL, version, runtime.GOOS, coreExecutable())

	backoff := retry.WithMaxRetries(4, retry.NewExponential(500*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		return retry.RetryableError(c.download(ctx, url, dest))
	})
	if err != nil {
		return "", oops.
			Code("BOOTSTRAP_FAILED").
			With("url", url).
			Wrapf(err, "failed to fetch core %s", version)
	}

	slog.Info("cached toolkit core", "version", version, "path", dest)
	return dest, nil
}

func (c *Cache) download(ctx context.Context, url, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close() //nolint:errcheck // read-only body

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s from %s", resp.Status, url)
	}

	// Write to a temp file first so a partial download never looks like
	// a cached core.
	tmp, err := os.CreateTemp(filepath.Dir(dest), ".core-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // best-effort cleanup

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close() //nolint:errcheck,gosec // error path
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o700); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), dest)
}

// List returns the cached core versions, newest first.
func (c *Cache) List() ([]*semver.Version, error) {
	return c.cachedVersions()
}

// cachedVersions lists cached core versions, newest first.
func (c *Cache) cachedVersions() ([]*semver.Version, error) {
	entries, err := os.ReadDir(c.root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read core cache: %w", err)
	}

	var versions []*semver.Version
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		v, err := semver.NewVersion(entry.Name())
		if err != nil {
			slog.Debug("skipping non-version cache entry", "dir", entry.Name())
			continue
		}
		if _, err := os.Stat(c.executablePath(v)); err != nil {
			slog.Debug("skipping cache entry without core binary", "dir", entry.Name())
			continue
		}
		versions = append(versions, v)
	}

	sort.Slice(versions, func(i, j int) bool {
		return versions[i].GreaterThan(versions[j])
	})
	return versions, nil
}

func (c *Cache) executablePath(v *semver.Version) string {
	return filepath.Join(c.root, v.Original(), coreExecutable())
}
