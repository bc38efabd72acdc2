package cache

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"wisatamap/internal/debug"
	"wisatamap/internal/poi"
)

// SnapshotFile is the name of the cached feature collection
const SnapshotFile = "features.geojson"

// ErrNoSnapshot is returned when no snapshot has been saved yet
var ErrNoSnapshot = errors.New("no cached snapshot")

// Manager keeps the last good feature set and basemap data on disk
type Manager struct {
	cacheDir string
	http     *http.Client
	log      *slog.Logger
}

// DataFile is a downloadable zipped shapefile
type DataFile struct {
	Name     string // Friendly name
	URL      string // Download URL
	Base     string // Base filename (without extension)
	Optional bool   // If true, failure to download won't stop the app
}

// Natural Earth layers covering Sumatra at 1:10m
var BasemapFiles = []DataFile{
	{
		Name:     "Coastlines",
		URL:      "https://naciscdn.org/naturalearth/10m/physical/ne_10m_coastline.zip",
		Base:     "ne_10m_coastline",
		Optional: true,
	},
	{
		Name:     "Provinces",
		URL:      "https://naciscdn.org/naturalearth/10m/cultural/ne_10m_admin_1_states_provinces_lines.zip",
		Base:     "ne_10m_admin_1_states_provinces_lines",
		Optional: true,
	},
}

// NewManager creates a cache manager.
// If cacheDir is empty, uses ~/.wisatamap
func NewManager(cacheDir string) (*Manager, error) {
	if cacheDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		cacheDir = filepath.Join(home, ".wisatamap")
	}

	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	return &Manager{
		cacheDir: cacheDir,
		http:     &http.Client{Timeout: 2 * time.Minute},
		log:      debug.L(),
	}, nil
}

// SaveSnapshot writes features to the snapshot file. The file is replaced
// atomically so a crash never leaves a truncated snapshot.
func (m *Manager) SaveSnapshot(features []*poi.Feature) error {
	data, err := poi.EncodeCollection(features)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	tmp, err := os.CreateTemp(m.cacheDir, "features_*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), m.SnapshotPath()); err != nil {
		return fmt.Errorf("failed to replace snapshot: %w", err)
	}

	m.log.Debug("snapshot_saved", "features", len(features), "path", m.SnapshotPath())
	return nil
}

// Snapshot returns a source reading the saved feature collection
func (m *Manager) Snapshot() poi.Source {
	return poi.SourceFunc(func(ctx context.Context) ([]*poi.Feature, error) {
		data, err := os.ReadFile(m.SnapshotPath())
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNoSnapshot
		}
		if err != nil {
			return nil, err
		}
		return poi.DecodeCollection(data)
	})
}

// HasSnapshot reports whether a snapshot exists
func (m *Manager) HasSnapshot() bool {
	_, err := os.Stat(m.SnapshotPath())
	return err == nil
}

// SnapshotPath returns the snapshot location
func (m *Manager) SnapshotPath() string {
	return filepath.Join(m.cacheDir, SnapshotFile)
}

// EnsureBasemap makes sure every basemap layer is available and returns the
// paths of the shapefiles present. Optional files that fail to download are
// skipped with a warning.
func (m *Manager) EnsureBasemap(ctx context.Context, files []DataFile) ([]string, error) {
	var paths []string
	for _, file := range files {
		if err := m.ensureFile(ctx, file); err != nil {
			if file.Optional {
				m.log.Warn("basemap_skipped", "name", file.Name, "err", err)
				continue
			}
			return paths, fmt.Errorf("failed to ensure %s: %w", file.Name, err)
		}
		paths = append(paths, m.GetDataPath(file.Base))
	}
	return paths, nil
}

// ensureFile checks if a data file exists, downloads if needed
func (m *Manager) ensureFile(ctx context.Context, file DataFile) error {
	shpPath := m.GetDataPath(file.Base)
	if _, err := os.Stat(shpPath); err == nil {
		return nil
	}

	m.log.Info("basemap_download", "name", file.Name, "url", file.URL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, file.URL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; wisatamap/1.0)")

	resp, err := m.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download failed with status: %s (URL: %s)", resp.Status, file.URL)
	}

	tmpFile, err := os.CreateTemp("", "basemap_*.zip")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmpFile.Name())
	defer tmpFile.Close()

	if _, err := io.Copy(tmpFile, resp.Body); err != nil {
		return fmt.Errorf("failed to save download: %w", err)
	}

	tmpFile.Close()

	if err := m.extractZip(tmpFile.Name(), m.cacheDir); err != nil {
		return fmt.Errorf("failed to extract: %w", err)
	}

	m.log.Info("basemap_ready", "name", file.Name)
	return nil
}

func (m *Manager) extractZip(zipPath, destDir string) error {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return err
	}
	defer r.Close()

	for _, f := range r.File {
		if f.FileInfo().IsDir() || strings.HasPrefix(filepath.Base(f.Name), ".") {
			continue
		}

		// Archives are flattened into the cache directory
		destPath := filepath.Join(destDir, filepath.Base(f.Name))
		rc, err := f.Open()
		if err != nil {
			return err
		}

		outFile, err := os.Create(destPath)
		if err != nil {
			rc.Close()
			return err
		}

		_, err = io.Copy(outFile, rc)
		outFile.Close()
		rc.Close()

		if err != nil {
			return err
		}
	}

	return nil
}

func (m *Manager) GetDataPath(base string) string {
	return filepath.Join(m.cacheDir, base+".shp")
}

func (m *Manager) GetCacheDir() string {
	return m.cacheDir
}
