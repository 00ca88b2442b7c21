package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	errs "pinscraper/pkg/errors"
	"pinscraper/pkg/logger"
	"pinscraper/pkg/models"
)

// CurrentVersion is the manifest format written by Save
const CurrentVersion = 1

// Manifest is the on-disk form of a board's cached pins, oldest first
type Manifest struct {
	Version   int          `json:"version"`
	UserName  string       `json:"user_name"`
	BoardName string       `json:"board_name"`
	Pins      []models.Pin `json:"pins"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// NewManifest builds a manifest for board holding pins
func NewManifest(board models.BoardIdentity, pins []models.Pin) *Manifest {
	return &Manifest{
		Version:   CurrentVersion,
		UserName:  board.UserName,
		BoardName: board.BoardName,
		Pins:      pins,
	}
}

// Identity returns the board the manifest belongs to
func (m *Manifest) Identity() models.BoardIdentity {
	return models.BoardIdentity{UserName: m.UserName, BoardName: m.BoardName}
}

// Save writes the manifest to path atomically, replacing any existing file
func Save(path string, manifest *Manifest) error {
	if manifest.Version == 0 {
		manifest.Version = CurrentVersion
	}
	manifest.UpdatedAt = time.Now().UTC()
	if manifest.Pins == nil {
		manifest.Pins = []models.Pin{}
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	file, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary cache file: %w", err)
	}
	tempPath := file.Name()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(manifest); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to encode cache: %w", err)
	}

	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to sync cache file: %w", err)
	}

	if err := file.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to close cache file: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to replace cache file: %w", err)
	}

	return nil
}

// Load reads the manifest at path and checks it belongs to board.
// It returns (nil, nil) when no file exists at path.
func Load(path string, board models.BoardIdentity) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read cache file: %w", err)
	}

	var manifest Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, errs.Wrap(errs.ErrorTypeCacheCorrupted, err, "cache file %s is corrupted", path)
	}

	if err := validate(&manifest); err != nil {
		return nil, errs.Wrap(errs.ErrorTypeCacheCorrupted, err, "cache file %s is corrupted", path)
	}

	if !manifest.Identity().Equal(board) {
		return nil, errs.New(errs.ErrorTypeIdentityMismatch,
			"cache file %s holds %s, not %s", path, manifest.Identity(), board)
	}

	return &manifest, nil
}

func validate(m *Manifest) error {
	if m.Version != CurrentVersion {
		return fmt.Errorf("unsupported version %d", m.Version)
	}
	if m.UserName == "" || m.BoardName == "" {
		return fmt.Errorf("missing board identity")
	}

	seen := make(map[int64]struct{}, len(m.Pins))
	for i, pin := range m.Pins {
		if pin.ID <= 0 {
			return fmt.Errorf("pin %d has invalid id %d", i, pin.ID)
		}
		if pin.ResourceLink == "" {
			return fmt.Errorf("pin %d has no resource link", pin.ID)
		}
		if _, dup := seen[pin.ID]; dup {
			return fmt.Errorf("pin %d appears twice", pin.ID)
		}
		seen[pin.ID] = struct{}{}
	}
	if m.Pins == nil {
		m.Pins = []models.Pin{}
	}
	return nil
}

// Store binds a cache path to a logger. A Store with an empty path persists nothing.
type Store struct {
	path   string
	logger logger.Logger
}

// NewStore creates a store for path
func NewStore(path string, log logger.Logger) *Store {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Store{path: path, logger: log}
}

// Path returns the cache file location, empty when caching is off
func (s *Store) Path() string {
	return s.path
}

// Enabled reports whether the store has a file to persist to
func (s *Store) Enabled() bool {
	return s.path != ""
}

// Load returns the cached pins for board, or nil when nothing is cached
func (s *Store) Load(board models.BoardIdentity) ([]models.Pin, error) {
	if !s.Enabled() {
		return nil, nil
	}

	manifest, err := Load(s.path, board)
	if err != nil {
		s.logger.WithError(err).WithField("path", s.path).Error("failed to load cache")
		return nil, err
	}
	if manifest == nil {
		s.logger.DebugWithFields("no cache file yet", map[string]interface{}{"path": s.path})
		return nil, nil
	}

	s.logger.InfoWithFields("cache loaded", map[string]interface{}{
		"path":       s.path,
		"pins":       len(manifest.Pins),
		"updated_at": manifest.UpdatedAt,
	})
	return manifest.Pins, nil
}

// Save persists pins as the full cached list for board
func (s *Store) Save(board models.BoardIdentity, pins []models.Pin) error {
	if !s.Enabled() {
		return nil
	}

	if err := Save(s.path, NewManifest(board, pins)); err != nil {
		s.logger.WithError(err).WithField("path", s.path).Error("failed to save cache")
		return err
	}

	s.logger.DebugWithFields("cache saved", map[string]interface{}{
		"path": s.path,
		"pins": len(pins),
	})
	return nil
}

// Delete removes the cache file
func (s *Store) Delete() error {
	if !s.Enabled() {
		return nil
	}
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete cache: %w", err)
	}
	s.logger.InfoWithFields("cache deleted", map[string]interface{}{"path": s.path})
	return nil
}
