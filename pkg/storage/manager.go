package storage

import (
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
)

// DefaultExtension is used when a resource URL carries no recognised extension
const DefaultExtension = ".jpg"

var mediaExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
	".mp4":  true,
}

// Manager stores pin resources as <pin_id><ext> and tracks which pins are on disk
type Manager struct {
	outputDir  string
	downloaded map[int64]string
	mu         sync.RWMutex
}

// NewManager creates a new storage manager
func NewManager(outputDir string) (*Manager, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	manager := &Manager{
		outputDir:  outputDir,
		downloaded: make(map[int64]string),
	}

	if err := manager.scanExistingFiles(); err != nil {
		return nil, fmt.Errorf("failed to scan existing files: %w", err)
	}

	return manager, nil
}

// scanExistingFiles records pins already present in the output directory
func (m *Manager) scanExistingFiles() error {
	entries, err := os.ReadDir(m.outputDir)
	if err != nil {
		return fmt.Errorf("failed to read directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if !mediaExtensions[ext] {
			continue
		}
		id, err := strconv.ParseInt(strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name())), 10, 64)
		if err != nil {
			continue
		}
		m.downloaded[id] = filepath.Join(m.outputDir, entry.Name())
	}

	return nil
}

// ExtensionFor returns the file extension of a resource URL, lower-cased
func ExtensionFor(resourceURL string) string {
	u, err := url.Parse(resourceURL)
	if err != nil {
		return DefaultExtension
	}
	ext := strings.ToLower(path.Ext(u.Path))
	if !mediaExtensions[ext] {
		return DefaultExtension
	}
	return ext
}

// FileName returns the name a pin's resource is stored under
func FileName(pinID int64, ext string) string {
	return strconv.FormatInt(pinID, 10) + ext
}

// IsDownloaded checks if a resource for the pin is already stored
func (m *Manager) IsDownloaded(pinID int64) bool {
	m.mu.RLock()
	_, ok := m.downloaded[pinID]
	m.mu.RUnlock()
	return ok
}

// Save writes the resource read from r for pinID and returns its path.
// The file appears under its final name only once fully written.
func (m *Manager) Save(r io.Reader, pinID int64, ext string) (string, error) {
	filename := filepath.Join(m.outputDir, FileName(pinID, ext))

	out, err := os.CreateTemp(m.outputDir, FileName(pinID, ext)+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("failed to create temporary file: %w", err)
	}
	tempFile := out.Name()

	_, err = io.Copy(out, r)
	closeErr := out.Close()

	if err != nil {
		os.Remove(tempFile)
		return "", fmt.Errorf("failed to save pin data: %w", err)
	}

	if closeErr != nil {
		os.Remove(tempFile)
		return "", fmt.Errorf("failed to close file: %w", closeErr)
	}

	if err := os.Rename(tempFile, filename); err != nil {
		os.Remove(tempFile)
		return "", fmt.Errorf("failed to rename temporary file: %w", err)
	}

	m.mu.Lock()
	m.downloaded[pinID] = filename
	m.mu.Unlock()

	return filename, nil
}

// PathFor returns where the pin's resource is stored, if it is
func (m *Manager) PathFor(pinID int64) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.downloaded[pinID]
	return p, ok
}

// OutputDir returns the output directory path
func (m *Manager) OutputDir() string {
	return m.outputDir
}

// DownloadedCount returns the number of stored pins
func (m *Manager) DownloadedCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.downloaded)
}
