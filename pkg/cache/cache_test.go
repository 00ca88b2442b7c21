package cache

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	errs "pinscraper/pkg/errors"
	"pinscraper/pkg/logger"
	"pinscraper/pkg/models"
)

var board = models.BoardIdentity{UserName: "someuser", BoardName: "recipes"}

func samplePins() []models.Pin {
	return []models.Pin{
		{ID: 101, ResourceLink: "https://i.pinimg.com/originals/a.jpg", Title: "Oldest", BoardName: "recipes", BoardAuthor: "someuser"},
		{ID: 205, ResourceLink: "https://v1.pinimg.com/videos/b.mp4", Title: "", BoardName: "recipes", BoardAuthor: "someuser"},
		{ID: 309, ResourceLink: "https://i.pinimg.com/originals/c.png", Title: "Quotes \"and\" <tags> & ünïcode", BoardName: "recipes", BoardAuthor: "someuser"},
	}
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "recipes.json")
	pins := samplePins()

	if err := Save(path, NewManifest(board, pins)); err != nil {
		t.Fatalf("Failed to save cache: %v", err)
	}

	loaded, err := Load(path, board)
	if err != nil {
		t.Fatalf("Failed to load cache: %v", err)
	}
	if loaded == nil {
		t.Fatal("Expected manifest, got nil")
	}
	if loaded.Version != CurrentVersion {
		t.Errorf("Expected version %d, got %d", CurrentVersion, loaded.Version)
	}
	if !loaded.Identity().Equal(board) {
		t.Errorf("Expected identity %v, got %v", board, loaded.Identity())
	}
	if !reflect.DeepEqual(pins, loaded.Pins) {
		t.Errorf("Pins did not round-trip:\nwant %+v\ngot  %+v", pins, loaded.Pins)
	}
	if loaded.UpdatedAt.IsZero() {
		t.Error("Expected updated_at to be set")
	}
}

func TestSaveEmptyList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.json")

	if err := Save(path, NewManifest(board, nil)); err != nil {
		t.Fatalf("Failed to save cache: %v", err)
	}

	loaded, err := Load(path, board)
	if err != nil {
		t.Fatalf("Failed to load cache: %v", err)
	}
	if loaded.Pins == nil || len(loaded.Pins) != 0 {
		t.Errorf("Expected empty non-nil pin list, got %#v", loaded.Pins)
	}
}

func TestSaveReplacesAndLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "recipes.json")

	if err := Save(path, NewManifest(board, samplePins()[:1])); err != nil {
		t.Fatalf("First save failed: %v", err)
	}
	if err := Save(path, NewManifest(board, samplePins())); err != nil {
		t.Fatalf("Second save failed: %v", err)
	}

	loaded, err := Load(path, board)
	if err != nil {
		t.Fatalf("Failed to load cache: %v", err)
	}
	if len(loaded.Pins) != 3 {
		t.Errorf("Expected 3 pins after rewrite, got %d", len(loaded.Pins))
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("Failed to read dir: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("Expected only the cache file in %s, found %d entries", dir, len(entries))
	}
}

func TestLoadMissingFile(t *testing.T) {
	loaded, err := Load(filepath.Join(t.TempDir(), "absent.json"), board)
	if err != nil {
		t.Fatalf("Expected no error for missing file, got %v", err)
	}
	if loaded != nil {
		t.Errorf("Expected nil manifest, got %+v", loaded)
	}
}

func TestLoadIdentityMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "recipes.json")
	if err := Save(path, NewManifest(board, samplePins())); err != nil {
		t.Fatalf("Failed to save cache: %v", err)
	}

	others := []models.BoardIdentity{
		{UserName: "someuser", BoardName: "travel"},
		{UserName: "otheruser", BoardName: "recipes"},
	}
	for _, other := range others {
		_, err := Load(path, other)
		if !errs.IsIdentityMismatch(err) {
			t.Errorf("Expected identity mismatch for %v, got %v", other, err)
		}
	}
}

func TestLoadCorrupted(t *testing.T) {
	tests := map[string]string{
		"not json":          "pins = [Pin(1, 'x')]",
		"truncated":         `{"version":1,"user_name":"someuser","board_name":"recipes","pins":[{"pin_id":1`,
		"unknown version":   `{"version":99,"user_name":"someuser","board_name":"recipes","pins":[]}`,
		"missing identity":  `{"version":1,"pins":[]}`,
		"wrong pins type":   `{"version":1,"user_name":"someuser","board_name":"recipes","pins":{"a":1}}`,
		"pin without id":    `{"version":1,"user_name":"someuser","board_name":"recipes","pins":[{"resource_link":"https://x/a.jpg"}]}`,
		"pin without link":  `{"version":1,"user_name":"someuser","board_name":"recipes","pins":[{"pin_id":3}]}`,
		"duplicate pin ids": `{"version":1,"user_name":"someuser","board_name":"recipes","pins":[{"pin_id":3,"resource_link":"a"},{"pin_id":3,"resource_link":"b"}]}`,
	}

	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "recipes.json")
			if err := os.WriteFile(path, []byte(content), 0644); err != nil {
				t.Fatalf("Failed to write file: %v", err)
			}

			loaded, err := Load(path, board)
			if !errs.IsCacheCorrupted(err) {
				t.Errorf("Expected corrupted cache error, got %v", err)
			}
			if loaded != nil {
				t.Errorf("Expected nil manifest, got %+v", loaded)
			}
		})
	}
}

func TestStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "someuser", "recipes.json")
	log := logger.NewTestLogger()
	store := NewStore(path, log)

	if !store.Enabled() {
		t.Fatal("Expected store with a path to be enabled")
	}

	pins, err := store.Load(board)
	if err != nil || pins != nil {
		t.Fatalf("Expected empty load, got %v, %v", pins, err)
	}

	if err := store.Save(board, samplePins()); err != nil {
		t.Fatalf("Failed to save: %v", err)
	}

	pins, err = store.Load(board)
	if err != nil {
		t.Fatalf("Failed to load: %v", err)
	}
	if len(pins) != 3 {
		t.Errorf("Expected 3 pins, got %d", len(pins))
	}
	if !log.HasMessage("cache loaded") {
		t.Error("Expected cache load to be logged")
	}

	if err := store.Delete(); err != nil {
		t.Fatalf("Failed to delete: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("Expected cache file to be gone, stat returned %v", err)
	}
}

func TestDisabledStore(t *testing.T) {
	store := NewStore("", nil)

	if store.Enabled() {
		t.Error("Expected store without a path to be disabled")
	}
	if err := store.Save(board, samplePins()); err != nil {
		t.Errorf("Expected no-op save, got %v", err)
	}
	pins, err := store.Load(board)
	if err != nil || pins != nil {
		t.Errorf("Expected nothing loaded, got %v, %v", pins, err)
	}
}
