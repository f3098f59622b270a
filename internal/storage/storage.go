package storage

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"kecarajocomer/internal/shopping"
)

const exportTimeLayout = "20060102T150405Z"

// ListStore exports generated shopping lists as versioned JSON files, one
// file per user, week and generation time.
type ListStore struct {
	basePath string
}

// NewListStore creates a new ListStore and ensures the base directory exists.
func NewListStore(basePath string) (*ListStore, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory %s: %w", basePath, err)
	}
	return &ListStore{basePath: basePath}, nil
}

// userKey encodes a user ID for filenames. Hex keeps distinct IDs distinct
// and holds no glob metacharacters or the '_' field separator.
func userKey(userID string) string {
	return hex.EncodeToString([]byte(userID))
}

func (s *ListStore) prefix(userID string, weekStart time.Time) string {
	return fmt.Sprintf("%s_%s_", userKey(userID), weekStart.Format("2006-01-02"))
}

// getVersionedPath returns the full path for a list version.
func (s *ListStore) getVersionedPath(userID string, weekStart, generatedAt time.Time) string {
	filename := s.prefix(userID, weekStart) + generatedAt.UTC().Format(exportTimeLayout) + ".json"
	return filepath.Join(s.basePath, filename)
}

// Save writes the list and returns the file path. The version is the
// list's generation time.
func (s *ListStore) Save(userID string, weekStart time.Time, list shopping.GeneratedList) (string, error) {
	data, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal shopping list: %w", err)
	}

	filePath := s.getVersionedPath(userID, weekStart, list.FechaGeneracion)
	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write shopping list file: %w", err)
	}
	return filePath, nil
}

// Load reads a list from the file written by Save.
func (s *ListStore) Load(filePath string) (*shopping.GeneratedList, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read shopping list file: %w", err)
	}

	var list shopping.GeneratedList
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("failed to unmarshal shopping list: %w", err)
	}
	return &list, nil
}

// Versions lists the files stored for a user and week, oldest first.
func (s *ListStore) Versions(userID string, weekStart time.Time) ([]string, error) {
	pattern := filepath.Join(s.basePath, s.prefix(userID, weekStart)+"*.json")
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to glob list versions: %w", err)
	}
	// The fixed-width timestamp suffix sorts chronologically.
	slices.Sort(matches)
	return matches, nil
}

// RemoveStaleVersions keeps the newest keep versions of a user's week and
// removes the rest.
func (s *ListStore) RemoveStaleVersions(userID string, weekStart time.Time, keep int) error {
	matches, err := s.Versions(userID, weekStart)
	if err != nil {
		return err
	}
	if len(matches) <= keep {
		return nil
	}

	for _, match := range matches[:len(matches)-keep] {
		if err := os.Remove(match); err != nil {
			return fmt.Errorf("failed to remove stale file %s: %w", match, err)
		}
	}
	return nil
}
