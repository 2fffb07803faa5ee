// Package auth manages the scraped WNI credential lifecycle
package auth

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/whlops/port-weather-bot/internal/entities"
)

// CredentialStore persists the credential bundle as a JSON file so a fresh
// login survives across unattended runs.
type CredentialStore struct {
	path string
}

// NewCredentialStore creates a store backed by the given file path.
func NewCredentialStore(path string) *CredentialStore {
	return &CredentialStore{path: path}
}

// Save persists the bundle atomically: the JSON is written to a temp file in
// the target directory and renamed into place, so a concurrent reader can
// never observe a half-written file.
func (s *CredentialStore) Save(bundle *entities.CredentialBundle) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create credential directory: %v", err)
	}

	data, err := json.MarshalIndent(bundle, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode credential bundle: %v", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp credential file: %v", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write credential file: %v", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close credential file: %v", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace credential file: %v", err)
	}

	log.Printf("Credential bundle saved to %s (%d cookies)", s.path, len(bundle.Cookies))
	return nil
}

// Load reads the persisted bundle. A missing, unreadable, or corrupt file is
// treated as "no credential" - the caller falls back to re-authentication,
// so load failures are never fatal.
func (s *CredentialStore) Load() *entities.CredentialBundle {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("Credential file unreadable, treating as absent: %v", err)
		}
		return nil
	}

	var bundle entities.CredentialBundle
	if err := json.Unmarshal(data, &bundle); err != nil {
		log.Printf("Credential file corrupt, treating as absent: %v", err)
		return nil
	}

	return &bundle
}
