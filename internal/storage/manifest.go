package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// manifestStore persists the user-to-filename map as a JSON file with
// atomic writes.
type manifestStore struct {
	filePath string
}

func newManifestStore(dir, filename string) (*manifestStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return &manifestStore{
		filePath: filepath.Join(dir, filename),
	}, nil
}

// Load reads the manifest into data. A missing file is not an error.
func (s *manifestStore) Load(data interface{}) error {
	file, err := os.Open(s.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer file.Close()

	return json.NewDecoder(file).Decode(data)
}

// Save writes data to a temp file and renames it into place.
func (s *manifestStore) Save(data interface{}) error {
	tempFile := s.filePath + ".tmp"
	file, err := os.Create(tempFile)
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		file.Close()
		os.Remove(tempFile)
		return err
	}
	if err := file.Close(); err != nil {
		os.Remove(tempFile)
		return err
	}

	return os.Rename(tempFile, s.filePath)
}
