package profile

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

const FileName = "profile.json"

func DefaultPath(dataDir string) string {
	return filepath.Join(dataDir, FileName)
}

func writeProfile(path string, prof *Profile) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if errors.Is(err, fs.ErrExist) {
		return ErrProfileExists.WithDetails(path)
	}
	if err != nil {
		return err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(prof); err != nil {
		return fmt.Errorf("write profile: %w", err)
	}
	return nil
}

// ReadProfile loads the profile file without unlocking it.
func ReadProfile(path string) (*Profile, error) {
	file, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrProfileNotFound.WithDetails(path)
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var prof Profile
	if err := json.NewDecoder(file).Decode(&prof); err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}
	return &prof, nil
}
