package util

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// CreateFile creates (or truncates) path, making parent directories first.
func CreateFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}
	return os.Create(path)
}

// SaveJson writes data as indented JSON to path.
func SaveJson(path string, data interface{}) error {
	bs, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return err
	}
	file, err := CreateFile(path)
	if err != nil {
		return err
	}
	defer file.Close()

	_, err = file.Write(bs)
	return err
}
