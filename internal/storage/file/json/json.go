package json

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/drakos74/free-cluster/internal/storage"
)

// Blob stores every key as a json file in a directory.
type Blob struct {
	dir string
}

// NewBlob creates a json store rooted at the given directory.
func NewBlob(dir string) *Blob {
	return &Blob{dir: dir}
}

func (b *Blob) Store(k storage.Key, value interface{}) error {
	return Save(b.dir, k.Path(), value)
}

func (b *Blob) Load(k storage.Key, value interface{}) error {
	return Load(b.dir, k.Path(), value)
}

// Save saves the given json struct into the given path with the provided filename.
func Save(filePath string, fileName string, value interface{}) error {
	// check if filepath exists
	info, err := os.Stat(filePath)
	if err != nil {
		err := os.MkdirAll(filePath, os.ModePerm)
		if err != nil {
			return fmt.Errorf("could not make dir: %s: %w", filePath, err)
		}
	} else if !info.IsDir() {
		return fmt.Errorf("path given is not a directory: %s", filePath)
	}

	b, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("could not encode value for '%s': %w", fileName, err)
	}

	p := filepath.Join(filePath, fileName)
	if err := os.WriteFile(p, b, 0644); err != nil {
		return fmt.Errorf("could not write file '%s': %w", p, err)
	}
	return nil
}

// Load loads the payload from the given filePath and fileName.
func Load(filePath string, fileName string, value interface{}) error {
	p := filepath.Join(filePath, fileName)

	data, err := os.ReadFile(p)
	if err != nil {
		return fmt.Errorf("could not read file '%s' %s: %w", p, err.Error(), storage.NotFoundErr)
	}

	err = json.Unmarshal(data, value)
	if err != nil {
		return fmt.Errorf("could not unmarshal '%s' %s: %w", p, err.Error(), storage.CouldNotLoadErr)
	}

	return nil
}
