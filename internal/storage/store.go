package storage

import (
	"errors"
	"fmt"
)

var (
	NotFoundErr     = errors.New("not found")
	CouldNotLoadErr = errors.New("could not load")
)

// Key is the storage key of a clustering snapshot.
type Key struct {
	Label string `json:"label"`
	K     int    `json:"k"`
}

// Path returns the file name for the key.
func (k Key) Path() string {
	return fmt.Sprintf("%s_k%d.json", k.Label, k.K)
}

// Persistence stores and loads values by key.
type Persistence interface {
	Store(k Key, value interface{}) error
	Load(k Key, value interface{}) error
}
