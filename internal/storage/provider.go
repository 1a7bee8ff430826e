// Package storage defines the data-directory file abstraction.
package storage

import (
	"context"

	"github.com/starford/climap/internal/models"
)

// Provider is the interface for data file operations. Paths are relative to
// the provider root.
type Provider interface {
	// List returns metadata for every file under dir whose name ends in ext.
	List(dir, ext string) ([]models.FileMeta, error)
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Write atomically replaces the file at path with content.
	Write(path string, content []byte) error
	// Append adds content to the end of the file at path, creating it if needed.
	Append(path string, content []byte) error
	// Exists reports whether a regular file exists at path.
	Exists(path string) (bool, error)
	// Lock takes an advisory exclusive lock guarding path. The returned
	// function releases it.
	Lock(ctx context.Context, path string) (func() error, error)
}
