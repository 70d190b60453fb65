// Package storage defines the file-system abstraction under the task document.
package storage

import "time"

// Provider is the interface for document file operations. Paths are
// relative to the provider root.
type Provider interface {
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Write atomically replaces the file at path with content.
	Write(path string, content []byte) error
	// Stat reports whether path exists and when it was last modified.
	Stat(path string) (exists bool, modTime time.Time, err error)
	// Lock takes an exclusive advisory lock associated with path. The
	// returned func releases it.
	Lock(path string) (unlock func() error, err error)
}
