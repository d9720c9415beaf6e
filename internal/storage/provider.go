// Package storage defines the site file-system abstraction.
package storage

// Provider is the interface for site file operations. Paths are relative
// to the site root and use forward slashes.
type Provider interface {
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Write atomically writes content to path, creating parent directories.
	Write(path string, content []byte) error
	// ListImages returns img<N>.<ext> files in dir sorted by N.
	ListImages(dir string) ([]string, error)
}
