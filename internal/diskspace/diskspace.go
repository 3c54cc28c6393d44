// Package diskspace reports free space on the filesystem holding a path.
package diskspace

import (
	"errors"
	"fmt"
	"path/filepath"
)

// InsufficientSpaceError indicates that there is not enough disk space available.
type InsufficientSpaceError struct {
	Path           string
	RequiredBytes  int64
	AvailableBytes int64
}

func (e *InsufficientSpaceError) Error() string {
	requiredMB := float64(e.RequiredBytes) / (1024 * 1024)
	availableMB := float64(e.AvailableBytes) / (1024 * 1024)
	return fmt.Sprintf("insufficient disk space for %s: need %.2f MB, have %.2f MB available",
		e.Path, requiredMB, availableMB)
}

// CheckAvailableSpace checks whether the filesystem holding dir has at least
// requiredBytes free. When free space cannot be determined (network shares,
// virtual filesystems) it returns nil and lets the operation fail naturally.
func CheckAvailableSpace(dir string, requiredBytes int64) error {
	available, ok := availableBytes(filepath.Clean(dir))
	if !ok {
		return nil
	}

	if available < requiredBytes {
		return &InsufficientSpaceError{
			Path:           dir,
			RequiredBytes:  requiredBytes,
			AvailableBytes: available,
		}
	}
	return nil
}

// GetAvailableSpace returns the available space in bytes for the filesystem
// containing dir. Returns 0 if unable to determine.
func GetAvailableSpace(dir string) int64 {
	available, _ := availableBytes(filepath.Clean(dir))
	return available
}

// IsInsufficientSpaceError checks if an error is an InsufficientSpaceError
func IsInsufficientSpaceError(err error) bool {
	var e *InsufficientSpaceError
	return errors.As(err, &e)
}
