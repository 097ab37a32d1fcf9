//go:build !linux

package uinput

import "fmt"

// OpenDevice always fails outside Linux.
func OpenDevice(path string) (Device, error) {
	return nil, fmt.Errorf("%w: %s requires linux", ErrUnavailable, path)
}
