package models

import (
	"errors"
	"fmt"
	"io/fs"
)

// ErrorKind classifies a per-path failure.
type ErrorKind int

const (
	ErrIO ErrorKind = iota
	ErrPermissionDenied
	ErrSymlinkCycle
)

func (k ErrorKind) String() string {
	switch k {
	case ErrPermissionDenied:
		return "permission_denied"
	case ErrSymlinkCycle:
		return "symlink_cycle"
	default:
		return "io_error"
	}
}

func (k ErrorKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *ErrorKind) UnmarshalText(b []byte) error {
	switch string(b) {
	case "io_error", "":
		*k = ErrIO
	case "permission_denied":
		*k = ErrPermissionDenied
	case "symlink_cycle":
		*k = ErrSymlinkCycle
	default:
		return fmt.Errorf("unknown error kind %q", string(b))
	}
	return nil
}

// KindOf maps a Go error onto the error taxonomy.
func KindOf(err error) ErrorKind {
	if errors.Is(err, fs.ErrPermission) {
		return ErrPermissionDenied
	}
	return ErrIO
}

// ScanError is a recoverable failure found while walking.
type ScanError struct {
	Path    string    `json:"path"`
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message,omitempty"`
}

func NewScanError(path string, err error) ScanError {
	return ScanError{Path: path, Kind: KindOf(err), Message: err.Error()}
}

func (e ScanError) Error() string {
	return formatPathError("scan", e.Path, e.Kind, e.Message)
}

// CleanError is a recoverable failure deleting one item.
type CleanError struct {
	Path    string    `json:"path"`
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message,omitempty"`
}

func NewCleanError(path string, err error) CleanError {
	return CleanError{Path: path, Kind: KindOf(err), Message: err.Error()}
}

func (e CleanError) Error() string {
	return formatPathError("clean", e.Path, e.Kind, e.Message)
}

func formatPathError(op, path string, kind ErrorKind, msg string) string {
	switch {
	case kind == ErrPermissionDenied:
		return fmt.Sprintf("%s %s: permission denied", op, path)
	case kind == ErrSymlinkCycle:
		return fmt.Sprintf("%s %s: symlink cycle", op, path)
	case msg != "":
		return fmt.Sprintf("%s %s: %s", op, path, msg)
	default:
		return fmt.Sprintf("%s %s: i/o error", op, path)
	}
}
