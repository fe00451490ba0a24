package progress

import (
	"errors"
	"os"
	"strings"
	"syscall"
)

// ErrorKind categorizes a recoverable filesystem failure during a scan.
type ErrorKind int

const (
	ErrorPermission ErrorKind = iota
	ErrorSymlink
	ErrorMissing
	ErrorOther
)

// String returns the wire name of the error kind.
func (k ErrorKind) String() string {
	switch k {
	case ErrorPermission:
		return "permission"
	case ErrorSymlink:
		return "symlink"
	case ErrorMissing:
		return "missing"
	default:
		return "other"
	}
}

// CategorizeError maps a filesystem error onto the scan error taxonomy.
// Every error is recoverable: the caller skips the path and continues.
func CategorizeError(err error) ErrorKind {
	if err == nil {
		return ErrorOther
	}

	if os.IsNotExist(err) {
		return ErrorMissing
	}
	if os.IsPermission(err) {
		return ErrorPermission
	}

	var errno syscall.Errno
	if errors.As(err, &errno) {
		switch errno {
		case syscall.EACCES, syscall.EPERM:
			return ErrorPermission
		case syscall.ENOENT:
			return ErrorMissing
		case syscall.ELOOP, syscall.EMLINK:
			return ErrorSymlink
		}
	}

	// filepath.EvalSymlinks reports circular resolution as a plain error.
	if strings.Contains(err.Error(), "too many levels of symbolic links") {
		return ErrorSymlink
	}

	return ErrorOther
}
