//go:build unix

package fileutil

import (
	"errors"

	"golang.org/x/sys/unix"
)

func isEXDEV(err error) bool {
	return errors.Is(err, unix.EXDEV)
}
