package sockinit

import (
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// ClearCloseOnExec clears the FD_CLOEXEC flag on fd so the descriptor
// survives into an exec'd child.
func ClearCloseOnExec(fd int) error {
	flags, err := unix.FcntlInt(uintptr(fd), unix.F_GETFD, 0)
	if err != nil {
		return errors.Wrap(err, "failed to get descriptor flags")
	}

	_, err = unix.FcntlInt(uintptr(fd), unix.F_SETFD, flags&^unix.FD_CLOEXEC)
	if err != nil {
		return errors.Wrap(err, "failed to clear FD_CLOEXEC")
	}

	return nil
}

// SetBlocking clears O_NONBLOCK on fd so the descriptor behaves like an
// ordinary blocking socket, matching what the child would see had it bound
// the socket itself.
func SetBlocking(fd int) error {
	flags, err := unix.FcntlInt(uintptr(fd), unix.F_GETFL, 0)
	if err != nil {
		return errors.Wrap(err, "failed to get status flags")
	}

	_, err = unix.FcntlInt(uintptr(fd), unix.F_SETFL, flags&^unix.O_NONBLOCK)
	if err != nil {
		return errors.Wrap(err, "failed to clear O_NONBLOCK")
	}

	return nil
}
