package sockinit

import (
	"testing"

	"golang.org/x/sys/unix"
)

func testFd(t *testing.T) int {
	t.Helper()

	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM|unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		t.Fatal("failed to create socketpair:", err)
	}

	t.Cleanup(func() {
		unix.Close(fds[0])
		unix.Close(fds[1])
	})

	return fds[0]
}

func TestClearCloseOnExec(t *testing.T) {
	fd := testFd(t)

	flags, err := unix.FcntlInt(uintptr(fd), unix.F_GETFD, 0)
	if err != nil {
		t.Fatal("failed to get descriptor flags:", err)
	}
	if flags&unix.FD_CLOEXEC == 0 {
		t.Fatal("expected FD_CLOEXEC to start set")
	}

	if err := ClearCloseOnExec(fd); err != nil {
		t.Fatal("failed to clear close-on-exec:", err)
	}

	flags, err = unix.FcntlInt(uintptr(fd), unix.F_GETFD, 0)
	if err != nil {
		t.Fatal("failed to get descriptor flags:", err)
	}
	if flags&unix.FD_CLOEXEC != 0 {
		t.Fatal("expected FD_CLOEXEC to be cleared")
	}
}

func TestSetBlocking(t *testing.T) {
	fd := testFd(t)

	flags, err := unix.FcntlInt(uintptr(fd), unix.F_GETFL, 0)
	if err != nil {
		t.Fatal("failed to get status flags:", err)
	}
	if flags&unix.O_NONBLOCK == 0 {
		t.Fatal("expected O_NONBLOCK to start set")
	}

	if err := SetBlocking(fd); err != nil {
		t.Fatal("failed to set blocking:", err)
	}

	flags, err = unix.FcntlInt(uintptr(fd), unix.F_GETFL, 0)
	if err != nil {
		t.Fatal("failed to get status flags:", err)
	}
	if flags&unix.O_NONBLOCK != 0 {
		t.Fatal("expected O_NONBLOCK to be cleared")
	}
}
