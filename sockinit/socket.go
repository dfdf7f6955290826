package sockinit

import (
	"os"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// SocketState tracks a listening socket through its activation lifecycle.
type SocketState int

const (
	StateUnbound SocketState = iota
	StateBound
	StateArmed
	StateFired
)

// String returns the state name.
func (s SocketState) String() string {
	switch s {
	case StateUnbound:
		return "unbound"
	case StateBound:
		return "bound"
	case StateArmed:
		return "armed"
	case StateFired:
		return "fired"
	default:
		return "invalid"
	}
}

const listenBacklog = 128

// ListeningSocket is a bound, listening, not yet accepting unix domain
// socket owned by the supervisor. The descriptor is created non-blocking
// and close-on-exec; the spawner undoes both immediately before handing it
// to a child, and the supervisor's reference is dropped only after the
// child holds its own copy.
type ListeningSocket struct {
	path string

	mu    sync.Mutex
	state SocketState
	f     *os.File
}

// Bind creates a unix domain socket at path, binds and listens on it.
// Stale socket files are not cleaned up; a path that is already bound or
// otherwise unusable is an error the caller treats as fatal.
func Bind(path string) (*ListeningSocket, error) {
	fd, err := unix.Socket(unix.AF_UNIX, unix.SOCK_STREAM|unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create socket")
	}

	if err := unix.Bind(fd, &unix.SockaddrUnix{Name: path}); err != nil {
		unix.Close(fd)
		return nil, errors.Wrapf(err, "failed to bind %q", path)
	}

	if err := unix.Listen(fd, listenBacklog); err != nil {
		unix.Close(fd)
		return nil, errors.Wrapf(err, "failed to listen on %q", path)
	}

	return &ListeningSocket{
		path:  path,
		state: StateBound,
		f:     os.NewFile(uintptr(fd), path),
	}, nil
}

// Path returns the socket's filesystem path.
func (ls *ListeningSocket) Path() string { return ls.path }

// Fd returns the descriptor number.
func (ls *ListeningSocket) Fd() int { return int(ls.f.Fd()) }

// State returns the current lifecycle state.
func (ls *ListeningSocket) State() SocketState {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	return ls.state
}

// File returns the file wrapping the descriptor. Ownership stays with the
// socket; Close drops the supervisor's only reference.
func (ls *ListeningSocket) File() *os.File { return ls.f }

// Watch arms a one-shot readiness wait and blocks until the first
// connection attempt makes the socket readable. Fired is terminal: the
// watcher never re-arms, and later connections on the socket are the
// activated service's own responsibility. Interrupted polls are retried
// transparently; there is no timeout and no way to cancel an armed watch.
func (ls *ListeningSocket) Watch() error {
	ls.mu.Lock()
	if ls.state != StateBound {
		state := ls.state
		ls.mu.Unlock()
		return errors.Errorf("cannot arm watcher on %s socket", state)
	}
	ls.state = StateArmed
	fd := int(ls.f.Fd())
	ls.mu.Unlock()

	fds := []unix.PollFd{{Fd: int32(fd), Events: unix.POLLIN}}

	for {
		n, err := unix.Poll(fds, -1)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return errors.Wrapf(err, "failed to poll %q", ls.path)
		}
		if n > 0 && fds[0].Revents&unix.POLLIN != 0 {
			break
		}
	}

	ls.mu.Lock()
	ls.state = StateFired
	ls.mu.Unlock()

	return nil
}

// Close drops the supervisor's reference to the descriptor. It must only
// be called once a spawned child holds its own copy, or once the socket is
// being abandoned entirely.
func (ls *ListeningSocket) Close() error {
	return ls.f.Close()
}
