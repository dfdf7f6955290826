package sockinit

import (
	"net"
	"os"
	"strconv"

	"github.com/pkg/errors"
)

// InheritedListener reclaims the listening socket handed over by the
// supervisor. It reads ListenFdEnv exactly once and unsets it, so the
// descriptor number never leaks into any process the service itself might
// spawn. The returned listener is already bound and listening; no bind or
// listen call is issued.
func InheritedListener() (net.Listener, error) {
	val, ok := os.LookupEnv(ListenFdEnv)
	if !ok {
		return nil, errors.Errorf("%s is not set", ListenFdEnv)
	}

	os.Unsetenv(ListenFdEnv)

	fd, err := strconv.Atoi(val)
	if err != nil {
		return nil, errors.Wrapf(err, "malformed %s value %q", ListenFdEnv, val)
	}

	f := os.NewFile(uintptr(fd), "inherited listener")
	if f == nil {
		return nil, errors.Errorf("invalid inherited descriptor %d", fd)
	}
	defer f.Close()

	ln, err := net.FileListener(f)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to use descriptor %d as listener", fd)
	}

	return ln, nil
}

// ListenerOrSelfBind resolves the two-variant startup strategy once, at
// initialization: use the supervisor-inherited listener when the handoff
// variable is present and valid, otherwise bind the service's well-known
// path directly so the same binary also runs standalone.
func ListenerOrSelfBind(path string) (net.Listener, error) {
	if ln, err := InheritedListener(); err == nil {
		return ln, nil
	}

	ln, err := net.Listen("unix", path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to bind %q", path)
	}

	return ln, nil
}
