package sockinit

import (
	"os"
	"path/filepath"
	"strconv"

	"git.unix.lgbt/diamondburned/sockinit/sockinit/internal/exec"
	"github.com/pkg/errors"
)

// ListenFdEnv is the reserved environment variable carrying the decimal
// descriptor number of the inherited listening socket.
const ListenFdEnv = "INIT_FD"

// listenFdSlot is the descriptor number the inherited listener occupies in
// the child: the first free slot after stdin, stdout and stderr.
const listenFdSlot = 3

// Spawner starts service binaries with an inherited listening socket,
// posix_spawn style: the descriptor to inherit is prepared explicitly and
// passed through an inheritance list rather than a raw fork.
type Spawner struct {
	// BinDir is the build-output directory service binaries are resolved
	// from; the binary path is BinDir joined with the service name.
	BinDir string

	startProc func(argv []string, attr *os.ProcAttr) (exec.Process, error)
}

// NewSpawner creates a spawner resolving binaries from binDir.
func NewSpawner(binDir string) *Spawner {
	return &Spawner{
		BinDir:    binDir,
		startProc: exec.StartProcess,
	}
}

// Spawn prepares the listener descriptor for inheritance and starts the
// service binary with no arguments beyond its own name. Close-on-exec is
// cleared so the descriptor survives the exec, and non-blocking mode is
// cleared so the child sees an ordinary blocking listening socket. The
// parent keeps its own reference to the descriptor; the caller drops it
// once Spawn has returned and the child's copy is live.
//
// A preparation or spawn failure leaves no way to proceed with the
// activation; callers treat it as fatal.
func (s *Spawner) Spawn(service string, listener *os.File) (exec.Process, error) {
	fd := int(listener.Fd())

	if err := ClearCloseOnExec(fd); err != nil {
		return nil, errors.Wrapf(err, "failed to make %q listener inheritable", service)
	}

	if err := SetBlocking(fd); err != nil {
		return nil, errors.Wrapf(err, "failed to restore blocking mode for %q", service)
	}

	argv := []string{filepath.Join(s.BinDir, service)}

	attr := os.ProcAttr{
		Env:   append(os.Environ(), ListenFdEnv+"="+strconv.Itoa(listenFdSlot)),
		Files: []*os.File{os.Stdin, os.Stdout, os.Stderr, listener},
	}

	proc, err := s.startProc(argv, &attr)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to start %q", argv[0])
	}

	return proc, nil
}
