package sockinit

import (
	"sync"

	"github.com/pkg/errors"
)

// ErrUnknownService is returned by Lookup for a name that was never
// registered. An unregistered service is a configuration error, not a
// recoverable runtime condition; callers are expected to abort on it.
var ErrUnknownService = errors.New("unknown service")

// Registry maps service names to the unix socket paths that activate them.
// It is populated once during startup and seals itself on the first read;
// everything after that is shared lookups. The mutex is defensive only,
// since population strictly precedes the watcher phase and no writer can
// exist once watchers run.
type Registry struct {
	mu     sync.RWMutex
	sealed bool
	paths  map[string]string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{paths: map[string]string{}}
}

// Register adds a service and its socket path. It fails once the registry
// has been read from, because watchers assume the service table never
// changes underneath them.
func (r *Registry) Register(name, socketPath string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sealed {
		return errors.New("registry is sealed after first lookup")
	}

	if _, ok := r.paths[name]; ok {
		return errors.Errorf("service %q already registered", name)
	}

	r.paths[name] = socketPath
	return nil
}

// Lookup resolves a service name to its socket path. The first call seals
// the registry against further Register calls. The returned path stays the
// same for the lifetime of the process.
func (r *Registry) Lookup(name string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sealed = true

	path, ok := r.paths[name]
	if !ok {
		return "", errors.Wrap(ErrUnknownService, name)
	}

	return path, nil
}

// Each calls f for every registered service and seals the registry.
func (r *Registry) Each(f func(name, socketPath string)) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sealed = true

	for name, path := range r.paths {
		f(name, path)
	}
}
