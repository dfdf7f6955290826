package sockinit

import (
	"log"
	"net"
	"sync"

	"github.com/pkg/errors"
)

// Activator owns the activation pipeline: it binds one listening socket
// per registered service, arms a one-shot watcher for each, and spawns the
// service on the first connection attempt. Watchers only start after the
// registry is sealed, so no write can race a lookup.
type Activator struct {
	reg   *Registry
	sp    *Spawner
	table *ProcTable
	j     Journaler

	wg     sync.WaitGroup
	fatalf func(format string, v ...interface{})
}

// NewActivator creates an activator over the given registry, spawner and
// process table.
func NewActivator(reg *Registry, sp *Spawner, table *ProcTable, j Journaler) *Activator {
	return &Activator{
		reg:    reg,
		sp:     sp,
		table:  table,
		j:      j,
		fatalf: log.Fatalf,
	}
}

// WatchAll binds every registered service's socket and arms its watcher.
// It returns once all watchers are armed; the watchers keep running until
// their socket fires. A bind failure is returned immediately and the
// caller treats it as fatal.
func (a *Activator) WatchAll() error {
	var firstErr error

	a.reg.Each(func(service, path string) {
		if firstErr != nil {
			return
		}

		ls, err := Bind(path)
		if err != nil {
			firstErr = errors.Wrapf(err, "failed to bind socket for %q", service)
			return
		}

		a.j.Write(&EventSocketBound{Service: service, Path: path})

		a.wg.Add(1)
		go a.watch(service, ls)
	})

	return firstErr
}

// watch blocks in the one-shot readiness wait, then hands the socket off
// to the spawner. The supervisor's descriptor reference is dropped only
// after the spawn returns, when the child's copy is already live; dropping
// it earlier would close the only extant reference to the socket.
func (a *Activator) watch(service string, ls *ListeningSocket) {
	defer a.wg.Done()

	if err := ls.Watch(); err != nil {
		a.fatalf("failed to watch socket for %q: %v", service, err)
		return
	}

	a.j.Write(&EventServiceActivated{Service: service, Path: ls.Path()})

	proc, err := a.sp.Spawn(service, ls.File())
	if err != nil {
		a.j.Write(&EventServiceSpawnError{Service: service, Reason: err.Error()})
		a.fatalf("failed to spawn %q: %v", service, err)
		return
	}

	code, exited := a.table.Add(proc.PID(), service)
	a.j.Write(&EventServiceSpawned{Service: service, PID: proc.PID()})

	if exited {
		// The child exited before its registration; the reap loop parked
		// the exit for us to label.
		a.j.Write(&EventServiceExited{PID: proc.PID(), Service: service, ExitCode: code})
	}

	ls.Close()
}

// Wait blocks until every armed watcher has fired and spawned its service.
func (a *Activator) Wait() {
	a.wg.Wait()
}

// Start force-activates a service by connecting to its socket, without
// waiting for real demand. An unknown service name is a configuration
// error and is returned as one.
func (a *Activator) Start(service string) error {
	path, err := a.reg.Lookup(service)
	if err != nil {
		return err
	}

	conn, err := net.Dial("unix", path)
	if err != nil {
		return errors.Wrapf(err, "failed to connect to %q", path)
	}

	return conn.Close()
}
