package sockinit

import "sync"

// ProcTable records which service each spawned child runs. It is populated
// at spawn time and consulted by the reap loop to label exits; it is also
// the foundation any future restart policy would need, though sockinit
// itself never restarts anything.
//
// A child can exit before the spawn path has recorded its pid, so the
// table reconciles the two orders: an exit collected for an unknown pid is
// parked until the matching Add consumes it.
type ProcTable struct {
	mu     sync.Mutex
	pids   map[int]string
	exited map[int]int // exit codes collected before their Add
}

// NewProcTable creates an empty process table.
func NewProcTable() *ProcTable {
	return &ProcTable{
		pids:   map[int]string{},
		exited: map[int]int{},
	}
}

// Add records that pid runs the given service. If the reap loop already
// collected the child's exit, Add consumes the parked exit code and
// reports it; the pid is then not tracked any further.
func (t *ProcTable) Add(pid int, service string) (code int, exited bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if code, ok := t.exited[pid]; ok {
		delete(t.exited, pid)
		return code, true
	}

	t.pids[pid] = service
	return 0, false
}

// Reap removes pid from the table, returning the service it ran. An exit
// for a pid that is not tracked yet is parked for the Add that is still
// on its way; ok reports whether the pid was tracked.
func (t *ProcTable) Reap(pid, code int) (service string, ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if service, ok := t.pids[pid]; ok {
		delete(t.pids, pid)
		return service, true
	}

	t.exited[pid] = code
	return "", false
}

// Service returns the service that pid runs, if tracked.
func (t *ProcTable) Service(pid int) (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	service, ok := t.pids[pid]
	return service, ok
}

// Len returns the number of tracked children.
func (t *ProcTable) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return len(t.pids)
}
