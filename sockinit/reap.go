package sockinit

import (
	"context"
	"os"
	"os/signal"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// Reaper is the supervisor-side loop that collects child state changes. It
// never restarts anything; exits are only journaled, labeled with the
// service name from the process table when one is known.
type Reaper struct {
	j     Journaler
	table *ProcTable
}

// NewReaper creates a reaper over the given process table.
func NewReaper(table *ProcTable, j Journaler) *Reaper {
	return &Reaper{j: j, table: table}
}

// Run installs the supervisor as child subreaper and blocks collecting
// child exits until ctx is canceled. It runs concurrently with still-armed
// watchers, since activation is demand-driven and may happen at any time.
// Transient wait failures are retried in place.
func (r *Reaper) Run(ctx context.Context) error {
	// Linux-only: become the subreaper so services cannot disown
	// themselves past us by double-forking.
	if err := unix.Prctl(unix.PR_SET_CHILD_SUBREAPER, 1, 0, 0, 0); err != nil {
		return errors.Wrap(err, "failed to set subreaper")
	}

	sig := make(chan os.Signal, 16)
	signal.Notify(sig, unix.SIGCHLD)
	defer signal.Stop(sig)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-sig:
			r.drain()
		}
	}
}

// drain collects every child that changed state since the last SIGCHLD.
func (r *Reaper) drain() {
	for {
		var status unix.WaitStatus

		pid, err := unix.Wait4(-1, &status, unix.WNOHANG, nil)
		switch {
		case err == unix.EINTR:
			// Momentary; retry in place.
			continue
		case err == unix.ECHILD, err == nil && pid == 0:
			// Nothing left to collect until the next SIGCHLD.
			return
		case err != nil:
			r.j.Write(&EventWarning{
				Component: "reaper",
				Error:     "wait4 error: " + err.Error(),
			})
			return
		}

		service, tracked := r.table.Reap(pid, status.ExitStatus())
		if !tracked {
			// The spawn path has not recorded this pid yet; the exit
			// stays parked and is journaled once the registration
			// catches up.
			continue
		}

		r.j.Write(&EventServiceExited{
			PID:      pid,
			Service:  service,
			ExitCode: status.ExitStatus(),
		})
	}
}
