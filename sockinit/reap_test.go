package sockinit

import (
	"context"
	"os"
	"testing"
	"time"

	"git.unix.lgbt/diamondburned/sockinit/sockinit/internal/exec"
)

func TestReaper(t *testing.T) {
	const bin = "/bin/true"

	if _, err := os.Stat(bin); err != nil {
		t.Skip("no /bin/true on this system")
	}

	j := mockJournal{}
	table := NewProcTable()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	r := NewReaper(table, &j)

	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	// Give the loop a moment to install the signal handler before the
	// child can exit.
	time.Sleep(50 * time.Millisecond)

	proc, err := exec.StartProcess([]string{bin}, nil)
	if err != nil {
		t.Fatal("failed to start child:", err)
	}

	// The child may already be gone by the time it is recorded; label the
	// parked exit the way the activator does.
	if code, exited := table.Add(proc.PID(), "true"); exited {
		j.Write(&EventServiceExited{PID: proc.PID(), Service: "true", ExitCode: code})
	}

	ev := j.WaitFor(t, 2*time.Second, func(ev Event) bool {
		exited, ok := ev.(*EventServiceExited)
		return ok && exited.PID == proc.PID()
	})

	exited := ev.(*EventServiceExited)
	if exited.Service != "true" {
		t.Fatalf("exit not correlated to service, got %q", exited.Service)
	}
	if exited.ExitCode != 0 {
		t.Fatalf("unexpected exit code %d", exited.ExitCode)
	}

	// The reaped child must have left the process table.
	if _, ok := table.Service(proc.PID()); ok {
		t.Fatal("expected reaped pid to be removed from table")
	}

	cancel()
	<-done
}
