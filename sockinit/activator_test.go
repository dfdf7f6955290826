package sockinit

import (
	"fmt"
	"net"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"git.unix.lgbt/diamondburned/sockinit/sockinit/internal/exec"
)

// fakeService stands in for an exec'd service binary: it reclaims the
// listener from the inheritance list and serves connections with a worker,
// the way a real service would after reading the handoff variable.
func fakeService(name string, spawned *int32) func([]string, *os.ProcAttr) (exec.Process, error) {
	return func(argv []string, attr *os.ProcAttr) (exec.Process, error) {
		atomic.AddInt32(spawned, 1)

		ln, err := net.FileListener(attr.Files[listenFdSlot])
		if err != nil {
			return nil, err
		}

		go func() {
			for {
				conn, err := ln.Accept()
				if err != nil {
					return
				}
				go NewWorker(name, conn).Run(func() {})
			}
		}()

		return exec.NewSleepProcess(forever, 0, 7), nil
	}
}

func TestActivation(t *testing.T) {
	path := tempSocket(t)

	reg := NewRegistry()
	if err := reg.Register("test", path); err != nil {
		t.Fatal("failed to register:", err)
	}

	var spawned int32

	sp := NewSpawner("bin")
	sp.startProc = fakeService("test", &spawned)

	j := mockJournal{}
	table := NewProcTable()

	act := NewActivator(reg, sp, table, &j)

	fatalCh := make(chan string, 1)
	act.fatalf = func(f string, v ...interface{}) { fatalCh <- fmt.Sprintf(f, v...) }

	if err := act.WatchAll(); err != nil {
		t.Fatal("failed to arm watchers:", err)
	}

	// No service process may exist until a connection attempt targets its
	// socket.
	time.Sleep(10 * time.Millisecond)
	if n := atomic.LoadInt32(&spawned); n != 0 {
		t.Fatalf("service spawned %d times before demand", n)
	}

	// The connection that triggers activation must receive a reply
	// without being dropped.
	reply, err := Request(path, []byte("Hello"))
	if err != nil {
		t.Fatal("request failed:", err)
	}
	if !strings.Contains(string(reply), "test") {
		t.Fatalf("reply %q does not identify the service", reply)
	}

	act.Wait()

	select {
	case msg := <-fatalCh:
		t.Fatal("activation aborted:", msg)
	default:
	}

	if service, ok := table.Service(7); !ok || service != "test" {
		t.Fatalf("process table does not track the child, got %q", service)
	}

	// Independent clients of the activated service each get their own
	// correctly addressed reply.
	for i := 0; i < 3; i++ {
		reply, err := Request(path, []byte("again"))
		if err != nil {
			t.Fatal("repeat request failed:", err)
		}
		if string(reply) != "Answer from test" {
			t.Fatalf("unexpected reply %q", reply)
		}
	}

	if n := atomic.LoadInt32(&spawned); n != 1 {
		t.Fatalf("expected a single one-shot spawn, got %d", n)
	}

	j.Verify(t, true, []Event{
		&EventSocketBound{Service: "test", Path: path},
		&EventServiceActivated{Service: "test", Path: path},
		&EventServiceSpawned{Service: "test", PID: 7},
	})
}

func TestActivationShortLived(t *testing.T) {
	path := tempSocket(t)

	reg := NewRegistry()
	if err := reg.Register("test", path); err != nil {
		t.Fatal("failed to register:", err)
	}

	j := mockJournal{}
	table := NewProcTable()

	// The child exits so fast that the reap loop collects it before the
	// activator has recorded the pid; the parked exit must still come out
	// labeled with the service name.
	sp := NewSpawner("bin")
	sp.startProc = func(argv []string, attr *os.ProcAttr) (exec.Process, error) {
		table.Reap(9, 2)
		return exec.NewSleepProcess(0, 0, 9), nil
	}

	act := NewActivator(reg, sp, table, &j)

	fatalCh := make(chan string, 1)
	act.fatalf = func(f string, v ...interface{}) { fatalCh <- fmt.Sprintf(f, v...) }

	if err := act.WatchAll(); err != nil {
		t.Fatal("failed to arm watchers:", err)
	}

	conn, err := net.Dial("unix", path)
	if err != nil {
		t.Fatal("failed to trigger activation:", err)
	}
	conn.Close()

	act.Wait()

	select {
	case msg := <-fatalCh:
		t.Fatal("activation aborted:", msg)
	default:
	}

	j.Verify(t, true, []Event{
		&EventSocketBound{Service: "test", Path: path},
		&EventServiceActivated{Service: "test", Path: path},
		&EventServiceSpawned{Service: "test", PID: 9},
		&EventServiceExited{PID: 9, Service: "test", ExitCode: 2},
	})

	if table.Len() != 0 {
		t.Fatalf("expected no stale pids, got %d", table.Len())
	}
}

func TestActivatorStart(t *testing.T) {
	path := tempSocket(t)

	reg := NewRegistry()
	if err := reg.Register("test", path); err != nil {
		t.Fatal("failed to register:", err)
	}

	var spawned int32

	sp := NewSpawner("bin")
	sp.startProc = fakeService("test", &spawned)

	j := mockJournal{}

	act := NewActivator(reg, sp, NewProcTable(), &j)

	fatalCh := make(chan string, 1)
	act.fatalf = func(f string, v ...interface{}) { fatalCh <- fmt.Sprintf(f, v...) }

	if err := act.WatchAll(); err != nil {
		t.Fatal("failed to arm watchers:", err)
	}

	// Poking a service activates it without real demand.
	if err := act.Start("test"); err != nil {
		t.Fatal("failed to start:", err)
	}

	act.Wait()

	if n := atomic.LoadInt32(&spawned); n != 1 {
		t.Fatalf("expected one spawn, got %d", n)
	}
}

func TestActivatorStartUnknown(t *testing.T) {
	act := NewActivator(NewRegistry(), NewSpawner("bin"), NewProcTable(), &mockJournal{})

	if err := act.Start("nope"); err == nil {
		t.Fatal("expected unknown service to fail")
	}
}
