// Package exec provides an abstraction around package os' Process
// implementation for easier testing.
package exec

import (
	"os"
)

// Process describes a spawned service process.
type Process interface {
	PID() int
	Signal(os.Signal) error
	Kill() error
	Wait() ExitStatus
}

// ExitStatus is a process' exit status.
type ExitStatus struct {
	PID   int
	Code  int // -1 if interrupted or terminated
	Error error
}

type process struct {
	*os.Process
}

var _ Process = process{}

// StartProcess starts argv[0] with the given attributes. A nil attr is
// valid and starts the process with the defaults.
func StartProcess(argv []string, attr *os.ProcAttr) (Process, error) {
	if attr == nil {
		attr = &os.ProcAttr{}
	}

	p, err := os.StartProcess(argv[0], argv, attr)
	if err != nil {
		return nil, err
	}

	return process{p}, nil
}

func (proc process) PID() int {
	return proc.Pid
}

// Wait waits for the process to exit. It must only be used by callers that
// own the child exclusively; the supervisor's reap loop collects children
// with a process-wide wait instead.
func (proc process) Wait() ExitStatus {
	s, err := proc.Process.Wait()

	status := ExitStatus{
		PID:   proc.Pid,
		Code:  -1,
		Error: err,
	}
	if s != nil {
		status.Code = s.ExitCode()
	}

	return status
}
