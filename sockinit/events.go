package sockinit

// eventType describes an event type.
type eventType = string

const (
	eventWarning          eventType = "warning"
	eventAcquired         eventType = "acquired lock"
	eventSocketBound      eventType = "socket bound"
	eventServiceActivated eventType = "service activated"
	eventServiceSpawned   eventType = "service spawned"
	eventServiceSpawnErr  eventType = "service spawn error"
	eventServiceExited    eventType = "service exited"
	eventBinaryListModify eventType = "binary list modified"
)

// Event is an interface describing known events.
type Event interface {
	Type() string
	event()
}

// NewEvent creates a new event from the given event type. It is used
// primarily for decoding events from its type. Nil is returned if the
// event type is unknown.
func NewEvent(eventType string) Event {
	switch eventType {
	case eventWarning:
		return &EventWarning{}
	case eventAcquired:
		return &EventAcquired{}
	case eventSocketBound:
		return &EventSocketBound{}
	case eventServiceActivated:
		return &EventServiceActivated{}
	case eventServiceSpawned:
		return &EventServiceSpawned{}
	case eventServiceSpawnErr:
		return &EventServiceSpawnError{}
	case eventServiceExited:
		return &EventServiceExited{}
	case eventBinaryListModify:
		return &EventBinaryListModify{}
	default:
		return nil
	}
}

// EventWarning is emitted when a non-fatal error occurs.
type EventWarning struct {
	Component string `json:"component"`
	Error     string `json:"error"`
}

func (ev *EventWarning) Type() string { return eventWarning }
func (ev *EventWarning) event()       {}

// EventAcquired is emitted when the flock (i.e. write lock on the journal)
// is acquired, which is on startup.
type EventAcquired struct{}

func (ev *EventAcquired) Type() string { return eventAcquired }
func (ev *EventAcquired) event()       {}

// EventSocketBound is emitted when the supervisor has bound a service's
// listening socket, before its watcher is armed.
type EventSocketBound struct {
	Service string `json:"service"`
	Path    string `json:"path"`
}

func (ev *EventSocketBound) Type() string { return eventSocketBound }
func (ev *EventSocketBound) event()       {}

// EventServiceActivated is emitted when the first connection attempt
// arrives on a service's socket, right before the service is spawned.
type EventServiceActivated struct {
	Service string `json:"service"`
	Path    string `json:"path"`
}

func (ev *EventServiceActivated) Type() string { return eventServiceActivated }
func (ev *EventServiceActivated) event()       {}

// EventServiceSpawned is emitted when a service process has been started.
type EventServiceSpawned struct {
	Service string `json:"service"`
	PID     int    `json:"pid"`
}

func (ev *EventServiceSpawned) Type() string { return eventServiceSpawned }
func (ev *EventServiceSpawned) event()       {}

// EventServiceSpawnError is emitted when a service fails to start for any
// reason.
type EventServiceSpawnError struct {
	Service string `json:"service"`
	Reason  string `json:"reason"`
}

func (ev *EventServiceSpawnError) Type() string { return eventServiceSpawnErr }
func (ev *EventServiceSpawnError) event()       {}

// EventServiceExited is emitted when the reap loop collects a child exit.
// Service is empty if the child was not in the process table.
type EventServiceExited struct {
	PID      int    `json:"pid"`
	Service  string `json:"service,omitempty"`
	ExitCode int    `json:"exit_code"` // -1 if interrupted or terminated
}

func (ev *EventServiceExited) Type() string { return eventServiceExited }
func (ev *EventServiceExited) event()       {}

// EventBinaryListModify is emitted when a service binary is added, updated
// or removed in the binary directory. The supervisor only records these; a
// binary swapped while its socket is still armed is worth a journal trail,
// nothing more.
type EventBinaryListModify struct {
	Op   BinaryListModifyOp `json:"op"`
	File string             `json:"file"`
}

// BinaryListModifyOp contains possible operations that modify the binary
// directory.
type BinaryListModifyOp string

const (
	BinaryListAdd    BinaryListModifyOp = "add"
	BinaryListRemove BinaryListModifyOp = "remove"
	BinaryListUpdate BinaryListModifyOp = "update"
)

func (ev *EventBinaryListModify) Type() string { return eventBinaryListModify }
func (ev *EventBinaryListModify) event()       {}
