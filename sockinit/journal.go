package sockinit

// Journaler describes an event logger. Implementations must be safe for
// concurrent writes, since watcher goroutines and the reap loop journal
// independently.
type Journaler interface {
	Write(Event) error
}
