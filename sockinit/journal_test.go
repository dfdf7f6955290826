package sockinit

import (
	"reflect"
	"sync"
	"testing"
	"time"
)

// mockJournal is an in-memory storage of journal events, primarily used
// for testing. A zero-value instance is a valid instance.
type mockJournal struct {
	mutex    sync.Mutex
	journals []Event
}

var _ Journaler = (*mockJournal)(nil)

// Write appends a journal event into the internal store.
func (m *mockJournal) Write(ev Event) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.journals = append(m.journals, ev)
	return nil
}

// Journals returns a copy of the journal slice.
func (m *mockJournal) Journals() []Event {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	return append([]Event(nil), m.journals...)
}

// Verify verifies that the given journals slice is equal to the one stored
// internally. If strict is true, then a length check is performed,
// otherwise, the unmatched events are returned.
//
// Consecutive calls to Verify will match the remaining unmatched events.
func (m *mockJournal) Verify(t *testing.T, strict bool, journals []Event) []Event {
	t.Helper()

	m.mutex.Lock()
	defer m.mutex.Unlock()

	if strict && len(journals) != len(m.journals) {
		t.Errorf("mismatch journal length, got %d, expected %d", len(m.journals), len(journals))
		return nil
	}

	for i, ev := range journals {
		if !reflect.DeepEqual(m.journals[i], ev) {
			t.Errorf("journal %d mismatch, got %#v, expected %#v", i, m.journals[i], ev)
		}
	}

	m.journals = m.journals[len(journals):]
	return m.journals
}

// WaitFor polls the journal until an event matches f or the timeout is
// reached, in which case the test fails.
func (m *mockJournal) WaitFor(t *testing.T, timeout time.Duration, f func(Event) bool) Event {
	t.Helper()

	deadline := time.Now().Add(timeout)

	for {
		for _, ev := range m.Journals() {
			if f(ev) {
				return ev
			}
		}

		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for journal event, have %#v", m.Journals())
			return nil
		}

		time.Sleep(5 * time.Millisecond)
	}
}
