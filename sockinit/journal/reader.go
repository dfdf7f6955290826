package journal

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"git.unix.lgbt/diamondburned/sockinit/sockinit"
	"github.com/diamondburned/backwardio"
	"github.com/pkg/errors"
)

// Reader implements a primitive reader that can parse journals written by
// Writer, most recent entry first.
type Reader struct {
	b *backwardio.Scanner
}

// NewReader creates a new journal reader.
func NewReader(r io.ReadSeeker) *Reader {
	return &Reader{backwardio.NewScanner(r)}
}

// Read reads a single entry, starting from the end of the file. An EOF
// error is returned if the file has been fully consumed.
func (r *Reader) Read() (sockinit.Event, time.Time, error) {
	var line []byte
	var err error

	for {
		line, err = r.b.ReadUntil('\n')
		if err != nil {
			return nil, time.Time{}, err
		}
		if len(line) > 0 {
			break
		}
	}

	var rawEvent struct {
		Time time.Time       `json:"time"`
		Type string          `json:"type"`
		Data json.RawMessage `json:"data"`
	}

	if err := json.Unmarshal(line, &rawEvent); err != nil {
		return nil, time.Time{}, errors.Wrap(err, "failed to decode JSON")
	}

	event := sockinit.NewEvent(rawEvent.Type)
	if event == nil {
		return nil, time.Time{}, fmt.Errorf("unknown event %q", rawEvent.Type)
	}

	if err := json.Unmarshal(rawEvent.Data, event); err != nil {
		return nil, time.Time{}, errors.Wrap(err, "failed to decode event data")
	}

	return event, rawEvent.Time, nil
}

// ReadFile reads every event in the journal at path, most recent first.
func ReadFile(path string) ([]sockinit.Event, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := NewReader(f)

	var events []sockinit.Event

	for {
		ev, _, err := r.Read()
		if errors.Is(err, io.EOF) {
			return events, nil
		}
		if err != nil {
			return events, err
		}

		events = append(events, ev)
	}
}
