package sockinit

import (
	"io"
	"log"
	"net"

	"github.com/pkg/errors"
)

// workerBufSize bounds a single read. The protocol is unframed: a request
// is whatever one read returns, and a reply is read the same way.
const workerBufSize = 1024

// Worker runs the request/reply loop for one accepted connection inside a
// service process. Requests are handled one at a time, synchronously;
// concurrency comes from running one worker per connection.
type Worker struct {
	service string
	conn    net.Conn
}

// NewWorker creates a worker for the given connection, replying on behalf
// of the named service.
func NewWorker(service string, conn net.Conn) *Worker {
	return &Worker{service: service, conn: conn}
}

// Run reads requests until the peer goes away. Every non-empty payload
// triggers f, then a reply naming the service is written back. A closed
// peer, a read error or a write error ends only this connection's loop;
// errors are logged, never propagated.
func (w *Worker) Run(f func()) {
	defer w.conn.Close()

	buf := make([]byte, workerBufSize)

	for {
		n, err := w.conn.Read(buf)
		if err != nil {
			if err != io.EOF {
				log.Printf("%s: error while reading from socket: %v, exiting worker", w.service, err)
			}
			return
		}
		if n == 0 {
			return
		}

		log.Printf("%s got message %q", w.service, buf[:n])

		f()

		if _, err := w.conn.Write([]byte("Answer from " + w.service)); err != nil {
			log.Printf("%s: couldn't write to stream, exiting worker", w.service)
			return
		}
	}
}

// Request performs one client round trip against a service's socket: write
// the payload, then read a single unframed reply of at most the buffer
// size. A zero-length reply means the service closed the stream.
func Request(path string, payload []byte) ([]byte, error) {
	conn, err := net.Dial("unix", path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to connect to %q", path)
	}
	defer conn.Close()

	if _, err := conn.Write(payload); err != nil {
		return nil, errors.Wrap(err, "failed to write request")
	}

	buf := make([]byte, workerBufSize)

	n, err := conn.Read(buf)
	if err != nil && err != io.EOF {
		return nil, errors.Wrap(err, "failed to read reply")
	}

	return buf[:n], nil
}
