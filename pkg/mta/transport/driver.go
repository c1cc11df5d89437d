// Package transport binds the session state machines to real sockets:
// a gorilla/websocket control channel, an HTTPS bundle endpoint, and
// the BLE/Wi-Fi credential exchange that sets both of those up.
package transport

import (
	"fmt"
	"sync"

	"github.com/mta-alliance/mtad/pkg/mta/wire"
)

// wsConn is the subset of *websocket.Conn the driver needs, narrowed
// so tests can substitute an in-memory fake.
type wsConn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// driver owns one WebSocket connection and serializes writes onto it,
// since gorilla/websocket forbids concurrent writers on the same
// connection.
type driver struct {
	conn    wsConn
	writeMu sync.Mutex
}

func newDriver(conn wsConn) *driver {
	return &driver{conn: conn}
}

func (d *driver) send(msg wire.Message) error {
	data := msg.Serialize()
	d.writeMu.Lock()
	defer d.writeMu.Unlock()
	if err := d.conn.WriteMessage(textMessage, []byte(data)); err != nil {
		return fmt.Errorf("mta/transport: write: %w", err)
	}
	return nil
}

// readLoop pumps inbound frames until a read fails (e.g. the
// connection closes). Frames that do not parse are dropped and the loop
// goes on; handle is invoked for each successfully parsed message, in
// receive order, per the FIFO ordering guarantee.
func (d *driver) readLoop(handle func(wire.Message)) error {
	for {
		_, data, err := d.conn.ReadMessage()
		if err != nil {
			return err
		}

		msg, err := wire.Parse(string(data))
		if err != nil || msg == nil {
			continue
		}
		handle(*msg)
	}
}

func (d *driver) close() error {
	return d.conn.Close()
}

// textMessage mirrors websocket.TextMessage without importing gorilla
// into this file, so wsConn stays a pure narrow interface.
const textMessage = 1

// postQueue is the thread-safe post primitive of §9: a single consumer
// goroutine drains posted closures in order, giving callback-driven
// producers (BLE notifications, the WebSocket read loop, the HTTP
// download) a way to hand work back to one serialized driver loop
// without their own locking.
type postQueue struct {
	work chan func()
	done chan struct{}
}

func newPostQueue() *postQueue {
	q := &postQueue{
		work: make(chan func(), 64),
		done: make(chan struct{}),
	}
	go q.run()
	return q
}

func (q *postQueue) run() {
	for {
		select {
		case fn := <-q.work:
			fn()
		case <-q.done:
			return
		}
	}
}

// Post enqueues fn to run on the driver's single goroutine. Safe to
// call from any goroutine, including native BLE callbacks.
func (q *postQueue) Post(fn func()) {
	select {
	case q.work <- fn:
	case <-q.done:
	}
}

func (q *postQueue) Stop() {
	close(q.done)
}
