package transport

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mta-alliance/mtad/pkg/mta/wire"
)

type fakeWSConn struct {
	written chan string
	toRead  chan string
	closed  bool
}

func newFakeWSConn() *fakeWSConn {
	return &fakeWSConn{
		written: make(chan string, 16),
		toRead:  make(chan string, 16),
	}
}

func (f *fakeWSConn) ReadMessage() (int, []byte, error) {
	line, ok := <-f.toRead
	if !ok {
		return 0, nil, errClosed
	}
	return textMessage, []byte(line), nil
}

func (f *fakeWSConn) WriteMessage(messageType int, data []byte) error {
	f.written <- string(data)
	return nil
}

func (f *fakeWSConn) Close() error {
	f.closed = true
	close(f.toRead)
	return nil
}

var errClosed = fakeClosedErr{}

type fakeClosedErr struct{}

func (fakeClosedErr) Error() string { return "closed" }

func TestDriverSend(t *testing.T) {
	conn := newFakeWSConn()
	d := newDriver(conn)

	msg := wire.NewVersionNegotiation(0, 3)
	require.NoError(t, d.send(msg))

	select {
	case got := <-conn.written:
		require.Equal(t, msg.Serialize(), got)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for write")
	}
}

func TestDriverReadLoop(t *testing.T) {
	conn := newFakeWSConn()
	d := newDriver(conn)

	var received []wire.Message
	done := make(chan struct{})
	go func() {
		_ = d.readLoop(func(m wire.Message) {
			received = append(received, m)
			if len(received) == 2 {
				close(done)
			}
		})
	}()

	conn.toRead <- "action:1:versionNegotiation?{\"version\":3}"
	conn.toRead <- "garbage that does not parse"
	conn.toRead <- "ack:1:versionNegotiation"

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for messages")
	}

	require.Len(t, received, 2)
	require.Equal(t, wire.ActionVersionNegotiation, received[0].Name)
	require.True(t, received[1].IsAck())
}

func TestPostQueueOrdering(t *testing.T) {
	q := newPostQueue()
	defer q.Stop()

	var order []int
	done := make(chan struct{})
	for i := 0; i < 5; i++ {
		i := i
		q.Post(func() {
			order = append(order, i)
			if i == 4 {
				close(done)
			}
		})
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("timed out")
	}
	require.Equal(t, []int{0, 1, 2, 3, 4}, order)
}
