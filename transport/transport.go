// Package transport carries length-delimited binary frames over a secure
// WebSocket connection to an ACNET gateway.
package transport

import (
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// SubProtocol is the WebSocket subprotocol an ACNET gateway expects.
const SubProtocol = "acnet-client"

// Transport is a single WebSocket connection to a gateway. Frames read
// off the wire are delivered on the channel returned by Frames; Done
// closes and Err reports the terminal error when the read loop exits.
//
// Transport owns exactly two goroutines: one reading, one writing. All
// state handed between them crosses a channel; there is no lock.
type Transport struct {
	conn *websocket.Conn

	frames chan []byte
	done   chan struct{}
	err    error

	send     chan sendReq
	sendQuit chan struct{}
}

type sendReq struct {
	data []byte
	err  chan<- error
}

var dialer = websocket.Dialer{
	HandshakeTimeout:  10 * time.Second,
	EnableCompression: false,
	Subprotocols:      []string{SubProtocol},
}

// Dial opens a WebSocket connection to url and starts its read and write
// loops. The caller must eventually call Close.
func Dial(url string, header http.Header) (*Transport, error) {
	conn, _, err := dialer.Dial(url, header)
	if err != nil {
		return nil, err
	}
	conn.EnableWriteCompression(false)

	t := &Transport{
		conn:     conn,
		frames:   make(chan []byte),
		done:     make(chan struct{}),
		send:     make(chan sendReq),
		sendQuit: make(chan struct{}),
	}

	go t.recvLoop()
	go t.sendLoop()

	return t, nil
}

// Frames returns the channel of inbound binary frames. It is closed when
// the connection drops; Err then reports why.
func (t *Transport) Frames() <-chan []byte { return t.frames }

// Done closes when the read loop exits, for any reason.
func (t *Transport) Done() <-chan struct{} { return t.done }

// Err returns the read error that ended the connection. After Close it
// is the error the closed connection's read produced.
func (t *Transport) Err() error { return t.err }

// Send queues data for transmission and blocks until it has been written
// or the connection drops.
func (t *Transport) Send(data []byte) error {
	errc := make(chan error, 1)
	select {
	case t.send <- sendReq{data: data, err: errc}:
	case <-t.sendQuit:
		return errors.New("transport: connection closed")
	}
	select {
	case err := <-errc:
		return err
	case <-t.sendQuit:
		return errors.New("transport: connection closed")
	}
}

// Close shuts the connection down from the caller's side.
func (t *Transport) Close() error {
	return t.conn.Close()
}

func (t *Transport) recvLoop() {
	defer close(t.frames)
	defer close(t.done)

	for {
		kind, data, err := t.conn.ReadMessage()
		if err != nil {
			t.err = err
			return
		}
		if kind != websocket.BinaryMessage {
			continue
		}
		select {
		case t.frames <- data:
		case <-t.done:
			return
		}
	}
}

func (t *Transport) sendLoop() {
	defer close(t.sendQuit)

	for req := range t.send {
		err := t.conn.WriteMessage(websocket.BinaryMessage, req.data)
		req.err <- err
		if err != nil {
			return
		}
	}
}
