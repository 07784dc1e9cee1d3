package acnet

import (
	"container/list"
	"fmt"

	"github.com/fermi-controls/acnet-go/frame"
	"github.com/fermi-controls/acnet-go/status"
	"github.com/fermi-controls/acnet-go/transport"
)

// Reply is one reply delivered for an outstanding request.
type Reply struct {
	Status   status.Status
	Sender   uint16
	Data     []byte
	Terminal bool
}

// ackSink receives the command-ack for exactly one submitted command, in
// the order submitted. Gateway acks never carry a correlation id of
// their own; FIFO order against cmd_queue is the only correlation the
// wire format offers.
type ackSink func(frame.CommandAck)

type submission struct {
	cmd    []byte
	ack    ackSink
	result chan<- error
}

type pendingRequest struct {
	replies chan Reply
	multi   bool
}

// dispatcher owns cmd_queue (acks awaited, FIFO) and req_table (replies
// awaited, keyed by request-id) for a single underlying transport
// connection. All of its state is touched by exactly one goroutine, run;
// every other method hands work to that goroutine over a channel.
type dispatcher struct {
	transport *transport.Transport

	submitCh chan submission
	cancelCh chan uint16

	cmdQueue *list.List
	reqTable map[uint16]*pendingRequest

	metrics *connMetrics
	done    chan struct{}
}

var errDispatcherClosed = fmt.Errorf("acnet: connection closed: %w", ErrDisconnected)

func newDispatcher(t *transport.Transport, m *connMetrics) *dispatcher {
	d := &dispatcher{
		transport: t,
		submitCh:  make(chan submission),
		cancelCh:  make(chan uint16),
		cmdQueue:  list.New(),
		reqTable:  make(map[uint16]*pendingRequest),
		metrics:   m,
		done:      make(chan struct{}),
	}
	go d.run()
	return d
}

// submit enqueues cmd for transmission and arranges for ack to be called,
// from the run goroutine, with the matching command-ack.
func (d *dispatcher) submit(cmd []byte, ack ackSink) error {
	result := make(chan error, 1)
	select {
	case d.submitCh <- submission{cmd: cmd, ack: ack, result: result}:
	case <-d.done:
		return errDispatcherClosed
	}
	select {
	case err := <-result:
		return err
	case <-d.done:
		return errDispatcherClosed
	}
}

// registerRequest records a request-id awaiting replies. It must only be
// called from within an ackSink, i.e. from the run goroutine, so the
// insertion happens before any reply for that id can possibly arrive.
func (d *dispatcher) registerRequest(requestID uint16, multi bool) <-chan Reply {
	replies := make(chan Reply, 8)
	d.reqTable[requestID] = &pendingRequest{replies: replies, multi: multi}
	return replies
}

// cancel drops req_table's entry for requestID and closes its reply
// channel. It sends nothing to the gateway; ReplyStream.Cancel submits
// the Cancel-request command separately.
func (d *dispatcher) cancel(requestID uint16) {
	select {
	case d.cancelCh <- requestID:
	case <-d.done:
	}
}

func (d *dispatcher) run() {
	defer close(d.done)
	defer d.drain()

	for {
		select {
		case sub, ok := <-d.submitCh:
			if !ok {
				return
			}
			err := d.transport.Send(sub.cmd)
			if err == nil {
				d.cmdQueue.PushBack(sub.ack)
			}
			sub.result <- err
			if err != nil {
				return
			}

		case requestID := <-d.cancelCh:
			if pending, ok := d.reqTable[requestID]; ok {
				delete(d.reqTable, requestID)
				close(pending.replies)
			}

		case raw, ok := <-d.transport.Frames():
			if !ok {
				return
			}
			d.dispatch(raw)
		}
	}
}

func (d *dispatcher) dispatch(raw []byte) {
	kind, v, err := frame.Parse(raw)
	if err != nil {
		if d.metrics != nil {
			d.metrics.frames_dropped_total.Inc()
		}
		return
	}

	switch kind {
	case frame.KindCommandAck:
		front := d.cmdQueue.Front()
		if front == nil {
			if d.metrics != nil {
				d.metrics.frames_dropped_total.Inc()
			}
			return
		}
		d.cmdQueue.Remove(front)
		front.Value.(ackSink)(v.(frame.CommandAck))

	case frame.KindNetworkReply:
		reply := v.(frame.NetworkReply)
		pending, ok := d.reqTable[reply.RequestID]
		if !ok {
			if d.metrics != nil {
				d.metrics.frames_dropped_total.Inc()
			}
			return
		}

		r := Reply{Status: reply.Status, Sender: reply.Sender, Data: reply.Data, Terminal: reply.Terminal}
		if reply.Terminal || !pending.multi {
			delete(d.reqTable, reply.RequestID)
			pending.replies <- r
			close(pending.replies)
			return
		}
		pending.replies <- r
	}
}

// drain resolves every queued command with the synthetic disconnect ack,
// per the documented behavior that only command-ack bookkeeping reacts
// to a dropped transport; requests the gateway had already accepted are
// left in req_table, and their reply channels are neither fed nor
// closed after the drop.
func (d *dispatcher) drain() {
	for e := d.cmdQueue.Front(); e != nil; e = d.cmdQueue.Front() {
		d.cmdQueue.Remove(e)
		e.Value.(ackSink)(frame.DisconnectAck)
	}
}
