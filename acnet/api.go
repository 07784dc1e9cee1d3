package acnet

import (
	"strconv"
	"time"

	"github.com/fermi-controls/acnet-go/frame"
	"github.com/fermi-controls/acnet-go/rad50"
)

// Handle returns the connection handle assigned by the gateway, and
// whether the connection currently holds one.
func (c *Connection) Handle() (uint32, bool) {
	_, handle, ok := c.current()
	return handle, ok
}

// GetLocalNode returns the name of the node this client is running on:
// it asks the gateway for the local node's address and resolves that
// address with GetNodeName.
func (c *Connection) GetLocalNode() (string, error) {
	disp, handle, ok := c.current()
	if !ok {
		return "", ErrDisconnected
	}

	ackCh := make(chan frame.CommandAck, 1)
	if err := disp.submit(frame.LocalNode(handle), func(a frame.CommandAck) { ackCh <- a }); err != nil {
		return "", err
	}
	ack := <-ackCh
	if err := newStatusError(ack.Status); err != nil {
		return "", err
	}
	return c.GetNodeName(ack.ResultAddr())
}

// localNodeName is the reserved name every ACNET node resolves to its
// own address 0 without a round trip to the gateway.
const localNodeName = "LOCAL"

// GetNodeAddress resolves a node name to its 16-bit address. Concurrent
// lookups of the same name share one round trip to the gateway.
// GetNodeAddress("LOCAL") always returns 0 without any transport I/O.
func (c *Connection) GetNodeAddress(name string) (uint16, error) {
	if name == localNodeName {
		return 0, nil
	}
	v, err, _ := c.nameLookups.Do(name, func() (any, error) {
		disp, handle, ok := c.current()
		if !ok {
			return uint16(0), ErrDisconnected
		}

		ackCh := make(chan frame.CommandAck, 1)
		if err := disp.submit(frame.NodeNameToAddress(handle, name), func(a frame.CommandAck) { ackCh <- a }); err != nil {
			return uint16(0), err
		}
		ack := <-ackCh
		if err := newStatusError(ack.Status); err != nil {
			return uint16(0), err
		}
		return ack.ResultAddr(), nil
	})
	if err != nil {
		return 0, err
	}
	return v.(uint16), nil
}

// GetNodeName resolves a 16-bit node address to its name. Concurrent
// lookups of the same address share one round trip to the gateway.
// GetNodeName(0) always returns "LOCAL" without any transport I/O.
func (c *Connection) GetNodeName(addr uint16) (string, error) {
	if addr == 0 {
		return localNodeName, nil
	}
	key := strconv.FormatUint(uint64(addr), 16)
	v, err, _ := c.addrLookups.Do(key, func() (any, error) {
		disp, handle, ok := c.current()
		if !ok {
			return "", ErrDisconnected
		}

		ackCh := make(chan frame.CommandAck, 1)
		if err := disp.submit(frame.AddressToNodeName(handle, addr), func(a frame.CommandAck) { ackCh <- a }); err != nil {
			return "", err
		}
		ack := <-ackCh
		if err := newStatusError(ack.Status); err != nil {
			return "", err
		}
		return rad50.Decode(ack.ResultRAD50()), nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (c *Connection) resolve(addr string) (taskAddr, error) {
	return parseTaskAddr(addr, c.GetNodeAddress)
}

// RequestReply sends data to addr ("TASK@NODE") and returns its single
// reply, passing cfg.RequestTimeout to the gateway as the request's
// timeout.
func (c *Connection) RequestReply(addr string, data []byte) (Reply, error) {
	return c.RequestReplyTimeout(addr, data, c.cfg.RequestTimeout)
}

// RequestReplyTimeout is RequestReply with an explicit timeout.
func (c *Connection) RequestReplyTimeout(addr string, data []byte, timeout time.Duration) (Reply, error) {
	stream, err := c.requestReply(addr, data, false, timeout)
	if err != nil {
		return Reply{}, err
	}
	defer stream.Cancel()

	reply, ok := <-stream.Replies()
	if !ok {
		return Reply{}, ErrReqTmo
	}
	if reply.Status.IsBad() {
		return reply, &StatusError{reply.Status}
	}
	return reply, nil
}

// RequestReplyStream sends data to addr and returns every reply the
// remote task sends, until it marks one terminal or the caller cancels.
func (c *Connection) RequestReplyStream(addr string, data []byte) (*ReplyStream, error) {
	return c.RequestReplyStreamTimeout(addr, data, c.cfg.RequestTimeout)
}

// RequestReplyStreamTimeout is RequestReplyStream with an explicit idle
// timeout between replies.
func (c *Connection) RequestReplyStreamTimeout(addr string, data []byte, timeout time.Duration) (*ReplyStream, error) {
	return c.requestReply(addr, data, true, timeout)
}

func (c *Connection) requestReply(addr string, data []byte, multi bool, timeout time.Duration) (*ReplyStream, error) {
	target, err := c.resolve(addr)
	if err != nil {
		return nil, err
	}

	disp, handle, ok := c.current()
	if !ok {
		return nil, ErrDisconnected
	}

	type accepted struct {
		ack frame.CommandAck
		raw <-chan Reply
	}
	acceptedCh := make(chan accepted, 1)

	cmd := frame.SendRequest(handle, target.task, target.node, multi, uint32(timeout.Milliseconds()), data)
	err = disp.submit(cmd, func(a frame.CommandAck) {
		if newStatusError(a.Status) == nil {
			acceptedCh <- accepted{ack: a, raw: disp.registerRequest(a.AcceptRequestID(), multi)}
		} else {
			acceptedCh <- accepted{ack: a}
		}
	})
	if err != nil {
		return nil, err
	}

	a := <-acceptedCh
	if err := newStatusError(a.ack.Status); err != nil {
		return nil, err
	}

	requestID := a.ack.AcceptRequestID()
	out := make(chan Reply)
	go relayReplies(a.raw, out)

	return &ReplyStream{
		replies: out,
		cancel: func() {
			disp.cancel(requestID)
			if multi {
				disp.submit(frame.CancelRequest(handle, requestID), func(frame.CommandAck) {})
			}
		},
	}, nil
}

// relayReplies copies raw onto out; it is the sole writer of out and
// always closes it. It imposes no timeout of its own: the timeout
// value a caller supplies is carried in the SendRequest frame for the
// gateway to enforce, which it does by emitting an ACNET_UTIME reply
// that arrives here like any other. Racing that with a local deadline
// would just make the client give up before the gateway's own answer.
func relayReplies(raw <-chan Reply, out chan<- Reply) {
	defer close(out)
	for r := range raw {
		out <- r
		if r.Terminal {
			return
		}
	}
}

// ReplyStream is the live sequence of replies to one outstanding
// request.
type ReplyStream struct {
	replies <-chan Reply
	cancel  func()
}

// Replies returns the channel of incoming replies. It closes when the
// request completes, is canceled, or its idle timeout elapses.
func (s *ReplyStream) Replies() <-chan Reply { return s.replies }

// Cancel tells the gateway to stop delivering replies for this request
// and releases local bookkeeping immediately.
func (s *ReplyStream) Cancel() { s.cancel() }
