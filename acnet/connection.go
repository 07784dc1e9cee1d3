package acnet

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/rs/xid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/fermi-controls/acnet-go/frame"
	"github.com/fermi-controls/acnet-go/transport"
)

// State is the availability of a Connection.
type State uint

const (
	Connecting State = iota
	WaitingForAck
	Connected
	Backoff
)

func (s State) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case WaitingForAck:
		return "waiting-for-ack"
	case Connected:
		return "connected"
	case Backoff:
		return "backoff"
	default:
		return fmt.Sprintf("state(%d)", uint(s))
	}
}

// Connection manages the lifetime of a single logical ACNET session: it
// dials, completes the connect handshake, and reconnects with a fixed
// backoff whenever the transport drops. Callers read State to learn of
// transitions and obtain the current dispatcher through current().
type Connection struct {
	cfg     Config
	metrics *connMetrics
	log     zerolog.Logger

	mu       sync.Mutex
	state    State
	disp     *dispatcher
	handle   uint32
	stateSub []chan State

	nameLookups singleflight.Group
	addrLookups singleflight.Group

	closeOnce sync.Once
	closeCh   chan struct{}
}

// Dial starts a Connection and returns without waiting for the first
// connect handshake; connecting, and reconnecting after failures and
// drops per cfg.Backoff, happen in the background. Use State or Watch
// to learn when the Connection is Connected.
func Dial(cfg Config) (*Connection, error) {
	cfg = cfg.check()

	c := &Connection{
		cfg:     cfg,
		metrics: newConnMetrics(cfg.MetricsPrefix),
		log:     cfg.Logger,
		closeCh: make(chan struct{}),
	}

	go c.run()
	return c, nil
}

// State returns the current connection state.
func (c *Connection) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Watch returns a channel that receives every subsequent state
// transition. The channel holds 16 transitions; a transition that
// arrives while it is full is dropped for that reader.
func (c *Connection) Watch() <-chan State {
	ch := make(chan State, 16)
	c.mu.Lock()
	c.stateSub = append(c.stateSub, ch)
	c.mu.Unlock()
	return ch
}

// Close shuts the connection down permanently.
func (c *Connection) Close() error {
	c.closeOnce.Do(func() { close(c.closeCh) })
	return nil
}

func (c *Connection) setState(s State) {
	c.mu.Lock()
	c.state = s
	subs := c.stateSub
	c.mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- s:
		default:
		}
	}
}

func (c *Connection) current() (*dispatcher, uint32, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.disp, c.handle, c.disp != nil
}

// run is the reconnect loop: dial, hand off to the connect handshake,
// serve until the transport drops, then back off and try again.
func (c *Connection) run() {
	for {
		select {
		case <-c.closeCh:
			return
		default:
		}

		attempt := xid.New().String()
		c.setState(Connecting)
		c.log.Info().Str("attempt", attempt).Str("url", c.cfg.URL).Msg("acnet: dialing gateway")

		disp, handle, err := c.connectOnce()
		if err != nil {
			c.metrics.dials_total.fail.Inc()
			c.log.Warn().Str("attempt", attempt).Err(err).Msg("acnet: connect failed")
			c.setState(Backoff)
			if !c.sleepOrClose(c.cfg.Backoff) {
				return
			}
			continue
		}

		c.metrics.dials_total.success.Inc()
		c.log.Info().Str("attempt", attempt).Uint32("handle", handle).Msg("acnet: connected")

		c.mu.Lock()
		c.disp = disp
		c.handle = handle
		c.mu.Unlock()
		c.setState(Connected)

		select {
		case <-disp.done:
			c.metrics.reconnects_total.Inc()
			c.log.Warn().Msg("acnet: connection dropped, reconnecting")
		case <-c.closeCh:
			disp.transport.Close()
			return
		}

		c.mu.Lock()
		c.disp = nil
		c.mu.Unlock()

		c.setState(Backoff)
		if !c.sleepOrClose(c.cfg.Backoff) {
			return
		}
	}
}

func (c *Connection) sleepOrClose(d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-c.closeCh:
		return false
	}
}

func (c *Connection) connectOnce() (*dispatcher, uint32, error) {
	header := http.Header{}
	t, err := transport.Dial(c.cfg.URL, header)
	if err != nil {
		return nil, 0, err
	}

	disp := newDispatcher(t, c.metrics)
	c.setState(WaitingForAck)

	ackCh := make(chan frame.CommandAck, 1)
	err = disp.submit(frame.Connect(), func(ack frame.CommandAck) { ackCh <- ack })
	if err != nil {
		t.Close()
		return nil, 0, err
	}

	select {
	case ack := <-ackCh:
		if err := newStatusError(ack.Status); err != nil {
			t.Close()
			return nil, 0, err
		}
		return disp, ack.ConnectHandle(), nil

	case <-time.After(c.cfg.DialTimeout):
		t.Close()
		return nil, 0, fmt.Errorf("acnet: connect handshake timed out after %s", c.cfg.DialTimeout)

	case <-disp.done:
		return nil, 0, fmt.Errorf("acnet: connection dropped during connect handshake")
	}
}
