package acnet

import (
	"encoding/binary"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/fermi-controls/acnet-go/frame"
	"github.com/fermi-controls/acnet-go/rad50"
	"github.com/fermi-controls/acnet-go/status"
)

var upgrader = websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}

// fakeGateway answers Connect, NodeNameToAddress, AddressToNodeName and
// SendRequest commands just well enough to exercise Connection end to
// end, without implementing the full ACNET wire protocol.
type fakeGateway struct {
	srv      *httptest.Server
	handle   uint32
	nodeAddr uint16
	nodeName string
	hangUp   bool

	// replyStatus/replyData/replyDelay control the single network reply a
	// SendRequest gets, so tests can simulate a gateway-issued status
	// (e.g. ACNET_UTIME) instead of the default success reply.
	replyStatus status.Status
	replyData   []byte
	replyDelay  time.Duration

	mu   sync.Mutex
	conn *websocket.Conn
}

func newFakeGateway(t *testing.T) *fakeGateway {
	g := &fakeGateway{
		handle:      0xAABBCCDD,
		nodeAddr:    0x0102,
		nodeName:    "CLX73",
		replyStatus: status.Success,
		replyData:   []byte("pong"),
		replyDelay:  10 * time.Millisecond,
	}
	g.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		g.mu.Lock()
		g.conn = conn
		g.mu.Unlock()

		for {
			kind, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if kind != websocket.BinaryMessage || len(data) < 8 {
				continue
			}
			if g.hangUp {
				return
			}

			reply := g.handleCommand(data)
			if reply != nil {
				if err := g.write(reply); err != nil {
					return
				}
			}
		}
	}))
	t.Cleanup(g.srv.Close)
	return g
}

func (g *fakeGateway) write(data []byte) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.conn.WriteMessage(websocket.BinaryMessage, data)
}

func (g *fakeGateway) url() string {
	return "ws" + strings.TrimPrefix(g.srv.URL, "http")
}

// commandAck builds a [0x00 0x02 resultKind(2) status(2) ...tail] frame,
// matching the layout frame.parseCommandAck expects.
func commandAck(resultKind uint16, st status.Status, tail []byte) []byte {
	pkt := make([]byte, 6, 6+len(tail))
	pkt[1] = 0x02
	binary.LittleEndian.PutUint16(pkt[2:4], resultKind)
	binary.LittleEndian.PutUint16(pkt[4:6], uint16(st.Raw()))
	return append(pkt, tail...)
}

func (g *fakeGateway) handleCommand(cmd []byte) []byte {
	kind := binary.LittleEndian.Uint16(cmd[0:2])
	switch kind {
	case frame.KindConnect:
		tail := make([]byte, 1) // pad at inner[4]; handle lands at inner[5:9]
		handle := make([]byte, 4)
		binary.BigEndian.PutUint32(handle, g.handle)
		return commandAck(0, status.Success, append(tail, handle...))

	case frame.KindNodeToAddress, frame.KindLocalNode:
		addr := make([]byte, 2)
		binary.BigEndian.PutUint16(addr, g.nodeAddr)
		return commandAck(0, status.Success, addr)

	case frame.KindAddressToNode:
		name := make([]byte, 4)
		binary.BigEndian.PutUint32(name, rad50.Encode(g.nodeName))
		return commandAck(0, status.Success, name) // name lands at inner[4:8]

	case frame.KindSendRequest:
		tail := make([]byte, 2) // pad at inner[4:6]; reqID lands at inner[6:8]
		reqID := make([]byte, 2)
		binary.LittleEndian.PutUint16(reqID, 7)
		ack := commandAck(0, status.Success, append(tail, reqID...))

		go func() {
			time.Sleep(g.replyDelay)
			g.write(networkReply(7, g.replyStatus, true, g.replyData))
		}()
		return ack

	case frame.KindCancelRequest:
		return nil

	default:
		return nil
	}
}

// networkReply builds a [0x00 flags status(2) sender(2) reserved(12)
// requestID(2) ...data] frame, matching parseNetworkReply.
func networkReply(requestID uint16, st status.Status, terminal bool, data []byte) []byte {
	pkt := make([]byte, 20, 20+len(data))
	if terminal {
		pkt[1] = 0x04
	} else {
		pkt[1] = 0x05
	}
	binary.LittleEndian.PutUint16(pkt[2:4], uint16(st.Raw()))
	binary.BigEndian.PutUint16(pkt[4:6], 0x0102)
	binary.LittleEndian.PutUint16(pkt[18:20], requestID)
	return append(pkt, data...)
}
