package frame

import (
	"encoding/binary"
	"fmt"

	"github.com/fermi-controls/acnet-go/status"
)

// Kind distinguishes the two incoming frame shapes the gateway sends:
// acknowledgements of commands this client issued, and network replies
// forwarded from a remote task.
type Kind int

const (
	KindCommandAck Kind = iota
	KindNetworkReply
)

// CommandAck is the decoded acknowledgement of a command previously sent
// on this connection. Which accessor applies depends on which command it
// acknowledges; callers that know the command kind call the matching one.
type CommandAck struct {
	Status status.Status
	inner  []byte
}

// ConnectHandle returns the connection handle assigned by a connect ack.
func (a CommandAck) ConnectHandle() uint32 {
	return binary.BigEndian.Uint32(a.inner[5:9])
}

// AcceptRequestID returns the request-id assigned by a send-request ack.
func (a CommandAck) AcceptRequestID() uint16 {
	return binary.LittleEndian.Uint16(a.inner[6:8])
}

// ResultAddr returns the node address from a node-name-to-address or
// local-node ack.
func (a CommandAck) ResultAddr() uint16 {
	return binary.BigEndian.Uint16(a.inner[4:6])
}

// ResultRAD50 returns the RAD50-packed node name from an
// address-to-node-name ack.
func (a CommandAck) ResultRAD50() uint32 {
	return binary.BigEndian.Uint32(a.inner[4:8])
}

// NetworkReply is a reply frame forwarded from a remote task in response
// to an outstanding request.
type NetworkReply struct {
	RequestID uint16
	Status    status.Status
	Sender    uint16
	Terminal  bool
	Data      []byte
}

// DisconnectAck is the synthetic command-ack delivered to every pending
// command when the transport drops. Its status decodes to facility 0xDE,
// errCode 1, a sentinel unrelated to the named Status catalog.
var DisconnectAck = CommandAck{
	Status: status.New(0x01DE),
	inner:  []byte{0, 0, 0xDE, 0x01},
}

// Parse discriminates and decodes an incoming frame. pkt[1] == 0x02
// marks a command-ack; anything else (pkt[0] == 0x00 in practice) is a
// network reply.
func Parse(pkt []byte) (Kind, any, error) {
	if len(pkt) < 4 {
		return 0, nil, fmt.Errorf("frame: packet too short: %d bytes", len(pkt))
	}

	if pkt[1] == 0x02 {
		return parseCommandAck(pkt)
	}
	return parseNetworkReply(pkt)
}

func parseCommandAck(pkt []byte) (Kind, any, error) {
	inner := pkt[2:]
	if len(inner) < 4 {
		return 0, nil, fmt.Errorf("frame: command-ack too short: %d bytes", len(inner))
	}

	ack := CommandAck{
		Status: status.New(int16(binary.LittleEndian.Uint16(inner[2:4]))),
		inner:  inner,
	}
	return KindCommandAck, ack, nil
}

const networkReplyHeaderLen = 20

func parseNetworkReply(pkt []byte) (Kind, any, error) {
	if len(pkt) < networkReplyHeaderLen {
		return 0, nil, fmt.Errorf("frame: network reply too short: %d bytes, want >= %d", len(pkt), networkReplyHeaderLen)
	}

	flags := pkt[1]
	reply := NetworkReply{
		Status:    status.New(int16(binary.LittleEndian.Uint16(pkt[2:4]))),
		Sender:    binary.BigEndian.Uint16(pkt[4:6]),
		RequestID: binary.LittleEndian.Uint16(pkt[18:20]),
		Terminal:  flags == 0x04,
		Data:      pkt[networkReplyHeaderLen:],
	}
	return KindNetworkReply, reply, nil
}
