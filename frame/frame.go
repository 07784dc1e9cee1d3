// Package frame builds the binary command frames sent to the ACNET
// gateway and parses the command-ack and network-reply frames it sends
// back, per the wire format in SPEC_FULL.md §4.3.
package frame

import (
	"encoding/binary"

	"github.com/fermi-controls/acnet-go/rad50"
)

// Command kinds, as carried in the 8-byte command header.
const (
	KindConnect        uint16 = 0x0001
	KindCancelRequest  uint16 = 0x0008
	KindNodeToAddress  uint16 = 0x000b
	KindAddressToNode  uint16 = 0x000c
	KindLocalNode      uint16 = 0x000d
	KindSendRequest    uint16 = 0x0012
	reservedHeaderWord uint16 = 1
)

func header(kind uint16, handle uint32) []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint16(b[0:2], kind)
	binary.LittleEndian.PutUint16(b[2:4], reservedHeaderWord)
	binary.LittleEndian.PutUint32(b[4:8], handle)
	return b
}

// Connect builds the connect command. The gateway assigns the handle, so
// the frame carries an all-zero handle and a 16-byte zero tail.
func Connect() []byte {
	b := header(KindConnect, 0)
	return append(b, make([]byte, 16)...)
}

// CancelRequest builds a cancel-request command for the given handle and
// request-id.
func CancelRequest(handle uint32, requestID uint16) []byte {
	b := header(KindCancelRequest, handle)
	tail := make([]byte, 2)
	binary.LittleEndian.PutUint16(tail, requestID)
	return append(b, tail...)
}

// NodeNameToAddress builds a node name → address command.
func NodeNameToAddress(handle uint32, name string) []byte {
	b := header(KindNodeToAddress, handle)
	tail := make([]byte, 12)
	binary.LittleEndian.PutUint32(tail[8:12], rad50.Encode(name))
	return append(b, tail...)
}

// AddressToNodeName builds an address → node name command.
func AddressToNodeName(handle uint32, addr uint16) []byte {
	b := header(KindAddressToNode, handle)
	tail := make([]byte, 10)
	binary.BigEndian.PutUint16(tail[8:10], addr)
	return append(b, tail...)
}

// LocalNode builds a local-node query command.
func LocalNode(handle uint32) []byte {
	b := header(KindLocalNode, handle)
	return append(b, make([]byte, 8)...)
}

// SendRequest builds a send-request command. Multi selects single-reply
// (false) or streaming (true) semantics.
func SendRequest(handle uint32, task uint32, addr uint16, multi bool, timeout uint32, payload []byte) []byte {
	b := header(KindSendRequest, handle)
	tail := make([]byte, 20, 20+len(payload))
	binary.LittleEndian.PutUint32(tail[8:12], task)
	binary.BigEndian.PutUint16(tail[12:14], addr)
	if multi {
		binary.LittleEndian.PutUint16(tail[14:16], 1)
	}
	binary.LittleEndian.PutUint32(tail[16:20], timeout)
	tail = append(tail, payload...)
	return append(b, tail...)
}
