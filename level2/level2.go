// Package level2 implements the Level-II diagnostic helpers: thin
// wrappers over a single-reply request to the well-known "ACNET" task
// on a node, used to probe what a remote node's ACNET stack is doing.
package level2

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/fermi-controls/acnet-go/acnet"
	"github.com/fermi-controls/acnet-go/rad50"
)

// Caller is the subset of *acnet.Connection the helpers in this package
// need; it lets callers fake the gateway in tests without standing up a
// real connection.
type Caller interface {
	RequestReplyTimeout(addr string, data []byte, timeout time.Duration) (acnet.Reply, error)
}

func serviceAddr(node string) string { return "ACNET@" + node }

// Ping reports whether node's ACNET task answers within 100ms. Unlike
// every other helper in this package, a bad status or a malformed reply
// yields false, not an error; only a transport-level failure (not a bad
// status) is returned as an error.
func Ping(c Caller, node string) (bool, error) {
	reply, err := c.RequestReplyTimeout(serviceAddr(node), []byte{0x00, 0x00}, 100*time.Millisecond)
	if err != nil {
		if _, ok := acnet.AsStatus(err); ok {
			return false, nil
		}
		return false, err
	}
	return len(reply.Data) == 2, nil
}

// GetVersions returns the three "hi.lo" formatted version strings a
// node's ACNET stack reports.
func GetVersions(c Caller, node string) ([]string, error) {
	reply, err := c.RequestReplyTimeout(serviceAddr(node), []byte{0x03, 0x00}, 100*time.Millisecond)
	if err != nil {
		return nil, err
	}
	if len(reply.Data) < 6 {
		return nil, fmt.Errorf("level2: versions reply too short: %d bytes: %w", len(reply.Data), acnet.ErrTruncReply)
	}

	versions := make([]string, 3)
	for i := range versions {
		v := binary.LittleEndian.Uint16(reply.Data[i*2 : i*2+2])
		versions[i] = fmt.Sprintf("%d.%d", v/256, v%256)
	}
	return versions, nil
}

// GetTaskId resolves task's numeric id on node.
func GetTaskId(c Caller, task, node string) (uint16, error) {
	payload := make([]byte, 6)
	payload[0] = 0x01
	binary.LittleEndian.PutUint32(payload[2:6], rad50.Encode(task))

	reply, err := c.RequestReplyTimeout(serviceAddr(node), payload, 200*time.Millisecond)
	if err != nil {
		return 0, err
	}
	if len(reply.Data) < 2 {
		return 0, fmt.Errorf("level2: task id reply too short: %d bytes: %w", len(reply.Data), acnet.ErrTruncReply)
	}
	return binary.LittleEndian.Uint16(reply.Data[0:2]), nil
}

// GetTaskName resolves id's task name on node.
func GetTaskName(c Caller, id uint16, node string) (string, error) {
	var payload []byte
	if id < 256 {
		payload = []byte{0x02, byte(id)}
	} else {
		payload = []byte{0x12, 0x00, byte(id / 256), byte(id % 256)}
	}

	reply, err := c.RequestReplyTimeout(serviceAddr(node), payload, 500*time.Millisecond)
	if err != nil {
		return "", err
	}
	if len(reply.Data) < 4 {
		return "", fmt.Errorf("level2: task name reply too short: %d bytes: %w", len(reply.Data), acnet.ErrTruncReply)
	}
	return rad50.Decode(binary.LittleEndian.Uint32(reply.Data[0:4])), nil
}

// GetTaskIp returns id's IPv4 address on node, packed big-endian the way
// net.IP expects.
func GetTaskIp(c Caller, id uint16, node string) (uint32, error) {
	payload := make([]byte, 4)
	payload[0] = 0x13
	binary.LittleEndian.PutUint16(payload[2:4], id)

	reply, err := c.RequestReplyTimeout(serviceAddr(node), payload, 200*time.Millisecond)
	if err != nil {
		return 0, err
	}
	if len(reply.Data) != 4 {
		return 0, acnet.ErrLevel2
	}
	return binary.LittleEndian.Uint32(reply.Data[0:4]), nil
}

// TaskInfo is one node's per-task traffic counters, as reported by
// GetTaskInfo.
type TaskInfo struct {
	Handle uint32 // RAD50-decoded by the caller if a name is wanted
	UsmXmt uint16
	ReqXmt uint16
	RpyXmt uint16
	UsmRcv uint16
	ReqRcv uint16
	RpyRcv uint16
}

const taskInfoRecordLen = 18
const taskInfoPrefixLen = 8

// GetTaskInfo returns every task's traffic counters on node, keyed by
// task id. reset asks the node to zero its counters after reporting.
func GetTaskInfo(c Caller, node string, reset bool) (map[uint16]TaskInfo, error) {
	var resetByte byte
	if reset {
		resetByte = 1
	}

	reply, err := c.RequestReplyTimeout(serviceAddr(node), []byte{0x07, resetByte}, 500*time.Millisecond)
	if err != nil {
		return nil, err
	}

	data := reply.Data
	if len(data) < taskInfoPrefixLen {
		return nil, acnet.ErrTruncReply
	}
	data = data[taskInfoPrefixLen:]
	if len(data)%taskInfoRecordLen != 0 {
		return nil, acnet.ErrTruncReply
	}

	records := make(map[uint16]TaskInfo, len(data)/taskInfoRecordLen)
	for len(data) > 0 {
		rec := data[:taskInfoRecordLen]
		data = data[taskInfoRecordLen:]

		id := binary.LittleEndian.Uint16(rec[0:2])
		records[id] = TaskInfo{
			Handle: binary.LittleEndian.Uint32(rec[2:6]),
			UsmXmt: binary.LittleEndian.Uint16(rec[6:8]),
			ReqXmt: binary.LittleEndian.Uint16(rec[8:10]),
			RpyXmt: binary.LittleEndian.Uint16(rec[10:12]),
			UsmRcv: binary.LittleEndian.Uint16(rec[12:14]),
			ReqRcv: binary.LittleEndian.Uint16(rec[14:16]),
			RpyRcv: binary.LittleEndian.Uint16(rec[16:18]),
		}
	}
	return records, nil
}
