package frame

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/fermi-controls/acnet-go/rad50"
)

func TestConnect(t *testing.T) {
	got := Connect()
	if len(got) != 24 {
		t.Fatalf("len(Connect()) = %d, want 24", len(got))
	}
	if kind := binary.LittleEndian.Uint16(got[0:2]); kind != KindConnect {
		t.Errorf("kind = %#x, want %#x", kind, KindConnect)
	}
	if !bytes.Equal(got[8:], make([]byte, 16)) {
		t.Errorf("tail not all zero: %x", got[8:])
	}
}

func TestCancelRequest(t *testing.T) {
	got := CancelRequest(42, 7)
	if len(got) != 10 {
		t.Fatalf("len = %d, want 10", len(got))
	}
	if handle := binary.LittleEndian.Uint32(got[4:8]); handle != 42 {
		t.Errorf("handle = %d, want 42", handle)
	}
	if reqID := binary.LittleEndian.Uint16(got[8:10]); reqID != 7 {
		t.Errorf("requestID = %d, want 7", reqID)
	}
}

func TestNodeNameToAddress(t *testing.T) {
	got := NodeNameToAddress(1, "CLX73")
	if len(got) != 20 {
		t.Fatalf("len = %d, want 20", len(got))
	}
	if name := binary.LittleEndian.Uint32(got[16:20]); name != rad50.Encode("CLX73") {
		t.Errorf("packed name = %#x, want %#x", name, rad50.Encode("CLX73"))
	}
}

func TestAddressToNodeName(t *testing.T) {
	got := AddressToNodeName(1, 0x1234)
	if len(got) != 18 {
		t.Fatalf("len = %d, want 18", len(got))
	}
	if addr := binary.BigEndian.Uint16(got[16:18]); addr != 0x1234 {
		t.Errorf("addr = %#x, want %#x", addr, 0x1234)
	}
}

func TestLocalNode(t *testing.T) {
	got := LocalNode(9)
	if len(got) != 16 {
		t.Fatalf("len = %d, want 16", len(got))
	}
}

func TestSendRequest(t *testing.T) {
	payload := []byte{1, 2, 3}
	got := SendRequest(1, rad50.Encode("PINGER"), 0x5678, true, 5000, payload)
	if len(got) != 28+len(payload) {
		t.Fatalf("len = %d, want %d", len(got), 28+len(payload))
	}
	if addr := binary.BigEndian.Uint16(got[20:22]); addr != 0x5678 {
		t.Errorf("addr = %#x, want %#x", addr, 0x5678)
	}
	if multi := binary.LittleEndian.Uint16(got[22:24]); multi != 1 {
		t.Errorf("multi flag = %d, want 1", multi)
	}
	if timeout := binary.LittleEndian.Uint32(got[24:28]); timeout != 5000 {
		t.Errorf("timeout = %d, want 5000", timeout)
	}
	if !bytes.Equal(got[28:], payload) {
		t.Errorf("payload = %x, want %x", got[28:], payload)
	}
}

func TestSendRequestSingleNoMultiFlag(t *testing.T) {
	got := SendRequest(1, rad50.Encode("PINGER"), 1, false, 1000, nil)
	if multi := binary.LittleEndian.Uint16(got[22:24]); multi != 0 {
		t.Errorf("multi flag = %d, want 0 for a single-reply request", multi)
	}
}
