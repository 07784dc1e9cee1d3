package acnet

import "testing"

func TestStateString(t *testing.T) {
	cases := map[State]string{
		Connecting:    "connecting",
		WaitingForAck: "waiting-for-ack",
		Connected:     "connected",
		Backoff:       "backoff",
	}
	for s, want := range cases {
		if got := s.String(); got != want {
			t.Errorf("State(%d).String() = %q, want %q", s, got, want)
		}
	}
}
