package acnet

import (
	"errors"
	"fmt"

	"github.com/fermi-controls/acnet-go/frame"
	"github.com/fermi-controls/acnet-go/status"
)

// StatusError wraps a bad ACNET status as a Go error. Success and
// informational statuses are never wrapped (see status.IsBad), except
// the disconnect sentinel; see newStatusError.
type StatusError struct {
	Status status.Status
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("acnet: %s status %s", statusName(e.Status), e.Status)
}

// Unwrap returns nil: a StatusError carries a status, not an underlying
// error. AsStatus recovers the status from an error chain.
func (e *StatusError) Unwrap() error { return nil }

// Is reports whether target is the same status code, so callers can write
// errors.Is(err, acnet.ErrNoSuch) against the package's named sentinels.
func (e *StatusError) Is(target error) bool {
	other, ok := target.(*StatusError)
	return ok && other.Status == e.Status
}

// AsStatus extracts the Status carried by err, walking err's Unwrap chain,
// so it also recovers a *StatusError wrapped by fmt.Errorf's %w.
func AsStatus(err error) (status.Status, bool) {
	var se *StatusError
	if !errors.As(err, &se) {
		return 0, false
	}
	return se.Status, true
}

func statusName(s status.Status) string {
	switch s {
	case status.Success:
		return "success"
	case status.Pend:
		return "pending"
	case status.EndMult:
		return "end-of-multiple"
	case status.ReplyTimeout:
		return "reply-timeout"
	default:
		return "error"
	}
}

// Named sentinel errors for the status codes callers most often branch on.
var (
	ErrNoSuch       = &StatusError{status.NoSuch}
	ErrNoNode       = &StatusError{status.NoNode}
	ErrReqTmo       = &StatusError{status.ReqTmo}
	ErrDisconnected = &StatusError{status.Disconnected}
	ErrBusy         = &StatusError{status.Busy}
	ErrLevel2       = &StatusError{status.Level2}
	ErrTruncReply   = &StatusError{status.TruncReply}
	ErrInvArg       = &StatusError{status.InvArg}
)

// newStatusError returns nil for a good status and a *StatusError
// otherwise, so call sites can write `if err := newStatusError(s); err !=
// nil { return err }`. The disconnect sentinel frame.DisconnectAck.Status
// has a positive error code but always yields an error.
func newStatusError(s status.Status) error {
	if s.IsGood() && s != frame.DisconnectAck.Status {
		return nil
	}
	return &StatusError{s}
}
