package acnet

import (
	"errors"
	"testing"

	"github.com/fermi-controls/acnet-go/status"
)

func TestNewStatusErrorGoodIsNil(t *testing.T) {
	if err := newStatusError(status.Success); err != nil {
		t.Errorf("newStatusError(Success) = %v, want nil", err)
	}
	if err := newStatusError(status.EndMult); err != nil {
		t.Errorf("newStatusError(EndMult) = %v, want nil", err)
	}
}

func TestNewStatusErrorBad(t *testing.T) {
	err := newStatusError(status.NoSuch)
	if err == nil {
		t.Fatal("newStatusError(NoSuch) = nil, want an error")
	}
	s, ok := AsStatus(err)
	if !ok || s != status.NoSuch {
		t.Errorf("AsStatus(err) = %v, %v, want %v, true", s, ok, status.NoSuch)
	}
}

func TestStatusErrorIs(t *testing.T) {
	err := newStatusError(status.NoSuch)
	if !errors.Is(err, ErrNoSuch) {
		t.Errorf("errors.Is(err, ErrNoSuch) = false, want true")
	}
	if errors.Is(err, ErrBusy) {
		t.Errorf("errors.Is(err, ErrBusy) = true, want false")
	}
}
