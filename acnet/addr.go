package acnet

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/fermi-controls/acnet-go/rad50"
)

// taskAddr identifies the remote task and node a request targets: a
// RAD50-packed task name and a 16-bit node address.
type taskAddr struct {
	task uint32
	node uint16
}

// parseTaskAddr parses the "TASK@NODE" form used throughout the public
// API. NODE is either a symbolic node name, resolved through the
// supplied lookup, or a "#" prefixed decimal address, e.g. "#258".
// Malformed forms fail with an ACNET_INVARG status, per the
// invalid-argument propagation policy; see acnet.AsStatus.
func parseTaskAddr(s string, lookup func(name string) (uint16, error)) (taskAddr, error) {
	task, node, ok := strings.Cut(s, "@")
	if !ok {
		return taskAddr{}, fmt.Errorf("acnet: address %q missing \"@NODE\": %w", s, ErrInvArg)
	}
	if task == "" {
		return taskAddr{}, fmt.Errorf("acnet: address %q missing task name: %w", s, ErrInvArg)
	}

	var addr uint16
	if rest, ok := strings.CutPrefix(node, "#"); ok {
		n, err := strconv.ParseUint(rest, 10, 16)
		if err != nil {
			return taskAddr{}, fmt.Errorf("acnet: address %q has a malformed numeric node: %w", s, ErrInvArg)
		}
		addr = uint16(n)
	} else {
		n, err := lookup(node)
		if err != nil {
			return taskAddr{}, fmt.Errorf("acnet: address %q: %w", s, err)
		}
		addr = n
	}

	return taskAddr{task: rad50.Encode(task), node: addr}, nil
}
