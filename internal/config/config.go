package config

import (
	"fmt"
	"net"

	"ovsnett/internal/topology"
)

// MaxInterfaces is the number of positional interface arguments. Only the
// first len(topology.DefaultOrdinals) of them are bound.
const MaxInterfaces = 4

// Run holds the parameters of one invocation
type Run struct {
	ControllerIP string
	Interfaces   [MaxInterfaces]string
}

// ParseArgs reads [CONTROLLER_IP [IF0 [IF1 [IF2 [IF3]]]]]. Missing values
// keep their defaults and arguments past the fifth are ignored.
func ParseArgs(args []string) (Run, error) {
	run := Run{ControllerIP: topology.DefaultControllerIP}

	if len(args) > 0 && args[0] != "" {
		if net.ParseIP(args[0]) == nil {
			return Run{}, fmt.Errorf("invalid controller address %q", args[0])
		}
		run.ControllerIP = args[0]
	}

	for i := 0; i < MaxInterfaces && i+1 < len(args); i++ {
		run.Interfaces[i] = args[i+1]
	}

	return run, nil
}

// Binding returns the controller binding every switch is given
func (r Run) Binding() topology.ControllerBinding {
	return topology.DefaultBinding(r.ControllerIP)
}

// InterfaceList returns the positional interfaces, empty names included
func (r Run) InterfaceList() []string {
	return r.Interfaces[:]
}
