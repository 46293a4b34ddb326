package topology

import (
	"context"

	"ovsnett/internal/nodes"
)

// SwitchConfig is fixed when a switch is created. The controller is set
// afterwards through nodes.Switch.
type SwitchConfig struct {
	// Protocol is the OpenFlow version the switch speaks, e.g. OpenFlow13.
	Protocol string
	// Ordinal is the 0-based declaration position of the switch.
	Ordinal int
}

// Engine creates the runtime objects a network is made of. Nodes are
// created before the links between them, and every link endpoint is a
// node the same engine returned.
type Engine interface {
	NewHost(ctx context.Context, node Node) (nodes.Host, error)
	NewSwitch(ctx context.Context, node Node, cfg SwitchConfig) (nodes.Switch, error)
	NewLink(ctx context.Context, a, b nodes.Node) (nodes.Link, error)
}

// Ledger records what a network created so leftovers can be removed after
// a crash.
type Ledger interface {
	Save(net *Network) error
	Remove(net *Network) error
}
