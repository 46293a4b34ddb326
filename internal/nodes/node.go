package nodes

import (
	"context"
	"io"

	"ovsnett/internal/netdev"
)

// Node is a materialized topology node that links can plug ports into.
type Node interface {
	GetName() string
	AddPort(ctx context.Context, ifName string) error
	PortUp(ctx context.Context, ifName string) error
	Ports() []string
	Delete(ctx context.Context) error
}

// Host is a node with its own network stack
type Host interface {
	Node
	IP() string
	Namespace() *netdev.Namespace
	Exec(ctx context.Context, cmd []string, stdin io.Reader, stdout, stderr io.Writer) error
	Shell(stdin io.Reader, stdout, stderr io.Writer) error
}

// Switch is a node forwarding between its ports under a controller
type Switch interface {
	Node
	SetController(ctx context.Context, target string) error
	Controllers(ctx context.Context) ([]string, error)
	DelPort(ctx context.Context, ifName string) error
}

// Endpoint is one end of a link
type Endpoint struct {
	Node      Node
	Interface string
}

// Link connects two nodes
type Link interface {
	Endpoints() (Endpoint, Endpoint)
	Up(ctx context.Context) error
	Delete(ctx context.Context) error
}
