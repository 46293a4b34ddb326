package nodes

import (
	"context"
	"fmt"

	"ovsnett/internal/netdev"
)

// VethLink is a link made of a veth pair whose ends were handed to the two
// nodes
type VethLink struct {
	veth *netdev.Veth
	a, b Endpoint
}

func NewVethLink(veth *netdev.Veth, a, b Endpoint) *VethLink {
	return &VethLink{
		veth: veth,
		a:    a,
		b:    b,
	}
}

func (l *VethLink) Endpoints() (Endpoint, Endpoint) {
	return l.a, l.b
}

func (l *VethLink) Up(ctx context.Context) error {
	for _, end := range []Endpoint{l.a, l.b} {
		if err := end.Node.PortUp(ctx, end.Interface); err != nil {
			return fmt.Errorf("link %s-%s: %w", l.a.Node.GetName(), l.b.Node.GetName(), err)
		}
	}
	return nil
}

// Delete removes the pair from whichever end is still in the root
// namespace. A host end goes away with its namespace.
func (l *VethLink) Delete(ctx context.Context) error {
	return l.veth.Delete()
}
