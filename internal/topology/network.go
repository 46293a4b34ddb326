package topology

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/go-logr/logr"

	"ovsnett/internal/nodes"
)

// Attachment is a physical interface bound to a switch of a running
// network.
type Attachment struct {
	Interface string
	Ordinal   int
	Switch    string
}

// Network is a materialized topology. It is returned by Builder.Build, also
// when the build failed halfway, and must be released with Stop.
type Network struct {
	desc    Descriptor
	binding ControllerBinding
	ledger  Ledger
	log     logr.Logger

	mu          sync.Mutex
	hosts       []nodes.Host
	switches    []nodes.Switch
	links       []nodes.Link
	attachments []Attachment
	stopped     bool
}

func (n *Network) Descriptor() Descriptor {
	return n.desc
}

func (n *Network) Binding() ControllerBinding {
	return n.binding
}

func (n *Network) Hosts() []nodes.Host {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]nodes.Host(nil), n.hosts...)
}

// Switches returns the switches created so far, in ordinal order.
func (n *Network) Switches() []nodes.Switch {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]nodes.Switch(nil), n.switches...)
}

func (n *Network) Links() []nodes.Link {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]nodes.Link(nil), n.links...)
}

func (n *Network) Attachments() []Attachment {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Attachment(nil), n.attachments...)
}

func (n *Network) Host(name string) (nodes.Host, bool) {
	for _, h := range n.Hosts() {
		if h.GetName() == name {
			return h, true
		}
	}
	return nil, false
}

func (n *Network) Switch(name string) (nodes.Switch, bool) {
	for _, s := range n.Switches() {
		if s.GetName() == name {
			return s, true
		}
	}
	return nil, false
}

// SwitchAt returns the switch at a 0-based ordinal.
func (n *Network) SwitchAt(ordinal int) (nodes.Switch, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if ordinal < 0 || ordinal >= len(n.switches) {
		return nil, false
	}
	return n.switches[ordinal], true
}

func (n *Network) node(name string) (nodes.Node, bool) {
	if h, ok := n.Host(name); ok {
		return h, true
	}
	if s, ok := n.Switch(name); ok {
		return s, true
	}
	return nil, false
}

func (n *Network) addAttachment(a Attachment) {
	n.mu.Lock()
	n.attachments = append(n.attachments, a)
	n.mu.Unlock()
}

func (n *Network) save() {
	if n.ledger == nil {
		return
	}
	if err := n.ledger.Save(n); err != nil {
		n.log.Error(err, "Failed to record network state")
	}
}

// Stop tears the network down: physical interfaces are released from
// their switches first, then switches, links and hosts are deleted. Every
// step runs even when an earlier one failed; the failures are joined.
// The ledger record is removed only after a clean teardown. Calling Stop
// again is a no-op.
func (n *Network) Stop(ctx context.Context) error {
	n.mu.Lock()
	if n.stopped {
		n.mu.Unlock()
		return nil
	}
	n.stopped = true
	n.mu.Unlock()

	var errs []error

	n.log.Info("*** Stopping network")

	attachments := n.Attachments()
	for i := len(attachments) - 1; i >= 0; i-- {
		a := attachments[i]
		sw, ok := n.Switch(a.Switch)
		if !ok {
			continue
		}
		n.log.V(1).Info("Releasing hardware interface", "interface", a.Interface, "switch", a.Switch)
		if err := sw.DelPort(ctx, a.Interface); err != nil {
			errs = append(errs, fmt.Errorf("release %s from %s: %w", a.Interface, a.Switch, err))
		}
	}

	for _, sw := range n.Switches() {
		n.log.V(1).Info("Stopping switch", "switch", sw.GetName())
		if err := sw.Delete(ctx); err != nil {
			errs = append(errs, fmt.Errorf("delete switch %s: %w", sw.GetName(), err))
		}
	}

	for _, l := range n.Links() {
		a, b := l.Endpoints()
		if err := l.Delete(ctx); err != nil {
			errs = append(errs, fmt.Errorf("delete link %s-%s: %w", a.Node.GetName(), b.Node.GetName(), err))
		}
	}

	for _, h := range n.Hosts() {
		n.log.V(1).Info("Stopping host", "host", h.GetName())
		if err := h.Delete(ctx); err != nil {
			errs = append(errs, fmt.Errorf("delete host %s: %w", h.GetName(), err))
		}
	}

	// a failed teardown keeps its record for "ovsnett cleanup"
	if n.ledger != nil && len(errs) == 0 {
		if err := n.ledger.Remove(n); err != nil {
			errs = append(errs, fmt.Errorf("remove network record: %w", err))
		}
	}

	n.log.Info("*** Done")
	return errors.Join(errs...)
}
