package topology

import (
	"context"
)

// DefaultOrdinals is the deployment policy for positional interfaces:
// the i-th interface goes to the switch at DefaultOrdinals[i]. Interfaces
// past the end of the policy are accepted and left unbound.
var DefaultOrdinals = []int{0, 1, 2}

type BinderOption func(*Binder)

// WithOrdinals replaces DefaultOrdinals for AttachAll.
func WithOrdinals(ordinals ...int) BinderOption {
	return func(b *Binder) {
		b.ordinals = append([]int(nil), ordinals...)
	}
}

// Binder attaches physical interfaces of the machine to switches of a
// running network.
type Binder struct {
	net      *Network
	ordinals []int
}

func NewBinder(net *Network, opts ...BinderOption) *Binder {
	b := &Binder{
		net:      net,
		ordinals: DefaultOrdinals,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Attach binds iface to the switch at ordinal and brings it up. An empty
// iface is skipped.
// The interface is not checked for existence before the switch is asked
// to bind it.
func (b *Binder) Attach(ctx context.Context, iface string, ordinal int) error {
	if iface == "" {
		return nil
	}

	sw, ok := b.net.SwitchAt(ordinal)
	if !ok {
		return &OrdinalOutOfRangeError{
			Interface: iface,
			Ordinal:   ordinal,
			Switches:  len(b.net.Switches()),
		}
	}

	return b.bind(ctx, iface, ordinal, sw.GetName())
}

// AttachByName binds iface to the named switch. An empty iface is skipped.
func (b *Binder) AttachByName(ctx context.Context, iface, switchName string) error {
	if iface == "" {
		return nil
	}

	ordinal, ok := b.net.desc.SwitchOrdinal(switchName)
	if !ok {
		return &UnknownNodeError{Name: switchName, Type: NodeSwitch}
	}
	if _, ok := b.net.SwitchAt(ordinal); !ok {
		return &UnknownNodeError{Name: switchName, Type: NodeSwitch}
	}

	return b.bind(ctx, iface, ordinal, switchName)
}

func (b *Binder) bind(ctx context.Context, iface string, ordinal int, switchName string) error {
	sw, _ := b.net.SwitchAt(ordinal)

	b.net.log.Info("Adding hardware interface", "interface", iface, "switch", switchName)
	if err := sw.AddPort(ctx, iface); err != nil {
		return &MaterializationError{Stage: StageAttach, Node: switchName, Err: err}
	}
	if err := sw.PortUp(ctx, iface); err != nil {
		if delErr := sw.DelPort(ctx, iface); delErr != nil {
			b.net.log.Error(delErr, "Failed to release hardware interface", "interface", iface, "switch", switchName)
		}
		return &MaterializationError{Stage: StageAttach, Node: switchName, Err: err}
	}

	b.net.addAttachment(Attachment{
		Interface: iface,
		Ordinal:   ordinal,
		Switch:    switchName,
	})
	b.net.save()
	return nil
}

// AttachAll binds ifaces[i] to the switch at the i-th ordinal of the
// policy, in order, skipping empty names. It stops at the first failure;
// interfaces bound before it stay bound.
func (b *Binder) AttachAll(ctx context.Context, ifaces []string) error {
	for i, iface := range ifaces {
		if i >= len(b.ordinals) {
			if iface != "" {
				b.net.log.V(2).Info("Interface has no switch assigned, leaving it unbound", "interface", iface, "position", i)
			}
			continue
		}
		if err := b.Attach(ctx, iface, b.ordinals[i]); err != nil {
			return err
		}
	}
	return nil
}
