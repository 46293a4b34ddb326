package topology

import (
	"context"
	"fmt"
	"slices"

	"github.com/go-logr/logr"
)

// Build stages reported in MaterializationError.Stage
const (
	StagePrecondition = "precondition"
	StageHost         = "host"
	StageSwitch       = "switch"
	StageController   = "controller"
	StageLink         = "link"
	StageVerify       = "verify"
	StageStart        = "start"
	StageAttach       = "attach"
)

type BuilderOption func(*Builder)

// WithPrecondition runs fn before anything is created. The OVSDB manager
// listener is enabled this way.
func WithPrecondition(fn func(ctx context.Context) error) BuilderOption {
	return func(b *Builder) {
		b.precondition = fn
	}
}

func WithLogger(log logr.Logger) BuilderOption {
	return func(b *Builder) {
		b.log = log
	}
}

// WithLedger records every network the builder creates.
func WithLedger(l Ledger) BuilderOption {
	return func(b *Builder) {
		b.ledger = l
	}
}

// WithHostAddressing controls whether hosts declared without an IP get
// 10.0.0.N/8, N being their 1-based position. Enabled by default.
func WithHostAddressing(enabled bool) BuilderOption {
	return func(b *Builder) {
		b.autoAddress = enabled
	}
}

// Builder materializes descriptors through an Engine.
type Builder struct {
	engine       Engine
	precondition func(ctx context.Context) error
	log          logr.Logger
	ledger       Ledger
	autoAddress  bool
}

func NewBuilder(engine Engine, opts ...BuilderOption) *Builder {
	b := &Builder{
		engine:      engine,
		log:         logr.Discard(),
		autoAddress: true,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build validates desc, then creates its hosts, switches and links in
// declaration order, binds every switch to the controller and brings the
// links up. It does not wait for the controller to connect.
//
// An invalid descriptor is returned as is, with a nil network. Once
// materialization has started, failures are returned as a
// *MaterializationError together with the partially built network, which
// the caller must Stop.
func (b *Builder) Build(ctx context.Context, desc Descriptor, binding ControllerBinding) (*Network, error) {
	if err := desc.Validate(); err != nil {
		return nil, err
	}

	net := &Network{
		desc:    desc,
		binding: binding,
		ledger:  b.ledger,
		log:     b.log,
	}

	if b.precondition != nil {
		if err := b.precondition(ctx); err != nil {
			return net, &MaterializationError{Stage: StagePrecondition, Err: err}
		}
	}

	b.log.Info("*** Adding controller", "target", binding.Target(), "protocol", binding.Protocol)

	if err := b.buildHosts(ctx, net); err != nil {
		net.save()
		return net, err
	}
	if err := b.buildSwitches(ctx, net); err != nil {
		net.save()
		return net, err
	}
	if err := b.buildLinks(ctx, net); err != nil {
		net.save()
		return net, err
	}
	net.save()

	if err := b.verifyControllers(ctx, net); err != nil {
		return net, err
	}

	b.log.Info("*** Starting network", "switches", len(net.Switches()), "links", len(net.Links()))
	for _, l := range net.Links() {
		if err := l.Up(ctx); err != nil {
			a, z := l.Endpoints()
			return net, &MaterializationError{Stage: StageStart, Node: a.Node.GetName() + "-" + z.Node.GetName(), Err: err}
		}
	}

	return net, nil
}

func (b *Builder) buildHosts(ctx context.Context, net *Network) error {
	b.log.Info("*** Adding hosts")
	for i, node := range net.desc.Hosts() {
		if node.IP == "" && b.autoAddress {
			node.IP = fmt.Sprintf("10.0.0.%d/8", i+1)
		}
		b.log.V(1).Info("Adding host", "host", node.Name, "ip", node.IP, "container", node.Container)

		h, err := b.engine.NewHost(ctx, node)
		if err != nil {
			return &MaterializationError{Stage: StageHost, Node: node.Name, Err: err}
		}

		net.mu.Lock()
		net.hosts = append(net.hosts, h)
		net.mu.Unlock()
	}
	return nil
}

func (b *Builder) buildSwitches(ctx context.Context, net *Network) error {
	b.log.Info("*** Adding switches")
	target := net.binding.Target()
	for i, node := range net.desc.Switches() {
		b.log.V(1).Info("Adding switch", "switch", node.Name, "ordinal", i)

		sw, err := b.engine.NewSwitch(ctx, node, SwitchConfig{
			Protocol: net.binding.Protocol,
			Ordinal:  i,
		})
		if err != nil {
			return &MaterializationError{Stage: StageSwitch, Node: node.Name, Err: err}
		}

		net.mu.Lock()
		net.switches = append(net.switches, sw)
		net.mu.Unlock()

		if err := sw.SetController(ctx, target); err != nil {
			return &MaterializationError{Stage: StageController, Node: node.Name, Err: err}
		}
	}
	return nil
}

func (b *Builder) buildLinks(ctx context.Context, net *Network) error {
	b.log.Info("*** Adding links")
	for _, link := range net.desc.Links() {
		name := link.NodeA + "-" + link.NodeB

		a, ok := net.node(link.NodeA)
		if !ok {
			return &MaterializationError{Stage: StageLink, Node: name, Err: &UnknownNodeError{Name: link.NodeA}}
		}
		z, ok := net.node(link.NodeB)
		if !ok {
			return &MaterializationError{Stage: StageLink, Node: name, Err: &UnknownNodeError{Name: link.NodeB}}
		}

		l, err := b.engine.NewLink(ctx, a, z)
		if err != nil {
			return &MaterializationError{Stage: StageLink, Node: name, Err: err}
		}

		ea, ez := l.Endpoints()
		b.log.V(1).Info("Adding link", "a", ea.Node.GetName()+":"+ea.Interface, "b", ez.Node.GetName()+":"+ez.Interface)

		net.mu.Lock()
		net.links = append(net.links, l)
		net.mu.Unlock()
	}
	return nil
}

// verifyControllers checks that every switch carries the binding target.
func (b *Builder) verifyControllers(ctx context.Context, net *Network) error {
	target := net.binding.Target()
	for _, sw := range net.Switches() {
		targets, err := sw.Controllers(ctx)
		if err != nil {
			return &MaterializationError{Stage: StageVerify, Node: sw.GetName(), Err: err}
		}
		if !slices.Contains(targets, target) {
			return &MaterializationError{
				Stage: StageVerify,
				Node:  sw.GetName(),
				Err:   fmt.Errorf("controller %s not configured, have %v", target, targets),
			}
		}
	}
	return nil
}
