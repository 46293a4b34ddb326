// Package topologytest provides an in-memory topology.Engine that records
// every call, for testing code that builds and tears down networks.
package topologytest

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"ovsnett/internal/netdev"
	"ovsnett/internal/nodes"
	"ovsnett/internal/topology"
)

// FakeEngine creates fake nodes and links. Set the Fail* maps before a
// build to make the matching call fail.
type FakeEngine struct {
	// keyed by node name
	FailHost       map[string]error
	FailSwitch     map[string]error
	FailController map[string]error
	// keyed by "a-b"
	FailLink map[string]error
	// keyed by interface name
	FailAddPort map[string]error
	FailPortUp  map[string]error
	FailDelPort map[string]error
	// Controllers overrides what a switch reports as configured.
	Controllers map[string][]string

	mu     sync.Mutex
	events []string
	ports  map[string]int
}

var _ topology.Engine = &FakeEngine{}

func NewFakeEngine() *FakeEngine {
	return &FakeEngine{
		FailHost:       map[string]error{},
		FailSwitch:     map[string]error{},
		FailController: map[string]error{},
		FailLink:       map[string]error{},
		FailAddPort:    map[string]error{},
		FailPortUp:     map[string]error{},
		FailDelPort:    map[string]error{},
		Controllers:    map[string][]string{},
		ports:          map[string]int{},
	}
}

func (e *FakeEngine) record(format string, args ...any) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, fmt.Sprintf(format, args...))
}

// Events returns the calls made so far, oldest first.
func (e *FakeEngine) Events() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.events...)
}

// EventsWithPrefix returns the recorded calls starting with prefix.
func (e *FakeEngine) EventsWithPrefix(prefix string) []string {
	var out []string
	for _, ev := range e.Events() {
		if strings.HasPrefix(ev, prefix) {
			out = append(out, ev)
		}
	}
	return out
}

func (e *FakeEngine) NewHost(ctx context.Context, node topology.Node) (nodes.Host, error) {
	if err := e.FailHost[node.Name]; err != nil {
		return nil, err
	}
	e.record("host %s %s", node.Name, node.IP)
	return &FakeHost{
		fakeNode: fakeNode{engine: e, name: node.Name},
		ip:       node.IP,
		ns:       &netdev.Namespace{Name: node.Name, Path: netdev.NETNS_DIR + "/" + node.Name, Owned: node.Container == ""},
	}, nil
}

func (e *FakeEngine) NewSwitch(ctx context.Context, node topology.Node, cfg topology.SwitchConfig) (nodes.Switch, error) {
	if err := e.FailSwitch[node.Name]; err != nil {
		return nil, err
	}
	e.record("switch %s %s %d", node.Name, cfg.Protocol, cfg.Ordinal)
	return &FakeSwitch{fakeNode: fakeNode{engine: e, name: node.Name}}, nil
}

// NewLink names interfaces the way the Linux engine does: hosts count from
// eth0, switches from eth1.
func (e *FakeEngine) NewLink(ctx context.Context, a, b nodes.Node) (nodes.Link, error) {
	key := a.GetName() + "-" + b.GetName()
	if err := e.FailLink[key]; err != nil {
		return nil, err
	}

	ea := nodes.Endpoint{Node: a, Interface: e.nextInterface(a)}
	eb := nodes.Endpoint{Node: b, Interface: e.nextInterface(b)}
	if err := a.AddPort(ctx, ea.Interface); err != nil {
		return nil, err
	}
	if err := b.AddPort(ctx, eb.Interface); err != nil {
		return nil, err
	}

	e.record("link %s %s", ea.Interface, eb.Interface)
	return &FakeLink{engine: e, a: ea, b: eb}, nil
}

func (e *FakeEngine) nextInterface(n nodes.Node) string {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, seen := e.ports[n.GetName()]; !seen {
		e.ports[n.GetName()] = 1
		if _, isHost := n.(nodes.Host); isHost {
			e.ports[n.GetName()] = 0
		}
	}
	i := e.ports[n.GetName()]
	e.ports[n.GetName()]++
	return fmt.Sprintf("%s-eth%d", n.GetName(), i)
}

type fakeNode struct {
	engine *FakeEngine
	name   string

	mu    sync.Mutex
	ports []string
}

func (n *fakeNode) GetName() string {
	return n.name
}

func (n *fakeNode) AddPort(ctx context.Context, ifName string) error {
	if err := n.engine.FailAddPort[ifName]; err != nil {
		return err
	}
	n.engine.record("addport %s %s", n.name, ifName)
	n.mu.Lock()
	n.ports = append(n.ports, ifName)
	n.mu.Unlock()
	return nil
}

func (n *fakeNode) PortUp(ctx context.Context, ifName string) error {
	if err := n.engine.FailPortUp[ifName]; err != nil {
		return err
	}
	n.engine.record("up %s", ifName)
	return nil
}

func (n *fakeNode) Ports() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.ports...)
}

// FakeHost is the host FakeEngine returns.
type FakeHost struct {
	fakeNode
	ip string
	ns *netdev.Namespace
}

func (h *FakeHost) IP() string {
	return h.ip
}

func (h *FakeHost) Namespace() *netdev.Namespace {
	return h.ns
}

// Exec echoes the command line to stdout.
func (h *FakeHost) Exec(ctx context.Context, cmd []string, stdin io.Reader, stdout, stderr io.Writer) error {
	h.engine.record("exec %s %s", h.name, strings.Join(cmd, " "))
	_, err := fmt.Fprintln(stdout, strings.Join(cmd, " "))
	return err
}

func (h *FakeHost) Shell(stdin io.Reader, stdout, stderr io.Writer) error {
	h.engine.record("shell %s", h.name)
	return nil
}

func (h *FakeHost) Delete(ctx context.Context) error {
	h.engine.record("delete host %s", h.name)
	return nil
}

// FakeSwitch is the switch FakeEngine returns.
type FakeSwitch struct {
	fakeNode
	controllers []string
}

func (s *FakeSwitch) SetController(ctx context.Context, target string) error {
	if err := s.engine.FailController[s.name]; err != nil {
		return err
	}
	s.engine.record("controller %s %s", s.name, target)
	s.controllers = []string{target}
	return nil
}

func (s *FakeSwitch) Controllers(ctx context.Context) ([]string, error) {
	if targets, ok := s.engine.Controllers[s.name]; ok {
		return targets, nil
	}
	return s.controllers, nil
}

func (s *FakeSwitch) DelPort(ctx context.Context, ifName string) error {
	if err := s.engine.FailDelPort[ifName]; err != nil {
		return err
	}
	s.engine.record("delport %s %s", s.name, ifName)
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, p := range s.ports {
		if p == ifName {
			s.ports = append(s.ports[:i], s.ports[i+1:]...)
			break
		}
	}
	return nil
}

func (s *FakeSwitch) Delete(ctx context.Context) error {
	s.engine.record("delete switch %s", s.name)
	return nil
}

// FakeLink is the link FakeEngine returns.
type FakeLink struct {
	engine *FakeEngine
	a, b   nodes.Endpoint
}

func (l *FakeLink) Endpoints() (nodes.Endpoint, nodes.Endpoint) {
	return l.a, l.b
}

func (l *FakeLink) Up(ctx context.Context) error {
	if err := l.a.Node.PortUp(ctx, l.a.Interface); err != nil {
		return err
	}
	return l.b.Node.PortUp(ctx, l.b.Interface)
}

func (l *FakeLink) Delete(ctx context.Context) error {
	l.engine.record("delete link %s %s", l.a.Interface, l.b.Interface)
	return nil
}
