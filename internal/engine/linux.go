package engine

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"

	"github.com/go-logr/logr"

	"ovsnett/internal/netdev"
	"ovsnett/internal/nodes"
	"ovsnett/internal/ovs"
	"ovsnett/internal/state"
	"ovsnett/internal/topology"
)

// Linux materializes topologies on the local kernel: hosts are network
// namespaces, switches are OVS bridges and links are veth pairs.
type Linux struct {
	driver *ovs.Driver
	log    logr.Logger

	createVeth func(name, peerName string) (*netdev.Veth, error)
	deleteVeth func(*netdev.Veth) error

	mu       sync.Mutex
	docker   *DockerResolver
	nextPort map[string]int
}

var _ topology.Engine = &Linux{}

func NewLinux(driver *ovs.Driver, log logr.Logger) *Linux {
	return &Linux{
		driver:     driver,
		log:        log,
		createVeth: netdev.CreateVeth,
		deleteVeth: (*netdev.Veth).Delete,
		nextPort:   map[string]int{},
	}
}

// EnableManager opens the OVSDB manager listener on ptcp:6640.
func (e *Linux) EnableManager(ctx context.Context) error {
	e.log.V(1).Info("Enabling OVSDB manager", "target", ovs.ManagerTarget)
	return e.driver.SetManager(ctx, ovs.ManagerTarget)
}

func (e *Linux) NewHost(ctx context.Context, node topology.Node) (nodes.Host, error) {
	if node.Container != "" {
		resolver, err := e.dockerResolver()
		if err != nil {
			return nil, err
		}
		path, err := resolver.NamespacePath(ctx, node.Container)
		if err != nil {
			return nil, err
		}
		e.log.V(2).Info("Using container namespace", "host", node.Name, "container", node.Container, "path", path)
		return nodes.NewHost(node.Name, node.IP, netdev.OpenNamespace(node.Name, path)), nil
	}

	ns, err := netdev.CreateNamespace(node.Name)
	if err != nil {
		return nil, err
	}
	return nodes.NewHost(node.Name, node.IP, ns), nil
}

func (e *Linux) NewSwitch(ctx context.Context, node topology.Node, cfg topology.SwitchConfig) (nodes.Switch, error) {
	err := e.driver.AddBridge(ctx, node.Name, ovs.BridgeOptions{
		Protocol:   cfg.Protocol,
		FailMode:   ovs.FailModeSecure,
		DatapathID: ovs.DatapathID(cfg.Ordinal + 1),
	})
	if err != nil {
		return nil, err
	}
	return nodes.NewSwitch(node.Name, e.driver), nil
}

// NewLink creates a veth pair named after its endpoints, <node>-eth<N>,
// and hands each end to its node.
func (e *Linux) NewLink(ctx context.Context, a, b nodes.Node) (nodes.Link, error) {
	ifA := e.interfaceName(a)
	ifB := e.interfaceName(b)

	veth, err := e.createVeth(ifA, ifB)
	if err != nil {
		return nil, err
	}

	if err := a.AddPort(ctx, ifA); err != nil {
		e.discardVeth(veth)
		return nil, err
	}
	if err := b.AddPort(ctx, ifB); err != nil {
		if sw, ok := a.(nodes.Switch); ok {
			if delErr := sw.DelPort(ctx, ifA); delErr != nil {
				e.log.Error(delErr, "Failed to release port", "switch", sw.GetName(), "interface", ifA)
			}
		}
		e.discardVeth(veth)
		return nil, err
	}

	return nodes.NewVethLink(veth,
		nodes.Endpoint{Node: a, Interface: ifA},
		nodes.Endpoint{Node: b, Interface: ifB},
	), nil
}

func (e *Linux) discardVeth(veth *netdev.Veth) {
	if err := e.deleteVeth(veth); err != nil {
		e.log.Error(err, "Failed to delete veth pair", "name", veth.Name, "peer", veth.PeerName)
	}
}

// interfaceName numbers host interfaces from eth0 and switch interfaces
// from eth1, since port 0 of a switch is its internal port.
func (e *Linux) interfaceName(n nodes.Node) string {
	e.mu.Lock()
	defer e.mu.Unlock()

	next, seen := e.nextPort[n.GetName()]
	if !seen {
		next = 1
		if _, isHost := n.(nodes.Host); isHost {
			next = 0
		}
	}
	e.nextPort[n.GetName()] = next + 1
	return fmt.Sprintf("%s-eth%d", n.GetName(), next)
}

func (e *Linux) dockerResolver() (*DockerResolver, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.docker == nil {
		resolver, err := NewDockerResolver()
		if err != nil {
			return nil, err
		}
		e.docker = resolver
	}
	return e.docker, nil
}

// Cleanup removes what a recorded run left behind. It mirrors
// topology.Network.Stop for a process that is gone.
func (e *Linux) Cleanup(ctx context.Context, rec *state.Record) error {
	var errs []error

	for i := len(rec.Attachments) - 1; i >= 0; i-- {
		a := rec.Attachments[i]
		if err := e.driver.DelPort(ctx, a.Switch, a.Interface); err != nil {
			errs = append(errs, err)
		}
	}

	for _, sw := range rec.Switches {
		if err := e.driver.DelBridge(ctx, sw.Name); err != nil {
			errs = append(errs, err)
		}
	}

	for _, v := range rec.Veths {
		if err := netdev.DeleteLink(v.Name, v.PeerName); err != nil {
			errs = append(errs, err)
		}
	}

	for _, h := range rec.Hosts {
		if !h.Owned {
			continue
		}
		if _, err := os.Stat(h.Path); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		ns := &netdev.Namespace{Name: h.Namespace, Path: h.Path, Owned: h.Owned}
		if err := ns.Delete(); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func (e *Linux) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.docker == nil {
		return nil
	}
	err := e.docker.Close()
	e.docker = nil
	return err
}
