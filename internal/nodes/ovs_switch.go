package nodes

import (
	"context"
	"sync"

	"ovsnett/internal/netdev"
	"ovsnett/internal/ovs"
)

// OVSSwitch is a switch backed by an Open vSwitch bridge of the same name
type OVSSwitch struct {
	name   string
	driver *ovs.Driver

	mu    sync.Mutex
	ports []string
}

// NewSwitch wraps a bridge that already exists
func NewSwitch(name string, driver *ovs.Driver) *OVSSwitch {
	return &OVSSwitch{
		name:   name,
		driver: driver,
	}
}

func (s *OVSSwitch) GetName() string {
	return s.name
}

func (s *OVSSwitch) AddPort(ctx context.Context, ifName string) error {
	if err := s.driver.AddPort(ctx, s.name, ifName); err != nil {
		return err
	}

	s.mu.Lock()
	s.ports = append(s.ports, ifName)
	s.mu.Unlock()
	return nil
}

func (s *OVSSwitch) DelPort(ctx context.Context, ifName string) error {
	if err := s.driver.DelPort(ctx, s.name, ifName); err != nil {
		return err
	}

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

// PortUp brings up a port that lives in the root namespace
func (s *OVSSwitch) PortUp(ctx context.Context, ifName string) error {
	return netdev.SetUp(ifName, nil)
}

func (s *OVSSwitch) Ports() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.ports...)
}

func (s *OVSSwitch) SetController(ctx context.Context, target string) error {
	return s.driver.SetController(ctx, s.name, target)
}

func (s *OVSSwitch) Controllers(ctx context.Context) ([]string, error) {
	return s.driver.GetController(ctx, s.name)
}

func (s *OVSSwitch) Delete(ctx context.Context) error {
	return s.driver.DelBridge(ctx, s.name)
}
