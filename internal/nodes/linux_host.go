package nodes

import (
	"context"
	"fmt"
	"io"
	"sync"

	"ovsnett/internal/netdev"
)

// LinuxHost is a host backed by a network namespace
type LinuxHost struct {
	name string
	ip   string
	ns   *netdev.Namespace

	mu    sync.Mutex
	ports []string
}

func NewHost(name, ip string, ns *netdev.Namespace) *LinuxHost {
	return &LinuxHost{
		name: name,
		ip:   ip,
		ns:   ns,
	}
}

func (h *LinuxHost) GetName() string {
	return h.name
}

func (h *LinuxHost) IP() string {
	return h.ip
}

func (h *LinuxHost) Namespace() *netdev.Namespace {
	return h.ns
}

// AddPort moves ifName into the host namespace. The first port carries the
// host address.
func (h *LinuxHost) AddPort(ctx context.Context, ifName string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := netdev.MoveToNamespace(ifName, h.ns); err != nil {
		return fmt.Errorf("host %s: %w", h.name, err)
	}

	if len(h.ports) == 0 && h.ip != "" {
		if err := netdev.AssignIP(ifName, h.ip, h.ns); err != nil {
			return fmt.Errorf("host %s: %w", h.name, err)
		}
	}

	h.ports = append(h.ports, ifName)
	return nil
}

func (h *LinuxHost) PortUp(ctx context.Context, ifName string) error {
	return netdev.SetUp(ifName, h.ns)
}

func (h *LinuxHost) Ports() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.ports...)
}

func (h *LinuxHost) Exec(ctx context.Context, cmd []string, stdin io.Reader, stdout, stderr io.Writer) error {
	return h.ns.Exec(ctx, cmd, stdin, stdout, stderr)
}

func (h *LinuxHost) Shell(stdin io.Reader, stdout, stderr io.Writer) error {
	return h.ns.Shell(h.name, stdin, stdout, stderr)
}

// Delete removes the namespace when the host owns it. Interfaces inside
// go away with it.
func (h *LinuxHost) Delete(ctx context.Context) error {
	return h.ns.Delete()
}
