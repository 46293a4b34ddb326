package netdev

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"path/filepath"
	"runtime"
	"time"

	"github.com/vishvananda/netlink"
	"github.com/vishvananda/netns"
)

const (
	NETNS_DIR = "/run/netns"
)

// Namespace represents a network namespace backing a host
type Namespace struct {
	Name      string `json:"name"`
	Path      string `json:"path"`
	Owned     bool   `json:"owned"`
	CreatedAt string `json:"created_at"`
}

// CreateNamespace creates a named network namespace and brings its
// loopback up. The calling thread is left in its original namespace.
func CreateNamespace(name string) (*Namespace, error) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	origNS, err := netns.Get()
	if err != nil {
		return nil, fmt.Errorf("get current netns: %w", err)
	}
	defer origNS.Close()

	// NewNamed switches the thread into the new namespace
	ns, err := netns.NewNamed(name)
	if err != nil {
		netns.Set(origNS)
		return nil, fmt.Errorf("create netns %s: %w", name, err)
	}
	defer ns.Close()

	lo, err := netlink.LinkByName("lo")
	if err == nil {
		err = netlink.LinkSetUp(lo)
	}

	if serr := netns.Set(origNS); serr != nil {
		return nil, fmt.Errorf("setns back: %w", serr)
	}
	if err != nil {
		return nil, fmt.Errorf("loopback up in %s: %w", name, err)
	}

	return &Namespace{
		Name:      name,
		Path:      filepath.Join(NETNS_DIR, name),
		Owned:     true,
		CreatedAt: time.Now().Format(time.RFC3339),
	}, nil
}

// OpenNamespace wraps a namespace somebody else owns, such as the one of a
// running container. Delete leaves it alone.
func OpenNamespace(name, path string) *Namespace {
	return &Namespace{
		Name:      name,
		Path:      path,
		Owned:     false,
		CreatedAt: time.Now().Format(time.RFC3339),
	}
}

// Do runs fn on a locked OS thread switched into the namespace.
func (ns *Namespace) Do(fn func() error) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	origNS, err := netns.Get()
	if err != nil {
		return fmt.Errorf("get current netns: %w", err)
	}
	defer origNS.Close()

	targetNS, err := netns.GetFromPath(ns.Path)
	if err != nil {
		return fmt.Errorf("open netns %s: %w", ns.Name, err)
	}
	defer targetNS.Close()

	if err := netns.Set(targetNS); err != nil {
		return fmt.Errorf("setns %s: %w", ns.Name, err)
	}
	defer netns.Set(origNS)

	return fn()
}

// Exec runs a command inside the namespace and waits for it
func (ns *Namespace) Exec(ctx context.Context, cmd []string, stdin io.Reader, stdout, stderr io.Writer) error {
	if len(cmd) == 0 {
		return fmt.Errorf("empty command")
	}

	return ns.Do(func() error {
		// the child is forked from this locked thread and inherits its netns
		execution := exec.CommandContext(ctx, cmd[0], cmd[1:]...)
		execution.Stdin = stdin
		execution.Stdout = stdout
		execution.Stderr = stderr
		return execution.Run()
	})
}

// Delete removes the namespace if this process created it
func (ns *Namespace) Delete() error {
	if !ns.Owned {
		return nil
	}

	if err := netns.DeleteNamed(ns.Name); err != nil {
		return fmt.Errorf("delete netns %s: %w", ns.Name, err)
	}

	return nil
}
