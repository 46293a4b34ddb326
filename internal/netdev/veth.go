package netdev

import (
	"errors"
	"fmt"
	"time"

	"github.com/vishvananda/netlink"
	"github.com/vishvananda/netns"
)

// Veth represents a virtual ethernet pair
type Veth struct {
	Name      string `json:"name"`
	PeerName  string `json:"peer_name"`
	CreatedAt string `json:"created_at"`
}

// CreateVeth creates a veth pair in the current namespace. Both ends stay
// down until SetUp is called on them.
func CreateVeth(name, peerName string) (*Veth, error) {
	v := &netlink.Veth{
		LinkAttrs: netlink.LinkAttrs{
			Name: name,
		},
		PeerName: peerName,
	}

	if err := netlink.LinkAdd(v); err != nil {
		return nil, fmt.Errorf("create veth %s<->%s: %w", name, peerName, err)
	}

	return &Veth{
		Name:      name,
		PeerName:  peerName,
		CreatedAt: time.Now().Format(time.RFC3339),
	}, nil
}

// Delete removes the pair. Deleting either end removes both, and an end
// that was moved into a namespace disappears with it, so a missing link
// is not an error.
func (v *Veth) Delete() error {
	return DeleteLink(v.Name, v.PeerName)
}

// DeleteLink deletes the first of the given interfaces found in the
// current namespace.
func DeleteLink(names ...string) error {
	for _, name := range names {
		link, err := netlink.LinkByName(name)
		if err != nil {
			var notFound netlink.LinkNotFoundError
			if errors.As(err, &notFound) {
				continue
			}
			return fmt.Errorf("lookup %s: %w", name, err)
		}
		if err := netlink.LinkDel(link); err != nil {
			return fmt.Errorf("delete %s: %w", name, err)
		}
		return nil
	}
	return nil
}

// MoveToNamespace moves an interface from the current namespace into ns
func MoveToNamespace(ifName string, ns *Namespace) error {
	link, err := netlink.LinkByName(ifName)
	if err != nil {
		return fmt.Errorf("find interface %s: %w", ifName, err)
	}

	nsHandle, err := netns.GetFromPath(ns.Path)
	if err != nil {
		return fmt.Errorf("open namespace %s: %w", ns.Name, err)
	}
	defer nsHandle.Close()

	if err := netlink.LinkSetNsFd(link, int(nsHandle)); err != nil {
		return fmt.Errorf("set netns for %s: %w", ifName, err)
	}

	return nil
}

// SetUp brings an interface up. A nil namespace means the current one.
func SetUp(ifName string, ns *Namespace) error {
	up := func() error {
		link, err := netlink.LinkByName(ifName)
		if err != nil {
			return fmt.Errorf("get link %s: %w", ifName, err)
		}
		if err := netlink.LinkSetUp(link); err != nil {
			return fmt.Errorf("set %s up: %w", ifName, err)
		}
		return nil
	}

	if ns == nil {
		return up()
	}
	return ns.Do(up)
}

// AssignIP assigns an address to an interface inside a namespace
func AssignIP(ifName, ipCIDR string, ns *Namespace) error {
	addr, err := netlink.ParseAddr(ipCIDR)
	if err != nil {
		return fmt.Errorf("parse addr %s: %w", ipCIDR, err)
	}

	return ns.Do(func() error {
		link, err := netlink.LinkByName(ifName)
		if err != nil {
			return fmt.Errorf("get link %s: %w", ifName, err)
		}
		if err := netlink.AddrAdd(link, addr); err != nil {
			return fmt.Errorf("add addr %s to %s: %w", ipCIDR, ifName, err)
		}
		return nil
	})
}
