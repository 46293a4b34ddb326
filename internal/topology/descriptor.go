package topology

import "fmt"

// maxNodeNameLen keeps "<node>-ethNN" within the 15 bytes a Linux
// interface name may use.
const maxNodeNameLen = 9

// Descriptor is the validated, read-only form of a Topology. Its accessors
// return copies, so a Descriptor can be shared freely.
type Descriptor struct {
	hosts    []Node
	switches []Node
	links    []Link
}

func (d Descriptor) Hosts() []Node {
	return append([]Node(nil), d.hosts...)
}

// Switches returns the switches in declaration order; the slice index is
// the switch ordinal.
func (d Descriptor) Switches() []Node {
	return append([]Node(nil), d.switches...)
}

func (d Descriptor) Links() []Link {
	return append([]Link(nil), d.links...)
}

func (d Descriptor) NodeCount() int {
	return len(d.hosts) + len(d.switches)
}

func (d Descriptor) Node(name string) (Node, bool) {
	for _, n := range d.hosts {
		if n.Name == name {
			return n, true
		}
	}
	for _, n := range d.switches {
		if n.Name == name {
			return n, true
		}
	}
	return Node{}, false
}

// SwitchOrdinal returns the 0-based declaration position of a switch.
func (d Descriptor) SwitchOrdinal(name string) (int, bool) {
	for i, n := range d.switches {
		if n.Name == name {
			return i, true
		}
	}
	return -1, false
}

// Switch returns the switch declared at the given ordinal.
func (d Descriptor) Switch(ordinal int) (Node, bool) {
	if ordinal < 0 || ordinal >= len(d.switches) {
		return Node{}, false
	}
	return d.switches[ordinal], true
}

// Validate checks the graph before it is materialized: unique names that
// fit a Linux interface name, and links between declared nodes only.
func (d Descriptor) Validate() error {
	seen := map[string]NodeType{}
	for _, group := range [][]Node{d.hosts, d.switches} {
		for _, n := range group {
			if err := validateName(n.Name); err != nil {
				return err
			}
			if _, dup := seen[n.Name]; dup {
				return &DuplicateNameError{Name: n.Name}
			}
			seen[n.Name] = n.Type
		}
	}

	pairs := map[[2]string]struct{}{}
	for _, l := range d.links {
		for _, end := range []string{l.NodeA, l.NodeB} {
			if _, ok := seen[end]; !ok {
				return &UnknownNodeError{Name: end}
			}
		}
		if l.NodeA == l.NodeB {
			return &SelfLinkError{Name: l.NodeA}
		}
		if _, dup := pairs[l.key()]; dup {
			return &DuplicateLinkError{A: l.NodeA, B: l.NodeB}
		}
		pairs[l.key()] = struct{}{}
	}
	return nil
}

func validateName(name string) error {
	if name == "" {
		return &InvalidNameError{Name: name, Reason: "empty"}
	}
	if len(name) > maxNodeNameLen {
		return &InvalidNameError{Name: name, Reason: fmt.Sprintf("longer than %d bytes", maxNodeNameLen)}
	}
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
		default:
			return &InvalidNameError{Name: name, Reason: fmt.Sprintf("character %q not allowed", r)}
		}
	}
	return nil
}
