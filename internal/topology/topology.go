package topology

type NodeType string

const (
	NodeHost   NodeType = "host"
	NodeSwitch NodeType = "switch"
)

// Node is a declared network endpoint. IP and Container only apply to hosts.
type Node struct {
	Name      string
	Type      NodeType
	IP        string
	Container string
}

// NodeRef identifies a node returned by AddHost or AddSwitch.
type NodeRef struct {
	Name string
	Type NodeType
}

// Link is an undirected edge between two declared nodes.
type Link struct {
	NodeA string
	NodeB string
}

func (l Link) key() [2]string {
	if l.NodeA < l.NodeB {
		return [2]string{l.NodeA, l.NodeB}
	}
	return [2]string{l.NodeB, l.NodeA}
}

type HostOption func(*Node)

// WithIP assigns a CIDR address to the host's first interface.
func WithIP(cidr string) HostOption {
	return func(n *Node) {
		n.IP = cidr
	}
}

// WithContainer backs the host with the network namespace of an existing
// Docker container instead of a fresh one.
func WithContainer(id string) HostOption {
	return func(n *Node) {
		n.Container = id
	}
}

// Topology accumulates node and link declarations. Call Descriptor to get
// the immutable value handed to a Builder.
type Topology struct {
	nodes []Node
	index map[string]int
	links []Link
	pairs map[[2]string]struct{}
}

func NewTopology() *Topology {
	return &Topology{
		nodes: []Node{},
		index: map[string]int{},
		links: []Link{},
		pairs: map[[2]string]struct{}{},
	}
}

func (t *Topology) AddHost(name string, opts ...HostOption) (NodeRef, error) {
	node := Node{Name: name, Type: NodeHost}
	for _, opt := range opts {
		opt(&node)
	}
	return t.add(node)
}

func (t *Topology) AddSwitch(name string) (NodeRef, error) {
	return t.add(Node{Name: name, Type: NodeSwitch})
}

func (t *Topology) add(node Node) (NodeRef, error) {
	if node.Name == "" {
		return NodeRef{}, &InvalidNameError{Name: node.Name, Reason: "empty"}
	}
	if _, exists := t.index[node.Name]; exists {
		return NodeRef{}, &DuplicateNameError{Name: node.Name}
	}

	t.index[node.Name] = len(t.nodes)
	t.nodes = append(t.nodes, node)
	return NodeRef{Name: node.Name, Type: node.Type}, nil
}

// AddLink records an undirected edge. Both endpoints must have been added
// before, with the same type the reference carries.
func (t *Topology) AddLink(a, b NodeRef) error {
	for _, ref := range []NodeRef{a, b} {
		if !t.has(ref) {
			return &UnknownNodeError{Name: ref.Name, Type: ref.Type}
		}
	}
	if a.Name == b.Name {
		return &SelfLinkError{Name: a.Name}
	}

	link := Link{NodeA: a.Name, NodeB: b.Name}
	if _, exists := t.pairs[link.key()]; exists {
		return &DuplicateLinkError{A: a.Name, B: b.Name}
	}

	t.pairs[link.key()] = struct{}{}
	t.links = append(t.links, link)
	return nil
}

func (t *Topology) has(ref NodeRef) bool {
	i, ok := t.index[ref.Name]
	if !ok {
		return false
	}
	return ref.Type == "" || t.nodes[i].Type == ref.Type
}

// Ref returns the reference of a declared node by name.
func (t *Topology) Ref(name string) (NodeRef, bool) {
	i, ok := t.index[name]
	if !ok {
		return NodeRef{}, false
	}
	return NodeRef{Name: name, Type: t.nodes[i].Type}, true
}

// Descriptor snapshots the declarations made so far.
func (t *Topology) Descriptor() Descriptor {
	d := Descriptor{
		links: append([]Link(nil), t.links...),
	}
	for _, node := range t.nodes {
		switch node.Type {
		case NodeHost:
			d.hosts = append(d.hosts, node)
		case NodeSwitch:
			d.switches = append(d.switches, node)
		}
	}
	return d
}
