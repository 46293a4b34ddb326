package topology

// PocTopology returns the deployment graph: three hosts, each on its own
// edge switch, and the three edge switches fanned into an aggregation
// switch.
//
//	h1 - s1 \
//	h2 - s2 - s4
//	h3 - s3 /
func PocTopology() Descriptor {
	topo := NewTopology()

	h1 := mustAdd(topo.AddHost("h1"))
	h2 := mustAdd(topo.AddHost("h2"))
	h3 := mustAdd(topo.AddHost("h3"))

	s1 := mustAdd(topo.AddSwitch("s1"))
	s2 := mustAdd(topo.AddSwitch("s2"))
	s3 := mustAdd(topo.AddSwitch("s3"))
	s4 := mustAdd(topo.AddSwitch("s4"))

	for _, pair := range [][2]NodeRef{
		{h1, s1},
		{h2, s2},
		{h3, s3},
		{s1, s4},
		{s2, s4},
		{s3, s4},
	} {
		if err := topo.AddLink(pair[0], pair[1]); err != nil {
			panic(err)
		}
	}

	return topo.Descriptor()
}

func mustAdd(ref NodeRef, err error) NodeRef {
	if err != nil {
		panic(err)
	}
	return ref
}
