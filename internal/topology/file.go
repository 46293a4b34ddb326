package topology

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// fileSpec is the YAML form of a topology:
//
//	hosts:
//	  - name: h1
//	    ip: 10.0.0.1/8
//	switches:
//	  - name: s1
//	links:
//	  - [h1, s1]
type fileSpec struct {
	Hosts []struct {
		Name      string `yaml:"name"`
		IP        string `yaml:"ip,omitempty"`
		Container string `yaml:"container,omitempty"`
	} `yaml:"hosts"`
	Switches []struct {
		Name string `yaml:"name"`
	} `yaml:"switches"`
	Links [][]string `yaml:"links"`
}

// LoadFile reads a YAML topology from path.
func LoadFile(path string) (Descriptor, error) {
	f, err := os.Open(path)
	if err != nil {
		return Descriptor{}, fmt.Errorf("open topology file: %w", err)
	}
	defer f.Close()

	return Load(f)
}

// Load replays a YAML topology through AddHost, AddSwitch and AddLink, so a
// file fails the same way the equivalent calls would.
func Load(r io.Reader) (Descriptor, error) {
	var spec fileSpec
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&spec); err != nil {
		return Descriptor{}, fmt.Errorf("decode topology: %w", err)
	}

	topo := NewTopology()
	for _, h := range spec.Hosts {
		var opts []HostOption
		if h.IP != "" {
			opts = append(opts, WithIP(h.IP))
		}
		if h.Container != "" {
			opts = append(opts, WithContainer(h.Container))
		}
		if _, err := topo.AddHost(h.Name, opts...); err != nil {
			return Descriptor{}, err
		}
	}
	for _, s := range spec.Switches {
		if _, err := topo.AddSwitch(s.Name); err != nil {
			return Descriptor{}, err
		}
	}
	for i, l := range spec.Links {
		if len(l) != 2 {
			return Descriptor{}, fmt.Errorf("link %d: want 2 endpoints, got %d", i, len(l))
		}
		a, ok := topo.Ref(l[0])
		if !ok {
			return Descriptor{}, &UnknownNodeError{Name: l[0]}
		}
		b, ok := topo.Ref(l[1])
		if !ok {
			return Descriptor{}, &UnknownNodeError{Name: l[1]}
		}
		if err := topo.AddLink(a, b); err != nil {
			return Descriptor{}, err
		}
	}

	desc := topo.Descriptor()
	if err := desc.Validate(); err != nil {
		return Descriptor{}, err
	}
	return desc, nil
}
