package topology

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddHostDuplicate(t *testing.T) {
	topo := NewTopology()
	_, err := topo.AddHost("h1")
	require.NoError(t, err)

	_, err = topo.AddHost("h1")
	var dup *DuplicateNameError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "h1", dup.Name)

	_, err = topo.AddSwitch("h1")
	assert.ErrorAs(t, err, &dup)
}

func TestAddLinkUnknownNode(t *testing.T) {
	topo := NewTopology()
	h1, err := topo.AddHost("h1")
	require.NoError(t, err)

	err = topo.AddLink(h1, NodeRef{Name: "s9", Type: NodeSwitch})
	var unknown *UnknownNodeError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "s9", unknown.Name)

	// a host reference cannot stand for a switch of the same name
	_, err = topo.AddSwitch("s1")
	require.NoError(t, err)
	err = topo.AddLink(h1, NodeRef{Name: "s1", Type: NodeHost})
	assert.ErrorAs(t, err, &unknown)

	assert.Empty(t, topo.Descriptor().Links())
}

func TestAddLinkRejectsSelfAndParallel(t *testing.T) {
	topo := NewTopology()
	h1, _ := topo.AddHost("h1")
	s1, _ := topo.AddSwitch("s1")

	var self *SelfLinkError
	assert.ErrorAs(t, topo.AddLink(s1, s1), &self)

	require.NoError(t, topo.AddLink(h1, s1))
	var dup *DuplicateLinkError
	assert.ErrorAs(t, topo.AddLink(s1, h1), &dup)
}

func TestDescriptorIsASnapshot(t *testing.T) {
	topo := NewTopology()
	_, _ = topo.AddSwitch("s1")
	desc := topo.Descriptor()

	_, _ = topo.AddSwitch("s2")

	assert.Len(t, desc.Switches(), 1)
	assert.Len(t, topo.Descriptor().Switches(), 2)

	switches := desc.Switches()
	switches[0].Name = "mutated"
	assert.Equal(t, "s1", desc.Switches()[0].Name)
}

func TestPocTopology(t *testing.T) {
	desc := PocTopology()

	require.NoError(t, desc.Validate())
	assert.Equal(t, 7, desc.NodeCount())

	var hosts, switches []string
	for _, h := range desc.Hosts() {
		hosts = append(hosts, h.Name)
	}
	for _, s := range desc.Switches() {
		switches = append(switches, s.Name)
	}
	assert.Equal(t, []string{"h1", "h2", "h3"}, hosts)
	assert.Equal(t, []string{"s1", "s2", "s3", "s4"}, switches)

	assert.Equal(t, []Link{
		{NodeA: "h1", NodeB: "s1"},
		{NodeA: "h2", NodeB: "s2"},
		{NodeA: "h3", NodeB: "s3"},
		{NodeA: "s1", NodeB: "s4"},
		{NodeA: "s2", NodeB: "s4"},
		{NodeA: "s3", NodeB: "s4"},
	}, desc.Links())

	for i, name := range switches {
		ordinal, ok := desc.SwitchOrdinal(name)
		require.True(t, ok)
		assert.Equal(t, i, ordinal)
	}
	_, ok := desc.SwitchOrdinal("h1")
	assert.False(t, ok)

	s4, ok := desc.Switch(3)
	require.True(t, ok)
	assert.Equal(t, "s4", s4.Name)
	_, ok = desc.Switch(4)
	assert.False(t, ok)
}

func TestValidateNames(t *testing.T) {
	for name, wantErr := range map[string]bool{
		"h1":         false,
		"edge_sw1":   false,
		"abcdefghi":  false,
		"abcdefghij": true,
		"h-1":        true,
		"h 1":        true,
	} {
		topo := NewTopology()
		_, err := topo.AddHost(name)
		require.NoError(t, err)

		err = topo.Descriptor().Validate()
		if wantErr {
			var invalid *InvalidNameError
			assert.ErrorAs(t, err, &invalid, name)
		} else {
			assert.NoError(t, err, name)
		}
	}

	_, err := NewTopology().AddSwitch("")
	var invalid *InvalidNameError
	assert.ErrorAs(t, err, &invalid)
}

func TestLoad(t *testing.T) {
	desc, err := Load(strings.NewReader(`
hosts:
  - name: h1
    ip: 192.168.0.1/24
  - name: web
    container: 4f2a
switches:
  - name: s1
  - name: s2
links:
  - [h1, s1]
  - [web, s2]
  - [s1, s2]
`))
	require.NoError(t, err)

	h1, ok := desc.Node("h1")
	require.True(t, ok)
	assert.Equal(t, "192.168.0.1/24", h1.IP)

	web, ok := desc.Node("web")
	require.True(t, ok)
	assert.Equal(t, "4f2a", web.Container)

	assert.Len(t, desc.Switches(), 2)
	assert.Len(t, desc.Links(), 3)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(strings.NewReader("switches:\n  - name: s1\nlinks:\n  - [s1, s2]\n"))
	var unknown *UnknownNodeError
	assert.ErrorAs(t, err, &unknown)

	_, err = Load(strings.NewReader("switches:\n  - name: s1\n  - name: s1\n"))
	var dup *DuplicateNameError
	assert.ErrorAs(t, err, &dup)

	_, err = Load(strings.NewReader("switches:\n  - name: s1\n  - name: s2\nlinks:\n  - [s1, s2, s1]\n"))
	assert.ErrorContains(t, err, "want 2 endpoints")

	_, err = Load(strings.NewReader("routers:\n  - name: r1\n"))
	assert.Error(t, err)
}

func TestMaterializationErrorUnwrap(t *testing.T) {
	cause := errors.New("ovs-vsctl: no bridge")
	err := error(&MaterializationError{Stage: StageSwitch, Node: "s1", Err: cause})

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "materialize switch s1: ovs-vsctl: no bridge", err.Error())
}

func TestControllerTarget(t *testing.T) {
	assert.Equal(t, "tcp:127.0.0.1:6633", DefaultBinding("").Target())
	assert.Equal(t, "tcp:10.0.0.5:6633", DefaultBinding("10.0.0.5").Target())
	assert.Equal(t, "tcp:[fd00::1]:6633", DefaultBinding("fd00::1").Target())
	assert.Equal(t, "OpenFlow13", DefaultBinding("").Protocol)
}
