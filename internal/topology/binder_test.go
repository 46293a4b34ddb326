package topology_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ovsnett/internal/topology"
	"ovsnett/internal/topology/topologytest"
)

func TestAttachAllPositional(t *testing.T) {
	engine := topologytest.NewFakeEngine()
	ledger := &memLedger{}
	net := build(t, engine, "10.0.0.5", topology.WithLedger(ledger))
	savesAfterBuild := ledger.saves

	err := topology.NewBinder(net).AttachAll(context.Background(), []string{"eth1", "eth2", "eth3"})
	require.NoError(t, err)

	assert.Equal(t, []topology.Attachment{
		{Interface: "eth1", Ordinal: 0, Switch: "s1"},
		{Interface: "eth2", Ordinal: 1, Switch: "s2"},
		{Interface: "eth3", Ordinal: 2, Switch: "s3"},
	}, net.Attachments())
	assert.Equal(t, []string{"addport s1 eth1", "addport s2 eth2", "addport s3 eth3"},
		filter(engine.EventsWithPrefix("addport "), "eth1", "eth2", "eth3"))
	assert.Equal(t, []string{"up eth1", "up eth2", "up eth3"},
		filter(engine.EventsWithPrefix("up "), "eth1", "eth2", "eth3"))
	assert.Equal(t, savesAfterBuild+3, ledger.saves)

	// s4 only carries its three links
	s4, ok := net.Switch("s4")
	require.True(t, ok)
	assert.Equal(t, []string{"s4-eth1", "s4-eth2", "s4-eth3"}, s4.Ports())
}

func TestAttachAllSkipsEmptyNames(t *testing.T) {
	engine := topologytest.NewFakeEngine()
	net := build(t, engine, "")

	err := topology.NewBinder(net).AttachAll(context.Background(), []string{"", "eth1", "eth2"})
	require.NoError(t, err)

	assert.Equal(t, []topology.Attachment{
		{Interface: "eth1", Ordinal: 1, Switch: "s2"},
		{Interface: "eth2", Ordinal: 2, Switch: "s3"},
	}, net.Attachments())
}

func TestAttachAllNoInterfaces(t *testing.T) {
	engine := topologytest.NewFakeEngine()
	net := build(t, engine, "")
	before := len(engine.Events())

	require.NoError(t, topology.NewBinder(net).AttachAll(context.Background(), nil))
	require.NoError(t, topology.NewBinder(net).AttachAll(context.Background(), []string{"", "", "", ""}))

	assert.Len(t, engine.Events(), before)
	assert.Empty(t, net.Attachments())
}

func TestAttachAllIgnoresReservedInterface(t *testing.T) {
	sink := &logSink{}
	engine := topologytest.NewFakeEngine()
	net := build(t, engine, "", topology.WithLogger(sink.logger(2)))

	err := topology.NewBinder(net).AttachAll(context.Background(), []string{"eth1", "eth2", "eth3", "eth4"})
	require.NoError(t, err)

	assert.Len(t, net.Attachments(), 3)
	assert.Empty(t, filter(engine.EventsWithPrefix("addport "), "eth4"))
	assert.True(t, sink.contains(`"interface"="eth4"`))
}

func TestAttachOutOfRange(t *testing.T) {
	topo := topology.NewTopology()
	_, _ = topo.AddSwitch("s1")
	_, _ = topo.AddSwitch("s2")

	engine := topologytest.NewFakeEngine()
	net, err := topology.NewBuilder(engine).Build(context.Background(), topo.Descriptor(), topology.DefaultBinding(""))
	require.NoError(t, err)
	defer net.Stop(context.Background())

	err = topology.NewBinder(net).AttachAll(context.Background(), []string{"eth1", "eth2", "eth3"})

	var oor *topology.OrdinalOutOfRangeError
	require.ErrorAs(t, err, &oor)
	assert.Equal(t, "eth3", oor.Interface)
	assert.Equal(t, 2, oor.Ordinal)
	assert.Equal(t, 2, oor.Switches)

	// earlier attachments are kept
	assert.Equal(t, []topology.Attachment{
		{Interface: "eth1", Ordinal: 0, Switch: "s1"},
		{Interface: "eth2", Ordinal: 1, Switch: "s2"},
	}, net.Attachments())

	err = topology.NewBinder(net).Attach(context.Background(), "eth9", -1)
	assert.ErrorAs(t, err, &oor)
}

func TestAttachLogsBeforeBinding(t *testing.T) {
	sink := &logSink{}
	engine := topologytest.NewFakeEngine()
	engine.FailAddPort["eth1"] = errors.New("no such device")
	net := build(t, engine, "", topology.WithLogger(sink.logger(0)))

	err := topology.NewBinder(net).Attach(context.Background(), "eth1", 0)

	var merr *topology.MaterializationError
	require.ErrorAs(t, err, &merr)
	assert.Equal(t, topology.StageAttach, merr.Stage)
	assert.True(t, sink.contains(`"msg"="Adding hardware interface" "interface"="eth1" "switch"="s1"`))
	assert.Empty(t, net.Attachments())
}

func TestAttachPortUpFailureReleasesPort(t *testing.T) {
	engine := topologytest.NewFakeEngine()
	engine.FailPortUp["eth2"] = errors.New("operation not permitted")
	net := build(t, engine, "")

	err := topology.NewBinder(net).AttachAll(context.Background(), []string{"eth1", "eth2"})

	var merr *topology.MaterializationError
	require.ErrorAs(t, err, &merr)
	assert.Equal(t, topology.StageAttach, merr.Stage)
	assert.Equal(t, "s2", merr.Node)
	assert.Equal(t, []string{"delport s2 eth2"}, engine.EventsWithPrefix("delport "))
	assert.Equal(t, []topology.Attachment{{Interface: "eth1", Ordinal: 0, Switch: "s1"}}, net.Attachments())

	s2, ok := net.Switch("s2")
	require.True(t, ok)
	assert.NotContains(t, s2.Ports(), "eth2")
}

func TestAttachByName(t *testing.T) {
	engine := topologytest.NewFakeEngine()
	net := build(t, engine, "")
	binder := topology.NewBinder(net)

	require.NoError(t, binder.AttachByName(context.Background(), "eth1", "s4"))
	assert.Equal(t, []topology.Attachment{{Interface: "eth1", Ordinal: 3, Switch: "s4"}}, net.Attachments())

	var unknown *topology.UnknownNodeError
	assert.ErrorAs(t, binder.AttachByName(context.Background(), "eth2", "s9"), &unknown)
	assert.ErrorAs(t, binder.AttachByName(context.Background(), "eth2", "h1"), &unknown)
	assert.NoError(t, binder.AttachByName(context.Background(), "", "s9"))
}

func TestCustomOrdinals(t *testing.T) {
	engine := topologytest.NewFakeEngine()
	net := build(t, engine, "")

	err := topology.NewBinder(net, topology.WithOrdinals(3, 0)).AttachAll(context.Background(), []string{"eth1", "eth2", "eth3"})
	require.NoError(t, err)

	assert.Equal(t, []topology.Attachment{
		{Interface: "eth1", Ordinal: 3, Switch: "s4"},
		{Interface: "eth2", Ordinal: 0, Switch: "s1"},
	}, net.Attachments())
}

// filter keeps the events whose last field is one of the given interfaces.
func filter(events []string, ifaces ...string) []string {
	var out []string
	for _, ev := range events {
		fields := strings.Fields(ev)
		for _, iface := range ifaces {
			if fields[len(fields)-1] == iface {
				out = append(out, ev)
				break
			}
		}
	}
	return out
}
