package shell

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"strings"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ovsnett/internal/ovsdb"
	"ovsnett/internal/topology"
	"ovsnett/internal/topology/topologytest"
)

func runningNetwork(t *testing.T) (*topology.Network, *topologytest.FakeEngine) {
	t.Helper()

	engine := topologytest.NewFakeEngine()
	ctx := context.Background()
	net, err := topology.NewBuilder(engine).Build(ctx, topology.PocTopology(), topology.DefaultBinding("10.0.0.5"))
	require.NoError(t, err)
	require.NoError(t, topology.NewBinder(net).AttachAll(ctx, []string{"eth1"}))
	t.Cleanup(func() { _ = net.Stop(context.Background()) })
	return net, engine
}

func runScript(t *testing.T, net *topology.Network, script string, opts ...Option) string {
	t.Helper()

	var out bytes.Buffer
	opts = append([]Option{WithIO(strings.NewReader(script), &out, &out)}, opts...)
	require.NoError(t, New(net, opts...).Run(context.Background()))
	return out.String()
}

func TestNodesAndLinks(t *testing.T) {
	net, _ := runningNetwork(t)

	out := runScript(t, net, "nodes\nlinks\n")

	assert.Contains(t, out, "h1 h2 h3 s1 s2 s3 s4\n")
	assert.Contains(t, out, "h1-eth0<->s1-eth1\n")
	assert.Contains(t, out, "s3-eth2<->s4-eth3\n")
}

func TestNet(t *testing.T) {
	net, _ := runningNetwork(t)

	out := runScript(t, net, "net\n")

	assert.Contains(t, out, "h1 h1-eth0:s1-eth1\n")
	assert.Contains(t, out, "s1 s1-eth1:h1-eth0 s1-eth2:s4-eth1 eth1:hw\n")
	assert.Contains(t, out, "s4 s4-eth1:s1-eth2 s4-eth2:s2-eth2 s4-eth3:s3-eth2\n")
}

func TestIntfsAndAttachments(t *testing.T) {
	net, _ := runningNetwork(t)

	out := runScript(t, net, "intfs\nattachments\n")

	assert.Contains(t, out, "h2: h2-eth0\n")
	assert.Contains(t, out, "s1: s1-eth1,s1-eth2,eth1\n")
	assert.Contains(t, out, "eth1 -> s1 (ordinal 0)\n")
}

func TestExecReplacesHostNames(t *testing.T) {
	net, engine := runningNetwork(t)

	out := runScript(t, net, "h1 ping -c1 h2\n")

	assert.Equal(t, []string{"exec h1 ping -c1 10.0.0.2"}, engine.EventsWithPrefix("exec "))
	assert.Contains(t, out, "ping -c1 10.0.0.2\n")
}

func TestAttachHost(t *testing.T) {
	net, engine := runningNetwork(t)

	out := runScript(t, net, "attach h3\nattach s1\nattach\n")

	assert.Equal(t, []string{"shell h3"}, engine.EventsWithPrefix("shell "))
	assert.Contains(t, out, `*** unknown host "s1"`)
	assert.Contains(t, out, "*** usage: attach <host>")
}

func TestUnknownCommandKeepsRunning(t *testing.T) {
	net, engine := runningNetwork(t)

	out := runScript(t, net, "pingall\nh1\n\n# comment\nh2 true\n")

	assert.Contains(t, out, "*** unknown command: pingall")
	assert.Contains(t, out, "*** usage: h1 <command> [args...]")
	assert.Equal(t, []string{"exec h2 true"}, engine.EventsWithPrefix("exec "))
}

func TestExitStopsReading(t *testing.T) {
	net, engine := runningNetwork(t)

	runScript(t, net, "quit\nh1 true\n")

	assert.Empty(t, engine.EventsWithPrefix("exec "))
}

func TestDump(t *testing.T) {
	net, _ := runningNetwork(t)

	inspect := func(ctx context.Context) ([]ovsdb.BridgeStatus, error) {
		return []ovsdb.BridgeStatus{
			{Name: "s1", FailMode: "secure", Protocols: []string{"OpenFlow13"},
				Controllers: []ovsdb.ControllerStatus{{Target: "tcp:10.0.0.5:6633", Connected: true}},
				Ports:       []string{"eth1", "s1-eth1", "s1-eth2"}},
			{Name: "br-ex"},
		}, nil
	}

	out := runScript(t, net, "dump\n", WithInspector(inspect))

	assert.Contains(t, out, "<Host h1: h1-eth0 ip=10.0.0.1/8 netns=/run/netns/h1>\n")
	assert.Contains(t, out, "<OVSSwitch s4: s4-eth1,s4-eth2,s4-eth3 controller=tcp:10.0.0.5:6633>\n")
	assert.Contains(t, out, "<RemoteController c0: tcp:10.0.0.5:6633 protocol=OpenFlow13>\n")
	assert.Contains(t, out, "s1: fail_mode=secure protocols=OpenFlow13 controllers=[tcp:10.0.0.5:6633 connected] ports=eth1,s1-eth1,s1-eth2\n")
	assert.NotContains(t, out, "br-ex")
}

func TestDumpInspectorFailure(t *testing.T) {
	net, _ := runningNetwork(t)

	out := runScript(t, net, "dump\n", WithInspector(func(context.Context) ([]ovsdb.BridgeStatus, error) {
		return nil, errors.New("connection refused")
	}))

	assert.Contains(t, out, "*** inspect switches: connection refused")
}

func TestRunReturnsOnCancel(t *testing.T) {
	net, _ := runningNetwork(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// a reader that never returns stands in for an idle operator
	blocked := &blockingReader{ch: make(chan struct{})}
	defer close(blocked.ch)

	err := New(net, WithIO(blocked, io.Discard, io.Discard)).Run(ctx)
	assert.NoError(t, err)
}

type blockingReader struct {
	ch chan struct{}
}

func (r *blockingReader) Read(p []byte) (int, error) {
	<-r.ch
	return 0, errors.New("closed")
}

// interruptingInspector delivers sig while the command is running and
// waits for the command to be cancelled.
func interruptingInspector(sigs chan<- os.Signal, sig os.Signal) InspectFunc {
	return func(ctx context.Context) ([]ovsdb.BridgeStatus, error) {
		sigs <- sig
		<-ctx.Done()
		return nil, ctx.Err()
	}
}

func TestInterruptStopsOnlyTheRunningCommand(t *testing.T) {
	net, engine := runningNetwork(t)
	sigs := make(chan os.Signal)

	out := runScript(t, net, "dump\nnodes\nh1 true\n",
		WithSignals(sigs), WithInspector(interruptingInspector(sigs, os.Interrupt)))

	assert.Contains(t, out, "*** interrupted: inspect switches: context canceled")
	assert.Contains(t, out, "available nodes are:")
	assert.Equal(t, []string{"exec h1 true"}, engine.EventsWithPrefix("exec "))
}

func TestTerminateDuringCommandLeaves(t *testing.T) {
	net, engine := runningNetwork(t)
	sigs := make(chan os.Signal)

	out := runScript(t, net, "dump\nh1 true\n",
		WithSignals(sigs), WithInspector(interruptingInspector(sigs, syscall.SIGTERM)))

	assert.Contains(t, out, "inspect switches: context canceled")
	assert.Empty(t, engine.EventsWithPrefix("exec "))
}

func TestInterruptAtPromptLeaves(t *testing.T) {
	net, _ := runningNetwork(t)

	sigs := make(chan os.Signal, 1)
	sigs <- os.Interrupt
	blocked := &blockingReader{ch: make(chan struct{})}
	defer close(blocked.ch)

	err := New(net, WithIO(blocked, io.Discard, io.Discard), WithSignals(sigs)).Run(context.Background())
	assert.NoError(t, err)
}
