package nodes

import (
	"context"
	"testing"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	kexec "k8s.io/utils/exec"
	fakeexec "k8s.io/utils/exec/testing"

	"ovsnett/internal/ovs"
)

func newTestSwitch(t *testing.T, name string, outputs ...string) (*OVSSwitch, *[][]string) {
	t.Helper()

	var calls [][]string
	fake := &fakeexec.FakeExec{
		LookPathFunc: func(cmd string) (string, error) { return cmd, nil },
	}
	for _, out := range outputs {
		out := out
		fake.CommandScript = append(fake.CommandScript, func(cmd string, args ...string) kexec.Cmd {
			calls = append(calls, args)
			return fakeexec.InitFakeCmd(&fakeexec.FakeCmd{
				RunScript: []fakeexec.FakeAction{
					func() ([]byte, []byte, error) { return []byte(out), nil, nil },
				},
			}, cmd, args...)
		})
	}

	driver, err := ovs.NewDriver(fake, logr.Discard())
	require.NoError(t, err)
	return NewSwitch(name, driver), &calls
}

func TestOVSSwitchPorts(t *testing.T) {
	sw, calls := newTestSwitch(t, "s1", "", "", "")
	ctx := context.Background()

	require.NoError(t, sw.AddPort(ctx, "s1-eth1"))
	require.NoError(t, sw.AddPort(ctx, "eth1"))
	assert.Equal(t, []string{"s1-eth1", "eth1"}, sw.Ports())

	require.NoError(t, sw.DelPort(ctx, "eth1"))
	assert.Equal(t, []string{"s1-eth1"}, sw.Ports())

	assert.Equal(t, []string{"--timeout=15", "--may-exist", "add-port", "s1", "eth1"}, (*calls)[1])
	assert.Equal(t, []string{"--timeout=15", "--if-exists", "del-port", "s1", "eth1"}, (*calls)[2])
}

func TestOVSSwitchController(t *testing.T) {
	sw, calls := newTestSwitch(t, "s4", "", "tcp:127.0.0.1:6633")
	ctx := context.Background()

	require.NoError(t, sw.SetController(ctx, "tcp:127.0.0.1:6633"))
	targets, err := sw.Controllers(ctx)
	require.NoError(t, err)

	assert.Equal(t, []string{"tcp:127.0.0.1:6633"}, targets)
	assert.Equal(t, []string{"--timeout=15", "set-controller", "s4", "tcp:127.0.0.1:6633"}, (*calls)[0])
}

func TestOVSSwitchDelete(t *testing.T) {
	sw, calls := newTestSwitch(t, "s2", "")

	require.NoError(t, sw.Delete(context.Background()))
	assert.Equal(t, [][]string{{"--timeout=15", "--if-exists", "del-br", "s2"}}, *calls)
}
