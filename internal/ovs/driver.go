package ovs

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/go-logr/logr"
	kexec "k8s.io/utils/exec"
)

const (
	ovsCommandTimeout = 15
	ovsVsctlCommand   = "ovs-vsctl"

	// ManagerTarget is the passive OVSDB listener the controller and the
	// inspector connect to.
	ManagerTarget = "ptcp:6640"

	FailModeSecure     = "secure"
	FailModeStandalone = "standalone"
)

// BridgeOptions are applied to a bridge in the same transaction that
// creates it.
type BridgeOptions struct {
	Protocol   string
	FailMode   string
	DatapathID string
}

// Driver runs ovs-vsctl through an exec interface so tests can script it.
type Driver struct {
	exec      kexec.Interface
	vsctlPath string
	log       logr.Logger
}

// NewDriver validates that ovs-vsctl is installed and returns a driver
// that runs it with exec.
func NewDriver(exec kexec.Interface, log logr.Logger) (*Driver, error) {
	vsctlPath, err := exec.LookPath(ovsVsctlCommand)
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", ovsVsctlCommand, err)
	}
	return &Driver{
		exec:      exec,
		vsctlPath: vsctlPath,
		log:       log,
	}, nil
}

func (d *Driver) run(ctx context.Context, args ...string) (*bytes.Buffer, *bytes.Buffer, error) {
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	cmd := d.exec.CommandContext(ctx, d.vsctlPath, args...)
	cmd.SetStdout(stdout)
	cmd.SetStderr(stderr)
	d.log.V(4).Info("exec: " + d.vsctlPath + " " + strings.Join(args, " "))
	err := cmd.Run()
	if err != nil {
		d.log.V(4).Info("exec: "+d.vsctlPath+" "+strings.Join(args, " ")+" failed", "err", err)
	}
	return stdout, stderr, err
}

// RunOVSVsctl runs a command via ovs-vsctl and returns its trimmed stdout.
func (d *Driver) RunOVSVsctl(ctx context.Context, args ...string) (string, error) {
	cmdArgs := []string{fmt.Sprintf("--timeout=%d", ovsCommandTimeout)}
	cmdArgs = append(cmdArgs, args...)

	stdout, stderr, err := d.run(ctx, cmdArgs...)
	if err != nil {
		return "", fmt.Errorf("ovs-vsctl %s: %w (stderr: %q)",
			strings.Join(args, " "), err, strings.TrimSpace(stderr.String()))
	}
	return strings.Trim(strings.TrimSpace(stdout.String()), "\""), nil
}

// SetManager opens the OVSDB management listener. Running it twice is
// harmless.
func (d *Driver) SetManager(ctx context.Context, target string) error {
	_, err := d.RunOVSVsctl(ctx, "set-manager", target)
	return err
}

// AddBridge (re)creates a bridge. A stale bridge of the same name left by
// an earlier run is removed first.
func (d *Driver) AddBridge(ctx context.Context, name string, opts BridgeOptions) error {
	args := []string{
		"--", "--if-exists", "del-br", name,
		"--", "add-br", name,
	}

	var settings []string
	if opts.Protocol != "" {
		settings = append(settings, "protocols="+opts.Protocol)
	}
	if opts.FailMode != "" {
		settings = append(settings, "fail-mode="+opts.FailMode)
	}
	if opts.DatapathID != "" {
		settings = append(settings, "other-config:datapath-id="+opts.DatapathID)
	}
	if len(settings) > 0 {
		args = append(args, "--", "set", "bridge", name)
		args = append(args, settings...)
	}

	_, err := d.RunOVSVsctl(ctx, args...)
	return err
}

func (d *Driver) DelBridge(ctx context.Context, name string) error {
	_, err := d.RunOVSVsctl(ctx, "--if-exists", "del-br", name)
	return err
}

func (d *Driver) SetController(ctx context.Context, bridge string, targets ...string) error {
	args := append([]string{"set-controller", bridge}, targets...)
	_, err := d.RunOVSVsctl(ctx, args...)
	return err
}

// GetController returns the controller targets configured on a bridge.
func (d *Driver) GetController(ctx context.Context, bridge string) ([]string, error) {
	out, err := d.RunOVSVsctl(ctx, "get-controller", bridge)
	if err != nil {
		return nil, err
	}
	return splitLines(out), nil
}

func (d *Driver) AddPort(ctx context.Context, bridge, port string) error {
	_, err := d.RunOVSVsctl(ctx, "--may-exist", "add-port", bridge, port)
	return err
}

func (d *Driver) DelPort(ctx context.Context, bridge, port string) error {
	_, err := d.RunOVSVsctl(ctx, "--if-exists", "del-port", bridge, port)
	return err
}

func (d *Driver) ListBridges(ctx context.Context) ([]string, error) {
	out, err := d.RunOVSVsctl(ctx, "list-br")
	if err != nil {
		return nil, err
	}
	return splitLines(out), nil
}

func (d *Driver) ListPorts(ctx context.Context, bridge string) ([]string, error) {
	out, err := d.RunOVSVsctl(ctx, "list-ports", bridge)
	if err != nil {
		return nil, err
	}
	return splitLines(out), nil
}

func splitLines(out string) []string {
	var lines []string
	for _, line := range strings.Split(out, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// DatapathID numbers bridges the way Mininet does: the n-th switch gets
// datapath id n, as 16 hex digits.
func DatapathID(n int) string {
	return fmt.Sprintf("%016x", n)
}
