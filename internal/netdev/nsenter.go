package netdev

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"syscall"

	"github.com/moby/sys/reexec"
	"golang.org/x/sys/unix"
)

const (
	NSENTER_CMD = "ovsnett-nsenter"
)

func init() {
	reexec.Register(NSENTER_CMD, nsenterMain)
}

// nsenterMain runs in the re-executed child: os.Args is
// [NSENTER_CMD, nsPath, label]. It never returns.
func nsenterMain() {
	if len(os.Args) < 3 {
		fmt.Fprintln(os.Stderr, "nsenter: missing namespace path")
		os.Exit(1)
	}

	nsPath := os.Args[1]
	label := os.Args[2]

	runtime.LockOSThread()

	nsFd, err := os.Open(nsPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "nsenter: open namespace: %v\n", err)
		os.Exit(1)
	}

	// Enter the network namespace
	if err := unix.Setns(int(nsFd.Fd()), unix.CLONE_NEWNET); err != nil {
		fmt.Fprintf(os.Stderr, "nsenter: setns: %v\n", err)
		os.Exit(1)
	}
	nsFd.Close()

	os.Setenv("PS1", fmt.Sprintf("ovsnett@%s:\\w $ ", label))

	bashArgs := []string{
		"bash",
		"--noprofile",
		"--norc",
	}

	if err := syscall.Exec("/bin/bash", bashArgs, os.Environ()); err != nil {
		fmt.Fprintf(os.Stderr, "nsenter: exec bash: %v\n", err)
		os.Exit(1)
	}
}

// Shell starts an interactive bash inside the namespace and waits for it
// to exit. The binary must call reexec.Init first thing in main.
func (ns *Namespace) Shell(label string, stdin io.Reader, stdout, stderr io.Writer) error {
	cmd := reexec.Command(NSENTER_CMD, ns.Path, label)
	cmd.Stdin = stdin
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("shell in %s: %w", ns.Name, err)
	}
	return nil
}
