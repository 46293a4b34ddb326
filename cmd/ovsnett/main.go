package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/go-logr/logr"
	"github.com/moby/sys/reexec"
	"gopkg.in/urfave/cli.v1"
	"k8s.io/klog/v2"
	kexec "k8s.io/utils/exec"

	"ovsnett/internal/engine"
	"ovsnett/internal/ovs"
	"ovsnett/internal/state"
)

var (
	version = "untagged"

	// global control param
	topologyFile string
	stateDir     string
	verbosity    int
)

func main() {
	// Handle the re-executed nsenter child used by "attach"
	if reexec.Init() {
		return
	}

	app := cli.NewApp()
	app.Name = "ovsnett"
	app.Usage = "build an OpenFlow test network of namespaces and Open vSwitch bridges"
	app.Version = version
	app.ArgsUsage = "[CONTROLLER_IP [IF0 [IF1 [IF2 [IF3]]]]]"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:        "topology, t",
			Usage:       "YAML topology to build instead of the built-in one",
			Destination: &topologyFile,
		},
		cli.StringFlag{
			Name:        "state-dir",
			Usage:       "where run records are kept",
			Value:       state.RUNS_DIR,
			EnvVar:      "OVSNETT_STATE_DIR",
			Destination: &stateDir,
		},
		cli.IntFlag{
			Name:        "verbosity",
			Usage:       "log verbosity, 4 shows every ovs-vsctl call",
			Value:       0,
			Destination: &verbosity,
		},
	}
	app.Before = setupLogging
	app.Action = runNetwork

	app.Commands = []cli.Command{
		{
			Name:    "ls",
			Aliases: []string{"list"},
			Usage:   "list recorded runs",
			Action:  listRuns,
		},
		{
			Name:      "cleanup",
			Usage:     "remove what recorded runs left behind",
			ArgsUsage: "[RUN_ID...]",
			Flags: []cli.Flag{
				cli.BoolFlag{
					Name:  "force, f",
					Usage: "also clean up runs whose process is still alive",
				},
			},
			Action: cleanupRuns,
		},
		{
			Name:      "show",
			Usage:     "show bridges, controllers and ports reported by ovsdb-server",
			ArgsUsage: "[ENDPOINT]",
			Action:    showSwitches,
		},
	}

	err := app.Run(os.Args)
	klog.Flush()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func setupLogging(c *cli.Context) error {
	fs := flag.NewFlagSet("klog", flag.ContinueOnError)
	klog.InitFlags(fs)
	if err := fs.Set("v", strconv.Itoa(verbosity)); err != nil {
		return err
	}
	return nil
}

func logger() logr.Logger {
	return klog.NewKlogr()
}

func newEngine(log logr.Logger) (*engine.Linux, error) {
	driver, err := ovs.NewDriver(kexec.New(), log.WithName("ovs"))
	if err != nil {
		return nil, err
	}
	return engine.NewLinux(driver, log.WithName("engine")), nil
}
