package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"gopkg.in/urfave/cli.v1"

	"ovsnett/internal/config"
	"ovsnett/internal/ovsdb"
	"ovsnett/internal/shell"
	"ovsnett/internal/state"
	"ovsnett/internal/topology"
)

func runNetwork(c *cli.Context) (err error) {
	run, err := config.ParseArgs(c.Args())
	if err != nil {
		return err
	}

	desc := topology.PocTopology()
	if topologyFile != "" {
		if desc, err = topology.LoadFile(topologyFile); err != nil {
			return err
		}
	}

	store, err := state.NewStore(stateDir)
	if err != nil {
		return err
	}

	log := logger()
	eng, err := newEngine(log)
	if err != nil {
		return err
	}
	defer eng.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	builder := topology.NewBuilder(eng,
		topology.WithPrecondition(eng.EnableManager),
		topology.WithLogger(log.WithName("net")),
		topology.WithLedger(state.NewLedger(store)),
	)

	net, err := builder.Build(ctx, desc, run.Binding())
	if net != nil {
		// teardown runs on every path, including a failed build
		defer func() {
			if stopErr := net.Stop(context.Background()); stopErr != nil {
				log.Error(stopErr, "Teardown incomplete, run 'ovsnett cleanup' to finish it")
				if err == nil {
					err = stopErr
				}
			}
		}()
	}
	if err != nil {
		return err
	}

	if err := topology.NewBinder(net).AttachAll(ctx, run.InterfaceList()); err != nil {
		return err
	}

	opts := []shell.Option{
		shell.WithIO(os.Stdin, os.Stdout, os.Stderr),
		shell.WithLogger(log.WithName("cli")),
	}
	inspector, err := ovsdb.Connect(ctx, ovsdb.DefaultEndpoint)
	if err != nil {
		log.V(1).Info("OVSDB inspector unavailable, dump shows configured state only", "err", err)
	} else {
		defer inspector.Close()
		opts = append(opts, shell.WithInspector(inspector.Snapshot))
	}

	// From here on the shell owns the signals: Ctrl-C on a host command
	// stops that command, SIGTERM or Ctrl-C at the prompt ends the run.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigs)
	if ctx.Err() != nil {
		return nil
	}
	stop()
	opts = append(opts, shell.WithSignals(sigs))

	if err := shell.New(net, opts...).Run(context.Background()); err != nil {
		return fmt.Errorf("cli: %w", err)
	}
	return nil
}
