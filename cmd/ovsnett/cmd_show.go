package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gopkg.in/urfave/cli.v1"

	"ovsnett/internal/ovsdb"
)

func showSwitches(c *cli.Context) error {
	endpoint := c.Args().First()
	if endpoint == "" {
		endpoint = ovsdb.DefaultEndpoint
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	inspector, err := ovsdb.Connect(ctx, endpoint)
	if err != nil {
		return err
	}
	defer inspector.Close()

	bridges, err := inspector.Snapshot(ctx)
	if err != nil {
		return err
	}

	for _, br := range bridges {
		fmt.Printf("Bridge %s\n", br.Name)
		if br.FailMode != "" {
			fmt.Printf("    fail_mode: %s\n", br.FailMode)
		}
		if len(br.Protocols) > 0 {
			fmt.Printf("    protocols: %s\n", strings.Join(br.Protocols, ","))
		}
		for _, ctrl := range br.Controllers {
			fmt.Printf("    Controller %q\n", ctrl.Target)
			if ctrl.Connected {
				fmt.Println("        is_connected: true")
			}
		}
		for _, port := range br.Ports {
			fmt.Printf("    Port %s\n", port)
		}
	}
	return nil
}
