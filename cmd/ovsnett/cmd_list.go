package main

import (
	"fmt"
	"os"
	"syscall"
	"text/tabwriter"

	"gopkg.in/urfave/cli.v1"

	"ovsnett/internal/state"
)

func listRuns(c *cli.Context) error {
	store, err := state.NewStore(stateDir)
	if err != nil {
		return err
	}

	records, err := store.List()
	if err != nil {
		return err
	}

	if len(records) == 0 {
		fmt.Println("No recorded runs")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RUN ID\tPID\tSTATUS\tCONTROLLER\tHOSTS\tSWITCHES\tATTACHED\tCREATED")
	for _, rec := range records {
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%d\t%d\t%d\t%s\n",
			rec.ID, rec.PID, runStatus(rec), rec.Controller,
			len(rec.Hosts), len(rec.Switches), len(rec.Attachments), rec.CreatedAt)
	}
	return w.Flush()
}

// processAlive reports whether pid still exists
func processAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	err := syscall.Kill(pid, 0)
	return err == nil || err == syscall.EPERM
}

func runStatus(rec *state.Record) string {
	if processAlive(rec.PID) {
		return "running"
	}
	return "stale"
}
