package main

import (
	"context"
	"errors"
	"fmt"

	"gopkg.in/urfave/cli.v1"

	"ovsnett/internal/state"
)

func cleanupRuns(c *cli.Context) error {
	store, err := state.NewStore(stateDir)
	if err != nil {
		return err
	}

	var records []*state.Record
	if c.NArg() > 0 {
		for _, id := range c.Args() {
			rec, err := store.FindByID(id)
			if err != nil {
				return err
			}
			records = append(records, rec)
		}
	} else {
		if records, err = store.List(); err != nil {
			return err
		}
	}

	if len(records) == 0 {
		fmt.Println("Nothing to clean up")
		return nil
	}

	log := logger()
	eng, err := newEngine(log)
	if err != nil {
		return err
	}
	defer eng.Close()

	var errs []error
	for _, rec := range records {
		if processAlive(rec.PID) && !c.Bool("force") {
			fmt.Printf("Skipping run %s: process %d is still running (use --force)\n", rec.ID, rec.PID)
			continue
		}

		fmt.Printf("Cleaning up run %s...\n", rec.ID)
		if err := eng.Cleanup(context.Background(), rec); err != nil {
			errs = append(errs, fmt.Errorf("run %s: %w", rec.ID, err))
			continue
		}
		if err := store.Delete(rec.ID); err != nil {
			errs = append(errs, err)
			continue
		}
		fmt.Printf("✓ Run %s removed\n", rec.ID)
	}

	return errors.Join(errs...)
}
