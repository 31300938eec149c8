package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/sawpanic/cascade/internal/application/cascade"
	"github.com/sawpanic/cascade/internal/data/records"
	"github.com/sawpanic/cascade/internal/domain/day"
)

type scoreOptions struct {
	records string
	date    string
	at      string
	compact bool
}

func newScoreCmd(g *globalOptions) *cobra.Command {
	opts := &scoreOptions{}
	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score one day from a records file",
		Long: `Score one day and print the cascade result as JSON.

The trailing window is read from the same records file or directory.
Without --date the newest record is scored; without --at the reference
time is now.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScore(cmd, g, opts)
		},
	}
	cmd.Flags().StringVar(&opts.records, "records", "", "Records YAML/JSON file or directory (required)")
	cmd.Flags().StringVar(&opts.date, "date", "", "Date to score (YYYY-MM-DD), defaults to the newest record")
	cmd.Flags().StringVar(&opts.at, "at", "", "Reference time (RFC3339), defaults to now")
	cmd.Flags().BoolVar(&opts.compact, "compact", false, "Print compact JSON")
	_ = cmd.MarkFlagRequired("records")
	return cmd
}

func loadRecords(path string) (*records.Store, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("records: %w", err)
	}
	if info.IsDir() {
		return records.LoadDir(path)
	}
	return records.LoadFile(path)
}

func runScore(cmd *cobra.Command, g *globalOptions, opts *scoreOptions) error {
	ctx := cmd.Context()

	store, err := loadRecords(opts.records)
	if err != nil {
		return err
	}

	var rec *day.Record
	if opts.date == "" {
		latest, ok := store.Latest()
		if !ok {
			return fmt.Errorf("no records in %s", opts.records)
		}
		rec = latest
	} else {
		date, err := time.Parse(day.DateLayout, opts.date)
		if err != nil {
			return fmt.Errorf("invalid --date: %w", err)
		}
		found, ok := store.Record(date)
		if !ok {
			return fmt.Errorf("no record for %s", opts.date)
		}
		rec = found
	}

	at := time.Now().UTC()
	if opts.at != "" {
		at, err = time.Parse(time.RFC3339, opts.at)
		if err != nil {
			return fmt.Errorf("invalid --at: %w", err)
		}
	}

	rt, err := g.load(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()

	date, err := rec.ParseDate()
	if err != nil {
		return err
	}
	window, err := store.Window(ctx, date, rt.policy.WindowDays())
	if err != nil {
		return err
	}

	res, err := rt.engine().Compute(ctx, cascade.Input{
		Record:  rec,
		Window:  window,
		Profile: rt.profile,
		At:      at,
	})
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	if !opts.compact {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(res)
}
