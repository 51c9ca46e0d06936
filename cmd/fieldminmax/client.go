package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"pkg.jsn.cam/fieldminmax/internal/config"
	"pkg.jsn.cam/fieldminmax/pkg/functions"
	"pkg.jsn.cam/fieldminmax/pkg/minmax/protocol"
	"pkg.jsn.cam/fieldminmax/pkg/storage"
)

func statusCmd(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	url := fs.String("coordinator", fmt.Sprintf("http://localhost:%d", config.DefaultPort), "coordinator URL")
	fs.Parse(args)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, *url+"/api/status", nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to get status: %w", err)
	}
	defer resp.Body.Close()

	var status protocol.StatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	fmt.Printf("Run Details:\n")
	fmt.Printf("  ID:          %s\n", status.RunID)
	fmt.Printf("  Version:     %s\n", status.Version)
	fmt.Printf("  Started:     %s (%s)\n", status.StartedAt.Format("2006-01-02 15:04:05"), humanize.Time(status.StartedAt))
	fmt.Printf("  Partitions:  %d/%d registered\n", status.Registered, status.Size)
	fmt.Printf("\nRounds:\n")
	fmt.Printf("  Completed:   %s\n", humanize.Comma(int64(status.RoundsCompleted)))
	fmt.Printf("  Failed:      %s\n", humanize.Comma(int64(status.RoundsFailed)))
	fmt.Printf("  Pending:     %d\n", status.RoundsPending)

	if len(status.Partitions) == 0 {
		return nil
	}

	fmt.Printf("\n%-10s %-36s %-10s %s\n", "PARTITION", "NODE", "CELLS", "REGISTERED")
	fmt.Println(strings.Repeat("─", 80))
	for _, p := range status.Partitions {
		fmt.Printf("%-10d %-36s %-10s %s\n",
			p.Partition,
			p.NodeID,
			humanize.Comma(int64(p.Cells)),
			humanize.Time(p.RegisteredAt))
	}
	return nil
}

func historyCmd(args []string) error {
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	dbPath := fs.String("db", "", "result database written by run or partition")
	function := fs.String("function", "", "function name (lists recorded functions when empty)")
	label := fs.String("label", "", "result label, e.g. p or mag(U) (lists labels when empty)")
	fs.Parse(args)

	if *dbPath == "" {
		return fmt.Errorf("-db is required")
	}
	if _, err := os.Stat(*dbPath); err != nil {
		return err
	}

	store, err := storage.NewBboltStore(*dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	if size, err := store.Size(); err == nil {
		fmt.Printf("Database %s (%s)\n\n", *dbPath, humanize.Bytes(uint64(size)))
	}

	switch {
	case *function == "":
		names, err := store.Functions()
		if err != nil {
			return err
		}
		if len(names) == 0 {
			fmt.Println("No results recorded")
		}
		for _, name := range names {
			fmt.Println(name)
		}
		return nil

	case *label == "":
		labels, err := store.Labels(*function)
		if err != nil {
			return err
		}
		if len(labels) == 0 {
			fmt.Printf("No results recorded for %s\n", *function)
		}
		for _, l := range labels {
			fmt.Println(l)
		}
		return nil
	}

	records, err := store.History(*function, *label)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Printf("No results recorded for %s %s\n", *function, *label)
		return nil
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CYCLE\tTIME\tMIN\tAT\tPROC\tMAX\tAT\tPROC")
	for _, r := range records {
		res := r.Result
		fmt.Fprintf(tw, "%d\t%g\t%g\t(%g %g %g)\t%d\t%g\t(%g %g %g)\t%d\n",
			r.Cycle.Index, r.Cycle.Time,
			res.Min.Value, res.Min.Location.X, res.Min.Location.Y, res.Min.Location.Z, res.Min.Partition,
			res.Max.Value, res.Max.Location.X, res.Max.Location.Y, res.Max.Location.Z, res.Max.Partition)
	}
	return tw.Flush()
}

func functionsCmd() {
	for _, name := range functions.List() {
		desc, _ := functions.Description(name)
		fmt.Printf("%-15s %s\n", name, desc)
	}
}
