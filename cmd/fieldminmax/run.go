package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/schollz/progressbar/v3"
	"pkg.jsn.cam/fieldminmax/internal/config"
	"pkg.jsn.cam/fieldminmax/internal/coordinator"
	"pkg.jsn.cam/fieldminmax/internal/mesh"
	"pkg.jsn.cam/fieldminmax/internal/partition"
	"pkg.jsn.cam/fieldminmax/internal/runner"
	"pkg.jsn.cam/fieldminmax/pkg/minmax"
	"pkg.jsn.cam/fieldminmax/pkg/storage"
)

func runCmd(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	var o config.Config
	runFlags(fs, &o)
	configPath := fs.String("config", "", "path to the TOML config file")
	meshPath := fs.String("mesh", "", "path to the mesh JSON file")
	progress := fs.Bool("progress", true, "show a progress bar instead of per-cycle logs")
	fs.Parse(args)

	if *meshPath == "" {
		return fmt.Errorf("-mesh is required")
	}
	cfg, err := loadRunConfig(fs, *configPath, &o)
	if err != nil {
		return err
	}

	m, err := loadMesh(*meshPath)
	if err != nil {
		return err
	}

	store, err := openStore(cfg.DBPath)
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close()
	}

	opts := runner.Options{Config: cfg, Store: store, LogOutput: os.Stdout}

	var bar *progressbar.ProgressBar
	if *progress {
		bar = progressbar.NewOptions(cfg.Cycles,
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionSetDescription("cycles"),
			progressbar.OptionShowCount(),
		)
	}
	opts.OnCycle = func(p int, reports []minmax.CycleReport) {
		if p != 0 {
			return
		}
		if bar != nil {
			_ = bar.Add(1)
			return
		}
		logReports(reports)
	}

	if err := runner.RunLocal(ctx, opts, m); err != nil {
		return err
	}
	if bar != nil {
		_ = bar.Finish()
		fmt.Fprintln(os.Stderr)
	}

	log.Printf("Done: %d cycles over %s cells", cfg.Cycles, humanize.Comma(int64(len(m.Cells))))
	return nil
}

func coordinatorCmd(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("coordinator", flag.ExitOnError)
	var o config.Config
	fs.IntVar(&o.Port, "port", config.DefaultPort, "port to listen on")
	roundTimeout := fs.Duration("round-timeout", coordinator.DefaultRoundTimeout, "fail rounds waiting longer than this (0 disables)")
	fs.IntVar(&o.Partitions, "partitions", config.DefaultPartitions, "number of partitions taking part")
	fs.IntVar(&o.Partitions, "np", config.DefaultPartitions, "number of partitions (shorthand)")
	configPath := fs.String("config", "", "path to the TOML config file")
	fs.Parse(args)

	cfg, err := loadConfig(fs, *configPath, &o)
	if err != nil {
		return err
	}

	log.SetFlags(log.LstdFlags)
	srv, err := coordinator.NewServer(coordinator.Config{
		Port:         cfg.Port,
		Partitions:   cfg.Partitions,
		RoundTimeout: *roundTimeout,
	})
	if err != nil {
		return err
	}
	return srv.ListenAndServe(ctx)
}

func partitionCmd(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("partition", flag.ExitOnError)
	var o config.Config
	runFlags(fs, &o)
	fs.StringVar(&o.Coordinator, "coordinator", "", "coordinator URL")
	configPath := fs.String("config", "", "path to the TOML config file")
	meshPath := fs.String("mesh", "", "path to the mesh JSON file")
	id := fs.Int("id", 0, "partition id of this node")
	fs.Parse(args)

	if *meshPath == "" {
		return fmt.Errorf("-mesh is required")
	}
	cfg, err := loadRunConfig(fs, *configPath, &o)
	if err != nil {
		return err
	}
	if cfg.Coordinator == "" {
		cfg.Coordinator = fmt.Sprintf("http://localhost:%d", cfg.Port)
	}

	m, err := loadMesh(*meshPath)
	if err != nil {
		return err
	}

	var store storage.Store
	if *id == 0 {
		if store, err = openStore(cfg.DBPath); err != nil {
			return err
		}
		if store != nil {
			defer store.Close()
		}
	}

	log.SetFlags(log.LstdFlags)
	node, err := partition.NewNode(partition.Config{
		CoordinatorURL: cfg.Coordinator,
		Partition:      *id,
		Run:            cfg,
		Store:          store,
		LogOutput:      os.Stdout,
		OnCycle: func(p int, reports []minmax.CycleReport) {
			if p == 0 {
				logReports(reports)
			}
		},
	}, m)
	if err != nil {
		return err
	}
	return node.Start(ctx)
}

func loadMesh(path string) (*mesh.Mesh, error) {
	var m mesh.Mesh
	if err := mesh.Load(path, &m); err != nil {
		return nil, err
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("mesh %s: %w", path, err)
	}
	log.Printf("Loaded mesh %s: %s cells, fields %v", path, humanize.Comma(int64(len(m.Cells))), m.FieldNames())
	return &m, nil
}

// openStore opens the result database, or returns nil when path is empty.
func openStore(path string) (storage.Store, error) {
	if path == "" {
		return nil, nil
	}
	store, err := storage.NewBboltStore(path)
	if err != nil {
		return nil, fmt.Errorf("open result database: %w", err)
	}
	return store, nil
}

func logReports(reports []minmax.CycleReport) {
	for _, r := range reports {
		switch {
		case r.WriteErr != nil:
			log.Printf("Cycle %d: %d results, output failed: %v", r.Cycle.Index, len(r.Results), r.WriteErr)
		case len(r.Skipped)+len(r.Empty)+len(r.Disabled) > 0:
			log.Printf("Cycle %d: %d results (skipped %v, empty %v, disabled %v)",
				r.Cycle.Index, len(r.Results), r.Skipped, r.Empty, r.Disabled)
		default:
			log.Printf("Cycle %d: %d results", r.Cycle.Index, len(r.Results))
		}
	}
}
