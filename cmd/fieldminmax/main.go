package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"pkg.jsn.cam/fieldminmax/internal/config"
	"pkg.jsn.cam/fieldminmax/internal/mesh"
)

const usage = `usage: fieldminmax <command> [flags]

commands:
  run          evaluate all partitions in this process
  coordinator  host the collective rounds of a distributed run
  partition    evaluate one partition against a coordinator
  status       show a coordinator's run
  history      print recorded results from a database
  functions    list the available function types
`

func main() {
	log.SetFlags(0)

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd, args := os.Args[1], os.Args[2:]

	var err error
	switch cmd {
	case "run":
		err = runCmd(ctx, args)
	case "coordinator":
		err = coordinatorCmd(ctx, args)
	case "partition":
		err = partitionCmd(ctx, args)
	case "status":
		err = statusCmd(ctx, args)
	case "history":
		err = historyCmd(args)
	case "functions":
		functionsCmd()
	case "-h", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", cmd, usage)
		os.Exit(2)
	}

	if err != nil {
		log.Fatalf("%s: %v", cmd, err)
	}
}

// loadConfig reads the optional config file and applies flag overrides.
// Only flags set on the command line override the file.
func loadConfig(fs *flag.FlagSet, path string, overrides *config.Config) (*config.Config, error) {
	cfg := config.NewConfig()
	if path != "" {
		if err := cfg.Load(path); err != nil {
			return nil, err
		}
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "partitions", "np":
			cfg.Partitions = overrides.Partitions
		case "decompose":
			cfg.Decompose = overrides.Decompose
		case "cycles":
			cfg.Cycles = overrides.Cycles
		case "output-dir":
			cfg.OutputDir = overrides.OutputDir
		case "db":
			cfg.DBPath = overrides.DBPath
		case "coordinator":
			cfg.Coordinator = overrides.Coordinator
		case "port":
			cfg.Port = overrides.Port
		}
	})

	return cfg, nil
}

// loadRunConfig is loadConfig for commands that evaluate functions.
func loadRunConfig(fs *flag.FlagSet, path string, overrides *config.Config) (*config.Config, error) {
	cfg, err := loadConfig(fs, path, overrides)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config:\n%w", err)
	}
	return cfg, nil
}

// runFlags registers the flags shared by run and partition.
func runFlags(fs *flag.FlagSet, o *config.Config) {
	fs.IntVar(&o.Partitions, "partitions", config.DefaultPartitions, "number of partitions")
	fs.IntVar(&o.Partitions, "np", config.DefaultPartitions, "number of partitions (shorthand)")
	fs.IntVar(&o.Cycles, "cycles", config.DefaultCycles, "number of cycles to evaluate")
	fs.StringVar(&o.OutputDir, "output-dir", config.DefaultOutputDir, "directory for .dat output")
	fs.StringVar(&o.DBPath, "db", "", "bbolt database recording every result")
	fs.Func("decompose", "decomposition method (simple, hash)", func(s string) error {
		o.Decompose = mesh.Method(s)
		return nil
	})
}
