package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	"golang.org/x/sync/errgroup"
	"pkg.jsn.cam/fieldminmax/internal/collective"
	"pkg.jsn.cam/fieldminmax/internal/config"
	"pkg.jsn.cam/fieldminmax/internal/mesh"
	"pkg.jsn.cam/fieldminmax/internal/output"
	"pkg.jsn.cam/fieldminmax/pkg/functions"
	"pkg.jsn.cam/fieldminmax/pkg/minmax"
	"pkg.jsn.cam/fieldminmax/pkg/storage"
)

// CycleFunc observes the reports of one cycle on one partition.
type CycleFunc func(partition int, reports []minmax.CycleReport)

// Options holds what a partition needs besides its communicator and data.
type Options struct {
	Config    *config.Config
	Store     storage.Store // optional; records are persisted when set
	LogOutput io.Writer     // destination of log = true output
	OnCycle   CycleFunc
}

// NewInstances builds the configured function objects for one partition.
// Writers are only attached on partition 0.
func NewInstances(opts Options, comm minmax.Communicator, src minmax.Source) ([]functions.Instance, error) {
	instances := make([]functions.Instance, 0, len(opts.Config.Functions))
	for _, fc := range opts.Config.Functions {
		spec, err := fc.Spec()
		if err != nil {
			return nil, err
		}

		var writers []minmax.Writer
		if comm.Partition() == 0 {
			if spec.Log && opts.LogOutput != nil {
				writers = append(writers, output.NewLogWriter(opts.LogOutput, spec.Name, spec.Location, comm.Size() > 1))
			}
			if spec.Write {
				writers = append(writers, output.NewFileWriter(opts.Config.OutputDir, spec.Name, spec.Location))
				if opts.Store != nil {
					writers = append(writers, output.NewStoreWriter(opts.Store, spec.Name))
				}
			}
		}

		inst, err := functions.New(fc.Type, spec, comm, src, writers...)
		if err != nil {
			return nil, err
		}
		instances = append(instances, inst)
	}
	return instances, nil
}

// Drive sets up the instances and evaluates them for the configured
// number of cycles. All partitions must call Drive with the same
// configuration. The instances are closed on return.
func Drive(ctx context.Context, opts Options, comm minmax.Communicator, instances []functions.Instance) (err error) {
	defer func() {
		for _, inst := range instances {
			if cerr := inst.Close(); cerr != nil {
				err = errors.Join(err, cerr)
			}
		}
	}()

	for _, inst := range instances {
		if err := inst.Setup(ctx); err != nil {
			return fmt.Errorf("setup: %w", err)
		}
	}

	cfg := opts.Config
	for i := 0; i < cfg.Cycles; i++ {
		cycle := minmax.Cycle{Index: i, Time: cfg.StartTime + float64(i)*cfg.DeltaT}

		reports := make([]minmax.CycleReport, 0, len(instances))
		for _, inst := range instances {
			report, err := inst.RunCycle(ctx, cycle)
			if err != nil {
				return fmt.Errorf("cycle %d: %s: %w", cycle.Index, inst.Spec().Name, err)
			}
			reports = append(reports, report)
		}

		if opts.OnCycle != nil {
			opts.OnCycle(comm.Partition(), reports)
		}
	}
	return nil
}

// RunLocal decomposes m and runs every partition in its own goroutine,
// communicating in-process. The first failing partition cancels the rest.
func RunLocal(ctx context.Context, opts Options, m *mesh.Mesh) error {
	cfg := opts.Config
	parts, err := mesh.Decompose(m, cfg.Partitions, cfg.Decompose)
	if err != nil {
		return err
	}
	group := collective.NewLocalGroup(cfg.Partitions)

	log.Printf("[RUN] %d cells over %d partitions (%s), %d cycles",
		len(m.Cells), cfg.Partitions, cfg.Decompose, cfg.Cycles)

	g, gctx := errgroup.WithContext(ctx)
	for p := range parts {
		comm, part := group[p], parts[p]
		g.Go(func() error {
			instances, err := NewInstances(opts, comm, part)
			if err != nil {
				return err
			}
			if err := Drive(gctx, opts, comm, instances); err != nil {
				return fmt.Errorf("partition %d: %w", comm.Partition(), err)
			}
			return nil
		})
	}
	return g.Wait()
}
