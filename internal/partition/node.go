package partition

import (
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/google/uuid"
	"pkg.jsn.cam/fieldminmax/internal/collective"
	"pkg.jsn.cam/fieldminmax/internal/config"
	"pkg.jsn.cam/fieldminmax/internal/mesh"
	"pkg.jsn.cam/fieldminmax/internal/runner"
	"pkg.jsn.cam/fieldminmax/pkg/minmax/protocol"
	"pkg.jsn.cam/fieldminmax/pkg/storage"
)

// Config holds partition node configuration
type Config struct {
	CoordinatorURL string
	Partition      int
	Run            *config.Config
	Store          storage.Store // only used on partition 0
	LogOutput      io.Writer
	OnCycle        runner.CycleFunc

	// WaitInterval is the delay between coordinator health probes
	// before registration.
	WaitInterval time.Duration
}

// Node runs one partition of a distributed evaluation
type Node struct {
	id     string
	client *collective.Client
	part   *mesh.Partition
	config Config
}

// NewNode creates a node for the cfg.Partition-th part of m. The mesh is
// decomposed locally with the run's method so every node derives the
// same layout.
func NewNode(cfg Config, m *mesh.Mesh) (*Node, error) {
	size := cfg.Run.Partitions
	if cfg.Partition < 0 || cfg.Partition >= size {
		return nil, fmt.Errorf("partition %d outside run of %d partitions", cfg.Partition, size)
	}

	parts, err := mesh.Decompose(m, size, cfg.Run.Decompose)
	if err != nil {
		return nil, fmt.Errorf("decompose: %w", err)
	}

	return &Node{
		id:     uuid.New().String(),
		client: collective.NewClient(cfg.CoordinatorURL, cfg.Partition, size),
		part:   parts[cfg.Partition],
		config: cfg,
	}, nil
}

// ID returns the node's unique id
func (n *Node) ID() string {
	return n.id
}

// Start waits for the coordinator, registers and runs every cycle.
func (n *Node) Start(ctx context.Context) error {
	p := n.config.Partition
	log.Printf("[PARTITION:%d] Starting node %s (version: %s, %d cells)",
		p, n.id, protocol.ToolVersion, len(n.part.Cells))

	if err := n.waitForCoordinator(ctx); err != nil {
		return err
	}

	regResp, err := n.client.Register(ctx, n.id, len(n.part.Cells))
	if err != nil {
		log.Printf("[PARTITION:%d] Registration failed: %v", p, err)
		return err
	}
	log.Printf("[PARTITION:%d] Registered with run %s (%d partitions)", p, regResp.RunID, regResp.Size)

	opts := runner.Options{
		Config:    n.config.Run,
		LogOutput: n.config.LogOutput,
		OnCycle:   n.config.OnCycle,
	}
	if p == 0 {
		opts.Store = n.config.Store
	}

	instances, err := runner.NewInstances(opts, n.client, n.part)
	if err != nil {
		return err
	}
	if err := runner.Drive(ctx, opts, n.client, instances); err != nil {
		log.Printf("[PARTITION:%d] Run failed: %v", p, err)
		return err
	}

	log.Printf("[PARTITION:%d] Completed %d cycles", p, n.config.Run.Cycles)
	return nil
}

// waitForCoordinator polls the coordinator's health endpoint until it
// answers or ctx is done
func (n *Node) waitForCoordinator(ctx context.Context) error {
	interval := n.config.WaitInterval
	if interval == 0 {
		interval = 500 * time.Millisecond
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		err := n.client.Health(ctx)
		if err == nil {
			return nil
		}
		log.Printf("[PARTITION:%d] Waiting for coordinator: %v", n.config.Partition, err)

		select {
		case <-ctx.Done():
			return fmt.Errorf("coordinator unreachable: %w", ctx.Err())
		case <-ticker.C:
		}
	}
}
