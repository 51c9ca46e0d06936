package coordinator

import (
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"pkg.jsn.cam/fieldminmax/internal/collective"
	"pkg.jsn.cam/fieldminmax/pkg/minmax"
	"pkg.jsn.cam/fieldminmax/pkg/minmax/protocol"
)

// Config holds coordinator configuration
type Config struct {
	Port         int
	Partitions   int
	RoundTimeout time.Duration
}

// Coordinator hosts the collective rounds of one run
type Coordinator struct {
	runID     string
	startedAt time.Time
	rv        *collective.Rendezvous

	partitions map[int]*protocol.PartitionInfo

	mu sync.RWMutex
}

// NewCoordinator creates a coordinator for a run over cfg.Partitions partitions
func NewCoordinator(cfg Config) (*Coordinator, error) {
	if cfg.Partitions <= 0 {
		return nil, fmt.Errorf("partition count must be positive, got %d", cfg.Partitions)
	}

	c := &Coordinator{
		runID:      uuid.New().String(),
		startedAt:  time.Now(),
		rv:         collective.NewRendezvous(cfg.Partitions),
		partitions: make(map[int]*protocol.PartitionInfo),
	}

	log.Printf("[COORDINATOR] Run %s created for %d partitions", c.runID, cfg.Partitions)
	return c, nil
}

// RunID returns the id of the hosted run
func (c *Coordinator) RunID() string {
	return c.runID
}

// Register records a partition. A node may register again for the same
// partition (restart); a different node claiming a taken partition is refused.
func (c *Coordinator) Register(req protocol.RegistrationRequest) error {
	compatible, err := protocol.IsCompatibleVersion(req.Version, protocol.ToolVersion)
	if err != nil {
		return err
	}
	if !compatible {
		return fmt.Errorf("%w: %s", minmax.ErrIncompatibleVersion,
			protocol.GetCompatibilityError(req.Version, protocol.ToolVersion))
	}

	size := c.rv.Size()
	if req.Size != size {
		return fmt.Errorf("%w: node started for %d partitions, run has %d",
			minmax.ErrCollectiveMismatch, req.Size, size)
	}
	if req.Partition < 0 || req.Partition >= size {
		return fmt.Errorf("%w: %d", minmax.ErrPartitionOutOfRange, req.Partition)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.partitions[req.Partition]; ok && existing.NodeID != req.NodeID {
		return fmt.Errorf("partition %d already registered by node %s", req.Partition, existing.NodeID)
	}

	c.partitions[req.Partition] = &protocol.PartitionInfo{
		RegisteredAt: time.Now(),
		NodeID:       req.NodeID,
		Version:      req.Version,
		Partition:    req.Partition,
		Cells:        req.Cells,
	}

	log.Printf("[COORDINATOR] Partition %d registered (node %s, %d cells, %d/%d)",
		req.Partition, req.NodeID, req.Cells, len(c.partitions), size)
	return nil
}

// Registered reports whether a partition has registered
func (c *Coordinator) Registered(partition int) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	_, ok := c.partitions[partition]
	return ok
}

// Status returns a snapshot of the run
func (c *Coordinator) Status() protocol.StatusResponse {
	c.mu.RLock()
	defer c.mu.RUnlock()

	infos := make([]protocol.PartitionInfo, 0, len(c.partitions))
	for _, info := range c.partitions {
		infos = append(infos, *info)
	}
	sort.Slice(infos, func(i, j int) bool {
		return infos[i].Partition < infos[j].Partition
	})

	completed, failed, pending := c.rv.Stats()
	return protocol.StatusResponse{
		StartedAt:       c.startedAt,
		RunID:           c.runID,
		Version:         protocol.ToolVersion,
		Partitions:      infos,
		Size:            c.rv.Size(),
		Registered:      len(infos),
		RoundsCompleted: completed,
		RoundsFailed:    failed,
		RoundsPending:   pending,
	}
}
