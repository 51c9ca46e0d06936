package runner

import (
	"bytes"
	"context"
	"errors"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang/geo/r3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pkg.jsn.cam/fieldminmax/internal/config"
	"pkg.jsn.cam/fieldminmax/internal/mesh"
	"pkg.jsn.cam/fieldminmax/internal/output"
	"pkg.jsn.cam/fieldminmax/pkg/minmax"
	"pkg.jsn.cam/fieldminmax/pkg/storage"
)

func testMesh(t *testing.T) *mesh.Mesh {
	t.Helper()

	cells := make([]r3.Vector, 6)
	p := make([]float64, 6)
	u := make([]float64, 0, 18)
	for i := range cells {
		cells[i] = r3.Vector{X: float64(i)}
		p[i] = float64((i * 7) % 6)
		u = append(u, float64(i), 0, 1)
	}

	m := mesh.New(cells)
	require.NoError(t, m.AddField(minmax.Field{Name: "p", Kind: minmax.KindScalar, Values: p}))
	require.NoError(t, m.AddField(minmax.Field{Name: "U", Kind: minmax.KindVector, Values: u}))
	return m
}

func testConfig(t *testing.T, partitions int, fc config.FunctionConfig) *config.Config {
	t.Helper()

	cfg := config.NewConfig()
	cfg.Partitions = partitions
	cfg.Cycles = 2
	cfg.StartTime = 1
	cfg.DeltaT = 0.5
	cfg.OutputDir = t.TempDir()
	cfg.Functions = []config.FunctionConfig{fc}
	require.NoError(t, cfg.Validate())
	return cfg
}

type collector struct {
	mu      sync.Mutex
	reports map[int][][]minmax.CycleReport
}

func (c *collector) observe(partition int, reports []minmax.CycleReport) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.reports == nil {
		c.reports = make(map[int][][]minmax.CycleReport)
	}
	c.reports[partition] = append(c.reports[partition], reports)
}

func TestRunLocal(t *testing.T) {
	t.Parallel()

	logOn := true
	cfg := testConfig(t, 3, config.FunctionConfig{
		Name: "minMax1", Type: "fieldMinMax", Fields: []string{"p", "U", "k"}, Log: &logOn,
	})

	var logBuf bytes.Buffer
	var seen collector
	store := storage.NewMemoryStore()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err := RunLocal(ctx, Options{Config: cfg, Store: store, LogOutput: &logBuf, OnCycle: seen.observe}, testMesh(t))
	require.NoError(t, err)

	require.Len(t, seen.reports, 3)
	for p := 0; p < 3; p++ {
		cycles := seen.reports[p]
		require.Len(t, cycles, 2, "partition %d", p)
		assert.Equal(t, 1.5, cycles[1][0].Cycle.Time)
		assert.Equal(t, []string{"k"}, cycles[0][0].Skipped)
		// Results are replicated on every partition.
		assert.Equal(t, seen.reports[0][1][0].Results, cycles[1][0].Results)
	}

	results := seen.reports[0][0][0].Results
	require.Len(t, results, 2)
	assert.Equal(t, "p", results[0].Label)
	assert.Equal(t, 0.0, results[0].Min.Value)
	assert.Equal(t, 5.0, results[0].Max.Value)
	assert.Equal(t, "mag(U)", results[1].Label)
	assert.Equal(t, r3.Vector{X: 5}, results[1].Max.Location)
	assert.Equal(t, 2, results[1].Max.Partition)

	history, err := store.History("minMax1", "mag(U)")
	require.NoError(t, err)
	assert.Len(t, history, 2)

	data, err := os.ReadFile(output.Path(cfg.OutputDir, "minMax1", 1))
	require.NoError(t, err)
	assert.Equal(t, 2+4, strings.Count(string(data), "\n"), "header plus two results per cycle")

	assert.Contains(t, logBuf.String(), "on processor 2")
}

func TestRunLocal_InvalidComponent(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t, 2, config.FunctionConfig{
		Name: "minMax1", Type: "fieldMinMax", Fields: []string{"U"}, Mode: "cmpt", Components: []string{"7"},
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err := RunLocal(ctx, Options{Config: cfg}, testMesh(t))
	assert.True(t, errors.Is(err, minmax.ErrInvalidComponentIndex), "got %v", err)

	_, statErr := os.Stat(output.Path(cfg.OutputDir, "minMax1", 1))
	assert.True(t, os.IsNotExist(statErr), "no output expected from a failed setup")
}

func TestNewInstances_WritersOnlyOnPartitionZero(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t, 2, config.FunctionConfig{Name: "minMax1", Type: "fieldMinMax", Fields: []string{"p"}})
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	comm := fakeComm{partition: 1, size: 1}
	inst, err := NewInstances(Options{Config: cfg}, comm, testMesh(t))
	require.NoError(t, err)
	require.NoError(t, Drive(ctx, Options{Config: cfg}, comm, inst))

	_, statErr := os.Stat(output.Path(cfg.OutputDir, "minMax1", 1))
	assert.True(t, os.IsNotExist(statErr), "partition 1 wrote output")
}

// fakeComm is a single-member communicator that claims an arbitrary
// partition id.
type fakeComm struct {
	partition, size int
}

func (f fakeComm) Partition() int { return f.partition }
func (f fakeComm) Size() int      { return f.size }
func (f fakeComm) AllGather(_ context.Context, _ string, c minmax.Candidate) ([]minmax.Candidate, error) {
	c.Partition = f.partition
	return []minmax.Candidate{c}, nil
}
