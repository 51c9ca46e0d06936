package integration

import (
	"context"
	"math/rand/v2"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"pkg.jsn.cam/fieldminmax/cmd/testdata/generator"
	"pkg.jsn.cam/fieldminmax/internal/config"
	"pkg.jsn.cam/fieldminmax/internal/coordinator"
	"pkg.jsn.cam/fieldminmax/internal/mesh"
	"pkg.jsn.cam/fieldminmax/internal/partition"
	"pkg.jsn.cam/fieldminmax/internal/runner"
	"pkg.jsn.cam/fieldminmax/pkg/minmax"
)

// hotspotMesh generates the hot-spot case and round-trips it through the
// mesh file format.
func hotspotMesh(t *testing.T) *mesh.Mesh {
	t.Helper()

	g, err := generator.Get("hotspot")
	if err != nil {
		t.Fatal(err)
	}
	g.Init(rand.New(rand.NewPCG(42, 42)))

	m := mesh.New(generator.Grid(512))
	if err := g.Fields(m); err != nil {
		t.Fatalf("generate: %v", err)
	}

	path := filepath.Join(t.TempDir(), "mesh.json")
	if err := mesh.Save(path, m); err != nil {
		t.Fatal(err)
	}
	var loaded mesh.Mesh
	if err := mesh.Load(path, &loaded); err != nil {
		t.Fatal(err)
	}
	if err := loaded.Validate(); err != nil {
		t.Fatal(err)
	}
	return &loaded
}

func hotspotConfig(t *testing.T, partitions int, method mesh.Method) *config.Config {
	t.Helper()

	cfg := config.NewConfig()
	cfg.Partitions = partitions
	cfg.Decompose = method
	cfg.Cycles = 2
	cfg.OutputDir = t.TempDir()
	cfg.Functions = []config.FunctionConfig{
		{Name: "minMaxT", Type: "fieldMinMax", Fields: []string{"T", "gradT", "lapT"}},
		{Name: "minMaxHess", Type: "fieldMinMax", Fields: []string{"gradGradT", "missing"}, Mode: "cmpt", Components: []string{"xx", "4"}},
	}
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}
	return cfg
}

// lastResults records partition 0's results of the final cycle.
type lastResults struct {
	mu      sync.Mutex
	results [][]minmax.Result
}

func (l *lastResults) observe(p int, reports []minmax.CycleReport) {
	if p != 0 {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.results = l.results[:0]
	for _, r := range reports {
		l.results = append(l.results, r.Results)
	}
}

func runLocal(t *testing.T, cfg *config.Config, m *mesh.Mesh) [][]minmax.Result {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var last lastResults
	if err := runner.RunLocal(ctx, runner.Options{Config: cfg, OnCycle: last.observe}, m); err != nil {
		t.Fatalf("RunLocal() error = %v", err)
	}
	return last.results
}

func runDistributed(t *testing.T, cfg *config.Config, m *mesh.Mesh) [][]minmax.Result {
	t.Helper()

	srv, err := coordinator.NewServer(coordinator.Config{Partitions: cfg.Partitions})
	if err != nil {
		t.Fatal(err)
	}
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var last lastResults
	var wg sync.WaitGroup
	errs := make([]error, cfg.Partitions)
	for p := 0; p < cfg.Partitions; p++ {
		node, err := partition.NewNode(partition.Config{
			CoordinatorURL: ts.URL,
			Partition:      p,
			Run:            cfg,
			OnCycle:        last.observe,
			WaitInterval:   10 * time.Millisecond,
		}, m)
		if err != nil {
			t.Fatal(err)
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[p] = node.Start(ctx)
		}()
	}
	wg.Wait()

	for p, err := range errs {
		if err != nil {
			t.Fatalf("partition %d: %v", p, err)
		}
	}
	return last.results
}

// TestLocalMatchesDistributed checks that the in-process and HTTP
// collectives produce bit-identical results.
func TestLocalMatchesDistributed(t *testing.T) {
	t.Parallel()

	m := hotspotMesh(t)
	cfg := hotspotConfig(t, 4, mesh.MethodHash)

	local := runLocal(t, cfg, m)
	distributed := runDistributed(t, cfg, m)

	if len(local) != 2 || len(local[0]) != 3 || len(local[1]) != 2 {
		t.Fatalf("unexpected result shape: %d functions", len(local))
	}
	if diff := cmp.Diff(local, distributed); diff != "" {
		t.Errorf("local and distributed results differ (-local +distributed):\n%s", diff)
	}
}

// TestPartitionCountInvariance checks that decomposing the mesh changes
// only which partition reports an extremum, never its value or location.
// Far from the peak T rounds to exactly the ambient value, so ties are
// common; contiguous decompositions keep the first cell in global order.
func TestPartitionCountInvariance(t *testing.T) {
	t.Parallel()

	m := hotspotMesh(t)
	serial := runLocal(t, hotspotConfig(t, 1, mesh.MethodSimple), m)

	ignoreOwner := cmpopts.IgnoreFields(minmax.GlobalExtremum{}, "Partition", "Cell")

	for _, tc := range []struct {
		partitions int
		method     mesh.Method
	}{
		{2, mesh.MethodSimple},
		{3, mesh.MethodSimple},
		{8, mesh.MethodSimple},
		{600, mesh.MethodSimple}, // more partitions than cells
	} {
		parallel := runLocal(t, hotspotConfig(t, tc.partitions, tc.method), m)
		if diff := cmp.Diff(serial, parallel, ignoreOwner); diff != "" {
			t.Errorf("%d partitions (%s) differ from serial (-serial +parallel):\n%s", tc.partitions, tc.method, diff)
		}
	}
}

// TestHotspotExtrema checks the generated case against its construction.
func TestHotspotExtrema(t *testing.T) {
	t.Parallel()

	m := hotspotMesh(t)
	results := runLocal(t, hotspotConfig(t, 2, mesh.MethodSimple), m)

	T := results[0][0]
	if T.Label != "T" {
		t.Fatalf("first result = %s, want T", T.Label)
	}
	if T.Min.Value < 300 || T.Max.Value > 400 || T.Min.Value >= T.Max.Value {
		t.Errorf("T range [%v, %v] outside [300, 400]", T.Min.Value, T.Max.Value)
	}

	gradT := results[0][1]
	if gradT.Label != "mag(gradT)" || gradT.Min.Value < 0 {
		t.Errorf("gradT result = %+v", gradT)
	}

	// The isotropic Hessian is most negative at the peak.
	lapT := results[0][2]
	if lapT.Label != "mag(lapT)" || lapT.Kind != minmax.KindSphericalTensor || lapT.Max.Value <= 0 {
		t.Errorf("lapT result = %+v", lapT)
	}

	labels := []string{results[1][0].Label, results[1][1].Label}
	if diff := cmp.Diff([]string{"gradGradT.xx", "gradGradT.yy"}, labels); diff != "" {
		t.Errorf("tensor labels mismatch (-want +got):\n%s", diff)
	}
}
