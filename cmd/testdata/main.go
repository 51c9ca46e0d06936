package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand/v2"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"pkg.jsn.cam/fieldminmax/cmd/testdata/generator"
	"pkg.jsn.cam/fieldminmax/internal/mesh"
)

/* generates a cell-centred mesh with synthetic fields as JSON */

var (
	Generator  = flag.String("generator", "uniform", "Generator to use (see -list)")
	CellCount  = flag.Int("cells", 0, "Approximate number of cells (0 = generator default)")
	Scale      = flag.Float64("scale", 1e5, "Value range of the uniform generator")
	Seed       = flag.Uint64("seed", 1, "Random seed")
	OutputPath = flag.String("output", "var/mesh.json", "Output mesh file path")
	ListOnly   = flag.Bool("list", false, "List generators and exit")
)

func main() {
	flag.Parse()

	if *ListOnly {
		for _, name := range generator.List() {
			g, _ := generator.Get(name)
			fmt.Printf("%-10s %s (default %s cells)\n", name, g.Description(), humanize.Comma(int64(g.DefaultCells())))
		}
		return
	}

	generator.SetScale(*Scale)
	g, err := generator.Get(*Generator)
	if err != nil {
		log.Fatal(err)
	}
	g.Init(rand.New(rand.NewPCG(*Seed, *Seed^0x9e3779b97f4a7c15)))

	cells := *CellCount
	if cells == 0 {
		cells = g.DefaultCells()
	}

	m := mesh.New(generator.Grid(cells))
	if err := g.Fields(m); err != nil {
		log.Fatal(err)
	}

	if err := os.MkdirAll(filepath.Dir(*OutputPath), 0755); err != nil {
		log.Fatal(err)
	}
	if err := mesh.Save(*OutputPath, m); err != nil {
		log.Fatal(err)
	}

	log.Printf("Wrote %s: %s cells, fields %v", *OutputPath, humanize.Comma(int64(len(m.Cells))), m.FieldNames())
}
