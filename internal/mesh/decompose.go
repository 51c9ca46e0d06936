package mesh

import (
	"fmt"
	"hash/fnv"
	"strconv"

	"pkg.jsn.cam/fieldminmax/pkg/minmax"
)

// Method names a decomposition strategy.
type Method string

const (
	// MethodSimple splits cells into contiguous, nearly equal blocks.
	MethodSimple Method = "simple"
	// MethodHash scatters cells by an FNV-1a hash of their global index.
	MethodHash Method = "hash"
)

// HashCell computes the partition of a cell using FNV-1a hash
func HashCell(cell, numPartitions int) int {
	h := fnv.New32a()
	h.Write([]byte(strconv.Itoa(cell)))

	return int(h.Sum32() % uint32(numPartitions))
}

// Owners returns the owning partition of every cell.
func Owners(cells, numPartitions int, method Method) ([]int, error) {
	if numPartitions <= 0 {
		return nil, fmt.Errorf("partition count must be positive, got %d", numPartitions)
	}

	owners := make([]int, cells)
	switch method {
	case MethodSimple, "":
		for i := range owners {
			owners[i] = i * numPartitions / max(cells, 1)
		}
	case MethodHash:
		for i := range owners {
			owners[i] = HashCell(i, numPartitions)
		}
	default:
		return nil, fmt.Errorf("unknown decomposition method %q", method)
	}
	return owners, nil
}

// Decompose splits m into numPartitions partitions. Within a partition
// cells keep their global order. Every partition carries every field, even
// when it owns no cells.
func Decompose(m *Mesh, numPartitions int, method Method) ([]*Partition, error) {
	owners, err := Owners(len(m.Cells), numPartitions, method)
	if err != nil {
		return nil, err
	}

	parts := make([]*Partition, numPartitions)
	for p := range parts {
		parts[p] = &Partition{ID: p, Mesh: Mesh{Fields: make(map[string]minmax.Field, len(m.Fields))}}
	}

	for cell, p := range owners {
		parts[p].Cells = append(parts[p].Cells, m.Cells[cell])
	}

	for name, f := range m.Fields {
		arity := f.Kind.Arity()
		for p := range parts {
			parts[p].Fields[name] = minmax.Field{Name: name, Kind: f.Kind, Values: []float64{}}
		}
		for cell, p := range owners {
			lf := parts[p].Fields[name]
			lf.Values = append(lf.Values, f.Values[cell*arity:(cell+1)*arity]...)
			parts[p].Fields[name] = lf
		}
	}
	return parts, nil
}
