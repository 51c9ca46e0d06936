package output

import (
	"strconv"
	"strings"

	"github.com/golang/geo/r3"
)

// formatFloat prints a value the way the .dat files and the log do:
// shortest round-trip representation.
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// formatTuple prints a raw value: bare for one component, "(a b c)"
// otherwise.
func formatTuple(raw []float64) string {
	if len(raw) == 1 {
		return formatFloat(raw[0])
	}
	parts := make([]string, len(raw))
	for i, v := range raw {
		parts[i] = formatFloat(v)
	}
	return "(" + strings.Join(parts, " ") + ")"
}

func formatPoint(p r3.Vector) string {
	return formatTuple([]float64{p.X, p.Y, p.Z})
}
