package output

import (
	"fmt"
	"io"

	"pkg.jsn.cam/fieldminmax/pkg/minmax"
)

// LogWriter prints results to a log stream, one line per extremum.
type LogWriter struct {
	w        io.Writer
	name     string
	location bool
	parallel bool
}

// NewLogWriter creates a log writer for the named function. Owning
// partitions are only printed for parallel runs.
func NewLogWriter(w io.Writer, name string, location, parallel bool) *LogWriter {
	return &LogWriter{w: w, name: name, location: location, parallel: parallel}
}

// Write prints one cycle.
func (l *LogWriter) Write(cycle minmax.Cycle, results []minmax.Result) error {
	if _, err := fmt.Fprintf(l.w, "fieldMinMax %s write: time = %s\n", l.name, formatFloat(cycle.Time)); err != nil {
		return err
	}
	for _, r := range results {
		if err := l.line("min", r.Label, r.Min); err != nil {
			return err
		}
		if err := l.line("max", r.Label, r.Max); err != nil {
			return err
		}
		if r.NaN > 0 {
			if _, err := fmt.Fprintf(l.w, "    %s: %d NaN values ignored\n", r.Label, r.NaN); err != nil {
				return err
			}
		}
	}
	_, err := fmt.Fprintln(l.w)
	return err
}

func (l *LogWriter) line(which, label string, e minmax.GlobalExtremum) error {
	msg := fmt.Sprintf("    %s(%s) = %s", which, label, formatFloat(e.Value))
	if len(e.Raw) > 1 {
		msg += " from " + formatTuple(e.Raw)
	}
	if l.location {
		msg += fmt.Sprintf(" in cell %d at location %s", e.Cell, formatPoint(e.Location))
	}
	if l.parallel {
		msg += fmt.Sprintf(" on processor %d", e.Partition)
	}
	_, err := fmt.Fprintln(l.w, msg)
	return err
}

// Close is a no-op; the stream belongs to the caller.
func (l *LogWriter) Close() error {
	return nil
}
