package output

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"pkg.jsn.cam/fieldminmax/pkg/minmax"
)

// FileName is the name of the tabular output file.
const FileName = "fieldMinMax.dat"

// FileWriter appends one tab-separated row per result to
// <dir>/<function>/<start time>/fieldMinMax.dat. The directory and the
// header are created on the first write.
type FileWriter struct {
	dir      string
	name     string
	location bool

	file *os.File
	buf  *bufio.Writer
}

// NewFileWriter creates a file writer rooted at dir.
func NewFileWriter(dir, name string, location bool) *FileWriter {
	return &FileWriter{dir: dir, name: name, location: location}
}

// Path returns the output path for a run starting at startTime.
func Path(dir, name string, startTime float64) string {
	return filepath.Join(dir, name, formatFloat(startTime), FileName)
}

// Write appends the rows of one cycle and flushes them.
func (f *FileWriter) Write(cycle minmax.Cycle, results []minmax.Result) error {
	if f.file == nil {
		if err := f.open(cycle.Time); err != nil {
			return err
		}
	}

	for _, r := range results {
		cols := []string{formatFloat(cycle.Time), r.Label, formatFloat(r.Min.Value)}
		if f.location {
			cols = append(cols, formatPoint(r.Min.Location))
		}
		cols = append(cols, fmt.Sprint(r.Min.Partition), formatFloat(r.Max.Value))
		if f.location {
			cols = append(cols, formatPoint(r.Max.Location))
		}
		cols = append(cols, fmt.Sprint(r.Max.Partition))

		if _, err := f.buf.WriteString(strings.Join(cols, "\t") + "\n"); err != nil {
			return fmt.Errorf("write %s: %w", f.file.Name(), err)
		}
	}
	return f.buf.Flush()
}

func (f *FileWriter) open(startTime float64) error {
	path := Path(f.dir, f.name, startTime)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	f.file = file
	f.buf = bufio.NewWriter(file)

	header := []string{"# Time", "field", "min"}
	if f.location {
		header = append(header, "location(min)")
	}
	header = append(header, "processor(min)", "max")
	if f.location {
		header = append(header, "location(max)")
	}
	header = append(header, "processor(max)")

	_, err = f.buf.WriteString("# Field minima and maxima\n" + strings.Join(header, "\t") + "\n")
	return err
}

// Close flushes and closes the file, if one was opened.
func (f *FileWriter) Close() error {
	if f.file == nil {
		return nil
	}
	if err := f.buf.Flush(); err != nil {
		f.file.Close()
		return err
	}
	return f.file.Close()
}
