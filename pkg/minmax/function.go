package minmax

import (
	"context"
	"errors"
	"fmt"
	"log"
)

// Communicator is one partition's handle on the collective layer.
// AllGather blocks until every partition has contributed to the round
// identified by key and returns the contributions of all partitions.
// A disagreement between partitions is reported as ErrCollectiveMismatch.
type Communicator interface {
	Partition() int
	Size() int
	AllGather(ctx context.Context, key string, c Candidate) ([]Candidate, error)
}

// FunctionSpec is the configuration of one fieldMinMax instance.
type FunctionSpec struct {
	Name       string
	Fields     []string
	Mode       Mode
	Components []string
	Location   bool
	Log        bool
	Write      bool
}

// CycleReport describes the outcome of one cycle on this partition.
// Every partition produces the same report.
type CycleReport struct {
	Cycle    Cycle
	Results  []Result
	Skipped  []string // fields absent on every partition
	Empty    []string // labels with no value on any partition
	Disabled []string // fields rejected by configuration

	// WriteErr is set when a writer failed on partition 0. Output
	// failures never stop the collective.
	WriteErr error
}

type plan struct {
	kind Kind
	sels []Selection
}

// Function evaluates the configured fields on one partition. All
// partitions must run the same Function with the same configuration in lock-step.
type Function struct {
	spec    FunctionSpec
	comm    Communicator
	src     Source
	writers []Writer

	plans    map[string]plan
	disabled map[string]error
	warned   map[string]bool
}

// NewFunction creates a function for one partition. Writers only receive
// results on partition 0.
func NewFunction(spec FunctionSpec, comm Communicator, src Source, writers ...Writer) *Function {
	return &Function{
		spec:     spec,
		comm:     comm,
		src:      src,
		writers:  writers,
		plans:    make(map[string]plan),
		disabled: make(map[string]error),
		warned:   make(map[string]bool),
	}
}

// Spec returns the function's configuration.
func (f *Function) Spec() FunctionSpec {
	return f.spec
}

// Setup resolves the scan plan of every field present at start-up and
// fails on configuration errors before any scan runs. Fields that do not
// exist yet are resolved when they first appear.
func (f *Function) Setup(ctx context.Context) error {
	if len(f.spec.Fields) == 0 {
		return fmt.Errorf("%s: %w", f.spec.Name, ErrNoFields)
	}
	if _, err := ParseMode(string(f.spec.Mode)); err != nil {
		return fmt.Errorf("%s: %w", f.spec.Name, err)
	}

	for _, name := range f.spec.Fields {
		_, p, err := f.resolve(ctx, fmt.Sprintf("%s/setup/%s", f.spec.Name, name), name)
		switch {
		case errors.Is(err, ErrFieldNotFound):
			continue
		case err != nil:
			return fmt.Errorf("%s: %w", f.spec.Name, err)
		}
		f.plans[name] = p
	}
	return nil
}

// RunCycle scans and reduces every configured field once and passes the
// results to the writers. Per-field problems are recorded in the report;
// a returned error is fatal to the run.
func (f *Function) RunCycle(ctx context.Context, cycle Cycle) (CycleReport, error) {
	report := CycleReport{Cycle: cycle}

	for _, name := range f.spec.Fields {
		if _, off := f.disabled[name]; off {
			report.Disabled = append(report.Disabled, name)
			continue
		}

		key := fmt.Sprintf("%s/%d/%s", f.spec.Name, cycle.Index, name)
		field, p, err := f.resolve(ctx, key, name)
		switch {
		case errors.Is(err, ErrFieldNotFound):
			f.warnOnce(name, err)
			report.Skipped = append(report.Skipped, name)
			continue
		case errors.Is(err, ErrInvalidComponentIndex), errors.Is(err, ErrInvalidMode), errors.Is(err, ErrInvalidKind):
			f.disabled[name] = err
			f.logf("Disabling field %s: %v", name, err)
			report.Disabled = append(report.Disabled, name)
			continue
		case err != nil:
			return report, err
		}

		for _, sel := range p.sels {
			res, err := f.scanReduce(ctx, key+"/"+sel.Label, name, field, p.kind, sel)
			if errors.Is(err, ErrEmptyField) {
				report.Empty = append(report.Empty, sel.Label)
				continue
			}
			if err != nil {
				return report, err
			}
			report.Results = append(report.Results, res)
		}
	}

	if err := f.emit(cycle, report.Results); err != nil {
		f.logf("Writing cycle %d: %v", cycle.Index, err)
		report.WriteErr = err
	}
	return report, nil
}

// resolve runs the presence round for a field and returns the local field
// together with its plan. The plan is cached per kind.
func (f *Function) resolve(ctx context.Context, key, name string) (Field, plan, error) {
	field, localErr := f.lookup(name)

	c := Candidate{Partition: f.comm.Partition()}
	if localErr == nil {
		c.Present = true
		c.Kind = field.Kind
	}

	cands, err := f.comm.AllGather(ctx, key+"/kind", c)
	if err != nil {
		return Field{}, plan{}, err
	}
	if localErr != nil && !errors.Is(localErr, ErrFieldNotFound) {
		return Field{}, plan{}, localErr
	}

	kind, err := AgreeKind(name, cands)
	if err != nil {
		return Field{}, plan{}, err
	}

	if p, ok := f.plans[name]; ok && p.kind == kind {
		return field, p, nil
	}
	sels, err := Dispatch(name, kind, f.spec.Mode, f.spec.Components)
	if err != nil {
		return Field{}, plan{}, err
	}
	p := plan{kind: kind, sels: sels}
	f.plans[name] = p
	return field, p, nil
}

func (f *Function) lookup(name string) (Field, error) {
	field, err := f.src.Field(name)
	if err != nil {
		return Field{}, err
	}
	if err := field.Validate(); err != nil {
		return Field{}, err
	}
	if n, locs := field.Cells(), len(f.src.Locations()); n > locs {
		return Field{}, fmt.Errorf("field %s has %d cells but only %d locations", name, n, locs)
	}
	return field, nil
}

func (f *Function) scanReduce(ctx context.Context, key, name string, field Field, kind Kind, sel Selection) (Result, error) {
	min, max, stats, ok := Scan(field, sel)

	c := Candidate{
		Partition: f.comm.Partition(),
		Present:   ok,
		Kind:      kind,
		NaN: stats.NaN,
	}
	if ok {
		locs := f.src.Locations()
		c.Min, c.Max = min, max
		c.MinLocation = locs[min.Cell]
		c.MaxLocation = locs[max.Cell]
	}

	cands, err := f.comm.AllGather(ctx, key, c)
	if err != nil {
		return Result{}, err
	}

	res := Result{Field: name, Label: sel.Label, Kind: kind}
	for _, c := range cands {
		res.NaN += c.NaN
	}
	res.Min, res.Max, err = ReduceCandidates(cands)
	if err != nil {
		return Result{}, err
	}
	return res, nil
}

func (f *Function) emit(cycle Cycle, results []Result) error {
	if f.comm.Partition() != 0 || len(results) == 0 {
		return nil
	}

	var errs []error
	for _, w := range f.writers {
		if err := w.Write(cycle, results); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close releases the writers.
func (f *Function) Close() error {
	var errs []error
	for _, w := range f.writers {
		if err := w.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (f *Function) warnOnce(name string, err error) {
	if f.warned[name] {
		return
	}
	f.warned[name] = true
	f.logf("Skipping field %s: %v", name, err)
}

func (f *Function) logf(format string, args ...any) {
	if f.comm.Partition() != 0 {
		return
	}
	log.Printf("[%s] "+format, append([]any{f.spec.Name}, args...)...)
}
