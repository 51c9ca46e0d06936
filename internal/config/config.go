package config

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/BurntSushi/toml"
	"pkg.jsn.cam/fieldminmax/internal/mesh"
	"pkg.jsn.cam/fieldminmax/pkg/functions"
	"pkg.jsn.cam/fieldminmax/pkg/minmax"
)

const (
	DefaultPartitions = 1
	DefaultDecompose  = mesh.MethodSimple
	DefaultCycles     = 1
	DefaultStartTime  = 0.0
	DefaultDeltaT     = 1.0
	DefaultOutputDir  = "postProcessing"
	DefaultPort       = 8686

	DefaultLocation = true
	DefaultWrite    = true
	DefaultLog      = false
)

// Config represents the settings of a run and the function objects in it.
type Config struct {
	Partitions  int         `toml:"partitions"`
	Decompose   mesh.Method `toml:"decompose"`
	Cycles      int         `toml:"cycles"`
	StartTime   float64     `toml:"start-time"`
	DeltaT      float64     `toml:"delta-t"`
	OutputDir   string      `toml:"output-dir"`
	DBPath      string      `toml:"db-path"`
	Coordinator string      `toml:"coordinator"`
	Port        int         `toml:"port"`

	Functions []FunctionConfig `toml:"function"`
}

// FunctionConfig is one [[function]] table. Switches left out of the file
// take their documented defaults: location and write on, log off.
type FunctionConfig struct {
	Name       string   `toml:"name"`
	Type       string   `toml:"type"`
	Fields     []string `toml:"fields"`
	Mode       string   `toml:"mode"`
	Components []string `toml:"components"`
	Location   *bool    `toml:"location"`
	Log        *bool    `toml:"log"`
	Write      *bool    `toml:"write"`
}

// NewConfig creates a new Config object with the default settings.
func NewConfig() *Config {
	return &Config{
		Partitions: DefaultPartitions,
		Decompose:  DefaultDecompose,
		Cycles:     DefaultCycles,
		StartTime:  DefaultStartTime,
		DeltaT:     DefaultDeltaT,
		OutputDir:  DefaultOutputDir,
		Port:       DefaultPort,
	}
}

// Decode reads the contents of configuration file and populates the config object.
// Any properties that are not set in the configuration file will default to
// the value of the property before the decode.
func (c *Config) Decode(r io.Reader) error {
	md, err := toml.NewDecoder(r).Decode(c)
	if err != nil {
		return err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("unknown configuration keys: %v", undecoded)
	}
	return nil
}

// Load decodes the file at path into c.
func (c *Config) Load(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	if err := c.Decode(file); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// Validate checks run settings and every function table.
func (c *Config) Validate() error {
	var errs []error

	if c.Partitions <= 0 {
		errs = append(errs, fmt.Errorf("partitions must be positive, got %d", c.Partitions))
	}
	if c.Cycles < 0 {
		errs = append(errs, fmt.Errorf("cycles must not be negative, got %d", c.Cycles))
	}
	if c.Decompose != mesh.MethodSimple && c.Decompose != mesh.MethodHash {
		errs = append(errs, fmt.Errorf("unknown decomposition method %q", c.Decompose))
	}
	if len(c.Functions) == 0 {
		errs = append(errs, errors.New("no [[function]] configured"))
	}

	seen := make(map[string]bool, len(c.Functions))
	for i, fc := range c.Functions {
		if fc.Name == "" {
			errs = append(errs, fmt.Errorf("function %d: name is required", i))
			continue
		}
		if seen[fc.Name] {
			errs = append(errs, fmt.Errorf("function %s: duplicate name", fc.Name))
		}
		seen[fc.Name] = true

		if _, err := fc.Spec(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Spec converts the table into the function's runtime settings.
func (fc FunctionConfig) Spec() (minmax.FunctionSpec, error) {
	if !functions.IsValid(fc.Type) {
		return minmax.FunctionSpec{}, fmt.Errorf("function %s: %w: %q", fc.Name, minmax.ErrUnknownFunction, fc.Type)
	}
	if len(fc.Fields) == 0 {
		return minmax.FunctionSpec{}, fmt.Errorf("function %s: %w", fc.Name, minmax.ErrNoFields)
	}

	mode, err := minmax.ParseMode(fc.Mode)
	if err != nil {
		return minmax.FunctionSpec{}, fmt.Errorf("function %s: %w", fc.Name, err)
	}
	if mode != minmax.ModeComponent && len(fc.Components) > 0 {
		return minmax.FunctionSpec{}, fmt.Errorf("function %s: components given but mode is %s", fc.Name, mode)
	}

	return minmax.FunctionSpec{
		Name:       fc.Name,
		Fields:     fc.Fields,
		Mode:       mode,
		Components: fc.Components,
		Location:   boolOr(fc.Location, DefaultLocation),
		Log:        boolOr(fc.Log, DefaultLog),
		Write:      boolOr(fc.Write, DefaultWrite),
	}, nil
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}
