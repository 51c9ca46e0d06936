package minmax

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/golang/geo/r3"
)

// wireFloat is a float64 that survives JSON when it is NaN or infinite.
// Those values are written as the strings "NaN", "+Inf" and "-Inf".
type wireFloat float64

func (f wireFloat) MarshalJSON() ([]byte, error) {
	v := float64(f)
	switch {
	case math.IsNaN(v):
		return []byte(`"NaN"`), nil
	case math.IsInf(v, 1):
		return []byte(`"+Inf"`), nil
	case math.IsInf(v, -1):
		return []byte(`"-Inf"`), nil
	}
	return json.Marshal(v)
}

func (f *wireFloat) UnmarshalJSON(data []byte) error {
	if len(data) == 0 || data[0] != '"' {
		var v float64
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*f = wireFloat(v)
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	switch s {
	case "NaN":
		*f = wireFloat(math.NaN())
	case "+Inf", "Inf":
		*f = wireFloat(math.Inf(1))
	case "-Inf":
		*f = wireFloat(math.Inf(-1))
	default:
		return fmt.Errorf("invalid float %q", s)
	}
	return nil
}

func toWire(vs []float64) []wireFloat {
	if vs == nil {
		return nil
	}
	out := make([]wireFloat, len(vs))
	for i, v := range vs {
		out[i] = wireFloat(v)
	}
	return out
}

func fromWire(vs []wireFloat) []float64 {
	if vs == nil {
		return nil
	}
	out := make([]float64, len(vs))
	for i, v := range vs {
		out[i] = float64(v)
	}
	return out
}

type localExtremumJSON struct {
	Value wireFloat   `json:"value"`
	Cell  int         `json:"cell"`
	Raw   []wireFloat `json:"raw"`
}

func (e LocalExtremum) MarshalJSON() ([]byte, error) {
	return json.Marshal(localExtremumJSON{
		Value: wireFloat(e.Value),
		Cell:  e.Cell,
		Raw:   toWire(e.Raw),
	})
}

func (e *LocalExtremum) UnmarshalJSON(data []byte) error {
	var w localExtremumJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*e = LocalExtremum{Value: float64(w.Value), Cell: w.Cell, Raw: fromWire(w.Raw)}
	return nil
}

type globalExtremumJSON struct {
	Value     wireFloat   `json:"value"`
	Location  r3.Vector   `json:"location"`
	Partition int         `json:"partition"`
	Cell      int         `json:"cell"`
	Raw       []wireFloat `json:"raw"`
}

func (e GlobalExtremum) MarshalJSON() ([]byte, error) {
	return json.Marshal(globalExtremumJSON{
		Value:     wireFloat(e.Value),
		Location:  e.Location,
		Partition: e.Partition,
		Cell:      e.Cell,
		Raw:       toWire(e.Raw),
	})
}

func (e *GlobalExtremum) UnmarshalJSON(data []byte) error {
	var w globalExtremumJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*e = GlobalExtremum{
		Value:     float64(w.Value),
		Location:  w.Location,
		Partition: w.Partition,
		Cell:      w.Cell,
		Raw:       fromWire(w.Raw),
	}
	return nil
}
