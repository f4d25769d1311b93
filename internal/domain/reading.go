package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// Field names shared by every telemetry store and the training corpus.
const (
	FieldGas         = "gas"
	FieldWaterSpeed  = "water_speed"
	FieldWaterLevel  = "water_level"
	FieldGPSLocation = "gps_location"
)

// Reading is one telemetry sample. It lives for a single polling cycle.
type Reading struct {
	Gas         float64 `json:"gas" yaml:"gas"`                   // ppm
	WaterSpeed  float64 `json:"water_speed" yaml:"water_speed"`   // m/s
	WaterLevel  float64 `json:"water_level" yaml:"water_level"`   // cm
	GPSLocation int     `json:"gps_location" yaml:"gps_location"` // monitored point code
}

// NumFeatures is the width of the model input vector.
const NumFeatures = 4

// Features is the model input in fixed order: gas, water_speed, water_level, gps_location.
type Features [NumFeatures]float64

// FeatureNames labels the Features columns.
var FeatureNames = [NumFeatures]string{FieldGas, FieldWaterSpeed, FieldWaterLevel, FieldGPSLocation}

// Features returns the reading as a model input vector. The location code is
// passed through as a plain number.
func (r Reading) Features() Features {
	return Features{r.Gas, r.WaterSpeed, r.WaterLevel, float64(r.GPSLocation)}
}

// LabeledExample is a corpus row: a reading plus its ground-truth condition.
type LabeledExample struct {
	Reading   `yaml:",inline"`
	Condition Tier `yaml:"condition"`
}

// RawReading is the untyped field set of a telemetry document as a gateway
// delivered it.
type RawReading struct {
	Fields    map[string]any
	Source    string
	FetchedAt time.Time
}

// ParseReading validates a raw document and converts it into a Reading.
// Every field must be present and numeric; gps_location must be a positive
// integer. Failures wrap ErrMalformedReading.
func ParseReading(raw RawReading) (Reading, error) {
	gas, err := numericField(raw.Fields, FieldGas)
	if err != nil {
		return Reading{}, err
	}
	speed, err := numericField(raw.Fields, FieldWaterSpeed)
	if err != nil {
		return Reading{}, err
	}
	level, err := numericField(raw.Fields, FieldWaterLevel)
	if err != nil {
		return Reading{}, err
	}
	loc, err := numericField(raw.Fields, FieldGPSLocation)
	if err != nil {
		return Reading{}, err
	}
	if loc != math.Trunc(loc) || loc < 1 || loc > math.MaxInt32 {
		return Reading{}, fmt.Errorf("%w: %s must be a positive integer, got %v", ErrMalformedReading, FieldGPSLocation, loc)
	}

	return Reading{
		Gas:         gas,
		WaterSpeed:  speed,
		WaterLevel:  level,
		GPSLocation: int(loc),
	}, nil
}

func numericField(fields map[string]any, name string) (float64, error) {
	v, ok := fields[name]
	if !ok || v == nil {
		return 0, fmt.Errorf("%w: missing %s", ErrMalformedReading, name)
	}

	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	case uint32:
		f = float64(n)
	case uint64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, fmt.Errorf("%w: %s is not numeric: %q", ErrMalformedReading, name, n.String())
		}
		f = parsed
	default:
		return 0, fmt.Errorf("%w: %s is not numeric (%T)", ErrMalformedReading, name, v)
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%w: %s is not finite", ErrMalformedReading, name)
	}
	return f, nil
}
