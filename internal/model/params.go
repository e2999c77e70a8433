package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"math"
	"sort"

	"github.com/go-viper/mapstructure/v2"
)

// Recognised parameter keys.
const (
	KeyWidth         = "width"
	KeyHeight        = "height"
	KeyFPS           = "fps"
	KeyBitDepth      = "bit_depth"
	KeyFormat        = "format"
	KeyBaseEncoder   = "base_encoder"
	KeyEncapsulation = "encapsulation"
	KeyQP            = "qp"
	KeyInputFile     = "input_file"
	KeyBase          = "base"
	KeyBaseRecon     = "base_recon"
)

// DefaultEncapsulation is used when no layer names an encapsulation.
const DefaultEncapsulation = "nal"

// ErrMissingParameter is returned when a required parameter is absent after merging.
var ErrMissingParameter = errors.New("missing required parameter")

// RequiredParameters must be present before an encoder argument list can be built.
var RequiredParameters = []string{KeyWidth, KeyHeight, KeyFormat, KeyBaseEncoder, KeyQP}

// ParameterSet maps parameter names to scalar values.
//
// Values are normalised to string, int64, float64 or bool so that a set written
// to JSON and read back compares equal.
type ParameterSet map[string]any

// NewParameterSet builds a normalised ParameterSet from a loosely typed map.
func NewParameterSet(values map[string]any) (ParameterSet, error) {
	set := make(ParameterSet, len(values))

	for key, value := range values {
		normalized, err := NormalizeValue(value)
		if err != nil {
			return nil, fmt.Errorf("parameter %q: %w", key, err)
		}

		set[key] = normalized
	}

	return set, nil
}

// NormalizeValue converts a decoded JSON/YAML/CSV scalar into the canonical value type.
func NormalizeValue(value any) (any, error) {
	switch v := value.(type) {
	case string, bool, int64:
		return v, nil
	case float64:
		return normalizeFloat(v), nil
	case int:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case uint64:
		if v > math.MaxInt64 {
			return float64(v), nil
		}

		return int64(v), nil
	case float32:
		return normalizeFloat(float64(v)), nil
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return i, nil
		}

		f, err := v.Float64()
		if err != nil {
			return nil, fmt.Errorf("invalid number %q: %w", v, err)
		}

		return normalizeFloat(f), nil
	case nil:
		return "", nil
	default:
		return nil, fmt.Errorf("unsupported value type %T", value)
	}
}

// normalizeFloat folds integral floats into int64 since JSON cannot tell them apart.
func normalizeFloat(f float64) any {
	if f == math.Trunc(f) && math.Abs(f) < 1<<53 {
		return int64(f)
	}

	return f
}

// Clone returns a shallow copy of the set.
func (p ParameterSet) Clone() ParameterSet {
	if p == nil {
		return ParameterSet{}
	}

	return maps.Clone(p)
}

// Merge returns a new set in which every layer overrides the ones before it.
func Merge(layers ...ParameterSet) ParameterSet {
	merged := ParameterSet{}
	for _, layer := range layers {
		maps.Copy(merged, layer)
	}

	return merged
}

// Without returns a copy of the set with the given keys removed.
func (p ParameterSet) Without(keys ...string) ParameterSet {
	out := p.Clone()
	for _, key := range keys {
		delete(out, key)
	}

	return out
}

// Has reports whether key is present.
func (p ParameterSet) Has(key string) bool {
	_, ok := p[key]
	return ok
}

// String returns the value for key rendered as a string, and whether it was present.
func (p ParameterSet) String(key string) (string, bool) {
	value, ok := p[key]
	if !ok {
		return "", false
	}

	return fmt.Sprint(value), true
}

// Keys returns the parameter names in sorted order.
func (p ParameterSet) Keys() []string {
	keys := make([]string, 0, len(p))
	for key := range p {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	return keys
}

// EncoderParameters is the typed view of the parameters every invocation needs.
// Other keys pass through to the config file untouched.
type EncoderParameters struct {
	Width         int    `mapstructure:"width"`
	Height        int    `mapstructure:"height"`
	Format        string `mapstructure:"format"`
	BaseEncoder   string `mapstructure:"base_encoder"`
	Encapsulation string `mapstructure:"encapsulation"`
	QP            string `mapstructure:"qp"`
	BaseRecon     string `mapstructure:"base_recon"`
}

// Decode checks the required keys and converts the set into EncoderParameters.
func (p ParameterSet) Decode() (EncoderParameters, error) {
	var missing []string

	for _, key := range RequiredParameters {
		if !p.Has(key) {
			missing = append(missing, key)
		}
	}

	if len(missing) > 0 {
		return EncoderParameters{}, fmt.Errorf("%w: %v", ErrMissingParameter, missing)
	}

	var out EncoderParameters

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &out,
	})
	if err != nil {
		return EncoderParameters{}, fmt.Errorf("create parameter decoder: %w", err)
	}

	if err := decoder.Decode(map[string]any(p)); err != nil {
		return EncoderParameters{}, fmt.Errorf("decode parameters: %w", err)
	}

	if out.Encapsulation == "" {
		out.Encapsulation = DefaultEncapsulation
	}

	return out, nil
}

// UnmarshalJSON decodes a JSON object keeping integers as int64.
func (p *ParameterSet) UnmarshalJSON(data []byte) error {
	var raw map[string]any

	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()

	if err := decoder.Decode(&raw); err != nil {
		return err
	}

	set, err := NewParameterSet(raw)
	if err != nil {
		return err
	}

	*p = set

	return nil
}
