package reference

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
)

var (
	// ErrUnknownOption reports an option key that the filter does not have.
	ErrUnknownOption = errors.New("reference: unknown option")

	// ErrInvalidParameter reports an option value of the wrong type or out
	// of range, or a per-axis vector of the wrong length.
	ErrInvalidParameter = errors.New("reference: invalid parameter")
)

// Options holds filter parameters by their snake_case name, for example
//
//	reference.Options{"variance": 2.0, "use_image_spacing": false}
//
// A scalar given for a per-axis parameter applies to every axis. Values may
// be Go numbers, bools, slices of either, or their string forms (as read
// from the environment).
type Options map[string]any

// sortedKeys returns the keys in lexical order so that errors are
// reported deterministically.
func (o Options) sortedKeys() []string {
	keys := make([]string, 0, len(o))
	for k := range o {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func invalid(key string, v any, want string) error {
	return fmt.Errorf("%w: %s=%v (%T), want %s", ErrInvalidParameter, key, v, v, want)
}

func asBool(key string, v any) (bool, error) {
	switch x := v.(type) {
	case bool:
		return x, nil
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(x))
		if err != nil {
			return false, invalid(key, v, "bool")
		}
		return b, nil
	}
	return false, invalid(key, v, "bool")
}

func asFloat(key string, v any) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case int:
		return float64(x), nil
	case int8:
		return float64(x), nil
	case int16:
		return float64(x), nil
	case int32:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case uint:
		return float64(x), nil
	case uint8:
		return float64(x), nil
	case uint16:
		return float64(x), nil
	case uint32:
		return float64(x), nil
	case uint64:
		return float64(x), nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, invalid(key, v, "number")
		}
		return f, nil
	}
	return 0, invalid(key, v, "number")
}

func asInt(key string, v any) (int, error) {
	f, err := asFloat(key, v)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) || math.IsInf(f, 0) {
		return 0, invalid(key, v, "integer")
	}
	return int(f), nil
}

// asFloats accepts a scalar, a slice or a comma separated string.
func asFloats(key string, v any) ([]float64, error) {
	var items []any
	switch x := v.(type) {
	case []float64:
		return slices.Clone(x), nil
	case []float32:
		for _, e := range x {
			items = append(items, e)
		}
	case []int:
		for _, e := range x {
			items = append(items, e)
		}
	case []any:
		items = x
	case []string:
		for _, e := range x {
			items = append(items, e)
		}
	case string:
		if !strings.Contains(x, ",") {
			items = []any{x}
			break
		}
		for _, e := range strings.Split(x, ",") {
			items = append(items, e)
		}
	default:
		items = []any{v}
	}
	if len(items) == 0 {
		return nil, invalid(key, v, "at least one value")
	}
	out := make([]float64, len(items))
	for i, e := range items {
		f, err := asFloat(key, e)
		if err != nil {
			return nil, err
		}
		out[i] = f
	}
	return out, nil
}

func asInts(key string, v any) ([]int, error) {
	fs, err := asFloats(key, v)
	if err != nil {
		return nil, err
	}
	out := make([]int, len(fs))
	for i, f := range fs {
		if f != math.Trunc(f) || math.IsInf(f, 0) {
			return nil, invalid(key, v, "integers")
		}
		out[i] = int(f)
	}
	return out, nil
}

// broadcast expands a single value to dim axes. Any other length must equal
// dim.
func broadcast[T any](key string, v []T, dim int) ([]T, error) {
	switch len(v) {
	case dim:
		return slices.Clone(v), nil
	case 1:
		out := make([]T, dim)
		for i := range out {
			out[i] = v[0]
		}
		return out, nil
	}
	return nil, fmt.Errorf("%w: %s has %d values for a %d-d image", ErrInvalidParameter, key, len(v), dim)
}

// mustBroadcast is broadcast for getters: a length mismatch, already
// reported by OutputInformation, returns the stored vector unchanged.
func mustBroadcast[T any](v []T, dim int) []T {
	out, err := broadcast("", v, dim)
	if err != nil {
		return slices.Clone(v)
	}
	return out
}
