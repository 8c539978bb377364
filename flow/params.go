package flow

import (
	"fmt"
)

// Params holds the named parameters of an element or a policy, as decoded
// from a topology file.
type Params map[string]interface{}

// Has tells if the parameter is set.
func (p Params) Has(key string) bool {
	_, ok := p[key]
	return ok
}

// Int returns an integer parameter, or def if it is not set.
func (p Params) Int(key string, def int) (int, error) {
	v, ok := p[key]
	if !ok {
		return def, nil
	}

	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		if n != float64(int(n)) {
			return 0, fmt.Errorf("parameter %q: %v is not an integer", key, v)
		}

		return int(n), nil
	default:
		return 0, fmt.Errorf("parameter %q: %v is not an integer", key, v)
	}
}

// Int64 returns an integer parameter, or def if it is not set.
func (p Params) Int64(key string, def int64) (int64, error) {
	n, err := p.Int(key, int(def))
	return int64(n), err
}

// Float returns a number parameter, or def if it is not set.
func (p Params) Float(key string, def float64) (float64, error) {
	v, ok := p[key]
	if !ok {
		return def, nil
	}

	return toFloat(key, v)
}

// String returns a string parameter, or def if it is not set.
func (p Params) String(key string, def string) (string, error) {
	v, ok := p[key]
	if !ok {
		return def, nil
	}

	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("parameter %q: %v is not a string", key, v)
	}

	return s, nil
}

// Bool returns a boolean parameter, or def if it is not set.
func (p Params) Bool(key string, def bool) (bool, error) {
	v, ok := p[key]
	if !ok {
		return def, nil
	}

	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("parameter %q: %v is not a boolean", key, v)
	}

	return b, nil
}

// Floats returns a list of numbers, or nil if it is not set.
func (p Params) Floats(key string) ([]float64, error) {
	v, ok := p[key]
	if !ok {
		return nil, nil
	}

	list, ok := v.([]interface{})
	if !ok {
		if fs, isFloats := v.([]float64); isFloats {
			return fs, nil
		}

		return nil, fmt.Errorf("parameter %q: %v is not a list", key, v)
	}

	out := make([]float64, len(list))
	for i, e := range list {
		f, err := toFloat(key, e)
		if err != nil {
			return nil, err
		}

		out[i] = f
	}

	return out, nil
}

// Ints returns a list of integers, or nil if it is not set.
func (p Params) Ints(key string) ([]int, error) {
	if is, ok := p[key].([]int); ok {
		return is, nil
	}

	fs, err := p.Floats(key)
	if err != nil || fs == nil {
		return nil, err
	}

	out := make([]int, len(fs))
	for i, f := range fs {
		if f != float64(int(f)) {
			return nil, fmt.Errorf("parameter %q: %v is not an integer", key, f)
		}

		out[i] = int(f)
	}

	return out, nil
}

// Matrix returns a list of lists of numbers, or nil if it is not set.
func (p Params) Matrix(key string) ([][]float64, error) {
	v, ok := p[key]
	if !ok {
		return nil, nil
	}

	if m, isMatrix := v.([][]float64); isMatrix {
		return m, nil
	}

	rows, ok := v.([]interface{})
	if !ok {
		return nil, fmt.Errorf("parameter %q: %v is not a list of rows", key, v)
	}

	out := make([][]float64, len(rows))
	for i, row := range rows {
		rowParams := Params{key: row}

		r, err := rowParams.Floats(key)
		if err != nil {
			return nil, err
		}

		out[i] = r
	}

	return out, nil
}

func toFloat(key string, v interface{}) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	default:
		return 0, fmt.Errorf("parameter %q: %v is not a number", key, v)
	}
}
