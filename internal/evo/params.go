package evo

import "sort"

// Params holds decoded operator parameters, typically from YAML.
type Params map[string]any

func (p Params) Int(key string, def int) (int, error) {
	v, ok := p[key]
	if !ok || v == nil {
		return def, nil
	}
	n, ok := asInt(v)
	if !ok {
		return 0, configError(key, "expected an integer, got %T", v)
	}
	return n, nil
}

func (p Params) Float(key string, def float64) (float64, error) {
	v, ok := p[key]
	if !ok || v == nil {
		return def, nil
	}
	f, ok := asFloat64(v)
	if !ok {
		return 0, configError(key, "expected a number, got %T", v)
	}
	return f, nil
}

func (p Params) Bool(key string, def bool) (bool, error) {
	v, ok := p[key]
	if !ok || v == nil {
		return def, nil
	}
	b, ok := v.(bool)
	if !ok {
		return false, configError(key, "expected a boolean, got %T", v)
	}
	return b, nil
}

func (p Params) String(key, def string) (string, error) {
	v, ok := p[key]
	if !ok || v == nil {
		return def, nil
	}
	s, ok := v.(string)
	if !ok {
		return "", configError(key, "expected a string, got %T", v)
	}
	return s, nil
}

func (p Params) Ints(key string) ([]int, error) {
	v, ok := p[key]
	if !ok || v == nil {
		return nil, nil
	}
	switch xs := v.(type) {
	case []int:
		return xs, nil
	case []any:
		out := make([]int, len(xs))
		for i, x := range xs {
			n, ok := asInt(x)
			if !ok {
				return nil, configError(key, "element %d: expected an integer, got %T", i, x)
			}
			out[i] = n
		}
		return out, nil
	default:
		return nil, configError(key, "expected a list of integers, got %T", v)
	}
}

func (p Params) Strings(key string) ([]string, error) {
	v, ok := p[key]
	if !ok || v == nil {
		return nil, nil
	}
	switch xs := v.(type) {
	case []string:
		return xs, nil
	case []any:
		out := make([]string, len(xs))
		for i, x := range xs {
			s, ok := x.(string)
			if !ok {
				return nil, configError(key, "element %d: expected a string, got %T", i, x)
			}
			out[i] = s
		}
		return out, nil
	default:
		return nil, configError(key, "expected a list of strings, got %T", v)
	}
}

// Sub returns a nested parameter map, or nil when key is absent.
func (p Params) Sub(key string) (Params, error) {
	v, ok := p[key]
	if !ok || v == nil {
		return nil, nil
	}
	switch m := v.(type) {
	case Params:
		return m, nil
	case map[string]any:
		return Params(m), nil
	default:
		return nil, configError(key, "expected a mapping, got %T", v)
	}
}

// Keys lists the parameter names in sorted order.
func (p Params) Keys() []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func asInt(v any) (int, bool) {
	switch x := v.(type) {
	case int:
		return x, true
	case int64:
		return int(x), true
	case float64:
		if x != float64(int(x)) {
			return 0, false
		}
		return int(x), true
	default:
		return 0, false
	}
}

func asFloat64(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	default:
		return 0, false
	}
}

// IterationFromParams decodes an iteration description such as
// {kind: straight, size: 2, remainder: wrap}. A nil map yields def.
func IterationFromParams(p Params, def Iteration) (Iteration, error) {
	if p == nil {
		return def, nil
	}
	kind, err := p.String("kind", "")
	if err != nil {
		return nil, err
	}
	size, err := p.Int("size", 1)
	if err != nil {
		return nil, err
	}
	probability, err := p.Float("probability", 1)
	if err != nil {
		return nil, err
	}
	total, err := p.Int("total", 0)
	if err != nil {
		return nil, err
	}
	rem, err := p.String("remainder", "")
	if err != nil {
		return nil, err
	}
	remainder, err := ParseRemainder(rem)
	if err != nil {
		return nil, err
	}
	if size < 1 {
		return nil, configError("iteration.size", "must be > 0, got %d", size)
	}
	if err := checkProbability("iteration.probability", probability); err != nil {
		return nil, err
	}

	switch kind {
	case "straight":
		return Straight{Size: size, Remainder: remainder}, nil
	case "single":
		return Single{}, nil
	case "shuffled":
		return Shuffled{Size: size, Remainder: remainder}, nil
	case "random_straight":
		return RandomStraight{Size: size, Probability: probability, Remainder: remainder}, nil
	case "random_single":
		return RandomSingle{Probability: probability}, nil
	case "batches":
		return Batches{Size: size, Total: total}, nil
	case "whole":
		return Whole{}, nil
	default:
		return nil, configError("iteration.kind", "unknown iteration %q", kind)
	}
}
