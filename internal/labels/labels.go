// Package labels implements the node label map carried on heartbeats.
//
// On the wire a label set is a JSON object whose values are scalars
// (string, integer, float, or bool). Integer values must survive a
// round-trip as integers, so decoding goes through json.Number instead of
// the default float64 mapping.
package labels

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Labels maps label keys to scalar values. Values are one of
// string, int64, float64, or bool.
type Labels map[string]any

// Parse decodes a JSON object into a label set, rejecting anything that is
// not an object of scalar values.
func Parse(raw string) (Labels, error) {
	if strings.TrimSpace(raw) == "" {
		return Labels{}, nil
	}

	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()

	var decoded any
	if err := dec.Decode(&decoded); err != nil {
		return nil, fmt.Errorf("labels must be a JSON object: %w", err)
	}

	obj, ok := decoded.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("labels must be a JSON object, got %T", decoded)
	}

	out := make(Labels, len(obj))
	for key, value := range obj {
		scalar, err := toScalar(value)
		if err != nil {
			return nil, fmt.Errorf("label %q: %w", key, err)
		}
		out[key] = scalar
	}
	return out, nil
}

// toScalar normalises a decoded JSON value into one of the four supported
// scalar categories. json.Number values without a fraction or exponent stay
// integers.
func toScalar(value any) (any, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case bool:
		return v, nil
	case json.Number:
		s := v.String()
		if !strings.ContainsAny(s, ".eE") {
			n, err := v.Int64()
			if err != nil {
				return nil, fmt.Errorf("invalid integer %q: %w", s, err)
			}
			return n, nil
		}
		f, err := v.Float64()
		if err != nil {
			return nil, fmt.Errorf("invalid number %q: %w", s, err)
		}
		return f, nil
	default:
		return nil, fmt.Errorf("value must be a string, number, or bool, got %T", value)
	}
}

// UnmarshalJSON decodes a label object, enforcing scalar values. JSON null
// is treated as an empty set, per the usual unmarshaler convention.
func (l *Labels) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*l = Labels{}
		return nil
	}
	parsed, err := Parse(string(data))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// Encode serialises the label set as compact JSON for storage.
func (l Labels) Encode() (string, error) {
	if l == nil {
		return "{}", nil
	}
	b, err := json.Marshal(map[string]any(l))
	if err != nil {
		return "", fmt.Errorf("encode labels: %w", err)
	}
	return string(b), nil
}
