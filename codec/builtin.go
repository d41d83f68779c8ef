package codec

import (
	"bytes"
	"encoding/gob"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

func init() {
	Register(Bytes{})
	Register(Text{})
	Register(Native{})
	Register(JSON{})
	Register(YAML{})
}

// Bytes stores []byte values verbatim.
type Bytes struct{}

func (Bytes) Name() string { return "bytes" }

// Encode accepts only []byte.
func (Bytes) Encode(v any) ([]byte, error) {
	b, ok := v.([]byte)
	if !ok {
		return nil, fmt.Errorf("%w: bytes codec expects []byte, got %T", ErrTypeMismatch, v)
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out, nil
}

// Decode copies data into a *[]byte or *any.
func (Bytes) Decode(data []byte, v any) error {
	out := make([]byte, len(data))
	copy(out, data)

	switch dst := v.(type) {
	case *[]byte:
		*dst = out
	case *any:
		*dst = out
	default:
		return fmt.Errorf("%w: bytes codec decodes into *[]byte, got %T", ErrTypeMismatch, v)
	}
	return nil
}

// Text stores string values as UTF-8.
type Text struct{}

func (Text) Name() string { return "text" }

// Encode accepts only string.
func (Text) Encode(v any) ([]byte, error) {
	s, ok := v.(string)
	if !ok {
		return nil, fmt.Errorf("%w: text codec expects string, got %T", ErrTypeMismatch, v)
	}
	return []byte(s), nil
}

// Decode stores data as a string in a *string or *any.
func (Text) Decode(data []byte, v any) error {
	switch dst := v.(type) {
	case *string:
		*dst = string(data)
	case *any:
		*dst = string(data)
	default:
		return fmt.Errorf("%w: text codec decodes into *string, got %T", ErrTypeMismatch, v)
	}
	return nil
}

// Native uses encoding/gob. Values decode into their concrete type, so
// decoding into *any only works for types registered with gob.Register.
// Gob does not distinguish empty from nil: an empty slice or map decodes
// as nil. Use the json codec when that difference matters.
type Native struct{}

func (Native) Name() string { return "native" }

// Encode gob-encodes v.
func (Native) Encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, fmt.Errorf("%w: gob: %w", ErrTypeMismatch, err)
	}
	return buf.Bytes(), nil
}

// Decode gob-decodes data into v.
func (Native) Decode(data []byte, v any) error {
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(v); err != nil {
		return fmt.Errorf("codec: gob decode: %w", err)
	}
	return nil
}

// JSON uses encoding/json.
type JSON struct{}

func (JSON) Name() string { return "json" }

// Encode marshals v as JSON.
func (JSON) Encode(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%w: json: %w", ErrTypeMismatch, err)
	}
	return data, nil
}

// Decode unmarshals JSON data into v.
func (JSON) Decode(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("codec: json decode: %w", err)
	}
	return nil
}

// YAML uses gopkg.in/yaml.v3.
type YAML struct{}

func (YAML) Name() string { return "yaml" }

// Encode marshals v as YAML.
func (YAML) Encode(v any) ([]byte, error) {
	data, err := yaml.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%w: yaml: %w", ErrTypeMismatch, err)
	}
	return data, nil
}

// Decode unmarshals YAML data into v.
func (YAML) Decode(data []byte, v any) error {
	if err := yaml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("codec: yaml decode: %w", err)
	}
	return nil
}
