// Package encoding implements the wire encodings a message declaration can
// select with `encode "json"`, `encode "protobuf"`, or
// `encode "protobuf+base64"`, ported from original_source/stl/lib.py's
// Encoding/JsonEncoding/ProtobufEncoding/ProtobufBase64Encoding.
package encoding

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/arkwright/stl/model"
)

// ByName returns the Encoding registered for a message's `encode "..."`
// name, or an error if it is unknown.
func ByName(name string, descriptors *DescriptorRegistry) (model.Encoding, error) {
	switch name {
	case "json":
		return Json{}, nil
	case "protobuf":
		return &Protobuf{descriptors: descriptors}, nil
	case "protobuf+base64":
		return &ProtobufBase64{inner: &Protobuf{descriptors: descriptors}}, nil
	default:
		return nil, fmt.Errorf("unknown message encoding: %s", name)
	}
}

// Json serializes message field maps as JSON objects.
type Json struct{}

func (Json) SerializeToString(value any, _ *model.Message) (string, error) {
	b, err := json.Marshal(value)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (Json) ParseFromString(data string, _ *model.Message) (any, error) {
	var out any
	if err := json.Unmarshal([]byte(data), &out); err != nil {
		return nil, err
	}
	return normalizeJSON(out), nil
}

// normalizeJSON converts json.Unmarshal's generic float64/[]any/map[string]any
// tree into the int64/string/bool/[]any/map[string]any shapes the rest of
// model expects (field values are always compared/validated as int64, never
// float64).
func normalizeJSON(v any) any {
	switch t := v.(type) {
	case float64:
		if t == float64(int64(t)) {
			return int64(t)
		}
		return t
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = normalizeJSON(e)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = normalizeJSON(e)
		}
		return out
	default:
		return v
	}
}

// ProtobufBase64 wraps Protobuf-encoded messages with standard base64, for
// transports that cannot carry arbitrary binary payloads.
type ProtobufBase64 struct {
	inner *Protobuf
}

func (p *ProtobufBase64) SerializeToString(value any, msg *model.Message) (string, error) {
	raw, err := p.inner.SerializeToString(value, msg)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString([]byte(raw)), nil
}

func (p *ProtobufBase64) ParseFromString(data string, msg *model.Message) (any, error) {
	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, fmt.Errorf("could not decode base64 protobuf payload: %w", err)
	}
	return p.inner.ParseFromString(string(raw), msg)
}
