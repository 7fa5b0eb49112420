package session

import (
	"encoding/json"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// Codec serializes principals for stores that hold bytes.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
	Name() string
}

// JSONCodec stores principals as JSON. It is the default.
type JSONCodec struct{}

func (JSONCodec) Marshal(v any) ([]byte, error)      { return json.Marshal(v) }
func (JSONCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }
func (JSONCodec) Name() string                       { return "json" }

// CBORCodec stores principals as CBOR, which is more compact than JSON.
type CBORCodec struct{}

func (CBORCodec) Marshal(v any) ([]byte, error)      { return cbor.Marshal(v) }
func (CBORCodec) Unmarshal(data []byte, v any) error { return cbor.Unmarshal(data, v) }
func (CBORCodec) Name() string                       { return "cbor" }

// CodecByName resolves "json" (or "") and "cbor".
func CodecByName(name string) (Codec, error) {
	switch name {
	case "", "json":
		return JSONCodec{}, nil
	case "cbor":
		return CBORCodec{}, nil
	default:
		return nil, fmt.Errorf("unsupported session encoding %q", name)
	}
}
