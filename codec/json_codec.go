package codec

import "encoding/json"

// JSONCodec uses the standard library's encoding/json. Human-readable,
// cross-language, easy to debug; slower and larger than MsgpackCodec.
type JSONCodec struct{}

func (JSONCodec) Encode(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (JSONCodec) Decode(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

func (JSONCodec) Type() Type {
	return TypeJSON
}
