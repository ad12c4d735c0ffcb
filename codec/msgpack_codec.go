package codec

import "github.com/vmihailenco/msgpack/v5"

// MsgpackCodec is the compact binary wire format, standing in for the
// reference implementation's BSON codec: it preserves integer width,
// strings, booleans, null, ordered sequences and keyed records, and
// silently ignores unknown keys on decode.
type MsgpackCodec struct{}

func (MsgpackCodec) Encode(v any) ([]byte, error) {
	return msgpack.Marshal(v)
}

func (MsgpackCodec) Decode(data []byte, v any) error {
	return msgpack.Unmarshal(data, v)
}

func (MsgpackCodec) Type() Type {
	return TypeMsgpack
}
