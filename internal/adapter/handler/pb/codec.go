package pb

import (
	"encoding/json"

	"google.golang.org/grpc/encoding"
)

// Codec is the content-subtype the cart service messages travel under.
// Clients must send it (grpc.CallContentSubtype(Codec)); a client using
// the default protobuf codec cannot call the service.
const Codec = "json"

type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

func (jsonCodec) Name() string {
	return Codec
}

func init() {
	encoding.RegisterCodec(jsonCodec{})
}
