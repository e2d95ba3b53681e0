package pb

import (
	"encoding/json"

	"google.golang.org/grpc/encoding"
)

// CodecName is the grpc content-subtype of the json codec.
const CodecName = "json"

// Codec is the json grpc codec used by the ProfileService on both ends.
// Clients select it with grpc.CallContentSubtype(pb.CodecName); the server
// forces it with grpc.ForceServerCodec(pb.Codec{}).
type Codec struct{}

var _ encoding.Codec = Codec{}

func init() {
	encoding.RegisterCodec(Codec{})
}

func (Codec) Marshal(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

func (Codec) Unmarshal(data []byte, v interface{}) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, v)
}

func (Codec) Name() string { return CodecName }
