package codec

import "encoding/json"

// JSON is the envelope codec for both cache tiers. The remote layout is
// deliberately JSON so the shared store stays inspectable and other services
// can read it without a schema.
type JSON[V any] struct{}

func (JSON[V]) Encode(v V) ([]byte, error) { return json.Marshal(v) }
func (JSON[V]) Decode(b []byte) (V, error) {
	var v V
	err := json.Unmarshal(b, &v)
	return v, err
}
