// Package codec defines the (de)serialization boundary between typed cache
// envelopes and the byte stores.
package codec

// Codec encodes/decodes values V to []byte for storage.
type Codec[V any] interface {
	Encode(V) ([]byte, error)
	Decode([]byte) (V, error)
}
