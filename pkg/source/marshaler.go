package source

import "encoding/json"

// Marshaler converts values to and from the bytes kept in the origin.
type Marshaler[V any] interface {
	Marshal(v V) ([]byte, error)
	Unmarshal(data []byte) (V, error)
}

// JSON is the default Marshaler.
type JSON[V any] struct{}

func (JSON[V]) Marshal(v V) ([]byte, error) {
	return json.Marshal(v)
}

func (JSON[V]) Unmarshal(data []byte) (V, error) {
	var v V
	err := json.Unmarshal(data, &v)
	return v, err
}

// Bytes passes raw values through unchanged.
type Bytes struct{}

func (Bytes) Marshal(v []byte) ([]byte, error) { return v, nil }

func (Bytes) Unmarshal(data []byte) ([]byte, error) { return data, nil }
