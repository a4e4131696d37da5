package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Responses maps node keys to answers and remembers the order in which keys
// were first answered. Re-answering a key updates its value in place.
type Responses struct {
	keys   []string
	values map[string]any
}

// NewResponses builds a response set from pairs, keeping their order.
func NewResponses(pairs ...ResponsePair) Responses {
	var r Responses
	for _, p := range pairs {
		r.Set(p.Key, p.Value)
	}
	return r
}

// ResponsePair is a single recorded answer.
type ResponsePair struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
}

// Set records value for key.
func (r *Responses) Set(key string, value any) {
	if r.values == nil {
		r.values = make(map[string]any)
	}
	if _, ok := r.values[key]; !ok {
		r.keys = append(r.keys, key)
	}
	r.values[key] = value
}

// Get returns the answer stored for key.
func (r Responses) Get(key string) (any, bool) {
	v, ok := r.values[key]
	return v, ok
}

// Has reports whether key was answered.
func (r Responses) Has(key string) bool {
	_, ok := r.values[key]
	return ok
}

// Len is the number of answered keys.
func (r Responses) Len() int {
	return len(r.keys)
}

// Keys returns the answered keys in answer order.
func (r Responses) Keys() []string {
	out := make([]string, len(r.keys))
	copy(out, r.keys)
	return out
}

// IndexOf returns the answer position of key, or -1.
func (r Responses) IndexOf(key string) int {
	for i, k := range r.keys {
		if k == key {
			return i
		}
	}
	return -1
}

// Pairs returns the answers in answer order.
func (r Responses) Pairs() []ResponsePair {
	out := make([]ResponsePair, 0, len(r.keys))
	for _, k := range r.keys {
		out = append(out, ResponsePair{Key: k, Value: r.values[k]})
	}
	return out
}

// Clone returns an independent copy.
func (r Responses) Clone() Responses {
	var out Responses
	for _, k := range r.keys {
		out.Set(k, r.values[k])
	}
	return out
}

// MarshalJSON encodes the responses as an object in answer order.
func (r Responses) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range r.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		vb, err := json.Marshal(r.values[k])
		if err != nil {
			return nil, fmt.Errorf("marshal response %q: %w", k, err)
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes an object, keeping the key order of the document.
func (r *Responses) UnmarshalJSON(data []byte) error {
	*r = Responses{}
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("responses: expected object, got %v", tok)
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("responses: expected key, got %v", tok)
		}
		var value any
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("responses: decode %q: %w", key, err)
		}
		r.Set(key, value)
	}
	_, err = dec.Token()
	return err
}
