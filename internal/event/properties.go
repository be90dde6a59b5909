package event

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// Property is one key/value pair attached to an event.
type Property struct {
	Key   string
	Value Value
}

// Properties holds an event's key/value pairs in insertion order. Keys are
// unique; Set replaces an existing key in place. Order is preserved through
// JSON marshal and unmarshal so payloads stay deterministic.
type Properties []Property

// Set appends the pair, or replaces the value in place when the key exists.
func (p *Properties) Set(key string, v Value) {
	for i := range *p {
		if (*p)[i].Key == key {
			(*p)[i].Value = v
			return
		}
	}
	*p = append(*p, Property{Key: key, Value: v})
}

// Get reports the value for key and whether it is present.
func (p Properties) Get(key string) (Value, bool) {
	for i := range p {
		if p[i].Key == key {
			return p[i].Value, true
		}
	}
	return Value{}, false
}

// Len reports the number of pairs.
func (p Properties) Len() int { return len(p) }

// Keys returns the keys in insertion order.
func (p Properties) Keys() []string {
	keys := make([]string, len(p))
	for i := range p {
		keys[i] = p[i].Key
	}
	return keys
}

// FromMap builds Properties from a Go map. Map iteration order is undefined,
// so keys are sorted for determinism. Values outside the closed set report
// ErrUnsupportedValue.
func FromMap(m map[string]any) (Properties, error) {
	if len(m) == 0 {
		return nil, nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make(Properties, 0, len(keys))
	for _, k := range keys {
		v, err := ValueOf(m[k])
		if err != nil {
			return nil, fmt.Errorf("property %q: %w", k, err)
		}
		out = append(out, Property{Key: k, Value: v})
	}
	return out, nil
}

// MarshalJSON implements json.Marshaler, writing an object in pair order.
func (p Properties) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i := range p {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(p[i].Key)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := p[i].Value.MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON implements json.Unmarshaler, preserving the wire order of
// keys via token-level decoding.
func (p *Properties) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*p = nil
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("properties: expected object, got %v", tok)
	}
	out := make(Properties, 0)
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("properties: expected key, got %v", keyTok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return err
		}
		var v Value
		if err := v.UnmarshalJSON(raw); err != nil {
			return fmt.Errorf("property %q: %w", key, err)
		}
		out.Set(key, v)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*p = out
	return nil
}
