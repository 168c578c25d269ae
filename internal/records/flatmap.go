package records

import (
	"bytes"

	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
)

// FlatMap maps synthesized keys to strings. Iteration follows insertion
// order, which is also the order used when encoding to JSON.
type FlatMap struct {
	keys   []string
	values map[string]string
}

func NewFlatMap() *FlatMap {
	return &FlatMap{values: make(map[string]string)}
}

// Set stores value under key. Re-setting a key keeps its original position.
func (m *FlatMap) Set(key, value string) {
	if m.values == nil {
		m.values = make(map[string]string)
	}
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
}

func (m *FlatMap) Get(key string) (string, bool) {
	v, ok := m.values[key]
	return v, ok
}

// Keys returns the keys in insertion order.
func (m *FlatMap) Keys() []string {
	return append([]string(nil), m.keys...)
}

func (m *FlatMap) Len() int { return len(m.keys) }

func (m *FlatMap) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for idx, key := range m.keys {
		if idx > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString(quote(key))
		buf.WriteByte(':')
		buf.WriteString(quote(m.values[key]))
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object. Non-string values are kept in their
// textual form.
func (m *FlatMap) UnmarshalJSON(b []byte) error {
	if !gjson.ValidBytes(b) {
		return ErrInvalidJSON
	}
	res := gjson.ParseBytes(b)
	if !res.IsObject() {
		return errors.New("flat mapping is not a JSON object")
	}
	*m = FlatMap{values: make(map[string]string)}
	res.ForEach(func(key, value gjson.Result) bool {
		m.Set(key.Str, value.String())
		return true
	})
	return nil
}

// LoadFlatMap reads a flat mapping from path.
func LoadFlatMap(path string) (*FlatMap, error) {
	b, err := readInput(path)
	if err != nil {
		return nil, err
	}
	m := NewFlatMap()
	if err := m.UnmarshalJSON(b); err != nil {
		return nil, errors.Wrap(err, path)
	}
	return m, nil
}
