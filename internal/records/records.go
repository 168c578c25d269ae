// Package records reads and writes the JSON shapes exchanged by the
// converters: arrays of records and flat key→string mappings. Object key
// order is preserved in both directions.
package records

import (
	"bytes"
	"encoding/json"
	"os"

	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
)

var (
	// ErrMissingFile is returned when an input path does not exist.
	ErrMissingFile = errors.New("input file does not exist")

	// ErrNotArray is returned when the top-level JSON value is not an array.
	ErrNotArray = errors.New("top-level JSON value is not an array")

	// ErrNotObject is returned when an array element is not an object.
	ErrNotObject = errors.New("array element is not an object")

	// ErrInvalidJSON is returned for input that does not parse as JSON.
	ErrInvalidJSON = errors.New("invalid JSON")
)

// Record is a JSON object. Fields keep the order in which they appeared in
// the input (or were first set).
type Record struct {
	keys   []string
	values map[string]gjson.Result
}

func NewRecord() *Record {
	return &Record{values: make(map[string]gjson.Result)}
}

// Keys returns the field names in document order.
func (r *Record) Keys() []string {
	return append([]string(nil), r.keys...)
}

func (r *Record) Value(name string) (gjson.Result, bool) {
	v, ok := r.values[name]
	return v, ok
}

// String returns the named field if it holds a JSON string.
func (r *Record) String(name string) (string, bool) {
	v, ok := r.values[name]
	if !ok || v.Type != gjson.String {
		return "", false
	}
	return v.Str, true
}

// Set stores a string field. An existing field keeps its position.
func (r *Record) Set(name, value string) {
	r.set(name, gjson.Result{Type: gjson.String, Str: value, Raw: quote(value)})
}

func (r *Record) set(name string, v gjson.Result) {
	if r.values == nil {
		r.values = make(map[string]gjson.Result)
	}
	if _, ok := r.values[name]; !ok {
		r.keys = append(r.keys, name)
	}
	r.values[name] = v
}

func (r *Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for idx, key := range r.keys {
		if idx > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString(quote(key))
		buf.WriteByte(':')
		raw := r.values[key].Raw
		if raw == "" {
			raw = "null"
		}
		buf.WriteString(raw)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Parse decodes a top-level array of objects.
func Parse(b []byte) ([]*Record, error) {
	if !gjson.ValidBytes(b) {
		return nil, ErrInvalidJSON
	}
	res := gjson.ParseBytes(b)
	if !res.IsArray() {
		return nil, ErrNotArray
	}
	var (
		recs []*Record
		err  error
	)
	idx := 0
	res.ForEach(func(_, value gjson.Result) bool {
		if !value.IsObject() {
			err = errors.Wrapf(ErrNotObject, "element %d", idx)
			return false
		}
		rec := NewRecord()
		value.ForEach(func(key, v gjson.Result) bool {
			rec.set(key.Str, v)
			return true
		})
		recs = append(recs, rec)
		idx++
		return true
	})
	if err != nil {
		return nil, err
	}
	return recs, nil
}

// Load reads and parses the record array stored at path.
func Load(path string) ([]*Record, error) {
	b, err := readInput(path)
	if err != nil {
		return nil, err
	}
	recs, err := Parse(b)
	if err != nil {
		return nil, errors.Wrap(err, path)
	}
	return recs, nil
}

func readInput(path string) ([]byte, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(ErrMissingFile, path)
		}
		return nil, err
	}
	return b, nil
}

// Marshal encodes v as JSON indented by two spaces. Unlike json.Marshal,
// it leaves <, > and & unescaped.
func Marshal(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func quote(s string) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	// Encoding a string cannot fail.
	_ = enc.Encode(s)
	return string(bytes.TrimSuffix(buf.Bytes(), []byte("\n")))
}
