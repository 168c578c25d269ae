// Package reconstruct rebuilds record arrays from flat key→string mappings
// produced by flatten (after a trip through an XLIFF engine).
package reconstruct

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"jsonxliff/internal/flatten"
	"jsonxliff/internal/records"
)

// uuidPattern matches the canonical 8-4-4-4-12 textual UUID form.
const uuidPattern = `[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}`

type Options struct {
	// IDField names the identifier field of output records. Defaults to
	// flatten.DefaultIDField.
	IDField string
	// Fields restricts which key suffixes are recognized. Defaults to
	// flatten.DefaultFields.
	Fields []string
	// FallbackKeyField and FallbackValueField receive the key and value of
	// each entry when no key is recognized. Default to "title" and "body".
	FallbackKeyField   string
	FallbackValueField string
	// Now is used for generated identifiers. Defaults to time.Now.
	Now func() time.Time
}

// Result is the reconstructed record array.
type Result struct {
	Records  []*records.Record
	Matched  int  // keys recognized as <uuid>_<field>
	Fallback bool // no key was recognized; one record per key
}

// Reconstruct groups keys of the form <uuid>_<field> back into records, in
// order of first occurrence. Keys that are not recognized are dropped,
// unless no key at all is recognized: then every key becomes a record of its
// own (see Fallback).
func Reconstruct(m *records.FlatMap, opts Options) *Result {
	fields := opts.Fields
	if len(fields) == 0 {
		fields = flatten.DefaultFields
	}
	if opts.IDField == "" {
		opts.IDField = flatten.DefaultIDField
	}
	re := keyRegexp(fields)

	res := &Result{}
	for _, key := range m.Keys() {
		if re.MatchString(key) {
			res.Matched++
		}
	}
	if res.Matched == 0 {
		res.Fallback = true
		res.Records = fallback(m, opts)
		return res
	}

	processed := make(map[string]bool)
	for _, key := range m.Keys() {
		match := re.FindStringSubmatch(key)
		if match == nil {
			continue
		}
		id := match[1]
		if processed[id] {
			continue
		}
		processed[id] = true
		rec := records.NewRecord()
		for _, field := range fields {
			v, _ := m.Get(flatten.Key(id, field))
			rec.Set(field, v)
		}
		rec.Set(opts.IDField, id)
		res.Records = append(res.Records, rec)
	}
	return res
}

func fallback(m *records.FlatMap, opts Options) []*records.Record {
	keyField := opts.FallbackKeyField
	if keyField == "" {
		keyField = "title"
	}
	valueField := opts.FallbackValueField
	if valueField == "" {
		valueField = "body"
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	stamp := now().UnixMilli()

	var recs []*records.Record
	for idx, key := range m.Keys() {
		v, _ := m.Get(key)
		rec := records.NewRecord()
		rec.Set(keyField, key)
		rec.Set(valueField, v)
		rec.Set(opts.IDField, GeneratedID(stamp, idx))
		recs = append(recs, rec)
	}
	return recs
}

// GeneratedID returns the identifier given to the idx-th fallback record.
func GeneratedID(millis int64, idx int) string {
	return fmt.Sprintf("generated-%d-%d", millis, idx)
}

func keyRegexp(fields []string) *regexp.Regexp {
	quoted := make([]string, len(fields))
	for i, f := range fields {
		quoted[i] = regexp.QuoteMeta(f)
	}
	return regexp.MustCompile(`^(` + uuidPattern + `)` + regexp.QuoteMeta(flatten.Separator) +
		`(` + strings.Join(quoted, "|") + `)$`)
}
