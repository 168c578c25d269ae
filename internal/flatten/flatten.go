// Package flatten turns record arrays into the flat key→string mappings
// consumed by conversion engines.
package flatten

import (
	"github.com/sirupsen/logrus"

	"jsonxliff/internal/records"
)

// Separator joins a record identifier and a field name into a unit key.
const Separator = "_"

// DefaultIDField names the record identifier when none is configured.
const DefaultIDField = "uuid"

// DefaultFields are the translatable fields of a record.
var DefaultFields = []string{"title", "body"}

// Key returns the synthesized unit key for field of the record identified
// by id.
func Key(id, field string) string {
	return id + Separator + field
}

type Options struct {
	// IDField names the identifier field. Defaults to DefaultIDField.
	IDField string
	// Fields lists the fields every record must carry. Defaults to
	// DefaultFields.
	Fields []string
	Logger logrus.FieldLogger
}

// Result holds the source mapping and the empty-valued target mapping.
type Result struct {
	Source  *records.FlatMap
	Target  *records.FlatMap
	Records int // qualifying records
	Skipped int
}

// Flatten emits one entry per field for every record carrying a string
// identifier and string values for all fields. Other records are skipped.
func Flatten(recs []*records.Record, opts Options) *Result {
	fields := opts.Fields
	if len(fields) == 0 {
		fields = DefaultFields
	}
	idField := opts.IDField
	if idField == "" {
		idField = DefaultIDField
	}
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	res := &Result{
		Source: records.NewFlatMap(),
		Target: records.NewFlatMap(),
	}
	for idx, rec := range recs {
		id, ok := rec.String(idField)
		if !ok {
			logger.WithField("index", idx).Debug("skipping record without identifier")
			res.Skipped++
			continue
		}
		values, ok := stringFields(rec, fields)
		if !ok {
			logger.WithField(idField, id).Debug("skipping record with missing fields")
			res.Skipped++
			continue
		}
		for i, field := range fields {
			key := Key(id, field)
			res.Source.Set(key, values[i])
			res.Target.Set(key, "")
		}
		res.Records++
	}
	return res
}

func stringFields(rec *records.Record, fields []string) ([]string, bool) {
	values := make([]string, len(fields))
	for i, field := range fields {
		v, ok := rec.String(field)
		if !ok {
			return nil, false
		}
		values[i] = v
	}
	return values, true
}
