// Package consolidate merges a source and a target record array, matched by
// identifier, into one bilingual XLIFF 1.2 document.
package consolidate

import (
	"fmt"
	"io"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"jsonxliff/internal/flatten"
	"jsonxliff/internal/records"
)

// ErrNoIdentifier is returned when no source record carries an identifier,
// so the translatable fields cannot be detected.
var ErrNoIdentifier = errors.New("no source record has an identifier")

type Options struct {
	// IDField names the identifier field. Defaults to flatten.DefaultIDField.
	IDField string
	// Fields lists the translatable fields explicitly. When empty, they are
	// detected from the first source record that has an identifier.
	Fields []string
	Logger logrus.FieldLogger
}

// Unit is one XLIFF trans-unit.
type Unit struct {
	ID     string
	Source string
	Target string
	Note   string
}

type Result struct {
	Fields []string
	Units  []Unit

	Matched   int      // source records with a target counterpart
	Unmatched []string // identifiers without a target counterpart
	NoID      int      // source records without an identifier
}

// Consolidate pairs every source record with the target record of the same
// identifier and emits one unit per non-empty translatable source field.
// Source records without a counterpart are skipped with a warning.
func Consolidate(source, target []*records.Record, opts Options) (*Result, error) {
	idField := opts.IDField
	if idField == "" {
		idField = flatten.DefaultIDField
	}
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	targets := make(map[string]*records.Record, len(target))
	for _, rec := range target {
		if id, ok := identifier(rec, idField); ok {
			targets[id] = rec
		}
	}

	fields := opts.Fields
	if len(fields) == 0 {
		var err error
		fields, err = DetectFields(source, idField)
		if err != nil {
			return nil, err
		}
	}

	res := &Result{Fields: fields}
	for _, src := range source {
		id, ok := identifier(src, idField)
		if !ok {
			res.NoID++
			continue
		}
		tgt, ok := targets[id]
		if !ok {
			logger.WithField(idField, id).Warn("no target record found, skipping")
			res.Unmatched = append(res.Unmatched, id)
			continue
		}
		res.Matched++
		for _, field := range fields {
			sourceText, _ := src.String(field)
			if sourceText == "" {
				continue
			}
			targetText, _ := tgt.String(field)
			res.Units = append(res.Units, Unit{
				ID:     flatten.Key(id, field),
				Source: sourceText,
				Target: targetText,
				Note:   fmt.Sprintf("%s for UUID: %s", field, id),
			})
		}
	}
	if res.Matched+len(res.Unmatched) == 0 {
		return nil, ErrNoIdentifier
	}
	return res, nil
}

// DetectFields returns, in document order, every field of the first source
// record with an identifier whose value is a non-empty string.
func DetectFields(source []*records.Record, idField string) ([]string, error) {
	for _, rec := range source {
		if _, ok := identifier(rec, idField); !ok {
			continue
		}
		var fields []string
		for _, key := range rec.Keys() {
			if key == idField {
				continue
			}
			if v, ok := rec.String(key); ok && v != "" {
				fields = append(fields, key)
			}
		}
		return fields, nil
	}
	return nil, ErrNoIdentifier
}

func identifier(rec *records.Record, idField string) (string, bool) {
	id, ok := rec.String(idField)
	if !ok || id == "" {
		return "", false
	}
	return id, true
}

// Header describes the <file> element of the emitted document.
type Header struct {
	SourceLang string
	TargetLang string
	// Original is the file's original attribute.
	Original string
}

const (
	toolID      = "jsonxliff-consolidate"
	toolName    = "JSON to XLIFF Consolidator"
	toolVersion = "1.0"
)

// WriteXLIFF writes the units as an XLIFF 1.2 document.
func (r *Result) WriteXLIFF(w io.Writer, h Header) error {
	ew := &errWriter{w: w}
	ew.printf(`<?xml version="1.0" encoding="UTF-8"?>
<xliff version="1.2" xmlns="urn:oasis:names:tc:xliff:document:1.2">
  <file source-language="%s" target-language="%s" datatype="plaintext" original="%s">
    <header>
      <tool tool-id="%s" tool-name="%s" tool-version="%s"/>
    </header>
    <body>
`, Escape(h.SourceLang), Escape(h.TargetLang), Escape(h.Original), toolID, toolName, toolVersion)
	for _, u := range r.Units {
		ew.printf(`      <trans-unit id="%s">
        <source>%s</source>
        <target>%s</target>
        <note>%s</note>
      </trans-unit>
`, Escape(u.ID), Escape(u.Source), Escape(u.Target), Escape(u.Note))
	}
	ew.printf(`    </body>
  </file>
</xliff>
`)
	return ew.err
}

type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...interface{}) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}
