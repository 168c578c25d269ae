package engine

import (
	"bytes"
	"context"
	"encoding/xml"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"jsonxliff/internal/records"
)

const xliff20Namespace = "urn:oasis:names:tc:xliff:document:2.0"

// Native writes XLIFF 2.0 and reads XLIFF 2.0 or 1.2 without leaving the
// process.
type Native struct{}

func (Native) Name() string { return "native" }

type xliff20 struct {
	XMLName xml.Name   `xml:"xliff"`
	Xmlns   string     `xml:"xmlns,attr"`
	Version string     `xml:"version,attr"`
	SrcLang string     `xml:"srcLang,attr"`
	TrgLang string     `xml:"trgLang,attr"`
	File    xliff20File `xml:"file"`
}

type xliff20File struct {
	ID    string        `xml:"id,attr"`
	Units []xliff20Unit `xml:"unit"`
}

type xliff20Unit struct {
	ID      string         `xml:"id,attr"`
	Segment xliff20Segment `xml:"segment"`
}

type xliff20Segment struct {
	Source string `xml:"source"`
	Target string `xml:"target"`
}

func (Native) ToXLIFF(ctx context.Context, source, target *records.FlatMap, opts Options) (string, error) {
	doc := xliff20{
		Xmlns:   xliff20Namespace,
		Version: "2.0",
		SrcLang: opts.SourceLang,
		TrgLang: opts.TargetLang,
		File:    xliff20File{ID: opts.Tag},
	}
	for _, key := range source.Keys() {
		src, _ := source.Get(key)
		var tgt string
		if target != nil {
			tgt, _ = target.Get(key)
		}
		doc.File.Units = append(doc.File.Units, xliff20Unit{
			ID:      key,
			Segment: xliff20Segment{Source: src, Target: tgt},
		})
	}
	b, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	buf.Write(b)
	buf.WriteByte('\n')

	path := filepath.Join(opts.Dir, DerivedXLIFFName(opts.Name, opts.Tag, opts.TargetLang))
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return "", err
	}
	return path, nil
}

// inputDocument accepts both XLIFF 2.0 (unit/segment) and 1.2
// (body/trans-unit) layouts.
type inputDocument struct {
	XMLName xml.Name `xml:"xliff"`
	Version string   `xml:"version,attr"`
	Files   []struct {
		Units []struct {
			ID       string `xml:"id,attr"`
			Segments []struct {
				Source string `xml:"source"`
				Target string `xml:"target"`
			} `xml:"segment"`
		} `xml:"unit"`
		TransUnits []struct {
			ID     string `xml:"id,attr"`
			Source string `xml:"source"`
			Target string `xml:"target"`
		} `xml:"body>trans-unit"`
	} `xml:"file"`
}

// FromXLIFF maps every unit id to its target text, or to its source text
// when the target is empty.
func (Native) FromXLIFF(ctx context.Context, path string, opts Options) (*records.FlatMap, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(records.ErrMissingFile, path)
		}
		return nil, err
	}
	return ParseXLIFF(b)
}

// ParseXLIFF decodes an XLIFF 2.0 or 1.2 document into a flat mapping.
func ParseXLIFF(b []byte) (*records.FlatMap, error) {
	var doc inputDocument
	if err := xml.Unmarshal(b, &doc); err != nil {
		return nil, errors.Wrap(err, "decoding XLIFF")
	}
	m := records.NewFlatMap()
	for _, f := range doc.Files {
		for _, u := range f.Units {
			var src, tgt strings.Builder
			for _, s := range u.Segments {
				src.WriteString(s.Source)
				tgt.WriteString(s.Target)
			}
			m.Set(u.ID, pick(src.String(), tgt.String()))
		}
		for _, u := range f.TransUnits {
			m.Set(u.ID, pick(u.Source, u.Target))
		}
	}
	return m, nil
}

func pick(source, target string) string {
	if target != "" {
		return target
	}
	return source
}
