package consolidate

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"jsonxliff/internal/records"
)

func mustParse(t *testing.T, s string) []*records.Record {
	t.Helper()
	recs, err := records.Parse([]byte(s))
	if err != nil {
		t.Fatal(err)
	}
	return recs
}

func TestEscape(t *testing.T) {
	for _, tt := range []struct {
		in, want string
	}{
		{"", ""},
		{"plain text", "plain text"},
		{"a & b < c", "a &amp; b &lt; c"},
		{`"it's" > x`, "&quot;it&apos;s&quot; &gt; x"},
		{"&amp;", "&amp;amp;"},
	} {
		if got := Escape(tt.in); got != tt.want {
			t.Errorf("Escape(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestConsolidateMatching(t *testing.T) {
	source := mustParse(t, `[{"uuid":"X","title":"A","body":"B"}]`)
	target := mustParse(t, `[{"uuid":"X","title":"가","body":"나"}]`)
	res, err := Consolidate(source, target, Options{})
	if err != nil {
		t.Fatal(err)
	}
	want := []Unit{
		{ID: "X_title", Source: "A", Target: "가", Note: "title for UUID: X"},
		{ID: "X_body", Source: "B", Target: "나", Note: "body for UUID: X"},
	}
	if diff := cmp.Diff(want, res.Units); diff != "" {
		t.Errorf("unexpected units: diff (-want +got):\n%s", diff)
	}
}

func TestConsolidateMissingTarget(t *testing.T) {
	source := mustParse(t, `[
  {"uuid":"X","title":"A","body":"B"},
  {"uuid":"Y","title":"C","body":"D"}
]`)
	target := mustParse(t, `[{"uuid":"X","title":"가","body":"나"}]`)
	logger, hook := test.NewNullLogger()
	res, err := Consolidate(source, target, Options{Logger: logger})
	if err != nil {
		t.Fatal(err)
	}
	for _, u := range res.Units {
		if u.ID == "Y_title" || u.ID == "Y_body" {
			t.Errorf("unexpected unit %q for unmatched record", u.ID)
		}
	}
	if diff := cmp.Diff([]string{"Y"}, res.Unmatched); diff != "" {
		t.Errorf("unexpected unmatched: diff (-want +got):\n%s", diff)
	}
	entry := hook.LastEntry()
	if entry == nil || entry.Level != logrus.WarnLevel {
		t.Fatalf("expected a warning, got %v", entry)
	}
	if got := entry.Data["uuid"]; got != "Y" {
		t.Errorf("warning uuid = %v, want Y", got)
	}
}

func TestConsolidateEmptySourceField(t *testing.T) {
	source := mustParse(t, `[
  {"uuid":"X","title":"A","body":"B"},
  {"uuid":"Z","title":"T","body":""}
]`)
	target := mustParse(t, `[
  {"uuid":"X","title":"가","body":"나"},
  {"uuid":"Z","title":"다","body":"라"}
]`)
	res, err := Consolidate(source, target, Options{})
	if err != nil {
		t.Fatal(err)
	}
	var ids []string
	for _, u := range res.Units {
		ids = append(ids, u.ID)
	}
	if diff := cmp.Diff([]string{"X_title", "X_body", "Z_title"}, ids); diff != "" {
		t.Errorf("unexpected unit ids: diff (-want +got):\n%s", diff)
	}
}

func TestConsolidateMissingTargetField(t *testing.T) {
	source := mustParse(t, `[{"uuid":"X","title":"A","body":"B"}]`)
	target := mustParse(t, `[{"uuid":"X","title":"가"}]`)
	res, err := Consolidate(source, target, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if got := res.Units[1].Target; got != "" {
		t.Errorf("body target = %q, want empty", got)
	}
}

func TestDetectFields(t *testing.T) {
	source := mustParse(t, `[
  {"title":"no id"},
  {"summary":"S","uuid":"X","count":3,"empty":"","title":"T","tags":["a"]},
  {"uuid":"Y","other":"ignored"}
]`)
	fields, err := DetectFields(source, "uuid")
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"summary", "title"}, fields); diff != "" {
		t.Errorf("unexpected fields: diff (-want +got):\n%s", diff)
	}
}

func TestConsolidateNoIdentifier(t *testing.T) {
	source := mustParse(t, `[{"title":"A"},{"uuid":"","title":"B"}]`)
	_, err := Consolidate(source, nil, Options{})
	if errors.Cause(err) != ErrNoIdentifier {
		t.Fatalf("Consolidate = %v, want ErrNoIdentifier", err)
	}
}

func TestConsolidateExplicitFields(t *testing.T) {
	// The first record lacks "body"; explicit fields still pick it up for
	// later records.
	source := mustParse(t, `[
  {"uuid":"X","title":"A"},
  {"uuid":"Y","title":"C","body":"D"}
]`)
	target := mustParse(t, `[{"uuid":"X"},{"uuid":"Y","body":"라"}]`)
	res, err := Consolidate(source, target, Options{Fields: []string{"title", "body"}})
	if err != nil {
		t.Fatal(err)
	}
	var ids []string
	for _, u := range res.Units {
		ids = append(ids, u.ID)
	}
	if diff := cmp.Diff([]string{"X_title", "Y_title", "Y_body"}, ids); diff != "" {
		t.Errorf("unexpected unit ids: diff (-want +got):\n%s", diff)
	}
}

func TestWriteXLIFF(t *testing.T) {
	res := &Result{Units: []Unit{
		{ID: "X_title", Source: "Fish & Chips", Target: "<b>생선</b>", Note: "title for UUID: X"},
	}}
	var buf bytes.Buffer
	if err := res.WriteXLIFF(&buf, Header{SourceLang: "en", TargetLang: "ko", Original: "menu.json"}); err != nil {
		t.Fatal(err)
	}
	want := `<?xml version="1.0" encoding="UTF-8"?>
<xliff version="1.2" xmlns="urn:oasis:names:tc:xliff:document:1.2">
  <file source-language="en" target-language="ko" datatype="plaintext" original="menu.json">
    <header>
      <tool tool-id="jsonxliff-consolidate" tool-name="JSON to XLIFF Consolidator" tool-version="1.0"/>
    </header>
    <body>
      <trans-unit id="X_title">
        <source>Fish &amp; Chips</source>
        <target>&lt;b&gt;생선&lt;/b&gt;</target>
        <note>title for UUID: X</note>
      </trans-unit>
    </body>
  </file>
</xliff>
`
	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Errorf("unexpected document: diff (-want +got):\n%s", diff)
	}
}

func TestConsolidateDuplicateTarget(t *testing.T) {
	source := mustParse(t, `[{"uuid":"X","title":"A"}]`)
	target := mustParse(t, `[{"uuid":"X","title":"first"},{"uuid":"X","title":"last"}]`)
	res, err := Consolidate(source, target, Options{})
	if err != nil {
		t.Fatal(err)
	}
	want := []Unit{{ID: "X_title", Source: "A", Target: "last", Note: "title for UUID: X"}}
	if diff := cmp.Diff(want, res.Units); diff != "" {
		t.Errorf("unexpected units: diff (-want +got):\n%s", diff)
	}
}

func TestConsolidateNoIdentifierExplicitFields(t *testing.T) {
	for _, tt := range []struct {
		name   string
		source string
	}{
		{"no identifiers", `[{"title":"A"},{"uuid":"","title":"B"}]`},
		{"empty", `[]`},
	} {
		t.Run(tt.name, func(t *testing.T) {
			source := mustParse(t, tt.source)
			target := mustParse(t, `[{"uuid":"X","title":"가"}]`)
			_, err := Consolidate(source, target, Options{Fields: []string{"title"}})
			if errors.Cause(err) != ErrNoIdentifier {
				t.Fatalf("Consolidate = %v, want ErrNoIdentifier", err)
			}
		})
	}
}
