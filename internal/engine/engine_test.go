package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus/hooks/test"

	"jsonxliff/internal/records"
)

func flatMap(kv ...string) *records.FlatMap {
	m := records.NewFlatMap()
	for i := 0; i < len(kv); i += 2 {
		m.Set(kv[i], kv[i+1])
	}
	return m
}

func entries(m *records.FlatMap) [][2]string {
	var out [][2]string
	for _, key := range m.Keys() {
		v, _ := m.Get(key)
		out = append(out, [2]string{key, v})
	}
	return out
}

func TestNativeToXLIFF(t *testing.T) {
	dir := t.TempDir()
	source := flatMap("u1_title", "Fish & Chips", "u1_body", "<b>tasty</b>")
	target := flatMap("u1_title", "", "u1_body", "")
	path, err := Native{}.ToXLIFF(context.Background(), source, target, Options{
		SourceLang: "en",
		TargetLang: "ko",
		Tag:        "translation",
		Name:       "menu",
		Dir:        dir,
	})
	if err != nil {
		t.Fatal(err)
	}
	if got, want := path, filepath.Join(dir, "menu.translation.ko.xlf"); got != want {
		t.Errorf("path = %q, want %q", got, want)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	want := `<?xml version="1.0" encoding="UTF-8"?>
<xliff xmlns="urn:oasis:names:tc:xliff:document:2.0" version="2.0" srcLang="en" trgLang="ko">
  <file id="translation">
    <unit id="u1_title">
      <segment>
        <source>Fish &amp; Chips</source>
        <target></target>
      </segment>
    </unit>
    <unit id="u1_body">
      <segment>
        <source>&lt;b&gt;tasty&lt;/b&gt;</source>
        <target></target>
      </segment>
    </unit>
  </file>
</xliff>
`
	if diff := cmp.Diff(want, string(got)); diff != "" {
		t.Errorf("unexpected XLIFF: diff (-want +got):\n%s", diff)
	}

	m, err := Native{}.FromXLIFF(context.Background(), path, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(entries(source), entries(m)); diff != "" {
		t.Errorf("unexpected mapping: diff (-want +got):\n%s", diff)
	}
}

func TestParseXLIFF12(t *testing.T) {
	m, err := ParseXLIFF([]byte(`<?xml version="1.0" encoding="UTF-8"?>
<xliff version="1.2" xmlns="urn:oasis:names:tc:xliff:document:1.2">
  <file source-language="en" target-language="ko" datatype="plaintext" original="x">
    <body>
      <trans-unit id="X_title">
        <source>A</source>
        <target>가</target>
        <note>title for UUID: X</note>
      </trans-unit>
      <trans-unit id="X_body">
        <source>B &amp; C</source>
        <target></target>
      </trans-unit>
    </body>
  </file>
</xliff>
`))
	if err != nil {
		t.Fatal(err)
	}
	want := [][2]string{{"X_title", "가"}, {"X_body", "B & C"}}
	if diff := cmp.Diff(want, entries(m)); diff != "" {
		t.Errorf("unexpected mapping: diff (-want +got):\n%s", diff)
	}
}

func TestParseXLIFFInvalid(t *testing.T) {
	if _, err := ParseXLIFF([]byte(`<xliff><file>`)); err == nil {
		t.Fatal("ParseXLIFF succeeded on truncated input")
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry(Native{}, &Command{})
	e, err := r.Get("native")
	if err != nil {
		t.Fatal(err)
	}
	if e.Name() != "native" {
		t.Errorf("Get(native).Name() = %q", e.Name())
	}
	if _, err := r.Get("okapi"); errors.Cause(err) != ErrUnknownEngine {
		t.Errorf("Get(okapi) = %v, want ErrUnknownEngine", err)
	}
}

// TestHelperProcess is not a real test: it stands in for an external engine
// when re-executed by helperCommand.
func TestHelperProcess(t *testing.T) {
	if os.Getenv("JSONXLIFF_WANT_HELPER") != "1" {
		return
	}
	args := os.Args
	for len(args) > 0 && args[0] != "--" {
		args = args[1:]
	}
	if err := helperMain(args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	os.Exit(0)
}

func helperMain(args []string) error {
	mode := os.Getenv("JSONXLIFF_HELPER_MODE")
	if mode == "fail" {
		return fmt.Errorf("engine exploded")
	}
	ctx := context.Background()
	switch args[0] {
	case "to-xliff":
		source, err := records.LoadFlatMap(args[1])
		if err != nil {
			return err
		}
		target, err := records.LoadFlatMap(args[2])
		if err != nil {
			return err
		}
		name := BaseName(args[1])
		if mode == "misname" {
			name = "wrong"
		}
		_, err = Native{}.ToXLIFF(ctx, source, target, Options{
			SourceLang: args[3],
			TargetLang: args[4],
			Tag:        args[5],
			Name:       name,
			Dir:        args[6],
		})
		return err
	case "to-json":
		m, err := Native{}.FromXLIFF(ctx, args[1], Options{})
		if err != nil {
			return err
		}
		if mode == "misname" {
			return nil
		}
		b, err := records.Marshal(m)
		if err != nil {
			return err
		}
		return os.WriteFile(filepath.Join(args[4], DerivedJSONName(BaseName(args[1]), args[3])), b, 0644)
	}
	return fmt.Errorf("unknown mode %q", args[0])
}

func helperCommand(t *testing.T, mode string) *Command {
	logger, _ := test.NewNullLogger()
	return &Command{
		Path:   os.Args[0],
		Args:   []string{"-test.run=TestHelperProcess", "--"},
		Env:    []string{"JSONXLIFF_WANT_HELPER=1", "JSONXLIFF_HELPER_MODE=" + mode},
		Logger: logger,
	}
}

func TestCommandRoundTrip(t *testing.T) {
	dir := t.TempDir()
	c := helperCommand(t, "")
	source := flatMap("u1_title", "Hello", "u1_body", "World")
	opts := Options{SourceLang: "en", TargetLang: "ko", Tag: "translation", Name: "posts", Dir: dir}
	path, err := c.ToXLIFF(context.Background(), source, nil, opts)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(filepath.Base(path), "posts-") || !strings.HasSuffix(path, ".translation.ko.xlf") {
		t.Errorf("unexpected output path %q", path)
	}

	// Only the XLIFF remains; the intermediate mappings are removed.
	left, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(left) != 1 {
		var names []string
		for _, e := range left {
			names = append(names, e.Name())
		}
		t.Errorf("unexpected files left in %s: %v", dir, names)
	}

	m, err := c.FromXLIFF(context.Background(), path, opts)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(entries(source), entries(m)); diff != "" {
		t.Errorf("unexpected mapping: diff (-want +got):\n%s", diff)
	}
}

func TestCommandFailure(t *testing.T) {
	dir := t.TempDir()
	_, err := helperCommand(t, "fail").ToXLIFF(context.Background(), flatMap("k", "v"), nil, Options{
		SourceLang: "en", TargetLang: "ko", Tag: "t", Name: "in", Dir: dir,
	})
	if err == nil || !strings.Contains(err.Error(), "engine exploded") {
		t.Fatalf("ToXLIFF = %v, want engine failure", err)
	}
	left, _ := os.ReadDir(dir)
	if len(left) != 0 {
		t.Errorf("temporary files not cleaned up: %d left", len(left))
	}
}

func TestCommandMissingOutput(t *testing.T) {
	dir := t.TempDir()
	_, err := helperCommand(t, "misname").ToXLIFF(context.Background(), flatMap("k", "v"), nil, Options{
		SourceLang: "en", TargetLang: "ko", Tag: "t", Name: "in", Dir: dir,
	})
	if errors.Cause(err) != ErrOutputMissing {
		t.Fatalf("ToXLIFF = %v, want ErrOutputMissing", err)
	}
	if !strings.Contains(err.Error(), "wrong.t.ko.xlf") {
		t.Errorf("error does not list candidate files: %v", err)
	}
}

func TestCommandNotConfigured(t *testing.T) {
	_, err := (&Command{}).FromXLIFF(context.Background(), os.Args[0], Options{Dir: t.TempDir()})
	if err == nil {
		t.Fatal("FromXLIFF succeeded without a configured command")
	}
}
