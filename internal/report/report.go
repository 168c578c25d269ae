// Package report renders a summary of one conversion run as Markdown or
// HTML.
package report

import (
	"bytes"
	"fmt"
	"html"
	"io"
	"os"
	"path/filepath"
	"strings"

	markdownfmt "github.com/Kunde21/markdownfmt/v2/markdown"
	"github.com/google/renameio"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	gmhtml "github.com/yuin/goldmark/renderer/html"
)

func newGoldmark() goldmark.Markdown {
	return goldmark.New(
		// The counts and settings sections are GFM pipe tables.
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
		goldmark.WithRendererOptions(
			gmhtml.WithXHTML(),
		),
	)
}

type Row struct {
	Label string
	Value string
}

type Report struct {
	Title      string
	Inputs     []string
	Output     string
	SourceLang string
	TargetLang string
	Counts     []Row
	Warnings   []string
}

func cell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

// markdownEscaper backslash-escapes characters that would otherwise start
// emphasis, links, code spans or raw HTML.
var markdownEscaper = strings.NewReplacer(
	`\`, `\\`,
	"`", "\\`",
	"*", `\*`,
	"_", `\_`,
	"[", `\[`,
	"]", `\]`,
	"<", `\<`,
	">", `\>`,
	"|", `\|`,
)

func text(s string) string {
	return markdownEscaper.Replace(s)
}

func (r *Report) source() []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "# %s\n\n", r.Title)
	buf.WriteString("| Setting | Value |\n|---|---|\n")
	for _, in := range r.Inputs {
		fmt.Fprintf(&buf, "| Input | `%s` |\n", cell(in))
	}
	fmt.Fprintf(&buf, "| Output | `%s` |\n", cell(r.Output))
	fmt.Fprintf(&buf, "| Languages | %s → %s |\n\n", cell(r.SourceLang), cell(r.TargetLang))

	if len(r.Counts) > 0 {
		buf.WriteString("## Counts\n\n| Item | Count |\n|---|---|\n")
		for _, row := range r.Counts {
			fmt.Fprintf(&buf, "| %s | %s |\n", text(row.Label), text(row.Value))
		}
		buf.WriteString("\n")
	}

	buf.WriteString("## Warnings\n\n")
	if len(r.Warnings) == 0 {
		buf.WriteString("None.\n")
	}
	for _, w := range r.Warnings {
		fmt.Fprintf(&buf, "- %s\n", text(w))
	}
	return buf.Bytes()
}

// Markdown returns the report as formatted Markdown.
func (r *Report) Markdown() ([]byte, error) {
	return markdownfmt.Process("", r.source())
}

const htmlFooter = `</main>
</body>
</html>
`

// HTML writes the report as a standalone XHTML page.
func (r *Report) HTML(w io.Writer) error {
	fmt.Fprintf(w, `<!DOCTYPE html>
<html lang="en">
<head>
<meta http-equiv="Content-Type" content="application/xhtml+xml; charset=UTF-8" />
<title>%s</title>
</head>
<body>
<main>
`, html.EscapeString(r.Title))
	if err := newGoldmark().Convert(r.source(), w); err != nil {
		return err
	}
	_, err := io.WriteString(w, htmlFooter)
	return err
}

// Write stores the report at path, as HTML when the extension is .html or
// .htm and as Markdown otherwise. The file is replaced atomically.
func Write(path string, r *Report) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		out, err := renameio.TempFile("", path)
		if err != nil {
			return err
		}
		defer out.Cleanup()
		if err := r.HTML(out); err != nil {
			return err
		}
		return out.CloseAtomicallyReplace()
	default:
		b, err := r.Markdown()
		if err != nil {
			return err
		}
		return renameio.WriteFile(path, b, 0644)
	}
}
