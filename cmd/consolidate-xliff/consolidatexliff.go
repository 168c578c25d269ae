package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strconv"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"jsonxliff/internal/cli"
	"jsonxliff/internal/config"
	"jsonxliff/internal/consolidate"
	"jsonxliff/internal/records"
	"jsonxliff/internal/report"
)

// consolidate1 merges the source and target record arrays into one
// bilingual XLIFF 1.2 document at outfn. original defaults to the source
// file's base name.
func consolidate1(sourcefn, targetfn, outfn, original string, cfg *config.Config) (*report.Report, error) {
	source, err := records.Load(sourcefn)
	if err != nil {
		return nil, err
	}
	target, err := records.Load(targetfn)
	if err != nil {
		return nil, err
	}
	log.Printf("loaded %d source and %d target records", len(source), len(target))

	res, err := consolidate.Consolidate(source, target, consolidate.Options{
		IDField: cfg.IDField,
		Fields:  cfg.ConsolidateFields,
	})
	if err != nil {
		return nil, err
	}
	log.Printf("translatable fields: %v", res.Fields)

	if original == "" {
		original = filepath.Base(sourcefn)
	}
	var buf bytes.Buffer
	if err := res.WriteXLIFF(&buf, consolidate.Header{
		SourceLang: cfg.SourceLang,
		TargetLang: cfg.TargetLang,
		Original:   original,
	}); err != nil {
		return nil, err
	}
	if err := cli.WriteOutput(outfn, buf.Bytes()); err != nil {
		return nil, err
	}
	log.Printf("wrote %d translation units for %d records to %s (%d skipped without target)",
		len(res.Units), res.Matched, outfn, len(res.Unmatched))

	var warnings []string
	for _, id := range res.Unmatched {
		warnings = append(warnings, "no target record for "+cfg.IDField+" "+id)
	}
	return &report.Report{
		Title:      "XLIFF consolidation",
		Inputs:     []string{sourcefn, targetfn},
		Output:     outfn,
		SourceLang: cfg.SourceLang,
		TargetLang: cfg.TargetLang,
		Counts: []report.Row{
			{Label: "Source records", Value: strconv.Itoa(len(source))},
			{Label: "Target records", Value: strconv.Itoa(len(target))},
			{Label: "Records matched", Value: strconv.Itoa(res.Matched)},
			{Label: "Records without target", Value: strconv.Itoa(len(res.Unmatched))},
			{Label: "Records without identifier", Value: strconv.Itoa(res.NoID)},
			{Label: "Translation units", Value: strconv.Itoa(len(res.Units))},
		},
		Warnings: warnings,
	}, nil
}

func consolidateXLIFF(args []string) error {
	fs := pflag.NewFlagSet("consolidate-xliff", pflag.ContinueOnError)
	flags := cli.Flags{Consolidate: true}
	flags.Register(fs)
	original := fs.String("original", "", "original attribute of the file element (default: source file name)")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if fs.NArg() < 3 || fs.NArg() > 5 {
		return cli.Syntax(fs, "<source.json> <target.json> <output.xlf> [sourceLang] [targetLang]")
	}
	cfg, err := flags.Resolve(fs.Args()[3:])
	if err != nil {
		return err
	}
	rep, err := consolidate1(fs.Arg(0), fs.Arg(1), fs.Arg(2), *original, cfg)
	if err != nil {
		return err
	}
	if flags.Report != "" {
		return report.Write(flags.Report, rep)
	}
	return nil
}

func main() {
	if err := consolidateXLIFF(os.Args[1:]); err != nil {
		log.Fatal(err)
	}
}
