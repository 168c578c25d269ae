package main

import (
	"context"
	"os"
	"strconv"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"jsonxliff/internal/cli"
	"jsonxliff/internal/config"
	"jsonxliff/internal/engine"
	"jsonxliff/internal/flatten"
	"jsonxliff/internal/records"
	"jsonxliff/internal/report"
)

// convert1 flattens the records in fn and has eng turn them into the XLIFF
// document outfn.
func convert1(ctx context.Context, fn, outfn string, cfg *config.Config, eng engine.Engine) (*report.Report, error) {
	recs, err := records.Load(fn)
	if err != nil {
		return nil, err
	}
	flat := flatten.Flatten(recs, flatten.Options{
		IDField: cfg.IDField,
		Fields:  cfg.Fields,
	})
	log.Printf("flattened %d of %d records into %d units", flat.Records, len(recs), flat.Source.Len())

	dir, cleanup, err := cli.WorkDir("json2xliff-")
	if err != nil {
		return nil, err
	}
	defer cleanup()

	path, err := eng.ToXLIFF(ctx, flat.Source, flat.Target, engine.Options{
		SourceLang: cfg.SourceLang,
		TargetLang: cfg.TargetLang,
		Tag:        cfg.Tag,
		Name:       engine.BaseName(fn),
		Dir:        dir,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "%s engine", eng.Name())
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := cli.WriteOutput(outfn, b); err != nil {
		return nil, err
	}
	log.Printf("wrote %s", outfn)

	return &report.Report{
		Title:      "JSON to XLIFF conversion",
		Inputs:     []string{fn},
		Output:     outfn,
		SourceLang: cfg.SourceLang,
		TargetLang: cfg.TargetLang,
		Counts: []report.Row{
			{Label: "Records read", Value: strconv.Itoa(len(recs))},
			{Label: "Records converted", Value: strconv.Itoa(flat.Records)},
			{Label: "Records skipped", Value: strconv.Itoa(flat.Skipped)},
			{Label: "Translation units", Value: strconv.Itoa(flat.Source.Len())},
		},
	}, nil
}

func json2xliff(args []string) error {
	fs := pflag.NewFlagSet("json2xliff", pflag.ContinueOnError)
	var flags cli.Flags
	flags.Register(fs)
	flags.RegisterEngine(fs)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if fs.NArg() < 2 || fs.NArg() > 4 {
		return cli.Syntax(fs, "<input.json> <output.xlf> [sourceLang] [targetLang]")
	}
	cfg, err := flags.Resolve(fs.Args()[2:])
	if err != nil {
		return err
	}
	eng, err := cli.NewEngine(cfg)
	if err != nil {
		return err
	}
	rep, err := convert1(context.Background(), fs.Arg(0), fs.Arg(1), cfg, eng)
	if err != nil {
		return err
	}
	if flags.Report != "" {
		return report.Write(flags.Report, rep)
	}
	return nil
}

func main() {
	if err := json2xliff(os.Args[1:]); err != nil {
		log.Fatal(err)
	}
}
