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
	"jsonxliff/internal/reconstruct"
	"jsonxliff/internal/records"
	"jsonxliff/internal/report"
)

// convert1 has eng extract the units of the XLIFF document fn and writes
// the reconstructed record array to outfn.
func convert1(ctx context.Context, fn, outfn string, cfg *config.Config, eng engine.Engine) (*report.Report, error) {
	if err := cli.CheckInput(fn); err != nil {
		return nil, err
	}
	dir, cleanup, err := cli.WorkDir("xliff2json-")
	if err != nil {
		return nil, err
	}
	defer cleanup()

	flat, err := eng.FromXLIFF(ctx, fn, engine.Options{
		SourceLang: cfg.SourceLang,
		TargetLang: cfg.TargetLang,
		Tag:        cfg.Tag,
		Name:       engine.BaseName(fn),
		Dir:        dir,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "%s engine", eng.Name())
	}

	res := reconstruct.Reconstruct(flat, reconstruct.Options{
		IDField: cfg.IDField,
		Fields:  cfg.Fields,
	})
	var warnings []string
	if res.Fallback && flat.Len() > 0 {
		const msg = "no unit id has the <uuid>_<field> form, emitting one record per unit"
		log.Warn(msg)
		warnings = append(warnings, msg)
	} else if dropped := flat.Len() - res.Matched; dropped > 0 {
		msg := strconv.Itoa(dropped) + " units with unrecognized ids were dropped"
		log.Warn(msg)
		warnings = append(warnings, msg)
	}

	recs := res.Records
	if recs == nil {
		recs = []*records.Record{}
	}
	b, err := records.Marshal(recs)
	if err != nil {
		return nil, err
	}
	if err := cli.WriteOutput(outfn, b); err != nil {
		return nil, err
	}
	log.Printf("wrote %d records from %d units to %s", len(recs), flat.Len(), outfn)

	return &report.Report{
		Title:      "XLIFF to JSON conversion",
		Inputs:     []string{fn},
		Output:     outfn,
		SourceLang: cfg.SourceLang,
		TargetLang: cfg.TargetLang,
		Counts: []report.Row{
			{Label: "Translation units", Value: strconv.Itoa(flat.Len())},
			{Label: "Units recognized", Value: strconv.Itoa(res.Matched)},
			{Label: "Records written", Value: strconv.Itoa(len(recs))},
		},
		Warnings: warnings,
	}, nil
}

func xliff2json(args []string) error {
	fs := pflag.NewFlagSet("xliff2json", pflag.ContinueOnError)
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
		return cli.Syntax(fs, "<input.xlf> <output.json> [sourceLang] [targetLang]")
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
	if err := xliff2json(os.Args[1:]); err != nil {
		log.Fatal(err)
	}
}
