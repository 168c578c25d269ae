// Package cli holds the flag handling and file plumbing shared by the
// converter binaries.
package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/renameio"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"jsonxliff/internal/config"
	"jsonxliff/internal/engine"
	"jsonxliff/internal/records"
)

// Flags are the options every binary accepts.
type Flags struct {
	Profile string
	Report  string
	IDField string
	Tag     string
	Fields  []string

	// Consolidate makes --fields replace field auto-detection instead of
	// the flatten field set.
	Consolidate bool

	// Set by RegisterEngine.
	Engine        string
	EngineCommand string
}

func (f *Flags) Register(fs *pflag.FlagSet) {
	fs.StringVar(&f.Profile, "profile", "", "YAML profile with identifier, fields and languages")
	fs.StringVar(&f.Report, "report", "", "write a conversion report (.md or .html)")
	fs.StringVar(&f.IDField, "id-field", "", "identifier field name")
	fs.StringVar(&f.Tag, "tag", "", "tag passed to the conversion engine")
	fs.StringSliceVar(&f.Fields, "fields", nil, "translatable field names")
}

// RegisterEngine adds the engine selection flags.
func (f *Flags) RegisterEngine(fs *pflag.FlagSet) {
	fs.StringVar(&f.Engine, "engine", "", "conversion engine (native or command)")
	fs.StringVar(&f.EngineCommand, "engine-command", "", "executable used by the command engine")
}

// Resolve builds the effective configuration: environment, then profile,
// then flags, then the optional positional languages [sourceLang [targetLang]].
// It also sets the standard logger's level.
func (f *Flags) Resolve(langs []string) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if f.Profile != "" {
		p, err := config.LoadProfile(f.Profile)
		if err != nil {
			return nil, err
		}
		p.Apply(cfg)
	}
	if f.IDField != "" {
		cfg.IDField = f.IDField
	}
	if f.Tag != "" {
		cfg.Tag = f.Tag
	}
	if len(f.Fields) > 0 {
		if f.Consolidate {
			cfg.ConsolidateFields = f.Fields
		} else {
			cfg.Fields = f.Fields
		}
	}
	if f.Engine != "" {
		cfg.Engine = f.Engine
	}
	if f.EngineCommand != "" {
		cfg.EngineCommand = f.EngineCommand
	}
	if len(langs) > 0 {
		cfg.SourceLang = langs[0]
	}
	if len(langs) > 1 {
		cfg.TargetLang = langs[1]
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logrus.SetLevel(cfg.Level())
	return cfg, nil
}

// Syntax prints usage to stderr and returns the error a binary exits with
// on wrong arguments.
func Syntax(fs *pflag.FlagSet, args string) error {
	name := filepath.Base(os.Args[0])
	fmt.Fprintf(os.Stderr, "usage: %s %s\n%s", name, args, fs.FlagUsages())
	return fmt.Errorf("syntax: %s %s", name, args)
}

// NewEngine returns the engine named in cfg.
func NewEngine(cfg *config.Config) (engine.Engine, error) {
	reg := engine.NewRegistry(
		engine.Native{},
		&engine.Command{Path: cfg.EngineCommand},
	)
	return reg.Get(cfg.Engine)
}

// CheckInput fails with records.ErrMissingFile if path does not exist.
func CheckInput(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return errors.Wrap(records.ErrMissingFile, path)
		}
		return err
	}
	return nil
}

// WriteOutput atomically replaces path with data, creating parent
// directories as needed.
func WriteOutput(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return renameio.WriteFile(path, data, 0644)
}

// WorkDir creates a scratch directory for engine files. The returned
// function removes it; failures are only logged.
func WorkDir(prefix string) (string, func(), error) {
	dir, err := os.MkdirTemp("", prefix)
	if err != nil {
		return "", nil, err
	}
	return dir, func() {
		if err := os.RemoveAll(dir); err != nil {
			logrus.WithError(err).WithField("path", dir).Warn("could not remove work directory")
		}
	}, nil
}
