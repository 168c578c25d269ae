// Package engine abstracts the JSON⇄XLIFF transcoding step behind a narrow
// interface. Native converts in-process; Command delegates to an external
// program and locates its output by the derived file names below.
package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"jsonxliff/internal/records"
)

var (
	// ErrOutputMissing is returned when an engine run succeeded but the
	// expected output file does not exist.
	ErrOutputMissing = errors.New("engine did not produce the expected output file")

	ErrUnknownEngine = errors.New("unknown engine")
)

type Options struct {
	SourceLang string
	TargetLang string
	Tag        string
	// Name is the input file's base name without extension. Derived output
	// names start with it.
	Name string
	// Dir receives intermediate and output files.
	Dir string
}

type Engine interface {
	Name() string
	// ToXLIFF converts a source and a target flat mapping into an XLIFF file
	// inside opts.Dir and returns its path.
	ToXLIFF(ctx context.Context, source, target *records.FlatMap, opts Options) (string, error)
	// FromXLIFF converts the XLIFF file at path into a flat mapping.
	FromXLIFF(ctx context.Context, path string, opts Options) (*records.FlatMap, error)
}

// DerivedXLIFFName is the file name an engine gives the XLIFF produced from
// input name.
func DerivedXLIFFName(name, tag, targetLang string) string {
	return fmt.Sprintf("%s.%s.%s.xlf", name, tag, targetLang)
}

// DerivedJSONName is the file name an engine gives the flat mapping
// extracted from input name.
func DerivedJSONName(name, targetLang string) string {
	return fmt.Sprintf("%s.%s.json", name, targetLang)
}

// BaseName strips directory and extension from path.
func BaseName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

type Registry struct{ byName map[string]Engine }

func NewRegistry(engines ...Engine) *Registry {
	r := &Registry{byName: map[string]Engine{}}
	for _, e := range engines {
		r.Register(e)
	}
	return r
}

func (r *Registry) Register(e Engine) { r.byName[e.Name()] = e }

func (r *Registry) Get(name string) (Engine, error) {
	e, ok := r.byName[name]
	if !ok {
		return nil, errors.Wrap(ErrUnknownEngine, name)
	}
	return e, nil
}

// candidates lists files in dir that look like engine output, for
// diagnostics when the expected file is missing.
func candidates(dir string, exts ...string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		for _, want := range exts {
			if ext == want {
				names = append(names, e.Name())
				break
			}
		}
	}
	sort.Strings(names)
	return names
}

func missingOutput(path string, exts ...string) error {
	found := candidates(filepath.Dir(path), exts...)
	listing := "none"
	if len(found) > 0 {
		listing = strings.Join(found, ", ")
	}
	return errors.Wrapf(ErrOutputMissing, "%s (candidates in %s: %s)", path, filepath.Dir(path), listing)
}

// cleanup removes intermediate files. Failures are logged, never returned.
func cleanup(logger logrus.FieldLogger, paths ...string) {
	for _, p := range paths {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			logger.WithError(err).WithField("path", p).Warn("could not remove temporary file")
		}
	}
}
