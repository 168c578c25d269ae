package engine

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"jsonxliff/internal/records"
)

// Command runs an external conversion program:
//
//	<path> [args...] to-xliff <source.json> <target.json> <srcLang> <trgLang> <tag> <outDir>
//	<path> [args...] to-json <in.xlf> <srcLang> <trgLang> <outDir>
//
// The program must write DerivedXLIFFName (resp. DerivedJSONName) of its
// input into outDir. The run blocks until the program exits.
type Command struct {
	Path string
	Args []string
	// Env is appended to the current environment.
	Env    []string
	Logger logrus.FieldLogger
}

func (c *Command) Name() string { return "command" }

func (c *Command) logger() logrus.FieldLogger {
	if c.Logger == nil {
		return logrus.StandardLogger()
	}
	return c.Logger
}

func (c *Command) run(ctx context.Context, args ...string) error {
	if c.Path == "" {
		return errors.New("engine command is not configured")
	}
	cmd := exec.CommandContext(ctx, c.Path, append(append([]string(nil), c.Args...), args...)...)
	cmd.Env = append(os.Environ(), c.Env...)
	c.logger().WithField("args", args).Debug("running engine")
	out, err := cmd.CombinedOutput()
	if err != nil {
		return errors.Wrapf(err, "%s %s: %s", c.Path, args[0], bytes.TrimSpace(out))
	}
	return nil
}

func (c *Command) ToXLIFF(ctx context.Context, source, target *records.FlatMap, opts Options) (string, error) {
	// A random token keeps concurrent runs on the same input apart.
	name := opts.Name + "-" + uuid.NewString()
	sourcePath := filepath.Join(opts.Dir, name+".json")
	targetPath := filepath.Join(opts.Dir, name+".target.json")
	defer cleanup(c.logger(), sourcePath, targetPath)

	if err := writeFlatMap(sourcePath, source); err != nil {
		return "", err
	}
	if target == nil {
		target = records.NewFlatMap()
	}
	if err := writeFlatMap(targetPath, target); err != nil {
		return "", err
	}

	if err := c.run(ctx, "to-xliff", sourcePath, targetPath, opts.SourceLang, opts.TargetLang, opts.Tag, opts.Dir); err != nil {
		return "", err
	}
	out := filepath.Join(opts.Dir, DerivedXLIFFName(name, opts.Tag, opts.TargetLang))
	if _, err := os.Stat(out); err != nil {
		if os.IsNotExist(err) {
			return "", missingOutput(out, ".xlf", ".xliff")
		}
		return "", err
	}
	return out, nil
}

func (c *Command) FromXLIFF(ctx context.Context, path string, opts Options) (*records.FlatMap, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(records.ErrMissingFile, path)
		}
		return nil, err
	}
	if err := c.run(ctx, "to-json", path, opts.SourceLang, opts.TargetLang, opts.Dir); err != nil {
		return nil, err
	}
	out := filepath.Join(opts.Dir, DerivedJSONName(BaseName(path), opts.TargetLang))
	m, err := records.LoadFlatMap(out)
	if err != nil {
		if errors.Cause(err) == records.ErrMissingFile {
			return nil, missingOutput(out, ".json")
		}
		return nil, err
	}
	cleanup(c.logger(), out)
	return m, nil
}

func writeFlatMap(path string, m *records.FlatMap) error {
	b, err := records.Marshal(m)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0644)
}
