// Package config loads converter settings from the environment, an
// optional .env file and optional YAML profiles.
package config

import (
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// ErrInvalidLanguage is returned for language codes that are not valid
// BCP 47 tags.
var ErrInvalidLanguage = errors.New("invalid language code")

type Config struct {
	SourceLang string `env:"XLIFF_SOURCE_LANG" envDefault:"en"`
	TargetLang string `env:"XLIFF_TARGET_LANG" envDefault:"ko"`
	IDField    string `env:"XLIFF_ID_FIELD" envDefault:"uuid"`
	// Fields are flattened and recognized during reconstruction.
	Fields []string `env:"XLIFF_FIELDS" envSeparator:"," envDefault:"title,body"`
	// ConsolidateFields, when set, replaces field auto-detection.
	ConsolidateFields []string `env:"XLIFF_CONSOLIDATE_FIELDS" envSeparator:","`
	Engine            string   `env:"XLIFF_ENGINE" envDefault:"native"`
	EngineCommand     string   `env:"XLIFF_ENGINE_COMMAND"`
	Tag               string   `env:"XLIFF_TAG" envDefault:"translation"`
	LogLevel          string   `env:"XLIFF_LOG_LEVEL" envDefault:"info"`
}

// Load reads the configuration from the environment. Files in envFiles are
// loaded first (default: .env); a missing default file is not an error.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		_ = godotenv.Load()
	} else if err := godotenv.Load(envFiles...); err != nil {
		return nil, errors.Wrap(err, "loading env files")
	}
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, errors.Wrap(err, "parsing environment")
	}
	return &cfg, nil
}

// Profile is the YAML form of a project's settings. Unset keys leave the
// configuration unchanged.
type Profile struct {
	Identifier        string   `yaml:"identifier"`
	Fields            []string `yaml:"fields"`
	ConsolidateFields []string `yaml:"consolidate_fields"`
	SourceLanguage    string   `yaml:"source_language"`
	TargetLanguage    string   `yaml:"target_language"`
	Tag               string   `yaml:"tag"`
}

func LoadProfile(path string) (*Profile, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var p Profile
	if err := yaml.Unmarshal(b, &p); err != nil {
		return nil, errors.Wrapf(err, "parsing profile %s", path)
	}
	return &p, nil
}

// Apply overrides cfg with the values set in p.
func (p *Profile) Apply(cfg *Config) {
	if p.Identifier != "" {
		cfg.IDField = p.Identifier
	}
	if len(p.Fields) > 0 {
		cfg.Fields = p.Fields
	}
	if len(p.ConsolidateFields) > 0 {
		cfg.ConsolidateFields = p.ConsolidateFields
	}
	if p.SourceLanguage != "" {
		cfg.SourceLang = p.SourceLanguage
	}
	if p.TargetLanguage != "" {
		cfg.TargetLang = p.TargetLanguage
	}
	if p.Tag != "" {
		cfg.Tag = p.Tag
	}
}

// Validate checks language codes and required fields.
func (c *Config) Validate() error {
	for _, lang := range []string{c.SourceLang, c.TargetLang} {
		if _, err := language.Parse(lang); err != nil {
			return errors.Wrapf(ErrInvalidLanguage, "%q", lang)
		}
	}
	if c.IDField == "" {
		return errors.New("identifier field must not be empty")
	}
	if len(c.Fields) == 0 {
		return errors.New("at least one field is required")
	}
	return nil
}

// Level returns the configured log level, falling back to info.
func (c *Config) Level() logrus.Level {
	lvl, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return logrus.InfoLevel
	}
	return lvl
}
